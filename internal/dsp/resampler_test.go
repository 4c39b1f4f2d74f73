package dsp

import (
	"math"
	"testing"
)

// TestResampler_UnityRatio checks that a 1:1 resampler is a pure
// delay-and-scale: exactly one output per input, tracking the input.
func TestResampler_UnityRatio(t *testing.T) {
	r := NewResampler(1.0)

	input := make([]float32, 1000)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * float64(i) / 80))
	}
	output := r.Process(input)

	if len(output) != len(input) {
		t.Fatalf("Expected %d outputs at unity ratio, got %d", len(input), len(output))
	}

	// At 1:1 only the starting arm fires, so the output is the input
	// delayed by half the arm length and scaled by the arm's DC gain.
	var gain float32
	for _, tap := range r.arms[r.arm] {
		gain += tap
	}
	delay := (r.armLen - 1) / 2
	for i := r.armLen; i < len(output); i++ {
		want := gain * input[i-delay]
		if math.Abs(float64(output[i]-want)) > 1e-5 {
			t.Fatalf("Sample %d: expected %f, got %f", i, want, output[i])
		}
	}
}

// TestResampler_DoubleRatio checks exact 2x interpolation counts.
func TestResampler_DoubleRatio(t *testing.T) {
	r := NewResampler(2.0)

	var total int
	for block := 0; block < 5; block++ {
		out := r.Process(make([]float32, 1000))
		total += len(out)
	}
	if total != 10000 {
		t.Fatalf("Expected 10000 outputs for 5000 inputs at 2x, got %d", total)
	}
}

// TestResampler_FractionalRatio checks the long-run ratio for a
// non-integer, non-power-of-two ratio.
func TestResampler_FractionalRatio(t *testing.T) {
	const rate = 8000.0 / 12000.0
	r := NewResampler(rate)

	const n = 120000
	out := r.Process(make([]float32, n))

	expected := int(rate * n)
	if len(out) < expected-2 || len(out) > expected+2 {
		t.Fatalf("Expected about %d outputs for %d inputs, got %d", expected, n, len(out))
	}
}

// TestResampler_ChunkedMatchesFull checks that the accumulator and
// window state survive arbitrary block boundaries.
func TestResampler_ChunkedMatchesFull(t *testing.T) {
	const rate = 0.7

	input := make([]float32, 1200)
	for i := range input {
		input[i] = float32(math.Sin(2*math.Pi*float64(i)/37) + 0.5*math.Sin(2*math.Pi*float64(i)/113))
	}

	r1 := NewResampler(rate)
	fullOutput := r1.Process(input)

	r2 := NewResampler(rate)
	var chunkedOutput []float32
	for _, bounds := range [][2]int{{0, 13}, {13, 200}, {200, 201}, {201, 799}, {799, 1200}} {
		chunkedOutput = append(chunkedOutput, r2.Process(input[bounds[0]:bounds[1]])...)
	}

	if len(fullOutput) != len(chunkedOutput) {
		t.Fatalf("Mismatched lengths: full=%d, chunked=%d", len(fullOutput), len(chunkedOutput))
	}
	for i := range fullOutput {
		if !almostEqual(fullOutput[i], chunkedOutput[i]) {
			t.Errorf("Mismatch at index %d: full=%f, chunked=%f", i, fullOutput[i], chunkedOutput[i])
		}
	}
}

// TestResampler_DCLevel checks that a constant level survives
// resampling at a ratio that exercises the interpolation between
// adjacent arms.
func TestResampler_DCLevel(t *testing.T) {
	r := NewResampler(1.25)

	input := make([]float32, 400)
	for i := range input {
		input[i] = 1.0
	}
	output := r.Process(input)

	for i := 30; i < len(output); i++ {
		if math.Abs(float64(output[i])-1.0) > 0.05 {
			t.Fatalf("Sample %d drifted from DC: %f", i, output[i])
		}
	}
}

// TestResampler_ToneFidelity pushes a mid-band tone through a
// fractional ratio and checks the output amplitude is preserved.
func TestResampler_ToneFidelity(t *testing.T) {
	const rate = 1.5
	r := NewResampler(rate)

	// 0.05 of the input sample rate: far below the filter cutoff.
	input := make([]float32, 2000)
	for i := range input {
		input[i] = float32(math.Sin(2 * math.Pi * 0.05 * float64(i)))
	}
	output := r.Process(input)

	// RMS over the settled region should match a unit sine.
	var sum float64
	count := 0
	for i := 100; i < len(output); i++ {
		sum += float64(output[i]) * float64(output[i])
		count++
	}
	rms := math.Sqrt(sum / float64(count))
	if math.Abs(rms-1/math.Sqrt2) > 0.05 {
		t.Fatalf("Expected RMS near %f, got %f", 1/math.Sqrt2, rms)
	}
}
