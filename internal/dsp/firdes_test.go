package dsp

import (
	"math"
	"testing"
)

const float32EqualityThreshold = 1e-6

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) <= float32EqualityThreshold
}

// TestLowPass_TapCount checks the transition-width driven length
// estimate against known designs.
func TestLowPass_TapCount(t *testing.T) {
	cases := []struct {
		sampFreq   float64
		cutoff     float64
		transition float64
		want       int
	}{
		{1, 0.090, 0.010, 241},
		{40000, 12.5e3, 1e3, 97},
		{40000, 3.5e3, 500, 193},
		{32, 0.5, 0.2, 385},
	}
	for _, c := range cases {
		taps := LowPass(1, c.sampFreq, c.cutoff, c.transition)
		if len(taps) != c.want {
			t.Errorf("LowPass(%v, %v, %v): expected %d taps, got %d",
				c.sampFreq, c.cutoff, c.transition, c.want, len(taps))
		}
		if len(taps)%2 == 0 {
			t.Errorf("LowPass(%v, %v, %v): tap count %d is even",
				c.sampFreq, c.cutoff, c.transition, len(taps))
		}
	}
}

// TestLowPass_Properties checks symmetry and DC gain of a design.
func TestLowPass_Properties(t *testing.T) {
	const gain = 1.0
	taps := LowPass(gain, 1, 0.090, 0.010)

	// 1. Check for symmetry (property of linear-phase FIR filters)
	n := len(taps)
	for i := 0; i < n/2; i++ {
		if !almostEqual(float32(taps[i]), float32(taps[n-1-i])) {
			t.Errorf("Filter is not symmetric. Tap %d (%f) != Tap %d (%f)",
				i, taps[i], n-1-i, taps[n-1-i])
		}
	}

	// 2. Check that the sum of taps equals the requested gain
	var sum float64
	for _, tap := range taps {
		sum += tap
	}
	if !almostEqual(float32(sum), float32(gain)) {
		t.Errorf("Expected sum of taps to be %f, but got %f", gain, sum)
	}
}

// TestLowPass_Gain checks that the gain parameter scales the DC
// response directly.
func TestLowPass_Gain(t *testing.T) {
	const gain = 32.0
	taps := LowPass(gain, 32, 0.5, 0.2)

	var sum float64
	for _, tap := range taps {
		sum += tap
	}
	if !almostEqual(float32(sum), float32(gain)) {
		t.Errorf("Expected sum of taps to be %f, but got %f", gain, sum)
	}
}

// TestLowPass_StopBand feeds a tone well inside the stop band through
// the filter frequency response and checks it is strongly attenuated.
func TestLowPass_StopBand(t *testing.T) {
	taps := LowPass(1, 40000, 3.5e3, 500)

	// Evaluate |H(f)| directly at a stop-band frequency.
	const freq = 8000.0
	const rate = 40000.0
	var re, im float64
	for n, tap := range taps {
		re += tap * math.Cos(2*math.Pi*freq*float64(n)/rate)
		im -= tap * math.Sin(2*math.Pi*freq*float64(n)/rate)
	}
	mag := math.Sqrt(re*re + im*im)
	if mag > 0.01 {
		t.Errorf("Stop-band response at %v Hz too high: %f", freq, mag)
	}
}

// TestHighPass_Properties checks Nyquist gain and DC rejection.
func TestHighPass_Properties(t *testing.T) {
	taps := HighPass(1, 8000, 300, 200)

	if len(taps)%2 == 0 {
		t.Fatalf("Tap count %d is even", len(taps))
	}

	// Gain at Nyquist is the alternating-sign sum and should be 1.
	var nyq float64
	sign := 1.0
	for _, tap := range taps {
		nyq += tap * sign
		sign = -sign
	}
	if !almostEqual(float32(math.Abs(nyq)), 1.0) {
		t.Errorf("Expected Nyquist gain 1.0, got %f", nyq)
	}

	// Gain at DC is the plain sum and should be near zero.
	var dc float64
	for _, tap := range taps {
		dc += tap
	}
	if math.Abs(dc) > 0.06 {
		t.Errorf("Expected DC gain near 0, got %f", dc)
	}

	// A tone below the stop edge should be strongly attenuated.
	const freq = 100.0
	const rate = 8000.0
	var re, im float64
	for n, tap := range taps {
		re += tap * math.Cos(2*math.Pi*freq*float64(n)/rate)
		im -= tap * math.Sin(2*math.Pi*freq*float64(n)/rate)
	}
	if mag := math.Sqrt(re*re + im*im); mag > 0.03 {
		t.Errorf("Stop-band response at %v Hz too high: %f", freq, mag)
	}
}
