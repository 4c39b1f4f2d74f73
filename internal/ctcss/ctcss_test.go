package ctcss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardTones(t *testing.T) {
	tones := StandardTones()

	assert.Len(t, tones, 38)
	assert.Equal(t, 67.0, tones[0])
	assert.Equal(t, 250.3, tones[len(tones)-1])
	for i := 1; i < len(tones); i++ {
		assert.Greater(t, tones[i], tones[i-1], "table must be ascending")
	}

	// Mutating the returned slice must not poison the table.
	tones[0] = 0
	assert.Equal(t, 67.0, StandardTones()[0])
}

func TestSelect(t *testing.T) {
	table := StandardTones()

	tone, err := Select(table, 67.0)
	require.NoError(t, err)
	assert.Equal(t, Tone{Freq: 67.0, Index: 0}, tone)

	tone, err = Select(table, 103.5)
	require.NoError(t, err)
	assert.Equal(t, Tone{Freq: 103.5, Index: 12}, tone)

	tone, err = Select(table, 250.3)
	require.NoError(t, err)
	assert.Equal(t, Tone{Freq: 250.3, Index: 37}, tone)

	// The same lookup twice returns the same index.
	again, err := Select(table, 103.5)
	require.NoError(t, err)
	assert.Equal(t, 12, again.Index)
}

func TestSelect_NotFound(t *testing.T) {
	_, err := Select(StandardTones(), 68.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToneNotFound)

	// Near-misses are not matched either; selection is exact.
	_, err = Select(StandardTones(), 67.001)
	assert.ErrorIs(t, err, ErrToneNotFound)
}

// sine returns n samples of a sine at freq Hz sampled at rate.
func sine(n int, freq, amp float64, rate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestDetector(t *testing.T) {
	const rate = 8000

	det := NewDetector(103.5, rate)
	for _, x := range sine(det.blockSize, 103.5, 0.1, rate) {
		det.Feed(float64(x))
	}
	assert.Greater(t, det.Relative(), 0.5, "matching tone should dominate the block")

	det = NewDetector(103.5, rate)
	for _, x := range sine(det.blockSize, 250.3, 0.1, rate) {
		det.Feed(float64(x))
	}
	assert.Less(t, det.Relative(), 0.02, "distant tone should barely register")

	det = NewDetector(103.5, rate)
	for i := 0; i < det.blockSize; i++ {
		det.Feed(0)
	}
	assert.Zero(t, det.Relative(), "silence carries no tone")
}

func TestDetector_BlockCadence(t *testing.T) {
	det := NewDetector(100.0, 16000)
	assert.Equal(t, 410, det.blockSize)

	completions := 0
	for i := 0; i < 3*det.blockSize; i++ {
		if det.Feed(0) {
			completions++
		}
	}
	assert.Equal(t, 3, completions)
}

func TestSquelch_GatesOnTone(t *testing.T) {
	const rate = 8000
	const n = 4 * 205

	sq := NewSquelch(103.5, rate, DefaultLevel)
	assert.False(t, sq.Open(), "gate must start closed")

	// Tone plus voice-band content: the tone share is about half, well
	// over the opening level.
	input := make([]float32, n)
	tone := sine(n, 103.5, 0.1, rate)
	voice := sine(n, 1000, 0.1, rate)
	for i := range input {
		input[i] = tone[i] + voice[i]
	}
	output := sq.Process(input)

	require.Len(t, output, n, "tone squelch must preserve cadence")
	// The first detector block completes on sample 204; everything
	// before that stays gated, everything after passes.
	for i := 0; i < 204; i++ {
		assert.Zerof(t, output[i], "sample %d leaked before the first block completed", i)
	}
	for i := 204; i < n; i++ {
		assert.Equalf(t, input[i], output[i], "sample %d gated despite tone present", i)
	}
	assert.True(t, sq.Open())

	// Voice without the tone: the gate closes at the next block edge
	// and the output goes quiet without shrinking.
	output = sq.Process(sine(n, 1000, 0.1, rate))
	require.Len(t, output, n)
	for i := 205; i < n; i++ {
		assert.Zerof(t, output[i], "sample %d leaked with tone absent", i)
	}
	assert.False(t, sq.Open())
}
