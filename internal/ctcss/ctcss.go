// Package ctcss selects and detects the sub-audible tones used to
// signal that a shared channel is in active use. Tone selection is an
// exact-value lookup in an ordered table; detection runs a Goertzel
// filter over fixed audio blocks and gates audio on the measured tone
// share.
package ctcss

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ErrToneNotFound is returned when a requested tone frequency is not
// present in the tone table. Selection never falls back to another
// entry.
var ErrToneNotFound = errors.New("ctcss tone not found")

// DefaultLevel is the tone share required to open a tone squelch.
const DefaultLevel = 0.05

// Tone is a selected tone table entry.
type Tone struct {
	Freq  float64
	Index int
}

// Select looks up freq in an ordered tone table by exact value and
// returns the matched tone with its stable table index.
func Select(table []float64, freq float64) (Tone, error) {
	for i, f := range table {
		if f == freq {
			return Tone{Freq: f, Index: i}, nil
		}
	}
	return Tone{}, fmt.Errorf("%.1f Hz: %w", freq, ErrToneNotFound)
}

// Detector measures how much of an audio stream's energy sits at one
// tone frequency. It runs the Goertzel recurrence over fixed-size
// blocks; the block size scales with the sample rate so the detection
// bandwidth stays put.
type Detector struct {
	coef      float64
	blockSize int
	n         int
	q1, q2    float64
	energy    float64
	rel       float64
}

// NewDetector creates a detector for toneFreq at the given audio
// sample rate.
func NewDetector(toneFreq float64, sampleRate int) *Detector {
	blockSize := 205 * sampleRate / 8000
	// k is deliberately not rounded to a bin; rounding would move the
	// filter off the exact tone frequency.
	k := float64(blockSize) * toneFreq / float64(sampleRate)
	return &Detector{
		coef:      2 * math.Cos(2*math.Pi*k/float64(blockSize)),
		blockSize: blockSize,
	}
}

// Feed advances the detector by one sample and reports whether a
// measurement block just completed.
func (d *Detector) Feed(x float64) bool {
	q0 := x + d.coef*d.q1 - d.q2
	d.q2 = d.q1
	d.q1 = q0
	d.energy += x * x
	d.n++
	if d.n < d.blockSize {
		return false
	}

	tone := d.q1*d.q1 + d.q2*d.q2 - d.q1*d.q2*d.coef
	if total := d.energy * float64(d.blockSize) / 2; total > 0 {
		d.rel = tone / total
	} else {
		d.rel = 0
	}
	d.n = 0
	d.q1 = 0
	d.q2 = 0
	d.energy = 0
	return true
}

// Relative returns the tone's share of total signal power measured
// over the last completed block, nominally in [0, 1].
func (d *Detector) Relative() float64 {
	return d.rel
}

// Squelch gates audio on the presence of a selected tone. Like the
// power squelch it substitutes zeros rather than halting the stream,
// so gated channels keep their cadence for downstream mixing. The
// gate starts closed and only opens once a completed block shows the
// tone.
type Squelch struct {
	det   *Detector
	tone  float64
	level float64
	open  atomic.Bool
	cur   bool
}

// NewSquelch creates a tone squelch for tone at the given audio rate.
// level is the tone share required to open; DefaultLevel suits voice
// traffic with a standard-level tone.
func NewSquelch(tone float64, sampleRate int, level float64) *Squelch {
	return &Squelch{
		det:   NewDetector(tone, sampleRate),
		tone:  tone,
		level: level,
	}
}

// Tone returns the tone frequency this squelch is keyed to.
func (s *Squelch) Tone() float64 {
	return s.tone
}

// Open reports the gate state after the most recently processed block.
func (s *Squelch) Open() bool {
	return s.open.Load()
}

// Process gates a block of audio. The output always has the same
// length as the input; the gate state updates each time a detector
// block completes and holds in between.
func (s *Squelch) Process(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}
	output := make([]float32, len(input))
	open := s.cur
	for i, x := range input {
		if s.det.Feed(float64(x)) {
			open = s.det.Relative() >= s.level
		}
		if open {
			output[i] = x
		}
	}
	s.cur = open
	s.open.Store(open)
	return output
}
