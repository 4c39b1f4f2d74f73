package dsp

import (
	"fmt"
	"math"
	"sync"
)

// Translator mixes a wideband complex stream by -centerFreq so the
// selected channel lands at baseband, then low-pass filters and
// decimates it. Retuning changes only the oscillator increment; the
// taps never depend on the tuned frequency.
type Translator struct {
	mu       sync.Mutex
	inc      float64
	phase    float64
	sampRate float64
	fir      *DecimatorC64
	scratch  []complex64
}

// NewTranslator creates a frequency-translating decimating filter.
// centerFreq must lie within ±sampRate/2.
func NewTranslator(taps []float64, decim int, centerFreq, sampRate float64) (*Translator, error) {
	t := &Translator{
		sampRate: sampRate,
		fir:      NewDecimatorC64(taps, decim),
	}
	if err := t.SetCenterFreq(centerFreq); err != nil {
		return nil, err
	}
	return t, nil
}

// SetCenterFreq retunes the translator. Safe to call while Process runs
// on another goroutine; the new frequency applies from the next block.
func (t *Translator) SetCenterFreq(freq float64) error {
	if math.Abs(freq) > t.sampRate/2 {
		return fmt.Errorf("center frequency %.0f Hz outside ±%.0f Hz", freq, t.sampRate/2)
	}
	t.mu.Lock()
	t.inc = -2 * math.Pi * freq / t.sampRate
	t.mu.Unlock()
	return nil
}

// CenterFreq returns the currently tuned frequency in Hz.
func (t *Translator) CenterFreq() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return -t.inc * t.sampRate / (2 * math.Pi)
}

// Process mixes a block down and filters it. The input block is only
// read, never written. The oscillator phase is continuous across
// blocks and across retunes.
func (t *Translator) Process(input []complex64) []complex64 {
	if cap(t.scratch) < len(input) {
		t.scratch = make([]complex64, len(input))
	}
	mixed := t.scratch[:len(input)]

	t.mu.Lock()
	inc := t.inc
	phase := t.phase
	for i, s := range input {
		osc := complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
		mixed[i] = s * osc
		phase += inc
		if phase > math.Pi {
			phase -= 2 * math.Pi
		} else if phase < -math.Pi {
			phase += 2 * math.Pi
		}
	}
	t.phase = phase
	t.mu.Unlock()

	return t.fir.Process(mixed)
}
