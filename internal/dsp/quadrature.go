package dsp

import (
	"math/cmplx"
	"sync"
)

// Quadrature recovers the instantaneous frequency of a complex FM
// signal. Each output sample is the angle of the current sample times
// the conjugate of the previous one, scaled by a settable gain.
type Quadrature struct {
	mu   sync.Mutex
	gain float32
	prev complex64
}

// NewQuadrature creates a quadrature demodulator with the given gain.
func NewQuadrature(gain float64) *Quadrature {
	return &Quadrature{gain: float32(gain)}
}

// SetGain updates the demodulator gain. The new gain applies from the
// next processed block, never mid-block.
func (q *Quadrature) SetGain(gain float64) {
	q.mu.Lock()
	q.gain = float32(gain)
	q.mu.Unlock()
}

// Gain returns the current demodulator gain.
func (q *Quadrature) Gain() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return float64(q.gain)
}

// Process demodulates a block of complex samples into real audio. The
// output has the same length as the input; the first sample of the
// first block is compared against zero history and comes out as zero.
func (q *Quadrature) Process(samples []complex64) []float32 {
	if len(samples) == 0 {
		return nil
	}
	output := make([]float32, len(samples))

	q.mu.Lock()
	gain := q.gain
	prev := q.prev
	for i, current := range samples {
		// The angle of current * conj(prev) is the phase advance
		// between consecutive samples.
		p := current * complex(real(prev), -imag(prev))
		output[i] = gain * float32(cmplx.Phase(complex128(p)))
		prev = current
	}
	q.prev = prev
	q.mu.Unlock()

	return output
}
