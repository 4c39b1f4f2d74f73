package dsp

import (
	"math"
	"sync/atomic"
)

// powerMeter is a single-pole IIR estimator of mean signal power.
type powerMeter struct {
	alpha float64
	avg   float64
}

func (p *powerMeter) update(magSq float64) float64 {
	p.avg += p.alpha * (magSq - p.avg)
	return p.avg
}

// SoftSquelch gates a complex stream on estimated power without ever
// changing its cadence: while the gate is closed it substitutes zero
// samples, one per input, so the stream can still be summed with other
// channels downstream.
type SoftSquelch struct {
	meter  powerMeter
	thresh float64
	open   atomic.Bool
}

// NewSoftSquelch creates a non-blocking power squelch. thresholdDB is
// the gate-open threshold in dB relative to full scale; alpha is the
// smoothing constant of the power estimate.
func NewSoftSquelch(thresholdDB, alpha float64) *SoftSquelch {
	return &SoftSquelch{
		meter:  powerMeter{alpha: alpha},
		thresh: math.Pow(10, thresholdDB/10),
	}
}

// Open reports the gate state after the most recently processed block.
func (s *SoftSquelch) Open() bool {
	return s.open.Load()
}

// Process gates a block. The output always has the same length as the
// input.
func (s *SoftSquelch) Process(input []complex64) []complex64 {
	if len(input) == 0 {
		return nil
	}
	output := make([]complex64, len(input))
	open := false
	for i, x := range input {
		magSq := float64(real(x))*float64(real(x)) + float64(imag(x))*float64(imag(x))
		open = s.meter.update(magSq) >= s.thresh
		if open {
			output[i] = x
		}
	}
	s.open.Store(open)
	return output
}

// HardSquelch gates a real stream on estimated power by dropping
// samples outright: while the gate is closed nothing is forwarded.
// It sits in front of the recording sink so squelched silence never
// reaches a file.
type HardSquelch struct {
	meter  powerMeter
	thresh float64
	open   atomic.Bool
}

// NewHardSquelch creates a blocking power squelch.
func NewHardSquelch(thresholdDB, alpha float64) *HardSquelch {
	return &HardSquelch{
		meter:  powerMeter{alpha: alpha},
		thresh: math.Pow(10, thresholdDB/10),
	}
}

// Open reports the gate state after the most recently processed block.
func (s *HardSquelch) Open() bool {
	return s.open.Load()
}

// Process gates a block. The output contains only the samples that
// arrived while the gate was open and may be empty.
func (s *HardSquelch) Process(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}
	output := make([]float32, 0, len(input))
	open := false
	for _, x := range input {
		open = s.meter.update(float64(x)*float64(x)) >= s.thresh
		if open {
			output = append(output, x)
		}
	}
	s.open.Store(open)
	return output
}
