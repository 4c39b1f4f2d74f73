package dsp

import "math"

// resamplerArms is the number of polyphase arms in the resampler
// filter bank. More arms means finer phase resolution before the
// linear interpolation between adjacent arms has to make up the rest.
const resamplerArms = 32

// Resampler converts a real stream between sample rates by an
// arbitrary ratio. The prototype low-pass is split into resamplerArms
// phase-shifted sub-filters; for each output the kernel picks the arm
// nearest the wanted sampling instant and interpolates toward the next
// arm with a differentiated tap set. An accumulator walks the arm
// index so any ratio, rational or not, is sustained without drift.
type Resampler struct {
	rate    float64
	armLen  int
	arms    [][]float32
	diffs   [][]float32
	decRate int
	fltRate float64
	acc     float64
	arm     int
	buf     []float32
	skip    int
}

// NewResampler creates a resampler producing rate output samples per
// input sample. rate must be in (0, resamplerArms).
func NewResampler(rate float64) *Resampler {
	proto := LowPass(resamplerArms, resamplerArms, 0.5, 0.2)

	armLen := (len(proto) + resamplerArms - 1) / resamplerArms
	padded := make([]float64, armLen*resamplerArms)
	copy(padded, proto)

	// Differentiated prototype: diff[i] approximates the change from
	// arm j to arm j+1 at the same tap position.
	diffProto := make([]float64, len(padded))
	for i := 0; i < len(padded)-1; i++ {
		diffProto[i] = padded[i+1] - padded[i]
	}

	// Distribute the prototype across the arms and reverse each arm so
	// it can be applied to a window stored oldest-first.
	arms := make([][]float32, resamplerArms)
	diffs := make([][]float32, resamplerArms)
	for j := 0; j < resamplerArms; j++ {
		arms[j] = make([]float32, armLen)
		diffs[j] = make([]float32, armLen)
		for k := 0; k < armLen; k++ {
			arms[j][k] = float32(padded[j+(armLen-1-k)*resamplerArms])
			diffs[j][k] = float32(diffProto[j+(armLen-1-k)*resamplerArms])
		}
	}

	decRate := int(math.Floor(float64(resamplerArms) / rate))
	return &Resampler{
		rate:    rate,
		armLen:  armLen,
		arms:    arms,
		diffs:   diffs,
		decRate: decRate,
		fltRate: float64(resamplerArms)/rate - float64(decRate),
		arm:     (len(proto) / 2) % resamplerArms,
		buf:     make([]float32, armLen-1),
	}
}

// Rate returns the configured output-per-input sample ratio.
func (r *Resampler) Rate() float64 {
	return r.rate
}

// Process resamples a block. Output length per call varies by at most
// one sample around len(input)*rate; the long-run ratio is exact.
func (r *Resampler) Process(input []float32) []float32 {
	buf := append(r.buf, input...)
	out := make([]float32, 0, int(float64(len(input))*r.rate)+2)

	p := r.skip
	r.skip = 0
	j := r.arm
	acc := r.acc

	for p+r.armLen <= len(buf) {
		window := buf[p : p+r.armLen]
		for j < resamplerArms {
			arm := r.arms[j]
			diff := r.diffs[j]
			var s, sd float32
			for k, t := range arm {
				s += t * window[k]
				sd += diff[k] * window[k]
			}
			out = append(out, s+float32(acc)*sd)

			acc += r.fltRate
			j += r.decRate + int(acc)
			acc -= math.Floor(acc)
		}
		p += j / resamplerArms
		j %= resamplerArms
	}

	r.arm = j
	r.acc = acc
	if p <= len(buf) {
		r.buf = buf[p:]
	} else {
		r.skip = p - len(buf)
		r.buf = buf[len(buf):]
	}
	return out
}
