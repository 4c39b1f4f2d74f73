package dsp

// DecimatorF32 is a stateful, block-based FIR filter over real samples
// that keeps only every decim-th output. Carrying the tail of the
// previous block as state makes chunked processing produce exactly the
// same samples as one-shot processing, regardless of chunk size.
type DecimatorF32 struct {
	taps  []float32
	decim int
	buf   []float32
}

// NewDecimatorF32 creates a decimating filter from designed taps.
// decim must be >= 1 and no greater than the tap count. The filter
// history starts zeroed, so output begins immediately at one sample
// per decim inputs.
func NewDecimatorF32(taps []float64, decim int) *DecimatorF32 {
	return &DecimatorF32{
		taps:  toFloat32(taps),
		decim: decim,
		buf:   make([]float32, len(taps)-1),
	}
}

// Process filters and decimates a block of samples. It returns one
// output for every decim inputs consumed; leftover samples stay
// buffered for the next call.
func (d *DecimatorF32) Process(input []float32) []float32 {
	buf := append(d.buf, input...)
	n := len(buf) - len(d.taps) + 1
	if n <= 0 {
		d.buf = buf
		return nil
	}
	outLen := (n + d.decim - 1) / d.decim
	out := make([]float32, outLen)

	for k := 0; k < outLen; k++ {
		start := k * d.decim
		var acc float32
		for j, t := range d.taps {
			acc += buf[start+j] * t
		}
		out[k] = acc
	}

	// Everything before the next output position has been consumed.
	d.buf = buf[outLen*d.decim:]
	return out
}

// DecimatorC64 is the complex-sample counterpart of DecimatorF32, with
// real tap coefficients applied to both components.
type DecimatorC64 struct {
	taps  []float32
	decim int
	buf   []complex64
}

// NewDecimatorC64 creates a decimating filter over complex samples.
func NewDecimatorC64(taps []float64, decim int) *DecimatorC64 {
	return &DecimatorC64{
		taps:  toFloat32(taps),
		decim: decim,
		buf:   make([]complex64, len(taps)-1),
	}
}

// Process filters and decimates a block of complex samples.
func (d *DecimatorC64) Process(input []complex64) []complex64 {
	buf := append(d.buf, input...)
	n := len(buf) - len(d.taps) + 1
	if n <= 0 {
		d.buf = buf
		return nil
	}
	outLen := (n + d.decim - 1) / d.decim
	out := make([]complex64, outLen)

	for k := 0; k < outLen; k++ {
		start := k * d.decim
		var re, im float32
		for j, t := range d.taps {
			s := buf[start+j]
			re += real(s) * t
			im += imag(s) * t
		}
		out[k] = complex(re, im)
	}

	d.buf = buf[outLen*d.decim:]
	return out
}
