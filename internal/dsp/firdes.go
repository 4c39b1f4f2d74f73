package dsp

import "math"

// hammingAttenuation is the stop-band attenuation in dB that a
// Hamming-windowed design achieves; it drives the tap-count estimate.
const hammingAttenuation = 53.0

// computeNTaps estimates the filter length needed for the requested
// transition width at the given sample rate. The count is forced odd so
// the filter has a center tap and linear phase.
func computeNTaps(sampFreq, transitionWidth float64) int {
	ntaps := int(hammingAttenuation * sampFreq / (22.0 * transitionWidth))
	if ntaps%2 == 0 {
		ntaps++
	}
	return ntaps
}

// hamming returns the Hamming window value for position n of ntaps.
func hamming(n, ntaps int) float64 {
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(ntaps-1))
}

// LowPass designs a low-pass FIR filter using the windowed-sinc method
// with a Hamming window. cutoff and transitionWidth are in the same
// units as sampFreq; cutoff must lie in (0, sampFreq/2). The taps are
// scaled so the gain at DC equals gain.
func LowPass(gain, sampFreq, cutoff, transitionWidth float64) []float64 {
	ntaps := computeNTaps(sampFreq, transitionWidth)
	taps := make([]float64, ntaps)
	m := (ntaps - 1) / 2
	fwT0 := 2 * math.Pi * cutoff / sampFreq

	for n := -m; n <= m; n++ {
		if n == 0 {
			taps[m] = fwT0 / math.Pi * hamming(m, ntaps)
		} else {
			taps[n+m] = math.Sin(float64(n)*fwT0) / (float64(n) * math.Pi) *
				hamming(n+m, ntaps)
		}
	}

	// Normalize so the response at zero frequency equals gain.
	fmax := taps[m]
	for n := 1; n <= m; n++ {
		fmax += 2 * taps[n+m]
	}
	scale := gain / fmax
	for i := range taps {
		taps[i] *= scale
	}
	return taps
}

// HighPass designs a high-pass FIR filter using the windowed-sinc
// method with a Hamming window. The taps are scaled so the gain at the
// Nyquist frequency equals gain.
func HighPass(gain, sampFreq, cutoff, transitionWidth float64) []float64 {
	ntaps := computeNTaps(sampFreq, transitionWidth)
	taps := make([]float64, ntaps)
	m := (ntaps - 1) / 2
	fwT0 := 2 * math.Pi * cutoff / sampFreq

	for n := -m; n <= m; n++ {
		if n == 0 {
			taps[m] = (1.0 - fwT0/math.Pi) * hamming(m, ntaps)
		} else {
			taps[n+m] = -math.Sin(float64(n)*fwT0) / (float64(n) * math.Pi) *
				hamming(n+m, ntaps)
		}
	}

	// Normalize so the response at the Nyquist frequency equals gain.
	// At fs/2 the response is the alternating-sign sum of the taps.
	fmax := taps[m]
	sign := -1.0
	for n := 1; n <= m; n++ {
		fmax += 2 * taps[n+m] * sign
		sign = -sign
	}
	scale := gain / fmax
	for i := range taps {
		taps[i] *= scale
	}
	return taps
}

// toFloat32 converts designed taps to the float32 coefficients the
// streaming filters run with.
func toFloat32(taps []float64) []float32 {
	out := make([]float32, len(taps))
	for i, t := range taps {
		out[i] = float32(t)
	}
	return out
}
