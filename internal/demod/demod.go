// Package demod assembles per-channel demodulation pipelines. A
// demodulator consumes blocks of wideband complex baseband samples and
// produces audio at a fixed rate, gating and recording it according to
// its squelch and tone configuration.
package demod

import (
	"errors"
	"fmt"

	"github.com/falkrist/hamTWOmon/internal/ctcss"
	"github.com/falkrist/hamTWOmon/internal/sink"
)

// ErrConfiguration reports construction parameters the pipeline cannot
// support, such as an input rate below 1 Msps.
var ErrConfiguration = errors.New("unsupported channel configuration")

// Demodulator is one channel's demodulation pipeline. Process is meant
// to be driven from a single streaming goroutine; the control methods
// may be called concurrently with it and take effect on the next
// block.
type Demodulator interface {
	// Process consumes a block of wideband samples and returns the
	// audio produced at AudioRate.
	Process(iq []complex64) []float32
	// AudioRate is the fixed output rate in samples per second.
	AudioRate() int
	// GateOpen reports whether audio is currently passing the
	// channel's squelch and tone gates.
	GateOpen() bool
	// SetVolume scales the demodulator gain to base × 10^(db/20).
	SetVolume(db float64)
	// SetCTCSSTone installs a sub-audible tone gate. The frequency
	// must match a tone table entry exactly.
	SetCTCSSTone(freq float64) (ctcss.Tone, error)
	// SetCenterFreq retunes the channel within the wideband input.
	SetCenterFreq(hz float64) error
	// SinkErr returns the first recording error, if any. Recording
	// failures never stop the stream; the owning session decides
	// what to do about them.
	SinkErr() error
	// Close flushes and closes the recording sink.
	Close() error
}

// Params configures a channel pipeline. Zero values select the
// documented defaults.
type Params struct {
	SampleRate int     // wideband input rate in samples/sec, at least 1 Msps
	CenterFreq float64 // channel offset from the wideband center in Hz
	AudioRate  int     // output rate, 8000 or 16000
	SquelchDB  float64 // soft squelch threshold; 0 selects -60 dB
	Gain       float64 // base demodulator gain; 0 selects 0.050

	Record bool
	Sink   sink.Sink // recording target; ignored when Record is false

	CTCSSFreq  float64 // sub-audible gate tone in Hz; 0 disables tone gating
	CTCSSLevel float64 // relative tone power opening the gate; 0 selects ctcss.DefaultLevel
	ToneFilter bool    // high-pass the audio to strip the tone itself
}

// Plan is the decimation arithmetic mapping one input rate to the
// fixed audio rate. The two factor-5 RF stages and the factor-5 audio
// stage are fixed; only the IF factor and the final resampling ratio
// depend on the input rate.
type Plan struct {
	SampleRate int
	AudioRate  int
	// Stage2 is the IF decimation factor, floor(SampleRate/1e6).
	Stage2 int
	// PreRate is the rate entering the resampler,
	// SampleRate/(125*Stage2). It always lands in [8000, 16000).
	PreRate float64
	// Ratio is the resampling ratio bringing PreRate to AudioRate.
	Ratio float64
}

// NewPlan derives the decimation plan for one input rate, rejecting
// rates the chain cannot bring down to the audio rate.
func NewPlan(sampleRate, audioRate int) (Plan, error) {
	if audioRate != 8000 && audioRate != 16000 {
		return Plan{}, fmt.Errorf("%w: audio rate %d is not 8000 or 16000", ErrConfiguration, audioRate)
	}
	stage2 := sampleRate / 1_000_000
	if stage2 < 1 {
		return Plan{}, fmt.Errorf("%w: sample rate %d is below 1 Msps", ErrConfiguration, sampleRate)
	}
	pre := float64(sampleRate) / float64(125*stage2)
	return Plan{
		SampleRate: sampleRate,
		AudioRate:  audioRate,
		Stage2:     stage2,
		PreRate:    pre,
		Ratio:      float64(audioRate) / pre,
	}, nil
}
