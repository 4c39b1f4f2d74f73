package demod

import (
	"fmt"
	"math"
	"sync"

	"github.com/falkrist/hamTWOmon/internal/ctcss"
	"github.com/falkrist/hamTWOmon/internal/dsp"
	"github.com/falkrist/hamTWOmon/internal/sink"
)

const (
	// DefaultGain is the base quadrature demodulator gain.
	DefaultGain = 0.050
	// DefaultSquelchDB is the soft squelch threshold.
	DefaultSquelchDB = -60.0

	// squelchAlpha smooths both squelch power estimates.
	squelchAlpha = 0.1
	// hardSquelchDB keeps the record gate closed on anything but
	// real signal. The soft squelch substitutes exact zeros, so
	// only live audio crosses this.
	hardSquelchDB = -200.0
)

// WBFM is a wideband FM channel. It translates the target frequency to
// baseband, narrows it over three decimation stages, squelches, FM
// demodulates and resamples to the fixed audio rate. The resampled
// audio is the channel's output; a copy runs through a far deeper
// blocking squelch into the recording sink, so files only ever contain
// periods with actual signal.
type WBFM struct {
	plan     Plan
	baseGain float64

	translator *dsp.Translator
	rfDec      *dsp.DecimatorC64
	ifDec      *dsp.DecimatorC64
	soft       *dsp.SoftSquelch
	quad       *dsp.Quadrature
	audioDec   *dsp.DecimatorF32
	resampler  *dsp.Resampler
	toneStrip  *dsp.DecimatorF32 // nil unless tone filtering is on
	hard       *dsp.HardSquelch
	out        sink.Sink

	mu      sync.Mutex
	tone    *ctcss.Squelch // nil when no tone gate is set
	level   float64
	sinkErr error
}

var _ Demodulator = (*WBFM)(nil)

// NewWBFM builds the pipeline for one channel. All filter taps are
// designed here; retuning only changes the translator offset.
func NewWBFM(p Params) (*WBFM, error) {
	plan, err := NewPlan(p.SampleRate, p.AudioRate)
	if err != nil {
		return nil, err
	}

	gain := p.Gain
	if gain == 0 {
		gain = DefaultGain
	}
	squelchDB := p.SquelchDB
	if squelchDB == 0 {
		squelchDB = DefaultSquelchDB
	}
	level := p.CTCSSLevel
	if level == 0 {
		level = ctcss.DefaultLevel
	}

	// The channel filter is designed at unity rate so it can be
	// reused unchanged across input rates and retunes.
	rfTaps := dsp.LowPass(1, 1, 0.090, 0.010)
	ifRate := float64(p.SampleRate) / 25
	ifTaps := dsp.LowPass(1, ifRate, 12.5e3, 1e3)
	audioTaps := dsp.LowPass(1, ifRate/float64(plan.Stage2), 3.5e3, 500)

	translator, err := dsp.NewTranslator(rfTaps, 5, p.CenterFreq, float64(p.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	w := &WBFM{
		plan:       plan,
		baseGain:   gain,
		level:      level,
		translator: translator,
		rfDec:      dsp.NewDecimatorC64(rfTaps, 5),
		ifDec:      dsp.NewDecimatorC64(ifTaps, plan.Stage2),
		soft:       dsp.NewSoftSquelch(squelchDB, squelchAlpha),
		quad:       dsp.NewQuadrature(gain),
		audioDec:   dsp.NewDecimatorF32(audioTaps, 5),
		resampler:  dsp.NewResampler(plan.Ratio),
		hard:       dsp.NewHardSquelch(hardSquelchDB, squelchAlpha),
		out:        sink.Discard{},
	}
	if p.Record && p.Sink != nil {
		w.out = p.Sink
	}
	if p.ToneFilter {
		w.toneStrip = dsp.NewDecimatorF32(dsp.HighPass(1, float64(p.AudioRate), 300, 200), 1)
	}
	if p.CTCSSFreq != 0 {
		if _, err := w.SetCTCSSTone(p.CTCSSFreq); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Process runs one block of wideband samples through the chain and
// returns the audio produced. The returned slice is valid until the
// next call.
func (w *WBFM) Process(iq []complex64) []float32 {
	baseband := w.translator.Process(iq)
	baseband = w.rfDec.Process(baseband)
	baseband = w.ifDec.Process(baseband)
	gated := w.soft.Process(baseband)
	audio := w.audioDec.Process(w.quad.Process(gated))
	audio = w.resampler.Process(audio)

	if tone := w.toneGate(); tone != nil {
		audio = tone.Process(audio)
	}
	if w.toneStrip != nil {
		audio = w.toneStrip.Process(audio)
	}

	if rec := w.hard.Process(audio); len(rec) > 0 {
		if err := w.out.Write(rec); err != nil {
			w.mu.Lock()
			if w.sinkErr == nil {
				w.sinkErr = err
			}
			w.mu.Unlock()
		}
	}
	return audio
}

func (w *WBFM) toneGate() *ctcss.Squelch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tone
}

// AudioRate returns the fixed output rate in samples per second.
func (w *WBFM) AudioRate() int {
	return w.plan.AudioRate
}

// GateOpen reports whether the power squelch, and the tone gate when
// one is set, are currently passing audio.
func (w *WBFM) GateOpen() bool {
	if !w.soft.Open() {
		return false
	}
	if tone := w.toneGate(); tone != nil {
		return tone.Open()
	}
	return true
}

// SetVolume adjusts perceived loudness by scaling the demodulator
// gain to base × 10^(db/20). It takes effect on the next block.
func (w *WBFM) SetVolume(db float64) {
	w.quad.SetGain(w.baseGain * math.Pow(10, db/20))
}

// SetCTCSSTone selects a sub-audible gate tone by exact table lookup
// and returns the matched entry. The previous gate state, if any, is
// replaced and detection starts over.
func (w *WBFM) SetCTCSSTone(freq float64) (ctcss.Tone, error) {
	tone, err := ctcss.Select(ctcss.StandardTones(), freq)
	if err != nil {
		return ctcss.Tone{}, err
	}
	sq := ctcss.NewSquelch(tone.Freq, w.plan.AudioRate, w.level)
	w.mu.Lock()
	w.tone = sq
	w.mu.Unlock()
	return tone, nil
}

// SetCenterFreq retunes the channel. Filter taps are unaffected.
func (w *WBFM) SetCenterFreq(hz float64) error {
	return w.translator.SetCenterFreq(hz)
}

// CenterFreq returns the current channel offset in Hz.
func (w *WBFM) CenterFreq() float64 {
	return w.translator.CenterFreq()
}

// SinkErr returns the first error the recording sink reported.
func (w *WBFM) SinkErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sinkErr
}

// Close closes the recording sink. The streaming path must be stopped
// first.
func (w *WBFM) Close() error {
	return w.out.Close()
}
