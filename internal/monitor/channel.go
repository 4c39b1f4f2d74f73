// Package monitor runs the channel sessions: it fans the wideband
// input out to every channel's demodulator, mixes their audio for live
// listening, and manages recording files around squelch activity.
package monitor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/falkrist/hamTWOmon/internal/config"
	"github.com/falkrist/hamTWOmon/internal/ctcss"
	"github.com/falkrist/hamTWOmon/internal/demod"
	"github.com/falkrist/hamTWOmon/internal/sink"
)

// EventType classifies channel activity events.
type EventType int

const (
	RecordingStarted EventType = iota
	RecordingFinished
	RecordingDiscarded
)

func (e EventType) String() string {
	switch e {
	case RecordingStarted:
		return "started"
	case RecordingFinished:
		return "finished"
	case RecordingDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Event describes channel activity worth telling the outside world
// about.
type Event struct {
	Channel  string
	Type     EventType
	Path     string
	Duration time.Duration
	Class    string // classifier verdict, when one is configured
}

// Notifier receives channel activity events. It is called from the
// channel's streaming goroutine and should return quickly.
type Notifier func(Event)

// Classifier inspects a finished recording and labels it.
type Classifier interface {
	Classify(path string) (string, error)
}

// Channel couples one demodulator to its recording session: it watches
// the squelch gate and opens, finalizes or disposes of recording files
// on gate transitions. All methods except SetVolume and SetCTCSSTone
// must be called from the streaming goroutine.
type Channel struct {
	name string
	dem  demod.Demodulator
	log  *log.Logger

	sw         *sink.Switchable
	record     bool
	dir        string
	pattern    string
	bitDepth   int
	audioRate  int
	sinkBuffer int
	minDur     time.Duration
	notify     Notifier
	classify   Classifier

	wasOpen        bool
	recording      bool
	buf            *sink.Buffered
	path           string
	sessionSamples int
	sinkErrLogged  bool
}

// NewChannel builds the demodulator for one configured channel and
// wires it to a switchable recording sink.
func NewChannel(cfg *config.Config, cc config.Channel, logger *log.Logger, notify Notifier, classifier Classifier) (*Channel, error) {
	sw := sink.NewSwitchable(sink.Discard{})

	var dem demod.Demodulator
	switch cc.Mode {
	case "", "wbfm":
		w, err := demod.NewWBFM(demod.Params{
			SampleRate: cfg.SampleRate,
			CenterFreq: cfg.Offset(cc),
			AudioRate:  cfg.AudioRate,
			SquelchDB:  cc.SquelchDB,
			Record:     cc.Record,
			Sink:       sw,
			CTCSSFreq:  cc.CTCSS,
			CTCSSLevel: cc.CTCSSLevel,
			ToneFilter: cc.ToneFilter,
		})
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", cc.Name, err)
		}
		dem = w
	default:
		return nil, fmt.Errorf("channel %s: %w: mode %q", cc.Name, demod.ErrConfiguration, cc.Mode)
	}
	dem.SetVolume(cc.VolumeDB)

	bitDepth := cc.BitDepth
	if bitDepth != 8 && bitDepth != 16 {
		logger.Warn("unsupported bit depth, recording 16-bit",
			"channel", cc.Name, "bit_depth", bitDepth)
		bitDepth = 16
	}

	return &Channel{
		name:       cc.Name,
		dem:        dem,
		log:        logger.With("channel", cc.Name),
		sw:         sw,
		record:     cc.Record,
		dir:        cfg.OutputDir,
		pattern:    cfg.FilePattern,
		bitDepth:   bitDepth,
		audioRate:  cfg.AudioRate,
		sinkBuffer: cfg.SinkBuffer,
		minDur:     time.Duration(cfg.MinDuration * float64(time.Second)),
		notify:     notify,
		classify:   classifier,
	}, nil
}

// Name returns the configured channel name.
func (c *Channel) Name() string { return c.name }

// Recording reports whether a recording file is currently open.
func (c *Channel) Recording() bool { return c.recording }

// SetVolume adjusts the channel's loudness in dB relative to the base
// gain.
func (c *Channel) SetVolume(db float64) { c.dem.SetVolume(db) }

// SetCTCSSTone switches the channel to gate on a different tone.
func (c *Channel) SetCTCSSTone(freq float64) (ctcss.Tone, error) {
	return c.dem.SetCTCSSTone(freq)
}

// process runs one wideband block through the demodulator and steers
// the recording session on gate transitions.
func (c *Channel) process(block []complex64) []float32 {
	out := c.dem.Process(block)
	open := c.dem.GateOpen()

	if c.record {
		if open && !c.wasOpen {
			c.openRecording()
		}
		if c.recording {
			c.sessionSamples += len(out)
		}
		if !open && c.wasOpen {
			c.closeRecording()
		}
	}
	c.wasOpen = open

	if err := c.dem.SinkErr(); err != nil && !c.sinkErrLogged {
		c.log.Warn("recording sink error", "err", err)
		c.sinkErrLogged = true
	}
	return out
}

// recordingPath builds a fresh file path from the strftime pattern,
// suffixing a counter if the name is already taken.
func (c *Channel) recordingPath() string {
	stamp, err := strftime.Format(c.pattern, time.Now())
	if err != nil {
		c.log.Error("bad file pattern, falling back", "pattern", c.pattern, "err", err)
		stamp = time.Now().Format("20060102_150405")
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.wav", c.name, stamp))
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = filepath.Join(c.dir, fmt.Sprintf("%s_%s_%d.wav", c.name, stamp, i))
	}
}

func (c *Channel) openRecording() {
	path := c.recordingPath()
	w, err := sink.NewWAVFile(path, c.audioRate, c.bitDepth)
	if err != nil {
		c.log.Error("cannot create recording", "path", path, "err", err)
		return
	}
	c.buf = sink.NewBuffered(w, c.sinkBuffer)
	if old := c.sw.Swap(c.buf); old != nil {
		old.Close()
	}
	c.path = path
	c.sessionSamples = 0
	c.recording = true
	c.log.Info("recording started", "path", path)
	if c.notify != nil {
		c.notify(Event{Channel: c.name, Type: RecordingStarted, Path: path})
	}
}

func (c *Channel) closeRecording() {
	if !c.recording {
		return
	}
	c.sw.Swap(sink.Discard{})
	if err := c.buf.Close(); err != nil {
		c.log.Warn("finalizing recording", "path", c.path, "err", err)
	}
	if n := c.buf.Drops(); n > 0 {
		c.log.Warn("recording dropped samples", "path", c.path, "dropped", n)
	}
	c.buf = nil
	c.recording = false

	dur := time.Duration(float64(c.sessionSamples) / float64(c.audioRate) * float64(time.Second))
	if c.minDur > 0 && dur < c.minDur {
		if err := os.Remove(c.path); err != nil {
			c.log.Warn("disposing short recording", "path", c.path, "err", err)
		}
		c.log.Info("recording discarded", "path", c.path, "duration", dur)
		if c.notify != nil {
			c.notify(Event{Channel: c.name, Type: RecordingDiscarded, Path: c.path, Duration: dur})
		}
		return
	}

	class := ""
	if c.classify != nil {
		var err error
		if class, err = c.classify.Classify(c.path); err != nil {
			c.log.Warn("classifying recording", "path", c.path, "err", err)
			class = ""
		}
	}
	c.log.Info("recording finished", "path", c.path, "duration", dur, "class", class)
	if c.notify != nil {
		c.notify(Event{Channel: c.name, Type: RecordingFinished, Path: c.path, Duration: dur, Class: class})
	}
}

// Close finalizes any open recording and shuts the demodulator down.
func (c *Channel) Close() error {
	if c.recording {
		c.closeRecording()
	}
	c.wasOpen = false
	return c.dem.Close()
}
