package monitor

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/falkrist/hamTWOmon/internal/config"
)

// Monitor drives all configured channels off one wideband feed. Every
// input block is handed to each channel's worker in parallel; the
// per-channel audio is then summed into a single monitoring stream.
type Monitor struct {
	log      *log.Logger
	channels []*Channel
}

// New builds one Channel per configuration entry.
func New(cfg *config.Config, logger *log.Logger, notify Notifier, classifier Classifier) (*Monitor, error) {
	m := &Monitor{log: logger}
	for _, cc := range cfg.Channels {
		ch, err := NewChannel(cfg, cc, logger, notify, classifier)
		if err != nil {
			return nil, err
		}
		logger.Info("channel ready", "name", ch.Name(), "freq", cc.Freq, "mode", cc.Mode, "record", cc.Record)
		m.channels = append(m.channels, ch)
	}
	return m, nil
}

// Channels returns the live channel sessions.
func (m *Monitor) Channels() []*Channel { return m.channels }

// Run consumes wideband blocks from in until it is closed or ctx is
// canceled and delivers the mixed audio of all channels to out. A nil
// out discards the mix. Run closes out (when non-nil) before
// returning; recordings stay open until Close.
func (m *Monitor) Run(ctx context.Context, in <-chan []complex64, out chan<- []float32) error {
	type worker struct {
		in  chan []complex64
		out chan []float32
	}

	var wg sync.WaitGroup
	workers := make([]*worker, len(m.channels))
	for i, c := range m.channels {
		w := &worker{in: make(chan []complex64, 1), out: make(chan []float32, 1)}
		workers[i] = w
		wg.Add(1)
		go func(c *Channel, w *worker) {
			defer wg.Done()
			for block := range w.in {
				w.out <- c.process(block)
			}
		}(c, w)
	}
	defer func() {
		for _, w := range workers {
			close(w.in)
		}
		wg.Wait()
		if out != nil {
			close(out)
		}
	}()

	var mix []float32
	for {
		var block []complex64
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok = <-in:
			if !ok {
				return nil
			}
		}

		// Same block to every channel, in parallel, then gather in
		// channel order so the mix stays deterministic.
		for _, w := range workers {
			w.in <- block
		}
		mix = mix[:0]
		for _, w := range workers {
			mix = mixInto(mix, <-w.out)
		}
		if out == nil {
			continue
		}
		select {
		case out <- clampAudio(append([]float32(nil), mix...)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close finalizes all channels and their recordings.
func (m *Monitor) Close() error {
	var first error
	for _, c := range m.channels {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// mixInto adds audio into mix, growing mix if the block lengths ever
// differ. Resampler jitter can shift a sample between adjacent blocks,
// so lengths are close but not guaranteed equal.
func mixInto(mix, audio []float32) []float32 {
	for i, s := range audio {
		if i < len(mix) {
			mix[i] += s
		} else {
			mix = append(mix, s)
		}
	}
	return mix
}

// clampAudio limits summed audio to [-1, 1] in place.
func clampAudio(audio []float32) []float32 {
	for i, s := range audio {
		if s > 1 {
			audio[i] = 1
		} else if s < -1 {
			audio[i] = -1
		}
	}
	return audio
}
