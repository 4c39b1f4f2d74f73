// Package sink provides destinations for demodulated audio: WAV
// recordings, a discard sink for monitoring without recording, and
// wrappers that decouple and redirect the audio path at runtime.
package sink

import "sync"

// Sink consumes blocks of mono audio samples in the [-1, 1] range.
type Sink interface {
	Write(samples []float32) error
	Close() error
}

// Discard swallows every sample. It stands in for a recording sink on
// channels that only monitor.
type Discard struct{}

func (Discard) Write(samples []float32) error { return nil }

func (Discard) Close() error { return nil }

// Switchable routes writes to a replaceable target, so a recording can
// be started or finished without touching the rest of the audio path.
type Switchable struct {
	mu     sync.Mutex
	target Sink
}

func NewSwitchable(target Sink) *Switchable {
	return &Switchable{target: target}
}

func (s *Switchable) Write(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target.Write(samples)
}

// Swap installs next as the write target and returns the previous one
// so the caller can finalize it.
func (s *Switchable) Swap(next Sink) Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.target
	s.target = next
	return prev
}

func (s *Switchable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target.Close()
}
