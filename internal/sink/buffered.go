package sink

import (
	"sync"
	"sync/atomic"

	"github.com/falkrist/hamTWOmon/internal/ringbuffer"
)

// maxFlush caps how many samples the writer goroutine hands to the
// target in one call.
const maxFlush = 4096

// Buffered decouples the demodulation path from a sink that may block
// on I/O. Writes never stall: samples that do not fit in the ring are
// dropped and counted. A dedicated goroutine drains the ring into the
// target, and the first error it hits is latched for the caller.
type Buffered struct {
	target Sink
	rb     *ringbuffer.RingBuffer
	done   chan struct{}

	drops atomic.Int64

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// NewBuffered starts a writer goroutine draining a ring of the given
// size into target. The target is owned by the returned sink and is
// closed by Close.
func NewBuffered(target Sink, size int) *Buffered {
	b := &Buffered{
		target: target,
		rb:     ringbuffer.New(size),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Buffered) run() {
	defer close(b.done)
	for {
		// Block for the first sample, then batch whatever else
		// has piled up.
		chunk := b.rb.Read(1)
		if chunk == nil {
			return
		}
		if n := b.rb.AvailableRead(); n > 0 {
			if n > maxFlush-len(chunk) {
				n = maxFlush - len(chunk)
			}
			chunk = append(chunk, b.rb.Read(n)...)
		}
		if b.Err() != nil {
			continue // keep draining so drop counts stay meaningful
		}
		if err := b.target.Write(chunk); err != nil {
			b.mu.Lock()
			if b.err == nil {
				b.err = err
			}
			b.mu.Unlock()
		}
	}
}

// Write queues samples for the target without blocking and returns the
// latched writer error, if any. Samples that do not fit are dropped.
func (b *Buffered) Write(samples []float32) error {
	n := b.rb.TryWrite(samples)
	if d := len(samples) - n; d > 0 {
		b.drops.Add(int64(d))
	}
	return b.Err()
}

// Drops reports how many samples have been discarded because the ring
// was full.
func (b *Buffered) Drops() int64 {
	return b.drops.Load()
}

// Err returns the first error the writer goroutine hit, or nil.
func (b *Buffered) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close flushes queued samples to the target, stops the writer and
// closes the target. It reports the target's close error, or the
// latched write error when closing succeeded.
func (b *Buffered) Close() error {
	b.closeOnce.Do(func() {
		b.rb.Close()
		<-b.done
		b.closeErr = b.target.Close()
		if b.closeErr == nil {
			b.closeErr = b.Err()
		}
	})
	return b.closeErr
}
