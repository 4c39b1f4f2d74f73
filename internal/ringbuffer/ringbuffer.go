package ringbuffer

import "sync"

// RingBuffer is a concurrent-safe ring buffer of float32 audio
// samples. Readers block until data arrives; writers can either block
// until space frees up or hand over as much as fits right now.
type RingBuffer struct {
	buf        []float32
	size       int
	readIndex  int
	writeIndex int
	closed     bool
	mu         sync.Mutex
	cond       *sync.Cond
}

// New creates a new RingBuffer holding up to size-1 samples.
func New(size int) *RingBuffer {
	rb := &RingBuffer{
		buf:  make([]float32, size),
		size: size,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

func (rb *RingBuffer) availableWrite() int {
	return (rb.readIndex - rb.writeIndex - 1 + rb.size) % rb.size
}

func (rb *RingBuffer) availableRead() int {
	return (rb.writeIndex - rb.readIndex + rb.size) % rb.size
}

// AvailableWrite returns the number of samples that can be written
// without blocking.
func (rb *RingBuffer) AvailableWrite() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.availableWrite()
}

// AvailableRead returns the number of samples ready for reading.
func (rb *RingBuffer) AvailableRead() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.availableRead()
}

// Close marks the buffer as closed: no more writes will be accepted,
// and readers drain whatever is left before getting nil.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// copyIn moves as much of data as currently fits into the ring.
// Callers must hold the lock.
func (rb *RingBuffer) copyIn(data []float32) int {
	writable := rb.availableWrite()
	if writable == 0 {
		return 0
	}
	if writable > len(data) {
		writable = len(data)
	}
	end := rb.writeIndex + writable
	if end <= rb.size {
		copy(rb.buf[rb.writeIndex:end], data[:writable])
	} else {
		first := rb.size - rb.writeIndex
		copy(rb.buf[rb.writeIndex:], data[:first])
		copy(rb.buf, data[first:writable])
	}
	rb.writeIndex = end % rb.size
	return writable
}

// Write adds data to the buffer, blocking until everything has been
// accepted. Writing to a closed buffer panics; that is a programming
// error, not a runtime condition.
func (rb *RingBuffer) Write(data []float32) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := 0; i < len(data); {
		for rb.availableWrite() == 0 && !rb.closed {
			rb.cond.Wait()
		}
		if rb.closed {
			panic("write to closed ring buffer")
		}
		i += rb.copyIn(data[i:])
		rb.cond.Broadcast()
	}
}

// TryWrite adds as much of data as fits without blocking and returns
// the number of samples accepted. A closed buffer accepts nothing.
func (rb *RingBuffer) TryWrite(data []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return 0
	}
	n := rb.copyIn(data)
	if n > 0 {
		rb.cond.Broadcast()
	}
	return n
}

// Read retrieves up to n samples, blocking until n are available or
// the buffer is closed. Once the buffer is closed it returns whatever
// remains, and nil when fully drained.
func (rb *RingBuffer) Read(n int) []float32 {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for !rb.closed && rb.availableRead() < n {
		rb.cond.Wait()
	}

	readSize := rb.availableRead()
	if readSize == 0 {
		return nil
	}
	if readSize > n {
		readSize = n
	}

	data := make([]float32, readSize)
	if rb.readIndex+readSize <= rb.size {
		copy(data, rb.buf[rb.readIndex:rb.readIndex+readSize])
	} else {
		first := rb.size - rb.readIndex
		copy(data, rb.buf[rb.readIndex:])
		copy(data[first:], rb.buf[:readSize-first])
	}
	rb.readIndex = (rb.readIndex + readSize) % rb.size
	rb.cond.Broadcast()
	return data
}
