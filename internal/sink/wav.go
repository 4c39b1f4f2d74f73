package sink

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV writes mono PCM audio to a RIFF/WAVE stream. Samples outside
// [-1, 1] are clipped. Only 8 and 16 bit output is supported; any
// other requested depth records as 16 bit.
type WAV struct {
	enc      *wav.Encoder
	file     *os.File
	bitDepth int
	scratch  []int
}

// NewWAV wraps ws in a WAV encoder producing mono audio at the given
// sample rate and bit depth.
func NewWAV(ws io.WriteSeeker, sampleRate, bitDepth int) *WAV {
	if bitDepth != 8 && bitDepth != 16 {
		bitDepth = 16
	}
	return &WAV{
		enc:      wav.NewEncoder(ws, sampleRate, bitDepth, 1, 1),
		bitDepth: bitDepth,
	}
}

// NewWAVFile creates path and records into it.
func NewWAVFile(path string, sampleRate, bitDepth int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWAV(f, sampleRate, bitDepth)
	w.file = f
	return w, nil
}

func (w *WAV) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(w.scratch) < len(samples) {
		w.scratch = make([]int, len(samples))
	}
	data := w.scratch[:len(samples)]
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		switch w.bitDepth {
		case 8:
			// 8 bit WAV is unsigned, centered on 128.
			data[i] = int(s*127) + 128
		default:
			data[i] = int(s * 32767)
		}
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: w.enc.SampleRate},
		Data:           data,
		SourceBitDepth: w.bitDepth,
	}
	return w.enc.Write(buf)
}

// Close finalizes the WAV headers and, for file-backed sinks, closes
// the underlying file.
func (w *WAV) Close() error {
	err := w.enc.Close()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
