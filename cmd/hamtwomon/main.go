package main

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/spf13/pflag"

	"github.com/falkrist/hamTWOmon/internal/config"
	"github.com/falkrist/hamTWOmon/internal/monitor"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "YAML config file")
		input      = pflag.StringP("input", "i", "-", "IQ input file, - for stdin")
		format     = pflag.StringP("format", "f", "cu8", "IQ sample format: cu8, cs16 or cf32")
		rate       = pflag.Int("rate", 0, "input sample rate in samples/sec")
		center     = pflag.Float64("center", 0, "input center frequency in Hz")
		audioRate  = pflag.Int("audio-rate", 0, "audio output rate, 8000 or 16000")
		freqs      = pflag.Float64Slice("freq", nil, "channel frequency in Hz, repeatable")
		record     = pflag.Bool("record", false, "record channel activity to WAV files")
		bitDepth   = pflag.Int("bit-depth", 8, "recording bit depth, 8 or 16")
		squelch    = pflag.Float64("squelch", 0, "squelch threshold in dB")
		volume     = pflag.Float64("volume", 0, "volume in dB relative to base gain")
		tone       = pflag.Float64("ctcss", 0, "CTCSS gate tone in Hz")
		outputDir  = pflag.String("output-dir", "", "directory for recordings")
		minDur     = pflag.Float64("min-duration", 0, "discard recordings shorter than this many seconds")
		listen     = pflag.Bool("listen", false, "play the mixed audio on the default output device")
		logLevel   = pflag.String("log-level", "", "debug, info, warn or error")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "hamtwomon",
	})

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("loading config", "err", err)
		}
		cfg = loaded
	}
	applyFlags(cfg, *rate, *center, *audioRate, *outputDir, *minDur, *logLevel)
	for _, f := range *freqs {
		cfg.Channels = append(cfg.Channels, config.Channel{
			Freq:      f,
			Record:    *record,
			BitDepth:  *bitDepth,
			SquelchDB: *squelch,
			VolumeDB:  *volume,
			CTCSS:     *tone,
		})
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	in, err := openInput(*input)
	if err != nil {
		logger.Fatal("opening input", "err", err)
	}
	defer in.Close()

	bytesPer, err := sampleWidth(*format)
	if err != nil {
		logger.Fatal("bad format", "err", err)
	}

	notify := func(e monitor.Event) {
		logger.Info("channel activity",
			"channel", e.Channel, "event", e.Type.String(),
			"path", e.Path, "duration", e.Duration, "class", e.Class)
	}
	m, err := monitor.New(cfg, logger, notify, nil)
	if err != nil {
		logger.Fatal("building channels", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blocks := make(chan []complex64, 4)
	go readIQ(ctx, in, *format, bytesPer, cfg.BlockSize, blocks, logger)

	var out chan []float32
	if *listen {
		out = make(chan []float32, 8)
		player, err := startPlayer(cfg.AudioRate, out)
		if err != nil {
			logger.Fatal("audio output", "err", err)
		}
		defer player.Close()
	}

	logger.Info("monitoring", "rate", cfg.SampleRate, "center", cfg.CenterFreq, "channels", len(cfg.Channels))
	err = m.Run(ctx, blocks, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("monitor stopped", "err", err)
	}
	if err := m.Close(); err != nil {
		logger.Error("closing channels", "err", err)
	}
}

func applyFlags(cfg *config.Config, rate int, center float64, audioRate int, outputDir string, minDur float64, logLevel string) {
	if rate != 0 {
		cfg.SampleRate = rate
	}
	if center != 0 {
		cfg.CenterFreq = center
	}
	if audioRate != 0 {
		cfg.AudioRate = audioRate
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if minDur != 0 {
		cfg.MinDuration = minDur
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func sampleWidth(format string) (int, error) {
	switch format {
	case "cu8":
		return 2, nil
	case "cs16":
		return 4, nil
	case "cf32":
		return 8, nil
	}
	return 0, errors.New("format must be cu8, cs16 or cf32")
}

// readIQ reads raw interleaved IQ from r, converts it to complex
// blocks and feeds the monitor until EOF or cancellation.
func readIQ(ctx context.Context, r io.Reader, format string, bytesPer, blockSize int, out chan<- []complex64, logger *log.Logger) {
	defer close(out)
	buf := make([]byte, blockSize*bytesPer)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			block := parseIQ(buf[:n-n%bytesPer], format)
			select {
			case out <- block:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Error("input read", "err", err)
			}
			return
		}
	}
}

func parseIQ(raw []byte, format string) []complex64 {
	switch format {
	case "cu8":
		out := make([]complex64, len(raw)/2)
		for i := range out {
			out[i] = complex(
				(float32(raw[2*i])-127.5)/127.5,
				(float32(raw[2*i+1])-127.5)/127.5,
			)
		}
		return out
	case "cs16":
		out := make([]complex64, len(raw)/4)
		for i := range out {
			out[i] = complex(
				float32(int16(binary.LittleEndian.Uint16(raw[4*i:])))/32768.0,
				float32(int16(binary.LittleEndian.Uint16(raw[4*i+2:])))/32768.0,
			)
		}
		return out
	case "cf32":
		out := make([]complex64, len(raw)/8)
		for i := range out {
			out[i] = complex(
				math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i:])),
				math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i+4:])),
			)
		}
		return out
	}
	return nil
}

// startPlayer feeds the mixed audio to the default output device as
// signed 16-bit mono through a pipe, the way oto expects a stream.
func startPlayer(audioRate int, audio <-chan []float32) (*oto.Player, error) {
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audioRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	reader, writer := io.Pipe()
	player := octx.NewPlayer(reader)
	go player.Play()

	go func() {
		defer writer.Close()
		var b [2]byte
		for block := range audio {
			for _, s := range block {
				v := s * 32767
				if v > 32767 {
					v = 32767
				} else if v < -32768 {
					v = -32768
				}
				binary.LittleEndian.PutUint16(b[:], uint16(int16(v)))
				if _, err := writer.Write(b[:]); err != nil {
					return
				}
			}
		}
	}()
	return player, nil
}
