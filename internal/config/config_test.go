package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, 2_000_000, cfg.SampleRate)
	assert.Equal(t, 8000, cfg.AudioRate)
	assert.Equal(t, 8192, cfg.BlockSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Channels)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := New()
		cfg.CenterFreq = 145e6
		cfg.Channels = []Channel{{Freq: 145.5e6}}
		return cfg
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	// Per-channel defaults are filled in.
	assert.Equal(t, "ch0", cfg.Channels[0].Name)
	assert.Equal(t, "wbfm", cfg.Channels[0].Mode)
	assert.Equal(t, 8, cfg.Channels[0].BitDepth)

	cfg = base()
	cfg.SampleRate = 500_000
	assert.ErrorContains(t, cfg.Validate(), "sample_rate")

	cfg = base()
	cfg.AudioRate = 44100
	assert.ErrorContains(t, cfg.Validate(), "audio_rate")

	cfg = base()
	cfg.Channels = nil
	assert.ErrorContains(t, cfg.Validate(), "no channels")

	cfg = base()
	cfg.Channels[0].Mode = "am"
	assert.ErrorContains(t, cfg.Validate(), "unknown mode")

	// 145.5 MHz sits 500 kHz above center, off the edge of a
	// 1 Msps input.
	cfg = base()
	cfg.SampleRate = 1_000_000
	require.NoError(t, cfg.Validate())
	cfg.Channels[0].Freq = 146e6
	assert.ErrorContains(t, cfg.Validate(), "outside the input bandwidth")
}

func TestLoad(t *testing.T) {
	doc := `
sample_rate: 2400000
center_freq: 462e6
audio_rate: 16000
min_duration: 2.5
channels:
  - name: gmrs1
    freq: 462562500
    record: true
    ctcss: 103.5
  - freq: 462587500
    bit_depth: 16
`
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2_400_000, cfg.SampleRate)
	assert.Equal(t, 462e6, cfg.CenterFreq)
	assert.Equal(t, 16000, cfg.AudioRate)
	assert.Equal(t, 2.5, cfg.MinDuration)
	// Unset fields keep their defaults.
	assert.Equal(t, 8192, cfg.BlockSize)

	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, "gmrs1", cfg.Channels[0].Name)
	assert.True(t, cfg.Channels[0].Record)
	assert.Equal(t, 103.5, cfg.Channels[0].CTCSS)
	assert.Equal(t, 8, cfg.Channels[0].BitDepth)
	assert.Equal(t, "ch1", cfg.Channels[1].Name)
	assert.Equal(t, 16, cfg.Channels[1].BitDepth)
	assert.InDelta(t, 562500, cfg.Offset(cfg.Channels[0]), 1e-9)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: [nope"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse")

	// Parses fine but fails validation.
	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: 100\nchannels:\n  - freq: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "sample_rate")
}
