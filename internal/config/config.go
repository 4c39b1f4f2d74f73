// Package config holds the scanner configuration: one wideband input
// feed and the set of channels monitored within it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all the configuration parameters for the application.
type Config struct {
	// SampleRate is the wideband input rate in samples per second.
	SampleRate int `yaml:"sample_rate"`
	// CenterFreq is the frequency the wideband input is centered on,
	// in Hz. Channel frequencies are absolute; their offset from
	// this center must fit inside the input bandwidth.
	CenterFreq float64 `yaml:"center_freq"`
	// AudioRate is the demodulated output rate, 8000 or 16000.
	AudioRate int `yaml:"audio_rate"`
	// BlockSize is the number of wideband samples per processing
	// block.
	BlockSize int `yaml:"block_size"`

	// OutputDir is where recordings are written.
	OutputDir string `yaml:"output_dir"`
	// FilePattern names recordings, in strftime syntax. The channel
	// name and extension are appended around it.
	FilePattern string `yaml:"file_pattern"`
	// MinDuration discards recordings shorter than this many
	// seconds. Zero keeps everything.
	MinDuration float64 `yaml:"min_duration"`
	// SinkBuffer is the per-channel audio buffer, in samples,
	// between the record gate and the file sink.
	SinkBuffer int `yaml:"sink_buffer"`

	LogLevel string `yaml:"log_level"`

	Channels []Channel `yaml:"channels"`
}

// Channel configures one monitored frequency.
type Channel struct {
	Name string `yaml:"name"`
	// Freq is the absolute RF frequency in Hz.
	Freq float64 `yaml:"freq"`
	// Mode selects the demodulator. Only "wbfm" is implemented.
	Mode       string  `yaml:"mode"`
	Record     bool    `yaml:"record"`
	BitDepth   int     `yaml:"bit_depth"`
	SquelchDB  float64 `yaml:"squelch_db"`
	VolumeDB   float64 `yaml:"volume_db"`
	CTCSS      float64 `yaml:"ctcss"`
	CTCSSLevel float64 `yaml:"ctcss_level"`
	ToneFilter bool    `yaml:"tone_filter"`
}

// New returns a new Config with default values.
func New() *Config {
	return &Config{
		SampleRate:  2_000_000,
		AudioRate:   8000,
		BlockSize:   8192,
		OutputDir:   ".",
		FilePattern: "%Y%m%d_%H%M%S",
		SinkBuffer:  1 << 15, // about four seconds of 8 kHz audio
		LogLevel:    "info",
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and fills in per-channel defaults.
func (c *Config) Validate() error {
	if c.SampleRate < 1_000_000 {
		return fmt.Errorf("sample_rate %d is below 1 Msps", c.SampleRate)
	}
	if c.AudioRate != 8000 && c.AudioRate != 16000 {
		return fmt.Errorf("audio_rate %d is not 8000 or 16000", c.AudioRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size %d must be positive", c.BlockSize)
	}
	if c.SinkBuffer <= 0 {
		return fmt.Errorf("sink_buffer %d must be positive", c.SinkBuffer)
	}
	if c.MinDuration < 0 {
		return fmt.Errorf("min_duration %.1f must not be negative", c.MinDuration)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("no channels configured")
	}
	half := float64(c.SampleRate) / 2
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Name == "" {
			ch.Name = fmt.Sprintf("ch%d", i)
		}
		if ch.Mode == "" {
			ch.Mode = "wbfm"
		}
		if ch.Mode != "wbfm" {
			return fmt.Errorf("channel %s: unknown mode %q", ch.Name, ch.Mode)
		}
		if ch.BitDepth == 0 {
			ch.BitDepth = 8
		}
		if off := ch.Freq - c.CenterFreq; off < -half || off > half {
			return fmt.Errorf("channel %s: %.0f Hz is outside the input bandwidth around %.0f Hz",
				ch.Name, ch.Freq, c.CenterFreq)
		}
	}
	return nil
}

// Offset returns a channel's baseband offset from the input center.
func (c *Config) Offset(ch Channel) float64 {
	return ch.Freq - c.CenterFreq
}
