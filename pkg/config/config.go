// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/pipeline"
	"github.com/user/framegrab/pkg/ports"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the full configuration for framegrab and frameplay.
type Config struct {
	// Output
	OutputDir   string `yaml:"output_dir"`
	FilePattern string `yaml:"file_pattern"`
	MaxFrames   int    `yaml:"max_frames"`

	// Decoding
	Backend    string `yaml:"backend"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Target size, 0 keeps the source size
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Display
	WindowTitle string `yaml:"window_title"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Summary is an optional path for a Markdown run summary.
	Summary string `yaml:"summary"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputDir:   ".",
		FilePattern: "frame%d.ppm",
		MaxFrames:   5,

		Backend: string(media.BackendAuto),

		WindowTitle: "frameplay",

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if n := strings.Count(c.FilePattern, "%d"); n != 1 || strings.Count(c.FilePattern, "%") != 1 {
		return fmt.Errorf("%w: file_pattern %q must contain exactly one %%d", ErrInvalid, c.FilePattern)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("%w: max_frames must not be negative", ErrInvalid)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: width and height must not be negative", ErrInvalid)
	}
	if (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("%w: width and height must be set together", ErrInvalid)
	}
	if _, err := media.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !validLevel(c.LogLevel) {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

func validLevel(s string) bool {
	switch s {
	case "", "debug", "info", "warn", "error", "quiet":
		return true
	}
	return false
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// TargetSize returns the conversion target size. The zero size keeps the
// stream size.
func (c Config) TargetSize() media.Size {
	return media.Size{Width: c.Width, Height: c.Height}
}

// FrameCap returns the termination policy of the file program.
func (c Config) FrameCap() pipeline.FrameCap {
	return pipeline.FrameCap(c.MaxFrames)
}

// DecoderBackend returns the configured source/decoder family.
func (c Config) DecoderBackend() media.Backend {
	return media.Backend(strings.ToLower(c.Backend))
}
