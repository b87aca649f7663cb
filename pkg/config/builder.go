package config

// Builder provides a fluent interface for overriding a Config.
type Builder struct {
	config Config
}

// NewBuilder creates a Builder starting from base.
func NewBuilder(base Config) *Builder {
	return &Builder{config: base}
}

// Build validates and returns the final Config.
func (b *Builder) Build() (Config, error) {
	cfg := b.config
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.FilePattern == "" {
		cfg.FilePattern = Defaults().FilePattern
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WithOutputDir sets the directory frame files are written to.
func (b *Builder) WithOutputDir(dir string) *Builder {
	b.config.OutputDir = dir
	return b
}

// WithFilePattern sets the frame file name pattern.
func (b *Builder) WithFilePattern(pattern string) *Builder {
	b.config.FilePattern = pattern
	return b
}

// WithMaxFrames sets the frame cap. 0 means unlimited.
func (b *Builder) WithMaxFrames(n int) *Builder {
	b.config.MaxFrames = n
	return b
}

// WithBackend sets the decoding backend.
func (b *Builder) WithBackend(backend string) *Builder {
	b.config.Backend = backend
	return b
}

// WithFFmpegPath sets a custom ffmpeg executable.
func (b *Builder) WithFFmpegPath(path string) *Builder {
	b.config.FFmpegPath = path
	return b
}

// WithSize sets the conversion target size.
func (b *Builder) WithSize(width, height int) *Builder {
	b.config.Width = width
	b.config.Height = height
	return b
}

// WithWindowTitle sets the display window title.
func (b *Builder) WithWindowTitle(title string) *Builder {
	b.config.WindowTitle = title
	return b
}

// WithLogLevel sets the log level.
func (b *Builder) WithLogLevel(level string) *Builder {
	b.config.LogLevel = level
	return b
}

// WithSummary sets the summary output path.
func (b *Builder) WithSummary(path string) *Builder {
	b.config.Summary = path
	return b
}
