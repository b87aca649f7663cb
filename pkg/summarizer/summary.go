// Package summarizer provides summary generation for pipeline runs.
package summarizer

import (
	"time"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/pipeline"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input file and decoding backend
	Input InputInfo

	// Selected video stream
	Stream media.StreamDescriptor

	// Frames handed to the sink
	Output OutputInfo

	// Pipeline counters
	Counters Counters
}

// InputInfo describes the input and how it was decoded.
type InputInfo struct {
	Path    string
	Backend string
	Decoder string
}

// OutputInfo describes the sink side of the run.
type OutputInfo struct {
	Sink   string
	Format media.PixelFormat
	Size   media.Size
	// Files lists the files written by a file sink.
	Files []string
}

// Counters contains the pipeline counters.
type Counters struct {
	Frames  int
	Packets int
	Skipped int
	Foreign int
	Stopped bool

	DurationMs int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets input information.
func (b *Builder) WithInput(path, backend, decoder string) *Builder {
	b.summary.Input = InputInfo{
		Path:    path,
		Backend: backend,
		Decoder: decoder,
	}
	return b
}

// WithResult copies the stream, target and counters of a pipeline result.
func (b *Builder) WithResult(result pipeline.Result) *Builder {
	b.summary.Stream = result.Stream
	b.summary.Output.Format = result.TargetFormat
	b.summary.Output.Size = result.Target
	b.summary.Counters.Frames = result.Frames
	b.summary.Counters.Packets = result.Packets
	b.summary.Counters.Skipped = result.Skipped
	b.summary.Counters.Foreign = result.Foreign
	b.summary.Counters.Stopped = result.Stopped
	return b
}

// WithSink sets the sink name and the files it wrote.
func (b *Builder) WithSink(name string, files []string) *Builder {
	b.summary.Output.Sink = name
	b.summary.Output.Files = files
	return b
}

// WithDuration sets the wall-clock duration of the run.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	b.summary.Counters.DurationMs = d.Milliseconds()
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
