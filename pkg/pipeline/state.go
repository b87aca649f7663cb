// Package pipeline provides the vocabulary of the decode pipeline: driver
// states, termination policies and the lazy decoded-frame sequence.
package pipeline

import "github.com/user/framegrab/pkg/media"

// State is a phase of the pipeline driver.
type State int

const (
	// StateInit opens the source, selects the stream and configures the
	// decoder, converter and sink.
	StateInit State = iota
	// StateRunning reads, decodes, converts and dispatches frames.
	StateRunning
	// StateDraining flushes the decoder and releases resources.
	StateDraining
	// StateDone is terminal.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Result summarizes a pipeline run.
type Result struct {
	// Stream is the selected video stream.
	Stream media.StreamDescriptor
	// Target and TargetFormat describe the frames handed to the sink.
	Target       media.Size
	TargetFormat media.PixelFormat
	// Frames is the number of frames dispatched to the sink; it equals the
	// last frame index.
	Frames int
	// Packets is the number of packets read from the source.
	Packets int
	// Skipped is the number of packets the decoder rejected.
	Skipped int
	// Foreign is the number of packets that belonged to other streams.
	Foreign int
	// Stopped reports whether the termination policy ended the run before
	// the end of the stream.
	Stopped bool
}
