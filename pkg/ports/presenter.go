package ports

import (
	"github.com/user/framegrab/pkg/media"
)

// Presenter abstracts the display/windowing service.
type Presenter interface {
	// Open creates a window of exactly the given size, a renderer and a
	// streaming planar YUV surface of the same size.
	Open(title string, size media.Size) error

	// Upload copies the three YUV planes, with their strides, into the
	// surface region covering the full frame.
	Upload(frame *media.Frame) error

	// Present shows the surface in the window.
	Present() error

	// PollQuit drains pending window events and reports whether a quit
	// event was seen. It never blocks.
	PollQuit() bool

	// Close destroys the surface, renderer and window.
	Close() error
}
