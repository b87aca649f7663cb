package ports

import (
	"github.com/user/framegrab/pkg/media"
)

// FrameSink consumes converted frames.
type FrameSink interface {
	// Configure prepares the sink for frames of the given size and returns
	// the pixel format it requires. It is called once, before any Write.
	Configure(size media.Size) (media.PixelFormat, error)

	// Write consumes one frame. The frame is only valid for the duration
	// of the call and must not be retained.
	Write(frame *media.Frame, index int) error

	// Close releases the sink's resources. It is a no-op for a sink that
	// was never configured.
	Close() error
}

// QuitSource reports an external request to stop.
type QuitSource interface {
	// QuitRequested polls for a quit request without blocking.
	QuitRequested() bool
}
