// Package nullsink provides a frame sink that discards every frame.
package nullsink

import (
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink.
// It accepts frames in the decoder's native planar format, so no
// colorspace conversion runs.
type Sink struct {
	frames int
}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Configure accepts any size.
func (s *Sink) Configure(size media.Size) (media.PixelFormat, error) {
	return media.PixelFormatYUV420P, nil
}

// Write counts the frame and discards it.
func (s *Sink) Write(frame *media.Frame, index int) error {
	s.frames++
	return nil
}

// Frames returns the number of frames discarded.
func (s *Sink) Frames() int {
	return s.frames
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)
