// Package displaysink provides a frame sink that presents frames in a window.
package displaysink

import (
	"fmt"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Sink uploads planar YUV frames to a presenter and shows them.
// It also reports the presenter's quit events.
type Sink struct {
	presenter ports.Presenter
	title     string
	logger    ports.Logger

	size   media.Size
	open   bool
	closed bool
	quit   bool
}

// New creates a new DisplaySink.
func New(presenter ports.Presenter, title string, logger ports.Logger) *Sink {
	return &Sink{
		presenter: presenter,
		title:     title,
		logger:    logger,
	}
}

// Configure opens a window of exactly size and requests planar YUV frames.
func (s *Sink) Configure(size media.Size) (media.PixelFormat, error) {
	if s.open {
		return media.PixelFormatUnknown, fmt.Errorf("%w: display already configured", media.ErrPresentation)
	}
	s.logger.Debug("Opening window %q (%dx%d)", s.title, size.Width, size.Height)
	if err := s.presenter.Open(s.title, size); err != nil {
		return media.PixelFormatUnknown, fmt.Errorf("%w: %v", media.ErrPresentation, err)
	}
	s.size = size
	s.open = true
	return media.PixelFormatYUV420P, nil
}

// Write uploads the frame's planes with their strides and presents them.
func (s *Sink) Write(frame *media.Frame, index int) error {
	if !s.open {
		return fmt.Errorf("%w: display not configured", media.ErrPresentation)
	}
	if frame.Format != media.PixelFormatYUV420P || frame.Size() != s.size {
		return fmt.Errorf("displaysink: got %s %s frame, configured for %s %s",
			frame.Format, frame.Size(), media.PixelFormatYUV420P, s.size)
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	if err := s.presenter.Upload(frame); err != nil {
		return fmt.Errorf("%w: upload frame %d: %v", media.ErrPresentation, index, err)
	}
	if err := s.presenter.Present(); err != nil {
		return fmt.Errorf("%w: present frame %d: %v", media.ErrPresentation, index, err)
	}
	return nil
}

// QuitRequested polls the presenter without blocking. Once a quit has been
// seen it keeps reporting true.
func (s *Sink) QuitRequested() bool {
	if s.quit {
		return true
	}
	if s.open && s.presenter.PollQuit() {
		s.logger.Info("Quit requested")
		s.quit = true
	}
	return s.quit
}

// Close releases the window. Only the first call has an effect.
func (s *Sink) Close() error {
	if !s.open || s.closed {
		return nil
	}
	s.closed = true
	return s.presenter.Close()
}

var (
	_ ports.FrameSink  = (*Sink)(nil)
	_ ports.QuitSource = (*Sink)(nil)
)
