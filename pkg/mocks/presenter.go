package mocks

import (
	"fmt"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Presenter is a mock implementation of ports.Presenter.
type Presenter struct {
	// QuitAfter makes PollQuit report a quit event once this many frames
	// have been presented. Zero disables it.
	QuitAfter  int
	OpenErr    error
	PresentErr error

	// Recorded calls for verification
	Title    string
	Size     media.Size
	Opened   int
	Uploads  int
	Presents int
	Polls    int
	Closed   int
	// Strides holds the plane strides of the last uploaded frame.
	Strides []int
}

func (m *Presenter) Open(title string, size media.Size) error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.Opened++
	m.Title = title
	m.Size = size
	return nil
}

func (m *Presenter) Upload(frame *media.Frame) error {
	if m.Opened == 0 {
		return fmt.Errorf("upload before open")
	}
	m.Uploads++
	m.Strides = m.Strides[:0]
	for _, p := range frame.Planes {
		m.Strides = append(m.Strides, p.Stride)
	}
	return nil
}

func (m *Presenter) Present() error {
	if m.PresentErr != nil {
		return m.PresentErr
	}
	m.Presents++
	return nil
}

func (m *Presenter) PollQuit() bool {
	m.Polls++
	return m.QuitAfter > 0 && m.Presents >= m.QuitAfter
}

func (m *Presenter) Close() error {
	m.Closed++
	return nil
}

var _ ports.Presenter = (*Presenter)(nil)
