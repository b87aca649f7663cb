package mocks

import (
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// SinkWrite records one frame written to a FrameSink.
type SinkWrite struct {
	Index  int
	Format media.PixelFormat
	Width  int
	Height int
	// First is the first byte of the first plane.
	First byte
}

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	Format media.PixelFormat

	ConfigureErr error
	CloseErr     error
	WriteFunc    func(frame *media.Frame, index int) error

	// Recorded calls for verification
	Configured []media.Size
	Writes     []SinkWrite
	Closed     int
}

// NewFrameSink creates a sink that requests the given pixel format.
func NewFrameSink(format media.PixelFormat) *FrameSink {
	return &FrameSink{Format: format}
}

func (m *FrameSink) Configure(size media.Size) (media.PixelFormat, error) {
	m.Configured = append(m.Configured, size)
	if m.ConfigureErr != nil {
		return media.PixelFormatUnknown, m.ConfigureErr
	}
	return m.Format, nil
}

func (m *FrameSink) Write(frame *media.Frame, index int) error {
	if m.WriteFunc != nil {
		if err := m.WriteFunc(frame, index); err != nil {
			return err
		}
	}
	m.Writes = append(m.Writes, SinkWrite{
		Index:  index,
		Format: frame.Format,
		Width:  frame.Width,
		Height: frame.Height,
		First:  frame.Planes[0].Data[0],
	})
	return nil
}

func (m *FrameSink) Close() error {
	m.Closed++
	return m.CloseErr
}

// Indices returns the frame indices written so far.
func (m *FrameSink) Indices() []int {
	indices := make([]int, len(m.Writes))
	for i, w := range m.Writes {
		indices[i] = w.Index
	}
	return indices
}

var _ ports.FrameSink = (*FrameSink)(nil)

// QuitSource is a mock implementation of ports.QuitSource.
type QuitSource struct {
	Quit  bool
	Polls int
}

func (m *QuitSource) QuitRequested() bool {
	m.Polls++
	return m.Quit
}

var _ ports.QuitSource = (*QuitSource)(nil)
