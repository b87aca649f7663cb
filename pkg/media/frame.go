// Package media defines the data model shared by the decode pipeline:
// stream descriptors, compressed packets and raster frames.
package media

import (
	"fmt"
)

// PixelFormat identifies the sample layout of a frame.
type PixelFormat int

const (
	// PixelFormatUnknown is the zero value.
	PixelFormatUnknown PixelFormat = iota
	// PixelFormatYUV420P is planar YUV 4:2:0 with 8-bit samples (Y, U, V planes).
	PixelFormatYUV420P
	// PixelFormatRGB24 is packed 24-bit RGB in a single plane.
	PixelFormatRGB24
)

// String returns the conventional name of the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatYUV420P:
		return "yuv420p"
	case PixelFormatRGB24:
		return "rgb24"
	default:
		return "unknown"
	}
}

// PlaneCount returns the number of planes the format uses.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatYUV420P:
		return 3
	case PixelFormatRGB24:
		return 1
	default:
		return 0
	}
}

// PlaneSize returns the dimensions in samples of plane i for a frame of the given size.
// Chroma planes of 4:2:0 are rounded up for odd sizes.
func (p PixelFormat) PlaneSize(i int, size Size) Size {
	if p == PixelFormatYUV420P && i > 0 {
		return Size{Width: (size.Width + 1) / 2, Height: (size.Height + 1) / 2}
	}
	return size
}

// BytesPerSample returns how many bytes one sample of plane i occupies.
func (p PixelFormat) BytesPerSample(i int) int {
	if p == PixelFormatRGB24 {
		return 3
	}
	return 1
}

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Plane is one color channel buffer. Stride is the byte distance between
// the starts of consecutive rows and may exceed the row's pixel data.
type Plane struct {
	Data   []byte
	Stride int
}

// Frame is a decoded raster image. Frames handed across package boundaries
// are views of buffers owned by a decoder or converter; they stay valid only
// until the owner produces its next frame.
type Frame struct {
	Format PixelFormat
	Width  int
	Height int
	Planes []Plane
}

// strideAlign matches the row alignment common decoders use.
const strideAlign = 32

// NewFrame allocates a frame with aligned strides for every plane.
func NewFrame(format PixelFormat, size Size) *Frame {
	f := &Frame{
		Format: format,
		Width:  size.Width,
		Height: size.Height,
		Planes: make([]Plane, format.PlaneCount()),
	}
	for i := range f.Planes {
		ps := format.PlaneSize(i, size)
		stride := alignUp(ps.Width*format.BytesPerSample(i), strideAlign)
		f.Planes[i] = Plane{
			Data:   make([]byte, stride*ps.Height),
			Stride: stride,
		}
	}
	return f
}

// Size returns the frame dimensions.
func (f *Frame) Size() Size {
	return Size{Width: f.Width, Height: f.Height}
}

// Row returns the pixel bytes of row y in plane i, excluding any padding.
func (f *Frame) Row(i, y int) []byte {
	p := f.Planes[i]
	n := f.Format.PlaneSize(i, f.Size()).Width * f.Format.BytesPerSample(i)
	off := y * p.Stride
	return p.Data[off : off+n]
}

// Validate checks that every plane is large enough for the frame geometry:
// the stride must cover a full row of pixel data and the buffer must hold
// all rows at that stride.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: invalid frame size %dx%d", ErrStride, f.Width, f.Height)
	}
	if len(f.Planes) < f.Format.PlaneCount() {
		return fmt.Errorf("%w: %s frame has %d planes, want %d",
			ErrStride, f.Format, len(f.Planes), f.Format.PlaneCount())
	}
	for i := 0; i < f.Format.PlaneCount(); i++ {
		ps := f.Format.PlaneSize(i, f.Size())
		rowBytes := ps.Width * f.Format.BytesPerSample(i)
		p := f.Planes[i]
		if p.Stride < rowBytes {
			return fmt.Errorf("%w: plane %d stride %d < row bytes %d", ErrStride, i, p.Stride, rowBytes)
		}
		if need := p.Stride*(ps.Height-1) + rowBytes; len(p.Data) < need {
			return fmt.Errorf("%w: plane %d holds %d bytes, need %d", ErrStride, i, len(p.Data), need)
		}
	}
	return nil
}

// CopyFrom copies the pixel data of src into f. Both frames must share
// format and size; strides may differ.
func (f *Frame) CopyFrom(src *Frame) error {
	if src.Format != f.Format || src.Width != f.Width || src.Height != f.Height {
		return fmt.Errorf("copy %s %dx%d into %s %dx%d: mismatched frames",
			src.Format, src.Width, src.Height, f.Format, f.Width, f.Height)
	}
	if err := src.Validate(); err != nil {
		return err
	}
	for i := 0; i < f.Format.PlaneCount(); i++ {
		rows := f.Format.PlaneSize(i, f.Size()).Height
		for y := 0; y < rows; y++ {
			copy(f.Row(i, y), src.Row(i, y))
		}
	}
	return nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
