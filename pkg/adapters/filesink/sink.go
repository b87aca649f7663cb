// Package filesink provides a frame sink that saves every frame as a PPM image.
package filesink

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// DefaultPattern names frame files by their 1-based index.
const DefaultPattern = "frame%d.ppm"

// Sink writes frames as binary PPM (P6) files.
type Sink struct {
	baseDir string
	pattern string
	fs      ports.FileSystem
	logger  ports.Logger

	size    media.Size
	written []string
}

// New creates a new FileSink. An empty pattern selects DefaultPattern.
func New(baseDir, pattern string, fs ports.FileSystem, logger ports.Logger) *Sink {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Sink{
		baseDir: baseDir,
		pattern: pattern,
		fs:      fs,
		logger:  logger,
	}
}

// Configure prepares the output directory and requests packed RGB frames.
func (s *Sink) Configure(size media.Size) (media.PixelFormat, error) {
	if s.baseDir != "" {
		if err := s.fs.MkdirAll(s.baseDir); err != nil {
			return media.PixelFormatUnknown, fmt.Errorf("%w: create %s: %v", media.ErrWrite, s.baseDir, err)
		}
	}
	s.size = size
	return media.PixelFormatRGB24, nil
}

// Path returns the file path for a frame index.
func (s *Sink) Path(index int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf(s.pattern, index))
}

// Write saves frame as the file for index, truncating any existing file.
// The frame is read only during the call.
func (s *Sink) Write(frame *media.Frame, index int) error {
	if frame.Format != media.PixelFormatRGB24 {
		return fmt.Errorf("filesink: got %s frame, want %s", frame.Format, media.PixelFormatRGB24)
	}
	if frame.Size() != s.size {
		return fmt.Errorf("filesink: got %s frame, configured for %s", frame.Size(), s.size)
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	path := s.Path(index)
	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", media.ErrWrite, path, err)
	}

	if err := encodePPM(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", media.ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", media.ErrWrite, path, err)
	}

	s.written = append(s.written, path)
	s.logger.Info("Saving frame %d to disk... [Done]", index)
	return nil
}

// Written returns the paths saved so far.
func (s *Sink) Written() []string {
	return s.written
}

// Close does nothing; each file is closed by Write.
func (s *Sink) Close() error {
	return nil
}

// encodePPM writes the P6 header followed by the pixel rows of the first
// plane without stride padding.
func encodePPM(w io.Writer, frame *media.Frame) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", frame.Width, frame.Height); err != nil {
		return err
	}
	for y := 0; y < frame.Height; y++ {
		row := frame.Row(0, y)
		n, err := bw.Write(row)
		if err != nil {
			return err
		}
		if n != len(row) {
			return io.ErrShortWrite
		}
	}
	return bw.Flush()
}

var _ ports.FrameSink = (*Sink)(nil)
