// Package h264encoder encodes YUV420P frames into H.264 MP4 clips with an
// ffmpeg child process. It produces the short synthetic clips the decode
// tests run on.
package h264encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/user/framegrab/pkg/adapters/ffmpegbin"
	"github.com/user/framegrab/pkg/media"
)

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrNoFrames is returned when End is called without encoded frames.
	ErrNoFrames = errors.New("h264encoder: no frames to encode")
)

// Options configures encoding.
type Options struct {
	// FPS is the clip frame rate. Zero means 25.
	FPS float64
	// Quality is a 0-63 scale mapped onto x264's CRF. Zero means CRF 23.
	Quality int
	// Fragmented writes a fragmented MP4 instead of a progressive one.
	Fragmented bool
	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string
}

// Encoder pipes raw frames into ffmpeg, which writes the MP4 to a
// temporary file.
type Encoder struct {
	size media.Size
	opts Options

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	tempPath   string
	frameCount int
}

// New creates a new H.264 encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin starts ffmpeg for frames of the given size.
func (e *Encoder) Begin(size media.Size, opts Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if size.Width <= 0 || size.Height <= 0 || size.Width%2 != 0 || size.Height%2 != 0 {
		return fmt.Errorf("invalid size %s: dimensions must be positive and even", size)
	}
	if opts.FPS <= 0 {
		opts.FPS = 25
	}

	ffmpegPath, err := ffmpegbin.Find(opts.FFmpegPath)
	if err != nil {
		return err
	}

	e.size = size
	e.opts = opts
	e.frameCount = 0
	e.stderr.Reset()

	tmpFile, err := os.CreateTemp("", "h264encode_*.mp4")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	e.tempPath = tmpFile.Name()
	tmpFile.Close()

	crf := 23
	if opts.Quality > 0 && opts.Quality <= 63 {
		crf = min(opts.Quality*51/63, 51)
	}

	movflags := "+faststart"
	if opts.Fragmented {
		movflags = "frag_keyframe+empty_moov+default_base_moof"
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-s", size.String(),
		"-r", fmt.Sprintf("%.2f", opts.FPS),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-crf", fmt.Sprintf("%d", crf),
		"-profile:v", "baseline",
		"-level", "3.1",
		"-movflags", movflags,
		e.tempPath,
	}

	e.cmd = exec.Command(ffmpegPath, args...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		os.Remove(e.tempPath)
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		os.Remove(e.tempPath)
		e.stdin = nil
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return nil
}

// EncodeFrame writes one YUV420P frame of the configured size.
func (e *Encoder) EncodeFrame(frame *media.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return ErrNotInitialized
	}
	if frame.Format != media.PixelFormatYUV420P || frame.Size() != e.size {
		return fmt.Errorf("expected %s frame of %s, got %s of %s",
			media.PixelFormatYUV420P, e.size, frame.Format, frame.Size())
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		rows := media.PixelFormatYUV420P.PlaneSize(i, e.size).Height
		for y := 0; y < rows; y++ {
			if _, err := e.stdin.Write(frame.Row(i, y)); err != nil {
				return fmt.Errorf("failed to write frame: %w", err)
			}
		}
	}

	e.frameCount++
	return nil
}

// End finalizes encoding and returns the MP4 data.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return nil, ErrNotInitialized
	}
	defer e.cleanup()

	e.stdin.Close()
	e.stdin = nil
	if err := e.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, e.stderr.String())
	}
	if e.frameCount == 0 {
		return nil, ErrNoFrames
	}

	data, err := os.ReadFile(e.tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	return data, nil
}

// Abort stops ffmpeg and discards the output.
func (e *Encoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin != nil {
		e.stdin.Close()
		e.stdin = nil
		if e.cmd.Process != nil {
			e.cmd.Process.Kill()
		}
		e.cmd.Wait()
	}
	e.cleanup()
}

func (e *Encoder) cleanup() {
	if e.tempPath != "" {
		os.Remove(e.tempPath)
		e.tempPath = ""
	}
}

// Clip encodes frames into an MP4 clip in one call.
func Clip(frames []*media.Frame, opts Options) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	e := New()
	if err := e.Begin(frames[0].Size(), opts); err != nil {
		return nil, err
	}
	for i, f := range frames {
		if err := e.EncodeFrame(f); err != nil {
			e.Abort()
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return e.End()
}
