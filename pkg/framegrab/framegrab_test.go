package framegrab_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/framegrab/pkg/adapters/av1encoder"
	"github.com/user/framegrab/pkg/adapters/osfilesystem"
	"github.com/user/framegrab/pkg/config"
	"github.com/user/framegrab/pkg/framegrab"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/mocks"
)

// writeClip encodes solid gray frames as an AV1 MP4 file.
func writeClip(t *testing.T, size media.Size, frames int) string {
	t.Helper()
	var input []*media.Frame
	for i := 0; i < frames; i++ {
		f := media.NewFrame(media.PixelFormatYUV420P, size)
		for p, val := range []byte{byte(60 + 40*i), 128, 128} {
			for j := range f.Planes[p].Data {
				f.Planes[p].Data[j] = val
			}
		}
		input = append(input, f)
	}
	data, err := av1encoder.Clip(input, av1encoder.Options{Quality: 20})
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGrab(t *testing.T) {
	size := media.Size{Width: 64, Height: 48}
	clip := writeClip(t, size, 4)
	out := filepath.Join(t.TempDir(), "frames")

	cfg, err := config.NewBuilder(config.Defaults()).
		WithOutputDir(out).
		WithMaxFrames(2).
		WithSummary(filepath.Join(out, "summary.md")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	logger := mocks.NewLogger()
	result, err := framegrab.New(cfg, osfilesystem.New(), logger).Grab(context.Background(), clip)
	if err != nil {
		t.Fatalf("Grab failed: %v", err)
	}
	if result.Frames != 2 || !result.Stopped {
		t.Errorf("expected 2 frames and a policy stop, got %+v", result)
	}
	if result.Stream.Codec != media.CodecAV1 || result.TargetFormat != media.PixelFormatRGB24 {
		t.Errorf("unexpected result %+v", result)
	}

	header := fmt.Sprintf("P6\n%d %d\n255\n", size.Width, size.Height)
	for i := 1; i <= 2; i++ {
		data, err := os.ReadFile(filepath.Join(out, fmt.Sprintf("frame%d.ppm", i)))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !strings.HasPrefix(string(data), header) {
			t.Errorf("frame %d: unexpected header %q", i, data[:len(header)])
		}
		if want := len(header) + size.Width*size.Height*3; len(data) != want {
			t.Errorf("frame %d: expected %d bytes, got %d", i, want, len(data))
		}
	}
	if _, err := os.Stat(filepath.Join(out, "frame3.ppm")); !errors.Is(err, os.ErrNotExist) {
		t.Error("expected no third frame")
	}

	summary, err := os.ReadFile(filepath.Join(out, "summary.md"))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"| Backend | native |", "| Decoder | libaom |", "| Frames | 2 |", "frame2.ppm"} {
		if !strings.Contains(string(summary), want) {
			t.Errorf("expected summary to contain %q", want)
		}
	}
	if !logger.Contains("Saving frame 2 to disk... [Done]") {
		t.Error("expected per-frame progress lines")
	}
}

func TestGrab_Unlimited(t *testing.T) {
	clip := writeClip(t, media.Size{Width: 32, Height: 32}, 3)
	out := t.TempDir()

	cfg, err := config.NewBuilder(config.Defaults()).
		WithOutputDir(out).
		WithMaxFrames(0).
		WithFilePattern("img-%d.ppm").
		WithSize(16, 16).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	fs := mocks.NewFileSystem()
	result, err := framegrab.New(cfg, fs, mocks.NewLogger()).Grab(context.Background(), clip)
	if err != nil {
		t.Fatalf("Grab failed: %v", err)
	}
	if result.Frames != 3 || result.Stopped {
		t.Errorf("expected all 3 frames, got %+v", result)
	}
	if result.Target != (media.Size{Width: 16, Height: 16}) {
		t.Errorf("expected 16x16 target, got %s", result.Target)
	}
	data, ok := fs.GetFile(filepath.Join(out, "img-3.ppm"))
	if !ok {
		t.Fatal("expected img-3.ppm")
	}
	if !strings.HasPrefix(string(data), "P6\n16 16\n255\n") {
		t.Errorf("unexpected header %q", data[:12])
	}
}

func TestGrab_MissingInput(t *testing.T) {
	cfg := config.Defaults()
	cfg.OutputDir = t.TempDir()

	_, err := framegrab.New(cfg, mocks.NewFileSystem(), mocks.NewLogger()).
		Grab(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, media.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestGrab_WriteFailure(t *testing.T) {
	clip := writeClip(t, media.Size{Width: 32, Height: 32}, 2)
	fs := mocks.NewFileSystem()
	fs.CreateFunc = func(string) (io.WriteCloser, error) { return nil, errors.New("read-only") }

	_, err := framegrab.New(config.Defaults(), fs, mocks.NewLogger()).Grab(context.Background(), clip)
	if !errors.Is(err, media.ErrWrite) {
		t.Errorf("expected ErrWrite, got %v", err)
	}
}

func TestPlay(t *testing.T) {
	size := media.Size{Width: 48, Height: 32}
	clip := writeClip(t, size, 4)

	cfg := config.Defaults()
	cfg.MaxFrames = 0
	cfg.WindowTitle = "clip"

	presenter := &mocks.Presenter{QuitAfter: 3}
	result, err := framegrab.New(cfg, mocks.NewFileSystem(), mocks.NewLogger()).
		Play(context.Background(), clip, presenter)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if result.Frames != 3 || !result.Stopped {
		t.Errorf("expected a quit after 3 frames, got %+v", result)
	}
	if presenter.Title != "clip" || presenter.Size != size {
		t.Errorf("unexpected window %q %s", presenter.Title, presenter.Size)
	}
	if presenter.Presents != 3 || presenter.Closed != 1 {
		t.Errorf("expected 3 presents and 1 close, got %d and %d", presenter.Presents, presenter.Closed)
	}
}

func TestPlay_Cancelled(t *testing.T) {
	clip := writeClip(t, media.Size{Width: 32, Height: 32}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	presenter := &mocks.Presenter{}
	result, err := framegrab.New(config.Defaults(), mocks.NewFileSystem(), mocks.NewLogger()).
		Play(ctx, clip, presenter)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if result.Frames != 0 || !result.Stopped {
		t.Errorf("expected an immediate stop, got %+v", result)
	}
	if presenter.Closed != 1 {
		t.Error("expected the window to be closed")
	}
}
