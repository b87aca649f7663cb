package displaysink

import (
	"errors"
	"reflect"
	"testing"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/mocks"
	"github.com/user/framegrab/pkg/ports"
)

func TestSink_Configure(t *testing.T) {
	presenter := &mocks.Presenter{}
	logger := mocks.NewLogger()
	sink := New(presenter, "Player", logger)

	format, err := sink.Configure(media.Size{Width: 33, Height: 17})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if format != media.PixelFormatYUV420P {
		t.Errorf("expected yuv420p, got %s", format)
	}
	if presenter.Opened != 1 || presenter.Title != "Player" {
		t.Errorf("expected window opened once with title, got %d %q", presenter.Opened, presenter.Title)
	}
	if presenter.Size != (media.Size{Width: 33, Height: 17}) {
		t.Errorf("expected window sized to frame, got %s", presenter.Size)
	}
	if entries := logger.Entries(ports.LevelDebug); len(entries) != 1 || entries[0].Message != `Opening window "Player" (33x17)` {
		t.Errorf("expected a single window log line, got %v", entries)
	}
}

func TestSink_Write(t *testing.T) {
	presenter := &mocks.Presenter{}
	sink := New(presenter, "", mocks.NewLogger())
	size := media.Size{Width: 33, Height: 17}
	sink.Configure(size)

	frame := media.NewFrame(media.PixelFormatYUV420P, size)
	for i := 1; i <= 3; i++ {
		if err := sink.Write(frame, i); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if presenter.Uploads != 3 || presenter.Presents != 3 {
		t.Errorf("expected 3 uploads and presents, got %d/%d", presenter.Uploads, presenter.Presents)
	}
	if !reflect.DeepEqual(presenter.Strides, []int{64, 32, 32}) {
		t.Errorf("expected plane strides passed through, got %v", presenter.Strides)
	}
}

func TestSink_PresentationError(t *testing.T) {
	presenter := &mocks.Presenter{PresentErr: errors.New("device lost")}
	sink := New(presenter, "", mocks.NewLogger())
	size := media.Size{Width: 2, Height: 2}
	sink.Configure(size)

	err := sink.Write(media.NewFrame(media.PixelFormatYUV420P, size), 1)
	if !errors.Is(err, media.ErrPresentation) {
		t.Errorf("expected ErrPresentation, got %v", err)
	}
}

func TestSink_OpenError(t *testing.T) {
	presenter := &mocks.Presenter{OpenErr: errors.New("no display")}
	sink := New(presenter, "", mocks.NewLogger())

	if _, err := sink.Configure(media.Size{Width: 2, Height: 2}); !errors.Is(err, media.ErrPresentation) {
		t.Fatalf("expected ErrPresentation, got %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if presenter.Closed != 0 {
		t.Error("expected no close for a window that never opened")
	}
}

func TestSink_RejectsWrongFrame(t *testing.T) {
	sink := New(&mocks.Presenter{}, "", mocks.NewLogger())
	sink.Configure(media.Size{Width: 4, Height: 4})

	if err := sink.Write(media.NewFrame(media.PixelFormatRGB24, media.Size{Width: 4, Height: 4}), 1); err == nil {
		t.Error("expected error for packed frame")
	}

	bad := media.NewFrame(media.PixelFormatYUV420P, media.Size{Width: 4, Height: 4})
	bad.Planes[1].Data = bad.Planes[1].Data[:1]
	if err := sink.Write(bad, 1); !errors.Is(err, media.ErrStride) {
		t.Errorf("expected ErrStride, got %v", err)
	}
}

func TestSink_QuitRequested(t *testing.T) {
	presenter := &mocks.Presenter{QuitAfter: 1}
	sink := New(presenter, "", mocks.NewLogger())

	if sink.QuitRequested() {
		t.Error("expected no quit before the window opens")
	}

	size := media.Size{Width: 2, Height: 2}
	sink.Configure(size)
	if sink.QuitRequested() {
		t.Error("expected no quit before the first presentation")
	}

	sink.Write(media.NewFrame(media.PixelFormatYUV420P, size), 1)
	if !sink.QuitRequested() {
		t.Fatal("expected quit after the first presentation")
	}

	polls := presenter.Polls
	if !sink.QuitRequested() {
		t.Error("expected quit to stay requested")
	}
	if presenter.Polls != polls {
		t.Error("expected no further polling once quit was seen")
	}
}

func TestSink_CloseOnce(t *testing.T) {
	presenter := &mocks.Presenter{}
	sink := New(presenter, "", mocks.NewLogger())
	sink.Configure(media.Size{Width: 2, Height: 2})

	sink.Close()
	sink.Close()

	if presenter.Closed != 1 {
		t.Errorf("expected presenter closed once, got %d", presenter.Closed)
	}
}
