package nullsink

import (
	"testing"

	"github.com/user/framegrab/pkg/media"
)

func TestSink(t *testing.T) {
	sink := New()

	format, err := sink.Configure(media.Size{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if format != media.PixelFormatYUV420P {
		t.Errorf("expected yuv420p, got %s", format)
	}

	frame := media.NewFrame(format, media.Size{Width: 4, Height: 4})
	for i := 1; i <= 3; i++ {
		if err := sink.Write(frame, i); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if sink.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", sink.Frames())
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
