package av1encoder

import (
	"errors"
	"io"
	"testing"

	"github.com/user/framegrab/pkg/adapters/codecdetect"
	"github.com/user/framegrab/pkg/adapters/mp4source"
	"github.com/user/framegrab/pkg/media"
)

func solidFrame(size media.Size, y, u, v byte) *media.Frame {
	f := media.NewFrame(media.PixelFormatYUV420P, size)
	for i, val := range []byte{y, u, v} {
		for j := range f.Planes[i].Data {
			f.Planes[i].Data[j] = val
		}
	}
	return f
}

func TestNew(t *testing.T) {
	encoder := New()
	if encoder == nil {
		t.Fatal("expected encoder to be created")
	}
}

func TestEncoder_Begin(t *testing.T) {
	encoder := New()

	err := encoder.Begin(media.Size{Width: 128, Height: 128}, Options{Quality: 30})
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if encoder.options.FPS != 25 {
		t.Errorf("expected default fps 25, got %v", encoder.options.FPS)
	}

	encoder.cleanup()
}

func TestEncoder_BeginInvalidSize(t *testing.T) {
	if err := New().Begin(media.Size{}, Options{}); err == nil {
		t.Error("expected error for empty size")
	}
}

func TestEncoder_EncodeFrame(t *testing.T) {
	encoder := New()
	size := media.Size{Width: 64, Height: 64}
	if err := encoder.Begin(size, Options{Quality: 40}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer encoder.cleanup()

	if err := encoder.EncodeFrame(solidFrame(size, 81, 90, 240)); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if encoder.frameCount != 1 {
		t.Errorf("expected frameCount 1, got %d", encoder.frameCount)
	}
}

func TestEncoder_RejectsWrongFrame(t *testing.T) {
	encoder := New()
	if err := encoder.Begin(media.Size{Width: 64, Height: 64}, Options{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer encoder.cleanup()

	tests := []struct {
		name  string
		frame *media.Frame
	}{
		{"wrong size", solidFrame(media.Size{Width: 32, Height: 32}, 0, 0, 0)},
		{"wrong format", media.NewFrame(media.PixelFormatRGB24, media.Size{Width: 64, Height: 64})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := encoder.EncodeFrame(tt.frame); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncoder_EncodeWithoutBegin(t *testing.T) {
	encoder := New()
	if err := encoder.EncodeFrame(solidFrame(media.Size{Width: 16, Height: 16}, 0, 0, 0)); err == nil {
		t.Error("expected error when encoding without Begin")
	}
	if _, err := encoder.End(); err == nil {
		t.Error("expected error when ending without Begin")
	}
}

func TestEncoder_EndWithoutFrames(t *testing.T) {
	encoder := New()
	if err := encoder.Begin(media.Size{Width: 64, Height: 64}, Options{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := encoder.End(); err == nil {
		t.Error("expected error when no frames were encoded")
	}
}

func TestClip(t *testing.T) {
	size := media.Size{Width: 64, Height: 48}
	frames := []*media.Frame{
		solidFrame(size, 81, 90, 240),
		solidFrame(size, 145, 54, 34),
		solidFrame(size, 41, 240, 110),
	}

	data, err := Clip(frames, Options{Quality: 40, KeyframeEvery: 2})
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}

	codec, err := codecdetect.DetectFromBytes(data)
	if err != nil {
		t.Fatalf("DetectFromBytes failed: %v", err)
	}
	if codec != media.CodecAV1 {
		t.Errorf("expected av1, got %s", codec)
	}

	src, err := mp4source.OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	defer src.Close()
	desc, err := src.SelectVideoStream()
	if err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if desc.Width != 64 || desc.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", desc.Width, desc.Height)
	}
	if desc.Timescale != 25000 {
		t.Errorf("expected timescale 25000, got %d", desc.Timescale)
	}

	var keys []bool
	for {
		pkt, err := src.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPacket failed: %v", err)
		}
		keys = append(keys, pkt.Keyframe)
		pkt.Release()
	}
	if len(keys) != len(frames) {
		t.Fatalf("expected %d samples, got %d", len(frames), len(keys))
	}
	if !keys[0] || !keys[2] {
		t.Errorf("expected forced keyframes at 0 and 2, got %v", keys)
	}
}

func TestExtractSequenceHeader(t *testing.T) {
	// Temporal delimiter, then a sequence header OBU with a 2-byte payload.
	data := []byte{0x12, 0x00, 0x0A, 0x02, 0xAB, 0xCD, 0x32, 0x01, 0xFF}
	got := extractSequenceHeader(data)
	want := []byte{0x0A, 0x02, 0xAB, 0xCD}
	if string(got) != string(want) {
		t.Errorf("expected %x, got %x", want, got)
	}

	if got := extractSequenceHeader([]byte{0x12, 0x00}); got != nil {
		t.Errorf("expected nil without a sequence header, got %x", got)
	}
}

func TestReadLeb128(t *testing.T) {
	tests := []struct {
		data   []byte
		value  int
		offset int
	}{
		{[]byte{0x05}, 5, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xFF, 0x7F}, 16383, 2},
	}
	for _, tt := range tests {
		value, offset := readLeb128(tt.data, 0)
		if value != tt.value || offset != tt.offset {
			t.Errorf("readLeb128(%x) = %d, %d; want %d, %d", tt.data, value, offset, tt.value, tt.offset)
		}
	}
}
