package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/mocks"
)

type quitSource bool

func (q quitSource) QuitRequested() bool { return bool(q) }

func TestFrameCap(t *testing.T) {
	tests := []struct {
		cap    FrameCap
		frames int
		want   bool
	}{
		{5, 4, false},
		{5, 5, true},
		{5, 6, true},
		{0, 1000, false},
		{-1, 1, false},
	}
	for _, tt := range tests {
		if got := tt.cap.Done(tt.frames); got != tt.want {
			t.Errorf("FrameCap(%d).Done(%d) = %v, want %v", tt.cap, tt.frames, got, tt.want)
		}
	}
}

func TestQuitSignal(t *testing.T) {
	if (QuitSignal{Source: quitSource(false)}).Done(100) {
		t.Error("expected no stop without a quit request")
	}
	if !(QuitSignal{Source: quitSource(true)}).Done(0) {
		t.Error("expected a stop on a quit request")
	}
}

func TestEither(t *testing.T) {
	p := Either(nil, FrameCap(3), QuitSignal{Source: quitSource(false)})
	if p.Done(2) {
		t.Error("expected no stop before the cap")
	}
	if !p.Done(3) {
		t.Error("expected a stop at the cap")
	}
	if Never.Done(1 << 30) {
		t.Error("Never should never stop")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateInit:     "init",
		StateRunning:  "running",
		StateDraining: "draining",
		StateDone:     "done",
	} {
		if got := s.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestFrames(t *testing.T) {
	dec := mocks.NewFrameDecoder(4, 4)
	dec.HoldBack = 1
	if err := dec.SendPacket(media.NewPacket(0, mocks.VideoPacket(3), nil)); err != nil {
		t.Fatal(err)
	}

	var lumas []byte
	for frame, err := range Frames(dec) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lumas = append(lumas, frame.Row(0, 0)[0])
	}
	if len(lumas) != 2 || lumas[0] != 1 || lumas[1] != 2 {
		t.Fatalf("expected frames 1 and 2 before flush, got %v", lumas)
	}

	dec.Flush()
	lumas = lumas[:0]
	for frame, err := range Frames(dec) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lumas = append(lumas, frame.Row(0, 0)[0])
	}
	if len(lumas) != 1 || lumas[0] != 3 {
		t.Errorf("expected frame 3 after flush, got %v", lumas)
	}
}

func TestFrames_ContinuesAfterDecodeError(t *testing.T) {
	dec := mocks.NewFrameDecoder(4, 4)
	dec.HoldBack = 4
	dec.CorruptFrames = []int{2}
	if err := dec.SendPacket(media.NewPacket(0, mocks.VideoPacket(4), nil)); err != nil {
		t.Fatal(err)
	}
	dec.Flush()

	var lumas []byte
	var errs int
	for frame, err := range Frames(dec) {
		if err != nil {
			if !errors.Is(err, media.ErrDecode) {
				t.Fatalf("unexpected error: %v", err)
			}
			errs++
			continue
		}
		lumas = append(lumas, frame.Row(0, 0)[0])
	}
	if errs != 1 {
		t.Errorf("expected one decode error, got %d", errs)
	}
	if !reflect.DeepEqual(lumas, []byte{1, 3, 4}) {
		t.Errorf("expected frames 1, 3 and 4 around the failure, got %v", lumas)
	}
}

type failingDecoder struct {
	mocks.FrameDecoder
	calls int
	err   error
}

func (d *failingDecoder) ReceiveFrame() (*media.Frame, error) {
	d.calls++
	return nil, d.err
}

func TestFrames_FatalErrorEnds(t *testing.T) {
	dec := &failingDecoder{err: errors.New("decoder closed")}
	var errs int
	for _, err := range Frames(dec) {
		if err == nil {
			t.Fatal("expected an error")
		}
		errs++
	}
	if errs != 1 || dec.calls != 1 {
		t.Errorf("expected one error after one call, got %d errors and %d calls", errs, dec.calls)
	}
}

func TestFrames_BoundsDecodeErrors(t *testing.T) {
	dec := &failingDecoder{err: media.ErrDecode}
	var errs int
	for range Frames(dec) {
		errs++
	}
	if errs != maxDecodeErrors || dec.calls != maxDecodeErrors {
		t.Errorf("expected %d errors, got %d errors and %d calls", maxDecodeErrors, errs, dec.calls)
	}
}

func TestFrames_Break(t *testing.T) {
	dec := mocks.NewFrameDecoder(2, 2)
	dec.SendPacket(media.NewPacket(0, mocks.VideoPacket(4), nil))
	for range Frames(dec) {
		break
	}
	if dec.Received != 1 {
		t.Errorf("expected the sequence to stop after one frame, got %d", dec.Received)
	}
}
