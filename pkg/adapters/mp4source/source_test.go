package mp4source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/user/framegrab/pkg/adapters/ffmpegbin"
	"github.com/user/framegrab/pkg/adapters/h264encoder"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/mocks"
)

func buildMP4(t *testing.T, m mocks.MP4) []byte {
	t.Helper()
	data, err := m.Bytes()
	if err != nil {
		t.Fatalf("build mp4: %v", err)
	}
	return data
}

func readAll(t *testing.T, s *Source) []*media.Packet {
	t.Helper()
	var packets []*media.Packet
	for {
		pkt, err := s.NextPacket()
		if errors.Is(err, io.EOF) {
			return packets
		}
		if err != nil {
			t.Fatalf("NextPacket failed: %v", err)
		}
		packets = append(packets, pkt)
	}
}

func TestSource_AV1(t *testing.T) {
	samples := [][]byte{{1, 2, 3}, {4, 5}, {6}}
	data := buildMP4(t, mocks.MP4{Width: 64, Height: 48, Samples: samples, Timescale: 1000})

	s, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	defer s.Close()

	desc, err := s.SelectVideoStream()
	if err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if desc.Codec != media.CodecAV1 || desc.Width != 64 || desc.Height != 48 {
		t.Errorf("unexpected descriptor %+v", desc)
	}
	if desc.Format != media.PixelFormatYUV420P || desc.Timescale != 1000 {
		t.Errorf("unexpected descriptor %+v", desc)
	}

	packets := readAll(t, s)
	if len(packets) != len(samples) {
		t.Fatalf("expected %d packets, got %d", len(samples), len(packets))
	}
	for i, pkt := range packets {
		if !bytes.Equal(pkt.Data, samples[i]) {
			t.Errorf("packet %d: expected %v, got %v", i, samples[i], pkt.Data)
		}
		if pkt.StreamIndex != desc.Index {
			t.Errorf("packet %d: expected stream %d, got %d", i, desc.Index, pkt.StreamIndex)
		}
		if pkt.PTS != int64(i*40) {
			t.Errorf("packet %d: expected pts %d, got %d", i, i*40, pkt.PTS)
		}
	}
	if !packets[0].Keyframe || packets[1].Keyframe {
		t.Error("expected only the first packet to be a keyframe")
	}

	if _, err := s.NextPacket(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF to repeat, got %v", err)
	}
}

func TestSource_H264AnnexB(t *testing.T) {
	sps := []byte{0x67, 0x42, 0xc0, 0x1e}
	pps := []byte{0x68, 0xce, 0x3c, 0x80}
	// Two NAL units in AVCC form: lengths 2 and 1.
	sample := []byte{0, 0, 0, 2, 0x65, 0xAA, 0, 0, 0, 1, 0x06}
	data := buildMP4(t, mocks.MP4{
		SampleEntry: "avc1",
		Width:       32,
		Height:      16,
		SPS:         sps,
		PPS:         pps,
		Samples:     [][]byte{sample, sample},
	})

	s, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	desc, err := s.SelectVideoStream()
	if err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if desc.Codec != media.CodecH264 {
		t.Fatalf("expected h264, got %s", desc.Codec)
	}

	packets := readAll(t, s)
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}

	body := []byte{0, 0, 0, 1, 0x65, 0xAA, 0, 0, 0, 1, 0x06}
	var key []byte
	key = append(key, 0, 0, 0, 1)
	key = append(key, sps...)
	key = append(key, 0, 0, 0, 1)
	key = append(key, pps...)
	key = append(key, body...)

	if !bytes.Equal(packets[0].Data, key) {
		t.Errorf("keyframe: expected %x, got %x", key, packets[0].Data)
	}
	if !bytes.Equal(packets[1].Data, body) {
		t.Errorf("delta frame: expected %x, got %x", body, packets[1].Data)
	}
}

func TestSource_SyncSamples(t *testing.T) {
	samples := make([][]byte, 6)
	for i := range samples {
		samples[i] = []byte{byte(i)}
	}
	s, err := OpenBytes(buildMP4(t, mocks.MP4{Width: 8, Height: 8, Samples: samples, SyncEvery: 3}))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if _, err := s.SelectVideoStream(); err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}

	var keys []bool
	for _, pkt := range readAll(t, s) {
		keys = append(keys, pkt.Keyframe)
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected keyframes %v, got %v", want, keys)
		}
	}
}

func TestSource_SyncSamplesWithExtraFlags(t *testing.T) {
	samples := make([][]byte, 4)
	for i := range samples {
		samples[i] = []byte{byte(i)}
	}
	// Degradation priority in the low 16 bits must not hide sync samples.
	s, err := OpenBytes(buildMP4(t, mocks.MP4{Width: 8, Height: 8, Samples: samples, SyncEvery: 2, ExtraFlags: 0x0007}))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if _, err := s.SelectVideoStream(); err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}

	var keys []bool
	for _, pkt := range readAll(t, s) {
		keys = append(keys, pkt.Keyframe)
	}
	if !reflect.DeepEqual(keys, []bool{true, false, true, false}) {
		t.Errorf("expected sync samples 0 and 2, got %v", keys)
	}
}

func TestSource_UnsupportedCodecDescribed(t *testing.T) {
	s, err := OpenBytes(buildMP4(t, mocks.MP4{SampleEntry: "hvc1", Width: 16, Height: 16, Samples: [][]byte{{0}}}))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	desc, err := s.SelectVideoStream()
	if err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if desc.Codec != media.CodecHEVC {
		t.Errorf("expected hevc, got %s", desc.Codec)
	}
}

func TestSource_NoVideoStream(t *testing.T) {
	s, err := OpenBytes(buildMP4(t, mocks.MP4{NoVideo: true}))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if _, err := s.SelectVideoStream(); !errors.Is(err, media.ErrNoVideoStream) {
		t.Errorf("expected ErrNoVideoStream, got %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.mp4")
	if err := os.WriteFile(garbage, []byte("this is not a movie"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.mp4"), garbage} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := Open(path)
			if !errors.Is(err, media.ErrOpen) {
				t.Errorf("expected ErrOpen, got %v", err)
			}
			if s != nil {
				t.Error("expected no source")
			}
		})
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	data := buildMP4(t, mocks.MP4{Width: 16, Height: 16, Samples: [][]byte{{1}, {2}}})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.SelectVideoStream(); err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if got := len(readAll(t, s)); got != 2 {
		t.Errorf("expected 2 packets, got %d", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNextPacket_BeforeSelect(t *testing.T) {
	s, err := OpenBytes(buildMP4(t, mocks.MP4{Width: 16, Height: 16, Samples: [][]byte{{1}}}))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if _, err := s.NextPacket(); err == nil {
		t.Error("expected error before stream selection")
	}
}

func TestAvccToAnnexB_Truncated(t *testing.T) {
	got := avccToAnnexB([]byte{0, 0, 0, 1, 0x09, 0, 0, 0, 9, 0x01})
	want := []byte{0, 0, 0, 1, 0x09}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %x, got %x", want, got)
	}
}

func TestSource_Progressive(t *testing.T) {
	if !ffmpegbin.IsAvailable("") {
		t.Skip("ffmpeg not available")
	}

	size := media.Size{Width: 32, Height: 32}
	frames := make([]*media.Frame, 4)
	for i := range frames {
		frames[i] = media.NewFrame(media.PixelFormatYUV420P, size)
	}
	data, err := h264encoder.Clip(frames, h264encoder.Options{})
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}

	s, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	if s.file.IsFragmented() {
		t.Fatal("expected a progressive file")
	}
	desc, err := s.SelectVideoStream()
	if err != nil {
		t.Fatalf("SelectVideoStream failed: %v", err)
	}
	if desc.Codec != media.CodecH264 || desc.Size() != size {
		t.Errorf("unexpected descriptor %+v", desc)
	}

	packets := readAll(t, s)
	if len(packets) != len(frames) {
		t.Fatalf("expected %d packets, got %d", len(frames), len(packets))
	}
	if !packets[0].Keyframe {
		t.Error("expected the first packet to be a keyframe")
	}
	// Sync samples start with the SPS in Annex B form.
	if !bytes.HasPrefix(packets[0].Data, []byte{0, 0, 0, 1, 0x67}) {
		t.Errorf("expected SPS at the start of the keyframe, got %x", packets[0].Data[:8])
	}
	for i := 1; i < len(packets); i++ {
		if packets[i].PTS <= packets[i-1].PTS {
			t.Errorf("expected increasing decode times, got %d after %d", packets[i].PTS, packets[i-1].PTS)
		}
	}
}
