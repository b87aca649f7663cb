// Package libav reads and decodes video with FFmpeg's libraries through
// go-astiav. It accepts any container and codec the linked FFmpeg knows.
package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

func init() {
	astiav.SetLogLevel(astiav.LogLevelError)
}

// Source implements ports.PacketSource over an astiav format context.
// Packets of every stream are returned; the caller filters by index.
type Source struct {
	path   string
	fc     *astiav.FormatContext
	stream *astiav.Stream
	desc   media.StreamDescriptor
	// ptsScale converts selected-stream timestamps into desc.Timescale units.
	ptsScale int64
}

// Open opens a container and reads its stream information.
func Open(path string) (*Source, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, fmt.Errorf("%w: failed to allocate format context", media.ErrOpen)
	}
	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, fmt.Errorf("%w: %s: %v", media.ErrOpen, path, err)
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, fmt.Errorf("%w: %s: find stream info: %v", media.ErrOpen, path, err)
	}
	return &Source{path: path, fc: fc}, nil
}

// SelectVideoStream picks the first video stream.
func (s *Source) SelectVideoStream() (media.StreamDescriptor, error) {
	if s.fc == nil {
		return media.StreamDescriptor{}, errors.New("libav: source closed")
	}
	if s.stream != nil {
		return s.desc, nil
	}

	for _, st := range s.fc.Streams() {
		params := st.CodecParameters()
		if params.MediaType() != astiav.MediaTypeVideo {
			continue
		}
		if params.Width() <= 0 || params.Height() <= 0 {
			return media.StreamDescriptor{}, fmt.Errorf("%w: video stream #%d has no dimensions",
				media.ErrNoVideoStream, st.Index())
		}
		scale, mul := timescale(st.TimeBase())
		s.stream = st
		s.ptsScale = mul
		s.desc = media.StreamDescriptor{
			Index:     st.Index(),
			Codec:     codecFromID(params.CodecID()),
			Format:    media.PixelFormatYUV420P,
			Width:     params.Width(),
			Height:    params.Height(),
			Timescale: scale,
		}
		return s.desc, nil
	}
	return media.StreamDescriptor{}, fmt.Errorf("%w: %s", media.ErrNoVideoStream, s.path)
}

// CodecParameters returns the parameters of the selected stream, or nil.
func (s *Source) CodecParameters() *astiav.CodecParameters {
	if s.stream == nil {
		return nil
	}
	return s.stream.CodecParameters()
}

// NextPacket reads the next packet of any stream. The astiav packet is
// carried in Packet.Native and freed on Release.
func (s *Source) NextPacket() (*media.Packet, error) {
	if s.fc == nil {
		return nil, io.EOF
	}

	pkt := astiav.AllocPacket()
	if err := s.fc.ReadFrame(pkt); err != nil {
		pkt.Free()
		if errors.Is(err, astiav.ErrEof) || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read packet: %w", err)
	}

	out := media.NewPacket(pkt.StreamIndex(), pkt.Data(), pkt.Free)
	out.PTS = pkt.Pts()
	if s.stream != nil && out.StreamIndex == s.stream.Index() && out.PTS != astiav.NoPtsValue {
		out.PTS *= s.ptsScale
	}
	out.Keyframe = pkt.Flags().Has(astiav.PacketFlagKey)
	out.Native = pkt
	return out, nil
}

// Close closes the container.
func (s *Source) Close() error {
	if s.fc == nil {
		return nil
	}
	s.fc.CloseInput()
	s.fc.Free()
	s.fc = nil
	s.stream = nil
	return nil
}

func codecFromID(id astiav.CodecID) media.Codec {
	switch id {
	case astiav.CodecIDH264:
		return media.CodecH264
	case astiav.CodecIDAv1:
		return media.CodecAV1
	case astiav.CodecIDHevc:
		return media.CodecHEVC
	default:
		return media.Codec(id.String())
	}
}

func codecID(codec media.Codec) (astiav.CodecID, bool) {
	switch codec {
	case media.CodecH264:
		return astiav.CodecIDH264, true
	case media.CodecAV1:
		return astiav.CodecIDAv1, true
	case media.CodecHEVC:
		return astiav.CodecIDHevc, true
	default:
		return 0, false
	}
}

// timescale converts a stream time base num/den into a timescale of den
// units per second and the factor that rescales timestamps into it.
func timescale(tb astiav.Rational) (uint32, int64) {
	if tb.Num() <= 0 || tb.Den() <= 0 {
		return 1000, 1
	}
	return uint32(tb.Den()), int64(tb.Num())
}

var _ ports.PacketSource = (*Source)(nil)
