package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Decoder implements ports.FrameDecoder over an astiav codec context.
// Decoded frames are normalized to YUV420P.
type Decoder struct {
	cc      *astiav.CodecContext
	decoded *astiav.Frame
	scratch *astiav.Packet
	norm    normalizer
	flushed bool
}

// NewDecoder opens a decoder for the selected stream of src.
func NewDecoder(src *Source) (*Decoder, error) {
	params := src.CodecParameters()
	if params == nil {
		return nil, fmt.Errorf("%w: no stream selected", media.ErrOpenCodec)
	}
	return open(params.CodecID(), func(cc *astiav.CodecContext) error {
		return params.ToCodecContext(cc)
	})
}

// NewDecoderFor opens a decoder from a stream descriptor alone. Packets
// must carry self-contained data: Annex B for H.264 and HEVC, OBUs for AV1.
func NewDecoderFor(desc media.StreamDescriptor) (*Decoder, error) {
	id, ok := codecID(desc.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrUnsupportedCodec, desc.Codec)
	}
	return open(id, func(cc *astiav.CodecContext) error {
		cc.SetWidth(desc.Width)
		cc.SetHeight(desc.Height)
		return nil
	})
}

func open(id astiav.CodecID, configure func(*astiav.CodecContext) error) (*Decoder, error) {
	codec := astiav.FindDecoder(id)
	if codec == nil {
		return nil, fmt.Errorf("%w: no decoder for %s", media.ErrUnsupportedCodec, id)
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, fmt.Errorf("%w: failed to allocate codec context", media.ErrOpenCodec)
	}
	if err := configure(cc); err != nil {
		cc.Free()
		return nil, fmt.Errorf("%w: %v", media.ErrOpenCodec, err)
	}
	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("%w: %s: %v", media.ErrOpenCodec, codec.Name(), err)
	}
	return &Decoder{
		cc:      cc,
		decoded: astiav.AllocFrame(),
		scratch: astiav.AllocPacket(),
	}, nil
}

// SendPacket feeds one packet. Packets read by a libav Source are passed
// through; others are copied into a scratch packet.
func (d *Decoder) SendPacket(pkt *media.Packet) error {
	if d.cc == nil {
		return errors.New("libav: decoder closed")
	}
	if d.flushed {
		return errors.New("libav: packet sent after flush")
	}

	native, ok := pkt.Native.(*astiav.Packet)
	if !ok {
		if len(pkt.Data) == 0 {
			return fmt.Errorf("%w: empty packet", media.ErrDecode)
		}
		d.scratch.Unref()
		if err := d.scratch.FromData(pkt.Data); err != nil {
			return fmt.Errorf("%w: %v", media.ErrDecode, err)
		}
		d.scratch.SetPts(pkt.PTS)
		native = d.scratch
	}

	if err := d.cc.SendPacket(native); err != nil {
		return fmt.Errorf("%w: %v", media.ErrDecode, err)
	}
	return nil
}

// ReceiveFrame returns the next decoded frame in YUV420P.
func (d *Decoder) ReceiveFrame() (*media.Frame, error) {
	if d.cc == nil {
		return nil, errors.New("libav: decoder closed")
	}

	d.decoded.Unref()
	if err := d.cc.ReceiveFrame(d.decoded); err != nil {
		switch {
		case errors.Is(err, astiav.ErrEagain):
			return nil, media.ErrNoFrame
		case errors.Is(err, astiav.ErrEof):
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("%w: %v", media.ErrDecode, err)
		}
	}

	frame, err := d.norm.normalize(d.decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrDecode, err)
	}
	return frame, nil
}

// Flush enters draining mode.
func (d *Decoder) Flush() error {
	if d.cc == nil {
		return errors.New("libav: decoder closed")
	}
	if d.flushed {
		return nil
	}
	d.flushed = true
	if err := d.cc.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return fmt.Errorf("flush decoder: %w", err)
	}
	return nil
}

// Close frees the codec context and frame buffers.
func (d *Decoder) Close() error {
	if d.cc == nil {
		return nil
	}
	d.norm.close()
	d.decoded.Free()
	d.scratch.Free()
	d.cc.Free()
	d.cc = nil
	return nil
}

var _ ports.FrameDecoder = (*Decoder)(nil)
