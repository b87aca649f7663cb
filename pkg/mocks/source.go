// Package mocks provides fake implementations of the ports for tests.
package mocks

import (
	"fmt"
	"io"
	"slices"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// corruptMarker in a packet's first byte makes the fake decoder reject it.
const corruptMarker = 0xFF

// VideoPacket returns packet data that makes the fake decoder complete n frames.
func VideoPacket(n int) []byte {
	return []byte{byte(n)}
}

// CorruptPacket returns packet data the fake decoder fails to decode.
func CorruptPacket() []byte {
	return []byte{corruptMarker}
}

// ScriptedPacket is one packet a PacketSource will yield.
type ScriptedPacket struct {
	StreamIndex int
	Data        []byte
}

// PacketSource is a mock implementation of ports.PacketSource that yields
// a fixed script of packets.
type PacketSource struct {
	Descriptor media.StreamDescriptor
	Packets    []ScriptedPacket

	SelectErr error
	// ReadErr is returned once ReadErrAt packets have been read.
	ReadErr   error
	ReadErrAt int

	// Recorded calls for verification
	Reads    int
	Released int
	Closed   int
}

// NewPacketSource creates a source for a YUV420P stream of the given size.
func NewPacketSource(width, height int, packets ...ScriptedPacket) *PacketSource {
	return &PacketSource{
		Descriptor: media.StreamDescriptor{
			Index:     0,
			Codec:     media.CodecH264,
			Format:    media.PixelFormatYUV420P,
			Width:     width,
			Height:    height,
			Timescale: 1000,
		},
		Packets:   packets,
		ReadErrAt: -1,
	}
}

// Video builds a packet on stream 0 completing n frames.
func Video(n int) ScriptedPacket {
	return ScriptedPacket{StreamIndex: 0, Data: VideoPacket(n)}
}

// Corrupt builds a packet on stream 0 that fails to decode.
func Corrupt() ScriptedPacket {
	return ScriptedPacket{StreamIndex: 0, Data: CorruptPacket()}
}

// Foreign builds a packet on another stream.
func Foreign() ScriptedPacket {
	return ScriptedPacket{StreamIndex: 1, Data: VideoPacket(1)}
}

func (m *PacketSource) SelectVideoStream() (media.StreamDescriptor, error) {
	if m.SelectErr != nil {
		return media.StreamDescriptor{}, m.SelectErr
	}
	return m.Descriptor, nil
}

func (m *PacketSource) NextPacket() (*media.Packet, error) {
	if m.Reads == m.ReadErrAt && m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.Reads >= len(m.Packets) {
		return nil, io.EOF
	}
	sp := m.Packets[m.Reads]
	m.Reads++

	pkt := media.NewPacket(sp.StreamIndex, sp.Data, func() { m.Released++ })
	pkt.PTS = int64(m.Reads - 1)
	return pkt, nil
}

func (m *PacketSource) Close() error {
	m.Closed++
	return nil
}

// Outstanding returns the number of packets read but not released.
func (m *PacketSource) Outstanding() int {
	return m.Reads - m.Released
}

var _ ports.PacketSource = (*PacketSource)(nil)

// FrameDecoder is a mock implementation of ports.FrameDecoder. Each packet
// carries the number of frames it completes; HoldBack frames stay buffered
// until Flush, emulating reordering delay.
type FrameDecoder struct {
	Width    int
	Height   int
	HoldBack int
	// CorruptFrames lists production sequence numbers that ReceiveFrame
	// consumes and reports as ErrDecode instead of returning.
	CorruptFrames []int

	// Recorded calls for verification
	Sent     int
	Received int
	Flushed  bool
	Closed   int

	pending  int
	produced int
	frame    *media.Frame
}

// NewFrameDecoder creates a fake decoder producing YUV420P frames.
func NewFrameDecoder(width, height int) *FrameDecoder {
	return &FrameDecoder{Width: width, Height: height}
}

func (m *FrameDecoder) SendPacket(pkt *media.Packet) error {
	m.Sent++
	if len(pkt.Data) == 0 || pkt.Data[0] == corruptMarker {
		return fmt.Errorf("%w: corrupt packet", media.ErrDecode)
	}
	m.pending += int(pkt.Data[0])
	return nil
}

// ReceiveFrame returns a frame whose luma samples all equal the frame's
// production sequence number, starting at 1.
func (m *FrameDecoder) ReceiveFrame() (*media.Frame, error) {
	available := m.pending
	if !m.Flushed {
		available -= m.HoldBack
	}
	if available <= 0 {
		if m.Flushed {
			return nil, io.EOF
		}
		return nil, media.ErrNoFrame
	}

	if m.frame == nil {
		m.frame = media.NewFrame(media.PixelFormatYUV420P, media.Size{Width: m.Width, Height: m.Height})
	}
	m.pending--
	m.produced++
	if slices.Contains(m.CorruptFrames, m.produced) {
		return nil, fmt.Errorf("%w: corrupt frame %d", media.ErrDecode, m.produced)
	}
	m.Received++

	for i := range m.frame.Planes {
		fill := byte(128)
		if i == 0 {
			fill = byte(m.produced)
		}
		for j := range m.frame.Planes[i].Data {
			m.frame.Planes[i].Data[j] = fill
		}
	}
	return m.frame, nil
}

func (m *FrameDecoder) Flush() error {
	m.Flushed = true
	return nil
}

func (m *FrameDecoder) Close() error {
	m.Closed++
	return nil
}

var _ ports.FrameDecoder = (*FrameDecoder)(nil)
