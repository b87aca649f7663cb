// Package ports defines interfaces for external dependencies.
package ports

import (
	"github.com/user/framegrab/pkg/media"
)

// PacketSource abstracts a demultiplexed media container.
// It is not safe for concurrent use: reads advance a single cursor.
type PacketSource interface {
	// SelectVideoStream identifies the best video stream and describes it.
	// Returns an error wrapping media.ErrNoVideoStream when there is none.
	SelectVideoStream() (media.StreamDescriptor, error)

	// NextPacket returns the next packet in stream order, or io.EOF at the
	// end of the container. The caller owns the packet and must Release it.
	NextPacket() (*media.Packet, error)

	// Close releases the container handle.
	Close() error
}

// FrameDecoder abstracts a stream-specific video decoder.
// Packets are pushed with SendPacket and frames pulled with ReceiveFrame;
// one packet may complete zero, one or several frames.
type FrameDecoder interface {
	// SendPacket feeds one packet. A failure wrapping media.ErrDecode only
	// concerns this packet; the decoder stays usable.
	SendPacket(pkt *media.Packet) error

	// ReceiveFrame returns the next completed frame. It returns
	// media.ErrNoFrame when more input is needed and io.EOF once the decoder
	// has been flushed and drained. The frame is owned by the decoder and is
	// overwritten by the next call.
	ReceiveFrame() (*media.Frame, error)

	// Flush signals the end of input so buffered frames can be drained.
	Flush() error

	// Close releases decoder resources.
	Close() error
}
