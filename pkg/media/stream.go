package media

import "sync"

// Codec identifies a video compression format.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecAV1     Codec = "av1"
	CodecHEVC    Codec = "hevc"
	CodecUnknown Codec = "unknown"
)

// StreamDescriptor describes the selected video stream. It is fixed once the
// stream has been selected.
type StreamDescriptor struct {
	// Index is the stream index packets of this stream carry.
	Index int
	// Codec is the compression format. Backends that know more codecs than
	// the named constants report the codec's own short name.
	Codec Codec
	// Format is the pixel format the decoder produces.
	Format PixelFormat
	Width  int
	Height int
	// Timescale is the number of time units per second for packet timestamps.
	Timescale uint32
}

// Size returns the stream dimensions.
func (d StreamDescriptor) Size() Size {
	return Size{Width: d.Width, Height: d.Height}
}

// Strides returns the minimum row stride of each plane for frames of this stream.
func (d StreamDescriptor) Strides() []int {
	strides := make([]int, d.Format.PlaneCount())
	for i := range strides {
		strides[i] = d.Format.PlaneSize(i, d.Size()).Width * d.Format.BytesPerSample(i)
	}
	return strides
}

// Packet is a unit of compressed data belonging to one stream.
// The pipeline owns a packet for one loop iteration and must call Release
// once it is done with it, whether decoding succeeded or not.
type Packet struct {
	StreamIndex int
	Data        []byte
	// PTS is the presentation timestamp in stream timescale units.
	PTS      int64
	Keyframe bool
	// Native carries the backend's own packet handle, for decoders of the
	// same backend. Nil for backends that only produce Data.
	Native any

	once    sync.Once
	release func()
}

// NewPacket creates a packet whose release hook runs once on Release.
func NewPacket(streamIndex int, data []byte, release func()) *Packet {
	return &Packet{
		StreamIndex: streamIndex,
		Data:        data,
		release:     release,
	}
}

// Release frees the packet's resources. Calling it more than once is safe.
func (p *Packet) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
		p.Data = nil
		p.Native = nil
	})
}
