package av1encoder

import (
	"bytes"
	"errors"
	"io"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

const (
	// ticksPerFrame is the sample duration in track timescale units.
	ticksPerFrame = 1000
	trackID       = 1

	obuSequenceHeader = 1
)

// buildMP4 wraps the encoded temporal units in a single-fragment MP4 with
// one av01 track.
func (e *Encoder) buildMP4() ([]byte, error) {
	if len(e.frames) == 0 {
		return nil, errors.New("no frames to encode")
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(uint32(e.options.FPS*ticksPerFrame), "video", "en")
	trak := init.Moov.Trak
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox(
		"av01", uint16(e.size.Width), uint16(e.size.Height), av1Config(e.frames)))
	trak.Tkhd.Width = mp4.Fixed32(e.size.Width << 16)
	trak.Tkhd.Height = mp4.Fixed32(e.size.Height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, err
	}
	for _, f := range e.frames {
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: sampleFlags(f.isKeyframe),
				Size:  uint32(len(f.data)),
				Dur:   ticksPerFrame,
			},
			DecodeTime: uint64(f.pts) * ticksPerFrame,
			Data:       f.data,
		})
	}

	var buf bytes.Buffer
	boxes := []interface{ Encode(io.Writer) error }{
		mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "av01", "mp41"}),
		init.Moov,
		frag,
	}
	for _, box := range boxes {
		if err := box.Encode(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func sampleFlags(key bool) uint32 {
	if key {
		return mp4.SyncSampleFlags
	}
	return mp4.NonSyncSampleFlags
}

// av1Config describes 8-bit 4:2:0 main profile at level 4.0 and carries the
// sequence header of the first keyframe.
func av1Config(frames []encodedFrame) *mp4.Av1CBox {
	var seqHdr []byte
	for _, f := range frames {
		if f.isKeyframe {
			if seqHdr = extractSequenceHeader(f.data); seqHdr != nil {
				break
			}
		}
	}
	return &mp4.Av1CBox{CodecConfRec: av1.CodecConfRec{
		Version:            1,
		SeqLevelIdx0:       8,
		ChromaSubsamplingX: 1,
		ChromaSubsamplingY: 1,
		ConfigOBUs:         seqHdr,
	}}
}

// extractSequenceHeader returns the first sequence header OBU of an AV1
// temporal unit, header included, or nil.
func extractSequenceHeader(data []byte) []byte {
	for pos := 0; pos < len(data); {
		start := pos
		header := data[pos]
		pos++
		if header&0x04 != 0 {
			pos++
		}

		size := len(data) - pos
		if header&0x02 != 0 {
			size, pos = readLeb128(data, pos)
		}
		end := min(pos+size, len(data))

		if header>>3&0x0F == obuSequenceHeader {
			return data[start:end]
		}
		pos = end
	}
	return nil
}

// readLeb128 decodes an unsigned LEB128 value of at most 8 bytes at offset
// and returns it with the offset past it.
func readLeb128(data []byte, offset int) (int, int) {
	value := 0
	for i := 0; i < 8 && offset < len(data); i++ {
		b := data[offset]
		offset++
		value |= int(b&0x7F) << (7 * i)
		if b < 0x80 {
			break
		}
	}
	return value, offset
}
