package mocks

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// MP4 describes a synthetic fragmented MP4 file with one video track.
// Sample payloads are stored as given; they need not be decodable.
type MP4 struct {
	// SampleEntry is the stsd entry type: "av01" (default), "avc1" or "hvc1".
	SampleEntry string
	Width       int
	Height      int
	Timescale   uint32
	Samples     [][]byte
	// SyncEvery marks every n-th sample as a sync sample, starting with
	// the first. Zero marks only the first.
	SyncEvery int
	// ExtraFlags is ORed into every fragment sample's flags.
	ExtraFlags uint32
	// SPS and PPS populate the avcC box of an avc1 entry.
	SPS []byte
	PPS []byte
	// NoVideo replaces the video track with an audio-only track.
	NoVideo bool
}

// Bytes encodes the file.
func (m MP4) Bytes() ([]byte, error) {
	timescale := m.Timescale
	if timescale == 0 {
		timescale = 1000
	}
	entry := m.SampleEntry
	if entry == "" {
		entry = "av01"
	}

	init := mp4.CreateEmptyInit()
	if m.NoVideo {
		init.AddEmptyTrack(48000, "audio", "en")
	} else {
		init.AddEmptyTrack(timescale, "video", "en")
		trak := init.Moov.Trak

		var child mp4.Box
		switch entry {
		case "av01":
			child = &mp4.Av1CBox{CodecConfRec: av1.CodecConfRec{
				Version:            1,
				ChromaSubsamplingX: 1,
				ChromaSubsamplingY: 1,
			}}
		case "avc1", "avc3":
			// Baseline profile records carry no trailing chroma info, so
			// the parameter sets are stored without being parsed.
			child = &mp4.AvcCBox{DecConfRec: avc.DecConfRec{
				AVCProfileIndication: 66,
				ProfileCompatibility: 0xc0,
				AVCLevelIndication:   30,
				SPSnalus:             [][]byte{m.SPS},
				PPSnalus:             [][]byte{m.PPS},
				NoTrailingInfo:       true,
			}}
		}
		vse := mp4.CreateVisualSampleEntryBox(entry, uint16(m.Width), uint16(m.Height), child)
		trak.Mdia.Minf.Stbl.Stsd.AddChild(vse)
		trak.Tkhd.Width = mp4.Fixed32(m.Width << 16)
		trak.Tkhd.Height = mp4.Fixed32(m.Height << 16)
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", entry, "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if len(m.Samples) == 0 {
		return buf.Bytes(), nil
	}

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}
	dur := timescale / 25
	for i, data := range m.Samples {
		flags := mp4.NonSyncSampleFlags
		if i == 0 || (m.SyncEvery > 0 && i%m.SyncEvery == 0) {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags | m.ExtraFlags,
				Size:  uint32(len(data)),
				Dur:   dur,
			},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       data,
		})
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}
