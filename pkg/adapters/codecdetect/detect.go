// Package codecdetect identifies the video track of ISO-BMFF files.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framegrab/pkg/media"
)

// Track describes the first video track of a file.
type Track struct {
	Trak *mp4.TrakBox
	// Index is the position of the track in the moov box.
	Index int
	Codec media.Codec
	// Entry is the visual sample entry of the track, if any.
	Entry     *mp4.VisualSampleEntryBox
	Width     int
	Height    int
	Timescale uint32
}

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (media.Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return media.CodecUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker and
// rewinds it.
func DetectFromReader(reader io.ReadSeeker) (media.Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return media.CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return media.CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	track, err := FindVideoTrack(mp4File)
	if err != nil {
		return media.CodecUnknown, err
	}
	return track.Codec, nil
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (media.Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// Moov returns the movie box of a progressive or fragmented file.
func Moov(mp4File *mp4.File) *mp4.MoovBox {
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		return mp4File.Init.Moov
	}
	return mp4File.Moov
}

// FindVideoTrack returns the first track with a video handler.
// Tracks with unrecognized sample entries are reported with CodecUnknown.
func FindVideoTrack(mp4File *mp4.File) (Track, error) {
	moov := Moov(mp4File)
	if moov == nil {
		return Track{}, fmt.Errorf("%w: no moov box", media.ErrNoVideoStream)
	}

	for i, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}

		track := Track{Trak: trak, Index: i, Codec: media.CodecUnknown, Timescale: 1000}
		if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
			track.Timescale = trak.Mdia.Mdhd.Timescale
		}
		if trak.Tkhd != nil {
			track.Width = int(trak.Tkhd.Width >> 16)
			track.Height = int(trak.Tkhd.Height >> 16)
		}

		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
				codec := codecFromEntry(child.Type())
				if codec == media.CodecUnknown {
					continue
				}
				track.Codec = codec
				if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
					track.Entry = vse
					if vse.Width > 0 && vse.Height > 0 {
						track.Width = int(vse.Width)
						track.Height = int(vse.Height)
					}
				}
				break
			}
		}
		return track, nil
	}

	return Track{}, fmt.Errorf("%w: no video track found", media.ErrNoVideoStream)
}

func codecFromEntry(boxType string) media.Codec {
	switch boxType {
	case "avc1", "avc3":
		return media.CodecH264
	case "av01":
		return media.CodecAV1
	case "hvc1", "hev1":
		return media.CodecHEVC
	default:
		return media.CodecUnknown
	}
}
