// Package mp4source reads video packets from ISO-BMFF (MP4) files.
package mp4source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framegrab/pkg/adapters/codecdetect"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Source is a ports.PacketSource over a progressive or fragmented MP4 file.
// H.264 samples are delivered in Annex B form with the parameter sets
// prepended to sync samples; other codecs are delivered as stored.
type Source struct {
	reader io.ReadSeeker
	closer io.Closer
	file   *mp4.File

	track    codecdetect.Track
	desc     media.StreamDescriptor
	selected bool
	// paramSets holds SPS and PPS in Annex B form.
	paramSets []byte

	next func() (sample, error)
}

// sample is one stored access unit.
type sample struct {
	data       []byte
	decodeTime uint64
	sync       bool
}

// Open opens an MP4 file. Unreadable files and data that is not ISO-BMFF
// fail with media.ErrOpen.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrOpen, err)
	}
	s, err := newSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", media.ErrOpen, path, err)
	}
	s.closer = f
	return s, nil
}

// OpenBytes opens MP4 data held in memory.
func OpenBytes(data []byte) (*Source, error) {
	s, err := newSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrOpen, err)
	}
	return s, nil
}

func newSource(reader io.ReadSeeker) (*Source, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if codecdetect.Moov(mp4File) == nil {
		return nil, errors.New("not an ISO-BMFF movie")
	}
	return &Source{reader: reader, file: mp4File}, nil
}

// SelectVideoStream picks the first video track and prepares the sample
// cursor. Selecting again returns the same descriptor.
func (s *Source) SelectVideoStream() (media.StreamDescriptor, error) {
	if s.selected {
		return s.desc, nil
	}
	track, err := codecdetect.FindVideoTrack(s.file)
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	if track.Width <= 0 || track.Height <= 0 {
		return media.StreamDescriptor{}, fmt.Errorf("%w: video track has no dimensions", media.ErrNoVideoStream)
	}

	s.track = track
	s.desc = media.StreamDescriptor{
		Index:     track.Index,
		Codec:     track.Codec,
		Format:    media.PixelFormatYUV420P,
		Width:     track.Width,
		Height:    track.Height,
		Timescale: track.Timescale,
	}
	if track.Entry != nil && track.Entry.AvcC != nil {
		s.paramSets = annexBParamSets(track.Entry.AvcC)
	}

	if s.file.IsFragmented() {
		s.next, err = s.fragmentedCursor()
	} else {
		s.next, err = s.progressiveCursor()
	}
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	s.selected = true
	return s.desc, nil
}

// NextPacket returns the next sample of the selected track, or io.EOF.
func (s *Source) NextPacket() (*media.Packet, error) {
	if !s.selected {
		return nil, errors.New("mp4source: no stream selected")
	}
	smp, err := s.next()
	if err != nil {
		return nil, err
	}

	data := smp.data
	if s.desc.Codec == media.CodecH264 {
		data = avccToAnnexB(data)
		if smp.sync {
			data = append(append([]byte{}, s.paramSets...), data...)
		}
	}

	pkt := media.NewPacket(s.desc.Index, data, nil)
	pkt.PTS = int64(smp.decodeTime)
	pkt.Keyframe = smp.sync
	return pkt, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	s.next = func() (sample, error) { return sample{}, io.EOF }
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// fragmentedCursor walks the track's samples fragment by fragment.
func (s *Source) fragmentedCursor() (func() (sample, error), error) {
	trackID := s.track.Trak.Tkhd.TrackID
	var trex *mp4.TrexBox
	if moov := codecdetect.Moov(s.file); moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var frags []*mp4.Fragment
	for _, seg := range s.file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof != nil {
				frags = append(frags, frag)
			}
		}
	}

	var pending []mp4.FullSample
	first := true
	return func() (sample, error) {
		for len(pending) == 0 {
			if len(frags) == 0 {
				return sample{}, io.EOF
			}
			frag := frags[0]
			frags = frags[1:]
			if !fragmentHasTrack(frag, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return sample{}, fmt.Errorf("get samples: %w", err)
			}
			pending = samples
		}
		fs := pending[0]
		pending = pending[1:]
		smp := sample{
			data:       fs.Data,
			decodeTime: fs.DecodeTime,
			sync:       first || !mp4.DecodeSampleFlags(fs.Flags).SampleIsNonSync,
		}
		first = false
		return smp, nil
	}, nil
}

func fragmentHasTrack(frag *mp4.Fragment, trackID uint32) bool {
	for _, traf := range frag.Moof.Trafs {
		if traf.Tfhd != nil && traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

// progressiveCursor reads samples through the sample table on demand.
func (s *Source) progressiveCursor() (func() (sample, error), error) {
	trak := s.track.Trak
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
		return nil, fmt.Errorf("%w: no sample table found", media.ErrNoVideoStream)
	}
	stbl := trak.Mdia.Minf.Stbl
	count := stbl.Stsz.SampleNumber

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	nr := uint32(1)
	return func() (sample, error) {
		if nr > count {
			return sample{}, io.EOF
		}
		cur := nr
		nr++

		data, err := readSample(stbl, s.reader, cur)
		if err != nil {
			return sample{}, fmt.Errorf("sample %d: %w", cur, err)
		}
		var decodeTime uint64
		if stbl.Stts != nil {
			decodeTime, _ = stbl.Stts.GetDecodeTime(cur)
		}
		return sample{
			data:       data,
			decodeTime: decodeTime,
			sync:       len(syncSamples) == 0 || syncSamples[cur],
		}, nil
	}, nil
}

// readSample reads sample data from a progressive MP4 file
func readSample(stbl *mp4.StblBox, reader io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return nil, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for nr := uint32(firstSampleInChunk); nr < sampleNr; nr++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(nr)))
	}

	if _, err := reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(sampleNr)))
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

var _ ports.PacketSource = (*Source)(nil)
