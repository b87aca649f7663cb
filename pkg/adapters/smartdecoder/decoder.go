// Package smartdecoder selects the packet source and frame decoder for an
// input: the native backend (mp4ff demuxing with ffmpeg or libaom
// decoding) or libav.
package smartdecoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/framegrab/pkg/adapters/av1decoder"
	"github.com/user/framegrab/pkg/adapters/codecdetect"
	"github.com/user/framegrab/pkg/adapters/h264decoder"
	"github.com/user/framegrab/pkg/adapters/libav"
	"github.com/user/framegrab/pkg/adapters/mp4source"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// isoExtensions are the file extensions the native demuxer reads.
var isoExtensions = map[string]bool{".mp4": true, ".m4v": true, ".mov": true}

// Options configures the selection.
type Options struct {
	Backend media.Backend
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
}

// Info describes the selected backend.
type Info struct {
	Backend media.Backend
	// Decoder is the decoding implementation: ffmpeg, libaom or libav.
	Decoder string
	Codec   media.Codec
}

// Selector opens sources and decoders for one pipeline run at a time.
// Its methods fit orchestrator.SourceOpener and orchestrator.DecoderOpener.
type Selector struct {
	opts   Options
	logger ports.Logger

	source ports.PacketSource
	info   Info
}

// New creates a Selector.
func New(opts Options, logger ports.Logger) (*Selector, error) {
	backend, err := media.ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend
	return &Selector{opts: opts, logger: logger}, nil
}

// Info returns what the last OpenSource and NewDecoder calls selected.
func (s *Selector) Info() Info {
	return s.info
}

// OpenSource opens path with the configured backend.
func (s *Selector) OpenSource(path string) (ports.PacketSource, error) {
	backend := s.resolve(path)
	s.info = Info{Backend: backend}
	s.logger.Debug("Using %s backend for %s", backend, path)

	var (
		src ports.PacketSource
		err error
	)
	if backend == media.BackendLibav {
		src, err = libav.Open(path)
	} else {
		src, err = mp4source.Open(path)
	}
	if err != nil {
		return nil, err
	}
	s.source = src
	return src, nil
}

// resolve picks the backend for path.
func (s *Selector) resolve(path string) media.Backend {
	if s.opts.Backend != media.BackendAuto {
		return s.opts.Backend
	}
	if !isoExtensions[strings.ToLower(filepath.Ext(path))] {
		return media.BackendLibav
	}
	codec, err := codecdetect.DetectFromFile(path)
	if err != nil {
		s.logger.Debug("Codec detection failed: %s", err)
		return media.BackendLibav
	}
	switch codec {
	case media.CodecH264, media.CodecAV1:
		return media.BackendNative
	default:
		return media.BackendLibav
	}
}

// NewDecoder opens a decoder for the stream selected from the last source.
//
// The selection flow:
//   - libav source: libav decoder using the stream's codec parameters
//   - AV1: libaom decoder
//   - H.264: ffmpeg decoder
func (s *Selector) NewDecoder(desc media.StreamDescriptor) (ports.FrameDecoder, error) {
	s.info.Codec = desc.Codec

	var (
		dec ports.FrameDecoder
		err error
	)
	if src, ok := s.source.(*libav.Source); ok {
		s.info.Decoder = "libav"
		dec, err = wrap(libav.NewDecoder(src))
	} else {
		switch desc.Codec {
		case media.CodecAV1:
			s.info.Decoder = "libaom"
			dec, err = wrap(av1decoder.New())
		case media.CodecH264:
			s.info.Decoder = "ffmpeg"
			dec, err = wrap(h264decoder.New(desc, h264decoder.Options{
				FFmpegPath: s.opts.FFmpegPath,
				Logger:     s.logger.WithComponent("h264decoder"),
			}))
		default:
			return nil, fmt.Errorf("%w: %s", media.ErrUnsupportedCodec, desc.Codec)
		}
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Using %s decoder for %s", s.info.Decoder, desc.Codec)
	return dec, nil
}

// wrap keeps a failed constructor from returning a typed nil decoder.
func wrap[D ports.FrameDecoder](dec D, err error) (ports.FrameDecoder, error) {
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// IsH264Available checks if native H.264 decoding is available.
func IsH264Available(ffmpegPath string) bool {
	return h264decoder.IsAvailable(ffmpegPath)
}
