package media

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names a source/decoder family.
type Backend string

const (
	// BackendAuto uses the native backend for ISO-BMFF files with a codec
	// it decodes, and libav for everything else.
	BackendAuto Backend = "auto"
	// BackendNative demuxes with mp4ff and decodes H.264 with ffmpeg and
	// AV1 with libaom.
	BackendNative Backend = "native"
	// BackendLibav demuxes and decodes with FFmpeg's libraries.
	BackendLibav Backend = "libav"
)

// ErrUnsupportedBackend is returned for unknown backend names.
var ErrUnsupportedBackend = errors.New("media: unsupported backend")

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendNative, BackendLibav:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
	}
}
