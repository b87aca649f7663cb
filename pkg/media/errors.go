package media

import "errors"

var (
	// ErrOpen is returned when the input cannot be opened: missing or
	// unreadable file, or an unrecognized container format.
	ErrOpen = errors.New("media: cannot open input")

	// ErrNoVideoStream is returned when the container holds no video stream.
	ErrNoVideoStream = errors.New("media: no video stream")

	// ErrUnsupportedCodec is returned when no decoder exists for the stream's codec.
	ErrUnsupportedCodec = errors.New("media: unsupported codec")

	// ErrOpenCodec is returned when a decoder exists but cannot be opened.
	ErrOpenCodec = errors.New("media: cannot open codec")

	// ErrDecode marks the failure of a single packet. It is recoverable:
	// the pipeline skips the packet and continues.
	ErrDecode = errors.New("media: decode failed")

	// ErrNoFrame is returned by a decoder that needs more input before it
	// can complete a frame.
	ErrNoFrame = errors.New("media: no frame available")

	// ErrWrite is returned when a file sink cannot create or fully write a file.
	ErrWrite = errors.New("media: write failed")

	// ErrPresentation is returned when the presentation service fails.
	ErrPresentation = errors.New("media: presentation failed")

	// ErrStride is returned when a frame's planes are too small for its geometry.
	ErrStride = errors.New("media: invalid plane stride")
)
