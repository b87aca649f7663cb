package pipeline

import (
	"errors"
	"io"
	"iter"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// maxDecodeErrors is the longest run of consecutive failed receives Frames
// goes through before ending the sequence.
const maxDecodeErrors = 16

// Frames returns the frames the decoder can complete with the input it has
// received so far. The sequence ends quietly when the decoder needs more
// input or is fully drained. A failure wrapping media.ErrDecode is yielded
// and the sequence goes on with the next buffered frame; any other error
// is yielded once and ends it. Each frame is only valid until the next
// iteration.
func Frames(dec ports.FrameDecoder) iter.Seq2[*media.Frame, error] {
	return func(yield func(*media.Frame, error) bool) {
		failures := 0
		for {
			frame, err := dec.ReceiveFrame()
			if errors.Is(err, media.ErrNoFrame) || errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if !yield(nil, err) || !errors.Is(err, media.ErrDecode) {
					return
				}
				if failures++; failures >= maxDecodeErrors {
					return
				}
				continue
			}
			failures = 0
			if !yield(frame, nil) {
				return
			}
		}
	}
}
