// Package av1decoder provides an AV1 video decoder using libaom.
package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

// Wrapper for aom_codec_dec_init
static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

// Get image plane data
static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}

static int is_i420(aom_image_t *img) {
    return img->fmt == AOM_IMG_FMT_I420;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Decoder implements ports.FrameDecoder for AV1 using libaom.
// One temporal unit may complete several frames; they are pulled through
// the decoder's frame iterator until it is exhausted.
type Decoder struct {
	codec *C.aom_codec_ctx_t
	iter  C.aom_codec_iter_t
	frame *media.Frame

	flushed bool
}

// New creates and initializes an AV1 decoder.
func New() (*Decoder, error) {
	codec := (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if codec == nil {
		return nil, fmt.Errorf("%w: failed to allocate decoder context", media.ErrOpenCodec)
	}
	C.memset(unsafe.Pointer(codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(codec))
		return nil, fmt.Errorf("%w: failed to initialize decoder: %d", media.ErrOpenCodec, res)
	}

	return &Decoder{codec: codec}, nil
}

// SendPacket decodes one temporal unit.
func (d *Decoder) SendPacket(pkt *media.Packet) error {
	if d.codec == nil {
		return errors.New("av1decoder: decoder closed")
	}
	if d.flushed {
		return errors.New("av1decoder: packet sent after flush")
	}
	if len(pkt.Data) == 0 {
		return fmt.Errorf("%w: empty packet", media.ErrDecode)
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	d.iter = nil
	if res != C.AOM_CODEC_OK {
		return fmt.Errorf("%w: aom error %d: %s", media.ErrDecode, res, C.GoString(C.aom_codec_error(d.codec)))
	}
	return nil
}

// ReceiveFrame copies the next decoded image into the decoder's frame.
func (d *Decoder) ReceiveFrame() (*media.Frame, error) {
	if d.codec == nil {
		return nil, errors.New("av1decoder: decoder closed")
	}

	img := C.aom_codec_get_frame(d.codec, &d.iter)
	if img == nil {
		if d.flushed {
			return nil, io.EOF
		}
		return nil, media.ErrNoFrame
	}
	if C.is_i420(img) == 0 {
		return nil, fmt.Errorf("%w: only 8-bit 4:2:0 output is supported", media.ErrDecode)
	}

	size := media.Size{Width: int(C.get_width(img)), Height: int(C.get_height(img))}
	if d.frame == nil || d.frame.Size() != size {
		d.frame = media.NewFrame(media.PixelFormatYUV420P, size)
	}

	for i := 0; i < 3; i++ {
		ps := media.PixelFormatYUV420P.PlaneSize(i, size)
		stride := int(C.get_stride(img, C.int(i)))
		src := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(img, C.int(i)))), stride*(ps.Height-1)+ps.Width)
		for y := 0; y < ps.Height; y++ {
			copy(d.frame.Row(i, y), src[y*stride:])
		}
	}
	return d.frame, nil
}

// Flush signals the end of the stream so buffered frames are output.
func (d *Decoder) Flush() error {
	if d.codec == nil {
		return errors.New("av1decoder: decoder closed")
	}
	if d.flushed {
		return nil
	}
	if res := C.aom_codec_decode(d.codec, nil, 0, nil); res != C.AOM_CODEC_OK {
		return fmt.Errorf("flush failed: %d", res)
	}
	d.iter = nil
	d.flushed = true
	return nil
}

// Close releases decoder resources.
func (d *Decoder) Close() error {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
	d.frame = nil
	return nil
}

var _ ports.FrameDecoder = (*Decoder)(nil)
