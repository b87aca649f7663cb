// Package av1encoder encodes YUV420P frames into AV1 MP4 clips using libaom.
// It produces the short synthetic clips the decode tests run on.
package av1encoder

/*
#cgo !windows pkg-config: aom
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -laom -static -lpthread
#include <aom/aom_encoder.h>
#include <aom/aomcx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_interface() {
    return aom_codec_av1_cx();
}

// Wrapper for aom_codec_enc_init
static aom_codec_err_t init_encoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface,
                                     aom_codec_enc_cfg_t *cfg, aom_codec_flags_t flags) {
    return aom_codec_enc_init_ver(ctx, iface, cfg, flags, AOM_ENCODER_ABI_VERSION);
}

// Helper functions to access packet data
static int is_frame_packet(const aom_codec_cx_pkt_t *pkt) {
    return pkt->kind == AOM_CODEC_CX_FRAME_PKT;
}

static void* get_frame_buf(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.buf;
}

static size_t get_frame_sz(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.sz;
}

static int is_keyframe(const aom_codec_cx_pkt_t *pkt) {
    return (pkt->data.frame.flags & AOM_FRAME_IS_KEY) != 0;
}

static aom_codec_pts_t get_frame_pts(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.pts;
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_plane_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

// Wrapper for aom_codec_control (it's a variadic macro)
static aom_codec_err_t set_cpu_used(aom_codec_ctx_t *ctx, int value) {
    return aom_codec_control(ctx, AOME_SET_CPUUSED, value);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/user/framegrab/pkg/media"
)

// Options configures encoding.
type Options struct {
	// FPS is the clip frame rate. Zero means 25.
	FPS float64
	// Quality is the minimum quantizer: 0-63 (lower is higher quality).
	Quality int
	// KeyframeEvery forces a keyframe every n frames. Zero leaves
	// placement to the encoder after the first frame.
	KeyframeEvery int
}

// Encoder encodes frames with libaom and muxes them into a fragmented MP4.
type Encoder struct {
	mu sync.Mutex

	codec    *C.aom_codec_ctx_t
	cfg      *C.aom_codec_enc_cfg_t
	rawFrame *C.aom_image_t

	size    media.Size
	options Options

	frames     []encodedFrame
	frameCount int
}

type encodedFrame struct {
	data       []byte
	pts        int64
	isKeyframe bool
}

// New creates a new AV1 encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin initializes the encoder for frames of the given size.
func (e *Encoder) Begin(size media.Size, opts Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("invalid size %s", size)
	}
	if opts.FPS <= 0 {
		opts.FPS = 25
	}

	e.size = size
	e.options = opts
	e.frames = nil
	e.frameCount = 0

	// Allocate codec context
	e.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if e.codec == nil {
		return fmt.Errorf("failed to allocate codec context")
	}
	C.memset(unsafe.Pointer(e.codec), 0, C.sizeof_aom_codec_ctx_t)

	e.cfg = (*C.aom_codec_enc_cfg_t)(C.malloc(C.sizeof_aom_codec_enc_cfg_t))
	if e.cfg == nil {
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
		return fmt.Errorf("failed to allocate encoder config")
	}

	iface := C.get_av1_interface()

	if res := C.aom_codec_enc_config_default(iface, e.cfg, 0); res != C.AOM_CODEC_OK {
		e.free()
		return fmt.Errorf("failed to get default config: %d", res)
	}

	// One timebase unit per frame.
	e.cfg.g_w = C.uint(size.Width)
	e.cfg.g_h = C.uint(size.Height)
	e.cfg.g_timebase.num = 1
	e.cfg.g_timebase.den = C.int(opts.FPS)
	e.cfg.g_error_resilient = 0
	e.cfg.g_threads = 2
	e.cfg.g_usage = C.AOM_USAGE_REALTIME
	e.cfg.g_lag_in_frames = 0
	e.cfg.rc_target_bitrate = C.uint(size.Width * size.Height / 1000)
	if e.cfg.rc_target_bitrate == 0 {
		e.cfg.rc_target_bitrate = 100
	}

	e.cfg.rc_end_usage = C.AOM_CQ
	if opts.Quality > 0 && opts.Quality <= 63 {
		e.cfg.rc_min_quantizer = C.uint(opts.Quality)
		e.cfg.rc_max_quantizer = C.uint(min(opts.Quality+10, 63))
	}

	if res := C.init_encoder(e.codec, iface, e.cfg, 0); res != C.AOM_CODEC_OK {
		e.free()
		return fmt.Errorf("failed to initialize encoder: %d", res)
	}
	C.set_cpu_used(e.codec, 8)

	e.rawFrame = (*C.aom_image_t)(C.malloc(C.sizeof_aom_image_t))
	if e.rawFrame == nil {
		e.cleanup()
		return fmt.Errorf("failed to allocate raw frame")
	}
	if C.aom_img_alloc(e.rawFrame, C.AOM_IMG_FMT_I420, C.uint(size.Width), C.uint(size.Height), 32) == nil {
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
		e.cleanup()
		return fmt.Errorf("failed to allocate image buffer")
	}

	return nil
}

// EncodeFrame encodes one YUV420P frame of the configured size.
func (e *Encoder) EncodeFrame(frame *media.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return fmt.Errorf("encoder not initialized")
	}
	if frame.Format != media.PixelFormatYUV420P || frame.Size() != e.size {
		return fmt.Errorf("expected %s frame of %s, got %s of %s",
			media.PixelFormatYUV420P, e.size, frame.Format, frame.Size())
	}
	if err := frame.Validate(); err != nil {
		return err
	}

	e.copyPlanes(frame)

	flags := C.aom_enc_frame_flags_t(0)
	if e.frameCount == 0 || (e.options.KeyframeEvery > 0 && e.frameCount%e.options.KeyframeEvery == 0) {
		flags = C.AOM_EFLAG_FORCE_KF
	}

	res := C.aom_codec_encode(e.codec, e.rawFrame, C.aom_codec_pts_t(e.frameCount), 1, flags)
	if res != C.AOM_CODEC_OK {
		return fmt.Errorf("encoding failed: %d", res)
	}
	e.collect()

	e.frameCount++
	return nil
}

// End flushes the encoder and returns the MP4 data.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return nil, fmt.Errorf("encoder not initialized")
	}
	defer e.cleanup()

	if res := C.aom_codec_encode(e.codec, nil, 0, 1, 0); res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("flush failed: %d", res)
	}
	e.collect()

	mp4Data, err := e.buildMP4()
	if err != nil {
		return nil, fmt.Errorf("build mp4: %w", err)
	}
	return mp4Data, nil
}

// collect drains the encoder's output packets.
func (e *Encoder) collect() {
	var iter C.aom_codec_iter_t
	for {
		pkt := C.aom_codec_get_cx_data(e.codec, &iter)
		if pkt == nil {
			return
		}
		if C.is_frame_packet(pkt) == 0 {
			continue
		}
		e.frames = append(e.frames, encodedFrame{
			data:       C.GoBytes(C.get_frame_buf(pkt), C.int(C.get_frame_sz(pkt))),
			pts:        int64(C.get_frame_pts(pkt)),
			isKeyframe: C.is_keyframe(pkt) != 0,
		})
	}
}

func (e *Encoder) copyPlanes(frame *media.Frame) {
	for i := 0; i < 3; i++ {
		ps := media.PixelFormatYUV420P.PlaneSize(i, e.size)
		stride := int(C.get_plane_stride(e.rawFrame, C.int(i)))
		dst := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(e.rawFrame, C.int(i)))), stride*(ps.Height-1)+ps.Width)
		for y := 0; y < ps.Height; y++ {
			copy(dst[y*stride:], frame.Row(i, y))
		}
	}
}

func (e *Encoder) cleanup() {
	if e.rawFrame != nil {
		C.aom_img_free(e.rawFrame)
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
	}
	if e.codec != nil {
		C.aom_codec_destroy(e.codec)
	}
	e.free()
}

func (e *Encoder) free() {
	if e.codec != nil {
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
	}
	if e.cfg != nil {
		C.free(unsafe.Pointer(e.cfg))
		e.cfg = nil
	}
}

// Clip encodes frames into an MP4 clip in one call.
func Clip(frames []*media.Frame, opts Options) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to encode")
	}
	e := New()
	if err := e.Begin(frames[0].Size(), opts); err != nil {
		return nil, err
	}
	for i, f := range frames {
		if err := e.EncodeFrame(f); err != nil {
			e.mu.Lock()
			e.cleanup()
			e.mu.Unlock()
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return e.End()
}
