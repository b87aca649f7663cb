package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/framegrab/pkg/media"
)

// normalizer copies decoded frames into a packed YUV420P media.Frame,
// converting other pixel formats with libswscale first.
type normalizer struct {
	ssc    *astiav.SoftwareScaleContext
	dst    *astiav.Frame
	srcW   int
	srcH   int
	srcPix astiav.PixelFormat

	buf   []byte
	frame *media.Frame
}

func (n *normalizer) close() {
	if n.dst != nil {
		n.dst.Free()
		n.dst = nil
	}
	if n.ssc != nil {
		n.ssc.Free()
		n.ssc = nil
	}
	n.buf = nil
	n.frame = nil
}

// ensureScaler prepares a scaler from the source geometry to YUV420P of
// the same size.
func (n *normalizer) ensureScaler(src *astiav.Frame) error {
	sw, sh, sp := src.Width(), src.Height(), src.PixelFormat()
	if n.ssc != nil && sw == n.srcW && sh == n.srcH && sp == n.srcPix {
		return nil
	}
	if n.dst != nil {
		n.dst.Free()
		n.dst = nil
	}
	if n.ssc != nil {
		n.ssc.Free()
		n.ssc = nil
	}

	ssc, err := astiav.CreateSoftwareScaleContext(
		sw, sh, sp,
		sw, sh, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("create scale context %dx%d %s: %w", sw, sh, sp, err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(sw)
	dst.SetHeight(sh)
	dst.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("allocate scaled frame: %w", err)
	}

	n.ssc, n.dst = ssc, dst
	n.srcW, n.srcH, n.srcPix = sw, sh, sp
	return nil
}

func (n *normalizer) normalize(src *astiav.Frame) (*media.Frame, error) {
	if src.PixelFormat() != astiav.PixelFormatYuv420P {
		if err := n.ensureScaler(src); err != nil {
			return nil, err
		}
		if err := n.ssc.ScaleFrame(src, n.dst); err != nil {
			return nil, fmt.Errorf("scale frame: %w", err)
		}
		src = n.dst
	}

	size := media.Size{Width: src.Width(), Height: src.Height()}
	need, err := src.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("image buffer size: %w", err)
	}
	if n.frame == nil || n.frame.Size() != size || len(n.buf) != need {
		n.buf = make([]byte, need)
		n.frame = packedFrame(n.buf, size)
	}
	if _, err := src.ImageCopyToBuffer(n.buf, 1); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	return n.frame, nil
}

// packedFrame views a contiguous yuv420p buffer as three planes without
// row padding.
func packedFrame(buf []byte, size media.Size) *media.Frame {
	f := &media.Frame{
		Format: media.PixelFormatYUV420P,
		Width:  size.Width,
		Height: size.Height,
		Planes: make([]media.Plane, 3),
	}
	offset := 0
	for i := range f.Planes {
		ps := media.PixelFormatYUV420P.PlaneSize(i, size)
		n := ps.Width * ps.Height
		f.Planes[i] = media.Plane{Data: buf[offset : offset+n], Stride: ps.Width}
		offset += n
	}
	return f
}
