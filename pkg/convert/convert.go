// Package convert transforms decoded frames between pixel formats and sizes.
package convert

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framegrab/pkg/media"
)

// ErrUnsupportedConversion is returned by New for format pairs the converter cannot handle.
var ErrUnsupportedConversion = errors.New("convert: unsupported conversion")

// Converter converts frames of one fixed format and size into another.
// The target frame is allocated once and overwritten by every Convert call.
type Converter struct {
	srcFormat media.PixelFormat
	srcSize   media.Size
	dstFormat media.PixelFormat
	dstSize   media.Size

	scaler draw.Scaler
	scaled *media.Frame // source format at target size, when resampling
	dst    *media.Frame
}

// New configures a converter. Supported conversions are YUV420P to RGB24
// and same-format copies; YUV420P sources may also be resampled to a
// different target size.
func New(srcFormat media.PixelFormat, srcSize media.Size, dstFormat media.PixelFormat, dstSize media.Size) (*Converter, error) {
	if srcSize.Width <= 0 || srcSize.Height <= 0 || dstSize.Width <= 0 || dstSize.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %s -> %s", ErrUnsupportedConversion, srcSize, dstSize)
	}

	resample := srcSize != dstSize
	switch {
	case srcFormat == media.PixelFormatYUV420P && (dstFormat == media.PixelFormatRGB24 || dstFormat == media.PixelFormatYUV420P):
	case srcFormat == dstFormat && srcFormat != media.PixelFormatUnknown && !resample:
	default:
		return nil, fmt.Errorf("%w: %s %s -> %s %s", ErrUnsupportedConversion, srcFormat, srcSize, dstFormat, dstSize)
	}

	c := &Converter{
		srcFormat: srcFormat,
		srcSize:   srcSize,
		dstFormat: dstFormat,
		dstSize:   dstSize,
		scaler:    draw.BiLinear,
		dst:       media.NewFrame(dstFormat, dstSize),
	}
	if resample && dstFormat != srcFormat {
		c.scaled = media.NewFrame(srcFormat, dstSize)
	}
	return c, nil
}

// TargetFormat returns the pixel format Convert produces.
func (c *Converter) TargetFormat() media.PixelFormat {
	return c.dstFormat
}

// TargetSize returns the size Convert produces.
func (c *Converter) TargetSize() media.Size {
	return c.dstSize
}

// Convert writes src into the converter's target frame and returns it.
// The returned frame is valid until the next call.
func (c *Converter) Convert(src *media.Frame) (*media.Frame, error) {
	if c.dst == nil {
		return nil, errors.New("convert: converter closed")
	}
	if src.Format != c.srcFormat || src.Width != c.srcSize.Width || src.Height != c.srcSize.Height {
		return nil, fmt.Errorf("convert: got %s %dx%d, configured for %s %s",
			src.Format, src.Width, src.Height, c.srcFormat, c.srcSize)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if c.srcSize != c.dstSize {
		target := c.dst
		if c.scaled != nil {
			target = c.scaled
		}
		c.resample(target, src)
		src = target
	}

	switch {
	case c.dstFormat == c.srcFormat:
		if src != c.dst {
			if err := c.dst.CopyFrom(src); err != nil {
				return nil, err
			}
		}
	case c.dstFormat == media.PixelFormatRGB24:
		yuv420ToRGB24(c.dst, src)
	}
	return c.dst, nil
}

// Close drops the converter's buffers.
func (c *Converter) Close() {
	c.dst = nil
	c.scaled = nil
}

// resample scales every plane of src into dst with bilinear filtering.
func (c *Converter) resample(dst, src *media.Frame) {
	for i := 0; i < src.Format.PlaneCount(); i++ {
		ss := src.Format.PlaneSize(i, src.Size())
		ds := dst.Format.PlaneSize(i, dst.Size())
		srcImg := &image.Gray{
			Pix:    src.Planes[i].Data,
			Stride: src.Planes[i].Stride,
			Rect:   image.Rect(0, 0, ss.Width, ss.Height),
		}
		dstImg := &image.Gray{
			Pix:    dst.Planes[i].Data,
			Stride: dst.Planes[i].Stride,
			Rect:   image.Rect(0, 0, ds.Width, ds.Height),
		}
		c.scaler.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
	}
}

// yuv420ToRGB24 converts limited-range BT.601 YUV 4:2:0 into packed RGB.
// Only the pixel area of each row is read; stride padding is ignored.
func yuv420ToRGB24(dst, src *media.Frame) {
	yPlane, uPlane, vPlane := src.Planes[0], src.Planes[1], src.Planes[2]
	out := dst.Planes[0]

	for y := 0; y < src.Height; y++ {
		yRow := yPlane.Data[y*yPlane.Stride:]
		uRow := uPlane.Data[(y/2)*uPlane.Stride:]
		vRow := vPlane.Data[(y/2)*vPlane.Stride:]
		row := out.Data[y*out.Stride:]

		for x := 0; x < src.Width; x++ {
			c := int(yRow[x]) - 16
			d := int(uRow[x/2]) - 128
			e := int(vRow[x/2]) - 128

			row[x*3] = clamp((298*c + 409*e + 128) >> 8)
			row[x*3+1] = clamp((298*c - 100*d - 208*e + 128) >> 8)
			row[x*3+2] = clamp((298*c + 516*d + 128) >> 8)
		}
	}
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
