/*
DESCRIPTION
  frame.go provides Frame, an 8 bit per channel BGR or grayscale image laid out
  in the same way as an OpenCV Mat, so that frames decoded by OpenCV or by the
  pure Go decoders can be shared by the region code without conversion.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the video frame type used throughout roitools along
// with the pixel operations needed for sampling and drawing regions.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Channel counts for the supported pixel layouts.
const (
	Gray = 1 // Single channel intensity.
	BGR  = 3 // Blue, green, red; OpenCV's default channel order.
)

// Channel indices within a BGR pixel.
const (
	Blue = iota
	Green
	Red
)

var errChannels = errors.New("unsupported channel count")

// Frame is an image with 8 bits per channel. Pixels are stored row-major and
// channels are interleaved. Frame implements draw.Image.
type Frame struct {
	// Pix holds the pixel data. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*Channels].
	Pix []uint8

	Stride   int             // Distance in bytes between vertically adjacent pixels.
	Rect     image.Rectangle // Bounds of the frame.
	Channels int             // Gray or BGR.
}

// New returns a new zeroed frame with bounds r and the given channel count.
func New(r image.Rectangle, channels int) *Frame {
	if channels != Gray && channels != BGR {
		panic(errChannels)
	}
	return &Frame{
		Pix:      make([]uint8, r.Dx()*r.Dy()*channels),
		Stride:   r.Dx() * channels,
		Rect:     r,
		Channels: channels,
	}
}

// FromBytes wraps raw interleaved pixel data of the given dimensions. pix is
// not copied.
func FromBytes(w, h, channels int, pix []byte) (*Frame, error) {
	if channels != Gray && channels != BGR {
		return nil, fmt.Errorf("%w: %d", errChannels, channels)
	}
	if len(pix) < w*h*channels {
		return nil, fmt.Errorf("pixel data too short: have %d bytes, need %d", len(pix), w*h*channels)
	}
	return &Frame{
		Pix:      pix[:w*h*channels],
		Stride:   w * channels,
		Rect:     image.Rect(0, 0, w, h),
		Channels: channels,
	}, nil
}

// FromImage converts img into a BGR frame with the same bounds. Gray images
// are converted into single channel frames.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		f := New(b, Gray)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(f.Pix[(y-b.Min.Y)*f.Stride:], g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)])
		}
		return f
	}

	f := New(b, BGR)
	if yc, ok := img.(*image.YCbCr); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := (y - b.Min.Y) * f.Stride
			for x := b.Min.X; x < b.Max.X; x++ {
				ci := yc.COffset(x, y)
				r, g, bl := color.YCbCrToRGB(yc.Y[yc.YOffset(x, y)], yc.Cb[ci], yc.Cr[ci])
				f.Pix[i+Blue] = bl
				f.Pix[i+Green] = g
				f.Pix[i+Red] = r
				i += BGR
			}
		}
		return f
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := (y - b.Min.Y) * f.Stride
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			f.Pix[i+Blue] = c.B
			f.Pix[i+Green] = c.G
			f.Pix[i+Red] = c.R
			i += BGR
		}
	}
	return f
}

// Width returns the width of the frame in pixels.
func (f *Frame) Width() int { return f.Rect.Dx() }

// Height returns the height of the frame in pixels.
func (f *Frame) Height() int { return f.Rect.Dy() }

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model {
	if f.Channels == Gray {
		return color.GrayModel
	}
	return color.RGBAModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return f.Rect }

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x-f.Rect.Min.X)*f.Channels
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(f.Rect)) {
		return color.RGBA{}
	}
	i := f.PixOffset(x, y)
	if f.Channels == Gray {
		return color.Gray{Y: f.Pix[i]}
	}
	return color.RGBA{R: f.Pix[i+Red], G: f.Pix[i+Green], B: f.Pix[i+Blue], A: 0xff}
}

// Set implements draw.Image. Points outside the frame are ignored.
func (f *Frame) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(f.Rect)) {
		return
	}
	i := f.PixOffset(x, y)
	if f.Channels == Gray {
		f.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	f.Pix[i+Blue] = rgba.B
	f.Pix[i+Green] = rgba.G
	f.Pix[i+Red] = rgba.R
}

// BGRAt returns the channel values of the pixel at (x, y). For grayscale
// frames all three values are the intensity.
func (f *Frame) BGRAt(x, y int) (b, g, r uint8) {
	i := f.PixOffset(x, y)
	if f.Channels == Gray {
		return f.Pix[i], f.Pix[i], f.Pix[i]
	}
	return f.Pix[i+Blue], f.Pix[i+Green], f.Pix[i+Red]
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := New(f.Rect, f.Channels)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		n := f.Rect.Dx() * f.Channels
		copy(c.Pix[(y-f.Rect.Min.Y)*c.Stride:], f.Pix[f.PixOffset(f.Rect.Min.X, y):][:n])
	}
	return c
}

// Crop returns a copy of the part of the frame inside r. The returned frame
// keeps the coordinates of the source, i.e. its bounds are the intersection of
// r and the frame's bounds, which may be empty.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(f.Rect)
	c := New(r, f.Channels)
	if r.Empty() {
		return c
	}
	n := r.Dx() * f.Channels
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(c.Pix[(y-r.Min.Y)*c.Stride:], f.Pix[f.PixOffset(r.Min.X, y):][:n])
	}
	return c
}

// Adjust applies v' = contrast*v + brightness to every channel of every pixel,
// saturating at 0 and 255, in place. Adjust(1, 0) leaves the frame unchanged.
func (f *Frame) Adjust(contrast float64, brightness int) {
	if contrast == 1 && brightness == 0 {
		return
	}
	var lut [256]uint8
	for v := range lut {
		lut[v] = saturate(contrast*float64(v) + float64(brightness))
	}
	n := f.Rect.Dx() * f.Channels
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		row := f.Pix[f.PixOffset(f.Rect.Min.X, y):][:n]
		for i, v := range row {
			row[i] = lut[v]
		}
	}
}

func saturate(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
