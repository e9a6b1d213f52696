/*
DESCRIPTION
  draw.go provides the outline and text drawing used to overlay regions on
  frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Color is an opaque drawing color in BGR order. Color implements color.Color.
type Color struct{ B, G, R uint8 }

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xffff
}

// String returns the color as "b,g,r", the form accepted by ParseColor.
func (c Color) String() string { return fmt.Sprintf("%d,%d,%d", c.B, c.G, c.R) }

// ParseColor parses a color of the form "b,g,r" with each channel in [0, 255].
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("invalid color %q: want b,g,r", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color channel %q: %w", p, err)
		}
		ch[i] = uint8(v)
	}
	return Color{B: ch[0], G: ch[1], R: ch[2]}, nil
}

func (f *Frame) setPixel(x, y int, c Color) {
	if !(image.Point{x, y}.In(f.Rect)) {
		return
	}
	i := f.PixOffset(x, y)
	if f.Channels == Gray {
		// Same weights as color.GrayModel.
		f.Pix[i] = uint8((19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16)
		return
	}
	f.Pix[i+Blue] = c.B
	f.Pix[i+Green] = c.G
	f.Pix[i+Red] = c.R
}

// DrawRect draws the one pixel wide outline of the rectangle with opposite
// vertices a and b. Both vertices lie on the outline.
func (f *Frame) DrawRect(a, b image.Point, c Color) {
	r := image.Rectangle{a, b}.Canon()
	for x := r.Min.X; x <= r.Max.X; x++ {
		f.setPixel(x, r.Min.Y, c)
		f.setPixel(x, r.Max.Y, c)
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		f.setPixel(r.Min.X, y, c)
		f.setPixel(r.Max.X, y, c)
	}
}

// DrawCircle draws the one pixel wide outline of a circle using the midpoint
// circle algorithm.
func (f *Frame) DrawCircle(center image.Point, radius int, c Color) {
	if radius < 0 {
		return
	}
	x, y := radius, 0
	d := 1 - radius
	for x >= y {
		for _, p := range [...]image.Point{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			f.setPixel(center.X+p.X, center.Y+p.Y, c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// PutText draws s with its baseline starting at origin.
func (f *Frame) PutText(s string, origin image.Point, c Color) {
	d := &font.Drawer{
		Dst:  f,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(s)
}
