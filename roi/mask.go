/*
DESCRIPTION
  mask.go provides Mask, the precomputed membership grid of a circular region.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
)

// Mask marks which pixels of a bounding box belong to a region. Mask
// implements image.Image; member pixels are white.
type Mask struct {
	Rect image.Rectangle
	Bits []bool // Row-major, len(Bits) == Rect.Dx()*Rect.Dy().
}

// circleMask returns the mask of the circle of radius r about c. Each row is
// filled as a single span whose half width is the integer square root of
// r²-dy², so that the mask agrees exactly with the distance test.
func circleMask(c image.Point, r int) *Mask {
	rect := image.Rect(c.X-r, c.Y-r, c.X+r+1, c.Y+r+1)
	m := &Mask{Rect: rect, Bits: make([]bool, rect.Dx()*rect.Dy())}
	w := rect.Dx()
	for dy := -r; dy <= r; dy++ {
		hw := isqrt(r*r - dy*dy)
		row := m.Bits[(dy+r)*w:][:w]
		for x := r - hw; x <= r+hw; x++ {
			row[x] = true
		}
	}
	return m
}

// isqrt returns floor(sqrt(n)) for n >= 0.
func isqrt(n int) int {
	s := int(math.Sqrt(float64(n)))
	for s*s > n {
		s--
	}
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}

// In returns whether (x, y) is a member pixel.
func (m *Mask) In(x, y int) bool {
	if !(image.Point{x, y}.In(m.Rect)) {
		return false
	}
	return m.Bits[(y-m.Rect.Min.Y)*m.Rect.Dx()+(x-m.Rect.Min.X)]
}

// Count returns the number of member pixels.
func (m *Mask) Count() int {
	var n int
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// ColorModel implements image.Image.
func (m *Mask) ColorModel() color.Model { return color.GrayModel }

// Bounds implements image.Image.
func (m *Mask) Bounds() image.Rectangle { return m.Rect }

// At implements image.Image.
func (m *Mask) At(x, y int) color.Color {
	if m.In(x, y) {
		return color.Gray{Y: 0xff}
	}
	return color.Gray{}
}

// Gray returns the mask as a grayscale image with its origin at (0, 0).
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()))
	for i, b := range m.Bits {
		if b {
			g.Pix[i] = 0xff
		}
	}
	return g
}

// WritePNG writes the mask to w as a PNG bitmap with its origin at (0, 0).
func (m *Mask) WritePNG(w io.Writer) error {
	return png.Encode(w, m.Gray())
}
