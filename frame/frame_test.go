/*
DESCRIPTION
  frame_test.go provides testing for the pixel operations in frame.go and
  draw.go.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fill(f *Frame, b, g, r uint8) {
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		for x := f.Rect.Min.X; x < f.Rect.Max.X; x++ {
			f.setPixel(x, y, Color{B: b, G: g, R: r})
		}
	}
}

func TestAtSet(t *testing.T) {
	f := New(image.Rect(0, 0, 4, 3), BGR)
	f.Set(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 0xff})

	b, g, r := f.BGRAt(1, 2)
	if b != 30 || g != 20 || r != 10 {
		t.Errorf("unexpected pixel: got b=%d g=%d r=%d", b, g, r)
	}
	got := f.At(1, 2)
	want := color.RGBA{R: 10, G: 20, B: 30, A: 0xff}
	if got != want {
		t.Errorf("unexpected color: got %v want %v", got, want)
	}

	// Out of bounds writes are dropped.
	f.Set(10, 10, color.White)
}

func TestCrop(t *testing.T) {
	f := New(image.Rect(0, 0, 8, 8), BGR)
	fill(f, 1, 2, 3)
	f.setPixel(5, 5, Color{B: 9, G: 9, R: 9})

	tests := []struct {
		name string
		r    image.Rectangle
		want image.Rectangle
	}{
		{name: "inside", r: image.Rect(2, 2, 6, 6), want: image.Rect(2, 2, 6, 6)},
		{name: "clipped", r: image.Rect(-2, 6, 3, 12), want: image.Rect(0, 6, 3, 8)},
		{name: "outside", r: image.Rect(20, 20, 30, 30), want: image.Rectangle{}},
	}

	for _, test := range tests {
		c := f.Crop(test.r)
		if c.Rect.Empty() && test.want.Empty() {
			continue
		}
		if c.Rect != test.want {
			t.Errorf("%s: unexpected bounds: got %v want %v", test.name, c.Rect, test.want)
		}
	}

	c := f.Crop(image.Rect(4, 4, 7, 7))
	b, g, r := c.BGRAt(5, 5)
	if b != 9 || g != 9 || r != 9 {
		t.Errorf("crop did not keep source coordinates: got %d,%d,%d", b, g, r)
	}

	// The crop is a copy.
	c.setPixel(4, 4, Color{})
	if b, _, _ := f.BGRAt(4, 4); b != 1 {
		t.Error("writing to crop modified source frame")
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		contrast   float64
		brightness int
		in         []uint8
		want       []uint8
	}{
		{contrast: 1, brightness: 0, in: []uint8{0, 100, 255}, want: []uint8{0, 100, 255}},
		{contrast: 1, brightness: 10, in: []uint8{0, 100, 250}, want: []uint8{10, 110, 255}},
		{contrast: 1, brightness: -20, in: []uint8{0, 100, 255}, want: []uint8{0, 80, 235}},
		{contrast: 2, brightness: 0, in: []uint8{0, 100, 200}, want: []uint8{0, 200, 255}},
	}

	for i, test := range tests {
		f := &Frame{Pix: append([]uint8(nil), test.in...), Stride: 3, Rect: image.Rect(0, 0, 1, 1), Channels: BGR}
		f.Adjust(test.contrast, test.brightness)
		if !cmp.Equal(f.Pix, test.want) {
			t.Errorf("test %d: unexpected result: got %v want %v", i, f.Pix, test.want)
		}
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{R: 200, G: 100, B: 50, A: 0xff})

	f := FromImage(img)
	if f.Channels != BGR {
		t.Fatalf("unexpected channel count: %d", f.Channels)
	}
	b, g, r := f.BGRAt(1, 0)
	if b != 50 || g != 100 || r != 200 {
		t.Errorf("unexpected pixel: got b=%d g=%d r=%d", b, g, r)
	}

	gray := image.NewGray(image.Rect(0, 0, 3, 1))
	gray.Pix = []uint8{7, 8, 9}
	f = FromImage(gray)
	if f.Channels != Gray || !cmp.Equal(f.Pix, []uint8{7, 8, 9}) {
		t.Errorf("unexpected gray frame: channels=%d pix=%v", f.Channels, f.Pix)
	}
}

func TestDrawRect(t *testing.T) {
	f := New(image.Rect(0, 0, 10, 10), Gray)
	f.DrawRect(image.Pt(6, 6), image.Pt(2, 3), Color{B: 255, G: 255, R: 255})

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			onEdge := (x == 2 || x == 6) && y >= 3 && y <= 6 || (y == 3 || y == 6) && x >= 2 && x <= 6
			got := f.Pix[f.PixOffset(x, y)] != 0
			if got != onEdge {
				t.Errorf("pixel (%d,%d): got drawn=%v want %v", x, y, got, onEdge)
			}
		}
	}
}

func TestDrawCircle(t *testing.T) {
	f := New(image.Rect(0, 0, 21, 21), Gray)
	f.DrawCircle(image.Pt(10, 10), 5, Color{B: 255, G: 255, R: 255})

	for _, p := range []image.Point{{15, 10}, {5, 10}, {10, 15}, {10, 5}} {
		if f.Pix[f.PixOffset(p.X, p.Y)] == 0 {
			t.Errorf("expected outline pixel at %v", p)
		}
	}
	if f.Pix[f.PixOffset(10, 10)] != 0 {
		t.Error("circle outline should not fill center")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("0, 255,10")
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if c != (Color{B: 0, G: 255, R: 10}) {
		t.Errorf("unexpected color: %v", c)
	}
	if c.String() != "0,255,10" {
		t.Errorf("unexpected string: %s", c)
	}

	for _, s := range []string{"", "1,2", "1,2,300", "a,b,c"} {
		if _, err := ParseColor(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestPutText(t *testing.T) {
	f := New(image.Rect(0, 0, 40, 20), BGR)
	f.PutText("12", image.Pt(2, 15), Color{G: 255})

	var drawn int
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if _, g, _ := f.BGRAt(x, y); g != 0 {
				drawn++
			}
		}
	}
	if drawn == 0 {
		t.Error("expected text to be drawn")
	}
}
