//go:build withcv
// +build withcv

/*
DESCRIPTION
  window.go provides Window, a Display showing frames in an OpenCV window.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package player

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ausocean/roitools/frame"
)

// Keys pressed in the window are queued up to this many.
const keyQueue = 16

// Window implements Display using an OpenCV window.
type Window struct {
	w    *gocv.Window
	keys chan int
}

// NewWindow opens a window with the given title.
func NewWindow(title string) (*Window, error) {
	return &Window{w: gocv.NewWindow(title), keys: make(chan int, keyQueue)}, nil
}

// Show displays f and polls the window for a key press.
func (w *Window) Show(f *frame.Frame) error {
	typ := gocv.MatTypeCV8UC3
	if f.Channels == frame.Gray {
		typ = gocv.MatTypeCV8UC1
	}
	if f.Stride != f.Width()*f.Channels {
		f = f.Clone()
	}
	m, err := gocv.NewMatFromBytes(f.Height(), f.Width(), typ, f.Pix)
	if err != nil {
		return fmt.Errorf("could not create mat: %w", err)
	}
	defer m.Close()
	w.w.IMShow(m)

	k := w.w.WaitKey(1)
	if k < 0 {
		return nil
	}
	select {
	case w.keys <- k:
	default:
	}
	return nil
}

// Keys returns the keys pressed while the window had focus. Keys are only
// polled while frames are shown.
func (w *Window) Keys() <-chan int { return w.keys }

// Close closes the window.
func (w *Window) Close() error { return w.w.Close() }
