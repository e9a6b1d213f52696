//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV window display when Circle-CI builds roitools. This is
  needed because Circle-CI does not have a copy of Open CV installed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package player

import "github.com/ausocean/roitools/frame"

// Window is a stand-in for the OpenCV window display.
type Window struct{}

// NewWindow returns ErrNoOpenCV.
func NewWindow(title string) (*Window, error) { return nil, ErrNoOpenCV }

func (w *Window) Show(f *frame.Frame) error { return ErrNoOpenCV }
func (w *Window) Keys() <-chan int          { return nil }
func (w *Window) Close() error              { return nil }
