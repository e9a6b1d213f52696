//go:build withcv
// +build withcv

/*
DESCRIPTION
  video.go provides an implementation of the FrameSource interface for video
  files decoded by OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/utils/logging"
)

var props = map[device.Prop]gocv.VideoCaptureProperties{
	device.PosFrames:   gocv.VideoCapturePosFrames,
	device.PosMsec:     gocv.VideoCapturePosMsec,
	device.FrameWidth:  gocv.VideoCaptureFrameWidth,
	device.FrameHeight: gocv.VideoCaptureFrameHeight,
	device.FPS:         gocv.VideoCaptureFPS,
	device.FrameCount:  gocv.VideoCaptureFrameCount,
}

// Video is an implementation of the FrameSource interface for a video file.
type Video struct {
	vc        *gocv.VideoCapture
	mat       gocv.Mat
	path      string
	loop      bool
	isRunning bool
	log       logging.Logger
	mu        sync.Mutex
}

// NewWith returns a new Video for the file at path. If loop is true, reading
// restarts from the first frame once the end of the file is reached.
func NewWith(l logging.Logger, path string, loop bool) *Video {
	return &Video{log: l, path: path, loop: loop}
}

// Start opens the video file.
func (v *Video) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("could not open video file: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("could not open video file %s", v.path)
	}
	v.vc = vc
	v.mat = gocv.NewMat()
	v.isRunning = true
	v.log.Debug(pkg+"opened video", "path", v.path, "fps", vc.Get(gocv.VideoCaptureFPS), "frames", vc.Get(gocv.VideoCaptureFrameCount))
	return nil
}

// Stop closes the video capture and frees resources held by OpenCV. It has to
// be done manually, due to gocv using c-go.
func (v *Video) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		return nil
	}
	v.isRunning = false
	v.mat.Close()
	err := v.vc.Close()
	v.vc = nil
	if err != nil {
		return fmt.Errorf("could not close video capture: %w", err)
	}
	return nil
}

// IsRunning is used to determine if the video is open.
func (v *Video) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vc != nil && v.isRunning
}

// Read decodes the next frame. io.EOF is returned once every frame has been
// read, and a failure to read a frame before that is a decode error.
func (v *Video) Read() (*frame.Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		return nil, device.ErrNotStarted
	}

	if v.vc.Read(&v.mat) && !v.mat.Empty() {
		return toFrame(v.mat)
	}

	pos := v.vc.Get(gocv.VideoCapturePosFrames)
	n := v.vc.Get(gocv.VideoCaptureFrameCount)
	if n > 0 && pos < n {
		return nil, fmt.Errorf("could not decode frame %d of %d", int(pos), int(n))
	}
	if !v.loop {
		return nil, io.EOF
	}

	v.log.Info(pkg + "looping input file")
	v.vc.Set(gocv.VideoCapturePosFrames, 0)
	if !v.vc.Read(&v.mat) || v.mat.Empty() {
		return nil, errors.New("could not read after start seek")
	}
	return toFrame(v.mat)
}

// Property implements device.FrameSource.
func (v *Video) Property(p device.Prop) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		return 0, device.ErrNotStarted
	}
	cp, ok := props[p]
	if !ok {
		return 0, device.ErrUnsupportedProp
	}
	return v.vc.Get(cp), nil
}

// SetProperty implements device.FrameSource. Only positions may be set.
func (v *Video) SetProperty(p device.Prop, f float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		return device.ErrNotStarted
	}
	switch p {
	case device.PosFrames, device.PosMsec:
		if f < 0 {
			f = 0
		}
		v.vc.Set(props[p], f)
		return nil
	case device.FrameWidth, device.FrameHeight, device.FPS, device.FrameCount:
		return fmt.Errorf("%w: %v", device.ErrReadOnlyProp, p)
	default:
		return device.ErrUnsupportedProp
	}
}

// toFrame copies the pixel data of an 8 bit Mat into a frame.
func toFrame(m gocv.Mat) (*frame.Frame, error) {
	switch m.Type() {
	case gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC1:
	default:
		return nil, fmt.Errorf("unsupported mat type: %v", m.Type())
	}
	return frame.FromBytes(m.Cols(), m.Rows(), m.Channels(), m.ToBytes())
}
