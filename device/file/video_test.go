//go:build withcv
// +build withcv

/*
DESCRIPTION
  video_test.go provides testing for the OpenCV video file source.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"image"
	"image/color"
	"io"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/utils/logging"
)

var _ device.FrameSource = (*Video)(nil)

// writeVideo writes an MJPG AVI of n 32x32 frames where frame i is filled
// with level 40*i.
func writeVideo(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")
	vw, err := gocv.VideoWriterFile(path, "MJPG", 25, 32, 32, true)
	if err != nil {
		t.Skipf("could not create video writer: %v", err)
	}
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
		v := float64(40 * i)
		gocv.Rectangle(&m, image.Rect(0, 0, 32, 32), color.RGBA{uint8(v), uint8(v), uint8(v), 0}, -1)
		err = vw.Write(m)
		m.Close()
		if err != nil {
			t.Fatalf("could not write frame %d: %v", i, err)
		}
	}
	err = vw.Close()
	if err != nil {
		t.Fatalf("could not close video writer: %v", err)
	}
	return path
}

func TestReadToEnd(t *testing.T) {
	v := NewWith((*logging.TestLogger)(t), writeVideo(t, 5), false)
	err := v.Start()
	if err != nil {
		t.Fatalf("could not start video: %v", err)
	}
	defer v.Stop()

	var n int
	for {
		f, err := v.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected read error after %d frames: %v", n, err)
		}
		if f.Width() != 32 || f.Height() != 32 {
			t.Errorf("unexpected frame size: %v", f.Bounds())
		}
		n++
	}
	if n != 5 {
		t.Errorf("unexpected frame count: got %d want 5", n)
	}

	pos, err := v.Property(device.PosFrames)
	if err != nil {
		t.Fatalf("could not get position: %v", err)
	}
	if int(pos) != n {
		t.Errorf("unexpected position: got %v want %d", pos, n)
	}
}

func TestSeek(t *testing.T) {
	v := NewWith((*logging.TestLogger)(t), writeVideo(t, 5), false)
	err := v.Start()
	if err != nil {
		t.Fatalf("could not start video: %v", err)
	}
	defer v.Stop()

	err = v.SetProperty(device.PosFrames, 3)
	if err != nil {
		t.Fatalf("could not seek: %v", err)
	}
	f, err := v.Read()
	if err != nil {
		t.Fatalf("could not read after seek: %v", err)
	}
	b, _, _ := f.BGRAt(16, 16)
	if d := int(b) - 120; d < -10 || d > 10 {
		t.Errorf("unexpected level after seek: got %d want 120", b)
	}

	err = v.SetProperty(device.FPS, 30)
	if err == nil {
		t.Error("expected error setting read only property")
	}
}
