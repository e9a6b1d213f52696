//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  file_test.go checks the video file stand-in used when building without
  OpenCV.

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
	"testing"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/utils/logging"
)

// Video must satisfy device.FrameSource with or without OpenCV.
var _ device.FrameSource = (*Video)(nil)

func TestNoOpenCV(t *testing.T) {
	v := NewWith((*logging.TestLogger)(t), "video.avi", false)
	err := v.Start()
	if !errors.Is(err, ErrNoOpenCV) {
		t.Errorf("expected ErrNoOpenCV, got: %v", err)
	}
	if v.IsRunning() {
		t.Error("video should not be running")
	}
}
