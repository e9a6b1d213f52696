/*
DESCRIPTION
  file.go provides the parts of the video file FrameSource that do not depend
  on OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of FrameSource for video files
// decoded by OpenCV. Building with the withcv tag is required for decoding;
// without it every operation fails with ErrNoOpenCV.
package file

import "errors"

// Used to indicate package in logging.
const pkg = "file: "

// ErrNoOpenCV is returned by all operations when roitools was built without
// the withcv build tag.
var ErrNoOpenCV = errors.New("video file input requires building with the withcv tag")

// Name returns the name of the device.
func (v *Video) Name() string { return "File" }
