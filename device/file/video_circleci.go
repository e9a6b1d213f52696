//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV video file source when Circle-CI builds roitools. This is
  needed because Circle-CI does not have a copy of Open CV installed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/utils/logging"
)

// Video is a stand-in for the OpenCV video file source.
type Video struct{}

// NewWith returns a new Video that cannot be started.
func NewWith(l logging.Logger, path string, loop bool) *Video { return &Video{} }

func (v *Video) Start() error                               { return ErrNoOpenCV }
func (v *Video) Stop() error                                { return nil }
func (v *Video) IsRunning() bool                            { return false }
func (v *Video) Read() (*frame.Frame, error)                { return nil, ErrNoOpenCV }
func (v *Video) Property(p device.Prop) (float64, error)    { return 0, ErrNoOpenCV }
func (v *Video) SetProperty(p device.Prop, f float64) error { return ErrNoOpenCV }
