/*
NAME
  config.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for roitools.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// Enums to define inputs, modes and bounds policies.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Inputs.
	InputFile  // Video file decoded by OpenCV.
	InputMJPEG // MJPEG file decoded in pure Go.

	// Modes.
	ModeCollect // Run a collection plan over the whole input.
	ModeSeries  // Save an image series.
	ModeWatch   // Play the input, reloading the plan when it changes.

	// Bounds policies.
	BoundsClip
	BoundsReject
)

// Config provides parameters relevant to a roitools session. Default values
// for these fields are defined as consts in variables.go.
type Config struct {
	// ActiveColor and PassiveColor are the colours regions are drawn with
	// when sampling and when deaf respectively. Nil selects the default.
	ActiveColor  *frame.Color
	PassiveColor *frame.Color

	// Bounds decides how regions extending past the frame are treated.
	// BoundsClip accepts any region overlapping the frame, BoundsReject only
	// regions wholly inside it.
	Bounds uint8

	Brightness int     // Brightness offset in [-255, 255] applied before sampling.
	Contrast   float64 // Contrast gain applied before sampling.

	// DeleteExported removes regions exported on request from the set.
	// Regions reaching their planned death are always removed.
	DeleteExported bool

	// DeltaIgnore is the deduplication delta given to planned regions whose
	// own delta is zero.
	DeltaIgnore float64

	// FPS is the frame rate of MJPEG input, which carries no timing.
	FPS float64

	IdleDelay time.Duration // Delay between ticks while playback is paused.

	// Input defines the input data source.
	//
	// Valid values are defined by enums:
	// InputFile:
	//		Decode a video file with OpenCV. Requires the withcv build tag.
	// InputMJPEG:
	//		Decode a file of concatenated JPEG images.
	// Location must be specified in the InputPath field.
	Input uint8

	InputPath string

	// Logger holds an implementation of the Logger interface.
	// This must be set for roitools to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Loop       bool // If true will restart reading of input after an io.EOF.
	MaxRegions uint // Maximum number of registered regions.

	// Mode selects what the command does: ModeCollect, ModeSeries or
	// ModeWatch.
	Mode uint8

	// OutputPath is the directory results directories are created in. If
	// empty, results are created next to the input.
	OutputPath string

	PlanPath string // Location of the JSON collection plan.
	Plot     bool   // Save a plot of collected means with the results.

	// Preview is the location an MJPEG preview of the annotated frames is
	// written to while watching. Empty disables the preview.
	Preview string

	Screenshots bool // Save an annotated frame each time regions are born.

	// SeriesStart and SeriesEnd bound the image series in milliseconds.
	// A SeriesEnd of zero means the end of the input.
	SeriesStart float64
	SeriesEnd   float64
	SeriesStep  uint // Save every nth frame of the series.

	Suppress     bool // Holds logger suppression state.
	SwapInverted bool // Swap start and end of regions finished before they started.
	Title        string
	Window       bool // Show an OpenCV window while watching.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// LogInvalidField logs that the named field is being set to its default.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// BoundsPolicy returns the roi bounds policy selected by Bounds.
func (c *Config) BoundsPolicy() roi.BoundsPolicy {
	if c.Bounds == BoundsReject {
		return roi.Reject
	}
	return roi.Clip
}

// Palette returns the palette selected by ActiveColor and PassiveColor.
func (c *Config) Palette() roi.Palette {
	p := roi.DefaultPalette
	if c.ActiveColor != nil {
		p.Active = *c.ActiveColor
	}
	if c.PassiveColor != nil {
		p.Passive = *c.PassiveColor
	}
	return p
}

// Parse reads Key=Value lines from r into a map suitable for Update. Blank
// lines and lines starting with # are ignored.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		k, v, ok := strings.Cut(l, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected Key=Value, got %q", n, l)
		}
		vars[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	return vars, nil
}
