/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyActiveColor    = "ActiveColor"
	KeyBounds         = "Bounds"
	KeyBrightness     = "Brightness"
	KeyContrast       = "Contrast"
	KeyDeleteExported = "DeleteExported"
	KeyDeltaIgnore    = "DeltaIgnore"
	KeyFPS            = "FPS"
	KeyIdleDelay      = "IdleDelay"
	KeyInput          = "Input"
	KeyInputPath      = "InputPath"
	KeyLogging        = "logging"
	KeyLoop           = "Loop"
	KeyMaxRegions     = "MaxRegions"
	KeyMode           = "mode"
	KeyOutputPath     = "OutputPath"
	KeyPassiveColor   = "PassiveColor"
	KeyPlanPath       = "PlanPath"
	KeyPlot           = "Plot"
	KeyPreview        = "Preview"
	KeyScreenshots    = "Screenshots"
	KeySeriesEnd      = "SeriesEnd"
	KeySeriesStart    = "SeriesStart"
	KeySeriesStep     = "SeriesStep"
	KeySuppress       = "Suppress"
	KeySwapInverted   = "SwapInverted"
	KeyTitle          = "Title"
	KeyWindow         = "Window"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
	typeColor  = "color"
)

// Default variable values.
const (
	defaultInput      = InputMJPEG
	defaultMode       = ModeCollect
	defaultBounds     = BoundsClip
	defaultVerbosity  = logging.Error
	defaultContrast   = 1.0
	defaultFPS        = 25
	defaultIdleDelay  = 100 * time.Millisecond
	defaultMaxRegions = roi.DefaultMaxRegions
	defaultSeriesStep = 1
)

var (
	defaultActiveColor  = roi.DefaultPalette.Active
	defaultPassiveColor = roi.DefaultPalette.Passive
)

// Variables describes the variables that can be used for roitools control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyActiveColor,
		Type:   typeColor,
		Update: func(c *Config, v string) { c.ActiveColor = parseColor(KeyActiveColor, v, c) },
		Validate: func(c *Config) {
			if c.ActiveColor == nil {
				c.LogInvalidField(KeyActiveColor, defaultActiveColor)
				col := defaultActiveColor
				c.ActiveColor = &col
			}
		},
	},
	{
		Name: KeyBounds,
		Type: "enum:clip,reject",
		Update: func(c *Config, v string) {
			c.Bounds = parseEnum(
				KeyBounds,
				v,
				map[string]uint8{
					"clip":   BoundsClip,
					"reject": BoundsReject,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Bounds {
			case BoundsClip, BoundsReject:
			default:
				c.LogInvalidField(KeyBounds, defaultBounds)
				c.Bounds = defaultBounds
			}
		},
	},
	{
		Name:   KeyBrightness,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Brightness = parseInt(KeyBrightness, v, c) },
		Validate: func(c *Config) {
			if c.Brightness < roi.MinBrightness || c.Brightness > roi.MaxBrightness {
				c.LogInvalidField(KeyBrightness, 0)
				c.Brightness = 0
			}
		},
	},
	{
		Name:   KeyContrast,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.Contrast = parseFloat(KeyContrast, v, c) },
		Validate: func(c *Config) {
			if c.Contrast <= 0 {
				c.LogInvalidField(KeyContrast, defaultContrast)
				c.Contrast = defaultContrast
			}
		},
	},
	{
		Name:   KeyDeleteExported,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.DeleteExported = parseBool(KeyDeleteExported, v, c) },
	},
	{
		Name:   KeyDeltaIgnore,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.DeltaIgnore = parseFloat(KeyDeltaIgnore, v, c) },
		Validate: func(c *Config) {
			if c.DeltaIgnore < 0 || math.IsNaN(c.DeltaIgnore) || math.IsInf(c.DeltaIgnore, 0) {
				c.LogInvalidField(KeyDeltaIgnore, 0)
				c.DeltaIgnore = 0
			}
		},
	},
	{
		Name:   KeyFPS,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.FPS = parseFloat(KeyFPS, v, c) },
		Validate: func(c *Config) {
			if c.FPS <= 0 {
				c.LogInvalidField(KeyFPS, defaultFPS)
				c.FPS = defaultFPS
			}
		},
	},
	{
		Name: KeyIdleDelay,
		Type: typeUint,
		Update: func(c *Config, v string) {
			_v, err := strconv.Atoi(v)
			if err != nil {
				c.Logger.Warning("invalid IdleDelay param", "value", v)
			}
			c.IdleDelay = time.Duration(_v) * time.Millisecond
		},
		Validate: func(c *Config) {
			if c.IdleDelay <= 0 {
				c.LogInvalidField(KeyIdleDelay, defaultIdleDelay)
				c.IdleDelay = defaultIdleDelay
			}
		},
	},
	{
		Name: KeyInput,
		Type: "enum:file,mjpeg",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"file":  InputFile,
					"mjpeg": InputMJPEG,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputMJPEG:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyLoop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Loop = parseBool(KeyLoop, v, c) },
	},
	{
		Name:   KeyMaxRegions,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxRegions = parseUint(KeyMaxRegions, v, c) },
		Validate: func(c *Config) {
			c.MaxRegions = lessThanOrEqual(KeyMaxRegions, c.MaxRegions, 0, c, defaultMaxRegions)
		},
	},
	{
		Name: KeyMode,
		Type: "enum:collect,series,watch",
		Update: func(c *Config, v string) {
			c.Mode = parseEnum(
				KeyMode,
				v,
				map[string]uint8{
					"collect": ModeCollect,
					"series":  ModeSeries,
					"watch":   ModeWatch,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Mode {
			case ModeCollect, ModeSeries, ModeWatch:
			default:
				c.LogInvalidField(KeyMode, defaultMode)
				c.Mode = defaultMode
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name:   KeyPassiveColor,
		Type:   typeColor,
		Update: func(c *Config, v string) { c.PassiveColor = parseColor(KeyPassiveColor, v, c) },
		Validate: func(c *Config) {
			if c.PassiveColor == nil {
				c.LogInvalidField(KeyPassiveColor, defaultPassiveColor)
				col := defaultPassiveColor
				c.PassiveColor = &col
			}
		},
	},
	{
		Name:   KeyPlanPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.PlanPath = v },
	},
	{
		Name:   KeyPlot,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Plot = parseBool(KeyPlot, v, c) },
	},
	{
		Name:   KeyPreview,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Preview = v },
	},
	{
		Name:   KeyScreenshots,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Screenshots = parseBool(KeyScreenshots, v, c) },
	},
	{
		Name:   KeySeriesEnd,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.SeriesEnd = parseFloat(KeySeriesEnd, v, c) },
		Validate: func(c *Config) {
			if c.SeriesEnd < 0 || (c.SeriesEnd != 0 && c.SeriesEnd < c.SeriesStart) {
				c.LogInvalidField(KeySeriesEnd, 0)
				c.SeriesEnd = 0
			}
		},
	},
	{
		Name:   KeySeriesStart,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.SeriesStart = parseFloat(KeySeriesStart, v, c) },
		Validate: func(c *Config) {
			if c.SeriesStart < 0 {
				c.LogInvalidField(KeySeriesStart, 0)
				c.SeriesStart = 0
			}
		},
	},
	{
		Name:   KeySeriesStep,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SeriesStep = parseUint(KeySeriesStep, v, c) },
		Validate: func(c *Config) {
			c.SeriesStep = lessThanOrEqual(KeySeriesStep, c.SeriesStep, 0, c, defaultSeriesStep)
		},
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
			if l, ok := c.Logger.(*logging.JSONLogger); ok {
				l.SetSuppress(c.Suppress)
			}
		},
	},
	{
		Name:   KeySwapInverted,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.SwapInverted = parseBool(KeySwapInverted, v, c) },
	},
	{
		Name:   KeyTitle,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Title = v },
	},
	{
		Name:   KeyWindow,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Window = parseBool(KeyWindow, v, c) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

// parseColor returns nil if v is not a valid colour.
func parseColor(n, v string, c *Config) *frame.Color {
	col, err := frame.ParseColor(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected b,g,r colour for param %s", n), "value", v, "error", err)
		return nil
	}
	return &col
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
