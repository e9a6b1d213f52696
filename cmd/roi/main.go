/*
DESCRIPTION
  roi collects the mean colour of regions of interest over a video capture.
  In collect mode a collection plan is run over the whole capture as fast as
  it can be decoded. In watch mode the capture is played in real time, the
  plan file is reloaded when it changes and playback can be controlled from
  stdin or an OpenCV window. In series mode every nth frame of part of the
  capture is saved as an image.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package roi is a command line tool for region of interest collection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/roitools/collect"
	"github.com/ausocean/roitools/config"
	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/device/file"
	"github.com/ausocean/roitools/device/mjpeg"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

// Misc constants.
const (
	pkg       = "roi: "
	seriesDir = "series"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		cfgPath     = flag.String("config", "", "path to Key=Value config file")
		logPath     = flag.String("log", "roi.log", "path to log file")
	)
	// Flags overriding config file variables.
	overrides := map[string]*string{
		config.KeyInputPath:  flag.String("input", "", "path to the capture"),
		config.KeyInput:      flag.String("type", "", "input type: file or mjpeg"),
		config.KeyMode:       flag.String("mode", "", "mode: collect, series or watch"),
		config.KeyPlanPath:   flag.String("plan", "", "path to the JSON collection plan"),
		config.KeyOutputPath: flag.String("out", "", "directory results are written to"),
		config.KeyLogging:    flag.String("verbosity", "", "log level: Debug, Info, Warning, Error or Fatal"),
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting roi", "version", version)

	vars := make(map[string]string)
	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			log.Fatal(pkg+"could not open config", "error", err.Error())
		}
		vars, err = config.Parse(f)
		f.Close()
		if err != nil {
			log.Fatal(pkg+"could not parse config", "error", err.Error())
		}
	}
	for k, v := range overrides {
		if *v != "" {
			vars[k] = *v
		}
	}

	cfg := config.Config{Logger: log}
	cfg.Update(vars)
	err := cfg.Validate()
	if err != nil {
		log.Fatal(pkg+"invalid config", "error", err.Error())
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error(pkg+"run failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
	log.Info("roi finished")
}

// run opens the input and carries out the configured mode.
func run(ctx context.Context, cfg config.Config) error {
	log := cfg.Logger
	if cfg.InputPath == "" {
		return errors.New("no input path")
	}
	src := newSource(cfg)
	err := src.Start()
	if err != nil {
		return fmt.Errorf("could not start %s input: %w", src.Name(), err)
	}
	defer func() {
		err := src.Stop()
		if err != nil {
			log.Warning(pkg+"could not stop input", "error", err.Error())
		}
	}()

	dir := collect.ResultDir(cfg.OutputPath, cfg.InputPath, time.Now())
	if cfg.Mode == config.ModeSeries {
		_, err = collect.Series(ctx, log, src, filepath.Join(dir, seriesDir), cfg.SeriesStart, cfg.SeriesEnd, int(cfg.SeriesStep))
		return err
	}

	plan := &collect.Plan{}
	switch {
	case cfg.PlanPath != "":
		plan, err = collect.LoadPlan(cfg.PlanPath)
		if err != nil {
			return err
		}
	case cfg.Mode == config.ModeCollect:
		return errors.New("collect mode needs a plan")
	}

	set, err := roi.NewSet(log, src,
		roi.MaxRegions(int(cfg.MaxRegions)),
		roi.Bounds(cfg.BoundsPolicy()),
		roi.Colors(cfg.Palette()),
		roi.Title(cfg.Title),
		roi.File(cfg.InputPath),
	)
	if err != nil {
		return fmt.Errorf("could not create region set: %w", err)
	}
	set.SetBrightness(cfg.Brightness)
	set.SetContrast(cfg.Contrast)

	c, err := collect.New(cfg, set, plan, dir)
	if err != nil {
		return err
	}
	log.Info(pkg+"collecting", "input", cfg.InputPath, "regions", len(plan.Regions), "results", dir)

	var res *collect.Result
	if cfg.Mode == config.ModeWatch {
		res, err = watch(ctx, cfg, set, c, len(plan.Regions))
	} else {
		res, err = c.Run(ctx)
	}
	if res != nil {
		log.Info(pkg+"collection done", "frames", res.Frames, "regions", len(res.Regions), "results", res.Dir)
	}
	return err
}

// newSource returns the configured frame source.
func newSource(cfg config.Config) device.FrameSource {
	switch cfg.Input {
	case config.InputFile:
		return file.NewWith(cfg.Logger, cfg.InputPath, cfg.Loop)
	default:
		return mjpeg.NewFile(cfg.Logger, cfg.InputPath, cfg.FPS)
	}
}
