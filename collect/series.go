/*
DESCRIPTION
  series.go provides Series, which saves every nth frame of a capture between
  two times as PNG images.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package collect

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/utils/logging"
)

// Name padding used when the number of frames in the series is unknown.
const defaultPad = 6

// SeriesFile returns the name of the image of the ith frame of a series, taken
// msec after the series start, with the index zero padded to pad digits.
func SeriesFile(i, pad int, msec float64) string {
	return fmt.Sprintf("%0*d_%s.png", pad, i, strconv.FormatFloat(msec, 'f', -1, 64))
}

// Series saves every step'th frame of src with a timestamp in [start, end]
// milliseconds to dir and returns the number of images saved. An end of zero
// continues to the end of the capture. Sources that cannot seek are read
// forward to start.
func Series(ctx context.Context, l logging.Logger, src device.FrameSource, dir string, start, end float64, step int) (int, error) {
	if step < 1 {
		step = 1
	}
	if end != 0 && end < start {
		return 0, fmt.Errorf("series end %v before start %v", end, start)
	}
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return 0, fmt.Errorf("could not create series directory: %w", err)
	}

	fps, err := src.Property(device.FPS)
	if err != nil {
		return 0, fmt.Errorf("could not get fps: %w", err)
	}

	err = src.SetProperty(device.PosMsec, start)
	if err != nil {
		l.Warning(pkg+"could not seek to series start, reading forward", "msec", start, "error", err)
	}
	first, err := src.Property(device.PosFrames)
	if err != nil {
		return 0, fmt.Errorf("could not get position: %w", err)
	}
	if t := device.Timestamp(int(first), fps); t != start {
		l.Info(pkg+"series start adjusted to frame boundary", "requested", start, "actual", t)
	}

	pad := seriesPad(src, int(first), end, fps, step)

	var saved int
	for i := 0; ; {
		select {
		case <-ctx.Done():
			return saved, ctx.Err()
		default:
		}

		f, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return saved, fmt.Errorf("could not read frame: %w", err)
		}
		_, msec, err := device.Position(src)
		if err != nil {
			return saved, err
		}
		if msec < start {
			continue
		}
		if end != 0 && msec > end {
			break
		}

		if i%step == 0 {
			name := filepath.Join(dir, SeriesFile(i, pad, msec-start))
			err = writePNG(name, f)
			if err != nil {
				return saved, err
			}
			saved++
		}
		i++
	}
	l.Info(pkg+"saved image series", "images", saved, "dir", dir)
	return saved, nil
}

// seriesPad returns the number of digits needed for the largest index of a
// series starting at frame first.
func seriesPad(src device.FrameSource, first int, end, fps float64, step int) int {
	var n int
	if end != 0 {
		n = int(end*fps/1000) + 1
	} else {
		c, err := src.Property(device.FrameCount)
		if err != nil || c <= 0 {
			return defaultPad
		}
		n = int(c)
	}
	last := n - first - 1
	if last < 0 {
		last = 0
	}
	return len(strconv.Itoa(last - last%step))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create image: %w", err)
	}
	err = png.Encode(f, img)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not encode image: %w", err)
	}
	return f.Close()
}
