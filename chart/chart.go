/*
DESCRIPTION
  chart.go plots the channel means collected by regions against capture time,
  marking the time each region was finished.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package chart renders plots of region samples.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/roitools/roi"
)

// Default plot dimensions.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// ErrNoData is returned when none of the regions have samples.
var ErrNoData = errors.New("no samples to plot")

var (
	blue  = color.RGBA{B: 255, A: 255}
	green = color.RGBA{G: 160, A: 255}
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
)

// New returns a plot of the blue, green and red means of every region against
// pos_msec. Each finished region gets a dashed vertical line at its end.
func New(title string, regions []*roi.Region) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "pos_msec"
	p.Y.Label.Text = "mean"
	p.Y.Min = 0
	p.Y.Max = 255

	var (
		n      int
		legend bool
	)
	for _, r := range regions {
		smp := r.Collected()
		if len(smp) == 0 {
			continue
		}
		n += len(smp)
		b, g, rd := make(plotter.XYs, len(smp)), make(plotter.XYs, len(smp)), make(plotter.XYs, len(smp))
		for j, s := range smp {
			b[j] = plotter.XY{X: s.Msec, Y: s.Color.B}
			g[j] = plotter.XY{X: s.Msec, Y: s.Color.G}
			rd[j] = plotter.XY{X: s.Msec, Y: s.Color.R}
		}
		lines := make([]*plotter.Line, 3)
		for k, ch := range []struct {
			xys plotter.XYs
			c   color.Color
		}{{b, blue}, {g, green}, {rd, red}} {
			l, err := plotter.NewLine(ch.xys)
			if err != nil {
				return nil, fmt.Errorf("could not create line for region %d: %w", r.ID(), err)
			}
			l.Color = ch.c
			l.Width = vg.Points(1)
			p.Add(l)
			lines[k] = l
		}
		if !legend {
			legend = true
			p.Legend.Add("blue_avg", lines[0])
			p.Legend.Add("green_avg", lines[1])
			p.Legend.Add("red_avg", lines[2])
		}

		end, ok := r.End()
		if !ok {
			continue
		}
		d, err := plotter.NewLine(plotter.XYs{{X: end.Msec, Y: p.Y.Min}, {X: end.Msec, Y: p.Y.Max}})
		if err != nil {
			return nil, fmt.Errorf("could not create end marker for region %d: %w", r.ID(), err)
		}
		d.Color = black
		d.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(d)
	}
	if n == 0 {
		return nil, ErrNoData
	}
	return p, nil
}

// WritePNG writes p to w as a PNG image of the given size.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("could not create plot writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save plots regions and writes the plot as a PNG image of the default size
// to the file at path.
func Save(path, title string, regions []*roi.Region) error {
	p, err := New(title, regions)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create plot file: %w", err)
	}
	err = WritePNG(f, p, DefaultWidth, DefaultHeight)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not write plot: %w", err)
	}
	return f.Close()
}
