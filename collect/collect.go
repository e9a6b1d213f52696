/*
DESCRIPTION
  collect.go provides Collector, which plays a capture through a region Set,
  registering and finishing regions according to a Plan, and writes the
  collected data to a results directory.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package collect runs batch collections over a capture and saves image
// series from it.
package collect

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ausocean/roitools/chart"
	"github.com/ausocean/roitools/config"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "collect: "

// ErrClosed is returned when using a Collector that has been closed.
var ErrClosed = errors.New("collector closed")

// Result file names.
const (
	SummaryFile = "regions.csv"
	MergedFile  = "all_rois.csv"
	OverlayFile = "all_rois.png"
	PlotFile    = "fig_autosave.png"
	PlanFile    = "plan.json"
)

// RecordFile returns the name of the record file of the region with id.
func RecordFile(id int) string { return fmt.Sprintf("roi_%d_out.csv", id) }

// MaskFile returns the name of the mask file of the region with id.
func MaskFile(id int) string { return fmt.Sprintf("roi_%d_mask.png", id) }

// ScreenshotFile returns the name of the screenshot taken at frame n.
func ScreenshotFile(n int) string { return fmt.Sprintf("frame_%d.png", n) }

// ResultDir returns the results directory for the capture at input, created
// at t. If out is empty the directory is placed next to the input.
func ResultDir(out, input string, t time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if out == "" {
		out = filepath.Dir(input)
	}
	return filepath.Join(out, name+"_analyzed_"+t.Format("2006-01-02_15h04m05s"))
}

// live is a registered region and the time it is due to be finished.
type live struct {
	r     *roi.Region
	death float64
}

// Result describes a completed collection.
type Result struct {
	Dir     string
	Regions []*roi.Region // Every region registered, ordered by id.
	Frames  int           // Frames read.
}

// Collector drives a Set through a capture following a Plan.
type Collector struct {
	cfg  config.Config
	log  logging.Logger
	set  *roi.Set
	plan *Plan
	dir  string

	mu      sync.Mutex
	pending []Entry // Ordered by birth.

	live    []live
	done    []*roi.Region
	frames  int
	shot    bool // Save a screenshot of the next frame.
	closed  bool
	palette roi.Palette
}

// New returns a new Collector writing results to dir, which is created if
// needed. The source of s should be positioned at the start of the capture.
func New(c config.Config, s *roi.Set, p *Plan, dir string) (*Collector, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("could not create results directory: %w", err)
	}
	return &Collector{
		cfg:     c,
		log:     c.Logger,
		set:     s,
		plan:    p,
		dir:     dir,
		pending: p.byBirth(),
		palette: c.Palette(),
	}, nil
}

// Dir returns the results directory.
func (c *Collector) Dir() string { return c.dir }

// Schedule adds entries to the plan while the collection is running. Entries
// whose birth has passed are registered on the next frame.
func (c *Collector) Schedule(entries ...Entry) error {
	p := Plan{Regions: entries}
	err := p.Validate()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan.Regions = append(c.plan.Regions, entries...)
	c.pending = append(c.pending, p.byBirth()...)
	sort.SliceStable(c.pending, func(i, j int) bool { return c.pending[i].Birth < c.pending[j].Birth })
	return nil
}

// Run reads frames until every planned region has been finished, the capture
// ends or ctx is cancelled, then closes the collection. Results are written
// even when Run returns an error.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}

		f, err := c.set.Advance()
		if errors.Is(err, roi.ErrStreamExhausted) {
			c.log.Info(pkg+"end of capture", "frames", c.frames)
			break
		}
		if err != nil {
			runErr = fmt.Errorf("could not advance: %w", err)
			break
		}
		pos, err := c.set.Position()
		if err != nil {
			runErr = fmt.Errorf("could not get position: %w", err)
			break
		}
		if c.Step(f, pos) {
			break
		}
	}

	res, err := c.Close()
	if runErr == nil {
		runErr = err
	}
	return res, runErr
}

// Step handles the frame f just read by the Set at pos. Planned regions due
// at pos are registered and sampled on f, and regions due to die are
// finished, exported and unregistered. Step returns true once every planned
// region has been finished, or if the Collector is closed.
func (c *Collector) Step(f *frame.Frame, pos roi.Position) bool {
	if c.closed {
		return true
	}
	c.frames++
	if c.shot {
		c.screenshot(f, pos.Frames)
		c.shot = false
	}
	c.births(pos)
	c.deaths(pos)

	if len(c.live) == 0 && c.remaining() == 0 {
		c.log.Info(pkg+"all planned regions finished", "frames", pos.Frames)
		return true
	}
	return false
}

// Close finishes the regions still active at the current position and
// writes the collection wide results. Later calls to Step do nothing and
// later calls to Export fail.
func (c *Collector) Close() (*Result, error) {
	if c.closed {
		return nil, ErrClosed
	}
	c.closed = true
	for _, l := range c.live {
		c.finish(l.r)
	}
	c.live = nil

	res := &Result{Dir: c.dir, Frames: c.frames, Regions: c.done}
	sort.Slice(res.Regions, func(i, j int) bool { return res.Regions[i].ID() < res.Regions[j].ID() })
	return res, c.save(res.Regions)
}

func (c *Collector) remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// births registers the regions due at pos and samples them on the current
// frame.
func (c *Collector) births(pos roi.Position) {
	c.mu.Lock()
	var due []Entry
	for len(c.pending) != 0 && pos.Msec >= c.pending[0].Birth {
		due = append(due, c.pending[0])
		c.pending = c.pending[1:]
	}
	c.mu.Unlock()

	for _, e := range due {
		spec := e.Spec
		if spec.DeltaIgnore == 0 {
			spec.DeltaIgnore = c.cfg.DeltaIgnore
		}
		r, err := c.set.Add(spec)
		if err != nil {
			c.log.Warning(pkg+"could not add planned region", "spec", spec.String(), "error", err)
			continue
		}
		_, _, err = c.set.SampleCurrent(r)
		if err != nil {
			c.log.Warning(pkg+"could not sample new region", "id", r.ID(), "error", err)
		}
		c.log.Info(pkg+"region born", "id", r.ID(), "frames", pos.Frames, "msec", pos.Msec)
		c.live = append(c.live, live{r: r, death: e.Death})
		if c.cfg.Screenshots {
			c.shot = true
		}
	}
}

// deaths finishes and exports the regions due at pos.
func (c *Collector) deaths(pos roi.Position) {
	keep := c.live[:0]
	for _, l := range c.live {
		if l.death == 0 || pos.Msec < l.death {
			keep = append(keep, l)
			continue
		}
		c.log.Info(pkg+"region died", "id", l.r.ID(), "frames", pos.Frames, "msec", pos.Msec)
		c.finish(l.r)
	}
	c.live = keep
}

// Export finishes and exports the live regions with the given ids, or every
// live region if none are given. No region is finished if any id is not
// live. Exported regions stay registered, finished, unless DeleteExported is
// set.
func (c *Collector) Export(ids ...int) error {
	if c.closed {
		return ErrClosed
	}
	if len(ids) == 0 {
		for _, l := range c.live {
			ids = append(ids, l.r.ID())
		}
	}
	if len(ids) == 0 {
		return roi.ErrEmptySelection
	}
	for _, id := range ids {
		if c.liveIndex(id) < 0 {
			return fmt.Errorf("could not export region %d: %w", id, roi.ErrUnknownRegion)
		}
	}
	err := c.set.Finish(c.cfg.SwapInverted, ids...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		i := c.liveIndex(id)
		r := c.live[i].r
		c.live = append(c.live[:i], c.live[i+1:]...)
		c.complete(r, c.cfg.DeleteExported)
	}
	return nil
}

func (c *Collector) liveIndex(id int) int {
	for i, l := range c.live {
		if l.r.ID() == id {
			return i
		}
	}
	return -1
}

// finish finishes r at the current position, exports its record and
// unregisters it.
func (c *Collector) finish(r *roi.Region) {
	err := c.set.Finish(c.cfg.SwapInverted, r.ID())
	if err != nil {
		c.log.Error(pkg+"could not finish region", "id", r.ID(), "error", err)
	}
	c.complete(r, true)
}

// complete adds the finished region r to the results and exports it. Export
// failures are logged and do not stop the collection.
func (c *Collector) complete(r *roi.Region, unregister bool) {
	c.done = append(c.done, r)
	st := r.Stats()
	c.log.Info(pkg+"region finished", "id", r.ID(), "samples", st.N,
		"mean", fmt.Sprintf("%.2f,%.2f,%.2f", st.Mean.B, st.Mean.G, st.Mean.R),
		"stddev", fmt.Sprintf("%.2f,%.2f,%.2f", st.StdDev.B, st.StdDev.G, st.StdDev.R))

	err := c.export(r)
	if err != nil {
		c.log.Error(pkg+"could not export region", "id", r.ID(), "error", err)
	}

	if !unregister {
		return
	}
	err = c.set.Unregister(r.ID())
	if err != nil {
		c.log.Warning(pkg+"could not unregister region", "id", r.ID(), "error", err)
	}
}

func (c *Collector) export(r *roi.Region) error {
	err := c.create(RecordFile(r.ID()), func(f *os.File) error { return r.Export(f) })
	if err != nil {
		return err
	}
	if r.Kind() != roi.Circle {
		return nil
	}
	return c.create(MaskFile(r.ID()), func(f *os.File) error { return r.WriteMask(f) })
}

func (c *Collector) screenshot(f *frame.Frame, n int) {
	err := c.create(ScreenshotFile(n), func(w *os.File) error { return png.Encode(w, f) })
	if err != nil {
		c.log.Warning(pkg+"could not save screenshot", "frames", n, "error", err)
	}
}

// create creates the named file in the results directory and writes it with
// write.
func (c *Collector) create(name string, write func(*os.File) error) error {
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", name, err)
	}
	err = write(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close %s: %w", name, err)
	}
	c.log.Debug(pkg+"wrote file", "path", path)
	return nil
}

// save writes the collection wide results. Every file is attempted and the
// first error is returned.
func (c *Collector) save(regions []*roi.Region) error {
	var errs []error

	err := c.create(SummaryFile, func(f *os.File) error { return roi.WriteSummary(f, regions) })
	switch {
	case errors.Is(err, roi.ErrEmptySelection):
		os.Remove(filepath.Join(c.dir, SummaryFile))
	case err != nil:
		errs = append(errs, err)
	}

	errs = append(errs, c.create(MergedFile, func(f *os.File) error { return writeMerged(f, regions) }))

	c.mu.Lock()
	errs = append(errs, c.create(PlanFile, func(f *os.File) error { return c.plan.Write(f) }))
	c.mu.Unlock()

	if last := c.set.Latest(); last != nil {
		overlay := last.Clone()
		for _, r := range regions {
			r.Render(overlay, c.palette)
		}
		errs = append(errs, c.create(OverlayFile, func(f *os.File) error { return png.Encode(f, overlay) }))
	}

	if c.cfg.Plot {
		err = chart.Save(filepath.Join(c.dir, PlotFile), c.set.Capture().Title, regions)
		if err != nil && !errors.Is(err, chart.ErrNoData) {
			errs = append(errs, fmt.Errorf("could not save plot: %w", err))
		}
	}

	for _, err := range errs {
		if err != nil {
			c.log.Error(pkg+"could not save results", "error", err)
			return err
		}
	}
	return nil
}

// MergedColumns is the column header of the merged table.
var MergedColumns = append([]string{"roi_id"}, roi.Columns...)

func writeMerged(f *os.File, regions []*roi.Region) error {
	cw := csv.NewWriter(f)
	err := cw.Write(MergedColumns)
	if err != nil {
		return err
	}
	for _, r := range regions {
		id := strconv.Itoa(r.ID())
		for _, s := range r.Collected() {
			err = cw.Write([]string{
				id,
				strconv.Itoa(s.Frames),
				strconv.FormatFloat(s.Msec, 'g', -1, 64),
				strconv.FormatFloat(s.Color.B, 'g', -1, 64),
				strconv.FormatFloat(s.Color.G, 'g', -1, 64),
				strconv.FormatFloat(s.Color.R, 'g', -1, 64),
			})
			if err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
