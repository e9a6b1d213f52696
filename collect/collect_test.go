/*
DESCRIPTION
  collect_test.go provides testing for planned collections and image series.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package collect

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/roitools/config"
	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// capture returns an in-memory source of n 16x16 frames at 25 fps where frame
// i has every channel set to 10*i.
func capture(n int) *device.ManualInput {
	fs := make([]*frame.Frame, n)
	for i := range fs {
		fs[i] = frame.New(image.Rect(0, 0, 16, 16), frame.BGR)
		v := uint8(10 * i)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				fs[i].Set(x, y, frame.Color{B: v, G: v, R: v})
			}
		}
	}
	src := device.NewManualInput(25, fs...)
	src.Start()
	return src
}

func newCollector(t *testing.T, cfg config.Config, src device.FrameSource, p *Plan, options ...roi.Option) *Collector {
	t.Helper()
	cfg.Logger = (*logging.TestLogger)(t)
	s, err := roi.NewSet(cfg.Logger, src, append([]roi.Option{roi.Title("tank")}, options...)...)
	if err != nil {
		t.Fatalf("could not create set: %v", err)
	}
	c, err := New(cfg, s, p, filepath.Join(t.TempDir(), "results"))
	if err != nil {
		t.Fatalf("could not create collector: %v", err)
	}
	return c
}

func files(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("could not read results: %v", err)
	}
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRun(t *testing.T) {
	p := &Plan{Regions: []Entry{
		{Spec: roi.Circ(image.Pt(8, 8), 3, "late", 0), Birth: 100},
		{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "early", 0), Birth: 0, Death: 120},
	}}
	c := newCollector(t, config.Config{Screenshots: true, Plot: true}, capture(10), p)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run collection: %v", err)
	}
	if res.Frames != 10 {
		t.Errorf("unexpected frames read: got %d want 10", res.Frames)
	}
	if len(res.Regions) != 2 {
		t.Fatalf("unexpected regions: got %d want 2", len(res.Regions))
	}

	early, late := res.Regions[0], res.Regions[1]
	if early.Description() != "early" || late.Description() != "late" {
		t.Fatalf("regions not registered in birth order: %v, %v", early.Spec(), late.Spec())
	}

	type span struct{ Start, End roi.Position }
	got := []span{{Start: early.Start()}, {Start: late.Start()}}
	got[0].End, _ = early.End()
	got[1].End, _ = late.End()
	want := []span{
		{Start: roi.Position{Frames: 1, Msec: 0}, End: roi.Position{Frames: 4, Msec: 120}},
		{Start: roi.Position{Frames: 4, Msec: 120}, End: roi.Position{Frames: 10, Msec: 360}},
	}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected lifetimes:\n%s", cmp.Diff(want, got))
	}

	if n := len(early.Collected()); n != 4 {
		t.Errorf("unexpected early sample count: got %d want 4", n)
	}
	smp := late.Collected()
	if len(smp) != 7 {
		t.Fatalf("unexpected late sample count: got %d want 7", len(smp))
	}
	if smp[0].Frames != 4 || smp[0].Color.B != 30 {
		t.Errorf("new region not sampled on its birth frame: %+v", smp[0])
	}

	wantFiles := []string{
		MergedFile,
		OverlayFile,
		PlotFile,
		ScreenshotFile(2),
		ScreenshotFile(5),
		PlanFile,
		SummaryFile,
		RecordFile(1),
		MaskFile(2),
		RecordFile(2),
	}
	sort.Strings(wantFiles)
	if got := files(t, res.Dir); !cmp.Equal(got, wantFiles) {
		t.Errorf("unexpected result files:\n%s", cmp.Diff(wantFiles, got))
	}

	b, err := os.ReadFile(filepath.Join(res.Dir, MergedFile))
	if err != nil {
		t.Fatalf("could not read merged table: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("could not parse merged table: %v", err)
	}
	if len(rows) != 12 {
		t.Errorf("unexpected merged rows: got %d want 12", len(rows))
	}
	if !cmp.Equal(rows[0], MergedColumns) || rows[1][0] != "1" || rows[11][0] != "2" {
		t.Errorf("unexpected merged table:\n%s", b)
	}

	f, err := os.Open(filepath.Join(res.Dir, RecordFile(1)))
	if err != nil {
		t.Fatalf("could not open record: %v", err)
	}
	defer f.Close()
	rec, err := roi.ReadRecord(f)
	if err != nil {
		t.Fatalf("could not read record: %v", err)
	}
	if rec.Header[roi.KeyEndFrames] != "4" || len(rec.Samples) != 4 {
		t.Errorf("unexpected record: %v, %d samples", rec.Header, len(rec.Samples))
	}
}

func TestRunStopsWhenPlanDone(t *testing.T) {
	p := &Plan{Regions: []Entry{
		{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "", 0), Death: 80},
	}}
	c := newCollector(t, config.Config{}, capture(10), p)
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run collection: %v", err)
	}
	if res.Frames != 3 {
		t.Errorf("unexpected frames read: got %d want 3", res.Frames)
	}
	if c.set.Len() != 0 {
		t.Errorf("dead region not unregistered")
	}
	for _, name := range files(t, res.Dir) {
		if strings.HasPrefix(name, "frame_") || name == PlotFile {
			t.Errorf("unexpected result file: %s", name)
		}
	}
}

func TestRunSequentialBeyondCapacity(t *testing.T) {
	var p Plan
	for i := 0; i < 4; i++ {
		birth := float64(40 * i)
		p.Regions = append(p.Regions, Entry{
			Spec:  roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "", 0),
			Birth: birth,
			Death: birth + 40,
		})
	}
	c := newCollector(t, config.Config{}, capture(8), &p, roi.MaxRegions(2))
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run collection: %v", err)
	}
	if len(res.Regions) != len(p.Regions) {
		t.Fatalf("unexpected regions collected: got %d want %d", len(res.Regions), len(p.Regions))
	}
	for i, r := range res.Regions {
		if n := len(r.Collected()); n != 2 {
			t.Errorf("region %d: unexpected sample count: got %d want 2", r.ID(), n)
		}
		if _, err := os.Stat(filepath.Join(res.Dir, RecordFile(i+1))); err != nil {
			t.Errorf("record not exported: %v", err)
		}
	}
	if c.set.Len() != 0 {
		t.Errorf("dead regions still registered: %d", c.set.Len())
	}
}

func TestExport(t *testing.T) {
	for _, del := range []bool{false, true} {
		p := &Plan{Regions: []Entry{
			{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "a", 0)},
			{Spec: roi.Rect(image.Pt(4, 4), image.Pt(7, 7), "b", 0)},
		}}
		c := newCollector(t, config.Config{DeleteExported: del}, capture(6), p)
		f, err := c.set.Advance()
		if err != nil {
			t.Fatalf("could not advance: %v", err)
		}
		pos, _ := c.set.Position()
		if c.Step(f, pos) {
			t.Fatal("collection done with regions live")
		}

		err = c.Export(1, 9)
		if !errors.Is(err, roi.ErrUnknownRegion) {
			t.Errorf("expected ErrUnknownRegion, got: %v", err)
		}
		err = c.Export(1, 1)
		if !errors.Is(err, roi.ErrAlreadyFinished) {
			t.Errorf("expected ErrAlreadyFinished for repeated id, got: %v", err)
		}
		r, err := c.set.Region(1)
		if err != nil || r.Finished() {
			t.Fatalf("region 1 changed by failed export: %v", err)
		}

		err = c.Export(1)
		if err != nil {
			t.Fatalf("could not export: %v", err)
		}
		if _, err := os.Stat(filepath.Join(c.Dir(), RecordFile(1))); err != nil {
			t.Errorf("record not written: %v", err)
		}
		_, err = c.set.Region(1)
		if registered := err == nil; registered == del {
			t.Errorf("DeleteExported %v: unexpected registration: %v", del, registered)
		}

		err = c.Export()
		if err != nil {
			t.Fatalf("could not export remaining regions: %v", err)
		}
		if !c.Step(f, pos) {
			t.Error("collection not done after exporting every region")
		}
		err = c.Export()
		if !errors.Is(err, roi.ErrEmptySelection) {
			t.Errorf("expected ErrEmptySelection, got: %v", err)
		}
	}
}

func TestClosed(t *testing.T) {
	p := &Plan{Regions: []Entry{{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "", 0)}}}
	c := newCollector(t, config.Config{}, capture(4), p)
	f, err := c.set.Advance()
	if err != nil {
		t.Fatalf("could not advance: %v", err)
	}
	pos, _ := c.set.Position()
	c.Step(f, pos)

	res, err := c.Close()
	if err != nil {
		t.Fatalf("could not close: %v", err)
	}
	if len(res.Regions) != 1 || res.Frames != 1 {
		t.Fatalf("unexpected result: %d regions, %d frames", len(res.Regions), res.Frames)
	}

	f, err = c.set.Advance()
	if err != nil {
		t.Fatalf("could not advance: %v", err)
	}
	pos, _ = c.set.Position()
	if !c.Step(f, pos) {
		t.Error("step after close did not report done")
	}
	if c.frames != 1 || len(c.done) != 1 {
		t.Errorf("step after close changed collection: frames %d, done %d", c.frames, len(c.done))
	}
	if err := c.Export(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from export, got: %v", err)
	}
	if _, err := c.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from second close, got: %v", err)
	}
}

func TestRunDeltaIgnore(t *testing.T) {
	p := &Plan{Regions: []Entry{
		{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "", 0)},
		{Spec: roi.Rect(image.Pt(4, 4), image.Pt(7, 7), "", 1)},
	}}
	c := newCollector(t, config.Config{DeltaIgnore: 25}, capture(6), p)
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run collection: %v", err)
	}
	// Levels 0, 10, ..., 50 with the config delta of 25 keep 0, 30.
	if n := len(res.Regions[0].Collected()); n != 2 {
		t.Errorf("unexpected sample count with config delta: got %d want 2", n)
	}
	if n := len(res.Regions[1].Collected()); n != 6 {
		t.Errorf("unexpected sample count with region delta: got %d want 6", n)
	}
}

func TestRunCancelled(t *testing.T) {
	p := &Plan{Regions: []Entry{{Spec: roi.Rect(image.Pt(0, 0), image.Pt(3, 3), "", 0)}}}
	c := newCollector(t, config.Config{}, capture(4), p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(res.Dir, PlanFile)); err != nil {
		t.Errorf("plan not saved after cancel: %v", err)
	}
}

func TestSchedule(t *testing.T) {
	p := &Plan{}
	c := newCollector(t, config.Config{}, capture(4), p)
	err := c.Schedule(Entry{Spec: roi.Circ(image.Pt(4, 4), -1, "", 0)})
	if !errors.Is(err, roi.ErrDimension) {
		t.Errorf("expected ErrDimension, got: %v", err)
	}
	err = c.Schedule(Entry{Spec: roi.Rect(image.Pt(0, 0), image.Pt(1, 1), "", 0), Birth: 40})
	if err != nil {
		t.Fatalf("could not schedule: %v", err)
	}
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("could not run collection: %v", err)
	}
	if len(res.Regions) != 1 || res.Regions[0].Start().Frames != 2 {
		t.Errorf("scheduled region not registered at frame 2: %v", res.Regions)
	}
	if len(p.Regions) != 1 {
		t.Errorf("scheduled entry not added to plan")
	}
}

func TestReadPlan(t *testing.T) {
	const in = `{"regions": [
		{"spec": "Circle((10, 10), 4, \"eye\", 0)", "birth": 500, "death": 2000},
		{"spec": "Rectangle((0, 0), (5, 5))", "birth": 0}
	]}`
	p, err := ReadPlan(strings.NewReader(in))
	if err != nil {
		t.Fatalf("could not read plan: %v", err)
	}
	want := &Plan{Regions: []Entry{
		{Spec: roi.Circ(image.Pt(10, 10), 4, "eye", 0), Birth: 500, Death: 2000},
		{Spec: roi.Rect(image.Pt(0, 0), image.Pt(5, 5), roi.DefaultDescription, 0)},
	}}
	if !cmp.Equal(p, want) {
		t.Errorf("unexpected plan:\n%s", cmp.Diff(want, p))
	}
	if got := p.byBirth(); got[0].Birth != 0 {
		t.Errorf("entries not ordered by birth: %v", got)
	}

	var buf bytes.Buffer
	err = p.Write(&buf)
	if err != nil {
		t.Fatalf("could not write plan: %v", err)
	}
	again, err := ReadPlan(&buf)
	if err != nil {
		t.Fatalf("could not reread plan: %v", err)
	}
	if !cmp.Equal(again, p) {
		t.Errorf("plan changed by rewrite:\n%s", cmp.Diff(p, again))
	}

	bad := []string{
		`{"regions": [{"spec": "Rectangle((0, 0), (5, 5))", "birth": 100, "death": 50}]}`,
		`{"regions": [{"spec": "Rectangle((0, 0), (5, 5))", "birth": -1}]}`,
		`{"regions": [{"spec": "Circle((0, 0), -5)", "birth": 0}]}`,
		`{"regions": [{"spec": "Rectangle((0, 0), (5, 5))", "start": 0}]}`,
		`{"regions": `,
	}
	for _, in := range bad {
		_, err := ReadPlan(strings.NewReader(in))
		if err == nil {
			t.Errorf("expected error for plan %s", in)
		}
	}
}

func TestResultDir(t *testing.T) {
	ts := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)
	tests := []struct {
		out, input, want string
	}{
		{"", "/data/tank3.avi", "/data/tank3_analyzed_2024-03-07_14h05m09s"},
		{"/results", "/data/tank3.mjpeg", "/results/tank3_analyzed_2024-03-07_14h05m09s"},
		{"", "clip", "clip_analyzed_2024-03-07_14h05m09s"},
	}
	for _, test := range tests {
		got := ResultDir(test.out, test.input, ts)
		if got != test.want {
			t.Errorf("ResultDir(%q, %q): got %q want %q", test.out, test.input, got, test.want)
		}
	}
}

// unseekable wraps a ManualInput, refusing to change position.
type unseekable struct{ *device.ManualInput }

func (unseekable) SetProperty(p device.Prop, v float64) error { return device.ErrUnsupportedProp }

func TestSeries(t *testing.T) {
	tests := []struct {
		name string
		src  device.FrameSource
	}{
		{name: "seekable", src: capture(10)},
		{name: "unseekable", src: unseekable{capture(10)}},
	}
	want := []string{"0_0.png", "2_80.png", "4_160.png", "6_240.png"}
	for _, test := range tests {
		dir := filepath.Join(t.TempDir(), "series")
		n, err := Series(context.Background(), (*logging.TestLogger)(t), test.src, dir, 40, 280, 2)
		if err != nil {
			t.Errorf("%s: could not save series: %v", test.name, err)
			continue
		}
		if n != len(want) {
			t.Errorf("%s: unexpected image count: got %d want %d", test.name, n, len(want))
		}
		if got := files(t, dir); !cmp.Equal(got, want) {
			t.Errorf("%s: unexpected images:\n%s", test.name, cmp.Diff(want, got))
		}
	}

	_, err := Series(context.Background(), (*logging.TestLogger)(t), capture(2), t.TempDir(), 100, 50, 1)
	if err == nil {
		t.Error("expected error for end before start")
	}
}

func TestSeriesFile(t *testing.T) {
	if got := SeriesFile(7, 4, 1000.0/3); got != "0007_333.3333333333333.png" {
		t.Errorf("unexpected series file name: %s", got)
	}
}
