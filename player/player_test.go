/*
DESCRIPTION
  player_test.go provides testing for playback, playback controls and the
  MJPEG preview display.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package player

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/device/mjpeg"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// recorder is a Display remembering the level of the top left pixel of each
// frame shown.
type recorder struct {
	levels []int
	closed bool
}

func (r *recorder) Show(f *frame.Frame) error {
	b, _, _ := f.BGRAt(f.Rect.Min.X, f.Rect.Min.Y)
	r.levels = append(r.levels, int(b))
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

// newTestPlayer returns a player over n 8x8 gray frames at fps where frame i
// has level 10*i.
func newTestPlayer(t *testing.T, n int, fps float64, options ...Option) (*Player, *recorder) {
	t.Helper()
	fs := make([]*frame.Frame, n)
	for i := range fs {
		fs[i] = frame.New(image.Rect(0, 0, 8, 8), frame.Gray)
		for j := range fs[i].Pix {
			fs[i].Pix[j] = uint8(10 * i)
		}
	}
	src := device.NewManualInput(fps, fs...)
	src.Start()
	l := (*logging.TestLogger)(t)
	s, err := roi.NewSet(l, src)
	if err != nil {
		t.Fatalf("could not create set: %v", err)
	}
	rec := &recorder{}
	p, err := New(l, s, fps, append([]Option{Displays(rec), Idle(time.Millisecond)}, options...)...)
	if err != nil {
		t.Fatalf("could not create player: %v", err)
	}
	return p, rec
}

func TestTargetDelay(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{fps: 25, want: 40 * time.Millisecond},
		{fps: 30, want: 33333333 * time.Nanosecond},
		{fps: 2000, want: time.Millisecond},
		{fps: 0, want: time.Millisecond},
		{fps: -5, want: time.Millisecond},
	}
	for _, test := range tests {
		if got := TargetDelay(test.fps); got != test.want {
			t.Errorf("TargetDelay(%v): got %v want %v", test.fps, got, test.want)
		}
	}
}

func TestAdapt(t *testing.T) {
	const ms = time.Millisecond
	tests := []struct {
		target, actual, current, want time.Duration
	}{
		{target: 40 * ms, actual: 40 * ms, current: 30 * ms, want: 30 * ms},
		{target: 40 * ms, actual: 50 * ms, current: 30 * ms, want: 24 * ms},
		{target: 40 * ms, actual: 20 * ms, current: 30 * ms, want: 40 * ms},
		{target: 40 * ms, actual: 400 * ms, current: 5 * ms, want: ms},
		{target: 40 * ms, actual: 0, current: 30 * ms, want: 30 * ms},
	}
	for _, test := range tests {
		got := adapt(test.target, test.actual, test.current)
		if got != test.want {
			t.Errorf("adapt(%v, %v, %v): got %v want %v", test.target, test.actual, test.current, got, test.want)
		}
	}
}

func TestRun(t *testing.T) {
	var seen []int
	hook := func(f *frame.Frame, pos roi.Position) bool {
		seen = append(seen, pos.Frames)
		return false
	}
	p, rec := newTestPlayer(t, 5, 1000, OnFrame(hook))
	p.Play()
	err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Equal(rec.levels, []int{0, 10, 20, 30, 40}) {
		t.Errorf("unexpected frames shown: %v", rec.levels)
	}
	if !cmp.Equal(seen, []int{1, 2, 3, 4, 5}) {
		t.Errorf("unexpected hook positions: %v", seen)
	}
	if !rec.closed {
		t.Error("display not closed")
	}
	if p.Playing() {
		t.Error("still playing at end of capture")
	}
}

func TestRunStoppedByHook(t *testing.T) {
	hook := func(f *frame.Frame, pos roi.Position) bool { return pos.Frames == 3 }
	p, rec := newTestPlayer(t, 5, 1000, OnFrame(hook))
	p.Play()
	err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.levels) != 3 {
		t.Errorf("unexpected frames shown: %v", rec.levels)
	}
}

func TestLoop(t *testing.T) {
	var n int
	hook := func(*frame.Frame, roi.Position) bool {
		n++
		return n == 7
	}
	p, rec := newTestPlayer(t, 5, 1000, OnFrame(hook), Loop(true))
	p.Play()
	err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Equal(rec.levels, []int{0, 10, 20, 30, 40, 0, 10}) {
		t.Errorf("unexpected frames shown: %v", rec.levels)
	}
}

func TestRunCancelledWhilePaused(t *testing.T) {
	p, rec := newTestPlayer(t, 5, 25)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}
	if len(rec.levels) != 0 {
		t.Errorf("frames shown while paused: %v", rec.levels)
	}
}

func TestControls(t *testing.T) {
	p, rec := newTestPlayer(t, 8, 25)

	if !p.Toggle() || !p.Playing() {
		t.Error("toggle did not start playback")
	}
	p.Pause()

	err := p.SetPosition(5)
	if err != nil {
		t.Fatalf("could not set position: %v", err)
	}
	p.Backwards(true)
	for i := 0; i < 2; i++ {
		err = p.Step()
		if err != nil {
			t.Fatalf("could not step: %v", err)
		}
	}
	var pos roi.Position
	p.Do(func(s *roi.Set) error {
		pos, err = s.Position()
		return err
	})
	if pos.Frames != 3 {
		t.Errorf("unexpected position after stepping back: got %d want 3", pos.Frames)
	}

	err = p.Stop()
	if err != nil {
		t.Fatalf("could not stop: %v", err)
	}
	p.Play()
	err = p.Step()
	if err != nil {
		t.Fatalf("could not step: %v", err)
	}
	if p.Playing() {
		t.Error("backwards playback did not pause at first frame")
	}

	p.Backwards(false)
	err = p.Step()
	if err != nil {
		t.Fatalf("could not step: %v", err)
	}

	want := []int{40, 30, 20, 0, 10}
	if !cmp.Equal(rec.levels, want) {
		t.Errorf("unexpected frames shown:\n%s", cmp.Diff(want, rec.levels))
	}
}

func TestBrightness(t *testing.T) {
	p, rec := newTestPlayer(t, 4, 25)
	err := p.SetPosition(3)
	if err != nil {
		t.Fatalf("could not set position: %v", err)
	}
	p.Brighter()
	p.Brighter()
	p.Darker()
	p.ResetBrightness()

	want := []int{20, 30, 40, 30, 20}
	if !cmp.Equal(rec.levels, want) {
		t.Errorf("unexpected frames shown:\n%s", cmp.Diff(want, rec.levels))
	}
	p.Do(func(s *roi.Set) error {
		if s.Brightness() != 0 {
			t.Errorf("brightness not reset: %d", s.Brightness())
		}
		return nil
	})
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

func TestPreview(t *testing.T) {
	l := (*logging.TestLogger)(t)
	dst := &closeBuffer{}
	pv := NewPreview(l, dst)
	for i := 0; i < 3; i++ {
		f := frame.New(image.Rect(0, 0, 16, 8), frame.BGR)
		for x := 0; x < 16; x++ {
			for y := 0; y < 8; y++ {
				f.Set(x, y, frame.Color{B: uint8(60 * i), G: uint8(60 * i), R: uint8(60 * i)})
			}
		}
		err := pv.Show(f)
		if err != nil {
			t.Fatalf("could not show frame %d: %v", i, err)
		}
	}
	err := pv.Close()
	if err != nil {
		t.Fatalf("could not close preview: %v", err)
	}
	if !dst.closed {
		t.Error("destination not closed")
	}

	src := mjpeg.New(l, bytes.NewReader(dst.Bytes()), 25)
	err = src.Start()
	if err != nil {
		t.Fatalf("could not start mjpeg source: %v", err)
	}
	for i := 0; i < 3; i++ {
		f, err := src.Read()
		if err != nil {
			t.Fatalf("could not read frame %d: %v", i, err)
		}
		b, _, _ := f.BGRAt(8, 4)
		if d := int(b) - 60*i; d < -8 || d > 8 {
			t.Errorf("frame %d: unexpected level: got %d want %d", i, b, 60*i)
		}
	}
	_, err = src.Read()
	if err != io.EOF {
		t.Errorf("expected io.EOF after preview frames, got: %v", err)
	}
}
