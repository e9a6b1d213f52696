/*
DESCRIPTION
  player.go provides Player, which drives a region Set through a capture at
  the capture's frame rate and shows each frame on a set of displays.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package player provides real time playback of a capture through a region
// Set, with playback controls and frame displays.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/roitools/roi"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "player: "

// Playback defaults.
const (
	DefaultIdle    = 100 * time.Millisecond
	BrightnessStep = 10
	minDelay       = time.Millisecond
)

// ErrNoOpenCV is returned when a window display is requested from a build
// without OpenCV support.
var ErrNoOpenCV = errors.New("window display requires a withcv build")

// Display shows frames.
type Display interface {
	Show(f *frame.Frame) error
	Close() error
}

// FrameFunc is called with every frame read during playback and the position
// it was read at. Playback stops when it returns true.
type FrameFunc func(f *frame.Frame, pos roi.Position) (stop bool)

// Option describes a function that will apply an option to a Player.
type Option func(p *Player) error

// Displays adds displays that every shown frame is sent to.
func Displays(ds ...Display) Option {
	return func(p *Player) error {
		for _, d := range ds {
			if d == nil {
				return errors.New("nil display")
			}
		}
		p.displays = append(p.displays, ds...)
		return nil
	}
}

// Idle sets the delay between checks for play while paused.
func Idle(d time.Duration) Option {
	return func(p *Player) error {
		if d <= 0 {
			return fmt.Errorf("invalid idle delay: %v", d)
		}
		p.idle = d
		return nil
	}
}

// Loop restarts playback from the first frame at the end of the capture.
func Loop(l bool) Option {
	return func(p *Player) error {
		p.loop = l
		return nil
	}
}

// OnFrame adds a function called with every frame read.
func OnFrame(fn FrameFunc) Option {
	return func(p *Player) error {
		p.hooks = append(p.hooks, fn)
		return nil
	}
}

// Player plays a capture through a Set. Playback and every control hold a
// single lock around the Set; use Do to change regions during playback.
type Player struct {
	mu  sync.Mutex
	log logging.Logger
	set *roi.Set

	displays []Display
	hooks    []FrameFunc

	target time.Duration // Frame period of the capture.
	delay  time.Duration // Current sleep between frames.
	idle   time.Duration

	playing   bool
	backwards bool
	loop      bool
	stopped   bool // Set when a hook stops playback.
}

// New returns a new paused Player for s, whose source plays at fps frames
// per second.
func New(l logging.Logger, s *roi.Set, fps float64, options ...Option) (*Player, error) {
	p := &Player{
		log:    l,
		set:    s,
		target: TargetDelay(fps),
		idle:   DefaultIdle,
	}
	p.delay = p.target
	for _, op := range options {
		err := op(p)
		if err != nil {
			return nil, fmt.Errorf("could not action Option: %w", err)
		}
	}
	p.log.Debug(pkg+"created player", "target", p.target, "displays", len(p.displays))
	return p, nil
}

// TargetDelay returns the frame period for fps, and no less than a
// millisecond.
func TargetDelay(fps float64) time.Duration {
	if fps <= 0 {
		return minDelay
	}
	d := time.Duration(float64(time.Second) / fps)
	if d < minDelay {
		return minDelay
	}
	return d
}

// adapt scales the current delay by how far the last frame period, actual,
// was from target. The result is kept within [minDelay, target].
func adapt(target, actual, current time.Duration) time.Duration {
	if actual <= 0 {
		return current
	}
	d := time.Duration(float64(current) * float64(target) / float64(actual))
	switch {
	case d < minDelay:
		return minDelay
	case d > target:
		return target
	}
	return d
}

// Run plays until ctx is cancelled, a FrameFunc stops playback or the
// capture ends without Loop set. While paused Run idles. Displays are closed
// when Run returns.
func (p *Player) Run(ctx context.Context) error {
	defer p.closeDisplays()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.mu.Lock()
		if !p.playing {
			p.mu.Unlock()
			time.Sleep(p.idle)
			last = time.Now()
			continue
		}
		err := p.tick()
		stopped := p.stopped
		p.mu.Unlock()

		switch {
		case errors.Is(err, roi.ErrStreamExhausted):
			if !p.restart() {
				p.log.Info(pkg + "end of capture")
				return nil
			}
		case err != nil:
			return err
		case stopped:
			p.log.Info(pkg + "playback stopped")
			return nil
		}

		time.Sleep(p.delay)
		now := time.Now()
		p.delay = adapt(p.target, now.Sub(last), p.delay)
		last = now
	}
}

// restart rewinds to the first frame if looping.
func (p *Player) restart() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loop {
		p.playing = false
		return false
	}
	err := p.set.Seek(0)
	if err != nil {
		p.log.Error(pkg+"could not restart capture", "error", err)
		p.playing = false
		return false
	}
	p.log.Debug(pkg + "looping capture")
	return true
}

// tick reads and shows one frame in the current direction. Backwards
// playback pauses at the first frame. The lock must be held.
func (p *Player) tick() error {
	if p.backwards {
		pos, err := p.set.Position()
		if err != nil {
			return err
		}
		if pos.Frames < 2 {
			p.playing = false
			return nil
		}
		err = p.set.Seek(pos.Frames - 2)
		if err != nil {
			return err
		}
	}
	f, err := p.set.Advance()
	if err != nil {
		return err
	}
	pos, err := p.set.Position()
	if err != nil {
		return err
	}
	for _, fn := range p.hooks {
		if fn(f, pos) {
			p.stopped = true
		}
	}
	p.show(f)
	return nil
}

// show sends f to every display. Display errors are logged.
func (p *Player) show(f *frame.Frame) {
	if f == nil {
		return
	}
	for _, d := range p.displays {
		err := d.Show(f)
		if err != nil {
			p.log.Warning(pkg+"could not show frame", "error", err)
		}
	}
}

func (p *Player) closeDisplays() {
	for _, d := range p.displays {
		err := d.Close()
		if err != nil {
			p.log.Warning(pkg+"could not close display", "error", err)
		}
	}
}

// Do runs fn on the Set with the playback lock held.
func (p *Player) Do(fn func(s *roi.Set) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.set)
}

// Play starts playback.
func (p *Player) Play() { p.setPlaying(true) }

// Pause pauses playback.
func (p *Player) Pause() { p.setPlaying(false) }

func (p *Player) setPlaying(b bool) {
	p.mu.Lock()
	p.playing = b
	p.mu.Unlock()
	p.log.Debug(pkg+"set playing", "playing", b)
}

// Toggle switches between playing and paused and returns true if now
// playing.
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	return p.playing
}

// Playing returns true if playback is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Backwards sets the playback direction.
func (p *Player) Backwards(b bool) {
	p.mu.Lock()
	p.backwards = b
	p.mu.Unlock()
}

// Step reads and shows a single frame in the current direction.
func (p *Player) Step() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick()
}

// Stop pauses playback and shows the first frame.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return p.seek(1)
}

// SetPosition shows frame n-1, so that the position after the call is n.
func (p *Player) SetPosition(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seek(n)
}

func (p *Player) seek(n int) error {
	err := p.set.Seek(n - 1)
	if err != nil {
		return err
	}
	f, err := p.set.Advance()
	if err != nil {
		return err
	}
	p.show(f)
	return nil
}

// Brighter raises the brightness offset by BrightnessStep.
func (p *Player) Brighter() { p.adjustBrightness(func(b int) int { return b + BrightnessStep }) }

// Darker lowers the brightness offset by BrightnessStep.
func (p *Player) Darker() { p.adjustBrightness(func(b int) int { return b - BrightnessStep }) }

// ResetBrightness sets the brightness offset to zero.
func (p *Player) ResetBrightness() { p.adjustBrightness(func(int) int { return 0 }) }

// adjustBrightness changes the brightness offset and redraws the latest
// frame with it.
func (p *Player) adjustBrightness(fn func(int) int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set.SetBrightness(fn(p.set.Brightness()))
	p.show(p.set.Redraw())
}

// Redraw shows the latest frame again with the current regions and
// adjustment.
func (p *Player) Redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.show(p.set.Redraw())
}
