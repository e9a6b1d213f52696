/*
DESCRIPTION
  set.go provides Set, a collection of regions attached to a FrameSource.
  Each call to Advance reads a frame, samples every active region and then
  draws every active region onto a copy of the frame.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package roi provides regions of interest over video frames, the sampling of
// their mean colour, and the export of the samples they collect.
package roi

import (
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "roi: "

// DefaultMaxRegions is the default maximum number of regions in a Set.
const DefaultMaxRegions = 100

// Brightness and contrast limits.
const (
	MinBrightness = -255
	MaxBrightness = 255
	MinContrast   = 0
)

// BoundsPolicy decides how regions extending past the frame are treated.
type BoundsPolicy int

// Bounds policies.
const (
	// Clip accepts regions that overlap the frame; pixels outside the frame
	// are ignored when sampling.
	Clip BoundsPolicy = iota

	// Reject refuses regions whose bounding box is not wholly inside the frame.
	Reject
)

func (b BoundsPolicy) String() string {
	switch b {
	case Clip:
		return "clip"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("BoundsPolicy(%d)", int(b))
	}
}

// Option describes a function that will apply an option to a Set.
type Option func(s *Set) error

// MaxRegions sets the maximum number of regions a Set may hold.
func MaxRegions(n int) Option {
	return func(s *Set) error {
		if n <= 0 {
			return fmt.Errorf("invalid max regions: %d", n)
		}
		s.max = n
		return nil
	}
}

// Bounds sets the policy for regions extending past the frame.
func Bounds(b BoundsPolicy) Option {
	return func(s *Set) error {
		if b != Clip && b != Reject {
			return fmt.Errorf("invalid bounds policy: %v", b)
		}
		s.bounds = b
		return nil
	}
}

// Colors sets the palette regions are drawn with.
func Colors(p Palette) Option {
	return func(s *Set) error {
		s.palette = p
		return nil
	}
}

// Title sets the capture title recorded in exported records.
func Title(t string) Option {
	return func(s *Set) error {
		s.capture.Title = t
		return nil
	}
}

// File sets the capture file recorded in exported records.
func File(path string) Option {
	return func(s *Set) error {
		s.capture.File = path
		return nil
	}
}

// Set is a collection of regions observing a FrameSource. Set is not safe for
// concurrent use; callers driving Advance from one goroutine and changing
// regions from another must serialise access.
type Set struct {
	log     logging.Logger
	src     device.FrameSource
	ids     *IDAllocator
	regions map[int]*Region
	max     int
	bounds  BoundsPolicy
	palette Palette
	capture Capture

	latest  *frame.Frame // Last frame read, unmodified.
	display *frame.Frame // Adjusted copy of latest with regions drawn.

	brightness int
	contrast   float64

	idx *index // Nil when stale.
}

// NewSet returns a new Set reading from src, which should already be started.
func NewSet(l logging.Logger, src device.FrameSource, options ...Option) (*Set, error) {
	s := &Set{
		log:      l,
		src:      src,
		ids:      NewIDAllocator(),
		regions:  make(map[int]*Region),
		max:      DefaultMaxRegions,
		palette:  DefaultPalette,
		contrast: 1,
	}
	for _, op := range options {
		err := op(s)
		if err != nil {
			return nil, fmt.Errorf("could not action Option: %w", err)
		}
	}
	fps, err := src.Property(device.FPS)
	if err != nil {
		s.log.Warning(pkg+"could not get fps of source", "error", err)
	}
	s.capture.FPS = fps
	if s.capture.Title == "" {
		s.capture.Title = src.Name()
	}
	return s, nil
}

// Capture returns the details of the capture recorded in exported records.
func (s *Set) Capture() Capture { return s.capture }

// New returns a new unregistered region built from spec with the next id.
// Invalid specs fail without consuming an id.
func (s *Set) New(spec Spec) (*Region, error) {
	err := spec.Validate()
	if err != nil {
		return nil, err
	}
	return NewRegion(s.ids.Next(), spec)
}

// Add builds a region from spec and registers it.
func (s *Set) Add(spec Spec) (*Region, error) {
	r, err := s.New(spec)
	if err != nil {
		return nil, err
	}
	_, err = s.Register(r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds r to the set and records the current position as its start.
// The set is unchanged if an error is returned.
func (s *Set) Register(r *Region) (int, error) {
	if r.registered {
		return 0, fmt.Errorf("region %d already registered", r.id)
	}
	if _, ok := s.regions[r.id]; ok {
		return 0, fmt.Errorf("duplicate region id %d", r.id)
	}
	if len(s.regions) >= s.max {
		return 0, fmt.Errorf("could not register region %d: %w (%d)", r.id, ErrCapacityExceeded, s.max)
	}
	err := s.checkBounds(r)
	if err != nil {
		return 0, err
	}
	pos, err := s.Position()
	if err != nil {
		return 0, fmt.Errorf("could not get start position: %w", err)
	}

	r.set = s
	r.capture = s.capture
	r.registered = true
	r.start = pos
	s.regions[r.id] = r
	s.idx = nil
	s.log.Debug(pkg+"registered region", "id", r.id, "spec", r.spec.String(), "frames", pos.Frames)
	return r.id, nil
}

// checkBounds applies the bounds policy to r. Frames of unknown size accept
// any region.
func (s *Set) checkBounds(r *Region) error {
	fb := s.frameBounds()
	if fb.Empty() {
		return nil
	}
	switch s.bounds {
	case Reject:
		if !r.bounds.In(fb) {
			return fmt.Errorf("region %d %v not inside frame %v: %w", r.id, r.bounds, fb, ErrOutOfBounds)
		}
	default:
		if !r.bounds.Overlaps(fb) {
			return fmt.Errorf("region %d %v does not overlap frame %v: %w", r.id, r.bounds, fb, ErrOutOfBounds)
		}
	}
	return nil
}

func (s *Set) frameBounds() image.Rectangle {
	if s.latest != nil {
		return s.latest.Bounds()
	}
	w, err := s.src.Property(device.FrameWidth)
	if err != nil {
		return image.Rectangle{}
	}
	h, err := s.src.Property(device.FrameHeight)
	if err != nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, int(w), int(h))
}

// Unregister removes the region with the given id. Collected samples are kept
// by the region.
func (s *Set) Unregister(id int) error {
	r, ok := s.regions[id]
	if !ok {
		return fmt.Errorf("could not unregister region %d: %w", id, ErrUnknownRegion)
	}
	r.set = nil
	delete(s.regions, id)
	s.idx = nil
	s.log.Debug(pkg+"unregistered region", "id", id)
	return nil
}

// Len returns the number of registered regions.
func (s *Set) Len() int { return len(s.regions) }

// Region returns the registered region with the given id.
func (s *Set) Region(id int) (*Region, error) {
	r, ok := s.regions[id]
	if !ok {
		return nil, fmt.Errorf("region %d: %w", id, ErrUnknownRegion)
	}
	return r, nil
}

// Regions returns all registered regions ordered by id.
func (s *Set) Regions() []*Region {
	return s.filter(func(*Region) bool { return true })
}

// Active returns the registered regions that have not been finished, ordered
// by id.
func (s *Set) Active() []*Region {
	return s.filter(func(r *Region) bool { return !r.finished })
}

// Finished returns the registered regions that have been finished, ordered by
// id.
func (s *Set) Finished() []*Region {
	return s.filter(func(r *Region) bool { return r.finished })
}

func (s *Set) filter(keep func(*Region) bool) []*Region {
	var rs []*Region
	for _, r := range s.regions {
		if keep(r) {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].id < rs[j].id })
	return rs
}

// At returns the registered regions containing p, ordered by id.
func (s *Set) At(p image.Point) []*Region {
	if s.idx == nil {
		s.idx = newIndex(s.Regions())
	}
	return s.idx.at(p)
}

// Position returns the current position of the source.
func (s *Set) Position() (Position, error) {
	n, msec, err := device.Position(s.src)
	if err != nil {
		return Position{}, err
	}
	return Position{Frames: n, Msec: msec}, nil
}

// Seek positions the source so that the next frame read by Advance is frame
// n.
func (s *Set) Seek(n int) error {
	if n < 0 {
		n = 0
	}
	err := s.src.SetProperty(device.PosFrames, float64(n))
	if err != nil {
		return fmt.Errorf("could not seek to frame %d: %w", n, err)
	}
	return nil
}

// Finish finishes the regions with the given ids at the current position. No
// region is finished if any id is unknown, already finished or listed more
// than once.
func (s *Set) Finish(swap bool, ids ...int) error {
	rs := make([]*Region, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		r, err := s.Region(id)
		if err != nil {
			return err
		}
		if r.finished || seen[id] {
			return fmt.Errorf("could not finish region %d: %w", id, ErrAlreadyFinished)
		}
		seen[id] = true
		rs = append(rs, r)
	}
	pos, err := s.Position()
	if err != nil {
		return fmt.Errorf("could not get end position: %w", err)
	}
	for _, r := range rs {
		err = r.Finish(pos, swap)
		if err != nil {
			return err
		}
		s.log.Debug(pkg+"finished region", "id", r.id, "start", r.start.Frames, "end", r.end.Frames)
	}
	return nil
}

// Advance reads the next frame from the source. Every active region samples
// the frame, after brightness and contrast adjustment, before any region is
// drawn. The returned frame is the adjusted frame with active regions drawn.
// ErrStreamExhausted is returned at the end of the source; other errors are
// read or decode failures.
func (s *Set) Advance() (*frame.Frame, error) {
	f, err := s.src.Read()
	if err == io.EOF {
		return nil, ErrStreamExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("could not read frame: %w", err)
	}
	pos, err := s.Position()
	if err != nil {
		return nil, fmt.Errorf("could not get position: %w", err)
	}
	s.latest = f
	s.display = s.adjusted()

	active := s.Active()
	for _, r := range active {
		r.Sample(s.display, pos)
	}
	for _, r := range active {
		r.Render(s.display, s.palette)
	}
	return s.display, nil
}

// SampleCurrent samples r against the current frame, as adjusted when it was
// read, without drawing. It is used to sample a region registered part way
// through a tick.
func (s *Set) SampleCurrent(r *Region) (Sample, bool, error) {
	if s.latest == nil {
		return Sample{}, false, nil
	}
	pos, err := s.Position()
	if err != nil {
		return Sample{}, false, fmt.Errorf("could not get position: %w", err)
	}
	smp, ok := r.Sample(s.adjusted(), pos)
	return smp, ok, nil
}

// Redraw draws the active regions over the latest frame with the current
// brightness and contrast and returns it. No region is sampled. Redraw
// returns nil before the first call to Advance.
func (s *Set) Redraw() *frame.Frame {
	if s.latest == nil {
		return nil
	}
	s.display = s.adjusted()
	for _, r := range s.Active() {
		r.Render(s.display, s.palette)
	}
	return s.display
}

// Latest returns the frame last returned by Advance or Redraw.
func (s *Set) Latest() *frame.Frame { return s.display }

func (s *Set) adjusted() *frame.Frame {
	f := s.latest.Clone()
	f.Adjust(s.contrast, s.brightness)
	return f
}

// SetBrightness sets the brightness offset applied to subsequent frames,
// clipped to [MinBrightness, MaxBrightness]. Samples already collected are
// not affected.
func (s *Set) SetBrightness(b int) {
	switch {
	case b < MinBrightness:
		b = MinBrightness
	case b > MaxBrightness:
		b = MaxBrightness
	}
	s.brightness = b
}

// Brightness returns the brightness offset.
func (s *Set) Brightness() int { return s.brightness }

// SetContrast sets the contrast gain applied to subsequent frames. Negative
// gains are set to MinContrast.
func (s *Set) SetContrast(c float64) {
	if c < MinContrast {
		c = MinContrast
	}
	s.contrast = c
}

// Contrast returns the contrast gain.
func (s *Set) Contrast() float64 { return s.contrast }
