/*
DESCRIPTION
  region.go provides Region, a rectangular or circular area of a video that
  records the mean colour of its pixels over its lifetime.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import (
	"fmt"
	"image"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/roitools/frame"
)

// Position is a position in a video.
type Position struct {
	Frames int     // Number of frames consumed, i.e. the index of the next frame.
	Msec   float64 // Timestamp of the current frame.
}

// Mean holds per channel mean intensities.
type Mean struct{ B, G, R float64 }

// Sample is a single observation of a region.
type Sample struct {
	Frames int
	Msec   float64
	Color  Mean
}

// Palette holds the colours used to draw regions.
type Palette struct {
	Active  frame.Color // Regions that are sampling.
	Passive frame.Color // Deaf regions.
}

// DefaultPalette draws active regions in green and deaf regions in light grey.
var DefaultPalette = Palette{
	Active:  frame.Color{G: 255},
	Passive: frame.Color{B: 200, G: 200, R: 200},
}

// Region is an area of a video whose mean colour is sampled every frame while
// it is active. A Region is active from registration with a Set until Finish is
// called, after which it is immutable.
type Region struct {
	id     int
	spec   Spec
	bounds image.Rectangle
	center image.Point
	mask   *Mask // Nil for rectangles.

	// Deaf suppresses sampling. Deaf regions are still drawn, in the passive
	// colour.
	Deaf bool

	set        *Set    // Set the region is registered with, if any.
	capture    Capture // Capture the region was registered with.
	registered bool
	finished   bool
	start, end Position

	collected []Sample
	scratch   [3][]float64
}

// NewRegion returns a new region built from spec with the given id. Most
// callers should use Set.New, which allocates ids.
func NewRegion(id int, spec Spec) (*Region, error) {
	err := spec.Validate()
	if err != nil {
		return nil, err
	}
	if spec.Description == "" {
		spec.Description = DefaultDescription
	}
	r := &Region{
		id:     id,
		spec:   spec,
		bounds: spec.Bounds(),
		center: spec.Midpoint(),
	}
	if spec.Kind == Circle {
		r.mask = circleMask(spec.Center, spec.Radius)
	}
	return r, nil
}

// ID returns the unique id of the region.
func (r *Region) ID() int { return r.id }

// Spec returns the spec the region was built from.
func (r *Region) Spec() Spec { return r.spec }

// Kind returns the shape of the region.
func (r *Region) Kind() Kind { return r.spec.Kind }

// Description returns the description of the region.
func (r *Region) Description() string { return r.spec.Description }

// Bounds returns the half-open bounding box of the region.
func (r *Region) Bounds() image.Rectangle { return r.bounds }

// Center returns the point the region's id is drawn at.
func (r *Region) Center() image.Point { return r.center }

// Mask returns the mask of a circular region, or nil for a rectangle.
func (r *Region) Mask() *Mask { return r.mask }

// Start returns the position at which the region was registered.
func (r *Region) Start() Position { return r.start }

// End returns the position at which the region was finished, and whether it
// has been finished.
func (r *Region) End() (Position, bool) { return r.end, r.finished }

// Finished returns whether the region has been finished.
func (r *Region) Finished() bool { return r.finished }

// Registered returns whether the region is currently registered with a Set.
func (r *Region) Registered() bool { return r.set != nil }

// Capture returns the details of the capture the region was registered with.
func (r *Region) Capture() Capture { return r.capture }

// Collected returns the samples recorded by the region in order. The returned
// slice must not be modified.
func (r *Region) Collected() []Sample { return r.collected }

// Contains returns whether p lies within the region. Circles are tested by
// distance from the center rather than by mask lookup.
func (r *Region) Contains(p image.Point) bool {
	if r.spec.Kind == Circle {
		dx, dy := p.X-r.spec.Center.X, p.Y-r.spec.Center.Y
		return dx*dx+dy*dy <= r.spec.Radius*r.spec.Radius
	}
	return p.In(r.bounds)
}

// Crop returns a copy of the region's bounding box cut from f, clipped to the
// bounds of f. The mask is not applied.
func (r *Region) Crop(f *frame.Frame) *frame.Frame {
	return f.Crop(r.bounds)
}

// Mean returns the mean of each channel over the pixels of f inside the
// region. ok is false if no pixel of the region lies inside f.
func (r *Region) Mean(f *frame.Frame) (m Mean, ok bool) {
	c := r.Crop(f)
	b := c.Bounds()
	for i := range r.scratch {
		r.scratch[i] = r.scratch[i][:0]
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r.mask != nil && !r.mask.In(x, y) {
				continue
			}
			bl, g, rd := c.BGRAt(x, y)
			r.scratch[0] = append(r.scratch[0], float64(bl))
			r.scratch[1] = append(r.scratch[1], float64(g))
			r.scratch[2] = append(r.scratch[2], float64(rd))
		}
	}
	if len(r.scratch[0]) == 0 {
		return Mean{}, false
	}
	return Mean{
		B: stat.Mean(r.scratch[0], nil),
		G: stat.Mean(r.scratch[1], nil),
		R: stat.Mean(r.scratch[2], nil),
	}, true
}

// Sample computes the mean colour of the region in f and records it at pos.
// No sample is recorded if the region is deaf or finished, if the region lies
// outside f, or if every channel differs from the last recorded sample by less
// than the region's DeltaIgnore.
func (r *Region) Sample(f *frame.Frame, pos Position) (Sample, bool) {
	if r.Deaf || r.finished {
		return Sample{}, false
	}
	m, ok := r.Mean(f)
	if !ok {
		return Sample{}, false
	}
	if n := len(r.collected); n != 0 && unchanged(m, r.collected[n-1].Color, r.spec.DeltaIgnore) {
		return Sample{}, false
	}
	s := Sample{Frames: pos.Frames, Msec: pos.Msec, Color: m}
	r.collected = append(r.collected, s)
	return s, true
}

func unchanged(a, b Mean, delta float64) bool {
	return math.Abs(a.B-b.B) < delta &&
		math.Abs(a.G-b.G) < delta &&
		math.Abs(a.R-b.R) < delta
}

// Render draws the region's outline and id onto f.
func (r *Region) Render(f *frame.Frame, p Palette) {
	c := p.Active
	if r.Deaf {
		c = p.Passive
	}
	switch r.spec.Kind {
	case Circle:
		f.DrawCircle(r.spec.Center, r.spec.Radius, c)
	default:
		f.DrawRect(r.spec.Vertex1, r.spec.Vertex2, c)
	}
	f.PutText(strconv.Itoa(r.id), r.center.Add(image.Pt(-4, 4)), c)
}

// Finish ends the region's lifetime at end. If swap is true and end precedes
// the start position, start and end are exchanged.
func (r *Region) Finish(end Position, swap bool) error {
	if !r.registered {
		return fmt.Errorf("could not finish region %d: %w", r.id, ErrNotRegistered)
	}
	if r.finished {
		return fmt.Errorf("could not finish region %d: %w", r.id, ErrAlreadyFinished)
	}
	r.end = end
	if swap && r.end.Frames < r.start.Frames {
		r.start, r.end = r.end, r.start
	}
	r.finished = true
	return nil
}

// WriteMask writes the mask of a circular region as a PNG bitmap. It returns
// ErrNoMask for rectangles.
func (r *Region) WriteMask(w io.Writer) error {
	if r.mask == nil {
		return fmt.Errorf("could not write mask of region %d: %w", r.id, ErrNoMask)
	}
	return r.mask.WritePNG(w)
}
