/*
DESCRIPTION
  spec.go provides Spec, a request to construct a region, and its textual
  constructor form, e.g. Rectangle((10, 10), (20, 20), "gill", 0).

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
	"math"
	"regexp"
	"strconv"
)

// Kind is the shape of a region.
type Kind int

// Region shapes.
const (
	Rectangle Kind = iota
	Circle
)

func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case Circle:
		return "circle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultDescription is used for regions created without a description.
const DefaultDescription = "N/A"

// Spec describes a region to be constructed. Vertex1 and Vertex2 are opposite
// corners of a rectangle, both inclusive. Center and Radius describe a circle.
type Spec struct {
	Kind        Kind
	Vertex1     image.Point
	Vertex2     image.Point
	Center      image.Point
	Radius      int
	Description string

	// DeltaIgnore is the per channel difference below which a new sample is
	// considered unchanged from the last recorded sample. Zero records every
	// sample.
	DeltaIgnore float64
}

// Rect returns a Spec for a rectangle with opposite corners v1 and v2.
func Rect(v1, v2 image.Point, desc string, delta float64) Spec {
	return Spec{Kind: Rectangle, Vertex1: v1, Vertex2: v2, Description: desc, DeltaIgnore: delta}
}

// Circ returns a Spec for a circle.
func Circ(center image.Point, radius int, desc string, delta float64) Spec {
	return Spec{Kind: Circle, Center: center, Radius: radius, Description: desc, DeltaIgnore: delta}
}

// Validate returns ErrDimension if the spec does not describe a representable
// shape.
func (s Spec) Validate() error {
	switch s.Kind {
	case Rectangle:
	case Circle:
		if s.Radius < 0 {
			return fmt.Errorf("%w: negative radius %d", ErrDimension, s.Radius)
		}
	default:
		return fmt.Errorf("%w: unknown shape %v", ErrDimension, s.Kind)
	}
	if math.IsNaN(s.DeltaIgnore) || math.IsInf(s.DeltaIgnore, 0) {
		return fmt.Errorf("%w: non-finite delta %v", ErrDimension, s.DeltaIgnore)
	}
	if s.DeltaIgnore < 0 {
		return fmt.Errorf("%w: negative delta %v", ErrDimension, s.DeltaIgnore)
	}
	return nil
}

// Bounds returns the half-open bounding box of the shape.
func (s Spec) Bounds() image.Rectangle {
	if s.Kind == Circle {
		r := s.Radius
		return image.Rect(s.Center.X-r, s.Center.Y-r, s.Center.X+r+1, s.Center.Y+r+1)
	}
	minX, maxX := sorted(s.Vertex1.X, s.Vertex2.X)
	minY, maxY := sorted(s.Vertex1.Y, s.Vertex2.Y)
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Midpoint returns the center of the shape, rounded towards the top left
// corner for rectangles with an even side length.
func (s Spec) Midpoint() image.Point {
	if s.Kind == Circle {
		return s.Center
	}
	minX, maxX := sorted(s.Vertex1.X, s.Vertex2.X)
	minY, maxY := sorted(s.Vertex1.Y, s.Vertex2.Y)
	return image.Pt(minX+(maxX-minX)/2, minY+(maxY-minY)/2)
}

func sorted(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// String returns the constructor text of the spec which can be parsed by
// ParseSpec.
func (s Spec) String() string {
	desc := strconv.Quote(s.Description)
	delta := strconv.FormatFloat(s.DeltaIgnore, 'g', -1, 64)
	switch s.Kind {
	case Circle:
		return fmt.Sprintf("Circle((%d, %d), %d, %s, %s)",
			s.Center.X, s.Center.Y, s.Radius, desc, delta)
	default:
		return fmt.Sprintf("Rectangle((%d, %d), (%d, %d), %s, %s)",
			s.Vertex1.X, s.Vertex1.Y, s.Vertex2.X, s.Vertex2.Y, desc, delta)
	}
}

// MarshalText implements encoding.TextMarshaler so that specs are stored as
// constructor text in JSON plans.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spec) UnmarshalText(text []byte) error {
	p, err := ParseSpec(string(text))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

const (
	reNum    = `\s*(-?\d+)\s*`
	rePoint  = `\(` + reNum + `,` + reNum + `\)`
	reQuoted = `\s*("(?:[^"\\]|\\.)*")\s*`
	reDelta  = `(?:,\s*([-+0-9.eE]+)\s*)?`
)

var (
	rectRE = regexp.MustCompile(`^\s*Rectangle\(\s*` + rePoint + `\s*,\s*` + rePoint + `\s*(?:,` + reQuoted + reDelta + `)?\)\s*$`)
	circRE = regexp.MustCompile(`^\s*Circle\(\s*` + rePoint + `\s*,` + reNum + `(?:,` + reQuoted + reDelta + `)?\)\s*$`)
)

// ParseSpec parses constructor text in the form produced by Spec.String. The
// description and delta are optional.
func ParseSpec(text string) (Spec, error) {
	var (
		s    Spec
		ints []int
		rest []string
		err  error
	)
	if m := rectRE.FindStringSubmatch(text); m != nil {
		s.Kind = Rectangle
		ints, err = atois(m[1:5])
		rest = m[5:]
		if err == nil {
			s.Vertex1 = image.Pt(ints[0], ints[1])
			s.Vertex2 = image.Pt(ints[2], ints[3])
		}
	} else if m := circRE.FindStringSubmatch(text); m != nil {
		s.Kind = Circle
		ints, err = atois(m[1:4])
		rest = m[4:]
		if err == nil {
			s.Center = image.Pt(ints[0], ints[1])
			s.Radius = ints[2]
		}
	} else {
		return Spec{}, fmt.Errorf("invalid region constructor %q", text)
	}
	if err != nil {
		return Spec{}, fmt.Errorf("invalid coordinate in %q: %w", text, err)
	}

	s.Description = DefaultDescription
	if rest[0] != "" {
		desc, err := strconv.Unquote(rest[0])
		if err != nil {
			return Spec{}, fmt.Errorf("invalid description in %q: %w", text, err)
		}
		s.Description = desc
	}
	if rest[1] != "" {
		d, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid delta in %q: %w", text, err)
		}
		s.DeltaIgnore = d
	}
	return s, s.Validate()
}

func atois(s []string) ([]int, error) {
	n := make([]int, len(s))
	for i, v := range s {
		var err error
		n[i], err = strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}
