/*
DESCRIPTION
  device.go provides FrameSource, an interface that describes a video source
  that can be started and stopped and from which decoded frames may be read
  sequentially, and ManualInput, an in-memory FrameSource.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for video sources
// that can be started and stopped and from which frames can be obtained.
package device

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/ausocean/roitools/frame"
)

// Prop identifies a positional or descriptive property of a FrameSource.
type Prop int

// Properties. Positions follow OpenCV's conventions: after a frame has been
// read PosFrames is the index of the next frame (i.e. the number of frames
// consumed) and PosMsec is the timestamp of the frame just read.
const (
	PosFrames Prop = iota
	PosMsec
	FrameWidth
	FrameHeight
	FPS
	FrameCount
)

var propNames = [...]string{
	PosFrames:   "pos_frames",
	PosMsec:     "pos_msec",
	FrameWidth:  "frame_width",
	FrameHeight: "frame_height",
	FPS:         "fps",
	FrameCount:  "frame_count",
}

func (p Prop) String() string {
	if p < 0 || int(p) >= len(propNames) {
		return fmt.Sprintf("Prop(%d)", int(p))
	}
	return propNames[p]
}

// Property errors.
var (
	ErrUnsupportedProp = errors.New("unsupported property")
	ErrReadOnlyProp    = errors.New("read only property")
	ErrNotStarted      = errors.New("device has not been started, can't read")
)

// FrameSource describes a source of decoded video frames. Read returns io.EOF
// once the stream is exhausted; any other error is a read or decode failure.
type FrameSource interface {
	// Name returns the name of the FrameSource.
	Name() string

	// Start will start the FrameSource; after which the Read method may be
	// called to obtain frames.
	Start() error

	// Stop will stop the FrameSource. From this point Reads will no longer be
	// successful.
	Stop() error

	// IsRunning is used to determine if the source is running.
	IsRunning() bool

	// Read returns the next frame. The caller owns the returned frame.
	Read() (*frame.Frame, error)

	// Property returns the value of p, or ErrUnsupportedProp.
	Property(p Prop) (float64, error)

	// SetProperty sets p to v. Setting PosFrames or PosMsec seeks. Properties
	// that cannot be set yield ErrReadOnlyProp or ErrUnsupportedProp.
	SetProperty(p Prop, v float64) error
}

// Position returns the current position of s in frames and milliseconds.
func Position(s FrameSource) (frames int, msec float64, err error) {
	f, err := s.Property(PosFrames)
	if err != nil {
		return 0, 0, fmt.Errorf("could not get %v: %w", PosFrames, err)
	}
	msec, err = s.Property(PosMsec)
	if err != nil {
		return 0, 0, fmt.Errorf("could not get %v: %w", PosMsec, err)
	}
	return int(f), msec, nil
}

// Timestamp returns the timestamp in milliseconds of the frame at index i for
// a constant frame rate.
func Timestamp(i int, fps float64) float64 {
	if fps <= 0 || i <= 0 {
		return 0
	}
	return float64(i) * 1000 / fps
}

// FrameIndex returns the index of the first frame with a timestamp of at least
// msec for a constant frame rate.
func FrameIndex(msec, fps float64) int {
	if fps <= 0 || msec <= 0 {
		return 0
	}
	// Guard against 39.99999 style rounding of exact frame times.
	return int(math.Ceil(msec*fps/1000 - 1e-9))
}

// ManualInput is an implementation of FrameSource whose frames are provided
// through software, either at construction or with Write, and held in memory.
// ManualInput reports a constant frame rate.
type ManualInput struct {
	mu        sync.Mutex
	frames    []*frame.Frame
	fps       float64
	next      int
	isRunning bool
}

// NewManualInput returns a new ManualInput at the given frame rate holding
// frames.
func NewManualInput(fps float64, frames ...*frame.Frame) *ManualInput {
	return &ManualInput{fps: fps, frames: frames}
}

// Name returns the name of ManualInput i.e. "ManualInput".
func (m *ManualInput) Name() string { return "ManualInput" }

// Start sets the isRunning flag to true.
func (m *ManualInput) Start() error {
	m.mu.Lock()
	m.isRunning = true
	m.mu.Unlock()
	return nil
}

// Stop sets the isRunning flag to false.
func (m *ManualInput) Stop() error {
	m.mu.Lock()
	m.isRunning = false
	m.mu.Unlock()
	return nil
}

// IsRunning returns the value of the isRunning flag to indicate if Start has
// been called (and Stop has not been called after).
func (m *ManualInput) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Write appends f to the frames held by the ManualInput.
func (m *ManualInput) Write(f *frame.Frame) {
	m.mu.Lock()
	m.frames = append(m.frames, f)
	m.mu.Unlock()
}

// Read returns a copy of the next frame, or io.EOF if all frames have been
// read.
func (m *ManualInput) Read() (*frame.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil, ErrNotStarted
	}
	if m.next >= len(m.frames) {
		return nil, io.EOF
	}
	f := m.frames[m.next].Clone()
	m.next++
	return f, nil
}

// Property implements FrameSource.
func (m *ManualInput) Property(p Prop) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch p {
	case PosFrames:
		return float64(m.next), nil
	case PosMsec:
		return Timestamp(m.next-1, m.fps), nil
	case FPS:
		return m.fps, nil
	case FrameCount:
		return float64(len(m.frames)), nil
	case FrameWidth, FrameHeight:
		if len(m.frames) == 0 {
			return 0, nil
		}
		if p == FrameWidth {
			return float64(m.frames[0].Width()), nil
		}
		return float64(m.frames[0].Height()), nil
	default:
		return 0, ErrUnsupportedProp
	}
}

// SetProperty implements FrameSource. Positions are clamped to the available
// frames.
func (m *ManualInput) SetProperty(p Prop, v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch p {
	case PosFrames:
		m.next = clamp(int(v), 0, len(m.frames))
	case PosMsec:
		m.next = clamp(FrameIndex(v, m.fps), 0, len(m.frames))
	case FPS, FrameCount, FrameWidth, FrameHeight:
		return fmt.Errorf("%w: %v", ErrReadOnlyProp, p)
	default:
		return ErrUnsupportedProp
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
