/*
DESCRIPTION
  mjpeg.go provides an implementation of FrameSource for MJPEG streams, i.e.
  concatenated JPEG images, decoded in pure Go at a constant frame rate.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mjpeg provides an implementation of FrameSource for MJPEG files and
// streams. Seeking and frame counts are only available when the underlying
// reader is an io.ReadSeeker.
package mjpeg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"sync"

	"github.com/ausocean/roitools/device"
	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "mjpeg: "

// DefaultFPS is used when no positive frame rate is given, since MJPEG carries
// no timing information.
const DefaultFPS = 25

var errNotSeekable = errors.New("stream is not seekable")

// Source is an implementation of the FrameSource interface for MJPEG data.
type Source struct {
	mu  sync.Mutex
	log logging.Logger

	path string   // Set if the source opens its own file.
	f    *os.File // Non-nil while a file opened by the source is open.
	src  io.Reader
	rs   io.ReadSeeker // Non-nil if src can seek.
	r    *bufio.Reader

	fps     float64
	next    int     // Index of the next frame to be returned.
	off     int64   // Byte offset of the next unread image.
	offsets []int64 // Byte offsets of the images seen so far, by index.
	count   int     // Number of images; -1 until known.
	pending []byte  // Image at index next, already lexed but not returned.

	width, height int
	isRunning     bool
}

// New returns a new Source reading MJPEG data from r at the given frame rate.
func New(l logging.Logger, r io.Reader, fps float64) *Source {
	s := &Source{log: l, src: r, count: -1}
	s.setFPS(fps)
	return s
}

// NewFile returns a new Source that opens the MJPEG file at path when
// started.
func NewFile(l logging.Logger, path string, fps float64) *Source {
	s := &Source{log: l, path: path, count: -1}
	s.setFPS(fps)
	return s
}

func (s *Source) setFPS(fps float64) {
	if fps <= 0 {
		s.log.Info(pkg+"fps bad or unset, defaulting", "fps", DefaultFPS)
		fps = DefaultFPS
	}
	s.fps = fps
}

// Name returns the name of the device.
func (s *Source) Name() string { return "MJPEG" }

// Start opens the file if the source was created with NewFile and reads the
// dimensions of the first image.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("could not open media file: %w", err)
		}
		s.f = f
		s.src = f
	}
	if s.src == nil {
		return errors.New("no MJPEG input")
	}
	s.rs, _ = s.src.(io.ReadSeeker)
	s.r = bufio.NewReader(s.src)
	s.next, s.off, s.offsets, s.count, s.pending = 0, 0, nil, -1, nil

	img, err := s.lexNext()
	switch {
	case err == io.EOF:
		s.count = 0
	case err != nil:
		s.closeFile()
		return fmt.Errorf("could not read first image: %w", err)
	default:
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img))
		if err != nil {
			s.closeFile()
			return fmt.Errorf("could not decode first image config: %w", err)
		}
		s.width, s.height = cfg.Width, cfg.Height
		s.pending = img
	}
	s.isRunning = true
	return nil
}

// Stop closes the file if the source opened it.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isRunning = false
	return s.closeFile()
}

func (s *Source) closeFile() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// IsRunning is used to determine if the source is running.
func (s *Source) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// lexNext lexes the image at index next without advancing next, recording its
// offset.
func (s *Source) lexNext() ([]byte, error) {
	if s.rs != nil && s.next == len(s.offsets) {
		s.offsets = append(s.offsets, s.off)
	}
	img, err := lex(s.r)
	if err == io.EOF {
		if s.rs != nil {
			s.offsets = s.offsets[:s.next]
			s.count = s.next
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	s.off += int64(len(img))
	return img, nil
}

// Read decodes and returns the next frame, or io.EOF at the end of the
// stream.
func (s *Source) Read() (*frame.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil, device.ErrNotStarted
	}

	img := s.pending
	s.pending = nil
	if img == nil {
		var err error
		img, err = s.lexNext()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("could not lex frame %d: %w", s.next, err)
		}
	}

	decoded, err := jpeg.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("could not decode frame %d: %w", s.next, err)
	}
	s.next++
	return frame.FromImage(decoded), nil
}

// Property implements device.FrameSource.
func (s *Source) Property(p device.Prop) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch p {
	case device.PosFrames:
		return float64(s.next), nil
	case device.PosMsec:
		return device.Timestamp(s.next-1, s.fps), nil
	case device.FPS:
		return s.fps, nil
	case device.FrameWidth:
		return float64(s.width), nil
	case device.FrameHeight:
		return float64(s.height), nil
	case device.FrameCount:
		n, err := s.frameCount()
		return float64(n), err
	default:
		return 0, device.ErrUnsupportedProp
	}
}

// SetProperty implements device.FrameSource. Positions past the end of the
// stream are clamped to the end.
func (s *Source) SetProperty(p device.Prop, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch p {
	case device.PosFrames:
		return s.seek(int(v))
	case device.PosMsec:
		return s.seek(device.FrameIndex(v, s.fps))
	case device.FPS, device.FrameCount, device.FrameWidth, device.FrameHeight:
		return fmt.Errorf("%w: %v", device.ErrReadOnlyProp, p)
	default:
		return device.ErrUnsupportedProp
	}
}

// seek positions the source so that the next frame read is frame i.
func (s *Source) seek(i int) error {
	if !s.isRunning {
		return device.ErrNotStarted
	}
	if s.rs == nil {
		return fmt.Errorf("could not seek to frame %d: %w", i, errNotSeekable)
	}
	if i < 0 {
		i = 0
	}
	if i == s.next {
		return nil
	}

	// Jump to the closest known image at or before i, then lex forward.
	start := i
	if start >= len(s.offsets) {
		start = len(s.offsets) - 1
	}
	if start < 0 {
		start = 0
	}
	var off int64
	if start < len(s.offsets) {
		off = s.offsets[start]
	}
	_, err := s.rs.Seek(off, io.SeekStart)
	if err != nil {
		return fmt.Errorf("could not seek to frame %d: %w", start, err)
	}
	s.r.Reset(s.rs)
	s.next, s.off, s.pending = start, off, nil

	for s.next < i {
		_, err := s.lexNext()
		if err == io.EOF {
			s.log.Debug(pkg+"seek past end of stream, clamping", "want", i, "got", s.next)
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not skip frame %d: %w", s.next, err)
		}
		s.next++
	}
	return nil
}

// frameCount returns the number of images in the stream, scanning the rest of
// the stream once if necessary.
func (s *Source) frameCount() (int, error) {
	if s.count >= 0 {
		return s.count, nil
	}
	if !s.isRunning {
		return 0, device.ErrNotStarted
	}
	if s.rs == nil {
		return 0, fmt.Errorf("%w: %v of unseekable stream", device.ErrUnsupportedProp, device.FrameCount)
	}

	pos := s.next
	err := s.seek(1 << 30)
	if err != nil {
		return 0, err
	}
	n := s.next
	s.count = n
	err = s.seek(pos)
	if err != nil {
		return 0, err
	}
	return n, nil
}
