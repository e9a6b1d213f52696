/*
DESCRIPTION
  preview.go provides Preview, a Display that writes shown frames as an MJPEG
  stream. Encoded frames are queued in a pool buffer and written by an output
  routine so that slow destinations do not stall playback.

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
	"image/jpeg"
	"io"
	"sync"
	"time"

	"github.com/ausocean/roitools/frame"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Preview pool buffer parameters.
const (
	previewElements    = 16
	previewElementSize = 1 << 20
	previewReadTimeout = 100 * time.Millisecond
	previewWriteWait   = time.Second
	previewQuality     = 85
)

// Preview implements Display, writing each shown frame as a JPEG image to a
// destination, giving an MJPEG stream.
type Preview struct {
	dst  io.WriteCloser
	log  logging.Logger
	pool *pool.Buffer
	buf  bytes.Buffer
	done chan struct{}
	wg   sync.WaitGroup
}

// NewPreview returns a new Preview writing to dst. The output routine starts
// with the first frame shown.
func NewPreview(l logging.Logger, dst io.WriteCloser) *Preview {
	return &Preview{dst: dst, log: l, done: make(chan struct{})}
}

// output writes queued images to the destination until Close is called,
// then writes whatever remains queued.
func (p *Preview) output() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			for p.writeNext() {
			}
			p.log.Debug(pkg + "terminating preview output routine")
			return
		default:
			p.writeNext()
		}
	}
}

// writeNext writes the next queued image, returning false if none was
// available.
func (p *Preview) writeNext() bool {
	chunk, err := p.pool.Next(previewReadTimeout)
	switch err {
	case nil:
	case io.EOF, pool.ErrTimeout:
		return false
	default:
		p.log.Error(pkg+"unexpected preview pool error", "error", err.Error())
		return false
	}
	_, err = p.dst.Write(chunk.Bytes())
	if err != nil {
		p.log.Warning(pkg+"could not write preview image", "error", err)
	}
	chunk.Close()
	return true
}

// Show encodes f as a JPEG image and queues it for writing. Elements of the
// pool are sized by the first frame; an image that does not fit is dropped.
func (p *Preview) Show(f *frame.Frame) error {
	if p.pool == nil {
		size := f.Width() * f.Height() * 3
		if size < previewElementSize {
			size = previewElementSize
		}
		p.pool = pool.NewBuffer(previewElements, size, previewWriteWait)
		p.wg.Add(1)
		go p.output()
	}

	p.buf.Reset()
	err := jpeg.Encode(&p.buf, f, &jpeg.Options{Quality: previewQuality})
	if err != nil {
		return err
	}
	n, err := p.pool.Write(p.buf.Bytes())
	if err != nil {
		p.log.Warning(pkg+"preview pool write error", "error", err.Error(), "n", n, "size", p.buf.Len())
		return err
	}
	p.pool.Flush()
	return nil
}

// Close stops the output routine once queued images are written and closes
// the destination.
func (p *Preview) Close() error {
	close(p.done)
	p.wg.Wait()
	return p.dst.Close()
}
