/*
NAME
  lex.go

DESCRIPTION
  lex.go provides a lexer to extract separate JPEG images from a JPEG stream.
  This could either be a series of descrete JPEG images, or an MJPEG stream.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mjpeg

import (
	"bufio"
	"fmt"
	"io"
)

// JPEG marker codes.
const (
	markerPrefix = 0xff
	codeSOI      = 0xd8 // Start of image.
	codeEOI      = 0xd9 // End of image.
)

// lex reads the next complete JPEG image from r, including nested images such
// as embedded thumbnails. It returns io.EOF if r is exhausted at an image
// boundary and io.ErrUnexpectedEOF if r is exhausted part way through an
// image.
func lex(r *bufio.Reader) ([]byte, error) {
	buf := make([]byte, 2, 4<<10)
	n, err := io.ReadFull(r, buf)
	switch {
	case n == 0 && err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, io.ErrUnexpectedEOF
	case err != nil:
		return nil, err
	}

	if buf[0] != markerPrefix || buf[1] != codeSOI {
		return nil, fmt.Errorf("not JPEG frame start: %#v", buf)
	}

	nImg := 1
	var last byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, b)

		if last == markerPrefix {
			switch b {
			case codeSOI:
				nImg++
			case codeEOI:
				nImg--
			}
		}
		if nImg == 0 {
			return buf, nil
		}
		last = b
	}
}
