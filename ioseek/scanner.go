/*
NAME
  scanner.go

DESCRIPTION
  scanner.go implements a byte-level scanner that re-fills from an
  io.Reader in caller-sized chunks. The TS framer and the ES unit
  scanner keep their own buffering and do not use it.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ioseek provides a handle-abstracted byte source (file, stdin,
// or a caller-supplied (read, seek) pair) and a standalone read-ahead
// scanner over an io.Reader.
package ioseek

import "io"

// Scanner is a byte scanner that buffers reads from an underlying
// io.Reader and supports scanning to a delimiter or reading single
// bytes without per-call allocation.
type Scanner struct {
	buf []byte
	off int

	// r is the source of data for the scanner.
	r io.Reader
}

// NewScanner returns a scanner initialised with an io.Reader and a read buffer.
func NewScanner(r io.Reader, buf []byte) *Scanner {
	return &Scanner{r: r, buf: buf[:0]}
}

// ScanUntil scans the scanner's underlying io.Reader until a delim byte
// has been read, appending all read bytes to dst. The resulting appended
// data, the last read byte, and any error from reloading the buffer
// (io.EOF once the source is exhausted before a delimiter) are returned.
func (c *Scanner) ScanUntil(dst []byte, delim byte) (res []byte, b byte, err error) {
outer:
	for {
		var i int
		for i, b = range c.buf[c.off:] {
			if b != delim {
				continue
			}
			dst = append(dst, c.buf[c.off:c.off+i+1]...)
			c.off += i + 1
			break outer
		}
		dst = append(dst, c.buf[c.off:]...)
		err = c.reload()
		if err != nil {
			break
		}
	}
	return dst, b, err
}

// ReadByte reads and returns a single byte, reloading the underlying
// buffer from the source reader as necessary.
func (c *Scanner) ReadByte() (byte, error) {
	if c.off >= len(c.buf) {
		err := c.reload()
		if err != nil {
			return 0, err
		}
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

// reload re-fills the scanner's buffer.
func (c *Scanner) reload() error {
	n, err := c.r.Read(c.buf[:cap(c.buf)])
	c.buf = c.buf[:n]
	if err != nil {
		if err != io.EOF {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
	c.off = 0
	return nil
}
