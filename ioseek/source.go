/*
NAME
  source.go

DESCRIPTION
  source.go provides a handle-abstracted byte source: a file, stdin, or
  a caller-supplied (read, seek) pair, used by the framers to open input
  without assuming anything about its origin.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ioseek

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Source is a byte handle that can be read, sought, and closed. A framer
// opened against a Source makes no assumption about whether the
// underlying data is a regular file, a pipe, or caller-owned memory.
type Source interface {
	io.Reader
	io.Seeker
	io.Closer
}

// nopCloser adapts an io.ReadSeeker with no meaningful Close into a
// Source whose Close is a no-op, for callers that own the underlying
// handle's lifetime themselves.
type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

// FromReadSeeker wraps an io.ReadSeeker the caller owns into a Source
// whose Close does nothing, leaving lifetime management with the caller.
func FromReadSeeker(rs io.ReadSeeker) Source {
	return nopCloser{rs}
}

// Open opens the named file for reading and returns it as a Source.
// The returned Source's Close closes the underlying file.
func Open(name string) (Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "could not open file")
	}
	return f, nil
}

// errNotSeekable is returned by Stdin's Seek, since standard input is
// not normally seekable.
var errNotSeekable = errors.New("stdin is not seekable")

// stdinSource adapts os.Stdin to Source; Seek always fails.
type stdinSource struct {
	io.Reader
}

func (stdinSource) Seek(offset int64, whence int) (int64, error) {
	return 0, errNotSeekable
}

func (stdinSource) Close() error { return nil }

// Stdin returns standard input as a Source. Callers that need seek
// support (random-access ES reads, stream-kind detection's seek-back)
// must buffer stdin themselves before depending on it.
func Stdin() Source {
	return stdinSource{os.Stdin}
}
