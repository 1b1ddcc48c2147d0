/*
NAME
  offset.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package es provides a start-code-oriented scanner over elementary
// stream bytes, a stream-kind heuristic distinguishing H.262/H.264/AVS,
// and random-access reads keyed by the offsets the scanner reports.
package es

import "github.com/pkg/errors"

// Offset locates a byte within an elementary stream relative to its
// container. For a bare ES source, FileOffset is the byte offset into
// the file and PacketOffset is always 0. For ES reconstituted from a
// PES stream, FileOffset is the byte offset of the PES packet's first
// TS (or PS pack) packet in the container, and PacketOffset is the
// byte offset within that PES packet's payload.
type Offset struct {
	FileOffset   int64
	PacketOffset int
}

// PacketSource resolves a container file offset to the ES bytes of
// the PES packet found there, for ReadRange. Implementations live
// alongside the container they adapt (container/ts, container/ps) to
// keep this package free of any dependency on them.
type PacketSource interface {
	// PayloadAt returns the ES payload of the PES packet whose first
	// container packet starts at fileOffset, and the file offset of
	// the unit immediately following it.
	PayloadAt(fileOffset int64) (payload []byte, next int64, err error)
}

// ErrShortRead is returned by ReadRange when src is exhausted before
// length bytes have been gathered.
var ErrShortRead = errors.New("es: source exhausted before length was satisfied")

// ReadRange seeks src to the PES packet at off.FileOffset, positions
// within its ES payload at off.PacketOffset, then reads across PES
// packet boundaries (src.PayloadAt returning a fresh payload and the
// offset of the unit following it each time) until length bytes are
// gathered.
func ReadRange(src PacketSource, off Offset, length int) ([]byte, error) {
	payload, next, err := src.PayloadAt(off.FileOffset)
	if err != nil {
		return nil, err
	}
	if off.PacketOffset > len(payload) {
		return nil, errors.New("es: packet offset beyond payload")
	}

	out := make([]byte, 0, length)
	out = append(out, payload[off.PacketOffset:]...)
	for len(out) < length {
		payload, next, err = src.PayloadAt(next)
		if err != nil {
			return nil, errors.Wrap(ErrShortRead, err.Error())
		}
		out = append(out, payload...)
	}
	return out[:length], nil
}
