/*
NAME
  reader.go

DESCRIPTION
  reader.go implements the TS framer: a read-ahead over a byte source
  that hands back one parsed packet at a time, refilling in
  N-packet chunks and discarding a trailing fragment that is not a
  whole number of packets.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ts

import (
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/kynesim/gomts/ioseek"
)

// packetsPerFill is the number of 188-byte packets read from the
// source on each refill of the reader's ring.
const packetsPerFill = 20

// Reader frames a byte source into successive transport stream
// packets.
type Reader struct {
	src ioseek.Source
	log logging.Logger

	ring []byte // holds up to packetsPerFill*PacketSize bytes.
	pos  int     // read offset within ring.
	n    int     // valid bytes within ring.
}

// NewReader returns a Reader framing src.
func NewReader(src ioseek.Source, log logging.Logger) *Reader {
	return &Reader{
		src:  src,
		log:  log,
		ring: make([]byte, packetsPerFill*PacketSize),
	}
}

// Next returns the next parsed packet, io.EOF once the source and any
// buffered bytes are exhausted, or a parse error (including a fatal
// bad sync byte).
func (r *Reader) Next() (*Packet, error) {
	if r.pos+PacketSize > r.n {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	b := r.ring[r.pos : r.pos+PacketSize]
	r.pos += PacketSize
	p, err := ParsePacket(b)
	if err == nil && p.AFC == AFCReserved {
		r.log.Warning("reserved adaptation_field_control value", "pid", p.PID)
	}
	return p, err
}

// fill reads ahead into the ring, tolerating partial reads from the
// underlying source, and discards a residual tail that is not a whole
// number of packets.
func (r *Reader) fill() error {
	copy(r.ring, r.ring[r.pos:r.n])
	r.n -= r.pos
	r.pos = 0

	for r.n < PacketSize {
		m, err := r.src.Read(r.ring[r.n:])
		r.n += m
		if err != nil {
			if err == io.EOF {
				if r.n == 0 {
					return io.EOF
				}
				if r.n%PacketSize != 0 {
					r.log.Warning("discarding residual non-packet-sized tail at EOF", "bytes", r.n%PacketSize)
					r.n -= r.n % PacketSize
				}
				if r.n == 0 {
					return io.EOF
				}
				return nil
			}
			return err
		}
	}
	// Trim back to a whole number of packets for this fill batch so
	// Next never straddles a short read mid-packet.
	r.n -= r.n % PacketSize
	return nil
}

// Seek delegates to the underlying source and discards the read-ahead
// buffer, per the framer's no-position-assumptions contract.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	r.pos = 0
	r.n = 0
	return r.src.Seek(offset, whence)
}
