/*
NAME
  convenience.go

DESCRIPTION
  convenience.go provides raw byte-slice scanning helpers for locating
  a PID within a whole clip and decoding the PAT/PMT found there,
  without building a Reader pipeline. Programs and Streams hand the
  packet to this package's own single-packet PSI extractors
  (psi.ExtractPrograms/ExtractStreamList) rather than parsing the
  section twice over, since ownership of the PAT/PMT model belongs to
  the psi package.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ts

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/kynesim/gomts/container/ts/psi"
)

// ErrPidNotFound is returned by FindPid and LastPid when no packet in
// the clip carries the requested PID.
var ErrPidNotFound = errors.New("ts: no packet with that pid")

func pidAt(d []byte, i int) uint16 {
	return uint16(d[i+1]&0x1f)<<8 | uint16(d[i+2])
}

// FindPid scans d, a clip of whole TS packets, for the first packet
// carrying pid, returning it along with its byte offset.
func FindPid(d []byte, pid uint16) (pkt []byte, offset int, err error) {
	if len(d) < PacketSize {
		return nil, -1, ErrShortPacket
	}
	for i := 0; i+PacketSize <= len(d); i += PacketSize {
		if pidAt(d, i) == pid {
			return d[i : i+PacketSize], i, nil
		}
	}
	return nil, -1, errors.Wrapf(ErrPidNotFound, "pid %#x", pid)
}

// LastPid scans d in reverse for the last packet carrying pid.
func LastPid(d []byte, pid uint16) (pkt []byte, offset int, err error) {
	if len(d) < PacketSize {
		return nil, -1, ErrShortPacket
	}
	for i := (len(d)/PacketSize - 1) * PacketSize; i >= 0; i -= PacketSize {
		if pidAt(d, i) == pid {
			return d[i : i+PacketSize], i, nil
		}
	}
	return nil, -1, errors.Wrapf(ErrPidNotFound, "pid %#x", pid)
}

// Programs decodes the single TS packet pkt as a PAT (pointer field 0,
// section not spanning a second packet) and returns its
// program_number -> PMT PID map.
func Programs(pkt []byte) (map[uint16]uint16, error) {
	p, err := ParsePacket(pkt)
	if err != nil {
		return nil, errors.Wrap(err, "ts: parsing PAT packet")
	}
	entries, err := psi.ExtractPrograms(p.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "ts: extracting PAT programs")
	}
	m := make(map[uint16]uint16, len(entries))
	for _, e := range entries {
		m[e.ProgramNumber] = e.PMTPID
	}
	return m, nil
}

// Streams decodes the single TS packet pkt as a PMT (pointer field 0,
// section not spanning a second packet) and returns its elementary
// stream list. log receives any non-fatal parse warnings (e.g. an
// unverified CRC).
func Streams(pkt []byte, log logging.Logger) ([]psi.Stream, error) {
	p, err := ParsePacket(pkt)
	if err != nil {
		return nil, errors.Wrap(err, "ts: parsing PMT packet")
	}
	streams, err := psi.ExtractStreamList(p.Payload, log)
	if err != nil {
		return nil, errors.Wrap(err, "ts: extracting PMT streams")
	}
	return streams, nil
}
