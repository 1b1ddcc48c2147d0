/*
NAME
  scanner.go

DESCRIPTION
  scanner.go implements the elementary stream unit scanner: a 00 00 01
  start-code finder that operates uniformly over a bare byte stream or
  over the concatenation of PES payloads pushed in from a reassembler,
  maintaining a rolling window across refills so a start code split
  across a read or a PES packet boundary is still found.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package es

import "io"

// Unit is one 00 00 01-delimited elementary stream unit.
type Unit struct {
	// StartCode is the 4th byte of the unit, immediately after its
	// 00 00 01 prefix.
	StartCode byte
	// Data is the unit's bytes, starting with its own 00 00 01 prefix
	// and running up to (not including) the next unit's prefix.
	Data []byte
	// Offset locates the unit's start in its source.
	Offset Offset
	// PESHadPTS reports whether the PES packet this unit was found in
	// (push mode only) carried a PTS.
	PESHadPTS bool
}

// Scanner finds start-code-delimited units. Use Next to pull units
// from a bare io.Reader, or Feed/Pop/Finish to push in PES-payload
// chunks with their own container offsets.
type Scanner struct {
	r       io.Reader
	readBuf []byte
	consumed int64

	buf       []byte // bytes of the in-progress unit since its 00 00 01.
	awaiting  bool   // the next byte fed in is the start_code byte.
	haveUnit  bool   // buf holds a unit with a known start_code.
	startCode byte
	unitOffset Offset
	unitPESHadPTS bool

	results []Unit
	eof     bool
}

// NewScanner returns a Scanner pulling bytes from r for bare-ES
// scanning via Next.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, readBuf: make([]byte, 4<<10)}
}

// Next returns the next unit read from the underlying io.Reader, or
// io.EOF once the source and any trailing in-progress unit have both
// been delivered.
func (s *Scanner) Next() (Unit, error) {
	for len(s.results) == 0 && !s.eof {
		n, err := s.r.Read(s.readBuf)
		if n > 0 {
			base := s.consumed
			s.process(s.readBuf[:n], false, func(local int) Offset {
				return Offset{FileOffset: base + int64(local)}
			})
			s.consumed += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				break
			}
			return Unit{}, err
		}
	}
	if len(s.results) > 0 {
		u := s.results[0]
		s.results = s.results[1:]
		return u, nil
	}
	if u, ok := s.Finish(); ok {
		return u, nil
	}
	return Unit{}, io.EOF
}

// Feed pushes a chunk of PES payload data into the scanner, tagging
// any unit found within it with fileOffset (the containing PES
// packet's position in its container) and pesHadPTS. Completed units
// become available via Pop.
func (s *Scanner) Feed(data []byte, fileOffset int64, pesHadPTS bool) {
	s.process(data, pesHadPTS, func(local int) Offset {
		return Offset{FileOffset: fileOffset, PacketOffset: local}
	})
}

// Pop returns the next unit completed by a prior Feed call, if any.
func (s *Scanner) Pop() (Unit, bool) {
	if len(s.results) == 0 {
		return Unit{}, false
	}
	u := s.results[0]
	s.results = s.results[1:]
	return u, true
}

// Finish flushes any in-progress unit as a final, unterminated one —
// required at EOF since the last unit in a source has no following
// start code to end it.
func (s *Scanner) Finish() (Unit, bool) {
	if !s.haveUnit || len(s.buf) == 0 {
		return Unit{}, false
	}
	u := Unit{StartCode: s.startCode, Data: append([]byte(nil), s.buf...), Offset: s.unitOffset, PESHadPTS: s.unitPESHadPTS}
	s.haveUnit = false
	s.buf = nil
	return u, true
}

// process scans data for 00 00 01 start codes, emitting a completed
// Unit to s.results each time a new one is found (except the very
// first, which has no predecessor to close out). offsetAt maps a
// position within data to this unit's Offset.
func (s *Scanner) process(data []byte, pesHadPTS bool, offsetAt func(local int) Offset) {
	for i, c := range data {
		if len(s.buf) >= 2 && s.buf[len(s.buf)-2] == 0 && s.buf[len(s.buf)-1] == 0 && c == 1 {
			boundary := len(s.buf) - 2
			if s.haveUnit {
				s.results = append(s.results, Unit{
					StartCode: s.startCode,
					Data:      append([]byte(nil), s.buf[:boundary]...),
					Offset:    s.unitOffset,
					PESHadPTS: s.unitPESHadPTS,
				})
			}
			s.unitOffset = offsetAt(i - 2)
			s.unitPESHadPTS = pesHadPTS
			s.buf = append(append([]byte(nil), s.buf[boundary:]...), c)
			s.haveUnit = false
			s.awaiting = true
			continue
		}
		s.buf = append(s.buf, c)
		if s.awaiting {
			s.startCode = c
			s.haveUnit = true
			s.awaiting = false
		}
	}
}
