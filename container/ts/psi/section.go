/*
NAME
  section.go

DESCRIPTION
  section.go provides the PSI section header shared by PAT and PMT: the
  table header fields and CRC-32/MPEG-2 verification of a complete
  section. The pointer-field skip is done by the Assembler and the
  single-packet Extract functions.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psi provides PSI section assembly (pointer field handling,
// multi-TS-packet collection, CRC validation) and the PAT/PMT data
// model codec built on top of it.
package psi

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Table IDs.
const (
	PatTableID = 0x00
	PmtTableID = 0x02
)

// sectionHeaderLen is the length, in bytes, of the fixed fields common to
// every PSI section up to and including last_section_number.
const sectionHeaderLen = 8

// Errors returned while parsing a section header.
var (
	ErrSectionTooShort = errors.New("psi: section shorter than header")
	ErrBadTableID      = errors.New("psi: unexpected table id")
)

// header holds the fields common to PAT and PMT sections.
type header struct {
	tableID          byte
	tableIDExt       uint16 // transport_stream_id (PAT) or program_number (PMT)
	version          byte
	currentNext      bool
	sectionNumber    byte
	lastSectionNumber byte
}

// parseHeader parses the fixed section header starting at byte 0 of a
// section (the section as delivered by the Assembler, i.e. starting at
// table_id, without the pointer field).
func parseHeader(b []byte) (header, []byte, error) {
	if len(b) < sectionHeaderLen {
		return header{}, nil, ErrSectionTooShort
	}
	h := header{
		tableID:           b[0],
		tableIDExt:        binary.BigEndian.Uint16(b[3:5]),
		version:           (b[5] >> 1) & 0x1f,
		currentNext:       b[5]&0x01 != 0,
		sectionNumber:     b[6],
		lastSectionNumber: b[7],
	}
	return h, b[sectionHeaderLen:], nil
}

// sectionLength reads the 12-bit section_length from bytes [1:3] of a
// section (the length of everything following those two bytes,
// including the trailing CRC).
func sectionLength(b []byte) int {
	return int(b[1]&0x0f)<<8 | int(b[2])
}

// VerifyCRC reports whether section (table_id through the trailing
// 4-byte CRC, inclusive) is a valid CRC-32/MPEG-2 section.
func VerifyCRC(section []byte) bool {
	if len(section) < 4 {
		return false
	}
	got := crc32MPEG2(section[:len(section)-4])
	want := binary.BigEndian.Uint32(section[len(section)-4:])
	return got == want
}

// appendCRC appends the 4-byte CRC-32/MPEG-2 of section to section and
// returns the result.
func appendCRC(section []byte) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], crc32MPEG2(section))
	return append(section, buf[:]...)
}
