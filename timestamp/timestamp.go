/*
NAME
  timestamp.go

DESCRIPTION
  timestamp.go implements the bit-level codecs for the two time
  representations used throughout MPEG-2 systems: the 33-bit 90 kHz
  PTS/DTS carried in a PES header, and the 42-bit 27 MHz PCR carried
  in a transport stream adaptation field. Kept as a standalone package
  so both the TS and PES layers can depend on it without an import
  cycle between them.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package timestamp

import "github.com/pkg/errors"

// Max is the largest representable 33-bit PTS/DTS value; values
// beyond this are reduced modulo this range plus one.
const Max = 1<<33 - 1

// pcrReservedBits are the six reserved bits that pad a PCR's extension
// field out to a byte boundary.
const pcrReservedBits = 0x3f

// Guard nibbles that prefix a 5-byte PTS/DTS field, identifying which
// of the three legal contexts it was encoded in.
const (
	GuardPTSOnly   = 0x2 // PTS present, no DTS.
	GuardPTSAndDTS = 0x3 // PTS present, DTS follows.
	GuardDTS       = 0x1 // DTS, the second field of a PTS+DTS pair.
)

// ErrBadGuard is returned when a PTS/DTS field's leading nibble does
// not match one of the three legal guard values.
var ErrBadGuard = errors.New("timestamp: unexpected PTS/DTS guard bits")

// ErrMarkerBit is returned when a PTS/DTS field's marker bits are not
// all 1, indicating the field is misaligned or corrupt.
var ErrMarkerBit = errors.New("timestamp: marker bit not set")

// EncodePTSDTS encodes a 33-bit PTS or DTS value into the standard
// 5-byte field, prefixed with guard. ok is false if v exceeded Max, in
// which case v is reduced modulo Max+1 before encoding.
func EncodePTSDTS(v uint64, guard byte) (b [5]byte, ok bool) {
	ok = v <= Max
	v &= Max

	b[0] = guard<<4 | byte(v>>29)&0x0e | 0x01
	b[1] = byte(v >> 22)
	b[2] = byte(v>>14)&0xfe | 0x01
	b[3] = byte(v >> 7)
	b[4] = byte(v<<1)&0xfe | 0x01
	return b, ok
}

// DecodePTSDTS decodes a 5-byte PTS/DTS field, checking the guard
// nibble against want and the three marker bits.
func DecodePTSDTS(b []byte, want byte) (v uint64, err error) {
	if len(b) < 5 {
		return 0, errors.New("timestamp: field shorter than 5 bytes")
	}
	if b[0]>>4 != want {
		return 0, ErrBadGuard
	}
	if b[0]&0x01 == 0 || b[2]&0x01 == 0 || b[4]&0x01 == 0 {
		return 0, ErrMarkerBit
	}
	v = uint64(b[0]>>1&0x07)<<30 | uint64(b[1])<<22 | uint64(b[2]>>1&0x7f)<<15 | uint64(b[3])<<7 | uint64(b[4]>>1&0x7f)
	return v, nil
}

// EncodePCR encodes a PCR value (27 MHz, base*300+ext form) into the
// standard 6-byte field.
func EncodePCR(pcr uint64) []byte {
	base := (pcr / 300) & 0x1ffffffff
	ext := pcr % 300 & 0x1ff

	var b [6]byte
	b[0] = byte(base >> 25)
	b[1] = byte(base >> 17)
	b[2] = byte(base >> 9)
	b[3] = byte(base >> 1)
	b[4] = byte(base<<7) | pcrReservedBits<<1 | byte(ext>>8&0x01)
	b[5] = byte(ext)
	return b[:]
}

// DecodePCR decodes a 6-byte PCR field into its 27 MHz value
// (base*300+ext).
func DecodePCR(b []byte) uint64 {
	base := uint64(b[0])<<25 | uint64(b[1])<<17 | uint64(b[2])<<9 | uint64(b[3])<<1 | uint64(b[4]>>7)
	ext := uint64(b[4]&0x01)<<8 | uint64(b[5])
	return base*300 + ext
}
