/*
NAME
  pes.go

DESCRIPTION
  pes.go encodes a PES packet: the start-code-prefixed header
  (optional PTS/DTS, data alignment) followed by its elementary stream
  payload.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pes provides PES packet encoding and decoding: header
// construction with optional PTS/DTS, and parsing of a PES header out
// of an already-reassembled packet's bytes.
package pes

import (
	"github.com/ausocean/utils/logging"

	"github.com/kynesim/gomts/timestamp"
)

// MaxPesSize bounds the encoded size of a single PES packet this
// module will build in one call to Bytes.
const MaxPesSize = 64 * 1 << 10

// PTS/DTS indicator values for the PDI field.
const (
	PDINone   = 0x0
	PDIForbidden = 0x1
	PDIPTSOnly   = 0x2
	PDIPTSAndDTS = 0x3
)

/*
Packet encapsulates the fields of a PES packet. Below is the
formatting of a PES packet for reference.

============================================================================
| octet no | bit 0 | bit 1 | bit 2 | bit 3 | bit 4 | bit 5 | bit 6 | bit 7 |
============================================================================
| octet 0  | 0x00                                                          |
----------------------------------------------------------------------------
| octet 1  | 0x00                                                          |
----------------------------------------------------------------------------
| octet 2  | 0x01                                                          |
----------------------------------------------------------------------------
| octet 3  | Stream ID (0xE0 for video)                                    |
----------------------------------------------------------------------------
| octet 4  | PES Packet Length (no of bytes in packet after this field)    |
----------------------------------------------------------------------------
| octet 5  | PES Length cont.                                              |
----------------------------------------------------------------------------
| octet 6  | 0x2           |  SC           | Prior | DAI   | Copyr | Copy  |
----------------------------------------------------------------------------
| octet 7  | PDI           | ESCRF | ESRF  | DSMTMF| ACIF  | CRCF  | EF    |
----------------------------------------------------------------------------
| octet 8  | PES Header Length                                             |
----------------------------------------------------------------------------
| optional | PTS (5 bytes), DTS (5 bytes)                                  |
----------------------------------------------------------------------------
| Optional | Data (variable length)                                       |
----------------------------------------------------------------------------
*/
type Packet struct {
	StreamID  byte   // Identifies the PES transport class (video/audio/private).
	SC        byte   // Scrambling control.
	Priority  bool   // Priority indicator.
	DAI       bool   // Data alignment indicator.
	Copyright bool   // Copyright indicator.
	Original  bool   // Original-or-copy indicator.
	PDI       byte   // PTS/DTS indicator: PDINone, PDIPTSOnly, or PDIPTSAndDTS.
	PTS       uint64 // Presentation timestamp.
	DTS       uint64 // Decoding timestamp.
	Data      []byte // Elementary stream payload.

	// Log receives a warning whenever a PTS or DTS overflows the
	// 33-bit range EncodePTSDTS accepts and gets wrapped modulo that
	// range. Callers that don't care about the warning may leave it
	// nil.
	Log logging.Logger
}

// Bytes encodes p into buf (extending capacity as needed) and returns
// the encoded packet. The two-byte PES_packet_length field is zero
// when the encoded length minus that field would exceed 65535, legal
// only for video per the PES-wrapping rule; callers are responsible
// for only invoking this with a video stream_id in that case.
func (p *Packet) Bytes(buf []byte) []byte {
	buf = buf[:0]

	headerLen := 0
	if p.PDI == PDIPTSOnly || (p.PDI == PDIPTSAndDTS && p.PTS == p.DTS) {
		headerLen = 5
	} else if p.PDI == PDIPTSAndDTS {
		headerLen = 10
	}

	afterLengthField := 3 + headerLen + len(p.Data)
	var length uint16
	if afterLengthField <= 0xffff {
		length = uint16(afterLengthField)
	} // else left 0, meaning "unbounded" (video only).

	dai := p.DAI
	if IsAudioStreamID(p.StreamID) {
		dai = true
	}

	buf = append(buf, 0x00, 0x00, 0x01,
		p.StreamID,
		byte(length>>8), byte(length),
		0x80|p.SC<<4|boolByte(p.Priority)<<3|boolByte(dai)<<2|boolByte(p.Copyright)<<1|boolByte(p.Original),
		p.PDI<<6,
		byte(headerLen),
	)

	switch p.PDI {
	case PDIPTSOnly:
		b, ok := timestamp.EncodePTSDTS(p.PTS, timestamp.GuardPTSOnly)
		p.warnOnOverflow(ok, "PTS", p.PTS)
		buf = append(buf, b[:]...)
	case PDIPTSAndDTS:
		if p.PTS == p.DTS {
			// PTS==DTS: suppress DTS per the PES-wrapping rule,
			// encode as PTS-only.
			buf[7] = PDIPTSOnly << 6
			buf[8] = 5
			b, ok := timestamp.EncodePTSDTS(p.PTS, timestamp.GuardPTSOnly)
			p.warnOnOverflow(ok, "PTS", p.PTS)
			buf = append(buf, b[:]...)
		} else {
			pb, ok := timestamp.EncodePTSDTS(p.PTS, timestamp.GuardPTSAndDTS)
			p.warnOnOverflow(ok, "PTS", p.PTS)
			db, ok := timestamp.EncodePTSDTS(p.DTS, timestamp.GuardDTS)
			p.warnOnOverflow(ok, "DTS", p.DTS)
			buf = append(buf, pb[:]...)
			buf = append(buf, db[:]...)
		}
	}

	buf = append(buf, p.Data...)
	return buf
}

// warnOnOverflow logs via p.Log when ok is false, meaning field (PTS
// or DTS) exceeded the 33-bit range and was reduced modulo it.
func (p *Packet) warnOnOverflow(ok bool, field string, value uint64) {
	if ok || p.Log == nil {
		return
	}
	p.Log.Warning("pes: timestamp exceeds 33-bit range, wrapped modulo 2^33", "field", field, "value", value)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
