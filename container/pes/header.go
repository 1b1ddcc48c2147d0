/*
NAME
  header.go

DESCRIPTION
  header.go parses a PES packet's fixed and optional header fields out
  of an already start-code-aligned byte slice.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/kynesim/gomts/timestamp"
)

// Header is the parsed form of a PES packet's header, up to and
// including the optional PTS/DTS fields; Data is whatever of the
// payload was present in the slice handed to ParseHeader.
type Header struct {
	StreamID byte
	Length   uint16 // declared PES_packet_length; 0 means unbounded.
	PDI      byte
	HasPTS   bool
	PTS      uint64
	HasDTS   bool
	DTS      uint64

	// HeaderLen is the total size, in bytes, of everything up to and
	// including the optional fields (i.e. where Data begins).
	HeaderLen int
}

// ErrNotPESStartCode is returned when payload does not begin with the
// 00 00 01 start code prefix.
var ErrNotPESStartCode = errors.New("pes: missing start code prefix")

// ErrShortHeader is returned when payload is too short to contain a
// complete fixed PES header.
var ErrShortHeader = errors.New("pes: payload shorter than fixed header")

// ParseHeader parses the PES header at the start of payload. Only the
// "normal" PES header (stream_id not one of the padding/private
// stream-2 classes that lack the extension fields) is supported,
// matching the streams this module writes and reassembles.
func ParseHeader(payload []byte) (Header, error) {
	if len(payload) < 6 {
		return Header{}, ErrShortHeader
	}
	if payload[0] != 0x00 || payload[1] != 0x00 || payload[2] != 0x01 {
		return Header{}, ErrNotPESStartCode
	}
	h := Header{
		StreamID: payload[3],
		Length:   binary.BigEndian.Uint16(payload[4:6]),
	}
	if len(payload) < 9 {
		return Header{}, ErrShortHeader
	}
	h.PDI = payload[7] >> 6 & 0x03
	headerDataLen := int(payload[8])
	h.HeaderLen = 9 + headerDataLen
	if len(payload) < h.HeaderLen {
		return Header{}, ErrShortHeader
	}

	opt := payload[9:h.HeaderLen]
	switch h.PDI {
	case PDIPTSOnly:
		if len(opt) < 5 {
			return Header{}, ErrShortHeader
		}
		pts, err := timestamp.DecodePTSDTS(opt[:5], timestamp.GuardPTSOnly)
		if err != nil {
			return Header{}, err
		}
		h.HasPTS = true
		h.PTS = pts
	case PDIPTSAndDTS:
		if len(opt) < 10 {
			return Header{}, ErrShortHeader
		}
		pts, err := timestamp.DecodePTSDTS(opt[:5], timestamp.GuardPTSAndDTS)
		if err != nil {
			return Header{}, err
		}
		dts, err := timestamp.DecodePTSDTS(opt[5:10], timestamp.GuardDTS)
		if err != nil {
			return Header{}, err
		}
		h.HasPTS, h.PTS = true, pts
		h.HasDTS, h.DTS = true, dts
	}
	return h, nil
}
