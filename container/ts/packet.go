/*
NAME
  packet.go

DESCRIPTION
  packet.go provides the Packet type: the parsed form of a single
  188-byte transport stream packet, the split rules that turn raw
  bytes into header/adaptation/payload, and the inverse encoding used
  by the writer.

AUTHORS
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ts provides MPEG-2 transport stream packet framing,
// continuity tracking, PCR timing interpolation, and the writer that
// produces conformant TS from elementary stream data.
package ts

import (
	"github.com/pkg/errors"

	"github.com/kynesim/gomts/timestamp"
)

// PacketSize is the fixed length, in bytes, of a transport stream
// packet.
const PacketSize = 188

// SyncByte starts every transport stream packet.
const SyncByte = 0x47

// NullPID is the PID reserved for stuffing packets; its payload is
// never interpreted.
const NullPID = 0x1fff

// Standard program IDs for program-specific information.
const (
	PatPID = 0x0000
	SdtPID = 0x0011
)

// Adaptation field control values (octet 3, bits 5-4).
const (
	AFCReserved     = 0x0
	AFCPayloadOnly  = 0x1
	AFCAdaptOnly    = 0x2
	AFCAdaptPayload = 0x3
)

// ErrBadSync is a fatal framing error: the first byte of a packet was
// not the sync byte.
var ErrBadSync = errors.New("ts: first byte is not sync byte 0x47")

// ErrShortPacket is returned when fewer than PacketSize bytes are
// available to parse.
var ErrShortPacket = errors.New("ts: fewer than 188 bytes available")

// Packet is the parsed form of one transport stream packet.
type Packet struct {
	TEI      bool   // Transport error indicator.
	PUSI     bool   // Payload unit start indicator.
	Priority bool   // Transport priority.
	PID      uint16 // Packet identifier.
	TSC      byte   // Transport scrambling control.
	AFC      byte   // Adaptation field control.
	CC       byte   // Continuity counter.

	// Adaptation field, present when AFC is AFCAdaptOnly or
	// AFCAdaptPayload.
	DI    bool   // Discontinuity indicator.
	RAI   bool   // Random access indicator.
	ESPI  bool   // Elementary stream priority indicator.
	PCRF  bool   // PCR flag.
	OPCRF bool   // Original PCR flag.
	SPF   bool   // Splicing point flag.
	TPDF  bool   // Transport private data flag.
	AFEF  bool   // Adaptation field extension flag.
	PCR   uint64 // Program clock reference, decoded base*300+ext.
	OPCR  uint64 // Original program clock reference.
	SC    byte   // Splice countdown.
	TPD   []byte // Transport private data.
	Ext   []byte // Adaptation field extension.

	// Stuffing is a count of 0xFF padding bytes to include at the end
	// of the adaptation field, used by the writer to pad a short PES
	// remainder out to a full packet. Parsed packets report the
	// stuffing present in the source via this field as well.
	Stuffing int

	Payload []byte // Payload bytes, borrowed from the parse input.
}

// ParsePacket parses one 188-byte transport stream packet out of b,
// applying the C4 split rules for the adaptation_field_control value.
// A null-PID packet's payload is returned unparsed, per spec: callers
// must not interpret it.
func ParsePacket(b []byte) (*Packet, error) {
	if len(b) < PacketSize {
		return nil, ErrShortPacket
	}
	if b[0] != SyncByte {
		return nil, ErrBadSync
	}

	p := &Packet{
		TEI:      b[1]&0x80 != 0,
		PUSI:     b[1]&0x40 != 0,
		Priority: b[1]&0x20 != 0,
		PID:      uint16(b[1]&0x1f)<<8 | uint16(b[2]),
		TSC:      b[3] >> 6 & 0x03,
		AFC:      b[3] >> 4 & 0x03,
		CC:       b[3] & 0x0f,
	}

	switch p.AFC {
	case AFCReserved:
		// Reserved value: no payload, no adaptation field, per spec a
		// warning condition left to the caller (the framer logs it).
		return p, nil
	case AFCPayloadOnly:
		p.Payload = b[4:PacketSize]
		return p, nil
	case AFCAdaptOnly:
		adaptLen := int(b[4])
		if 5+adaptLen > PacketSize {
			return nil, errors.New("ts: adaptation_field_length overruns packet")
		}
		if err := p.parseAdaptation(b[4 : 5+adaptLen]); err != nil {
			return nil, err
		}
		return p, nil
	default: // AFCAdaptPayload
		adaptLen := int(b[4])
		if 5+adaptLen > PacketSize {
			return nil, errors.New("ts: adaptation_field_length overruns packet")
		}
		if err := p.parseAdaptation(b[4 : 5+adaptLen]); err != nil {
			return nil, err
		}
		p.Payload = b[5+adaptLen : PacketSize]
		return p, nil
	}
}

// parseAdaptation parses an adaptation field, b[0] being the
// adaptation_field_length byte and b[1:] the field body (length bytes
// long).
func (p *Packet) parseAdaptation(b []byte) error {
	adaptLen := int(b[0])
	if adaptLen == 0 {
		return nil
	}
	if len(b) < 1+adaptLen {
		return errors.New("ts: adaptation field shorter than declared length")
	}
	flags := b[1]
	p.DI = flags&0x80 != 0
	p.RAI = flags&0x40 != 0
	p.ESPI = flags&0x20 != 0
	p.PCRF = flags&0x10 != 0
	p.OPCRF = flags&0x08 != 0
	p.SPF = flags&0x04 != 0
	p.TPDF = flags&0x02 != 0
	p.AFEF = flags&0x01 != 0

	rest := b[2:]
	if p.PCRF {
		if len(rest) < 6 {
			return errors.New("ts: adaptation field too short for PCR")
		}
		p.PCR = timestamp.DecodePCR(rest[:6])
		rest = rest[6:]
	}
	if p.OPCRF {
		if len(rest) < 6 {
			return errors.New("ts: adaptation field too short for OPCR")
		}
		p.OPCR = timestamp.DecodePCR(rest[:6])
		rest = rest[6:]
	}
	if p.SPF {
		if len(rest) < 1 {
			return errors.New("ts: adaptation field too short for splice countdown")
		}
		p.SC = rest[0]
		rest = rest[1:]
	}
	if p.TPDF {
		if len(rest) < 1 {
			return errors.New("ts: adaptation field too short for private data length")
		}
		n := int(rest[0])
		rest = rest[1:]
		if len(rest) < n {
			return errors.New("ts: adaptation field too short for private data")
		}
		p.TPD = append([]byte(nil), rest[:n]...)
		rest = rest[n:]
	}
	if p.AFEF {
		if len(rest) < 1 {
			return errors.New("ts: adaptation field too short for extension length")
		}
		n := int(rest[0])
		rest = rest[1:]
		if len(rest) < n {
			return errors.New("ts: adaptation field too short for extension")
		}
		p.Ext = append([]byte(nil), rest[:n]...)
		rest = rest[n:]
	}
	p.Stuffing = len(rest)
	return nil
}

// Bytes encodes p into buf (reusing its capacity when at least 188
// bytes, else allocating), returning the encoded 188-byte packet.
func (p *Packet) Bytes(buf []byte) []byte {
	if cap(buf) < PacketSize {
		buf = make([]byte, PacketSize)
	}
	buf = buf[:PacketSize]

	buf[0] = SyncByte
	buf[1] = asByte(p.TEI)<<7 | asByte(p.PUSI)<<6 | asByte(p.Priority)<<5 | byte(p.PID>>8&0x1f)
	buf[2] = byte(p.PID)
	buf[3] = p.TSC<<6 | p.AFC<<4 | p.CC

	switch p.AFC {
	case AFCPayloadOnly:
		copy(buf[4:], p.Payload)
		for i := 4 + len(p.Payload); i < PacketSize; i++ {
			buf[i] = 0xff
		}
	case AFCAdaptOnly, AFCAdaptPayload:
		n := p.encodeAdaptation(buf[4:])
		copy(buf[4+n:], p.Payload)
	}
	return buf
}

// encodeAdaptation writes the adaptation field (length byte
// inclusive, including p.Stuffing trailing 0xFF bytes) into buf and
// returns the number of bytes written.
func (p *Packet) encodeAdaptation(buf []byte) int {
	body := []byte{0}
	flags := byte(0)
	if p.DI {
		flags |= 0x80
	}
	if p.RAI {
		flags |= 0x40
	}
	if p.ESPI {
		flags |= 0x20
	}
	if p.PCRF {
		flags |= 0x10
	}
	if p.OPCRF {
		flags |= 0x08
	}
	if p.SPF {
		flags |= 0x04
	}
	if p.TPDF {
		flags |= 0x02
	}
	if p.AFEF {
		flags |= 0x01
	}
	body = append(body, flags)
	if p.PCRF {
		body = append(body, timestamp.EncodePCR(p.PCR)...)
	}
	if p.OPCRF {
		body = append(body, timestamp.EncodePCR(p.OPCR)...)
	}
	if p.SPF {
		body = append(body, p.SC)
	}
	if p.TPDF {
		body = append(body, byte(len(p.TPD)))
		body = append(body, p.TPD...)
	}
	if p.AFEF {
		body = append(body, byte(len(p.Ext)))
		body = append(body, p.Ext...)
	}
	for i := 0; i < p.Stuffing; i++ {
		body = append(body, 0xff)
	}
	body[0] = byte(len(body) - 1)
	n := copy(buf, body)
	return n
}

func asByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
