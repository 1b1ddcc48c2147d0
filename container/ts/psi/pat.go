/*
NAME
  pat.go

DESCRIPTION
  pat.go provides the Program Association Table data model: parsing a
  complete PAT section into a program list, and encoding a program list
  back into a single-section PAT.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Program is one (program_number, pmt_pid) entry of a PAT.
type Program struct {
	ProgramNumber uint16
	PMTPID        uint16
}

// PAT is a parsed Program Association Table.
type PAT struct {
	TransportStreamID uint16
	Version           byte
	CurrentNext       bool

	// Programs is the list of non-network-PID entries, in the order
	// they appeared in the section.
	Programs []Program

	// NetworkPID is the PID from the program_number==0 entry, if
	// present; HasNetworkPID reports whether one was seen.
	NetworkPID    uint16
	HasNetworkPID bool
}

// ErrCRC is returned by Parse functions when the section fails CRC
// validation; PAT treats this as fatal, PMT as a warning (see ParsePMT).
var ErrCRC = errors.New("psi: CRC-32/MPEG-2 mismatch")

// ParsePAT parses a complete PAT section (table_id through the trailing
// CRC, inclusive) as assembled by Assembler.
func ParsePAT(section []byte) (*PAT, error) {
	h, body, err := parseHeader(section)
	if err != nil {
		return nil, err
	}
	if h.tableID != PatTableID {
		return nil, ErrBadTableID
	}
	if !VerifyCRC(section) {
		return nil, ErrCRC
	}

	pat := &PAT{
		TransportStreamID: h.tableIDExt,
		Version:           h.version,
		CurrentNext:       h.currentNext,
	}

	// body is everything after the fixed header, up to and including
	// the trailing CRC; entries are 4 bytes each, CRC is the last 4.
	entries := body[:len(body)-4]
	for i := 0; i+4 <= len(entries); i += 4 {
		programNumber := binary.BigEndian.Uint16(entries[i : i+2])
		pid := binary.BigEndian.Uint16(entries[i+2:i+4]) & 0x1fff
		if programNumber == 0 {
			pat.NetworkPID = pid
			pat.HasNetworkPID = true
			continue
		}
		pat.Programs = append(pat.Programs, Program{ProgramNumber: programNumber, PMTPID: pid})
	}
	return pat, nil
}

// Bytes encodes p as a single-section PAT, pointer field included (the
// pointer field is always 0x00 since the section starts immediately).
func (p *PAT) Bytes() []byte {
	n := len(p.Programs)
	if p.HasNetworkPID {
		n++
	}
	body := make([]byte, sectionHeaderLen+4*n)
	body[0] = PatTableID
	binary.BigEndian.PutUint16(body[3:5], p.TransportStreamID)
	body[5] = 0xc0 | (p.Version << 1 & 0x3e) | boolBit(p.CurrentNext)
	body[6] = 0
	body[7] = 0

	i := sectionHeaderLen
	if p.HasNetworkPID {
		binary.BigEndian.PutUint16(body[i:i+2], 0)
		binary.BigEndian.PutUint16(body[i+2:i+4], 0xe000|p.NetworkPID)
		i += 4
	}
	for _, e := range p.Programs {
		binary.BigEndian.PutUint16(body[i:i+2], e.ProgramNumber)
		binary.BigEndian.PutUint16(body[i+2:i+4], 0xe000|e.PMTPID)
		i += 4
	}

	sectionLen := len(body) - 3 + 4 // everything after the length field, plus CRC
	body[1] = 0x80 | 0x30 | byte(sectionLen>>8&0x0f)
	body[2] = byte(sectionLen)

	section := appendCRC(body)
	return append([]byte{0x00}, section...)
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Equal reports whether p and o describe the same PAT: same scalar
// fields and the same set of programs (order-insensitive).
func (p *PAT) Equal(o *PAT) bool {
	if o == nil {
		return false
	}
	if p.TransportStreamID != o.TransportStreamID || p.Version != o.Version ||
		p.CurrentNext != o.CurrentNext || p.HasNetworkPID != o.HasNetworkPID ||
		p.NetworkPID != o.NetworkPID {
		return false
	}
	if len(p.Programs) != len(o.Programs) {
		return false
	}
	want := make(map[Program]int, len(o.Programs))
	for _, e := range o.Programs {
		want[e]++
	}
	for _, e := range p.Programs {
		if want[e] == 0 {
			return false
		}
		want[e]--
	}
	return true
}

// ExtractPrograms parses the program list from a PAT that is known to
// fit entirely within a single TS packet payload (pointer field 0, the
// whole section present). The strict single-packet sibling of
// Assembler+ParsePAT, mirroring psi.ExtractStreamList's PMT path.
func ExtractPrograms(payload []byte) ([]Program, error) {
	if len(payload) < 1 {
		return nil, ErrSectionTooShort
	}
	pointer := int(payload[0])
	section := payload[1+pointer:]
	if len(section) < 3 {
		return nil, ErrSectionTooShort
	}
	declaredLen := sectionLength(section) + 3
	if declaredLen > len(section) {
		return nil, ErrSectionSpansPackets
	}
	pat, err := ParsePAT(section[:declaredLen])
	if err != nil {
		return nil, err
	}
	return pat.Programs, nil
}
