/*
NAME
  pmt.go

DESCRIPTION
  pmt.go provides the Program Map Table data model: parsing a complete
  PMT section into a stream list, and encoding a stream list back into a
  single-section PMT.

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
	"bytes"
	"encoding/binary"

	"github.com/ausocean/utils/logging"
)

// Stream is one elementary stream entry of a PMT.
type Stream struct {
	StreamType    byte
	ElementaryPID uint16
	ESInfo        []byte
}

// PMT is a parsed Program Map Table.
type PMT struct {
	ProgramNumber uint16
	Version       byte
	CurrentNext   bool
	PCRPID        uint16
	ProgramInfo   []byte
	Streams       []Stream
}

// errPMTSectionOverflow is returned by the PMT writer when the encoded
// section would exceed the 1021-byte section_length limit.
var errPMTSectionOverflow = bytes.ErrTooLarge

// ParsePMT parses a complete PMT section (table_id through the trailing
// CRC, inclusive) as assembled by Assembler. A table_id other than 0x02
// is user-private or forbidden per the standard; ParsePMT logs a
// warning and returns an empty PMT with ProgramNumber 0, rather than an
// error, matching the source behavior.
func ParsePMT(section []byte, log logging.Logger) (*PMT, error) {
	h, body, err := parseHeader(section)
	if err != nil {
		return nil, err
	}
	if h.tableID != PmtTableID {
		log.Warning("unexpected PMT table id, returning empty PMT", "table_id", h.tableID)
		return &PMT{}, nil
	}

	crcOK := VerifyCRC(section)
	if !crcOK {
		log.Warning("PMT CRC mismatch, parsing anyway", "program_number", h.tableIDExt)
	}

	pmt := &PMT{
		ProgramNumber: h.tableIDExt,
		Version:       h.version,
		CurrentNext:   h.currentNext,
	}

	data := body[:len(body)-4] // drop trailing CRC
	if len(data) < 4 {
		return nil, ErrSectionTooShort
	}
	pmt.PCRPID = binary.BigEndian.Uint16(data[0:2]) & 0x1fff
	progInfoLen := int(binary.BigEndian.Uint16(data[2:4]) & 0x0fff)
	data = data[4:]
	if progInfoLen > len(data) {
		log.Warning("program_info_length overruns section", "declared", progInfoLen, "available", len(data))
		progInfoLen = len(data)
	}
	pmt.ProgramInfo = append([]byte(nil), data[:progInfoLen]...)
	data = data[progInfoLen:]

	for len(data) >= 5 {
		streamType := data[0]
		pid := binary.BigEndian.Uint16(data[1:3]) & 0x1fff
		esInfoLen := int(binary.BigEndian.Uint16(data[3:5]) & 0x0fff)
		data = data[5:]
		if esInfoLen > len(data) {
			log.Warning("es_info_length overruns section", "declared", esInfoLen, "available", len(data))
			esInfoLen = len(data)
		}
		pmt.Streams = append(pmt.Streams, Stream{
			StreamType:    streamType,
			ElementaryPID: pid,
			ESInfo:        append([]byte(nil), data[:esInfoLen]...),
		})
		data = data[esInfoLen:]
	}

	if !crcOK {
		return pmt, ErrCRC
	}
	return pmt, nil
}

// Bytes encodes p as a single-section PMT, pointer field included.
// Returns an error if section_length would exceed 1021 bytes (the
// single-section PMT limit).
func (p *PMT) Bytes() ([]byte, error) {
	streamBytes := make([][]byte, len(p.Streams))
	streamsLen := 0
	for i, s := range p.Streams {
		b := make([]byte, 5+len(s.ESInfo))
		b[0] = s.StreamType
		binary.BigEndian.PutUint16(b[1:3], 0xe000|s.ElementaryPID)
		binary.BigEndian.PutUint16(b[3:5], 0xf000|uint16(len(s.ESInfo)))
		copy(b[5:], s.ESInfo)
		streamBytes[i] = b
		streamsLen += len(b)
	}

	body := make([]byte, sectionHeaderLen+4+len(p.ProgramInfo)+streamsLen)
	body[0] = PmtTableID
	binary.BigEndian.PutUint16(body[3:5], p.ProgramNumber)
	body[5] = 0xc0 | (p.Version << 1 & 0x3e) | boolBit(p.CurrentNext)
	body[6] = 0
	body[7] = 0

	i := sectionHeaderLen
	binary.BigEndian.PutUint16(body[i:i+2], 0xe000|p.PCRPID)
	binary.BigEndian.PutUint16(body[i+2:i+4], 0xf000|uint16(len(p.ProgramInfo)))
	i += 4
	copy(body[i:], p.ProgramInfo)
	i += len(p.ProgramInfo)
	for _, b := range streamBytes {
		copy(body[i:], b)
		i += len(b)
	}

	sectionLen := len(body) - 3 + 4
	if sectionLen > 1021 {
		return nil, errPMTSectionOverflow
	}
	body[1] = 0x80 | 0x30 | byte(sectionLen>>8&0x0f)
	body[2] = byte(sectionLen)

	section := appendCRC(body)
	return append([]byte{0x00}, section...), nil
}

// Equal reports whether p and o describe the same PMT, per the equality
// rule: scalar fields match, program_info is byte-equal, and streams are
// set-equal by ElementaryPID with byte-equal ESInfo. Used to suppress
// repeated-info warnings when a PMT is retransmitted unchanged.
func (p *PMT) Equal(o *PMT) bool {
	if o == nil {
		return false
	}
	if p.ProgramNumber != o.ProgramNumber || p.Version != o.Version ||
		p.CurrentNext != o.CurrentNext || p.PCRPID != o.PCRPID {
		return false
	}
	if !bytes.Equal(p.ProgramInfo, o.ProgramInfo) {
		return false
	}
	if len(p.Streams) != len(o.Streams) {
		return false
	}
	want := make(map[uint16][]byte, len(o.Streams))
	wantType := make(map[uint16]byte, len(o.Streams))
	for _, s := range o.Streams {
		want[s.ElementaryPID] = s.ESInfo
		wantType[s.ElementaryPID] = s.StreamType
	}
	for _, s := range p.Streams {
		esInfo, ok := want[s.ElementaryPID]
		if !ok || wantType[s.ElementaryPID] != s.StreamType || !bytes.Equal(esInfo, s.ESInfo) {
			return false
		}
	}
	return true
}

// ExtractStreamList parses the stream list from a PMT that is known to
// fit entirely within a single TS packet payload (the pointer field
// must be 0 and the whole section must be present in payload). This is
// the strict sibling of Assembler+ParsePMT: it never collects a section
// spanning multiple TS packets, returning ErrSectionSpansPackets
// instead. Preserved as a distinct, explicitly single-packet code path
// per the dual-extractor design decision.
func ExtractStreamList(payload []byte, log logging.Logger) ([]Stream, error) {
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
	pmt, err := ParsePMT(section[:declaredLen], log)
	if err != nil && err != ErrCRC {
		return nil, err
	}
	return pmt.Streams, nil
}
