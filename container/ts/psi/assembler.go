/*
NAME
  assembler.go

DESCRIPTION
  assembler.go reconstitutes a PSI section (PAT or PMT) that may span
  multiple TS packets: it handles the pointer-field skip on the first
  packet of a section and hands the complete section to the caller once
  every declared byte has arrived.

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
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// maxSectionLen bounds the PSI assembler's section buffer, per the
// resource bound on section size.
const maxSectionLen = 4096

// ErrSectionSpansPackets is returned by ExtractStreamList when a PMT
// section is not wholly contained in the single TS payload it was
// handed.
var ErrSectionSpansPackets = errors.New("psi: PMT section spans multiple TS packets")

// Assembler collects PSI sections for a single PID across however many
// TS packets they span, applying the pointer-field and length-prefix
// rules of the PSI wire format.
type Assembler struct {
	buf         []byte
	expectedLen int
	usedLen     int
	active      bool

	log logging.Logger
}

// NewAssembler returns an Assembler that logs via log.
func NewAssembler(log logging.Logger) *Assembler {
	return &Assembler{log: log}
}

// Feed processes one TS payload for this assembler's PID. pusi is the
// packet's payload_unit_start_indicator. When a section completes,
// Feed returns it (table_id through the trailing CRC, inclusive) with
// done true; the Assembler is reset and ready for the next section.
func (a *Assembler) Feed(pusi bool, payload []byte) (section []byte, done bool, err error) {
	switch {
	case pusi && !a.active:
		return a.start(payload)
	case !pusi && !a.active:
		a.log.Warning("PSI payload with no section in progress, dropping")
		return nil, false, nil
	case pusi && a.active:
		a.log.Warning("discarding incomplete PSI section", "used", a.usedLen, "expected", a.expectedLen)
		a.reset()
		return a.start(payload)
	default: // !pusi && a.active
		return a.continueSection(payload)
	}
}

func (a *Assembler) start(payload []byte) (section []byte, done bool, err error) {
	if len(payload) < 4 {
		return nil, false, ErrSectionTooShort
	}
	pointer := int(payload[0])
	data := payload[1+pointer:]
	if len(data) < 3 {
		return nil, false, ErrSectionTooShort
	}
	a.expectedLen = sectionLength(data) + 3
	if a.expectedLen > maxSectionLen {
		a.log.Warning("PSI section exceeds maximum length, truncating", "expected", a.expectedLen)
		a.expectedLen = maxSectionLen
	}
	a.buf = make([]byte, 0, a.expectedLen)
	n := a.expectedLen
	if n > len(data) {
		n = len(data)
	}
	a.buf = append(a.buf, data[:n]...)
	a.usedLen = n
	a.active = true
	return a.checkComplete()
}

func (a *Assembler) continueSection(payload []byte) (section []byte, done bool, err error) {
	remaining := a.expectedLen - a.usedLen
	n := remaining
	if n > len(payload) {
		n = len(payload)
	}
	a.buf = append(a.buf, payload[:n]...)
	a.usedLen += n
	return a.checkComplete()
}

func (a *Assembler) checkComplete() ([]byte, bool, error) {
	if a.usedLen < a.expectedLen {
		return nil, false, nil
	}
	section := a.buf
	a.reset()
	return section, true, nil
}

func (a *Assembler) reset() {
	a.buf = nil
	a.expectedLen = 0
	a.usedLen = 0
	a.active = false
}
