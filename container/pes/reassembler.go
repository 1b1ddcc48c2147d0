/*
NAME
  reassembler.go

DESCRIPTION
  reassembler.go reconstitutes PES packets from a sequence of
  transport-layer payload fragments keyed by PID: it applies the
  bounded/unbounded completion rules and the deferred-slot ordering an
  unbounded (video, declared-length-zero) PES packet requires when a
  new one starts before the previous one is known to have ended.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// OverlongPolicy controls how the reassembler handles a bounded PES
// packet whose accumulated bytes exceed its declared length.
type OverlongPolicy int

const (
	// OverlongTruncate (the default) truncates to the declared length
	// and finalizes, per the C9 bounded-overrun rule.
	OverlongTruncate OverlongPolicy = iota
	// OverlongError discards the packet and returns ErrOverlongPacket
	// instead of truncating.
	OverlongError
)

// ErrNoStartCode is returned by Feed when a PUSI-marked payload does
// not begin with the 00 00 01 PES start code.
var ErrNoStartCode = errors.New("pes: PUSI payload missing start code")

// ErrOverlongPacket is returned by Feed when a bounded PES packet
// exceeds its declared length and OverlongPolicy is OverlongError.
var ErrOverlongPacket = errors.New("pes: packet exceeds declared length")

// entry is one PID's in-progress PES packet.
type entry struct {
	buf       []byte
	unbounded bool
	wantLen   int // total bytes including the 6-byte fixed prefix+length field.
}

// Reassembler reconstitutes PES packets per PID from transport-layer
// fragments.
type Reassembler struct {
	log            logging.Logger
	OverlongPolicy OverlongPolicy

	inProgress map[uint16]*entry

	// selectedAudio is the PID of the one audio stream chosen under
	// the audio selection policy; it is valid only once
	// haveSelectedAudio is set.
	selectedAudio     uint16
	haveSelectedAudio bool
}

// NewReassembler returns a Reassembler that logs via log.
func NewReassembler(log logging.Logger) *Reassembler {
	return &Reassembler{
		log:        log,
		inProgress: make(map[uint16]*entry),
	}
}

// Feed processes one TS payload on pid. It returns a completed PES
// Packet (and done=true) when one finalizes. When an unbounded
// (video, declared-length-zero) packet is superseded by a new start,
// that prior packet is finalized and returned immediately — ahead of
// whatever the new start itself eventually produces — rather than
// waiting for an explicit end marker that unbounded PES never carries.
func (r *Reassembler) Feed(pid uint16, pusi bool, payload []byte) (pkt *Packet, done bool, err error) {
	if pusi {
		return r.handleStart(pid, payload)
	}
	return r.handleContinuation(pid, payload)
}

func (r *Reassembler) handleStart(pid uint16, payload []byte) (*Packet, bool, error) {
	prev, exists := r.inProgress[pid]
	if exists {
		if prev.unbounded {
			finished := finalize(prev)
			if err := r.start(pid, payload); err != nil {
				return nil, false, err
			}
			return finished, true, nil
		}
		r.log.Warning("discarding incomplete PES on new start", "pid", pid, "buffered", len(prev.buf))
		delete(r.inProgress, pid)
	}
	if err := r.start(pid, payload); err != nil {
		return nil, false, err
	}
	return r.checkComplete(pid)
}

func (r *Reassembler) handleContinuation(pid uint16, payload []byte) (*Packet, bool, error) {
	e, ok := r.inProgress[pid]
	if !ok {
		r.log.Warning("PES continuation with no section in progress, dropping", "pid", pid)
		return nil, false, nil
	}
	e.buf = append(e.buf, payload...)
	return r.checkComplete(pid)
}

func (r *Reassembler) start(pid uint16, payload []byte) error {
	if len(payload) < 6 || payload[0] != 0x00 || payload[1] != 0x00 || payload[2] != 0x01 {
		return ErrNoStartCode
	}
	declared := int(payload[4])<<8 | int(payload[5])
	e := &entry{buf: append([]byte(nil), payload...)}
	if declared == 0 {
		if !IsVideoStreamID(payload[3]) {
			r.log.Warning("unbounded PES declared for non-video stream", "pid", pid, "stream_id", payload[3])
		}
		e.unbounded = true
	} else {
		e.wantLen = declared + 6
	}
	r.inProgress[pid] = e
	return nil
}

func (r *Reassembler) checkComplete(pid uint16) (*Packet, bool, error) {
	e := r.inProgress[pid]
	if e.unbounded {
		return nil, false, nil
	}
	if len(e.buf) < e.wantLen {
		return nil, false, nil
	}
	if len(e.buf) > e.wantLen {
		switch r.OverlongPolicy {
		case OverlongError:
			r.log.Warning("overlong PES packet", "pid", pid, "got", len(e.buf), "want", e.wantLen)
			delete(r.inProgress, pid)
			return nil, false, ErrOverlongPacket
		default:
			r.log.Warning("truncating overlong PES packet", "pid", pid, "got", len(e.buf), "want", e.wantLen)
			e.buf = e.buf[:e.wantLen]
		}
	}
	delete(r.inProgress, pid)
	return finalize(e), true, nil
}

// Flush finalizes any still-unbounded in-progress packet for pid, as
// required at EOF. An incomplete bounded packet is discarded with a
// warning and nil is returned.
func (r *Reassembler) Flush(pid uint16) *Packet {
	e, ok := r.inProgress[pid]
	if !ok {
		return nil
	}
	delete(r.inProgress, pid)
	if !e.unbounded {
		r.log.Warning("discarding incomplete PES at flush", "pid", pid, "buffered", len(e.buf))
		return nil
	}
	return finalize(e)
}

func finalize(e *entry) *Packet {
	h, err := ParseHeader(e.buf)
	data := e.buf
	if err == nil {
		data = e.buf[h.HeaderLen:]
	}
	return &Packet{
		StreamID: e.buf[3],
		PDI:      h.PDI,
		PTS:      h.PTS,
		DTS:      h.DTS,
		Data:     data,
	}
}

// SelectAudio applies the "first audio stream sticks" policy: it
// reports whether pid should be accepted as the audio stream,
// remembering the first accepted PID and rejecting all others
// thereafter. preselected, if non-zero, pre-empts auto-selection.
func (r *Reassembler) SelectAudio(pid uint16, preselected uint16) bool {
	if preselected != 0 {
		return pid == preselected
	}
	if !r.haveSelectedAudio {
		r.selectedAudio = pid
		r.haveSelectedAudio = true
	}
	return pid == r.selectedAudio
}
