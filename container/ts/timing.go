/*
NAME
  timing.go

DESCRIPTION
  timing.go attaches an interpolated 27 MHz program clock reference to
  every packet read from a transport stream, not only the ones that
  carry a PCR, by buffering ahead to the next PCR-bearing packet on a
  configured PID and interpolating linearly between the two.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ts

import (
	"io"

	"github.com/ausocean/utils/logging"
)

// maxTimingRing bounds how many packets TimingBuffer will read ahead
// looking for the next PCR before giving up and delivering what it
// has at whatever rate is currently known.
const maxTimingRing = 500

// packetSource is the subset of Reader that TimingBuffer needs; tests
// can supply a fake.
type packetSource interface {
	Next() (*Packet, error)
}

type bufferedPacket struct {
	pkt  *Packet
	posn int
}

// TimingBuffer wraps a Reader (or any packetSource), reporting a PCR
// for every packet it yields by interpolating between the PCRs
// actually carried on pcrPID.
type TimingBuffer struct {
	src    packetSource
	log    logging.Logger
	pcrPID uint16

	ring []bufferedPacket

	totalRead int

	haveAnchor     bool
	prevPCR        uint64
	prevPCRPosn    int
	endPCR         uint64
	endPCRPosn     int
	ticksPerPacket float64

	eof bool
}

// NewTimingBuffer returns a TimingBuffer sourcing packets from src and
// deriving timing from PCRs on pcrPID.
func NewTimingBuffer(src packetSource, log logging.Logger, pcrPID uint16) *TimingBuffer {
	return &TimingBuffer{src: src, log: log, pcrPID: pcrPID}
}

// Next returns the next packet in source order along with its PCR,
// exact for a packet that actually carries one on pcrPID, otherwise
// linearly interpolated from the surrounding anchors. It returns
// io.EOF once the source and buffer are both exhausted.
func (t *TimingBuffer) Next() (*Packet, uint64, error) {
	if len(t.ring) == 0 {
		if err := t.refill(); err != nil {
			return nil, 0, err
		}
	}
	if len(t.ring) == 0 {
		return nil, 0, io.EOF
	}

	item := t.ring[0]
	t.ring = t.ring[1:]
	return item.pkt, t.pcrFor(item), nil
}

// pcrFor reports item's PCR: exact if it is the anchor packet itself,
// otherwise interpolated from the last known rate.
func (t *TimingBuffer) pcrFor(item bufferedPacket) uint64 {
	if item.pkt.PID == t.pcrPID && item.pkt.PCRF && item.posn == t.endPCRPosn {
		return item.pkt.PCR
	}
	if !t.haveAnchor {
		return 0
	}
	return t.prevPCR + uint64(float64(item.posn-t.prevPCRPosn)*t.ticksPerPacket)
}

// refill reads packets from src, buffering them, until either a new
// PCR anchor on pcrPID is found, the ring reaches its capacity, or the
// source is exhausted (entering "playing out" mode, where the last
// known rate continues to be used until the buffer empties).
func (t *TimingBuffer) refill() error {
	for !t.eof && len(t.ring) < maxTimingRing {
		pkt, err := t.src.Next()
		if err == io.EOF {
			t.eof = true
			break
		}
		if err != nil {
			return err
		}

		posn := t.totalRead
		t.totalRead++
		t.ring = append(t.ring, bufferedPacket{pkt: pkt, posn: posn})

		if pkt.PID == t.pcrPID && pkt.PCRF {
			t.advanceAnchor(pkt.PCR, posn)
			break
		}
	}
	return nil
}

// advanceAnchor records a newly observed PCR at posn as the new end
// anchor, rolling the previous end anchor into the start anchor and
// recomputing the interpolation rate. A PCR smaller than the previous
// one (wraparound, or a declared discontinuity) resets the rate rather
// than producing a negative interpolation.
func (t *TimingBuffer) advanceAnchor(pcr uint64, posn int) {
	if !t.haveAnchor {
		t.prevPCR, t.prevPCRPosn = pcr, posn
		t.endPCR, t.endPCRPosn = pcr, posn
		t.haveAnchor = true
		return
	}

	t.prevPCR, t.prevPCRPosn = t.endPCR, t.endPCRPosn
	t.endPCR, t.endPCRPosn = pcr, posn

	if t.endPCRPosn <= t.prevPCRPosn || t.endPCR < t.prevPCR {
		t.log.Warning("timing buffer: non-monotone PCR, resetting rate", "prev", t.prevPCR, "end", t.endPCR)
		t.ticksPerPacket = 0
		return
	}
	t.ticksPerPacket = float64(t.endPCR-t.prevPCR) / float64(t.endPCRPosn-t.prevPCRPosn)
}
