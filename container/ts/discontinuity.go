/*
NAME
  discontinuity.go

DESCRIPTION
  discontinuity.go detects and repairs continuity_counter gaps on an
  already-encoded clip: a captured or retransmitted buffer whose
  packets need their discontinuity_indicator set wherever a tracked
  PID's counter didn't advance as expected, without reframing the rest
  of the packet. It reads the counter through gots' raw packet field
  accessors, since it works directly on wire bytes rather than through
  this package's own Packet model.

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
	gotspacket "github.com/Comcast/gots/v2/packet"
	"github.com/pkg/errors"
)

// ccUnset marks a tracked PID whose first packet hasn't been seen
// yet; continuity_counter is only 4 bits wide, so 16 never collides
// with a real value.
const ccUnset = 16

// DiscontinuityRepairer tracks the expected continuity_counter for a
// fixed set of PIDs across successive calls to Repair, scoped to a
// single writer or clip (never a package-global table).
type DiscontinuityRepairer struct {
	expCC map[uint16]byte
}

// NewDiscontinuityRepairer returns a repairer tracking pids.
func NewDiscontinuityRepairer(pids ...uint16) *DiscontinuityRepairer {
	r := &DiscontinuityRepairer{expCC: make(map[uint16]byte, len(pids))}
	for _, pid := range pids {
		r.expCC[pid] = ccUnset
	}
	return r
}

// Failed rolls back pid's expected counter by one, for use after a
// send failure so the next successfully sent packet isn't flagged as
// discontinuous relative to one that never went out.
func (r *DiscontinuityRepairer) Failed(pid uint16) {
	if cc, ok := r.expCC[pid]; ok && cc != ccUnset {
		r.expCC[pid] = (cc - 1) & 0x0f
	}
}

// Repair inspects the single TS packet at d[:PacketSize]. If its PID
// is tracked and its continuity_counter doesn't match what Repair
// last expected, the discontinuity_indicator is set (growing the
// packet an adaptation field if it has none) and d is rewritten in
// place.
func (r *DiscontinuityRepairer) Repair(d []byte) error {
	if len(d) < PacketSize {
		return ErrShortPacket
	}

	var raw gotspacket.Packet
	copy(raw[:], d[:PacketSize])
	pid := uint16(raw.PID())

	expect, tracked := r.expCC[pid]
	if !tracked {
		return nil
	}
	cc := byte(raw.ContinuityCounter())

	if expect != ccUnset && cc != expect {
		pkt, err := ParsePacket(d[:PacketSize])
		if err != nil {
			return errors.Wrap(err, "ts: parsing packet for discontinuity repair")
		}
		if pkt.AFC == AFCPayloadOnly {
			if len(pkt.Payload) < 2 {
				return errors.New("ts: payload too short to grow an adaptation field")
			}
			pkt.AFC = AFCAdaptPayload
			pkt.Payload = pkt.Payload[:len(pkt.Payload)-2]
		}
		pkt.DI = true
		copy(d[:PacketSize], pkt.Bytes(nil))
	}
	r.expCC[pid] = (cc + 1) & 0x0f
	return nil
}
