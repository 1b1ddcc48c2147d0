/*
NAME
  continuity.go

DESCRIPTION
  continuity.go tracks the continuity_counter field per PID, tolerating
  a single repeated counter (a retransmitted packet) and flagging
  anything else as a discontinuity.

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

// ccState is the per-PID continuity state: the last counter value
// seen and whether it has already been tolerated once as a duplicate.
type ccState struct {
	lastCC   byte
	hasLast  bool
	dupCount int
}

// ContinuityTracker records continuity_counter expectations per PID,
// scoped to a single reader or writer instance (never shared globally,
// since two independent pipelines must not corrupt each other's
// counters).
type ContinuityTracker struct {
	state map[uint16]*ccState
}

// NewContinuityTracker returns an empty ContinuityTracker.
func NewContinuityTracker() *ContinuityTracker {
	return &ContinuityTracker{state: make(map[uint16]*ccState)}
}

// Observe records one non-null-PID packet's continuity_counter and
// reports whether it represents a discontinuity relative to the PID's
// prior counter: neither an exact repeat of the last value nor an
// increment of it modulo 16.
func (c *ContinuityTracker) Observe(pid uint16, cc byte) (discontinuous bool) {
	if pid == NullPID {
		return false
	}
	s, ok := c.state[pid]
	if !ok {
		s = &ccState{}
		c.state[pid] = s
	}
	if !s.hasLast {
		s.lastCC = cc
		s.hasLast = true
		return false
	}
	switch {
	case cc == s.lastCC:
		s.dupCount++
		if s.dupCount > 1 {
			discontinuous = true
			s.dupCount = 0
		}
	case cc == (s.lastCC+1)&0x0f:
		s.dupCount = 0
	default:
		discontinuous = true
		s.dupCount = 0
	}
	s.lastCC = cc
	return discontinuous
}

// Reset discards all tracked state, e.g. after a seek.
func (c *ContinuityTracker) Reset() {
	c.state = make(map[uint16]*ccState)
}
