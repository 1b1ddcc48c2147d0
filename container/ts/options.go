/*
NAME
  options.go

DESCRIPTION
  options.go provides the functional options passed to NewWriter to
  configure PSI insertion strategy and output pacing.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ts

import (
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidRate is returned by Rate when passed a rate outside the
// supported range.
var ErrInvalidRate = errors.New("ts: invalid access unit rate")

// psiMethod selects when the writer re-emits PAT/PMT.
type psiMethod int

const (
	psiMethodPacket psiMethod = iota // every psiSendCount packets.
	psiMethodTime                    // every psiSetTime.
)

// PacketBasedPSI selects packet-based PSI insertion: PAT/PMT are
// re-emitted every sendCount packets written.
func PacketBasedPSI(sendCount int) func(*Writer) error {
	return func(w *Writer) error {
		w.psiMethod = psiMethodPacket
		w.psiSendCount = sendCount
		w.pktCount = sendCount
		return nil
	}
}

// TimeBasedPSI selects time-based PSI insertion: PAT/PMT are
// re-emitted at least once every dur.
func TimeBasedPSI(dur time.Duration) func(*Writer) error {
	return func(w *Writer) error {
		w.psiMethod = psiMethodTime
		w.psiSetTime = dur
		w.startTime = time.Time{}
		return nil
	}
}

// Rate sets the output access unit rate in Hz, used to derive PTS and
// PCR spacing; r must be between 1 and 60.
func Rate(r float64) func(*Writer) error {
	return func(w *Writer) error {
		if r < 1 || r > 60 {
			return ErrInvalidRate
		}
		w.writePeriod = time.Duration(float64(time.Second) / r)
		return nil
	}
}
