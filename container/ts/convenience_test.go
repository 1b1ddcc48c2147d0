/*
NAME
  convenience_test.go

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
	"bytes"
	"testing"

	"github.com/kynesim/gomts/container/ts/psi"
)

func buildPATPacket(t *testing.T, pmtPID uint16) []byte {
	t.Helper()
	pat := psi.NewStandardPAT(1, pmtPID)
	pkt := &Packet{PUSI: true, PID: PatPID, AFC: AFCPayloadOnly, Payload: padPSI(pat.Bytes())}
	return pkt.Bytes(nil)
}

func buildPMTPacket(t *testing.T, pmtPID, esPID uint16, streamType byte) []byte {
	t.Helper()
	pmt := psi.NewStandardPMT(esPID)
	pmt.Streams = []psi.Stream{{StreamType: streamType, ElementaryPID: esPID}}
	b, err := pmt.Bytes()
	if err != nil {
		t.Fatalf("PMT.Bytes: %v", err)
	}
	pkt := &Packet{PUSI: true, PID: pmtPID, AFC: AFCPayloadOnly, Payload: padPSI(b)}
	return pkt.Bytes(nil)
}

func TestFindPidAndLastPid(t *testing.T) {
	pat := buildPATPacket(t, 0x1000)
	null := (&Packet{PID: NullPID, AFC: AFCPayloadOnly, Payload: bytes.Repeat([]byte{0xff}, PacketSize-4)}).Bytes(nil)

	var clip []byte
	clip = append(clip, pat...)
	clip = append(clip, null...)
	clip = append(clip, pat...)

	pkt, i, err := FindPid(clip, PatPID)
	if err != nil {
		t.Fatalf("FindPid: %v", err)
	}
	if i != 0 || !bytes.Equal(pkt, pat) {
		t.Errorf("FindPid returned offset %d, want 0", i)
	}

	pkt, i, err = LastPid(clip, PatPID)
	if err != nil {
		t.Fatalf("LastPid: %v", err)
	}
	if i != 2*PacketSize || !bytes.Equal(pkt, pat) {
		t.Errorf("LastPid returned offset %d, want %d", i, 2*PacketSize)
	}

	if _, _, err := FindPid(clip, 0x0200); err == nil {
		t.Errorf("expected ErrPidNotFound for an absent PID")
	}
}

func TestProgramsAndStreams(t *testing.T) {
	patPkt := buildPATPacket(t, 0x1000)
	progs, err := Programs(patPkt)
	if err != nil {
		t.Fatalf("Programs: %v", err)
	}
	if progs[1] != 0x1000 {
		t.Errorf("Programs = %v, want program 1 -> PMT PID 0x1000", progs)
	}

	pmtPkt := buildPMTPacket(t, 0x1000, 0x0068, 0x1b)
	streams, err := Streams(pmtPkt, discardLogger{})
	if err != nil {
		t.Fatalf("Streams: %v", err)
	}
	if len(streams) != 1 || streams[0].ElementaryPID != 0x0068 || streams[0].StreamType != 0x1b {
		t.Errorf("Streams = %+v, want one stream on PID 0x68 type 0x1b", streams)
	}
}
