/*
NAME
  packet_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ts

import (
	"testing"

	"github.com/kynesim/gomts/timestamp"
)

func TestParsePacketBadSync(t *testing.T) {
	b := make([]byte, PacketSize)
	b[0] = 0x00
	if _, err := ParsePacket(b); err != ErrBadSync {
		t.Fatalf("expected ErrBadSync, got %v", err)
	}
}

func TestParsePacketPayloadOnly(t *testing.T) {
	b := make([]byte, PacketSize)
	b[0] = SyncByte
	b[1] = 0x40 | 0x01 // PUSI, PID hi nibble
	b[2] = 0x00
	b[3] = 0x10 | 0x05 // AFC=01, CC=5
	for i := 4; i < PacketSize; i++ {
		b[i] = byte(i)
	}

	p, err := ParsePacket(b)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if !p.PUSI || p.PID != 0x0100 || p.AFC != AFCPayloadOnly || p.CC != 5 {
		t.Errorf("unexpected header fields: %+v", p)
	}
	if len(p.Payload) != PacketSize-4 {
		t.Errorf("payload length = %d, want %d", len(p.Payload), PacketSize-4)
	}
}

func TestParsePacketAdaptOnlyWithPCR(t *testing.T) {
	b := make([]byte, PacketSize)
	b[0] = SyncByte
	b[3] = 0x20 // AFC=10
	pcrVal := uint64(27000000)
	adapt := append([]byte{0x10}, timestamp.EncodePCR(pcrVal)...) // flags: PCRF set
	b[4] = byte(len(adapt))
	copy(b[5:], adapt)
	for i := 5 + len(adapt); i < PacketSize; i++ {
		b[i] = 0xff
	}

	p, err := ParsePacket(b)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if p.AFC != AFCAdaptOnly || !p.PCRF || p.PCR != pcrVal {
		t.Errorf("unexpected adaptation parse: %+v", p)
	}
	if len(p.Payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(p.Payload))
	}
}

func TestPacketBytesRoundTripPayloadOnly(t *testing.T) {
	p := &Packet{
		PUSI:    true,
		PID:     0x0101,
		AFC:     AFCPayloadOnly,
		CC:      3,
		Payload: []byte{1, 2, 3, 4},
	}
	buf := p.Bytes(nil)
	if len(buf) != PacketSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), PacketSize)
	}
	got, err := ParsePacket(buf)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if got.PID != p.PID || got.PUSI != p.PUSI || got.CC != p.CC {
		t.Errorf("got %+v, want fields from %+v", got, p)
	}
	if string(got.Payload[:4]) != string(p.Payload) {
		t.Errorf("payload mismatch: got %v, want %v", got.Payload[:4], p.Payload)
	}
}

func TestPacketNullPIDPayloadUntouched(t *testing.T) {
	b := make([]byte, PacketSize)
	b[0] = SyncByte
	b[1] = 0x1f
	b[2] = 0xff
	b[3] = 0x10
	for i := 4; i < PacketSize; i++ {
		b[i] = 0xff
	}
	p, err := ParsePacket(b)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if p.PID != NullPID {
		t.Errorf("PID = %#x, want %#x", p.PID, NullPID)
	}
}
