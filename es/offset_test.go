/*
NAME
  offset_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package es

import (
	"io"
	"testing"
)

// fakePacketSource serves a fixed sequence of packet payloads,
// reporting each one's own index as the next file offset, for testing
// ReadRange independent of any real container.
type fakePacketSource struct {
	payloads [][]byte
}

func (f *fakePacketSource) PayloadAt(fileOffset int64) ([]byte, int64, error) {
	i := int(fileOffset)
	if i < 0 || i >= len(f.payloads) {
		return nil, 0, io.EOF
	}
	return f.payloads[i], fileOffset + 1, nil
}

func TestReadRangeWithinOnePacket(t *testing.T) {
	src := &fakePacketSource{payloads: [][]byte{[]byte("abcdefgh")}}
	got, err := ReadRange(src, Offset{FileOffset: 0, PacketOffset: 2}, 4)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if string(got) != "cdef" {
		t.Errorf("got %q, want %q", got, "cdef")
	}
}

func TestReadRangeAcrossPackets(t *testing.T) {
	src := &fakePacketSource{payloads: [][]byte{[]byte("abcd"), []byte("efgh"), []byte("ijkl")}}
	got, err := ReadRange(src, Offset{FileOffset: 0, PacketOffset: 2}, 8)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if string(got) != "cdefghij" {
		t.Errorf("got %q, want %q", got, "cdefghij")
	}
}

func TestReadRangeShortSourceIsError(t *testing.T) {
	src := &fakePacketSource{payloads: [][]byte{[]byte("ab")}}
	if _, err := ReadRange(src, Offset{FileOffset: 0}, 10); err == nil {
		t.Error("ReadRange over an exhausted source should return an error")
	}
}

func TestReadRangePacketOffsetBeyondPayload(t *testing.T) {
	src := &fakePacketSource{payloads: [][]byte{[]byte("ab")}}
	if _, err := ReadRange(src, Offset{FileOffset: 0, PacketOffset: 5}, 1); err == nil {
		t.Error("ReadRange with a packet offset beyond the payload should return an error")
	}
}
