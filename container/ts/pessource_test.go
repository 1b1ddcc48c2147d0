/*
NAME
  pessource_test.go

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

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/es"
	"github.com/kynesim/gomts/ioseek"
)

func TestPESSourcePayloadAt(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, discardLogger{}, 1, PacketBasedPSI(1))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.ConfigureStream(pes.StreamTypeH264, 0x101)

	if err := w.WriteAccessUnit(0x101, pes.VideoStreamID, []byte("first frame")); err != nil {
		t.Fatalf("WriteAccessUnit: %v", err)
	}
	if err := w.WriteAccessUnit(0x101, pes.VideoStreamID, []byte("second frame")); err != nil {
		t.Fatalf("WriteAccessUnit: %v", err)
	}

	src := ioseek.FromReadSeeker(bytes.NewReader(buf.Bytes()))
	adapter := NewPESSource(src, 0x101, discardLogger{})

	payload, next, err := adapter.PayloadAt(0)
	if err != nil {
		t.Fatalf("PayloadAt(0): %v", err)
	}
	if string(payload) != "first frame" {
		t.Errorf("payload = %q, want %q", payload, "first frame")
	}

	payload, _, err = adapter.PayloadAt(next)
	if err != nil {
		t.Fatalf("PayloadAt(next): %v", err)
	}
	if string(payload) != "second frame" {
		t.Errorf("payload = %q, want %q", payload, "second frame")
	}
}

func TestPESSourceReadRangeAcrossFrames(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, discardLogger{}, 1, PacketBasedPSI(1))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.ConfigureStream(pes.StreamTypeH264, 0x101)

	if err := w.WriteAccessUnit(0x101, pes.VideoStreamID, []byte("hello ")); err != nil {
		t.Fatalf("WriteAccessUnit: %v", err)
	}
	if err := w.WriteAccessUnit(0x101, pes.VideoStreamID, []byte("world")); err != nil {
		t.Fatalf("WriteAccessUnit: %v", err)
	}

	src := ioseek.FromReadSeeker(bytes.NewReader(buf.Bytes()))
	adapter := NewPESSource(src, 0x101, discardLogger{})

	got, err := es.ReadRange(adapter, es.Offset{FileOffset: 0, PacketOffset: 2}, 9)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if string(got) != "llo world" {
		t.Errorf("got %q, want %q", got, "llo world")
	}
}
