/*
NAME
  reassembler_test.go

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

import "testing"

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{})   {}
func (discardLogger) Info(string, ...interface{})    {}
func (discardLogger) Warning(string, ...interface{}) {}
func (discardLogger) Error(string, ...interface{})   {}
func (discardLogger) Fatal(string, ...interface{})   {}

func split(b []byte, n int) ([]byte, []byte) { return b[:n], b[n:] }

func TestReassemblerBoundedSinglePacket(t *testing.T) {
	pkt := Packet{StreamID: VideoStreamID, PDI: PDIPTSOnly, PTS: 123, Data: []byte{1, 2, 3, 4}}
	b := pkt.Bytes(nil)

	r := NewReassembler(discardLogger{})
	got, done, err := r.Feed(0x100, true, b)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !done {
		t.Fatalf("expected immediate completion for a single-fragment bounded packet")
	}
	if got.PTS != pkt.PTS || string(got.Data) != string(pkt.Data) {
		t.Errorf("got %+v, want %+v", got, pkt)
	}
}

func TestReassemblerBoundedAcrossFragments(t *testing.T) {
	pkt := Packet{StreamID: VideoStreamID, PDI: PDINone, Data: []byte{1, 2, 3, 4, 5, 6}}
	b := pkt.Bytes(nil)
	first, second := split(b, len(b)-2)

	r := NewReassembler(discardLogger{})
	_, done, err := r.Feed(0x100, true, first)
	if err != nil || done {
		t.Fatalf("unexpected first Feed: done=%v err=%v", done, err)
	}
	got, done, err := r.Feed(0x100, false, second)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !done {
		t.Fatalf("expected completion once all fragments arrived")
	}
	if string(got.Data) != string(pkt.Data) {
		t.Errorf("got data %v, want %v", got.Data, pkt.Data)
	}
}

func TestReassemblerBoundedOverrunTruncates(t *testing.T) {
	pkt := Packet{StreamID: VideoStreamID, PDI: PDINone, Data: []byte{1, 2, 3}}
	b := pkt.Bytes(nil)
	b = append(b, 0xff, 0xff) // extra trailing bytes beyond the declared length.

	r := NewReassembler(discardLogger{})
	got, done, err := r.Feed(0x100, true, b)
	if err != nil || !done {
		t.Fatalf("expected completion with truncation, got done=%v err=%v", done, err)
	}
	if string(got.Data) != string(pkt.Data) {
		t.Errorf("got data %v, want %v (overrun bytes should be truncated)", got.Data, pkt.Data)
	}
}

func TestReassemblerUnboundedFinalizesOnNewStart(t *testing.T) {
	first := Packet{StreamID: VideoStreamID, PDI: PDINone, Data: []byte{1, 2, 3}}
	fb := first.Bytes(nil)
	fb[4], fb[5] = 0, 0 // declared length 0: unbounded.

	second := Packet{StreamID: VideoStreamID, PDI: PDINone, Data: []byte{9, 9}}
	sb := second.Bytes(nil)

	r := NewReassembler(discardLogger{})
	got, done, err := r.Feed(0x100, true, fb)
	if err != nil || done {
		t.Fatalf("unbounded start should not complete immediately: done=%v err=%v", done, err)
	}

	got, done, err = r.Feed(0x100, true, sb)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !done {
		t.Fatalf("expected the deferred (first) packet to finalize on the new start")
	}
	if string(got.Data) != string(first.Data) {
		t.Errorf("deferred packet data = %v, want %v", got.Data, first.Data)
	}

	got, done, err = r.Feed(0x100, false, nil)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	_ = got
	_ = done
}

func TestSelectAudioFirstSticks(t *testing.T) {
	r := NewReassembler(discardLogger{})
	if !r.SelectAudio(0x101, 0) {
		t.Fatalf("first audio PID should be accepted")
	}
	if r.SelectAudio(0x102, 0) {
		t.Fatalf("second audio PID should be rejected once one has stuck")
	}
	if !r.SelectAudio(0x101, 0) {
		t.Fatalf("the stuck PID should keep being accepted")
	}
}

func TestSelectAudioPreselected(t *testing.T) {
	r := NewReassembler(discardLogger{})
	if r.SelectAudio(0x101, 0x102) {
		t.Fatalf("non-preselected PID should be rejected")
	}
	if !r.SelectAudio(0x102, 0x102) {
		t.Fatalf("preselected PID should be accepted")
	}
}
