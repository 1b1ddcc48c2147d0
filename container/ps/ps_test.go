/*
NAME
  ps_test.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ps

import (
	"bytes"
	"io"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/kynesim/gomts/es"
	"github.com/kynesim/gomts/ioseek"
)

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{})   {}
func (discardLogger) Info(string, ...interface{})    {}
func (discardLogger) Warning(string, ...interface{}) {}
func (discardLogger) Error(string, ...interface{})   {}
func (discardLogger) Fatal(string, ...interface{})   {}

var _ logging.Logger = discardLogger{}

func TestPackHeaderRoundTrip(t *testing.T) {
	want := PackHeader{SCR: 27000000 * 123, MuxRate: 12345}
	b := want.Bytes()
	if len(b) != 10 {
		t.Fatalf("encoded pack header length = %d, want 10", len(b))
	}
	got, n, err := ParsePackHeader(b)
	if err != nil {
		t.Fatalf("ParsePackHeader: %v", err)
	}
	if n != 10 {
		t.Errorf("consumed %d bytes, want 10", n)
	}
	if got.MuxRate != want.MuxRate {
		t.Errorf("MuxRate = %d, want %d", got.MuxRate, want.MuxRate)
	}
	if got.SCR/300 != want.SCR/300 {
		t.Errorf("SCR base = %d, want %d", got.SCR/300, want.SCR/300)
	}
}

func TestSystemHeaderRoundTrip(t *testing.T) {
	want := SystemHeader{
		RateBound:           80000,
		AudioBound:          1,
		VideoBound:          1,
		SystemVideoLockFlag: true,
		Streams: []StreamBound{
			{StreamID: 0xe0, ScaleFlag: false, SizeBound: 400},
			{StreamID: 0xc0, ScaleFlag: true, SizeBound: 32},
		},
	}
	b := want.Bytes()
	got, n, err := ParseSystemHeader(b)
	if err != nil {
		t.Fatalf("ParseSystemHeader: %v", err)
	}
	if n != len(b) {
		t.Errorf("consumed %d bytes, want %d", n, len(b))
	}
	if got.RateBound != want.RateBound || got.AudioBound != want.AudioBound ||
		got.VideoBound != want.VideoBound || got.SystemVideoLockFlag != want.SystemVideoLockFlag {
		t.Errorf("scalar fields = %+v, want %+v", got, want)
	}
	if len(got.Streams) != 2 || got.Streams[0] != want.Streams[0] || got.Streams[1] != want.Streams[1] {
		t.Errorf("Streams = %+v, want %+v", got.Streams, want.Streams)
	}
}

func TestDemuxerReadsPackThenPES(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	buf.WriteByte(PackStartCode)
	buf.Write(PackHeader{SCR: 900, MuxRate: 50}.Bytes())

	data := []byte{1, 2, 3, 4, 5}
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	buf.WriteByte(0xe0)
	pesBody := make([]byte, 3+len(data))
	pesBody[0] = 0x80
	pesBody[1] = 0x00
	pesBody[2] = 0x00
	copy(pesBody[3:], data)
	lenField := make([]byte, 2)
	lenField[0] = byte(len(pesBody) >> 8)
	lenField[1] = byte(len(pesBody))
	buf.Write(lenField)
	buf.Write(pesBody)

	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	buf.WriteByte(ProgramEndCode)

	d := NewDemuxer(&buf, discardLogger{})

	u, err := d.Next()
	if err != nil {
		t.Fatalf("Next (pack header): %v", err)
	}
	if u.PackHeader == nil || u.PackHeader.MuxRate != 50 {
		t.Fatalf("got %+v, want a pack header with MuxRate 50", u)
	}

	u, err = d.Next()
	if err != nil {
		t.Fatalf("Next (PES): %v", err)
	}
	if u.PES == nil || u.PES.StreamID != 0xe0 || !bytes.Equal(u.Data, data) {
		t.Fatalf("got %+v, want a PES packet on stream 0xe0 with data %v", u, data)
	}

	_, err = d.Next()
	if err != io.EOF {
		t.Errorf("Next (program end): err = %v, want io.EOF", err)
	}
}

// writePESUnit appends one 00 00 01-prefixed PES unit to buf.
func writePESUnit(buf *bytes.Buffer, streamID byte, data []byte) {
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
	buf.WriteByte(0x01)
	buf.WriteByte(streamID)
	body := make([]byte, 3+len(data))
	body[0] = 0x80
	copy(body[3:], data)
	buf.WriteByte(byte(len(body) >> 8))
	buf.WriteByte(byte(len(body)))
	buf.Write(body)
}

func TestDemuxerFirstAudioStreamSticks(t *testing.T) {
	var buf bytes.Buffer
	writePESUnit(&buf, 0xc0, []byte("first"))
	writePESUnit(&buf, 0xc1, []byte("second"))
	writePESUnit(&buf, 0xc0, []byte("third"))

	d := NewDemuxer(&buf, discardLogger{})

	u, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if u.PES.StreamID != 0xc0 || !bytes.Equal(u.Data, []byte("first")) {
		t.Fatalf("got %+v, want the first audio stream's unit", u)
	}

	u, err = d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if u.PES.StreamID != 0xc0 || !bytes.Equal(u.Data, []byte("third")) {
		t.Fatalf("got %+v, want 0xc1 dropped and the next 0xc0 unit returned", u)
	}

	if _, err := d.Next(); err != io.EOF {
		t.Errorf("Next: err = %v, want io.EOF", err)
	}
}

func TestDemuxerPreselectedAudioOverridesSticky(t *testing.T) {
	var buf bytes.Buffer
	writePESUnit(&buf, 0xc0, []byte("first"))
	writePESUnit(&buf, 0xc1, []byte("second"))

	d := NewDemuxer(&buf, discardLogger{}, WithPreselectedAudio(0xc1))

	u, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if u.PES.StreamID != 0xc1 || !bytes.Equal(u.Data, []byte("second")) {
		t.Fatalf("got %+v, want the preselected 0xc1 unit, 0xc0 skipped", u)
	}

	if _, err := d.Next(); err != io.EOF {
		t.Errorf("Next: err = %v, want io.EOF", err)
	}
}

func TestPESSourcePayloadAt(t *testing.T) {
	var buf bytes.Buffer
	writePESUnit(&buf, 0xe0, []byte("one"))
	secondOffset := int64(buf.Len())
	writePESUnit(&buf, 0xe0, []byte("two"))

	src := ioseek.FromReadSeeker(bytes.NewReader(buf.Bytes()))
	adapter := NewPESSource(src, 0xe0, discardLogger{})

	payload, next, err := adapter.PayloadAt(0)
	if err != nil {
		t.Fatalf("PayloadAt(0): %v", err)
	}
	if !bytes.Equal(payload, []byte("one")) {
		t.Errorf("payload = %q, want %q", payload, "one")
	}
	if next != secondOffset {
		t.Errorf("next = %d, want %d", next, secondOffset)
	}

	payload, _, err = adapter.PayloadAt(next)
	if err != nil {
		t.Fatalf("PayloadAt(next): %v", err)
	}
	if !bytes.Equal(payload, []byte("two")) {
		t.Errorf("payload = %q, want %q", payload, "two")
	}
}

func TestReadRangeAcrossPacketBoundary(t *testing.T) {
	var buf bytes.Buffer
	writePESUnit(&buf, 0xe0, []byte("hello "))
	writePESUnit(&buf, 0xe0, []byte("world"))

	src := ioseek.FromReadSeeker(bytes.NewReader(buf.Bytes()))
	adapter := NewPESSource(src, 0xe0, discardLogger{})

	got, err := es.ReadRange(adapter, es.Offset{FileOffset: 0, PacketOffset: 2}, 9)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if string(got) != "llo world" {
		t.Errorf("got %q, want %q", got, "llo world")
	}
}
