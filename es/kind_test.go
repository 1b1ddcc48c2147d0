/*
NAME
  kind_test.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package es

import (
	"bytes"
	"testing"
)

func unitStream(startCodes ...byte) []byte {
	var b []byte
	for _, sc := range startCodes {
		b = append(b, 0x00, 0x00, 0x01, sc, 0xff)
	}
	return b
}

func TestDetectKindH262(t *testing.T) {
	// 0xb3 (top bit set) eliminates H.264; 0xb8 (AVS-reserved) eliminates
	// AVS, leaving H.262 as the sole survivor.
	data := unitStream(0xb3, 0xb8)
	k, err := DetectKind(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DetectKind: %v", err)
	}
	if k != KindH262 {
		t.Errorf("got %v, want H.262", k)
	}
}

func TestDetectKindH264SliceNonIDR(t *testing.T) {
	// ref_idc=3 (0x60), nal_type=1 (non-IDR slice): consistent with H.264
	// and not a forbidden ref_idc/type combination, but 0x61 is also an
	// ordinary slice start code in H.262 and AVS, so no candidate is
	// eliminated and the kind stays undecided.
	data := unitStream(0x61, 0x61, 0x61)
	k, err := DetectKind(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DetectKind: %v", err)
	}
	if k != KindUnknown {
		t.Errorf("got %v, want unknown", k)
	}
}

func TestDetectKindH264EliminatedByTopBit(t *testing.T) {
	data := unitStream(0xb0) // top bit set: eliminates H.264; also eliminates H.262.
	candidates := map[Kind]bool{KindH262: true, KindH264: true, KindAVS: true}
	eliminate(candidates, data[3])
	if candidates[KindH264] {
		t.Errorf("expected H.264 eliminated by top-bit start code")
	}
	if candidates[KindH262] {
		t.Errorf("expected H.262 eliminated by reserved start code 0xb0")
	}
}

func TestDetectKindH264EliminatedByRefIdcTypeMismatch(t *testing.T) {
	candidates := map[Kind]bool{KindH264: true}
	// ref_idc=0 (top 3 bits 000) with nal_type=5 (IDR): invalid combination.
	eliminate(candidates, 0x05)
	if candidates[KindH264] {
		t.Errorf("expected H.264 eliminated by ref_idc=0 with IDR type")
	}
}

func TestDetectKindUnknownWhenAmbiguous(t *testing.T) {
	k, err := DetectKind(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("DetectKind: %v", err)
	}
	if k != KindUnknown {
		t.Errorf("got %v, want KindUnknown for empty input", k)
	}
}
