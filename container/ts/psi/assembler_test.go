/*
NAME
  assembler_test.go

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"testing"
)

// TestAssemblerSplitAcrossTwoPackets feeds a PMT section split across
// two TS payloads (PIDs equal, first carries PUSI) and checks the
// assembler completes only on the second.
func TestAssemblerSplitAcrossTwoPackets(t *testing.T) {
	pmt := &PMT{
		ProgramNumber: 1,
		CurrentNext:   true,
		PCRPID:        0x100,
		Streams: []Stream{
			{StreamType: 0x1b, ElementaryPID: 0x101},
		},
	}
	full, err := pmt.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	// full[0] is the pointer field; the remainder is the section.
	section := full[1:]
	split := len(section) / 2

	a := NewAssembler(discardLogger{})
	got, done, err := a.Feed(true, append([]byte{0x00}, section[:split]...))
	if err != nil {
		t.Fatalf("Feed (first): %v", err)
	}
	if done {
		t.Fatalf("assembler reported done after only the first half")
	}
	if got != nil {
		t.Fatalf("expected nil section after first half, got %v", got)
	}

	got, done, err = a.Feed(false, section[split:])
	if err != nil {
		t.Fatalf("Feed (second): %v", err)
	}
	if !done {
		t.Fatalf("assembler did not complete after the second half arrived")
	}

	parsed, err := ParsePMT(got, discardLogger{})
	if err != nil {
		t.Fatalf("ParsePMT: %v", err)
	}
	if !parsed.Equal(pmt) {
		t.Errorf("got %+v, want %+v", parsed, pmt)
	}
}

// TestAssemblerDiscardsIncompleteOnNewStart verifies that a new
// section-start (PUSI set) while a section is already in progress
// discards the partial section with a warning rather than corrupting
// the next one.
func TestAssemblerDiscardsIncompleteOnNewStart(t *testing.T) {
	pmt := &PMT{ProgramNumber: 1, PCRPID: 0x100}
	full, err := pmt.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	section := full[1:]

	a := NewAssembler(discardLogger{})
	_, done, err := a.Feed(true, append([]byte{0x00}, section[:len(section)-1]...))
	if err != nil || done {
		t.Fatalf("unexpected first Feed result: done=%v err=%v", done, err)
	}

	got, done, err := a.Feed(true, append([]byte{0x00}, section...))
	if err != nil {
		t.Fatalf("Feed (restart): %v", err)
	}
	if !done {
		t.Fatalf("assembler did not complete the freshly-started section")
	}
	parsed, err := ParsePMT(got, discardLogger{})
	if err != nil {
		t.Fatalf("ParsePMT: %v", err)
	}
	if !parsed.Equal(pmt) {
		t.Errorf("got %+v, want %+v", parsed, pmt)
	}
}

// TestAssemblerPayloadWithNoSectionInProgress exercises the
// not-PUSI/not-active branch, which should drop the payload (logging
// a warning) rather than erroring.
func TestAssemblerPayloadWithNoSectionInProgress(t *testing.T) {
	a := NewAssembler(discardLogger{})
	got, done, err := a.Feed(false, []byte{0x01, 0x02, 0x03})
	if err != nil || done || got != nil {
		t.Fatalf("expected silent drop, got section=%v done=%v err=%v", got, done, err)
	}
}
