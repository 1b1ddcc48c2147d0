/*
NAME
  clip_test.go

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
	"github.com/kynesim/gomts/container/ts/meta"
	"github.com/kynesim/gomts/container/ts/psi"
)

// buildTestClip writes a minimal conformant transport stream with a
// PAT, a PMT carrying frameNum metadata, and n video frames of payload
// data, returning the raw bytes and the frameNum expected for each
// frame.
func buildTestClip(t *testing.T, frameData [][]byte, frameNums []string) []byte {
	t.Helper()
	var buf bytes.Buffer

	pat := psi.NewStandardPAT(1, psi.StdPMTPID)
	patPkt := &Packet{PUSI: true, PID: PatPID, AFC: AFCPayloadOnly, Payload: padPSI(pat.Bytes())}
	buf.Write(patPkt.Bytes(nil))

	for i, data := range frameData {
		m := meta.New()
		m.Add("frameNum", frameNums[i])
		pmt := psi.NewStandardPMT(0x101)
		pmt.Streams = []psi.Stream{{StreamType: pes.StreamTypeH264, ElementaryPID: 0x101}}
		pmt.ProgramInfo = psi.DescriptorBytes([]psi.Descriptor{m.Descriptor()})
		pmtBytes, err := pmt.Bytes()
		if err != nil {
			t.Fatalf("PMT.Bytes: %v", err)
		}
		pmtPkt := &Packet{PUSI: true, PID: psi.StdPMTPID, AFC: AFCPayloadOnly, Payload: padPSI(pmtBytes)}
		buf.Write(pmtPkt.Bytes(nil))

		pesPkt := pes.Packet{StreamID: pes.VideoStreamID, PDI: pes.PDIPTSOnly, PTS: uint64(i) * 3600, Data: data}
		pb := pesPkt.Bytes(nil)
		esPkt := &Packet{PUSI: true, PID: 0x101, AFC: AFCPayloadOnly, Payload: pb}
		buf.Write(esPkt.Bytes(nil))
	}

	return buf.Bytes()
}

func TestExtractFramesPTSAndMeta(t *testing.T) {
	frames := [][]byte{{1, 2, 3}, {4, 5, 6, 7}, {8}}
	nums := []string{"0", "1", "2"}
	clip := buildTestClip(t, frames, nums)

	got, err := Extract(clip, discardLogger{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Frames()) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got.Frames()), len(frames))
	}
	for i, f := range got.Frames() {
		if !bytes.Equal(f.Media, frames[i]) {
			t.Errorf("frame %d media = %v, want %v", i, f.Media, frames[i])
		}
		if f.PTS != uint64(i)*3600 {
			t.Errorf("frame %d PTS = %d, want %d", i, f.PTS, uint64(i)*3600)
		}
		if f.Meta["frameNum"] != nums[i] {
			t.Errorf("frame %d meta[frameNum] = %q, want %q", i, f.Meta["frameNum"], nums[i])
		}
	}
}

func TestExtractRejectsPartialPacket(t *testing.T) {
	_, err := Extract(make([]byte, PacketSize+1), discardLogger{})
	if err != ErrNotWholePackets {
		t.Errorf("got err %v, want ErrNotWholePackets", err)
	}
}

func TestTrimToPTSRange(t *testing.T) {
	frames := [][]byte{{1}, {2}, {3}, {4}}
	nums := []string{"0", "0", "0", "0"}
	clip := buildTestClip(t, frames, nums)

	c, err := Extract(clip, discardLogger{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	sub, err := c.TrimToPTSRange(3600, 3*3600)
	if err != nil {
		t.Fatalf("TrimToPTSRange: %v", err)
	}
	if len(sub.Frames()) != 2 {
		t.Fatalf("got %d frames, want 2", len(sub.Frames()))
	}
	if !bytes.Equal(sub.Frames()[0].Media, frames[1]) || !bytes.Equal(sub.Frames()[1].Media, frames[2]) {
		t.Errorf("unexpected trimmed frames: %+v", sub.Frames())
	}
}

func TestTrimToMetaRange(t *testing.T) {
	frames := [][]byte{{1}, {2}, {3}, {4}}
	nums := []string{"a", "b", "c", "d"}
	clip := buildTestClip(t, frames, nums)

	c, err := Extract(clip, discardLogger{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	sub, err := c.TrimToMetaRange("frameNum", "b", "c")
	if err != nil {
		t.Fatalf("TrimToMetaRange: %v", err)
	}
	if len(sub.Frames()) != 2 {
		t.Fatalf("got %d frames, want 2", len(sub.Frames()))
	}
}

func TestSegmentForMeta(t *testing.T) {
	frames := [][]byte{{1}, {2}, {3}, {4}, {5}}
	nums := []string{"x", "x", "y", "x", "x"}
	clip := buildTestClip(t, frames, nums)

	c, err := Extract(clip, discardLogger{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	segs := c.SegmentForMeta("frameNum", "x")
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if len(segs[0].Frames()) != 2 || len(segs[1].Frames()) != 2 {
		t.Errorf("unexpected segment sizes: %d, %d", len(segs[0].Frames()), len(segs[1].Frames()))
	}
}
