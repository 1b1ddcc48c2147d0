/*
NAME
  clip.go

DESCRIPTION
  clip.go extracts a playable clip (a sequence of media frames with
  timing and metadata) from a complete transport stream, and provides
  trimming and segmentation of an extracted Clip by PTS range or by
  attached metadata.

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
	"sort"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/container/ts/meta"
	"github.com/kynesim/gomts/container/ts/psi"
)

// ErrNotWholePackets is returned by Extract when the input length is
// not a multiple of PacketSize.
var ErrNotWholePackets = errors.New("ts: clip is not a whole number of packets")

// Frame is one media access unit extracted from a PES packet, along
// with the metadata current at the time it was seen.
type Frame struct {
	Media []byte            // Media bytes, a slice of the Clip's backing array.
	PTS   uint64            // Presentation timestamp of the PES packet this frame came from.
	ID    byte              // PES stream_id, identifying the codec/track.
	Meta  map[string]string // Metadata from the PMT in effect for this frame, if any.

	idx int // Start index into the Clip's backing array.
}

// Clip is a contiguous sequence of media frames extracted from a
// transport stream.
type Clip struct {
	frames  []Frame
	backing []byte
}

// Frames returns the frames of c.
func (c *Clip) Frames() []Frame { return c.frames }

// Bytes returns the concatenated media bytes of every frame in c.
func (c *Clip) Bytes() []byte { return c.backing }

// Extract demultiplexes a complete transport stream (a whole number of
// 188-byte packets) into a Clip, attaching to each frame the metadata
// descriptor present in the PMT at the time the frame's PES packet
// started. log receives warnings for PSI sections that fail to parse.
func Extract(d []byte, log logging.Logger) (*Clip, error) {
	if len(d)%PacketSize != 0 {
		return nil, ErrNotWholePackets
	}

	var (
		clip       = &Clip{backing: make([]byte, 0, len(d))}
		curMeta    map[string]string
		frameStart int
		frameEnd   int
		firstPUSI  = true
	)

	assembler := psi.NewAssembler(log)
	reasm := pes.NewReassembler(log)
	pmtPID := uint16(psi.StdPMTPID)

	for i := 0; i+PacketSize <= len(d); i += PacketSize {
		pkt, err := ParsePacket(d[i : i+PacketSize])
		if err != nil {
			return nil, errors.Wrapf(err, "clip: packet at offset %d", i)
		}

		switch {
		case pkt.PID == PatPID:
			section, done, err := assembler.Feed(pkt.PUSI, pkt.Payload)
			if err != nil {
				log.Warning("clip: PAT assembly failed", "error", err.Error())
				continue
			}
			if !done {
				continue
			}
			pat, err := psi.ParsePAT(section)
			if err != nil {
				log.Warning("clip: PAT parse failed", "error", err.Error())
				continue
			}
			if len(pat.Programs) > 0 {
				pmtPID = pat.Programs[0].PMTPID
			}
		case pkt.PID == pmtPID:
			section, done, err := assembler.Feed(pkt.PUSI, pkt.Payload)
			if err != nil {
				log.Warning("clip: PMT assembly failed", "error", err.Error())
				continue
			}
			if !done {
				continue
			}
			pmt, err := psi.ParsePMT(section, log)
			if err != nil && errors.Cause(err) != psi.ErrCRC {
				log.Warning("clip: PMT parse failed", "error", err.Error())
				continue
			}
			curMeta = metaFromPMT(pmt)
		default:
			out, done, err := reasm.Feed(pkt.PID, pkt.PUSI, pkt.Payload)
			if err != nil {
				log.Warning("clip: PES reassembly failed", "pid", pkt.PID, "error", err.Error())
				continue
			}
			if !done {
				continue
			}

			clip.frames = append(clip.frames, Frame{PTS: out.PTS, ID: out.StreamID, Meta: curMeta})
			clip.backing = append(clip.backing, out.Data...)
			frameEnd += len(out.Data)

			if !firstPUSI {
				clip.frames[len(clip.frames)-2].Media = clip.backing[frameStart:frameEnd-len(out.Data)]
				clip.frames[len(clip.frames)-2].idx = frameStart
				frameStart = frameEnd - len(out.Data)
			}
			firstPUSI = false
		}
	}

	if len(clip.frames) == 0 {
		return clip, nil
	}
	clip.frames[len(clip.frames)-1].Media = clip.backing[frameStart:frameEnd]
	clip.frames[len(clip.frames)-1].idx = frameStart
	return clip, nil
}

// metaFromPMT returns the key-value metadata carried in pmt's
// program_info descriptors, or nil if none is present.
func metaFromPMT(pmt *psi.PMT) map[string]string {
	descs, ok := psi.ParseDescriptors(pmt.ProgramInfo)
	if !ok {
		return nil
	}
	for _, d := range descs {
		if d.Tag != psi.MetadataTag {
			continue
		}
		m, err := meta.ParseDescriptor(d)
		if err != nil {
			return nil
		}
		return m.All()
	}
	return nil
}

// Errors returned by TrimToPTSRange.
var (
	ErrPTSLowerBound = errors.New("ts: PTS 'from' cannot be found")
	ErrPTSUpperBound = errors.New("ts: PTS 'to' cannot be found")
	ErrPTSRange      = errors.New("ts: PTS interval invalid")
)

// TrimToPTSRange returns the sub-Clip whose frames lie within [from,
// to). The returned Clip shares backing storage with c; no data is
// copied.
func (c *Clip) TrimToPTSRange(from, to uint64) (*Clip, error) {
	if from >= to {
		return nil, ErrPTSRange
	}

	n := len(c.frames) - 1
	startFrameIdx := sort.Search(n, func(i int) bool { return from < c.frames[i+1].PTS })
	if startFrameIdx == n {
		return nil, ErrPTSLowerBound
	}
	startBackingIdx := c.frames[startFrameIdx].idx

	off := startFrameIdx + 1
	n = len(c.frames) - off
	endFrameIdx := sort.Search(n, func(i int) bool { return to <= c.frames[i+off].PTS })
	if endFrameIdx == n {
		return nil, ErrPTSUpperBound
	}
	endBackingIdx := c.frames[endFrameIdx+off-1].idx

	return &Clip{
		frames:  c.frames[startFrameIdx : endFrameIdx+off],
		backing: c.backing[startBackingIdx : endBackingIdx+len(c.frames[endFrameIdx+off-1].Media)],
	}, nil
}

// Errors returned by TrimToMetaRange.
var (
	ErrMetaRange      = errors.New("ts: invalid meta range")
	ErrMetaLowerBound = errors.New("ts: meta 'from' cannot be found")
	ErrMetaUpperBound = errors.New("ts: meta 'to' cannot be found")
)

// TrimToMetaRange returns the sub-Clip between the frame whose
// Meta[key] equals from and the following frame whose Meta[key]
// equals to. from and to must differ.
func (c *Clip) TrimToMetaRange(key, from, to string) (*Clip, error) {
	if from == to {
		return nil, ErrMetaRange
	}

	for i, f := range c.frames {
		if f.Meta[key] != from {
			continue
		}
		start := f.idx
		startFrameIdx := i
		for ; i < len(c.frames); i++ {
			f = c.frames[i]
			if f.Meta[key] == to {
				return &Clip{
					frames:  c.frames[startFrameIdx : i+1],
					backing: c.backing[start : f.idx+len(f.Media)],
				}, nil
			}
		}
		return nil, ErrMetaUpperBound
	}
	return nil, ErrMetaLowerBound
}

// SegmentForMeta splits c into contiguous runs of frames whose
// Meta[key] equals val.
func (c *Clip) SegmentForMeta(key, val string) []Clip {
	var (
		segmenting bool
		res        []Clip
		start      int
	)

	for i, frame := range c.frames {
		if frame.Meta == nil {
			if segmenting {
				res = appendSegment(res, c, start, i)
				segmenting = false
			}
			continue
		}
		switch {
		case frame.Meta[key] == val && !segmenting:
			start = i
			segmenting = true
		case frame.Meta[key] != val && segmenting:
			res = appendSegment(res, c, start, i)
			segmenting = false
		}
	}
	if segmenting {
		res = appendSegment(res, c, start, len(c.frames))
	}
	return res
}

func appendSegment(segs []Clip, c *Clip, start, end int) []Clip {
	return append(segs, Clip{
		frames:  c.frames[start:end],
		backing: c.backing[c.frames[start].idx : c.frames[end-1].idx+len(c.frames[end-1].Media)],
	})
}
