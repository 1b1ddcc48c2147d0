/*
NAME
  pessource.go

DESCRIPTION
  pessource.go adapts a transport stream to es.PacketSource, letting
  the elementary stream scanner's random-access reads resolve a
  TS-backed Offset to the reassembled PES payload it names.

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
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/es"
	"github.com/kynesim/gomts/ioseek"
)

var _ es.PacketSource = (*PESSource)(nil)

// PESSource resolves offsets against a single PID of a transport
// stream.
type PESSource struct {
	src ioseek.Source
	pid uint16
	log logging.Logger
}

// NewPESSource returns a PESSource that resolves offsets against src,
// restricting itself to PES packets reassembled from pid.
func NewPESSource(src ioseek.Source, pid uint16, log logging.Logger) *PESSource {
	return &PESSource{src: src, pid: pid, log: log}
}

// PayloadAt seeks src to fileOffset and returns the ES payload of the
// next complete PES packet reassembled from p.pid, along with the
// file offset of the TS packet immediately following it.
func (p *PESSource) PayloadAt(fileOffset int64) (payload []byte, next int64, err error) {
	if _, err := p.src.Seek(fileOffset, io.SeekStart); err != nil {
		return nil, 0, err
	}
	r := NewReader(p.src, p.log)
	reasm := pes.NewReassembler(p.log)

	pos := fileOffset
	for {
		pkt, err := r.Next()
		if err != nil {
			return nil, 0, err
		}
		pos += PacketSize
		if pkt.PID != p.pid {
			continue
		}
		out, done, err := reasm.Feed(pkt.PID, pkt.PUSI, pkt.Payload)
		if err != nil {
			return nil, 0, err
		}
		if done {
			return out.Data, pos, nil
		}
	}
}
