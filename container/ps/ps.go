/*
NAME
  ps.go

DESCRIPTION
  ps.go frames the Program Stream container: the pack header and
  optional system header that open each pack, and the PES packets that
  follow, dispatched one at a time to the caller. Unlike the transport
  stream, a program stream carries no fixed-size packets or PIDs; a
  pack is simply a run of variable-length PES packets bounded by the
  next pack header, system header, or the program end code.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ps provides Program Stream framing: pack/system header
// codecs and a demuxer that yields the PES packets found between
// them.
package ps

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/es"
	"github.com/kynesim/gomts/ioseek"
)

var _ es.PacketSource = (*PESSource)(nil)

// Start codes that frame a program stream, following the 00 00 01
// prefix common to every MPEG-2 systems start code.
const (
	PackStartCode         = 0xba
	SystemHeaderStartCode = 0xbb
	ProgramEndCode        = 0xb9
)

// ErrBadStartCode is returned when a unit does not begin with a
// recognised 00 00 01-prefixed start code.
var ErrBadStartCode = errors.New("ps: expected a 00 00 01 start code")

// ErrShortHeader is returned when a buffer is too short to contain
// the header it claims to be.
var ErrShortHeader = errors.New("ps: buffer shorter than declared header")

// ErrMarkerBit is returned when a pack or system header's marker bits
// are not all 1, indicating the field is misaligned or corrupt.
var ErrMarkerBit = errors.New("ps: marker bit not set")

// PackHeader is the fixed-size clock reference and mux rate that
// opens every pack.
type PackHeader struct {
	SCR     uint64 // System clock reference, 27 MHz, base*300+ext.
	MuxRate uint32 // Program mux rate, in units of 50 bytes/second.
}

// ParsePackHeader decodes the 10-byte MPEG-2 pack header (plus any
// declared stuffing bytes) that follows the pack_start_code, returning
// the number of bytes of b it consumed.
func ParsePackHeader(b []byte) (PackHeader, int, error) {
	if len(b) < 10 {
		return PackHeader{}, 0, ErrShortHeader
	}
	if b[0]>>6 != 0x01 {
		return PackHeader{}, 0, errors.New("ps: not an MPEG-2 pack header")
	}
	if b[0]&0x04 == 0 || b[2]&0x04 == 0 || b[4]&0x04 == 0 || b[5]&0x01 == 0 || b[8]&0x03 != 0x03 {
		return PackHeader{}, 0, ErrMarkerBit
	}

	base := uint64(b[0]>>3)&0x07<<30 | uint64(b[0])&0x03<<28 |
		uint64(b[1])<<20 | uint64(b[2]>>3)&0x1f<<15 | uint64(b[2])&0x03<<13 |
		uint64(b[3])<<5 | uint64(b[4]>>3)&0x1f
	ext := uint64(b[4])&0x03<<7 | uint64(b[5]>>1)&0x7f
	rate := uint32(b[6])<<14 | uint32(b[7])<<6 | uint32(b[8]>>2)&0x3f

	stuffingLen := int(b[9] & 0x07)
	if len(b) < 10+stuffingLen {
		return PackHeader{}, 0, ErrShortHeader
	}
	return PackHeader{SCR: base*300 + ext, MuxRate: rate}, 10 + stuffingLen, nil
}

// Bytes encodes h as a 10-byte MPEG-2 pack header with no stuffing.
func (h PackHeader) Bytes() []byte {
	base := (h.SCR / 300) & 0x1ffffffff
	ext := h.SCR % 300 & 0x1ff

	b := make([]byte, 10)
	b[0] = 0x40 | byte(base>>30)&0x07<<3 | 0x04 | byte(base>>28)&0x03
	b[1] = byte(base >> 20)
	b[2] = byte(base>>15)&0x1f<<3 | 0x04 | byte(base>>13)&0x03
	b[3] = byte(base >> 5)
	b[4] = byte(base)&0x1f<<3 | 0x04 | byte(ext>>7)&0x03
	b[5] = byte(ext)<<1&0xfe | 0x01
	b[6] = byte(h.MuxRate >> 14)
	b[7] = byte(h.MuxRate >> 6)
	b[8] = byte(h.MuxRate)&0x3f<<2 | 0x03
	b[9] = 0 // reserved=0, pack_stuffing_length=0.
	return b
}

// StreamBound is one entry of a system header's P-STD bound list.
type StreamBound struct {
	StreamID   byte
	ScaleFlag  bool
	SizeBound  uint16
}

// SystemHeader declares the bounds a decoder needs to buffer the
// streams multiplexed into this program stream.
type SystemHeader struct {
	RateBound            uint32
	AudioBound           byte
	FixedFlag            bool
	CSPSFlag             bool
	SystemAudioLockFlag  bool
	SystemVideoLockFlag  bool
	VideoBound           byte
	PacketRateRestricted bool
	Streams              []StreamBound
}

// ParseSystemHeader decodes a system header, b starting immediately
// after the system_header_start_code, returning the number of bytes
// of b it consumed (the 2-byte header_length field plus its declared
// body).
func ParseSystemHeader(b []byte) (SystemHeader, int, error) {
	if len(b) < 2 {
		return SystemHeader{}, 0, ErrShortHeader
	}
	headerLen := int(binary.BigEndian.Uint16(b[0:2]))
	if len(b) < 2+headerLen || headerLen < 6 {
		return SystemHeader{}, 0, ErrShortHeader
	}
	body := b[2 : 2+headerLen]

	if body[0]&0x80 == 0 || body[2]&0x01 == 0 {
		return SystemHeader{}, 0, ErrMarkerBit
	}

	h := SystemHeader{
		RateBound:            uint32(body[0])&0x7f<<15 | uint32(body[1])<<7 | uint32(body[2]>>1),
		AudioBound:           body[3] >> 2,
		FixedFlag:            body[3]&0x02 != 0,
		CSPSFlag:             body[3]&0x01 != 0,
		SystemAudioLockFlag:  body[4]&0x80 != 0,
		SystemVideoLockFlag:  body[4]&0x40 != 0,
		VideoBound:           body[4] & 0x1f,
		PacketRateRestricted: body[5]&0x80 != 0,
	}

	for entries := body[6:]; len(entries) >= 3; entries = entries[3:] {
		h.Streams = append(h.Streams, StreamBound{
			StreamID:  entries[0],
			ScaleFlag: entries[1]&0x20 != 0,
			SizeBound: uint16(entries[1]&0x1f)<<8 | uint16(entries[2]),
		})
	}
	return h, 2 + headerLen, nil
}

// Bytes encodes h as a complete system header, header_length field
// included.
func (h SystemHeader) Bytes() []byte {
	body := make([]byte, 6+3*len(h.Streams))
	body[0] = 0x80 | byte(h.RateBound>>15)&0x7f
	body[1] = byte(h.RateBound >> 7)
	body[2] = byte(h.RateBound)<<1&0xfe | 0x01
	body[3] = h.AudioBound<<2 | boolBit(h.FixedFlag)<<1 | boolBit(h.CSPSFlag)
	body[4] = boolBit(h.SystemAudioLockFlag)<<7 | boolBit(h.SystemVideoLockFlag)<<6 | 0x20 | h.VideoBound&0x1f
	body[5] = boolBit(h.PacketRateRestricted) << 7

	for i, s := range h.Streams {
		e := body[6+3*i:]
		e[0] = s.StreamID
		e[1] = 0xc0 | boolBit(s.ScaleFlag)<<5 | byte(s.SizeBound>>8)&0x1f
		e[2] = byte(s.SizeBound)
	}

	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out[0:2], uint16(len(body)))
	copy(out[2:], body)
	return out
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Unit is one decoded element of a program stream: a pack header, a
// system header, or a PES packet. Exactly one of PackHeader,
// SystemHeader, or PES is non-nil.
type Unit struct {
	PackHeader   *PackHeader
	SystemHeader *SystemHeader
	PES          *pes.Header
	Data         []byte // The PES payload, when PES is non-nil.
}

// Demuxer reads sequential units from a program stream. The stream
// must begin exactly at a start code; callers typically confirm this
// first via the stream-kind detector.
type Demuxer struct {
	r   *bufio.Reader
	log logging.Logger

	// pos is the number of bytes Next has logically consumed from r so
	// far: the 4-byte start code plus whatever each unit's reader
	// discarded. It is tracked independently of the bufio.Reader's own
	// read position, since bufio reads ahead into its buffer beyond
	// what has been Discard-ed.
	pos int64

	// audioSelect applies the "first audio stream_id sticks" policy
	// across calls to Next; PES reassembly isn't needed here since a
	// PS PES packet already arrives whole from readPES.
	audioSelect      *pes.Reassembler
	preselectedAudio byte
}

// maxUnitBuffer is sized to hold the largest possible PES packet (a
// 16-bit declared length) plus its fixed header.
const maxUnitBuffer = 1<<16 + 64

// DemuxerOption configures a Demuxer at construction.
type DemuxerOption func(*Demuxer)

// WithPreselectedAudio fixes the audio stream_id the Demuxer passes
// through, overriding the default "first encountered audio stream_id
// sticks" policy.
func WithPreselectedAudio(streamID byte) DemuxerOption {
	return func(d *Demuxer) { d.preselectedAudio = streamID }
}

// NewDemuxer returns a Demuxer reading units from r.
func NewDemuxer(r io.Reader, log logging.Logger, options ...DemuxerOption) *Demuxer {
	d := &Demuxer{
		r:           bufio.NewReaderSize(r, maxUnitBuffer),
		log:         log,
		audioSelect: pes.NewReassembler(log),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Pos returns the number of bytes Next has logically consumed from
// the underlying reader so far, suitable as a PES-backed Offset's
// FileOffset for a unit yet to be read.
func (d *Demuxer) Pos() int64 { return d.pos }

// Next reads and returns the next unit, or io.EOF at the program end
// code or the underlying reader's end. Audio PES packets rejected by
// the audio selection policy (see readPES) are skipped transparently;
// Next keeps reading until it has a unit to hand back.
func (d *Demuxer) Next() (Unit, error) {
	for {
		var prefix [4]byte
		if _, err := io.ReadFull(d.r, prefix[:]); err != nil {
			if err == io.ErrUnexpectedEOF {
				return Unit{}, io.EOF
			}
			return Unit{}, err
		}
		if prefix[0] != 0 || prefix[1] != 0 || prefix[2] != 1 {
			return Unit{}, ErrBadStartCode
		}
		d.pos += 4

		var (
			u        Unit
			accepted bool
			err      error
		)
		switch prefix[3] {
		case PackStartCode:
			u, err = d.readPackHeader()
			accepted = true
		case SystemHeaderStartCode:
			u, err = d.readSystemHeader()
			accepted = true
		case ProgramEndCode:
			return Unit{}, io.EOF
		default:
			u, accepted, err = d.readPES(prefix[3])
		}
		if err != nil {
			return Unit{}, err
		}
		if accepted {
			return u, nil
		}
	}
}

func (d *Demuxer) readPackHeader() (Unit, error) {
	b, err := d.peekAtLeast(10)
	if err != nil {
		return Unit{}, err
	}
	if declared := 10 + int(b[9]&0x07); declared > 10 {
		if b, err = d.peekAtLeast(declared); err != nil {
			return Unit{}, err
		}
	}
	h, n, err := ParsePackHeader(b)
	if err != nil {
		return Unit{}, errors.Wrap(err, "ps: pack header")
	}
	if _, err := d.r.Discard(n); err != nil {
		return Unit{}, err
	}
	d.pos += int64(n)
	return Unit{PackHeader: &h}, nil
}

func (d *Demuxer) readSystemHeader() (Unit, error) {
	b, err := d.peekAtLeast(2)
	if err != nil {
		return Unit{}, err
	}
	declared := int(binary.BigEndian.Uint16(b[0:2]))
	b, err = d.peekAtLeast(2 + declared)
	if err != nil {
		return Unit{}, err
	}
	h, n, err := ParseSystemHeader(b)
	if err != nil {
		return Unit{}, errors.Wrap(err, "ps: system header")
	}
	if _, err := d.r.Discard(n); err != nil {
		return Unit{}, err
	}
	d.pos += int64(n)
	return Unit{SystemHeader: &h}, nil
}

// readPES decodes a PES packet whose start code (00 00 01 streamID)
// has already been consumed; streamID is re-prefixed onto a small
// local buffer so pes.ParseHeader can run its usual start-code check.
// accepted is false for an audio stream_id rejected by the audio
// selection policy (first audio stream_id sticks, unless the caller
// preselected one): the packet is still consumed from r, but Next
// skips it rather than handing it back.
func (d *Demuxer) readPES(streamID byte) (u Unit, accepted bool, err error) {
	lenBytes, err := d.peekAtLeast(2)
	if err != nil {
		return Unit{}, false, err
	}
	declared := int(binary.BigEndian.Uint16(lenBytes[0:2]))
	if declared == 0 {
		return Unit{}, false, errors.New("ps: unbounded PES packets are not supported in program streams")
	}

	total := 2 + declared // length field plus the declared body.
	b, err := d.peekAtLeast(total)
	if err != nil {
		return Unit{}, false, err
	}

	framed := make([]byte, 4+total)
	framed[2] = 0x01
	framed[3] = streamID
	copy(framed[4:], b[:total])

	h, err := pes.ParseHeader(framed)
	if err != nil {
		return Unit{}, false, errors.Wrap(err, "ps: PES header")
	}
	if _, err := d.r.Discard(total); err != nil {
		return Unit{}, false, err
	}
	d.pos += int64(total)

	accepted = true
	if pes.IsAudioStreamID(streamID) {
		accepted = d.audioSelect.SelectAudio(uint16(streamID), uint16(d.preselectedAudio))
	}
	return Unit{PES: &h, Data: framed[h.HeaderLen:]}, accepted, nil
}

// PESSource adapts a program stream to es.PacketSource, letting the
// elementary stream scanner's random-access reads resolve a
// PS-backed Offset to the bytes of the PES packet it names.
type PESSource struct {
	src      ioseek.Source
	streamID byte
	log      logging.Logger
}

// NewPESSource returns a PESSource that resolves offsets against src,
// restricting itself to PES packets carrying streamID.
func NewPESSource(src ioseek.Source, streamID byte, log logging.Logger) *PESSource {
	return &PESSource{src: src, streamID: streamID, log: log}
}

// PayloadAt seeks src to fileOffset and returns the ES payload of the
// next PES packet on streamID found there, along with the file
// offset of the following unit.
func (p *PESSource) PayloadAt(fileOffset int64) (payload []byte, next int64, err error) {
	if _, err := p.src.Seek(fileOffset, io.SeekStart); err != nil {
		return nil, 0, err
	}
	d := NewDemuxer(p.src, p.log, WithPreselectedAudio(p.streamID))
	for {
		u, err := d.Next()
		if err != nil {
			return nil, 0, err
		}
		if u.PES != nil && u.PES.StreamID == p.streamID {
			return u.Data, fileOffset + d.Pos(), nil
		}
	}
}

// peekAtLeast returns the next n bytes without consuming them.
func (d *Demuxer) peekAtLeast(n int) ([]byte, error) {
	b, err := d.r.Peek(n)
	if err == nil {
		return b, nil
	}
	if err == bufio.ErrBufferFull {
		return nil, errors.Errorf("ps: unit of %d bytes exceeds read buffer", n)
	}
	return nil, err
}
