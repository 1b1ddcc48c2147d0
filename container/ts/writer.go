/*
NAME
  writer.go

DESCRIPTION
  writer.go implements the TS writer: continuity assignment scoped to
  the writer instance, PES-wrapping of elementary stream data into TS
  packets with adaptation-field PCR and stuffing, and PAT/PMT
  (re-)emission.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

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
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/kynesim/gomts/container/pes"
	"github.com/kynesim/gomts/container/ts/psi"
)

// Time-related constants.
const (
	// PCRFrequency is the base Program Clock Reference frequency in Hz.
	PCRFrequency = 90000
	// PTSFrequency is the presentation timestamp frequency in Hz.
	PTSFrequency = 90000
)

// Default writer configuration.
const (
	defaultRate         = 25 // FPS
	defaultPSISendCount = 7
)

// Writer packetises PES data into a conformant transport stream,
// maintaining its own continuity state and PAT/PMT.
type Writer struct {
	dst io.Writer
	log logging.Logger

	continuity *ContinuityTracker

	pat *psi.PAT
	pmt *psi.PMT

	psiMethod    psiMethod
	pktCount     int
	psiSendCount int
	psiSetTime   time.Duration
	startTime    time.Time

	clock       time.Duration
	writePeriod time.Duration

	tsSpace  [PacketSize]byte
	pesSpace [pes.MaxPesSize]byte
}

// NewWriter returns a Writer emitting to dst, with a single program
// whose PAT/PMT PIDs are the standard defaults. Options configure PSI
// insertion strategy and rate; ConfigureStream must be called at
// least once before WriteAccessUnit to declare the program's elementary
// streams.
func NewWriter(dst io.Writer, log logging.Logger, transportStreamID uint16, options ...func(*Writer) error) (*Writer, error) {
	w := &Writer{
		dst:          dst,
		log:          log,
		continuity:   NewContinuityTracker(),
		pat:          psi.NewStandardPAT(transportStreamID, psi.StdPMTPID),
		pmt:          psi.NewStandardPMT(0),
		psiMethod:    psiMethodPacket,
		psiSendCount: defaultPSISendCount,
		pktCount:     defaultPSISendCount,
		writePeriod:  time.Duration(float64(time.Second) / defaultRate),
	}
	for _, option := range options {
		if err := option(w); err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	return w, nil
}

// ConfigureStream declares one elementary stream of the program,
// setting it as the PCR PID if none has been set yet.
func (w *Writer) ConfigureStream(streamType byte, pid uint16) {
	w.pmt.Streams = append(w.pmt.Streams, psi.Stream{StreamType: streamType, ElementaryPID: pid})
	if w.pmt.PCRPID == 0 {
		w.pmt.PCRPID = pid
	}
}

// tick advances the writer's clock by one access unit interval.
func (w *Writer) tick() { w.clock += w.writePeriod }

// pts returns the current presentation timestamp for the writer's
// clock.
func (w *Writer) pts() uint64 { return uint64(w.clock.Seconds() * PTSFrequency) }

// pcr returns the current program clock reference for the writer's
// clock, in 27 MHz base*300+ext form.
func (w *Writer) pcr() uint64 { return uint64(w.clock.Seconds()*PCRFrequency) * 300 }

// WriteAccessUnit PES-wraps one access unit of elementary stream data
// for pid/streamID and writes the resulting TS packets, inserting
// PAT/PMT first if the configured PSI schedule calls for it. The
// writer's clock advances by one access unit interval afterward.
func (w *Writer) WriteAccessUnit(pid uint16, streamID byte, data []byte) error {
	if err := w.maybeWritePSI(); err != nil {
		return err
	}

	pts := w.pts()
	pkt := pes.Packet{StreamID: streamID, PDI: pes.PDIPTSOnly, PTS: pts, Data: data, Log: w.log}
	buf := pkt.Bytes(w.pesSpace[:0])

	if err := w.writeESAsTSPES(pid, buf, true); err != nil {
		return err
	}
	w.tick()
	return nil
}

// writeESAsTSPES emits buf (an already-PES-wrapped access unit) as a
// sequence of TS packets on pid, per the PES-wrapping algorithm:
// the first packet carries PCR (if withPCR) in its adaptation field;
// subsequent packets are payload-only unless stuffing is needed to
// pad out the final packet.
func (w *Writer) writeESAsTSPES(pid uint16, buf []byte, withPCR bool) error {
	pusi := true
	for len(buf) > 0 {
		pkt := &Packet{
			PUSI: pusi,
			PID:  pid,
			RAI:  pusi,
			CC:   w.ccFor(pid),
		}

		switch {
		case pusi && withPCR:
			pkt.AFC = AFCAdaptPayload
			pkt.PCRF = true
			pkt.PCR = w.pcr()
			n := w.fillPayload(pkt, buf, 6)
			buf = buf[n:]
		case len(buf) < 184:
			pkt.AFC = AFCAdaptPayload
			n := w.fillPayload(pkt, buf, 0)
			buf = buf[n:]
		default:
			pkt.AFC = AFCPayloadOnly
			take := len(buf)
			if take > PacketSize-4 {
				take = PacketSize - 4
			}
			pkt.Payload = buf[:take]
			buf = buf[take:]
		}

		b := pkt.Bytes(w.tsSpace[:0])
		if _, err := w.dst.Write(b); err != nil {
			return errors.Wrap(err, "could not write TS packet")
		}
		w.pktCount++
		pusi = false
	}
	return nil
}

// fillPayload computes how much of data fits in a packet whose
// adaptation field reserves pcrReserve bytes for a PCR (0 when none),
// setting pkt.Payload to the portion consumed and pkt.Stuffing to
// whatever padding is needed to make the adaptation field plus
// payload exactly fill the packet. It returns the number of bytes of
// data consumed.
func (w *Writer) fillPayload(pkt *Packet, data []byte, pcrReserve int) int {
	maxPayload := PacketSize - 4 - 2 - pcrReserve // -2 for adaptation_field_length + flags byte.
	n := len(data)
	if n > maxPayload {
		n = maxPayload
	} else {
		pkt.Stuffing = maxPayload - n
	}
	pkt.Payload = data[:n]
	return n
}

// ccFor returns the next continuity counter for pid, advancing it.
func (w *Writer) ccFor(pid uint16) byte {
	// ContinuityTracker is built for observing a stream's counters,
	// not issuing them; the writer keeps its own simple per-PID
	// sequence instead, sharing the tracker's PID-scoping discipline.
	s, ok := w.continuity.state[pid]
	if !ok {
		s = &ccState{}
		w.continuity.state[pid] = s
	}
	cc := s.lastCC
	if s.hasLast {
		cc = (s.lastCC + 1) & 0x0f
	}
	s.lastCC = cc
	s.hasLast = true
	return cc
}

// maybeWritePSI emits PAT/PMT if the configured schedule calls for
// it.
func (w *Writer) maybeWritePSI() error {
	switch w.psiMethod {
	case psiMethodPacket:
		if w.pktCount < w.psiSendCount {
			return nil
		}
		w.pktCount = 0
	case psiMethodTime:
		if !w.startTime.IsZero() && time.Since(w.startTime) < w.psiSetTime {
			return nil
		}
		w.startTime = time.Now()
	}
	return w.writePSI()
}

// writePSI emits the current PAT and PMT as single TS packets each.
func (w *Writer) writePSI() error {
	patPkt := &Packet{PUSI: true, PID: PatPID, AFC: AFCPayloadOnly, CC: w.ccFor(PatPID), Payload: padPSI(w.pat.Bytes())}
	if _, err := w.dst.Write(patPkt.Bytes(w.tsSpace[:0])); err != nil {
		return errors.Wrap(err, "could not write PAT packet")
	}
	w.pktCount++

	pmtBytes, err := w.pmt.Bytes()
	if err != nil {
		return errors.Wrap(err, "could not encode PMT")
	}
	pmtPID := w.pat.Programs[0].PMTPID
	pmtPkt := &Packet{PUSI: true, PID: pmtPID, AFC: AFCPayloadOnly, CC: w.ccFor(pmtPID), Payload: padPSI(pmtBytes)}
	if _, err := w.dst.Write(pmtPkt.Bytes(w.tsSpace[:0])); err != nil {
		return errors.Wrap(err, "could not write PMT packet")
	}
	w.pktCount++
	return nil
}

// padPSI pads a PSI section (pointer field included) out to a full
// 184-byte payload with 0xFF stuffing.
func padPSI(b []byte) []byte {
	if len(b) >= PacketSize-4 {
		return b[:PacketSize-4]
	}
	padded := make([]byte, PacketSize-4)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = 0xff
	}
	return padded
}

// WriteNullPacket emits a single null (PID 0x1FFF) stuffing packet.
func (w *Writer) WriteNullPacket() error {
	var payload [PacketSize - 4]byte
	for i := range payload {
		payload[i] = 0xff
	}
	pkt := &Packet{PID: NullPID, AFC: AFCPayloadOnly, Payload: payload[:]}
	_, err := w.dst.Write(pkt.Bytes(w.tsSpace[:0]))
	return err
}
