/*
NAME
  detect.go

DESCRIPTION
  detect.go implements the file-level half of the stream-kind detector:
  deciding whether a seekable source holds a transport stream, a
  program stream, or a bare elementary stream, before handing an ES
  candidate off to the es package's codec heuristic. The source is
  always left seeked back to its starting position.

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

	"github.com/kynesim/gomts/ioseek"
)

// Kind identifies the container format of a byte source.
type Kind int

const (
	KindUnknown Kind = iota
	KindTS
	KindPS
	KindES
)

func (k Kind) String() string {
	switch k {
	case KindTS:
		return "TS"
	case KindPS:
		return "PS"
	case KindES:
		return "ES"
	default:
		return "unknown"
	}
}

// tsSyncChecks is the number of further 188-byte-spaced sync bytes
// checked after the first, per the file-level TS heuristic.
const tsSyncChecks = 500

// psStartCode is the pack_start_code prefix that identifies a program
// stream.
var psStartCode = [4]byte{0x00, 0x00, 0x01, 0xba}

// DetectKind decides src's container kind, always leaving src
// rewound to offset 0 (the start of the source) before returning, regardless of how
// far the TS/PS probe advanced the read cursor.
func DetectKind(src ioseek.Source) (Kind, error) {
	defer src.Seek(0, io.SeekStart)

	if isTS(src) {
		return KindTS, nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return KindUnknown, err
	}
	if isPS(src) {
		return KindPS, nil
	}
	return KindES, nil
}

// isTS reports whether src's first byte is the sync byte and it
// remains so at every subsequent 188-byte boundary for up to
// tsSyncChecks further packets (fewer if the source is short).
func isTS(src ioseek.Source) bool {
	var b [1]byte
	for i := 0; i <= tsSyncChecks; i++ {
		if _, err := src.Seek(int64(i)*PacketSize, io.SeekStart); err != nil {
			return i > 0
		}
		n, err := src.Read(b[:])
		if n == 0 {
			return i > 0
		}
		if b[0] != SyncByte {
			return false
		}
		if err != nil && err != io.EOF {
			return i > 0
		}
	}
	return true
}

// isPS reports whether src begins with the PS pack_start_code prefix
// 00 00 01 BA.
func isPS(src ioseek.Source) bool {
	var b [4]byte
	n, _ := io.ReadFull(src, b[:])
	return n == 4 && b == psStartCode
}
