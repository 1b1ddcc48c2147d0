/*
NAME
  kind.go

DESCRIPTION
  kind.go implements the elementary stream codec heuristic: reading up
  to a bounded number of start-code-prefixed units and eliminating
  candidate kinds using rules that are unambiguous from the start_code
  byte alone, deciding only when exactly one candidate survives.

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

import "io"

// Kind identifies an elementary stream's video codec.
type Kind int

const (
	KindUnknown Kind = iota
	KindH262
	KindH264
	KindAVS
)

func (k Kind) String() string {
	switch k {
	case KindH262:
		return "H.262"
	case KindH264:
		return "H.264"
	case KindAVS:
		return "AVS"
	default:
		return "unknown"
	}
}

// H.264 NAL unit types relevant to the elimination rules below.
const (
	nalTypeSliceNonIDR = 1
	nalTypeSliceIDR     = 5
	nalTypeSEI          = 6
	nalTypeSPS          = 7
	nalTypePPS          = 8
	nalTypeAUD          = 9
	nalTypeEndOfSeq     = 10
	nalTypeEndOfStream  = 11
	nalTypeFiller       = 12
)

// maxKindScanUnits bounds how many units DetectKind reads before
// giving up and reporting whatever single candidate (if any) survives.
const maxKindScanUnits = 500

// DetectKind reads start-code-prefixed units from r and decides the
// codec by eliminating candidates that the observed start codes rule
// out, stopping as soon as one candidate remains.
func DetectKind(r io.Reader) (Kind, error) {
	candidates := map[Kind]bool{KindH262: true, KindH264: true, KindAVS: true}
	sc := NewScanner(r)

	for i := 0; i < maxKindScanUnits; i++ {
		u, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return KindUnknown, err
		}
		eliminate(candidates, u.StartCode)
		if len(candidates) <= 1 {
			break
		}
	}
	return decide(candidates), nil
}

// eliminate removes from candidates any kind the given start_code
// byte rules out.
func eliminate(candidates map[Kind]bool, startCode byte) {
	switch startCode {
	case 0xb0, 0xb1, 0xb6:
		delete(candidates, KindH262)
	}
	switch startCode {
	case 0xb4, 0xb8:
		delete(candidates, KindAVS)
	}

	if startCode&0x80 != 0 {
		delete(candidates, KindH264)
		return
	}

	nalType := startCode & 0x1f
	nalRefIdc := startCode >> 5 & 0x3

	if nalType >= 13 && nalType <= 23 {
		delete(candidates, KindH264)
		return
	}
	if nalRefIdc == 0 {
		switch nalType {
		case nalTypeSliceIDR, nalTypeSPS, nalTypePPS:
			delete(candidates, KindH264)
		}
		return
	}
	switch nalType {
	case nalTypeSEI, nalTypeAUD, nalTypeEndOfSeq, nalTypeEndOfStream, nalTypeFiller:
		delete(candidates, KindH264)
	}
}

func decide(candidates map[Kind]bool) Kind {
	if len(candidates) != 1 {
		return KindUnknown
	}
	for k := range candidates {
		return k
	}
	return KindUnknown
}
