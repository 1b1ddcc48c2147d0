/*
NAME
  streamtype.go

DESCRIPTION
  streamtype.go names the PMT stream_type values this module knows how
  to wrap as PES, and maps them to a MIME type for reporting.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import "github.com/pkg/errors"

// Stream types, as carried in a PMT stream_type field, per ITU-T Rec.
// H.222.0 / ISO/IEC 13818-1 tables 2-22 and 2-34. These are distinct
// from the PES stream_id byte (see streamid.go): stream_type
// identifies the codec, stream_id identifies the PES packet's
// transport class (video/audio/private).
const (
	StreamTypeH262  = 0x02
	StreamTypeAAC   = 0x0f
	StreamTypeH264  = 0x1b
	StreamTypeH265  = 0x24
	StreamTypeAVS   = 0x42
	StreamTypeMJPEG = 0x90 // private/user-defined range.
	StreamTypeJPEG  = 0x91
	StreamTypePCM   = 0x83
	StreamTypeADPCM = 0x84
)

// ErrUnknownStreamType is returned by StreamTypeMIMEType for a
// stream_type this module does not recognise.
var ErrUnknownStreamType = errors.New("pes: unknown stream type")

// StreamTypeMIMEType returns the MIME type corresponding to a PMT
// stream_type value.
func StreamTypeMIMEType(st byte) (string, error) {
	switch st {
	case StreamTypeH262:
		return "video/mpeg2", nil
	case StreamTypeH264:
		return "video/h264", nil
	case StreamTypeH265:
		return "video/h265", nil
	case StreamTypeAVS:
		return "video/avs", nil
	case StreamTypeMJPEG:
		return "video/x-motion-jpeg", nil
	case StreamTypeJPEG:
		return "image/jpeg", nil
	case StreamTypePCM:
		return "audio/pcm", nil
	case StreamTypeADPCM:
		return "audio/adpcm", nil
	case StreamTypeAAC:
		return "audio/aac", nil
	default:
		return "", ErrUnknownStreamType
	}
}
