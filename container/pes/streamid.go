/*
NAME
  streamid.go

DESCRIPTION
  streamid.go names the PES stream_id byte values this module writes
  and recognises: the transport class a PES packet belongs to, as
  opposed to the PMT stream_type codec identifier (see streamtype.go).

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

// PES stream_id values, per ISO/IEC 13818-1 table 2-18. Video streams
// use 0xE0-0xEF; this module always writes the base value. Audio
// streams use 0xC0-0xDF, or PrivateStream1 for private/non-MPEG audio
// such as raw PCM or ADPCM.
const (
	VideoStreamID   = 0xe0
	AudioStreamIDLo = 0xc0
	AudioStreamIDHi = 0xdf
	PrivateStream1  = 0xbd
)

// IsAudioStreamID reports whether id falls in the PES audio stream_id
// range, or is the private_stream_1 id used for non-MPEG audio
// payloads such as PCM and ADPCM.
func IsAudioStreamID(id byte) bool {
	return (id >= AudioStreamIDLo && id <= AudioStreamIDHi) || id == PrivateStream1
}

// IsVideoStreamID reports whether id falls in the PES video stream_id
// range.
func IsVideoStreamID(id byte) bool {
	return id >= 0xe0 && id <= 0xef
}
