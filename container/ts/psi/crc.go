/*
NAME
  crc.go
DESCRIPTION
  crc.go implements the table-driven CRC-32/MPEG-2 checksum (polynomial
  0x04C11DB7, initial register 0xFFFFFFFF, no final XOR) used to
  validate and sign PAT/PMT sections.

AUTHOR
	Dan Kortschak <dan@ausocean.org>
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
	"hash/crc32"
	"math/bits"
)

var crc32MPEG2Table = makeTable(bits.Reverse32(crc32.IEEE))

// crc32MPEG2 computes the CRC-32/MPEG-2 checksum of b.
func crc32MPEG2(b []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, v := range b {
		crc = crc32MPEG2Table[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}

func makeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}
