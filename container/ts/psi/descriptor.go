/*
NAME
  descriptor.go

DESCRIPTION
  descriptor.go provides parsing of the tag-length-value descriptors
  carried as opaque bytes in PMT program_info and es_info fields.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

// MetadataTag is the descriptor tag used by the meta package's key-value
// descriptor.
const MetadataTag = 0x26

// Descriptor is a single tag-length-value descriptor as carried in
// program_info or es_info bytes.
type Descriptor struct {
	Tag  byte
	Data []byte
}

// Bytes returns the wire encoding of d: tag, length, data.
func (d Descriptor) Bytes() []byte {
	out := make([]byte, 2+len(d.Data))
	out[0] = d.Tag
	out[1] = byte(len(d.Data))
	copy(out[2:], d.Data)
	return out
}

// ParseDescriptors parses a concatenated run of tag-length-value
// descriptors. A descriptor whose declared length runs past the end of
// raw is not an error: the remaining bytes are kept verbatim as that
// descriptor's data and ok is set false, per the non-standard-length
// design decision (odd-sized HEVC-style descriptors are logged as a
// warning by the caller, never rejected).
func ParseDescriptors(raw []byte) (descs []Descriptor, ok bool) {
	ok = true
	for i := 0; i+2 <= len(raw); {
		tag := raw[i]
		l := int(raw[i+1])
		end := i + 2 + l
		if end > len(raw) {
			descs = append(descs, Descriptor{Tag: tag, Data: raw[i+2:]})
			ok = false
			break
		}
		descs = append(descs, Descriptor{Tag: tag, Data: raw[i+2 : end]})
		i = end
	}
	return descs, ok
}

// DescriptorBytes concatenates descs back into wire form.
func DescriptorBytes(descs []Descriptor) []byte {
	var out []byte
	for _, d := range descs {
		out = append(out, d.Bytes()...)
	}
	return out
}
