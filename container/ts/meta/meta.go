/*
NAME
  meta.go

DESCRIPTION
  meta.go provides an ordered key-value metadata set (frame number,
  location, capture timestamp, and the like) that travels inside a
  program's PMT program_info as a single tag-length-value descriptor,
  built on the psi package's own descriptor model rather than
  inventing a parallel length-prefixed framing.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package meta provides an ordered key-value metadata set that rides
// inside a PMT program_info descriptor.
package meta

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/kynesim/gomts/container/ts/psi"
)

// version is the metadata descriptor's format version, packed into
// the high nibble of its first byte (the low nibble is reserved).
const version = 1

var (
	errKeyAbsent   = errors.New("meta: key does not exist in map")
	ErrNotMetadata = errors.New("meta: descriptor is not a metadata descriptor")
	ErrVersion     = errors.New("meta: unsupported metadata version")
)

// Data is an ordered set of key-value metadata entries.
type Data struct {
	mu    sync.RWMutex
	data  map[string]string
	order []string
}

// New returns an empty Data.
func New() *Data {
	return &Data{data: make(map[string]string)}
}

// NewWith creates a Data from an ordered list of key-value pairs. If a
// key repeats, the later value wins but the key keeps its first
// position.
func NewWith(data [][2]string) *Data {
	m := New()
	for _, d := range data {
		m.Add(d[0], d[1])
	}
	return m
}

// NewFromMap creates a Data from a map; iteration order (and so the
// resulting entry order) is unspecified.
func NewFromMap(data map[string]string) *Data {
	m := New()
	for k, v := range data {
		m.Add(k, v)
	}
	return m
}

// Add sets key's value, appending key to the entry order the first
// time it is seen.
func (m *Data) Add(key, val string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = val
}

// All returns a copy of the entry map.
func (m *Data) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cpy := make(map[string]string, len(m.data))
	for k, v := range m.data {
		cpy[k] = v
	}
	return cpy
}

// Get returns key's value.
func (m *Data) Get(key string) (val string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok = m.data[key]
	return
}

// Delete removes key, if present.
func (m *Data) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// encodeTSV renders m's entries, in entry order, as key=value pairs
// joined by tabs.
func (m *Data) encodeTSV() string {
	entries := make([]string, len(m.order))
	for i, k := range m.order {
		entries[i] = k + "=" + m.data[k]
	}
	return strings.Join(entries, "\t")
}

// Descriptor encodes m as a PMT program_info descriptor tagged
// psi.MetadataTag: a version byte followed by the TSV body. The
// descriptor's own tag-length-value framing (psi.Descriptor.Bytes)
// makes a second, independent length field unnecessary.
func (m *Data) Descriptor() psi.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body := append([]byte{version << 4}, []byte(m.encodeTSV())...)
	return psi.Descriptor{Tag: psi.MetadataTag, Data: body}
}

// Encode is a convenience wrapper around Descriptor().Bytes(), for
// callers that want the descriptor's complete wire bytes (tag, length,
// version, TSV body) in one call.
func (m *Data) Encode() []byte {
	return m.Descriptor().Bytes()
}

// EncodeAsString renders m's entries in TSV form with no version byte
// or descriptor framing, for callers (such as cloud storage) that
// keep metadata outside any PMT descriptor.
func (m *Data) EncodeAsString() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.encodeTSV()
}

// ParseDescriptor decodes a metadata descriptor produced by Descriptor
// or Encode.
func ParseDescriptor(d psi.Descriptor) (*Data, error) {
	if d.Tag != psi.MetadataTag {
		return nil, ErrNotMetadata
	}
	if len(d.Data) == 0 {
		return nil, errors.New("meta: empty descriptor body")
	}
	if d.Data[0]>>4 != version {
		return nil, ErrVersion
	}
	all, err := GetAllFromString(string(d.Data[1:]))
	if err != nil {
		return nil, err
	}
	return NewFromMap(all), nil
}

// Keys returns the keys from a metadata descriptor's encoded bytes, as
// produced by Encode.
func Keys(d []byte) ([]string, error) {
	m, err := GetAll(d)
	if err != nil {
		return nil, err
	}
	k := make([]string, len(m))
	for i, kv := range m {
		k[i] = kv[0]
	}
	return k, nil
}

// Get returns the value for key out of a metadata descriptor's
// encoded bytes (tag, length and body), as produced by Encode.
func Get(key string, d []byte) (string, error) {
	pd, ok := psi.ParseDescriptors(d)
	if !ok || len(pd) == 0 {
		return "", ErrNotMetadata
	}
	m, err := ParseDescriptor(pd[0])
	if err != nil {
		return "", err
	}
	val, ok := m.Get(key)
	if !ok {
		return "", errKeyAbsent
	}
	return val, nil
}

// GetAll returns the key-value pairs from a metadata descriptor's
// encoded bytes, as produced by Encode.
func GetAll(d []byte) ([][2]string, error) {
	pd, ok := psi.ParseDescriptors(d)
	if !ok || len(pd) == 0 {
		return nil, ErrNotMetadata
	}
	m, err := ParseDescriptor(pd[0])
	if err != nil {
		return nil, err
	}
	all := make([][2]string, len(m.order))
	for i, k := range m.order {
		all[i] = [2]string{k, m.data[k]}
	}
	return all, nil
}

// GetAllAsMap returns the key-value pairs from a metadata descriptor's
// encoded bytes, as produced by Encode.
func GetAllAsMap(d []byte) (map[string]string, error) {
	pd, ok := psi.ParseDescriptors(d)
	if !ok || len(pd) == 0 {
		return nil, ErrNotMetadata
	}
	m, err := ParseDescriptor(pd[0])
	if err != nil {
		return nil, err
	}
	return m.All(), nil
}

// GetAllFromString returns the key-value pairs from a bare TSV string,
// as produced by EncodeAsString.
func GetAllFromString(s string) (map[string]string, error) {
	all := make(map[string]string)
	if s == "" {
		return all, nil
	}
	for _, entry := range strings.Split(s, "\t") {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("meta: malformed entry %q", entry)
		}
		all[kv[0]] = kv[1]
	}
	return all, nil
}
