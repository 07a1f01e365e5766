// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store persists the profile catalog in a byte-addressed memory.
//
// Layout:
//
//	[0 .. SigLen)       signature, ASCII "VLReflow\0"
//	[SigLen .. Len)     catalog region
//
// The catalog is a sequence of records, each a fixed-width header followed by
// its phases. A record whose first name byte is zero marks end-of-catalog.
// Records are never edited in place; the only mutations are Format and
// Append. Field widths are a bit-exact on-device contract and must not
// change.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vlreflow/oven/hal"
	"github.com/vlreflow/oven/profile"
)

const signature = "VLReflow\x00"

const (
	// SigLen is the signature length in bytes.
	SigLen = len(signature)
	// HeaderSize is the encoded size of a record header: name[20] plus a
	// little-endian int16 phase count.
	HeaderSize = headerNameLen + 2
	// PhaseSize is the encoded size of one phase: name[11], end temperature
	// (float64), slope (float64), duration (int32), little-endian.
	PhaseSize = phaseNameLen + 8 + 8 + 4

	headerNameLen = 20
	phaseNameLen  = 11
)

var (
	// ErrBadSignature identifies a memory that does not start with the
	// expected signature. No Store method returns it; ValidateSignature
	// reports the condition as false. Recovery requires an explicit Format.
	ErrBadSignature = errors.New("store: bad signature")
	// ErrCatalogFull is returned by Append when the record does not fit.
	ErrCatalogFull = errors.New("store: catalog full")
	// ErrCorrupt is returned when a record fails decoding.
	ErrCorrupt = errors.New("store: corrupt record")
)

// Header is the decoded fixed-width prefix of a catalog record. Its phase
// list is loaded separately by LoadProfile.
type Header struct {
	Name       string
	PhaseCount int
}

// Info summarizes the store for the "e inf" console command.
type Info struct {
	SigOK     bool
	Len       int
	FreeStart int
}

// Store reads and appends catalog records on a hal.Memory.
type Store struct {
	m hal.Memory
}

// New returns a Store on m. It performs no I/O; call ValidateSignature to
// probe the contents.
func New(m hal.Memory) *Store {
	return &Store{m: m}
}

// ValidateSignature reports whether the memory starts with the signature.
func (s *Store) ValidateSignature() bool {
	buf := make([]byte, SigLen)
	if _, err := s.m.ReadAt(buf, 0); err != nil {
		return false
	}
	return string(buf) == signature
}

// Format writes the signature and zero-fills the catalog region.
func (s *Store) Format() error {
	if _, err := s.m.WriteAt([]byte(signature), 0); err != nil {
		return fmt.Errorf("store: format: %v", err)
	}
	zero := make([]byte, 256)
	for off := SigLen; off < s.m.Len(); off += len(zero) {
		n := len(zero)
		if off+n > s.m.Len() {
			n = s.m.Len() - off
		}
		if _, err := s.m.WriteAt(zero[:n], int64(off)); err != nil {
			return fmt.Errorf("store: format: %v", err)
		}
	}
	return nil
}

// Count returns the number of records in the catalog.
func (s *Store) Count() int {
	n := 0
	s.scan(func(Header, int) bool {
		n++
		return true
	})
	return n
}

// FreeOffset returns the first byte past the last record. ok is false when
// not even a record header would fit there.
func (s *Store) FreeOffset() (off int, ok bool) {
	off = SigLen
	s.scan(func(h Header, o int) bool {
		off = o + HeaderSize + h.PhaseCount*PhaseSize
		return true
	})
	return off, off+HeaderSize <= s.m.Len()
}

// LoadHeader returns the i-th record header and its byte offset.
func (s *Store) LoadHeader(i int) (Header, int, error) {
	var (
		hdr   Header
		hoff  int
		found bool
	)
	n := 0
	s.scan(func(h Header, o int) bool {
		if n == i {
			hdr, hoff, found = h, o, true
			return false
		}
		n++
		return true
	})
	if !found {
		return Header{}, 0, fmt.Errorf("store: no record %d", i)
	}
	return hdr, hoff, nil
}

// LoadProfile loads the i-th record, header and phases, and validates it.
func (s *Store) LoadProfile(i int) (*profile.Profile, error) {
	h, off, err := s.LoadHeader(i)
	if err != nil {
		return nil, err
	}
	p := &profile.Profile{Name: h.Name, Phases: make([]profile.Phase, h.PhaseCount)}
	buf := make([]byte, PhaseSize)
	for j := 0; j < h.PhaseCount; j++ {
		po := off + HeaderSize + j*PhaseSize
		if _, err := s.m.ReadAt(buf, int64(po)); err != nil {
			return nil, fmt.Errorf("store: read phase %d: %v", j, err)
		}
		ph, err := decodePhase(buf)
		if err != nil {
			return nil, err
		}
		p.Phases[j] = ph
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Names returns the record names in catalog order.
func (s *Store) Names() []string {
	var names []string
	s.scan(func(h Header, _ int) bool {
		names = append(names, h.Name)
		return true
	})
	return names
}

// Append writes p at the end of the catalog. The phases are written before
// the header so that a power loss mid-append leaves the catalog terminated at
// the old sentinel instead of pointing at garbage.
func (s *Store) Append(p *profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	off, ok := s.FreeOffset()
	size := HeaderSize + len(p.Phases)*PhaseSize
	if !ok || off+size > s.m.Len() {
		return ErrCatalogFull
	}
	buf := make([]byte, PhaseSize)
	for i := range p.Phases {
		encodePhase(buf, &p.Phases[i])
		if _, err := s.m.WriteAt(buf, int64(off+HeaderSize+i*PhaseSize)); err != nil {
			return fmt.Errorf("store: write phase %d: %v", i, err)
		}
	}
	hdr := make([]byte, HeaderSize)
	copy(hdr, p.Name)
	binary.LittleEndian.PutUint16(hdr[headerNameLen:], uint16(len(p.Phases)))
	if _, err := s.m.WriteAt(hdr, int64(off)); err != nil {
		return fmt.Errorf("store: write header: %v", err)
	}
	return nil
}

// Info returns the signature state, total length and the free offset.
func (s *Store) Info() Info {
	off, _ := s.FreeOffset()
	return Info{SigOK: s.ValidateSignature(), Len: s.m.Len(), FreeStart: off}
}

// Dump returns up to n bytes starting at off, for the "e d" console command.
func (s *Store) Dump(off, n int) ([]byte, error) {
	if off < 0 || off >= s.m.Len() {
		return nil, fmt.Errorf("store: offset %d out of range", off)
	}
	if off+n > s.m.Len() {
		n = s.m.Len() - off
	}
	buf := make([]byte, n)
	if _, err := s.m.ReadAt(buf, int64(off)); err != nil {
		return nil, fmt.Errorf("store: dump: %v", err)
	}
	return buf, nil
}

// scan walks the records in order, calling fn with each decoded header and
// its offset, until fn returns false or the end sentinel is reached. A header
// that fails decoding terminates the walk; the catalog effectively ends at
// the first corrupt record.
func (s *Store) scan(fn func(h Header, off int) bool) {
	buf := make([]byte, HeaderSize)
	off := SigLen
	for off+HeaderSize <= s.m.Len() {
		if _, err := s.m.ReadAt(buf, int64(off)); err != nil {
			return
		}
		if buf[0] == 0 {
			return
		}
		h, err := decodeHeader(buf)
		if err != nil {
			return
		}
		if !fn(h, off) {
			return
		}
		off += HeaderSize + h.PhaseCount*PhaseSize
	}
}

func decodeHeader(b []byte) (Header, error) {
	name, err := cstr(b[:headerNameLen])
	if err != nil {
		return Header{}, err
	}
	n := int(int16(binary.LittleEndian.Uint16(b[headerNameLen:])))
	if n < 1 || n > profile.MaxPhases {
		return Header{}, ErrCorrupt
	}
	return Header{Name: name, PhaseCount: n}, nil
}

func encodePhase(b []byte, p *profile.Phase) {
	for i := range b {
		b[i] = 0
	}
	copy(b, p.Name)
	binary.LittleEndian.PutUint64(b[phaseNameLen:], math.Float64bits(p.EndTemp))
	binary.LittleEndian.PutUint64(b[phaseNameLen+8:], math.Float64bits(p.Slope))
	binary.LittleEndian.PutUint32(b[phaseNameLen+16:], uint32(p.Duration))
}

func decodePhase(b []byte) (profile.Phase, error) {
	name, err := cstr(b[:phaseNameLen])
	if err != nil {
		return profile.Phase{}, err
	}
	return profile.Phase{
		Name:     name,
		EndTemp:  math.Float64frombits(binary.LittleEndian.Uint64(b[phaseNameLen:])),
		Slope:    math.Float64frombits(binary.LittleEndian.Uint64(b[phaseNameLen+8:])),
		Duration: int32(binary.LittleEndian.Uint32(b[phaseNameLen+16:])),
	}, nil
}

// cstr decodes a NUL-terminated ASCII field. A field with no terminator is
// corrupt.
func cstr(b []byte) (string, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), nil
		}
	}
	return "", ErrCorrupt
}
