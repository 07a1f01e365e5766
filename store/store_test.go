// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/vlreflow/oven/hal/haltest"
	"github.com/vlreflow/oven/profile"
)

func TestSignature(t *testing.T) {
	m := haltest.NewMemory(1024)
	s := New(m)
	if s.ValidateSignature() {
		t.Fatal("blank memory must not validate")
	}
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	if !s.ValidateSignature() {
		t.Fatal("formatted memory must validate")
	}
	if s.Count() != 0 {
		t.Fatalf("count %d", s.Count())
	}
	off, ok := s.FreeOffset()
	if !ok || off != SigLen {
		t.Fatalf("free offset %d %v", off, ok)
	}
}

func TestDefaults(t *testing.T) {
	m := haltest.NewMemory(2048)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterDefaults(); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 2 {
		t.Fatalf("count %d", s.Count())
	}
	want := Defaults()
	for i := range want {
		h, _, err := s.LoadHeader(i)
		if err != nil {
			t.Fatal(err)
		}
		if h.Name != want[i].Name || h.PhaseCount != len(want[i].Phases) {
			t.Fatalf("header %d: %+v", i, h)
		}
		p, err := s.LoadProfile(i)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Equal(&want[i]) {
			t.Fatalf("profile %d differs: %+v", i, p)
		}
	}
}

func TestAppendRoundTrip(t *testing.T) {
	m := haltest.NewMemory(2048)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterDefaults(); err != nil {
		t.Fatal(err)
	}
	old := s.Count()
	p := profile.Profile{
		Name: "Test",
		Phases: []profile.Phase{
			{Name: "Ramp", EndTemp: 100, Slope: 2, Duration: 0},
			{Name: "Hold", EndTemp: 100, Slope: 0, Duration: 30},
			{Name: "Cool", EndTemp: 40, Slope: -1.5, Duration: -1},
		},
	}
	if err := s.Append(&p); err != nil {
		t.Fatal(err)
	}
	if s.Count() != old+1 {
		t.Fatalf("count %d", s.Count())
	}
	got, err := s.LoadProfile(old)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(&p) {
		t.Fatalf("round trip differs: %+v", got)
	}
	// The names list preserves insertion order.
	names := s.Names()
	if names[len(names)-1] != "Test" {
		t.Fatalf("names %v", names)
	}
}

func TestAppendInvalid(t *testing.T) {
	m := haltest.NewMemory(1024)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	p := profile.Profile{Name: "", Phases: []profile.Phase{{Name: "a"}}}
	if err := s.Append(&p); err == nil {
		t.Fatal("expected validation error")
	}
	if s.Count() != 0 {
		t.Fatalf("count %d", s.Count())
	}
}

func TestAppendToFull(t *testing.T) {
	// Room for the signature and a handful of minimum-sized records.
	m := haltest.NewMemory(SigLen + 4*(HeaderSize+PhaseSize) + 10)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	p := profile.Profile{Name: "P", Phases: []profile.Phase{{Name: "a", EndTemp: 1}}}
	n := 0
	for {
		if err := s.Append(&p); err != nil {
			if err != ErrCatalogFull {
				t.Fatal(err)
			}
			break
		}
		n++
		if n > 100 {
			t.Fatal("append never filled up")
		}
	}
	if n != 4 {
		t.Fatalf("expected 4 records, got %d", n)
	}
	if s.Count() != n {
		t.Fatalf("count %d after failed append", s.Count())
	}
	// Prior entries are intact.
	for i := 0; i < n; i++ {
		got, err := s.LoadProfile(i)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(&p) {
			t.Fatalf("record %d corrupted: %+v", i, got)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	m := haltest.NewMemory(1024)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.LoadHeader(0); err == nil {
		t.Fatal("expected error on empty catalog")
	}
	if _, err := s.LoadProfile(3); err == nil {
		t.Fatal("expected error on missing record")
	}
}

func TestInfoAndDump(t *testing.T) {
	m := haltest.NewMemory(1024)
	s := New(m)
	if err := s.Format(); err != nil {
		t.Fatal(err)
	}
	i := s.Info()
	if !i.SigOK || i.Len != 1024 || i.FreeStart != SigLen {
		t.Fatalf("info %+v", i)
	}
	b, err := s.Dump(0, 64)
	if err != nil {
		t.Fatal(err)
	}
	if string(b[:SigLen]) != "VLReflow\x00" {
		t.Fatalf("dump %q", b[:SigLen])
	}
	if _, err := s.Dump(2048, 64); err == nil {
		t.Fatal("expected range error")
	}
	// A dump near the end is truncated, not an error.
	b, err = s.Dump(1000, 64)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 24 {
		t.Fatalf("truncated dump %d", len(b))
	}
}
