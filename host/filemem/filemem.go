// Copyright 2025 The VLReflow Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package filemem exposes a fixed-size file as byte-addressed persistent
// memory, standing in for the on-device EEPROM.
package filemem

import (
	"fmt"
	"os"
)

// Mem implements hal.Memory on an ordinary file.
type Mem struct {
	f *os.File
	n int
}

// Open opens or creates path and sizes it to n bytes. A new file starts
// zero-filled, which a Store reads as a missing signature.
func Open(path string, n int) (*Mem, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filemem: %v", err)
	}
	if err := f.Truncate(int64(n)); err != nil {
		f.Close()
		return nil, fmt.Errorf("filemem: %v", err)
	}
	return &Mem{f: f, n: n}, nil
}

// Len implements hal.Memory.
func (m *Mem) Len() int {
	return m.n
}

// ReadAt implements io.ReaderAt.
func (m *Mem) ReadAt(p []byte, off int64) (int, error) {
	return m.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (m *Mem) WriteAt(p []byte, off int64) (int, error) {
	n, err := m.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	return n, m.f.Sync()
}

// Close releases the file.
func (m *Mem) Close() error {
	return m.f.Close()
}
