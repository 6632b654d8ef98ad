// Zaparoo Label
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Label.
//
// Zaparoo Label is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Label is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Label.  If not, see <http://www.gnu.org/licenses/>.

package serialport

import (
	"bytes"
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
)

// MockPort is an in-memory Port for tests. Reads come from ReadData or
// ReadFunc and writes are collected in Written.
type MockPort struct {
	ReadError  error
	WriteError error
	DrainError error
	CloseError error
	TimeoutErr error
	ReadFunc   func(p []byte) (n int, err error)
	ReadData   []byte
	written    bytes.Buffer
	ReadIndex  int
	// WriteLimit caps the bytes accepted per Write call when > 0.
	WriteLimit int
	Closed     bool
	mu         syncutil.RWMutex
}

func NewMockPort() *MockPort {
	return &MockPort{}
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	m.mu.RLock()
	closed := m.Closed
	m.mu.RUnlock()

	if closed {
		return 0, errors.New("port closed")
	}

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}

	if m.ReadError != nil {
		return 0, m.ReadError
	}

	if m.ReadIndex >= len(m.ReadData) {
		// emulate a read timeout
		time.Sleep(10 * time.Millisecond)
		return 0, nil
	}

	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	if m.WriteLimit > 0 && len(p) > m.WriteLimit {
		p = p[:m.WriteLimit]
	}
	return m.written.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (m *MockPort) Drain() error {
	return m.DrainError
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	m.Closed = true
	closeError := m.CloseError
	m.mu.Unlock()
	return closeError
}

func (m *MockPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

func (m *MockPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}

// Written returns everything written so far.
func (m *MockPort) Written() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written.String()
}
