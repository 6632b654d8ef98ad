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

package mocks

import (
	"fmt"

	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockHistoryStore is a testify mock of database.HistoryStore.
type MockHistoryStore struct {
	mock.Mock
}

var _ database.HistoryStore = (*MockHistoryStore)(nil)

func NewMockHistoryStore() *MockHistoryStore {
	m := &MockHistoryStore{}
	m.On("RecordPrint", mock.AnythingOfType("*database.PrintEntry")).Return(nil).Maybe()
	return m
}

func (m *MockHistoryStore) RecordPrint(entry *database.PrintEntry) error {
	args := m.Called(entry)
	return wrapErr(args.Error(0))
}

// Entries returns every recorded entry.
func (m *MockHistoryStore) Entries() []database.PrintEntry {
	var entries []database.PrintEntry
	for _, c := range m.Calls {
		if e, ok := c.Arguments.Get(0).(*database.PrintEntry); ok && c.Method == "RecordPrint" {
			entries = append(entries, *e)
		}
	}
	return entries
}

// MockCounterStore is a testify mock of database.CounterStore. Every
// increment succeeds unless an expectation says otherwise.
type MockCounterStore struct {
	mock.Mock
}

var _ database.CounterStore = (*MockCounterStore)(nil)

func NewMockCounterStore() *MockCounterStore {
	m := &MockCounterStore{}
	m.On("IncrementScan").Return(nil).Maybe()
	m.On("IncrementPrint").Return(nil).Maybe()
	m.On("IncrementError").Return(nil).Maybe()
	m.On("IncrementTypeScan", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("IncrementTypePrint", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *MockCounterStore) IncrementScan() error {
	args := m.Called()
	return wrapErr(args.Error(0))
}

func (m *MockCounterStore) IncrementPrint() error {
	args := m.Called()
	return wrapErr(args.Error(0))
}

func (m *MockCounterStore) IncrementError() error {
	args := m.Called()
	return wrapErr(args.Error(0))
}

func (m *MockCounterStore) IncrementTypeScan(prefix, labelType string) error {
	args := m.Called(prefix, labelType)
	return wrapErr(args.Error(0))
}

func (m *MockCounterStore) IncrementTypePrint(prefix, labelType string) error {
	args := m.Called(prefix, labelType)
	return wrapErr(args.Error(0))
}

// Count returns how many times method was called.
func (m *MockCounterStore) Count(method string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func wrapErr(err error) error {
	if err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}
