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

package database

import (
	"time"
)

// PrintEntry is one attempted label print. CPCLText is the exact document
// sent to the printer so a label can be audited or reprinted.
type PrintEntry struct {
	Time        time.Time `json:"time"`
	ID          string    `json:"id"`
	Prefix      string    `json:"prefix"`
	LeftSerial  string    `json:"leftSerial"`
	RightSerial string    `json:"rightSerial"`
	LabelType   string    `json:"labelType"`
	CPCLText    string    `json:"cpclText"`
	DBID        int64     `json:"dbid"`
	Success     bool      `json:"success"`
}

// Counters are the diagnostics totals. Per-type maps are keyed by
// "prefix:labelType".
type Counters struct {
	TypeScans  map[string]int64 `json:"typeScans"`
	TypePrints map[string]int64 `json:"typePrints"`
	Scans      int64            `json:"scans"`
	Prints     int64            `json:"prints"`
	Errors     int64            `json:"errors"`
}

/*
 * Interfaces for external deps
 */

type GenericDBI interface {
	Open() error
	Allocate() error
	MigrateUp() error
	Vacuum() error
	Close() error
	GetDBPath() string
}

// HistoryStore records print attempts.
type HistoryStore interface {
	RecordPrint(entry *PrintEntry) error
}

// CounterStore keeps the diagnostics counters.
type CounterStore interface {
	IncrementScan() error
	IncrementPrint() error
	IncrementError() error
	IncrementTypeScan(prefix, labelType string) error
	IncrementTypePrint(prefix, labelType string) error
}

type PrintDBI interface {
	GenericDBI
	HistoryStore
	CounterStore
	GetHistory(lastID int64) ([]PrintEntry, error)
	GetCounters() (Counters, error)
	CleanupHistory(retentionDays int) (int64, error)
}
