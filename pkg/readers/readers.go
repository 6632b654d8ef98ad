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

// Package readers connects barcode scanners that deliver serials as lines
// of text, independent of the tablet front end.
package readers

import (
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
)

type DriverMetadata struct {
	ID          string
	Description string
}

// Scan is one complete line read from a scanner.
type Scan struct {
	Time   time.Time
	Source string
	Value  string
}

type Reader interface {
	Metadata() DriverMetadata
	// IDs returns the driver names accepted in readers.connect.
	IDs() []string
	// Open starts polling the device, sending each scanned line to scans.
	Open(device config.ReadersConnect, scans chan<- Scan) error
	Close() error
	Device() string
	Connected() bool
	Info() string
}
