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

package config

import (
	"fmt"
	"time"
)

const (
	PrinterDriverAuto   = "auto"
	PrinterDriverUSBLP  = "usblp"
	PrinterDriverSerial = "serial"
)

type Printer struct {
	Driver         string `toml:"driver"`
	Path           string `toml:"path,omitempty"`
	VendorID       string `toml:"vendor_id,omitempty"`
	BaudRate       int    `toml:"baud_rate,omitempty"`
	WriteTimeoutMs int    `toml:"write_timeout_ms,omitempty"`
	ChunkSize      int    `toml:"chunk_size,omitempty"`
}

type Readers struct {
	Connect []ReadersConnect `toml:"connect,omitempty"`
}

type ReadersConnect struct {
	Driver   string `toml:"driver"`
	Path     string `toml:"path,omitempty"`
	BaudRate int    `toml:"baud_rate,omitempty"`
}

func (r ReadersConnect) ConnectionString() string {
	return fmt.Sprintf("%s:%s", r.Driver, r.Path)
}

type Ledger struct {
	URL       string `toml:"url,omitempty"`
	Token     string `toml:"token,omitempty"`
	TimeoutMs int    `toml:"timeout_ms,omitempty"`
	Enabled   bool   `toml:"enabled"`
}

func (c *Instance) Printer() Printer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Printer
}

func (c *Instance) SetPrinter(p Printer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Printer = p
}

func (c *Instance) PrinterWriteTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Printer.WriteTimeoutMs <= 0 {
		return DefaultPrinterTimeout
	}
	return time.Duration(c.vals.Printer.WriteTimeoutMs) * time.Millisecond
}

func (c *Instance) PrinterBaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Printer.BaudRate <= 0 {
		return DefaultPrinterBaudRate
	}
	return c.vals.Printer.BaudRate
}

func (c *Instance) ReadersConnect() []ReadersConnect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ReadersConnect, len(c.vals.Readers.Connect))
	copy(out, c.vals.Readers.Connect)
	return out
}

func (c *Instance) LedgerEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Ledger.Enabled && c.vals.Ledger.URL != ""
}

func (c *Instance) LedgerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Ledger.URL
}

func (c *Instance) LedgerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Ledger.Token
}

func (c *Instance) LedgerTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Ledger.TimeoutMs <= 0 {
		return DefaultLedgerTimeout
	}
	return time.Duration(c.vals.Ledger.TimeoutMs) * time.Millisecond
}

func (c *Instance) SetLedger(l Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Ledger = l
}
