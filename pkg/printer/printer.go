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

// Package printer sends generated label documents to a locally attached
// printer over the Linux usblp driver or a USB serial port.
package printer

import (
	"context"
	"errors"
	"fmt"
)

// Transport is a printer the print flow can send documents to. Any error
// from SendDocument means the label was not printed.
type Transport interface {
	IsConnected() bool
	SendDocument(ctx context.Context, text string) error
}

var (
	ErrNotConnected = errors.New("printer not connected")
	ErrWriteFailed  = errors.New("printer write failed")
	ErrTimeout      = errors.New("printer write timed out")
	ErrNoPrinter    = errors.New("no printer found")
)

// Error is a transport failure. Kind is one of the sentinel errors above
// and Err is the underlying OS or driver error.
type Error struct {
	Kind   error
	Err    error
	Op     string
	Device string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Device, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, device string, err error) *Error {
	return &Error{Kind: kind, Op: op, Device: device, Err: err}
}

// UserMessage maps a transport error to a short operator-facing message.
// Driver and OS error text is never included.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrNoPrinter):
		return "Printer not connected"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Printer not responding"
	case errors.Is(err, context.Canceled):
		return "Print cancelled"
	case errors.Is(err, ErrWriteFailed):
		return "Print failed, check the printer and try again"
	default:
		return "Print failed"
	}
}

// Device describes a discovered printer.
type Device struct {
	Driver       string `json:"driver"`
	Path         string `json:"path"`
	VendorID     string `json:"vendorId,omitempty"`
	ProductID    string `json:"productId,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	Serial       string `json:"serial,omitempty"`
	// Commands is the printer languages reported in the IEEE 1284 id.
	Commands []string `json:"commands,omitempty"`
}

func (d Device) DisplayName() string {
	if d.Manufacturer == "" && d.Product == "" {
		return d.Path
	}
	if d.Manufacturer == "" {
		return d.Product
	}
	if d.Product == "" {
		return d.Manufacturer
	}
	return d.Manufacturer + " " + d.Product
}
