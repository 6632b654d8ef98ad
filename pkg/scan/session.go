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

package scan

// Field is one of the two serial inputs.
type Field int

const (
	FieldLeft  Field = 1
	FieldRight Field = 2
)

func (f Field) String() string {
	switch f {
	case FieldLeft:
		return "left"
	case FieldRight:
		return "right"
	default:
		return "unknown"
	}
}

func (f Field) valid() bool {
	return f == FieldLeft || f == FieldRight
}

type Validation string

const (
	ValidationNone    Validation = "none"
	ValidationSuccess Validation = "success"
	ValidationError   Validation = "error"
)

type FieldState struct {
	Value      string     `json:"value"`
	Validation Validation `json:"validation"`
	Message    string     `json:"message,omitempty"`
}

// Session is the operator-visible scan state. Step 1 waits for the left
// serial, step 2 for the right one.
type Session struct {
	DetectedPrefix    string     `json:"detectedPrefix,omitempty"`
	DetectedLabelType string     `json:"detectedLabelType,omitempty"`
	Notice            string     `json:"notice,omitempty"`
	Left              FieldState `json:"left"`
	Right             FieldState `json:"right"`
	Step              int        `json:"step"`
	Focus             Field      `json:"focus"`
	IsPrinting        bool       `json:"isPrinting"`
}

func newSession() Session {
	return Session{
		Step:  1,
		Focus: FieldLeft,
		Left:  FieldState{Validation: ValidationNone},
		Right: FieldState{Validation: ValidationNone},
	}
}

func (s *Session) field(f Field) *FieldState {
	if f == FieldRight {
		return &s.Right
	}
	return &s.Left
}

// Event names what changed in a Notification.
type Event string

const (
	EventUpdated     Event = "updated"
	EventPrinted     Event = "printed"
	EventPrintFailed Event = "printFailed"
	EventNotice      Event = "notice"
	EventCleared     Event = "cleared"
)

// Notification carries a session snapshot after every state change.
type Notification struct {
	Event   Event   `json:"event"`
	Session Session `json:"session"`
}
