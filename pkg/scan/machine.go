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

// Package scan runs the two-step scan and print flow: the operator scans
// a left and a right serial, both are checked against the prefix rules and
// a label is printed for the pair.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ZaparooProject/zaparoo-label/pkg/audio"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-label/pkg/ledger"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrPrinting       = errors.New("print in progress")
	ErrNothingToRetry = errors.New("no failed print to retry")
	ErrClosed         = errors.New("scan machine closed")
)

const (
	MsgUnknownPrefix       = "Unknown prefix"
	MsgPrinterNotConnected = "Printer not connected"

	noticeLedgerUnavailable = "Ledger offline, print saved locally"
	noticeLedgerFailed      = "Ledger submission failed, print saved locally"
	noticeLedgerDeclined    = "Ledger declined the print job"
)

// Settings supplies the label settings snapshot used for each scan.
type Settings interface {
	LabelSettings() config.LabelSettings
}

// Feedback plays operator sounds. It must not block.
type Feedback interface {
	Play(kind audio.Kind)
}

// Deps are the collaborators of a Machine. History, Counters, Ledger,
// Sounds and Notify are optional.
type Deps struct {
	Settings Settings
	Printer  printer.Transport
	Sounds   Feedback
	History  database.HistoryStore
	Counters database.CounterStore
	Ledger   ledger.Submitter
	Clock    clockwork.Clock
	// Notify receives a snapshot after every change. Sends never block,
	// so a full channel drops notifications.
	Notify        chan<- Notification
	Debounce      time.Duration
	LedgerTimeout time.Duration
	MinLength     int
}

type printJob struct {
	settings  config.LabelSettings
	prefix    string
	labelType string
	left      string
	right     string
}

type Machine struct {
	ctx     context.Context
	timers  [3]clockwork.Timer
	deps    Deps
	cancel  context.CancelFunc
	failed  *printJob
	pending [3]string
	last    [3]string
	session Session
	wg      sync.WaitGroup
	gens    [3]uint64
	mu      syncutil.Mutex
	closed  bool
}

func NewMachine(deps Deps) *Machine {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Debounce <= 0 {
		deps.Debounce = config.DefaultDebounceMs * time.Millisecond
	}
	if deps.MinLength <= 0 {
		deps.MinLength = config.DefaultMinScanLength
	}
	if deps.LedgerTimeout <= 0 {
		deps.LedgerTimeout = config.DefaultLedgerTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Machine{
		deps:    deps,
		ctx:     ctx,
		cancel:  cancel,
		session: newSession(),
	}
}

// Normalize trims surrounding whitespace, including the CR, LF and Tab
// terminators scanners append.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Input records a keystroke-level change to a field and restarts its
// debounce timer. The field completes when the timer fires.
func (m *Machine) Input(field Field, raw string) {
	if !field.valid() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.session.IsPrinting || !m.acceptsLocked(field) {
		return
	}
	m.pending[field] = raw
	m.session.field(field).Value = raw
	m.stopLocked(field)
	gen := m.gens[field]
	m.timers[field] = m.deps.Clock.AfterFunc(m.deps.Debounce, func() {
		m.fire(field, gen)
	})
}

// Terminate completes a field immediately, as when the scanner sends its
// line terminator.
func (m *Machine) Terminate(field Field) {
	if !field.valid() {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.stopLocked(field)
	raw := m.pending[field]
	m.pending[field] = ""
	m.mu.Unlock()

	m.complete(field, raw)
}

// Submit sets a field to value and completes it.
func (m *Machine) Submit(field Field, value string) {
	if !field.valid() {
		return
	}
	m.mu.Lock()
	if m.closed || m.session.IsPrinting || !m.acceptsLocked(field) {
		m.mu.Unlock()
		log.Debug().Stringer("field", field).Str("value", value).Msg("ignoring submit")
		return
	}
	m.stopLocked(field)
	m.pending[field] = ""
	m.session.field(field).Value = value
	m.mu.Unlock()

	m.complete(field, value)
}

// SubmitFocused submits value to the field that currently has focus.
func (m *Machine) SubmitFocused(value string) {
	m.mu.Lock()
	field := m.session.Focus
	m.mu.Unlock()
	m.Submit(field, value)
}

// Clear resets the session. It is refused while a print is in flight.
func (m *Machine) Clear() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.session.IsPrinting {
		m.mu.Unlock()
		return ErrPrinting
	}
	m.resetLocked()
	snap := m.session
	m.mu.Unlock()

	log.Debug().Msg("scan session cleared")
	m.notify(EventCleared, snap)
	return nil
}

// Retry prints the retained pair again after a failed print.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.session.IsPrinting {
		m.mu.Unlock()
		return ErrPrinting
	}
	job := m.failed
	if job == nil {
		m.mu.Unlock()
		return ErrNothingToRetry
	}

	if !m.deps.Printer.IsConnected() {
		m.session.Right.Validation = ValidationError
		m.session.Right.Message = MsgPrinterNotConnected
		snap := m.session
		m.mu.Unlock()
		m.errorEffects().run()
		m.notify(EventUpdated, snap)
		return nil
	}

	m.failed = nil
	job.settings = m.deps.Settings.LabelSettings()
	m.session.IsPrinting = true
	m.session.Right = FieldState{Value: job.right, Validation: ValidationSuccess}
	snap := m.session
	m.mu.Unlock()

	log.Info().Str("left", job.left).Str("right", job.right).Msg("retrying print")
	m.notify(EventUpdated, snap)
	m.print(job)
	return nil
}

// Snapshot returns a copy of the current session.
func (m *Machine) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close stops both debounce timers and waits for background ledger
// submissions to finish.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopLocked(FieldLeft)
	m.stopLocked(FieldRight)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// stopLocked cancels a field's timer. Bumping the generation turns a timer
// that already fired but is waiting on the lock into a no-op.
func (m *Machine) stopLocked(field Field) {
	if t := m.timers[field]; t != nil {
		t.Stop()
		m.timers[field] = nil
	}
	m.gens[field]++
}

func (m *Machine) fire(field Field, gen uint64) {
	m.mu.Lock()
	if m.closed || m.gens[field] != gen {
		m.mu.Unlock()
		return
	}
	m.timers[field] = nil
	m.gens[field]++
	raw := m.pending[field]
	m.pending[field] = ""
	m.wg.Add(1)
	m.mu.Unlock()

	defer m.wg.Done()
	m.complete(field, raw)
}

func (m *Machine) resetLocked() {
	m.stopLocked(FieldLeft)
	m.stopLocked(FieldRight)
	m.session = newSession()
	m.pending = [3]string{}
	m.last = [3]string{}
	m.failed = nil
}

// acceptsLocked reports whether field takes input at the current step. The
// right field waits for an accepted left serial.
func (m *Machine) acceptsLocked(field Field) bool {
	return field == FieldLeft || m.session.Step == 2
}

func (m *Machine) complete(field Field, raw string) {
	value := Normalize(raw)

	m.mu.Lock()
	switch {
	case m.closed, m.session.IsPrinting:
		m.mu.Unlock()
		return
	case !m.acceptsLocked(field):
		m.mu.Unlock()
		log.Debug().Str("value", value).Msg("ignoring right serial before left")
		return
	case utf8.RuneCountInString(value) < m.deps.MinLength:
		m.mu.Unlock()
		return
	case value == m.last[field]:
		m.mu.Unlock()
		log.Debug().Stringer("field", field).Str("value", value).Msg("ignoring duplicate scan")
		return
	}
	m.last[field] = value

	var fx effects
	var job *printJob
	if field == FieldLeft {
		fx = m.processLeftLocked(value)
	} else {
		fx, job = m.processRightLocked(value)
	}
	if job != nil {
		m.session.IsPrinting = true
	}
	snap := m.session
	m.mu.Unlock()

	fx.run()
	m.notify(EventUpdated, snap)
	if job != nil {
		m.print(job)
	}
}

func (m *Machine) processLeftLocked(value string) effects {
	settings := m.deps.Settings.LabelSettings()
	s := &m.session

	m.failed = nil
	m.stopLocked(FieldRight)
	m.pending[FieldRight] = ""
	m.last[FieldRight] = ""
	s.Right = FieldState{Validation: ValidationNone}
	s.Left = FieldState{Value: value}

	mapping, ok := settings.LookupPrefix(value)
	if !ok {
		log.Info().Str("serial", value).Msg("left serial has unknown prefix")
		s.Left.Validation = ValidationError
		s.Left.Message = MsgUnknownPrefix
		s.Step = 1
		s.Focus = FieldLeft
		s.DetectedPrefix = ""
		s.DetectedLabelType = ""
		return m.errorEffects()
	}

	log.Info().
		Str("serial", value).
		Str("prefix", mapping.Prefix).
		Str("labelType", mapping.LabelType).
		Msg("left serial accepted")
	s.Left.Validation = ValidationSuccess
	s.DetectedPrefix = mapping.Prefix
	s.DetectedLabelType = mapping.LabelType
	s.Step = 2
	s.Focus = FieldRight
	return m.scanEffects(mapping)
}

func (m *Machine) processRightLocked(value string) (effects, *printJob) {
	settings := m.deps.Settings.LabelSettings()
	s := &m.session
	s.Right = FieldState{Value: value}

	mapping, ok := settings.LookupPrefix(value)
	var msg string
	switch {
	case !ok:
		msg = MsgUnknownPrefix
	case mapping.LabelType != s.DetectedLabelType:
		msg = fmt.Sprintf("Label type mismatch: expected %s, got %s",
			settings.DisplayName(s.DetectedLabelType), settings.DisplayName(mapping.LabelType))
	case !m.deps.Printer.IsConnected():
		msg = MsgPrinterNotConnected
		// the serial itself was fine, rescanning it must retry
		m.last[FieldRight] = ""
	}
	if msg != "" {
		log.Info().Str("serial", value).Str("reason", msg).Msg("right serial rejected")
		s.Right.Validation = ValidationError
		s.Right.Message = msg
		return m.errorEffects(), nil
	}

	log.Info().Str("serial", value).Msg("right serial accepted")
	s.Right.Validation = ValidationSuccess
	return m.scanEffects(mapping), &printJob{
		settings:  settings,
		prefix:    s.DetectedPrefix,
		labelType: s.DetectedLabelType,
		left:      s.Left.Value,
		right:     value,
	}
}

func (m *Machine) notify(event Event, snap Session) {
	if m.deps.Notify == nil {
		return
	}
	select {
	case m.deps.Notify <- Notification{Event: event, Session: snap}:
	default:
		log.Debug().Str("event", string(event)).Msg("session notification dropped")
	}
}
