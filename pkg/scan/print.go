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

import (
	"context"

	"github.com/ZaparooProject/zaparoo-label/pkg/audio"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/cpcl"
	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/ZaparooProject/zaparoo-label/pkg/ledger"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/rs/zerolog/log"
)

// effects are side effects collected under the lock and run after it is
// released, in order.
type effects []func()

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}

func (m *Machine) sound(kind audio.Kind) func() {
	return func() {
		if m.deps.Sounds != nil {
			m.deps.Sounds.Play(kind)
		}
	}
}

func (m *Machine) count(name string, op func(database.CounterStore) error) func() {
	return func() {
		if m.deps.Counters == nil {
			return
		}
		if err := op(m.deps.Counters); err != nil {
			log.Error().Err(err).Str("counter", name).Msg("failed to increment counter")
		}
	}
}

func (m *Machine) errorEffects() effects {
	return effects{
		m.sound(audio.KindError),
		m.count("errors", database.CounterStore.IncrementError),
	}
}

func (m *Machine) scanEffects(mapping config.PrefixMapping) effects {
	return effects{
		m.sound(audio.KindSuccess),
		m.count("scans", database.CounterStore.IncrementScan),
		m.count(mapping.TypeKey(), func(c database.CounterStore) error {
			return c.IncrementTypeScan(mapping.Prefix, mapping.LabelType)
		}),
	}
}

// print runs with IsPrinting set and the lock released, so inputs arriving
// meanwhile are dropped rather than queued.
func (m *Machine) print(job *printJob) {
	doc := cpcl.Generate(job.settings, job.left, job.right)
	for _, w := range doc.Warnings {
		log.Warn().Str("left", job.left).Str("right", job.right).Msg(w)
	}

	if err := m.deps.Printer.SendDocument(m.ctx, doc.Text); err != nil {
		m.printFailed(job, err)
		return
	}
	m.printSucceeded(job, doc)
}

func (m *Machine) printFailed(job *printJob, err error) {
	log.Error().Err(err).
		Str("left", job.left).
		Str("right", job.right).
		Msg("print failed")

	m.mu.Lock()
	m.session.IsPrinting = false
	m.session.Right.Validation = ValidationError
	m.session.Right.Message = printer.UserMessage(err)
	m.last[FieldRight] = ""
	m.failed = job
	snap := m.session
	m.mu.Unlock()

	m.errorEffects().run()
	m.notify(EventPrintFailed, snap)
}

func (m *Machine) printSucceeded(job *printJob, doc cpcl.Document) {
	if m.deps.History != nil {
		entry := &database.PrintEntry{
			Time:        m.deps.Clock.Now(),
			Prefix:      job.prefix,
			LeftSerial:  job.left,
			RightSerial: job.right,
			LabelType:   job.labelType,
			CPCLText:    doc.Text,
			Success:     true,
		}
		if err := m.deps.History.RecordPrint(entry); err != nil {
			log.Error().Err(err).Msg("failed to record print history")
		}
	}
	effects{
		m.count("prints", database.CounterStore.IncrementPrint),
		m.count(config.TypeKey(job.prefix, job.labelType), func(c database.CounterStore) error {
			return c.IncrementTypePrint(job.prefix, job.labelType)
		}),
		m.sound(audio.KindPrintComplete),
	}.run()

	log.Info().
		Str("left", job.left).
		Str("right", job.right).
		Str("labelType", job.labelType).
		Msg("label printed")

	m.mu.Lock()
	m.resetLocked()
	submit := m.deps.Ledger != nil && !m.closed
	if submit {
		m.wg.Add(1)
	}
	snap := m.session
	m.mu.Unlock()

	m.notify(EventPrinted, snap)
	if submit {
		go m.submitLedger(job)
	}
}

// submitLedger is best effort. Its outcome only ever sets a notice.
func (m *Machine) submitLedger(job *printJob) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.ctx, m.deps.LedgerTimeout)
	defer cancel()

	accepted, err := m.deps.Ledger.SubmitPrintJob(ctx, job.prefix, job.left, job.right)
	var notice string
	switch {
	case err == nil && accepted:
		log.Info().Str("left", job.left).Str("right", job.right).Msg("print job submitted to ledger")
		return
	case err == nil:
		log.Warn().Str("left", job.left).Str("right", job.right).Msg("ledger declined print job")
		notice = noticeLedgerDeclined
	case ledger.IsServiceUnavailable(err):
		log.Info().Err(err).Msg("ledger unavailable, continuing locally")
		notice = noticeLedgerUnavailable
	default:
		log.Warn().Err(err).Msg("ledger submission failed")
		notice = noticeLedgerFailed
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.session.Notice = notice
	snap := m.session
	m.mu.Unlock()
	m.notify(EventNotice, snap)
}
