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

package readers

import (
	"context"
	"slices"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ReconnectInterval is how often configured but disconnected scanners are
// reopened.
const ReconnectInterval = 3 * time.Second

// Driver builds a fresh, unopened reader.
type Driver func() Reader

// Manager keeps the scanners listed in readers.connect open and forwards
// their scans.
type Manager struct {
	cfg     *config.Instance
	clock   clockwork.Clock
	open    map[string]Reader
	failed  map[string]bool
	drivers []Driver
}

func NewManager(cfg *config.Instance, drivers ...Driver) *Manager {
	return &Manager{
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		drivers: drivers,
		open:    make(map[string]Reader),
		failed:  make(map[string]bool),
	}
}

// Run connects readers and calls sink for every scan until ctx is done.
func (m *Manager) Run(ctx context.Context, sink func(Scan)) error {
	scans := make(chan Scan, 16)
	ticker := m.clock.NewTicker(ReconnectInterval)
	defer ticker.Stop()

	m.connect(scans)
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case scan := <-scans:
			log.Info().Str("source", scan.Source).Str("value", scan.Value).Msg("scan received")
			sink(scan)
		case <-ticker.Chan():
			m.connect(scans)
		}
	}
}

func (m *Manager) driverFor(name string) Driver {
	for _, d := range m.drivers {
		if slices.Contains(d().IDs(), name) {
			return d
		}
	}
	return nil
}

func (m *Manager) connect(scans chan<- Scan) {
	for _, device := range m.cfg.ReadersConnect() {
		key := device.ConnectionString()
		if r, ok := m.open[key]; ok {
			if r.Connected() {
				continue
			}
			log.Info().Str("device", key).Msg("scanner disconnected")
			delete(m.open, key)
		}

		driver := m.driverFor(device.Driver)
		if driver == nil {
			if !m.failed[key] {
				log.Warn().Str("driver", device.Driver).Msg("unknown scanner driver")
				m.failed[key] = true
			}
			continue
		}

		r := driver()
		if err := r.Open(device, scans); err != nil {
			// only the first failure is logged, retries are routine
			if !m.failed[key] {
				log.Warn().Err(err).Str("device", key).Msg("failed to open scanner")
				m.failed[key] = true
			}
			continue
		}
		delete(m.failed, key)
		m.open[key] = r
	}
}

func (m *Manager) closeAll() {
	for key, r := range m.open {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Str("device", key).Msg("failed to close scanner")
		}
		delete(m.open, key)
	}
}

// Connected lists the connection strings of open readers. Only safe to call
// from the sink or after Run returns.
func (m *Manager) Connected() []string {
	out := make([]string, 0, len(m.open))
	for key, r := range m.open {
		if r.Connected() {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}
