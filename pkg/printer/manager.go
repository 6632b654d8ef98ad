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

package printer

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// driverTransport is a Transport bound to one device path.
type driverTransport interface {
	Transport
	Path() string
	String() string
}

// Manager is the Transport used by the print flow. It builds the concrete
// transport from the printer config and, for the auto driver, rediscovers
// the printer whenever the current one disappears.
type Manager struct {
	cfg        *config.Instance
	current    driverTransport
	findUSBLP  func() ([]Device, error)
	findSerial func() ([]helpers.SerialDevice, error)
	mu         syncutil.Mutex
}

func NewManager(cfg *config.Instance) *Manager {
	return &Manager{
		cfg:        cfg,
		findUSBLP:  FindUSBLPPrinters,
		findSerial: helpers.SerialDeviceList,
	}
}

// IsConnected reports whether a printer is currently reachable.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.resolveLocked()
	return err == nil && t.IsConnected()
}

func (m *Manager) SendDocument(ctx context.Context, text string) error {
	m.mu.Lock()
	t, err := m.resolveLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	log.Info().Str("printer", t.String()).Int("bytes", len(text)).Msg("sending document")
	if err := t.SendDocument(ctx, text); err != nil {
		m.mu.Lock()
		if m.current == t {
			// force rediscovery on the next attempt
			m.current = nil
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// Current returns the printer the next document will go to, if any.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.resolveLocked()
	if err != nil {
		return "", false
	}
	return t.String(), true
}

// Reset drops the cached printer, for example after a config change.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

func (m *Manager) resolveLocked() (driverTransport, error) {
	if m.current != nil && m.current.IsConnected() {
		return m.current, nil
	}

	p := m.cfg.Printer()
	timeout := m.cfg.PrinterWriteTimeout()
	baud := m.cfg.PrinterBaudRate()

	var t driverTransport
	switch p.Driver {
	case config.PrinterDriverUSBLP:
		path := p.Path
		if path == "" {
			d, err := m.discoverUSBLP(p.VendorID)
			if err != nil {
				return nil, err
			}
			path = d.Path
		}
		t = m.usblp(path, timeout, p.ChunkSize)
	case config.PrinterDriverSerial:
		path := p.Path
		if path == "" {
			d, err := m.discoverSerial(p.VendorID)
			if err != nil {
				return nil, err
			}
			path = d.Path
		}
		t = m.serial(path, baud, timeout, p.ChunkSize)
	case config.PrinterDriverAuto, "":
		if d, err := m.discoverUSBLP(p.VendorID); err == nil {
			t = m.usblp(d.Path, timeout, p.ChunkSize)
		} else if sd, err := m.discoverSerial(p.VendorID); err == nil {
			t = m.serial(sd.Path, baud, timeout, p.ChunkSize)
		} else {
			return nil, newError(ErrNoPrinter, "discover", "", nil)
		}
	default:
		return nil, newError(ErrNotConnected, "open", p.Driver, fmt.Errorf("unknown printer driver %q", p.Driver))
	}

	if m.current == nil || m.current.String() != t.String() {
		log.Info().Str("printer", t.String()).Msg("printer selected")
	}
	m.current = t
	return t, nil
}

func (*Manager) usblp(path string, timeout time.Duration, chunk int) driverTransport {
	t := NewUSBLPTransport(path, timeout)
	if chunk > 0 {
		t.chunkSize = chunk
	}
	return t
}

func (*Manager) serial(path string, baud int, timeout time.Duration, chunk int) driverTransport {
	t := NewSerialTransport(path, baud, timeout)
	if chunk > 0 {
		t.chunkSize = chunk
	}
	return t
}

func (m *Manager) discoverUSBLP(vendorID string) (Device, error) {
	devices, err := m.findUSBLP()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if vendorID != "" && d.VendorID != vendorID {
			continue
		}
		if !d.SupportsCPCL() {
			log.Debug().Str("path", d.Path).Strs("commands", d.Commands).Msg("skipping non-CPCL printer")
			continue
		}
		return d, nil
	}
	return Device{}, newError(ErrNoPrinter, "discover", config.PrinterDriverUSBLP, nil)
}

func (m *Manager) discoverSerial(vendorID string) (helpers.SerialDevice, error) {
	devices, err := m.findSerial()
	if err != nil {
		return helpers.SerialDevice{}, fmt.Errorf("serial discovery: %w", err)
	}
	for _, d := range devices {
		if vendorID != "" && d.VID != vendorID {
			continue
		}
		if vendorID == "" && d.VID != zebraVendorID {
			// without a configured vendor only known printer vendors are
			// picked, so a barcode scanner on ttyACM0 is left alone
			continue
		}
		return d, nil
	}
	return helpers.SerialDevice{}, newError(ErrNoPrinter, "discover", config.PrinterDriverSerial, nil)
}

// Discover lists every printer candidate for the printers command.
func (m *Manager) Discover() ([]Device, error) {
	devices, err := m.findUSBLP()
	if err != nil {
		return nil, err
	}
	serials, err := m.findSerial()
	if err != nil {
		log.Warn().Err(err).Msg("serial discovery failed")
	}
	for _, s := range serials {
		devices = append(devices, Device{
			Driver:    config.PrinterDriverSerial,
			Path:      s.Path,
			VendorID:  s.VID,
			ProductID: s.PID,
			Product:   s.Product,
			Serial:    s.SerialNumber,
		})
	}
	return devices, nil
}
