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

// Package rs232barcode reads line-terminated barcodes from serial and
// USB-CDC scanners.
package rs232barcode

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers"
	"github.com/ZaparooProject/zaparoo-label/pkg/serialport"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// maxBufferSize bounds one line; serial numbers are far shorter.
const maxBufferSize = 1024

const (
	DriverID        = "rs232barcode"
	defaultBaudRate = 9600
	readTimeout     = 100 * time.Millisecond
)

type Reader struct {
	port        serialport.Port
	portFactory serialport.Factory
	clock       clockwork.Clock
	done        chan struct{}
	device      config.ReadersConnect
	path        string
	polling     bool
	mu          syncutil.RWMutex // protects polling
}

func NewReader() *Reader {
	return &Reader{
		portFactory: serialport.DefaultFactory,
		clock:       clockwork.NewRealClock(),
	}
}

func (*Reader) Metadata() readers.DriverMetadata {
	return readers.DriverMetadata{
		ID:          DriverID,
		Description: "RS232 and USB serial barcode scanner",
	}
}

func (*Reader) IDs() []string {
	return []string{DriverID, "rs232_barcode", "serial_scanner"}
}

// parseLine strips whitespace and the STX/ETX framing some scanners in POS
// mode add. An empty result means there was nothing to scan.
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "\x02")
	line = strings.TrimSuffix(line, "\x03")
	return strings.TrimSpace(line)
}

func (r *Reader) Open(device config.ReadersConnect, scans chan<- readers.Scan) error {
	if !slices.Contains(r.IDs(), device.Driver) {
		return errors.New("invalid reader id: " + device.Driver)
	}

	path := device.Path
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to stat device path %s: %w", path, err)
		}
	}

	baud := device.BaudRate
	if baud <= 0 {
		baud = defaultBaudRate
	}

	log.Debug().Str("path", path).Int("baud", baud).Msg("opening barcode scanner")
	port, err := r.portFactory(path, serialport.Mode8N1(baud))
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		if closeErr := port.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close serial port")
		}
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.port = port
	r.device = device
	r.path = path
	r.polling = true
	r.done = done
	r.mu.Unlock()

	log.Info().Str("path", path).Msg("opened barcode scanner")
	go r.poll(port, scans, done)
	return nil
}

func (r *Reader) poll(port serialport.Port, scans chan<- readers.Scan, done <-chan struct{}) {
	buf := make([]byte, 256)
	var lineBuf []byte
	overflowed := false
	source := r.Device()

	for {
		r.mu.RLock()
		polling := r.polling
		r.mu.RUnlock()
		if !polling {
			return
		}

		n, err := port.Read(buf)
		for _, b := range buf[:n] {
			// some scanners terminate with \r only
			if b == '\n' || b == '\r' {
				if !overflowed && len(lineBuf) > 0 {
					if value := parseLine(string(lineBuf)); value != "" {
						log.Debug().Str("value", value).Msg("barcode scanned")
						select {
						case scans <- readers.Scan{Source: source, Value: value, Time: r.clock.Now()}:
						case <-done:
							log.Debug().Str("value", value).Msg("reader closed, dropping scan")
							return
						}
					}
				}
				overflowed = false
				lineBuf = lineBuf[:0]
				continue
			}
			if overflowed {
				continue
			}
			if len(lineBuf) >= maxBufferSize {
				log.Warn().Str("path", r.path).Msg("line too long, discarding until next terminator")
				lineBuf = lineBuf[:0]
				overflowed = true
				continue
			}
			lineBuf = append(lineBuf, b)
		}

		if err != nil {
			r.mu.RLock()
			polling = r.polling
			r.mu.RUnlock()
			if polling {
				log.Error().Err(err).Str("path", r.path).Msg("failed to read from barcode scanner")
			}
			if closeErr := r.Close(); closeErr != nil {
				log.Debug().Err(closeErr).Msg("failed to close barcode scanner")
			}
			return
		}
	}
}

func (r *Reader) Close() error {
	r.mu.Lock()
	wasPolling := r.polling
	r.polling = false
	port := r.port
	done := r.done
	r.done = nil
	r.mu.Unlock()
	if done != nil {
		close(done)
	}
	if port != nil && wasPolling {
		if err := port.Close(); err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}

func (r *Reader) Device() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device.ConnectionString()
}

func (r *Reader) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.polling && r.port != nil
}

func (r *Reader) Info() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}
