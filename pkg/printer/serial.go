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
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/serialport"
	"github.com/rs/zerolog/log"
)

// SerialTransport prints over a USB CDC or RS232 serial port. The port is
// opened per document so an unplugged printer is noticed on the next job.
type SerialTransport struct {
	portFactory serialport.Factory
	path        string
	baudRate    int
	chunkSize   int
	timeout     time.Duration
}

func NewSerialTransport(path string, baudRate int, timeout time.Duration) *SerialTransport {
	if baudRate <= 0 {
		baudRate = config.DefaultPrinterBaudRate
	}
	if timeout <= 0 {
		timeout = config.DefaultPrinterTimeout
	}
	return &SerialTransport{
		portFactory: serialport.DefaultFactory,
		path:        path,
		baudRate:    baudRate,
		chunkSize:   DefaultChunkSize,
		timeout:     timeout,
	}
}

func (t *SerialTransport) Path() string {
	return t.path
}

func (t *SerialTransport) IsConnected() bool {
	if t.path == "" {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	_, err := os.Stat(t.path)
	return err == nil
}

func (t *SerialTransport) SendDocument(ctx context.Context, text string) error {
	if !t.IsConnected() {
		return newError(ErrNotConnected, "open", t.path, nil)
	}

	port, err := t.portFactory(t.path, serialport.Mode8N1(t.baudRate))
	if err != nil {
		return newError(ErrNotConnected, "open", t.path, err)
	}
	defer func() {
		if closeErr := port.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", t.path).Msg("failed to close printer port")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	payload := []byte(text)
	for off := 0; off < len(payload); {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return newError(ErrTimeout, "write", t.path, err)
			}
			return newError(ErrWriteFailed, "write", t.path, err)
		}
		end := min(off+t.chunkSize, len(payload))
		n, err := port.Write(payload[off:end])
		if err != nil {
			return newError(ErrWriteFailed, "write", t.path, err)
		}
		if n == 0 {
			return newError(ErrWriteFailed, "write", t.path, errors.New("short write"))
		}
		off += n
	}

	if err := port.Drain(); err != nil {
		return newError(ErrWriteFailed, "drain", t.path, err)
	}

	log.Debug().
		Str("path", t.path).
		Int("bytes", len(payload)).
		Msg("document sent to serial printer")
	return nil
}

func (t *SerialTransport) String() string {
	return fmt.Sprintf("%s:%s", config.PrinterDriverSerial, t.path)
}
