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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/serialport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakeDevicePath creates a file so IsConnected sees the device.
func fakeDevicePath(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	return p
}

func newMockSerial(t *testing.T, port *serialport.MockPort) (*SerialTransport, *serial.Mode) {
	t.Helper()
	var gotMode serial.Mode
	tr := NewSerialTransport(fakeDevicePath(t, "ttyACM0"), 9600, time.Second)
	tr.portFactory = func(_ string, mode *serial.Mode) (serialport.Port, error) {
		gotMode = *mode
		return port, nil
	}
	return tr, &gotMode
}

func TestSerialTransport_SendDocument(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	tr, mode := newMockSerial(t, port)

	doc := "! 0 200 200 240 1\r\nPRINT\r\n"
	require.NoError(t, tr.SendDocument(context.Background(), doc))

	assert.Equal(t, doc, port.Written())
	assert.True(t, port.IsClosed())
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
}

func TestSerialTransport_Chunking(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.WriteLimit = 7
	tr, _ := newMockSerial(t, port)
	tr.chunkSize = 16

	doc := strings.Repeat("BARCODE 128 1 0 48 16 44 SSV0001\r\n", 20)
	require.NoError(t, tr.SendDocument(context.Background(), doc))
	assert.Equal(t, doc, port.Written())
}

func TestSerialTransport_Errors(t *testing.T) {
	t.Parallel()

	t.Run("write error", func(t *testing.T) {
		t.Parallel()
		port := serialport.NewMockPort()
		port.WriteError = errors.New("EIO")
		tr, _ := newMockSerial(t, port)

		err := tr.SendDocument(context.Background(), "PRINT\r\n")
		require.ErrorIs(t, err, ErrWriteFailed)
		assert.True(t, port.IsClosed())
	})

	t.Run("drain error", func(t *testing.T) {
		t.Parallel()
		port := serialport.NewMockPort()
		port.DrainError = errors.New("drain")
		tr, _ := newMockSerial(t, port)

		err := tr.SendDocument(context.Background(), "PRINT\r\n")
		require.ErrorIs(t, err, ErrWriteFailed)
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "drain", pe.Op)
	})

	t.Run("open error", func(t *testing.T) {
		t.Parallel()
		tr := NewSerialTransport(fakeDevicePath(t, "ttyUSB0"), 0, 0)
		tr.portFactory = func(string, *serial.Mode) (serialport.Port, error) {
			return nil, errors.New("permission denied")
		}

		err := tr.SendDocument(context.Background(), "PRINT\r\n")
		require.ErrorIs(t, err, ErrNotConnected)
		assert.Equal(t, "Printer not connected", UserMessage(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		port := serialport.NewMockPort()
		tr, _ := newMockSerial(t, port)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := tr.SendDocument(ctx, "PRINT\r\n")
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, port.Written())
	})
}

func TestSerialTransport_NotConnected(t *testing.T) {
	t.Parallel()

	tr := NewSerialTransport(filepath.Join(t.TempDir(), "missing"), 0, 0)
	if tr.IsConnected() {
		t.Skip("serial presence is not checked on this platform")
	}

	opened := false
	tr.portFactory = func(string, *serial.Mode) (serialport.Port, error) {
		opened = true
		return serialport.NewMockPort(), nil
	}

	err := tr.SendDocument(context.Background(), "PRINT\r\n")
	require.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, opened)
	assert.False(t, NewSerialTransport("", 0, 0).IsConnected())
}

func TestSerialTransport_String(t *testing.T) {
	t.Parallel()

	tr := NewSerialTransport("/dev/ttyACM1", 0, 0)
	assert.Equal(t, "serial:/dev/ttyACM1", tr.String())
	assert.Equal(t, "/dev/ttyACM1", tr.Path())
}
