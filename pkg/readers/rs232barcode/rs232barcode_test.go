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

package rs232barcode

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers"
	"github.com/ZaparooProject/zaparoo-label/pkg/serialport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func devicePath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ttyACM0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func newTestReader(port *serialport.MockPort) (*Reader, *int) {
	reader := NewReader()
	baud := new(int)
	reader.portFactory = func(_ string, mode *serial.Mode) (serialport.Port, error) {
		*baud = mode.BaudRate
		return port, nil
	}
	return reader, baud
}

func waitScan(t *testing.T, scans <-chan readers.Scan) readers.Scan {
	t.Helper()
	select {
	case s := <-scans:
		return s
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for scan")
		return readers.Scan{}
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	reader := NewReader()
	assert.Equal(t, DriverID, reader.Metadata().ID)
	assert.Contains(t, reader.IDs(), "serial_scanner")
	assert.False(t, reader.Connected())
}

func TestOpen_InvalidDriver(t *testing.T) {
	t.Parallel()

	reader, _ := newTestReader(serialport.NewMockPort())
	err := reader.Open(config.ReadersConnect{Driver: "pn532", Path: devicePath(t)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reader id")
}

func TestOpen_MissingDevice(t *testing.T) {
	t.Parallel()

	reader, _ := newTestReader(serialport.NewMockPort())
	err := reader.Open(config.ReadersConnect{
		Driver: DriverID,
		Path:   filepath.Join(t.TempDir(), "missing"),
	}, nil)
	require.Error(t, err)
	assert.False(t, reader.Connected())
}

func TestOpen_FactoryError(t *testing.T) {
	t.Parallel()

	reader := NewReader()
	reader.portFactory = func(string, *serial.Mode) (serialport.Port, error) {
		return nil, errors.New("busy")
	}
	err := reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, nil)
	require.ErrorContains(t, err, "busy")
}

func TestOpen_ReadTimeoutError(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.TimeoutErr = errors.New("unsupported")
	reader, _ := newTestReader(port)

	err := reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, nil)
	require.ErrorContains(t, err, "read timeout")
	assert.True(t, port.IsClosed())
	assert.False(t, reader.Connected())
}

func TestOpen_BaudRate(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	reader, baud := newTestReader(port)
	scans := make(chan readers.Scan, 1)
	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, scans))
	assert.Equal(t, defaultBaudRate, *baud)
	require.NoError(t, reader.Close())

	port = serialport.NewMockPort()
	reader, baud = newTestReader(port)
	require.NoError(t, reader.Open(config.ReadersConnect{
		Driver:   DriverID,
		Path:     devicePath(t),
		BaudRate: 115200,
	}, scans))
	assert.Equal(t, 115200, *baud)
	require.NoError(t, reader.Close())
}

func TestPoll_Scan(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.ReadData = []byte("SSV0001\r\n")
	reader, _ := newTestReader(port)
	path := devicePath(t)
	scans := make(chan readers.Scan, 4)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: path}, scans))
	t.Cleanup(func() { _ = reader.Close() })

	s := waitScan(t, scans)
	assert.Equal(t, "SSV0001", s.Value)
	assert.Equal(t, DriverID+":"+path, s.Source)
	assert.False(t, s.Time.IsZero())
	assert.True(t, reader.Connected())
	assert.Equal(t, path, reader.Info())
}

func TestPoll_MultipleAndFramed(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.ReadData = []byte("\x02SSV0001\x03\r\n\r\nSSV0002\rABC9\n")
	reader, _ := newTestReader(port)
	scans := make(chan readers.Scan, 4)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, scans))
	t.Cleanup(func() { _ = reader.Close() })

	assert.Equal(t, "SSV0001", waitScan(t, scans).Value)
	assert.Equal(t, "SSV0002", waitScan(t, scans).Value)
	assert.Equal(t, "ABC9", waitScan(t, scans).Value)
}

func TestPoll_SplitReads(t *testing.T) {
	t.Parallel()

	chunks := []string{"SS", "V00", "01", "\n"}
	calls := 0
	port := serialport.NewMockPort()
	port.ReadFunc = func(p []byte) (int, error) {
		if calls >= len(chunks) {
			time.Sleep(5 * time.Millisecond)
			return 0, nil
		}
		n := copy(p, chunks[calls])
		calls++
		return n, nil
	}
	reader, _ := newTestReader(port)
	scans := make(chan readers.Scan, 1)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, scans))
	t.Cleanup(func() { _ = reader.Close() })

	assert.Equal(t, "SSV0001", waitScan(t, scans).Value)
}

func TestPoll_OverflowDiscardsLine(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.ReadData = []byte(strings.Repeat("X", maxBufferSize+10) + "\nSSV0001\n")
	reader, _ := newTestReader(port)
	scans := make(chan readers.Scan, 2)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, scans))
	t.Cleanup(func() { _ = reader.Close() })

	assert.Equal(t, "SSV0001", waitScan(t, scans).Value)
}

func TestPoll_ReadErrorCloses(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.ReadError = errors.New("device unplugged")
	reader, _ := newTestReader(port)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, nil))
	require.Eventually(t, func() bool { return !reader.Connected() }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, port.IsClosed())
	require.NoError(t, reader.Close())
}

// Not parallel: goleak checks this test's goroutines only.
func TestClose_UnblocksUndeliveredScan(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var delivered atomic.Bool
	port := serialport.NewMockPort()
	port.ReadFunc = func(p []byte) (int, error) {
		if delivered.CompareAndSwap(false, true) {
			return copy(p, "SSV0001\n"), nil
		}
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	reader, _ := newTestReader(port)
	// nobody reads this channel, as after the manager stops
	scans := make(chan readers.Scan)

	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, scans))
	require.Eventually(t, delivered.Load, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, reader.Close())
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	port := serialport.NewMockPort()
	port.CloseError = errors.New("already gone")
	reader, _ := newTestReader(port)

	require.NoError(t, reader.Close())
	require.NoError(t, reader.Open(config.ReadersConnect{Driver: DriverID, Path: devicePath(t)}, nil))
	require.ErrorContains(t, reader.Close(), "already gone")
	require.NoError(t, reader.Close())
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SSV0001", "SSV0001"},
		{"whitespace", "  SSV0001\t", "SSV0001"},
		{"framed", "\x02SSV0001\x03", "SSV0001"},
		{"framed with spaces", " \x02 SSV0001 \x03 ", "SSV0001"},
		{"stx only", "\x02SSV0001", "SSV0001"},
		{"empty", "", ""},
		{"framing only", "\x02\x03", ""},
		{"inner control kept", "A\x02B", "A\x02B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseLine(tt.in))
		})
	}
}
