//go:build linux

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
	"time"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// lpiocGetDeviceID is _IOC(_IOC_READ, 'P', 1, 1024) from linux/usb/usblp.
const (
	deviceIDBufSize   = 1024
	lpiocGetDeviceID  = 2<<30 | deviceIDBufSize<<16 | 'P'<<8 | 1
	deviceIDLenPrefix = 2
)

func writeDevice(ctx context.Context, path string, payload []byte, chunkSize int, deadline time.Time) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return newError(ErrNotConnected, "open", path, err)
	}
	defer func() {
		if closeErr := unix.Close(fd); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("failed to close printer device")
		}
	}()

	if err := writeNonBlocking(ctx, fd, payload, chunkSize, deadline); err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Device = path
			return pe
		}
		return newError(ErrWriteFailed, "write", path, err)
	}

	log.Debug().Str("path", path).Int("bytes", len(payload)).Msg("document sent to usblp printer")
	return nil
}

// writeNonBlocking writes payload in chunks, retrying while the driver
// reports EAGAIN until the deadline passes.
func writeNonBlocking(ctx context.Context, fd int, payload []byte, chunkSize int, deadline time.Time) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	off := 0
	for off < len(payload) {
		if err := ctx.Err(); err != nil {
			return newError(ErrWriteFailed, "write", "", err)
		}
		end := min(off+chunkSize, len(payload))
		n, err := unix.Write(fd, payload[off:end])
		if n > 0 {
			off += n
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				if time.Now().After(deadline) {
					return newError(ErrTimeout, "write", "", err)
				}
				time.Sleep(writeRetryDelay)
				continue
			}
			if errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENOENT) {
				return newError(ErrNotConnected, "write", "", err)
			}
			return newError(ErrWriteFailed, "write", "", err)
		}
		if n == 0 {
			if time.Now().After(deadline) {
				return newError(ErrTimeout, "write", "", nil)
			}
			time.Sleep(writeRetryDelay)
		}
	}
	return nil
}

// fillDeviceID reads the IEEE 1284 id through the usblp ioctl. Devices
// that are busy or refuse the ioctl keep their sysfs identity.
func fillDeviceID(d *Device) {
	fd, err := unix.Open(d.Path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return
	}
	defer func() { _ = unix.Close(fd) }()

	var buf [deviceIDBufSize]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), lpiocGetDeviceID, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		log.Debug().Str("path", d.Path).Err(errno).Msg("usblp device id ioctl failed")
		return
	}

	length := int(buf[0])<<8 | int(buf[1])
	if length < deviceIDLenPrefix {
		return
	}
	// the length includes its own two bytes
	end := min(length, len(buf))
	id := parseDeviceID(string(buf[deviceIDLenPrefix:end]))

	if d.Manufacturer == "" {
		d.Manufacturer = id.first("MANUFACTURER", "MFG")
	}
	if d.Product == "" {
		d.Product = id.first("MODEL", "MDL")
	}
	d.Commands = id.commands()
}
