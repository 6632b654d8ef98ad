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

package helpers

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

// SerialDevice is a USB serial port with its USB identifiers, lowercased.
type SerialDevice struct {
	Path         string
	VID          string
	PID          string
	Product      string
	SerialNumber string
}

type serialID struct {
	Vid string
	Pid string
}

// ignoreDevices are USB serial adapters known not to be printers or
// scanners, such as debug consoles on dev boards.
var ignoreDevices = []serialID{
	// Raspberry Pi Pico debug probe
	{Vid: "2e8a", Pid: "000c"},
	// Segger J-Link CDC
	{Vid: "1366", Pid: "0105"},
}

var portLister = enumerator.GetDetailedPortsList

func ignoreSerialDevice(d SerialDevice) bool {
	for _, v := range ignoreDevices {
		if d.VID == v.Vid && d.PID == v.Pid {
			return true
		}
	}
	return false
}

func isUSBSerialPath(path string) bool {
	switch runtime.GOOS {
	case "linux":
		return strings.HasPrefix(path, "/dev/ttyUSB") || strings.HasPrefix(path, "/dev/ttyACM")
	case "darwin":
		return strings.HasPrefix(path, "/dev/tty.usb") || strings.HasPrefix(path, "/dev/cu.usb")
	case "windows":
		return strings.HasPrefix(path, "COM")
	default:
		return true
	}
}

// SerialDeviceList returns every attached USB serial port that is not on
// the ignore list.
func SerialDeviceList() ([]SerialDevice, error) {
	ports, err := portLister()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}

	devices := make([]SerialDevice, 0, len(ports))
	for _, p := range ports {
		if p == nil || !p.IsUSB || !isUSBSerialPath(p.Name) {
			continue
		}
		d := SerialDevice{
			Path:         p.Name,
			VID:          strings.ToLower(p.VID),
			PID:          strings.ToLower(p.PID),
			Product:      p.Product,
			SerialNumber: p.SerialNumber,
		}
		if ignoreSerialDevice(d) {
			log.Debug().Str("path", d.Path).Msg("ignoring serial device")
			continue
		}
		devices = append(devices, d)
	}

	return devices, nil
}
