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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
)

// DefaultChunkSize is the largest single write handed to the driver.
const DefaultChunkSize = 4096

const writeRetryDelay = 20 * time.Millisecond

var (
	usblpGlob    = "/dev/usb/lp[0-9]*"
	usbmiscClass = "/sys/class/usbmisc"
)

// zebraVendorID is preferred when several printers are attached.
const zebraVendorID = "0a5f"

// USBLPTransport writes raw documents to a /dev/usb/lpN character device,
// which the kernel forwards to the printer's bulk-OUT endpoint.
type USBLPTransport struct {
	path      string
	chunkSize int
	timeout   time.Duration
}

func NewUSBLPTransport(path string, timeout time.Duration) *USBLPTransport {
	if timeout <= 0 {
		timeout = config.DefaultPrinterTimeout
	}
	return &USBLPTransport{path: path, chunkSize: DefaultChunkSize, timeout: timeout}
}

func (t *USBLPTransport) Path() string {
	return t.path
}

func (t *USBLPTransport) IsConnected() bool {
	if t.path == "" {
		return false
	}
	_, err := os.Stat(t.path)
	return err == nil
}

func (t *USBLPTransport) SendDocument(ctx context.Context, text string) error {
	if !t.IsConnected() {
		return newError(ErrNotConnected, "open", t.path, nil)
	}
	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return writeDevice(ctx, t.path, []byte(text), t.chunkSize, deadline)
}

func (t *USBLPTransport) String() string {
	return fmt.Sprintf("%s:%s", config.PrinterDriverUSBLP, t.path)
}

// FindUSBLPPrinters lists usblp devices with their USB identity from
// sysfs. Printers reporting a Zebra vendor id sort first.
func FindUSBLPPrinters() ([]Device, error) {
	paths, err := filepath.Glob(usblpGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to glob usblp devices: %w", err)
	}

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		d := Device{Driver: config.PrinterDriverUSBLP, Path: p}
		fillSysfs(&d)
		fillDeviceID(&d)
		devices = append(devices, d)
	}

	sort.SliceStable(devices, func(i, j int) bool {
		zi := devices[i].VendorID == zebraVendorID
		zj := devices[j].VendorID == zebraVendorID
		if zi != zj {
			return zi
		}
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}

func fillSysfs(d *Device) {
	iface, err := filepath.EvalSymlinks(filepath.Join(usbmiscClass, filepath.Base(d.Path), "device"))
	if err != nil {
		return
	}
	usbDev := filepath.Dir(iface)
	d.VendorID = strings.ToLower(readTrim(filepath.Join(usbDev, "idVendor")))
	d.ProductID = strings.ToLower(readTrim(filepath.Join(usbDev, "idProduct")))
	d.Manufacturer = readTrim(filepath.Join(usbDev, "manufacturer"))
	d.Product = readTrim(filepath.Join(usbDev, "product"))
	d.Serial = readTrim(filepath.Join(usbDev, "serial"))
}

func readTrim(path string) string {
	//nolint:gosec // sysfs attribute paths built from a glob result
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// deviceID is a parsed IEEE 1284 device id, "MFG:Zebra;MDL:ZQ520;CMD:CPCL,ZPL;".
type deviceID map[string][]string

func parseDeviceID(raw string) deviceID {
	id := deviceID{}
	for _, field := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		id[key] = values
	}
	return id
}

func (id deviceID) first(keys ...string) string {
	for _, k := range keys {
		if v := id[k]; len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (id deviceID) commands() []string {
	if v, ok := id["COMMAND SET"]; ok {
		return v
	}
	return id["CMD"]
}

// SupportsCPCL reports whether a device advertises CPCL. Devices without
// a command set are assumed compatible.
func (d Device) SupportsCPCL() bool {
	if len(d.Commands) == 0 {
		return true
	}
	for _, c := range d.Commands {
		if strings.EqualFold(c, "CPCL") {
			return true
		}
	}
	return false
}
