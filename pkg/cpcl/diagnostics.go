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

package cpcl

import (
	"github.com/ZaparooProject/zaparoo-label/pkg/units"
)

// Defaults for a test print through the configured layout.
const (
	TestPrintTitle = "TEST PRINT"
	TestPrintLeft  = "TEST0001"
	TestPrintRight = "TEST0002"
)

const (
	connectivityWidthMm  = 50
	connectivityHeightMm = 30
	connectivityData     = "TEST1234"
	crosshairArmDots     = 20
	lineThicknessDots    = 2
)

// ConnectivityTestDocument is a fixed label with known-good barcode
// parameters. It does not depend on any user settings, so a failed print
// points at the printer or the connection rather than the configuration.
func ConnectivityTestDocument(version string) Document {
	b := &builder{}
	w := units.MMToDots(connectivityWidthMm)
	h := units.MMToDots(connectivityHeightMm)
	header(b, dotsInt(w), dotsInt(h))

	b.add("TEXT 4 0 %d %d CONNECTION TEST", MinMarginDots*2, MinMarginDots*2)
	b.add("TEXT 7 0 %d %d %s", MinMarginDots*2, 65, "Zaparoo Label "+version)
	b.add("BARCODE 128 1 %d %d %d %d %s",
		Ratio2to1, FallbackBarcodeHeightDots, MinMarginDots*2, 100, connectivityData)
	b.add("TEXT 7 0 %d %d %s", MinMarginDots*2, 100+FallbackBarcodeHeightDots+5, connectivityData)
	b.add("PRINT")
	return b.document()
}

// CalibrationDocument draws a border inset by the minimum margin, a
// crosshair at the dot origin and the page size in dots. Comparing the
// printout with the physical label shows which calibration offsets are
// needed.
func CalibrationDocument(widthMm, heightMm int) Document {
	b := &builder{}
	w := dotsInt(units.MMToDots(float64(widthMm)))
	h := dotsInt(units.MMToDots(float64(heightMm)))
	if w <= 2*MinMarginDots || h <= 2*MinMarginDots {
		b.warn("label too small for calibration border")
	}
	header(b, w, h)

	b.add("BOX %d %d %d %d %d",
		MinMarginDots, MinMarginDots, w-MinMarginDots, h-MinMarginDots, lineThicknessDots)

	// crosshair on the origin
	b.add("LINE 0 0 %d 0 %d", crosshairArmDots, lineThicknessDots)
	b.add("LINE 0 0 0 %d %d", crosshairArmDots, lineThicknessDots)

	cx, cy := w/2, h/2
	b.add("LINE %d %d %d %d %d", cx-crosshairArmDots, cy, cx+crosshairArmDots, cy, lineThicknessDots)
	b.add("LINE %d %d %d %d %d", cx, cy-crosshairArmDots, cx, cy+crosshairArmDots, lineThicknessDots)

	b.add("TEXT 7 0 %d %d CALIBRATION", crosshairArmDots+MinMarginDots, crosshairArmDots+MinMarginDots)
	b.add("TEXT 7 0 %d %d %sx%s dots",
		crosshairArmDots+MinMarginDots, crosshairArmDots+MinMarginDots+30,
		formatDots(float64(w)), formatDots(float64(h)))
	b.add("PRINT")
	return b.document()
}
