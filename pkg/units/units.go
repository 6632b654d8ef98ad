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

// Package units converts between physical label millimetres, printer dots
// and on-screen pixels.
package units

import "math"

const (
	// DPI is the print head resolution of the supported thermal printers.
	DPI = 203.0
	// ScreenDPI is the CSS reference pixel density used by previews.
	ScreenDPI = 96.0
	// MMPerInch is the number of millimetres in an inch.
	MMPerInch = 25.4
)

// MMToDots converts millimetres to whole printer dots. NaN and infinities
// pass through unchanged.
func MMToDots(mm float64) float64 {
	return math.Round(mm / MMPerInch * DPI)
}

// DotsToMM converts printer dots back to millimetres.
func DotsToMM(dots float64) float64 {
	return dots / DPI * MMPerInch
}

// MMToPx converts millimetres to display pixels.
func MMToPx(mm float64) float64 {
	return mm * (ScreenDPI / MMPerInch)
}

// DotsToPx converts printer dots to display pixels by way of millimetres.
func DotsToPx(dots float64) float64 {
	return MMToPx(DotsToMM(dots))
}

// PxPerDot is the width of a single printer dot in display pixels.
func PxPerDot() float64 {
	return ScreenDPI / DPI
}
