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

import "math"

// Module counts of the CODE128-like structure used for width estimates.
const (
	startModules     = 11
	charModules      = 11
	checkModules     = 11
	stopModules      = 13
	quietZoneModules = 20
)

// EstimateWidthDots returns a conservative overestimate of the printed width
// of a barcode in dots. It models a CODE128 symbol (start, one symbol per
// character, check, stop and both quiet zones) with an average module width
// derived from the narrow bar width and ratio code. It is only used to keep
// barcodes inside the printable area.
func EstimateWidthDots(dataLength, narrowBarWidthDots, ratioCode int) int {
	if dataLength < 0 {
		dataLength = 0
	}
	totalModules := startModules + dataLength*charModules + checkModules + stopModules + quietZoneModules
	avgModule := float64(narrowBarWidthDots) * (1 + RatioMultiplier(ratioCode)) / 2
	return int(math.Ceil(float64(totalModules) * avgModule))
}
