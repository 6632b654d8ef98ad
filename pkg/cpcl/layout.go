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

// MinMarginDots is the smallest gap kept between a barcode and either
// label edge, roughly 0.6mm at 203 DPI.
const MinMarginDots = 5

// LayoutAdjustment records where a barcode was requested and where it ended
// up after clamping.
type LayoutAdjustment struct {
	OriginalX    float64 `json:"originalX"`
	AdjustedX    float64 `json:"adjustedX"`
	BarcodeIndex int     `json:"barcodeIndex"`
	WasClamped   bool    `json:"wasClamped"`
}

// ComputeLeftAlignedX keeps a left-anchored barcode inside the label. The
// requested X acts as left padding and is only moved when the barcode would
// cross a margin. When the barcode is wider than the printable area the
// result collapses to the left margin and the barcode overflows on the
// right.
func ComputeLeftAlignedX(
	estimatedWidthDots float64,
	labelWidthDots float64,
	requestedXDots float64,
	barcodeIndex int,
) LayoutAdjustment {
	minX := float64(MinMarginDots)
	maxX := math.Max(minX, labelWidthDots-estimatedWidthDots-MinMarginDots)

	adjusted := math.Round(math.Min(math.Max(requestedXDots, minX), maxX))

	return LayoutAdjustment{
		OriginalX:    requestedXDots,
		AdjustedX:    adjusted,
		BarcodeIndex: barcodeIndex,
		WasClamped:   math.Abs(adjusted-requestedXDots) > 0.5,
	}
}
