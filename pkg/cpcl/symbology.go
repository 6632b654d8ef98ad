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
	"sort"
	"strings"
)

// Ratio codes accepted by the BARCODE command for wide:narrow bar ratios.
const (
	Ratio2to1   = 0 // 2.0:1
	Ratio2_5to1 = 1 // 2.5:1
	Ratio3to1   = 2 // 3.0:1
)

// DefaultSymbology is the logical type used when nothing else is configured
// and the type whose printer token backs the fallback mapping.
const DefaultSymbology = "CODE128"

// Mapping describes how a logical barcode type is emitted.
type Mapping struct {
	// Name is the upper-cased logical type the mapping was resolved for.
	Name string
	// Token is the symbology argument of the BARCODE command.
	Token string
	// Width is the recommended narrow bar width in dots.
	Width int
	// Ratio is the recommended wide:narrow ratio code.
	Ratio int
	// Fallback is set when the requested type was unknown and the default
	// symbology was substituted.
	Fallback bool
}

var symbologies = map[string]Mapping{
	"CODE128": {Token: "128", Width: 1, Ratio: Ratio2to1},
	"CODE39":  {Token: "39", Width: 1, Ratio: Ratio2_5to1},
	"EAN13":   {Token: "EAN13", Width: 2, Ratio: Ratio2to1},
	"EAN8":    {Token: "EAN8", Width: 2, Ratio: Ratio2to1},
	"UPCA":    {Token: "UPCA", Width: 2, Ratio: Ratio2to1},
	"UPCE":    {Token: "UPCE", Width: 2, Ratio: Ratio2to1},
	"I2OF5":   {Token: "I2OF5", Width: 1, Ratio: Ratio2_5to1},
	"CODABAR": {Token: "CODABAR", Width: 1, Ratio: Ratio2_5to1},
}

func normalizeType(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// GetMapping returns the printer mapping for a logical barcode type. Lookup
// is case-insensitive. Unknown types resolve to the CODE128 token with
// Fallback set; a mapping is always returned.
func GetMapping(name string) Mapping {
	key := normalizeType(name)
	if m, ok := symbologies[key]; ok {
		m.Name = key
		return m
	}
	m := symbologies[DefaultSymbology]
	m.Name = key
	m.Fallback = true
	return m
}

// IsSupported reports whether name is a known barcode type.
func IsSupported(name string) bool {
	_, ok := symbologies[normalizeType(name)]
	return ok
}

// SupportedTypes lists the known logical barcode types in sorted order.
func SupportedTypes() []string {
	types := make([]string, 0, len(symbologies))
	for k := range symbologies {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// RatioMultiplier converts a ratio code into its wide:narrow multiplier.
func RatioMultiplier(ratioCode int) float64 {
	return 2.0 + float64(ratioCode)*0.5
}
