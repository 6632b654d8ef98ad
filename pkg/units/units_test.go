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

package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMMToDots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mm   float64
		want float64
	}{
		{name: "zero", mm: 0, want: 0},
		{name: "one inch", mm: 25.4, want: 203},
		{name: "label width", mm: 48, want: 384},
		{name: "label height", mm: 30, want: 240},
		{name: "fallback barcode height", mm: 7.5, want: 60},
		{name: "negative offset", mm: -1, want: -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, MMToDots(tt.mm), 0)
		})
	}
}

func TestMMToDots_NaNPropagates(t *testing.T) {
	t.Parallel()
	assert.True(t, math.IsNaN(MMToDots(math.NaN())))
	assert.True(t, math.IsNaN(DotsToPx(math.NaN())))
	assert.True(t, math.IsInf(MMToDots(math.Inf(1)), 1))
}

func TestMMToPx(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 96.0, MMToPx(25.4), 1e-9)
	assert.InDelta(t, 0.0, MMToPx(0), 1e-9)
}

func TestDotsToPx_RoundTripProperty(t *testing.T) {
	t.Parallel()

	// A dot conversion rounds to the nearest dot, so the round trip can only
	// drift by half a dot expressed in pixels.
	tolerance := PxPerDot()/2 + 1e-9

	rapid.Check(t, func(t *rapid.T) {
		mm := rapid.Float64Range(0, 2000).Draw(t, "mm")
		got := DotsToPx(MMToDots(mm))
		want := MMToPx(mm)
		if math.Abs(got-want) > tolerance {
			t.Fatalf("round trip for %vmm drifted: got %v want %v", mm, got, want)
		}
	})
}
