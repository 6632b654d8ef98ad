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
	"math"
	"strings"
	"testing"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func dualBandSettings() config.LabelSettings {
	s := config.DefaultLabelSettings()
	s.PrefixMappings = []config.PrefixMapping{
		{Prefix: "SSV", LabelType: "dualBand", Title: "Dual Band"},
		{Prefix: "TRB", LabelType: "triBand", Title: "Tri Band"},
	}
	return s
}

func TestGenerate_DefaultLabel(t *testing.T) {
	t.Parallel()

	doc := Generate(dualBandSettings(), "SSVSBM2H7M5JB1", "SSVSBM2H7M5JB2")

	require.NotEmpty(t, doc.Lines)
	assert.Equal(t, "! 0 200 200 240 1", doc.Lines[0])
	assert.Equal(t, "PAGE-WIDTH 384", doc.Lines[1])
	assert.Equal(t, "PRINT", doc.Lines[len(doc.Lines)-1])

	assert.Equal(t, 2, doc.CountCommand("BARCODE"))
	assert.Equal(t, 1, doc.CountCommand("PRINT"))
	assert.Equal(t, 3, doc.CountCommand("TEXT"))
	assert.Equal(t, 6, doc.CountCommand("SETMAG"))

	assert.Contains(t, doc.Lines, "BARCODE 128 1 0 48 16 44 SSVSBM2H7M5JB1")
	assert.Contains(t, doc.Lines, "BARCODE 128 1 0 48 16 124 SSVSBM2H7M5JB2")
	assert.Contains(t, doc.Lines, "TEXT 7 0 16 16 Dual Band")
	assert.Contains(t, doc.Lines, "TEXT 0 0 16 96 SSVSBM2H7M5JB1")

	assert.True(t, strings.HasSuffix(doc.Text, "PRINT\r\n"))
	assert.Equal(t, len(doc.Lines), strings.Count(doc.Text, "\r\n"))

	require.Len(t, doc.Adjustments, 2)
	assert.False(t, doc.Adjustments[0].WasClamped)
	assert.Equal(t, 1, doc.Adjustments[0].BarcodeIndex)
	assert.Equal(t, 2, doc.Adjustments[1].BarcodeIndex)
	assert.Empty(t, doc.Warnings)

	require.Len(t, doc.Diagnostics, 2)
	assert.Equal(t, "128", doc.Diagnostics[0].Token)
	assert.Equal(t, 314, doc.Diagnostics[0].EstimatedWidth)
	assert.True(t, doc.Diagnostics[1].Validation.IsValid)
}

func TestGenerate_ElementOrder(t *testing.T) {
	t.Parallel()

	doc := Generate(dualBandSettings(), "SSV0001", "SSV0002")

	var order []string
	for _, l := range doc.Lines {
		switch {
		case strings.HasPrefix(l, "TEXT "):
			order = append(order, "text")
		case strings.HasPrefix(l, "BARCODE "):
			order = append(order, "barcode")
		}
	}
	assert.Equal(t, []string{"text", "barcode", "text", "barcode", "text"}, order)
}

func TestGenerate_UnknownPrefixLeavesTitleEmpty(t *testing.T) {
	t.Parallel()

	doc := Generate(dualBandSettings(), "ZZZ0001", "ZZZ0002")
	assert.Contains(t, doc.Lines, "TEXT 7 0 16 16 ")
	assert.Equal(t, 2, doc.CountCommand("BARCODE"))
}

func TestGenerateWithTitle(t *testing.T) {
	t.Parallel()

	doc := GenerateWithTitle(dualBandSettings(), "Preview", "A1", "B2")
	assert.Contains(t, doc.Lines, "TEXT 7 0 16 16 Preview")
	assert.Contains(t, doc.Lines, "BARCODE 128 1 0 48 16 44 A1")
}

func TestGenerate_CalibrationOffset(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.CalibrationOffsetXmm = 1
	s.CalibrationOffsetYmm = -0.5

	doc := Generate(s, "SSV0001", "SSV0002")

	// x: 3mm -> 24 dots, y: 5mm -> 40 dots
	assert.Contains(t, doc.Lines, "BARCODE 128 1 0 48 24 40 SSV0001")
	// title at 3mm, 1.5mm
	assert.Contains(t, doc.Lines, "TEXT 7 0 24 12 Dual Band")
}

func TestGenerate_ClampsWideBarcode(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.Barcode1Layout.X = 20 // 160 dots, too far right for a 314 dot barcode

	doc := Generate(s, "SSVSBM2H7M5JB1", "SSVSBM2H7M5JB2")

	require.Len(t, doc.Adjustments, 2)
	adj := doc.Adjustments[0]
	assert.True(t, adj.WasClamped)
	assert.InDelta(t, 160.0, adj.OriginalX, 1e-9)
	assert.InDelta(t, 65.0, adj.AdjustedX, 1e-9)
	assert.Contains(t, doc.Lines, "BARCODE 128 1 0 48 65 44 SSVSBM2H7M5JB1")
	assert.False(t, doc.Adjustments[1].WasClamped)
}

func TestGenerate_UnsupportedSymbologyFallsBack(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.BarcodeType = "PDF417"

	doc := Generate(s, "SSV0001", "SSV0002")

	assert.Equal(t, 2, doc.CountCommand("BARCODE 128"))
	require.NotEmpty(t, doc.Warnings)
	assert.Contains(t, doc.Warnings[0], "PDF417")
	assert.True(t, doc.Diagnostics[0].Fallback)
}

func TestGenerate_SymbologyToken(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.BarcodeType = "code39"

	doc := Generate(s, "SSV0001", "SSV0002")
	assert.Equal(t, 2, doc.CountCommand("BARCODE 39"))
	assert.Contains(t, doc.Lines, "BARCODE 39 1 1 48 16 44 SSV0001")
}

func TestGenerate_DegenerateHeightUsesFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		height float64
		scale  float64
	}{
		{name: "zero scale", height: 6, scale: 0},
		{name: "negative scale", height: 6, scale: -2},
		{name: "zero height", height: 0, scale: 1},
		{name: "nan height", height: math.NaN(), scale: 1},
		{name: "infinite scale", height: 6, scale: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := dualBandSettings()
			s.Barcode2Layout.Height = tt.height
			s.Barcode2Layout.Scale = tt.scale

			doc := Generate(s, "SSV0001", "SSV0002")
			assert.Contains(t, doc.Lines, "BARCODE 128 1 0 60 16 124 SSV0002")
			assert.True(t, doc.Diagnostics[1].HeightFallback)
			assert.False(t, doc.Diagnostics[0].HeightFallback)
			assert.Equal(t, 1, doc.CountCommand("PRINT"))
		})
	}
}

func TestGenerate_TextScaleMagnification(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.TitleLayout.Scale = 2.4
	s.SerialText1Layout.Scale = 0
	s.SerialText2Layout.Scale = 3

	doc := Generate(s, "SSV0001", "SSV0002")

	var mags []string
	for _, l := range doc.Lines {
		if strings.HasPrefix(l, "SETMAG ") && l != "SETMAG 1 1" {
			mags = append(mags, l)
		}
	}
	assert.Equal(t, []string{"SETMAG 2 2", "SETMAG 3 3"}, mags)
}

func TestGenerate_EmptySerialStillGenerates(t *testing.T) {
	t.Parallel()

	doc := Generate(dualBandSettings(), "SSV0001", "")
	assert.Equal(t, 2, doc.CountCommand("BARCODE"))
	assert.False(t, doc.Diagnostics[1].Validation.IsValid)
	assert.Contains(t, strings.Join(doc.Warnings, "\n"), ErrEmptyBarcodeData)
}

func TestGenerate_TitleWithLineBreaks(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.PrefixMappings[0].Title = "Dual\r\nPRINT\r\nBand"

	doc := Generate(s, "SSV0001", "SSV0002")
	assert.Equal(t, 1, doc.CountCommand("PRINT"))
	assert.Equal(t, 3, doc.CountCommand("TEXT"))
	assert.Contains(t, doc.Text, "Dual  PRINT  Band")
	assert.Contains(t, doc.Warnings, "title: control characters replaced with spaces")
	assert.Equal(t, "PRINT", doc.Lines[len(doc.Lines)-1])
}

func TestGenerateWithTitle_BarcodeDataWithLineBreak(t *testing.T) {
	t.Parallel()

	doc := GenerateWithTitle(dualBandSettings(), "T", "SSV0001\nPRINT", "SSV0002")
	assert.Equal(t, 1, doc.CountCommand("PRINT"))
	assert.Equal(t, 2, doc.CountCommand("BARCODE"))
	assert.Contains(t, doc.Warnings, "barcode 1: control characters replaced with spaces")
	assert.Contains(t, doc.Warnings, "serialText1: control characters replaced with spaces")
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	out, replaced := sanitizeText("Dual Band")
	assert.Equal(t, "Dual Band", out)
	assert.False(t, replaced)

	out, replaced = sanitizeText("a\tb\x00c\r\n")
	assert.Equal(t, "a b c  ", out)
	assert.True(t, replaced)
}

func TestGenerate_OffLabelWarnings(t *testing.T) {
	t.Parallel()

	s := dualBandSettings()
	s.Barcode2Layout.Y = 28 // 224 dots + 48 runs past 240

	doc := Generate(s, "SSV0001", "SSV0002")
	assert.Contains(t, strings.Join(doc.Warnings, "\n"), "extends past label height")
	assert.Equal(t, 1, doc.CountCommand("PRINT"))
}

func TestClampScale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		scale float64
		want  int
	}{
		{name: "one", scale: 1, want: 1},
		{name: "rounds down", scale: 2.4, want: 2},
		{name: "rounds up", scale: 2.5, want: 3},
		{name: "small positive", scale: 0.2, want: 1},
		{name: "zero", scale: 0, want: 1},
		{name: "negative", scale: -3, want: 1},
		{name: "nan", scale: math.NaN(), want: 1},
		{name: "inf", scale: math.Inf(1), want: 1},
		{name: "huge", scale: 1e9, want: maxMagnification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClampScale(tt.scale, "test"))
		})
	}
}

func TestPropertyClampScaleAlwaysPositive(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64().Draw(t, "scale")
		got := ClampScale(v, "prop")
		if got < 1 || got > maxMagnification {
			t.Fatalf("ClampScale(%v) = %d", v, got)
		}
	})
}

func TestFontForSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, fontForSize(6).number)
	assert.Equal(t, 7, fontForSize(10).number)
	assert.Equal(t, 4, fontForSize(20).number)
	assert.Equal(t, 0, fontForSize(0).number)
	assert.Equal(t, 0, fontForSize(math.NaN()).number)
}
