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

// Package cpcl builds CPCL label documents for the scan-and-print flow. It
// turns label settings in millimetres into printer commands in dots, keeps
// barcodes inside the printable area and substitutes safe defaults for bad
// geometry instead of failing.
package cpcl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/units"
	"github.com/rs/zerolog/log"
)

const (
	// LineEnding terminates every command line.
	LineEnding = "\r\n"
	// FallbackBarcodeHeightDots replaces degenerate barcode heights (~7.5mm).
	FallbackBarcodeHeightDots = 60
	// headerResolution is the nominal 200 DPI value CPCL expects for 203 DPI heads.
	headerResolution = 200
)

// Element identifies one of the five positioned parts of a label.
type Element string

const (
	ElementTitle       Element = "title"
	ElementBarcode1    Element = "barcode1"
	ElementSerialText1 Element = "serialText1"
	ElementBarcode2    Element = "barcode2"
	ElementSerialText2 Element = "serialText2"
)

// BarcodeDiagnostic is the structured record logged after every barcode.
type BarcodeDiagnostic struct {
	Symbology      string           `json:"symbology"`
	Token          string           `json:"token"`
	Data           string           `json:"data"`
	Validation     ValidationResult `json:"validation"`
	Adjustment     LayoutAdjustment `json:"adjustment"`
	Index          int              `json:"index"`
	Width          int              `json:"width"`
	Ratio          int              `json:"ratio"`
	HeightDots     int              `json:"heightDots"`
	Y              int              `json:"y"`
	EstimatedWidth int              `json:"estimatedWidth"`
	Fallback       bool             `json:"fallback"`
	HeightFallback bool             `json:"heightFallback"`
}

// Document is a generated label. Text is what gets sent to the printer.
type Document struct {
	Text        string              `json:"text"`
	Lines       []string            `json:"lines"`
	Adjustments []LayoutAdjustment  `json:"adjustments"`
	Diagnostics []BarcodeDiagnostic `json:"diagnostics"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// CountCommand returns how many lines start with the given command keyword.
func (d Document) CountCommand(cmd string) int {
	n := 0
	for _, l := range d.Lines {
		if l == cmd || strings.HasPrefix(l, cmd+" ") {
			n++
		}
	}
	return n
}

type builder struct {
	lines    []string
	warnings []string
}

func (b *builder) add(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *builder) warn(msg string) {
	b.warnings = append(b.warnings, msg)
}

func (b *builder) document() Document {
	return Document{
		Lines:    b.lines,
		Text:     strings.Join(b.lines, LineEnding) + LineEnding,
		Warnings: b.warnings,
	}
}

func header(b *builder, widthDots, heightDots int) {
	b.add("! 0 %d %d %d 1", headerResolution, headerResolution, heightDots)
	b.add("PAGE-WIDTH %d", widthDots)
}

// Generate builds the label for a pair of serials. The title comes from the
// first prefix mapping matching the left serial.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func Generate(settings config.LabelSettings, leftSerial, rightSerial string) Document {
	title := ""
	if m, ok := settings.LookupPrefix(leftSerial); ok {
		title = m.Title
	} else {
		log.Warn().Str("serial", leftSerial).Msg("no prefix mapping for label title")
	}
	return GenerateWithTitle(settings, title, leftSerial, rightSerial)
}

// GenerateWithTitle builds a label using an explicit title, as used for
// test prints from the settings preview.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func GenerateWithTitle(settings config.LabelSettings, title, leftSerial, rightSerial string) Document {
	b := &builder{}

	labelW := units.MMToDots(float64(settings.WidthMm))
	labelH := units.MMToDots(float64(settings.HeightMm))
	header(b, dotsInt(labelW), dotsInt(labelH))

	mapping := GetMapping(settings.BarcodeType)
	if mapping.Fallback {
		msg := fmt.Sprintf("unsupported barcode type %q, using %s", settings.BarcodeType, DefaultSymbology)
		log.Warn().Str("barcodeType", settings.BarcodeType).Msg("unsupported barcode type, using fallback")
		b.warn(msg)
	}

	var adjustments []LayoutAdjustment
	var diags []BarcodeDiagnostic

	g := placement{
		offsetX: settings.CalibrationOffsetXmm,
		offsetY: settings.CalibrationOffsetYmm,
		labelW:  labelW,
		labelH:  labelH,
	}

	g.text(b, ElementTitle, settings.TitleLayout, title)

	d := g.barcode(b, 1, settings.Barcode1Layout, mapping, leftSerial)
	adjustments = append(adjustments, d.Adjustment)
	diags = append(diags, d)

	g.text(b, ElementSerialText1, settings.SerialText1Layout, leftSerial)

	d = g.barcode(b, 2, settings.Barcode2Layout, mapping, rightSerial)
	adjustments = append(adjustments, d.Adjustment)
	diags = append(diags, d)

	g.text(b, ElementSerialText2, settings.SerialText2Layout, rightSerial)

	b.add("PRINT")

	doc := b.document()
	doc.Adjustments = adjustments
	doc.Diagnostics = diags
	return doc
}

type placement struct {
	offsetX float64
	offsetY float64
	labelW  float64
	labelH  float64
}

func (p placement) origin(l config.LayoutSettings) (x, y float64) {
	return units.MMToDots(l.X + p.offsetX), units.MMToDots(l.Y + p.offsetY)
}

func (p placement) text(b *builder, el Element, l config.LayoutSettings, text string) {
	x, y := p.origin(l)
	scale := ClampScale(l.Scale, string(el))
	font := fontForSize(l.FontSize)
	text, replaced := sanitizeText(text)
	if replaced {
		log.Warn().Str("element", string(el)).Msg("control characters in label text replaced")
		b.warn(fmt.Sprintf("%s: control characters replaced with spaces", el))
	}
	b.add("SETMAG %d %d", scale, scale)
	b.add("TEXT %d %d %d %d %s", font.number, font.size, dotsInt(x), dotsInt(y), text)
	b.add("SETMAG 1 1")
}

func (p placement) barcode(b *builder, index int, l config.LayoutSettings, m Mapping, data string) BarcodeDiagnostic {
	validation := ValidateData(data, m.Name, index)
	for _, e := range validation.Errors {
		b.warn(fmt.Sprintf("barcode %d: %s", index, e))
	}
	for _, w := range validation.Warnings {
		b.warn(fmt.Sprintf("barcode %d: %s", index, w))
	}

	x, y := p.origin(l)

	heightFallback := false
	height := units.MMToDots(l.Height * l.Scale)
	if math.IsNaN(height) || math.IsInf(height, 0) || height <= 0 {
		log.Warn().
			Int("barcode", index).
			Float64("heightMm", l.Height).
			Float64("scale", l.Scale).
			Msg("degenerate barcode height, using fallback")
		b.warn(fmt.Sprintf("barcode %d: degenerate height, using %d dots", index, FallbackBarcodeHeightDots))
		height = FallbackBarcodeHeightDots
		heightFallback = true
	}

	estimated := EstimateWidthDots(len(data), m.Width, m.Ratio)
	adj := ComputeLeftAlignedX(float64(estimated), p.labelW, x, index)
	if adj.WasClamped {
		log.Info().
			Int("barcode", index).
			Float64("requestedX", adj.OriginalX).
			Float64("adjustedX", adj.AdjustedX).
			Int("estimatedWidth", estimated).
			Msg("barcode position clamped to avoid clipping")
	}

	for _, w := range ValidatePosition(adj.AdjustedX, y, p.labelW, p.labelH, index) {
		b.warn(w)
	}
	for _, w := range ValidateHeight(y, height, p.labelH, index) {
		b.warn(w)
	}

	content, replaced := sanitizeText(data)
	if replaced {
		b.warn(fmt.Sprintf("barcode %d: control characters replaced with spaces", index))
	}
	b.add("BARCODE %s %d %d %d %d %d %s",
		m.Token, m.Width, m.Ratio, dotsInt(height), dotsInt(adj.AdjustedX), dotsInt(y), content)

	diag := BarcodeDiagnostic{
		Index:          index,
		Symbology:      m.Name,
		Token:          m.Token,
		Fallback:       m.Fallback,
		Data:           data,
		Width:          m.Width,
		Ratio:          m.Ratio,
		HeightDots:     dotsInt(height),
		HeightFallback: heightFallback,
		Y:              dotsInt(y),
		EstimatedWidth: estimated,
		Adjustment:     adj,
		Validation:     validation,
	}

	log.Info().
		Int("barcode", diag.Index).
		Str("symbology", diag.Symbology).
		Str("token", diag.Token).
		Bool("fallback", diag.Fallback).
		Int("width", diag.Width).
		Int("ratio", diag.Ratio).
		Int("height", diag.HeightDots).
		Float64("x", adj.AdjustedX).
		Int("y", diag.Y).
		Int("estimatedWidth", estimated).
		Bool("valid", validation.IsValid).
		Msg("barcode emitted")

	return diag
}

// ClampScale turns a layout scale into a usable integer magnification.
// Non-positive and non-finite values become 1 with a warning. Fractional
// values are rounded, which is logged when it changes the value.
func ClampScale(scale float64, element string) int {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		log.Warn().Str("element", element).Float64("scale", scale).Msg("invalid scale, using 1")
		return 1
	}
	rounded := math.Round(scale)
	if rounded < 1 {
		rounded = 1
	}
	if rounded > maxMagnification {
		rounded = maxMagnification
	}
	if rounded != scale {
		log.Debug().
			Str("element", element).
			Float64("scale", scale).
			Float64("applied", rounded).
			Msg("scale rounded to integer magnification")
	}
	return int(rounded)
}

// maxMagnification is the largest SETMAG factor CPCL printers accept.
const maxMagnification = 16

// dotsInt converts a finite dot value to an int, mapping NaN and infinities
// to zero so they never reach the printer as text.
func dotsInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

type residentFont struct {
	number     int
	size       int
	heightDots int
}

// residentFonts are ordered by cell height.
var residentFonts = []residentFont{
	{number: 0, size: 0, heightDots: 12},
	{number: 7, size: 0, heightDots: 24},
	{number: 4, size: 0, heightDots: 47},
}

// fontForSize picks the largest resident font whose cell height fits the
// nominal point size.
func fontForSize(points float64) residentFont {
	sizeDots := units.MMToDots(points * units.MMPerInch / 72)
	chosen := residentFonts[0]
	for _, f := range residentFonts {
		if float64(f.heightDots) <= sizeDots {
			chosen = f
		}
	}
	return chosen
}

// sanitizeText replaces control characters with spaces. A CR or LF inside
// a command would end the line early and the rest would be read as further
// commands.
func sanitizeText(v string) (string, bool) {
	replaced := false
	out := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			replaced = true
			return ' '
		}
		return r
	}, v)
	return out, replaced
}

func formatDots(v float64) string {
	return strconv.Itoa(dotsInt(v))
}
