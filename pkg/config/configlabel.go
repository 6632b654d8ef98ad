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

package config

// LayoutSettings positions one label element. Coordinates and sizes are
// millimetres from the top-left corner of the label.
type LayoutSettings struct {
	X        float64 `toml:"x" json:"x"`
	Y        float64 `toml:"y" json:"y"`
	Width    float64 `toml:"width" json:"width"`
	Height   float64 `toml:"height" json:"height"`
	Scale    float64 `toml:"scale" json:"scale" validate:"gt=0"`
	FontSize float64 `toml:"font_size" json:"fontSize"`
}

// LabelSettings is the read-only snapshot consumed by label generation.
type LabelSettings struct {
	BarcodeType          string          `toml:"barcode_type" json:"barcodeType"`
	PrefixMappings       []PrefixMapping `toml:"-" json:"prefixMappings" validate:"unique=Prefix,dive"`
	TitleLayout          LayoutSettings  `toml:"title" json:"titleLayout"`
	Barcode1Layout       LayoutSettings  `toml:"barcode1" json:"barcode1Layout"`
	SerialText1Layout    LayoutSettings  `toml:"serial_text1" json:"serialText1Layout"`
	Barcode2Layout       LayoutSettings  `toml:"barcode2" json:"barcode2Layout"`
	SerialText2Layout    LayoutSettings  `toml:"serial_text2" json:"serialText2Layout"`
	WidthMm              int             `toml:"width_mm" json:"widthMm" validate:"gt=0"`
	HeightMm             int             `toml:"height_mm" json:"heightMm" validate:"gt=0"`
	BarcodeHeightMm      float64         `toml:"barcode_height_mm" json:"barcodeHeightMm"`
	SpacingMm            float64         `toml:"spacing_mm" json:"spacingMm"`
	CalibrationOffsetXmm float64         `toml:"calibration_offset_x_mm" json:"calibrationOffsetXmm"`
	CalibrationOffsetYmm float64         `toml:"calibration_offset_y_mm" json:"calibrationOffsetYmm"`
}

const (
	defaultWidthMm         = 48
	defaultHeightMm        = 30
	defaultBarcodeHeightMm = 6
	defaultSpacingMm       = 0.5
	defaultMarginMm        = 2
	defaultTitleFontSize   = 10
	defaultSerialFontSize  = 6
	defaultTextHeightMm    = 3
)

// DefaultLabelSettings returns a 48x30mm CODE128 label with the default
// stacked layout.
func DefaultLabelSettings() LabelSettings {
	s := LabelSettings{
		WidthMm:         defaultWidthMm,
		HeightMm:        defaultHeightMm,
		BarcodeType:     "CODE128",
		BarcodeHeightMm: defaultBarcodeHeightMm,
		SpacingMm:       defaultSpacingMm,
	}
	s.ApplyLayouts(DefaultLayouts(s.WidthMm, s.HeightMm, s.BarcodeHeightMm, s.SpacingMm))
	return s
}

// Layouts holds the five element layouts in print order.
type Layouts struct {
	Title       LayoutSettings
	Barcode1    LayoutSettings
	SerialText1 LayoutSettings
	Barcode2    LayoutSettings
	SerialText2 LayoutSettings
}

// DefaultLayouts stacks the title, both barcodes and their serial lines
// from the top of the label, separated by spacingMm. Barcodes get
// barcodeHeightMm; if the stack does not fit, barcode height shrinks so the
// last serial line still ends on the label.
func DefaultLayouts(widthMm, heightMm int, barcodeHeightMm, spacingMm float64) Layouts {
	w := float64(widthMm) - 2*defaultMarginMm
	if w < 0 {
		w = 0
	}

	fixed := defaultMarginMm*2 + 3*defaultTextHeightMm + 4*spacingMm
	if avail := (float64(heightMm) - fixed) / 2; barcodeHeightMm > avail && avail > 0 {
		barcodeHeightMm = avail
	}

	y := float64(defaultMarginMm)
	next := func(h float64, font float64) LayoutSettings {
		l := LayoutSettings{
			X:        defaultMarginMm,
			Y:        y,
			Width:    w,
			Height:   h,
			Scale:    1,
			FontSize: font,
		}
		y += h + spacingMm
		return l
	}

	return Layouts{
		Title:       next(defaultTextHeightMm, defaultTitleFontSize),
		Barcode1:    next(barcodeHeightMm, 0),
		SerialText1: next(defaultTextHeightMm, defaultSerialFontSize),
		Barcode2:    next(barcodeHeightMm, 0),
		SerialText2: next(defaultTextHeightMm, defaultSerialFontSize),
	}
}

// ApplyLayouts replaces all five element layouts.
func (s *LabelSettings) ApplyLayouts(l Layouts) {
	s.TitleLayout = l.Title
	s.Barcode1Layout = l.Barcode1
	s.SerialText1Layout = l.SerialText1
	s.Barcode2Layout = l.Barcode2
	s.SerialText2Layout = l.SerialText2
}

//nolint:gocritic // values copied so the snapshot cannot alias the store
func (v Values) labelSettings() LabelSettings {
	s := v.Label
	s.PrefixMappings = make([]PrefixMapping, len(v.Mappings.Prefix))
	copy(s.PrefixMappings, v.Mappings.Prefix)
	return s
}

// LabelSettings returns the current label settings, including the prefix
// mappings in configured order.
func (c *Instance) LabelSettings() LabelSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.labelSettings()
}

// SetLabelSettings validates and stores new label settings. The prefix
// mappings of s replace the configured ones. Nothing is written to disk
// until Save is called.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func (c *Instance) SetLabelSettings(s LabelSettings) error {
	if err := ValidateLabelSettings(s); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Mappings.Prefix = make([]PrefixMapping, len(s.PrefixMappings))
	copy(c.vals.Mappings.Prefix, s.PrefixMappings)
	s.PrefixMappings = nil
	c.vals.Label = s
	return nil
}
