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
	"errors"
	"fmt"
	"strings"

	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/twooffive"
	"github.com/rs/zerolog/log"
)

// MinLegibleHeightDots is the barcode height below which scanners struggle.
const MinLegibleHeightDots = 30

// ErrEmptyBarcodeData is the validation error for blank barcode content.
const ErrEmptyBarcodeData = "empty barcode data"

// ValidationResult collects the findings of a barcode data check. Invalid
// data never stops generation; callers decide whether to block on IsValid.
type ValidationResult struct {
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	IsValid  bool     `json:"isValid"`
}

// ValidateData checks barcode content before it is emitted. Whitespace is
// reported but not trimmed here.
func ValidateData(data, symbology string, barcodeIndex int) ValidationResult {
	res := ValidationResult{IsValid: true}

	if strings.TrimSpace(data) == "" {
		res.IsValid = false
		res.Errors = append(res.Errors, ErrEmptyBarcodeData)
		log.Error().
			Int("barcode", barcodeIndex).
			Str("symbology", symbology).
			Msg("empty barcode data")
		return res
	}

	if strings.TrimSpace(data) != data {
		res.Warnings = append(res.Warnings, "barcode data has leading or trailing whitespace")
	}

	if strings.ContainsAny(data, "\r\n\t") {
		res.Warnings = append(res.Warnings, "barcode data contains control characters")
	}

	if err := checkEncodable(data, symbology); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("data may not encode as %s: %v", symbology, err))
	}

	for _, w := range res.Warnings {
		log.Warn().
			Int("barcode", barcodeIndex).
			Str("symbology", symbology).
			Msg(w)
	}

	return res
}

// checkEncodable runs the data through a reference encoder for the logical
// type. Only the error is used; nothing is rendered.
func checkEncodable(data, symbology string) error {
	var err error
	switch normalizeType(symbology) {
	case "CODE128":
		_, err = code128.Encode(data)
	case "CODE39":
		_, err = code39.Encode(data, false, false)
	case "EAN13", "EAN8":
		_, err = ean.Encode(data)
	case "UPCA":
		_, err = ean.Encode("0" + data)
	case "I2OF5":
		_, err = twooffive.Encode(data, true)
	case "CODABAR":
		_, err = codabar.Encode(data)
	case "UPCE":
		if strings.Trim(data, "0123456789") != "" {
			err = errors.New("UPC-E accepts digits only")
		}
	}
	if err != nil {
		return fmt.Errorf("reference encoder rejected data: %w", err)
	}
	return nil
}

// ValidatePosition logs when a barcode origin falls outside the label. It
// returns the warnings it logged.
func ValidatePosition(x, y, labelWidthDots, labelHeightDots float64, barcodeIndex int) []string {
	var warnings []string
	if x < 0 || x >= labelWidthDots {
		warnings = append(warnings,
			fmt.Sprintf("barcode x=%.0f outside label width %.0f", x, labelWidthDots))
	}
	if y < 0 || y >= labelHeightDots {
		warnings = append(warnings,
			fmt.Sprintf("barcode y=%.0f outside label height %.0f", y, labelHeightDots))
	}
	for _, w := range warnings {
		log.Warn().Int("barcode", barcodeIndex).Msg(w)
	}
	return warnings
}

// ValidateHeight logs when a barcode runs past the label bottom or is too
// short to scan reliably. It returns the warnings it logged.
func ValidateHeight(y, heightDots, labelHeightDots float64, barcodeIndex int) []string {
	var warnings []string
	if y+heightDots > labelHeightDots {
		warnings = append(warnings, fmt.Sprintf(
			"barcode bottom %.0f extends past label height %.0f", y+heightDots, labelHeightDots))
	}
	if heightDots < MinLegibleHeightDots {
		warnings = append(warnings, fmt.Sprintf(
			"barcode height %.0f below legibility threshold %d", heightDots, MinLegibleHeightDots))
	}
	for _, w := range warnings {
		log.Warn().Int("barcode", barcodeIndex).Msg(w)
	}
	return warnings
}
