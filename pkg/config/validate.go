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

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var settingsValidator = newSettingsValidator()

func newSettingsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// mapping text ends up inside printer commands, one per line
	_ = v.RegisterValidation("nocontrol", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	return v
}

// SettingsError lists every field of a label settings snapshot that failed
// validation.
type SettingsError struct {
	Fields []string
}

func (e *SettingsError) Error() string {
	return "invalid label settings: " + strings.Join(e.Fields, "; ")
}

// ValidateLabelSettings checks the structural constraints of a settings
// snapshot: positive label size, positive element scales, non-empty and
// unique prefixes, mapping text free of control characters.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func ValidateLabelSettings(s LabelSettings) error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating label settings: %w", err)
	}
	se := &SettingsError{Fields: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		se.Fields = append(se.Fields, formatFieldError(fe))
	}
	return se
}

func formatFieldError(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return ns + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", ns, fe.Param())
	case "nocontrol":
		return ns + " must not contain control characters"
	case "unique":
		return fmt.Sprintf("%s must have unique %s values", ns, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", ns, fe.Tag())
	}
}

// PrefixConflicts returns a description of every pair of mappings where one
// prefix is a prefix of a later one. The later mapping can never match.
func PrefixConflicts(mappings []PrefixMapping) []string {
	var out []string
	for i, a := range mappings {
		for _, b := range mappings[i+1:] {
			if a.Prefix == "" || a.Prefix == b.Prefix {
				continue
			}
			if strings.HasPrefix(b.Prefix, a.Prefix) {
				out = append(out, fmt.Sprintf(
					"prefix %q (%s) shadows later prefix %q (%s)",
					a.Prefix, a.LabelType, b.Prefix, b.LabelType,
				))
			}
		}
	}
	return out
}
