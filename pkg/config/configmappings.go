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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PrefixMapping routes serials starting with Prefix to a label type.
type PrefixMapping struct {
	Prefix    string `toml:"prefix" json:"prefix" validate:"required,nocontrol"`
	LabelType string `toml:"label_type" json:"labelType" validate:"required,nocontrol"`
	Title     string `toml:"title" json:"title" validate:"nocontrol"`
}

// TypeKey is the per-type counter key for this mapping.
func (m PrefixMapping) TypeKey() string {
	return TypeKey(m.Prefix, m.LabelType)
}

// TypeKey joins a prefix and label type into a counter key.
func TypeKey(prefix, labelType string) string {
	return prefix + ":" + labelType
}

// Mappings is stored as an array of tables so the configured order is kept.
type Mappings struct {
	Prefix []PrefixMapping `toml:"prefix,omitempty"`
}

// LookupPrefix returns the first mapping, in configured order, whose prefix
// is a string prefix of serial. Overlapping prefixes such as "SS" and "SSV"
// resolve to whichever comes first; ValidateLabelSettings warns about them.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func (s LabelSettings) LookupPrefix(serial string) (PrefixMapping, bool) {
	for _, m := range s.PrefixMappings {
		if m.Prefix != "" && strings.HasPrefix(serial, m.Prefix) {
			return m, true
		}
	}
	return PrefixMapping{}, false
}

// DisplayName returns the title of the first mapping with the given label
// type, or a title-cased form of the label type itself.
//
//nolint:gocritic // settings snapshot is passed by value on purpose
func (s LabelSettings) DisplayName(labelType string) string {
	for _, m := range s.PrefixMappings {
		if m.LabelType == labelType && m.Title != "" {
			return m.Title
		}
	}
	return humanizeLabelType(labelType)
}

var titleCaser = cases.Title(language.English)

// humanizeLabelType turns "dualBand" or "dual_band" into "Dual Band".
func humanizeLabelType(labelType string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range labelType {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return titleCaser.String(strings.Join(strings.Fields(b.String()), " "))
}

func (c *Instance) PrefixMappings() []PrefixMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PrefixMapping, len(c.vals.Mappings.Prefix))
	copy(out, c.vals.Mappings.Prefix)
	return out
}

// LoadMappings appends prefix mappings from every .toml file found under
// mappingsDir. Files are read in lexical order, so the order of mappings is
// stable across restarts.
func (c *Instance) LoadMappings(mappingsDir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.fs.Stat(mappingsDir)
	if err != nil {
		return fmt.Errorf("failed to stat mappings directory: %w", err)
	}

	var mapFiles []string

	err = afero.Walk(
		c.fs,
		mappingsDir,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			if strings.ToLower(filepath.Ext(info.Name())) != ".toml" {
				return nil
			}

			mapFiles = append(mapFiles, path)

			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("failed to walk mappings directory: %w", err)
	}
	log.Info().Msgf("found %d mapping files", len(mapFiles))

	filesCounts := 0
	mappingsCount := 0

	for _, mapPath := range mapFiles {
		log.Debug().Msgf("loading mapping file: %s", mapPath)

		data, err := afero.ReadFile(c.fs, mapPath)
		if err != nil {
			log.Error().Msgf("error reading mapping file: %s", mapPath)
			continue
		}

		var newVals Values
		err = toml.Unmarshal(data, &newVals)
		if err != nil {
			log.Error().Msgf("error parsing mapping file: %s", mapPath)
			continue
		}

		c.vals.Mappings.Prefix = append(c.vals.Mappings.Prefix, newVals.Mappings.Prefix...)

		filesCounts++
		mappingsCount += len(newVals.Mappings.Prefix)
	}

	log.Info().Msgf("loaded %d mapping files, %d mappings", filesCounts, mappingsCount)

	return nil
}
