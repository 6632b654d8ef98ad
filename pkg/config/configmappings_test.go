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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoadMappings_LoadsFromAferoFS(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	mappingsDir := "/data/mappings"
	require.NoError(t, fs.MkdirAll(mappingsDir, 0o750))

	mappingTOML := `
[[mappings.prefix]]
prefix = "SS"
label_type = "single"
title = "Single Sided"

[[mappings.prefix]]
prefix = "DB"
label_type = "dualBand"
`
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/tags.toml", []byte(mappingTOML), 0o600))

	cfg := &Instance{fs: fs}

	err := cfg.LoadMappings(mappingsDir)
	require.NoError(t, err)

	mappings := cfg.PrefixMappings()
	require.Len(t, mappings, 2)
	assert.Equal(t, "SS", mappings[0].Prefix)
	assert.Equal(t, "Single Sided", mappings[0].Title)
	assert.Equal(t, "dualBand", mappings[1].LabelType)
}

func TestLoadMappings_LexicalFileOrder(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	mappingsDir := "/data/mappings"
	require.NoError(t, fs.MkdirAll(mappingsDir, 0o750))

	b := "[[mappings.prefix]]\nprefix = \"BB\"\nlabel_type = \"b\"\n"
	a := "[[mappings.prefix]]\nprefix = \"AA\"\nlabel_type = \"a\"\n"
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/b.toml", []byte(b), 0o600))
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/a.toml", []byte(a), 0o600))

	cfg := &Instance{fs: fs}
	require.NoError(t, cfg.LoadMappings(mappingsDir))

	mappings := cfg.PrefixMappings()
	require.Len(t, mappings, 2)
	assert.Equal(t, "AA", mappings[0].Prefix)
	assert.Equal(t, "BB", mappings[1].Prefix)
}

func TestLoadMappings_IgnoresNonTOMLFiles(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	mappingsDir := "/data/mappings"
	require.NoError(t, fs.MkdirAll(mappingsDir, 0o750))

	valid := "[[mappings.prefix]]\nprefix = \"SS\"\nlabel_type = \"single\"\n"
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/good.toml", []byte(valid), 0o600))
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/notes.txt", []byte(valid), 0o600))

	cfg := &Instance{fs: fs}
	require.NoError(t, cfg.LoadMappings(mappingsDir))
	assert.Len(t, cfg.PrefixMappings(), 1)
}

func TestLoadMappings_MissingDirectory(t *testing.T) {
	t.Parallel()

	cfg := &Instance{fs: afero.NewMemMapFs()}

	err := cfg.LoadMappings("/nonexistent/mappings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat mappings directory")
}

func TestLoadMappings_SkipsInvalidTOML(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	mappingsDir := "/data/mappings"
	require.NoError(t, fs.MkdirAll(mappingsDir, 0o750))

	valid := "[[mappings.prefix]]\nprefix = \"SS\"\nlabel_type = \"single\"\n"
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/good.toml", []byte(valid), 0o600))
	require.NoError(t, afero.WriteFile(fs, mappingsDir+"/bad.toml", []byte("not valid [[[ toml"), 0o600))

	cfg := &Instance{fs: fs}
	require.NoError(t, cfg.LoadMappings(mappingsDir))

	mappings := cfg.PrefixMappings()
	require.Len(t, mappings, 1)
	assert.Equal(t, "SS", mappings[0].Prefix)
}

func TestLookupPrefix(t *testing.T) {
	t.Parallel()

	s := LabelSettings{PrefixMappings: []PrefixMapping{
		{Prefix: "SS", LabelType: "single"},
		{Prefix: "SSV", LabelType: "vertical"},
		{Prefix: "DB", LabelType: "dualBand"},
	}}

	tests := []struct {
		name   string
		serial string
		want   string
		found  bool
	}{
		{name: "exact prefix", serial: "SS12345678", want: "single", found: true},
		{name: "first match wins", serial: "SSV0001", want: "single", found: true},
		{name: "second mapping", serial: "DB42", want: "dualBand", found: true},
		{name: "no match", serial: "ZZ42", found: false},
		{name: "case sensitive", serial: "ss42", found: false},
		{name: "empty serial", serial: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ok := s.LookupPrefix(tt.serial)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, m.LabelType)
		})
	}
}

func TestPropertyLookupPrefixReturnsPrefixOfSerial(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		prefixes := rapid.SliceOfN(rapid.StringMatching(`[A-Z]{1,3}`), 0, 6).Draw(t, "prefixes")
		serial := rapid.StringMatching(`[A-Z]{0,6}[0-9]{0,4}`).Draw(t, "serial")

		s := LabelSettings{}
		for i, p := range prefixes {
			s.PrefixMappings = append(s.PrefixMappings, PrefixMapping{Prefix: p, LabelType: string(rune('a' + i))})
		}

		m, ok := s.LookupPrefix(serial)
		if !ok {
			for _, p := range prefixes {
				if len(serial) >= len(p) && serial[:len(p)] == p {
					t.Fatalf("serial %q matches %q but lookup found nothing", serial, p)
				}
			}
			return
		}
		if len(serial) < len(m.Prefix) || serial[:len(m.Prefix)] != m.Prefix {
			t.Fatalf("mapping %q is not a prefix of %q", m.Prefix, serial)
		}
		for _, earlier := range s.PrefixMappings {
			if earlier.LabelType == m.LabelType {
				break
			}
			if len(serial) >= len(earlier.Prefix) && serial[:len(earlier.Prefix)] == earlier.Prefix {
				t.Fatalf("earlier mapping %q should have matched %q", earlier.Prefix, serial)
			}
		}
	})
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	s := LabelSettings{PrefixMappings: []PrefixMapping{
		{Prefix: "SS", LabelType: "single", Title: "Single Sided"},
		{Prefix: "SSV", LabelType: "single", Title: "Ignored"},
		{Prefix: "DB", LabelType: "dualBand"},
	}}

	assert.Equal(t, "Single Sided", s.DisplayName("single"))
	assert.Equal(t, "Dual Band", s.DisplayName("dualBand"))
	assert.Equal(t, "Wide Label", s.DisplayName("wide_label"))
	assert.Equal(t, "Nfc", s.DisplayName("nfc"))
	assert.Empty(t, s.DisplayName(""))
}

func TestPrefixConflicts(t *testing.T) {
	t.Parallel()

	conflicts := PrefixConflicts([]PrefixMapping{
		{Prefix: "SS", LabelType: "single"},
		{Prefix: "SSV", LabelType: "vertical"},
		{Prefix: "DB", LabelType: "dualBand"},
	})
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0], `"SSV"`)

	assert.Empty(t, PrefixConflicts([]PrefixMapping{
		{Prefix: "SSV", LabelType: "vertical"},
		{Prefix: "SS", LabelType: "single"},
	}), "longer prefix first is reachable")
}

func TestValidateLabelSettings(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateLabelSettings(DefaultLabelSettings()))

	s := DefaultLabelSettings()
	s.PrefixMappings = []PrefixMapping{
		{Prefix: "SS", LabelType: "single"},
		{Prefix: "SS", LabelType: "other"},
	}
	err := ValidateLabelSettings(s)
	var se *SettingsError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "unique")

	s = DefaultLabelSettings()
	s.PrefixMappings = []PrefixMapping{{Prefix: "", LabelType: "single"}}
	require.Error(t, ValidateLabelSettings(s))

	s = DefaultLabelSettings()
	s.Barcode1Layout.Scale = 0
	err = ValidateLabelSettings(s)
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "Barcode1Layout.Scale")

	s = DefaultLabelSettings()
	s.PrefixMappings = []PrefixMapping{{Prefix: "SSV", LabelType: "dualBand", Title: "Dual\r\nPRINT"}}
	err = ValidateLabelSettings(s)
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "PrefixMappings[0].Title must not contain control characters")
}

func TestDefaultLayouts_FitOnLabel(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(20, 120).Draw(t, "width")
		h := rapid.IntRange(20, 120).Draw(t, "height")
		bh := rapid.Float64Range(1, 30).Draw(t, "barcodeHeight")

		l := DefaultLayouts(w, h, bh, defaultSpacingMm)
		bottom := l.SerialText2.Y + l.SerialText2.Height
		if bottom > float64(h)+1e-9 {
			t.Fatalf("stack ends at %.2fmm on a %dmm label", bottom, h)
		}
		if l.Barcode1.Y <= l.Title.Y || l.Barcode2.Y <= l.SerialText1.Y {
			t.Fatalf("elements out of order: %+v", l)
		}
	})
}
