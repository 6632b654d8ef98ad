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

package rs232barcode

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func FuzzParseLine(f *testing.F) {
	f.Add("1234567890")
	f.Add("SSV-0001")
	f.Add("\x02BARCODE\x03")
	f.Add("\x02BARCODE")
	f.Add("BARCODE\x03")
	f.Add("  \x02BARCODE\x03  ")
	f.Add("\x02\x02DATA\x03\x03")
	f.Add("\x02\x03")
	f.Add("")
	f.Add("   ")
	f.Add("\r\n")

	f.Fuzz(func(t *testing.T, line string) {
		got := parseLine(line)

		if got != strings.TrimSpace(got) {
			t.Errorf("result has surrounding whitespace: %q", got)
		}
		if len(got) > len(line) {
			t.Errorf("result longer than input: %q -> %q", line, got)
		}
		if utf8.ValidString(line) && !utf8.ValidString(got) {
			t.Errorf("valid input produced invalid UTF-8: %q", got)
		}
		if !strings.Contains(line, got) {
			t.Errorf("result is not a substring of input: %q -> %q", line, got)
		}
		if parseLine(got) != got && !strings.HasPrefix(got, "\x02") && !strings.HasSuffix(got, "\x03") {
			t.Errorf("not idempotent: %q", got)
		}
	})
}
