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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "no username", input: "/usr/local/bin/zaparoo-label", expected: "/usr/local/bin/zaparoo-label"},
		{
			name:     "linux home",
			input:    "/home/operator/.local/share/zaparoo-label/prints.db",
			expected: "/home/<user>/.local/share/zaparoo-label/prints.db",
		},
		{
			name:     "macos users",
			input:    "/users/operator/Library/zaparoo-label/config.toml",
			expected: "/Users/<user>/Library/zaparoo-label/config.toml",
		},
		{
			name:     "windows",
			input:    "d:\\Users\\Operator\\AppData\\zaparoo-label",
			expected: "C:\\Users\\<user>\\AppData\\zaparoo-label",
		},
		{
			name:     "embedded in message",
			input:    "open /home/a/x.db: denied, copy to /home/b/y.db",
			expected: "open /home/<user>/x.db: denied, copy to /home/<user>/y.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizePath(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "label-station-3",
		Message:    "failed to open /home/operator/prints.db",
		Extra: map[string]any{
			"left":  "SSV0001",
			"right": "SSV0002",
			"path":  "/home/operator/x",
			"count": 3,
		},
		Exception: []sentry.Exception{{
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/dev/src/zaparoo-label/pkg/scan/machine.go",
				Filename: "pkg/scan/machine.go",
			}}},
		}},
	}

	got := sanitizeEvent(event)
	require.NotNil(t, got)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "failed to open /home/<user>/prints.db", got.Message)
	assert.Equal(t, "<redacted>", got.Extra["left"])
	assert.Equal(t, "<redacted>", got.Extra["right"])
	assert.Equal(t, "/home/<user>/x", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "/home/<user>/src/zaparoo-label/pkg/scan/machine.go",
		got.Exception[0].Stacktrace.Frames[0].AbsPath)
}

func TestInit_Disabled(t *testing.T) {
	t.Parallel()

	w, err := Init(Options{Enabled: false, DSN: "https://key@example.invalid/1"})
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.False(t, Enabled())
	Close()
}

func TestInit_MissingDSN(t *testing.T) {
	t.Parallel()

	w, err := Init(Options{Enabled: true})
	require.ErrorIs(t, err, ErrNoDSN)
	assert.Nil(t, w)
}
