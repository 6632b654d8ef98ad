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

package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // replaces the global logger
func TestInitLogging_WritesFileAndExtraWriter(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	logDir := filepath.Join(t.TempDir(), "logs", "nested")
	var buf bytes.Buffer

	require.NoError(t, InitLogging(logDir, &buf))

	log.Info().Str("serial", "SS123").Msg("hello")

	assert.Contains(t, buf.String(), `"serial":"SS123"`)

	data, err := os.ReadFile(filepath.Join(logDir, config.LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDirsEnsure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d := Dirs{
		Config:   filepath.Join(root, "c"),
		Data:     filepath.Join(root, "d"),
		Temp:     filepath.Join(root, "t", "x"),
		Mappings: filepath.Join(root, "d", config.MappingsDir),
		Log:      filepath.Join(root, "l"),
	}
	require.NoError(t, d.Ensure())

	for _, p := range []string{d.Config, d.Data, d.Temp, d.Mappings, d.Log} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

//nolint:paralleltest // sets an environment variable
func TestDefaultDirs_PortableOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv(PortableDirEnv, root)

	d := DefaultDirs()
	assert.Equal(t, root, d.Config)
	assert.Equal(t, root, d.Data)
	assert.Equal(t, filepath.Join(root, config.MappingsDir), d.Mappings)
	assert.Equal(t, filepath.Join(root, "logs"), d.Log)
}
