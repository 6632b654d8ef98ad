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
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/adrg/xdg"
)

// Dirs are the directories the app reads from and writes to.
type Dirs struct {
	Config   string
	Data     string
	Temp     string
	Mappings string
	Log      string
}

// PortableDirEnv points every directory at a single folder, which is
// useful for running from removable media or in tests.
const PortableDirEnv = "ZAPAROO_LABEL_DIR"

// DefaultDirs resolves directories from the XDG base directory spec. If
// PortableDirEnv is set, or a "user" folder sits next to the executable,
// everything lives there instead.
func DefaultDirs() Dirs {
	if root, ok := portableDir(); ok {
		return Dirs{
			Config:   root,
			Data:     root,
			Temp:     filepath.Join(root, "tmp"),
			Mappings: filepath.Join(root, config.MappingsDir),
			Log:      filepath.Join(root, "logs"),
		}
	}
	data := filepath.Join(xdg.DataHome, config.AppName)
	return Dirs{
		Config:   filepath.Join(xdg.ConfigHome, config.AppName),
		Data:     data,
		Temp:     filepath.Join(os.TempDir(), config.AppName),
		Mappings: filepath.Join(data, config.MappingsDir),
		Log:      filepath.Join(xdg.StateHome, config.AppName),
	}
}

func portableDir() (string, bool) {
	if v := os.Getenv(PortableDirEnv); v != "" {
		return v, true
	}

	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	userDir := filepath.Join(filepath.Dir(exe), config.UserDir)
	info, err := os.Stat(userDir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return userDir, true
}

// Ensure creates every directory in d.
func (d Dirs) Ensure() error {
	for _, p := range []string{d.Config, d.Data, d.Temp, d.Mappings, d.Log} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o750); err != nil {
			return err //nolint:wrapcheck // path is already in the error
		}
	}
	return nil
}
