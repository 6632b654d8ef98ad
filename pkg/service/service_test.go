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

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/audio"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	err     error
	days    int
	calls   int
	deleted int64
	vacuums int
}

func (f *fakeCleaner) CleanupHistory(days int) (int64, error) {
	f.calls++
	f.days = days
	return f.deleted, f.err
}

func (f *fakeCleaner) Vacuum() error {
	f.vacuums++
	return nil
}

type silentPlayer struct{}

func (silentPlayer) PlayTone(audio.Tone) error { return nil }
func (silentPlayer) PlayFile(string) error     { return nil }
func (silentPlayer) ClearFileCache()           {}

func newConfig(t *testing.T, fs afero.Fs, defaults config.Values) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(fs, "/config", defaults)
	require.NoError(t, err)
	return cfg
}

func TestCleanupHistoryOnStartup(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, afero.NewMemMapFs(), config.BaseDefaults)
	cleaner := &fakeCleaner{}
	cleanupHistoryOnStartup(cfg, cleaner)
	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, config.DefaultRetentionDays, cleaner.days)
	assert.Zero(t, cleaner.vacuums, "nothing deleted, nothing to reclaim")

	cleaner.deleted = 3
	cleanupHistoryOnStartup(cfg, cleaner)
	assert.Equal(t, 2, cleaner.calls)
	assert.Equal(t, 1, cleaner.vacuums)

	cleaner.err = errors.New("locked")
	cleanupHistoryOnStartup(cfg, cleaner)
	assert.Equal(t, 3, cleaner.calls)
	assert.Equal(t, 1, cleaner.vacuums)
}

func TestCleanupHistoryOnStartup_Disabled(t *testing.T) {
	t.Parallel()

	defaults := config.BaseDefaults
	defaults.History.RetentionDays = 0
	cfg := newConfig(t, afero.NewMemMapFs(), defaults)

	cleaner := &fakeCleaner{}
	cleanupHistoryOnStartup(cfg, cleaner)
	assert.Zero(t, cleaner.calls)
}

func TestLoadMappings(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/mappings/site.toml", []byte(`
[[mappings.prefix]]
prefix = "SSV"
label_type = "dualBand"
`), 0o600))

	cfg := newConfig(t, fs, config.BaseDefaults)
	loadMappings(cfg, "/mappings")

	mappings := cfg.PrefixMappings()
	require.Len(t, mappings, 1)
	assert.Equal(t, "SSV", mappings[0].Prefix)

	// a missing directory is logged, not fatal
	loadMappings(cfg, "/missing")
	assert.Len(t, cfg.PrefixMappings(), 1)
}

func TestNewLedger(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, afero.NewMemMapFs(), config.BaseDefaults)
	assert.Nil(t, newLedger(cfg))

	cfg.SetLedger(config.Ledger{Enabled: true, URL: "http://ledger.invalid"})
	assert.NotNil(t, newLedger(cfg))
}

func freePort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dirs := helpers.Dirs{
		Config:   filepath.Join(root, "config"),
		Data:     filepath.Join(root, "data"),
		Temp:     filepath.Join(root, "tmp"),
		Mappings: filepath.Join(root, "data", config.MappingsDir),
		Log:      filepath.Join(root, "logs"),
	}

	defaults := config.BaseDefaults
	defaults.Service.APIPort = freePort(t)
	defaults.Printer.Driver = "serial"
	defaults.Printer.Path = filepath.Join(root, "no-printer")
	noDiscovery := false
	defaults.Service.Discovery.Enabled = &noDiscovery
	cfg, err := config.NewConfig(afero.NewOsFs(), dirs.Config, defaults)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{Dirs: dirs, Player: silentPlayer{}})
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/session", defaults.Service.APIPort)
	require.Eventually(t, func() bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return false
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "service did not stop")
	}
	assert.FileExists(t, filepath.Join(dirs.Data, config.PrintDbFile))
}
