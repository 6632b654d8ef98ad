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

// Package service wires the print station together and runs it.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-label/pkg/api"
	"github.com/ZaparooProject/zaparoo-label/pkg/audio"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/database/printdb"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-label/pkg/ledger"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers/mqtt"
	"github.com/ZaparooProject/zaparoo-label/pkg/readers/rs232barcode"
	"github.com/ZaparooProject/zaparoo-label/pkg/scan"
	"github.com/ZaparooProject/zaparoo-label/pkg/service/discovery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const notificationBuffer = 100

type Options struct {
	// Player overrides the audio output, mainly for tests.
	Player audio.Player
	Dirs   helpers.Dirs
}

type historyCleaner interface {
	CleanupHistory(retentionDays int) (int64, error)
	Vacuum() error
}

func cleanupHistoryOnStartup(cfg *config.Instance, db historyCleaner) {
	days := cfg.HistoryRetentionDays()
	if days <= 0 {
		log.Debug().Msg("print history cleanup disabled (retention set to 0)")
		return
	}

	log.Info().Msgf("cleaning up print history older than %d days", days)
	rowsDeleted, err := db.CleanupHistory(days)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("error cleaning up print history")
	case rowsDeleted > 0:
		log.Info().Msgf("deleted %d old print history entries", rowsDeleted)
		if vacErr := db.Vacuum(); vacErr != nil {
			log.Warn().Err(vacErr).Msg("error vacuuming print database")
		}
	default:
		log.Debug().Msg("no old print history entries to clean up")
	}
}

// loadMappings adds mapping files to the configured prefixes and reports
// prefixes that can never match.
func loadMappings(cfg *config.Instance, dir string) {
	log.Info().Msg("loading mapping files")
	if err := cfg.LoadMappings(dir); err != nil {
		log.Error().Err(err).Msg("error loading mapping files")
	}
	for _, conflict := range config.PrefixConflicts(cfg.PrefixMappings()) {
		log.Warn().Msg(conflict)
	}
	if err := config.ValidateLabelSettings(cfg.LabelSettings()); err != nil {
		log.Warn().Err(err).Msg("label settings are invalid, labels may print incorrectly")
	}
}

func newLedger(cfg *config.Instance) ledger.Submitter {
	if !cfg.LedgerEnabled() {
		log.Info().Msg("ledger disabled")
		return nil
	}
	client, err := ledger.NewClient(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create ledger client, continuing without ledger")
		return nil
	}
	log.Info().Str("url", cfg.LedgerURL()).Msg("ledger enabled")
	return client
}

// Run starts the print station and blocks until ctx is done or a
// component fails.
func Run(ctx context.Context, cfg *config.Instance, opts Options) error {
	log.Info().Msgf("version: %s", config.AppVersion)

	if err := opts.Dirs.Ensure(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	loadMappings(cfg, opts.Dirs.Mappings)

	log.Info().Msg("opening print database")
	db, err := printdb.OpenPrintDB(ctx, opts.Dirs.Data)
	if err != nil {
		return fmt.Errorf("failed to open print database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing print database")
		}
	}()
	cleanupHistoryOnStartup(cfg, db)

	player := opts.Player
	if player == nil {
		player = audio.NewMalgoPlayer()
	}

	printers := printer.NewManager(cfg)
	if dev, ok := printers.Current(); ok {
		log.Info().Str("printer", dev).Msg("printer connected")
	} else {
		log.Warn().Msg("no printer connected yet")
	}

	notifications := make(chan scan.Notification, notificationBuffer)
	machine := scan.NewMachine(scan.Deps{
		Settings:      cfg,
		Printer:       printers,
		Sounds:        audio.NewFeedback(player, cfg, opts.Dirs.Data),
		History:       db,
		Counters:      db,
		Ledger:        newLedger(cfg),
		Notify:        notifications,
		Debounce:      cfg.ScanDebounce(),
		LedgerTimeout: cfg.LedgerTimeout(),
		MinLength:     cfg.ScanMinLength(),
	})
	defer machine.Close()

	scanners := readers.NewManager(cfg,
		func() readers.Reader { return rs232barcode.NewReader() },
		func() readers.Reader { return mqtt.NewReader() },
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msg("starting API service")
		return api.Start(gctx, api.Env{
			Config:  cfg,
			Scanner: machine,
			Printer: printers,
			Store:   db,
			Version: config.AppVersion,
		}, notifications)
	})
	g.Go(func() error {
		log.Info().Msg("starting reader manager")
		return scanners.Run(gctx, func(s readers.Scan) {
			machine.SubmitFocused(s.Value)
		})
	})

	g.Go(func() error {
		return discovery.New(cfg, func() string {
			dev, _ := printers.Current()
			return dev
		}).Run(gctx)
	})

	err = g.Wait()
	log.Info().Msg("service stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
