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

// Package cli holds the zaparoo-label command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/zaparoo-label/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// annotationConsoleLog marks commands that also log to stderr.
const annotationConsoleLog = "console-log"

// Setup creates the directories, starts logging, loads the config and
// starts error reporting if it is enabled. Nil writers are skipped.
func Setup(dirs helpers.Dirs, writers ...io.Writer) (*config.Instance, error) {
	if err := dirs.Ensure(); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	logWriters := make([]io.Writer, 0, len(writers)+1)
	for _, w := range writers {
		if w != nil {
			logWriters = append(logWriters, w)
		}
	}
	if err := helpers.InitLogging(dirs.Log, logWriters...); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(afero.NewOsFs(), dirs.Config, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	reporter, err := telemetry.Init(telemetry.Options{
		Enabled:    cfg.ErrorReporting(),
		DSN:        cfg.SentryDSN(),
		DeviceID:   cfg.DeviceID(),
		AppVersion: config.AppVersion,
	})
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	case reporter != nil:
		logWriters = append(logWriters, reporter)
		if err := helpers.InitLogging(dirs.Log, logWriters...); err != nil {
			return nil, fmt.Errorf("error initializing logging: %w", err)
		}
	}

	return cfg, nil
}

// printerDevice is the part of printer.Manager the commands use.
type printerDevice interface {
	SendDocument(ctx context.Context, text string) error
	Current() (string, bool)
	Discover() ([]printer.Device, error)
}

type env struct {
	cfg        *config.Instance
	newPrinter func(cfg *config.Instance) printerDevice
	dirs       helpers.Dirs
	configPath string
	debug      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{
		newPrinter: func(cfg *config.Instance) printerDevice {
			return printer.NewManager(cfg)
		},
	})
}

func newRootCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Two-step barcode label print station",
		Long: `Zaparoo Label pairs two scanned serial numbers and prints them on a
single label through a CPCL printer.

Run "serve" on the print station; the other commands generate, print and
inspect labels from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional
			_ = godotenv.Load()
			return e.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			telemetry.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&e.configPath, "config", "", "path to the config file")
	cmd.PersistentFlags().BoolVar(&e.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(e),
		newGenerateCmd(e),
		newPrintCmd(e),
		newPrintTestCmd(e),
		newCalibrateCmd(e),
		newConnectivityCmd(e),
		newPrintersCmd(e),
		newValidateConfigCmd(e),
		newHistoryCmd(e),
		newCountersCmd(e),
	)

	return cmd
}

func (e *env) setup(cmd *cobra.Command) error {
	if e.configPath != "" {
		if err := os.Setenv(config.CfgEnv, e.configPath); err != nil {
			return fmt.Errorf("error setting config path: %w", err)
		}
	}

	e.dirs = helpers.DefaultDirs()

	var console io.Writer
	if cmd.Annotations[annotationConsoleLog] == "true" {
		console = helpers.ConsoleWriter(cmd.ErrOrStderr())
	}

	cfg, err := Setup(e.dirs, console)
	if err != nil {
		return err
	}
	if e.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	e.cfg = cfg
	return nil
}
