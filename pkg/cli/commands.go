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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/cpcl"
	"github.com/ZaparooProject/zaparoo-label/pkg/database/printdb"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/ZaparooProject/zaparoo-label/pkg/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errInvalidConfig = errors.New("config is invalid")

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	return nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Run the print station",
		Long:        "Starts the scan session, the barcode readers and the local API.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConsoleLog: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return service.Run(cmd.Context(), e.cfg, service.Options{Dirs: e.dirs})
		},
	}
}

func newGenerateCmd(e *env) *cobra.Command {
	var (
		title   string
		asJSON  bool
		noTitle bool
	)

	cmd := &cobra.Command{
		Use:   "generate LEFT RIGHT",
		Short: "Write the CPCL for a label to stdout",
		Example: `  # Label using the title from the prefix mapping
  zaparoo-label generate SSV0001 SSV0002

  # Send it to a printer by hand
  zaparoo-label generate SSV0001 SSV0002 > /dev/usb/lp0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := e.cfg.LabelSettings()
			var doc cpcl.Document
			switch {
			case noTitle:
				doc = cpcl.GenerateWithTitle(settings, "", args[0], args[1])
			case title != "":
				doc = cpcl.GenerateWithTitle(settings, title, args[0], args[1])
			default:
				doc = cpcl.Generate(settings, args[0], args[1])
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			printWarnings(cmd, doc.Warnings)
			_, err := fmt.Fprint(cmd.OutOrStdout(), doc.Text)
			return err //nolint:wrapcheck // terminal write
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "title printed above the barcodes")
	cmd.Flags().BoolVar(&noTitle, "no-title", false, "leave the title line empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the document with its diagnostics as JSON")
	cmd.MarkFlagsMutuallyExclusive("title", "no-title")

	return cmd
}

func (e *env) send(cmd *cobra.Command, name string, doc cpcl.Document) error {
	printWarnings(cmd, doc.Warnings)

	p := e.newPrinter(e.cfg)
	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.PrinterWriteTimeout())
	defer cancel()

	if err := p.SendDocument(ctx, doc.Text); err != nil {
		log.Error().Err(err).Str("document", name).Msg("print failed")
		return fmt.Errorf("%s: %w", printer.UserMessage(err), err)
	}

	dev, _ := p.Current()
	log.Info().Str("document", name).Str("printer", dev).Msg("printed")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent %s label to %s\n", name, dev)
	return nil
}

func newPrintCmd(e *env) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "print LEFT RIGHT",
		Short: "Print one label without the scan session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := e.cfg.LabelSettings()
			if title != "" {
				return e.send(cmd, "label", cpcl.GenerateWithTitle(settings, title, args[0], args[1]))
			}
			return e.send(cmd, "label", cpcl.Generate(settings, args[0], args[1]))
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "title printed above the barcodes")
	return cmd
}

func newPrintTestCmd(e *env) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "print-test",
		Short: "Print a test label with the configured layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := cpcl.GenerateWithTitle(
				e.cfg.LabelSettings(), title, cpcl.TestPrintLeft, cpcl.TestPrintRight,
			)
			return e.send(cmd, "test", doc)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", cpcl.TestPrintTitle, "title printed above the barcodes")
	return cmd
}

func newCalibrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Print the calibration page for the configured label size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := e.cfg.LabelSettings()
			return e.send(cmd, "calibration", cpcl.CalibrationDocument(settings.WidthMm, settings.HeightMm))
		},
	}
}

func newConnectivityCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "connectivity",
		Short: "Print a fixed label that ignores the label settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.send(cmd, "connectivity", cpcl.ConnectivityTestDocument(config.AppVersion))
		},
	}
}

func newPrintersCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "printers",
		Short: "List attached printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := e.newPrinter(e.cfg).Discover()
			if err != nil {
				return fmt.Errorf("error discovering printers: %w", err)
			}
			if asJSON {
				if devices == nil {
					devices = []printer.Device{}
				}
				return writeJSON(cmd.OutOrStdout(), devices)
			}
			if len(devices) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no printers found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "DRIVER\tPATH\tVID:PID\tNAME")
			for _, d := range devices {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s:%s\t%s\n",
					d.Driver, d.Path, d.VendorID, d.ProductID, d.DisplayName())
			}
			return tw.Flush() //nolint:wrapcheck // terminal write
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newValidateConfigCmd(e *env) *cobra.Command {
	var resetLayout bool

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Check the label settings and prefix mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			// reset before loading mapping files so Save only writes the
			// mappings that came from the config file
			if resetLayout {
				settings := e.cfg.LabelSettings()
				settings.ApplyLayouts(config.DefaultLayouts(
					settings.WidthMm, settings.HeightMm, settings.BarcodeHeightMm, settings.SpacingMm,
				))
				if err := e.cfg.SetLabelSettings(settings); err != nil {
					_, _ = fmt.Fprintln(out, err)
					return errInvalidConfig
				}
				if err := e.cfg.Save(); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				_, _ = fmt.Fprintf(out, "layout reset for %dx%dmm label\n", settings.WidthMm, settings.HeightMm)
			}

			if err := e.cfg.LoadMappings(e.dirs.Mappings); err != nil {
				log.Warn().Err(err).Msg("error loading mapping files")
			}
			printWarnings(cmd, config.PrefixConflicts(e.cfg.PrefixMappings()))

			settings := e.cfg.LabelSettings()
			if err := config.ValidateLabelSettings(settings); err != nil {
				_, _ = fmt.Fprintln(out, err)
				return errInvalidConfig
			}

			// a dry run surfaces clamping and barcode warnings
			doc := cpcl.GenerateWithTitle(settings, cpcl.TestPrintTitle, cpcl.TestPrintLeft, cpcl.TestPrintRight)
			printWarnings(cmd, doc.Warnings)

			_, _ = fmt.Fprintf(out, "%s: ok (%d prefix mappings)\n", e.cfg.Path(), len(settings.PrefixMappings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&resetLayout, "reset-layout", false,
		"replace all element layouts with the default stack for the label size")
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	var (
		asJSON bool
		before int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent print history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := printdb.OpenPrintDB(cmd.Context(), e.dirs.Data)
			if err != nil {
				return fmt.Errorf("error opening print database: %w", err)
			}
			defer func() { _ = db.Close() }()

			entries, err := db.GetHistory(before)
			if err != nil {
				return fmt.Errorf("error reading print history: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTIME\tTYPE\tLEFT\tRIGHT\tSTATUS")
			for _, entry := range entries {
				status := "printed"
				if !entry.Success {
					status = "failed"
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					entry.DBID, entry.Time.Local().Format("2006-01-02 15:04:05"),
					entry.LabelType, entry.LeftSerial, entry.RightSerial, status)
			}
			return tw.Flush() //nolint:wrapcheck // terminal write
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().Int64Var(&before, "before", 0, "only show entries older than this id")
	return cmd
}

func newCountersCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "counters",
		Short: "Show scan, print and error totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := printdb.OpenPrintDB(cmd.Context(), e.dirs.Data)
			if err != nil {
				return fmt.Errorf("error opening print database: %w", err)
			}
			defer func() { _ = db.Close() }()

			counters, err := db.GetCounters()
			if err != nil {
				return fmt.Errorf("error reading counters: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), counters)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "scans\t%d\n", counters.Scans)
			_, _ = fmt.Fprintf(tw, "prints\t%d\n", counters.Prints)
			_, _ = fmt.Fprintf(tw, "errors\t%d\n", counters.Errors)
			for _, key := range slices.Sorted(maps.Keys(counters.TypePrints)) {
				_, _ = fmt.Fprintf(tw, "prints %s\t%d\n", key, counters.TypePrints[key])
			}
			for _, key := range slices.Sorted(maps.Keys(counters.TypeScans)) {
				_, _ = fmt.Fprintf(tw, "scans %s\t%d\n", key, counters.TypeScans[key])
			}
			return tw.Flush() //nolint:wrapcheck // terminal write
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
