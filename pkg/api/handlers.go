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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ZaparooProject/zaparoo-label/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-label/pkg/cpcl"
	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/ZaparooProject/zaparoo-label/pkg/scan"
	"github.com/rs/zerolog/log"
)

type ScanParams struct {
	Value     string `json:"value" validate:"max=256,serial"`
	Field     int    `json:"field" validate:"oneof=1 2"`
	Terminate bool   `json:"terminate"`
}

type FocusedScanParams struct {
	Value string `json:"value" validate:"required,max=256,serial"`
}

type TestPrintParams struct {
	Title string `json:"title" validate:"max=64,serial"`
	Left  string `json:"left" validate:"max=256,serial"`
	Right string `json:"right" validate:"max=256,serial"`
}

type PrintResponse struct {
	Warnings []string `json:"warnings"`
	Lines    int      `json:"lines"`
}

type PrinterResponse struct {
	Connected bool `json:"connected"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type errorResponse struct {
	Error  string                   `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a bounded request body into dest and validates it. An empty
// body is allowed when optional is set. It writes the error response itself.
func decode[T any](w http.ResponseWriter, r *http.Request, dest *T, optional bool) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return false
	}
	if len(body) > maxBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return false
	}
	if len(body) == 0 && optional {
		return true
	}

	err = validation.ValidateAndUnmarshal(body, dest)
	var valErr *validation.Error
	switch {
	case err == nil:
		return true
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: valErr.Error(), Fields: valErr.Fields})
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
	return false
}

func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrPrinting), errors.Is(err, scan.ErrNothingToRetry):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scan.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Msg("scan request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.env.Scanner.Snapshot())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var params ScanParams
	if !decode(w, r, &params, false) {
		return
	}
	field := scan.Field(params.Field)
	s.env.Scanner.Input(field, params.Value)
	if params.Terminate {
		s.env.Scanner.Terminate(field)
	}
	writeJSON(w, http.StatusAccepted, s.env.Scanner.Snapshot())
}

func (s *Server) handleScanFocused(w http.ResponseWriter, r *http.Request) {
	var params FocusedScanParams
	if !decode(w, r, &params, false) {
		return
	}
	s.env.Scanner.SubmitFocused(params.Value)
	writeJSON(w, http.StatusAccepted, s.env.Scanner.Snapshot())
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	if err := s.env.Scanner.Clear(); err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.env.Scanner.Snapshot())
}

func (s *Server) handleRetry(w http.ResponseWriter, _ *http.Request) {
	if err := s.env.Scanner.Retry(); err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.env.Scanner.Snapshot())
}

func (s *Server) handlePrinter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PrinterResponse{Connected: s.env.Printer.IsConnected()})
}

// handlePrinterRediscover forgets the selected printer, for when it was
// swapped or replugged while the old device node still answers.
func (s *Server) handlePrinterRediscover(w http.ResponseWriter, _ *http.Request) {
	log.Info().Msg("printer rediscovery requested")
	s.env.Printer.Reset()
	writeJSON(w, http.StatusOK, PrinterResponse{Connected: s.env.Printer.IsConnected()})
}

func (s *Server) sendDocument(w http.ResponseWriter, r *http.Request, name string, doc cpcl.Document) {
	for _, warning := range doc.Warnings {
		log.Warn().Str("document", name).Msg(warning)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.env.Config.PrinterWriteTimeout())
	defer cancel()
	if err := s.env.Printer.SendDocument(ctx, doc.Text); err != nil {
		log.Error().Err(err).Str("document", name).Msg("failed to send document")
		status := http.StatusBadGateway
		if errors.Is(err, printer.ErrNotConnected) || errors.Is(err, printer.ErrNoPrinter) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, printer.UserMessage(err))
		return
	}

	log.Info().Str("document", name).Int("lines", len(doc.Lines)).Msg("document printed")
	warnings := doc.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, PrintResponse{Lines: len(doc.Lines), Warnings: warnings})
}

func (s *Server) handleTestPrint(w http.ResponseWriter, r *http.Request) {
	var params TestPrintParams
	if !decode(w, r, &params, true) {
		return
	}
	if params.Title == "" {
		params.Title = cpcl.TestPrintTitle
	}
	if params.Left == "" {
		params.Left = cpcl.TestPrintLeft
	}
	if params.Right == "" {
		params.Right = cpcl.TestPrintRight
	}
	doc := cpcl.GenerateWithTitle(s.env.Config.LabelSettings(), params.Title, params.Left, params.Right)
	s.sendDocument(w, r, "test", doc)
}

func (s *Server) handleCalibrationPrint(w http.ResponseWriter, r *http.Request) {
	settings := s.env.Config.LabelSettings()
	s.sendDocument(w, r, "calibration", cpcl.CalibrationDocument(settings.WidthMm, settings.HeightMm))
}

func (s *Server) handleConnectivityPrint(w http.ResponseWriter, r *http.Request) {
	s.sendDocument(w, r, "connectivity", cpcl.ConnectivityTestDocument(s.env.Version))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.env.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	var lastID int64
	if raw := r.URL.Query().Get("lastId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "lastId must be a non-negative integer")
			return
		}
		lastID = id
	}

	entries, err := s.env.Store.GetHistory(lastID)
	if err != nil {
		log.Error().Err(err).Msg("failed to read print history")
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []database.PrintEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCounters(w http.ResponseWriter, _ *http.Request) {
	if s.env.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "counters unavailable")
		return
	}
	counters, err := s.env.Store.GetCounters()
	if err != nil {
		log.Error().Err(err).Msg("failed to read counters")
		writeError(w, http.StatusInternalServerError, "failed to read counters")
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.env.Version})
}
