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

// Package ledger submits completed print jobs to the remote ledger. The
// ledger is bookkeeping only: callers treat every failure as soft.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const printJobsPath = "/api/v1/print-jobs"

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// Submitter records a printed pair remotely. The bool is the ledger's
// acceptance; errors are *SubmitError.
type Submitter interface {
	SubmitPrintJob(ctx context.Context, prefix, leftSerial, rightSerial string) (bool, error)
}

type FailureKind int

const (
	OtherFailure FailureKind = iota
	ServiceUnavailable
)

func (k FailureKind) String() string {
	if k == ServiceUnavailable {
		return "service unavailable"
	}
	return "failure"
}

var ErrServiceUnavailable = errors.New("ledger service unavailable")

// SubmitError classifies a failed submission. errors.Is(err,
// ErrServiceUnavailable) holds for the ServiceUnavailable kind.
type SubmitError struct {
	Err        error
	Kind       FailureKind
	StatusCode int
}

func (e *SubmitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ledger %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ledger %s: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func (e *SubmitError) Is(target error) bool {
	return target == ErrServiceUnavailable && e.Kind == ServiceUnavailable
}

// IsServiceUnavailable reports whether err means the ledger could not be
// reached at all, as opposed to rejecting the job.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

type printJob struct {
	PrintedAt   time.Time `json:"printedAt"`
	DeviceID    string    `json:"deviceId"`
	Prefix      string    `json:"prefix"`
	LeftSerial  string    `json:"leftSerial"`
	RightSerial string    `json:"rightSerial"`
}

type printJobResponse struct {
	Accepted *bool  `json:"accepted"`
	Message  string `json:"message"`
}

type Client struct {
	http     *httpclient.Client
	clock    clockwork.Clock
	endpoint string
	deviceID string
}

var _ Submitter = (*Client)(nil)

// NewClient builds a ledger client from the ledger config section.
func NewClient(cfg *config.Instance) (*Client, error) {
	base := cfg.LedgerURL()
	if base == "" {
		return nil, errors.New("ledger url not configured")
	}
	endpoint, err := url.JoinPath(base, printJobsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger url: %w", err)
	}
	return &Client{
		http:     httpclient.NewClient(cfg.LedgerToken(), cfg.LedgerTimeout()),
		clock:    clockwork.NewRealClock(),
		endpoint: endpoint,
		deviceID: cfg.DeviceID(),
	}, nil
}

func (c *Client) SubmitPrintJob(ctx context.Context, prefix, leftSerial, rightSerial string) (bool, error) {
	body, err := json.Marshal(printJob{
		PrintedAt:   c.clock.Now().UTC(),
		DeviceID:    c.deviceID,
		Prefix:      prefix,
		LeftSerial:  leftSerial,
		RightSerial: rightSerial,
	})
	if err != nil {
		return false, &SubmitError{Kind: OtherFailure, Err: fmt.Errorf("failed to encode print job: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, &SubmitError{Kind: OtherFailure, Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, classifyTransportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing ledger response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			log.Debug().Err(readErr).Msg("error reading ledger error response")
		}
		return false, &SubmitError{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var result printJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return false, &SubmitError{
			Kind:       OtherFailure,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode ledger response: %w", err),
		}
	}
	// an empty body is an acceptance
	if result.Accepted != nil && !*result.Accepted {
		log.Debug().Str("message", result.Message).Msg("ledger declined print job")
		return false, nil
	}
	return true, nil
}

func classifyStatus(code int) FailureKind {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ServiceUnavailable
	default:
		return OtherFailure
	}
}

// classifyTransportError treats every failure to reach the ledger as
// unavailable, except a cancelled caller.
func classifyTransportError(err error) *SubmitError {
	if errors.Is(err, context.Canceled) {
		return &SubmitError{Kind: OtherFailure, Err: err}
	}
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &SubmitError{Kind: ServiceUnavailable, Err: err}
	}
	return &SubmitError{Kind: OtherFailure, Err: err}
}
