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

package mocks

import (
	"context"

	"github.com/ZaparooProject/zaparoo-label/pkg/ledger"
	"github.com/stretchr/testify/mock"
)

// MockSubmitter is a testify mock of ledger.Submitter. Errors are returned
// unwrapped so callers can classify them.
type MockSubmitter struct {
	mock.Mock
}

var _ ledger.Submitter = (*MockSubmitter)(nil)

func (m *MockSubmitter) SubmitPrintJob(ctx context.Context, prefix, leftSerial, rightSerial string) (bool, error) {
	args := m.Called(ctx, prefix, leftSerial, rightSerial)
	return args.Bool(0), args.Error(1) //nolint:wrapcheck // classification needs the original error
}
