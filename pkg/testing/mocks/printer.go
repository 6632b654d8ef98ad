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
	"fmt"

	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock of printer.Transport. It also has the
// Reset method of the printer manager.
type MockTransport struct {
	mock.Mock
}

var _ printer.Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// SetupConnected makes the printer report connected and accept every
// document.
func (m *MockTransport) SetupConnected() {
	m.On("IsConnected").Return(true).Maybe()
	m.On("SendDocument", mock.Anything, mock.AnythingOfType("string")).Return(nil).Maybe()
}

func (m *MockTransport) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTransport) SendDocument(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockTransport) Reset() {
	m.Called()
}

// SentDocuments returns the text of every SendDocument call.
func (m *MockTransport) SentDocuments() []string {
	var docs []string
	for _, c := range m.Calls {
		if c.Method == "SendDocument" {
			if text, ok := c.Arguments.Get(1).(string); ok {
				docs = append(docs, text)
			}
		}
	}
	return docs
}
