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
	"github.com/ZaparooProject/zaparoo-label/pkg/audio"
	"github.com/stretchr/testify/mock"
)

// MockFeedback records played sounds.
type MockFeedback struct {
	mock.Mock
}

func NewMockFeedback() *MockFeedback {
	m := &MockFeedback{}
	m.On("Play", mock.Anything).Return().Maybe()
	return m
}

func (m *MockFeedback) Play(kind audio.Kind) {
	m.Called(kind)
}

// Played lists sounds in play order.
func (m *MockFeedback) Played() []audio.Kind {
	var kinds []audio.Kind
	for _, c := range m.Calls {
		if c.Method != "Play" {
			continue
		}
		if k, ok := c.Arguments.Get(0).(audio.Kind); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
