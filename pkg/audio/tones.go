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

package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

// Note is one step of a tone. A zero frequency is a rest.
type Note struct {
	Freq     float64
	Duration time.Duration
}

// Tone is a short sequence of sine notes played at a fixed volume.
type Tone struct {
	Name  string
	Notes []Note
	// Gain is added to unity volume, so -0.5 halves the amplitude.
	Gain float64
}

var (
	SuccessTone = Tone{
		Name: "success",
		Gain: -0.6,
		Notes: []Note{
			{Freq: 1318.5, Duration: 70 * time.Millisecond},
			{Freq: 1760, Duration: 110 * time.Millisecond},
		},
	}
	ErrorTone = Tone{
		Name: "error",
		Gain: -0.5,
		Notes: []Note{
			{Freq: 330, Duration: 150 * time.Millisecond},
			{Duration: 40 * time.Millisecond},
			{Freq: 220, Duration: 250 * time.Millisecond},
		},
	}
	PrintCompleteTone = Tone{
		Name: "printComplete",
		Gain: -0.6,
		Notes: []Note{
			{Freq: 1046.5, Duration: 80 * time.Millisecond},
			{Freq: 1318.5, Duration: 80 * time.Millisecond},
			{Freq: 1568, Duration: 160 * time.Millisecond},
		},
	}
)

var errEmptyTone = errors.New("tone has no notes")

func silence() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		clear(samples)
		return len(samples), true
	})
}

// Streamer renders the tone at sample rate sr.
func (t Tone) Streamer(sr beep.SampleRate) (beep.Streamer, error) {
	if len(t.Notes) == 0 {
		return nil, errEmptyTone
	}
	parts := make([]beep.Streamer, 0, len(t.Notes))
	for _, n := range t.Notes {
		src := silence()
		if n.Freq > 0 {
			sine, err := generators.SineTone(sr, n.Freq)
			if err != nil {
				return nil, fmt.Errorf("tone %s: %w", t.Name, err)
			}
			src = sine
		}
		parts = append(parts, beep.Take(sr.N(n.Duration), src))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: t.Gain}, nil
}

// Duration is the total length of the tone.
func (t Tone) Duration() time.Duration {
	var d time.Duration
	for _, n := range t.Notes {
		d += n.Duration
	}
	return d
}
