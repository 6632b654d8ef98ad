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
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/rs/zerolog/log"
)

// Kind is an operator feedback event.
type Kind string

const (
	KindSuccess       Kind = "success"
	KindError         Kind = "error"
	KindPrintComplete Kind = "printComplete"
)

// Feedback plays the configured sound for each feedback kind. Playback
// errors are logged and never returned.
type Feedback struct {
	player  Player
	cfg     *config.Instance
	dataDir string
}

func NewFeedback(player Player, cfg *config.Instance, dataDir string) *Feedback {
	return &Feedback{player: player, cfg: cfg, dataDir: dataDir}
}

func defaultTone(kind Kind) Tone {
	switch kind {
	case KindError:
		return ErrorTone
	case KindPrintComplete:
		return PrintCompleteTone
	default:
		return SuccessTone
	}
}

func (f *Feedback) soundPath(kind Kind) (string, bool) {
	switch kind {
	case KindError:
		return f.cfg.FailSoundPath(f.dataDir)
	case KindPrintComplete:
		return f.cfg.PrintCompleteSoundPath(f.dataDir)
	default:
		return f.cfg.SuccessSoundPath(f.dataDir)
	}
}

// Play is fire-and-forget: sound starts in the background.
func (f *Feedback) Play(kind Kind) {
	if f == nil || f.player == nil || f.cfg == nil || !f.cfg.AudioFeedback() {
		return
	}

	path, enabled := f.soundPath(kind)
	if !enabled {
		return
	}

	if path == "" {
		if err := f.player.PlayTone(defaultTone(kind)); err != nil {
			log.Warn().Err(err).Msgf("error playing %s sound", kind)
		}
		return
	}

	if err := f.player.PlayFile(path); err != nil {
		log.Warn().Str("path", path).Err(err).Msgf("error playing custom %s sound", kind)
	}
}
