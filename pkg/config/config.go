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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ZAPAROO_LABEL_CFG"

	DefaultAPIPort         = 7598
	DefaultDebounceMs      = 150
	DefaultMinScanLength   = 3
	DefaultLedgerTimeout   = 10 * time.Second
	DefaultPrinterTimeout  = 10 * time.Second
	DefaultPrinterBaudRate = 115200
	DefaultRetentionDays   = 365
)

type Values struct {
	Label        LabelSettings `toml:"label"`
	Mappings     Mappings      `toml:"mappings,omitempty"`
	Printer      Printer       `toml:"printer"`
	Audio        Audio         `toml:"audio"`
	Scan         Scan          `toml:"scan"`
	Ledger       Ledger        `toml:"ledger,omitempty"`
	Readers      Readers       `toml:"readers,omitempty"`
	History      History       `toml:"history"`
	Service      Service       `toml:"service"`
	ConfigSchema int           `toml:"config_schema"`
	DebugLogging bool          `toml:"debug_logging"`
}

type Audio struct {
	SuccessSound       *string `toml:"success_sound,omitempty"`
	FailSound          *string `toml:"fail_sound,omitempty"`
	PrintCompleteSound *string `toml:"print_complete_sound,omitempty"`
	ScanFeedback       bool    `toml:"scan_feedback"`
}

type Scan struct {
	DebounceMs int `toml:"debounce_ms,omitempty"`
	MinLength  int `toml:"min_length,omitempty"`
}

type History struct {
	// RetentionDays is how long print history is kept. 0 keeps it forever.
	RetentionDays int `toml:"retention_days"`
}

type Service struct {
	Discovery      Discovery `toml:"discovery,omitempty"`
	DeviceID       string    `toml:"device_id"`
	SentryDSN      string    `toml:"sentry_dsn,omitempty"`
	AllowedIPs     []string  `toml:"allowed_ips,omitempty"`
	APIPort        int       `toml:"api_port,omitempty"`
	ErrorReporting bool      `toml:"error_reporting,omitempty"`
}

// Discovery controls mDNS advertising of the API.
type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Label:        DefaultLabelSettings(),
	Audio: Audio{
		ScanFeedback: true,
	},
	Scan: Scan{
		DebounceMs: DefaultDebounceMs,
		MinLength:  DefaultMinScanLength,
	},
	Printer: Printer{
		Driver: PrinterDriverAuto,
	},
	History: History{
		RetentionDays: DefaultRetentionDays,
	},
	Service: Service{
		APIPort: DefaultAPIPort,
	},
}

// Instance is the settings store. Every getter returns a copy taken under
// the read lock, so callers always see a consistent snapshot.
type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := fs.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	newVals.Mappings = Mappings{}
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := ValidateLabelSettings(newVals.labelSettings()); err != nil {
		// an invalid file is still loaded, printing will surface the
		// problems through generator warnings
		log.Warn().Err(err).Msg("label settings failed validation")
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.Service.DeviceID == "" {
		newID := uuid.New().String()
		c.vals.Service.DeviceID = newID
		log.Info().Msgf("generated new device id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (c *Instance) AudioFeedback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Audio.ScanFeedback
}

func (c *Instance) SetAudioFeedback(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Audio.ScanFeedback = enabled
}

// soundPath resolves a configured sound. nil means the built-in tone, an
// empty string disables the sound and relative paths resolve against dataDir.
func soundPath(v *string, dataDir string) (string, bool) {
	if v == nil {
		return "", true
	}
	if *v == "" {
		return "", false
	}
	if filepath.IsAbs(*v) {
		return *v, true
	}
	return filepath.Join(dataDir, *v), true
}

func (c *Instance) SuccessSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return soundPath(c.vals.Audio.SuccessSound, dataDir)
}

func (c *Instance) FailSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return soundPath(c.vals.Audio.FailSound, dataDir)
}

func (c *Instance) PrintCompleteSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return soundPath(c.vals.Audio.PrintCompleteSound, dataDir)
}

func (c *Instance) ScanDebounce() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Scan.DebounceMs <= 0 {
		return DefaultDebounceMs * time.Millisecond
	}
	return time.Duration(c.vals.Scan.DebounceMs) * time.Millisecond
}

func (c *Instance) ScanMinLength() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Scan.MinLength <= 0 {
		return DefaultMinScanLength
	}
	return c.vals.Scan.MinLength
}

func (c *Instance) SetScanDebounce(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Scan.DebounceMs = int(d / time.Millisecond)
}

func (c *Instance) HistoryRetentionDays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return max(c.vals.History.RetentionDays, 0)
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIPort == 0 {
		return DefaultAPIPort
	}
	return c.vals.Service.APIPort
}

// AllowedIPs lists the addresses and CIDR ranges allowed to reach the API.
// Empty allows everyone.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Service.AllowedIPs...)
}

func (c *Instance) SetAllowedIPs(ips []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.AllowedIPs = append([]string(nil), ips...)
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReporting
}

func (c *Instance) SentryDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.SentryDSN
}

// DiscoveryEnabled reports whether the API is advertised over mDNS. It is
// on unless explicitly disabled.
func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.Discovery.Enabled == nil {
		return true
	}
	return *c.vals.Service.Discovery.Enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Discovery.InstanceName
}

func (c *Instance) SetDiscovery(d Discovery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.Discovery = d
}
