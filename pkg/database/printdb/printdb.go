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

// Package printdb is the local sqlite store for print history and the
// diagnostics counters.
package printdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("PrintDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type PrintDB struct {
	sql     *sql.DB
	ctx     context.Context
	clock   clockwork.Clock
	dataDir string
}

var _ database.PrintDBI = (*PrintDB)(nil)

func OpenPrintDB(ctx context.Context, dataDir string) (*PrintDB, error) {
	db := &PrintDB{ctx: ctx, dataDir: dataDir, clock: clockwork.NewRealClock()}
	err := db.Open()
	return db, err
}

func (db *PrintDB) Open() error {
	dbPath := db.GetDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for database: %w", err)
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	// migrations are idempotent, so existing files are brought up to date
	return db.Allocate()
}

func (db *PrintDB) GetDBPath() string {
	return filepath.Join(db.dataDir, config.PrintDbFile)
}

func (db *PrintDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *PrintDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *PrintDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

func (db *PrintDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting injects an open sql.DB and runs migrations on it.
func (db *PrintDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB, clock clockwork.Clock) error {
	db.sql = sqlDB
	db.ctx = ctx
	db.clock = clock
	return db.Allocate()
}

// RecordPrint stores entry, filling in a new id and the current time when
// they are unset.
func (db *PrintDB) RecordPrint(entry *database.PrintEntry) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Time.IsZero() {
		entry.Time = db.clock.Now()
	}
	return sqlRecordPrint(db.ctx, db.sql, *entry)
}

// GetHistory returns up to a page of entries older than lastID, newest
// first. A lastID of 0 starts from the newest entry.
func (db *PrintDB) GetHistory(lastID int64) ([]database.PrintEntry, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetHistory(db.ctx, db.sql, lastID)
}

func (db *PrintDB) CleanupHistory(retentionDays int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	cutoff := db.clock.Now().AddDate(0, 0, -retentionDays)
	return sqlCleanupHistory(db.ctx, db.sql, cutoff)
}

func (db *PrintDB) IncrementScan() error {
	return db.increment(counterScans, "")
}

func (db *PrintDB) IncrementPrint() error {
	return db.increment(counterPrints, "")
}

func (db *PrintDB) IncrementError() error {
	return db.increment(counterErrors, "")
}

func (db *PrintDB) IncrementTypeScan(prefix, labelType string) error {
	return db.increment(counterTypeScans, config.TypeKey(prefix, labelType))
}

func (db *PrintDB) IncrementTypePrint(prefix, labelType string) error {
	return db.increment(counterTypePrints, config.TypeKey(prefix, labelType))
}

func (db *PrintDB) increment(kind, typeKey string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlIncrementCounter(db.ctx, db.sql, kind, typeKey)
}

func (db *PrintDB) GetCounters() (database.Counters, error) {
	if db.sql == nil {
		return database.Counters{}, ErrNullSQL
	}
	return sqlGetCounters(db.ctx, db.sql)
}
