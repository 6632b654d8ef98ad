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

package printdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const historyPageSize = 25

const (
	counterScans      = "scans"
	counterPrints     = "prints"
	counterErrors     = "errors"
	counterTypeScans  = "typeScans"
	counterTypePrints = "typePrints"
)

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run print database migrations: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `vacuum;`)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

//nolint:gocritic // struct passed for DB insertion
func sqlRecordPrint(ctx context.Context, db *sql.DB, entry database.PrintEntry) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into History(
			ID, Time, Prefix, LeftSerial, RightSerial, LabelType, CPCLText, Success
		) values (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()
	_, err = stmt.ExecContext(ctx,
		entry.ID,
		entry.Time.Unix(),
		entry.Prefix,
		entry.LeftSerial,
		entry.RightSerial,
		entry.LabelType,
		entry.CPCLText,
		entry.Success,
	)
	if err != nil {
		return fmt.Errorf("failed to execute history insert: %w", err)
	}
	return nil
}

func sqlGetHistory(ctx context.Context, db *sql.DB, lastID int64) ([]database.PrintEntry, error) {
	list := make([]database.PrintEntry, 0, historyPageSize)
	if lastID <= 0 {
		lastID = math.MaxInt64
	}

	q, err := db.PrepareContext(ctx, `
		select
		DBID, ID, Time, Prefix, LeftSerial, RightSerial, LabelType, CPCLText, Success
		from History
		where DBID < ?
		order by DBID desc
		limit ?;
	`)
	if err != nil {
		return list, fmt.Errorf("failed to prepare history query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := q.QueryContext(ctx, lastID, historyPageSize)
	if err != nil {
		return list, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()
	for rows.Next() {
		row := database.PrintEntry{}
		var timeInt int64
		scanErr := rows.Scan(
			&row.DBID,
			&row.ID,
			&timeInt,
			&row.Prefix,
			&row.LeftSerial,
			&row.RightSerial,
			&row.LabelType,
			&row.CPCLText,
			&row.Success,
		)
		if scanErr != nil {
			return list, fmt.Errorf("failed to scan history row: %w", scanErr)
		}
		row.Time = time.Unix(timeInt, 0)
		list = append(list, row)
	}
	if err = rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating history rows: %w", err)
	}
	return list, nil
}

func sqlCleanupHistory(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `delete from History where Time < ?;`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to execute history cleanup: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func sqlIncrementCounter(ctx context.Context, db *sql.DB, kind, typeKey string) error {
	_, err := db.ExecContext(ctx, `
		insert into Counters(Kind, TypeKey, Value) values (?, ?, 1)
		on conflict(Kind, TypeKey) do update set Value = Value + 1;
	`, kind, typeKey)
	if err != nil {
		return fmt.Errorf("failed to increment %s counter: %w", kind, err)
	}
	return nil
}

func sqlGetCounters(ctx context.Context, db *sql.DB) (database.Counters, error) {
	c := database.Counters{
		TypeScans:  map[string]int64{},
		TypePrints: map[string]int64{},
	}

	rows, err := db.QueryContext(ctx, `select Kind, TypeKey, Value from Counters;`)
	if err != nil {
		return c, fmt.Errorf("failed to query counters: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	for rows.Next() {
		var kind, typeKey string
		var value int64
		if err := rows.Scan(&kind, &typeKey, &value); err != nil {
			return c, fmt.Errorf("failed to scan counter row: %w", err)
		}
		switch kind {
		case counterScans:
			c.Scans = value
		case counterPrints:
			c.Prints = value
		case counterErrors:
			c.Errors = value
		case counterTypeScans:
			c.TypeScans[typeKey] = value
		case counterTypePrints:
			c.TypePrints[typeKey] = value
		default:
			log.Warn().Str("kind", kind).Msg("unknown counter kind")
		}
	}
	if err := rows.Err(); err != nil {
		return c, fmt.Errorf("error iterating counter rows: %w", err)
	}
	return c, nil
}
