// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package ledger persists every ScoreMap handed back to the caller, keyed by
// objective and iteration, in SQLite or Postgres.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/specialistvlad/moldyngo/internal/objective"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Supported driver names, as accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// dialect captures the few places SQLite and Postgres differ.
type dialect struct {
	sqlDriver   string
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		sqlDriver:   "sqlite",
		placeholder: func(int) string { return "?" },
	},
	DriverPostgres: {
		sqlDriver:   "pgx",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	},
}

// Store is a ScoreMap ledger.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the ledger database and creates the scores table if it
// does not exist. For SQLite, dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("ledger dsn required")
	}
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	openMu.Lock()
	db, err := sqlOpen(d.sqlDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS scores (
		objective   TEXT NOT NULL,
		iteration   INTEGER NOT NULL,
		molecule_id TEXT NOT NULL,
		score       DOUBLE PRECISION,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (objective, iteration, molecule_id)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create scores table: %w", err)
	}
	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record upserts every entry of scores under (kind, iteration) in a single
// transaction. Missing scores are stored as NULL.
func (s *Store) Record(ctx context.Context, kind string, iteration int, scores objective.ScoreMap) error {
	if len(scores) == 0 {
		return nil
	}
	p := s.dialect.placeholder
	stmt := fmt.Sprintf(`INSERT INTO scores (objective, iteration, molecule_id, score, recorded_at)
		VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (objective, iteration, molecule_id)
		DO UPDATE SET score = excluded.score, recorded_at = excluded.recorded_at`,
		p(1), p(2), p(3), p(4), p(5))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = prepared.Close() }()

	at := s.now().UTC().Format(time.RFC3339Nano)
	for _, id := range scores.IDs() {
		var value sql.NullFloat64
		if v, ok := scores[id].Float64(); ok {
			value = sql.NullFloat64{Float64: v, Valid: true}
		}
		if _, err := prepared.ExecContext(ctx, kind, iteration, id, value, at); err != nil {
			return fmt.Errorf("insert score for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Scores returns what was recorded under (kind, iteration).
func (s *Store) Scores(ctx context.Context, kind string, iteration int) (objective.ScoreMap, error) {
	p := s.dialect.placeholder
	query := fmt.Sprintf(`SELECT molecule_id, score FROM scores WHERE objective = %s AND iteration = %s`, p(1), p(2))

	rows, err := s.db.QueryContext(ctx, query, kind, iteration)
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := objective.ScoreMap{}
	for rows.Next() {
		var (
			id    string
			value sql.NullFloat64
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if value.Valid {
			out[id] = objective.Value(value.Float64)
		} else {
			out[id] = objective.Missing
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

// Drivers lists the accepted driver names.
func Drivers() string {
	return strings.Join([]string{DriverSQLite, DriverPostgres}, ", ")
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
