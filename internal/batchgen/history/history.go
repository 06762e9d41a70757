// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history records drawn batches in SQLite so sessions can be audited
// after the fact. It is optional; the service runs without it when no
// database path is configured.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fairdraw"
)

const schema = `
CREATE TABLE IF NOT EXISTS draws (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT    NOT NULL,
    seq        INTEGER NOT NULL,
    drawn_at   INTEGER NOT NULL,
    batch      TEXT    NOT NULL,
    start      INTEGER NOT NULL,
    n          INTEGER NOT NULL,
    k          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_draws_session ON draws(session_id, id);
`

// Record is one archived draw.
type Record struct {
	Session string    `json:"session"`
	Seq     int64     `json:"seq"`
	DrawnAt time.Time `json:"drawn_at"`
	Batch   []int64   `json:"batch"`
	Start   int64     `json:"start"`
	N       int64     `json:"n"`
	K       int64     `json:"k"`
}

// Store is the draw archive. Safe for concurrent use; database/sql pools
// connections underneath.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure draws table: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordDraw archives one draw.
func (s *Store) RecordDraw(ctx context.Context, session string, seq int64, at time.Time, batch []int64, cfg fairdraw.Config) error {
	encoded, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO draws (session_id, seq, drawn_at, batch, start, n, k)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session, seq, at.UnixMilli(), string(encoded),
		cfg.Range.Start, cfg.Range.Count, cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("insert draw session=%s seq=%d: %w", session, seq, err)
	}
	return nil
}

// RecentDraws returns the session's latest draws, newest first. limit caps
// the result; values below 1 default to 20.
func (s *Store) RecentDraws(ctx context.Context, session string, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, seq, drawn_at, batch, start, n, k
		 FROM draws WHERE session_id = ?
		 ORDER BY id DESC LIMIT ?`, session, limit)
	if err != nil {
		return nil, fmt.Errorf("query draws session=%s: %w", session, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var at int64
		var batch string
		if err := rows.Scan(&rec.Session, &rec.Seq, &at, &batch, &rec.Start, &rec.N, &rec.K); err != nil {
			return nil, fmt.Errorf("scan draw row: %w", err)
		}
		rec.DrawnAt = time.UnixMilli(at)
		if err := json.Unmarshal([]byte(batch), &rec.Batch); err != nil {
			return nil, fmt.Errorf("decode batch for seq %d: %w", rec.Seq, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
