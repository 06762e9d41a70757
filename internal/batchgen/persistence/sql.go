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

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore keeps snapshots in a single-table SQL database, one row per
// session, upserted on save. It works against any database/sql driver that
// understands the ON CONFLICT upsert; OpenSQLite wires it to an embedded
// SQLite file.
type SQLStore struct {
	db *sql.DB

	// Per-call timeout fallback if ctx has no deadline.
	defaultTimeout time.Duration
}

const sqlSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    session_id TEXT PRIMARY KEY,
    snapshot   BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// NewSQLStore ensures the schema exists and returns the store. The caller
// keeps ownership of db only until Close, which closes it.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("sql db is required")
	}
	if _, err := db.Exec(sqlSchema); err != nil {
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}
	return &SQLStore{db: db, defaultTimeout: 10 * time.Second}, nil
}

// OpenSQLite opens (or creates) a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s, err := NewSQLStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// withDeadline bounds the call when the caller didn't.
func (s *SQLStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok && s.defaultTimeout > 0 {
		return context.WithTimeout(ctx, s.defaultTimeout)
	}
	return ctx, func() {}
}

// Put upserts the session's snapshot row.
func (s *SQLStore) Put(ctx context.Context, sessionID string, snapshot []byte) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(session_id, snapshot, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		sessionID, snapshot, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert snapshot session=%s: %w", sessionID, err)
	}
	return nil
}

// Get reads the session's snapshot row.
func (s *SQLStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	var b []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM snapshots WHERE session_id = ?`, sessionID).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot session=%s: %w", sessionID, err)
	}
	return b, nil
}

// Delete removes the session's row if present.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshot session=%s: %w", sessionID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }
