// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

// Package session persists RX/TX link logs to SQLite so past passes can be
// reviewed after the terminal is closed.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CTS-SAT-1/ground-support/pkg/uplink"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session not found")

// Session is one recorded terminal run.
type Session struct {
	ID         int64
	Connection string
	StartedAt  time.Time
	EntryCount int
}

// Store is a SQLite-backed session log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the session database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create session directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open session database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		connection  TEXT NOT NULL,
		started_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind        TEXT NOT NULL,
		data        BLOB,
		at_ms       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession creates a session and returns its ID.
func (s *Store) StartSession(ctx context.Context, connection string, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (connection, started_at) VALUES (?, ?)`,
		connection, startedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start session: %w", err)
	}
	return res.LastInsertId()
}

// Append stores entries under a session in order.
func (s *Store) Append(ctx context.Context, sessionID int64, entries ...uplink.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (session_id, kind, data, at_ms) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, sessionID, string(e.Kind), e.Data, e.Time.UnixMilli()); err != nil {
			return fmt.Errorf("failed to append entry: %w", err)
		}
	}
	return tx.Commit()
}

// Sessions lists the most recent sessions first. A limit of zero or less
// returns all of them.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.connection, s.started_at, COUNT(e.id)
		FROM sessions s LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess      Session
			startedMs int64
		)
		if err := rows.Scan(&sess.ID, &sess.Connection, &startedMs, &sess.EntryCount); err != nil {
			return nil, err
		}
		sess.StartedAt = time.UnixMilli(startedMs)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Entries returns the entries of a session in recording order.
func (s *Store) Entries(ctx context.Context, sessionID int64) ([]uplink.Entry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, data, at_ms FROM entries WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var out []uplink.Entry
	for rows.Next() {
		var (
			kind string
			data []byte
			atMs int64
		)
		if err := rows.Scan(&kind, &data, &atMs); err != nil {
			return nil, err
		}
		out = append(out, uplink.Entry{Kind: uplink.EntryKind(kind), Data: data, Time: time.UnixMilli(atMs)})
	}
	return out, rows.Err()
}
