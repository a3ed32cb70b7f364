// Copyright 2025 Tom Barlow
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

// Package recstore provides SQLite-backed durable storage for recordings.
package recstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tombee/capio/pkg/ioctx"
)

// Store persists recordings in a SQLite database.
type Store struct {
	db *sql.DB
}

// Config contains SQLite storage configuration.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// Special value ":memory:" creates an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	// Default: 5. With WAL mode SQLite handles concurrent readers.
	MaxOpenConns int
}

// Summary describes a stored recording without its records.
type Summary struct {
	ID          string
	CreatedAt   time.Time
	RecordCount int
}

// New opens (and if necessary creates) a recording store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns == 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			stored_at INTEGER NOT NULL
		)`,
		// One row per record, ordered by seq within a recording. The
		// outcome keeps its JSON shape so schema changes in the record
		// model don't require migrations.
		`CREATE TABLE IF NOT EXISTS records (
			recording_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			op TEXT NOT NULL,
			args TEXT NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (recording_id, seq),
			FOREIGN KEY (recording_id) REFERENCES recordings(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_recording_id ON records(recording_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Save stores a recording. Saving a recording whose ID already exists
// replaces the previous copy.
func (s *Store) Save(ctx context.Context, rec ioctx.Recording) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recordings WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("replacing recording %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recordings (id, created_at, stored_at) VALUES (?, ?, ?)`,
		rec.ID, rec.CreatedAt.UnixNano(), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("inserting recording %s: %w", rec.ID, err)
	}

	for _, record := range rec.Records {
		args, err := json.Marshal(record.Args)
		if err != nil {
			return fmt.Errorf("marshaling args for seq %d: %w", record.Seq, err)
		}
		outcome, err := json.Marshal(record.Outcome)
		if err != nil {
			return fmt.Errorf("marshaling outcome for seq %d: %w", record.Seq, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (recording_id, seq, op, args, outcome) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, record.Seq, string(record.Op), string(args), string(outcome)); err != nil {
			return fmt.Errorf("inserting record seq %d: %w", record.Seq, err)
		}
	}

	return tx.Commit()
}

// Load retrieves a recording by ID.
func (s *Store) Load(ctx context.Context, id string) (ioctx.Recording, error) {
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM recordings WHERE id = ?`, id).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return ioctx.Recording{}, fmt.Errorf("recording not found: %s", id)
	}
	if err != nil {
		return ioctx.Recording{}, fmt.Errorf("querying recording %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, op, args, outcome FROM records WHERE recording_id = ? ORDER BY seq`, id)
	if err != nil {
		return ioctx.Recording{}, fmt.Errorf("querying records for %s: %w", id, err)
	}
	defer rows.Close()

	rec := ioctx.Recording{
		ID:        id,
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}

	for rows.Next() {
		var (
			seq               int
			op, args, outcome string
		)
		if err := rows.Scan(&seq, &op, &args, &outcome); err != nil {
			return ioctx.Recording{}, fmt.Errorf("scanning record: %w", err)
		}

		record := ioctx.Record{Seq: seq, Op: ioctx.OpKind(op)}
		if err := json.Unmarshal([]byte(args), &record.Args); err != nil {
			return ioctx.Recording{}, fmt.Errorf("unmarshaling args for seq %d: %w", seq, err)
		}
		if err := json.Unmarshal([]byte(outcome), &record.Outcome); err != nil {
			return ioctx.Recording{}, fmt.Errorf("unmarshaling outcome for seq %d: %w", seq, err)
		}
		rec.Records = append(rec.Records, record)
	}

	return rec, rows.Err()
}

// List returns summaries of all stored recordings, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, COUNT(rec.seq)
		FROM recordings r
		LEFT JOIN records rec ON rec.recording_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &createdAt, &sum.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, sum)
	}

	return out, rows.Err()
}

// Delete removes a recording and its records.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recording %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recording not found: %s", id)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
