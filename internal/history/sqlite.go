package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// SQLiteStore keeps history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database and ensures the schema exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS extraction_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			run_at TEXT NOT NULL,
			success INTEGER NOT NULL,
			amount INTEGER,
			run_id TEXT NOT NULL DEFAULT ''
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load retrieves all entries ordered by insertion.
func (s *SQLiteStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, run_at, success, amount, run_id
		FROM extraction_runs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e      domain.HistoryEntry
			runAt  string
			amount sql.NullInt64
		)
		if err := rows.Scan(&e.Title, &runAt, &e.Success, &amount, &e.RunID); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Date, err = time.Parse(time.RFC3339Nano, runAt)
		if err != nil {
			return nil, fmt.Errorf("parse run_at %q: %w", runAt, err)
		}
		if amount.Valid {
			n := int(amount.Int64)
			e.Amount = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Append inserts entries in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		var amount sql.NullInt64
		if e.Amount != nil {
			amount = sql.NullInt64{Int64: int64(*e.Amount), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO extraction_runs (title, run_at, success, amount, run_id) VALUES (?, ?, ?, ?, ?)`,
			e.Title, e.Date.UTC().Format(time.RFC3339Nano), e.Success, amount, e.RunID,
		); err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}
