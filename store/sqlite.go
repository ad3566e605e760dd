package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallets (
	recipient_id TEXT PRIMARY KEY,
	wallet       TEXT NOT NULL,
	updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS usage (
	day    TEXT NOT NULL,
	sender TEXT NOT NULL,
	count  INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	PRIMARY KEY (day, sender)
);

CREATE TABLE IF NOT EXISTS raffle_windows (
	window_end   TEXT PRIMARY KEY,
	winner       TEXT NOT NULL DEFAULT '',
	asset_id     TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_raffle_windows_winner ON raffle_windows(winner);
`

// SQLite stores wallets, usage and raffle windows in one database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps read-modify-write statements serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var ver int
	err := db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("insert schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("check schema version: %w", err)
	case ver > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", ver, schemaVersion)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) LinkedWallet(ctx context.Context, recipientID string) (string, bool, error) {
	var wallet string
	err := s.db.QueryRowContext(ctx, "SELECT wallet FROM wallets WHERE recipient_id = ?", recipientID).Scan(&wallet)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, true, nil
}

func (s *SQLite) LinkWallet(ctx context.Context, recipientID, wallet string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (recipient_id, wallet) VALUES (?, ?)
		ON CONFLICT(recipient_id) DO UPDATE SET wallet = excluded.wallet, updated_at = datetime('now')
	`, recipientID, wallet)
	if err != nil {
		return fmt.Errorf("set wallet: %w", err)
	}
	return nil
}

func (s *SQLite) Used(ctx context.Context, day, sender string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count FROM usage WHERE day = ? AND sender = ?", day, sender).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return n, nil
}

func (s *SQLite) Increment(ctx context.Context, day, sender string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage (day, sender, count) VALUES (?, ?, 1)
		ON CONFLICT(day, sender) DO UPDATE SET count = count + 1
		RETURNING count
	`, day, sender).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return n, nil
}

// Day returns every sender's count for day.
func (s *SQLite) Day(ctx context.Context, day string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT sender, count FROM usage WHERE day = ?", day)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, err
		}
		out[sender] = n
	}
	return out, rows.Err()
}

func windowKey(end time.Time) string {
	return end.UTC().Format(time.RFC3339)
}

// WindowProcessed reports whether the raffle window ending at end was recorded.
func (s *SQLite) WindowProcessed(ctx context.Context, end time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raffle_windows WHERE window_end = ?", windowKey(end)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check raffle window: %w", err)
	}
	return n > 0, nil
}

// MarkWindow records a processed raffle window. winner is empty when nobody
// was eligible. Marking a window twice keeps the first record.
func (s *SQLite) MarkWindow(ctx context.Context, end time.Time, winner, assetID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO raffle_windows (window_end, winner, asset_id) VALUES (?, ?, ?)",
		windowKey(end), winner, assetID)
	if err != nil {
		return fmt.Errorf("mark raffle window: %w", err)
	}
	return nil
}

// RecentWinners lists winners of windows ending at or after since.
func (s *SQLite) RecentWinners(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT winner FROM raffle_windows WHERE winner != '' AND window_end >= ? ORDER BY winner",
		windowKey(since))
	if err != nil {
		return nil, fmt.Errorf("list raffle winners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
