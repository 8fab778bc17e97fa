package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_info (
  id           TEXT PRIMARY KEY,
  line_user_id TEXT NOT NULL UNIQUE,
  email        TEXT,
  is_active    INTEGER NOT NULL DEFAULT 1,
  created_at   TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS message_records (
  id           TEXT PRIMARY KEY,
  user_id      TEXT NOT NULL REFERENCES user_info(id),
  line_user_id TEXT NOT NULL,
  message      TEXT,
  filename     TEXT,
  filepath     TEXT,
  timestamp    TEXT,
  created_at   TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS webhook_event_log (
  event_id    TEXT PRIMARY KEY,
  received_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS message_records_line_user_id_idx ON message_records(line_user_id);`,
		`CREATE INDEX IF NOT EXISTS message_records_created_at_idx ON message_records(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
