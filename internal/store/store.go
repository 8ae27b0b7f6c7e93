package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes every reader and writer behind the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec pragma journal_mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// dsn appends the per-connection options to dbPath. Transactions take the
// write lock at BEGIN and wait up to busy_timeout for writers in other
// processes.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn inside a single transaction. Any error returned by fn rolls
// back every write fn made.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx exposes row-level access to the four tables within one transaction.
type Tx struct {
	tx *sql.Tx
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tasks (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		owner           TEXT NOT NULL DEFAULT '',
		estimated_hours REAL NOT NULL,
		scheduled_date  TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending'
		                CHECK (status IN ('pending', 'in_progress', 'waiting', 'paused', 'completed')),
		created_at      TEXT NOT NULL,
		started_at      TEXT,
		completed_at    TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_schedule ON tasks(scheduled_date, created_at);

	CREATE TABLE IF NOT EXISTS task_time_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		started_at  TEXT NOT NULL,
		ended_at    TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_logs_task ON task_time_logs(task_id, started_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_logs_open ON task_time_logs(task_id) WHERE ended_at IS NULL;

	CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id          INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		session_number   INTEGER NOT NULL,
		session_type     TEXT NOT NULL CHECK (session_type IN ('work', 'break')),
		duration_seconds INTEGER NOT NULL,
		created_at       TEXT NOT NULL,
		consumed_at      TEXT,
		UNIQUE(task_id, session_number)
	);

	CREATE TABLE IF NOT EXISTS active_sessions (
		task_id     INTEGER PRIMARY KEY REFERENCES tasks(id) ON DELETE CASCADE,
		pomodoro_id INTEGER NOT NULL REFERENCES pomodoro_sessions(id) ON DELETE CASCADE,
		started_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/clockwise/clockwise.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "clockwise", "clockwise.db"), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
