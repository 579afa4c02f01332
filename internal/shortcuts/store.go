package shortcuts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotInitialized is returned when the shortcuts table does not exist yet.
var ErrNotInitialized = errors.New("shortcut database not initialized")

// Store is a Registry backed by a SQLite catalog.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at dbPath, creating parent directories as needed.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Open is New followed by CreateSchema.
func Open(dbPath string) (*Store, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AllShortcuts implements Registry. Tags are sorted.
func (s *Store) AllShortcuts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM shortcuts ORDER BY tag`)
	if err != nil {
		return nil, wrapQueryErr("failed to list shortcuts", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan shortcut: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Register implements Registry.
func (s *Store) Register(ctx context.Context, target Target) error {
	if err := target.validate(); err != nil {
		return err
	}

	query := `
		INSERT OR REPLACE INTO shortcuts
		(tag, app_name, exe, start_dir, launch_options, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		target.Tag,
		target.AppName,
		target.Exe,
		target.StartDir,
		target.LaunchOptions,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to register shortcut %s", target.Tag), err)
	}
	return nil
}

// Entry is a registered Target plus when it was added.
type Entry struct {
	Target
	AddedAt time.Time `json:"added_at"`
}

// List returns every registered shortcut, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT tag, app_name, exe, start_dir, launch_options, added_at
		FROM shortcuts
		ORDER BY added_at, tag
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapQueryErr("failed to list shortcuts", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startDir, launchOpts sql.NullString
		var addedAt string
		if err := rows.Scan(&e.Tag, &e.AppName, &e.Exe, &startDir, &launchOpts, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shortcut: %w", err)
		}
		e.StartDir = startDir.String
		e.LaunchOptions = launchOpts.String
		e.AddedAt, err = time.Parse(time.RFC3339, addedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse added_at for %s: %w", e.Tag, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes the shortcut with tag. Removing an unknown tag is not an error.
func (s *Store) Remove(ctx context.Context, tag string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shortcuts WHERE tag = ?`, tag); err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to remove shortcut %s", tag), err)
	}
	return nil
}

func wrapQueryErr(msg string, err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", msg, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
