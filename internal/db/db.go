// Package db is the relational store behind the repositories.
//
// Every statement is scoped by the owning user's id, standing in for the
// row-level security of a hosted backend. Cascades (project -> tasks ->
// comments and task_tags) are enforced by foreign keys, not by callers.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with the fold() SQL function registered.
const driverName = "sqlite3_taskhub"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", Fold, true)
		},
	})
}

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when an id does not resolve for the given owner.
	ErrNotFound = errors.New("row not found")
	// ErrInvalidReference is returned when a referenced row (project, tag,
	// task) does not exist or belongs to another owner.
	ErrInvalidReference = errors.New("referenced row not found")
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and initializes the schema
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	conn, err := sql.Open(driverName, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize schema
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{DB: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// DefaultPath returns the path to the database file
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataDir, "taskhub", "taskhub.db"), nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteSetting removes a setting
func (db *DB) DeleteSetting(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// update accumulates the SET clause of a partial update.
type update struct {
	sets []string
	args []any
}

func (u *update) set(column string, value any) {
	u.sets = append(u.sets, column+" = ?")
	u.args = append(u.args, value)
}

func (u *update) empty() bool { return len(u.sets) == 0 }

func (u *update) clause() string { return strings.Join(u.sets, ", ") }

// execOne runs a statement that must touch exactly one owned row.
func (db *DB) execOne(ctx context.Context, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// Fold is the case normalization applied to both sides of a title search.
// Cache descriptors must use it too so equal keys mean equal results.
func Fold(s string) string {
	return strings.ToLower(s)
}
