package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	getItemQuery          = `SELECT value FROM kv WHERE key = ?`
	setItemQuery          = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	removeItemQuery       = `DELETE FROM kv WHERE key = ?`
	compareAndRemoveQuery = `DELETE FROM kv WHERE key = ? AND value = ?`
)

// SQLiteStorage keeps items in a single sqlite table.
type SQLiteStorage struct {
	// db is the connection pool; sqlite serializes writers itself.
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps compare-and-remove and upserts strictly ordered.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, createTableQuery); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// GetItem returns the value stored under key.
func (s *SQLiteStorage) GetItem(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.QueryRowContext(ctx, getItemQuery, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("query item: %w", err)
	}

	return value, nil
}

// SetItem upserts value under key.
func (s *SQLiteStorage) SetItem(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, setItemQuery, key, value); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}

	return nil
}

// RemoveItem deletes key if present.
func (s *SQLiteStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, removeItemQuery, key); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// CompareAndRemove deletes key when it holds expected.
func (s *SQLiteStorage) CompareAndRemove(ctx context.Context, key, expected string) (bool, error) {
	result, err := s.db.ExecContext(ctx, compareAndRemoveQuery, key, expected)
	if err != nil {
		return false, fmt.Errorf("compare and delete item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
