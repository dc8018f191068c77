package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const createKVTable = `
	CREATE TABLE IF NOT EXISTS kv_records (
		k          VARCHAR(512) NOT NULL PRIMARY KEY,
		v          LONGBLOB     NOT NULL,
		expires_at DATETIME(6)  NULL,
		INDEX idx_kv_records_expires_at (expires_at)
	)`

// upsertKV overwrites both value and expiry: last write wins.
const upsertKV = `
	INSERT INTO kv_records (k, v, expires_at)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE
		v          = VALUES(v),
		expires_at = VALUES(expires_at)`

// MySQLStore implements Store on a single kv_records table. Expired rows are
// invisible to Get and removed by PurgeExpired.
type MySQLStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*MySQLStore)(nil)

// NewMySQLStore creates a MySQLStore over db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, now: time.Now}
}

// Migrate creates the kv_records table if it does not exist.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("create kv_records: %w", err)
	}
	return nil
}

// Get returns the live value for key.
func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT v FROM kv_records WHERE k = ? AND (expires_at IS NULL OR expires_at > ?)`

	var v []byte
	err := s.db.QueryRowContext(ctx, query, key, s.now().UTC()).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mysql get %s: %w", key, err)
	}
	return v, nil
}

// Put inserts or replaces key.
func (s *MySQLStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: s.now().UTC().Add(ttl), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, upsertKV, key, value, expiresAt); err != nil {
		return fmt.Errorf("mysql put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE k = ?`, key); err != nil {
		return fmt.Errorf("mysql delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many went.
func (s *MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_records WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mysql purge: %w", err)
	}
	return res.RowsAffected()
}
