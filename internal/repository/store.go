package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when a key is absent or expired.
var ErrNotFound = errors.New("record not found")

// Store is a durable key-value store with optional per-key expiry and
// last-write-wins semantics. Only single-key operations are atomic.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes value under key. A zero ttl means the key never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key builders for the persisted record layout.
func userEmailKey(email string) string       { return "user:" + email }
func userAPIKeyKey(apiKey string) string     { return "apikey:" + apiKey }
func userIDKey(id string) string             { return "userid:" + id }
func authCodeKey(code string) string         { return "authcode:" + code }
func refreshTokenKey(token string) string    { return "refresh:" + token }
func transcriptKey(userID, id string) string { return "transcript:" + userID + ":" + id }
func indexKey(userID string) string          { return "index:" + userID }

func getJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw, ttl)
}
