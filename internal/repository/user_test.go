package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granola/granola-api/internal/model"
)

func TestUserRepository_SaveWritesAllLookupKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewUserRepository(store)

	u := &model.User{
		ID:           "u1",
		Email:        "alice@example.com",
		Name:         "Alice",
		APIKey:       "gra_abc",
		PasswordHash: "hash",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, u))
	assert.Equal(t, 3, store.Len())

	for name, get := range map[string]func() (*model.User, error){
		"email":  func() (*model.User, error) { return repo.GetByEmail(ctx, "alice@example.com") },
		"apikey": func() (*model.User, error) { return repo.GetByAPIKey(ctx, "gra_abc") },
		"id":     func() (*model.User, error) { return repo.GetByID(ctx, "u1") },
	} {
		t.Run(name, func(t *testing.T) {
			got, err := get()
			require.NoError(t, err)
			assert.Equal(t, u, got)
		})
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())

	_, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByAPIKey(ctx, "gra_none")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByID(ctx, "none")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "user:bad@example.com", []byte("{not json"), 0))

	_, err := NewUserRepository(store).GetByEmail(ctx, "bad@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
