package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/repository"
)

type testEnv struct {
	store       *repository.MemoryStore
	users       *repository.UserRepository
	tokens      *repository.OAuthRepository
	transcripts *repository.TranscriptRepository
	auth        *AuthService
	oauth       *OAuthService
	transcript  *TranscriptService
	search      *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	users := repository.NewUserRepository(store)
	tokens := repository.NewOAuthRepository(store)
	transcripts := repository.NewTranscriptRepository(store)
	auth := NewAuthService(users)

	return &testEnv{
		store:       store,
		users:       users,
		tokens:      tokens,
		transcripts: transcripts,
		auth:        auth,
		oauth:       NewOAuthService(auth, users, tokens),
		transcript:  NewTranscriptService(transcripts),
		search:      NewSearchService(transcripts),
	}
}

func (e *testEnv) register(t *testing.T, email, password string) model.RegisterResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), model.RegisterRequest{Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) upload(t *testing.T, userID string, transcripts ...model.Transcript) model.UploadResponse {
	t.Helper()
	resp, err := e.transcript.Upload(context.Background(), userID, transcripts)
	require.NoError(t, err)
	return resp
}
