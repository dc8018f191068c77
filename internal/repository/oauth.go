package repository

import (
	"context"
	"errors"
	"time"

	"github.com/granola/granola-api/internal/model"
)

var (
	ErrCodeNotFound         = errors.New("authorization code not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// OAuthRepository stores authorization codes and refresh tokens. Both rely on
// store TTLs for passive expiry.
type OAuthRepository struct {
	store Store
}

// NewOAuthRepository creates a new OAuthRepository.
func NewOAuthRepository(store Store) *OAuthRepository {
	return &OAuthRepository{store: store}
}

// SaveCode stores an authorization code for ttl.
func (r *OAuthRepository) SaveCode(ctx context.Context, code string, data model.AuthorizationCode, ttl time.Duration) error {
	return putJSON(ctx, r.store, authCodeKey(code), data, ttl)
}

// GetCode loads an authorization code.
func (r *OAuthRepository) GetCode(ctx context.Context, code string) (*model.AuthorizationCode, error) {
	data := &model.AuthorizationCode{}
	if err := getJSON(ctx, r.store, authCodeKey(code), data); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return data, nil
}

// DeleteCode removes an authorization code.
func (r *OAuthRepository) DeleteCode(ctx context.Context, code string) error {
	return r.store.Delete(ctx, authCodeKey(code))
}

// SaveRefreshToken stores a refresh token for ttl.
func (r *OAuthRepository) SaveRefreshToken(ctx context.Context, token string, data model.RefreshToken, ttl time.Duration) error {
	return putJSON(ctx, r.store, refreshTokenKey(token), data, ttl)
}

// GetRefreshToken loads a refresh token.
func (r *OAuthRepository) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	data := &model.RefreshToken{}
	if err := getJSON(ctx, r.store, refreshTokenKey(token), data); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return data, nil
}

// DeleteRefreshToken removes a refresh token.
func (r *OAuthRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.store.Delete(ctx, refreshTokenKey(token))
}
