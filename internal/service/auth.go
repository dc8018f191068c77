package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/granola/granola-api/internal/crypto"
	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/repository"
)

// AuthService registers users and resolves API keys and passwords to users.
type AuthService struct {
	users *repository.UserRepository
	now   func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *repository.UserRepository) *AuthService {
	return &AuthService{users: users, now: time.Now}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account, or resets the password of an existing one.
// Re-registering keeps the user's id and API key.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return model.RegisterResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.RegisterResponse{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.RegisterResponse{}, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.PasswordHash = hash
		if err := s.users.Save(ctx, existing); err != nil {
			return model.RegisterResponse{}, err
		}
		logger.Audit(ctx, "user.password_reset", "user_id", existing.ID)
		return model.RegisterResponse{
			Message: "Password updated",
			APIKey:  existing.APIKey,
			UserID:  existing.ID,
		}, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.RegisterResponse{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user := &model.User{
		ID:           crypto.NewUserID(),
		Email:        email,
		Name:         name,
		APIKey:       crypto.NewAPIKey(),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return model.RegisterResponse{}, err
	}
	logger.Audit(ctx, "user.registered", "user_id", user.ID)

	return model.RegisterResponse{
		Message: "User registered successfully",
		APIKey:  user.APIKey,
		UserID:  user.ID,
		Created: true,
	}, nil
}

// Authenticate resolves an API key to its user.
func (s *AuthService) Authenticate(ctx context.Context, apiKey string) (*model.User, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	user, err := s.users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}
	return user, nil
}

// VerifyCredentials checks an email and password pair.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	ok, err := crypto.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}
	return user, nil
}
