package repository

import (
	"context"
	"errors"

	"github.com/granola/granola-api/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository persists users under three lookup keys: email, API key and id.
type UserRepository struct {
	store Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

// Save writes the full user record under all three keys, one key at a time.
// A failure part-way leaves the copies out of sync; the store offers no
// multi-key transaction.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	for _, key := range []string{
		userEmailKey(user.Email),
		userAPIKeyKey(user.APIKey),
		userIDKey(user.ID),
	} {
		if err := putJSON(ctx, r.store, key, user, 0); err != nil {
			return err
		}
	}
	return nil
}

// GetByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, userEmailKey(email))
}

// GetByAPIKey retrieves the user owning apiKey.
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.get(ctx, userAPIKeyKey(apiKey))
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, userIDKey(id))
}

func (r *UserRepository) get(ctx context.Context, key string) (*model.User, error) {
	user := &model.User{}
	if err := getJSON(ctx, r.store, key, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
