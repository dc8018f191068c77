package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/service"
)

type contextKey string

const userKey contextKey = "user"

const msgInvalidAPIKey = "Invalid or missing API key"

// Authenticator resolves an API key to its owner.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*model.User, error)
}

// APIKeyAuth returns middleware that accepts a key from the X-API-Key header
// or an Authorization: Bearer header and stores the resolved user in the
// request context.
func APIKeyAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := APIKeyFromRequest(r)
			if key == "" {
				writeJSONError(w, http.StatusUnauthorized, msgInvalidAPIKey)
				return
			}

			user, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, service.ErrInvalidAPIKey) {
					writeJSONError(w, http.StatusUnauthorized, msgInvalidAPIKey)
					return
				}
				logger.FromContext(r.Context()).ErrorContext(r.Context(), "authenticate", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromRequest extracts the caller's key. X-API-Key wins over Authorization.
func APIKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// UserFromContext returns the authenticated user.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
