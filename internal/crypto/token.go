package crypto

import (
	"strings"

	"github.com/google/uuid"
)

const (
	apiKeyPrefix       = "gra_"
	refreshTokenPrefix = "gra_refresh_"
)

// NewUserID returns a random user identifier.
func NewUserID() string {
	return uuid.NewString()
}

// NewAPIKey returns a long-lived API key of the form gra_<32 hex>.
func NewAPIKey() string {
	return apiKeyPrefix + compactUUID()
}

// NewRefreshToken returns an opaque refresh token of the form gra_refresh_<32 hex>.
func NewRefreshToken() string {
	return refreshTokenPrefix + compactUUID()
}

// NewAuthorizationCode returns a single-use OAuth authorization code.
func NewAuthorizationCode() string {
	return uuid.NewString()
}

func compactUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
