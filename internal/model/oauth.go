package model

import "time"

// AuthorizationCode is the short-lived record behind an issued OAuth code.
type AuthorizationCode struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshToken maps an opaque refresh token to its owner.
type RefreshToken struct {
	UserID string `json:"userId"`
}

// AuthorizeParams are the client parameters carried through the login form.
type AuthorizeParams struct {
	ClientID     string
	RedirectURI  string
	State        string
	ResponseType string
}

// AuthorizeRequest is a submitted login form.
type AuthorizeRequest struct {
	AuthorizeParams
	Email    string
	Password string
}

// TokenRequest is the body of POST /oauth/token, form-encoded or JSON.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the OAuth token endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
