package model

import "time"

// User is the canonical account record. The same JSON document is stored under
// the email, API key and user id lookup keys.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	APIKey       string    `json:"apiKey"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegisterResponse is returned for both new registrations and password resets.
type RegisterResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
	UserID  string `json:"user_id"`
	Created bool   `json:"-"`
}
