package service

import (
	"errors"
	"net/http"
)

var (
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrInvalidAPIKey        = errors.New("invalid or missing API key")
	ErrAccountNotFound      = errors.New("account not found")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrTranscriptsRequired  = errors.New("transcripts array is required")
	ErrTranscriptIDRequired = errors.New("every transcript needs an id")
	ErrTranscriptNotFound   = errors.New("transcript not found")
	ErrQueryRequired        = errors.New("search query (q) is required")
	ErrInvalidPagination    = errors.New("limit and offset must be non-negative integers")
)

// IsValidation reports whether err is caused by bad client input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmailRequired,
		ErrPasswordRequired,
		ErrTranscriptsRequired,
		ErrTranscriptIDRequired,
		ErrQueryRequired,
		ErrInvalidPagination,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// OAuthError is an RFC 6749 error returned by the token endpoint.
type OAuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

func invalidGrant(desc string) *OAuthError {
	return &OAuthError{Code: "invalid_grant", Description: desc, Status: http.StatusBadRequest}
}

func unsupportedGrantType() *OAuthError {
	return &OAuthError{Code: "unsupported_grant_type", Description: "Unsupported grant type.", Status: http.StatusBadRequest}
}

// InvalidRequest builds the error used for unparseable token requests.
func InvalidRequest(desc string) *OAuthError {
	return &OAuthError{Code: "invalid_request", Description: desc, Status: http.StatusBadRequest}
}
