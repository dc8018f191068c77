package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/granola/granola-api/internal/crypto"
	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/model"
	"github.com/granola/granola-api/internal/repository"
)

const (
	AuthorizationCodeTTL = 5 * time.Minute
	RefreshTokenTTL      = 30 * 24 * time.Hour

	// accessTokenExpiresIn is reported to clients but never enforced: the
	// access token is the user's API key.
	accessTokenExpiresIn = 3600

	authorizePath = "/oauth/authorize"

	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// Login form messages shown after a failed submission.
const (
	msgCredentialsRequired = "Email and password are required."
	msgAccountNotFound     = "Account not found. Make sure you have run granola-sync login first."
	msgIncorrectPassword   = "Incorrect password."
	msgInvalidRedirectURI  = "Invalid redirect_uri."
)

// OAuthService implements the authorization code and refresh token grants on
// top of API keys.
type OAuthService struct {
	auth   *AuthService
	users  *repository.UserRepository
	tokens *repository.OAuthRepository
	now    func() time.Time
}

// NewOAuthService creates a new OAuthService.
func NewOAuthService(auth *AuthService, users *repository.UserRepository, tokens *repository.OAuthRepository) *OAuthService {
	return &OAuthService{
		auth:   auth,
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
}

// AuthorizeParams fills in defaults for the parameters carried by the login form.
func AuthorizeParams(clientID, redirectURI, state, responseType string) model.AuthorizeParams {
	if responseType == "" {
		responseType = "code"
	}
	return model.AuthorizeParams{
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		State:        state,
		ResponseType: responseType,
	}
}

// SubmitAuthorization checks the posted credentials and returns where the
// browser should be redirected: back to the login form with an error message,
// or to the client's redirect_uri carrying a fresh authorization code.
// Only unexpected store failures are returned as errors.
func (s *OAuthService) SubmitAuthorization(ctx context.Context, req model.AuthorizeRequest) (string, error) {
	params := AuthorizeParams(req.ClientID, req.RedirectURI, req.State, req.ResponseType)

	if NormalizeEmail(req.Email) == "" || req.Password == "" {
		return loginErrorURL(params, msgCredentialsRequired), nil
	}

	user, err := s.auth.VerifyCredentials(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return loginErrorURL(params, msgAccountNotFound), nil
	case errors.Is(err, ErrIncorrectPassword):
		return loginErrorURL(params, msgIncorrectPassword), nil
	case err != nil:
		return "", err
	}

	// redirect_uri is accepted as supplied; there is no client registry to
	// check it against.
	target, err := url.Parse(params.RedirectURI)
	if err != nil || !target.IsAbs() {
		return loginErrorURL(params, msgInvalidRedirectURI), nil
	}

	code := crypto.NewAuthorizationCode()
	now := s.now().UTC()
	data := model.AuthorizationCode{
		UserID:    user.ID,
		Email:     user.Email,
		APIKey:    user.APIKey,
		CreatedAt: now,
		ExpiresAt: now.Add(AuthorizationCodeTTL),
	}
	if err := s.tokens.SaveCode(ctx, code, data, AuthorizationCodeTTL); err != nil {
		return "", err
	}
	logger.Audit(ctx, "authorization_code.issued", "user_id", user.ID, "client_id", params.ClientID)

	q := target.Query()
	q.Set("code", code)
	if params.State != "" {
		q.Set("state", params.State)
	}
	target.RawQuery = q.Encode()

	return target.String(), nil
}

// Exchange redeems an authorization code or rotates a refresh token.
// Client-facing failures are returned as *OAuthError.
func (s *OAuthService) Exchange(ctx context.Context, req model.TokenRequest) (model.TokenResponse, error) {
	switch {
	case req.GrantType == GrantTypeRefreshToken && req.RefreshToken != "":
		return s.refresh(ctx, req.RefreshToken)
	case req.GrantType == GrantTypeAuthorizationCode && req.Code != "":
		return s.redeemCode(ctx, req.Code)
	default:
		return model.TokenResponse{}, unsupportedGrantType()
	}
}

func (s *OAuthService) redeemCode(ctx context.Context, code string) (model.TokenResponse, error) {
	data, err := s.tokens.GetCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return model.TokenResponse{}, invalidGrant("Invalid or expired code")
		}
		return model.TokenResponse{}, err
	}

	if s.now().After(data.ExpiresAt) {
		if err := s.tokens.DeleteCode(ctx, code); err != nil {
			return model.TokenResponse{}, err
		}
		return model.TokenResponse{}, invalidGrant("Code expired")
	}

	if err := s.tokens.DeleteCode(ctx, code); err != nil {
		return model.TokenResponse{}, err
	}

	refresh, err := s.issueRefreshToken(ctx, data.UserID)
	if err != nil {
		return model.TokenResponse{}, err
	}
	logger.Audit(ctx, "authorization_code.redeemed", "user_id", data.UserID)

	return tokenResponse(data.APIKey, refresh), nil
}

func (s *OAuthService) refresh(ctx context.Context, token string) (model.TokenResponse, error) {
	data, err := s.tokens.GetRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return model.TokenResponse{}, invalidGrant("Invalid refresh token")
		}
		return model.TokenResponse{}, err
	}

	user, err := s.users.GetByID(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenResponse{}, invalidGrant("User not found")
		}
		return model.TokenResponse{}, err
	}

	next, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if err := s.tokens.DeleteRefreshToken(ctx, token); err != nil {
		return model.TokenResponse{}, err
	}
	logger.Audit(ctx, "refresh_token.rotated", "user_id", user.ID)

	return tokenResponse(user.APIKey, next), nil
}

func (s *OAuthService) issueRefreshToken(ctx context.Context, userID string) (string, error) {
	token := crypto.NewRefreshToken()
	if err := s.tokens.SaveRefreshToken(ctx, token, model.RefreshToken{UserID: userID}, RefreshTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

func tokenResponse(apiKey, refreshToken string) model.TokenResponse {
	return model.TokenResponse{
		AccessToken:  apiKey,
		TokenType:    "Bearer",
		ExpiresIn:    accessTokenExpiresIn,
		RefreshToken: refreshToken,
	}
}

func loginErrorURL(p model.AuthorizeParams, msg string) string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("state", p.State)
	q.Set("response_type", p.ResponseType)
	q.Set("error", msg)
	return authorizePath + "?" + q.Encode()
}
