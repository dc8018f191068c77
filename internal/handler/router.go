package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/granola/granola-api/internal/middleware"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool

	Auth        *AuthHandler
	OAuth       *OAuthHandler
	Transcripts *TranscriptHandler
	// Authenticator resolves API keys for the /api routes.
	Authenticator middleware.Authenticator
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		MaxAge:         300,
	}))

	r.NotFound(HandleNotFound)
	r.MethodNotAllowed(HandleNotFound)

	r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/", HandleHealth)
	r.Get("/health", HandleHealth)
	r.Get("/oauth/authorize", cfg.OAuth.HandleAuthorizeForm)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/oauth/authorize", cfg.OAuth.HandleAuthorizeSubmit)
		r.Post("/oauth/token", cfg.OAuth.HandleToken)
		r.Post("/api/register", cfg.Auth.HandleRegister)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.Authenticator))
		r.Post("/api/upload", cfg.Transcripts.HandleUpload)
		r.Get("/api/transcripts", cfg.Transcripts.HandleList)
		r.Get("/api/transcript/*", cfg.Transcripts.HandleGet)
		r.Get("/api/search", cfg.Transcripts.HandleSearch)
		r.Get("/api/stats", cfg.Transcripts.HandleStats)
	})

	return r
}
