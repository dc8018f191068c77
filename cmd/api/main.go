package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/granola/granola-api/internal/config"
	"github.com/granola/granola-api/internal/handler"
	"github.com/granola/granola-api/internal/logger"
	"github.com/granola/granola-api/internal/repository"
	"github.com/granola/granola-api/internal/server"
	"github.com/granola/granola-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	log := logger.New(logger.Config{Level: level, JSONFormat: cfg.IsProduction()})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("close store", "error", err)
		}
	}()

	users := repository.NewUserRepository(store)
	tokens := repository.NewOAuthRepository(store)
	transcripts := repository.NewTranscriptRepository(store)

	authService := service.NewAuthService(users)
	oauthService := service.NewOAuthService(authService, users, tokens)
	transcriptService := service.NewTranscriptService(transcripts)
	searchService := service.NewSearchService(transcripts)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
		Auth:           handler.NewAuthHandler(authService),
		OAuth:          handler.NewOAuthHandler(oauthService),
		Transcripts:    handler.NewTranscriptHandler(transcriptService, searchService),
		Authenticator:  authService,
	})

	log.Info("configured", "env", cfg.Env, "store", cfg.StoreDriver)

	srv := server.NewHTTPServer(":"+cfg.Port, router, cfg.ShutdownTimeout, log)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// openStore connects the configured store driver and returns it with its
// close function.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return repository.NewRedisStore(client), client.Close, nil

	case config.DriverMySQL:
		db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewMySQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		if n, err := store.PurgeExpired(ctx); err != nil {
			log.Warn("purge expired records", "error", err)
		} else if n > 0 {
			log.Info("purged expired records", "count", n)
		}
		return store, db.Close, nil

	default:
		log.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	}
}
