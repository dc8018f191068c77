package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMySQL  = "mysql"
)

// Config holds runtime settings read from the environment.
type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	Env      string `env:"ENV" env-default:"development"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	StoreDriver   string `env:"STORE_DRIVER" env-default:"memory"`
	DatabaseDSN   string `env:"DATABASE_DSN" env-default:"root:password@tcp(127.0.0.1:3306)/granola?parseTime=true"`
	RedisAddr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" env-default:"5"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" env-default:"10"`
	TrustProxy         bool     `env:"TRUST_PROXY" env-default:"false"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads the optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverMemory, DriverRedis, DriverMySQL:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}

	if cfg.IsProduction() && cfg.StoreDriver == DriverMemory {
		slog.Warn("memory store in production: data is lost on restart")
	}

	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel parses LOG_LEVEL.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
