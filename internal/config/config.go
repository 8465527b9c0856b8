package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration

	// PublicOrigin используется для построения ссылок-приглашений
	PublicOrigin string
	CORSOrigins  []string
	EventName    string

	// Нулевое время означает отсутствие дедлайна
	RegistrationDeadline     time.Time
	ProblemStatementDeadline time.Time

	RequireEmailConfirmation bool
}

// LoadEnvFiles подгружает .env.local, затем .env
func LoadEnvFiles() {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		PublicOrigin: strings.TrimRight(getEnv("PUBLIC_ORIGIN", "http://localhost:5173"), "/"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		EventName:    getEnv("EVENT_NAME", "CodeForChange"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if cfg.RegistrationDeadline, err = parseDeadline("REGISTRATION_DEADLINE"); err != nil {
		return nil, err
	}
	if cfg.ProblemStatementDeadline, err = parseDeadline("PROBLEM_STATEMENT_DEADLINE"); err != nil {
		return nil, err
	}

	confirm, err := strconv.ParseBool(getEnv("AUTH_REQUIRE_CONFIRMATION", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_REQUIRE_CONFIRMATION: %w", err)
	}
	cfg.RequireEmailConfirmation = confirm

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDeadline(key string) (time.Time, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t.UTC(), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
