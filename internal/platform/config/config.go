package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type SearchConfig struct {
	MeiliURL    string
	MeiliAPIKey string
	Timeout     time.Duration
}

type BroadcastConfig struct {
	NATSURL string
	Timeout time.Duration
}

type AppConfig struct {
	ServiceName string
	Env         string
	LogLevel    string
	DatabaseURL string
	JWTSecret   string
	HTTP        HTTPConfig
	Cache       CacheConfig
	Search      SearchConfig
	Broadcast   BroadcastConfig
}

// IsProduction reports whether APP_ENV selects the production profile.
// Production refuses to fall back to in-memory backends.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		Env:         strings.TrimSpace(os.Getenv("APP_ENV")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		Cache: CacheConfig{
			RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
			TTL:      envDuration("CACHE_TTL", 5*time.Minute),
		},
		Search: SearchConfig{
			MeiliURL:    strings.TrimSpace(os.Getenv("MEILI_URL")),
			MeiliAPIKey: strings.TrimSpace(os.Getenv("MEILI_API_KEY")),
			Timeout:     envDuration("SEARCH_TIMEOUT", 2*time.Second),
		},
		Broadcast: BroadcastConfig{
			NATSURL: strings.TrimSpace(os.Getenv("NATS_URL")),
			Timeout: envDuration("BROADCAST_TIMEOUT", 3*time.Second),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "interactions"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.IsProduction() && cfg.DatabaseURL == "" {
		return AppConfig{}, errors.New("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
