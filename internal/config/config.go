package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Tokens struct {
		AccessTTL  time.Duration
		RefreshTTL time.Duration
	}

	Creds struct {
		Path       string
		Passphrase string
	}
}

// New loads configuration from the environment. A .env file in the
// working directory is applied first, if present.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "rishta_client")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Backend API
	cfg.API.BaseURL = getEnvDefault("API_BASE_URL", "https://api.rishta.app/api/v1")
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", 30*time.Second)

	// Token lifetimes: access token lives for the day, refresh token for a week.
	cfg.Tokens.AccessTTL = getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour)
	cfg.Tokens.RefreshTTL = getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)

	// Credential store
	cfg.Creds.Path = getEnvDefault("CREDS_PATH", "rishta-credentials.db")
	cfg.Creds.Passphrase = getEnvDefault("CREDS_PASSPHRASE", "rishta-local")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
