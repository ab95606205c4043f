package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "rentara.db"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTAccessTTL   = "24h"
	defaultGatewayTimeout = "30s"
	defaultMomoBaseURL    = "https://sandbox.momodeveloper.mtn.com"
	defaultMomoEnv        = "sandbox"
	defaultCurrency       = "RWF"
)

type RuntimeConfig struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	JWTSecret      string
	JWTAccessTTL   time.Duration
	GatewayTimeout time.Duration
	Currency       string

	MomoBaseURL         string
	MomoEnv             string
	MomoSubscriptionKey string
	MomoUserID          string
	MomoAPIKey          string
}

func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", defaultHTTPAddr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.Currency = getEnv("CURRENCY", defaultCurrency)

	var err error
	cfg.JWTAccessTTL, err = parseDuration("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.GatewayTimeout, err = parseDuration("GATEWAY_TIMEOUT", defaultGatewayTimeout)
	if err != nil {
		return nil, err
	}

	cfg.MomoBaseURL = getEnv("MOMO_BASE_URL", defaultMomoBaseURL)
	cfg.MomoEnv = getEnv("MOMO_ENV", defaultMomoEnv)
	cfg.MomoSubscriptionKey = os.Getenv("MOMO_SUBSCRIPTION_KEY")
	cfg.MomoUserID = os.Getenv("MOMO_USER_ID")
	cfg.MomoAPIKey = os.Getenv("MOMO_API_KEY")

	if cfg.AppEnv == "production" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDuration(name, def string) (time.Duration, error) {
	raw := getEnv(name, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}
