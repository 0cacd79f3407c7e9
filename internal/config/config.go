// Package config provides runtime configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every knob the server reads from the environment.
type Config struct {
	AppPort     string
	AppURL      string
	DatabaseURL string
	JWTSecret   string

	PaystackSecretKey string
	PaystackPublicKey string
	PaystackBaseURL   string
	GatewayTimeout    time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durenvs(key string, defSec int) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return time.Duration(defSec) * time.Second
	}
	sec, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(defSec) * time.Second
	}
	return time.Duration(sec) * time.Second
}

// Load collects configuration from the environment with defaults.
func Load() Config {
	return Config{
		AppPort:           getenv("APP_PORT", "8080"),
		AppURL:            getenv("APP_URL", "http://localhost:8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         getenv("JWT_SECRET", "dev-secret-change-me"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		GatewayTimeout:    durenvs("GATEWAY_TIMEOUT_SECONDS", 15),
	}
}
