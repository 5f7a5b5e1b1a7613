package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Google sign-in
	GoogleClientID string

	// QR code generation
	QRWorkerCount int
	QRBaseURL     string

	// Storage
	StoragePath string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

// Load reads configuration from the environment, with a .env file as a
// local-dev convenience. Missing required variables panic at startup
// rather than failing on the first request.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Port:           envOr("PORT", "8080"),
		Env:            envOr("ENV", "development"),
		DatabaseURL:    requireEnv("DATABASE_URL"),
		RedisURL:       requireEnv("REDIS_URL"),
		JWTSecret:      requireEnv("JWT_SECRET"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		QRWorkerCount:  envInt("QR_WORKER_COUNT", 3),
		QRBaseURL:      envOr("QR_BASE_URL", "https://app.historando.fr/scan"),
		StoragePath:    envOr("STORAGE_PATH", "./storage"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       envOr("SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPFrom:       envOr("SMTP_FROM", "noreply@historando.fr"),
		FrontendURL:    envOr("FRONTEND_URL", "http://localhost:5173"),
	}
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envInt falls back on unset or unparseable values rather than
// refusing to start over a typo in an optional knob.
func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
