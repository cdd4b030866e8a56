package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3/log"
	"github.com/joho/godotenv"
)

type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != "" && t.To != ""
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

func (s SMTP) Enabled() bool {
	return s.Host != "" && s.To != ""
}

type Config struct {
	Port        string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	JWTSecret     string
	JWKSURL       string
	AdminEmail    string
	AdminPassword string

	CORSOrigins string
	SeasonFile  string
	Debug       bool

	Twilio Twilio
	SMTP   SMTP
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not load .env file: %v", err)
	}

	return Config{
		Port:          env("PORT", "3000"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    env("SQLITE_PATH", "./studios.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     env("JWT_SECRET", "secret"),
		JWKSURL:       os.Getenv("JWKS_URL"),
		AdminEmail:    env("ADMIN_EMAIL", "admin@studios.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:   env("CORS_ORIGINS", "http://127.0.0.1:5173"),
		SeasonFile:    os.Getenv("SEASON_FILE"),
		Debug:         envBool("DEBUG", false),
		Twilio: Twilio{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_FROM"),
			To:         os.Getenv("ADMIN_PHONE"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			To:       os.Getenv("NOTIFY_EMAIL"),
		},
	}
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("%s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
