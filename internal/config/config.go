package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "rentalhub/common/config"

	"github.com/joho/godotenv"
)

// Config rentalhub (HTTP API + rendered site) settings.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	Log          struct {
		Level  string
		Format string
	}
	Auth    AuthConfig
	Session SessionConfig
	// PageSize is the fixed page size of list endpoints.
	PageSize int
	// EventsStream is the Redis stream domain events are appended to.
	EventsStream string
}

// AuthConfig JWT settings for the API surface.
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionConfig cookie session settings for the rendered surface.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")

	// Without a database the server runs on in-memory repositories (local dev only).
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "rentalhub",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "change-me-in-production")
	cfg.Auth.AccessTTL = parseDuration(getEnv("JWT_ACCESS_TTL", "15m"), 15*time.Minute)
	cfg.Auth.RefreshTTL = parseDuration(getEnv("JWT_REFRESH_TTL", "24h"), 24*time.Hour)

	cfg.Session.CookieName = getEnv("SESSION_COOKIE", "sessionid")
	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", "336h"), 14*24*time.Hour)
	cfg.Session.Secure = getEnv("SESSION_SECURE", "false") == "true"

	cfg.PageSize = parseInt(getEnv("PAGE_SIZE", "10"), 10)
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	cfg.EventsStream = getEnv("EVENTS_STREAM", "rentalhub:events")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
