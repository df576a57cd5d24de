package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // ANALYTICS_TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
	AllowedOrigins     []string

	LogLevel  slog.Level
	LogFormat string

	AnalyticsLocation *time.Location
	DefaultQRLimit    int

	RedisAddr string
	CacheSize int
	CacheTTL  time.Duration

	RecorderQueueSize int
	RecorderWorkers   int
	RecorderTimeout   time.Duration

	ShutdownTimeout time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080/dashboard"),
		AllowedEmails:      splitList(getEnv("ALLOWED_EMAILS", "")),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
	}
	var err error

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT: invalid format %q, expected json or text", cfg.LogFormat)
	}

	if cfg.AnalyticsLocation, err = time.LoadLocation(getEnv("ANALYTICS_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("ANALYTICS_TIMEZONE: %w", err)
	}
	if cfg.DefaultQRLimit, err = getEnvInt("DEFAULT_QR_LIMIT", 20); err != nil {
		return nil, fmt.Errorf("DEFAULT_QR_LIMIT: %w", err)
	}
	if cfg.DefaultQRLimit < 1 {
		return nil, fmt.Errorf("DEFAULT_QR_LIMIT: must be at least 1")
	}

	if cfg.CacheSize, err = getEnvInt("CACHE_SIZE", 1024); err != nil {
		return nil, fmt.Errorf("CACHE_SIZE: %w", err)
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	if cfg.RecorderQueueSize, err = getEnvInt("RECORDER_QUEUE_SIZE", 1024); err != nil {
		return nil, fmt.Errorf("RECORDER_QUEUE_SIZE: %w", err)
	}
	if cfg.RecorderWorkers, err = getEnvInt("RECORDER_WORKERS", 4); err != nil {
		return nil, fmt.Errorf("RECORDER_WORKERS: %w", err)
	}
	if cfg.RecorderTimeout, err = getEnvDuration("RECORDER_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("RECORDER_TIMEOUT: %w", err)
	}

	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *Config) *slog.Logger {
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use 30s, 1m, 1h)", val)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid level %q, expected debug, info, warn or error", level)
}
