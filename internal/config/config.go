package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"nodewatch/internal/notify"
)

// Config holds the full service configuration. Values come from an
// optional yaml file pointed at by NODEWATCH_CONFIG, with environment
// variables taking precedence for deployment overrides.
type Config struct {
	DatabaseURL   string `yaml:"database_url"`
	HTTPAddr      string `yaml:"http_addr"`
	JWTSecret     string `yaml:"jwt_secret"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	SweepSchedule string `yaml:"sweep_schedule"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	// KeyCacheTTLRaw is the yaml-facing duration string; KeyCacheTTL
	// holds the parsed value.
	KeyCacheTTLRaw string                `yaml:"key_cache_ttl"`
	KeyCacheTTL    time.Duration         `yaml:"-"`
	Email          notify.EmailConfig    `yaml:"email"`
	Telegram       notify.TelegramConfig `yaml:"telegram"`
	WebhookURL     string                `yaml:"webhook_url"`
}

// Load reads configuration from the yaml file (if any) and the environment.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		LogFormat:     "json",
		SweepSchedule: "* * * * *",
		KeyCacheTTL:   5 * time.Minute,
	}

	if path := os.Getenv("NODEWATCH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if cfg.KeyCacheTTLRaw != "" {
		parsed, err := time.ParseDuration(cfg.KeyCacheTTLRaw)
		if err != nil {
			return cfg, fmt.Errorf("config: invalid key_cache_ttl: %w", err)
		}
		cfg.KeyCacheTTL = parsed
	}

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecret = getenvDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.SweepSchedule = getenvDefault("SWEEP_SCHEDULE", cfg.SweepSchedule)
	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvIntDefault("REDIS_DB", cfg.RedisDB)
	cfg.KeyCacheTTL = getenvDuration("KEY_CACHE_TTL", cfg.KeyCacheTTL)
	cfg.Email.Host = getenvDefault("SMTP_HOST", cfg.Email.Host)
	cfg.Email.Port = getenvIntDefault("SMTP_PORT", cfg.Email.Port)
	cfg.Email.Username = getenvDefault("SMTP_USERNAME", cfg.Email.Username)
	cfg.Email.Password = getenvDefault("SMTP_PASSWORD", cfg.Email.Password)
	cfg.Email.From = getenvDefault("SMTP_FROM", cfg.Email.From)
	cfg.Telegram.BotToken = getenvDefault("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = getenvDefault("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)
	cfg.WebhookURL = getenvDefault("ALERT_WEBHOOK_URL", cfg.WebhookURL)

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
