// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type RedisConfig struct {
	Addr string
	DB   int
}

type TelegramConfig struct {
	// BotToken authenticates outbound Bot API calls.
	BotToken string
	// AllowedChatIDs is the issuance allow-list. Empty means any chat.
	AllowedChatIDs []int64
	// WebhookPath is the route the webhook is registered under.
	WebhookPath string
}

type Config struct {
	HTTPPort    int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Telegram    TelegramConfig
	Redis       RedisConfig
}

func Load() Config {
	return Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		ServiceName: "mortgage-calculator",
		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			AllowedChatIDs: getEnvInt64List("TELEGRAM_ALLOWED_CHAT_IDS"),
			WebhookPath:    getEnv("TELEGRAM_WEBHOOK_PATH", "/telegram/webhook"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
			DB:   getEnvInt("REDIS_DB", 0),
		},
	}
}

func (c Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}
	if !strings.HasPrefix(c.Telegram.WebhookPath, "/") {
		return fmt.Errorf("TELEGRAM_WEBHOOK_PATH must start with /")
	}
	return nil
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvInt64List parses a comma-separated id list, skipping blanks and
// malformed entries.
func getEnvInt64List(key string) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
