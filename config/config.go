package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Trading API
	APIURL string
	APIKey string

	// Indicator identity
	IndicatorID   string
	IndicatorName string

	// Market selection
	Symbol    string
	Timeframe int // minutes
	BarLimit  int

	// Continuous mode
	RunIntervalSec int

	// Infrastructure (all optional; empty disables)
	MetricsAddr   string
	JournalPath   string
	RedisAddr     string
	RedisPassword string

	// Alerting (optional)
	TelegramBotToken string
	TelegramChatID   string
	AlertWebhookURL  string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIURL: getEnv("API_URL", "https://api.innova-trading.com"),
		APIKey: mustEnv("API_KEY"),

		IndicatorID:   getEnv("INDICATOR_ID", "inside_bar_signals"),
		IndicatorName: getEnv("INDICATOR_NAME", "Inside Bar Signals"),

		Symbol:    getEnv("SYMBOL", "EURUSD"),
		Timeframe: getEnvInt("TIMEFRAME", 60),
		BarLimit:  getEnvInt("BAR_LIMIT", 500),

		RunIntervalSec: getEnvInt("RUN_INTERVAL_SEC", 300),

		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		JournalPath:   getEnv("JOURNAL_PATH", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s value: %q", key, v)
		return fallback
	}
	return n
}
