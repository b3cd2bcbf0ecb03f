package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBase         string
	HTTPTimeout     time.Duration
	MaxResponseSize int64

	// CSRF
	CSRFCookieName string
	CSRFHeaderName string

	// Validation
	SearchMinLength   int
	AnswerMinLength   int
	PasswordMinLength int

	// Rate Limit（検索リクエストのクライアント側制限）
	SearchRatePerMin int
	SearchBurst      int

	// Logging
	LogLevel string

	// Metrics
	MetricsPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBase = strings.TrimRight(os.Getenv("DEEPSOAL_API_BASE"), "/")
	if cfg.APIBase == "" {
		missing = append(missing, "DEEPSOAL_API_BASE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("DEEPSOAL_HTTP_TIMEOUT", 10*time.Second)
	cfg.MaxResponseSize = getEnvInt64("DEEPSOAL_MAX_RESPONSE_SIZE", 1048576)
	cfg.CSRFCookieName = getEnvString("DEEPSOAL_CSRF_COOKIE", "csrftoken")
	cfg.CSRFHeaderName = getEnvString("DEEPSOAL_CSRF_HEADER", "X-CSRFToken")
	cfg.SearchMinLength = getEnvInt("DEEPSOAL_SEARCH_MIN_LENGTH", 2)
	cfg.AnswerMinLength = getEnvInt("DEEPSOAL_ANSWER_MIN_LENGTH", 5)
	cfg.PasswordMinLength = getEnvInt("DEEPSOAL_PASSWORD_MIN_LENGTH", 6)
	cfg.SearchRatePerMin = getEnvInt("DEEPSOAL_SEARCH_RATE_PER_MIN", 30)
	cfg.SearchBurst = getEnvInt("DEEPSOAL_SEARCH_BURST", 5)
	cfg.LogLevel = getEnvString("DEEPSOAL_LOG_LEVEL", "info")
	cfg.MetricsPort = getEnvString("DEEPSOAL_METRICS_PORT", "9090")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
