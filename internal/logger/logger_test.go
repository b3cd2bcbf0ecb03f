package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestSetup はJSON構造化ログが出力されることをテストする。
func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info")

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("expected msg %q, got %v", "test message", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("expected key %q, got %v", "value", entry["key"])
	}
}

// TestSetup_LevelFiltering はレベル未満のログが出力されないことをテストする。
func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "warn")

	logger.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("expected info log to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("expected warn log to appear, got %q", buf.String())
	}
}

// TestParseLevel はログレベル文字列の変換をテストする。
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

// TestSetupDefault はグローバルロガーが設定されることをテストする。
func TestSetupDefault(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf, "info")

	slog.Info("global logger test")
	if !strings.Contains(buf.String(), "global logger test") {
		t.Errorf("expected global logger to write to provided writer, got %q", buf.String())
	}
}
