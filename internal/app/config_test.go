package app

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want gpt-4o-mini", cfg.OpenAIModel)
	}
	if cfg.HistorySize != 20 {
		t.Errorf("HistorySize = %d, want 20", cfg.HistorySize)
	}
	if cfg.FlushMaxChars != 100 {
		t.Errorf("FlushMaxChars = %d, want 100", cfg.FlushMaxChars)
	}
	if cfg.FlushIdle != time.Second {
		t.Errorf("FlushIdle = %v, want 1s", cfg.FlushIdle)
	}
	if cfg.DebounceWindow != 2*time.Second {
		t.Errorf("DebounceWindow = %v, want 2s", cfg.DebounceWindow)
	}
	if cfg.TipMinAnswerChars != 100 {
		t.Errorf("TipMinAnswerChars = %d, want 100", cfg.TipMinAnswerChars)
	}
	if cfg.CoverageThreshold != 30 {
		t.Errorf("CoverageThreshold = %d, want 30", cfg.CoverageThreshold)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRANSCRIPT_HISTORY_SIZE", "50")
	t.Setenv("DEBOUNCE_WINDOW", "500ms")

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.HistorySize != 50 {
		t.Errorf("HistorySize = %d", cfg.HistorySize)
	}
	if cfg.DebounceWindow != 500*time.Millisecond {
		t.Errorf("DebounceWindow = %v", cfg.DebounceWindow)
	}
}

func TestLoadConfigFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("TRANSCRIPT_HISTORY_SIZE", "not-a-number")
	t.Setenv("FLUSH_IDLE", "-5s")
	t.Setenv("COVERAGE_THRESHOLD", "0")

	cfg := LoadConfigFromEnv()

	if cfg.HistorySize != 20 {
		t.Errorf("HistorySize = %d, want default 20 for garbage input", cfg.HistorySize)
	}
	if cfg.FlushIdle != time.Second {
		t.Errorf("FlushIdle = %v, want default 1s for negative input", cfg.FlushIdle)
	}
	if cfg.CoverageThreshold != 30 {
		t.Errorf("CoverageThreshold = %d, want default 30 for zero input", cfg.CoverageThreshold)
	}
}
