package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	DatabaseURL   string
	LogLevel      string
	SentryDSN     string

	// Completion service
	OpenAIAPIKey string
	OpenAIModel  string

	// JWT verification for websocket connects (issued by the platform)
	JWTSecret string

	// Engine tunables
	HistorySize       int
	FlushMaxChars     int
	FlushIdle         time.Duration
	DebounceWindow    time.Duration
	TipMinAnswerChars int
	CoverageThreshold int
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		SentryDSN:     getenv("SENTRY_DSN", ""),

		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4o-mini"),

		JWTSecret: os.Getenv("JWT_SECRET"), // empty disables the connect check

		HistorySize:       getenvInt("TRANSCRIPT_HISTORY_SIZE", 20),
		FlushMaxChars:     getenvInt("FLUSH_MAX_CHARS", 100),
		FlushIdle:         getenvDuration("FLUSH_IDLE", time.Second),
		DebounceWindow:    getenvDuration("DEBOUNCE_WINDOW", 2*time.Second),
		TipMinAnswerChars: getenvInt("TIP_MIN_ANSWER_CHARS", 100),
		CoverageThreshold: getenvInt("COVERAGE_THRESHOLD", 30),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
