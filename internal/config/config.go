// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as database paths, logging, generation models, verification limits,
// selection behavior, quality thresholds, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// GenerationConfig defines LLM generation settings.
type GenerationConfig struct {
	APIKey        string  // OPENROUTER_API_KEY
	BaseURL       string  // OPENROUTER_BASE_URL (OpenAI-compatible endpoint)
	Model         string  // GEN_MODEL (primary model identifier)
	FallbackModel string  // GEN_FALLBACK_MODEL (low-cost model, empty disables fallback)
	Temperature   float64 // GEN_TEMPERATURE in [0..2]
	MaxAttempts   int     // GEN_MAX_ATTEMPTS on the primary model
	UseExamples   bool    // GEN_USE_EXAMPLES attaches the few-shot pair
}

// VerificationConfig defines external fact verification settings.
type VerificationConfig struct {
	BaseURL     string        // WIKI_BASE_URL
	CallTimeout time.Duration // WIKI_CALL_TIMEOUT per whole verification call
	Retries     int           // WIKI_RETRIES per HTTP request
	RateRPS     float64       // WIKI_RATE_RPS outgoing request pacing
	RateBurst   int           // WIKI_RATE_BURST
}

// SelectionConfig defines round selection behavior.
type SelectionConfig struct {
	VerifiedOnly   bool // SELECT_VERIFIED_ONLY serves only verified rounds
	DomainRotation bool // SELECT_DOMAIN_ROTATION enables the soft rotation constraint
}

// QualityConfig defines quarantine thresholds. Zero values fall back to the
// quality package defaults.
type QualityConfig struct {
	MinSamples    int     // QUALITY_MIN_SAMPLES
	MaxAllowedAvg float64 // QUALITY_MAX_ALLOWED_AVG
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath      string // SQLite path
	MetricsAddr string // Prometheus listen address, empty disables the listener

	Generation   GenerationConfig
	Verification VerificationConfig
	Selection    SelectionConfig
	Quality      QualityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:      getenv("DB_PATH", "trivia.db"),
		MetricsAddr: getenv("METRICS_ADDR", ""),

		Generation: GenerationConfig{
			APIKey:        getenv("OPENROUTER_API_KEY", ""),
			BaseURL:       getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:         getenv("GEN_MODEL", "openai/gpt-4o-mini"),
			FallbackModel: getenv("GEN_FALLBACK_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),
			Temperature:   getfloat("GEN_TEMPERATURE", 0.7),
			MaxAttempts:   getint("GEN_MAX_ATTEMPTS", 3),
			UseExamples:   getbool("GEN_USE_EXAMPLES", true),
		},

		Verification: VerificationConfig{
			BaseURL:     getenv("WIKI_BASE_URL", "https://ru.wikipedia.org"),
			CallTimeout: getdur("WIKI_CALL_TIMEOUT", 8*time.Second),
			Retries:     getint("WIKI_RETRIES", 3),
			RateRPS:     getfloat("WIKI_RATE_RPS", 2.0),
			RateBurst:   getint("WIKI_RATE_BURST", 4),
		},

		Selection: SelectionConfig{
			VerifiedOnly:   getbool("SELECT_VERIFIED_ONLY", false),
			DomainRotation: getbool("SELECT_DOMAIN_ROTATION", true),
		},

		Quality: QualityConfig{
			MinSamples:    getint("QUALITY_MIN_SAMPLES", 3),
			MaxAllowedAvg: getfloat("QUALITY_MAX_ALLOWED_AVG", 2.5),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "trivia-engine"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		return cfg, errors.New("GEN_TEMPERATURE must be between 0 and 2")
	}
	if cfg.Generation.MaxAttempts < 1 {
		return cfg, errors.New("GEN_MAX_ATTEMPTS must be >= 1")
	}
	if strings.TrimSpace(cfg.Generation.Model) == "" {
		return cfg, errors.New("GEN_MODEL must not be empty")
	}
	if cfg.Verification.CallTimeout <= 0 {
		return cfg, errors.New("WIKI_CALL_TIMEOUT must be a positive duration")
	}
	if cfg.Verification.Retries < 1 {
		return cfg, errors.New("WIKI_RETRIES must be >= 1")
	}
	if cfg.Verification.RateRPS <= 0 {
		return cfg, errors.New("WIKI_RATE_RPS must be > 0")
	}
	if cfg.Verification.RateBurst < 1 {
		return cfg, errors.New("WIKI_RATE_BURST must be >= 1")
	}
	if cfg.Quality.MinSamples < 1 {
		return cfg, errors.New("QUALITY_MIN_SAMPLES must be >= 1")
	}
	if cfg.Quality.MaxAllowedAvg < 1 || cfg.Quality.MaxAllowedAvg > 5 {
		return cfg, errors.New("QUALITY_MAX_ALLOWED_AVG must be between 1 and 5")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
