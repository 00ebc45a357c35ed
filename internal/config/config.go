// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, matching thresholds,
// geocoder resilience, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "catatlas-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GeocoderConfig defines the Nominatim client and circuit-breaker posture.
type GeocoderConfig struct {
	URL              string        // GEOCODER_URL
	UserAgent        string        // GEOCODER_USER_AGENT
	Timeout          time.Duration // GEOCODER_TIMEOUT per HTTP call
	MaxRetries       int           // GEOCODER_MAX_RETRIES (retries after first attempt)
	BreakerThreshold int           // GEOCODER_BREAKER_THRESHOLD consecutive failures
	BreakerRecovery  time.Duration // GEOCODER_BREAKER_RECOVERY open-state window
}

// MatchConfig holds the empirically chosen matching constants. They define
// the expected scoring behavior; tune with care, the values are not derived.
type MatchConfig struct {
	MinScore           float64 // MATCH_MIN_SCORE default candidate threshold
	DecayMeters        float64 // MATCH_DECAY_METERS geographic score horizon
	NearbyRadiusMeters int     // NEARBY_RADIUS_METERS default nearby radius
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	APIBasePath string // e.g. "/api/v1"
	DBPath      string // SQLite path
	Match       MatchConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// External services
	Geocoder GeocoderConfig

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
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		APIBasePath: getenv("API_BASE_PATH", "/api/v1"),
		DBPath:      getenv("DB_PATH", "catatlas.db"),
		Match: MatchConfig{
			MinScore:           getfloat("MATCH_MIN_SCORE", 0.15),
			DecayMeters:        getfloat("MATCH_DECAY_METERS", 1000),
			NearbyRadiusMeters: getint("NEARBY_RADIUS_METERS", 500),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// External services
		Geocoder: GeocoderConfig{
			URL:              getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
			UserAgent:        getenv("GEOCODER_USER_AGENT", "CatAtlas/1.0 (cat-sighting-tracker)"),
			Timeout:          getdur("GEOCODER_TIMEOUT", 10*time.Second),
			MaxRetries:       getint("GEOCODER_MAX_RETRIES", 2),
			BreakerThreshold: getint("GEOCODER_BREAKER_THRESHOLD", 5),
			BreakerRecovery:  getdur("GEOCODER_BREAKER_RECOVERY", 60*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "catatlas-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.APIBasePath != "" && cfg.APIBasePath != "/" {
		if !strings.HasPrefix(cfg.APIBasePath, "/") {
			cfg.APIBasePath = "/" + cfg.APIBasePath
		}
		cfg.APIBasePath = strings.TrimRight(cfg.APIBasePath, "/")
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Match.MinScore < 0 || cfg.Match.MinScore > 1 {
		return cfg, errors.New("MATCH_MIN_SCORE must be between 0 and 1")
	}
	if cfg.Match.DecayMeters <= 0 {
		return cfg, errors.New("MATCH_DECAY_METERS must be > 0")
	}
	if cfg.Match.NearbyRadiusMeters < 1 || cfg.Match.NearbyRadiusMeters > 5000 {
		return cfg, errors.New("NEARBY_RADIUS_METERS must be in [1, 5000]")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Geocoder.URL) == "" {
		return cfg, errors.New("GEOCODER_URL must not be empty")
	}
	if cfg.Geocoder.BreakerThreshold < 1 {
		return cfg, errors.New("GEOCODER_BREAKER_THRESHOLD must be >= 1")
	}
	if cfg.Geocoder.BreakerRecovery <= 0 {
		return cfg, errors.New("GEOCODER_BREAKER_RECOVERY must be > 0")
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

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
