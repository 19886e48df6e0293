// Package config provides application configuration loaded from environment
// variables (and an optional .env file) with defaults and validation. It
// centralizes server timeouts, logging, upstream provider settings, cache
// backend selection, origin policy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/mockgen"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// DefaultModel is used when neither the request nor DEFAULT_MODEL names one.
const DefaultModel = "gpt-4o-mini"

// CORSConfig holds the origin allow-list. Entries may be exact origins, "*",
// a "prefix*" pattern, or the "<no-origin>" sentinel.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// UpstreamConfig describes how the LLM provider is reached.
type UpstreamConfig struct {
	APIKey         string        // OPENAI_API_KEY ("MOCK" enables mock mode)
	Endpoint       string        // OPENAI_ENDPOINT
	DefaultModel   string        // DEFAULT_MODEL
	Timeout        time.Duration // first attempt timeout
	TimeoutStep    time.Duration // added per retry
	MaxRetries     int           // retries after the first attempt
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Deadline       time.Duration // budget for the whole retry sequence, 0 = none
}

// CacheConfig selects and parameterizes the transform cache.
type CacheConfig struct {
	Backend  string        // memory|redis|sqlite|none
	TTL      time.Duration // 15 days by default
	RedisURL string
	DBPath   string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the service.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	GzipEnabled    bool

	// MockFlag is the raw MOCK_TRANSFORM value. Only the exact string "true"
	// turns mock mode on, so it is kept unparsed.
	MockFlag string

	Upstream UpstreamConfig
	Cache    CacheConfig

	// Rate limiting on POST /transform
	RateRPS   float64 // 0 disables
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig
	OTEL     OTELConfig
}

// MockEnabled reports whether transforms are synthesized locally.
func (c Config) MockEnabled() bool {
	return mockgen.Enabled(c.MockFlag, c.Upstream.APIKey)
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads an optional .env file, then environment variables, applies
// defaults, normalizes values, and validates the result. Variables already
// present in the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getenv("PORT", "8787"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		GzipEnabled:    getbool("GZIP_ENABLED", false),

		MockFlag: os.Getenv("MOCK_TRANSFORM"),

		Upstream: UpstreamConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			Endpoint:       getenv("OPENAI_ENDPOINT", "https://api.openai.com/v1/responses"),
			DefaultModel:   getenv("DEFAULT_MODEL", DefaultModel),
			Timeout:        getdur("UPSTREAM_TIMEOUT", 25*time.Second),
			TimeoutStep:    getdur("UPSTREAM_TIMEOUT_STEP", 5*time.Second),
			MaxRetries:     getint("UPSTREAM_MAX_RETRIES", 2),
			InitialBackoff: getdur("UPSTREAM_INITIAL_BACKOFF", 400*time.Millisecond),
			MaxBackoff:     getdur("UPSTREAM_MAX_BACKOFF", 6*time.Second),
			Deadline:       getdur("TRANSFORM_DEADLINE", 100*time.Second),
		},

		Cache: CacheConfig{
			Backend:  strings.ToLower(strings.TrimSpace(getenv("CACHE_BACKEND", CacheMemory))),
			TTL:      getdur("CACHE_TTL", 15*24*time.Hour),
			RedisURL: getenv("REDIS_URL", "redis://localhost:6379/0"),
			DBPath:   getenv("CACHE_DB_PATH", "promptgear-cache.db"),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "promptgear"),
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
	cfg.Upstream.DefaultModel = strings.TrimSpace(cfg.Upstream.DefaultModel)
	if cfg.Upstream.DefaultModel == "" {
		cfg.Upstream.DefaultModel = DefaultModel
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
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.Upstream.Endpoint) == "" {
		return cfg, errors.New("OPENAI_ENDPOINT must not be empty")
	}
	if cfg.Upstream.Timeout <= 0 || cfg.Upstream.TimeoutStep < 0 {
		return cfg, errors.New("UPSTREAM_TIMEOUT must be > 0 and UPSTREAM_TIMEOUT_STEP >= 0")
	}
	if cfg.Upstream.MaxRetries < 0 {
		return cfg, errors.New("UPSTREAM_MAX_RETRIES must be >= 0")
	}
	if cfg.Upstream.InitialBackoff <= 0 || cfg.Upstream.MaxBackoff < cfg.Upstream.InitialBackoff {
		return cfg, errors.New("UPSTREAM_INITIAL_BACKOFF must be > 0 and <= UPSTREAM_MAX_BACKOFF")
	}
	if cfg.Upstream.Deadline < 0 {
		return cfg, errors.New("TRANSFORM_DEADLINE must be >= 0")
	}
	switch cfg.Cache.Backend {
	case CacheMemory, CacheRedis, CacheSQLite, CacheNone:
	default:
		return cfg, errors.New("CACHE_BACKEND must be one of: memory, redis, sqlite, none")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.Cache.Backend == CacheRedis && strings.TrimSpace(cfg.Cache.RedisURL) == "" {
		return cfg, errors.New("REDIS_URL must not be empty when CACHE_BACKEND=redis")
	}
	if cfg.Cache.Backend == CacheSQLite && strings.TrimSpace(cfg.Cache.DBPath) == "" {
		return cfg, errors.New("CACHE_DB_PATH must not be empty when CACHE_BACKEND=sqlite")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

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

// splitOrigins splits an allow-list on commas and/or whitespace, dropping
// empty entries. A blank input yields nil (deny everything).
func splitOrigins(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return nil
	}
	return parts
}
