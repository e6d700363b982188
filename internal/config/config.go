// Package config resolves the application configuration from layered .env
// files and process environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DataSource selects which backend the repository fetches rows from.
type DataSource string

const (
	DataSourceSynthetic DataSource = "SYNTHETIC"
	DataSourceREST      DataSource = "REST"
	DataSourceSQL       DataSource = "SQL"
)

// CacheType selects the cache store implementation.
type CacheType string

const (
	CacheSimple CacheType = "SimpleCache"
	CacheRedis  CacheType = "RedisCache"
)

// Error reports an invalid or missing configuration value. Configuration
// errors are fatal: the process must not serve traffic with a config that
// fails validation for its selected mode.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Logging holds the logger configuration.
type Logging struct {
	Level  string
	Format string
}

// Config is the immutable process-wide configuration. It is resolved once at
// startup and passed explicitly to every component; a restart is required to
// pick up changes.
type Config struct {
	AppEnv      string
	AppTitle    string
	Port        int
	DisableAuth bool

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	DataSource DataSource
	APIBaseURL string
	DBURL      string
	MaxRows    int

	CacheType    CacheType
	RedisURL     string
	CacheTimeout time.Duration

	HTTPTimeout     time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	Logging Logging
}

// Load resolves the configuration from .env files in the working directory
// and the process environment.
func Load() (*Config, error) {
	return LoadFromDir(".")
}

// LoadFromDir resolves the configuration using .env files found in dir.
// File precedence, lowest to highest: .env, .env.dev, .env.{APP_ENV},
// .env.local, .env.{APP_ENV}.local. Real environment variables always win
// over any file-provided value.
func LoadFromDir(dir string) (*Config, error) {
	vals := map[string]string{}
	merge := func(name string) {
		m, err := godotenv.Read(filepath.Join(dir, name))
		if err != nil {
			return // missing files are fine
		}
		for k, v := range m {
			vals[k] = v
		}
	}

	merge(".env")
	merge(".env.dev")
	appEnv := lookup(vals, "APP_ENV", "dev")
	merge(".env." + appEnv)
	merge(".env.local")
	merge(".env." + appEnv + ".local")
	appEnv = lookup(vals, "APP_ENV", appEnv)

	cfg := &Config{
		AppEnv:   appEnv,
		AppTitle: lookup(vals, "APP_TITLE", "Enterprise Analytics Dashboard"),

		JWTSecret:   lookup(vals, "JWT_SECRET", "dev-secret"),
		JWTIssuer:   lookup(vals, "JWT_ISSUER", ""),
		JWTAudience: lookup(vals, "JWT_AUDIENCE", ""),

		APIBaseURL: strings.TrimRight(lookup(vals, "API_BASE_URL", ""), "/"),
		DBURL:      lookup(vals, "DB_URL", ""),
		RedisURL:   lookup(vals, "REDIS_URL", ""),

		Logging: Logging{
			Level:  lookup(vals, "LOG_LEVEL", "info"),
			Format: lookup(vals, "LOG_FORMAT", "text"),
		},
	}

	var err error
	if cfg.Port, err = lookupInt(vals, "PORT", 8050); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, &Error{Field: "PORT", Reason: "must be between 1 and 65535"}
	}
	if cfg.DisableAuth, err = lookupBool(vals, "DISABLE_AUTH", false); err != nil {
		return nil, err
	}
	if cfg.MaxRows, err = lookupInt(vals, "MAX_ROWS", 7000); err != nil {
		return nil, err
	}
	if cfg.MaxRows < 1 {
		return nil, &Error{Field: "MAX_ROWS", Reason: "must be at least 1"}
	}

	cacheSeconds, err := lookupInt(vals, "CACHE_TIMEOUT_SECONDS", 24*60*60)
	if err != nil {
		return nil, err
	}
	if cacheSeconds < 0 {
		return nil, &Error{Field: "CACHE_TIMEOUT_SECONDS", Reason: "must not be negative"}
	}
	cfg.CacheTimeout = time.Duration(cacheSeconds) * time.Second

	httpSeconds, err := lookupInt(vals, "HTTP_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = time.Duration(httpSeconds) * time.Second

	if cfg.RateLimitRPS, err = lookupInt(vals, "RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = lookupInt(vals, "RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = splitList(lookup(vals, "CORS_ALLOWED_ORIGINS", "*"))
	cfg.ShutdownTimeout = 10 * time.Second

	switch src := DataSource(strings.ToUpper(lookup(vals, "DATA_SOURCE", string(DataSourceSynthetic)))); src {
	case DataSourceSynthetic, DataSourceREST, DataSourceSQL:
		cfg.DataSource = src
	default:
		return nil, &Error{Field: "DATA_SOURCE", Reason: fmt.Sprintf("unknown value %q (expected SYNTHETIC, REST or SQL)", src)}
	}

	switch ct := CacheType(lookup(vals, "CACHE_TYPE", string(CacheSimple))); ct {
	case CacheSimple, CacheRedis:
		cfg.CacheType = ct
	default:
		return nil, &Error{Field: "CACHE_TYPE", Reason: fmt.Sprintf("unknown value %q (expected SimpleCache or RedisCache)", ct)}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.DisableAuth && c.JWTSecret == "" {
		return &Error{Field: "JWT_SECRET", Reason: "required unless DISABLE_AUTH is set"}
	}
	if c.DataSource == DataSourceREST && c.APIBaseURL == "" {
		return &Error{Field: "API_BASE_URL", Reason: "required when DATA_SOURCE=REST"}
	}
	if c.DataSource == DataSourceSQL && c.DBURL == "" {
		return &Error{Field: "DB_URL", Reason: "required when DATA_SOURCE=SQL"}
	}
	if c.CacheType == CacheRedis && c.RedisURL == "" {
		return &Error{Field: "REDIS_URL", Reason: "required when CACHE_TYPE=RedisCache"}
	}
	return nil
}

// lookup returns the value for key, preferring the process environment over
// file-provided values, falling back to def.
func lookup(vals map[string]string, key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	if v, ok := vals[key]; ok {
		return v
	}
	return def
}

func lookupInt(vals map[string]string, key string, def int) (int, error) {
	raw := lookup(vals, key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &Error{Field: key, Reason: fmt.Sprintf("not an integer: %q", raw)}
	}
	return n, nil
}

func lookupBool(vals map[string]string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(lookup(vals, key, ""))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Field: key, Reason: fmt.Sprintf("not a boolean: %q", raw)}
	}
	return b, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
