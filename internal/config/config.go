package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional rotating JSON log file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	Store    string // "redis" | "memory"
	SeedFile string // YAML catalog + bootstrap users, applied when the catalog is empty

	ProbeURL       string        // endpoint checked by the health probe
	ProbeTarget    string        // case-insensitive substring picking the probed service
	ProbeInterval  time.Duration // default: 1m
	ProbeTimeout   time.Duration // default: 5s
	ExpiryInterval time.Duration // maintenance auto-expiry sweep period (default: 1m)

	// Redis
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // backoff cap
	RedisPingTimeout      time.Duration
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total retry budget at startup
	RedisRetryInterval    time.Duration // first backoff step
	RedisWarnThreshold    int

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // restricts /metrics (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	CORSOrigins  []string // empty => "*"

	LoginRatePerMinute int // per client IP
	LoginBurst         int
}

// Load reads an optional .env file then the process environment.
// Real environment variables win over .env entries.
func Load() *Config {
	loadDotEnv(getenv("USSM_ENV_FILE", ".env"))

	cfg := &Config{
		ListenPort:      getenv("USSM_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("USSM_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:      getenv("USSM_LOG_LEVEL", "info"),
		PrettyLog:     mustBool("USSM_PRETTY_LOG", true),
		LogFile:       getenv("USSM_LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("USSM_LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getenvInt("USSM_LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getenvInt("USSM_LOG_MAX_AGE_DAYS", 28),

		Store:    strings.ToLower(getenv("USSM_STORE", StoreRedis)),
		SeedFile: getenv("USSM_SEED_FILE", ""),

		ProbeURL:       getenv("USSM_PROBE_URL", "https://www.google.com"),
		ProbeTarget:    getenv("USSM_PROBE_TARGET", "google"),
		ProbeInterval:  mustDuration("USSM_PROBE_INTERVAL", time.Minute),
		ProbeTimeout:   mustDuration("USSM_PROBE_TIMEOUT", 5*time.Second),
		ExpiryInterval: mustDuration("USSM_EXPIRY_INTERVAL", time.Minute),

		RedisUser:             getenv("USSM_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("USSM_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("USSM_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("USSM_REDIS_DB", 0),
		RedisDT:               mustDuration("USSM_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("USSM_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("USSM_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("USSM_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("USSM_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("USSM_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("USSM_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("USSM_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("USSM_REDIS_WARN_THRESHOLD", 3),

		AllowedHosts: splitAndTrim(getenv("USSM_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("USSM_ALLOWED_CIDRS", "127.0.0.1/32, ::1/128")),
		TrustProxy:   mustBool("USSM_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("USSM_CORS_ORIGINS", "")),

		LoginRatePerMinute: getenvInt("USSM_LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         getenvInt("USSM_LOGIN_BURST", 5),
	}

	switch cfg.Store {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("USSM_REDIS_ADDR")
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: USSM_REDIS_PASSWORD is required when USSM_REDIS_PASSWORD_REQUIRED=true")
		}
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: USSM_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	if cfg.ProbeTimeout <= 0 || cfg.ProbeInterval <= 0 || cfg.ExpiryInterval <= 0 {
		panic("❌ FATAL: probe timeout, probe interval and expiry interval must be positive")
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadDotEnv ignores a missing file; a malformed one is fatal.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: cannot load %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
