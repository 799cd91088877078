package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in ANIARC_STORE_DRIVER.
const (
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (default: 60s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Remote catalog
	CatalogURL         string        // ex: "https://api.jikan.moe/v4"
	CatalogUserAgent   string        // User-Agent sent to the catalog
	CatalogMinInterval time.Duration // minimum spacing between catalog requests (default: 500ms)
	CatalogPageLimit   int           // page size for top and search (default: 25)
	CatalogTimeout     time.Duration // per-request timeout (default: 15s)

	// Title lookup
	LookupURL          string        // ex: "https://api.imdbapi.dev"
	LookupTimeout      time.Duration // per-request timeout (default: 10s)
	LaunchScheme       string        // scheme of launch urls (default: "stremio")
	BreakerFailures    int           // consecutive lookup failures before the breaker opens
	BreakerOpenTimeout time.Duration // time the breaker stays open

	// Feed
	FeedMode        string        // "seasonal" | "top" | "upcoming"
	SearchDebounce  time.Duration // debounce of queued searches (default: 300ms)
	RefreshInterval time.Duration // periodic feed refresh, 0 disables, skipped past page 1 (default: 1h)

	// User state storage
	StoreDriver string // "badger" | "redis" | "memory"
	BadgerPath  string // data directory for badger

	// Redis (only when StoreDriver == "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	// Backups
	BackupSchedule string // cron expression, empty disables scheduled backups
	BackupDir      string // destination of backup files
	BackupFormat   string // "yaml" | "json"
	BackupKeep     int    // number of backups kept (0 = all)
	ImportFile     string // optional backup imported once at startup

	// Inbound HTTP
	RateLimitRequests int           // requests per window and client IP, 0 disables
	RateLimitWindow   time.Duration // ex: 1m
	AllowedCIDRS      []string      // optional, restrict access to specific IP ranges
	TrustProxy        bool          // true => trust X-Forwarded-For headers
}

func Load() *Config {
	loadDotEnv(getenv("ANIARC_ENV_FILE", ".env"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ANIARC_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ANIARC_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ANIARC_REQUEST_TIMEOUT", 60*time.Second),

		// Logging
		LogLevel:  getenv("ANIARC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ANIARC_PRETTY_LOG", true),

		// Catalog
		CatalogURL:         getenv("ANIARC_CATALOG_URL", "https://api.jikan.moe/v4"),
		CatalogUserAgent:   getenv("ANIARC_CATALOG_USER_AGENT", "AniArc/1.0"),
		CatalogMinInterval: mustDuration("ANIARC_CATALOG_MIN_INTERVAL", 500*time.Millisecond),
		CatalogPageLimit:   getenvInt("ANIARC_CATALOG_PAGE_LIMIT", 25),
		CatalogTimeout:     mustDuration("ANIARC_CATALOG_TIMEOUT", 15*time.Second),

		// Lookup
		LookupURL:          getenv("ANIARC_LOOKUP_URL", "https://api.imdbapi.dev"),
		LookupTimeout:      mustDuration("ANIARC_LOOKUP_TIMEOUT", 10*time.Second),
		LaunchScheme:       getenv("ANIARC_LAUNCH_SCHEME", "stremio"),
		BreakerFailures:    getenvInt("ANIARC_BREAKER_FAILURES", 5),
		BreakerOpenTimeout: mustDuration("ANIARC_BREAKER_OPEN_TIMEOUT", 30*time.Second),

		// Feed
		FeedMode:        getenv("ANIARC_FEED_MODE", "seasonal"),
		SearchDebounce:  mustDuration("ANIARC_SEARCH_DEBOUNCE", 300*time.Millisecond),
		RefreshInterval: mustDuration("ANIARC_REFRESH_INTERVAL", time.Hour),

		// Storage
		StoreDriver: strings.ToLower(getenv("ANIARC_STORE_DRIVER", DriverBadger)),
		BadgerPath:  getenv("ANIARC_BADGER_PATH", "/data/aniarc"),

		// Redis settings
		RedisUser:           getenv("ANIARC_REDIS_USERNAME", ""),
		RedisPassword:       getenv("ANIARC_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("ANIARC_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),

		// Backups
		BackupSchedule: getenv("ANIARC_BACKUP_SCHEDULE", ""),
		BackupDir:      getenv("ANIARC_BACKUP_DIR", "/data/backups"),
		BackupFormat:   getenv("ANIARC_BACKUP_FORMAT", "yaml"),
		BackupKeep:     getenvInt("ANIARC_BACKUP_KEEP", 7),
		ImportFile:     getenv("ANIARC_IMPORT_FILE", ""),

		// Inbound HTTP
		RateLimitRequests: getenvInt("ANIARC_RATE_LIMIT", 120),
		RateLimitWindow:   mustDuration("ANIARC_RATE_LIMIT_WINDOW", time.Minute),
		AllowedCIDRS:      parseAllowedIPs(getenv("ANIARC_ALLOWED_CIDRS", "")),
		TrustProxy:        mustBool("ANIARC_TRUST_PROXY", false),
	}

	switch cfg.StoreDriver {
	case DriverBadger, DriverMemory:
	case DriverRedis:
		cfg.RedisAddr = requireEnv("ANIARC_REDIS_ADDR")
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown ANIARC_STORE_DRIVER %q (expected badger, redis or memory)", cfg.StoreDriver))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// loadDotEnv pre-loads path into the environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[WARN] failed to load %s: %v\n", path, err)
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

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// SplitList splits a comma separated list, trimming blanks and quotes.
func SplitList(s string) []string {
	return splitAndTrim(s)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
