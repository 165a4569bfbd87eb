// Package config parses command-line flags and environment variables for
// the predictor service.
//
// Flags take precedence over environment variables, which take precedence
// over defaults. The Config struct covers:
//   - Benchmark source settings (data URLs, homepage, title, fetch timing)
//   - Snapshot storage (memory or redis)
//   - HTTP server settings (listen address, TLS)
//   - Logging (level, format)
//
// Example usage:
//
//	cfg := config.ParseFlags()
//	urls := cfg.SourceURLs()
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ffui/benchcast/pkg/tls"
)

// Config holds all predictor configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	TLS tls.Config

	SourceName   string
	DataURLs     string
	HomepageURL  string
	SourceTitle  string
	UserAgent    string
	FetchTimeout time.Duration
	Interval     time.Duration
}

// ParseFlags parses command-line flags with environment variable
// fallbacks. Exits with a usage error when required settings are missing.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.SnapshotTTL, "snapshot-ttl", getEnvDuration("SNAPSHOT_TTL", 24*time.Hour), "Stored snapshot TTL")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	flag.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	flag.StringVar(&cfg.SourceName, "source-name", getEnv("SOURCE_NAME", "default"), "Name the snapshot is stored under")
	flag.StringVar(&cfg.DataURLs, "data-urls", getEnv("DATA_URLS", ""), "Comma-separated benchmark page URLs, freshest last (required)")
	flag.StringVar(&cfg.HomepageURL, "homepage-url", getEnv("HOMEPAGE_URL", ""), "Benchmark site homepage URL recorded in snapshot provenance")
	flag.StringVar(&cfg.SourceTitle, "source-title", getEnv("SOURCE_TITLE", ""), "Human-readable benchmark source title")
	flag.StringVar(&cfg.UserAgent, "user-agent", getEnv("USER_AGENT", ""), "User-Agent header for benchmark page fetches")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", getEnvDuration("FETCH_TIMEOUT", 30*time.Second), "Per-page fetch timeout")
	flag.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 6*time.Hour), "Snapshot refresh interval")

	flag.Parse()

	if cfg.DataURLs == "" {
		fmt.Fprintln(os.Stderr, "Error: --data-urls is required")
		os.Exit(1)
	}
	if err := Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// SourceURLs splits the comma-separated data URL list, dropping empty
// entries. Order is preserved: later URLs override earlier ones on
// dataset collisions during the merge.
func (c *Config) SourceURLs() []string {
	var urls []string
	for _, u := range strings.Split(c.DataURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

var sourceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// Validate checks settings that ParseFlags cannot express as defaults.
func Validate(cfg *Config) error {
	if !sourceNameRegex.MatchString(cfg.SourceName) {
		return fmt.Errorf("invalid source name %q (must be alphanumeric with dash/underscore)", cfg.SourceName)
	}
	if cfg.Storage != "memory" && cfg.Storage != "redis" {
		return fmt.Errorf("invalid storage backend %q (must be memory or redis)", cfg.Storage)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be > 0")
	}
	if len(cfg.SourceURLs()) == 0 {
		return fmt.Errorf("at least one data URL is required")
	}
	if err := cfg.TLS.Validate(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
