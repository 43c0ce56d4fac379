// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/forecast/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database and file archive (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	TushareToken   string
	TushareBaseURL string

	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string
	ExchangeRateBaseURL string

	Proxy ProxyConfig

	// FallbackReportPeriod replaces a missing period; empty means today.
	FallbackReportPeriod string

	Archive ArchiveConfig
}

// ProxyConfig is the optional outbound HTTP proxy.
type ProxyConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// URL returns the proxy URL, or "" when disabled.
func (p ProxyConfig) URL() string {
	if !p.Enabled {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", p.Host, p.Port)
}

// ArchiveConfig controls where built records are persisted.
type ArchiveConfig struct {
	Dir           string
	RetentionDays int // 0 disables pruning
	S3            S3Config
}

// S3Config is the optional S3-compatible archive target. Empty Bucket disables it.
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether an S3 bucket is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	archiveDir := getEnv("ARCHIVE_DIR", filepath.Join(absDataDir, "forecasts"))
	if archiveDir, err = filepath.Abs(archiveDir); err != nil {
		return nil, fmt.Errorf("failed to resolve archive directory path: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8001),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		TushareToken:   getEnv("TUSHARE_TOKEN", ""),
		TushareBaseURL: getEnv("TUSHARE_BASE_URL", "http://api.tushare.pro"),

		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageBaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		ExchangeRateBaseURL: getEnv("EXCHANGERATE_BASE_URL", "https://api.exchangerate-api.com/v4/latest"),

		Proxy: ProxyConfig{
			Enabled: getEnvAsBool("PROXY_ENABLED", false),
			Host:    getEnv("PROXY_HOST", "127.0.0.1"),
			Port:    getEnvAsInt("PROXY_PORT", 7890),
		},

		FallbackReportPeriod: getEnv("FALLBACK_REPORT_PERIOD", ""),

		Archive: ArchiveConfig{
			Dir:           archiveDir,
			RetentionDays: getEnvAsInt("ARCHIVE_RETENTION_DAYS", 90),
			S3: S3Config{
				Bucket:          getEnv("ARCHIVE_S3_BUCKET", ""),
				Endpoint:        getEnv("ARCHIVE_S3_ENDPOINT", ""),
				Region:          getEnv("ARCHIVE_S3_REGION", "auto"),
				AccessKeyID:     getEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
				Prefix:          getEnv("ARCHIVE_S3_PREFIX", "forecasts"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable. Missing API credentials are
// allowed; the affected pipeline reports its failures as error records.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Proxy.Enabled {
		if strings.TrimSpace(c.Proxy.Host) == "" {
			return fmt.Errorf("PROXY_HOST is required when PROXY_ENABLED is set")
		}
		if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
			return fmt.Errorf("invalid PROXY_PORT %d", c.Proxy.Port)
		}
	}
	if c.Archive.RetentionDays < 0 {
		return fmt.Errorf("ARCHIVE_RETENTION_DAYS must not be negative, got %d", c.Archive.RetentionDays)
	}
	if c.FallbackReportPeriod != "" && !utils.IsReportDate(c.FallbackReportPeriod) {
		return fmt.Errorf("FALLBACK_REPORT_PERIOD must be YYYYMMDD, got %q", c.FallbackReportPeriod)
	}
	s3 := c.Archive.S3
	if s3.Enabled() && (s3.AccessKeyID == "") != (s3.SecretAccessKey == "") {
		return fmt.Errorf("ARCHIVE_S3_ACCESS_KEY_ID and ARCHIVE_S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
