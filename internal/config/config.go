package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "INFOCOLLECTOR_CONFIG"
	databasePathEnv = "INFOCOLLECTOR_DB"
	logLevelEnv     = "INFOCOLLECTOR_LOG_LEVEL"

	// Default identity presented to target sites. Many sites serve degraded
	// or blocked responses to non-browser agents.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Extract   ExtractConfig   `yaml:"extract"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig describes the SQLite library location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FetchConfig bounds outbound HTTP behavior.
type FetchConfig struct {
	PageTimeoutSeconds   int    `yaml:"pageTimeoutSeconds"`
	FeedTimeoutSeconds   int    `yaml:"feedTimeoutSeconds"`
	MaxRedirects         int    `yaml:"maxRedirects"`
	MaxBodyBytes         int64  `yaml:"maxBodyBytes"`
	MaxConcurrentFetches int64  `yaml:"maxConcurrentFetches"`
	UserAgent            string `yaml:"userAgent"`
}

// PageTimeout is the deadline for full-page fetches.
func (f FetchConfig) PageTimeout() time.Duration {
	return time.Duration(f.PageTimeoutSeconds) * time.Second
}

// FeedTimeout is the deadline for feed fetches, deliberately tighter than
// page fetches.
func (f FetchConfig) FeedTimeout() time.Duration {
	return time.Duration(f.FeedTimeoutSeconds) * time.Second
}

// ExtractConfig holds the content thresholds of the extraction chain.
type ExtractConfig struct {
	MinContentChars  int `yaml:"minContentChars"`
	FallbackMinChars int `yaml:"fallbackMinChars"`
	FallbackMaxChars int `yaml:"fallbackMaxChars"`
}

// IngestConfig tunes the per-feed processing loop.
type IngestConfig struct {
	BackfillThresholdChars int `yaml:"backfillThresholdChars"`
	MaxItemsPerFeed        int `yaml:"maxItemsPerFeed"`
	SummaryPrefixChars     int `yaml:"summaryPrefixChars"`
}

// SchedulerConfig defines how often a full pass runs in daemon mode.
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"intervalMinutes"`
}

// Interval between scheduled passes.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Fetch.PageTimeoutSeconds > 0 {
		base.Fetch.PageTimeoutSeconds = override.Fetch.PageTimeoutSeconds
	}
	if override.Fetch.FeedTimeoutSeconds > 0 {
		base.Fetch.FeedTimeoutSeconds = override.Fetch.FeedTimeoutSeconds
	}
	if override.Fetch.MaxRedirects > 0 {
		base.Fetch.MaxRedirects = override.Fetch.MaxRedirects
	}
	if override.Fetch.MaxBodyBytes > 0 {
		base.Fetch.MaxBodyBytes = override.Fetch.MaxBodyBytes
	}
	if override.Fetch.MaxConcurrentFetches > 0 {
		base.Fetch.MaxConcurrentFetches = override.Fetch.MaxConcurrentFetches
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}

	if override.Extract.MinContentChars > 0 {
		base.Extract.MinContentChars = override.Extract.MinContentChars
	}
	if override.Extract.FallbackMinChars > 0 {
		base.Extract.FallbackMinChars = override.Extract.FallbackMinChars
	}
	if override.Extract.FallbackMaxChars > 0 {
		base.Extract.FallbackMaxChars = override.Extract.FallbackMaxChars
	}

	if override.Ingest.BackfillThresholdChars > 0 {
		base.Ingest.BackfillThresholdChars = override.Ingest.BackfillThresholdChars
	}
	if override.Ingest.MaxItemsPerFeed > 0 {
		base.Ingest.MaxItemsPerFeed = override.Ingest.MaxItemsPerFeed
	}
	if override.Ingest.SummaryPrefixChars > 0 {
		base.Ingest.SummaryPrefixChars = override.Ingest.SummaryPrefixChars
	}

	if override.Scheduler.IntervalMinutes > 0 {
		base.Scheduler.IntervalMinutes = override.Scheduler.IntervalMinutes
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "infocollector.db"},
		Fetch: FetchConfig{
			PageTimeoutSeconds:   30,
			FeedTimeoutSeconds:   15,
			MaxRedirects:         5,
			MaxBodyBytes:         2 << 20,
			MaxConcurrentFetches: 4,
			UserAgent:            defaultUserAgent,
		},
		Extract: ExtractConfig{
			MinContentChars:  100,
			FallbackMinChars: 50,
			FallbackMaxChars: 5000,
		},
		Ingest: IngestConfig{
			BackfillThresholdChars: 500,
			MaxItemsPerFeed:        10,
			SummaryPrefixChars:     200,
		},
		Scheduler: SchedulerConfig{IntervalMinutes: 30},
		Logging:   LoggingConfig{Level: "info"},
	}
}
