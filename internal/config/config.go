package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hireloop/hireloop/internal/adapters/docker"
	"github.com/hireloop/hireloop/internal/adapters/greenhouse"
	"github.com/hireloop/hireloop/internal/matching"
)

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PipelineConfig struct {
	MaxHops           int `yaml:"max_hops"`
	MaxRetries        int `yaml:"max_retries"`
	RetryBaseDelayMS  int `yaml:"retry_base_delay_ms"`
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`
	QueueSize         int `yaml:"queue_size"`

	// DigestCron schedules automatic daily_digest runs for every profile.
	// Empty disables the scheduler.
	DigestCron string `yaml:"digest_cron"`
}

func (p PipelineConfig) RetryBaseDelay() time.Duration {
	return time.Duration(p.RetryBaseDelayMS) * time.Millisecond
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Config is the full application configuration, loaded from one YAML file.
type Config struct {
	Server    ServerConfig           `yaml:"server"`
	Database  DatabaseConfig         `yaml:"database"`
	Pipeline  PipelineConfig         `yaml:"pipeline"`
	Matching  matching.Config        `yaml:"matching"`
	Scraper   greenhouse.Config      `yaml:"scraper"`
	Gemini    GeminiConfig           `yaml:"gemini"`
	Submitter docker.SubmitterConfig `yaml:"submitter"`
	Log       LogConfig              `yaml:"log"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8090"},
		Database: DatabaseConfig{Path: "hireloop.db"},
		Pipeline: PipelineConfig{
			MaxHops:           32,
			MaxRetries:        3,
			RetryBaseDelayMS:  250,
			MaxConcurrentRuns: 10,
			QueueSize:         100,
		},
		Matching:  matching.DefaultConfig(),
		Scraper:   greenhouse.Config{RequestsPerSecond: 2},
		Gemini:    GeminiConfig{Model: "gemini-2.5-flash"},
		Submitter: docker.DefaultSubmitterConfig(),
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML config at path, filling unset fields with defaults.
// An empty path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Pipeline.MaxHops <= 0 {
		c.Pipeline.MaxHops = def.Pipeline.MaxHops
	}
	if c.Pipeline.MaxRetries <= 0 {
		c.Pipeline.MaxRetries = def.Pipeline.MaxRetries
	}
	if c.Pipeline.RetryBaseDelayMS <= 0 {
		c.Pipeline.RetryBaseDelayMS = def.Pipeline.RetryBaseDelayMS
	}
	if c.Pipeline.MaxConcurrentRuns <= 0 {
		c.Pipeline.MaxConcurrentRuns = def.Pipeline.MaxConcurrentRuns
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = def.Pipeline.QueueSize
	}
	weightSum := c.Matching.TitleWeight + c.Matching.LocationWeight +
		c.Matching.SalaryWeight + c.Matching.FreshnessWeight
	if weightSum == 0 {
		c.Matching = def.Matching
	}
	if c.Matching.HighlightThreshold <= 0 {
		c.Matching.HighlightThreshold = def.Matching.HighlightThreshold
	}
	if c.Matching.ScoreThreshold <= 0 {
		c.Matching.ScoreThreshold = def.Matching.ScoreThreshold
	}
	if c.Matching.FreshDays <= 0 {
		c.Matching.FreshDays = def.Matching.FreshDays
	}
	if c.Matching.StaleDays <= 0 {
		c.Matching.StaleDays = def.Matching.StaleDays
	}
	if c.Matching.SalarySlack <= 0 {
		c.Matching.SalarySlack = def.Matching.SalarySlack
	}
	if c.Scraper.RequestsPerSecond <= 0 {
		c.Scraper.RequestsPerSecond = def.Scraper.RequestsPerSecond
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = def.Gemini.Model
	}
	if c.Submitter.Image == "" {
		c.Submitter = def.Submitter
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
