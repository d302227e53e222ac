package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otcflow/signaldesk/internal/news"
	"github.com/otcflow/signaldesk/internal/reconcile"
	"github.com/otcflow/signaldesk/internal/score"
	"github.com/otcflow/signaldesk/internal/stats"
)

// Config is the single validated configuration structure handed to each
// component at construction. No component reads the environment on its own.
type Config struct {
	LogLevel string `yaml:"log_level"`

	HTTP struct {
		Listen string `yaml:"listen"`
	} `yaml:"http"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Postgres struct {
		DSN            string `yaml:"dsn"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"postgres"`

	Thresholds stats.Thresholds `yaml:"thresholds"`
	Scoring    score.Config     `yaml:"scoring"`

	// NewsImpactWindowsMin maps impact level to window size in minutes.
	NewsImpactWindowsMin map[int]int `yaml:"news_impact_windows"`

	RetentionCap reconcile.RetentionCap `yaml:"retention_cap"`

	WriteBatchSize    int `yaml:"write_batch_size"`
	InterBatchDelayMS int `yaml:"inter_batch_delay_ms"`

	// FetchLimit is how many recent chat messages one pass examines.
	FetchLimit int `yaml:"fetch_limit"`

	// PostSignalDelaySeconds is how long after a live signal the follow-up
	// reconciliation pass runs.
	PostSignalDelaySeconds int `yaml:"post_signal_delay_seconds"`

	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds"`

	// AllowPartialSnapshot lets scoring degrade to neutral classification
	// when the stats snapshot is unavailable instead of failing fast.
	AllowPartialSnapshot bool `yaml:"allow_partial_snapshot"`
}

// DefaultConfig mirrors the production defaults of the sheet-backed system.
func DefaultConfig() *Config {
	c := &Config{
		LogLevel:               "info",
		Thresholds:             stats.DefaultThresholds(),
		Scoring:                score.DefaultConfig(),
		NewsImpactWindowsMin:   map[int]int{1: 10, 2: 30, 3: 60},
		RetentionCap:           reconcile.DefaultRetentionCap(),
		WriteBatchSize:         100,
		InterBatchDelayMS:      500,
		FetchLimit:             1000,
		PostSignalDelaySeconds: 360,
		SnapshotTTLSeconds:     300,
	}
	c.HTTP.Listen = ":8087"
	c.Postgres.TimeoutSeconds = 10
	return c
}

// LoadConfig reads a yaml file over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.RetentionCap.Validate(); err != nil {
		return fmt.Errorf("retention_cap: %w", err)
	}
	if err := c.WriterConfig().Validate(); err != nil {
		return err
	}
	for impact, minutes := range c.NewsImpactWindowsMin {
		if impact < 1 || impact > 3 {
			return fmt.Errorf("news_impact_windows: impact %d outside 1..3", impact)
		}
		if minutes <= 0 {
			return fmt.Errorf("news_impact_windows: impact %d window must be positive, got %d", impact, minutes)
		}
	}
	if c.FetchLimit <= 0 {
		return fmt.Errorf("fetch_limit must be positive, got %d", c.FetchLimit)
	}
	if c.PostSignalDelaySeconds < 0 {
		return fmt.Errorf("post_signal_delay_seconds must be non-negative, got %d", c.PostSignalDelaySeconds)
	}
	return nil
}

func (c *Config) WriterConfig() reconcile.WriterConfig {
	return reconcile.WriterConfig{
		BatchSize:       c.WriteBatchSize,
		InterBatchDelay: time.Duration(c.InterBatchDelayMS) * time.Millisecond,
	}
}

func (c *Config) ImpactWindows() news.ImpactWindows {
	w := make(news.ImpactWindows, len(c.NewsImpactWindowsMin))
	for impact, minutes := range c.NewsImpactWindowsMin {
		w[impact] = time.Duration(minutes) * time.Minute
	}
	return w
}

func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

func (c *Config) PostSignalDelay() time.Duration {
	return time.Duration(c.PostSignalDelaySeconds) * time.Second
}

func (c *Config) PostgresTimeout() time.Duration {
	return time.Duration(c.Postgres.TimeoutSeconds) * time.Second
}
