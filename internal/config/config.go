// Package config provides YAML-based configuration loading for Compass.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Compass configuration, loaded from compass.yaml.
type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Server     ServerConfig      `yaml:"server"`
	Scoring    ScoringConfig     `yaml:"scoring"`
	Digest     DigestConfig      `yaml:"digest"`
	Frameworks []FrameworkConfig `yaml:"frameworks"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ScoringConfig holds gap-analysis defaults. GapThreshold is only a
// default; callers may override it per request.
type ScoringConfig struct {
	GapThreshold float64 `yaml:"gap_threshold"`
}

// DigestConfig controls the health-snapshot digest loop.
type DigestConfig struct {
	Schedule  string `yaml:"schedule"`
	StaleDays int    `yaml:"stale_days"`
}

// FrameworkConfig declares an assessment framework to seed.
type FrameworkConfig struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "compass"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Scoring.GapThreshold == 0 {
		c.Scoring.GapThreshold = 3.5
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 6 * * *"
	}
	if c.Digest.StaleDays == 0 {
		c.Digest.StaleDays = 14
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Scoring.GapThreshold < 1 || c.Scoring.GapThreshold > 5 {
		errs = append(errs, "scoring.gap_threshold must be between 1 and 5")
	}
	if len(c.Frameworks) == 0 {
		errs = append(errs, "at least one framework is required")
	}
	seen := make(map[string]bool)
	for i, f := range c.Frameworks {
		if f.Key == "" {
			errs = append(errs, fmt.Sprintf("frameworks[%d].key is required", i))
		}
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("frameworks[%d].name is required", i))
		}
		if seen[f.Key] {
			errs = append(errs, fmt.Sprintf("frameworks[%d].key %q is duplicated", i, f.Key))
		}
		seen[f.Key] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
