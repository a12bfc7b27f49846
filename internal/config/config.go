// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package config loads and validates the Starchart server configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//
//  1. Environment variables (STARCHART_SERVER_PORT, COMPUTE_CLUSTER_URL, ...)
//  2. Config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Starchart server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Compute  ComputeConfig  `koanf:"compute"`
	Security SecurityConfig `koanf:"security"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig controls the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:" for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB's thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedMockData populates a small demo dendrogram on startup.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// ComputeConfig points at the external Python compute service.
//
// ClusterURL hosts the clustering endpoints (prepare/clusters,
// prepare/other, check-cache, search); SummarizerURL hosts content
// summarization (clusters-description, auto-generate). The two may be the
// same process; they are configured separately because the original
// deployment split them.
type ComputeConfig struct {
	ClusterURL    string        `koanf:"cluster_url"`
	SummarizerURL string        `koanf:"summarizer_url"`

	// Timeout bounds every gateway call. Calls past the deadline fail and
	// the caller degrades to an empty result instead of hanging.
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig controls authentication and request throttling.
type SecurityConfig struct {
	// JWTSecret signs session tokens; 32+ characters required outside
	// development.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CacheConfig controls the in-memory response memo cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Compute.ClusterURL == "" {
		return fmt.Errorf("compute.cluster_url is required")
	}
	if c.Compute.SummarizerURL == "" {
		// Summarizer defaults to the cluster service host.
		c.Compute.SummarizerURL = c.Compute.ClusterURL
	}
	if c.Compute.Timeout <= 0 {
		return fmt.Errorf("compute.timeout must be positive, got %s", c.Compute.Timeout)
	}

	if c.Server.Environment == "production" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}

	return nil
}
