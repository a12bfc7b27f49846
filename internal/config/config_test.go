// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 4326 {
		t.Errorf("expected default port 4326, got %d", cfg.Server.Port)
	}
	if cfg.Compute.Timeout != 8*time.Second {
		t.Errorf("expected 8s compute timeout, got %s", cfg.Compute.Timeout)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected 5m cache TTL, got %s", cfg.Cache.TTL)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "missing cluster url",
			mutate:  func(c *Config) { c.Compute.ClusterURL = "" },
			wantErr: "compute.cluster_url",
		},
		{
			name: "short jwt secret in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "short"
			},
			wantErr: "jwt_secret",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.Cache.TTL = -time.Second },
			wantErr: "cache.ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSummarizerDefaultsToClusterURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Compute.ClusterURL = "http://cluster:8000"
	cfg.Compute.SummarizerURL = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.Compute.SummarizerURL != "http://cluster:8000" {
		t.Errorf("expected summarizer to default to cluster url, got %s", cfg.Compute.SummarizerURL)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
database:
  path: /tmp/test.duckdb
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STARCHART_SERVER_HOST", "127.0.0.9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("file value not applied: port %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("file value not applied: path %s", cfg.Database.Path)
	}
	// Environment beats file.
	if cfg.Server.Host != "127.0.0.9" {
		t.Errorf("env value not applied: host %s", cfg.Server.Host)
	}
}
