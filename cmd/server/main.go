// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package main is the entry point for the Starchart server.
//
// Starchart is the cluster search and spatial map backend of a social
// bookmarking platform: bookmarks are embedded into a shared 2-D
// projection by an external compute service, grouped by hierarchical
// clustering, and explored on a zoomable map.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml and
//     environment variables (Koanf v2)
//  2. Logging: zerolog, console or JSON format
//  3. Database: embedded DuckDB holding bookmarks, the precomputed
//     dendrogram, and the cluster/description caches
//  4. Compute gateway: HTTP client for the external clustering and
//     summarization service, behind a circuit breaker
//  5. HTTP server: REST API with Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in defaults.
// See config.yaml.example for the full surface. Common settings:
//
//	export STARCHART_SERVER_PORT=4326
//	export STARCHART_DATABASE_PATH=/data/starchart.duckdb
//	export STARCHART_COMPUTE_CLUSTER_URL=http://localhost:8000
//	export STARCHART_SECURITY_JWT_SECRET=change-me-to-32-plus-characters
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits up to 10 seconds for in-flight
// requests, then closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starchart-dev/starchart/internal/api"
	"github.com/starchart-dev/starchart/internal/auth"
	"github.com/starchart-dev/starchart/internal/compute"
	"github.com/starchart-dev/starchart/internal/config"
	"github.com/starchart-dev/starchart/internal/database"
	"github.com/starchart-dev/starchart/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting Starchart server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(context.Background()); err != nil {
			return fmt.Errorf("failed to seed mock data: %w", err)
		}
	}

	computeClient := compute.NewClient(&cfg.Compute)
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)

	handler := api.NewHandler(db, computeClient, cfg, jwtManager)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
