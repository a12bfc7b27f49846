// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"time"

	"github.com/starchart-dev/starchart/internal/auth"
	"github.com/starchart-dev/starchart/internal/cache"
	"github.com/starchart-dev/starchart/internal/compute"
	"github.com/starchart-dev/starchart/internal/config"
	"github.com/starchart-dev/starchart/internal/database"
	"github.com/starchart-dev/starchart/internal/hierarchy"
)

// Handler holds dependencies for all API endpoints.
type Handler struct {
	db        *database.DB
	navigator *hierarchy.Navigator
	compute   compute.Service
	cache     *cache.Cache
	cfg       *config.Config
	jwt       *auth.JWTManager
	startTime time.Time
}

// NewHandler creates a handler with the given dependencies. The compute
// service may be nil; compute-backed endpoints then answer "unavailable".
func NewHandler(db *database.DB, computeSvc compute.Service, cfg *config.Config, jwtManager *auth.JWTManager) *Handler {
	var navigator *hierarchy.Navigator
	if db != nil {
		navigator = hierarchy.NewNavigator(db, db)
	}

	ttl := 5 * time.Minute
	if cfg != nil && cfg.Cache.TTL > 0 {
		ttl = cfg.Cache.TTL
	}

	return &Handler{
		db:        db,
		navigator: navigator,
		compute:   computeSvc,
		cache:     cache.New(ttl),
		cfg:       cfg,
		jwt:       jwtManager,
		startTime: time.Now(),
	}
}
