// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starchart-dev/starchart/internal/middleware"
)

// Router configures the HTTP surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order to all routes.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.corsMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.rateLimitMiddleware()...)
		r.Use(middleware.PrometheusMetrics)
		if h.jwt != nil {
			r.Use(h.jwt.OptionalIdentity)
		}

		r.Get("/health", h.Health)

		r.Route("/cluster", func(r chi.Router) {
			r.Post("/smart", h.SmartSearch)
			r.Post("/prepare/first", h.PrepareFirstClusters)
			r.Post("/prepare/other", h.PrepareOtherClusters)
			r.Post("/check-cache", h.CheckClusterCache)
			r.Post("/check-galaxies", h.CheckGalaxies)
			r.Post("/save-cluster-cache", h.SaveGalaxies)
			r.Post("/get-descriptions", h.GetDescriptions)
		})

		r.Route("/search", func(r chi.Router) {
			r.Post("/rectangle", h.RectangleSearch)
			r.Post("/random/coordinates", h.RandomCoordinates)
			r.Post("/shared/find", h.SharedFind)
			r.Post("/bert/shared/find", h.BertSharedFind)
		})

		r.Route("/content", func(r chi.Router) {
			r.Post("/auto-generate", h.AutoGenerate)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (h *Handler) corsMiddleware() func(http.Handler) http.Handler {
	origins := []string{"*"}
	if h.cfg != nil && len(h.cfg.Security.CORSOrigins) > 0 {
		origins = h.cfg.Security.CORSOrigins
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func (h *Handler) rateLimitMiddleware() []func(http.Handler) http.Handler {
	if h.cfg == nil || h.cfg.Security.RateLimitDisabled {
		return nil
	}

	limit := h.cfg.Security.RateLimitReqs
	if limit <= 0 {
		limit = 300
	}
	window := h.cfg.Security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	return []func(http.Handler) http.Handler{
		httprate.LimitByIP(limit, window),
	}
}
