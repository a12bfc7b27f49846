// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package metrics exposes Prometheus collectors for the HTTP API, the
// DuckDB store, the compute gateway, and the response memo cache.
//
// Metrics are exported at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchart_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration observes request latency by method and endpoint.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starchart_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// APIActiveRequests tracks in-flight requests.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starchart_api_requests_in_flight",
			Help: "Number of API requests currently being served",
		},
	)

	// DBQueryDuration observes store query execution time by operation.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starchart_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"operation"},
	)

	// DBQueryErrors counts failed store queries by operation.
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchart_db_query_errors_total",
			Help: "Total number of failed database queries",
		},
		[]string{"operation"},
	)

	// ComputeRequestsTotal counts compute gateway calls by operation and
	// outcome.
	ComputeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchart_compute_requests_total",
			Help: "Total number of compute gateway requests",
		},
		[]string{"operation", "outcome"},
	)

	// ComputeRequestDuration observes compute gateway latency by operation.
	ComputeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starchart_compute_request_duration_seconds",
			Help:    "Compute gateway request latency in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState reports compute breaker state:
	// 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starchart_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CacheHits counts memo cache hits by cache type.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchart_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	// CacheMisses counts memo cache misses by cache type.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starchart_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)
