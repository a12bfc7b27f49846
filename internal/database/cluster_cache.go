// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// SaveClusterCache appends one clustering computation to the cache log.
// The hash is the compute service's digest of the input bookmark-id set
// and is stored as-is. Duplicate hashes are appended, never deduplicated;
// the compute service consults its own view of the log and tolerates
// repeats.
func (db *DB) SaveClusterCache(ctx context.Context, hash string, clusters []models.Cluster) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("save_cluster_cache").Observe(time.Since(start).Seconds())
	}()

	if clusters == nil {
		clusters = []models.Cluster{}
	}
	payload, err := json.Marshal(clusters)
	if err != nil {
		return fmt.Errorf("failed to encode cluster cache payload: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
	INSERT INTO cluster_cache (hash, clusters)
	VALUES (?, ?)`, hash, string(payload))
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("save_cluster_cache").Inc()
		return fmt.Errorf("failed to save cluster cache entry: %w", err)
	}

	return nil
}

// GetClusterCacheEntries returns every cache log entry for a hash, newest
// first.
func (db *DB) GetClusterCacheEntries(ctx context.Context, hash string) ([]models.ClusterCacheEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
	SELECT hash, clusters, date_create, date_update
	FROM cluster_cache
	WHERE hash = ?
	ORDER BY date_create DESC`, hash)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get_cluster_cache").Inc()
		return nil, fmt.Errorf("failed to query cluster cache: %w", err)
	}
	defer rows.Close()

	entries := []models.ClusterCacheEntry{}
	for rows.Next() {
		var (
			entry   models.ClusterCacheEntry
			payload string
		)
		if err := rows.Scan(&entry.Hash, &payload, &entry.DateCreate, &entry.DateUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan cluster cache row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Clusters); err != nil {
			return nil, fmt.Errorf("failed to decode cluster cache payload: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ClusterCacheCount reports the total number of cache log entries.
func (db *DB) ClusterCacheCount(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cluster_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cluster cache entries: %w", err)
	}
	return count, nil
}
