// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// lookupGalaxy returns the oldest stored description for an exact keyword
// signature, or ErrNotFound. Taking the oldest row means concurrent saves
// of the same signature can never change an established topic.
func (db *DB) lookupGalaxy(ctx context.Context, signature string) (*models.GalaxyRecord, error) {
	var rec models.GalaxyRecord
	err := db.conn.QueryRowContext(ctx, `
	SELECT keywords, topic, description, date_create, date_update
	FROM galaxy_cache
	WHERE keywords = ?
	ORDER BY date_create ASC
	LIMIT 1`, signature).Scan(&rec.Keywords, &rec.Topic, &rec.Description, &rec.DateCreate, &rec.DateUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query galaxy cache: %w", err)
	}
	return &rec, nil
}

// PartitionGalaxies splits the clusters into those with a memoized topic
// description and those never summarized. Matching is by exact keyword
// signature; any change to a cluster's keyword list makes it fresh again.
// Each hit bumps the record's date_update as a recency marker.
func (db *DB) PartitionGalaxies(ctx context.Context, clusters []models.Cluster) (*models.GalaxyPartition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("partition_galaxies").Observe(time.Since(start).Seconds())
	}()

	partition := &models.GalaxyPartition{
		Cached: []models.Cluster{},
		Fresh:  []models.Cluster{},
	}

	for _, cluster := range clusters {
		signature := cluster.KeywordSignature()

		rec, err := db.lookupGalaxy(ctx, signature)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				metrics.CacheMisses.WithLabelValues("galaxy").Inc()
				partition.Fresh = append(partition.Fresh, cluster)
				continue
			}
			metrics.DBQueryErrors.WithLabelValues("partition_galaxies").Inc()
			return nil, err
		}

		metrics.CacheHits.WithLabelValues("galaxy").Inc()
		if _, err := db.conn.ExecContext(ctx, `
		UPDATE galaxy_cache
		SET date_update = CURRENT_TIMESTAMP
		WHERE keywords = ?`, signature); err != nil {
			return nil, fmt.Errorf("failed to touch galaxy cache entry: %w", err)
		}

		cluster.Topic = rec.Topic
		cluster.Description = rec.Description
		partition.Cached = append(partition.Cached, cluster)
	}

	return partition, nil
}

// SaveGalaxies stores topic descriptions for clusters whose keyword
// signature has no entry yet. Signatures already present are skipped, so
// replaying a summarizer response cannot overwrite an established topic.
// Clusters with an empty topic and description are skipped outright.
func (db *DB) SaveGalaxies(ctx context.Context, clusters []models.Cluster) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("save_galaxies").Observe(time.Since(start).Seconds())
	}()

	for _, cluster := range clusters {
		if cluster.Topic == "" && cluster.Description == "" {
			continue
		}
		signature := cluster.KeywordSignature()

		if _, err := db.lookupGalaxy(ctx, signature); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			metrics.DBQueryErrors.WithLabelValues("save_galaxies").Inc()
			return err
		}

		if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO galaxy_cache (keywords, topic, description)
		VALUES (?, ?, ?)`, signature, cluster.Topic, cluster.Description); err != nil {
			metrics.DBQueryErrors.WithLabelValues("save_galaxies").Inc()
			return fmt.Errorf("failed to save galaxy cache entry: %w", err)
		}
	}

	return nil
}

// GalaxyCount reports the number of memoized topic descriptions.
func (db *DB) GalaxyCount(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM galaxy_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count galaxy cache entries: %w", err)
	}
	return count, nil
}
