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

// UpsertClusterMeta stores or replaces the metadata record for one cluster
// id. The clustering pipeline republishes all cluster metadata on each run,
// so last write wins.
func (db *DB) UpsertClusterMeta(ctx context.Context, c models.Cluster) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
	INSERT OR REPLACE INTO clusters (bert_id, keywords, centroid_x, centroid_y, borders)
	VALUES (?, ?, ?, ?, ?)`,
		c.BertID, c.KeywordSignature(), c.CentroidX, c.CentroidY, c.Borders)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("upsert_cluster").Inc()
		return fmt.Errorf("failed to upsert cluster metadata: %w", err)
	}

	return nil
}

// GetClusterByID returns the metadata for one cluster, or ErrNotFound.
func (db *DB) GetClusterByID(ctx context.Context, bertID int64) (*models.Cluster, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
	SELECT bert_id, keywords, centroid_x, centroid_y, borders
	FROM clusters
	WHERE bert_id = ?`, bertID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get_cluster").Inc()
		return nil, fmt.Errorf("failed to query cluster: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	c, err := scanCluster(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClustersByIDs returns metadata for the given cluster ids in ascending
// id order. Ids with no metadata row are silently omitted; zoom results
// can reference clusters the pipeline has not republished yet.
func (db *DB) GetClustersByIDs(ctx context.Context, ids []int64) ([]models.Cluster, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(ids) == 0 {
		return []models.Cluster{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("clusters_by_ids").Observe(time.Since(start).Seconds())
	}()

	rows, err := db.conn.QueryContext(ctx, `
	SELECT bert_id, keywords, centroid_x, centroid_y, borders
	FROM clusters
	WHERE bert_id IN `+int64List(ids)+`
	ORDER BY bert_id`)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("clusters_by_ids").Inc()
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	clusters := []models.Cluster{}
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}

	return clusters, rows.Err()
}

func scanCluster(rows *sql.Rows) (models.Cluster, error) {
	var (
		c        models.Cluster
		keywords string
	)
	if err := rows.Scan(&c.BertID, &keywords, &c.CentroidX, &c.CentroidY, &c.Borders); err != nil {
		return c, fmt.Errorf("failed to scan cluster row: %w", err)
	}
	c.Keywords = splitList(keywords)
	return c, nil
}

// ClusterCount reports how many cluster metadata rows exist. Health checks
// use it to tell an empty map from a populated one.
func (db *DB) ClusterCount(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM clusters`).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count clusters: %w", err)
	}
	return count, nil
}
