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
	"strconv"
	"strings"
	"time"

	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// InsertDendrogramEdge records one merge step of the cluster hierarchy.
func (db *DB) InsertDendrogramEdge(ctx context.Context, e models.DendrogramEdge) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO dendrogram_edges (parent, child, merge_height, documents)
	VALUES (?, ?, ?, ?)`, e.Parent, e.Child, e.Lambda, e.Documents)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert_edge").Inc()
		return fmt.Errorf("failed to insert dendrogram edge: %w", err)
	}

	return nil
}

// InsertMembership records that a document belonged to a cluster at the
// given merge height.
func (db *DB) InsertMembership(ctx context.Context, m models.ClusterMembership) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO cluster_memberships (document, cluster, merge_height)
	VALUES (?, ?, ?)`, m.Document, m.Cluster, m.Lambda)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert_membership").Inc()
		return fmt.Errorf("failed to insert cluster membership: %w", err)
	}

	return nil
}

// GetChildren returns the direct children of a dendrogram node in
// ascending child-id order. A leaf returns an empty slice, not an error.
func (db *DB) GetChildren(ctx context.Context, parent int64) ([]models.DendrogramEdge, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("get_children").Observe(time.Since(start).Seconds())
	}()

	rows, err := db.conn.QueryContext(ctx, `
	SELECT parent, child, merge_height, documents
	FROM dendrogram_edges
	WHERE parent = ?
	ORDER BY child`, parent)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get_children").Inc()
		return nil, fmt.Errorf("failed to query dendrogram children: %w", err)
	}
	defer rows.Close()

	edges := []models.DendrogramEdge{}
	for rows.Next() {
		var e models.DendrogramEdge
		if err := rows.Scan(&e.Parent, &e.Child, &e.Lambda, &e.Documents); err != nil {
			return nil, fmt.Errorf("failed to scan dendrogram edge: %w", err)
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

// int64List renders an inline "(1, 2, 3)" id list. Membership queries take
// thousands of document ids, which would blow the driver's bind limit as
// placeholders; the values are int64 so inlining is injection-safe.
func int64List(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MaxLambdaForDocuments returns the maximum membership merge height over
// the given documents. The second return is false when none of the
// documents has a membership row.
func (db *DB) MaxLambdaForDocuments(ctx context.Context, docs []int64) (float64, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(docs) == 0 {
		return 0, false, nil
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("max_lambda").Observe(time.Since(start).Seconds())
	}()

	var maxLambda sql.NullFloat64
	err := db.conn.QueryRowContext(ctx, `
	SELECT MAX(merge_height)
	FROM cluster_memberships
	WHERE document IN `+int64List(docs)).Scan(&maxLambda)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		metrics.DBQueryErrors.WithLabelValues("max_lambda").Inc()
		return 0, false, fmt.Errorf("failed to query max lambda: %w", err)
	}

	if !maxLambda.Valid {
		return 0, false, nil
	}
	return maxLambda.Float64, true, nil
}

// MostSpecificClusters reduces the documents to their most specific
// cluster assignments inside the open merge-height band
// (minLambda, maxLambda): for each document the membership row with the
// highest lambda strictly inside the band wins, reserved top-level ids are
// dropped, and at most limit distinct cluster ids are returned in
// ascending order. Both bounds are exclusive, so a document whose only
// candidate sits exactly on a bound falls back to its next row in band.
func (db *DB) MostSpecificClusters(ctx context.Context, docs []int64, minLambda, maxLambda float64, limit int) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(docs) == 0 {
		return []int64{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("band_reduce").Observe(time.Since(start).Seconds())
	}()

	rows, err := db.conn.QueryContext(ctx, `
	SELECT DISTINCT cluster_id FROM (
		SELECT arg_max(cluster, merge_height) AS cluster_id
		FROM cluster_memberships
		WHERE document IN `+int64List(docs)+`
		  AND merge_height > ? AND merge_height < ?
		GROUP BY document
	)
	WHERE cluster_id NOT IN `+int64List(models.ReservedClusterIDs)+`
	ORDER BY cluster_id
	LIMIT ?`, minLambda, maxLambda, limit)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("band_reduce").Inc()
		return nil, fmt.Errorf("failed to reduce memberships: %w", err)
	}
	defer rows.Close()

	clusterIDs := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cluster id: %w", err)
		}
		clusterIDs = append(clusterIDs, id)
	}

	return clusterIDs, rows.Err()
}

// AvgLambdaForClusters returns the mean merge height across all membership
// rows of the given clusters. The second return is false when the clusters
// have no membership rows.
func (db *DB) AvgLambdaForClusters(ctx context.Context, clusterIDs []int64) (float64, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(clusterIDs) == 0 {
		return 0, false, nil
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("avg_lambda").Observe(time.Since(start).Seconds())
	}()

	var avgLambda sql.NullFloat64
	err := db.conn.QueryRowContext(ctx, `
	SELECT AVG(merge_height)
	FROM cluster_memberships
	WHERE cluster IN `+int64List(clusterIDs)).Scan(&avgLambda)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		metrics.DBQueryErrors.WithLabelValues("avg_lambda").Inc()
		return 0, false, fmt.Errorf("failed to query average lambda: %w", err)
	}

	if !avgLambda.Valid {
		return 0, false, nil
	}
	return avgLambda.Float64, true, nil
}
