// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starchart-dev/starchart/internal/logging"
	"github.com/starchart-dev/starchart/internal/models"
)

// SeedMockData populates a small demo dendrogram for local development:
// a root split into two reserved top-level clusters, four leaf clusters
// below them, and a dozen bookmarks spread over the projection. Runs only
// when the bookmarks table is empty.
func (db *DB) SeedMockData(ctx context.Context) error {
	var existing int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if existing > 0 {
		logging.Debug().Int64("bookmarks", existing).Msg("Skipping mock data seed, database not empty")
		return nil
	}

	edges := []models.DendrogramEdge{
		{Parent: 10000, Child: 10001, Lambda: 0.02, Documents: 6},
		{Parent: 10000, Child: 10002, Lambda: 0.02, Documents: 6},
		{Parent: 10001, Child: 1, Lambda: 0.15, Documents: 3},
		{Parent: 10001, Child: 2, Lambda: 0.15, Documents: 3},
		{Parent: 10002, Child: 3, Lambda: 0.12, Documents: 3},
		{Parent: 10002, Child: 4, Lambda: 0.12, Documents: 3},
	}
	for _, e := range edges {
		if err := db.InsertDendrogramEdge(ctx, e); err != nil {
			return err
		}
	}

	clusters := []models.Cluster{
		{BertID: 1, Keywords: []string{"golang", "concurrency", "channels"}, CentroidX: -4.1, CentroidY: 2.3},
		{BertID: 2, Keywords: []string{"databases", "sql", "indexing"}, CentroidX: -2.8, CentroidY: 3.7},
		{BertID: 3, Keywords: []string{"astronomy", "telescopes", "exoplanets"}, CentroidX: 3.5, CentroidY: -1.9},
		{BertID: 4, Keywords: []string{"cooking", "fermentation", "bread"}, CentroidX: 4.8, CentroidY: -3.2},
	}
	for _, c := range clusters {
		if err := db.UpsertClusterMeta(ctx, c); err != nil {
			return err
		}
	}

	centroids := map[int64][2]float64{
		1: {-4.1, 2.3},
		2: {-2.8, 3.7},
		3: {3.5, -1.9},
		4: {4.8, -3.2},
	}
	offsets := [][2]float64{{0.1, 0.2}, {-0.3, 0.1}, {0.2, -0.2}}
	leafLambda := map[int64]float64{1: 0.42, 2: 0.38, 3: 0.35, 4: 0.4}
	parentLambda := map[int64]float64{1: 0.15, 2: 0.15, 3: 0.12, 4: 0.12}
	parentOf := map[int64]int64{1: 10001, 2: 10001, 3: 10002, 4: 10002}

	doc := int64(100)
	now := time.Now().UTC()
	for _, leaf := range []int64{1, 2, 3, 4} {
		for i, off := range offsets {
			bertID := doc
			b := models.Bookmark{
				ID:          uuid.New(),
				Link:        fmt.Sprintf("https://example.com/seed/%d", doc),
				Title:       fmt.Sprintf("Seed bookmark %d", doc),
				Description: fmt.Sprintf("Demo bookmark %d in cluster %d", i, leaf),
				Access:      models.AccessPublic,
				BertID:      &bertID,
				Coordinates: &models.Coordinates{
					X: centroids[leaf][0] + off[0],
					Y: centroids[leaf][1] + off[1],
				},
				DateCreate: now,
				DateUpdate: now,
			}
			if err := db.InsertBookmark(ctx, &b); err != nil {
				return err
			}

			memberships := []models.ClusterMembership{
				{Document: doc, Cluster: leaf, Lambda: leafLambda[leaf]},
				{Document: doc, Cluster: parentOf[leaf], Lambda: parentLambda[leaf]},
				{Document: doc, Cluster: 10000, Lambda: 0.02},
			}
			for _, m := range memberships {
				if err := db.InsertMembership(ctx, m); err != nil {
					return err
				}
			}
			doc++
		}
	}

	logging.Info().Int64("bookmarks", doc-100).Msg("Seeded mock dendrogram data")
	return nil
}
