// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"time"

	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// maxRectangleClusters caps how many representative clusters a spatial
// range query returns. A map viewport with more than this many labels is
// unreadable anyway.
const maxRectangleClusters = 5

// RectangleSearch resolves the representative clusters for a map viewport.
//
// The flow is: collect the non-anomalous bookmarks strictly inside the
// rectangle, find the highest merge height any of them reaches, reduce each
// document to its most specific cluster strictly inside the open band
// (minLambda, that maximum), drop the reserved whole-map ids, keep at most
// five clusters in
// ascending id order, and report the mean merge height across the kept
// clusters' membership rows as the zoom level for the next query.
//
// An empty rectangle short-circuits to an empty result with a nil lambda;
// no aggregate queries run.
func (db *DB) RectangleSearch(ctx context.Context, x1, y1, x2, y2, minLambda float64) (*models.RectangleSearchResult, error) {
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("rectangle_search").Observe(time.Since(start).Seconds())
	}()

	bookmarks, err := db.GetBookmarksInRect(ctx, x1, y1, x2, y2)
	if err != nil {
		return nil, err
	}

	result := &models.RectangleSearchResult{
		Clusters:    []models.Cluster{},
		Coordinates: bookmarks,
	}
	if result.Coordinates == nil {
		result.Coordinates = []models.Bookmark{}
	}

	docs := make([]int64, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.BertID != nil {
			docs = append(docs, *b.BertID)
		}
	}
	if len(docs) == 0 {
		return result, nil
	}

	maxLambda, ok, err := db.MaxLambdaForDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}
	if !ok || maxLambda < minLambda {
		return result, nil
	}

	clusterIDs, err := db.MostSpecificClusters(ctx, docs, minLambda, maxLambda, maxRectangleClusters)
	if err != nil {
		return nil, err
	}
	if len(clusterIDs) == 0 {
		return result, nil
	}

	// The zoom level for the caller's next query is averaged over the kept
	// clusters only, after the reduction, so dropped reserved ids do not
	// skew it.
	avgLambda, ok, err := db.AvgLambdaForClusters(ctx, clusterIDs)
	if err != nil {
		return nil, err
	}
	if ok {
		result.Lambda = &avgLambda
	}

	clusters, err := db.GetClustersByIDs(ctx, clusterIDs)
	if err != nil {
		return nil, err
	}
	result.Clusters = clusters

	return result, nil
}
