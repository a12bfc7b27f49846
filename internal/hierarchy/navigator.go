// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package hierarchy implements the dendrogram zoom used by smart search:
// a read-only walk over the precomputed cluster tree that finds the most
// specific sibling set dense enough to be worth showing.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/starchart-dev/starchart/internal/logging"
	"github.com/starchart-dev/starchart/internal/models"
)

// minSiblingSet is the smallest sibling set worth zooming into. Below
// this the parent level is already as informative.
const minSiblingSet = 4

// EdgeStore provides dendrogram traversal.
type EdgeStore interface {
	GetChildren(ctx context.Context, parent int64) ([]models.DendrogramEdge, error)
}

// ClusterStore resolves cluster ids to their metadata records.
type ClusterStore interface {
	GetClustersByIDs(ctx context.Context, ids []int64) ([]models.Cluster, error)
}

// Navigator walks the dendrogram. It never mutates state and never
// triggers a clustering computation; all data is precomputed.
type Navigator struct {
	edges    EdgeStore
	clusters ClusterStore
}

// NewNavigator returns a navigator over the given stores.
func NewNavigator(edges EdgeStore, clusters ClusterStore) *Navigator {
	return &Navigator{edges: edges, clusters: clusters}
}

// SmartSearch returns the most specific sibling set for a starting
// cluster, or the top-level set when the tree below it is too shallow.
// A non-positive start falls back to the dendrogram root.
//
// The walk goes two levels deep: the start's two children, then their
// children combined. If the combined set has fewer than four clusters the
// parent pair is returned as-is. Otherwise the first node of the combined
// set that itself splits into two is expanded in place, yielding its three
// siblings plus its two children — five clusters, one zoom level denser.
// Expanding only the first qualifying node is a deterministic tie-break,
// not a quality judgement.
func (n *Navigator) SmartSearch(ctx context.Context, start int64) (*models.SmartSearchResult, error) {
	if start <= 0 {
		start = models.RootClusterID
	}

	children, err := n.edges.GetChildren(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to walk dendrogram from %d: %w", start, err)
	}

	// A node without exactly two children is either a leaf or malformed
	// pipeline output; in both cases the node itself (or its direct
	// children) is the best available answer.
	if len(children) == 0 {
		return n.resolve(ctx, []int64{start})
	}
	if len(children) != 2 {
		logging.Warn().
			Int64("cluster", start).
			Int("children", len(children)).
			Msg("Dendrogram node does not split in two, returning direct children")
		return n.resolve(ctx, edgeChildIDs(children))
	}

	deeper := []models.DendrogramEdge{}
	for _, edge := range children {
		grandchildren, err := n.edges.GetChildren(ctx, edge.Child)
		if err != nil {
			return nil, fmt.Errorf("failed to walk dendrogram from %d: %w", edge.Child, err)
		}
		deeper = append(deeper, grandchildren...)
	}

	if len(deeper) < minSiblingSet {
		return n.resolve(ctx, edgeChildIDs(children))
	}

	for i, edge := range deeper {
		grandchildren, err := n.edges.GetChildren(ctx, edge.Child)
		if err != nil {
			return nil, fmt.Errorf("failed to walk dendrogram from %d: %w", edge.Child, err)
		}
		if len(grandchildren) != 2 {
			continue
		}

		// Combine: the expanding node's siblings plus its own two
		// children replace it at a denser zoom level.
		combined := make([]int64, 0, len(deeper)+1)
		for j, sibling := range deeper {
			if j == i {
				continue
			}
			combined = append(combined, sibling.Child)
		}
		combined = append(combined, edgeChildIDs(grandchildren)...)
		return n.resolve(ctx, combined)
	}

	// Nothing below the deeper set splits further; fall back to whatever
	// the originally supplied id resolves to.
	return n.resolve(ctx, []int64{start})
}

// resolve fetches metadata for the ids. Ids without a metadata record are
// omitted, so the result can be smaller than the id set, or empty.
func (n *Navigator) resolve(ctx context.Context, ids []int64) (*models.SmartSearchResult, error) {
	clusters, err := n.clusters.GetClustersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cluster metadata: %w", err)
	}
	if clusters == nil {
		clusters = []models.Cluster{}
	}
	return &models.SmartSearchResult{Clusters: clusters}, nil
}

func edgeChildIDs(edges []models.DendrogramEdge) []int64 {
	ids := make([]int64, len(edges))
	for i, e := range edges {
		ids[i] = e.Child
	}
	return ids
}
