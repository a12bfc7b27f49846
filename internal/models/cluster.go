// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package models

import (
	"strings"
	"time"
)

// RootClusterID is the sentinel id of the dendrogram root. Smart search
// defaults to it when the request names no starting cluster.
const RootClusterID = 10000

// ReservedClusterIDs are the three top-level cluster ids the clustering
// pipeline emits for the coarsest partition. They are never returned by
// spatial range queries because they cover the whole map and carry no
// zoom information.
var ReservedClusterIDs = []int64{10000, 10001, 10002}

// Cluster is the metadata record for one cluster id appearing in the
// dendrogram: keyword summary, centroid in the shared projection, and an
// opaque serialized boundary polygon for map rendering.
type Cluster struct {
	BertID    int64    `json:"bertId"`
	Keywords  []string `json:"keywords"`
	CentroidX float64  `json:"centroid_x"`
	CentroidY float64  `json:"centroid_y"`
	Borders   string   `json:"borders"`

	// Topic and Description are filled from the galaxy cache (or the
	// remote summarizer) when the caller asked for descriptions.
	Topic       string `json:"topic,omitempty"`
	Description string `json:"description,omitempty"`
}

// KeywordSignature returns the exact cache key for this cluster's topic
// description: the comma-joined keyword list. The signature is
// case-sensitive and order-sensitive; keyword ordering at generation time
// must be stable for cache hits to occur.
func (c *Cluster) KeywordSignature() string {
	return strings.Join(c.Keywords, ",")
}

// DendrogramEdge is one merge step of the hierarchical clustering:
// parent absorbed child at merge height Lambda while child covered
// Documents bookmarks. Higher lambda means an earlier, coarser merge.
// For any parent there are either exactly two children or none.
type DendrogramEdge struct {
	Parent    int64   `json:"parent"`
	Child     int64   `json:"child"`
	Lambda    float64 `json:"lambda"`
	Documents int64   `json:"documents"`
}

// ClusterMembership records that a document belonged to a cluster at merge
// height Lambda. A document has one row per merge level it participated in;
// its most specific assignment under a cut threshold L is the row with the
// maximum lambda still below L.
type ClusterMembership struct {
	Document int64   `json:"document"`
	Cluster  int64   `json:"cluster"`
	Lambda   float64 `json:"lambda"`
}

// GalaxyRecord is a memoized AI-generated topic description, keyed by the
// exact keyword signature string. DateUpdate is bumped on every cache hit
// as an LRU-style recency marker; the content itself is never rewritten.
type GalaxyRecord struct {
	Keywords    string    `json:"keywords"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	DateCreate  time.Time `json:"dateCreate"`
	DateUpdate  time.Time `json:"dateUpdate"`
}

// GalaxyPartition is the result of checking a batch of clusters against the
// galaxy cache: Cached clusters carry their stored topic/description,
// Fresh ones were never summarized.
type GalaxyPartition struct {
	Cached []Cluster `json:"cached"`
	Fresh  []Cluster `json:"fresh"`
}

// ClusterCacheEntry is one append-only record of a clustering computation,
// keyed by the compute service's hash of the input bookmark-id set.
// Entries are never updated in place; the cache is a memo, not a source
// of truth.
type ClusterCacheEntry struct {
	Hash       string    `json:"hash"`
	Clusters   []Cluster `json:"clusters"`
	DateCreate time.Time `json:"dateCreate"`
	DateUpdate time.Time `json:"dateUpdate"`
}

// RectangleSearchResult is the payload of a spatial range query: the
// representative clusters for the rectangle, the mean merge height across
// their membership rows, and the matching bookmarks for point-level detail.
// Lambda is nil when the rectangle contained no bookmarks.
type RectangleSearchResult struct {
	Clusters    []Cluster  `json:"clusters"`
	Lambda      *float64   `json:"lambda,omitempty"`
	Coordinates []Bookmark `json:"coordinates"`
}

// SmartSearchResult is the payload of a hierarchy zoom: the most specific
// informative sibling set for the requested cluster.
type SmartSearchResult struct {
	Clusters []Cluster `json:"clusters"`
}
