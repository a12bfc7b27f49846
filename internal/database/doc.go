// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package database provides the DuckDB-backed stores for bookmarks, the
// cluster hierarchy, cluster metadata, and the two durable memo caches.
//
// The package owns six tables:
//
//   - bookmarks: saved links with their 2-D embedding projection
//   - dendrogram_edges: parent/child merge steps of the cluster hierarchy
//   - cluster_memberships: document-to-cluster rows per merge height
//   - clusters: per-cluster metadata (keywords, centroid, borders)
//   - cluster_cache: append-only memo of clustering computations
//   - galaxy_cache: memoized topic descriptions per keyword signature
//
// Aggregations the original system expressed as document-store pipelines
// (max-by-group, distinct, average, random sampling) are expressed here as
// DuckDB SQL: arg_max for per-document reduction, AVG for merge-height
// means, and USING SAMPLE for random coordinate picks.
//
// The hierarchy and spatial tables are written only by the ingestion
// pipeline (batch-replaced, never edited field-by-field), so reads are not
// wrapped in transactions.
package database
