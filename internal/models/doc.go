// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package models defines the data structures shared between the database,
// compute-gateway, and API layers.
//
// The core entities mirror the shapes produced by the external Python
// clustering pipeline:
//
//   - Bookmark: a saved link with its 2-D embedding projection
//   - Cluster: per-cluster metadata (centroid, keywords, boundary polygon)
//   - DendrogramEdge: one merge step of the cluster hierarchy
//   - ClusterMembership: document-to-cluster assignment at a merge height
//   - GalaxyRecord: memoized AI-generated topic description per keyword set
//
// JSON tags follow the wire format the map frontend already consumes
// (bertId, centroid_x, dateCreate and so on), so the structs double as
// API response payloads.
package models
