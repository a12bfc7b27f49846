// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package api implements the HTTP surface of the cluster map backend.
//
// All handlers follow a consistent pattern:
//  1. Method validation (POST for all search/cluster operations)
//  2. Body decoding and validation
//  3. Store query or compute gateway call with context
//  4. JSON envelope response with metadata
//
// Error philosophy, binding for every handler: invalid input degrades to
// an empty result with status 200 so map UIs stay responsive; only an
// unavailable compute upstream produces an error response, and never a
// process crash.
package api
