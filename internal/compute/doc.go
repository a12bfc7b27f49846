// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

// Package compute is the gateway to the external embedding and clustering
// service. Every call is a single synchronous HTTP round trip bounded by a
// timeout; the gateway never retries. Callers treat any failure as
// "clustering unavailable" and degrade to empty results. A circuit breaker
// sheds load from the remote service once it starts failing.
package compute
