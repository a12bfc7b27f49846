// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database"`
	ClusterCount  int64  `json:"cluster_count"`
}

// Health reports process and database health plus the size of the cluster
// map. An unreachable database degrades the status but still answers 200;
// orchestrators use the status field, not the HTTP code.
//
// Method: GET
// Path: /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	status := HealthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Database:      "ok",
	}

	if h.db == nil {
		status.Status = "degraded"
		status.Database = "unavailable"
	} else if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	} else if count, err := h.db.ClusterCount(r.Context()); err == nil {
		status.ClusterCount = count
	}

	respondData(w, status, 0, false)
}
