// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"net/http"
	"time"
)

// AutoGenerateRequest asks the summarizer to describe a link.
type AutoGenerateRequest struct {
	Link string `json:"link" validate:"required,url,max=2000"`
	Mode string `json:"mode" validate:"omitempty,oneof=short long tags"`
}

// AutoGenerate delegates content generation for a link to the summarizer:
// a suggested title, description, and tags for a bookmark being created.
//
// Method: POST
// Path: /api/v1/content/auto-generate
func (h *Handler) AutoGenerate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireCompute(w) {
		return
	}

	var req AutoGenerateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	content, err := h.compute.GenerateDescription(r.Context(), req.Link, req.Mode)
	if err != nil {
		respondComputeUnavailable(w, err)
		return
	}

	respondData(w, content, time.Since(start), false)
}
