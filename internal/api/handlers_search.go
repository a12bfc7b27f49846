// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starchart-dev/starchart/internal/auth"
	"github.com/starchart-dev/starchart/internal/cache"
	"github.com/starchart-dev/starchart/internal/logging"
	"github.com/starchart-dev/starchart/internal/models"
)

// RectangleRequest accepts both wire shapes of a spatial range query: the
// flat corner form and the nested form with an explicit zoom level.
type RectangleRequest struct {
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
	X2 *float64 `json:"x2"`
	Y2 *float64 `json:"y2"`

	Lambda      float64 `json:"lambda"`
	Coordinates *struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
	} `json:"coordinates"`
}

// corners normalizes both request shapes. ok is false when neither shape
// supplied a full rectangle.
func (req *RectangleRequest) corners() (x1, y1, x2, y2, lambda float64, ok bool) {
	if req.Coordinates != nil {
		c := req.Coordinates
		return c.X1, c.Y1, c.X2, c.Y2, req.Lambda, true
	}
	if req.X1 == nil || req.Y1 == nil || req.X2 == nil || req.Y2 == nil {
		return 0, 0, 0, 0, 0, false
	}
	return *req.X1, *req.Y1, *req.X2, *req.Y2, req.Lambda, true
}

// RectangleSearch resolves the representative clusters and bookmark points
// for a map viewport.
//
// Method: POST
// Path: /api/v1/search/rectangle
//
// A malformed rectangle degrades to an empty result with status 200; map
// UIs must never break on a bad viewport.
func (h *Handler) RectangleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req RectangleRequest
	if err := decodeBody(r, &req); err != nil {
		logging.Debug().Err(err).Msg("Malformed rectangle search body")
		respondData(w, emptyRectangleResult(), 0, false)
		return
	}

	x1, y1, x2, y2, lambda, ok := req.corners()
	if !ok {
		respondData(w, emptyRectangleResult(), 0, false)
		return
	}

	cacheKey := cache.GenerateKey("rectangle_search", []float64{x1, y1, x2, y2, lambda})
	if cached, found := h.cache.Get(cacheKey); found {
		respondData(w, cached, 0, true)
		return
	}

	start := time.Now()
	result, err := h.db.RectangleSearch(r.Context(), x1, y1, x2, y2, lambda)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to run rectangle search", err)
		return
	}

	h.cache.Set(cacheKey, result)
	respondData(w, result, time.Since(start), false)
}

func emptyRectangleResult() *models.RectangleSearchResult {
	return &models.RectangleSearchResult{
		Clusters:    []models.Cluster{},
		Coordinates: []models.Bookmark{},
	}
}

// RandomCoordinatesRequest bounds a uniform sample of map points.
type RandomCoordinatesRequest struct {
	MinX   float64 `json:"minX"`
	MaxX   float64 `json:"maxX"`
	MinY   float64 `json:"minY"`
	MaxY   float64 `json:"maxY"`
	Amount int     `json:"amount" validate:"omitempty,min=0,max=1000"`
}

// defaultRandomAmount is the sample size when the client names none.
const defaultRandomAmount = 100

// RandomCoordinates returns a random sample of bookmarks inside a
// rectangle, used to sprinkle points over sparse map regions.
//
// Method: POST
// Path: /api/v1/search/random/coordinates
func (h *Handler) RandomCoordinates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req RandomCoordinatesRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, []models.Bookmark{}, 0, false)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.Amount <= 0 {
		req.Amount = defaultRandomAmount
	}

	minX, maxX := req.MinX, req.MaxX
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := req.MinY, req.MaxY
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	start := time.Now()
	bookmarks, err := h.db.GetRandomBookmarksInRect(r.Context(), minX, maxX, minY, maxY, req.Amount)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to sample coordinates", err)
		return
	}
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}

	respondData(w, bookmarks, time.Since(start), false)
}

// SharedFindRequest is a keyword search over public bookmarks.
type SharedFindRequest struct {
	Text      string `json:"text" validate:"omitempty,max=500"`
	Sort      string `json:"sort" validate:"omitempty,oneof=date_asc date_desc"`
	IncludeMy bool   `json:"includeMy"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=200"`
}

// SharedFind searches public bookmarks by keyword. An authenticated
// caller's own bookmarks are excluded unless includeMy is set; anonymous
// callers see everything public.
//
// Method: POST
// Path: /api/v1/search/shared/find
func (h *Handler) SharedFind(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req SharedFindRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, []models.Bookmark{}, 0, false)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	bookmarks, err := h.db.SearchSharedBookmarks(r.Context(),
		strings.Fields(req.Text), req.Sort, h.excludeOwner(r, req.IncludeMy), req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search bookmarks", err)
		return
	}
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}

	respondData(w, bookmarks, time.Since(start), false)
}

// BertSharedFindRequest is a semantic search over public bookmarks.
type BertSharedFindRequest struct {
	Text      string `json:"text" validate:"required,max=500"`
	IncludeMy bool   `json:"includeMy"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=200"`
}

// BertSharedFind runs a semantic nearest-neighbor search: the compute
// service maps the query text to the closest bert ids, the store resolves
// them to public bookmarks, and the response keeps the compute service's
// relevance order.
//
// Method: POST
// Path: /api/v1/search/bert/shared/find
func (h *Handler) BertSharedFind(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) || !h.requireCompute(w) {
		return
	}

	var req BertSharedFindRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, []models.Bookmark{}, 0, false)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	start := time.Now()
	ids, err := h.compute.SearchByEmbedding(r.Context(), req.Text, req.Limit)
	if err != nil {
		respondComputeUnavailable(w, err)
		return
	}
	if len(ids) == 0 {
		respondData(w, []models.Bookmark{}, time.Since(start), false)
		return
	}

	bookmarks, err := h.db.GetBookmarksByBertIDs(r.Context(), ids, h.excludeOwner(r, req.IncludeMy))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve bookmarks", err)
		return
	}

	respondData(w, rankByBertOrder(bookmarks, ids), time.Since(start), false)
}

// rankByBertOrder sorts bookmarks by the compute service's relevance
// order, best match first.
func rankByBertOrder(bookmarks []models.Bookmark, ids []int64) []models.Bookmark {
	rank := make(map[int64]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}

	ranked := make([]models.Bookmark, len(bookmarks))
	copy(ranked, bookmarks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return bertRank(rank, ranked[i]) < bertRank(rank, ranked[j])
	})
	return ranked
}

func bertRank(rank map[int64]int, b models.Bookmark) int {
	if b.BertID != nil {
		if r, ok := rank[*b.BertID]; ok {
			return r
		}
	}
	return math.MaxInt
}

// excludeOwner resolves which owner id to filter out of shared results:
// the authenticated caller, unless they asked to include their own.
func (h *Handler) excludeOwner(r *http.Request, includeMy bool) *uuid.UUID {
	if includeMy {
		return nil
	}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return &userID
	}
	return nil
}
