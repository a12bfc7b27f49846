// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"net/http"
	"time"

	"github.com/starchart-dev/starchart/internal/cache"
	"github.com/starchart-dev/starchart/internal/compute"
	"github.com/starchart-dev/starchart/internal/logging"
	"github.com/starchart-dev/starchart/internal/models"
)

// SmartSearchRequest names the starting cluster for a hierarchy zoom.
// Zero or omitted means the dendrogram root.
type SmartSearchRequest struct {
	Cluster int64 `json:"cluster" validate:"omitempty,min=0"`
}

// SmartSearch walks the dendrogram from the requested cluster and returns
// the most specific informative sibling set.
//
// Method: POST
// Path: /api/v1/cluster/smart
//
// A non-existent cluster id yields an empty cluster list with status 200.
func (h *Handler) SmartSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req SmartSearchRequest
	if err := decodeBody(r, &req); err != nil {
		logging.Debug().Err(err).Msg("Malformed smart search body")
		respondData(w, &models.SmartSearchResult{Clusters: []models.Cluster{}}, 0, false)
		return
	}

	cacheKey := cache.GenerateKey("cluster_smart", req.Cluster)
	if cached, found := h.cache.Get(cacheKey); found {
		respondData(w, cached, 0, true)
		return
	}

	start := time.Now()
	result, err := h.navigator.SmartSearch(r.Context(), req.Cluster)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to walk cluster hierarchy", err)
		return
	}

	h.cache.Set(cacheKey, result)
	respondData(w, result, time.Since(start), false)
}

// ClusterIDsRequest carries the bookmark id set for a clustering call.
type ClusterIDsRequest struct {
	IDs []int64 `json:"ids" validate:"omitempty,max=100000,dive,min=0"`
}

// PrepareFirstClusters delegates the initial partition of a bookmark id
// set to the compute service. An empty id set short-circuits to an empty
// result without a remote call.
//
// Method: POST
// Path: /api/v1/cluster/prepare/first
func (h *Handler) PrepareFirstClusters(w http.ResponseWriter, r *http.Request) {
	h.delegateClustering(w, r, "prepare_first", false, func(ctx *http.Request, ids []int64) (*compute.ClusterResponse, error) {
		return h.compute.PrepareFirstClusters(ctx.Context(), ids)
	})
}

// PrepareOtherClusters delegates incremental clustering of additional ids
// to the compute service and appends the result to the cluster cache log.
//
// Method: POST
// Path: /api/v1/cluster/prepare/other
func (h *Handler) PrepareOtherClusters(w http.ResponseWriter, r *http.Request) {
	h.delegateClustering(w, r, "prepare_other", true, func(ctx *http.Request, ids []int64) (*compute.ClusterResponse, error) {
		return h.compute.PrepareOtherClusters(ctx.Context(), ids)
	})
}

// CheckClusterCache asks the compute service for its memoized clustering
// of an id set without computing anything.
//
// Method: POST
// Path: /api/v1/cluster/check-cache
func (h *Handler) CheckClusterCache(w http.ResponseWriter, r *http.Request) {
	h.delegateClustering(w, r, "check_cache", false, func(ctx *http.Request, ids []int64) (*compute.ClusterResponse, error) {
		return h.compute.CheckClusterCache(ctx.Context(), ids)
	})
}

// delegateClustering implements the shared passthrough flow for the three
// clustering operations. When persist is set, a successful response is
// appended to the cluster cache log; a failed append is logged and
// swallowed because the compute service keeps its own memo.
func (h *Handler) delegateClustering(w http.ResponseWriter, r *http.Request, operation string, persist bool,
	call func(*http.Request, []int64) (*compute.ClusterResponse, error)) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) || !h.requireCompute(w) {
		return
	}

	var req ClusterIDsRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, &compute.ClusterResponse{Clusters: []models.Cluster{}}, 0, false)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if len(req.IDs) == 0 {
		respondData(w, &compute.ClusterResponse{Clusters: []models.Cluster{}}, 0, false)
		return
	}

	start := time.Now()
	resp, err := call(r, req.IDs)
	if err != nil {
		respondComputeUnavailable(w, err)
		return
	}
	if resp.Clusters == nil {
		resp.Clusters = []models.Cluster{}
	}

	if persist && resp.Hash != "" {
		if err := h.db.SaveClusterCache(r.Context(), resp.Hash, resp.Clusters); err != nil {
			logging.Warn().
				Err(err).
				Str("operation", operation).
				Str("hash", sanitizeLogValue(resp.Hash)).
				Msg("Failed to append cluster cache entry")
		}
	}

	respondData(w, resp, time.Since(start), false)
}

// ClustersRequest carries cluster records for the topic description flows.
type ClustersRequest struct {
	Clusters []models.Cluster `json:"clusters" validate:"omitempty,max=1000"`
}

// CheckGalaxies partitions clusters into cached (topic description known)
// and fresh (never summarized).
//
// Method: POST
// Path: /api/v1/cluster/check-galaxies
func (h *Handler) CheckGalaxies(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req ClustersRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, emptyPartition(), 0, false)
		return
	}
	if len(req.Clusters) == 0 {
		respondData(w, emptyPartition(), 0, false)
		return
	}

	start := time.Now()
	partition, err := h.db.PartitionGalaxies(r.Context(), req.Clusters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check description cache", err)
		return
	}

	respondData(w, partition, time.Since(start), false)
}

// SaveGalaxies stores topic descriptions for clusters not yet cached and
// returns the resulting cached/fresh partition. Existing signatures are
// never overwritten.
//
// Method: POST
// Path: /api/v1/cluster/save-cluster-cache
func (h *Handler) SaveGalaxies(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req ClustersRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, emptyPartition(), 0, false)
		return
	}
	if len(req.Clusters) == 0 {
		respondData(w, emptyPartition(), 0, false)
		return
	}

	start := time.Now()
	if err := h.db.SaveGalaxies(r.Context(), req.Clusters); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save description cache", err)
		return
	}

	partition, err := h.db.PartitionGalaxies(r.Context(), req.Clusters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check description cache", err)
		return
	}

	respondData(w, partition, time.Since(start), false)
}

// GetDescriptions is the cache-and-delegate flow for topic descriptions:
// clusters with a memoized description are answered from the store, only
// the fresh remainder goes to the summarizer, and its answers are
// persisted before the merged set is returned.
//
// Method: POST
// Path: /api/v1/cluster/get-descriptions
func (h *Handler) GetDescriptions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireDB(w) {
		return
	}

	var req ClustersRequest
	if err := decodeBody(r, &req); err != nil {
		respondData(w, []models.Cluster{}, 0, false)
		return
	}
	if len(req.Clusters) == 0 {
		respondData(w, []models.Cluster{}, 0, false)
		return
	}

	start := time.Now()
	partition, err := h.db.PartitionGalaxies(r.Context(), req.Clusters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check description cache", err)
		return
	}

	merged := append([]models.Cluster{}, partition.Cached...)

	if len(partition.Fresh) > 0 {
		if !h.requireCompute(w) {
			return
		}
		summarized, err := h.compute.ClusterDescriptions(r.Context(), partition.Fresh)
		if err != nil {
			respondComputeUnavailable(w, err)
			return
		}

		if err := h.db.SaveGalaxies(r.Context(), summarized); err != nil {
			logging.Warn().Err(err).Msg("Failed to persist fresh descriptions")
		}
		merged = append(merged, summarized...)
	}

	respondData(w, merged, time.Since(start), false)
}

func emptyPartition() *models.GalaxyPartition {
	return &models.GalaxyPartition{
		Cached: []models.Cluster{},
		Fresh:  []models.Cluster{},
	}
}
