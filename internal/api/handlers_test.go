// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/starchart-dev/starchart/internal/compute"
	"github.com/starchart-dev/starchart/internal/config"
	"github.com/starchart-dev/starchart/internal/database"
	"github.com/starchart-dev/starchart/internal/models"
)

// stubCompute implements compute.Service with overridable functions.
// Unset operations fail as unavailable.
type stubCompute struct {
	prepareFirst func(ids []int64) (*compute.ClusterResponse, error)
	prepareOther func(ids []int64) (*compute.ClusterResponse, error)
	checkCache   func(ids []int64) (*compute.ClusterResponse, error)
	search       func(text string, limit int) ([]int64, error)
	descriptions func(clusters []models.Cluster) ([]models.Cluster, error)
	generate     func(link, mode string) (*compute.GeneratedContent, error)
}

func (s *stubCompute) PrepareFirstClusters(_ context.Context, ids []int64) (*compute.ClusterResponse, error) {
	if s.prepareFirst == nil {
		return nil, compute.ErrUnavailable
	}
	return s.prepareFirst(ids)
}

func (s *stubCompute) PrepareOtherClusters(_ context.Context, ids []int64) (*compute.ClusterResponse, error) {
	if s.prepareOther == nil {
		return nil, compute.ErrUnavailable
	}
	return s.prepareOther(ids)
}

func (s *stubCompute) CheckClusterCache(_ context.Context, ids []int64) (*compute.ClusterResponse, error) {
	if s.checkCache == nil {
		return nil, compute.ErrUnavailable
	}
	return s.checkCache(ids)
}

func (s *stubCompute) SearchByEmbedding(_ context.Context, text string, limit int) ([]int64, error) {
	if s.search == nil {
		return nil, compute.ErrUnavailable
	}
	return s.search(text, limit)
}

func (s *stubCompute) Embeddings(_ context.Context, _ []string) ([][]float64, error) {
	return nil, compute.ErrUnavailable
}

func (s *stubCompute) ClusterDescriptions(_ context.Context, clusters []models.Cluster) ([]models.Cluster, error) {
	if s.descriptions == nil {
		return nil, compute.ErrUnavailable
	}
	return s.descriptions(clusters)
}

func (s *stubCompute) GenerateDescription(_ context.Context, link, mode string) (*compute.GeneratedContent, error) {
	if s.generate == nil {
		return nil, compute.ErrUnavailable
	}
	return s.generate(link, mode)
}

// testHandlerSemaphore serializes DuckDB-backed handler tests; see the
// database package for why concurrent in-memory DuckDB instances hang CI.
var testHandlerSemaphore = make(chan struct{}, 1)

func setupTestHandler(t *testing.T, computeSvc compute.Service) (*Handler, *database.DB) {
	t.Helper()

	testHandlerSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testHandlerSemaphore
	})

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	cfg := &config.Config{}
	cfg.Security.RateLimitDisabled = true
	cfg.Cache.TTL = time.Minute

	return NewHandler(db, computeSvc, cfg, nil), db
}

// doJSON posts a JSON body through the full router and decodes the
// response envelope.
func doJSON(t *testing.T, h *Handler, method, path string, body interface{}) (int, *models.APIResponse, json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	var envelope struct {
		Status   string           `json:"status"`
		Data     json.RawMessage  `json:"data"`
		Metadata models.Metadata  `json:"metadata"`
		Error    *models.APIError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, rec.Body.String())
	}

	resp := &models.APIResponse{
		Status:   envelope.Status,
		Metadata: envelope.Metadata,
		Error:    envelope.Error,
	}
	return rec.Code, resp, envelope.Data
}

func seedDendrogram(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	edges := []models.DendrogramEdge{
		{Parent: 10000, Child: 10003, Lambda: 0.1, Documents: 4},
		{Parent: 10000, Child: 10004, Lambda: 0.1, Documents: 4},
		{Parent: 10003, Child: 10005, Lambda: 0.3, Documents: 2},
		{Parent: 10003, Child: 10006, Lambda: 0.3, Documents: 2},
	}
	for _, e := range edges {
		if err := db.InsertDendrogramEdge(ctx, e); err != nil {
			t.Fatalf("failed to insert edge: %v", err)
		}
	}
	for _, id := range []int64{10003, 10004, 10005, 10006} {
		if err := db.UpsertClusterMeta(ctx, models.Cluster{BertID: id}); err != nil {
			t.Fatalf("failed to upsert cluster: %v", err)
		}
	}
}

func TestSmartSearchEndpoint(t *testing.T) {
	h, db := setupTestHandler(t, &stubCompute{})
	seedDendrogram(t, db)

	code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/cluster/smart",
		map[string]int64{"cluster": 10000})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp.Status != "success" {
		t.Fatalf("expected success, got %s", resp.Status)
	}

	var result models.SmartSearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	// Grandchildren set {10005,10006} is too sparse, so the parent pair
	// is the answer.
	if len(result.Clusters) != 2 {
		t.Fatalf("expected parent pair, got %d clusters", len(result.Clusters))
	}
	if result.Clusters[0].BertID != 10003 || result.Clusters[1].BertID != 10004 {
		t.Errorf("unexpected clusters: %+v", result.Clusters)
	}

	// Second identical request is served from the memo cache.
	code, resp, _ = doJSON(t, h, http.MethodPost, "/api/v1/cluster/smart",
		map[string]int64{"cluster": 10000})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !resp.Metadata.Cached {
		t.Error("expected cached metadata on repeat request")
	}
}

func TestSmartSearchEmptyBodyDefaultsToRoot(t *testing.T) {
	h, db := setupTestHandler(t, &stubCompute{})
	seedDendrogram(t, db)

	code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/cluster/smart", nil)
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %s", code, resp.Status)
	}

	var result models.SmartSearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(result.Clusters) != 2 {
		t.Errorf("expected root walk result, got %d clusters", len(result.Clusters))
	}
}

func TestRectangleSearchEndpointBothShapes(t *testing.T) {
	h, db := setupTestHandler(t, &stubCompute{})
	ctx := context.Background()

	bertID := int64(1)
	now := time.Now().UTC()
	b := models.Bookmark{
		ID:          uuid.New(),
		Link:        "https://example.com/point",
		Access:      models.AccessPublic,
		BertID:      &bertID,
		Coordinates: &models.Coordinates{X: 5, Y: 5},
		DateCreate:  now,
		DateUpdate:  now,
	}
	if err := db.InsertBookmark(ctx, &b); err != nil {
		t.Fatalf("failed to insert bookmark: %v", err)
	}

	bodies := []interface{}{
		map[string]float64{"x1": 0, "y1": 0, "x2": 10, "y2": 10},
		map[string]interface{}{
			"lambda":      0,
			"coordinates": map[string]float64{"x1": 0, "y1": 0, "x2": 10, "y2": 10},
		},
	}

	for _, body := range bodies {
		code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/search/rectangle", body)
		if code != http.StatusOK || resp.Status != "success" {
			t.Fatalf("expected success, got %d %s", code, resp.Status)
		}

		var result models.RectangleSearchResult
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if len(result.Coordinates) != 1 {
			t.Errorf("expected 1 coordinate, got %d", len(result.Coordinates))
		}
	}
}

func TestRectangleSearchEndpointMalformedBody(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{})

	// A partial rectangle degrades to an empty result, never an error.
	code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/search/rectangle",
		map[string]float64{"x1": 0, "y1": 0})
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected empty success for malformed rectangle, got %d %s", code, resp.Status)
	}

	var result models.RectangleSearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(result.Clusters) != 0 || len(result.Coordinates) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestRandomCoordinatesEndpoint(t *testing.T) {
	h, db := setupTestHandler(t, &stubCompute{})
	ctx := context.Background()

	now := time.Now().UTC()
	for i := int64(1); i <= 10; i++ {
		id := i
		b := models.Bookmark{
			ID:          uuid.New(),
			Link:        "https://example.com/r",
			Access:      models.AccessPublic,
			BertID:      &id,
			Coordinates: &models.Coordinates{X: float64(i), Y: float64(i)},
			DateCreate:  now,
			DateUpdate:  now,
		}
		if err := db.InsertBookmark(ctx, &b); err != nil {
			t.Fatalf("failed to insert bookmark: %v", err)
		}
	}

	code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/search/random/coordinates",
		map[string]interface{}{"minX": 0, "maxX": 20, "minY": 0, "maxY": 20, "amount": 3})
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %s", code, resp.Status)
	}

	var bookmarks []models.Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(bookmarks) != 3 {
		t.Errorf("expected sample of 3, got %d", len(bookmarks))
	}
}

func TestPrepareFirstEmptyIDsShortCircuits(t *testing.T) {
	called := false
	stub := &stubCompute{
		prepareFirst: func(ids []int64) (*compute.ClusterResponse, error) {
			called = true
			return &compute.ClusterResponse{}, nil
		},
	}
	h, _ := setupTestHandler(t, stub)

	code, resp, _ := doJSON(t, h, http.MethodPost, "/api/v1/cluster/prepare/first",
		map[string][]int64{"ids": {}})
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %s", code, resp.Status)
	}
	if called {
		t.Error("expected no remote call for empty id set")
	}
}

func TestPrepareOtherPersistsClusterCache(t *testing.T) {
	stub := &stubCompute{
		prepareOther: func(ids []int64) (*compute.ClusterResponse, error) {
			return &compute.ClusterResponse{
				Hash:     "hash-42",
				Clusters: []models.Cluster{{BertID: 1, Keywords: []string{"a"}}},
			}, nil
		},
	}
	h, db := setupTestHandler(t, stub)

	code, resp, _ := doJSON(t, h, http.MethodPost, "/api/v1/cluster/prepare/other",
		map[string][]int64{"ids": {1, 2, 3}})
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %s", code, resp.Status)
	}

	entries, err := db.GetClusterCacheEntries(context.Background(), "hash-42")
	if err != nil {
		t.Fatalf("failed to read cluster cache: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 cluster cache entry, got %d", len(entries))
	}
}

func TestComputeUnavailableResponse(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{})

	code, resp, _ := doJSON(t, h, http.MethodPost, "/api/v1/cluster/check-cache",
		map[string][]int64{"ids": {1}})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp.Error == nil || resp.Error.Code != "COMPUTE_UNAVAILABLE" {
		t.Errorf("expected COMPUTE_UNAVAILABLE error, got %+v", resp.Error)
	}
}

func TestGalaxyEndpointsRoundTrip(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{})

	clusters := map[string][]models.Cluster{
		"clusters": {{BertID: 1, Keywords: []string{"a", "b", "c"}, Topic: "ABC", Description: "letters"}},
	}

	// Before any save everything is fresh.
	code, resp, data := doJSON(t, h, http.MethodPost, "/api/v1/cluster/check-galaxies", clusters)
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("expected success, got %d %s", code, resp.Status)
	}
	var partition models.GalaxyPartition
	if err := json.Unmarshal(data, &partition); err != nil {
		t.Fatalf("failed to decode partition: %v", err)
	}
	if len(partition.Fresh) != 1 || len(partition.Cached) != 0 {
		t.Fatalf("expected all fresh, got %+v", partition)
	}

	// Saving flips the signature to cached.
	code, _, data = doJSON(t, h, http.MethodPost, "/api/v1/cluster/save-cluster-cache", clusters)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if err := json.Unmarshal(data, &partition); err != nil {
		t.Fatalf("failed to decode partition: %v", err)
	}
	if len(partition.Cached) != 1 || len(partition.Fresh) != 0 {
		t.Fatalf("expected all cached after save, got %+v", partition)
	}
	if partition.Cached[0].Topic != "ABC" {
		t.Errorf("stored topic not returned: %+v", partition.Cached[0])
	}
}

func TestGetDescriptionsCacheAndDelegate(t *testing.T) {
	var summarizerCalls int
	stub := &stubCompute{
		descriptions: func(clusters []models.Cluster) ([]models.Cluster, error) {
			summarizerCalls++
			out := make([]models.Cluster, len(clusters))
			copy(out, clusters)
			for i := range out {
				out[i].Topic = "generated"
				out[i].Description = "generated text"
			}
			return out, nil
		},
	}
	h, _ := setupTestHandler(t, stub)

	body := map[string][]models.Cluster{
		"clusters": {{BertID: 1, Keywords: []string{"k1", "k2"}}},
	}

	code, _, data := doJSON(t, h, http.MethodPost, "/api/v1/cluster/get-descriptions", body)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var merged []models.Cluster
	if err := json.Unmarshal(data, &merged); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(merged) != 1 || merged[0].Topic != "generated" {
		t.Fatalf("expected summarized cluster, got %+v", merged)
	}
	if summarizerCalls != 1 {
		t.Fatalf("expected 1 summarizer call, got %d", summarizerCalls)
	}

	// The second request is answered from the store; the summarizer must
	// not be consulted again for an unchanged signature.
	code, _, data = doJSON(t, h, http.MethodPost, "/api/v1/cluster/get-descriptions", body)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(merged) != 1 || merged[0].Topic != "generated" {
		t.Fatalf("expected cached description, got %+v", merged)
	}
	if summarizerCalls != 1 {
		t.Errorf("expected no further summarizer calls, got %d", summarizerCalls)
	}
}

func TestBertSharedFindRanksByRelevance(t *testing.T) {
	stub := &stubCompute{
		search: func(text string, limit int) ([]int64, error) {
			return []int64{9, 7}, nil
		},
	}
	h, db := setupTestHandler(t, stub)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []int64{7, 9} {
		bertID := id
		b := models.Bookmark{
			ID:          uuid.New(),
			Link:        "https://example.com/sem",
			Access:      models.AccessPublic,
			BertID:      &bertID,
			Coordinates: &models.Coordinates{X: 1, Y: 1},
			DateCreate:  now,
			DateUpdate:  now,
		}
		if err := db.InsertBookmark(ctx, &b); err != nil {
			t.Fatalf("failed to insert bookmark: %v", err)
		}
	}

	code, _, data := doJSON(t, h, http.MethodPost, "/api/v1/search/bert/shared/find",
		map[string]interface{}{"text": "semantic"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var bookmarks []models.Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(bookmarks))
	}
	if *bookmarks[0].BertID != 9 || *bookmarks[1].BertID != 7 {
		t.Errorf("expected compute relevance order [9 7], got [%d %d]",
			*bookmarks[0].BertID, *bookmarks[1].BertID)
	}
}

func TestAutoGenerateValidation(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{
		generate: func(link, mode string) (*compute.GeneratedContent, error) {
			return &compute.GeneratedContent{Title: "t"}, nil
		},
	})

	code, resp, _ := doJSON(t, h, http.MethodPost, "/api/v1/content/auto-generate",
		map[string]string{"link": "not-a-url"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid link, got %d", code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %+v", resp.Error)
	}

	code, resp, _ = doJSON(t, h, http.MethodPost, "/api/v1/content/auto-generate",
		map[string]string{"link": "https://example.com/article"})
	if code != http.StatusOK || resp.Status != "success" {
		t.Errorf("expected success for valid link, got %d %s", code, resp.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if envelope.Data.Status != "healthy" {
		t.Errorf("expected healthy status, got %s", envelope.Data.Status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := setupTestHandler(t, &stubCompute{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cluster/smart", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	// Chi answers 405 for a GET on a POST-only route.
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
