// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package compute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/starchart-dev/starchart/internal/config"
	"github.com/starchart-dev/starchart/internal/logging"
	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// ErrUnavailable is returned for any transport failure, non-2xx response,
// or open circuit. Handlers map it to a "try later" error response.
var ErrUnavailable = fmt.Errorf("compute service unavailable")

// ClusterResponse is the compute service's answer to a clustering request:
// the digest of the input id set and the resulting clusters.
type ClusterResponse struct {
	Hash     string           `json:"hash"`
	Clusters []models.Cluster `json:"clusters"`
}

// GeneratedContent is the summarizer's answer to a content auto-generation
// request.
type GeneratedContent struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Service is the compute gateway consumed by the HTTP handlers. The
// concrete client talks to the remote service; tests substitute a stub.
type Service interface {
	// PrepareFirstClusters runs the initial partition for a bookmark id set.
	PrepareFirstClusters(ctx context.Context, ids []int64) (*ClusterResponse, error)

	// PrepareOtherClusters clusters additional ids incrementally.
	PrepareOtherClusters(ctx context.Context, ids []int64) (*ClusterResponse, error)

	// CheckClusterCache asks the service for its memoized result for an id
	// set, without computing anything.
	CheckClusterCache(ctx context.Context, ids []int64) (*ClusterResponse, error)

	// SearchByEmbedding returns bert ids nearest to the query text, best
	// match first.
	SearchByEmbedding(ctx context.Context, text string, limit int) ([]int64, error)

	// Embeddings converts texts to vectors. Used by the ingestion flow.
	Embeddings(ctx context.Context, texts []string) ([][]float64, error)

	// ClusterDescriptions asks the summarizer for topic/description text
	// for the given clusters' keyword lists.
	ClusterDescriptions(ctx context.Context, clusters []models.Cluster) ([]models.Cluster, error)

	// GenerateDescription asks the summarizer to describe a link.
	GenerateDescription(ctx context.Context, link, mode string) (*GeneratedContent, error)
}

// Client is the HTTP implementation of Service.
type Client struct {
	clusterURL    string
	summarizerURL string
	httpClient    *http.Client
	breaker       *Breaker
}

// NewClient builds a gateway client from config. The HTTP client timeout
// is the single bound on every call; there is no retry loop behind it.
func NewClient(cfg *config.ComputeConfig) *Client {
	return &Client{
		clusterURL:    strings.TrimRight(cfg.ClusterURL, "/"),
		summarizerURL: strings.TrimRight(cfg.SummarizerURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: NewBreaker("compute"),
	}
}

func (c *Client) PrepareFirstClusters(ctx context.Context, ids []int64) (*ClusterResponse, error) {
	var resp ClusterResponse
	err := c.post(ctx, "prepare_first", c.clusterURL+"/clusters/prepare/first",
		map[string]interface{}{"ids": ids}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PrepareOtherClusters(ctx context.Context, ids []int64) (*ClusterResponse, error) {
	var resp ClusterResponse
	err := c.post(ctx, "prepare_other", c.clusterURL+"/clusters/prepare/other",
		map[string]interface{}{"ids": ids}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckClusterCache(ctx context.Context, ids []int64) (*ClusterResponse, error) {
	var resp ClusterResponse
	err := c.post(ctx, "check_cache", c.clusterURL+"/clusters/check-cache",
		map[string]interface{}{"ids": ids}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SearchByEmbedding(ctx context.Context, text string, limit int) ([]int64, error) {
	var resp struct {
		IDs []int64 `json:"ids"`
	}
	err := c.post(ctx, "search_embedding", c.clusterURL+"/search",
		map[string]interface{}{"text": text, "limit": limit}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

func (c *Client) Embeddings(ctx context.Context, texts []string) ([][]float64, error) {
	var resp struct {
		Vectors [][]float64 `json:"vectors"`
	}
	err := c.post(ctx, "embeddings", c.clusterURL+"/embeddings",
		map[string]interface{}{"texts": texts}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Vectors, nil
}

func (c *Client) ClusterDescriptions(ctx context.Context, clusters []models.Cluster) ([]models.Cluster, error) {
	var resp struct {
		Clusters []models.Cluster `json:"clusters"`
	}
	err := c.post(ctx, "descriptions", c.summarizerURL+"/descriptions",
		map[string]interface{}{"clusters": clusters}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Clusters, nil
}

func (c *Client) GenerateDescription(ctx context.Context, link, mode string) (*GeneratedContent, error) {
	var resp GeneratedContent
	err := c.post(ctx, "generate", c.summarizerURL+"/generate",
		map[string]interface{}{"link": link, "mode": mode}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// post runs one JSON round trip through the circuit breaker. Any failure
// collapses to ErrUnavailable after logging the cause; callers cannot do
// anything smarter with the distinction.
func (c *Client) post(ctx context.Context, operation, url string, payload, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.ComputeRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doPost(ctx, url, payload)
	})
	if err != nil {
		metrics.ComputeRequestsTotal.WithLabelValues(operation, "error").Inc()
		logging.Warn().
			Err(err).
			Str("operation", operation).
			Msg("Compute service call failed")
		return ErrUnavailable
	}

	metrics.ComputeRequestsTotal.WithLabelValues(operation, "success").Inc()

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		logging.Warn().
			Err(err).
			Str("operation", operation).
			Msg("Compute service returned malformed JSON")
		return ErrUnavailable
	}

	return nil
}

func (c *Client) doPost(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Bound the body read so a misbehaving upstream cannot exhaust memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
