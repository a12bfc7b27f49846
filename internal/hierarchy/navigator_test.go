// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/starchart-dev/starchart/internal/models"
)

// fakeStore is an in-memory dendrogram plus cluster metadata. Metadata
// exists for every id appearing anywhere in the tree, plus extras.
type fakeStore struct {
	children map[int64][]int64
	known    map[int64]bool
}

func newFakeStore(children map[int64][]int64, extra ...int64) *fakeStore {
	known := map[int64]bool{}
	for parent, kids := range children {
		known[parent] = true
		for _, kid := range kids {
			known[kid] = true
		}
	}
	for _, id := range extra {
		known[id] = true
	}
	return &fakeStore{children: children, known: known}
}

func (f *fakeStore) GetChildren(_ context.Context, parent int64) ([]models.DendrogramEdge, error) {
	edges := []models.DendrogramEdge{}
	for _, kid := range f.children[parent] {
		edges = append(edges, models.DendrogramEdge{Parent: parent, Child: kid, Lambda: 0.5})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Child < edges[j].Child })
	return edges, nil
}

func (f *fakeStore) GetClustersByIDs(_ context.Context, ids []int64) ([]models.Cluster, error) {
	clusters := []models.Cluster{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if f.known[id] && !seen[id] {
			clusters = append(clusters, models.Cluster{BertID: id})
			seen[id] = true
		}
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].BertID < clusters[j].BertID })
	return clusters, nil
}

func clusterIDs(result *models.SmartSearchResult) []int64 {
	ids := make([]int64, len(result.Clusters))
	for i, c := range result.Clusters {
		ids[i] = c.BertID
	}
	return ids
}

func assertIDs(t *testing.T, result *models.SmartSearchResult, want ...int64) {
	t.Helper()
	got := clusterIDs(result)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("cluster ids = %v, want %v", got, want)
	}
}

func TestSmartSearchLeafReturnsInputCluster(t *testing.T) {
	store := newFakeStore(map[int64][]int64{}, 42)
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 42)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	assertIDs(t, result, 42)
}

func TestSmartSearchLeafUnknownID(t *testing.T) {
	store := newFakeStore(map[int64][]int64{})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 42)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	if len(result.Clusters) != 0 {
		t.Errorf("expected empty result for unknown leaf, got %v", clusterIDs(result))
	}
}

func TestSmartSearchShallowTreeReturnsParentSet(t *testing.T) {
	// 10003 has two children but together the grandchildren set is 2 (<4),
	// so the parent pair is the answer.
	store := newFakeStore(map[int64][]int64{
		10000: {10003, 10004},
		10003: {10005, 10006},
	})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	assertIDs(t, result, 10003, 10004)
}

func TestSmartSearchCombine(t *testing.T) {
	// Grandchildren of 10000 are {10005,10006,10007,10008}; the first of
	// them with two children (10005) expands in place: its 3 siblings plus
	// its 2 children.
	store := newFakeStore(map[int64][]int64{
		10000: {10003, 10004},
		10003: {10005, 10006},
		10004: {10007, 10008},
		10005: {10009, 10010},
	})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	if len(result.Clusters) != 5 {
		t.Fatalf("expected 5 clusters from combine, got %v", clusterIDs(result))
	}
	assertIDs(t, result, 10006, 10007, 10008, 10009, 10010)
}

func TestSmartSearchCombineFirstQualifyingWins(t *testing.T) {
	// Both 10005 and 10007 could expand; the walk takes the first in
	// deterministic child order and never considers 10007.
	store := newFakeStore(map[int64][]int64{
		10000: {10003, 10004},
		10003: {10005, 10006},
		10004: {10007, 10008},
		10005: {10009, 10010},
		10007: {10011, 10012},
	})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	assertIDs(t, result, 10006, 10007, 10008, 10009, 10010)
}

func TestSmartSearchNoExpandableGrandchildFallsBackToInput(t *testing.T) {
	// Grandchildren set has 4 members but none splits further; the answer
	// is whatever the original input id resolves to.
	store := newFakeStore(map[int64][]int64{
		10000: {10003, 10004},
		10003: {10005, 10006},
		10004: {10007, 10008},
	})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	assertIDs(t, result, 10000)
}

func TestSmartSearchDefaultsToRoot(t *testing.T) {
	store := newFakeStore(map[int64][]int64{
		models.RootClusterID: {10003, 10004},
		10003:                {10005, 10006},
	})
	nav := NewNavigator(store, store)

	for _, start := range []int64{0, -1} {
		result, err := nav.SmartSearch(context.Background(), start)
		if err != nil {
			t.Fatalf("smart search failed: %v", err)
		}
		assertIDs(t, result, 10003, 10004)
	}
}

func TestSmartSearchMalformedNode(t *testing.T) {
	// A node with three children is malformed pipeline output; the walk
	// degrades to returning the direct children.
	store := newFakeStore(map[int64][]int64{
		10000: {1, 2, 3},
	})
	nav := NewNavigator(store, store)

	result, err := nav.SmartSearch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("smart search failed: %v", err)
	}
	assertIDs(t, result, 1, 2, 3)
}
