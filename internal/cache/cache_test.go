// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("key", "value")

	got, found := c.Get("key")
	if !found {
		t.Fatal("expected key to be found")
	}
	if got != "value" {
		t.Errorf("expected value, got %v", got)
	}

	_, found = c.Get("missing")
	if found {
		t.Error("expected missing key to not be found")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)

	c.SetWithTTL("short", "value", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("expected expired entry to be gone")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("expected deleted key to be gone")
	}

	c.Clear()
	if _, found := c.Get("b"); found {
		t.Error("expected cleared cache to be empty")
	}
}

func TestCacheStats(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}

	rate := c.HitRate()
	if rate < 66 || rate > 67 {
		t.Errorf("expected hit rate around 66%%, got %f", rate)
	}
}

func TestGenerateKeyDeterministic(t *testing.T) {
	params := map[string]interface{}{"x1": 0.0, "y1": 1.0}

	k1 := GenerateKey("rectangle_search", params)
	k2 := GenerateKey("rectangle_search", params)
	if k1 != k2 {
		t.Error("expected identical params to produce identical keys")
	}

	k3 := GenerateKey("rectangle_search", map[string]interface{}{"x1": 5.0, "y1": 1.0})
	if k1 == k3 {
		t.Error("expected different params to produce different keys")
	}

	k4 := GenerateKey("cluster_smart", params)
	if k1 == k4 {
		t.Error("expected different methods to produce different keys")
	}
}
