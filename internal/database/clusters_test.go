// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/starchart-dev/starchart/internal/models"
)

func TestUpsertClusterMeta(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	c := models.Cluster{
		BertID:    7,
		Keywords:  []string{"maps", "clusters"},
		CentroidX: 1.5,
		CentroidY: -2.5,
		Borders:   `[[0,0],[1,0],[1,1]]`,
	}
	if err := db.UpsertClusterMeta(ctx, c); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := db.GetClusterByID(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CentroidX != 1.5 || got.CentroidY != -2.5 {
		t.Errorf("centroid not preserved: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "maps" {
		t.Errorf("keywords not preserved: %v", got.Keywords)
	}
	if got.Borders != c.Borders {
		t.Errorf("borders not preserved: %s", got.Borders)
	}

	// Republishing replaces in place.
	c.Keywords = []string{"maps", "clusters", "zoom"}
	if err := db.UpsertClusterMeta(ctx, c); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	got, err = db.GetClusterByID(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Keywords) != 3 {
		t.Errorf("expected republished keywords, got %v", got.Keywords)
	}
}

func TestGetClusterByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetClusterByID(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetClustersByIDsOmitsUnknown(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []int64{3, 1} {
		if err := db.UpsertClusterMeta(ctx, models.Cluster{BertID: id}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	got, err := db.GetClustersByIDs(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected unknown ids omitted, got %d clusters", len(got))
	}
	if got[0].BertID != 1 || got[1].BertID != 3 {
		t.Errorf("expected ascending id order, got %d, %d", got[0].BertID, got[1].BertID)
	}
}
