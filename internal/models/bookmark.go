// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package models

import (
	"time"

	"github.com/google/uuid"
)

// Access levels for shared bookmark visibility.
const (
	AccessPublic  = "public"
	AccessPrivate = "private"
)

// Coordinates is a bookmark's position in the shared 2-D embedding
// projection. Points are produced by the external embedding pipeline and are
// immutable unless the bookmark's description changes.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bookmark represents a saved link ("resource") owned by a user.
//
// BertID correlates the bookmark to the external embedding space and is the
// key the clustering service speaks; it is nil until the embedding pipeline
// has processed the bookmark. Anomaly marks outliers that are excluded from
// spatial clustering views.
type Bookmark struct {
	ID           uuid.UUID    `json:"id"`
	Link         string       `json:"link"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Access       string       `json:"access"`
	OwnerID      uuid.UUID    `json:"owner"`
	BertID       *int64       `json:"bertId,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Anomaly      bool         `json:"anomaly"`
	Tags         []string     `json:"tags,omitempty"`
	ExploreLater bool         `json:"exploreLater,omitempty"`
	DateCreate   time.Time    `json:"dateCreate"`
	DateUpdate   time.Time    `json:"dateUpdate"`
}
