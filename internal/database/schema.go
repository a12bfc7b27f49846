// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"fmt"
)

// schemaStatements creates the cluster map tables. Statements are
// idempotent so startup can run them unconditionally.
//
// Keyword and tag lists are stored comma-joined; clusters.keywords is
// exactly the cache signature string used by galaxy_cache lookups.
// Merge heights live in merge_height columns: lambda is a reserved word
// in DuckDB's parser.
//
// cluster_cache.clusters holds a JSON document as VARCHAR: the driver
// hands JSON-typed columns back decoded, not as text, so a JSON column
// could not round-trip through the string scan.
//
// cluster_cache deliberately has no uniqueness constraint on hash: the
// cache is an append-only log of computations and duplicate hashes are
// tolerated. galaxy_cache likewise allows duplicate keywords rows; lookups
// take the oldest match so concurrent saves cannot change an established
// topic.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id VARCHAR PRIMARY KEY,
		link VARCHAR NOT NULL,
		title VARCHAR DEFAULT '',
		description VARCHAR DEFAULT '',
		access VARCHAR NOT NULL DEFAULT 'public',
		owner_id VARCHAR NOT NULL DEFAULT '',
		bert_id BIGINT,
		x DOUBLE,
		y DOUBLE,
		anomaly BOOLEAN NOT NULL DEFAULT false,
		tags VARCHAR NOT NULL DEFAULT '',
		explore_later BOOLEAN NOT NULL DEFAULT false,
		date_create TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		date_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS dendrogram_edges (
		parent BIGINT NOT NULL,
		child BIGINT NOT NULL,
		merge_height DOUBLE NOT NULL,
		documents BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cluster_memberships (
		document BIGINT NOT NULL,
		cluster BIGINT NOT NULL,
		merge_height DOUBLE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS clusters (
		bert_id BIGINT PRIMARY KEY,
		keywords VARCHAR NOT NULL DEFAULT '',
		centroid_x DOUBLE NOT NULL,
		centroid_y DOUBLE NOT NULL,
		borders VARCHAR NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS cluster_cache (
		hash VARCHAR NOT NULL,
		clusters VARCHAR NOT NULL,
		date_create TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		date_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS galaxy_cache (
		keywords VARCHAR NOT NULL,
		topic VARCHAR NOT NULL,
		description VARCHAR NOT NULL,
		date_create TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		date_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_bookmarks_coords ON bookmarks (x, y)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_bert ON bookmarks (bert_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_parent ON dendrogram_edges (parent)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_document ON cluster_memberships (document)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_cluster ON cluster_memberships (cluster)`,
	`CREATE INDEX IF NOT EXISTS idx_galaxy_keywords ON galaxy_cache (keywords)`,
}

// migrate applies the schema statements.
func (db *DB) migrate() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
