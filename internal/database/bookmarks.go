// Starchart - Social Bookmarking Cluster Map Backend
// Copyright 2026 Starchart Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/starchart-dev/starchart

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starchart-dev/starchart/internal/metrics"
	"github.com/starchart-dev/starchart/internal/models"
)

// placeholders returns a "?, ?, ?" string for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// bookmarkColumns is the canonical SELECT column list for bookmark scans.
const bookmarkColumns = `id, link, title, description, access, owner_id,
	bert_id, x, y, anomaly, tags, explore_later, date_create, date_update`

// scanBookmark scans one bookmark row into a model, folding the nullable
// embedding columns into pointers.
func scanBookmark(rows *sql.Rows) (models.Bookmark, error) {
	var (
		b       models.Bookmark
		id      string
		ownerID string
		bertID  sql.NullInt64
		x, y    sql.NullFloat64
		tags    string
	)

	if err := rows.Scan(
		&id,
		&b.Link,
		&b.Title,
		&b.Description,
		&b.Access,
		&ownerID,
		&bertID,
		&x,
		&y,
		&b.Anomaly,
		&tags,
		&b.ExploreLater,
		&b.DateCreate,
		&b.DateUpdate,
	); err != nil {
		return b, fmt.Errorf("failed to scan bookmark row: %w", err)
	}

	if parsed, err := uuid.Parse(id); err == nil {
		b.ID = parsed
	}
	if ownerID != "" {
		if parsed, err := uuid.Parse(ownerID); err == nil {
			b.OwnerID = parsed
		}
	}
	if bertID.Valid {
		b.BertID = &bertID.Int64
	}
	if x.Valid && y.Valid {
		b.Coordinates = &models.Coordinates{X: x.Float64, Y: y.Float64}
	}
	b.Tags = splitList(tags)

	return b, nil
}

// joinList and splitList map string slices onto the comma-joined VARCHAR
// representation used for tags and keywords.
func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// InsertBookmark stores a new bookmark. The embedding columns (bert_id,
// x, y, anomaly) are filled later by the ingestion pipeline via
// SetBookmarkEmbedding.
func (db *DB) InsertBookmark(ctx context.Context, b *models.Bookmark) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("insert_bookmark").Observe(time.Since(start).Seconds())
	}()

	var bertID interface{}
	var x, y interface{}
	if b.BertID != nil {
		bertID = *b.BertID
	}
	if b.Coordinates != nil {
		x = b.Coordinates.X
		y = b.Coordinates.Y
	}

	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO bookmarks (id, link, title, description, access, owner_id,
		bert_id, x, y, anomaly, tags, explore_later, date_create, date_update)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Link, b.Title, b.Description, b.Access, ownerString(b.OwnerID),
		bertID, x, y, b.Anomaly, joinList(b.Tags), b.ExploreLater, b.DateCreate, b.DateUpdate)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert_bookmark").Inc()
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}

	return nil
}

// ownerString stores uuid.Nil (no owner) as the empty string.
func ownerString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// SetBookmarkEmbedding records the embedding pipeline's output for one
// bookmark: its stable bert id, projected coordinates, and anomaly flag.
func (db *DB) SetBookmarkEmbedding(ctx context.Context, id uuid.UUID, bertID int64, x, y float64, anomaly bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
	UPDATE bookmarks
	SET bert_id = ?, x = ?, y = ?, anomaly = ?, date_update = CURRENT_TIMESTAMP
	WHERE id = ?`, bertID, x, y, anomaly, id.String())
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("set_embedding").Inc()
		return fmt.Errorf("failed to set bookmark embedding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetBookmarksInRect returns all non-anomalous bookmarks whose coordinates
// fall strictly inside the rectangle. Bookmarks without embedding
// coordinates are excluded.
func (db *DB) GetBookmarksInRect(ctx context.Context, x1, y1, x2, y2 float64) ([]models.Bookmark, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("bookmarks_in_rect").Observe(time.Since(start).Seconds())
	}()

	// Normalize corners so callers may pass any two opposite corners.
	minX, maxX := x1, x2
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := y1, y2
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	rows, err := db.conn.QueryContext(ctx, `
	SELECT `+bookmarkColumns+`
	FROM bookmarks
	WHERE anomaly = false
	  AND bert_id IS NOT NULL
	  AND x > ? AND x < ?
	  AND y > ? AND y < ?
	ORDER BY bert_id`, minX, maxX, minY, maxY)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("bookmarks_in_rect").Inc()
		return nil, fmt.Errorf("failed to query bookmarks in rectangle: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

// GetRandomBookmarksInRect returns up to amount randomly sampled
// non-anomalous bookmarks inside the rectangle, used to sprinkle
// representative points over a sparse map region.
func (db *DB) GetRandomBookmarksInRect(ctx context.Context, minX, maxX, minY, maxY float64, amount int) ([]models.Bookmark, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if amount <= 0 {
		return []models.Bookmark{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("random_bookmarks").Observe(time.Since(start).Seconds())
	}()

	// USING SAMPLE draws a uniform random subset inside DuckDB, replacing
	// the document store's $sample aggregation stage.
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
	SELECT `+bookmarkColumns+`
	FROM (
		SELECT *
		FROM bookmarks
		WHERE anomaly = false
		  AND bert_id IS NOT NULL
		  AND x > ? AND x < ?
		  AND y > ? AND y < ?
	) USING SAMPLE %d ROWS`, amount), minX, maxX, minY, maxY)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("random_bookmarks").Inc()
		return nil, fmt.Errorf("failed to sample bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

// SearchSharedBookmarks returns up to limit public bookmarks whose
// description or link matches any of the given words (case-insensitive).
// When excludeOwner is non-nil, that user's own bookmarks are filtered
// out. Sort is "date_desc" (default) or "date_asc".
func (db *DB) SearchSharedBookmarks(ctx context.Context, words []string, sort string, excludeOwner *uuid.UUID, limit int) ([]models.Bookmark, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("search_shared").Observe(time.Since(start).Seconds())
	}()

	conditions := []string{"access = ?"}
	args := []interface{}{models.AccessPublic}

	if excludeOwner != nil {
		conditions = append(conditions, "owner_id != ?")
		args = append(args, excludeOwner.String())
	}

	if len(words) > 0 {
		wordConds := make([]string, 0, len(words))
		for _, word := range words {
			pattern := "%" + escapeLike(word) + "%"
			wordConds = append(wordConds, "(description ILIKE ? ESCAPE '\\' OR link ILIKE ? ESCAPE '\\')")
			args = append(args, pattern, pattern)
		}
		conditions = append(conditions, "("+strings.Join(wordConds, " OR ")+")")
	}

	order := "date_create DESC"
	if sort == "date_asc" {
		order = "date_create ASC"
	}

	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, `
	SELECT `+bookmarkColumns+`
	FROM bookmarks
	WHERE `+strings.Join(conditions, " AND ")+`
	ORDER BY `+order+`
	LIMIT ?`, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("search_shared").Inc()
		return nil, fmt.Errorf("failed to search shared bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}

// escapeLike escapes LIKE wildcards in user-supplied search words.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// GetBookmarksByBertIDs returns public bookmarks whose bert id is in ids.
// Result order is unspecified; callers ranking by an external relevance
// order (semantic search) re-sort by that order themselves. When
// excludeOwner is non-nil, that user's own bookmarks are filtered out.
func (db *DB) GetBookmarksByBertIDs(ctx context.Context, ids []int64, excludeOwner *uuid.UUID) ([]models.Bookmark, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if len(ids) == 0 {
		return []models.Bookmark{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("bookmarks_by_bert").Observe(time.Since(start).Seconds())
	}()

	conditions := []string{
		"access = ?",
		fmt.Sprintf("bert_id IN (%s)", placeholders(len(ids))),
	}
	args := []interface{}{models.AccessPublic}
	for _, id := range ids {
		args = append(args, id)
	}

	if excludeOwner != nil {
		conditions = append(conditions, "owner_id != ?")
		args = append(args, excludeOwner.String())
	}

	rows, err := db.conn.QueryContext(ctx, `
	SELECT `+bookmarkColumns+`
	FROM bookmarks
	WHERE `+strings.Join(conditions, " AND "), args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("bookmarks_by_bert").Inc()
		return nil, fmt.Errorf("failed to query bookmarks by bert ids: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, rows.Err()
}
