/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"draftcad/internal/storage"
)

// SearchPG executes a search over the Postgres entities table using tsvector and filters
// and returns results mapped to storage.SearchResult to ease parity checks.
func SearchPG(ctx context.Context, db *sql.DB, sceneID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT e.entity_id, e.kind, COALESCE(e.layer,'') AS layer, COALESCE(e.name,'') AS name, ")
		b.WriteString("COALESCE(ts_headline('simple', COALESCE(e.raw_text,''), plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM entities e WHERE e.scene_id = $2 AND e.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, sceneID)
	} else {
		b.WriteString("SELECT e.entity_id, e.kind, COALESCE(e.layer,'') AS layer, COALESCE(e.name,'') AS name, '' AS snippet ")
		b.WriteString("FROM entities e WHERE e.scene_id = $1 ")
		args = append(args, sceneID)
	}

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Kinds filter
	if len(q.Kinds) > 0 {
		b.WriteString(" AND e.kind = ANY (" + place(q.Kinds) + ") ")
	}
	// Layer filter
	if s := strings.TrimSpace(q.Layer); s != "" {
		b.WriteString(" AND lower(COALESCE(e.layer,'')) = " + place(strings.ToLower(s)) + " ")
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY e.layer, e.kind, e.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.EntityID, &r.Kind, &r.Layer, &r.Name, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
