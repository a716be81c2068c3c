/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Kinds can restrict to entity kinds like: line, arc,
// circle, polyline, lwpolyline, point, text, dimension.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text   string
	Kinds  []string
	Layer  string
	Limit  int
	Offset int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	EntityID string
	Kind     string
	Layer    string
	Name     string
	Snippet  string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over entities with filters applied.
func Search(ctx context.Context, sceneRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(sceneRoot) == "" {
		return nil, errors.New("scene root is required")
	}
	db, err := InitOrOpenIndex(sceneRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT e.entity_id, e.kind, COALESCE(e.layer,''), COALESCE(e.name,''), snippet(fts_entities, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_entities JOIN entities e ON fts_entities.rowid = e.ent_id\n")
		sb.WriteString("WHERE fts_entities MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT e.entity_id, e.kind, COALESCE(e.layer,''), COALESCE(e.name,''), ''\n")
		sb.WriteString("FROM entities e\nWHERE 1=1\n")
	}
	// Kinds filter (IN list)
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND e.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, k)
		}
	}
	// Layer filter: exact, case-insensitive
	if s := strings.TrimSpace(q.Layer); s != "" {
		sb.WriteString(" AND lower(COALESCE(e.layer,'')) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY e.layer, e.kind, e.ent_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.EntityID, &r.Kind, &r.Layer, &r.Name, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EntitiesOnLayer lists all indexed entities on the given layer.
func EntitiesOnLayer(ctx context.Context, sceneRoot string, layer string, limit, offset int) ([]SearchResult, error) {
	if strings.TrimSpace(layer) == "" {
		return nil, errors.New("layer is required")
	}
	return Search(ctx, sceneRoot, SearchQuery{Layer: layer, Limit: limit, Offset: offset})
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
