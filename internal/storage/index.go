/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"draftcad/internal/domain"
	applog "draftcad/internal/log"
	"draftcad/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-scene ephemeral/index data under the scene root.
	IndexDirName  = ".draftcad"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the scene's embedded index database file.
func IndexPath(sceneRoot string) string {
	return filepath.Join(sceneRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-scene SQLite index exists at
// .draftcad/index.sqlite, opens the database, enables WAL mode, and ensures
// the meta/version tables exist. The returned *sql.DB is ready for use.
// Callers may close it when no longer needed.
func InitOrOpenIndex(sceneRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", sceneRoot),
	)
	if strings.TrimSpace(sceneRoot) == "" {
		return nil, errors.New("scene root is required")
	}
	if err := os.MkdirAll(filepath.Join(sceneRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	path := IndexPath(sceneRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add lookup indexes for kind/layer filtering and optimize FTS
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);`,
				`CREATE INDEX IF NOT EXISTS idx_entities_layer ON entities(layer);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_entities(fts_entities) VALUES('optimize')`); err != nil {
				// best-effort optimize; ignore errors
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Core entities table: one row per scene entity, text is the
		// searchable blob (name, layer, kind, annotation text).
		`CREATE TABLE IF NOT EXISTS entities (
			ent_id    INTEGER PRIMARY KEY,
			entity_id TEXT    NOT NULL,
			kind      TEXT    NOT NULL,
			layer     TEXT,
			name      TEXT,
			text      TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_entities_entity_id ON entities(entity_id);`,

		// Contentless FTS5 index fed from entities via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_entities USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Layer catalog
		`CREATE TABLE IF NOT EXISTS layers (
			name    TEXT PRIMARY KEY,
			visible INTEGER NOT NULL DEFAULT 1,
			locked  INTEGER NOT NULL DEFAULT 0
		);`,

		// Snapshots (history of scene changes, keyed by scene name)
		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY,
			scene_key  TEXT    NOT NULL,
			ts         TEXT    NOT NULL,
			delta_blob BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_scene_ts ON snapshots(scene_key, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for contentless FTS synchronization with entities.text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS entities_ai AFTER INSERT ON entities BEGIN
			INSERT INTO fts_entities(rowid, text) VALUES (new.ent_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS entities_ad AFTER DELETE ON entities BEGIN
			INSERT INTO fts_entities(fts_entities, rowid, text) VALUES ('delete', old.ent_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS entities_au AFTER UPDATE OF text ON entities BEGIN
			INSERT INTO fts_entities(fts_entities, rowid, text) VALUES ('delete', old.ent_id, old.text);
			INSERT INTO fts_entities(rowid, text) VALUES (new.ent_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, sceneRoot string, sc domain.Scene) (bool, error) {
	path := IndexPath(sceneRoot)
	// Try to open DB; if fails, attempt backup+delete+rebuild
	db, err := InitOrOpenIndex(sceneRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, sceneRoot, sc); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	// quick_check for corruption
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	// Probe core table
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM entities LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, sceneRoot, sc); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .draftcad/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty ensures the DB exists and, if the entities table is
// empty, populates it from the given scene.
func BuildIndexIfEmpty(ctx context.Context, sceneRoot string, sc domain.Scene) error {
	db, err := InitOrOpenIndex(sceneRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities;").Scan(&cnt); err != nil {
		return fmt.Errorf("check entities count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildEntitiesFromScene(ctx, db, sc)
}

// UpdateIndex updates the embedded index with changes from the scene.
// Minimal safe implementation: replace the entities content from the provided scene.
func UpdateIndex(ctx context.Context, sceneRoot string, sc domain.Scene) error {
	db, err := InitOrOpenIndex(sceneRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildEntitiesFromScene(ctx, db, sc)
}

// RebuildIndex drops and recreates core index tables and rebuilds content from the scene.
// It preserves meta/version tables. This is a safe operation; the index is
// derived from scene.json and rebuildable by design.
func RebuildIndex(ctx context.Context, sceneRoot string, sc domain.Scene) error {
	db, err := InitOrOpenIndex(sceneRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TABLE IF EXISTS layers;",
		"DROP TABLE IF EXISTS snapshots;",
		"DROP TRIGGER IF EXISTS entities_ai;",
		"DROP TRIGGER IF EXISTS entities_ad;",
		"DROP TRIGGER IF EXISTS entities_au;",
		"DROP TABLE IF EXISTS entities;",
		"DROP TABLE IF EXISTS fts_entities;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildEntitiesFromScene(ctx, db, sc)
}

// rebuildEntitiesFromScene replaces the entities and layers table content
// from the given scene.
func rebuildEntitiesFromScene(ctx context.Context, db *sql.DB, sc domain.Scene) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entities;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear entities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM layers;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear layers: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO entities(entity_id, kind, layer, name, text) VALUES(?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, e := range sc.Entities {
		if strings.TrimSpace(e.ID) == "" || e.Shape == nil {
			continue
		}
		if _, err := ins.ExecContext(ctx, e.ID, string(e.Kind()), e.Layer, e.Name, searchText(e)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert entity: %w", err)
		}
	}
	lins, err := tx.PrepareContext(ctx, "INSERT INTO layers(name, visible, locked) VALUES(?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare layer insert: %w", err)
	}
	defer lins.Close()
	for _, l := range sc.Layers {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		if _, err := lins.ExecContext(ctx, l.Name, boolInt(l.Visible), boolInt(l.Locked)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert layer: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// searchText aggregates the searchable words of an entity: name, layer, kind
// and any annotation text.
func searchText(e domain.Entity) string {
	parts := make([]string, 0, 4)
	if s := strings.TrimSpace(e.Name); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.Layer); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, string(e.Kind()))
	if ng, ok := e.Shape.(domain.NonGeometric); ok {
		if s := strings.TrimSpace(ng.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
