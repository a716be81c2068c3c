/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"draftcad/internal/storage"
)

func TestE2E_BackendSchemaAndSearch(t *testing.T) {
	db := openPGForTest(t)
	defer func() { _ = db.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Insert a scene and an index snapshot
	var sid int64
	if err := db.QueryRowContext(ctx, `INSERT INTO scenes(name, description) VALUES($1,$2) RETURNING id`, "E2E Scene", "demo").Scan(&sid); err != nil {
		t.Fatalf("insert scene: %v", err)
	}
	// Snapshot payload: small JSON
	snap := map[string]any{"ok": true, "version": 1}
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO index_snapshots(scene_id, version, snapshot) VALUES($1,$2,$3)`, sid, 1, string(b)); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
	// Fetch latest snapshot similar to server route
	var ver int64
	var raw string
	if err := db.QueryRowContext(ctx, `SELECT version, snapshot FROM index_snapshots WHERE scene_id=$1 ORDER BY version DESC, id DESC LIMIT 1`, sid).Scan(&ver, &raw); err != nil {
		t.Fatalf("select snapshot: %v", err)
	}
	if ver != 1 || raw == "" {
		t.Fatalf("unexpected snapshot ver=%d raw_empty=%v", ver, raw == "")
	}

	// Seed an entity and search it end-to-end through SearchPG
	if _, err := db.ExecContext(ctx, `INSERT INTO entities(scene_id, entity_id, kind, layer, name, raw_text) VALUES($1,$2,$3,$4,$5,$6)`, sid, "w-e2e", "line", "walls", "sunrise wall", "sunrise wall walls line"); err != nil {
		t.Fatalf("seed entity: %v", err)
	}
	res, err := SearchPG(ctx, db, sid, storage.SearchQuery{Text: "sunrise"})
	if err != nil {
		t.Fatalf("searchpg: %v", err)
	}
	if len(res) == 0 || res[0].EntityID != "w-e2e" {
		t.Fatalf("expected result entity w-e2e, got %+v", res)
	}
}
