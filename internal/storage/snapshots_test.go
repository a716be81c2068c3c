/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"draftcad/internal/domain"
)

func TestSnapshotsCRUD(t *testing.T) {
	root := t.TempDir()
	sh := &SceneHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName)}
	ctx := context.Background()
	// Ensure DB exists
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("db.Close error: %v", err)
	}
	delta1 := []byte("hello")
	if err := SaveSnapshot(ctx, sh, "scene-1", delta1, time.Now()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	blob, _, err := GetLatestSnapshot(ctx, sh, "scene-1")
	if err != nil || string(blob) != "hello" {
		t.Fatalf("GetLatestSnapshot got %q err %v", string(blob), err)
	}
	// Add more snapshots
	for i := 0; i < 5; i++ {
		b := []byte{byte('a' + i)}
		if err := SaveSnapshot(ctx, sh, "scene-1", b, time.Now().Add(time.Duration(i+1)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	list, err := ListSnapshots(ctx, sh, "scene-1", 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	// Other scene keys are isolated
	other, err := ListSnapshots(ctx, sh, "scene-2", 10)
	if err != nil || len(other) != 0 {
		t.Fatalf("ListSnapshots other scene got %d err %v", len(other), err)
	}
	// Prune keep last 3
	n, err := PruneOldSnapshots(ctx, sh, "scene-1", 3)
	if err != nil {
		t.Fatalf("PruneOldSnapshots: %v", err)
	}
	if n <= 0 {
		t.Fatalf("expected deletions > 0, got %d", n)
	}
	list, err = ListSnapshots(ctx, sh, "scene-1", 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListSnapshots after prune got %d err %v", len(list), err)
	}
	// Clean up DB file
	_ = os.Remove(IndexPath(root))
}

func TestDeleteLatestSnapshotStepsHistoryBack(t *testing.T) {
	root := t.TempDir()
	sh := &SceneHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName)}
	ctx := context.Background()
	base := time.Now()
	for i, blob := range [][]byte{[]byte("first"), []byte("second"), []byte("third")} {
		if err := SaveSnapshot(ctx, sh, "scene-1", blob, base.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	got, _, err := GetLatestSnapshot(ctx, sh, "scene-1")
	if err != nil || string(got) != "third" {
		t.Fatalf("GetLatestSnapshot got %q err %v", string(got), err)
	}
	if err := DeleteLatestSnapshot(ctx, sh, "scene-1"); err != nil {
		t.Fatalf("DeleteLatestSnapshot: %v", err)
	}
	got, _, err = GetLatestSnapshot(ctx, sh, "scene-1")
	if err != nil || string(got) != "second" {
		t.Fatalf("after delete got %q err %v, want the previous state", string(got), err)
	}
	list, err := ListSnapshots(ctx, sh, "scene-1", 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	// Deleting until empty is a no-op afterwards.
	if err := DeleteLatestSnapshot(ctx, sh, "scene-1"); err != nil {
		t.Fatalf("DeleteLatestSnapshot: %v", err)
	}
	if err := DeleteLatestSnapshot(ctx, sh, "scene-1"); err != nil {
		t.Fatalf("DeleteLatestSnapshot: %v", err)
	}
	if err := DeleteLatestSnapshot(ctx, sh, "scene-1"); err != nil {
		t.Fatalf("DeleteLatestSnapshot on empty history: %v", err)
	}
	blob, _, err := GetLatestSnapshot(ctx, sh, "scene-1")
	if err != nil || blob != nil {
		t.Fatalf("emptied history should report no snapshot, got %q err %v", string(blob), err)
	}
	_ = os.Remove(IndexPath(root))
}

func TestSnapshotRoundTripsSceneState(t *testing.T) {
	root := t.TempDir()
	sh, err := InitScene(root, testScene("undo-scene"))
	if err != nil {
		t.Fatalf("InitScene: %v", err)
	}
	ctx := context.Background()
	blob, err := json.Marshal(sh.Scene)
	if err != nil {
		t.Fatalf("marshal scene: %v", err)
	}
	if err := SaveSnapshot(ctx, sh, sh.Scene.Name, blob, time.Now()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	// Mutate the scene the way a join does, then restore the saved state.
	sh.Scene = sh.Scene.RemoveEntities([]string{"c1"})
	if len(sh.Scene.Entities) != 1 {
		t.Fatalf("mutation did not take, %d entities", len(sh.Scene.Entities))
	}
	latest, _, err := GetLatestSnapshot(ctx, sh, "undo-scene")
	if err != nil || latest == nil {
		t.Fatalf("GetLatestSnapshot err %v", err)
	}
	var restored domain.Scene
	if err := json.Unmarshal(latest, &restored); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(restored.Entities) != 2 {
		t.Fatalf("restored scene has %d entities, want 2", len(restored.Entities))
	}
	if _, ok := restored.FindEntity("c1"); !ok {
		t.Fatalf("restored scene must contain the removed entity")
	}
}
