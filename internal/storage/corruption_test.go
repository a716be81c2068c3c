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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	sc := searchTestScene()
	sh, err := InitScene(root, sc)
	if err != nil || sh == nil {
		t.Fatalf("InitScene error: %v", err)
	}
	// Corrupt the DB file by writing junk
	idx := IndexPath(root)
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	// Attempt detect and rebuild
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, sc)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	// Verify DB looks healthy and has the entities rebuilt
	st, err := os.Stat(IndexPath(root))
	if err != nil || st.Size() == 0 {
		t.Fatalf("rebuilt index missing or empty: %v", err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "wall"})
	if err != nil {
		t.Fatalf("search after rebuild: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 wall entities after rebuild, got %d", len(res))
	}
	// Backup file should exist
	bdir := filepath.Join(root, IndexDirName, "backups")
	entries, _ := os.ReadDir(bdir)
	if len(entries) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}
}

func TestDetectAndRebuildIndex_HealthyNoop(t *testing.T) {
	root := t.TempDir()
	sc := searchTestScene()
	if _, err := InitScene(root, sc); err != nil {
		t.Fatalf("InitScene error: %v", err)
	}
	ctx := context.Background()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, sc)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("expected no rebuild on healthy index")
	}
}
