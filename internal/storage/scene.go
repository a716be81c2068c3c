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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"draftcad/internal/domain"
)

const (
	ManifestFileName = "scene.json"
	BackupsDirName   = "backups"
	AutosaveDirName  = "autosave"
)

// Standard subfolders scaffolded in every drawing directory.
var standardSubDirs = []string{
	"assets",
	"exports",
	AutosaveDirName,
	BackupsDirName,
}

// SceneHandle keeps track of the scene state loaded/saved from disk.
// Root is the drawing directory containing scene.json and subfolders.
// Scene holds the in-memory representation of the manifest.
type SceneHandle struct {
	Root         string
	ManifestPath string
	Scene        domain.Scene
}

// InitScene creates a new drawing directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, writes the manifest
// transactionally, and bootstraps the embedded entity index.
func InitScene(root string, sc domain.Scene) (*SceneHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scene root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	sh := &SceneHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Scene:        sc,
	}
	if err := Save(sh); err != nil {
		return nil, err
	}
	// Bootstrap the index so search works right after init.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := BuildIndexIfEmpty(ctx, root, sc); err != nil {
		return nil, err
	}
	return sh, nil
}

// Open loads an existing scene from the given root directory.
// If the current manifest cannot be read or parsed, it will attempt last backup.
func Open(root string) (*SceneHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		sc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &SceneHandle{Root: root, ManifestPath: mpath, Scene: *sc}, nil
	}
	var sc domain.Scene
	if uerr := json.Unmarshal(b, &sc); uerr != nil {
		bsc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &SceneHandle{Root: root, ManifestPath: mpath, Scene: *bsc}, nil
	}
	return &SceneHandle{Root: root, ManifestPath: mpath, Scene: sc}, nil
}

// Save writes the current SceneHandle.Scene to disk with transactional
// semantics and a timestamped backup of the previous manifest (if present).
func Save(sh *SceneHandle) error {
	if sh == nil {
		return errors.New("nil SceneHandle")
	}
	if sh.Root == "" || sh.ManifestPath == "" {
		return errors.New("invalid SceneHandle: missing paths")
	}
	// Marshal in human-readable form
	data, err := json.MarshalIndent(sh.Scene, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(sh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current manifest exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(sh.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		bpath := filepath.Join(bdir, bname)
		if cerr := copyFile(sh.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(sh.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(sh.ManifestPath); err == nil {
		_ = os.Remove(sh.ManifestPath)
	}
	if rerr := os.Rename(temp, sh.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if needed, and updates the handle.
func SaveAs(sh *SceneHandle, newRoot string) error {
	if sh == nil {
		return errors.New("nil SceneHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	sh.Root = newRoot
	sh.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(sh)
}

// AutosaveCrashSnapshot writes the in-memory scene to a timestamped file in
// the autosave folder, bypassing the backup machinery. It is called from the
// crash handler, so it must not depend on the index database.
func AutosaveCrashSnapshot(sh *SceneHandle) (string, error) {
	if sh == nil {
		return "", errors.New("nil SceneHandle")
	}
	if sh.Root == "" {
		return "", errors.New("invalid SceneHandle: missing root")
	}
	data, err := json.MarshalIndent(sh.Scene, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	data = append(data, '\n')
	dir := filepath.Join(sh.Root, AutosaveDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure autosave dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", ManifestFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*domain.Scene, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var sc domain.Scene
	if err := json.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &sc, nil
}
