/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"draftcad/internal/backend"
	"draftcad/internal/config"
	"draftcad/internal/crash"
	"draftcad/internal/domain"
	"draftcad/internal/join"
	applog "draftcad/internal/log"
	"draftcad/internal/settings"
	"draftcad/internal/storage"
	"draftcad/internal/telemetry"
	"draftcad/internal/undo"
	"draftcad/internal/version"
)

// undoDepth bounds how many scene states the join history keeps per scene.
const undoDepth = 25

func usage() {
	fmt.Println("Draftcad drawing core CLI")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  draftcad version|-v|--version              Show version")
	fmt.Println("  draftcad init <dir> <name>                 Create a new scene at <dir> with name <name>")
	fmt.Println("  draftcad open <dir>                        Open scene at <dir> and print summary")
	fmt.Println("  draftcad save <dir>                        Save scene at <dir> (creates backup)")
	fmt.Println("  draftcad join <dir> <id> <id> [...]        Join entities into one and save")
	fmt.Println("  draftcad preview <dir> <id> <id> [...]     Check whether the entities can be joined")
	fmt.Println("  draftcad undo <dir>                        Restore the scene state before the last join")
	fmt.Println("  draftcad search <dir> <text>               Search indexed entities")
	fmt.Println("  draftcad settings export [file]            Print or write the constraint settings document")
	fmt.Println("  draftcad settings import <file>            Validate a settings document and install it")
	fmt.Println("  draftcad scenes                            List scenes on the configured backend")
	fmt.Println("  draftcad serve                             Run the scene document server")
}

func main() {
	// user config file first, environment overrides win inside Load
	cfg, token, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	var sh *storage.SceneHandle
	defer func() { crash.Recover(sh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Draftcad drawing core CLI")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			l.Info("init scene", slog.String("root", abs), slog.String("name", name))
			sc := domain.Scene{Name: name, Entities: []domain.Entity{}}
			h, err := storage.InitScene(abs, sc)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			sh = h
			fmt.Println("Created scene at", abs)
			return
		case "open":
			sh = mustOpen(l, args)
			fmt.Printf("Opened scene: %s\n", sh.Scene.Name)
			fmt.Printf("Entities: %d\n", len(sh.Scene.Entities))
			fmt.Printf("Layers: %d\n", len(sh.Scene.Layers))
			fmt.Println("Root:", sh.Root)
			return
		case "save":
			sh = mustOpen(l, args)
			if err := storage.Save(sh); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved scene and created a backup of previous manifest (if any).")
			return
		case "join":
			sh = mustOpen(l, args)
			ids := args[3:]
			if len(ids) < 2 {
				fmt.Println("join requires <dir> and at least two entity ids")
				usage()
				os.Exit(2)
			}
			runJoin(l, sh, ids)
			return
		case "preview":
			sh = mustOpen(l, args)
			ids := args[3:]
			if len(ids) < 2 {
				fmt.Println("preview requires <dir> and at least two entity ids")
				usage()
				os.Exit(2)
			}
			svc := join.NewService()
			pv := svc.Preview(sh.Scene, ids)
			if pv.OK {
				fmt.Printf("Joinable as %s (skipped %d malformed)\n", pv.Kind, pv.Skipped)
			} else {
				fmt.Println("Not joinable:", pv.Reason)
			}
			return
		case "undo":
			sh = mustOpen(l, args)
			runUndo(l, sh)
			return
		case "search":
			sh = mustOpen(l, args)
			if len(args) < 4 {
				fmt.Println("search requires <dir> and <text>")
				usage()
				os.Exit(2)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			res, err := storage.Search(ctx, sh.Root, storage.SearchQuery{Text: args[3]})
			if err != nil {
				l.Error("search failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, r := range res {
				fmt.Printf("%s\t%s\t%s\t%s\n", r.EntityID, r.Kind, r.Layer, r.Name)
			}
			fmt.Printf("%d match(es)\n", len(res))
			return
		case "settings":
			if len(args) < 3 {
				fmt.Println("settings requires export or import")
				usage()
				os.Exit(2)
			}
			runSettings(l, args[2:])
			return
		case "scenes":
			runScenes(l, cfg, token)
			return
		case "serve":
			l.Info("starting scene document server")
			bcfg := backend.LoadConfig(backend.Config{
				DBURL: cfg.Backend.PGDSN,
				Addr:  cfg.Backend.ListenAddr,
			})
			if err := backend.Start(bcfg); err != nil {
				l.Error("server failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func mustOpen(l *slog.Logger, args []string) *storage.SceneHandle {
	if len(args) < 3 {
		fmt.Printf("%s requires <dir>\n", args[1])
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[2])
	l.Info("open scene", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return h
}

// runJoin records the pre-join scene state in the undo history, performs the
// join, saves on success and reports the outcome through telemetry.
func runJoin(l *slog.Logger, sh *storage.SceneHandle, ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if blob, err := json.Marshal(sh.Scene); err == nil {
		if err := storage.SaveSnapshot(ctx, sh, sh.Scene.Name, blob, time.Now()); err != nil {
			l.Warn("undo snapshot not recorded", slog.Any("err", err))
		} else if _, err := storage.PruneOldSnapshots(ctx, sh, sh.Scene.Name, undoDepth); err != nil {
			l.Warn("undo history prune failed", slog.Any("err", err))
		}
	}

	svc := join.NewService()
	res := svc.Join(sh.Scene, ids)
	telemetry.Event("join", map[string]any{
		"success": res.Success,
		"inputs":  len(ids),
		"skipped": res.Skipped,
	})
	if !res.Success {
		l.Warn("join rejected", slog.String("reason", res.Message))
		fmt.Println("Join failed:", res.Message)
		os.Exit(1)
	}
	sh.Scene = res.Scene
	if err := storage.Save(sh); err != nil {
		l.Error("save after join failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("Joined %d entities into %s (skipped %d malformed)\n", len(ids), res.NewEntityID, res.Skipped)
}

// runUndo rebuilds the session undo stack from the persisted history, pops
// the most recent state, writes it back as the scene manifest and consumes
// the history entry.
func runUndo(l *slog.Logger, sh *storage.SceneHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	key := sh.Scene.Name
	snaps, err := storage.ListSnapshots(ctx, sh, key, undoDepth)
	if err != nil {
		l.Error("undo history load failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	um := undo.NewManager(undo.Config{})
	// ListSnapshots returns newest first; the manager wants oldest first.
	for i := len(snaps) - 1; i >= 0; i-- {
		um.PushSnapshot(undo.Snapshot{Scene: key, Blob: snaps[i].Blob, TS: snaps[i].TS})
	}
	snap, ok := um.Undo(key)
	if !ok {
		fmt.Println("Nothing to undo.")
		return
	}
	var sc domain.Scene
	if err := json.Unmarshal(snap.Blob, &sc); err != nil {
		l.Error("undo snapshot is not a valid scene", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	sh.Scene = sc
	if err := storage.Save(sh); err != nil {
		l.Error("save after undo failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if err := storage.DeleteLatestSnapshot(ctx, sh, key); err != nil {
		l.Warn("undo history entry not removed", slog.Any("err", err))
	}
	fmt.Printf("Restored scene state from %s\n", snap.TS.Format(time.RFC3339))
}

// runSettings handles "settings export [file]" and "settings import <file>"
// against the per-user constraint settings document.
func runSettings(l *slog.Logger, args []string) {
	st, err := settings.NewStore("")
	if err != nil {
		l.Error("settings store unavailable", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	switch args[0] {
	case "export":
		p, err := st.Load()
		if err != nil {
			l.Warn("settings file rejected, exporting defaults", slog.Any("err", err))
		}
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		if len(args) > 1 {
			if err := os.WriteFile(args[1], append(data, '\n'), 0o600); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported settings to", args[1])
			return
		}
		fmt.Println(string(data))
	case "import":
		if len(args) < 2 {
			fmt.Println("settings import requires <file>")
			usage()
			os.Exit(2)
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		p, err := settings.Import(data)
		if err != nil {
			l.Warn("settings import rejected", slog.Any("err", err))
			fmt.Println("Import rejected:", err)
			os.Exit(1)
		}
		if err := st.Save(p); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Imported settings to", st.Path())
	default:
		fmt.Println("settings requires export or import")
		usage()
		os.Exit(2)
	}
}

// runScenes lists the scenes on the configured backend using the stored
// keyring token.
func runScenes(l *slog.Logger, cfg config.AppConfig, token string) {
	timeout := time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c := backend.NewClient(cfg.Backend.BaseURL, token)
	list, err := c.ListScenes(ctx)
	if err != nil {
		l.Error("scene listing failed", slog.String("url", cfg.Backend.BaseURL), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	for _, s := range list {
		fmt.Printf("%d\t%s\tv%d\t%s\n", s.ID, s.Name, s.Version, s.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Printf("%d scene(s)\n", len(list))
}
