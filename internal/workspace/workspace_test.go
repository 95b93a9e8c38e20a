/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"datacards/internal/config"
	"datacards/internal/storage"
)

func openTemp(t *testing.T) (*Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	cfg := config.Defaults()
	cfg.Storage.DataDir = dir
	w, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, dir
}

func TestOpenEmptyDataDir(t *testing.T) {
	w, dir := openTemp(t)
	if got := len(w.Store.State().Collections); got != 0 {
		t.Fatalf("expected no collections, got %d", got)
	}
	if w.Index == nil {
		t.Fatalf("expected index to open")
	}
	if _, err := os.Stat(filepath.Join(dir, storage.BackupsDirName)); err != nil {
		t.Fatalf("backups dir missing: %v", err)
	}
	if _, err := w.Catalog.Resolve("dc:star"); err != nil {
		t.Fatalf("builtin icon not resolvable: %v", err)
	}
}

func TestCollectionsAndSelectionSurviveReopen(t *testing.T) {
	w, dir := openTemp(t)
	st, err := w.Store.CreateCollection("Farm")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	colID := st.ActiveCollectionID
	st, err = w.Store.AddCard(colID)
	if err != nil {
		t.Fatalf("add card: %v", err)
	}
	cardID := st.ActiveCardID
	_ = w.Close()

	cfg := config.Defaults()
	cfg.Storage.DataDir = dir
	w2, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()
	st2 := w2.Store.State()
	if len(st2.Collections) != 1 || st2.Collections[0].Name != "Farm" {
		t.Fatalf("collections not persisted: %+v", st2.Collections)
	}
	if st2.ActiveCollectionID != colID || st2.ActiveCardID != cardID {
		t.Fatalf("selection not restored: %q %q", st2.ActiveCollectionID, st2.ActiveCardID)
	}
}

func TestMalformedSlotStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, t.TempDir())
	if err := os.WriteFile(filepath.Join(dir, storage.SlotFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Storage.DataDir = dir
	w, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()
	if w.LoadErr == nil {
		t.Fatalf("expected LoadErr for malformed slot")
	}
	if len(w.Store.State().Collections) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestRestoreLatestBackup(t *testing.T) {
	w, _ := openTemp(t)
	if _, err := w.Store.CreateCollection("First"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Store.CreateCollection("Second"); err != nil {
		t.Fatal(err)
	}
	// the second save backed up the one-collection document
	path, err := w.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if path == "" {
		t.Fatalf("expected backup path")
	}
	st := w.Store.State()
	if len(st.Collections) != 1 || st.Collections[0].Name != "First" {
		t.Fatalf("unexpected restored state: %+v", st.Collections)
	}
}

func TestExportOptionsFollowConfig(t *testing.T) {
	w, _ := openTemp(t)
	w.Config.Export.Columns = 3
	w.Config.Export.Rows = 4
	opt := w.ExportOptions()
	if opt.Grid.Columns != 3 || opt.Grid.Rows != 4 {
		t.Fatalf("grid = %+v", opt.Grid)
	}
	if opt.Resolver == nil || opt.Cache == nil {
		t.Fatalf("resolver and cache should be wired")
	}
}
