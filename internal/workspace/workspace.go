/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace opens everything a command needs: the slot, the store seeded
// from it, the index database, the icon catalog and fonts. It is shared by the
// CLI, the print server and the desktop UI.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"datacards/internal/config"
	"datacards/internal/crash"
	"datacards/internal/domain"
	"datacards/internal/export"
	"datacards/internal/icons"
	"datacards/internal/layout"
	applog "datacards/internal/log"
	"datacards/internal/render"
	"datacards/internal/storage"
	"datacards/internal/store"
	"datacards/internal/textlayout"
)

// SelectionFileName remembers the active collection and card between runs.
const SelectionFileName = "selection.yaml"

type Workspace struct {
	Config  config.AppConfig
	Slot    *storage.Slot
	Store   *store.Store
	Index   *storage.Index // nil when the index could not be opened
	Catalog *icons.Catalog
	Fonts   textlayout.Provider
	// LoadErr is set when the slot held malformed content and the store started empty.
	LoadErr error

	log       *slog.Logger
	cancel    func()
	closeOnce sync.Once
	closeErr  error
}

type selection struct {
	Collection string `yaml:"collection,omitempty"`
	Card       string `yaml:"card,omitempty"`
}

// Open prepares the data dir named by cfg and loads the collections. Only a data
// dir that cannot be created is fatal; index and icon problems degrade to
// in-memory fallbacks.
func Open(ctx context.Context, cfg config.AppConfig) (*Workspace, error) {
	l := applog.WithComponent("workspace")
	dir := cfg.ResolvedDataDir()
	slot, err := storage.OpenSlot(dir)
	if err != nil {
		return nil, err
	}
	w := &Workspace{Config: cfg, Slot: slot, log: l}

	cols, err := slot.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrMalformed) {
			return nil, err
		}
		l.Warn("starting with empty collections", slog.Any("err", err))
		w.LoadErr = err
	}
	w.Store = store.New(slot, cols)

	ix, rebuilt, err := storage.OpenOrRebuildIndex(ctx, dir)
	if err != nil {
		l.Warn("index unavailable; search falls back to memory", slog.Any("err", err))
	} else {
		w.Index = ix
		if rebuilt {
			l.Info("index rebuilt", slog.String("path", ix.Path()))
		}
	}

	w.Catalog = icons.NewCatalog(loadCategories(l))
	if n, err := w.Catalog.LoadDir(filepath.Join(dir, icons.IconsDirName)); err != nil {
		l.Warn("load icon sets failed", slog.Any("err", err))
	} else if n > 0 {
		l.Info("icon sets loaded", slog.Int("count", n))
	}
	if w.Index != nil {
		if err := w.Catalog.AttachIndex(ctx, w.Index); err != nil {
			l.Warn("index icon sets failed", slog.Any("err", err))
		}
	}

	w.Fonts = render.DefaultFonts()
	if p := cfg.Render.FontPath; p != "" {
		lib := textlayout.NewDefaultLibrary()
		if err := lib.LoadTTF(textlayout.DefaultFamily, textlayout.WeightRegular, false, p); err != nil {
			l.Warn("custom font ignored", slog.Any("err", err))
		} else {
			w.Fonts = &textlayout.OTProvider{Lib: lib}
		}
	}

	w.restoreSelection()
	w.cancel = w.Store.Subscribe(w.saveSelection)
	return w, nil
}

func loadCategories(l *slog.Logger) []icons.Category {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	cats, err := icons.LoadCategories(filepath.Join(dir, icons.CategoriesFileName))
	if err != nil {
		l.Warn("categories file ignored", slog.Any("err", err))
	}
	return cats
}

func (w *Workspace) selectionPath() string { return filepath.Join(w.Slot.Dir, SelectionFileName) }

func (w *Workspace) restoreSelection() {
	data, err := os.ReadFile(w.selectionPath())
	if err != nil {
		return
	}
	var sel selection
	if err := yaml.Unmarshal(data, &sel); err != nil || sel.Collection == "" {
		return
	}
	if _, err := w.Store.SelectCollection(sel.Collection); err != nil {
		return
	}
	if sel.Card != "" {
		_, _ = w.Store.SelectCard(sel.Card)
	}
}

func (w *Workspace) saveSelection(st store.State) {
	data, err := yaml.Marshal(selection{Collection: st.ActiveCollectionID, Card: st.ActiveCardID})
	if err != nil {
		return
	}
	if err := os.WriteFile(w.selectionPath(), data, 0o644); err != nil {
		w.log.Warn("save selection failed", slog.Any("err", err))
	}
}

// ExportOptions maps the export config section onto export.Options.
func (w *Workspace) ExportOptions() export.Options {
	e := w.Config.Export
	return export.Options{
		Grid:        layout.Grid{Columns: e.Columns, Rows: e.Rows},
		Geometry:    layout.A4Portrait,
		DPI:         float64(e.DPI),
		JPEGQuality: e.JPEGQuality,
		Resolver:    w.Catalog,
		Fonts:       w.Fonts,
		Cache:       w.Index,
	}
}

// CrashTarget lets crash.Recover snapshot the live collections.
func (w *Workspace) CrashTarget() *crash.Target {
	return &crash.Target{
		Slot:     w.Slot,
		Snapshot: func() []domain.Collection { return w.Store.State().Collections },
	}
}

// Restore replaces the collections with the newest readable backup and persists them.
func (w *Workspace) Restore() (string, error) {
	cols, path, err := w.Slot.LatestBackup()
	if err != nil {
		return "", err
	}
	if _, err := w.Store.Replace(cols); err != nil {
		return path, fmt.Errorf("restore %s: %w", filepath.Base(path), err)
	}
	w.log.Info("restored backup", slog.String("path", path), slog.Int("collections", len(cols)))
	return path, nil
}

// Close drops cached rasters of deleted cards, trims the cache and closes the
// index. Calling it again is a no-op.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() { w.closeErr = w.close() })
	return w.closeErr
}

func (w *Workspace) close() error {
	if w.cancel != nil {
		w.cancel()
	}
	if w.Index == nil {
		return nil
	}
	var keep []string
	for _, c := range w.Store.State().Collections {
		for _, card := range c.Cards {
			keep = append(keep, card.ID)
		}
	}
	if err := w.Index.PurgeRasters(context.Background(), keep); err != nil {
		w.log.Warn("raster purge failed", slog.Any("err", err))
	}
	if err := w.Index.EvictRastersToFit(context.Background(), storage.MaxRasterBytesFromEnv()); err != nil {
		w.log.Warn("raster cache eviction failed", slog.Any("err", err))
	}
	return w.Index.Close()
}
