/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package iconpack moves user icon sets between data directories as a single
// zip archive.
package iconpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"datacards/internal/icons"
	applog "datacards/internal/log"
)

// ManifestName is the human-readable summary stored at the archive root.
const ManifestName = "iconpack.manifest.txt"

// maxSetBytes bounds a single set read from an archive.
const maxSetBytes = 64 << 20

// Export zips every Iconify set in <dataDir>/icons into destZipPath and adds a
// manifest listing them. A missing icons directory yields an archive with only
// the manifest.
func Export(dataDir, destZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("iconpack"), "export").With(slog.String("data_dir", dataDir))
	if strings.TrimSpace(dataDir) == "" {
		return 0, errors.New("data dir is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return 0, errors.New("destination is required")
	}
	sets, err := filepath.Glob(filepath.Join(dataDir, icons.IconsDirName, "*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(sets)

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)
	zf, err := os.Create(destZipPath)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	var manifest strings.Builder
	fmt.Fprintf(&manifest, "Data Collection Cards Icon Pack\nCreated: %s\n\n", time.Now().Format(time.RFC3339))
	added := 0
	for _, p := range sets {
		data, err := os.ReadFile(p)
		if err != nil {
			return added, fmt.Errorf("read %s: %w", filepath.Base(p), err)
		}
		s, err := icons.ParseSet(data)
		if err != nil {
			l.Warn("skip invalid set", slog.String("path", p), slog.Any("err", err))
			continue
		}
		fw, err := zw.Create(filepath.Base(p))
		if err != nil {
			return added, err
		}
		if _, err := fw.Write(data); err != nil {
			return added, err
		}
		fmt.Fprintf(&manifest, "%s\t%s\t%d icons\n", s.Prefix, s.Title, len(s.Names()))
		added++
	}
	w, err := zw.Create(ManifestName)
	if err != nil {
		return added, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest.String()); err != nil {
		return added, fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("finish zip: %w", err)
	}
	l.Info("icon pack exported", slog.Int("sets", added), slog.String("zip", destZipPath))
	return added, nil
}

// Install extracts the sets of packZipPath into <dataDir>/icons. Only top-level
// *.json entries that parse as icon sets are installed; existing files are
// skipped. Returns the number of sets written.
func Install(dataDir, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("iconpack"), "install").With(slog.String("data_dir", dataDir))
	if strings.TrimSpace(dataDir) == "" {
		return 0, errors.New("data dir is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("pack path is required")
	}
	dir := filepath.Join(dataDir, icons.IconsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure icons dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		if f.FileInfo().IsDir() || name == ManifestName {
			continue
		}
		if path.Base(name) != name || !strings.EqualFold(path.Ext(name), ".json") {
			l.Warn("skip entry", slog.String("name", name))
			continue
		}
		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, err
		}
		if _, err := icons.ParseSet(data); err != nil {
			l.Warn("skip invalid set", slog.String("name", name), slog.Any("err", err))
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("icon pack installed", slog.Int("sets", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxSetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxSetBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxSetBytes)
	}
	return data, nil
}
