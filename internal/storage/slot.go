/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"datacards/internal/domain"
	applog "datacards/internal/log"
)

const (
	SlotFileName   = "cardCollections.json"
	BackupsDirName = "backups"

	// DefaultKeepBackups bounds how many timestamped backups are retained.
	DefaultKeepBackups = 20
)

// ErrMalformed is returned by Load when the slot holds content that is not a collections document.
var ErrMalformed = errors.New("malformed collections document")

// Slot is the single persistence key holding every collection.
// Dir is the data directory; Path the JSON document inside it.
type Slot struct {
	Dir         string
	Path        string
	KeepBackups int
}

// OpenSlot prepares the data directory and returns a slot rooted there.
func OpenSlot(dir string) (*Slot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Slot{Dir: dir, Path: filepath.Join(dir, SlotFileName), KeepBackups: DefaultKeepBackups}, nil
}

// Load reads the whole document. A missing file yields an empty list and no error.
// Unparseable or schema-violating content yields an empty list and an error wrapping
// ErrMalformed; callers start fresh and the bad file is left in place until the next Save
// backs it up.
func (s *Slot) Load() ([]domain.Collection, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "slot_load").With(slog.String("path", s.Path))
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Collection{}, nil
	}
	if err != nil {
		l.Error("read slot failed", slog.Any("err", err))
		return []domain.Collection{}, fmt.Errorf("read slot: %w", err)
	}
	cols, err := decodeCollections(b)
	if err != nil {
		l.Error("slot content discarded", slog.Any("err", err))
		return []domain.Collection{}, err
	}
	l.Debug("slot loaded", slog.Int("collections", len(cols)))
	return cols, nil
}

func decodeCollections(b []byte) ([]domain.Collection, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return []domain.Collection{}, nil
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	if err := ValidateCollections(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var cols []domain.Collection
	if err := json.Unmarshal(b, &cols); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	return cols, nil
}

// Save overwrites the document with cols using a temp file and rename. The previous
// document, if any, is copied to a timestamped backup first.
func (s *Slot) Save(cols []domain.Collection) error {
	if s == nil || s.Path == "" {
		return errors.New("invalid slot: missing path")
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	data, err := json.MarshalIndent(cols, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collections: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(s.Dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(s.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", SlotFileName, stamp))
		if cerr := copyFile(s.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current slot: %w", cerr)
		}
		s.pruneBackups()
	}

	temp := filepath.Join(s.Dir, fmt.Sprintf(".%s.tmp-%d-%d", SlotFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp slot: %w", werr)
	}
	if err := ReplaceFile(temp, s.Path); err != nil {
		return fmt.Errorf("replace slot: %w", err)
	}
	return nil
}

// EmergencySnapshot writes cols straight into the backups directory without
// touching the slot document. Used after a crash, when the in-memory state may
// be newer than what was last saved; LatestBackup picks it up like any backup.
func (s *Slot) EmergencySnapshot(cols []domain.Collection) (string, error) {
	data, err := json.MarshalIndent(cols, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal collections: %w", err)
	}
	bdir := filepath.Join(s.Dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.%s-crash.bak", SlotFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write emergency snapshot: %w", err)
	}
	return path, nil
}

// Backups lists backup files, oldest first.
func (s *Slot) Backups() ([]string, error) {
	bdir := filepath.Join(s.Dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, SlotFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// LatestBackup decodes the newest backup that still parses.
func (s *Slot) LatestBackup() ([]domain.Collection, string, error) {
	cands, err := s.Backups()
	if err != nil {
		return nil, "", err
	}
	for i := len(cands) - 1; i >= 0; i-- {
		b, err := os.ReadFile(cands[i])
		if err != nil {
			continue
		}
		cols, err := decodeCollections(b)
		if err != nil {
			continue
		}
		return cols, cands[i], nil
	}
	return nil, "", errors.New("no usable backups found")
}

func (s *Slot) pruneBackups() {
	keep := s.KeepBackups
	if keep <= 0 {
		return
	}
	cands, err := s.Backups()
	if err != nil || len(cands) <= keep {
		return
	}
	for _, p := range cands[:len(cands)-keep] {
		_ = os.Remove(p)
	}
}

// ReplaceFile renames src over dst, removing src when the rename fails.
func ReplaceFile(src, dst string) error {
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(dst)
	}
	if err := os.Rename(src, dst); err != nil {
		_ = os.Remove(src)
		return err
	}
	return nil
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
	return f.Sync()
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
	return df.Sync()
}
