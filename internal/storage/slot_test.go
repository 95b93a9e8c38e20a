/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datacards/internal/domain"
)

func sampleCollections() []domain.Collection {
	return []domain.Collection{{
		ID:   "c1",
		Name: "Birds",
		Cards: []domain.Card{{
			ID: "k1", IconType: domain.IconText, Icon: "?", Question: "Seen today?",
			Options: []domain.Option{
				{ID: "o1", Color: "#4285F4", Text: "Yes"},
				{ID: "o2", Color: "#EA4335", Text: "No", Tally: "reserved"},
			},
		}},
	}}
}

func TestSlotMissingFileIsEmpty(t *testing.T) {
	s, err := OpenSlot(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	cols, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cols == nil || len(cols) != 0 {
		t.Fatalf("want empty non-nil list, got %#v", cols)
	}
}

func TestSlotSaveLoadRoundTrip(t *testing.T) {
	s, err := OpenSlot(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	want := sampleCollections()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	// no temp files left behind
	ents, _ := os.ReadDir(s.Dir)
	for _, e := range ents {
		if filepath.Ext(e.Name()) != ".json" && e.Name() != BackupsDirName {
			t.Fatalf("unexpected file in data dir: %s", e.Name())
		}
	}
}

func TestSlotMalformedContent(t *testing.T) {
	cases := map[string]string{
		"not json":     `[{"id": "c1", "name": `,
		"wrong shape":  `{"collections": []}`,
		"missing keys": `[{"id": "c1", "cards": [{"id": "k1"}]}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := OpenSlot(t.TempDir())
			if err != nil {
				t.Fatalf("OpenSlot: %v", err)
			}
			if err := os.WriteFile(s.Path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			cols, err := s.Load()
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("want ErrMalformed, got %v", err)
			}
			if cols == nil || len(cols) != 0 {
				t.Fatalf("malformed slot must yield an empty list, got %#v", cols)
			}
		})
	}
}

func TestSlotBackupsArePrunedAndRecoverable(t *testing.T) {
	s, err := OpenSlot(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	s.KeepBackups = 2
	cols := sampleCollections()
	if err := s.Save(cols); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// Plant older backups so pruning has something to do regardless of clock resolution.
	bdir := filepath.Join(s.Dir, BackupsDirName)
	for _, stamp := range []string{"20200101-000000", "20200102-000000", "20200103-000000"} {
		if err := copyFile(s.Path, filepath.Join(bdir, SlotFileName+"."+stamp+".bak")); err != nil {
			t.Fatal(err)
		}
	}
	cols[0].Name = "Birds v2"
	if err := s.Save(cols); err != nil {
		t.Fatalf("second save: %v", err)
	}
	baks, err := s.Backups()
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(baks) != 2 {
		t.Fatalf("want 2 backups after pruning, got %d: %v", len(baks), baks)
	}

	// Corrupt the live file: Load starts fresh, LatestBackup still has the previous state.
	if err := os.WriteFile(s.Path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
	restored, from, err := s.LatestBackup()
	if err != nil {
		t.Fatalf("LatestBackup: %v", err)
	}
	if from == "" || len(restored) != 1 || restored[0].Name != "Birds" {
		t.Fatalf("unexpected backup %s: %#v", from, restored)
	}
}

func TestEmergencySnapshotIsRestorable(t *testing.T) {
	s, err := OpenSlot(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	path, err := s.EmergencySnapshot(sampleCollections())
	if err != nil {
		t.Fatalf("EmergencySnapshot: %v", err)
	}
	if _, err := os.Stat(s.Path); !os.IsNotExist(err) {
		t.Fatalf("slot document must not be written, stat err = %v", err)
	}
	cols, from, err := s.LatestBackup()
	if err != nil {
		t.Fatalf("LatestBackup: %v", err)
	}
	if from != path {
		t.Fatalf("restored from %s, want %s", from, path)
	}
	if diff := cmp.Diff(sampleCollections(), cols); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
