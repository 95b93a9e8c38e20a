/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportCardPNGs(t *testing.T) {
	dir := t.TempDir()
	done := 0
	paths, err := ExportCardPNGs(context.Background(), sampleCollection(3), dir, Options{DPI: 36, Progress: func(d, total int) { done = d }})
	if err != nil {
		t.Fatalf("png export: %v", err)
	}
	want := []string{
		filepath.Join(dir, "Class_3B_Survey_card_1.png"),
		filepath.Join(dir, "Class_3B_Survey_card_2.png"),
		filepath.Join(dir, "Class_3B_Survey_card_3.png"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if done != 3 {
		t.Fatalf("progress = %d", done)
	}
}

func TestBatchExport_WebPreset(t *testing.T) {
	root := t.TempDir()
	res, err := BatchExport(context.Background(), sampleCollection(2), BatchOptions{Preset: PresetWeb, OutDir: root, DPIOverride: 36})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	if res.PDF != nil || len(res.PNGs) != 2 {
		t.Fatalf("result = %+v", res)
	}
	checks := append([]string{filepath.Join(root, "web", "index.html")}, res.PNGs...)
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExport_PrintPreset(t *testing.T) {
	root := t.TempDir()
	res, err := BatchExport(context.Background(), sampleCollection(1), BatchOptions{Preset: PresetPrint, OutDir: root, DPIOverride: 36})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	want := filepath.Join(root, "print", "Class_3B_Survey_cards.pdf")
	if res.PDF == nil || res.PDF.Path != want {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("missing pdf: %v", err)
	}
}

func TestBatchExport_UnknownFormat(t *testing.T) {
	if _, err := BatchExport(context.Background(), sampleCollection(1), BatchOptions{Formats: []string{"cbz"}, OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestPresetDPI(t *testing.T) {
	if presetDPI(PresetWeb, 0) != 96 || presetDPI(PresetPrint, 0) != 300 || presetDPI(PresetWeb, 150) != 150 {
		t.Fatalf("preset dpi defaults wrong")
	}
}
