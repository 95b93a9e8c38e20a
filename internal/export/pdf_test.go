/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"datacards/internal/domain"
	"datacards/internal/storage"
)

func sampleCollection(n int) *domain.Collection {
	col := domain.NewCollection("Class 3B Survey")
	for i := 0; i < n; i++ {
		c := domain.NewCard()
		c.Question = "Question " + string(rune('A'+i))
		col.Cards = append(col.Cards, c)
	}
	return &col
}

func countPages(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	return bytes.Count(b, []byte("<</Type /Page\n"))
}

func TestExportCollectionPDF_Paginates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", PDFFileName("Class 3B Survey"))
	res, err := ExportCollectionPDF(context.Background(), sampleCollection(5), out, Options{DPI: 36})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 2 || res.Placed != 5 || len(res.Skipped) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if got := countPages(t, out); got != 2 {
		t.Fatalf("pdf has %d pages, want 2", got)
	}
	if filepath.Base(out) != "Class_3B_Survey_cards.pdf" {
		t.Fatalf("file name = %s", filepath.Base(out))
	}
}

func TestExportCollectionPDF_SkipsBrokenCard(t *testing.T) {
	col := sampleCollection(3)
	col.Cards[1].SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL("image/png", []byte("broken"))})
	out := filepath.Join(t.TempDir(), "x.pdf")
	res, err := ExportCollectionPDF(context.Background(), col, out, Options{DPI: 36})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Placed != 2 || len(res.Skipped) != 1 || res.Skipped[0] != col.Cards[1].ID {
		t.Fatalf("result = %+v", res)
	}
	if got := countPages(t, out); got != 1 {
		t.Fatalf("pages = %d", got)
	}
}

func TestExportCollectionPDF_NothingToExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.pdf")
	if _, err := ExportCollectionPDF(context.Background(), nil, out, Options{}); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("nil collection: %v", err)
	}
	if _, err := ExportCollectionPDF(context.Background(), sampleCollection(0), out, Options{}); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("empty collection: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no file expected, stat err = %v", err)
	}
}

func TestExportCollectionPDF_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExportCollectionPDF(context.Background(), sampleCollection(1), filepath.Join(blocker, "x.pdf"), Options{DPI: 36}); err == nil {
		t.Fatalf("expected write failure")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(dir, "cancelled.pdf")
	if _, err := ExportCollectionPDF(ctx, sampleCollection(2), out, Options{DPI: 36}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("stray files left: %v", entries)
	}
}

func TestExportCollectionPDF_UsesRasterCache(t *testing.T) {
	dir := t.TempDir()
	ix, err := storage.OpenIndex(dir)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer ix.Close()
	col := sampleCollection(2)
	opt := Options{DPI: 36, Cache: ix}
	if _, err := ExportCollectionPDF(context.Background(), col, filepath.Join(dir, "a.pdf"), opt); err != nil {
		t.Fatalf("export: %v", err)
	}
	total, err := ix.TotalRasterBytes(context.Background())
	if err != nil || total == 0 {
		t.Fatalf("raster cache empty: %d %v", total, err)
	}
	if _, err := ExportCollectionPDF(context.Background(), col, filepath.Join(dir, "b.pdf"), opt); err != nil {
		t.Fatalf("second export: %v", err)
	}
	again, _ := ix.TotalRasterBytes(context.Background())
	if again != total {
		t.Fatalf("unchanged cards should hit the cache: %d vs %d", again, total)
	}
}

func TestFileNames(t *testing.T) {
	cases := map[string]string{
		"Pets":            "Pets_cards.pdf",
		"  My   Class  ":  "My_Class_cards.pdf",
		"Year\t5/6 Survey": "Year_56_Survey_cards.pdf",
		"Line\none\r\ntwo": "Line_one_two_cards.pdf",
		"a\x01b":          "ab_cards.pdf",
		"":                FallbackPDFName,
		"   ":             FallbackPDFName,
	}
	for in, want := range cases {
		if got := PDFFileName(in); got != want {
			t.Errorf("PDFFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
