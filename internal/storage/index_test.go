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
	"os"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestOpenIndexAppliesMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	v, err := ix.SchemaVersion(ctx)
	if err != nil || v != 2 {
		t.Fatalf("SchemaVersion = %d, %v; want 2", v, err)
	}
	if !ix.healthy(ctx) {
		t.Fatalf("fresh index reported unhealthy")
	}
	_ = ix.Close()

	// Reopen: migrations report no change and must not fail.
	ix, err = OpenIndex(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = ix.Close()
}

func TestOpenOrRebuildIndexOnCorruption(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(IndexPath(dir), []byte("this is not a sqlite database at all, just junk bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ix, rebuilt, err := OpenOrRebuildIndex(ctx, dir)
	if err != nil {
		t.Fatalf("OpenOrRebuildIndex: %v", err)
	}
	defer ix.Close()
	if !rebuilt {
		t.Fatalf("expected a rebuild")
	}
	if !ix.healthy(ctx) {
		t.Fatalf("rebuilt index unhealthy")
	}

	ix2, rebuilt, err := OpenOrRebuildIndex(ctx, t.TempDir())
	if err != nil || rebuilt {
		t.Fatalf("healthy index should not rebuild: %v %v", rebuilt, err)
	}
	_ = ix2.Close()
}
