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
	"errors"
	"testing"
	"time"
)

func TestRasterPutGetAndEvict(t *testing.T) {
	ix := openTestIndex(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Set a tiny cap to force eviction quickly
	t.Setenv(EnvRasterCacheMaxBytes, "64")

	for i, card := range []string{"a", "b", "c"} {
		key := RasterKey{CardID: card, Fingerprint: "f", Format: RasterPNG, W: 10 * (i + 1), H: 10}
		if err := ix.PutRaster(ctx, key, make([]byte, 40)); err != nil {
			t.Fatalf("put %s: %v", card, err)
		}
		time.Sleep(5 * time.Millisecond) // distinct access times
	}
	total, err := ix.TotalRasterBytes(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total > 64 {
		t.Fatalf("expected eviction to <=64 bytes, got %d", total)
	}
	got, err := ix.GetRaster(ctx, RasterKey{CardID: "c", Fingerprint: "f", Format: RasterPNG, W: 30, H: 10})
	if err != nil || len(got) != 40 {
		t.Fatalf("newest raster should survive: %d bytes, %v", len(got), err)
	}
	old, err := ix.GetRaster(ctx, RasterKey{CardID: "a", Fingerprint: "f", Format: RasterPNG, W: 10, H: 10})
	if err != nil || old != nil {
		t.Fatalf("oldest raster should be evicted: %v %v", old, err)
	}
}

func TestRasterNewFingerprintReplacesOld(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	k1 := RasterKey{CardID: "card", Fingerprint: "v1", Format: RasterJPEG, W: 5, H: 5}
	k2 := k1
	k2.Fingerprint = "v2"
	if err := ix.PutRaster(ctx, k1, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := ix.PutRaster(ctx, k2, []byte("two")); err != nil {
		t.Fatal(err)
	}
	if b, _ := ix.GetRaster(ctx, k1); b != nil {
		t.Fatalf("stale fingerprint kept")
	}
	if err := ix.PutRaster(ctx, RasterKey{CardID: "x", Format: "gif"}, nil); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestGetOrCreateRaster(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	key := RasterKey{CardID: "k", Fingerprint: "f", Format: RasterPNG, W: 1, H: 1}
	calls := 0
	gen := func(context.Context) ([]byte, error) { calls++; return []byte("png"), nil }
	for i := 0; i < 2; i++ {
		b, err := ix.GetOrCreateRaster(ctx, key, gen)
		if err != nil || string(b) != "png" {
			t.Fatalf("GetOrCreateRaster: %q %v", b, err)
		}
	}
	if calls != 1 {
		t.Fatalf("generator called %d times, want 1", calls)
	}
	boom := errors.New("boom")
	other := key
	other.CardID = "other"
	if _, err := ix.GetOrCreateRaster(ctx, other, func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("generator error not returned: %v", err)
	}
	if err := ix.PurgeRasters(ctx, []string{"none"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := ix.TotalRasterBytes(ctx); n != 0 {
		t.Fatalf("purge left %d bytes", n)
	}
}
