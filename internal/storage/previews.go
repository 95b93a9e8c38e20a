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
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Raster formats kept in the cache.
const (
	RasterPNG  = "png"
	RasterJPEG = "jpeg"
)

// accessLayout sorts lexicographically in time order.
const accessLayout = "2006-01-02T15:04:05.000000000Z"

// EnvRasterCacheMaxBytes caps the raster cache size.
const EnvRasterCacheMaxBytes = "DC_RASTER_CACHE_MAX_BYTES"

// RasterKey identifies one cached card bitmap. Fingerprint changes whenever the card
// content (or the collection name printed on it) changes.
type RasterKey struct {
	CardID      string
	Fingerprint string
	Format      string
	W, H        int
}

// GetRaster returns the cached blob for key, or nil when absent, and bumps its access time.
func (ix *Index) GetRaster(ctx context.Context, key RasterKey) ([]byte, error) {
	var blob []byte
	err := ix.db.QueryRowContext(ctx, `SELECT blob FROM rasters WHERE card_id=? AND fingerprint=? AND format=? AND w=? AND h=?`,
		key.CardID, key.Fingerprint, key.Format, key.W, key.H).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query raster: %w", err)
	}
	now := time.Now().UTC().Format(accessLayout)
	_, _ = ix.db.ExecContext(ctx, `UPDATE rasters SET last_access=? WHERE card_id=? AND fingerprint=? AND format=? AND w=? AND h=?`,
		now, key.CardID, key.Fingerprint, key.Format, key.W, key.H)
	return blob, nil
}

// PutRaster upserts a blob, drops stale fingerprints of the same card and enforces the
// cache size cap via LRU eviction.
func (ix *Index) PutRaster(ctx context.Context, key RasterKey, blob []byte) error {
	if key.Format != RasterPNG && key.Format != RasterJPEG {
		return fmt.Errorf("invalid raster format: %s", key.Format)
	}
	now := time.Now().UTC().Format(accessLayout)
	_, err := ix.db.ExecContext(ctx, `INSERT INTO rasters(card_id,fingerprint,format,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(card_id,fingerprint,format,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		key.CardID, key.Fingerprint, key.Format, key.W, key.H, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert raster: %w", err)
	}
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM rasters WHERE card_id=? AND fingerprint<>?`, key.CardID, key.Fingerprint); err != nil {
		return fmt.Errorf("drop stale rasters: %w", err)
	}
	if capBytes := MaxRasterBytesFromEnv(); capBytes > 0 {
		return ix.EvictRastersToFit(ctx, capBytes)
	}
	return nil
}

// GetOrCreateRaster fetches a raster or generates and stores it using gen.
// Cache failures are not fatal: the generated blob is still returned.
func (ix *Index) GetOrCreateRaster(ctx context.Context, key RasterKey, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := ix.GetRaster(ctx, key); err == nil && b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	_ = ix.PutRaster(ctx, key, data)
	return data, nil
}

// EvictRastersToFit deletes least-recently-used rows until total size <= capBytes.
func (ix *Index) EvictRastersToFit(ctx context.Context, capBytes int64) error {
	total, err := ix.TotalRasterBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := ix.db.QueryContext(ctx, `SELECT id, size FROM rasters ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]any, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// close the cursor before writing; the pool has a single connection
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM rasters WHERE id IN (`+placeholders(len(toDelete))+`)`, toDelete...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// PurgeRasters drops cached bitmaps of cards no longer in keep.
func (ix *Index) PurgeRasters(ctx context.Context, keep []string) error {
	if len(keep) == 0 {
		_, err := ix.db.ExecContext(ctx, `DELETE FROM rasters`)
		return err
	}
	args := make([]any, len(keep))
	for i, id := range keep {
		args[i] = id
	}
	_, err := ix.db.ExecContext(ctx, `DELETE FROM rasters WHERE card_id NOT IN (`+placeholders(len(keep))+`)`, args...)
	return err
}

// TotalRasterBytes returns total bytes tracked by rasters.size.
func (ix *Index) TotalRasterBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := ix.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM rasters`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum raster size: %w", err)
	}
	return total, nil
}

// MaxRasterBytesFromEnv reads DC_RASTER_CACHE_MAX_BYTES, defaulting to 64MB if unset.
func MaxRasterBytesFromEnv() int64 {
	const def = 64 * 1024 * 1024
	v := os.Getenv(EnvRasterCacheMaxBytes)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
