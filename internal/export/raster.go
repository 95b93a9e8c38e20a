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
	"fmt"

	"datacards/internal/render"
	"datacards/internal/storage"
)

// cardRaster renders v and encodes it. When ix is set the encoded bytes are
// served from and stored in the raster cache, keyed by content fingerprint.
func cardRaster(ctx context.Context, ix *storage.Index, v render.CardView, ro render.Options, format string, quality int) ([]byte, error) {
	gen := func(context.Context) ([]byte, error) {
		img, err := render.Rasterize(v, ro)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := render.Encode(&buf, img, format, quality); err != nil {
			return nil, fmt.Errorf("encode %s: %w", format, err)
		}
		return buf.Bytes(), nil
	}
	if ix == nil {
		return gen(ctx)
	}
	key := storage.RasterKey{
		CardID:      v.Card.ID,
		Fingerprint: fmt.Sprintf("%s-%g-q%d", v.Fingerprint(), ro.DPI, quality),
		Format:      format,
		W:           ro.Width,
		H:           ro.Height,
	}
	return ix.GetOrCreateRaster(ctx, key, gen)
}

// CardPNG renders one card as PNG bytes at the given DPI. It backs the print
// server's per-card image endpoint.
func CardPNG(ctx context.Context, v render.CardView, opt Options) ([]byte, error) {
	opt = opt.normalized()
	ro := opt.rasterOptions()
	return cardRaster(ctx, opt.Cache, v, ro, render.FormatPNG, 0)
}
