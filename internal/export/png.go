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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"datacards/internal/domain"
	applog "datacards/internal/log"
	"datacards/internal/render"
)

// ExportCardPNGs writes one PNG per card into outDir, named
// <collection>_card_<n>.png, and returns the written paths in card order.
// Cards that fail to render are skipped and logged.
func ExportCardPNGs(ctx context.Context, col *domain.Collection, outDir string, opt Options) ([]string, error) {
	if col == nil || len(col.Cards) == 0 {
		return nil, ErrNothingToExport
	}
	opt = opt.normalized()
	l := applog.WithOperation(applog.WithComponent("export"), "png")
	ctx = applog.ContextWithCollection(ctx, col.ID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	stem := BaseName(col.Name)
	if stem == "" {
		stem = "data_collection"
	}
	ro := opt.rasterOptions()
	var paths []string
	for i, card := range col.Cards {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		data, err := cardRaster(ctx, opt.Cache, render.View(*col, card), ro, render.FormatPNG, 0)
		if err != nil {
			l.WarnContext(ctx, "card skipped", slog.String("card", card.ID), slog.Any("err", err))
			if opt.Progress != nil {
				opt.Progress(i+1, len(col.Cards))
			}
			continue
		}
		name := filepath.Join(outDir, fmt.Sprintf("%s_card_%d.png", stem, i+1))
		if err := writeAtomically(name, func(f *os.File) error {
			_, err := f.Write(data)
			return err
		}); err != nil {
			return paths, fmt.Errorf("write png: %w", err)
		}
		paths = append(paths, name)
		if opt.Progress != nil {
			opt.Progress(i+1, len(col.Cards))
		}
	}
	l.InfoContext(ctx, "png exported", slog.String("dir", outDir), slog.Int("files", len(paths)))
	return paths, nil
}
