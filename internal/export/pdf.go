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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"datacards/internal/domain"
	"datacards/internal/icons"
	"datacards/internal/layout"
	applog "datacards/internal/log"
	"datacards/internal/render"
	"datacards/internal/storage"
	"datacards/internal/textlayout"
	"datacards/internal/version"
)

// ErrNothingToExport is returned before any work when there is no collection
// or it holds no cards.
var ErrNothingToExport = errors.New("nothing to export: select a collection with cards")

// Options controls card export. Zero values pick A4 portrait, 2x2,
// 150 DPI and JPEG quality 95.
type Options struct {
	Grid        layout.Grid
	Geometry    layout.Geometry
	DPI         float64
	JPEGQuality int
	// CellOutlines draws a hairline around every cell.
	CellOutlines bool
	Resolver     icons.Resolver
	Fonts        textlayout.Provider
	// Cache, when set, reuses encoded card rasters across exports.
	Cache    *storage.Index
	Progress func(done, total int)
}

func (o Options) normalized() Options {
	if o.Grid.Validate() != nil {
		o.Grid = layout.DefaultGrid
	}
	if o.Geometry.PageW <= 0 || o.Geometry.PageH <= 0 {
		o.Geometry = layout.A4Portrait
	}
	if o.DPI <= 0 {
		o.DPI = render.DefaultDPI
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 95
	}
	return o
}

func (o Options) rasterOptions() render.Options {
	cw, ch := o.Geometry.CellSize(o.Grid)
	ro := render.OptionsForCell(cw, ch, o.DPI)
	ro.Resolver = o.Resolver
	ro.Fonts = o.Fonts
	return ro
}

// Result summarizes an export.
type Result struct {
	Path    string
	Pages   int
	Placed  int
	Skipped []string // ids of cards that failed to render
}

// ExportCollectionPDF writes every card of col to a PDF at outPath, placing
// card i where the paginator puts it. Cards that fail to rasterize leave their
// slot blank. The file appears at outPath only when the whole document was
// written; on failure no partial file is left behind.
func ExportCollectionPDF(ctx context.Context, col *domain.Collection, outPath string, opt Options) (Result, error) {
	if col == nil || len(col.Cards) == 0 {
		return Result{}, ErrNothingToExport
	}
	opt = opt.normalized()
	l := applog.WithOperation(applog.WithComponent("export"), "pdf")
	ctx = applog.ContextWithCollection(ctx, col.ID)

	geo, grid := opt.Geometry, opt.Grid
	ro := opt.rasterOptions()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: geo.PageW, Ht: geo.PageH},
	})
	pdf.SetTitle(col.Name+" - Data Collection Cards", true)
	pdf.SetCreator("datacards "+version.String(), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	res := Result{Path: outPath}
	imgOpts := gofpdf.ImageOptions{ImageType: "JPG"}
	for i, card := range col.Cards {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		slot := grid.Place(i)
		if i == 0 || grid.StartsPage(i) {
			pdf.AddPage()
			res.Pages++
		}
		cell := geo.Cell(grid, slot)
		if opt.CellOutlines {
			pdf.SetDrawColor(209, 213, 219)
			pdf.SetLineWidth(0.2)
			pdf.Rect(cell.X, cell.Y, cell.W, cell.H, "D")
		}

		v := render.View(*col, card)
		data, err := cardRaster(ctx, opt.Cache, v, ro, render.FormatJPEG, opt.JPEGQuality)
		if err != nil {
			l.WarnContext(ctx, "card skipped", slog.String("card", card.ID), slog.Int("index", i), slog.Any("err", err))
			res.Skipped = append(res.Skipped, card.ID)
			if opt.Progress != nil {
				opt.Progress(i+1, len(col.Cards))
			}
			continue
		}
		name := fmt.Sprintf("card-%d", i)
		pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(data))
		r := cell.Fit(float64(ro.Width), float64(ro.Height))
		pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, imgOpts, 0, "")
		if pdf.Err() {
			return Result{}, fmt.Errorf("place card %d: %w", i+1, pdf.Error())
		}
		res.Placed++
		if opt.Progress != nil {
			opt.Progress(i+1, len(col.Cards))
		}
	}

	if err := writeAtomically(outPath, func(f *os.File) error { return pdf.Output(f) }); err != nil {
		l.ErrorContext(ctx, "pdf write failed", slog.String("path", outPath), slog.Any("err", err))
		return Result{}, fmt.Errorf("write pdf: %w", err)
	}
	l.InfoContext(ctx, "pdf exported", slog.String("path", outPath), slog.Int("pages", res.Pages),
		slog.Int("placed", res.Placed), slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

// writeAtomically writes through a temp file in the target directory and
// renames it over path on success.
func writeAtomically(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := storage.ReplaceFile(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
