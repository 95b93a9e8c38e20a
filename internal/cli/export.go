/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"datacards/internal/export"
	"datacards/internal/telemetry"
)

type exportFlags struct {
	colRef   string
	columns  int
	rows     int
	dpi      float64
	outlines bool
	quiet    bool
}

func (f *exportFlags) options(a *app, cmd *cobra.Command) (export.Options, error) {
	ws, err := a.workspace()
	if err != nil {
		return export.Options{}, err
	}
	opt := ws.ExportOptions()
	if cmd.Flags().Changed("columns") {
		opt.Grid.Columns = f.columns
	}
	if cmd.Flags().Changed("rows") {
		opt.Grid.Rows = f.rows
	}
	if err := opt.Grid.Validate(); err != nil {
		return opt, usagef("%v", err)
	}
	if f.dpi > 0 {
		opt.DPI = f.dpi
	}
	opt.CellOutlines = f.outlines
	if !f.quiet {
		opt.Progress = func(done, total int) {
			fmt.Fprintf(a.errOut, "\rRendering card %d/%d", done, total)
			if done == total {
				fmt.Fprintln(a.errOut)
			}
		}
	}
	return opt, nil
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a collection to PDF, PNG or a print page",
		Long: `Export renders every card of a collection. Cards are laid out row by row on A4
pages, by default two columns and two rows per page. Cards that fail to render
are skipped and reported; the rest of the export continues.`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.colRef, "collection", "c", "", "collection to export (default: selected)")
	pf.IntVar(&f.columns, "columns", 0, "cards per row")
	pf.IntVar(&f.rows, "rows", 0, "rows per page")
	pf.Float64Var(&f.dpi, "dpi", 0, "raster resolution of each card")
	pf.BoolVar(&f.outlines, "outlines", false, "draw a hairline around every cell")
	pf.BoolVar(&f.quiet, "quiet", false, "do not print progress")

	var out string
	pdf := &cobra.Command{
		Use:   "pdf",
		Short: "Write the collection as a paged PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := f.options(a, cmd)
			if err != nil {
				return err
			}
			col, err := findCollection(a.ws.Store.State(), f.colRef)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = export.PDFFileName(col.Name)
			}
			res, err := export.ExportCollectionPDF(cmd.Context(), &col, path, opt)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventExportPDF, map[string]any{"pages": res.Pages, "cards": res.Placed})
			reportSkipped(a, res.Skipped)
			fmt.Fprintf(a.out, "%s %s (%d pages, %d cards)\n", okColor.Sprint("Wrote"), res.Path, res.Pages, res.Placed)
			return nil
		},
	}
	pdf.Flags().StringVarP(&out, "out", "o", "", "output file (default <name>_cards.pdf)")

	var outDir string
	png := &cobra.Command{
		Use:   "png",
		Short: "Write one PNG per card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := f.options(a, cmd)
			if err != nil {
				return err
			}
			col, err := findCollection(a.ws.Store.State(), f.colRef)
			if err != nil {
				return err
			}
			dir := outDir
			if dir == "" {
				dir = "."
			}
			paths, err := export.ExportCardPNGs(cmd.Context(), &col, dir, opt)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventExportPNG, map[string]any{"cards": len(paths)})
			if n := len(col.Cards) - len(paths); n > 0 {
				fmt.Fprintln(a.errOut, warnColor.Sprintf("warning: %d cards could not be rendered", n))
			}
			fmt.Fprintf(a.out, "%s %d PNG files to %s\n", okColor.Sprint("Wrote"), len(paths), dir)
			return nil
		},
	}
	png.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default current directory)")

	var (
		preset   string
		formats  []string
		batchDir string
	)
	batch := &cobra.Command{
		Use:   "batch",
		Short: "Export with a preset into <out>/<preset>/",
		Long: `Batch runs several exports at once. The web preset renders at 96 DPI and writes
PNGs plus an HTML print page; the print preset renders at 300 DPI and writes a PDF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := f.options(a, cmd)
			if err != nil {
				return err
			}
			col, err := findCollection(a.ws.Store.State(), f.colRef)
			if err != nil {
				return err
			}
			p := export.PresetName(strings.ToLower(preset))
			if p != export.PresetWeb && p != export.PresetPrint {
				return usagef("unknown preset %q (want web or print)", preset)
			}
			bo := export.BatchOptions{Preset: p, Formats: formats, OutDir: batchDir, Export: opt}
			if f.dpi > 0 {
				bo.DPIOverride = f.dpi
			} else {
				// let the preset pick its resolution
				bo.Export.DPI = 0
			}
			res, err := export.BatchExport(cmd.Context(), &col, bo)
			if err != nil {
				return err
			}
			if res.PDF != nil {
				telemetry.Event(telemetry.EventExportPDF, map[string]any{"pages": res.PDF.Pages, "preset": preset})
				reportSkipped(a, res.PDF.Skipped)
				fmt.Fprintf(a.out, "%s %s\n", okColor.Sprint("Wrote"), res.PDF.Path)
			}
			if len(res.PNGs) > 0 {
				telemetry.Event(telemetry.EventExportPNG, map[string]any{"cards": len(res.PNGs), "preset": preset})
				fmt.Fprintf(a.out, "%s %d PNG files\n", okColor.Sprint("Wrote"), len(res.PNGs))
			}
			if res.HTML != "" {
				fmt.Fprintf(a.out, "%s %s\n", okColor.Sprint("Wrote"), res.HTML)
			}
			return nil
		},
	}
	batch.Flags().StringVar(&preset, "preset", string(export.PresetPrint), "web or print")
	batch.Flags().StringSliceVar(&formats, "format", nil, "formats to write: pdf, png, html (default per preset)")
	batch.Flags().StringVarP(&batchDir, "out", "o", "exports", "output directory")

	cmd.AddCommand(pdf, png, batch)
	return cmd
}

func reportSkipped(a *app, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintln(a.errOut, warnColor.Sprintf("warning: %d cards could not be rendered and were left blank:", len(ids)))
	for _, id := range ids {
		fmt.Fprintf(a.errOut, "  %s\n", id)
	}
}
