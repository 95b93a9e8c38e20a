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
	"os"
	"path/filepath"
	"strings"

	"datacards/internal/domain"
	"datacards/internal/render"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Formats understood by BatchExport.
const (
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatHTML = "html"
)

// BatchOptions controls batch export across formats.
//
// Path semantics: outputs go to OutDir/<preset>/ (OutDir defaults to the
// current directory). PDF is a single file, PNG goes to a png/ subfolder and
// HTML is the print page as index.html.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // pdf, png, html; empty means preset defaults
	DPIOverride float64
	OutDir      string
	Export      Options
}

// BatchResult lists what BatchExport wrote.
type BatchResult struct {
	PDF  *Result
	PNGs []string
	HTML string
}

// BatchExport runs exports according to the given preset.
func BatchExport(ctx context.Context, col *domain.Collection, opt BatchOptions) (BatchResult, error) {
	var res BatchResult
	if col == nil || len(col.Cards) == 0 {
		return res, ErrNothingToExport
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	eo := opt.Export
	eo.DPI = presetDPI(opt.Preset, eo.DPI)
	if opt.DPIOverride > 0 {
		eo.DPI = opt.DPIOverride
	}
	preset := string(opt.Preset)
	if preset == "" {
		preset = string(PresetPrint)
	}
	base := filepath.Join(opt.OutDir, preset)

	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatPDF:
			r, err := ExportCollectionPDF(ctx, col, filepath.Join(base, PDFFileName(col.Name)), eo)
			if err != nil {
				return res, fmt.Errorf("pdf: %w", err)
			}
			res.PDF = &r
		case FormatPNG:
			paths, err := ExportCardPNGs(ctx, col, filepath.Join(base, "png"), eo)
			if err != nil {
				return res, fmt.Errorf("png: %w", err)
			}
			res.PNGs = paths
		case FormatHTML:
			out := filepath.Join(base, "index.html")
			err := writeAtomically(out, func(f *os.File) error {
				return render.PrintHTML(f, *col, render.PrintOptions{Resolver: eo.Resolver, Columns: eo.normalized().Grid.Columns})
			})
			if err != nil {
				return res, fmt.Errorf("html: %w", err)
			}
			res.HTML = out
		default:
			return res, fmt.Errorf("unknown format: %s", f)
		}
	}
	return res, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatPNG, FormatHTML}
	default:
		return []string{FormatPDF}
	}
}

// presetDPI keeps an explicit DPI and otherwise picks 96 for web, 300 for print.
func presetDPI(p PresetName, dpi float64) float64 {
	if dpi > 0 {
		return dpi
	}
	if p == PresetWeb {
		return 96
	}
	return 300
}
