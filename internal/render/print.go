/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"html/template"
	"io"
	"strings"
	"time"

	"datacards/internal/domain"
	"datacards/internal/icons"
)

// PrintOptions configures the HTML print page.
type PrintOptions struct {
	Resolver icons.Resolver
	// Date printed in the footer; zero means now.
	Date    time.Time
	Columns int
	// ImageURL, when set, replaces each card's body with a link to its raster
	// (used by the print server to reuse the PNG endpoint).
	ImageURL func(cardID string) string
}

// PrintDateLayout formats the "Printed on" footer date.
const PrintDateLayout = "2006-01-02"

type printCard struct {
	ID       string
	Header   string
	Kind     string // text, svg, star, image, empty
	Glyph    string
	SVG      template.HTML
	Image    template.URL
	Question string
	Options  []domain.Option
	Raster   string
}

type printPage struct {
	Title   string
	Columns int
	Cards   []printCard
	Footer  string
}

var printTmpl = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f3f4f6; color: #111827; }
.tip { background: #fef9c3; border: 1px solid #fde047; color: #854d0e; padding: 0.75rem 1rem; margin: 1rem; border-radius: 0.5rem; }
.grid { display: grid; grid-template-columns: repeat({{.Columns}}, minmax(0, 1fr)); gap: 1rem; padding: 0 1rem; }
.card { background: white; border: 2px solid #d1d5db; border-radius: 0.5rem; padding: 1rem; page-break-inside: avoid; break-inside: avoid; max-height: 400px; display: flex; flex-direction: column; }
.header { text-align: center; font-size: 14px; color: #6b7280; margin-bottom: 0.5rem; }
.icon { display: flex; justify-content: center; align-items: center; margin-bottom: 1rem; min-height: 96px; }
.circle { width: 64px; height: 64px; border-radius: 9999px; background: #e5e7eb; border: 2px solid #9ca3af; display: flex; align-items: center; justify-content: center; font-size: 24px; font-weight: bold; }
.picture { width: 96px; height: 96px; border: 1px solid #e5e7eb; border-radius: 0.5rem; display: flex; align-items: center; justify-content: center; }
.picture img { max-width: 100%; max-height: 100%; object-fit: contain; }
.question { text-align: center; font-size: 18px; font-weight: 600; margin-bottom: 1rem; }
.option { display: flex; align-items: center; gap: 12px; margin-bottom: 12px; }
.dot { width: 24px; height: 24px; border-radius: 9999px; flex-shrink: 0; box-shadow: 0 0 0 1px rgba(0,0,0,0.1); }
.label { flex-grow: 1; }
.tally { width: 80px; height: 24px; border: 1px solid #9ca3af; border-radius: 0.25rem; }
.raster { width: 100%; }
.footer { display: none; text-align: center; font-size: 12px; color: #6b7280; margin-top: 1rem; }
.empty { text-align: center; padding: 2rem; }
@media print {
  @page { size: A4; margin: 10mm; }
  * { -webkit-print-color-adjust: exact !important; print-color-adjust: exact !important; color-adjust: exact !important; }
  body { background: white !important; }
  .tip { display: none; }
  .grid { grid-template-columns: repeat(2, minmax(0, 1fr)); gap: 0.25rem; padding: 0; }
  .card { border-radius: 0.375rem; }
  .footer { display: block; }
}
</style>
</head>
<body>
<div class="tip"><strong>Print tip:</strong> For best results, enable "Background Colors and Images" in your browser's print dialog. This ensures all colors and design elements print correctly.</div>
{{if .Cards}}<div class="grid">
{{range .Cards}}<div class="card" id="card-{{.ID}}">
{{if .Raster}}<img class="raster" src="{{.Raster}}" alt="{{.Question}}">{{else}}<div class="header">{{.Header}}</div>
<div class="icon">{{if eq .Kind "text"}}<div class="circle">{{.Glyph}}</div>{{else if eq .Kind "svg"}}<div class="circle">{{.SVG}}</div>{{else if eq .Kind "star"}}<div class="circle">★</div>{{else if eq .Kind "image"}}<div class="picture"><img src="{{.Image}}" alt="Card icon"></div>{{else}}<div class="circle"></div>{{end}}</div>
<div class="question">{{.Question}}</div>
{{range .Options}}<div class="option"><div class="dot" style="background-color: {{.Color}}"></div><div class="label">{{.Text}}</div><div class="tally"></div></div>
{{end}}{{end}}</div>
{{end}}</div>
{{else}}<div class="empty"><h2>No cards to display</h2><p>Please select a collection with cards to export.</p></div>
{{end}}<div class="footer">{{.Footer}}</div>
</body>
</html>
`))

// PrintHTML writes the print page for col. An empty collection produces the
// "No cards to display" page.
func PrintHTML(w io.Writer, col domain.Collection, opt PrintOptions) error {
	date := opt.Date
	if date.IsZero() {
		date = time.Now()
	}
	cols := opt.Columns
	if cols <= 0 {
		cols = 2
	}
	page := printPage{
		Title:   col.Name + " - Data Collection Cards",
		Columns: cols,
		Footer:  col.Name + " - Printed on " + date.Format(PrintDateLayout),
	}
	for _, v := range Views(col) {
		page.Cards = append(page.Cards, printCardFor(v, opt))
	}
	return printTmpl.Execute(w, page)
}

func printCardFor(v CardView, opt PrintOptions) printCard {
	pc := printCard{ID: v.Card.ID, Header: v.CollectionName, Question: v.Question()}
	for _, o := range v.Card.Options {
		if n, err := domain.NormalizeColor(o.Color); err == nil {
			o.Color = n
		} else {
			o.Color = "#E5E7EB"
		}
		pc.Options = append(pc.Options, o)
	}
	if opt.ImageURL != nil {
		pc.Raster = opt.ImageURL(v.Card.ID)
	}
	switch ic := v.Card.Glyph().(type) {
	case domain.TextIcon:
		pc.Kind, pc.Glyph = "text", v.TextGlyph()
	case domain.CatalogIcon:
		pc.Kind = "empty"
		if ic.ID == "" {
			break
		}
		pc.Kind = "star"
		if opt.Resolver != nil {
			if g, err := opt.Resolver.Resolve(ic.ID); err == nil {
				// glyph bodies come from installed icon sets
				pc.Kind, pc.SVG = "svg", template.HTML(g.SVG("currentColor", 32))
			}
		}
	case domain.ImageIcon:
		pc.Kind = "empty"
		if strings.HasPrefix(ic.DataURL, "data:image/") {
			pc.Kind, pc.Image = "image", template.URL(ic.DataURL)
		}
	}
	return pc
}
