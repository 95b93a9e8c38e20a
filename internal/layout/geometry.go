/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

// Rect is an axis-aligned box in page units (mm for PDF, px for rasters).
type Rect struct {
	X, Y, W, H float64
}

// Geometry describes a physical page and the gutter between cells.
type Geometry struct {
	PageW, PageH float64
	Margin       float64
	Gutter       float64
}

// A4Portrait is an A4 sheet in millimetres with a 10mm margin.
var A4Portrait = Geometry{PageW: 210, PageH: 297, Margin: 10, Gutter: 5}

// Cell returns the rectangle for a slot on g.
func (geo Geometry) Cell(g Grid, s Slot) Rect {
	cw, ch := geo.CellSize(g)
	return Rect{
		X: geo.Margin + float64(s.Col)*(cw+geo.Gutter),
		Y: geo.Margin + float64(s.Row)*(ch+geo.Gutter),
		W: cw,
		H: ch,
	}
}

// CellSize returns the width and height of one cell.
func (geo Geometry) CellSize(g Grid) (w, h float64) {
	usableW := geo.PageW - 2*geo.Margin - float64(g.Columns-1)*geo.Gutter
	usableH := geo.PageH - 2*geo.Margin - float64(g.Rows-1)*geo.Gutter
	return usableW / float64(g.Columns), usableH / float64(g.Rows)
}

// Fit scales a w x h box to fit inside r keeping its aspect ratio, centred.
func (r Rect) Fit(w, h float64) Rect {
	if w <= 0 || h <= 0 {
		return r
	}
	scale := r.W / w
	if s := r.H / h; s < scale {
		scale = s
	}
	fw, fh := w*scale, h*scale
	return Rect{X: r.X + (r.W-fw)/2, Y: r.Y + (r.H-fh)/2, W: fw, H: fh}
}
