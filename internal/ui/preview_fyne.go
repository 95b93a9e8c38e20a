//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"datacards/internal/layout"
	"datacards/internal/render"
)

// previewDPI renders the preview at screen resolution.
const previewDPI = 96

// CardPreview shows a card rendered exactly as it is exported.
type CardPreview struct {
	widget.BaseWidget

	opt render.Options
	img image.Image
	msg string
}

func NewCardPreview(opt render.Options) *CardPreview {
	cw, ch := layout.A4Portrait.CellSize(layout.DefaultGrid)
	base := render.OptionsForCell(cw, ch, previewDPI)
	base.Resolver = opt.Resolver
	base.Fonts = opt.Fonts
	p := &CardPreview{opt: base, msg: "Select a card to edit"}
	p.ExtendBaseWidget(p)
	return p
}

// SetCard re-renders v; nil shows the placeholder.
func (p *CardPreview) SetCard(v *render.CardView) {
	if v == nil {
		p.img, p.msg = nil, "Select a card to edit"
		p.Refresh()
		return
	}
	img, err := render.Rasterize(*v, p.opt)
	if err != nil {
		p.img, p.msg = nil, "Preview unavailable: "+err.Error()
	} else {
		p.img, p.msg = img, ""
	}
	p.Refresh()
}

// PreferredSize is the card cell at screen resolution.
func (p *CardPreview) PreferredSize() fyne.Size {
	return fyne.NewSize(float32(p.opt.Width), float32(p.opt.Height))
}

func (p *CardPreview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 243, G: 244, B: 246, A: 255})
	pic := canvas.NewImageFromImage(nil)
	pic.FillMode = canvas.ImageFillContain
	text := canvas.NewText("", color.RGBA{R: 107, G: 114, B: 128, A: 255})
	text.Alignment = fyne.TextAlignCenter
	r := &cardPreviewRenderer{p: p, bg: bg, pic: pic, text: text}
	r.objects = []fyne.CanvasObject{bg, pic, text}
	r.Refresh()
	return r
}

type cardPreviewRenderer struct {
	p       *CardPreview
	bg      *canvas.Rectangle
	pic     *canvas.Image
	text    *canvas.Text
	objects []fyne.CanvasObject
}

func (r *cardPreviewRenderer) Destroy()                     {}
func (r *cardPreviewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *cardPreviewRenderer) MinSize() fyne.Size {
	s := r.p.PreferredSize()
	return fyne.NewSize(s.Width/2, s.Height/2)
}

func (r *cardPreviewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.pic.Resize(size)
	r.pic.Move(fyne.NewPos(0, 0))
	ts := r.text.MinSize()
	r.text.Resize(fyne.NewSize(size.Width, ts.Height))
	r.text.Move(fyne.NewPos(0, (size.Height-ts.Height)/2))
}

func (r *cardPreviewRenderer) Refresh() {
	r.pic.Image = r.p.img
	if r.p.img == nil {
		r.pic.Hide()
	} else {
		r.pic.Show()
	}
	r.text.Text = r.p.msg
	r.Layout(r.p.Size())
	canvas.Refresh(r.p)
}
