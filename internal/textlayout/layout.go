/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Package textlayout wraps and measures the text printed on a card (collection
// header, question, option labels) and draws it onto raster images.

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec selects a face.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics are line metrics in pixels.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is ascent + descent + gap.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

type Span struct {
	Text string
	Font FontSpec
}

type Line struct {
	Spans   []Span
	Width   float32
	Ascent  float32
	Descent float32
}

// Text joins the span texts of the line.
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps a FontSpec to a face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// Layouter breaks spans into lines no wider than maxWidth.
type Layouter interface {
	Layout(spans []Span, maxWidth float32) (TextBox, error)
}

// BasicProvider always returns the 7x13 bitmap face. Useful in tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter wraps at spaces and hard newlines. Words wider than the
// line are broken between runes.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

// Layout implements Layouter. Line metrics come from the first span's font.
func (l *WordWrapLayouter) Layout(spans []Span, maxWidth float32) (TextBox, error) {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	var first FontSpec
	if len(spans) > 0 {
		first = spans[0].Font
	}
	_, met := l.Provider.Resolve(first)
	return l.layout(spans, maxWidth, met)
}

type measuredSpan struct {
	Span
	width float32
}

func (l *WordWrapLayouter) layout(spans []Span, maxWidth float32, met Metrics) (TextBox, error) {
	box := TextBox{Metrics: met}
	var cur []measuredSpan
	var curW float32
	flush := func() {
		for len(cur) > 0 && cur[len(cur)-1].Text == " " {
			curW -= cur[len(cur)-1].width
			cur = cur[:len(cur)-1]
		}
		line := Line{Width: curW, Ascent: met.Ascent, Descent: met.Descent}
		for _, s := range cur {
			line.Spans = append(line.Spans, s.Span)
		}
		box.Lines = append(box.Lines, line)
		if curW > box.Width {
			box.Width = curW
		}
		box.Height += met.LineHeight()
		cur, curW = nil, 0
	}
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		face, _ := l.Provider.Resolve(sp.Font)
		d := &font.Drawer{Face: face}
		start := 0
		for i := 0; i <= len(sp.Text); i++ {
			if i < len(sp.Text) && sp.Text[i] != ' ' && sp.Text[i] != '\n' {
				continue
			}
			word := sp.Text[start:i]
			for word != "" {
				w := advance(d, word)
				if curW > 0 && maxWidth > 0 && curW+w > maxWidth {
					flush()
				}
				if maxWidth > 0 && w > maxWidth && curW == 0 {
					head := fitPrefix(d, word, maxWidth)
					cur = append(cur, measuredSpan{Span{Text: head, Font: sp.Font}, advance(d, head)})
					curW += advance(d, head)
					word = word[len(head):]
					flush()
					continue
				}
				cur = append(cur, measuredSpan{Span{Text: word, Font: sp.Font}, w})
				curW += w
				word = ""
			}
			if i < len(sp.Text) {
				if sp.Text[i] == ' ' {
					ws := advance(d, " ")
					cur = append(cur, measuredSpan{Span{Text: " ", Font: sp.Font}, ws})
					curW += ws
				} else {
					flush()
				}
			}
			start = i + 1
		}
	}
	if len(cur) > 0 || len(box.Lines) == 0 {
		flush()
	}
	return box, nil
}

// fitPrefix returns the longest rune prefix of s that fits in maxWidth (at least one rune).
func fitPrefix(d *font.Drawer, s string, maxWidth float32) string {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if end > 0 && advance(d, s[:next]) > maxWidth {
			break
		}
		end = next
	}
	return s[:end]
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Measure returns the single-line width of spans and the line height.
func Measure(provider Provider, spans []Span) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	var first FontSpec
	if len(spans) > 0 {
		first = spans[0].Font
	}
	_, met := provider.Resolve(first)
	var width float32
	for _, sp := range spans {
		face, _ := provider.Resolve(sp.Font)
		d := &font.Drawer{Face: face}
		width += advance(d, sp.Text)
	}
	return width, met.Ascent + met.Descent
}

// Clamp keeps at most maxLines lines, ending the last kept line with an ellipsis
// when lines were dropped.
func Clamp(box TextBox, maxLines int) TextBox {
	if maxLines <= 0 || len(box.Lines) <= maxLines {
		return box
	}
	box.Lines = append([]Line(nil), box.Lines[:maxLines]...)
	last := &box.Lines[maxLines-1]
	if n := len(last.Spans); n > 0 {
		spans := append([]Span(nil), last.Spans...)
		spans[n-1].Text = strings.TrimRight(spans[n-1].Text, " ") + "…"
		last.Spans = spans
	}
	box.Height = float32(maxLines) * box.Metrics.LineHeight()
	return box
}

// Align positions a line horizontally inside a box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Draw paints box onto dst with its top-left corner at (x, y).
// With AlignCenter each line is centred within the width w starting at x.
func Draw(dst draw.Image, p Provider, box TextBox, x, y, w float32, align Align, c color.Color) {
	if p == nil {
		p = BasicProvider{}
	}
	src := image.NewUniform(c)
	lineY := y
	for _, ln := range box.Lines {
		lx := x
		if align == AlignCenter {
			lx = x + (w-ln.Width)/2
		}
		base := lineY + box.Metrics.Ascent
		dot := fixed.Point26_6{X: fixed.Int26_6(lx * 64), Y: fixed.Int26_6(base * 64)}
		for _, sp := range ln.Spans {
			face, _ := p.Resolve(sp.Font)
			d := &font.Drawer{Dst: dst, Src: src, Face: face, Dot: dot}
			d.DrawString(sp.Text)
			dot = d.Dot
		}
		lineY += box.Metrics.LineHeight()
	}
}
