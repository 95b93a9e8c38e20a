/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"datacards/internal/domain"
	"datacards/internal/icons"
)

func sampleView() CardView {
	col := domain.NewCollection("Pets")
	card := domain.NewCard()
	card.Question = "Which pet do you have?"
	col.Cards = append(col.Cards, card)
	return View(col, card)
}

func countPixels(img *image.RGBA, match func(color.RGBA) bool) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if match(img.RGBAAt(x, y)) {
				n++
			}
		}
	}
	return n
}

func TestOptionsForCell(t *testing.T) {
	o := OptionsForCell(25.4, 50.8, 100)
	if o.Width != 100 || o.Height != 200 || o.DPI != 100 {
		t.Fatalf("options = %+v", o)
	}
	if d := OptionsForCell(25.4, 25.4, 0); d.DPI != DefaultDPI {
		t.Fatalf("default dpi not applied: %+v", d)
	}
}

func TestRasterizeDrawsOptionDots(t *testing.T) {
	v := sampleView()
	img, err := Rasterize(v, Options{DPI: 96})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	want := OptionsForCell(92.5, 133.5, 96)
	if img.Bounds().Dx() != want.Width || img.Bounds().Dy() != want.Height {
		t.Fatalf("size = %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != colCardEdge {
		t.Fatalf("card edge = %v", got)
	}
	for _, o := range v.Card.Options {
		c, _ := domain.ParseColor(o.Color)
		if countPixels(img, func(p color.RGBA) bool { return p == c }) == 0 {
			t.Fatalf("no pixels for option color %s", o.Color)
		}
	}
}

func TestRasterizeImageIcon(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	v := sampleView()
	v.Card.SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL("image/png", buf.Bytes())})
	img, err := Rasterize(v, Options{DPI: 96})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	blue := countPixels(img, func(p color.RGBA) bool { return p.B > 200 && p.R < 50 && p.G < 50 })
	if blue < 80*80 {
		t.Fatalf("image icon not scaled into its box, %d blue pixels", blue)
	}
}

func TestRasterizeBadImageFails(t *testing.T) {
	v := sampleView()
	v.Card.SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL("image/png", []byte("nope"))})
	if _, err := Rasterize(v, Options{DPI: 72}); !errors.Is(err, ErrBadImage) {
		t.Fatalf("want ErrBadImage, got %v", err)
	}
}

func TestRasterizeCatalogIconFallsBackToStar(t *testing.T) {
	v := sampleView()
	v.Card.SetGlyph(domain.CatalogIcon{ID: "dc:dog"})
	cat := icons.NewCatalog(nil)
	withIcon, err := Rasterize(v, Options{DPI: 96, Resolver: cat})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	v.Card.Icon = "dc:no-such-icon"
	withStar, err := Rasterize(v, Options{DPI: 96, Resolver: cat})
	if err != nil {
		t.Fatalf("rasterize missing icon: %v", err)
	}
	if bytes.Equal(withIcon.Pix, withStar.Pix) {
		t.Fatalf("expected the fallback star to differ from the resolved icon")
	}
}

func TestFillStar(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	fillStar(img, 20, 20, 18, colText)
	if img.RGBAAt(20, 20) != colText {
		t.Fatalf("star centre not filled")
	}
	if img.RGBAAt(1, 39) != (color.RGBA{}) {
		t.Fatalf("corner should stay empty")
	}
}

func TestFingerprintTracksContent(t *testing.T) {
	v := sampleView()
	a := v.Fingerprint()
	if a != v.Fingerprint() {
		t.Fatalf("fingerprint not stable")
	}
	v.Card.Options[0].Text = "Dog"
	if a == v.Fingerprint() {
		t.Fatalf("fingerprint ignored option text")
	}
	v2 := sampleView()
	v2.CollectionName = "Other"
	if v2.Fingerprint() == sampleView().Fingerprint() {
		t.Fatalf("fingerprint ignored collection name")
	}
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatJPEG, 0); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	if _, err := jpeg.Decode(&buf); err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	buf.Reset()
	if err := Encode(&buf, img, FormatPNG, 0); err != nil {
		t.Fatalf("png: %v", err)
	}
	if err := Encode(&buf, img, "tiff", 0); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
