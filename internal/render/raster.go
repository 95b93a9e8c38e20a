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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"datacards/internal/domain"
	"datacards/internal/icons"
	"datacards/internal/textlayout"
)

// Encodings accepted by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// DefaultDPI is used when Options.DPI is zero.
const DefaultDPI = 150

// ErrBadImage is returned when an image icon cannot be decoded.
var ErrBadImage = errors.New("image icon cannot be decoded")

// Options sizes a raster and supplies its collaborators.
// Zero Width/Height derive a 92.5 x 133.5 mm cell (A4, 2x2) at DPI.
type Options struct {
	Width, Height int
	DPI           float64
	Resolver      icons.Resolver
	Fonts         textlayout.Provider
}

// OptionsForCell sizes a raster for a cell of wMM x hMM at dpi.
func OptionsForCell(wMM, hMM, dpi float64) Options {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return Options{
		Width:  int(math.Round(wMM / 25.4 * dpi)),
		Height: int(math.Round(hMM / 25.4 * dpi)),
		DPI:    dpi,
	}
}

var (
	defaultFontsOnce sync.Once
	defaultFonts     textlayout.Provider
)

// DefaultFonts returns a shared provider over the bundled Go fonts.
func DefaultFonts() textlayout.Provider {
	defaultFontsOnce.Do(func() {
		defaultFonts = &textlayout.OTProvider{Lib: textlayout.NewDefaultLibrary()}
	})
	return defaultFonts
}

func (o Options) normalized() Options {
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.Width <= 0 || o.Height <= 0 {
		d := OptionsForCell(92.5, 133.5, o.DPI)
		o.Width, o.Height = d.Width, d.Height
	}
	if o.Fonts == nil {
		o.Fonts = DefaultFonts()
	}
	return o
}

var (
	colWhite     = color.RGBA{255, 255, 255, 255}
	colText      = color.RGBA{17, 24, 39, 255}
	colMuted     = color.RGBA{107, 114, 128, 255}
	colCircle    = color.RGBA{229, 231, 235, 255}
	colBorder    = color.RGBA{156, 163, 175, 255}
	colCardEdge  = color.RGBA{209, 213, 219, 255}
	colDotRing   = color.RGBA{0, 0, 0, 26}
	colIconColor = "#111827"
)

// Rasterize draws v as a white card with the collection header, icon area,
// question and option rows. It fails only when an image icon cannot be decoded.
func Rasterize(v CardView, opt Options) (*image.RGBA, error) {
	opt = opt.normalized()
	W, H := float64(opt.Width), float64(opt.Height)
	u := opt.DPI / 96 // one CSS pixel
	fs := float32(opt.DPI / 72)

	img := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colWhite), image.Point{}, draw.Src)
	strokeRect(img, 0, 0, opt.Width-1, opt.Height-1, int(math.Max(1, math.Round(2*u))), colCardEdge)

	pad := 16 * u
	inner := float32(W - 2*pad)
	y := pad

	header := textlayout.MustStyle(textlayout.StyleHeader).Scaled(fs).Wrap(opt.Fonts, v.CollectionName, inner)
	textlayout.Draw(img, opt.Fonts, header, float32(pad), float32(y), inner, textlayout.AlignCenter, colMuted)
	y += float64(header.Height) + 8*u

	areaH := (H - 2*pad) / 3
	cx, cy := W/2, y+areaH/2
	if err := drawIcon(img, v, opt, cx, cy, u, fs); err != nil {
		return nil, err
	}
	y += areaH + 16*u

	q := textlayout.MustStyle(textlayout.StyleQuestion).Scaled(fs).Wrap(opt.Fonts, v.Question(), inner)
	textlayout.Draw(img, opt.Fonts, q, float32(pad), float32(y), inner, textlayout.AlignCenter, colText)
	y += float64(q.Height) + 16*u

	dot, tallyW, gap := 24*u, 80*u, 12*u
	labelX := pad + dot + gap
	labelW := float32(W - 2*pad - dot - tallyW - 2*gap)
	optStyle := textlayout.MustStyle(textlayout.StyleOption).Scaled(fs)
	for _, o := range v.Card.Options {
		label := optStyle.Wrap(opt.Fonts, o.Text, labelW)
		rowH := math.Max(dot, float64(label.Height))
		if y+rowH > H-pad {
			break
		}
		mid := y + rowH/2
		fillCircle(img, pad+dot/2, mid, dot/2+u, colDotRing)
		fillCircle(img, pad+dot/2, mid, dot/2, domain.ColorOr(o.Color, colCircle))
		textlayout.Draw(img, opt.Fonts, label, float32(labelX), float32(mid)-label.Height/2, labelW, textlayout.AlignLeft, colText)
		tx := W - pad - tallyW
		strokeRect(img, px(tx), px(mid-dot/2), px(tx+tallyW), px(mid+dot/2), int(math.Max(1, math.Round(u))), colBorder)
		y += rowH + gap
	}
	return img, nil
}

func px(f float64) int { return int(math.Round(f)) }

func drawIcon(img *image.RGBA, v CardView, opt Options, cx, cy, u float64, fs float32) error {
	r := 32 * u
	circle := func() {
		fillCircle(img, cx, cy, r, colBorder)
		fillCircle(img, cx, cy, r-2*u, colCircle)
	}
	switch ic := v.Card.Glyph().(type) {
	case domain.TextIcon:
		circle()
		g := textlayout.MustStyle(textlayout.StyleGlyph).Scaled(fs).Wrap(opt.Fonts, v.TextGlyph(), float32(2*r))
		textlayout.Draw(img, opt.Fonts, g, float32(cx-r), float32(cy)-g.Height/2, float32(2*r), textlayout.AlignCenter, colText)
	case domain.CatalogIcon:
		circle()
		if ic.ID == "" {
			return nil
		}
		size := 32 * u
		if opt.Resolver != nil {
			if g, err := opt.Resolver.Resolve(ic.ID); err == nil {
				if err := drawSVG(img, g.SVG(colIconColor, int(size)), cx-size/2, cy-size/2, size); err == nil {
					return nil
				}
			}
		}
		fillStar(img, cx, cy, size/2, colText)
	case domain.ImageIcon:
		if ic.DataURL == "" {
			circle()
			return nil
		}
		src, err := decodeImage(ic.DataURL)
		if err != nil {
			return err
		}
		box := 96 * u
		x0, y0 := cx-box/2, cy-box/2
		strokeRect(img, px(x0), px(y0), px(x0+box), px(y0+box), int(math.Max(1, math.Round(u))), colCircle)
		b := src.Bounds()
		fit := fitRect(x0+2*u, y0+2*u, box-4*u, box-4*u, float64(b.Dx()), float64(b.Dy()))
		xdraw.CatmullRom.Scale(img, fit, src, b, xdraw.Over, nil)
	}
	return nil
}

func decodeImage(dataURL string) (image.Image, error) {
	_, data, err := domain.DecodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return src, nil
}

func fitRect(x, y, w, h, sw, sh float64) image.Rectangle {
	scale := math.Min(w/sw, h/sh)
	fw, fh := sw*scale, sh*scale
	x0, y0 := x+(w-fw)/2, y+(h-fh)/2
	return image.Rect(px(x0), px(y0), px(x0+fw), px(y0+fh))
}

func drawSVG(img *image.RGBA, svg []byte, x, y, size float64) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.WarnErrorMode)
	if err != nil {
		return err
	}
	icon.SetTarget(x, y, size, size)
	b := img.Bounds()
	sc := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	icon.Draw(rasterx.NewDasher(b.Dx(), b.Dy(), sc), 1)
	return nil
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.Color) {
	b := img.Bounds()
	f := rasterx.NewFiller(b.Dx(), b.Dy(), rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b))
	f.SetColor(c)
	rasterx.AddCircle(cx, cy, r, f)
	f.Draw()
}

// fillStar draws a five-pointed star, used when a catalog icon is missing.
func fillStar(img *image.RGBA, cx, cy, r float64, c color.Color) {
	b := img.Bounds()
	f := rasterx.NewFiller(b.Dx(), b.Dy(), rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b))
	f.SetColor(c)
	for i := 0; i < 10; i++ {
		rad := r
		if i%2 == 1 {
			rad = r * 0.4
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		p := rasterx.ToFixedP(cx+rad*math.Cos(a), cy+rad*math.Sin(a))
		if i == 0 {
			f.Start(p)
		} else {
			f.Line(p)
		}
	}
	f.Stop(true)
	f.Draw()
}

// strokeRect draws an axis-aligned rectangle border of the given thickness,
// inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1, t int, col color.RGBA) {
	for i := 0; i < t; i++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y0+i, col)
			img.SetRGBA(x, y1-i, col)
		}
		for y := y0; y <= y1; y++ {
			img.SetRGBA(x0+i, y, col)
			img.SetRGBA(x1-i, y, col)
		}
	}
}

// Encode writes img as PNG or JPEG (quality 1..100, default 95).
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	switch strings.ToLower(format) {
	case FormatPNG, "":
		return png.Encode(w, img)
	case FormatJPEG, "jpg":
		if quality <= 0 || quality > 100 {
			quality = 95
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	default:
		return fmt.Errorf("unsupported raster format %q", format)
	}
}

// Hex returns c as #rrggbb for display targets.
func Hex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
