/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is the family registered by NewDefaultLibrary.
const DefaultFamily = "Go"

const (
	WeightRegular = 400
	WeightBold    = 700
)

// FontLibrary stores parsed OpenType fonts keyed by family, weight and italic.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// NewDefaultLibrary returns a library with the bundled Go regular and bold faces.
func NewDefaultLibrary() *FontLibrary {
	fl := NewFontLibrary()
	// bundled fonts always parse
	_ = fl.LoadBytes(DefaultFamily, WeightRegular, false, goregular.TTF)
	_ = fl.LoadBytes(DefaultFamily, WeightBold, false, gobold.TTF)
	return fl
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes(family, weight, italic, data); err != nil {
		return fmt.Errorf("font %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses TTF/OTF data and registers it.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}]; ok {
		return f
	}
	// nearest weight in the same family
	var best *opentype.Font
	bestDist := -1
	for k, f := range fl.fonts {
		if k.family != spec.Family {
			continue
		}
		d := k.weight - spec.Weight
		if d < 0 {
			d = -d
		}
		if k.italic != spec.Italic {
			d += 1000
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// Faces are cached per spec; OTProvider must be used by pointer for the cache to stick.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider

	mu    sync.Mutex
	faces map[FontSpec]font.Face
}

func (p *OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	if spec.Family == "" {
		spec.Family = DefaultFamily
	}
	if spec.Weight == 0 {
		spec.Weight = WeightRegular
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	p.mu.Lock()
	face, ok := p.faces[spec]
	p.mu.Unlock()
	if ok {
		return face, metricsOf(face)
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			p.mu.Lock()
			if p.faces == nil {
				p.faces = make(map[FontSpec]font.Face)
			}
			p.faces[spec] = face
			p.mu.Unlock()
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
