/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// TextStyle is a named text preset used when drawing a card.
// Leading is extra px added to the line height; MaxLines of 0 means unlimited.
type TextStyle struct {
	Name     string
	Font     FontSpec
	Leading  float32
	MaxLines int
}

const (
	StyleHeader   = "Header"
	StyleGlyph    = "Glyph"
	StyleQuestion = "Question"
	StyleOption   = "Option"
)

// Sizes are points at 72 DPI; renderers scale them with the output DPI.
var builtinStyles = map[string]TextStyle{
	StyleHeader: {
		Name: StyleHeader,
		Font: FontSpec{Family: DefaultFamily, SizePt: 10.5, Weight: WeightRegular},
		// one line, the collection name
		MaxLines: 1,
	},
	StyleGlyph: {
		Name:     StyleGlyph,
		Font:     FontSpec{Family: DefaultFamily, SizePt: 18, Weight: WeightBold},
		MaxLines: 1,
	},
	StyleQuestion: {
		Name:     StyleQuestion,
		Font:     FontSpec{Family: DefaultFamily, SizePt: 13.5, Weight: WeightBold},
		Leading:  2,
		MaxLines: 3,
	},
	StyleOption: {
		Name:     StyleOption,
		Font:     FontSpec{Family: DefaultFamily, SizePt: 12, Weight: WeightRegular},
		MaxLines: 2,
	},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// MustStyle is GetStyle for the constant names above.
func MustStyle(name string) TextStyle {
	s, ok := builtinStyles[name]
	if !ok {
		panic("textlayout: unknown style " + name)
	}
	return s
}

// ListStyles lists the names of the builtin styles in stable order.
func ListStyles() []string {
	return []string{StyleHeader, StyleGlyph, StyleQuestion, StyleOption}
}

// Scaled returns the style with its font size and leading scaled by factor,
// typically dpi/72.
func (s TextStyle) Scaled(factor float32) TextStyle {
	if factor <= 0 {
		return s
	}
	s.Font.SizePt *= factor
	s.Leading *= factor
	return s
}

// Wrap lays out text in the style and applies MaxLines.
func (s TextStyle) Wrap(p Provider, text string, maxWidth float32) TextBox {
	box, _ := NewWordWrap(p).Layout([]Span{{Text: text, Font: s.Font}}, maxWidth)
	box.Metrics.LineGap += s.Leading
	box.Height += s.Leading * float32(len(box.Lines))
	return Clamp(box, s.MaxLines)
}
