/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lineTexts(b TextBox) []string {
	var out []string
	for _, l := range b.Lines {
		out = append(out, l.Text())
	}
	return out
}

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout([]Span{{Text: "Hello world from Go", Font: FontSpec{}}}, 50)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if diff := cmp.Diff([]string{"Hello", "world", "from Go"}, lineTexts(box)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if box.Width != 49 || box.Height != 39 {
		t.Fatalf("unexpected box size: %+v", box)
	}
}

func TestWordWrap_BreaksLongWords(t *testing.T) {
	box, _ := NewWordWrap(nil).Layout([]Span{{Text: "abcdefghij"}}, 35)
	if diff := cmp.Diff([]string{"abcde", "fghij"}, lineTexts(box)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestWordWrap_HardBreaksAndEmpty(t *testing.T) {
	box, _ := NewWordWrap(BasicProvider{}).Layout([]Span{{Text: "a\nb"}}, 0)
	if diff := cmp.Diff([]string{"a", "b"}, lineTexts(box)); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	empty, _ := NewWordWrap(BasicProvider{}).Layout(nil, 100)
	if len(empty.Lines) != 1 || empty.Width != 0 {
		t.Fatalf("empty text should give one empty line: %+v", empty)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, []Span{{Text: "ABC"}})
	w2, h2 := Measure(BasicProvider{}, []Span{{Text: "A"}, {Text: "BC"}})
	if w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
}

func TestClamp_AddsEllipsis(t *testing.T) {
	box, _ := NewWordWrap(BasicProvider{}).Layout([]Span{{Text: "one two three"}}, 40)
	if len(box.Lines) != 3 {
		t.Fatalf("want 3 lines, got %v", lineTexts(box))
	}
	c := Clamp(box, 2)
	if diff := cmp.Diff([]string{"one", "two…"}, lineTexts(c)); diff != "" {
		t.Fatalf("clamped mismatch (-want +got):\n%s", diff)
	}
	if c.Height != 26 {
		t.Fatalf("height = %v", c.Height)
	}
	if len(box.Lines[1].Spans) == 0 || strings.HasSuffix(box.Lines[1].Text(), "…") {
		t.Fatalf("clamp must not modify its input")
	}
	if got := Clamp(box, 0); len(got.Lines) != 3 {
		t.Fatalf("zero max lines keeps everything")
	}
}

func TestDraw_PaintsPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 20))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	box, _ := NewWordWrap(nil).Layout([]Span{{Text: "Hi"}}, 80)
	Draw(img, nil, box, 0, 2, 80, AlignCenter, color.Black)
	dark := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 80; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
				if x < 30 {
					t.Fatalf("centered text drawn too far left at x=%d", x)
				}
			}
		}
	}
	if dark == 0 {
		t.Fatalf("nothing drawn")
	}
}
