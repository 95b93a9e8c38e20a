/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"strings"
	"testing"
	"time"

	"datacards/internal/domain"
	"datacards/internal/icons"
)

func TestPrintHTML(t *testing.T) {
	col := domain.NewCollection("School Survey")
	text := domain.NewCard()
	text.Question = "Favourite <subject>?"
	img := domain.NewCard()
	img.SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL("image/png", []byte{1, 2, 3})})
	svg := domain.NewCard()
	svg.SetGlyph(domain.CatalogIcon{ID: "dc:star"})
	missing := domain.NewCard()
	missing.SetGlyph(domain.CatalogIcon{ID: "dc:nope"})
	col.Cards = []domain.Card{text, img, svg, missing}

	var sb strings.Builder
	err := PrintHTML(&sb, col, PrintOptions{Resolver: icons.NewCatalog(nil), Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"School Survey - Printed on 2026-03-04",
		"size: A4; margin: 10mm;",
		"print-color-adjust: exact",
		"page-break-inside: avoid",
		"Print tip:",
		"Favourite &lt;subject&gt;?",
		`src="data:image/png;base64,AQID"`,
		"<svg",
		"★",
		"background-color: #4285F4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("print page missing %q", want)
		}
	}
	if strings.Count(out, `class="card"`) != 4 {
		t.Fatalf("expected 4 cards")
	}
}

func TestPrintHTMLEmptyCollection(t *testing.T) {
	var sb strings.Builder
	if err := PrintHTML(&sb, domain.NewCollection("Empty"), PrintOptions{}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(sb.String(), "No cards to display") {
		t.Fatalf("empty page missing notice")
	}
}

func TestPrintHTMLRasterLinks(t *testing.T) {
	col := domain.NewCollection("C")
	card := domain.NewCard()
	col.Cards = []domain.Card{card}
	var sb strings.Builder
	opt := PrintOptions{ImageURL: func(id string) string { return "/api/collections/" + col.ID + "/cards/" + id + ".png" }}
	if err := PrintHTML(&sb, col, opt); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(sb.String(), `class="raster" src="/api/collections/`+col.ID+"/cards/"+card.ID+`.png"`) {
		t.Fatalf("raster link missing:\n%s", sb.String())
	}
}
