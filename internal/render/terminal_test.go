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

	"datacards/internal/domain"
)

func TestTerminalShowsCardFields(t *testing.T) {
	v := sampleView()
	out := Terminal(v, 50)
	for _, want := range []string{"Pets", "( ? )", "Which pet do you have?", "Option 1", "Option 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("terminal preview missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalIconLabels(t *testing.T) {
	v := sampleView()
	v.Card.SetGlyph(domain.CatalogIcon{ID: "dc:dog"})
	if got := iconLabel(v); got != "[dc:dog]" {
		t.Fatalf("catalog label = %q", got)
	}
	v.Card.SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL("image/png", make([]byte, 2048))})
	if got := iconLabel(v); got != "[image/png, 2 KB]" {
		t.Fatalf("image label = %q", got)
	}
	v.Card.SetGlyph(domain.ImageIcon{})
	if got := iconLabel(v); got != "( )" {
		t.Fatalf("empty image label = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
}
