/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"errors"
	"testing"
)

func TestGlyphVariants(t *testing.T) {
	cases := []struct {
		typ  IconType
		icon string
		want Icon
	}{
		{IconText, "A", TextIcon{Glyph: "A"}},
		{IconIcon, "bi:star", CatalogIcon{ID: "bi:star"}},
		{IconImage, "data:image/png;base64,AA==", ImageIcon{DataURL: "data:image/png;base64,AA=="}},
		{"sticker", "x", TextIcon{Glyph: "x"}},
	}
	for _, tc := range cases {
		c := Card{IconType: tc.typ, Icon: tc.icon}
		if got := c.Glyph(); got != tc.want {
			t.Errorf("Glyph(%s) = %#v, want %#v", tc.typ, got, tc.want)
		}
	}

	var c Card
	c.SetGlyph(CatalogIcon{ID: "mdi:dog"})
	if c.IconType != IconIcon || c.Icon != "mdi:dog" {
		t.Fatalf("SetGlyph wrote %q/%q", c.IconType, c.Icon)
	}
}

func TestClampTextIcon(t *testing.T) {
	if got := ClampTextIcon("abc"); got != "ab" {
		t.Fatalf("ClampTextIcon(abc) = %q", got)
	}
	if got := ClampTextIcon("🐶🐱🐭"); got != "🐶🐱" {
		t.Fatalf("ClampTextIcon counts runes, got %q", got)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	u := EncodeDataURL("image/png", payload)
	mime, data, err := DecodeDataURL(u)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(data, payload) {
		t.Fatalf("got %s %v", mime, data)
	}
	if _, _, err := DecodeDataURL("http://example.com/a.png"); !errors.Is(err, ErrBadDataURL) {
		t.Fatalf("expected ErrBadDataURL, got %v", err)
	}
}

func TestSplitIconID(t *testing.T) {
	if p, n, ok := SplitIconID("fa6-solid:house"); !ok || p != "fa6-solid" || n != "house" {
		t.Fatalf("split = %q %q %v", p, n, ok)
	}
	for _, bad := range []string{"house", ":house", "mdi:"} {
		if _, _, ok := SplitIconID(bad); ok {
			t.Errorf("SplitIconID(%q) should fail", bad)
		}
	}
}
