/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette is the fixed set of option colors, assigned round-robin.
var Palette = [...]string{
	"#4285F4",
	"#EA4335",
	"#FBBC05",
	"#34A853",
	"#9C27B0",
	"#00ACC1",
	"#FF9800",
}

// PaletteColor returns Palette[i mod len(Palette)].
func PaletteColor(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}

// ParseColor parses a "#rrggbb" (or "#rgb") token.
func ParseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(expandShortHex(strings.TrimSpace(s)))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// NormalizeColor returns the canonical upper-case "#RRGGBB" form of s.
func NormalizeColor(s string) (string, error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B), nil
}

// ColorOr parses s and falls back to def when it is not a valid token.
func ColorOr(s string, def color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}

func expandShortHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	return s
}
