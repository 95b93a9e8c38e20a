/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package icons

import (
	"fmt"
	"strings"
)

// Glyph is a resolved catalog icon: an SVG body in a viewBox.
type Glyph struct {
	ID     string
	Body   string
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// SVG returns a standalone document with currentColor replaced by color
// (default black) and the given pixel size.
func (g Glyph) SVG(color string, size int) []byte {
	if color == "" {
		color = "#000000"
	}
	body := strings.ReplaceAll(g.Body, "currentColor", color)
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%g %g %g %g">`,
		size, size, g.Left, g.Top, g.Width, g.Height)
	sb.WriteString(body)
	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}
