/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package icons

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// iconifySet is the subset of the Iconify JSON format we read.
type iconifySet struct {
	Prefix string `json:"prefix"`
	Info   struct {
		Name string `json:"name"`
	} `json:"info"`
	Width   float64                 `json:"width"`
	Height  float64                 `json:"height"`
	Left    float64                 `json:"left"`
	Top     float64                 `json:"top"`
	Icons   map[string]iconifyIcon  `json:"icons"`
	Aliases map[string]iconifyAlias `json:"aliases"`
}

type iconifyIcon struct {
	Body   string  `json:"body"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

type iconifyAlias struct {
	Parent string `json:"parent"`
}

// Set is one parsed icon set.
type Set struct {
	Prefix   string
	Title    string
	Checksum string
	names    []string
	raw      iconifySet
}

// ParseSet decodes an Iconify JSON document.
func ParseSet(data []byte) (*Set, error) {
	var raw iconifySet
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse icon set: %w", err)
	}
	if strings.TrimSpace(raw.Prefix) == "" {
		return nil, fmt.Errorf("parse icon set: missing prefix")
	}
	if raw.Width <= 0 {
		raw.Width = 16
	}
	if raw.Height <= 0 {
		raw.Height = 16
	}
	names := make([]string, 0, len(raw.Icons))
	for n := range raw.Icons {
		names = append(names, n)
	}
	sort.Strings(names)
	sum := sha256.Sum256(data)
	title := raw.Info.Name
	if title == "" {
		title = raw.Prefix
	}
	return &Set{Prefix: raw.Prefix, Title: title, Checksum: hex.EncodeToString(sum[:]), names: names, raw: raw}, nil
}

// Names returns the icon names, sorted. Aliases are not listed.
func (s *Set) Names() []string { return s.names }

// glyph resolves name (following at most a few alias hops).
func (s *Set) glyph(name string) (Glyph, bool) {
	for hop := 0; hop < 4; hop++ {
		if ic, ok := s.raw.Icons[name]; ok {
			g := Glyph{
				Body:   ic.Body,
				Left:   s.raw.Left,
				Top:    s.raw.Top,
				Width:  s.raw.Width,
				Height: s.raw.Height,
			}
			if ic.Width > 0 {
				g.Width = ic.Width
			}
			if ic.Height > 0 {
				g.Height = ic.Height
			}
			if ic.Left != 0 {
				g.Left = ic.Left
			}
			if ic.Top != 0 {
				g.Top = ic.Top
			}
			return g, true
		}
		al, ok := s.raw.Aliases[name]
		if !ok || al.Parent == "" {
			return Glyph{}, false
		}
		name = al.Parent
	}
	return Glyph{}, false
}
