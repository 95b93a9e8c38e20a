/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout maps an ordered card sequence onto fixed-capacity pages.
// Placement depends only on the card's position and the grid, never on content.
package layout

import "fmt"

// Grid is the page capacity expressed as columns x rows.
type Grid struct {
	Columns int
	Rows    int
}

// DefaultGrid holds four cards per page.
var DefaultGrid = Grid{Columns: 2, Rows: 2}

// Capacity returns Columns*Rows.
func (g Grid) Capacity() int { return g.Columns * g.Rows }

// Validate rejects grids that cannot hold a card.
func (g Grid) Validate() error {
	if g.Columns <= 0 || g.Rows <= 0 {
		return fmt.Errorf("invalid grid %dx%d", g.Columns, g.Rows)
	}
	return nil
}

func (g Grid) String() string { return fmt.Sprintf("%dx%d", g.Columns, g.Rows) }

// Slot is where card Index lands.
type Slot struct {
	Index      int
	Page       int
	SlotOnPage int
	Row        int
	Col        int
}

// Page groups the slots that share a page, in reading order.
type Page struct {
	Index int
	Slots []Slot
}

// Place returns the slot of the i-th card (zero based). g must be valid.
func (g Grid) Place(i int) Slot {
	k := g.Capacity()
	s := i % k
	return Slot{
		Index:      i,
		Page:       i / k,
		SlotOnPage: s,
		Row:        s / g.Columns,
		Col:        s % g.Columns,
	}
}

// StartsPage reports whether card i opens a new page after the first.
func (g Grid) StartsPage(i int) bool {
	return i > 0 && g.Place(i).SlotOnPage == 0
}

// PageCount returns the number of pages n cards occupy.
func (g Grid) PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	k := g.Capacity()
	return (n + k - 1) / k
}

// Paginate lays out n cards.
func (g Grid) Paginate(n int) []Page {
	pages := make([]Page, 0, g.PageCount(n))
	for i := 0; i < n; i++ {
		s := g.Place(i)
		if s.SlotOnPage == 0 {
			pages = append(pages, Page{Index: s.Page})
		}
		p := &pages[len(pages)-1]
		p.Slots = append(p.Slots, s)
	}
	return pages
}
