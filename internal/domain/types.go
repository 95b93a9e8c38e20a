/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model of a card collection. The JSON layout is
// the one stored in cardCollections.json; field names must not change.

// Collection is a named, ordered set of cards printed together.
type Collection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Card is one survey card: an icon, a question and at least one option.
// Icon is interpreted according to IconType; use Glyph/SetGlyph for a typed view.
type Card struct {
	ID       string   `json:"id"`
	IconType IconType `json:"iconType"`
	Icon     string   `json:"icon"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

// Option is one answer choice. Tally is reserved and carried through untouched.
type Option struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Text  string `json:"text"`
	Tally string `json:"tally"`
}

// NewCollection returns an empty collection with a fresh id. The name is kept as given.
func NewCollection(name string) Collection {
	return Collection{ID: NewID(), Name: name, Cards: []Card{}}
}

// NewCard returns a card with the default icon, question and three options.
func NewCard() Card {
	opts := make([]Option, 0, 3)
	for i := 0; i < 3; i++ {
		opts = append(opts, Option{ID: NewID(), Color: PaletteColor(i), Text: optionLabel(i)})
	}
	return Card{
		ID:       NewID(),
		IconType: IconText,
		Icon:     "?",
		Question: "New Question",
		Options:  opts,
	}
}

// NextOption returns the option that would be appended to c.
func NextOption(c Card) Option {
	n := len(c.Options)
	return Option{ID: NewID(), Color: PaletteColor(n), Text: optionLabel(n)}
}

func optionLabel(i int) string { return "Option " + itoa(i+1) }

// CardIndex returns the position of the card with id, or -1.
func (c Collection) CardIndex(id string) int {
	for i := range c.Cards {
		if c.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

// OptionIndex returns the position of the option with id, or -1.
func (c Card) OptionIndex(id string) int {
	for i := range c.Options {
		if c.Options[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can't alias store-owned slices.
func (c Card) Clone() Card {
	out := c
	out.Options = append([]Option(nil), c.Options...)
	return out
}

// Clone returns a deep copy of the collection and its cards.
func (c Collection) Clone() Collection {
	out := c
	out.Cards = make([]Card, len(c.Cards))
	for i := range c.Cards {
		out.Cards[i] = c.Cards[i].Clone()
	}
	return out
}

// CloneCollections deep-copies a collection list.
func CloneCollections(in []Collection) []Collection {
	if in == nil {
		return nil
	}
	out := make([]Collection, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
