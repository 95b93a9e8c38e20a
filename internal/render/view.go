/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render projects a card onto its output targets: raster bitmaps for
// PDF/PNG export, a terminal preview and the HTML print page. Every target is
// built from the same CardView so field content cannot drift between them.
package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"datacards/internal/domain"
)

// CardView is everything a target needs to draw one card.
type CardView struct {
	CollectionName string
	Card           domain.Card
}

// View builds the shared projection of card within col.
func View(col domain.Collection, card domain.Card) CardView {
	return CardView{CollectionName: col.Name, Card: card.Clone()}
}

// Views returns one CardView per card of col, in order.
func Views(col domain.Collection) []CardView {
	out := make([]CardView, 0, len(col.Cards))
	for _, c := range col.Cards {
		out = append(out, View(col, c))
	}
	return out
}

// Question is the question text, or "Question" when blank.
func (v CardView) Question() string {
	if strings.TrimSpace(v.Card.Question) == "" {
		return "Question"
	}
	return v.Card.Question
}

// TextGlyph is the glyph shown for text icons, "?" when empty.
func (v CardView) TextGlyph() string {
	if v.Card.Icon == "" {
		return "?"
	}
	return v.Card.Icon
}

// Fingerprint hashes the visible content of the view. Two views with the same
// fingerprint rasterize identically under the same options.
func (v CardView) Fingerprint() string {
	b, _ := json.Marshal(struct {
		N string      `json:"n"`
		C domain.Card `json:"c"`
	}{v.CollectionName, v.Card})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
