/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor binds card field edits to the store. It holds no card data of
// its own: every setter reads the active card from the store, changes one field
// and hands the whole card back through Store.UpdateCard.
package editor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"datacards/internal/domain"
	"datacards/internal/store"
)

var (
	// ErrNoActiveCard is returned when no card is selected.
	ErrNoActiveCard = errors.New("no active card")
	// ErrOptionIndex is returned for an option position outside the card.
	ErrOptionIndex = errors.New("option index out of range")
	// ErrNotImage is returned by SetImage for data that is not an image.
	ErrNotImage = errors.New("not an image")
)

// Editor edits the store's active card.
type Editor struct {
	st *store.Store
}

func New(st *store.Store) *Editor { return &Editor{st: st} }

// Card returns the active card.
func (e *Editor) Card() (domain.Card, bool) { return e.st.State().ActiveCard() }

func (e *Editor) update(fn func(*domain.Card) error) (store.State, error) {
	card, ok := e.Card()
	if !ok {
		return e.st.State(), ErrNoActiveCard
	}
	if err := fn(&card); err != nil {
		return e.st.State(), err
	}
	return e.st.UpdateCard(card)
}

// SetQuestion replaces the question text.
func (e *Editor) SetQuestion(q string) (store.State, error) {
	return e.update(func(c *domain.Card) error {
		c.Question = q
		return nil
	})
}

// SetIconType switches the icon kind. The current icon value is kept when it
// still makes sense for the new kind and cleared otherwise.
func (e *Editor) SetIconType(t domain.IconType) (store.State, error) {
	t, err := domain.ParseIconType(string(t))
	if err != nil {
		return e.st.State(), err
	}
	return e.update(func(c *domain.Card) error {
		if !fits(t, c.Icon) {
			c.Icon = ""
		}
		c.IconType = t
		return nil
	})
}

func fits(t domain.IconType, v string) bool {
	switch t {
	case domain.IconText:
		return !strings.HasPrefix(v, "data:") && domain.ClampTextIcon(v) == v
	case domain.IconIcon:
		_, _, ok := domain.SplitIconID(v)
		return ok
	case domain.IconImage:
		return strings.HasPrefix(v, "data:image/")
	}
	return false
}

// SetTextIcon sets a text glyph, keeping at most two characters.
func (e *Editor) SetTextIcon(glyph string) (store.State, error) {
	return e.update(func(c *domain.Card) error {
		c.SetGlyph(domain.TextIcon{Glyph: domain.ClampTextIcon(glyph)})
		return nil
	})
}

// SetCatalogIcon selects a catalog icon by "prefix:name".
func (e *Editor) SetCatalogIcon(id string) (store.State, error) {
	if _, _, ok := domain.SplitIconID(id); !ok {
		return e.st.State(), fmt.Errorf("invalid icon id %q", id)
	}
	return e.update(func(c *domain.Card) error {
		c.SetGlyph(domain.CatalogIcon{ID: id})
		return nil
	})
}

// SetImage stores an uploaded image as a data URL. An empty mime is sniffed
// from the content.
func (e *Editor) SetImage(data []byte, mime string) (store.State, error) {
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return e.st.State(), fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	return e.update(func(c *domain.Card) error {
		c.SetGlyph(domain.ImageIcon{DataURL: domain.EncodeDataURL(mime, data)})
		return nil
	})
}

func (e *Editor) option(i int, fn func(*domain.Option) error) (store.State, error) {
	return e.update(func(c *domain.Card) error {
		if i < 0 || i >= len(c.Options) {
			return fmt.Errorf("%w: %d", ErrOptionIndex, i)
		}
		return fn(&c.Options[i])
	})
}

// SetOptionText sets the label of option i.
func (e *Editor) SetOptionText(i int, text string) (store.State, error) {
	return e.option(i, func(o *domain.Option) error {
		o.Text = text
		return nil
	})
}

// SetOptionColor sets the color of option i after validating it.
func (e *Editor) SetOptionColor(i int, color string) (store.State, error) {
	norm, err := domain.NormalizeColor(color)
	if err != nil {
		return e.st.State(), err
	}
	return e.option(i, func(o *domain.Option) error {
		o.Color = norm
		return nil
	})
}

// AddOption appends the next default option.
func (e *Editor) AddOption() (store.State, error) {
	card, ok := e.Card()
	if !ok {
		return e.st.State(), ErrNoActiveCard
	}
	return e.st.AddOption(card.ID)
}

// DeleteOption removes option i.
func (e *Editor) DeleteOption(i int) (store.State, error) {
	card, ok := e.Card()
	if !ok {
		return e.st.State(), ErrNoActiveCard
	}
	if i < 0 || i >= len(card.Options) {
		return e.st.State(), fmt.Errorf("%w: %d", ErrOptionIndex, i)
	}
	return e.st.DeleteOption(card.ID, card.Options[i].ID)
}
