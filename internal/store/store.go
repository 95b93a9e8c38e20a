/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store owns the in-memory collection list and the transient selection.
// It is the only writer of the persistence slot: every successful mutation hands
// the whole list to the Persister and then notifies subscribers.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"datacards/internal/domain"
	applog "datacards/internal/log"
)

var (
	ErrEmptyName          = errors.New("collection name is empty")
	ErrNotFound           = errors.New("not found")
	ErrLastOption         = errors.New("a card must keep at least one option")
	ErrNoOptions          = errors.New("card has no options")
	ErrNoActiveCollection = errors.New("no active collection")
	// ErrPersist wraps a failed slot write. The in-memory change is kept.
	ErrPersist = errors.New("persist collections")
)

// Persister writes the whole collection list. storage.Slot implements it.
type Persister interface {
	Save(cols []domain.Collection) error
}

// State is a deep copy of the store contents plus the current selection.
type State struct {
	Collections        []domain.Collection
	ActiveCollectionID string
	ActiveCardID       string
}

// Collection returns the collection with id.
func (s State) Collection(id string) (domain.Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Collection{}, false
}

// ActiveCollection returns the selected collection, if any.
func (s State) ActiveCollection() (domain.Collection, bool) {
	if s.ActiveCollectionID == "" {
		return domain.Collection{}, false
	}
	return s.Collection(s.ActiveCollectionID)
}

// ActiveCard returns the selected card of the selected collection, if any.
func (s State) ActiveCard() (domain.Card, bool) {
	col, ok := s.ActiveCollection()
	if !ok || s.ActiveCardID == "" {
		return domain.Card{}, false
	}
	if i := col.CardIndex(s.ActiveCardID); i >= 0 {
		return col.Cards[i], true
	}
	return domain.Card{}, false
}

// ExportTarget is the collection the export and print pages act on: the active
// one, or the only one when exactly one exists and nothing is selected.
func (s State) ExportTarget() (domain.Collection, bool) {
	if c, ok := s.ActiveCollection(); ok {
		return c, true
	}
	if len(s.Collections) == 1 {
		return s.Collections[0], true
	}
	return domain.Collection{}, false
}

// Store is safe for concurrent use; each operation is atomic.
type Store struct {
	mu         sync.Mutex
	cols       []domain.Collection
	activeCol  string
	activeCard string
	// persisted tracks whether the list has ever been non-empty; from then on even an
	// emptied list is written so deleted collections do not come back.
	persisted bool
	p         Persister

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	log *slog.Logger
}

// New creates a store seeded with initial (typically the result of Slot.Load).
// Cards without options are repaired by appending a default option.
func New(p Persister, initial []domain.Collection) *Store {
	s := &Store{
		p:    p,
		subs: map[int]func(State){},
		log:  applog.WithComponent("store"),
	}
	s.adopt(initial)
	s.persisted = len(s.cols) > 0
	return s
}

// adopt installs a copy of cols, appending a default option to cards that have none.
func (s *Store) adopt(cols []domain.Collection) {
	s.cols = domain.CloneCollections(cols)
	if s.cols == nil {
		s.cols = []domain.Collection{}
	}
	for ci := range s.cols {
		for ki := range s.cols[ci].Cards {
			card := &s.cols[ci].Cards[ki]
			if len(card.Options) == 0 {
				card.Options = append(card.Options, domain.NextOption(*card))
				s.log.Warn("repaired card without options", slog.String("card", card.ID))
			}
		}
	}
}

// Subscribe registers fn to receive the state after every successful mutation or
// selection change. Calls happen synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// State returns a snapshot of the current contents.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Collections:        domain.CloneCollections(s.cols),
		ActiveCollectionID: s.activeCol,
		ActiveCardID:       s.activeCard,
	}
}

// commitLocked persists (when due) and returns the new snapshot. Caller unlocks and notifies.
func (s *Store) commitLocked(op string) (State, error) {
	var err error
	if len(s.cols) > 0 {
		s.persisted = true
	}
	if s.persisted && s.p != nil {
		if perr := s.p.Save(domain.CloneCollections(s.cols)); perr != nil {
			s.log.Error("persist failed", slog.String("op", op), slog.Any("err", perr))
			err = fmt.Errorf("%w: %v", ErrPersist, perr)
		}
	}
	return s.snapshotLocked(), err
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) reject(op string, err error, attrs ...any) (State, error) {
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.log.Debug("rejected", append([]any{slog.String("op", op), slog.Any("err", err)}, attrs...)...)
	return st, err
}

func (s *Store) done(op string) (State, error) {
	st, err := s.commitLocked(op)
	s.mu.Unlock()
	s.notify(st)
	return st, err
}

func (s *Store) collectionIndexLocked(id string) int {
	for i := range s.cols {
		if s.cols[i].ID == id {
			return i
		}
	}
	return -1
}

// activeLocked returns the active collection, or ErrNoActiveCollection.
func (s *Store) activeLocked() (*domain.Collection, error) {
	if s.activeCol == "" {
		return nil, ErrNoActiveCollection
	}
	i := s.collectionIndexLocked(s.activeCol)
	if i < 0 {
		return nil, ErrNoActiveCollection
	}
	return &s.cols[i], nil
}

// CreateCollection appends a new empty collection and selects it. Names that are blank
// after trimming are rejected; otherwise the name is stored as given.
func (s *Store) CreateCollection(name string) (State, error) {
	s.mu.Lock()
	if strings.TrimSpace(name) == "" {
		return s.reject("create_collection", ErrEmptyName)
	}
	col := domain.NewCollection(name)
	s.cols = append(s.cols, col)
	s.activeCol = col.ID
	s.activeCard = ""
	return s.done("create_collection")
}

// RenameCollection changes a collection name under the same rule as CreateCollection.
func (s *Store) RenameCollection(id, name string) (State, error) {
	s.mu.Lock()
	if strings.TrimSpace(name) == "" {
		return s.reject("rename_collection", ErrEmptyName)
	}
	i := s.collectionIndexLocked(id)
	if i < 0 {
		return s.reject("rename_collection", ErrNotFound, slog.String("collection", id))
	}
	s.cols[i].Name = name
	return s.done("rename_collection")
}

// DeleteCollection removes a collection with all of its cards.
func (s *Store) DeleteCollection(id string) (State, error) {
	s.mu.Lock()
	i := s.collectionIndexLocked(id)
	if i < 0 {
		return s.reject("delete_collection", ErrNotFound, slog.String("collection", id))
	}
	s.cols = append(s.cols[:i], s.cols[i+1:]...)
	if s.activeCol == id {
		s.activeCol = ""
		s.activeCard = ""
	}
	return s.done("delete_collection")
}

// SelectCollection changes the active collection; "" clears the selection.
// The active card is reset either way.
func (s *Store) SelectCollection(id string) (State, error) {
	s.mu.Lock()
	if id != "" && s.collectionIndexLocked(id) < 0 {
		return s.reject("select_collection", ErrNotFound, slog.String("collection", id))
	}
	s.activeCol = id
	s.activeCard = ""
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return st, nil
}

// SelectCard changes the active card within the active collection; "" clears it.
func (s *Store) SelectCard(id string) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("select_card", err)
	}
	if id != "" && col.CardIndex(id) < 0 {
		return s.reject("select_card", ErrNotFound, slog.String("card", id))
	}
	s.activeCard = id
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return st, nil
}

// AddCard appends a default card to the collection and makes it the active card.
func (s *Store) AddCard(collectionID string) (State, error) {
	s.mu.Lock()
	i := s.collectionIndexLocked(collectionID)
	if i < 0 {
		return s.reject("add_card", ErrNotFound, slog.String("collection", collectionID))
	}
	card := domain.NewCard()
	s.cols[i].Cards = append(s.cols[i].Cards, card)
	s.activeCol = collectionID
	s.activeCard = card.ID
	return s.done("add_card")
}

// UpdateCard replaces the card with the same id in the active collection.
func (s *Store) UpdateCard(card domain.Card) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("update_card", err)
	}
	i := col.CardIndex(card.ID)
	if i < 0 {
		return s.reject("update_card", ErrNotFound, slog.String("card", card.ID))
	}
	if len(card.Options) == 0 {
		return s.reject("update_card", ErrNoOptions, slog.String("card", card.ID))
	}
	col.Cards[i] = card.Clone()
	return s.done("update_card")
}

// DeleteCard removes a card from the active collection. When it was the active card
// the first remaining card (or none) becomes active.
func (s *Store) DeleteCard(cardID string) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("delete_card", err)
	}
	i := col.CardIndex(cardID)
	if i < 0 {
		return s.reject("delete_card", ErrNotFound, slog.String("card", cardID))
	}
	col.Cards = append(col.Cards[:i], col.Cards[i+1:]...)
	if s.activeCard == cardID {
		s.activeCard = ""
		if len(col.Cards) > 0 {
			s.activeCard = col.Cards[0].ID
		}
	}
	return s.done("delete_card")
}

// MoveCard shifts a card by delta positions within the active collection, clamped to the ends.
func (s *Store) MoveCard(cardID string, delta int) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("move_card", err)
	}
	from := col.CardIndex(cardID)
	if from < 0 {
		return s.reject("move_card", ErrNotFound, slog.String("card", cardID))
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(col.Cards)-1 {
		to = len(col.Cards) - 1
	}
	if to == from {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, nil
	}
	card := col.Cards[from]
	col.Cards = append(col.Cards[:from], col.Cards[from+1:]...)
	col.Cards = append(col.Cards[:to], append([]domain.Card{card}, col.Cards[to:]...)...)
	return s.done("move_card")
}

// AddOption appends the next palette option to a card of the active collection.
func (s *Store) AddOption(cardID string) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("add_option", err)
	}
	i := col.CardIndex(cardID)
	if i < 0 {
		return s.reject("add_option", ErrNotFound, slog.String("card", cardID))
	}
	card := &col.Cards[i]
	card.Options = append(card.Options, domain.NextOption(*card))
	return s.done("add_option")
}

// DeleteOption removes an option unless it is the card's last one.
func (s *Store) DeleteOption(cardID, optionID string) (State, error) {
	s.mu.Lock()
	col, err := s.activeLocked()
	if err != nil {
		return s.reject("delete_option", err)
	}
	i := col.CardIndex(cardID)
	if i < 0 {
		return s.reject("delete_option", ErrNotFound, slog.String("card", cardID))
	}
	card := &col.Cards[i]
	if len(card.Options) <= 1 {
		return s.reject("delete_option", ErrLastOption, slog.String("card", cardID))
	}
	j := card.OptionIndex(optionID)
	if j < 0 {
		return s.reject("delete_option", ErrNotFound, slog.String("option", optionID))
	}
	card.Options = append(card.Options[:j], card.Options[j+1:]...)
	return s.done("delete_option")
}

// Replace swaps the whole list, e.g. when restoring a backup. Selection is cleared.
func (s *Store) Replace(cols []domain.Collection) (State, error) {
	s.mu.Lock()
	s.adopt(cols)
	s.activeCol = ""
	s.activeCard = ""
	return s.done("replace")
}
