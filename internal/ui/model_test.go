/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"datacards/internal/domain"
	"datacards/internal/store"
)

func TestIconTypeLabelsRoundTrip(t *testing.T) {
	for _, it := range []domain.IconType{domain.IconText, domain.IconIcon, domain.IconImage} {
		got, ok := iconTypeFromLabel(iconTypeLabel(it))
		if !ok || got != it {
			t.Fatalf("round trip of %q gave %q", it, got)
		}
	}
	if _, ok := iconTypeFromLabel("Sticker"); ok {
		t.Fatalf("unexpected label accepted")
	}
}

func TestRowsFollowState(t *testing.T) {
	s := store.New(nil, nil)
	st, _ := s.CreateCollection("Pets")
	st, _ = s.AddCard(st.ActiveCollectionID)
	card, _ := st.ActiveCard()
	card.Question = ""
	st, err := s.UpdateCard(card)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff([]string{"Pets (1)"}, collectionRows(st)); diff != "" {
		t.Fatalf("collection rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1. Question"}, cardRows(st)); diff != "" {
		t.Fatalf("card rows (-want +got):\n%s", diff)
	}
	if collectionIndex(st, st.ActiveCollectionID) != 0 || collectionIndex(st, "nope") != -1 {
		t.Fatalf("collectionIndex mismatch")
	}
}

func TestDebouncerKeepsLastValue(t *testing.T) {
	var calls atomic.Int32
	got := make(chan string, 4)
	d := newDebouncer(20*time.Millisecond, func(v string) {
		calls.Add(1)
		got <- v
	})
	d.Trigger("d")
	d.Trigger("do")
	d.Trigger("dog")
	select {
	case v := <-got:
		if v != "dog" {
			t.Fatalf("expected last value, got %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced call never happened")
	}
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one call, got %d", n)
	}
}
