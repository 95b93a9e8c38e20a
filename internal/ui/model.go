/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"sync"
	"time"

	"datacards/internal/domain"
	"datacards/internal/render"
	"datacards/internal/store"
)

// SearchDebounce delays icon searches while the user is typing.
const SearchDebounce = 300 * time.Millisecond

var iconTypeLabels = []struct {
	Type  domain.IconType
	Label string
}{
	{domain.IconText, "Text"},
	{domain.IconIcon, "Icon"},
	{domain.IconImage, "Image"},
}

func iconTypeLabel(t domain.IconType) string {
	for _, it := range iconTypeLabels {
		if it.Type == t {
			return it.Label
		}
	}
	return iconTypeLabels[0].Label
}

func iconTypeFromLabel(label string) (domain.IconType, bool) {
	for _, it := range iconTypeLabels {
		if it.Label == label {
			return it.Type, true
		}
	}
	return "", false
}

func iconTypeOptions() []string {
	out := make([]string, len(iconTypeLabels))
	for i, it := range iconTypeLabels {
		out[i] = it.Label
	}
	return out
}

// collectionRows labels the collections list.
func collectionRows(st store.State) []string {
	rows := make([]string, len(st.Collections))
	for i, c := range st.Collections {
		rows[i] = fmt.Sprintf("%s (%d)", c.Name, len(c.Cards))
	}
	return rows
}

// cardRows labels the cards of the active collection.
func cardRows(st store.State) []string {
	col, ok := st.ActiveCollection()
	if !ok {
		return nil
	}
	rows := make([]string, len(col.Cards))
	for i, c := range col.Cards {
		rows[i] = fmt.Sprintf("%d. %s", i+1, render.View(col, c).Question())
	}
	return rows
}

// collectionIndex returns the position of the collection with id, or -1.
func collectionIndex(st store.State, id string) int {
	for i, c := range st.Collections {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// debouncer runs fn with the last value passed to Trigger once no new value
// arrived for the delay.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(string)
	t     *time.Timer
}

func newDebouncer(delay time.Duration, fn func(string)) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
	d.t = time.AfterFunc(d.delay, func() { d.fn(v) })
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
}
