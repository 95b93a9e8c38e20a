/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"datacards/internal/domain"
	"datacards/internal/store"
)

var (
	errColor   = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
	labelColor = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
)

// terminalWidth is the stdout width, or fallback when stdout is not a terminal.
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findCollection resolves ref as a 1-based position, an id, a name
// (case-insensitive) or an id prefix, in that order. An empty ref means the
// export target.
func findCollection(st store.State, ref string) (domain.Collection, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if c, ok := st.ExportTarget(); ok {
			return c, nil
		}
		return domain.Collection{}, usagef("no collection selected; pass one or run 'datacards collection use <name>'")
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(st.Collections) {
		return st.Collections[n-1], nil
	}
	var byName, byPrefix []domain.Collection
	for _, c := range st.Collections {
		if c.ID == ref {
			return c, nil
		}
		if strings.EqualFold(c.Name, ref) {
			byName = append(byName, c)
		} else if strings.HasPrefix(c.ID, ref) {
			byPrefix = append(byPrefix, c)
		}
	}
	matches := byName
	if len(matches) == 0 {
		matches = byPrefix
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return domain.Collection{}, fmt.Errorf("collection %q: %w", ref, store.ErrNotFound)
	default:
		return domain.Collection{}, usagef("collection %q is ambiguous (%d matches); use its id", ref, len(matches))
	}
}

// findCard resolves ref within col as a 1-based position, an id or an id
// prefix. An empty ref means the active card.
func findCard(st store.State, col domain.Collection, ref string) (domain.Card, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if c, ok := st.ActiveCard(); ok && st.ActiveCollectionID == col.ID {
			return c, nil
		}
		return domain.Card{}, usagef("no card selected; pass a card number or id")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(col.Cards) {
			return domain.Card{}, usagef("card %d out of range (collection has %d)", n, len(col.Cards))
		}
		return col.Cards[n-1], nil
	}
	var hit *domain.Card
	for i := range col.Cards {
		if col.Cards[i].ID == ref {
			return col.Cards[i], nil
		}
		if strings.HasPrefix(col.Cards[i].ID, ref) {
			if hit != nil {
				return domain.Card{}, usagef("card %q is ambiguous; use more of its id", ref)
			}
			hit = &col.Cards[i]
		}
	}
	if hit == nil {
		return domain.Card{}, fmt.Errorf("card %q: %w", ref, store.ErrNotFound)
	}
	return *hit, nil
}

// optionIndex parses a 1-based option number into a 0-based index.
func optionIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, usagef("option number must be a positive integer, got %q", s)
	}
	return n - 1, nil
}
