/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package icons resolves catalog icon identifiers ("prefix:name") to SVG glyphs and
// backs the icon picker with category browsing and name search over Iconify JSON sets.
package icons

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"datacards/internal/domain"
	applog "datacards/internal/log"
	"datacards/internal/storage"
)

// ErrIconNotFound is returned by Resolve for unknown identifiers.
var ErrIconNotFound = errors.New("icon not found")

// MaxResultsPerSet caps picker results from any single set.
const MaxResultsPerSet = 50

// BuiltinPrefix is the prefix of the embedded set, always available.
const BuiltinPrefix = "dc"

// IconsDirName holds extra Iconify JSON sets inside the data dir.
const IconsDirName = "icons"

// DefaultSetOrder lists the preferred sets; they come first in results when installed.
var DefaultSetOrder = []string{"fa6-solid", "bi", "material-symbols", "mdi", "tabler"}

//go:embed data/builtin.json
var builtinSetJSON []byte

// Resolver turns an identifier into a glyph. The same id always yields the same glyph.
type Resolver interface {
	Resolve(id string) (Glyph, error)
}

// Result is one picker entry.
type Result struct {
	ID       string
	Name     string
	Provider string
	Category string
}

// SetInfo summarizes a loaded set.
type SetInfo struct {
	Prefix string
	Title  string
	Count  int
}

// Catalog holds the loaded sets. It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	sets  map[string]*Set
	cats  []Category
	index *storage.Index

	cacheMu sync.Mutex
	cache   map[string][]Result

	log *slog.Logger
}

// NewCatalog returns a catalog holding the built-in set and cats (defaults when nil).
func NewCatalog(cats []Category) *Catalog {
	if cats == nil {
		cats = DefaultCategories()
	}
	c := &Catalog{
		sets:  map[string]*Set{},
		cats:  cats,
		cache: map[string][]Result{},
		log:   applog.WithComponent("icons"),
	}
	builtin, err := ParseSet(builtinSetJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded icon set: %v", err))
	}
	c.AddSet(builtin)
	return c
}

// AddSet registers s, replacing a set with the same prefix.
func (c *Catalog) AddSet(s *Set) {
	c.mu.Lock()
	c.sets[s.Prefix] = s
	c.mu.Unlock()
	c.resetCache()
}

// LoadDir adds every *.json Iconify set in dir. Unreadable files are logged and skipped.
// A missing directory is not an error.
func (c *Catalog) LoadDir(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range matches {
		data, err := os.ReadFile(p)
		if err != nil {
			c.log.Warn("read icon set failed", slog.String("path", p), slog.Any("err", err))
			continue
		}
		s, err := ParseSet(data)
		if err != nil {
			c.log.Warn("skip icon set", slog.String("path", p), slog.Any("err", err))
			continue
		}
		c.AddSet(s)
		n++
	}
	return n, nil
}

// AttachIndex syncs set names into ix and routes later searches through it.
// Sets whose checksum is unchanged are not rewritten. Sets added afterwards are only
// searchable once AttachIndex runs again.
func (c *Catalog) AttachIndex(ctx context.Context, ix *storage.Index) error {
	c.mu.RLock()
	sets := make([]*Set, 0, len(c.sets))
	for _, s := range c.sets {
		sets = append(sets, s)
	}
	c.mu.RUnlock()
	for _, s := range sets {
		info, ok, err := ix.IconSet(ctx, s.Prefix)
		if err != nil {
			return err
		}
		if ok && info.Checksum == s.Checksum {
			continue
		}
		if err := ix.ReplaceIconSet(ctx, storage.IconSetInfo{Prefix: s.Prefix, Title: s.Title, Checksum: s.Checksum}, s.Names()); err != nil {
			return fmt.Errorf("index %s: %w", s.Prefix, err)
		}
		c.log.Debug("indexed icon set", slog.String("prefix", s.Prefix), slog.Int("icons", len(s.Names())))
	}
	c.mu.Lock()
	c.index = ix
	c.mu.Unlock()
	c.resetCache()
	return nil
}

// Categories returns the category list used for browsing.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Category(nil), c.cats...)
}

// Sets lists loaded sets in result order.
func (c *Catalog) Sets() []SetInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SetInfo, 0, len(c.sets))
	for _, p := range c.orderLocked() {
		s := c.sets[p]
		out = append(out, SetInfo{Prefix: s.Prefix, Title: s.Title, Count: len(s.names)})
	}
	return out
}

// orderLocked returns preferred prefixes first, then the rest alphabetically.
func (c *Catalog) orderLocked() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range DefaultSetOrder {
		if _, ok := c.sets[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []string
	for p := range c.sets {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Resolve implements Resolver.
func (c *Catalog) Resolve(id string) (Glyph, error) {
	prefix, name, ok := domain.SplitIconID(id)
	if !ok {
		return Glyph{}, fmt.Errorf("%w: %q", ErrIconNotFound, id)
	}
	c.mu.RLock()
	s, ok := c.sets[prefix]
	c.mu.RUnlock()
	if !ok {
		return Glyph{}, fmt.Errorf("%w: unknown set %q", ErrIconNotFound, prefix)
	}
	g, ok := s.glyph(name)
	if !ok {
		return Glyph{}, fmt.Errorf("%w: %q", ErrIconNotFound, id)
	}
	g.ID = id
	return g, nil
}

// Search returns icons whose name contains term, at most MaxResultsPerSet per set.
func (c *Catalog) Search(ctx context.Context, term string) ([]Result, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}
	return c.cached(ctx, "q:"+term, []string{term})
}

// Browse returns icons matching any keyword of the category, at most MaxResultsPerSet per set.
// Unknown categories yield no results.
func (c *Catalog) Browse(ctx context.Context, categoryID string) ([]Result, error) {
	cat, ok := findCategory(c.Categories(), categoryID)
	if !ok || len(cat.Keywords) == 0 {
		return nil, nil
	}
	return c.cached(ctx, "c:"+categoryID, cat.Keywords)
}

func (c *Catalog) cached(ctx context.Context, key string, terms []string) ([]Result, error) {
	c.cacheMu.Lock()
	if r, ok := c.cache[key]; ok {
		c.cacheMu.Unlock()
		return r, nil
	}
	c.cacheMu.Unlock()

	res, err := c.lookup(ctx, terms)
	if err != nil {
		return nil, err
	}
	c.cacheMu.Lock()
	c.cache[key] = res
	c.cacheMu.Unlock()
	return res, nil
}

func (c *Catalog) resetCache() {
	c.cacheMu.Lock()
	c.cache = map[string][]Result{}
	c.cacheMu.Unlock()
}

func (c *Catalog) lookup(ctx context.Context, terms []string) ([]Result, error) {
	c.mu.RLock()
	order := c.orderLocked()
	ix := c.index
	sets := make(map[string]*Set, len(c.sets))
	for k, v := range c.sets {
		sets[k] = v
	}
	cats := c.cats
	c.mu.RUnlock()

	byPrefix := map[string][]string{}
	if ix != nil {
		hits, err := ix.SearchIcons(ctx, storage.IconQuery{Terms: terms, Prefixes: order, LimitPerSet: MaxResultsPerSet})
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			byPrefix[h.Prefix] = append(byPrefix[h.Prefix], h.Name)
		}
	} else {
		for _, p := range order {
			byPrefix[p] = matchNames(sets[p].names, terms, MaxResultsPerSet)
		}
	}

	var out []Result
	for _, p := range order {
		s := sets[p]
		for _, n := range byPrefix[p] {
			out = append(out, Result{ID: p + ":" + n, Name: n, Provider: s.Title, Category: Categorize(cats, n)})
		}
	}
	return out, nil
}

func matchNames(names, terms []string, limit int) []string {
	var out []string
	for _, n := range names {
		ln := strings.ToLower(n)
		for _, t := range terms {
			if strings.Contains(ln, strings.ToLower(t)) {
				out = append(out, n)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// GroupByCategory groups results by their category, keeping first-seen order of groups.
func GroupByCategory(rs []Result) (order []string, groups map[string][]Result) {
	groups = map[string][]Result{}
	for _, r := range rs {
		if _, ok := groups[r.Category]; !ok {
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}
	return order, groups
}
