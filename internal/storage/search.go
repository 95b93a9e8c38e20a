/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// IconSetInfo describes one indexed icon set.
type IconSetInfo struct {
	Prefix   string
	Title    string
	Total    int
	Checksum string
	LoadedAt time.Time
}

// IconQuery selects icon names from the index.
// Terms are ORed substring matches on the name (case-insensitive); empty Terms matches all.
// Prefixes restricts the sets searched; empty means every indexed set.
// LimitPerSet caps rows returned per prefix; 0 means 50.
type IconQuery struct {
	Terms       []string
	Prefixes    []string
	LimitPerSet int
}

// IconHit is one matching icon.
type IconHit struct {
	Prefix string
	Name   string
}

// ID returns the "prefix:name" identifier.
func (h IconHit) ID() string { return h.Prefix + ":" + h.Name }

// DefaultIconLimitPerSet is the per-set cap applied when IconQuery.LimitPerSet is zero.
const DefaultIconLimitPerSet = 50

// IconSet returns the indexed set with prefix, or ok=false.
func (ix *Index) IconSet(ctx context.Context, prefix string) (IconSetInfo, bool, error) {
	var info IconSetInfo
	var loaded string
	err := ix.db.QueryRowContext(ctx, `SELECT prefix, title, total, checksum, loaded_at FROM icon_sets WHERE prefix=?`, prefix).
		Scan(&info.Prefix, &info.Title, &info.Total, &info.Checksum, &loaded)
	if err == sql.ErrNoRows {
		return IconSetInfo{}, false, nil
	}
	if err != nil {
		return IconSetInfo{}, false, fmt.Errorf("read icon set: %w", err)
	}
	info.LoadedAt, _ = time.Parse(time.RFC3339, loaded)
	return info, true, nil
}

// IconSets lists indexed sets ordered by prefix.
func (ix *Index) IconSets(ctx context.Context) ([]IconSetInfo, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT prefix, title, total, checksum, loaded_at FROM icon_sets ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("list icon sets: %w", err)
	}
	defer rows.Close()
	var out []IconSetInfo
	for rows.Next() {
		var info IconSetInfo
		var loaded string
		if err := rows.Scan(&info.Prefix, &info.Title, &info.Total, &info.Checksum, &loaded); err != nil {
			return nil, fmt.Errorf("scan icon set: %w", err)
		}
		info.LoadedAt, _ = time.Parse(time.RFC3339, loaded)
		out = append(out, info)
	}
	return out, rows.Err()
}

// ReplaceIconSet swaps the indexed names of one set in a single transaction.
func (ix *Index) ReplaceIconSet(ctx context.Context, info IconSetInfo, names []string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `DELETE FROM icons WHERE prefix=?`, info.Prefix); err != nil {
		return fmt.Errorf("clear icons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO icon_sets(prefix, title, total, checksum, loaded_at) VALUES(?,?,?,?,?)
		ON CONFLICT(prefix) DO UPDATE SET title=excluded.title, total=excluded.total, checksum=excluded.checksum, loaded_at=excluded.loaded_at`,
		info.Prefix, info.Title, len(names), info.Checksum, now); err != nil {
		return fmt.Errorf("upsert icon set: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO icons(prefix, name) VALUES(?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, n := range names {
		if _, err := stmt.ExecContext(ctx, info.Prefix, n); err != nil {
			return fmt.Errorf("insert icon %s: %w", n, err)
		}
	}
	return tx.Commit()
}

// SearchIcons returns matches grouped by prefix, at most LimitPerSet per prefix, names ascending.
func (ix *Index) SearchIcons(ctx context.Context, q IconQuery) ([]IconHit, error) {
	limit := q.LimitPerSet
	if limit <= 0 {
		limit = DefaultIconLimitPerSet
	}
	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT prefix, name FROM (\n")
	sb.WriteString("  SELECT prefix, name, ROW_NUMBER() OVER (PARTITION BY prefix ORDER BY name) AS rn\n")
	sb.WriteString("  FROM icons WHERE 1=1\n")
	if len(q.Prefixes) > 0 {
		sb.WriteString("  AND prefix IN (" + placeholders(len(q.Prefixes)) + ")\n")
		for _, p := range q.Prefixes {
			args = append(args, p)
		}
	}
	var terms []string
	for _, t := range q.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		ors := make([]string, len(terms))
		for i, t := range terms {
			ors[i] = `lower(name) LIKE ? ESCAPE '\'`
			args = append(args, likeContains(escapeLike(t)))
		}
		sb.WriteString("  AND (" + strings.Join(ors, " OR ") + ")\n")
	}
	sb.WriteString(") WHERE rn <= ?\nORDER BY prefix, name")
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("icon search: %w", err)
	}
	defer rows.Close()
	var out []IconHit
	for rows.Next() {
		var h IconHit
		if err := rows.Scan(&h.Prefix, &h.Name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likeContains(s string) string { return "%" + s + "%" }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
