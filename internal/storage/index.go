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
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	applog "datacards/internal/log"
	"datacards/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"
	// indexBackupsDir lives next to the slot backups.
	indexBackupsDir = BackupsDirName
)

//go:embed migrations/*.sql
var indexMigrations embed.FS

// Index is the embedded SQLite database holding derived data (icon names, card rasters).
type Index struct {
	db   *sql.DB
	path string
}

// IndexPath returns the full path to the index database file inside dataDir.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFileName)
}

// OpenIndex opens (creating if needed) the index at <dataDir>/index.sqlite, enables WAL
// and applies embedded migrations.
func OpenIndex(dataDir string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := IndexPath(dataDir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := migrateIndex(db); err != nil {
		_ = db.Close()
		l.Error("migrations failed", slog.Any("err", err))
		return nil, err
	}
	if err := stampMeta(ctx, db); err != nil {
		l.Warn("stamp meta failed", slog.Any("err", err))
	}
	l.Debug("index ready", slog.String("path", path))
	return &Index{db: db, path: path}, nil
}

func migrateIndex(db *sql.DB) error {
	src, err := iofs.New(indexMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	dst, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", dst)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// already up to date
	case err != nil:
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func stampMeta(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('app', ?), ('opened_at', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, version.String(), now)
	return err
}

// Path returns the database file path.
func (ix *Index) Path() string { return ix.path }

// DB exposes the underlying handle for packages that keep their own tables.
func (ix *Index) DB() *sql.DB { return ix.db }

// Close releases the database handle.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// SchemaVersion reports the applied migration version.
func (ix *Index) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	var dirty bool
	err := ix.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&v, &dirty)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty", v)
	}
	return v, nil
}

// healthy runs quick_check and probes the tables we rely on.
func (ix *Index) healthy(ctx context.Context) bool {
	var chk string
	if err := ix.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		return false
	}
	for _, q := range []string{`SELECT 1 FROM icons LIMIT 1`, `SELECT 1 FROM rasters LIMIT 1`} {
		if _, err := ix.db.ExecContext(ctx, q); err != nil {
			return false
		}
	}
	return true
}

// OpenOrRebuildIndex opens the index and, when it cannot be opened or fails its health
// check, backs the file up, deletes it and creates a fresh one. rebuilt reports whether
// that happened; callers repopulate derived data afterwards.
func OpenOrRebuildIndex(ctx context.Context, dataDir string) (ix *Index, rebuilt bool, err error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_rebuild")
	path := IndexPath(dataDir)
	ix, err = OpenIndex(dataDir)
	if err == nil {
		if ix.healthy(ctx) {
			return ix, false, nil
		}
		_ = ix.Close()
	}
	l.Warn("index unusable, rebuilding", slog.String("path", path), slog.Any("err", err))
	backupIndexFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	ix, err = OpenIndex(dataDir)
	if err != nil {
		return nil, false, fmt.Errorf("rebuild index: %w", err)
	}
	return ix, true, nil
}

// backupIndexFile copies the current index file into a timestamped backup.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), indexBackupsDir)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
