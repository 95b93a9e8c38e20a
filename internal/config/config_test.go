/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	return dir
}

func TestEnvOverridesDataDir(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDataDir, "/srv/cards")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.ResolvedDataDir(), "/srv/cards"; got != want {
		t.Fatalf("ResolvedDataDir = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("storage.data_dir"); !ok || env != EnvDataDir {
		t.Fatalf("EnvOverrideFor(storage.data_dir) = %q, %v", env, ok)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Defaults()
	cfg.Export.Columns = 3
	cfg.Export.Rows = 4
	cfg.Server.Addr = "127.0.0.1:9999"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Export.Columns != 3 || got.Export.Rows != 4 || got.Server.Addr != "127.0.0.1:9999" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestLoadIgnoresBrokenFileAndNormalizes(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("export: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Export.Columns != 2 || cfg.Export.Rows != 2 || cfg.Export.JPEGQuality != 95 {
		t.Fatalf("expected defaults, got %#v", cfg.Export)
	}

	bad := Defaults()
	bad.Export.JPEGQuality = 500
	bad.Export.Columns = -1
	bad.normalize()
	if bad.Export.JPEGQuality != 95 || bad.Export.Columns != 2 {
		t.Fatalf("normalize did not clamp: %#v", bad.Export)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/dc.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/dc.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/dc.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/dc.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

type memStore struct {
	m      map[string]string
	getErr error
}

func (s *memStore) Get(service, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}

func (s *memStore) Delete(service, key string) error {
	if _, ok := s.m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(s.m, service+"/"+key)
	return nil
}

func stubStore(t *testing.T, s TokenStore) {
	t.Helper()
	old := tokenStore
	tokenStore = s
	t.Cleanup(func() { tokenStore = old })
}

func TestPrintSecretCreatedOnceAndRotated(t *testing.T) {
	stubStore(t, &memStore{m: map[string]string{}})

	first, err := PrintSecret()
	if err != nil {
		t.Fatalf("PrintSecret: %v", err)
	}
	if len(first) != 2*printSecretBytes {
		t.Fatalf("unexpected secret length %d", len(first))
	}
	again, err := PrintSecret()
	if err != nil || again != first {
		t.Fatalf("secret not stable: %q vs %q (%v)", again, first, err)
	}

	if err := RotatePrintSecret(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := RotatePrintSecret(); err != nil {
		t.Fatalf("Rotate on empty keyring should be a no-op: %v", err)
	}
	rotated, err := PrintSecret()
	if err != nil || rotated == first {
		t.Fatalf("rotation did not issue a new secret (%v)", err)
	}
}

func TestPrintSecretKeyringUnavailable(t *testing.T) {
	stubStore(t, &memStore{m: map[string]string{}, getErr: errors.New("dbus down")})
	s, err := PrintSecret()
	if err == nil {
		t.Fatalf("expected keyring error")
	}
	if s == "" {
		t.Fatalf("expected an ephemeral secret alongside the error")
	}
}
