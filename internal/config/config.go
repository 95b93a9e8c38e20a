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
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type StorageConfig struct {
	// DataDir holds cardCollections.json, backups/, icons/ and the index database.
	// Empty means the per-OS default (see DefaultDataDir).
	DataDir string `yaml:"data_dir"`
}

type ExportConfig struct {
	PageFormat  string `yaml:"page_format"` // only "A4" is laid out today
	Columns     int    `yaml:"columns"`
	Rows        int    `yaml:"rows"`
	DPI         int    `yaml:"dpi"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RenderConfig struct {
	// FontPath optionally points at a TTF/OTF used for card text; empty uses Go Regular.
	FontPath string `yaml:"font_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Storage       StorageConfig `yaml:"storage"`
	Export        ExportConfig  `yaml:"export"`
	Server        ServerConfig  `yaml:"server"`
	Render        RenderConfig  `yaml:"render"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Export:        ExportConfig{PageFormat: "A4", Columns: 2, Rows: 2, DPI: 150, JPEGQuality: 95},
		Server:        ServerConfig{Addr: "127.0.0.1:8787"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir      = "DC_CONFIG_DIR"
	EnvDataDir        = "DC_DATA_DIR"
	EnvTelemetryOptIn = "DC_TELEMETRY_OPT_IN"
	EnvServerAddr     = "DC_SERVER_ADDR"
	EnvExportDPI      = "DC_EXPORT_DPI"
	EnvFontPath       = "DC_FONT_PATH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "DC_LOG_LEVEL"
	EnvLogFormat = "DC_LOG_FORMAT"
	EnvLogSource = "DC_LOG_SOURCE"
	EnvLogFile   = "DC_LOG_FILE"
)

// ConfigDir returns the per-user config directory. DC_CONFIG_DIR wins when set.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DataCards")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DataCards")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "datacards")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "datacards")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDataDir returns where collections live when storage.data_dir is unset.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LocalAppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(base, "DataCards")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DataCards", "data")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "datacards")
		}
		return filepath.Join(os.Getenv("HOME"), ".local", "share", "datacards")
	}
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A config file that cannot be parsed is ignored in favor of defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ResolvedDataDir returns storage.data_dir or the per-OS default.
func (c AppConfig) ResolvedDataDir() string {
	if strings.TrimSpace(c.Storage.DataDir) != "" {
		return c.Storage.DataDir
	}
	return DefaultDataDir()
}

func (c *AppConfig) normalize() {
	d := Defaults().Export
	if c.Export.Columns <= 0 {
		c.Export.Columns = d.Columns
	}
	if c.Export.Rows <= 0 {
		c.Export.Rows = d.Rows
	}
	if c.Export.DPI <= 0 {
		c.Export.DPI = d.DPI
	}
	if c.Export.JPEGQuality <= 0 || c.Export.JPEGQuality > 100 {
		c.Export.JPEGQuality = d.JPEGQuality
	}
	if strings.TrimSpace(c.Export.PageFormat) == "" {
		c.Export.PageFormat = d.PageFormat
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if strings.TrimSpace(src.Storage.DataDir) != "" {
		dst.Storage.DataDir = strings.TrimSpace(src.Storage.DataDir)
	}
	if src.Export.PageFormat != "" {
		dst.Export.PageFormat = strings.ToUpper(strings.TrimSpace(src.Export.PageFormat))
	}
	if src.Export.Columns != 0 {
		dst.Export.Columns = src.Export.Columns
	}
	if src.Export.Rows != 0 {
		dst.Export.Rows = src.Export.Rows
	}
	if src.Export.DPI != 0 {
		dst.Export.DPI = src.Export.DPI
	}
	if src.Export.JPEGQuality != 0 {
		dst.Export.JPEGQuality = src.Export.JPEGQuality
	}
	if strings.TrimSpace(src.Server.Addr) != "" {
		dst.Server.Addr = strings.TrimSpace(src.Server.Addr)
	}
	if strings.TrimSpace(src.Render.FontPath) != "" {
		dst.Render.FontPath = strings.TrimSpace(src.Render.FontPath)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDPI)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.DPI = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontPath)); v != "" {
		cfg.Render.FontPath = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var overrideKeys = map[string]string{
	"storage.data_dir":         EnvDataDir,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"server.addr":              EnvServerAddr,
	"export.dpi":               EnvExportDPI,
	"render.font_path":         EnvFontPath,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
