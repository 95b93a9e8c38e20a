/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


// Package log sets up the process-wide slog logger.
//
// Console output is a compact colored line format meant for a terminal, or JSON when
// DC_LOG_FORMAT=json. A rotating JSON file can be added next to it. Records logged with a
// context tagged by ContextWithCollection or ContextWithCard carry those ids automatically.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"datacards/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format and sinks. The zero value logs INFO to stderr.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // console or json
	AddSource bool
	File      string // rotated JSON log file, optional

	// Writer replaces stderr for the console sink.
	Writer io.Writer
}

// Environment variables read by FromEnv.
const (
	EnvLevel  = "DC_LOG_LEVEL"
	EnvFormat = "DC_LOG_FORMAT"
	EnvSource = "DC_LOG_SOURCE"
	EnvFile   = "DC_LOG_FILE"
)

const (
	fileMaxMB      = 5
	fileMaxBackups = 3
	fileMaxAgeDays = 14
)

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// L returns the process logger. Before Init has run it is built from the environment.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		return Init(FromEnv())
	}
	return l
}

// Init replaces the process logger and slog's default, and returns it.
func Init(opts Options) *slog.Logger {
	lvl := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	var sinks []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(w, hopts))
	} else {
		sinks = append(sinks, newConsoleHandler(w, hopts))
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: fileMaxMB, MaxBackups: fileMaxBackups, MaxAge: fileMaxAgeDays}
		sinks = append(sinks, slog.NewJSONHandler(rot, hopts))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}
	l := slog.New(idHandler{h}).With(slog.String("app", "datacards"), slog.String("ver", version.Version))

	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// FromEnv reads Options from the DC_LOG_* variables.
func FromEnv() Options {
	src, _ := os.LookupEnv(EnvSource)
	return Options{
		Level:     os.Getenv(EnvLevel),
		Format:    os.Getenv(EnvFormat),
		AddSource: src == "1" || strings.EqualFold(src, "true"),
		File:      os.Getenv(EnvFile),
	}
}

// ParseLevel maps a level name to a slog.Level. Unknown names give INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithComponent returns the process logger tagged with a component name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type ctxKey struct{ name string }

var (
	collectionKey = ctxKey{"collection"}
	cardKey       = ctxKey{"card"}
)

// ContextWithCollection tags ctx with the collection being worked on.
func ContextWithCollection(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, collectionKey, id)
}

// ContextWithCard tags ctx with the card being worked on.
func ContextWithCard(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cardKey, id)
}

// CollectionFromContext returns the id set by ContextWithCollection.
func CollectionFromContext(ctx context.Context) (string, bool) { return idFrom(ctx, collectionKey) }

// CardFromContext returns the id set by ContextWithCard.
func CardFromContext(ctx context.Context) (string, bool) { return idFrom(ctx, cardKey) }

func idFrom(ctx context.Context, k ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(k).(string)
	return v, ok && v != ""
}

// idHandler copies context ids onto the record.
type idHandler struct{ slog.Handler }

func (h idHandler) Handle(ctx context.Context, r slog.Record) error {
	col, hasCol := CollectionFromContext(ctx)
	card, hasCard := CardFromContext(ctx)
	if hasCol || hasCard {
		r = r.Clone()
		if hasCol {
			r.AddAttrs(slog.String("collection", col))
		}
		if hasCard {
			r.AddAttrs(slog.String("card", card))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h idHandler) WithAttrs(as []slog.Attr) slog.Handler { return idHandler{h.Handler.WithAttrs(as)} }
func (h idHandler) WithGroup(name string) slog.Handler { return idHandler{h.Handler.WithGroup(name)} }

// fanout sends every record to all sinks that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(as []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(as)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
