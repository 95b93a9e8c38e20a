/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestConsoleHandlerFormat(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error disabled at warn level")
	}

	hh := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.String("name", "two words"))
	if err := hh.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	want := `09:30:00 ERR boom k=v grp.n=42 grp.pi=3.14 grp.name="two words"` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("line mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestConsoleHandlerGroupAttr(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, nil))
	l.Info("sized", slog.Group("cell", slog.Int("w", 3), slog.Int("h", 4)), slog.String("empty", ""))
	if !strings.Contains(buf.String(), "cell.w=3 cell.h=4") || !strings.Contains(buf.String(), `empty=""`) {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestConsoleHandlerAddSource(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	l.Info("located")
	if !strings.Contains(buf.String(), " src=console_test.go:") {
		t.Fatalf("source missing: %q", buf.String())
	}
}
