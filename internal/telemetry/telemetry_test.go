/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type sink struct {
	mu      sync.Mutex
	events  []record
	crashes []string
	srv     *httptest.Server
}

func newSink(t *testing.T) *sink {
	t.Helper()
	s := &sink{}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode event: %v", err)
		}
		s.mu.Lock()
		s.events = append(s.events, rec)
		s.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.crashes = append(s.crashes, string(b))
		s.mu.Unlock()
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *sink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), len(s.crashes)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventIsPostedAndFlushed(t *testing.T) {
	s := newSink(t)
	c := New(Config{OptIn: true, EventsURL: s.srv.URL + "/events", CrashURL: s.srv.URL + "/crash"})
	defer c.Close()

	c.Event(EventExportPDF, map[string]any{"pages": 2})
	c.Flush(context.Background())

	if n, _ := s.counts(); n != 1 {
		t.Fatalf("events after flush = %d, want 1", n)
	}
	got := s.events[0]
	if got.Name != EventExportPDF || got.TS == "" || got.OS == "" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if diff := cmp.Diff(map[string]any{"pages": float64(2)}, got.Props); diff != "" {
		t.Fatalf("props mismatch (-want +got):\n%s", diff)
	}

	c.UploadCrash([]byte("STACKTRACE"))
	waitFor(t, func() bool { _, n := s.counts(); return n == 1 })
	if s.crashes[0] != "STACKTRACE" {
		t.Fatalf("crash body = %q", s.crashes[0])
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	s := newSink(t)
	off := New(Config{EventsURL: s.srv.URL + "/events", CrashURL: s.srv.URL + "/crash"})
	defer off.Close()
	if off.Enabled() {
		t.Fatalf("client without opt-in reports enabled")
	}
	off.Event(EventServeStarted, nil)
	off.UploadCrash([]byte("x"))

	on := New(Config{OptIn: true, EventsURL: s.srv.URL + "/events"})
	defer on.Close()
	on.Event("", nil)
	on.Flush(context.Background())

	time.Sleep(50 * time.Millisecond)
	if e, c := s.counts(); e != 0 || c != 0 {
		t.Fatalf("unexpected requests: events=%d crashes=%d", e, c)
	}
}

func TestUnreachableEndpointDoesNotBlock(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", Timeout: 50 * time.Millisecond, Debug: true})
	defer c.Close()
	c.Event("err", map[string]any{"a": 1})

	start := time.Now()
	c.Flush(context.Background())
	if time.Since(start) > time.Second {
		t.Fatalf("flush blocked for %v", time.Since(start))
	}
}

func TestFromEnvAndDefaultClient(t *testing.T) {
	t.Setenv(EnvOptIn, "yes")
	t.Setenv(EnvEventsURL, " http://127.0.0.1:0 ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMS, "100")
	t.Setenv(EnvDebug, "")

	want := Config{OptIn: true, EventsURL: "http://127.0.0.1:0", Timeout: 100 * time.Millisecond}
	if diff := cmp.Diff(want, FromEnv()); diff != "" {
		t.Fatalf("FromEnv mismatch (-want +got):\n%s", diff)
	}

	NewDefault(FromEnv())
	if !Enabled() {
		t.Fatalf("default client should be enabled")
	}
	NewDefault(Config{})
	if Enabled() {
		t.Fatalf("replacing the default client did not take effect")
	}
}

func TestFromSettingsPrefersEnv(t *testing.T) {
	t.Setenv(EnvEventsURL, "http://127.0.0.1:0")
	if cfg := FromSettings(true); !cfg.OptIn {
		t.Fatalf("config opt-in should apply when env is unset")
	}
	t.Setenv(EnvOptIn, "no")
	if cfg := FromSettings(true); cfg.OptIn {
		t.Fatalf("explicit env opt-out must win")
	}
}
