/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


// Package telemetry sends anonymous, opt-in usage events and crash reports.
//
// Nothing leaves the machine unless the user opted in and an endpoint URL is configured.
// Events carry an event name, the app version, the platform and a few counts. They never
// carry collection names, questions or option texts.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "datacards/internal/log"
	"datacards/internal/version"
)

// Event names.
const (
	EventCollectionCreated = "collection_created"
	EventExportPDF         = "export_pdf"
	EventExportPNG         = "export_png"
	EventServeStarted      = "serve_started"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "DC_TELEMETRY_OPT_IN"
	EnvEventsURL = "DC_TELEMETRY_URL"
	EnvCrashURL  = "DC_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "DC_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "DC_TELEMETRY_DEBUG"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
	flushWait      = 500 * time.Millisecond
)

// Config selects endpoints and opt-in state.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
	Debug     bool // log every send attempt at debug level
}

// FromEnv reads Config from the DC_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:     truthy(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   defaultTimeout,
		Debug:     os.Getenv(EnvDebug) != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMS))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// FromSettings is FromEnv with the opt-in taken from the user config, unless the
// environment sets it explicitly.
func FromSettings(optIn bool) Config {
	cfg := FromEnv()
	if _, set := os.LookupEnv(EnvOptIn); !set {
		cfg.OptIn = optIn
	}
	return cfg
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

type record struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from one background goroutine.
// A full queue drops events. Send errors are ignored.
type Client struct {
	cfg     Config
	log     *slog.Logger
	http    *http.Client
	queue   chan record
	pending atomic.Int64
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New starts a client. Close stops it.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:   cfg,
		log:   applog.WithComponent("telemetry"),
		http:  &http.Client{Timeout: cfg.Timeout},
		queue: make(chan record, queueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether events would be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues an event. Props must not hold user content.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	r := record{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		r.Props = make(map[string]any, len(props))
		for k, v := range props {
			r.Props[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.queue <- r:
	default:
		c.pending.Add(-1)
	}
}

// Flush waits until queued events were sent, ctx ends, or half a second passed.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flushWait)
	defer cancel()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for c.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// Close stops the sender. Events still queued are dropped.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.stop)
		<-c.done
	})
}

func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case r := <-c.queue:
			body, err := json.Marshal(r)
			if err == nil {
				c.post(c.cfg.EventsURL, "application/json", body, "event")
			}
			c.pending.Add(-1)
		}
	}
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "datacards/"+version.Version)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.Debug {
			c.log.Debug("telemetry post failed", slog.String("what", what), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.Debug {
		c.log.Debug("telemetry posted", slog.String("what", what), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report in the background when the user opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	body := append([]byte(nil), report...)
	go c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", body, "crash")
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// NewDefault installs a client built from cfg as the package default, closing the previous one.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// current returns the default client, creating it from the environment on first use.
func current() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// Enabled reports whether the default client sends events.
func Enabled() bool { return current().Enabled() }

// Event queues an event on the default client.
func Event(name string, props map[string]any) { current().Event(name, props) }

// UploadCrash posts a crash report with the default client.
func UploadCrash(report []byte) { current().UploadCrash(report) }

// Flush drains the default client if one exists.
func Flush(ctx context.Context) {
	defaultMu.Lock()
	c := defaultClient
	defaultMu.Unlock()
	c.Flush(ctx)
}
