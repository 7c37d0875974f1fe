/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous render events and crash
// reports. Nothing is sent unless VECDRAW_TELEMETRY_OPT_IN is set and an
// endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "vecdraw/internal/log"
	"vecdraw/internal/version"
)

// Env var names read by FromEnv.
const (
	EnvOptIn     = "VECDRAW_TELEMETRY_OPT_IN"
	EnvEventsURL = "VECDRAW_TELEMETRY_URL"
	EnvCrashURL  = "VECDRAW_CRASH_UPLOAD_URL"
	EnvTimeoutMS = "VECDRAW_TELEMETRY_TIMEOUT_MS"
)

// Config holds the endpoints and the per-request timeout.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
}

func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   1500 * time.Millisecond,
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMS)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil && v > 0 {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// RenderEvent describes one finished render. It carries no paths or scene names.
type RenderEvent struct {
	Format string
	Shapes int
	Bytes  int64
	Took   time.Duration
}

// Client posts events from a bounded queue on a background goroutine and
// drops them when the queue is full or a request fails.
type Client struct {
	cfg      Config
	log      *slog.Logger
	cli      *http.Client
	q        chan map[string]any
	inflight sync.WaitGroup
	once     sync.Once
	closed   chan struct{}
}

var (
	defaultClient *Client
	defaultMu     sync.Mutex
)

// Default returns the package client, creating it from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the package client and returns the previous one.
func SetDefault(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events would be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a JSON event. Props must not carry personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	c.inflight.Add(1)
	select {
	case c.q <- payload:
	default:
		c.inflight.Done()
	}
}

// Render queues a "render" event.
func (c *Client) Render(ev RenderEvent) {
	c.Event("render", map[string]any{
		"format": ev.Format,
		"shapes": ev.Shapes,
		"bytes":  ev.Bytes,
		"ms":     ev.Took.Milliseconds(),
	})
}

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the background goroutine. Unsent events are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.send(item)
			c.inflight.Done()
		}
	}
}

func (c *Client) send(item map[string]any) {
	buf, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := c.post(context.Background(), c.cfg.EventsURL, "application/json", buf); err != nil {
		c.log.Debug("telemetry send failed", slog.Any("err", err))
	}
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// UploadCrash posts a crash report and waits for the request to finish,
// since the process exits right after. It is a no-op unless opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if err := c.post(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report); err != nil {
		c.log.Debug("crash upload failed", slog.Any("err", err))
		return
	}
	c.log.Debug("crash report uploaded")
}
