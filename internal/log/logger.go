/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for vecdraw.
// It offers a console handler (human-friendly text or JSON), optional rotating
// JSON file output, and a handler that adds the operation carried by a
// context. Library packages log at debug level only, so the default INFO
// logger keeps rendering silent.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"vecdraw/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Env var names read by FromEnv.
const (
	EnvLevel  = "VECDRAW_LOG_LEVEL"  // debug|info|warn|error
	EnvFormat = "VECDRAW_LOG_FORMAT" // console|json
	EnvSource = "VECDRAW_LOG_SOURCE" // true|false
	EnvFile   = "VECDRAW_LOG_FILE"   // path; enables rotated JSON file output
)

// Options controls logger initialization. Zero values mean INFO level,
// console format, no source, console on stderr and no file.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string    // optional path for file logging (rotated)
	Console   io.Writer // console destination; nil means os.Stderr

	// Rotation of File; zero picks 10 MB and 3 backups.
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	level   = new(slog.LevelVar)
	file    *lj.Logger
)

// L returns the default application logger, initializing from env if needed.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init configures the global logger and sets slog.Default as well.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	var handlers []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(console, hopts))
	} else {
		handlers = append(handlers, &consoleHandler{level: level, source: opts.AddSource, w: console, mu: new(sync.Mutex)})
	}
	if w := rotator(strings.TrimSpace(opts.File), opts); w != nil {
		handlers = append(handlers, slog.NewJSONHandler(w, hopts))
	}

	var h slog.Handler = &contextHandler{next: handlers[0]}
	if len(handlers) > 1 {
		h = &contextHandler{next: fanout(handlers)}
	}
	logger := slog.New(h).With(
		slog.String("app", "vecdraw"),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)

	mu.Lock()
	current = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// rotator returns the rotating writer for path. The open one is reused while
// the path is unchanged; any other is closed. An empty path closes the file.
func rotator(path string, opts Options) *lj.Logger {
	mu.Lock()
	defer mu.Unlock()
	if file != nil && file.Filename == path {
		return file
	}
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path == "" {
		return nil
	}
	size, backups := opts.MaxSizeMB, opts.MaxBackups
	if size <= 0 {
		size = 10
	}
	if backups <= 0 {
		backups = 3
	}
	file = &lj.Logger{Filename: path, MaxSize: size, MaxBackups: backups, MaxAge: 28, Compress: true}
	return file
}

// Close closes the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type opKey struct{}

// ContextWithOperation tags ctx so records logged with it (via the
// *Context slog methods) carry an "op" attribute.
func ContextWithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey{}, op)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
