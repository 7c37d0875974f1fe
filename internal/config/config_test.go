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
	"sort"
	"testing"
)

// isolate points Load at a config file inside a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, p)
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Width != 512 || cfg.Render.Height != 512 || !cfg.Render.Antialias || !cfg.Render.Indent {
		t.Fatalf("unexpected defaults: %#v", cfg.Render)
	}
}

func TestEnvOverridesRender(t *testing.T) {
	isolate(t)
	t.Setenv(EnvWidth, "800")
	t.Setenv(EnvAntialias, "off")
	t.Setenv(EnvFlatten, "yes")
	t.Setenv(EnvBackground, "#fecb00")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Width != 800 || cfg.Render.Antialias || !cfg.Render.FlattenCurves {
		t.Fatalf("env overrides not applied: %#v", cfg.Render)
	}
	bg, err := cfg.Render.BackgroundColor()
	if err != nil || bg == nil || bg.Hex(false) != "#FECB00" {
		t.Fatalf("background = %v, %v", bg, err)
	}
	if env, ok := EnvOverrideFor("render.width"); !ok || env != EnvWidth {
		t.Fatalf("EnvOverrideFor(render.width) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("render.height"); ok {
		t.Fatalf("render.height is not overridden")
	}
}

func TestFileKeepsOmittedBooleans(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("render:\n  width: 300\n  indent: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Width != 300 || cfg.Render.Height != 512 {
		t.Fatalf("size not merged: %#v", cfg.Render)
	}
	if !cfg.Render.Antialias {
		t.Fatalf("omitted antialias should stay on")
	}
	if cfg.Render.Indent {
		t.Fatalf("explicit indent: false should be honoured")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/vecdraw.log"
	mergeInto(&dst, &src, []byte("logging:\n  source: true\n"))
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/vecdraw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/x.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/x.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing explicit file should fail")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("render: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("malformed file err = %v, want ErrInvalidConfig", err)
	}
	neg := filepath.Join(t.TempDir(), "neg.yaml")
	if err := os.WriteFile(neg, []byte("render:\n  width: -4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(neg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("negative width err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Render.Precision = 65
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("precision 65 err = %v", err)
	}
	cfg = Defaults()
	cfg.Render.Background = "#zz"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("bad background err = %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Render.Width = 640
	cfg.Render.Antialias = false
	cfg.Store.Path = "/data/scenes.db"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Render.Width != 640 || got.Render.Antialias || got.Store.Path != "/data/scenes.db" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestOverrideKeysSorted(t *testing.T) {
	keys := OverrideKeys()
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("keys not sorted: %v", keys)
	}
	for _, k := range keys {
		if _, ok := overrideEnv[k]; !ok {
			t.Fatalf("unknown key %q", k)
		}
	}
	if len(keys) != len(overrideEnv) {
		t.Fatalf("got %d keys, want %d", len(keys), len(overrideEnv))
	}
}
