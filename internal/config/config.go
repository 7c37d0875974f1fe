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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vecdraw/internal/vector"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

// RenderConfig holds the defaults the CLI hands to the renderers.
type RenderConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Antialias     bool   `yaml:"antialias"`
	FlattenCurves bool   `yaml:"flatten_curves"`
	Precision     int    `yaml:"precision"`
	InlineStyle   bool   `yaml:"inline_style"`
	Indent        bool   `yaml:"indent"`
	Background    string `yaml:"background"` // hex; empty means transparent
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Render        RenderConfig  `yaml:"render"`
	Store         StoreConfig   `yaml:"store"`
	Logging       LoggingConfig `yaml:"logging"`
}

// ErrInvalidConfig is returned for config values no renderer could use.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Render: RenderConfig{
			Width: 512, Height: 512, Antialias: true, Precision: 3,
			InlineStyle: false, Indent: true, Background: "",
		},
		Store:   StoreConfig{Path: defaultStorePath()},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile  = "VECDRAW_CONFIG"
	EnvWidth       = "VECDRAW_WIDTH"
	EnvHeight      = "VECDRAW_HEIGHT"
	EnvAntialias   = "VECDRAW_ANTIALIAS"
	EnvFlatten     = "VECDRAW_FLATTEN"
	EnvPrecision   = "VECDRAW_PRECISION"
	EnvInlineStyle = "VECDRAW_INLINE_STYLE"
	EnvIndent      = "VECDRAW_INDENT"
	EnvBackground  = "VECDRAW_BACKGROUND"
	EnvStorePath   = "VECDRAW_STORE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "VECDRAW_LOG_LEVEL"
	EnvLogFormat = "VECDRAW_LOG_FORMAT"
	EnvLogSource = "VECDRAW_LOG_SOURCE"
	EnvLogFile   = "VECDRAW_LOG_FILE"
)

func userDir() string {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "vecdraw")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "vecdraw")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "vecdraw")
	}
	return base
}

func defaultStorePath() string { return filepath.Join(userDir(), "scenes.db") }

// ConfigPath returns the per-user config file path. VECDRAW_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base := userDir()
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment
// overrides. A missing or unreadable file is not an error; a malformed one is skipped, matching
// the behaviour of a fresh install.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg, data)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// LoadFile reads an explicit config file. Unlike Load, a missing or malformed
// file is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var fileCfg AppConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	mergeInto(&cfg, &fileCfg, data)
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
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

// Validate checks the render defaults.
func (c AppConfig) Validate() error {
	r := c.Render
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, r.Width, r.Height)
	}
	if r.Precision < 0 || r.Precision > 64 {
		return fmt.Errorf("%w: precision %d out of range 0..64", ErrInvalidConfig, r.Precision)
	}
	if _, err := r.BackgroundColor(); err != nil {
		return fmt.Errorf("%w: background: %v", ErrInvalidConfig, err)
	}
	return nil
}

// BackgroundColor parses Background. An empty value yields nil (transparent).
func (r RenderConfig) BackgroundColor() (*vector.Color, error) {
	if strings.TrimSpace(r.Background) == "" {
		return nil, nil
	}
	c, err := vector.FromHex(strings.TrimSpace(r.Background))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// mergeInto copies the fields present in the file over the defaults. Booleans are only taken
// when their key appears in raw, so a file that omits antialias keeps it on.
func mergeInto(dst *AppConfig, src *AppConfig, raw []byte) {
	var present struct {
		Render  map[string]any `yaml:"render"`
		Logging map[string]any `yaml:"logging"`
	}
	_ = yaml.Unmarshal(raw, &present)
	has := func(m map[string]any, k string) bool { _, ok := m[k]; return ok }

	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Render.Width != 0 {
		dst.Render.Width = src.Render.Width
	}
	if src.Render.Height != 0 {
		dst.Render.Height = src.Render.Height
	}
	if has(present.Render, "precision") {
		dst.Render.Precision = src.Render.Precision
	}
	if has(present.Render, "antialias") {
		dst.Render.Antialias = src.Render.Antialias
	}
	if has(present.Render, "flatten_curves") {
		dst.Render.FlattenCurves = src.Render.FlattenCurves
	}
	if has(present.Render, "inline_style") {
		dst.Render.InlineStyle = src.Render.InlineStyle
	}
	if has(present.Render, "indent") {
		dst.Render.Indent = src.Render.Indent
	}
	if strings.TrimSpace(src.Render.Background) != "" {
		dst.Render.Background = strings.TrimSpace(src.Render.Background)
	}
	if strings.TrimSpace(src.Store.Path) != "" {
		dst.Store.Path = strings.TrimSpace(src.Store.Path)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if has(present.Logging, "source") {
		dst.Logging.Source = src.Logging.Source
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Width = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHeight)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Height = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrecision)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Precision = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAntialias)); v != "" {
		cfg.Render.Antialias = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFlatten)); v != "" {
		cfg.Render.FlattenCurves = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvInlineStyle)); v != "" {
		cfg.Render.InlineStyle = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndent)); v != "" {
		cfg.Render.Indent = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackground)); v != "" {
		cfg.Render.Background = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		cfg.Store.Path = v
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

var overrideEnv = map[string]string{
	"render.width":          EnvWidth,
	"render.height":         EnvHeight,
	"render.antialias":      EnvAntialias,
	"render.flatten_curves": EnvFlatten,
	"render.precision":      EnvPrecision,
	"render.inline_style":   EnvInlineStyle,
	"render.indent":         EnvIndent,
	"render.background":     EnvBackground,
	"store.path":            EnvStorePath,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideEnv[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// OverrideKeys lists the dotted config keys that have an environment override, sorted.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrideEnv))
	for k := range overrideEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
