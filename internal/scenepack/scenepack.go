/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scenepack moves stored scenes between libraries as zip archives.
package scenepack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
	"vecdraw/internal/storage"
)

// ManifestName is the human-readable entry at the root of every pack.
const ManifestName = "scenepack.manifest.txt"

// Export writes every scene in st to a zip at destZipPath, one YAML
// document per scene under scenes/. It returns the number of scenes written.
// An empty store still produces an archive holding only the manifest.
func Export(ctx context.Context, st *storage.Store, destZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("scenepack"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return 0, errors.New("destZipPath is required")
	}
	list, err := st.ListScenes(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("vecdraw Scene Pack\nCreated: %s\nScenes: %d\n\nEach scenes/*.yaml entry is one scene document.\n",
		time.Now().Format(time.RFC3339), len(list))
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	used := map[string]bool{}
	added := 0
	for _, si := range list {
		doc, err := st.GetScene(ctx, si.Name)
		if err != nil {
			return added, err
		}
		data, err := scene.Marshal(doc)
		if err != nil {
			return added, fmt.Errorf("encode %q: %w", si.Name, err)
		}
		fw, err := zw.Create(entryName(si.Name, used))
		if err != nil {
			return added, fmt.Errorf("add %q: %w", si.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return added, fmt.Errorf("write %q: %w", si.Name, err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return added, fmt.Errorf("build zip: %w", err)
	}
	l.Info("scene pack exported", slog.Int("scenes", added))
	return added, nil
}

// entryName maps a scene name to a unique, path-safe archive entry.
func entryName(name string, used map[string]bool) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
	base := safe
	for i := 2; used[base]; i++ {
		base = fmt.Sprintf("%s-%d", safe, i)
	}
	used[base] = true
	return "scenes/" + base + ".yaml"
}

// Install reads the pack at packZipPath into st. Scenes whose name is
// already stored are skipped, not overwritten. Entries without a name take
// their file name. It returns the number of scenes installed.
func Install(ctx context.Context, st *storage.Store, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("scenepack"), "install").With(slog.String("zip", packZipPath))
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || f.Name == ManifestName {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".yaml", ".yml", ".json":
		default:
			l.Warn("skip non-scene entry", slog.String("entry", f.Name))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, err
		}
		doc, err := scene.Parse(data)
		if err != nil {
			return installed, fmt.Errorf("%s: %w", f.Name, err)
		}
		if strings.TrimSpace(doc.Name) == "" {
			doc.Name = strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
		}
		if _, err := st.GetScene(ctx, doc.Name); err == nil {
			l.Warn("skip existing scene", slog.String("scene", doc.Name))
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return installed, err
		}
		if err := st.PutScene(ctx, doc); err != nil {
			return installed, fmt.Errorf("%s: %w", f.Name, err)
		}
		installed++
	}
	l.Info("scene pack installed", slog.Int("scenes", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
