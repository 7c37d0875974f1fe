/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"vecdraw/internal/scene"

	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "scenes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenCreatesWALAndMetaVersion(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	var mode string
	if err := st.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var schema int
	if err := st.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
	var format string
	if err := st.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='body_format'`).Scan(&format); err != nil || format != "yaml" {
		t.Fatalf("body_format = %q, %v", format, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.db")
	ctx := context.Background()
	st, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := st.PutScene(ctx, scene.Smiley()); err != nil {
		t.Fatalf("PutScene: %v", err)
	}
	_ = st.Close()

	st, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer st.Close()
	list, err := st.ListScenes(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "smiley" {
		t.Fatalf("scenes after reopen = %+v, %v", list, err)
	}
	if st.Path() != path {
		t.Fatalf("Path = %q", st.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMigrationFromVersionOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	ctx := context.Background()
	st, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	// Simulate a version 1 store.
	if _, err := st.db.ExecContext(ctx, `DROP INDEX idx_renders_scene`); err != nil {
		t.Fatal(err)
	}
	if _, err := st.db.ExecContext(ctx, `UPDATE version SET schema=1 WHERE id=1`); err != nil {
		t.Fatal(err)
	}
	_ = st.Close()

	st, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	var schema int
	_ = st.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema)
	if schema != schemaVersion {
		t.Fatalf("schema after migration = %d", schema)
	}
	var name string
	err = st.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='index' AND name='idx_renders_scene'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) || err != nil {
		t.Fatalf("render index missing after migration: %v", err)
	}
}

func TestPutGetScene(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	want := scene.Smiley()
	if err := st.PutScene(ctx, want); err != nil {
		t.Fatalf("PutScene: %v", err)
	}
	got, err := st.GetScene(ctx, "smiley")
	if err != nil {
		t.Fatalf("GetScene: %v", err)
	}
	a, err := got.Canvas()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := want.Canvas()
	if !reflect.DeepEqual(a.Items(), b.Items()) || got.Background != want.Background || got.Size != want.Size {
		t.Fatalf("stored scene differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestPutSceneReplacesAndKeepsCreation(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return clock }

	doc := scene.Smiley()
	if err := st.PutScene(ctx, doc); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Hour)
	doc.Shapes = doc.Shapes[:1]
	if err := st.PutScene(ctx, doc); err != nil {
		t.Fatal(err)
	}
	list, err := st.ListScenes(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListScenes = %+v, %v", list, err)
	}
	si := list[0]
	if si.Shapes != 1 || !si.CreatedAt.Equal(clock.Add(-time.Hour)) || !si.UpdatedAt.Equal(clock) {
		t.Fatalf("replace bookkeeping wrong: %+v", si)
	}
}

func TestPutSceneRejectsInvalid(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.PutScene(ctx, scene.Document{Name: " "}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	bad := scene.Document{Name: "bad", Shapes: []scene.ShapeSpec{{Kind: "circle"}}}
	if err := st.PutScene(ctx, bad); !errors.Is(err, scene.ErrInvalidScene) {
		t.Fatalf("err = %v, want ErrInvalidScene", err)
	}
	badPath := scene.Document{Name: "bad", Shapes: []scene.ShapeSpec{{Kind: "path", D: "M 0"}}}
	if err := st.PutScene(ctx, badPath); !errors.Is(err, scene.ErrInvalidScene) {
		t.Fatalf("err = %v, want ErrInvalidScene", err)
	}
	if list, _ := st.ListScenes(ctx); len(list) != 0 {
		t.Fatalf("invalid scenes were stored: %+v", list)
	}
}

func TestListScenesOrdered(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		doc := scene.Smiley()
		doc.Name = n
		if err := st.PutScene(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}
	list, err := st.ListScenes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, si := range list {
		names = append(names, si.Name)
	}
	if fmt.Sprint(names) != "[alpha mid zeta]" {
		t.Fatalf("order = %v", names)
	}
}

func TestMissingSceneIsNotFound(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.GetScene(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetScene err = %v", err)
	}
	if err := st.DeleteScene(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteScene err = %v", err)
	}
	if _, err := st.RecordRender(ctx, Render{Scene: "nope", Format: "png"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordRender err = %v", err)
	}
	if _, err := st.Renders(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Renders err = %v", err)
	}
}

func TestRenderLog(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.PutScene(ctx, scene.Smiley()); err != nil {
		t.Fatal(err)
	}
	if rs, err := st.Renders(ctx, "smiley"); err != nil || len(rs) != 0 {
		t.Fatalf("fresh scene renders = %+v, %v", rs, err)
	}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id1, err := st.RecordRender(ctx, Render{Scene: "smiley", Format: "png", Output: "/tmp/a.png", Width: 1000, Height: 1000, Bytes: 1234, RenderedAt: at})
	if err != nil {
		t.Fatalf("RecordRender: %v", err)
	}
	id2, err := st.RecordRender(ctx, Render{Scene: "smiley", Format: "svg", Output: "/tmp/a.svg", Width: 1000, Height: 1000, Bytes: 99})
	if err != nil {
		t.Fatalf("RecordRender: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids not increasing: %d, %d", id1, id2)
	}
	rs, err := st.Renders(ctx, "smiley")
	if err != nil || len(rs) != 2 {
		t.Fatalf("Renders = %+v, %v", rs, err)
	}
	if rs[0].ID != id1 || rs[0].Format != "png" || rs[0].Bytes != 1234 || !rs[0].RenderedAt.Equal(at) {
		t.Fatalf("first render wrong: %+v", rs[0])
	}
	if rs[1].Format != "svg" || rs[1].RenderedAt.IsZero() {
		t.Fatalf("second render wrong: %+v", rs[1])
	}

	if err := st.DeleteScene(ctx, "smiley"); err != nil {
		t.Fatalf("DeleteScene: %v", err)
	}
	var n int
	_ = st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM renders`).Scan(&n)
	if n != 0 {
		t.Fatalf("render log survived delete: %d rows", n)
	}
}

func TestCloseNilSafe(t *testing.T) {
	var st *Store
	if err := st.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
