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
	"log/slog"
	"strings"
	"time"

	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
)

// SceneInfo summarizes a stored scene.
type SceneInfo struct {
	Name      string
	Shapes    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Render records one output produced from a stored scene.
type Render struct {
	ID         int64
	Scene      string
	Format     string
	Output     string
	Width      int
	Height     int
	Bytes      int64
	RenderedAt time.Time
}

// PutScene validates doc and stores it under doc.Name, replacing any
// scene of that name. The creation time of a replaced scene is kept.
func (s *Store) PutScene(ctx context.Context, doc scene.Document) error {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return errors.New("scene name is required")
	}
	doc.Name = name
	body, err := scene.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode scene %q: %w", name, err)
	}
	// Only documents that parse back and build a canvas are stored.
	parsed, err := scene.Parse(body)
	if err != nil {
		return err
	}
	if _, err := parsed.Canvas(); err != nil {
		return err
	}
	now := s.stamp()
	_, err = s.db.ExecContext(ctx, `INSERT INTO scenes(name, body, shapes, created_at, updated_at) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body=excluded.body, shapes=excluded.shapes, updated_at=excluded.updated_at`,
		name, string(body), len(doc.Shapes), now, now)
	if err != nil {
		return fmt.Errorf("put scene %q: %w", name, err)
	}
	applog.WithComponent("storage").Debug("scene stored", slog.String("scene", name), slog.Int("shapes", len(doc.Shapes)))
	return nil
}

// GetScene loads the named scene.
func (s *Store) GetScene(ctx context.Context, name string) (scene.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM scenes WHERE name=?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return scene.Document{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return scene.Document{}, fmt.Errorf("get scene %q: %w", name, err)
	}
	return scene.Parse([]byte(body))
}

// ListScenes returns all stored scenes ordered by name.
func (s *Store) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, shapes, created_at, updated_at FROM scenes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	var out []SceneInfo
	for rows.Next() {
		var (
			si               SceneInfo
			created, updated string
		)
		if err := rows.Scan(&si.Name, &si.Shapes, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		si.CreatedAt = parseStamp(created)
		si.UpdatedAt = parseStamp(updated)
		out = append(out, si)
	}
	return out, rows.Err()
}

// DeleteScene removes the named scene and its render log.
func (s *Store) DeleteScene(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM renders WHERE scene=?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete renders of %q: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE name=?`, name)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete scene %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return tx.Commit()
}

// RecordRender appends r to the render log of r.Scene and returns its id.
// A zero RenderedAt is set to the current time.
func (s *Store) RecordRender(ctx context.Context, r Render) (int64, error) {
	if err := s.requireScene(ctx, r.Scene); err != nil {
		return 0, err
	}
	at := s.stamp()
	if !r.RenderedAt.IsZero() {
		at = r.RenderedAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO renders(scene, format, output, width, height, bytes, rendered_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		r.Scene, r.Format, r.Output, r.Width, r.Height, r.Bytes, at)
	if err != nil {
		return 0, fmt.Errorf("record render of %q: %w", r.Scene, err)
	}
	return res.LastInsertId()
}

// Renders returns the render log of the named scene, oldest first.
func (s *Store) Renders(ctx context.Context, name string) ([]Render, error) {
	if err := s.requireScene(ctx, name); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, scene, format, output, width, height, bytes, rendered_at FROM renders WHERE scene=? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("list renders of %q: %w", name, err)
	}
	defer rows.Close()
	var out []Render
	for rows.Next() {
		var (
			r  Render
			at string
		)
		if err := rows.Scan(&r.ID, &r.Scene, &r.Format, &r.Output, &r.Width, &r.Height, &r.Bytes, &at); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		r.RenderedAt = parseStamp(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) requireScene(ctx context.Context, name string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scenes WHERE name=?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("lookup scene %q: %w", name, err)
	}
	return nil
}

func (s *Store) stamp() string { return s.now().UTC().Format(time.RFC3339Nano) }

func parseStamp(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}
