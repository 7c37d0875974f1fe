/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas records drawing commands in a resolution-independent
// logical space and replays them through a Renderer.
//
// The visible world is the square [-1,1]x[-1,1] with the origin in the
// centre and y pointing up. Drawing does no validation: NaN or infinite
// coordinates are recorded as given and left to the backends.
//
// A Canvas has no internal locking. Draw from one goroutine; once drawing
// is done any number of goroutines may render it.
package canvas

import (
	"github.com/chewxy/math32"

	"vecdraw/internal/vector"
)

// DefaultSize is used when New is given an unusable size.
const DefaultSize float32 = 1000

// Viewport is the logical region every canvas shows.
var Viewport = vector.Rect{X: -1, Y: -1, W: 2, H: 2}

// Item is one recorded drawing command. Stroke and Fill are optional; an
// item with neither is kept and paints nothing.
type Item struct {
	Shape  vector.Shape
	Stroke *vector.Stroke
	Fill   *vector.Color
}

// Canvas is an ordered list of items. Later items paint over earlier ones.
type Canvas struct {
	size  float32
	items []Item
}

// New returns an empty canvas of the given logical size.
func New(size float32) *Canvas {
	if !(size > 0) || math32.IsInf(size, 1) {
		size = DefaultSize
	}
	return &Canvas{size: size}
}

func (c *Canvas) Size() float32         { return c.size }
func (c *Canvas) Len() int              { return len(c.items) }
func (c *Canvas) Viewport() vector.Rect { return Viewport }
func (c *Canvas) Frame() Frame          { return Frame{Size: c.size, Viewport: Viewport} }

// Items returns a copy of the recorded items in insertion order.
func (c *Canvas) Items() []Item { return append([]Item(nil), c.items...) }

// Draw appends a shape. The Draw* helpers are shorthands for it.
func (c *Canvas) Draw(s vector.Shape, stroke *vector.Stroke, fill *vector.Color) {
	c.items = append(c.items, Item{Shape: s, Stroke: copyStroke(stroke), Fill: copyColor(fill)})
}

func (c *Canvas) DrawCircle(center vector.Pt, radius float32, stroke *vector.Stroke, fill *vector.Color) {
	c.Draw(vector.Circle{Center: center, Radius: radius}, stroke, fill)
}

func (c *Canvas) DrawLine(start, end vector.Pt, stroke *vector.Stroke, fill *vector.Color) {
	c.Draw(vector.Line{Start: start, End: end}, stroke, fill)
}

func (c *Canvas) DrawQuadraticBezier(p0, p1, p2 vector.Pt, stroke *vector.Stroke, fill *vector.Color) {
	c.Draw(vector.QuadBezier{Start: p0, Control: p1, End: p2}, stroke, fill)
}

func (c *Canvas) DrawPath(p vector.Path, stroke *vector.Stroke, fill *vector.Color) {
	c.Draw(vector.PathShape{Path: p}, stroke, fill)
}

// Styles are copied so later changes by the caller do not reach recorded items.
func copyStroke(s *vector.Stroke) *vector.Stroke {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func copyColor(c *vector.Color) *vector.Color {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
