/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "github.com/chewxy/math32"

// Shape is one of the drawable primitives: Circle, Line, QuadBezier or
// PathShape. The set is closed; renderers switch on the concrete type.
type Shape interface {
	// Bounds is the control-point bounding box in logical space.
	Bounds() Rect
	// Outline is the shape expressed as a path, for backends that only
	// consume paths.
	Outline() Path
	shape()
}

// Circle is a full circle around Center. A negative Radius draws the same
// circle as its absolute value.
type Circle struct {
	Center Pt
	Radius float32
}

// Line is a single straight segment.
type Line struct{ Start, End Pt }

// QuadBezier is a quadratic bezier from Start to End bent towards Control.
type QuadBezier struct{ Start, Control, End Pt }

// PathShape draws a composite path built with a PathBuilder.
type PathShape struct{ Path Path }

func (Circle) shape()     {}
func (Line) shape()       {}
func (QuadBezier) shape() {}
func (PathShape) shape()  {}

func (c Circle) Bounds() Rect {
	r := math32.Abs(c.Radius)
	return Rect{X: c.Center.X - r, Y: c.Center.Y - r, W: 2 * r, H: 2 * r}
}
func (c Circle) Outline() Path { return CirclePath(c.Center, math32.Abs(c.Radius)) }

func (l Line) Bounds() Rect { return l.Outline().Bounds() }
func (l Line) Outline() Path {
	var b PathBuilder
	return b.MoveTo(l.Start).LineTo(l.End).Build()
}

func (q QuadBezier) Bounds() Rect { return q.Outline().Bounds() }
func (q QuadBezier) Outline() Path {
	var b PathBuilder
	return b.MoveTo(q.Start).QuadTo(q.Control, q.End).Build()
}

func (p PathShape) Bounds() Rect  { return p.Path.Bounds() }
func (p PathShape) Outline() Path { return p.Path }
