/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "github.com/chewxy/math32"

// Path commands and the builder that produces them.

type PathOp uint8

const (
	MoveTo  PathOp = iota
	LineTo         // (x, y)
	QuadTo         // quadratic bezier (c, p)
	CubicTo        // cubic bezier (c1, c2, p)
	Close
)

func (op PathOp) String() string {
	switch op {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case QuadTo:
		return "Q"
	case CubicTo:
		return "C"
	case Close:
		return "Z"
	}
	return "?"
}

// PathCmd is one drawing command. Pts holds the control points followed
// by the end point; unused slots are zero.
type PathCmd struct {
	Op  PathOp
	Pts [3]Pt
}

// End returns the point the command leaves the pen at. Close has none.
func (c PathCmd) End() Pt {
	switch c.Op {
	case MoveTo, LineTo:
		return c.Pts[0]
	case QuadTo:
		return c.Pts[1]
	case CubicTo:
		return c.Pts[2]
	}
	return Pt{}
}

// Path is an immutable ordered sequence of commands.
type Path struct{ cmds []PathCmd }

// Cmds returns a copy of the command list.
func (p Path) Cmds() []PathCmd { return append([]PathCmd(nil), p.cmds...) }
func (p Path) Len() int        { return len(p.cmds) }
func (p Path) IsEmpty() bool   { return len(p.cmds) == 0 }

// PathBuilder accumulates commands for a Path. The zero value is ready to
// use. A drawing command issued before any MoveTo starts a subpath at the
// local origin.
type PathBuilder struct {
	cmds []PathCmd
	open bool
}

func NewPathBuilder() *PathBuilder { return &PathBuilder{} }

func (b *PathBuilder) MoveTo(p Pt) *PathBuilder {
	b.cmds = append(b.cmds, PathCmd{Op: MoveTo, Pts: [3]Pt{p}})
	b.open = true
	return b
}

func (b *PathBuilder) LineTo(p Pt) *PathBuilder {
	b.ensureStart()
	b.cmds = append(b.cmds, PathCmd{Op: LineTo, Pts: [3]Pt{p}})
	return b
}

func (b *PathBuilder) QuadTo(c, p Pt) *PathBuilder {
	b.ensureStart()
	b.cmds = append(b.cmds, PathCmd{Op: QuadTo, Pts: [3]Pt{c, p}})
	return b
}

func (b *PathBuilder) CubicTo(c1, c2, p Pt) *PathBuilder {
	b.ensureStart()
	b.cmds = append(b.cmds, PathCmd{Op: CubicTo, Pts: [3]Pt{c1, c2, p}})
	return b
}

// Close ends the current subpath with a segment back to its start.
func (b *PathBuilder) Close() *PathBuilder {
	if len(b.cmds) > 0 {
		b.cmds = append(b.cmds, PathCmd{Op: Close})
	}
	return b
}

func (b *PathBuilder) ensureStart() {
	if !b.open {
		b.MoveTo(Pt{})
	}
}

// Build returns the finished path. The builder may keep being used; later
// commands do not affect paths already built.
func (b *PathBuilder) Build() Path { return Path{cmds: append([]PathCmd(nil), b.cmds...)} }

// Transform returns the path with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := make([]PathCmd, len(p.cmds))
	for i, c := range p.cmds {
		out[i].Op = c.Op
		for j := range c.Pts {
			if pointSlotUsed(c.Op, j) {
				out[i].Pts[j] = m.Apply(c.Pts[j])
			}
		}
	}
	return Path{cmds: out}
}

func pointSlotUsed(op PathOp, i int) bool {
	switch op {
	case MoveTo, LineTo:
		return i < 1
	case QuadTo:
		return i < 2
	case CubicTo:
		return i < 3
	}
	return false
}

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. This is sufficient for
// layout; exporters that need tighter bounds can flatten first.
func (p Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	for _, c := range p.cmds {
		for j := range c.Pts {
			if !pointSlotUsed(c.Op, j) {
				continue
			}
			q := c.Pts[j]
			minX, minY = math32.Min(minX, q.X), math32.Min(minY, q.Y)
			maxX, maxY = math32.Max(maxX, q.X), math32.Max(maxY, q.Y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// maxFlattenSegments bounds the subdivision of a single curve.
const maxFlattenSegments = 1024

// Polyline is one flattened subpath. Closed is set only when the subpath
// ended with Close; its last point then repeats the first.
type Polyline struct {
	Pts    []Pt
	Closed bool
}

// Flatten approximates the path with polylines, one per subpath, so that
// no point of a curve deviates from its chords by more than tolerance.
func (p Path) Flatten(tolerance float32) []Polyline {
	if !(tolerance > 0) {
		tolerance = 0.25
	}
	var (
		out   []Polyline
		cur   []Pt
		pen   Pt
		start Pt
	)
	flush := func(closed bool) {
		if len(cur) > 1 {
			out = append(out, Polyline{Pts: cur, Closed: closed})
		}
		cur = nil
	}
	for _, c := range p.cmds {
		switch c.Op {
		case MoveTo:
			flush(false)
			pen, start = c.Pts[0], c.Pts[0]
			cur = []Pt{pen}
		case LineTo:
			cur = append(cur, c.Pts[0])
			pen = c.Pts[0]
		case QuadTo:
			d := pen.Sub(c.Pts[0].Mul(2)).Add(c.Pts[1]).Len()
			n := segments(math32.Sqrt(d / (8 * tolerance)))
			for i := 1; i <= n; i++ {
				cur = append(cur, quadAt(pen, c.Pts[0], c.Pts[1], float32(i)/float32(n)))
			}
			pen = c.Pts[1]
		case CubicTo:
			d1 := pen.Sub(c.Pts[0].Mul(2)).Add(c.Pts[1]).Len()
			d2 := c.Pts[0].Sub(c.Pts[1].Mul(2)).Add(c.Pts[2]).Len()
			n := segments(math32.Sqrt(3 * math32.Max(d1, d2) / (4 * tolerance)))
			for i := 1; i <= n; i++ {
				cur = append(cur, cubicAt(pen, c.Pts[0], c.Pts[1], c.Pts[2], float32(i)/float32(n)))
			}
			pen = c.Pts[2]
		case Close:
			if len(cur) > 0 {
				cur = append(cur, start)
				flush(true)
				cur = []Pt{start}
			}
			pen = start
		}
	}
	flush(false)
	return out
}

func segments(v float32) int {
	if !(v >= 1) { // also catches NaN
		return 1
	}
	if v > maxFlattenSegments {
		return maxFlattenSegments
	}
	return int(math32.Ceil(v))
}

func quadAt(p0, p1, p2 Pt, t float32) Pt {
	return p0.Lerp(p1, t).Lerp(p1.Lerp(p2, t), t)
}

func cubicAt(p0, p1, p2, p3 Pt, t float32) Pt {
	a := p0.Lerp(p1, t)
	b := p1.Lerp(p2, t)
	c := p2.Lerp(p3, t)
	return a.Lerp(b, t).Lerp(b.Lerp(c, t), t)
}

// kappa is the cubic handle length for a quarter circle of radius 1.
const kappa = 0.5522847498

// EllipsePath returns a closed path of four cubic arcs approximating the
// axis-aligned ellipse centred on c.
func EllipsePath(c Pt, rx, ry float32) Path {
	kx, ky := rx*kappa, ry*kappa
	var b PathBuilder
	b.MoveTo(Pt{c.X + rx, c.Y})
	b.CubicTo(Pt{c.X + rx, c.Y + ky}, Pt{c.X + kx, c.Y + ry}, Pt{c.X, c.Y + ry})
	b.CubicTo(Pt{c.X - kx, c.Y + ry}, Pt{c.X - rx, c.Y + ky}, Pt{c.X - rx, c.Y})
	b.CubicTo(Pt{c.X - rx, c.Y - ky}, Pt{c.X - kx, c.Y - ry}, Pt{c.X, c.Y - ry})
	b.CubicTo(Pt{c.X + kx, c.Y - ry}, Pt{c.X + rx, c.Y - ky}, Pt{c.X + rx, c.Y})
	b.Close()
	return b.Build()
}

func CirclePath(c Pt, r float32) Path { return EllipsePath(c, r, r) }
