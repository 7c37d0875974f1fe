/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

// SVGOptions controls SVG output.
// - Width/Height: document size in user units, both > 0
// - Background: emitted as a full-size rect before any shape; nil means none
// - InlineStyle: put paint into a style attribute instead of presentation attributes
// - Indent: one element per line
// - Precision: decimal places for coordinates, 0..64
//
// The shorter side of the viewBox spans the canvas size and the longer side
// follows the document's aspect ratio, so strokes scale by the same uniform
// factor as in the raster and PDF backends.
type SVGOptions struct {
	Width, Height float32
	Background    *vector.Color
	InlineStyle   bool
	Indent        bool
	Precision     int
}

type SVGRenderer struct {
	opt SVGOptions
}

func NewSVGRenderer(opt SVGOptions) (*SVGRenderer, error) {
	if !(opt.Width > 0) || !(opt.Height > 0) || math32.IsInf(opt.Width, 1) || math32.IsInf(opt.Height, 1) {
		return nil, fmt.Errorf("%w: svg size %gx%g", ErrInvalidConfig, opt.Width, opt.Height)
	}
	if opt.Precision < 0 || opt.Precision > 64 {
		return nil, fmt.Errorf("%w: precision %d out of range 0..64", ErrInvalidConfig, opt.Precision)
	}
	if opt.Background != nil {
		bg := *opt.Background
		opt.Background = &bg
	}
	return &SVGRenderer{opt: opt}, nil
}

// SVGDocument is serialized SVG markup.
type SVGDocument string

func (d SVGDocument) String() string { return string(d) }

// Save writes the document to path.
func (d SVGDocument) Save(path string) error {
	if err := os.WriteFile(path, []byte(d), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func (r *SVGRenderer) Begin(f canvas.Frame) canvas.Target[SVGDocument] {
	t := &svgTarget{opt: r.opt}
	vw, vh := viewBoxSize(f.Size, r.opt.Width, r.opt.Height)
	t.m = deviceTransform(f.Viewport, vw, vh)
	t.scale = t.m.UniformScale()

	t.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>")
	t.nl()
	t.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\" preserveAspectRatio=\"none\">",
		t.num(r.opt.Width), t.num(r.opt.Height), t.num(vw), t.num(vh))
	t.nl()
	if bg := r.opt.Background; bg != nil {
		t.indent()
		t.wf("<rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\"%s/>", t.num(vw), t.num(vh), t.paint(bg, nil, false))
		t.nl()
	}
	return t
}

// viewBoxSize returns the viewBox extent for a canvas of size n drawn into a
// w x h document.
func viewBoxSize(n, w, h float32) (float32, float32) {
	short := math32.Min(w, h)
	return n * w / short, n * h / short
}

type svgTarget struct {
	opt   SVGOptions
	m     vector.Affine2D
	scale float32
	buf   bytes.Buffer

	drawn, skipped int
}

func (t *svgTarget) wf(format string, args ...any) { fmt.Fprintf(&t.buf, format, args...) }

func (t *svgTarget) nl() {
	if t.opt.Indent {
		t.buf.WriteByte('\n')
	}
}

func (t *svgTarget) indent() {
	if t.opt.Indent {
		t.buf.WriteString("  ")
	}
}

func (t *svgTarget) Draw(it canvas.Item) {
	if it.Shape == nil {
		return
	}
	if _, ok := itemOutline(it, t.m); !ok {
		t.skipped++
		logger("svg").Debug("skipping item with non-finite coordinates")
		return
	}
	t.drawn++
	var fill *vector.Color
	if fills(it) {
		fill = it.Fill
	}
	var stroke *vector.Stroke
	if strokes(it) {
		stroke = it.Stroke
	}

	t.indent()
	switch s := it.Shape.(type) {
	case vector.Circle:
		c := t.m.Apply(s.Center)
		rx, ry := s.Radius*t.m.A, s.Radius*-t.m.D
		if rx < 0 {
			rx, ry = -rx, -ry
		}
		if rx == ry {
			t.wf("<circle cx=\"%s\" cy=\"%s\" r=\"%s\"%s/>", t.num(c.X), t.num(c.Y), t.num(rx), t.paint(fill, stroke, true))
		} else {
			t.wf("<ellipse cx=\"%s\" cy=\"%s\" rx=\"%s\" ry=\"%s\"%s/>", t.num(c.X), t.num(c.Y), t.num(rx), t.num(ry), t.paint(fill, stroke, true))
		}
	case vector.Line:
		a, b := t.m.Apply(s.Start), t.m.Apply(s.End)
		t.wf("<line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\"%s/>", t.num(a.X), t.num(a.Y), t.num(b.X), t.num(b.Y), t.paint(nil, stroke, false))
	case vector.QuadBezier:
		a, c, b := t.m.Apply(s.Start), t.m.Apply(s.Control), t.m.Apply(s.End)
		t.wf("<path d=\"M%s %s Q%s %s %s %s\"%s/>", t.num(a.X), t.num(a.Y), t.num(c.X), t.num(c.Y), t.num(b.X), t.num(b.Y), t.paint(fill, stroke, true))
	case vector.PathShape:
		t.wf("<path d=\"%s\"%s/>", t.pathData(s.Path), t.paint(fill, stroke, true))
	default:
		logger("svg").Warn("unknown shape", slog.String("type", fmt.Sprintf("%T", it.Shape)))
	}
	t.nl()
}

func (t *svgTarget) Finish() SVGDocument {
	t.wf("</svg>")
	t.nl()
	logger("svg").Debug("render finished", slog.Int("items", t.drawn), slog.Int("skipped", t.skipped), slog.Int("bytes", t.buf.Len()))
	return SVGDocument(t.buf.String())
}

func (t *svgTarget) pathData(p vector.Path) string {
	var sb strings.Builder
	for i, c := range p.Cmds() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Op.String())
		n := 0
		switch c.Op {
		case vector.MoveTo, vector.LineTo:
			n = 1
		case vector.QuadTo:
			n = 2
		case vector.CubicTo:
			n = 3
		}
		for j := 0; j < n; j++ {
			q := t.m.Apply(c.Pts[j])
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.num(q.X))
			sb.WriteByte(' ')
			sb.WriteString(t.num(q.Y))
		}
	}
	return sb.String()
}

// paint renders the fill and stroke attributes. withFill controls whether an
// absent fill is spelled out as none; lines have no interior to paint.
func (t *svgTarget) paint(fill *vector.Color, stroke *vector.Stroke, withFill bool) string {
	type kv struct{ k, v string }
	var attrs []kv
	if fill != nil {
		c := fill.Clamped()
		attrs = append(attrs, kv{"fill", c.Hex(false)})
		if c.A < 1 {
			attrs = append(attrs, kv{"fill-opacity", t.num(c.A)})
		}
	} else if withFill {
		attrs = append(attrs, kv{"fill", "none"})
	}
	if stroke != nil {
		c := stroke.Color.Clamped()
		attrs = append(attrs, kv{"stroke", c.Hex(false)})
		if c.A < 1 {
			attrs = append(attrs, kv{"stroke-opacity", t.num(c.A)})
		}
		attrs = append(attrs, kv{"stroke-width", t.num(stroke.Width * t.scale)}, kv{"stroke-linecap", stroke.Cap.String()})
	}
	if len(attrs) == 0 {
		return ""
	}
	var sb strings.Builder
	if t.opt.InlineStyle {
		sb.WriteString(" style=\"")
		for i, a := range attrs {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(a.k)
			sb.WriteByte(':')
			sb.WriteString(a.v)
		}
		sb.WriteByte('"')
		return sb.String()
	}
	for _, a := range attrs {
		fmt.Fprintf(&sb, " %s=\"%s\"", a.k, a.v)
	}
	return sb.String()
}

// num formats v with the configured precision, trimming trailing zeros.
func (t *svgTarget) num(v float32) string {
	return formatNum(v, t.opt.Precision)
}

func formatNum(v float32, prec int) string {
	s := strconv.FormatFloat(float64(v), 'f', prec, 32)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
