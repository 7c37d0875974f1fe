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
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). The page is Width x Height and the canvas
// viewport is stretched over it, the same way the raster backend does.
//
// Created is written as the creation date. The zero value
// stands for the Unix epoch, so identical canvases give identical bytes.
type PDFOptions struct {
	Width, Height float64
	Background    *vector.Color
	Title         string
	Compress      bool
	Created       time.Time
}

type PDFRenderer struct {
	opt PDFOptions
}

func NewPDFRenderer(opt PDFOptions) (*PDFRenderer, error) {
	if !(opt.Width > 0) || !(opt.Height > 0) || math.IsInf(opt.Width, 1) || math.IsInf(opt.Height, 1) {
		return nil, fmt.Errorf("%w: pdf page %gx%g", ErrInvalidConfig, opt.Width, opt.Height)
	}
	if opt.Created.IsZero() {
		opt.Created = time.Unix(0, 0).UTC()
	}
	if opt.Background != nil {
		bg := *opt.Background
		opt.Background = &bg
	}
	return &PDFRenderer{opt: opt}, nil
}

// PDFDocument is a serialized single-page PDF. Serialization errors are
// kept and reported by every accessor.
type PDFDocument struct {
	data []byte
	err  error
}

func (d *PDFDocument) Bytes() ([]byte, error) { return d.data, d.err }

func (d *PDFDocument) WriteTo(w io.Writer) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err := w.Write(d.data)
	return int64(n), err
}

// Save writes the document to path.
func (d *PDFDocument) Save(path string) error {
	if d.err != nil {
		return d.err
	}
	if err := os.WriteFile(path, d.data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *PDFRenderer) Begin(f canvas.Frame) canvas.Target[*PDFDocument] {
	o := r.opt
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: o.Width, Ht: o.Height},
	})
	pdf.SetCompression(o.Compress)
	pdf.SetCreationDate(o.Created)
	pdf.SetCatalogSort(true)
	if o.Title != "" {
		pdf.SetTitle(o.Title, true)
	}
	pdf.SetCreator("vecdraw", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if o.Background != nil {
		setFillColor(pdf, *o.Background)
		pdf.Rect(0, 0, o.Width, o.Height, "F")
	}
	m := deviceTransform(f.Viewport, float32(o.Width), float32(o.Height))
	return &pdfTarget{pdf: pdf, m: m, scale: m.UniformScale()}
}

type pdfTarget struct {
	pdf   *gofpdf.Fpdf
	m     vector.Affine2D
	scale float32

	drawn, skipped int
}

func (t *pdfTarget) Draw(it canvas.Item) {
	if it.Shape == nil {
		return
	}
	dev, ok := itemOutline(it, t.m)
	if !ok {
		t.skipped++
		logger("pdf").Debug("skipping item with non-finite coordinates")
		return
	}
	t.drawn++
	if fills(it) {
		setFillColor(t.pdf, *it.Fill)
		t.shape(it.Shape, dev, "F")
	}
	if strokes(it) {
		s := it.Stroke
		setDrawColor(t.pdf, s.Color)
		t.pdf.SetLineWidth(float64(s.Width * t.scale))
		t.pdf.SetLineCapStyle(s.Cap.String())
		t.shape(it.Shape, dev, "D")
	}
}

// shape emits one paint operation. Circles use the native ellipse operator;
// everything else goes through the device-space outline.
func (t *pdfTarget) shape(s vector.Shape, dev vector.Path, style string) {
	if c, ok := s.(vector.Circle); ok {
		ctr := t.m.Apply(c.Center)
		r := math.Abs(float64(c.Radius))
		rx := r * float64(t.m.A)
		ry := r * float64(-t.m.D)
		t.pdf.Ellipse(float64(ctr.X), float64(ctr.Y), rx, ry, 0, style)
		return
	}
	for _, cmd := range dev.Cmds() {
		p := cmd.Pts
		switch cmd.Op {
		case vector.MoveTo:
			t.pdf.MoveTo(float64(p[0].X), float64(p[0].Y))
		case vector.LineTo:
			t.pdf.LineTo(float64(p[0].X), float64(p[0].Y))
		case vector.QuadTo:
			t.pdf.CurveTo(float64(p[0].X), float64(p[0].Y), float64(p[1].X), float64(p[1].Y))
		case vector.CubicTo:
			t.pdf.CurveBezierCubicTo(float64(p[0].X), float64(p[0].Y), float64(p[1].X), float64(p[1].Y), float64(p[2].X), float64(p[2].Y))
		case vector.Close:
			t.pdf.ClosePath()
		}
	}
	t.pdf.DrawPath(style)
}

func (t *pdfTarget) Finish() *PDFDocument {
	var buf bytes.Buffer
	if err := t.pdf.Output(&buf); err != nil {
		logger("pdf").Debug("serialization failed", slog.Any("err", err))
		return &PDFDocument{err: fmt.Errorf("write pdf: %w", err)}
	}
	logger("pdf").Debug("render finished", slog.Int("items", t.drawn), slog.Int("skipped", t.skipped), slog.Int("bytes", buf.Len()))
	return &PDFDocument{data: buf.Bytes()}
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	n := c.NRGBA()
	pdf.SetDrawColor(int(n.R), int(n.G), int(n.B))
	pdf.SetAlpha(float64(n.A)/255, "Normal")
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	n := c.NRGBA()
	pdf.SetFillColor(int(n.R), int(n.G), int(n.B))
	pdf.SetAlpha(float64(n.A)/255, "Normal")
}
