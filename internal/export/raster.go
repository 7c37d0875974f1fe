/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/chewxy/math32"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

// RasterOptions controls raster output.
// - Width/Height: pixel size of the image, both > 0
// - Background: painted over the whole image first; nil leaves it transparent
// - Antialias: keep partial edge coverage; when false every pixel is either painted or not
// - FlattenCurves: hand the scan converter line segments instead of native curves
type RasterOptions struct {
	Width, Height int
	Background    *vector.Color
	Antialias     bool
	FlattenCurves bool
}

// flattenTolerance is the allowed curve deviation in pixels.
const flattenTolerance = 0.25

// RasterRenderer renders a canvas into an RGBA image.
type RasterRenderer struct {
	opt RasterOptions
}

func NewRasterRenderer(opt RasterOptions) (*RasterRenderer, error) {
	if opt.Width <= 0 || opt.Height <= 0 {
		return nil, fmt.Errorf("%w: raster size %dx%d", ErrInvalidConfig, opt.Width, opt.Height)
	}
	if opt.Background != nil {
		bg := *opt.Background
		opt.Background = &bg
	}
	logger("raster").Debug("renderer created",
		slog.Int("w", opt.Width), slog.Int("h", opt.Height),
		slog.Bool("antialias", opt.Antialias), slog.Bool("flatten", opt.FlattenCurves))
	return &RasterRenderer{opt: opt}, nil
}

// RasterImage is the output of a raster render.
type RasterImage struct {
	*image.RGBA
}

// Encode writes the image as PNG.
func (r *RasterImage) Encode(w io.Writer) error {
	if err := png.Encode(w, r.RGBA); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Save writes the image as a PNG file.
func (r *RasterImage) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := r.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func (r *RasterRenderer) Begin(f canvas.Frame) canvas.Target[*RasterImage] {
	w, h := r.opt.Width, r.opt.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if r.opt.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(r.opt.Background.NRGBA()), image.Point{}, draw.Src)
	}
	// Coverage of the current item goes into mask; the item's colour is then
	// composited through it.
	mask := image.NewAlpha(img.Bounds())
	scanner := rasterx.NewScannerGV(w, h, mask, mask.Bounds())
	scanner.SetColor(color.Opaque)
	m := deviceTransform(f.Viewport, float32(w), float32(h))
	return &rasterTarget{
		opt:    r.opt,
		m:      m,
		scale:  m.UniformScale(),
		img:    img,
		mask:   mask,
		filler: rasterx.NewFiller(w, h, scanner),
		dasher: rasterx.NewDasher(w, h, scanner),
	}
}

type rasterTarget struct {
	opt    RasterOptions
	m      vector.Affine2D
	scale  float32
	img    *image.RGBA
	mask   *image.Alpha
	filler *rasterx.Filler
	dasher *rasterx.Dasher

	seen, drawn, skipped int
}

// pathSink is the subset of the rasterx path interface both Filler and Dasher provide.
type pathSink interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	QuadBezier(b, c fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

var capFuncs = [...]rasterx.CapFunc{
	vector.CapButt:   rasterx.ButtCap,
	vector.CapRound:  rasterx.RoundCap,
	vector.CapSquare: rasterx.SquareCap,
}

func (t *rasterTarget) Draw(it canvas.Item) {
	t.seen++
	if it.Shape == nil {
		return
	}
	dev, ok := itemOutline(it, t.m)
	if !ok {
		t.skipped++
		logger("raster").Debug("skipping item with non-finite coordinates", slog.Int("index", t.seen-1))
		return
	}
	t.drawn++
	if fills(it) {
		t.filler.Clear()
		t.filler.SetWinding(true)
		t.feed(t.filler, dev)
		t.filler.Draw()
		t.composite(*it.Fill, t.region(dev, 0))
	}
	if strokes(it) {
		s := it.Stroke
		var capFn rasterx.CapFunc = rasterx.ButtCap
		if int(s.Cap) < len(capFuncs) {
			capFn = capFuncs[s.Cap]
		}
		t.dasher.Clear()
		t.dasher.SetStroke(toFixed(s.Width*t.scale), toFixed(4), capFn, capFn, rasterx.RoundGap, rasterx.Round, nil, 0)
		t.feed(t.dasher, dev)
		t.dasher.Draw()
		t.composite(s.Color, t.region(dev, s.Width*t.scale))
	}
}

func (t *rasterTarget) Finish() *RasterImage {
	logger("raster").Debug("render finished", slog.Int("items", t.drawn), slog.Int("skipped", t.skipped))
	return &RasterImage{RGBA: t.img}
}

// region is the pixel rectangle that can hold coverage for dev drawn with
// the given device stroke width.
func (t *rasterTarget) region(dev vector.Path, width float32) image.Rectangle {
	b := dev.Bounds()
	pad := width + 2
	w, h := float32(t.opt.Width), float32(t.opt.Height)
	r := image.Rect(
		pixel(b.X-pad, w), pixel(b.Y-pad, h),
		pixel(b.X+b.W+pad+1, w), pixel(b.Y+b.H+pad+1, h),
	)
	return r.Intersect(t.img.Bounds())
}

// pixel truncates v to an int within [0, limit].
func pixel(v, limit float32) int {
	return int(math32.Max(0, math32.Min(limit, math32.Floor(v))))
}

// composite paints c through the coverage mask inside r and resets that
// part of the mask.
func (t *rasterTarget) composite(c vector.Color, r image.Rectangle) {
	if r.Empty() {
		return
	}
	if !t.opt.Antialias {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := t.mask.Pix[t.mask.PixOffset(r.Min.X, y):t.mask.PixOffset(r.Max.X, y)]
			for i, v := range row {
				if v >= 0x80 {
					row[i] = 0xff
				} else {
					row[i] = 0
				}
			}
		}
	}
	draw.DrawMask(t.img, r, image.NewUniform(c.NRGBA()), image.Point{}, t.mask, r.Min, draw.Over)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		clear(t.mask.Pix[t.mask.PixOffset(r.Min.X, y):t.mask.PixOffset(r.Max.X, y)])
	}
}

func (t *rasterTarget) feed(s pathSink, dev vector.Path) {
	if t.opt.FlattenCurves {
		for _, poly := range dev.Flatten(flattenTolerance) {
			s.Start(toFixedPt(poly.Pts[0]))
			for _, q := range poly.Pts[1:] {
				s.Line(toFixedPt(q))
			}
			s.Stop(poly.Closed)
		}
		return
	}
	var (
		open, restart bool
		start         vector.Pt
	)
	resume := func() {
		if restart {
			s.Start(toFixedPt(start))
			open, restart = true, false
		}
	}
	for _, c := range dev.Cmds() {
		switch c.Op {
		case vector.MoveTo:
			if open {
				s.Stop(false)
			}
			start = c.Pts[0]
			s.Start(toFixedPt(start))
			open, restart = true, false
		case vector.LineTo:
			resume()
			s.Line(toFixedPt(c.Pts[0]))
		case vector.QuadTo:
			resume()
			s.QuadBezier(toFixedPt(c.Pts[0]), toFixedPt(c.Pts[1]))
		case vector.CubicTo:
			resume()
			s.CubeBezier(toFixedPt(c.Pts[0]), toFixedPt(c.Pts[1]), toFixedPt(c.Pts[2]))
		case vector.Close:
			if open {
				s.Stop(true)
				open, restart = false, true
			}
		}
	}
	if open {
		s.Stop(false)
	}
}

func toFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(math32.Round(v * 64)) }

func toFixedPt(p vector.Pt) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}
