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
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

var (
	white  = color.RGBA{255, 255, 255, 255}
	black  = color.RGBA{0, 0, 0, 255}
	red    = color.RGBA{255, 0, 0, 255}
	blue   = color.RGBA{0, 0, 255, 255}
	yellow = color.RGBA{254, 203, 0, 255}
)

func rasterize(t *testing.T, c *canvas.Canvas, opt RasterOptions) *RasterImage {
	t.Helper()
	r, err := NewRasterRenderer(opt)
	if err != nil {
		t.Fatalf("NewRasterRenderer: %v", err)
	}
	return canvas.Render[*RasterImage](c, r)
}

func TestRasterRejectsEmptySize(t *testing.T) {
	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		if _, err := NewRasterRenderer(RasterOptions{Width: sz[0], Height: sz[1]}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("size %v: err = %v, want ErrInvalidConfig", sz, err)
		}
	}
}

func TestRasterEmptyCanvasIsBackground(t *testing.T) {
	img := rasterize(t, canvas.New(10), RasterOptions{Width: 16, Height: 9, Background: ptr(vector.White())})
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 9 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for y := 0; y < 9; y++ {
		for x := 0; x < 16; x++ {
			if got := img.RGBAAt(x, y); got != white {
				t.Fatalf("pixel (%d,%d) = %v, want white", x, y, got)
			}
		}
	}

	clearImg := rasterize(t, canvas.New(10), RasterOptions{Width: 4, Height: 4})
	for _, v := range clearImg.Pix {
		if v != 0 {
			t.Fatalf("without background the image should stay transparent")
		}
	}
}

func TestRasterPaintersOrder(t *testing.T) {
	c := canvas.New(1)
	c.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	c.DrawCircle(vector.P(0, 0), 0.25, nil, ptr(vector.Blue()))
	img := rasterize(t, c, RasterOptions{Width: 100, Height: 100, Background: ptr(vector.White())})
	if got := img.RGBAAt(50, 50); got != blue {
		t.Fatalf("centre = %v, want blue on top", got)
	}
	if got := img.RGBAAt(68, 50); got != red {
		t.Fatalf("ring = %v, want red", got)
	}
	if got := img.RGBAAt(5, 5); got != white {
		t.Fatalf("corner = %v, want background", got)
	}

	// Reversed order hides the small disk.
	c2 := canvas.New(1)
	c2.DrawCircle(vector.P(0, 0), 0.25, nil, ptr(vector.Blue()))
	c2.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	img2 := rasterize(t, c2, RasterOptions{Width: 100, Height: 100, Background: ptr(vector.White())})
	if got := img2.RGBAAt(50, 50); got != red {
		t.Fatalf("centre = %v, want red on top", got)
	}
}

func TestRasterFillBeforeStroke(t *testing.T) {
	c := canvas.New(1)
	c.DrawCircle(vector.P(0, 0), 0.5, vector.NewStroke(vector.Black(), 0.2, vector.CapButt), ptr(vector.Red()))
	img := rasterize(t, c, RasterOptions{Width: 100, Height: 100, Background: ptr(vector.White())})
	// The stroke straddles the outline at x=75, covering both sides.
	if got := img.RGBAAt(72, 50); got != black {
		t.Fatalf("inner edge of stroke = %v, want black over fill", got)
	}
	if got := img.RGBAAt(50, 50); got != red {
		t.Fatalf("interior = %v, want red", got)
	}
}

func TestRasterSmiley(t *testing.T) {
	for _, flatten := range []bool{false, true} {
		img := rasterize(t, smiley(), RasterOptions{Width: 1000, Height: 1000, Background: ptr(vector.White()), Antialias: true, FlattenCurves: flatten})
		checks := []struct {
			x, y int
			want color.RGBA
			what string
		}{
			{500, 500, yellow, "face centre"},
			{500, 100, yellow, "upper face"},
			{5, 5, white, "corner outside the face"},
			{995, 995, white, "opposite corner"},
			{250, 440, black, "left eye"},
			{750, 440, black, "right eye"},
			{750, 340, black, "round cap above right eye"},
			{500, 440, yellow, "between the eyes"},
			{500, 700, black, "bottom of the mouth"},
			{500, 730, yellow, "below the mouth"},
		}
		for _, ck := range checks {
			if got := img.RGBAAt(ck.x, ck.y); got != ck.want {
				t.Fatalf("flatten=%v %s (%d,%d) = %v, want %v", flatten, ck.what, ck.x, ck.y, got, ck.want)
			}
		}
		// Symmetric about the vertical axis.
		for _, y := range []int{300, 440, 650, 700} {
			for _, x := range []int{100, 250, 400} {
				if img.RGBAAt(x, y) != img.RGBAAt(999-x, y) {
					t.Fatalf("flatten=%v not symmetric at y=%d x=%d", flatten, y, x)
				}
			}
		}
	}
}

func TestRasterWithoutAntialiasIsTwoTone(t *testing.T) {
	c := canvas.New(1)
	c.DrawCircle(vector.P(0.1, -0.2), 0.63, nil, ptr(vector.Red()))
	img := rasterize(t, c, RasterOptions{Width: 64, Height: 64, Background: ptr(vector.White())})
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if p := img.RGBAAt(x, y); p != white && p != red {
				t.Fatalf("pixel (%d,%d) = %v, want pure red or white", x, y, p)
			}
		}
	}
}

func TestRasterNonSquareStretches(t *testing.T) {
	c := canvas.New(1)
	c.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	img := rasterize(t, c, RasterOptions{Width: 200, Height: 100, Background: ptr(vector.White())})
	if got := img.RGBAAt(145, 50); got != red {
		t.Fatalf("x-extent = %v, want red", got)
	}
	if got := img.RGBAAt(100, 28); got != red {
		t.Fatalf("y-extent = %v, want red", got)
	}
	if got := img.RGBAAt(100, 21); got != white {
		t.Fatalf("beyond y-extent = %v, want white", got)
	}
}

func TestRasterNonSquareStrokeWidth(t *testing.T) {
	c := canvas.New(1000)
	c.DrawLine(vector.P(0, -0.5), vector.P(0, 0.5), vector.NewStroke(vector.Black(), 0.2, vector.CapButt), nil)
	img := rasterize(t, c, RasterOptions{Width: 200, Height: 100, Background: ptr(vector.White())})
	n := 0
	for x := 0; x < 200; x++ {
		if img.RGBAAt(x, 50) == black {
			n++
		}
	}
	if n != 10 {
		t.Fatalf("horizontal stroke coverage = %d px, want 10", n)
	}
}

func TestRasterFlattenKeepsOpenLoopsOpen(t *testing.T) {
	c := canvas.New(1)
	var b vector.PathBuilder
	round := vector.NewStroke(vector.Black(), 0.1, vector.CapRound)
	c.DrawPath(b.MoveTo(vector.P(-0.5, -0.5)).LineTo(vector.P(0.5, -0.5)).LineTo(vector.P(0.5, 0.5)).LineTo(vector.P(-0.5, -0.5)).Build(), round, nil)
	c.DrawLine(vector.P(0.7, 0.7), vector.P(0.7, 0.7), round, nil)
	opt := RasterOptions{Width: 80, Height: 80, Background: ptr(vector.White()), Antialias: true}
	native := rasterize(t, c, opt)
	opt.FlattenCurves = true
	flat := rasterize(t, c, opt)
	if !bytes.Equal(native.Pix, flat.Pix) {
		t.Fatalf("straight open subpaths must render the same with and without flattening")
	}
}

func TestRasterNegativeRadiusMatchesPositive(t *testing.T) {
	pos, neg := canvas.New(1), canvas.New(1)
	pos.DrawCircle(vector.P(0.1, 0), 0.5, vector.NewStroke(vector.Black(), 0.05, vector.CapButt), ptr(vector.Red()))
	neg.DrawCircle(vector.P(0.1, 0), -0.5, vector.NewStroke(vector.Black(), 0.05, vector.CapButt), ptr(vector.Red()))
	opt := RasterOptions{Width: 60, Height: 60, Background: ptr(vector.White()), Antialias: true}
	if !bytes.Equal(rasterize(t, pos, opt).Pix, rasterize(t, neg, opt).Pix) {
		t.Fatalf("negative radius should draw the same circle")
	}
}

func TestRasterStrokeCapsStayInsideCompositeRegion(t *testing.T) {
	c := canvas.New(1)
	c.DrawLine(vector.P(-0.5, 0), vector.P(0.5, 0), vector.NewStroke(vector.Black(), 0.4, vector.CapSquare), nil)
	c.DrawCircle(vector.P(0.9, 0.9), 0.05, nil, ptr(vector.Blue()))
	img := rasterize(t, c, RasterOptions{Width: 100, Height: 100, Background: ptr(vector.White())})
	if got := img.RGBAAt(17, 50); got != black {
		t.Fatalf("square cap = %v, want black", got)
	}
	if got := img.RGBAAt(12, 50); got != white {
		t.Fatalf("beyond cap = %v, want white", got)
	}
	if got := img.RGBAAt(95, 5); got != blue {
		t.Fatalf("later item = %v, want blue", got)
	}
	if got := img.RGBAAt(50, 5); got != white {
		t.Fatalf("stroke coverage leaked into a later item: %v", got)
	}
}

func TestRasterSkipsNonFiniteItems(t *testing.T) {
	nan := float32(math.NaN())
	c := canvas.New(1)
	c.DrawCircle(vector.P(nan, 0), 0.5, nil, ptr(vector.Black()))
	c.DrawLine(vector.P(0, 0), vector.P(float32(math.Inf(1)), 0), vector.NewStroke(vector.Black(), 0.1, vector.CapButt), nil)
	c.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	img := rasterize(t, c, RasterOptions{Width: 40, Height: 40, Background: ptr(vector.White())})

	ref := canvas.New(1)
	ref.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	want := rasterize(t, ref, RasterOptions{Width: 40, Height: 40, Background: ptr(vector.White())})
	if !bytes.Equal(img.Pix, want.Pix) {
		t.Fatalf("non-finite items should leave no trace")
	}
}

func TestRasterIsDeterministic(t *testing.T) {
	r, err := NewRasterRenderer(RasterOptions{Width: 120, Height: 80, Antialias: true})
	if err != nil {
		t.Fatal(err)
	}
	c := smiley()
	a := canvas.Render[*RasterImage](c, r)
	b := canvas.Render[*RasterImage](c, r)
	if a == b || !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("renders must be fresh images with identical pixels")
	}
}

func TestRasterEncodeAndSave(t *testing.T) {
	img := rasterize(t, smiley(), RasterOptions{Width: 50, Height: 50, Background: ptr(vector.White()), Antialias: true})
	var buf bytes.Buffer
	if err := img.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.Bounds() != img.Bounds() {
		t.Fatalf("decoded bounds %v, want %v", dec.Bounds(), img.Bounds())
	}
	path := filepath.Join(t.TempDir(), "smile.png")
	if err := img.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}
