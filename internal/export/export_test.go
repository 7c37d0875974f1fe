/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"math"
	"testing"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

// smiley draws the yellow face with two eyes and a mouth on a size-1000 canvas.
func smiley() *canvas.Canvas {
	c := canvas.New(1000)
	yellow, _ := vector.FromHex("#fecb00")
	eye := vector.NewStroke(vector.Black(), 0.2, vector.CapRound)
	mouth := vector.NewStroke(vector.Black(), 0.02, vector.CapRound)
	c.DrawCircle(vector.P(0, 0), 1, nil, &yellow)
	c.DrawLine(vector.P(-0.5, 0.25), vector.P(-0.5, 0), eye, nil)
	c.DrawLine(vector.P(0.5, 0.25), vector.P(0.5, 0), eye, nil)
	c.DrawQuadraticBezier(vector.P(-0.5, -0.3), vector.P(0, -0.5), vector.P(0.5, -0.3), mouth, nil)
	return c
}

func ptr(c vector.Color) *vector.Color { return &c }

func TestDeviceTransformMapsOriginToCentre(t *testing.T) {
	vp := canvas.Viewport
	for _, sz := range [][2]float32{{1, 1}, {100, 100}, {1000, 1000}, {640, 480}, {3, 7}, {1, 999}} {
		w, h := sz[0], sz[1]
		m := deviceTransform(vp, w, h)
		if got := m.Apply(vector.P(0, 0)); got != vector.P(w/2, h/2) {
			t.Fatalf("%vx%v: origin -> %+v, want centre", w, h, got)
		}
		if got := m.Apply(vector.P(-1, 1)); got != vector.P(0, 0) {
			t.Fatalf("%vx%v: top-left -> %+v", w, h, got)
		}
		if got := m.Apply(vector.P(1, -1)); got != vector.P(w, h) {
			t.Fatalf("%vx%v: bottom-right -> %+v", w, h, got)
		}
	}
}

func TestUniformScaleUsesShorterAxis(t *testing.T) {
	m := deviceTransform(canvas.Viewport, 200, 100)
	if s := m.UniformScale(); s != 50 {
		t.Fatalf("UniformScale = %v, want 50", s)
	}
}

func TestNonFiniteItemsDetected(t *testing.T) {
	m := deviceTransform(canvas.Viewport, 10, 10)
	nan := float32(math.NaN())
	bad := canvas.Item{Shape: vector.Line{Start: vector.P(nan, 0), End: vector.P(1, 1)}}
	if _, ok := itemOutline(bad, m); ok {
		t.Fatalf("NaN line should be flagged")
	}
	good := canvas.Item{Shape: vector.Circle{Center: vector.P(0, 0), Radius: 1}}
	if _, ok := itemOutline(good, m); !ok {
		t.Fatalf("finite circle flagged as non-finite")
	}
}

func TestLinesNeverFill(t *testing.T) {
	red := vector.Red()
	if fills(canvas.Item{Shape: vector.Line{}, Fill: &red}) {
		t.Fatalf("a line has no interior")
	}
	if !fills(canvas.Item{Shape: vector.Circle{}, Fill: &red}) {
		t.Fatalf("circle fill lost")
	}
	if strokes(canvas.Item{Shape: vector.Line{}, Stroke: vector.NewStroke(red, 0, vector.CapButt)}) {
		t.Fatalf("zero-width stroke should not paint")
	}
}
