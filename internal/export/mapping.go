/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns a canvas into concrete output: raster images, SVG
// markup and PDF documents. All backends share one logical-to-device
// mapping, so the same canvas looks the same in every format.
package export

import (
	"errors"
	"log/slog"

	"vecdraw/internal/canvas"
	"vecdraw/internal/log"
	"vecdraw/internal/vector"
)

// ErrInvalidConfig is returned by renderer constructors for unusable options.
var ErrInvalidConfig = errors.New("invalid renderer config")

// deviceTransform maps the viewport onto [0,w]x[0,h] with y flipped, so the
// logical origin lands exactly on the centre of the output.
func deviceTransform(vp vector.Rect, w, h float32) vector.Affine2D {
	return vector.Affine2D{
		A: w / vp.W,
		D: -h / vp.H,
		E: -vp.X * w / vp.W,
		F: (vp.Y + vp.H) * h / vp.H,
	}
}

// itemOutline returns the device-space outline of it and whether every
// point in it is finite.
func itemOutline(it canvas.Item, m vector.Affine2D) (vector.Path, bool) {
	p := it.Shape.Outline().Transform(m)
	for _, c := range p.Cmds() {
		for _, q := range c.Pts {
			if !q.IsFinite() {
				return p, false
			}
		}
	}
	return p, true
}

// fills reports whether it paints an interior. Lines have none.
func fills(it canvas.Item) bool {
	if it.Fill == nil {
		return false
	}
	_, isLine := it.Shape.(vector.Line)
	return !isLine
}

func strokes(it canvas.Item) bool {
	return it.Stroke != nil && it.Stroke.Width > 0
}

func logger(backend string) *slog.Logger {
	return log.WithComponent("export").With(slog.String("backend", backend))
}
