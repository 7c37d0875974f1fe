/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import "vecdraw/internal/vector"

// Frame is what a renderer learns about a canvas before any item arrives.
type Frame struct {
	// Size is the logical size of the canvas: how many logical units the
	// viewport spans in markup output.
	Size float32
	// Viewport is the visible region of the logical plane, y pointing up.
	Viewport vector.Rect
}

// Renderer converts a canvas into an output value of type O. A Renderer is
// configuration only; Begin allocates the per-render state, so one renderer
// may serve any number of renders, also concurrently.
type Renderer[O any] interface {
	Begin(f Frame) Target[O]
}

// Target receives the items of a single render in stacking order.
type Target[O any] interface {
	Draw(it Item)
	Finish() O
}

// Render draws every item of c, oldest first, through r and returns the
// produced output. The canvas is not modified, so rendering twice with the
// same renderer yields the same output.
func Render[O any](c *Canvas, r Renderer[O]) O {
	t := r.Begin(c.Frame())
	for _, it := range c.items {
		t.Draw(it)
	}
	return t.Finish()
}
