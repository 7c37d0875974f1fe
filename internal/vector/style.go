/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"strings"
)

// Outline styling.

// LineCap is the shape drawn at the open ends of a stroked path.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

func (c LineCap) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return "butt"
	}
}

// ParseLineCap accepts "butt", "round" or "square" (case-insensitive).
// The empty string means butt.
func ParseLineCap(s string) (LineCap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "butt":
		return CapButt, nil
	case "round":
		return CapRound, nil
	case "square":
		return CapSquare, nil
	}
	return CapButt, fmt.Errorf("unknown line cap %q", s)
}

// Stroke describes how a shape's outline is painted. Width is in logical
// units.
type Stroke struct {
	Color Color
	Width float32
	Cap   LineCap
}

func NewStroke(c Color, width float32, lineCap LineCap) *Stroke {
	return &Stroke{Color: c, Width: width, Cap: lineCap}
}
