/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Color is an RGBA color with float32 channels nominally in [0, 1].
// Channels are not clamped on construction or by arithmetic; clamping
// happens only when a backend consumes the color (see Clamped, NRGBA).
type Color struct{ R, G, B, A float32 }

var (
	// ErrInvalidHex is returned by FromHex for malformed input.
	ErrInvalidHex = errors.New("invalid hex color")
	// ErrInvalidHSV is returned by FromHSV when hue+saturation+value exceeds 3.
	ErrInvalidHSV = errors.New("invalid hsv color")
)

func RGBA(r, g, b, a float32) Color { return Color{R: r, G: g, B: b, A: a} }

func White() Color       { return Color{1, 1, 1, 1} }
func Black() Color       { return Color{0, 0, 0, 1} }
func Red() Color         { return Color{1, 0, 0, 1} }
func Green() Color       { return Color{0, 1, 0, 1} }
func Blue() Color        { return Color{0, 0, 1, 1} }
func Transparent() Color { return Color{} }

// FromStd converts any image/color value.
func FromStd(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

func (c Color) WithR(r float32) Color { c.R = r; return c }
func (c Color) WithG(g float32) Color { c.G = g; return c }
func (c Color) WithB(b float32) Color { c.B = b; return c }
func (c Color) WithA(a float32) Color { c.A = a; return c }

// Value is the mean of the color channels, alpha excluded.
func (c Color) Value() float32 { return (c.R + c.G + c.B) / 3 }

// FromHSV builds an opaque color from hue, saturation and value, each
// expected in [0, 1]. Hue is a fraction of the full circle.
func FromHSV(hue, saturation, value float32) (Color, error) {
	if hue+saturation+value > 3 {
		return Color{}, fmt.Errorf("%w: h+s+v = %g exceeds 3", ErrInvalidHSV, hue+saturation+value)
	}

	hp := hue / (1.0 / 6.0)
	c := saturation * value
	x := c * (1 - math32.Abs(math32.Mod(hp, 2)-1))
	m := value - c

	var r, g, b float32
	switch {
	case hp <= 1:
		r, g = c, x
	case hp <= 2:
		r, g = x, c
	case hp <= 3:
		g, b = c, x
	case hp <= 4:
		g, b = x, c
	case hp <= 5:
		r, b = x, c
	default:
		r, b = c, x
	}
	return Color{R: r + m, G: g + m, B: b + m, A: 1}, nil
}

// FromHex parses "RRGGBB" or "RRGGBBAA", optionally prefixed with '#' or
// "0x". Alpha defaults to 1 when omitted. Digits are case-insensitive;
// anything after the eighth digit is ignored.
func FromHex(s string) (Color, error) {
	hex := s
	switch {
	case strings.HasPrefix(hex, "#"):
		hex = hex[1:]
	case strings.HasPrefix(hex, "0x"):
		hex = hex[2:]
	}
	if len(hex) < 6 {
		return Color{}, fmt.Errorf("%w: %q is too short", ErrInvalidHex, s)
	}

	var ch [4]float32
	ch[3] = 1
	n := 3
	if len(hex) > 6 {
		if len(hex) < 8 {
			return Color{}, fmt.Errorf("%w: %q has an incomplete alpha channel", ErrInvalidHex, s)
		}
		n = 4
	}
	for i := 0; i < n; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidHex, s, err)
		}
		ch[i] = float32(v) / 255
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// Hex formats the color as "#RRGGBB", or "#RRGGBBAA" with includeAlpha.
// Each channel is truncated to a byte after scaling by 255, saturating
// out-of-range values.
func (c Color) Hex(includeAlpha bool) string {
	if includeAlpha {
		return fmt.Sprintf("#%02X%02X%02X%02X", toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A))
	}
	return fmt.Sprintf("#%02X%02X%02X", toByte(c.R), toByte(c.G), toByte(c.B))
}

func (c Color) String() string { return c.Hex(true) }

func toByte(v float32) uint8 {
	v *= 255
	switch {
	case v != v: // NaN
		return 0
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Component-wise arithmetic. Division by zero follows IEEE-754.

func (c Color) Add(o Color) Color { return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A} }
func (c Color) Sub(o Color) Color { return Color{c.R - o.R, c.G - o.G, c.B - o.B, c.A - o.A} }
func (c Color) Mul(o Color) Color { return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A} }
func (c Color) Div(o Color) Color { return Color{c.R / o.R, c.G / o.G, c.B / o.B, c.A / o.A} }

// Rem is the floating-point remainder, with the sign of the dividend.
func (c Color) Rem(o Color) Color {
	return Color{math32.Mod(c.R, o.R), math32.Mod(c.G, o.G), math32.Mod(c.B, o.B), math32.Mod(c.A, o.A)}
}

func (c Color) Scale(s float32) Color     { return Color{c.R * s, c.G * s, c.B * s, c.A * s} }
func (c Color) DivScalar(s float32) Color { return Color{c.R / s, c.G / s, c.B / s, c.A / s} }
func (c Color) RemScalar(s float32) Color {
	return Color{math32.Mod(c.R, s), math32.Mod(c.G, s), math32.Mod(c.B, s), math32.Mod(c.A, s)}
}

// Clamped returns the color with every channel clamped to [0, 1]. NaN
// channels become 0.
func (c Color) Clamped() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NRGBA converts the clamped color to 8-bit non-premultiplied form,
// rounding to the nearest byte.
func (c Color) NRGBA() color.NRGBA {
	k := c.Clamped()
	return color.NRGBA{
		R: uint8(math32.Round(k.R * 255)),
		G: uint8(math32.Round(k.G * 255)),
		B: uint8(math32.Round(k.B * 255)),
		A: uint8(math32.Round(k.A * 255)),
	}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }
