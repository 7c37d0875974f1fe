/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"
	"strconv"
	"strings"

	"vecdraw/internal/vector"
)

// Path data uses the absolute SVG commands M, L, Q, C and Z with
// whitespace or comma separated numbers, e.g. "M0 0 L1 1 Q1 2 0 2 Z".
// Extra coordinate pairs repeat the previous command; after M they are
// lines.

var pointsPerOp = map[byte]int{'M': 1, 'L': 1, 'Q': 2, 'C': 3, 'Z': 0}

// ParsePathData builds a path from path data.
func ParsePathData(d string) (vector.Path, error) {
	toks, err := tokenize(d)
	if err != nil {
		return vector.Path{}, err
	}
	var (
		b  vector.PathBuilder
		op byte
	)
	for i := 0; i < len(toks); {
		if t := toks[i]; t.op != 0 {
			op = t.op
			i++
			if op == 'Z' {
				b.Close()
				continue
			}
		} else if op == 0 || op == 'Z' {
			return vector.Path{}, fmt.Errorf("path data: number %g without command", t.num)
		}
		n := pointsPerOp[op] * 2
		if i+n > len(toks) {
			return vector.Path{}, fmt.Errorf("path data: %c needs %d numbers", op, n)
		}
		var nums [6]float32
		for j := 0; j < n; j++ {
			if toks[i+j].op != 0 {
				return vector.Path{}, fmt.Errorf("path data: %c needs %d numbers", op, n)
			}
			nums[j] = toks[i+j].num
		}
		i += n
		switch op {
		case 'M':
			b.MoveTo(vector.P(nums[0], nums[1]))
			op = 'L'
		case 'L':
			b.LineTo(vector.P(nums[0], nums[1]))
		case 'Q':
			b.QuadTo(vector.P(nums[0], nums[1]), vector.P(nums[2], nums[3]))
		case 'C':
			b.CubicTo(vector.P(nums[0], nums[1]), vector.P(nums[2], nums[3]), vector.P(nums[4], nums[5]))
		}
	}
	p := b.Build()
	if p.IsEmpty() {
		return p, fmt.Errorf("path data: empty")
	}
	return p, nil
}

type token struct {
	op  byte
	num float32
}

func tokenize(d string) ([]token, error) {
	var out []token
	for i := 0; i < len(d); {
		ch := d[i]
		switch {
		case ch == ' ' || ch == ',' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case strings.IndexByte("MLQCZ", ch) >= 0:
			out = append(out, token{op: ch})
			i++
		case ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9'):
			j := i + 1
			for j < len(d) && strings.IndexByte("0123456789.eE", d[j]) >= 0 ||
				j < len(d) && (d[j] == '-' || d[j] == '+') && (d[j-1] == 'e' || d[j-1] == 'E') {
				j++
			}
			v, err := strconv.ParseFloat(d[i:j], 32)
			if err != nil {
				return nil, fmt.Errorf("path data: bad number %q", d[i:j])
			}
			out = append(out, token{num: float32(v)})
			i = j
		default:
			return nil, fmt.Errorf("path data: unexpected %q at %d", ch, i)
		}
	}
	return out, nil
}

// FormatPathData writes p in the syntax ParsePathData reads, with the
// shortest float32 representation of every coordinate.
func FormatPathData(p vector.Path) string {
	var sb strings.Builder
	for i, c := range p.Cmds() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Op.String())
		for j := 0; j < pointsPerOp[c.Op.String()[0]]; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(float64(c.Pts[j].X), 'g', -1, 32))
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(float64(c.Pts[j].Y), 'g', -1, 32))
		}
	}
	return sb.String()
}
