/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene reads and writes declarative scene documents: a canvas
// size, an optional background and an ordered list of shapes, in YAML or
// JSON. Documents are checked against an embedded JSON schema before they
// are decoded.
package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"vecdraw/internal/canvas"
	"vecdraw/internal/log"
	"vecdraw/internal/vector"
)

//go:embed scene.schema.json
var schemaJSON []byte

// ErrInvalidScene wraps every schema, decode and build failure.
var ErrInvalidScene = errors.New("invalid scene")

// Point is an [x, y] pair in logical units.
type Point [2]float32

func (p Point) Pt() vector.Pt { return vector.Pt{X: p[0], Y: p[1]} }

type StrokeSpec struct {
	Color string  `yaml:"color" json:"color"`
	Width float32 `yaml:"width" json:"width"`
	Cap   string  `yaml:"cap,omitempty" json:"cap,omitempty"`
}

// ShapeSpec describes one shape. Which geometry fields apply depends on Kind.
type ShapeSpec struct {
	Kind    string      `yaml:"kind" json:"kind"`
	Center  *Point      `yaml:"center,omitempty,flow" json:"center,omitempty"`
	Radius  *float32    `yaml:"radius,omitempty" json:"radius,omitempty"`
	Start   *Point      `yaml:"start,omitempty,flow" json:"start,omitempty"`
	Control *Point      `yaml:"control,omitempty,flow" json:"control,omitempty"`
	End     *Point      `yaml:"end,omitempty,flow" json:"end,omitempty"`
	D       string      `yaml:"d,omitempty" json:"d,omitempty"`
	Stroke  *StrokeSpec `yaml:"stroke,omitempty" json:"stroke,omitempty"`
	Fill    string      `yaml:"fill,omitempty" json:"fill,omitempty"`
}

// Document is a decoded scene.
type Document struct {
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Size       float32     `yaml:"size,omitempty" json:"size,omitempty"`
	Background string      `yaml:"background,omitempty" json:"background,omitempty"`
	Shapes     []ShapeSpec `yaml:"shapes" json:"shapes"`
}

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Validate checks data (YAML or JSON) against the scene schema.
func Validate(data []byte) error {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if generic == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidScene)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(generic))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidScene, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates and decodes a scene document.
func Parse(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	log.WithComponent("scene").Debug("parsed scene", slog.String("name", doc.Name), slog.Int("shapes", len(doc.Shapes)))
	return doc, nil
}

// Marshal encodes doc as YAML.
func Marshal(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// BackgroundColor parses Background; an empty value yields nil.
func (d Document) BackgroundColor() (*vector.Color, error) {
	if d.Background == "" {
		return nil, nil
	}
	c, err := vector.FromHex(d.Background)
	if err != nil {
		return nil, fmt.Errorf("%w: background: %v", ErrInvalidScene, err)
	}
	return &c, nil
}

// Canvas builds a canvas holding the document's shapes in order.
func (d Document) Canvas() (*canvas.Canvas, error) {
	c := canvas.New(d.Size)
	for i, s := range d.Shapes {
		if err := s.drawOn(c); err != nil {
			return nil, fmt.Errorf("%w: shape %d (%s): %v", ErrInvalidScene, i, s.Kind, err)
		}
	}
	return c, nil
}

func (s ShapeSpec) drawOn(c *canvas.Canvas) error {
	var stroke *vector.Stroke
	if s.Stroke != nil {
		col, err := vector.FromHex(s.Stroke.Color)
		if err != nil {
			return err
		}
		lc, err := vector.ParseLineCap(s.Stroke.Cap)
		if err != nil {
			return err
		}
		stroke = vector.NewStroke(col, s.Stroke.Width, lc)
	}
	var fill *vector.Color
	if s.Fill != "" {
		col, err := vector.FromHex(s.Fill)
		if err != nil {
			return err
		}
		fill = &col
	}
	need := func(ps ...*Point) error {
		for _, p := range ps {
			if p == nil {
				return errors.New("missing point")
			}
		}
		return nil
	}
	switch s.Kind {
	case "circle":
		if err := need(s.Center); err != nil {
			return err
		}
		if s.Radius == nil {
			return errors.New("missing radius")
		}
		c.DrawCircle(s.Center.Pt(), *s.Radius, stroke, fill)
	case "line":
		if err := need(s.Start, s.End); err != nil {
			return err
		}
		c.DrawLine(s.Start.Pt(), s.End.Pt(), stroke, fill)
	case "quad":
		if err := need(s.Start, s.Control, s.End); err != nil {
			return err
		}
		c.DrawQuadraticBezier(s.Start.Pt(), s.Control.Pt(), s.End.Pt(), stroke, fill)
	case "path":
		p, err := ParsePathData(s.D)
		if err != nil {
			return err
		}
		c.DrawPath(p, stroke, fill)
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

// FromCanvas describes c as a document. A nil background is omitted.
func FromCanvas(name string, c *canvas.Canvas, background *vector.Color) Document {
	doc := Document{Name: name, Size: c.Size(), Shapes: []ShapeSpec{}}
	if background != nil {
		doc.Background = background.Hex(true)
	}
	for _, it := range c.Items() {
		var s ShapeSpec
		switch sh := it.Shape.(type) {
		case vector.Circle:
			r := sh.Radius
			s = ShapeSpec{Kind: "circle", Center: pointOf(sh.Center), Radius: &r}
		case vector.Line:
			s = ShapeSpec{Kind: "line", Start: pointOf(sh.Start), End: pointOf(sh.End)}
		case vector.QuadBezier:
			s = ShapeSpec{Kind: "quad", Start: pointOf(sh.Start), Control: pointOf(sh.Control), End: pointOf(sh.End)}
		case vector.PathShape:
			s = ShapeSpec{Kind: "path", D: FormatPathData(sh.Path)}
		default:
			continue
		}
		if it.Stroke != nil {
			s.Stroke = &StrokeSpec{Color: it.Stroke.Color.Hex(true), Width: it.Stroke.Width, Cap: it.Stroke.Cap.String()}
		}
		if it.Fill != nil {
			s.Fill = it.Fill.Hex(true)
		}
		doc.Shapes = append(doc.Shapes, s)
	}
	return doc
}

func pointOf(p vector.Pt) *Point { return &Point{p.X, p.Y} }

// Smiley is the reference scene: a yellow face, two round-capped eyes and
// a curved mouth on a white background.
func Smiley() Document {
	black := "#000000FF"
	one := float32(1)
	return Document{
		Name:       "smiley",
		Size:       1000,
		Background: "#FFFFFFFF",
		Shapes: []ShapeSpec{
			{Kind: "circle", Center: &Point{0, 0}, Radius: &one, Fill: "#FECB00FF"},
			{Kind: "line", Start: &Point{-0.5, 0.25}, End: &Point{-0.5, 0}, Stroke: &StrokeSpec{Color: black, Width: 0.2, Cap: "round"}},
			{Kind: "line", Start: &Point{0.5, 0.25}, End: &Point{0.5, 0}, Stroke: &StrokeSpec{Color: black, Width: 0.2, Cap: "round"}},
			{Kind: "quad", Start: &Point{-0.5, -0.3}, Control: &Point{0, -0.5}, End: &Point{0.5, -0.3}, Stroke: &StrokeSpec{Color: black, Width: 0.02, Cap: "round"}},
		},
	}
}
