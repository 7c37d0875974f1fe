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
	"os"
	"path/filepath"
	"testing"

	"vecdraw/internal/canvas"
	"vecdraw/internal/vector"
)

func TestPDFRejectsBadPage(t *testing.T) {
	for _, opt := range []PDFOptions{{Width: 0, Height: 10}, {Width: 10, Height: -2}} {
		if _, err := NewPDFRenderer(opt); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%+v: err = %v, want ErrInvalidConfig", opt, err)
		}
	}
}

func TestPDFSmiley(t *testing.T) {
	r, err := NewPDFRenderer(PDFOptions{Width: 500, Height: 500, Background: ptr(vector.White()), Title: "smile"})
	if err != nil {
		t.Fatal(err)
	}
	doc := canvas.Render[*PDFDocument](smiley(), r)
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:min(len(data), 16)])
	}
	// Uncompressed content stream: yellow fill, black stroke, round caps.
	for _, op := range []string{"0.996 0.796 0.000 rg", "0.000 G", "1 J"} {
		if !bytes.Contains(data, []byte(op)) {
			t.Fatalf("content stream lacks %q", op)
		}
	}

	path := filepath.Join(t.TempDir(), "smile.pdf")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil || st.Size() != int64(len(data)) {
		t.Fatalf("saved pdf mismatch: %v", err)
	}
	var buf bytes.Buffer
	if n, err := doc.WriteTo(&buf); err != nil || n != int64(len(data)) {
		t.Fatalf("WriteTo = %d, %v", n, err)
	}
}

func TestPDFIsDeterministic(t *testing.T) {
	r, err := NewPDFRenderer(PDFOptions{Width: 200, Height: 100, Compress: true})
	if err != nil {
		t.Fatal(err)
	}
	c := smiley()
	a, errA := canvas.Render[*PDFDocument](c, r).Bytes()
	b, errB := canvas.Render[*PDFDocument](c, r).Bytes()
	if errA != nil || errB != nil {
		t.Fatalf("serialization: %v %v", errA, errB)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("two renders of one canvas differ")
	}
}

func TestPDFEmptyCanvas(t *testing.T) {
	r, err := NewPDFRenderer(PDFOptions{Width: 72, Height: 72})
	if err != nil {
		t.Fatal(err)
	}
	data, err := canvas.Render[*PDFDocument](canvas.New(1), r).Bytes()
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("empty canvas should still be a valid document: %v", err)
	}
	if bytes.Contains(data, []byte(" re f")) || bytes.Contains(data, []byte(" rg")) {
		t.Fatalf("no background requested, nothing should be painted")
	}
}

func TestPDFNegativeRadiusDrawsAbsolute(t *testing.T) {
	r, err := NewPDFRenderer(PDFOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatal(err)
	}
	pos, neg := canvas.New(1), canvas.New(1)
	pos.DrawCircle(vector.P(0, 0), 0.5, nil, ptr(vector.Red()))
	neg.DrawCircle(vector.P(0, 0), -0.5, nil, ptr(vector.Red()))
	a, errA := canvas.Render[*PDFDocument](pos, r).Bytes()
	b, errB := canvas.Render[*PDFDocument](neg, r).Bytes()
	if errA != nil || errB != nil {
		t.Fatalf("serialization: %v %v", errA, errB)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("negative radius should draw the same circle")
	}
}
