/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vecdraw/internal/canvas"
	"vecdraw/internal/config"
	"vecdraw/internal/export"
	"vecdraw/internal/vector"
)

// renderFile renders c to out, choosing the backend from the file extension.
// It returns the format name and the size of the written file.
func renderFile(c *canvas.Canvas, title string, bg *vector.Color, rc config.RenderConfig, out string) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(out))
	var err error
	switch ext {
	case ".png":
		var r *export.RasterRenderer
		r, err = export.NewRasterRenderer(export.RasterOptions{
			Width: rc.Width, Height: rc.Height, Background: bg,
			Antialias: rc.Antialias, FlattenCurves: rc.FlattenCurves,
		})
		if err == nil {
			err = canvas.Render[*export.RasterImage](c, r).Save(out)
		}
	case ".svg":
		var r *export.SVGRenderer
		r, err = export.NewSVGRenderer(export.SVGOptions{
			Width: float32(rc.Width), Height: float32(rc.Height), Background: bg,
			InlineStyle: rc.InlineStyle, Indent: rc.Indent, Precision: rc.Precision,
		})
		if err == nil {
			err = canvas.Render[export.SVGDocument](c, r).Save(out)
		}
	case ".pdf":
		var r *export.PDFRenderer
		r, err = export.NewPDFRenderer(export.PDFOptions{
			Width: float64(rc.Width), Height: float64(rc.Height), Background: bg,
			Title: title, Compress: true,
		})
		if err == nil {
			err = canvas.Render[*export.PDFDocument](c, r).Save(out)
		}
	default:
		return "", 0, fmt.Errorf("unsupported output %q: want .png, .svg or .pdf", out)
	}
	if err != nil {
		return "", 0, err
	}
	st, err := os.Stat(out)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimPrefix(ext, "."), st.Size(), nil
}
