/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"firewatch/internal/domain"
)

// SnapshotOptions controls annotated snapshot rendering.
type SnapshotOptions struct {
	// MaxWidth scales the output down when the source frame is wider.
	// Zero keeps the source size.
	MaxWidth int
	// StrokeWidth of the box outline in output pixels. Zero means 2.
	StrokeWidth int
	BoxColor    color.Color
}

// Snapshot decodes a frame image, draws the alert's bounding boxes on it and
// returns the result as PNG bytes. Boxes are in percent coordinates and are
// mapped to pixels here.
func Snapshot(frame []byte, alert domain.Alert, opt SnapshotOptions) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if opt.MaxWidth > 0 && w > opt.MaxWidth {
		h = h * opt.MaxWidth / w
		w = opt.MaxWidth
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	stroke := opt.StrokeWidth
	if stroke <= 0 {
		stroke = 2
	}
	col := opt.BoxColor
	if col == nil {
		col = color.RGBA{R: 0xff, G: 0x3d, B: 0x00, A: 0xff}
	}
	for _, box := range alert.Boxes {
		if box.Empty() {
			continue
		}
		drawRect(dst,
			int(box.X/100*float64(w)), int(box.Y/100*float64(h)),
			int(box.Width/100*float64(w)), int(box.Height/100*float64(h)),
			stroke, col)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return out.Bytes(), nil
}

// drawRect outlines a rectangle with the given stroke, clipped to the image.
func drawRect(img *image.RGBA, x, y, w, h, stroke int, col color.Color) {
	set := func(px, py int) {
		if image.Pt(px, py).In(img.Bounds()) {
			img.Set(px, py, col)
		}
	}
	for s := 0; s < stroke; s++ {
		for px := x - s; px <= x+w+s; px++ {
			set(px, y-s)
			set(px, y+h+s)
		}
		for py := y - s; py <= y+h+s; py++ {
			set(x-s, py)
			set(x+w+s, py)
		}
	}
}
