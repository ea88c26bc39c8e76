//go:build fyne && cgo

/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"firewatch/internal/domain"
	"firewatch/internal/viewport"
)

const wheelZoomStep = 1.25

// AlertCanvas displays the current alert frame with its bounding boxes under
// the shared pan/zoom transform. It owns no transform state of its own:
// wheel and drag gestures are forwarded to the viewport controller, and the
// widget redraws whenever the controller emits a change.
type AlertCanvas struct {
	widget.BaseWidget

	vc     *viewport.Controller
	raster *fynecanvas.Raster

	frame       image.Image
	boxes       []domain.BBox
	hideBoxes   bool
	baseStroke  float64
	lastSize    fyne.Size
	dragging    bool
	dragX, dragY float32
}

// NewAlertCanvas builds the widget against a shared controller.
func NewAlertCanvas(vc *viewport.Controller, baseStroke float64) *AlertCanvas {
	ac := &AlertCanvas{vc: vc, baseStroke: baseStroke}
	if ac.baseStroke <= 0 {
		ac.baseStroke = 2
	}
	ac.raster = fynecanvas.NewRaster(ac.render)
	ac.ExtendBaseWidget(ac)
	vc.OnTransformChange(func(float64) { ac.Refresh() })
	return ac
}

// SetFrame swaps the displayed image and its boxes.
func (ac *AlertCanvas) SetFrame(img image.Image, boxes []domain.BBox) {
	ac.frame = img
	ac.boxes = boxes
	ac.Refresh()
}

// SetShowBoxes toggles the bounding-box overlay.
func (ac *AlertCanvas) SetShowBoxes(show bool) {
	ac.hideBoxes = !show
	ac.Refresh()
}

func (ac *AlertCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ac.raster)
}

func (ac *AlertCanvas) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func (ac *AlertCanvas) Resize(size fyne.Size) {
	ac.BaseWidget.Resize(size)
	if size != ac.lastSize {
		ac.lastSize = size
		ac.vc.SetContainerSize(float64(size.Width), float64(size.Height))
	}
}

// Scrolled zooms around the cursor.
func (ac *AlertCanvas) Scrolled(ev *fyne.ScrollEvent) {
	factor := wheelZoomStep
	if ev.Scrolled.DY < 0 {
		factor = 1 / wheelZoomStep
	}
	ac.vc.ZoomAt(factor, float64(ev.Position.X), float64(ev.Position.Y))
}

// Dragged pans the zoomed viewport.
func (ac *AlertCanvas) Dragged(ev *fyne.DragEvent) {
	if !ac.dragging {
		ac.dragging = true
	}
	ac.vc.Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	ac.dragX, ac.dragY = ev.Position.X, ev.Position.Y
}

func (ac *AlertCanvas) DragEnd() { ac.dragging = false }

// render draws the frame fitted to the widget, then applies the controller's
// transform on top of that natural layout.
func (ac *AlertCanvas) render(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if ac.frame == nil || w == 0 || h == 0 {
		return dst
	}
	t := ac.vc.Transform()
	fb := ac.frame.Bounds()
	fit := math.Min(float64(w)/float64(fb.Dx()), float64(h)/float64(fb.Dy()))

	// natural layout centers the fitted frame; the transform scales and
	// shifts that layout
	natW := float64(fb.Dx()) * fit
	natH := float64(fb.Dy()) * fit
	ox := (float64(w)-natW)/2*t.Scale + t.TX
	oy := (float64(h)-natH)/2*t.Scale + t.TY

	rect := image.Rect(
		int(math.Round(ox)), int(math.Round(oy)),
		int(math.Round(ox+natW*t.Scale)), int(math.Round(oy+natH*t.Scale)))
	xdraw.ApproxBiLinear.Scale(dst, rect, ac.frame, fb, xdraw.Over, nil)

	if ac.hideBoxes {
		return dst
	}
	stroke := int(math.Max(1, math.Round(ac.baseStroke)))
	col := color.RGBA{R: 0xff, G: 0x3d, B: 0x00, A: 0xff}
	for _, b := range ac.boxes {
		if b.Empty() {
			continue
		}
		bx := rect.Min.X + int(b.X/100*float64(rect.Dx()))
		by := rect.Min.Y + int(b.Y/100*float64(rect.Dy()))
		bw := int(b.Width / 100 * float64(rect.Dx()))
		bh := int(b.Height / 100 * float64(rect.Dy()))
		outlineRect(dst, bx, by, bw, bh, stroke, col)
	}
	return dst
}

func outlineRect(img *image.RGBA, x, y, w, h, stroke int, col color.Color) {
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
