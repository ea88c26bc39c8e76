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
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"firewatch/internal/domain"
)

func testFrameJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 60, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestWriteEventReport(t *testing.T) {
	ev := &domain.Event{
		ID:      7,
		Camera:  domain.Camera{Name: "brison", Lat: 44.3, Lon: 4.2},
		Created: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
		Alerts: []domain.Alert{
			{ID: 71, EventID: 7, Azimuth: 110, Created: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
				Boxes: []domain.BBox{{X: 10, Y: 20, Width: 5, Height: 4}}},
			{ID: 72, EventID: 7, Azimuth: 111, Created: time.Date(2025, 6, 10, 14, 1, 0, 0, time.UTC)},
		},
	}
	out := filepath.Join(t.TempDir(), "reports", "event-7.pdf")
	err := WriteEventReport(ev, out, ReportOptions{
		Operator: "tester",
		Frames:   map[int64][]byte{71: testFrameJPEG(t, 320, 240)},
	})
	if err != nil {
		t.Fatalf("WriteEventReport error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(data) == 0 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF (%d bytes)", len(data))
	}
}

func TestWriteEventReportNilEvent(t *testing.T) {
	if err := WriteEventReport(nil, filepath.Join(t.TempDir(), "x.pdf"), ReportOptions{}); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestSnapshotDrawsBoxes(t *testing.T) {
	frame := testFrameJPEG(t, 200, 100)
	alert := domain.Alert{
		Boxes: []domain.BBox{{X: 25, Y: 25, Width: 50, Height: 50}},
	}
	out, err := Snapshot(frame, alert, SnapshotOptions{StrokeWidth: 1})
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	// top-left corner of the box at (50, 25) must carry the stroke color
	r, g, b, _ := img.At(50, 25).RGBA()
	if r>>8 != 0xff || g>>8 != 0x3d || b>>8 != 0x00 {
		t.Fatalf("box stroke not drawn: got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestSnapshotScalesDown(t *testing.T) {
	frame := testFrameJPEG(t, 400, 200)
	out, err := Snapshot(frame, domain.Alert{}, SnapshotOptions{MaxWidth: 100})
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("unexpected scaled size %v", img.Bounds())
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	if _, err := Snapshot([]byte("not an image"), domain.Alert{}, SnapshotOptions{}); err == nil {
		t.Fatalf("expected decode error")
	}
}
