/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package compose

import (
	"testing"
	"time"

	"firewatch/internal/bridge"
	"firewatch/internal/domain"
	"firewatch/internal/view"
	"firewatch/internal/viewport"
)

func testEvent(id int64, frames int) *domain.Event {
	ev := &domain.Event{
		ID:      id,
		Camera:  domain.Camera{ID: 1, Name: "serre-de-barre"},
		Created: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
	}
	for i := 0; i < frames; i++ {
		ev.Alerts = append(ev.Alerts, domain.Alert{
			ID:       id*100 + int64(i),
			EventID:  id,
			MediaURL: "https://media.test/" + string(rune('a'+id)) + "-" + string(rune('0'+i)) + ".jpg",
			Boxes:    []domain.BBox{{X: 10, Y: 20, Width: 5, Height: 4}},
		})
	}
	return ev
}

func newHarness(t *testing.T) (*Dashboard, *viewport.Controller) {
	t.Helper()
	tree := view.NewTree(view.NewLoop())
	vc := viewport.New(viewport.Config{MaxScale: 8})
	vc.SetContainerSize(800, 600)
	bridge.Attach(tree, vc, bridge.Options{BaseStrokeWidth: 2})
	return MountDashboard(tree), vc
}

func TestShowEventResetsAfterImageLoads(t *testing.T) {
	d, vc := newHarness(t)
	d.ShowEvent(testEvent(1, 5))
	d.NoteImageLoaded(d.CurrentSrc())

	vc.ZoomAt(3, 100, 100)
	zoomed := vc.Transform()

	next := testEvent(2, 6)
	d.ShowEvent(next)
	if vc.Transform() != zoomed {
		t.Fatalf("reset applied before the new image arrived")
	}

	d.NoteImageLoaded(d.CurrentSrc())
	if !vc.Transform().IsIdentity() {
		t.Fatalf("viewport must reset once the new event's image is up: %+v", vc.Transform())
	}
	if d.Frame() != len(next.Alerts)-1 {
		t.Fatalf("event switch must land on the latest frame, got %d", d.Frame())
	}
}

func TestFrameAdvancePreservesViewport(t *testing.T) {
	d, vc := newHarness(t)
	d.ShowEvent(testEvent(1, 5))
	d.NoteImageLoaded(d.CurrentSrc())

	vc.ZoomAt(2, 50, 50)
	zoomed := vc.Transform()

	d.ShowFrame(0)
	d.NoteImageLoaded(d.CurrentSrc())
	if vc.Transform() != zoomed {
		t.Fatalf("stepping frames must keep the operator's framing: %+v", vc.Transform())
	}
}

func TestAdvanceWraps(t *testing.T) {
	d, _ := newHarness(t)
	d.ShowEvent(testEvent(1, 3))
	if d.Frame() != 2 {
		t.Fatalf("expected last frame first, got %d", d.Frame())
	}
	d.Advance()
	if d.Frame() != 0 {
		t.Fatalf("expected wrap to frame 0, got %d", d.Frame())
	}
	d.Advance()
	if d.Frame() != 1 {
		t.Fatalf("expected frame 1, got %d", d.Frame())
	}
}

func TestStaleLoadCompletionIgnored(t *testing.T) {
	d, vc := newHarness(t)
	d.ShowEvent(testEvent(1, 5))
	slow := d.CurrentSrc()
	d.NoteImageLoaded(slow)

	vc.ZoomAt(2, 0, 0)
	d.ShowEvent(testEvent(2, 5))

	// completion for the previous event's image arrives late
	d.NoteImageLoaded(slow)
	if vc.Transform().IsIdentity() {
		t.Fatalf("stale completion must not flush the pending reset")
	}

	d.NoteImageLoaded(d.CurrentSrc())
	if !vc.Transform().IsIdentity() {
		t.Fatalf("current completion must flush it")
	}
}

func TestReshowingSameEventDoesNotReset(t *testing.T) {
	d, vc := newHarness(t)
	ev := testEvent(1, 5)
	d.ShowEvent(ev)
	d.NoteImageLoaded(d.CurrentSrc())

	vc.ZoomAt(2, 0, 0)
	zoomed := vc.Transform()

	// refresh cycle delivers the same event again
	d.ShowEvent(testEvent(1, 5))
	if vc.Transform() != zoomed {
		t.Fatalf("re-selecting the displayed event must not move the viewport")
	}
}

func TestOverlayEncodesBoxes(t *testing.T) {
	d, _ := newHarness(t)
	ev := testEvent(1, 5)
	ev.Alerts[4].Boxes = []domain.BBox{
		{X: 12.5, Y: 30, Width: 4.25, Height: 3},
		{}, // empty, must be skipped
	}
	d.ShowEvent(ev)

	overlay := d.tree.Lookup(bridge.NodeBBoxOverlay)
	if overlay == nil {
		t.Fatalf("overlay not mounted")
	}
	kids := overlay.Children()
	if len(kids) != 1 {
		t.Fatalf("expected 1 box node, got %d", len(kids))
	}
	if got := kids[0].AttrOr("x", ""); got != "12.50%" {
		t.Fatalf("x = %q", got)
	}
	if got := kids[0].AttrOr("w", ""); got != "4.25%" {
		t.Fatalf("w = %q", got)
	}
}

func TestOverlayReplacementKeepsStrokeWidth(t *testing.T) {
	d, vc := newHarness(t)
	d.ShowEvent(testEvent(1, 5))
	d.NoteImageLoaded(d.CurrentSrc())

	vc.ZoomAt(4, 0, 0)
	want := d.tree.Lookup(bridge.NodeBBoxOverlay).AttrOr(bridge.AttrStrokeWidth, "")
	if want == "" {
		t.Fatalf("styler did not write a stroke width")
	}

	d.ShowFrame(1)
	got := d.tree.Lookup(bridge.NodeBBoxOverlay).AttrOr(bridge.AttrStrokeWidth, "")
	if got != want {
		t.Fatalf("stroke width lost across overlay replacement: got %q, want %q", got, want)
	}
}
