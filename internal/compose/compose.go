/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package compose renders alert events into the dashboard's view tree. It
// plays the server-driven side of the contract internal/bridge observes:
// fragment swaps, the image element's load attributes, and the signaling
// node's round-trip pulses. The composer never touches the viewport — it
// only announces, via the signaling node, when a reset would be warranted.
package compose

import (
	"log/slog"
	"strconv"

	"firewatch/internal/bridge"
	"firewatch/internal/domain"
	applog "firewatch/internal/log"
	"firewatch/internal/view"
)

// Dashboard owns the alert-image fragment of the view tree.
type Dashboard struct {
	tree      *view.Tree
	container *view.Node
	img       *view.Node
	signal    *view.Node

	event *domain.Event
	frame int
	src   string

	log *slog.Logger
}

// MountDashboard builds the image container, image, overlay and signaling
// nodes under the tree root. Call before or after bridge.Attach; both orders
// work, the bridge waits for the fragment.
func MountDashboard(tree *view.Tree) *Dashboard {
	d := &Dashboard{
		tree: tree,
		log:  applog.WithComponent("compose"),
	}
	root := tree.Root()
	d.container = root.AppendChild(bridge.NodeImageContainer)
	d.img = d.container.AppendChild(bridge.NodeImage)
	d.container.AppendChild(bridge.NodeBBoxOverlay)
	d.signal = root.AppendChild(bridge.NodeSignal)
	return d
}

// Event returns the currently displayed event, or nil.
func (d *Dashboard) Event() *domain.Event { return d.event }

// Frame returns the index of the currently displayed alert frame.
func (d *Dashboard) Frame() int { return d.frame }

// CurrentSrc returns the media URL of the frame on screen.
func (d *Dashboard) CurrentSrc() string { return d.src }

// ShowEvent switches the dashboard to a different event, starting on its
// most recent frame, and pulses the reset command on the signaling node.
// The frame swap happens before the pulse so that the reset is held until
// the new image has actually arrived.
func (d *Dashboard) ShowEvent(ev *domain.Event) {
	if ev == nil || len(ev.Alerts) == 0 {
		return
	}
	if d.event != nil && d.event.ID == ev.ID {
		d.event = ev
		return
	}
	d.event = ev
	d.renderFrame(len(ev.Alerts) - 1)
	d.pulse(bridge.ResetToken)
	d.log.Info("event shown",
		slog.Int64("event_id", ev.ID),
		slog.String("camera", ev.Camera.Name))
}

// ShowFrame moves to another frame of the current event. The viewport is
// deliberately left alone: an operator inspecting smoke at zoom keeps their
// framing while stepping through the sequence.
func (d *Dashboard) ShowFrame(i int) {
	if d.event == nil || i < 0 || i >= len(d.event.Alerts) {
		return
	}
	d.renderFrame(i)
}

// Advance steps to the next frame, wrapping to the first. Used by the
// auto-play ticker on the frame slider.
func (d *Dashboard) Advance() {
	if d.event == nil || len(d.event.Alerts) == 0 {
		return
	}
	d.ShowFrame((d.frame + 1) % len(d.event.Alerts))
}

// NoteImageLoaded reports that the media at src finished loading. Stale
// completions — the operator moved on before a slow fetch finished — are
// ignored by comparing against the image element's current source.
func (d *Dashboard) NoteImageLoaded(src string) {
	if src == "" || src != d.src {
		d.log.Debug("stale load completion dropped", slog.String("src", src))
		return
	}
	d.img.SetAttr(bridge.AttrLoaded, "true")
}

func (d *Dashboard) renderFrame(i int) {
	alert := d.event.Alerts[i]
	d.frame = i
	d.src = alert.MediaURL

	d.img.RemoveAttr(bridge.AttrLoaded)
	d.img.SetAttr(bridge.AttrSrc, alert.MediaURL)
	d.renderOverlay(alert.Boxes)
}

// renderOverlay replaces the overlay node wholesale, the way a server-driven
// renderer swaps fragments. The stroke width last written by the styler is
// carried over onto the replacement.
func (d *Dashboard) renderOverlay(boxes []domain.BBox) {
	var stroke string
	if old := d.tree.Lookup(bridge.NodeBBoxOverlay); old != nil {
		stroke = old.AttrOr(bridge.AttrStrokeWidth, "")
		old.Remove()
	}
	overlay := d.container.AppendChild(bridge.NodeBBoxOverlay)
	if stroke != "" {
		overlay.SetAttr(bridge.AttrStrokeWidth, stroke)
	}
	for i, b := range boxes {
		if b.Empty() {
			continue
		}
		r := overlay.AppendChild("bbox-" + strconv.Itoa(i))
		r.SetAttr("x", pct(b.X))
		r.SetAttr("y", pct(b.Y))
		r.SetAttr("w", pct(b.Width))
		r.SetAttr("h", pct(b.Height))
	}
}

// pulse performs one command round-trip on the signaling node. The label is
// cleared before the closing transition so a later, unrelated round-trip
// cannot replay the command.
func (d *Dashboard) pulse(label string) {
	d.signal.SetAttr(bridge.AttrLabel, label)
	d.signal.SetAttr(bridge.AttrLoading, "true")
	d.signal.SetAttr(bridge.AttrLabel, "")
	d.signal.SetAttr(bridge.AttrLoading, "false")
}

func pct(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) + "%" }
