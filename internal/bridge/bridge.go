/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package bridge synchronizes the pan/zoom viewport with the server-driven
// renderer's out-of-band fragment swaps. It has no hook into the renderer's
// update cycle: it infers load start, load completion and operator intent
// purely by observing the rendered view tree, and decides from the reason a
// fragment changed whether the viewport resets or is preserved.
package bridge

import (
	"log/slog"
	"strconv"

	applog "firewatch/internal/log"
	"firewatch/internal/view"
	"firewatch/internal/viewport"
)

// Node ids and attributes of the dashboard fragment. The renderer side
// (internal/compose) produces them; the bridge only observes.
const (
	NodeImageContainer = "alert-image-container"
	NodeImage          = "alert-image"
	NodeBBoxOverlay    = "bbox-overlay"
	NodeSignal         = "viewport-signal"

	// AttrLoading toggles on the signaling node around every server
	// round-trip touching it. The values themselves carry no meaning; only
	// the transition does.
	AttrLoading = "data-loading"
	// AttrLabel is the signaling node's command channel.
	AttrLabel = "label"
	// AttrSrc / AttrLoaded model the image element's source swap and native
	// load-completion notification.
	AttrSrc    = "src"
	AttrLoaded = "loaded"
	// AttrTransform / AttrStrokeWidth are the bridge's outbound surface.
	AttrTransform   = "transform"
	AttrStrokeWidth = "stroke-width"
)

// Options configures one bridge instance. Zero values select the default
// dashboard fragment; the bridge is instantiated per viewport, so two
// independent viewports never share state.
type Options struct {
	ContainerID string
	ImageID     string
	OverlayID   string
	SignalID    string
	// BaseStrokeWidth is the screen-space overlay stroke width kept constant
	// under zoom.
	BaseStrokeWidth float64
}

func (o *Options) applyDefaults() {
	if o.ContainerID == "" {
		o.ContainerID = NodeImageContainer
	}
	if o.ImageID == "" {
		o.ImageID = NodeImage
	}
	if o.OverlayID == "" {
		o.OverlayID = NodeBBoxOverlay
	}
	if o.SignalID == "" {
		o.SignalID = NodeSignal
	}
	if o.BaseStrokeWidth <= 0 {
		o.BaseStrokeWidth = 2
	}
}

// Bridge wires the watcher, trigger observer, load coordinator and bbox
// styler onto a view tree.
type Bridge struct {
	tree  *view.Tree
	vc    *viewport.Controller
	coord *LoadCoordinator
	opts  Options
	log   *slog.Logger
}

// Attach observes the tree and binds the viewport controller to it. The
// signaling and image nodes need not exist yet; the bridge waits for their
// first appearance and never times out.
func Attach(tree *view.Tree, vc *viewport.Controller, opts Options) *Bridge {
	opts.applyDefaults()
	b := &Bridge{
		tree: tree,
		vc:   vc,
		opts: opts,
		log:  applog.WithComponent("bridge"),
	}
	b.coord = NewLoadCoordinator(vc)

	// Outbound: every transform mutation is written back to the rendered
	// view, and the overlay stroke is restyled for the new scale.
	styler := &BBoxStyler{Tree: tree, OverlayID: opts.OverlayID, BaseWidth: opts.BaseStrokeWidth}
	vc.OnTransformChange(func(scale float64) {
		b.writeTransform()
		styler.Apply(scale)
	})

	// Inbound: signaling node drives intents, image node drives load state.
	WatchElement(tree.Root(), opts.SignalID, func(n *view.Node) {
		b.log.Debug("signal node appeared", slog.String("id", n.ID()))
		NewTriggerObserver(n, b.coord)
	})
	WatchElement(tree.Root(), opts.ImageID, func(n *view.Node) {
		b.log.Debug("image node appeared", slog.String("id", n.ID()))
		n.WatchAttr(AttrSrc, func(old, new string) {
			if new != old {
				b.coord.NoteLoadStarted()
			}
		})
		n.WatchAttr(AttrLoaded, func(_, new string) {
			if new == "true" {
				b.coord.NoteLoadComplete()
			}
		})
	})
	return b
}

// Coordinator exposes the load coordinator, mainly for tests and for UI code
// that feeds gesture events through the same instance.
func (b *Bridge) Coordinator() *LoadCoordinator { return b.coord }

// writeTransform mutates the image container's transform attribute. When the
// controller has cleared to the natural layout the attribute is removed
// entirely rather than set to an identity matrix.
func (b *Bridge) writeTransform() {
	n := b.tree.Lookup(b.opts.ContainerID)
	if n == nil {
		return
	}
	if !b.vc.Explicit() {
		n.RemoveAttr(AttrTransform)
		return
	}
	t := b.vc.Transform()
	n.SetAttr(AttrTransform,
		"translate("+formatFloat(t.TX)+"px, "+formatFloat(t.TY)+"px) scale("+formatFloat(t.Scale)+")")
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
