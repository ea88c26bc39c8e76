/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport owns the pan/zoom transform applied to the alert image
// container. The Controller is the transform's only writer; user gestures
// and programmatic resets both route through it, so a reset can never lose a
// race against a concurrent drag.
package viewport

const (
	// DefaultMinScale forbids zooming out below the image's natural size.
	DefaultMinScale = 1.0
	DefaultMaxScale = 8.0
)

// Transform is the pan offset and zoom scale applied to the image container.
// Translation is in container pixels, applied after scaling.
type Transform struct {
	Scale float64
	TX    float64
	TY    float64
}

// Identity returns the natural-layout transform.
func Identity() Transform { return Transform{Scale: 1} }

// IsIdentity reports whether t leaves the container at its natural layout.
func (t Transform) IsIdentity() bool { return t.Scale == 1 && t.TX == 0 && t.TY == 0 }

// Config bounds the gesture-to-transform mapping.
type Config struct {
	MinScale float64 // clamped lower bound for zoom-out; defaults to 1
	MaxScale float64
}

// Controller owns a Transform and exposes reset and change notification on
// top of the bounded gesture mapping. It is confined to the event-loop
// thread, like everything that touches the rendered view.
type Controller struct {
	cfg Config

	containerW float64
	containerH float64

	t Transform
	// explicit is false when the transform has been cleared to the
	// container's natural layout. Writing an identity matrix instead leaves
	// residual sub-pixel artifacts in some rendering engines, so scale
	// returning to exactly 1 clears rather than sets.
	explicit bool

	handlers []func(scale float64)
}

// New creates a controller with an identity transform.
func New(cfg Config) *Controller {
	if cfg.MinScale < 1 {
		cfg.MinScale = DefaultMinScale
	}
	if cfg.MaxScale <= cfg.MinScale {
		cfg.MaxScale = DefaultMaxScale
	}
	return &Controller{cfg: cfg, t: Identity()}
}

// SetContainerSize updates the pan bounds. The current translation is
// re-clamped so the image cannot be left stranded outside the container
// after a resize.
func (c *Controller) SetContainerSize(w, h float64) {
	c.containerW, c.containerH = w, h
	if c.explicit {
		c.clampTranslation()
		c.emit()
	}
}

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Scale returns the current zoom scale.
func (c *Controller) Scale() float64 { return c.t.Scale }

// Explicit reports whether the transform is explicitly set, as opposed to
// cleared to the container's natural layout.
func (c *Controller) Explicit() bool { return c.explicit }

// OnTransformChange registers a handler invoked synchronously after every
// transform mutation, user-driven or programmatic, with the current scale.
func (c *Controller) OnTransformChange(fn func(scale float64)) {
	c.handlers = append(c.handlers, fn)
}

// Reset sets the transform to identity unconditionally. It is idempotent and
// always re-emits the change event, even when the transform already is
// identity.
func (c *Controller) Reset() {
	c.t = Identity()
	c.explicit = false
	c.emit()
}

// ZoomAt scales by factor, keeping the container point (anchorX, anchorY)
// fixed over the same image point. Scale is clamped to [MinScale, MaxScale];
// when the result lands exactly on scale 1 the transform is cleared to the
// natural layout.
func (c *Controller) ZoomAt(factor, anchorX, anchorY float64) {
	s := c.t.Scale * factor
	if s < c.cfg.MinScale {
		s = c.cfg.MinScale
	}
	if s > c.cfg.MaxScale {
		s = c.cfg.MaxScale
	}
	if s == 1 {
		// back at natural size: clear instead of writing identity
		c.t = Identity()
		c.explicit = false
		c.emit()
		return
	}
	// keep the image point under the anchor stationary
	ratio := s / c.t.Scale
	c.t.TX = anchorX - (anchorX-c.t.TX)*ratio
	c.t.TY = anchorY - (anchorY-c.t.TY)*ratio
	c.t.Scale = s
	c.explicit = true
	c.clampTranslation()
	c.emit()
}

// Pan translates by (dx, dy) container pixels, bounded so the scaled image
// always covers the container. Panning at natural size is a no-op.
func (c *Controller) Pan(dx, dy float64) {
	if !c.explicit {
		return
	}
	c.t.TX += dx
	c.t.TY += dy
	c.clampTranslation()
	c.emit()
}

// clampTranslation bounds the offset so no container edge exposes space
// beyond the scaled image: tx in [w*(1-s), 0], same for ty.
func (c *Controller) clampTranslation() {
	minX := c.containerW * (1 - c.t.Scale)
	minY := c.containerH * (1 - c.t.Scale)
	if c.t.TX < minX {
		c.t.TX = minX
	}
	if c.t.TX > 0 {
		c.t.TX = 0
	}
	if c.t.TY < minY {
		c.t.TY = minY
	}
	if c.t.TY > 0 {
		c.t.TY = 0
	}
}

func (c *Controller) emit() {
	for _, fn := range c.handlers {
		fn(c.t.Scale)
	}
}
