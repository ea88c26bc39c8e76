/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package bridge

import (
	"log/slog"

	applog "firewatch/internal/log"
	"firewatch/internal/viewport"
)

// CoordState is the load coordinator's state.
type CoordState int

const (
	StateIdle CoordState = iota
	StatePendingReset
)

// LoadCoordinator defers a viewport reset until the next image has finished
// loading. The renderer swaps the image source and the reset signal in two
// separate, unordered round-trips; resetting before the new image is painted
// flashes the previous image at identity zoom. State is per instance, one
// coordinator per viewport.
type LoadCoordinator struct {
	vc    *viewport.Controller
	state CoordState
	// loading is true between an observed source swap and the matching
	// load-complete notification.
	loading bool
	log     *slog.Logger
}

// NewLoadCoordinator creates an idle coordinator routing resets through vc.
func NewLoadCoordinator(vc *viewport.Controller) *LoadCoordinator {
	return &LoadCoordinator{vc: vc, log: applog.WithComponent("bridge")}
}

// State returns the current state.
func (c *LoadCoordinator) State() CoordState { return c.state }

// LoadOutstanding reports whether an image load has started but not finished.
func (c *LoadCoordinator) LoadOutstanding() bool { return c.loading }

// RequestReset handles an observed Reset intent. With no load outstanding
// the reset applies immediately; otherwise it is queued. A second intent
// while one is pending coalesces — at most one reset is ever queued.
func (c *LoadCoordinator) RequestReset() {
	if !c.loading {
		c.vc.Reset()
		return
	}
	if c.state == StatePendingReset {
		c.log.Debug("reset intent coalesced")
		return
	}
	c.state = StatePendingReset
}

// NoteLoadStarted marks an image load as outstanding.
func (c *LoadCoordinator) NoteLoadStarted() {
	c.loading = true
}

// NoteLoadComplete clears the outstanding load and flushes a pending reset,
// exactly once, as part of the transition back to idle.
func (c *LoadCoordinator) NoteLoadComplete() {
	c.loading = false
	if c.state != StatePendingReset {
		return
	}
	c.state = StateIdle
	c.vc.Reset()
}
