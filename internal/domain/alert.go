/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for wildfire camera alerts as served
// by the detection API and displayed on the dashboard.

import (
	"sort"
	"time"
)

// BBox is a detected smoke bounding box in percent coordinates relative to
// the frame: X and Y locate the top-left corner, Width and Height extend
// right and down. All four are in [0, 100].
type BBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Empty reports whether the box carries no usable localization.
func (b BBox) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Camera identifies the tower camera that produced a detection.
type Camera struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Azimuth float64 `json:"azimuth"` // degrees, 0 = north
}

// Alert is a single detection frame within an event: one image plus the
// boxes detected on it.
type Alert struct {
	ID       int64     `json:"id"`
	EventID  int64     `json:"event_id"`
	MediaURL string    `json:"media_url"`
	Boxes    []BBox    `json:"localization"`
	Azimuth  float64   `json:"azimuth"`
	Created  time.Time `json:"created_at"`
}

// Event groups consecutive alerts from one camera into a single incident.
type Event struct {
	ID           int64     `json:"id"`
	Camera       Camera    `json:"camera"`
	Created      time.Time `json:"created_at"`
	Acknowledged bool      `json:"is_acknowledged"`
	Alerts       []Alert   `json:"-"`
}

// Displayable reports whether an event carries enough signal to be worth an
// operator's attention: at least 5 alert frames and at least 2 frames with a
// usable localization. Everything below that threshold is considered noise.
func (e *Event) Displayable() bool {
	if len(e.Alerts) < 5 {
		return false
	}
	located := 0
	for _, a := range e.Alerts {
		for _, b := range a.Boxes {
			if !b.Empty() {
				located++
				break
			}
		}
	}
	return located >= 2
}

// FilterDisplayable returns the events that should appear in the alert list:
// unacknowledged, displayable, newest first, deduplicated by id (last fetch
// wins).
func FilterDisplayable(events []Event) []Event {
	byID := make(map[int64]Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]Event, 0, len(byID))
	for _, e := range byID {
		if e.Acknowledged {
			continue
		}
		if !e.Displayable() {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
