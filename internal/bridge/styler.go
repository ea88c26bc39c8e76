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

import "firewatch/internal/view"

// BBoxStyler keeps the bounding-box overlay's rendered edge visually
// constant under zoom: on every transform change the stroke width is set to
// BaseWidth divided by the current scale. It is stateless by design — the
// renderer may replace the overlay node between updates, so the node is
// looked up fresh and the width recomputed every time.
type BBoxStyler struct {
	Tree      *view.Tree
	OverlayID string
	BaseWidth float64
}

// StrokeWidth returns the width for a given scale.
func (s *BBoxStyler) StrokeWidth(scale float64) float64 {
	return s.BaseWidth / scale
}

// Apply writes the recomputed stroke width to the overlay node, if mounted.
func (s *BBoxStyler) Apply(scale float64) {
	n := s.Tree.Lookup(s.OverlayID)
	if n == nil {
		return
	}
	n.SetAttr(AttrStrokeWidth, formatFloat(s.StrokeWidth(scale)))
}
