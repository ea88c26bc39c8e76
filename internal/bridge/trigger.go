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

// ResetToken is the only command token currently defined on the signaling
// node's label channel.
const ResetToken = "reset_zoom"

// Intent is the decoded instruction derived from the signaling node's label
// at the moment a load-state transition is observed. It has no persistent
// identity: it is computed fresh on every transition.
type Intent int

const (
	IntentNoOp Intent = iota
	IntentReset
)

// ClassifyLabel maps a label value to an intent. Unrecognized values,
// including the empty string, are NoOp — never an error.
func ClassifyLabel(label string) Intent {
	if label == ResetToken {
		return IntentReset
	}
	return IntentNoOp
}

// TriggerObserver holds a persistent watch on the signaling node's
// load-state attribute. The renderer toggles that attribute around every
// server round-trip touching the node; the label is read synchronously at
// each transition because the renderer may reuse the same transition for
// unrelated updates — the label is a one-shot command channel, not durable
// state.
type TriggerObserver struct {
	watch *view.AttrWatch
}

// NewTriggerObserver attaches to the resolved signaling node and routes
// Reset intents to the load coordinator. It never mutates the viewport
// directly.
func NewTriggerObserver(signal *view.Node, coord *LoadCoordinator) *TriggerObserver {
	o := &TriggerObserver{}
	o.watch = signal.WatchAttr(AttrLoading, func(_, _ string) {
		label := signal.AttrOr(AttrLabel, "")
		if ClassifyLabel(label) == IntentReset {
			coord.RequestReset()
		}
	})
	return o
}

// Close deregisters the watch.
func (o *TriggerObserver) Close() { o.watch.Cancel() }
