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

// ElementWatcher is a restartable, single-resolution wait for a named node.
// It never times out and never fails: a node that does not exist yet is a
// pending wait, not an error, because the renderer is expected to eventually
// mount every referenced region. The subtree watch it registers is
// deregistered immediately on resolution.
type ElementWatcher struct {
	watch    *view.SubtreeWatch
	resolved bool
}

// WatchElement resolves fn with the first node whose id matches, searching
// the subtree under root. If a match is already mounted, fn runs via the
// loop without registering any observer.
func WatchElement(root *view.Node, id string, fn func(*view.Node)) *ElementWatcher {
	w := &ElementWatcher{}
	if n := findUnder(root, id); n != nil {
		w.resolved = true
		root.Tree().Loop().Post(func() { fn(n) })
		return w
	}
	w.watch = root.WatchSubtree(func(added *view.Node) {
		if w.resolved || added.ID() != id {
			return
		}
		w.resolved = true
		w.watch.Cancel()
		fn(added)
	})
	return w
}

// Resolved reports whether the wait has completed.
func (w *ElementWatcher) Resolved() bool { return w.resolved }

func findUnder(root *view.Node, id string) *view.Node {
	if root.ID() == id {
		return root
	}
	for _, c := range root.Children() {
		if n := findUnder(c, id); n != nil {
			return n
		}
	}
	return nil
}
