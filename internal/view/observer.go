/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package view

// AttrWatch is a change-detection watch on a single attribute of a single
// node. Callbacks fire on the loop in mutation order for that node; there is
// no ordering guarantee across independently observed nodes.
type AttrWatch struct {
	fn        func(old, new string)
	cancelled bool
}

// Cancel deregisters the watch. Queued callbacks that have not yet run are
// suppressed.
func (w *AttrWatch) Cancel() { w.cancelled = true }

// WatchAttr registers a persistent watch on one attribute of this node.
func (n *Node) WatchAttr(name string, fn func(old, new string)) *AttrWatch {
	if n.attrWatches == nil {
		n.attrWatches = make(map[string][]*AttrWatch)
	}
	w := &AttrWatch{fn: fn}
	n.attrWatches[name] = append(n.attrWatches[name], w)
	return w
}

// SubtreeWatch is a change-detection watch for nodes added anywhere under a
// subtree root.
type SubtreeWatch struct {
	fn        func(added *Node)
	cancelled bool
}

// Cancel deregisters the watch.
func (w *SubtreeWatch) Cancel() { w.cancelled = true }

// WatchSubtree registers a watch invoked for every node attached under this
// node, including descendants of wholesale-attached fragments.
func (n *Node) WatchSubtree(fn func(added *Node)) *SubtreeWatch {
	w := &SubtreeWatch{fn: fn}
	n.subtreeWatches = append(n.subtreeWatches, w)
	return w
}
