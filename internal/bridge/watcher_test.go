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
	"testing"

	"firewatch/internal/view"
)

func TestWatchElementResolvesImmediately(t *testing.T) {
	tree := view.NewTree(view.NewLoop())
	target := tree.Root().AppendChild("already-here")

	var got *view.Node
	w := WatchElement(tree.Root(), "already-here", func(n *view.Node) { got = n })

	if got != target {
		t.Fatalf("expected immediate resolution with the existing node")
	}
	if !w.Resolved() {
		t.Fatalf("watcher should report resolved")
	}
}

func TestWatchElementResolvesOnLaterMount(t *testing.T) {
	tree := view.NewTree(view.NewLoop())

	calls := 0
	w := WatchElement(tree.Root(), "late", func(n *view.Node) { calls++ })
	if w.Resolved() {
		t.Fatalf("nothing mounted yet")
	}

	tree.Root().AppendChild("unrelated")
	if calls != 0 {
		t.Fatalf("unrelated mount must not resolve the watcher")
	}

	tree.Root().AppendChild("late")
	if calls != 1 {
		t.Fatalf("expected one resolution, got %d", calls)
	}
}

func TestWatchElementResolvesAtMostOnce(t *testing.T) {
	tree := view.NewTree(view.NewLoop())

	calls := 0
	WatchElement(tree.Root(), "once", func(n *view.Node) { calls++ })

	first := tree.Root().AppendChild("once")
	first.Remove()
	tree.Root().AppendChild("once")

	if calls != 1 {
		t.Fatalf("watcher must fire once and deregister, got %d calls", calls)
	}
}

func TestWatchElementFindsNestedNode(t *testing.T) {
	tree := view.NewTree(view.NewLoop())

	var got *view.Node
	WatchElement(tree.Root(), "deep", func(n *view.Node) { got = n })

	parent := tree.Root().AppendChild("wrapper")
	deep := parent.AppendChild("deep")

	if got != deep {
		t.Fatalf("watcher must see descendants of mounted fragments")
	}
}
