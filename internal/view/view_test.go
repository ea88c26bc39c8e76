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

import "testing"

func TestLoopRunToCompletion(t *testing.T) {
	l := NewLoop()
	var order []int
	l.Post(func() {
		order = append(order, 1)
		// posted mid-handler: must queue, not nest
		l.Post(func() { order = append(order, 3) })
		order = append(order, 2)
	})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("events nested instead of queueing: %v", order)
	}
}

func TestAttrWatchFiresInMutationOrder(t *testing.T) {
	tr := NewTree(NewLoop())
	n := tr.Root().AppendChild("sig")

	var seen []string
	n.WatchAttr("state", func(old, new string) { seen = append(seen, old+"->"+new) })

	n.SetAttr("state", "a")
	n.SetAttr("state", "b")
	n.SetAttr("state", "b") // same-value write still counts as a mutation

	want := []string{"->a", "a->b", "b->b"}
	if len(seen) != len(want) {
		t.Fatalf("got %d callbacks, want %d: %v", len(seen), len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("callback %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestAttrWatchScopedToAttribute(t *testing.T) {
	tr := NewTree(NewLoop())
	n := tr.Root().AppendChild("sig")
	fired := 0
	n.WatchAttr("state", func(old, new string) { fired++ })
	n.SetAttr("label", "x")
	if fired != 0 {
		t.Fatalf("watch on one attribute must not fire for another")
	}
}

func TestRemoveAttrNotifiesEmpty(t *testing.T) {
	tr := NewTree(NewLoop())
	n := tr.Root().AppendChild("sig")
	n.SetAttr("label", "x")
	var got string
	n.WatchAttr("label", func(old, new string) { got = old + "/" + new })
	n.RemoveAttr("label")
	if got != "x/" {
		t.Fatalf("remove notification = %q, want %q", got, "x/")
	}
	// removing an absent attribute is not a mutation
	got = ""
	n.RemoveAttr("label")
	if got != "" {
		t.Fatalf("removing absent attribute fired a watch")
	}
}

func TestSubtreeWatchSeesDescendants(t *testing.T) {
	tr := NewTree(NewLoop())
	var added []string
	tr.Root().WatchSubtree(func(n *Node) { added = append(added, n.ID()) })

	c := tr.Root().AppendChild("container")
	c.AppendChild("img")

	if len(added) != 2 || added[0] != "container" || added[1] != "img" {
		t.Fatalf("subtree watch missed nodes: %v", added)
	}
}

func TestCancelledWatchDoesNotFire(t *testing.T) {
	tr := NewTree(NewLoop())
	n := tr.Root().AppendChild("sig")
	fired := 0
	w := n.WatchAttr("state", func(old, new string) { fired++ })
	w.Cancel()
	n.SetAttr("state", "a")
	if fired != 0 {
		t.Fatalf("cancelled watch fired")
	}
}

func TestLookupTracksRemoval(t *testing.T) {
	tr := NewTree(NewLoop())
	c := tr.Root().AppendChild("overlay")
	if tr.Lookup("overlay") != c {
		t.Fatalf("lookup missed appended node")
	}
	c.Remove()
	if tr.Lookup("overlay") != nil {
		t.Fatalf("lookup returned removed node")
	}
	// a fresh node may reuse the id after removal
	c2 := tr.Root().AppendChild("overlay")
	if tr.Lookup("overlay") != c2 {
		t.Fatalf("lookup did not track replacement node")
	}
}
