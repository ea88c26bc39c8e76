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

// Tree is a rendered view tree with id-addressable nodes. All mutation and
// observation must happen on the tree's loop thread.
type Tree struct {
	loop *Loop
	root *Node
	byID map[string]*Node
}

// NewTree creates a tree with a root node named "root".
func NewTree(loop *Loop) *Tree {
	t := &Tree{loop: loop, byID: make(map[string]*Node)}
	t.root = &Node{tree: t, id: "root", attrs: make(map[string]string)}
	t.byID["root"] = t.root
	return t
}

// Loop returns the dispatch loop all watches fire on.
func (t *Tree) Loop() *Loop { return t.loop }

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Lookup returns the node with the given id, or nil. Nodes must be looked up
// fresh on every use: the renderer may replace a node between updates while
// keeping its id.
func (t *Tree) Lookup(id string) *Node { return t.byID[id] }

// Node is a single rendered element: an id, string attributes and children.
type Node struct {
	tree     *Tree
	id       string
	parent   *Node
	children []*Node
	attrs    map[string]string

	attrWatches    map[string][]*AttrWatch
	subtreeWatches []*SubtreeWatch
}

// ID returns the node id.
func (n *Node) ID() string { return n.id }

// Tree returns the owning tree.
func (n *Node) Tree() *Tree { return n.tree }

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrOr returns the attribute value, or def when absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.attrs[name]; ok {
		return v
	}
	return def
}

// SetAttr writes an attribute and notifies attribute watches on the loop.
// A write counts as a mutation even when the value is unchanged, matching
// how the renderer's own change detection behaves.
func (n *Node) SetAttr(name, value string) {
	old := n.attrs[name]
	n.attrs[name] = value
	n.notifyAttr(name, old, value)
}

// RemoveAttr deletes an attribute and notifies watches with an empty new value.
func (n *Node) RemoveAttr(name string) {
	old, ok := n.attrs[name]
	if !ok {
		return
	}
	delete(n.attrs, name)
	n.notifyAttr(name, old, "")
}

func (n *Node) notifyAttr(name, old, value string) {
	for _, w := range n.attrWatches[name] {
		if w.cancelled {
			continue
		}
		watch := w
		n.tree.loop.Post(func() {
			if !watch.cancelled {
				watch.fn(old, value)
			}
		})
	}
}

// AppendChild creates a child node with the given id and attaches it,
// notifying subtree watches up the ancestor chain.
func (n *Node) AppendChild(id string) *Node {
	c := &Node{tree: n.tree, id: id, parent: n, attrs: make(map[string]string)}
	n.children = append(n.children, c)
	n.tree.byID[id] = c
	n.notifySubtree(c)
	return c
}

// Remove detaches the node (and its subtree) from the tree. Watches on the
// removed nodes are dropped; waiting for a removed id resolves again only if
// the renderer mounts a fresh node under that id.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return // root is never removed
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
	n.forEach(func(d *Node) {
		if n.tree.byID[d.id] == d {
			delete(n.tree.byID, d.id)
		}
	})
}

// Children returns the node's children in order.
func (n *Node) Children() []*Node { return n.children }

// forEach visits n and every descendant.
func (n *Node) forEach(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.forEach(fn)
	}
}

func (n *Node) notifySubtree(added *Node) {
	for a := n; a != nil; a = a.parent {
		for _, w := range a.subtreeWatches {
			if w.cancelled {
				continue
			}
			watch := w
			added.forEach(func(d *Node) {
				node := d
				n.tree.loop.Post(func() {
					if !watch.cancelled {
						watch.fn(node)
					}
				})
			})
		}
	}
}
