/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package view models the rendered view tree produced by the server-driven
// renderer: named nodes with string attributes, plus change-detection watches
// that fire on a single-threaded, run-to-completion event loop. Custom view
// logic has no synchronous hook into the renderer's update cycle; observing
// this tree is the only contract it offers.
package view

// Loop is a cooperative, single-threaded dispatcher. Every posted event runs
// to completion before the next one is dispatched; events posted while a
// handler is running are queued, not nested. Loop is not safe for concurrent
// use: external goroutines must hand work to the owning thread first (the UI
// layer uses fyne.Do for that).
type Loop struct {
	queue    []func()
	draining bool
}

func NewLoop() *Loop { return &Loop{} }

// Post enqueues fn. If no event is currently being dispatched, the queue is
// drained immediately, so a Post from outside a handler runs synchronously.
func (l *Loop) Post(fn func()) {
	l.queue = append(l.queue, fn)
	if l.draining {
		return
	}
	l.draining = true
	for len(l.queue) > 0 {
		next := l.queue[0]
		l.queue = l.queue[1:]
		next()
	}
	l.draining = false
}

// Pending reports how many events are queued behind the current one.
func (l *Loop) Pending() int { return len(l.queue) }
