/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"firewatch/internal/domain"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleEvent(id int64) domain.Event {
	ev := domain.Event{
		ID:      id,
		Camera:  domain.Camera{ID: 3, Name: "brison", Lat: 44.3, Lon: 4.2},
		Created: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC),
	}
	for i := int64(0); i < 3; i++ {
		ev.Alerts = append(ev.Alerts, domain.Alert{
			ID:       id*100 + i,
			EventID:  id,
			MediaURL: "/media/a.jpg",
			Boxes:    []domain.BBox{{X: 10, Y: 20, Width: 5, Height: 4}},
			Created:  ev.Created.Add(time.Duration(i) * time.Minute),
		})
	}
	return ev
}

func TestPutAndReadEvents(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.PutEvents(ctx, []domain.Event{sampleEvent(1), sampleEvent(2)}); err != nil {
		t.Fatalf("PutEvents error: %v", err)
	}

	events, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if len(events[0].Alerts) != 3 {
		t.Fatalf("got %d alerts", len(events[0].Alerts))
	}
	if events[0].Camera.Name != "brison" {
		t.Fatalf("camera lost: %+v", events[0].Camera)
	}
	if events[0].Alerts[0].Boxes[0].Width != 5 {
		t.Fatalf("boxes lost: %+v", events[0].Alerts[0].Boxes)
	}
}

func TestPutEventsIsIdempotentUpsert(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	ev := sampleEvent(1)
	if err := c.PutEvents(ctx, []domain.Event{ev}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	ev.Camera.Name = "renamed"
	if err := c.PutEvents(ctx, []domain.Event{ev}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	events, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if len(events) != 1 || events[0].Camera.Name != "renamed" {
		t.Fatalf("upsert did not replace: %+v", events)
	}
	if len(events[0].Alerts) != 3 {
		t.Fatalf("alerts duplicated: %d", len(events[0].Alerts))
	}
}

func TestMarkAcknowledged(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.PutEvents(ctx, []domain.Event{sampleEvent(1)}); err != nil {
		t.Fatalf("PutEvents error: %v", err)
	}
	if err := c.MarkAcknowledged(ctx, 1); err != nil {
		t.Fatalf("MarkAcknowledged error: %v", err)
	}
	events, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if !events[0].Acknowledged {
		t.Fatalf("acknowledged flag not persisted")
	}
}

func TestMediaRoundTripAndMiss(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Media(ctx, "/media/a.jpg"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	img := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := c.PutMedia(ctx, "/media/a.jpg", img); err != nil {
		t.Fatalf("PutMedia error: %v", err)
	}
	data, ok, err := c.Media(ctx, "/media/a.jpg")
	if err != nil || !ok {
		t.Fatalf("Media error: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(data, img) {
		t.Fatalf("media bytes differ")
	}
}

func TestPruneMedia(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.PutMedia(ctx, "/media/old.jpg", []byte{1}); err != nil {
		t.Fatalf("PutMedia error: %v", err)
	}
	n, err := c.PruneMedia(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneMedia error: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d rows, want 1", n)
	}
	if _, ok, _ := c.Media(ctx, "/media/old.jpg"); ok {
		t.Fatalf("media survived prune")
	}
}
