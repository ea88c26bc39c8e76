/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"firewatch/internal/domain"
)

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0001_init.sql")
	if err != nil || v != 1 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for unversioned filename")
	}
}

// TestArchiveRoundTrip needs a live PostgreSQL instance; set
// FW_ARCHIVE_TEST_DSN to run it.
func TestArchiveRoundTrip(t *testing.T) {
	dsn := os.Getenv("FW_ARCHIVE_TEST_DSN")
	if dsn == "" {
		t.Skip("FW_ARCHIVE_TEST_DSN not set")
	}
	ctx := context.Background()
	a, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer a.Close()

	ev := &domain.Event{
		ID:      99001,
		Camera:  domain.Camera{Name: "test-cam"},
		Created: time.Now(),
	}
	if err := a.RecordAcknowledgement(ctx, ev, "tester"); err != nil {
		t.Fatalf("RecordAcknowledgement error: %v", err)
	}
	acks, err := a.RecentAcknowledgements(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAcknowledgements error: %v", err)
	}
	found := false
	for _, ack := range acks {
		if ack.EventID == ev.ID && ack.Operator == "tester" {
			found = true
		}
	}
	if !found {
		t.Fatalf("recorded acknowledgement not returned")
	}
}
