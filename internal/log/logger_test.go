/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// and that static and contextual attributes are present.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	// Use a file in the system temp dir to avoid Windows deleting a still-open handle
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("fw_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithComponent("testcomp")
	l = WithOperation(l, "op1")
	l.Info("hello world", slog.String("k", "v"))

	// Give a brief moment for the async filesystem to settle (Windows)
	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("log file is empty")
	}

	// Parse last non-empty line as JSON and assert fields
	scanner := bufio.NewScanner(strings.NewReader(string(b)))
	var last string
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("last line is not JSON: %v\nline: %s", err, last)
	}
	if m["app"] != "firewatch" {
		t.Fatalf("app attribute missing or wrong: %v", m["app"])
	}
	if m["component"] != "testcomp" || m["op"] != "op1" {
		t.Fatalf("contextual attributes missing: %v", m)
	}
	if m["msg"] != "hello world" || m["k"] != "v" {
		t.Fatalf("record fields missing: %v", m)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"FW_LOG_LEVEL", "FW_LOG_FORMAT", "FW_LOG_SOURCE", "FW_LOG_FILE"} {
		old := os.Getenv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() { _ = os.Setenv(k, old) })
	}
	opts := FromEnv()
	if opts.Level != "info" || opts.Format != "console" || opts.AddSource || opts.File != "" {
		t.Fatalf("unexpected defaults: %#v", opts)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warn") != slog.LevelWarn {
		t.Fatalf("warn not parsed")
	}
	if parseLevel("WARNING") != slog.LevelWarn {
		t.Fatalf("warning alias not parsed")
	}
	if parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unknown level should default to info")
	}
}
