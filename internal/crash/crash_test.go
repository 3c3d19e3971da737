/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReportCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteReport(dir, "boom", []byte("stacktrace"), nil)
	if err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written to %s, want under %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "SUTD VN Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
	if strings.Contains(s, "Transcript") {
		t.Fatalf("empty tail should not add a transcript section")
	}
}

func TestWriteReportKeepsTranscriptTail(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	path, err := WriteReport(t.TempDir(), "kaboom", []byte("stack"), lines)
	if err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	b, _ := os.ReadFile(path)
	s := string(b)
	if !strings.Contains(s, "Transcript (last 20):") || !strings.Contains(s, "line 29") {
		t.Fatalf("tail missing: %s", s)
	}
	if strings.Contains(s, "line 9\n") {
		t.Fatalf("tail not trimmed: %s", s)
	}
}

// TestRecover ensures Recover handles a panic, writes a report and does not
// terminate the test process due to injected exitFn.
func TestRecover(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	tailCalled := false
	func() {
		defer Recover(func() []string { tailCalled = true; return []string{"hello"} })
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	if !tailCalled {
		t.Fatalf("transcript tail not collected")
	}
}
