/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes the chat transcript and desktop frames to files: a
// PDF chat log and PNG screenshots.
package export

import (
	"strings"
	"sync"
	"time"

	"sutdvn/internal/transcript"
)

// Entry is one settled chat message.
type Entry struct {
	Seq     int
	Speaker string
	Side    transcript.Side
	Text    string
	At      time.Time
}

// Record collects settled messages as they appear. Safe for concurrent use:
// the scheduler appends while exporters and crash reports read.
type Record struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewRecord returns an empty record.
func NewRecord() *Record { return &Record{now: time.Now} }

// Add appends settled messages; ones already recorded are skipped.
func (r *Record) Add(msgs ...transcript.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		if m.Seq < len(r.entries) {
			continue
		}
		r.entries = append(r.entries, Entry{Seq: m.Seq, Speaker: m.Speaker, Side: m.Side, Text: m.Full, At: r.now()})
	}
}

// Entries returns a copy of everything recorded.
func (r *Record) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Len is the number of entries.
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Tail returns the last n entries flattened to single lines.
func (r *Record) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := max(0, len(r.entries)-n)
	out := make([]string, 0, len(r.entries)-from)
	for _, e := range r.entries[from:] {
		out = append(out, strings.ReplaceAll(e.Text, "\n", " "))
	}
	return out
}
