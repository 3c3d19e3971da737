/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sutdvn/internal/asset"
	"sutdvn/internal/desktop"
	"sutdvn/internal/transcript"
)

func sampleMessages() []transcript.Message {
	tr := transcript.New(transcript.Options{})
	_, _ = tr.Append("This is the beginning of the conversation.")
	_, _ = tr.Append("Hello, world! Why is this being split across two lines?", transcript.Name("You"), transcript.OnSide(transcript.Right))
	for i := 0; i < 40; i++ {
		_, _ = tr.Append("Lorem ipsum dolor sit amet, consectetur adipiscing elit.", transcript.Name("Someone Else"), transcript.OnSide(transcript.Left))
	}
	return tr.Messages()
}

func TestRecordSkipsDuplicates(t *testing.T) {
	r := NewRecord()
	msgs := sampleMessages()
	r.Add(msgs[:2]...)
	r.Add(msgs[:3]...)
	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}
	tail := r.Tail(2)
	if len(tail) != 2 || strings.Contains(tail[0], "\n") || !strings.HasPrefix(tail[0], "You: Hello") {
		t.Fatalf("tail = %q", tail)
	}
}

func TestTranscriptPDFCreatesFile(t *testing.T) {
	r := NewRecord()
	r.Add(sampleMessages()...)
	out := filepath.Join(t.TempDir(), "logs", "chat.pdf")
	if err := TranscriptPDF(r.Entries(), out, PDFOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
	// forty bubbles do not fit on one A4 page
	if bytes.Count(b, []byte("/Type /Page\n")) < 2 {
		t.Fatalf("expected a page break")
	}
	if err := TranscriptPDF(nil, out, PDFOptions{}); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("empty export: %v", err)
	}
}

func TestFramePNG(t *testing.T) {
	d := desktop.New(desktop.Options{Width: 800, Height: 600, Rand: rand.New(rand.NewPCG(1, 1))})
	_ = d.Say("hi there")
	f, _ := d.Snapshot(0)
	out := filepath.Join(t.TempDir(), "shot.png")
	if err := FramePNG(f, asset.NewLibrary(os.DirFS(t.TempDir())), out); err != nil {
		t.Fatalf("png: %v", err)
	}
	file, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("bounds %v", b)
	}
	// desktop colour in a corner no window covers
	r, g, b, _ := img.At(799, 599).RGBA()
	want := desktop.DesktopColor
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Fatalf("corner colour %d %d %d", r>>8, g>>8, b>>8)
	}
}
