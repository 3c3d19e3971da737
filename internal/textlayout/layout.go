/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Line breaking and measurement for chat bubbles. Measurement goes through a
// font.Face so the headless console surface, the tests and the desktop
// surface all agree on how tall a bubble is.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the advance between two baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float32
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Text joins the laid out lines with newlines.
func (b TextBox) Text() string {
	parts := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// Provider supplies the face used for measurement.
type Provider interface {
	Face() (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic layout.
type BasicProvider struct{}

func (BasicProvider) Face() (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter breaks on spaces and explicit newlines; words longer than
// the box are split by rune. No shaping or hyphenation.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

// Layout wraps text to maxWidth pixels. maxWidth <= 0 disables wrapping.
func (l *WordWrapLayouter) Layout(text string, maxWidth float32) TextBox {
	p := l.Provider
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Face()
	d := &font.Drawer{Face: face}
	box := TextBox{Metrics: met}
	space := advance(d, " ")

	var cur strings.Builder
	var curW float32
	flush := func() {
		box.Lines = append(box.Lines, Line{Text: cur.String(), Width: curW})
		box.Width = max(box.Width, curW)
		box.Height += met.LineHeight()
		cur.Reset()
		curW = 0
	}
	place := func(word string) {
		w := advance(d, word)
		if cur.Len() > 0 && maxWidth > 0 && curW+space+w > maxWidth {
			flush()
		}
		for maxWidth > 0 && w > maxWidth && utf8.RuneCountInString(word) > 1 {
			head, rest := splitToWidth(d, word, maxWidth)
			if head == "" {
				// a single glyph wider than the box still takes a line
				_, n := utf8.DecodeRuneInString(word)
				head, rest = word[:n], word[n:]
			}
			cur.WriteString(head)
			curW += advance(d, head)
			flush()
			word, w = rest, advance(d, rest)
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			curW += space
		}
		cur.WriteString(word)
		curW += w
	}

	for i, para := range strings.Split(text, "\n") {
		if i > 0 {
			flush()
		}
		for _, word := range strings.Fields(para) {
			place(word)
		}
	}
	flush()
	return box
}

// splitToWidth returns the longest rune prefix of s no wider than w.
func splitToWidth(d *font.Drawer, s string, w float32) (string, string) {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if advance(d, s[:next]) > w {
			break
		}
		end = next
	}
	return s[:end], s[end:]
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure returns the width of a single unwrapped line and the line height.
func Measure(provider Provider, s string) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Face()
	return advance(&font.Drawer{Face: face}, s), met.Ascent + met.Descent
}
