/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package desktop

import (
	"image/color"

	"sutdvn/internal/transcript"
	"sutdvn/internal/wm"
)

// Palette used by every surface.
var (
	DesktopColor = color.NRGBA{R: 0xe2, G: 0x8d, B: 0xe2, A: 0xff}
	BarColor     = color.NRGBA{R: 0xad, G: 0xd8, B: 0xe6, A: 0xff}
	TaskbarColor = color.NRGBA{R: 0x24, G: 0x5d, B: 0xda, A: 0xff}
	StartColor   = color.NRGBA{R: 0x81, G: 0xc0, B: 0x46, A: 0xff}
	SkipOnColor  = color.NRGBA{G: 0x80, A: 0xff}
	SkipOffColor = color.NRGBA{R: 0xff, A: 0xff}
)

// BubbleColor returns the fill colour for a side.
func BubbleColor(s transcript.Side) color.NRGBA {
	switch s {
	case transcript.Left:
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	case transcript.Right:
		return color.NRGBA{R: 0x90, G: 0xee, B: 0x90, A: 0xff}
	default:
		return color.NRGBA{R: 0xad, G: 0xd8, B: 0xe6, A: 0xff}
	}
}

// Frame is an immutable snapshot of the desktop for one redraw.
type Frame struct {
	Version    uint64
	Width      float32
	Height     float32
	EM         float32
	Background string
	Windows    []WindowFrame // bottom to top
	Chat       ChatFrame
	NewLines   []transcript.Message // messages settled since the previous frame
}

// WindowFrame is one window with its chrome resolved.
type WindowFrame struct {
	wm.View
	Bar     wm.Rect
	Content wm.Rect
	Close   wm.Rect // zero when not closable
	Grip    wm.Rect // zero when not resizable or shaded
	Kind    Kind
	Image   string
}

// ChatFrame is the chat window's controls and visible bubbles.
type ChatFrame struct {
	Visible      bool
	Layout       ChatLayout
	Bubbles      []Bubble
	Skipping     bool
	InputEnabled bool
	Prompt       string
}

// Bubble is a laid out message in desktop coordinates.
type Bubble struct {
	Seq   int
	Side  transcript.Side
	Rect  wm.Rect
	Lines []string
	Color color.NRGBA
	Done  bool
}

// Snapshot builds a Frame. settledFrom is the first sequence number whose
// settled message should be reported in NewLines; it returns the value to
// pass next time.
func (d *Desktop) Snapshot(settledFrom int) (Frame, int) {
	f := Frame{
		Version:    d.Version(),
		Width:      d.w,
		Height:     d.h,
		EM:         d.scale.EM,
		Background: d.background,
	}
	for _, v := range d.WM.Stack() {
		wf := WindowFrame{View: v}
		wf.Bar, _ = d.WM.Bar(v.Handle)
		wf.Content, _ = d.WM.Content(v.Handle)
		wf.Close, _ = d.WM.CloseBox(v.Handle)
		wf.Grip, _ = d.WM.GripBox(v.Handle)
		c := d.contents[v.Handle]
		wf.Kind, wf.Image = c.kind, c.image
		f.Windows = append(f.Windows, wf)
	}
	f.Chat = d.chatFrame()

	msgs := d.Chat.Messages()
	next := settledFrom
	for ; next < len(msgs) && msgs[next].State == transcript.Settled; next++ {
		f.NewLines = append(f.NewLines, msgs[next])
	}
	return f, next
}

func (d *Desktop) chatFrame() ChatFrame {
	cf := ChatFrame{Skipping: d.Chat.Skipping(), InputEnabled: d.input != nil}
	if d.input != nil {
		cf.Prompt = d.input.prompt
	}
	l, ok := d.chatLayout()
	if !ok {
		return cf
	}
	cf.Visible, cf.Layout = true, l

	colW := d.Chat.ColumnWidth()
	pad := d.scale.U(0.5)
	// content origin: bottom of the log tracks the newest message
	top := l.Log.Y + l.Log.H - d.Chat.ContentHeight() + d.chatScroll
	if d.Chat.ContentHeight() < l.Log.H {
		top = l.Log.Y
	}
	gridW := float32(transcript.Columns) * colW
	left := l.Log.X + max(0, (l.Log.W-gridW)/2)
	for _, m := range d.Chat.Messages() {
		y := top + m.Y
		if y+m.Height < l.Log.Y || y > l.Log.Y+l.Log.H {
			continue
		}
		box := d.layout.Layout(m.Visible, d.Chat.WrapWidth())
		lines := make([]string, len(box.Lines))
		for i, ln := range box.Lines {
			lines[i] = ln.Text
		}
		cf.Bubbles = append(cf.Bubbles, Bubble{
			Seq:   m.Seq,
			Side:  m.Side,
			Rect:  wm.R(left+float32(m.Placement.Column)*colW-pad, y-pad, float32(m.Placement.Span)*colW+2*pad, m.Height+2*pad),
			Lines: lines,
			Color: BubbleColor(m.Side),
			Done:  m.State == transcript.Settled,
		})
	}
	return cf
}
