/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package wm

import "time"

// Interaction tuning.
const (
	DoubleClick = 400 * time.Millisecond
	DragSlop    = 3 // px the pointer travels before a press becomes a drag
)

// Part is the region of a window a pointer event landed on.
type Part uint8

const (
	PartNone Part = iota
	PartBar
	PartClose
	PartGrip
	PartContent
)

func (p Part) String() string {
	return [...]string{"none", "bar", "close", "grip", "content"}[p]
}

// Action is what a pointer event did.
type Action uint8

const (
	ActNone Action = iota
	ActRaise
	ActShade
	ActClose
	ActDragStart
	ActDrag
	ActResize
	ActRelease
)

// Event reports the outcome of Press, Move or Release.
type Event struct {
	Handle Handle
	Part   Part
	Action Action
}

type mode uint8

const (
	modeIdle mode = iota
	modeArmed
	modeDrag
	modeResize
)

type pointer struct {
	mode   mode
	target Handle
	start  Pt
	grab   Pt

	lastClick   time.Time
	lastHandle  Handle
	lastClickAt Pt
}

// CloseBox is the square close button at the right end of the bar.
func (m *Manager) CloseBox(h Handle) (Rect, bool) {
	w := m.lookup(h)
	if w == nil || !w.Closable {
		return Rect{}, false
	}
	b := m.m.BarHeight
	return Rect{X: w.Bounds.X + w.Bounds.W - b, Y: w.Bounds.Y, W: b, H: b}, true
}

// GripBox is the resize grip in the bottom-right corner.
func (m *Manager) GripBox(h Handle) (Rect, bool) {
	w := m.lookup(h)
	if w == nil || !w.Resizable || w.Shaded {
		return Rect{}, false
	}
	g := m.m.Grip
	return Rect{X: w.Bounds.X + w.Bounds.W - g, Y: w.Bounds.Y + w.Bounds.H - g, W: g, H: g}, true
}

// PartAt classifies p against the window's chrome.
func (m *Manager) PartAt(h Handle, p Pt) Part {
	w := m.lookup(h)
	if w == nil || !w.Bounds.Contains(p) {
		return PartNone
	}
	if r, ok := m.CloseBox(h); ok && r.Contains(p) {
		return PartClose
	}
	if p.Y < w.Bounds.Y+m.m.BarHeight {
		return PartBar
	}
	if r, ok := m.GripBox(h); ok && r.Contains(p) {
		return PartGrip
	}
	return PartContent
}

// Press handles a primary button press at p. Any press raises the window
// under it. A press on the bar arms a drag, a second press on the same bar
// within DoubleClick toggles shading, the close box closes and the grip
// starts a resize.
func (m *Manager) Press(p Pt, now time.Time) Event {
	h, ok := m.RaiseAtPoint(p)
	if !ok {
		m.ptr.mode = modeIdle
		return Event{}
	}
	ev := Event{Handle: h, Part: m.PartAt(h, p), Action: ActRaise}
	switch ev.Part {
	case PartClose:
		m.Close(h)
		ev.Action = ActClose
	case PartGrip:
		m.BeginResize(h, p)
	case PartBar:
		last := m.ptr
		if last.lastHandle == h && now.Sub(last.lastClick) <= DoubleClick && p.Dist(last.lastClickAt) <= DragSlop {
			m.ToggleShade(h)
			m.ptr = pointer{}
			ev.Action = ActShade
			return ev
		}
		w := m.lookup(h)
		m.ptr = pointer{
			mode:        modeArmed,
			target:      h,
			start:       p,
			grab:        p.Sub(w.Bounds.Min()),
			lastClick:   now,
			lastHandle:  h,
			lastClickAt: p,
		}
	default:
		m.ptr.mode = modeIdle
	}
	return ev
}

// Move handles pointer motion with the button held.
func (m *Manager) Move(p Pt) Event {
	switch m.ptr.mode {
	case modeArmed:
		if p.Dist(m.ptr.start) < DragSlop {
			return Event{Handle: m.ptr.target}
		}
		m.ptr.mode = modeDrag
		m.ptr.lastHandle = Handle{}
		m.Drag(m.ptr.target, p)
		return Event{Handle: m.ptr.target, Part: PartBar, Action: ActDragStart}
	case modeDrag:
		m.Drag(m.ptr.target, p)
		return Event{Handle: m.ptr.target, Part: PartBar, Action: ActDrag}
	case modeResize:
		m.Resize(m.ptr.target, p.Add(m.ptr.grab))
		return Event{Handle: m.ptr.target, Part: PartGrip, Action: ActResize}
	}
	return Event{}
}

// Release ends any drag or resize in progress.
func (m *Manager) Release(Pt) Event {
	ev := Event{Handle: m.ptr.target}
	if m.ptr.mode == modeDrag || m.ptr.mode == modeResize {
		ev.Action = ActRelease
	}
	m.ptr.mode = modeIdle
	m.ptr.target = Handle{}
	return ev
}
