/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package wm manages the movable windows drawn on the desktop surface: their
// geometry, stacking order, shading and pointer interaction.
//
// Windows live in an arena addressed by generation-checked handles. Closing a
// window bumps the slot generation, so a stale handle never resolves again
// even after the slot is reused. Mutating calls with an unknown handle do
// nothing.
package wm

import (
	"errors"
	"fmt"
	"sort"

	"sutdvn/internal/config"
)

// ErrUnknownHandle is returned by lookups for closed or never-issued handles.
var ErrUnknownHandle = errors.New("unknown window handle")

// Handle identifies an open window. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string { return fmt.Sprintf("win#%d.%d", h.index, h.gen) }

// Window is the manager's record of one window. Bounds include the title bar.
type Window struct {
	Title     string
	Bounds    Rect
	Shaded    bool
	Rank      int
	Closable  bool
	Resizable bool

	restoreH float32
}

// Spec describes a window to open. Bounds include the title bar and are used
// as given; the minimum size only applies to later resizes.
type Spec struct {
	Title     string
	Bounds    Rect
	Closable  bool
	Resizable bool
}

type slot struct {
	win  Window
	gen  uint32
	live bool
}

// Metrics are the scale-derived sizes of window chrome.
type Metrics struct {
	BarHeight float32
	Unit      float32
	Grip      float32
}

// MetricsFor derives chrome sizes from the display scale: a 4 EM title bar
// and a 2 EM resize grip.
func MetricsFor(s config.Scale) Metrics {
	return Metrics{BarHeight: s.U(4), Unit: s.EM, Grip: s.U(2)}
}

// Manager owns every window. Not safe for concurrent use; it belongs to the
// scheduler goroutine.
type Manager struct {
	m       Metrics
	slots   []slot
	free    []uint32
	maxRank int
	ptr     pointer
}

// New returns an empty manager.
func New(m Metrics) *Manager {
	if m.BarHeight <= 0 {
		m = MetricsFor(config.DefaultScale)
	}
	return &Manager{m: m}
}

// Metrics returns the chrome sizes in use.
func (m *Manager) Metrics() Metrics { return m.m }

func (m *Manager) lookup(h Handle) *Window {
	if h.gen == 0 || int(h.index) >= len(m.slots) {
		return nil
	}
	s := &m.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return &s.win
}

// Open registers a window on top of all others.
func (m *Manager) Open(sp Spec) Handle {
	m.maxRank++
	w := Window{
		Title:     sp.Title,
		Bounds:    sp.Bounds,
		Rank:      m.maxRank,
		Closable:  sp.Closable,
		Resizable: sp.Resizable,
	}
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		m.slots = append(m.slots, slot{})
		idx = uint32(len(m.slots) - 1)
	}
	s := &m.slots[idx]
	if s.gen++; s.gen == 0 {
		s.gen = 1 // the zero generation is never issued
	}
	s.live = true
	s.win = w
	return Handle{index: idx, gen: s.gen}
}

// Get returns a copy of the window.
func (m *Manager) Get(h Handle) (Window, error) {
	w := m.lookup(h)
	if w == nil {
		return Window{}, fmt.Errorf("%w: %v", ErrUnknownHandle, h)
	}
	return *w, nil
}

// Alive reports whether h still resolves.
func (m *Manager) Alive(h Handle) bool { return m.lookup(h) != nil }

// Len is the number of open windows.
func (m *Manager) Len() int { return len(m.slots) - len(m.free) }

// View pairs a handle with a copy of its window.
type View struct {
	Handle Handle
	Window
}

// Stack returns the open windows bottom to top.
func (m *Manager) Stack() []View {
	out := make([]View, 0, m.Len())
	for i := range m.slots {
		s := &m.slots[i]
		if s.live {
			out = append(out, View{Handle: Handle{index: uint32(i), gen: s.gen}, Window: s.win})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Content is the area below the title bar; zero height while shaded.
func (m *Manager) Content(h Handle) (Rect, error) {
	w := m.lookup(h)
	if w == nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrUnknownHandle, h)
	}
	b := w.Bounds
	return Rect{X: b.X, Y: b.Y + m.m.BarHeight, W: b.W, H: max(0, b.H-m.m.BarHeight)}, nil
}

// Bar is the title bar area.
func (m *Manager) Bar(h Handle) (Rect, error) {
	w := m.lookup(h)
	if w == nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrUnknownHandle, h)
	}
	return Rect{X: w.Bounds.X, Y: w.Bounds.Y, W: w.Bounds.W, H: m.m.BarHeight}, nil
}

// MoveTo places the window's top-left corner at p.
func (m *Manager) MoveTo(h Handle, p Pt) {
	if w := m.lookup(h); w != nil {
		w.Bounds.X, w.Bounds.Y = p.X, p.Y
	}
}

// Drag makes the title bar track the pointer. During a pointer drag the
// original grab offset is kept; otherwise the top centre of the bar snaps to
// the pointer.
func (m *Manager) Drag(h Handle, p Pt) {
	w := m.lookup(h)
	if w == nil {
		return
	}
	off := Pt{X: w.Bounds.W / 2, Y: 0}
	if m.ptr.mode == modeDrag && m.ptr.target == h {
		off = m.ptr.grab
	}
	w.Bounds.X, w.Bounds.Y = p.X-off.X, p.Y-off.Y
}

// ToggleShade collapses the window to its bar or restores the height it had
// before shading.
func (m *Manager) ToggleShade(h Handle) {
	w := m.lookup(h)
	if w == nil {
		return
	}
	if w.Shaded {
		w.Bounds.H = w.restoreH
		w.Shaded = false
		return
	}
	w.restoreH = w.Bounds.H
	w.Bounds.H = m.m.BarHeight
	w.Shaded = true
}

// TopAt returns the highest ranked window whose interior contains p.
func (m *Manager) TopAt(p Pt) (Handle, bool) {
	var (
		best     Handle
		bestRank int
		found    bool
	)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.live || !s.win.Bounds.Interior(p) {
			continue
		}
		if !found || s.win.Rank > bestRank {
			best, bestRank, found = Handle{index: uint32(i), gen: s.gen}, s.win.Rank, true
		}
	}
	return best, found
}

// RaiseAtPoint raises the topmost window under p. Among all windows hit at p
// the maximum rank wins; it then receives a new maximum rank, even if it was
// already on top.
func (m *Manager) RaiseAtPoint(p Pt) (Handle, bool) {
	h, ok := m.TopAt(p)
	if ok {
		m.Raise(h)
	}
	return h, ok
}

// Raise puts the window on top.
func (m *Manager) Raise(h Handle) {
	if w := m.lookup(h); w != nil {
		m.maxRank++
		w.Rank = m.maxRank
	}
}

// BeginResize starts a pointer resize grabbed at p. The window keeps its
// top-left corner and the offset from p to the bottom-right corner is held
// for the rest of the gesture.
func (m *Manager) BeginResize(h Handle, p Pt) {
	w := m.lookup(h)
	if w == nil || !w.Resizable || w.Shaded {
		return
	}
	m.ptr = pointer{mode: modeResize, target: h, start: p, grab: w.Bounds.Max().Sub(p)}
}

// Resize moves the bottom-right corner to p, no smaller than
// a bar plus one unit in either direction. Shaded or fixed-size windows are
// left alone.
func (m *Manager) Resize(h Handle, p Pt) {
	w := m.lookup(h)
	if w == nil || !w.Resizable || w.Shaded {
		return
	}
	w.Bounds.W = p.X - w.Bounds.X
	w.Bounds.H = p.Y - w.Bounds.Y
	w.Bounds = m.clampSize(w.Bounds)
}

func (m *Manager) clampSize(r Rect) Rect {
	floor := m.m.BarHeight + m.m.Unit
	r.W = max(r.W, floor)
	r.H = max(r.H, floor)
	return r
}

// Close removes the window and invalidates its handle.
func (m *Manager) Close(h Handle) {
	if m.lookup(h) == nil {
		return
	}
	s := &m.slots[h.index]
	s.live = false
	s.win = Window{}
	m.free = append(m.free, h.index)
	if m.ptr.target == h {
		m.ptr = pointer{}
	}
}
