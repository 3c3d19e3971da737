//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// These tests drive the desktop view with the fyne test driver. Run with:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	vdesk "sutdvn/internal/desktop"
)

func newTestView(t *testing.T) (*DesktopView, *fakeHost) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	h := &fakeHost{d: vdesk.New(vdesk.Options{})}
	v := NewDesktopView(h)
	v.Resize(fyne.NewSize(1024, 768))
	return v, h
}

func TestDesktopView_ResizeUpdatesDesktop(t *testing.T) {
	_, h := newTestView(t)
	if w, hh := h.d.Size(); w != 1024 || hh != 768 {
		t.Fatalf("desktop size %vx%v", w, hh)
	}
}

func TestDesktopView_BuildsWindowsFromFrame(t *testing.T) {
	v, h := newTestView(t)
	f, _ := h.d.Snapshot(0)
	v.Apply(f)
	r := v.CreateRenderer()
	// desktop fill, then at least body and bar for each default window
	if n := len(r.Objects()); n < 1+2*len(f.Windows) {
		t.Fatalf("expected objects for %d windows, got %d", len(f.Windows), n)
	}
}

func TestDesktopView_EntryFollowsInput(t *testing.T) {
	v, h := newTestView(t)
	req, err := h.d.BeginInput("name?")
	if err != nil {
		t.Fatal(err)
	}
	var reply string
	req.OnDone(func(s string, _ bool) { reply = s })

	f, _ := h.d.Snapshot(0)
	v.Apply(f)
	if v.entry.Disabled() {
		t.Fatal("entry should be enabled while input is pending")
	}
	v.entry.SetText("Ada")
	v.entry.OnSubmitted(v.entry.Text)
	if reply != "Ada" {
		t.Fatalf("reply %q", reply)
	}
	if v.entry.Text != "" || !v.entry.Disabled() {
		t.Fatalf("entry not reset: %q disabled=%v", v.entry.Text, v.entry.Disabled())
	}
}

func TestDesktopView_PointerEventsArePosted(t *testing.T) {
	v, h := newTestView(t)
	before := h.posted
	bar, err := h.d.WM.Bar(h.d.FaceWindow())
	if err != nil {
		t.Fatal(err)
	}
	at := fyne.NewPos(bar.X+bar.W/2, bar.Y+bar.H/2)
	v.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: at}, Button: desktop.MouseButtonPrimary})
	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: at.AddXY(10, 0)}})
	v.MouseUp(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: at.AddXY(10, 0)}})
	if h.posted-before != 3 {
		t.Fatalf("expected 3 posted events, got %d", h.posted-before)
	}
	stack := h.d.WM.Stack()
	if top := stack[len(stack)-1].Handle; top != h.d.FaceWindow() {
		t.Fatalf("face window not raised: top is %v", top)
	}
}
