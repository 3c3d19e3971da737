/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package desktop is the in-memory desktop the story plays on: the window
// manager, the "Bubble" chat window with its transcript, input entry and skip
// toggle, the "Face Cam" window and the background image.
//
// A Desktop is owned by the scheduler goroutine. Surfaces never touch it
// directly; they receive Frame snapshots and post pointer and keyboard
// events back through the scheduler.
package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"sutdvn/internal/asset"
	"sutdvn/internal/config"
	applog "sutdvn/internal/log"
	"sutdvn/internal/textlayout"
	"sutdvn/internal/transcript"
	"sutdvn/internal/wm"
)

// ErrInputBusy is returned when an input request is already waiting.
var ErrInputBusy = errors.New("an input request is already active")

// Image keys used on startup.
const (
	DefaultFace       = "sutd"
	DefaultBackground = "windoes_background"
	JumpscareImage    = "jumpscare"
)

// Kind tells a surface what to draw inside a window.
type Kind uint8

const (
	KindChat Kind = iota
	KindImage
)

type content struct {
	kind  Kind
	image string
}

// Options configures a Desktop.
type Options struct {
	Scale     config.Scale
	Width     float32
	Height    float32
	CharDelay time.Duration
	Assets    *asset.Library
	Layouter  *textlayout.WordWrapLayouter
	Logger    *slog.Logger
	Rand      *rand.Rand
}

// Desktop holds every piece of visible state.
type Desktop struct {
	scale     config.Scale
	w, h      float32
	charDelay time.Duration
	assets    *asset.Library
	layout    *textlayout.WordWrapLayouter
	log       *slog.Logger
	rng       *rand.Rand

	WM   *wm.Manager
	Chat *transcript.Transcript

	chatWin    wm.Handle
	faceWin    wm.Handle
	contents   map[wm.Handle]content
	face       string
	background string

	input      *InputRequest
	chatScroll float32
	lastTarget int
	scares     int
	version    uint64
}

// New builds the desktop and opens the default windows.
func New(opts Options) *Desktop {
	if opts.Scale.EM == 0 {
		opts.Scale = config.DefaultScale
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1600, 900
	}
	if opts.Layouter == nil {
		opts.Layouter = textlayout.NewWordWrap(textlayout.BasicProvider{})
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("desktop")
	}
	if opts.Assets == nil {
		opts.Assets = asset.NewLibrary(nil)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	d := &Desktop{
		scale:      opts.Scale,
		w:          opts.Width,
		h:          opts.Height,
		charDelay:  opts.CharDelay,
		assets:     opts.Assets,
		layout:     opts.Layouter,
		log:        opts.Logger,
		rng:        opts.Rand,
		WM:         wm.New(wm.MetricsFor(opts.Scale)),
		Chat:       transcript.New(transcript.Options{Scale: opts.Scale, Layouter: opts.Layouter}),
		contents:   map[wm.Handle]content{},
		face:       DefaultFace,
		background: DefaultBackground,
		lastTarget: -1,
	}
	d.openDefaults()
	return d
}

func (d *Desktop) openDefaults() {
	s := d.scale
	bar := d.WM.Metrics().BarHeight
	cw, ch := s.U(70), s.U(70)+bar
	d.chatWin = d.WM.Open(wm.Spec{
		Title:     "Bubble",
		Bounds:    wm.R((d.w-cw)/2, s.U(5), cw, ch),
		Resizable: true,
	})
	d.contents[d.chatWin] = content{kind: KindChat}

	fw, fh := s.U(60), s.U(60)+bar
	d.faceWin = d.WM.Open(wm.Spec{
		Title:  "Face Cam",
		Bounds: wm.R(s.U(1), s.U(5), fw, fh),
	})
	d.contents[d.faceWin] = content{kind: KindImage, image: DefaultFace}
	d.log.Debug("default windows opened", slog.String("chat", d.chatWin.String()), slog.String("face", d.faceWin.String()))
}

func (d *Desktop) touch() { d.version++ }

// Version changes whenever a new Frame would differ from the last one.
func (d *Desktop) Version() uint64 { return d.version + d.Chat.Version() }

// Size returns the desktop area size.
func (d *Desktop) Size() (w, h float32) { return d.w, d.h }

// SetSize records a new desktop area size, e.g. after the surface resized.
func (d *Desktop) SetSize(w, h float32) {
	if w <= 0 || h <= 0 || (w == d.w && h == d.h) {
		return
	}
	d.w, d.h = w, h
	d.touch()
}

// Scale returns the display scale.
func (d *Desktop) Scale() config.Scale { return d.scale }

// ChatWindow and FaceWindow return the default window handles.
func (d *Desktop) ChatWindow() wm.Handle { return d.chatWin }
func (d *Desktop) FaceWindow() wm.Handle { return d.faceWin }

// Print appends text as an animated message. The caller starts the returned
// animation on the scheduler.
func (d *Desktop) Print(text string) (*transcript.Animation, error) {
	a, err := d.Chat.AppendAnimated(text, d.charDelay)
	if err != nil {
		return nil, err
	}
	d.followNewest()
	return a, nil
}

// Say appends a fully visible message.
func (d *Desktop) Say(text string, opts ...transcript.Option) error {
	if _, err := d.Chat.Append(text, opts...); err != nil {
		return err
	}
	d.followNewest()
	return nil
}

func (d *Desktop) followNewest() {
	if t := d.Chat.ScrollTarget(); t != d.lastTarget {
		d.lastTarget = t
		d.chatScroll = 0
	}
}

// ScrollChat moves the chat view by dy pixels; positive scrolls back in time.
func (d *Desktop) ScrollChat(dy float32) {
	layout, ok := d.chatLayout()
	if !ok {
		return
	}
	maxBack := max(0, d.Chat.ContentHeight()-layout.Log.H)
	d.chatScroll = min(max(0, d.chatScroll+dy), maxBack)
	d.touch()
}

// ToggleSkip flips animation skipping and returns the new state.
func (d *Desktop) ToggleSkip() bool {
	on := d.Chat.ToggleSkip()
	d.log.Info("skip toggled", slog.Bool("skipping", on))
	d.touch()
	return on
}

// ShowFace swaps the Face Cam image. A missing image is logged and drawn as a
// placeholder; the returned error wraps asset.ErrResourceMissing.
func (d *Desktop) ShowFace(key string) error {
	d.face = key
	if c, ok := d.contents[d.faceWin]; ok && d.WM.Alive(d.faceWin) {
		c.image = key
		d.contents[d.faceWin] = c
	}
	d.touch()
	return d.check(key)
}

// ShowBackground swaps the desktop background image.
func (d *Desktop) ShowBackground(key string) error {
	d.background = key
	d.touch()
	return d.check(key)
}

func (d *Desktop) check(key string) error {
	if _, err := d.assets.Load(key); err != nil {
		d.log.Error("image not found", slog.String("key", key), slog.Any("err", err))
		return fmt.Errorf("show %q: %w", key, err)
	}
	return nil
}

// OpenImageWindow opens a closable window showing an image.
func (d *Desktop) OpenImageWindow(title, key string, bounds wm.Rect) wm.Handle {
	h := d.WM.Open(wm.Spec{Title: title, Bounds: bounds, Closable: true})
	d.contents[h] = content{kind: KindImage, image: key}
	d.touch()
	return h
}

// Press, Move and Release route pointer events to the window manager and the
// chat window's controls.
func (d *Desktop) Press(p wm.Pt, now time.Time) wm.Event {
	ev := d.WM.Press(p, now)
	if ev.Action != wm.ActNone {
		d.touch()
	}
	switch {
	case ev.Action == wm.ActClose:
		delete(d.contents, ev.Handle)
	case ev.Part == wm.PartContent && ev.Handle == d.chatWin:
		if l, ok := d.chatLayout(); ok && l.Skip.Contains(p) {
			d.ToggleSkip()
		}
	}
	return ev
}

func (d *Desktop) Move(p wm.Pt) wm.Event {
	ev := d.WM.Move(p)
	if ev.Action != wm.ActNone {
		d.touch()
	}
	return ev
}

func (d *Desktop) Release(p wm.Pt) wm.Event {
	ev := d.WM.Release(p)
	if ev.Action != wm.ActNone {
		d.touch()
	}
	return ev
}

// ChatLayout splits the chat window content into the log, skip button and
// entry. The bottom row is 4 EM high; the skip button takes 2 of 12 columns.
type ChatLayout struct {
	Log, Skip, Entry wm.Rect
}

func (d *Desktop) chatLayout() (ChatLayout, bool) {
	c, err := d.WM.Content(d.chatWin)
	if err != nil || c.H == 0 {
		return ChatLayout{}, false
	}
	row := min(d.scale.U(4), c.H)
	col := c.W / 12
	return ChatLayout{
		Log:   wm.R(c.X, c.Y, c.W, c.H-row),
		Skip:  wm.R(c.X, c.Y+c.H-row, 2*col, row),
		Entry: wm.R(c.X+2*col, c.Y+c.H-row, c.W-2*col, row),
	}, true
}
