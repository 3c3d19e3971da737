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

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"sutdvn/internal/app"
	"sutdvn/internal/asset"
	"sutdvn/internal/config"
	vdesk "sutdvn/internal/desktop"
	applog "sutdvn/internal/log"
	"sutdvn/internal/wm"
)

// Fyne is the desktop surface: one window holding the desktop canvas and a
// taskbar with a Start menu.
type Fyne struct {
	cfg config.AppConfig
	log *slog.Logger

	fyneApp fyne.App
	win     fyne.Window
	view    *DesktopView

	latest    atomic.Pointer[vdesk.Frame]
	ready     atomic.Bool
	scheduled atomic.Bool
}

// NewDesktop returns the fyne surface. The fyne app itself is created by Run,
// which must be called on the main goroutine.
func NewDesktop(cfg config.AppConfig) (app.Surface, error) {
	return &Fyne{cfg: cfg, log: applog.WithComponent("ui")}, nil
}

// Run builds the window and blocks in the fyne event loop.
func (s *Fyne) Run(ctx context.Context, h app.Host) error {
	s.fyneApp = fyneapp.NewWithID("sutdvn")
	s.win = s.fyneApp.NewWindow(s.cfg.General.Title)
	s.view = NewDesktopView(h)

	start := widget.NewButton("Start", nil)
	start.OnTapped = func() {
		menu := fyne.NewMenu("",
			fyne.NewMenuItem("Save chat log", func() { s.saveDialog(".pdf", h.SaveTranscript) }),
			fyne.NewMenuItem("Screenshot", func() {
				s.saveDialog(".png", func(p string) error { return h.Screenshot(ctx, p) })
			}),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Quit", func() {
				s.log.Info("quit from start menu")
				s.fyneApp.Quit()
			}),
		)
		pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(start)
		widget.ShowPopUpMenuAtPosition(menu, s.win.Canvas(), pos)
	}
	start.Importance = widget.LowImportance
	taskbar := container.NewStack(
		canvas.NewRectangle(vdesk.TaskbarColor),
		container.NewHBox(container.NewStack(canvas.NewRectangle(vdesk.StartColor), start), layout.NewSpacer()),
	)
	s.win.SetContent(container.NewBorder(nil, taskbar, nil, nil, s.view))
	s.win.Resize(fyne.NewSize(float32(s.cfg.Display.Width), float32(s.cfg.Display.Height)))
	s.win.SetFullScreen(s.cfg.General.Fullscreen)
	s.win.SetCloseIntercept(func() {
		s.log.Info("window closed")
		s.fyneApp.Quit()
	})

	s.fyneApp.Lifecycle().SetOnStarted(func() {
		s.ready.Store(true)
		if f := s.latest.Load(); f != nil {
			s.view.Apply(*f)
		}
	})
	go func() {
		<-ctx.Done()
		fyne.Do(s.fyneApp.Quit)
	}()

	s.win.ShowAndRun()
	return nil
}

// Present hands f to the fyne goroutine, dropping frames that are replaced
// before fyne gets to them.
func (s *Fyne) Present(f vdesk.Frame) {
	s.latest.Store(&f)
	if !s.ready.Load() || !s.scheduled.CompareAndSwap(false, true) {
		return
	}
	fyne.Do(func() {
		s.scheduled.Store(false)
		if f := s.latest.Load(); f != nil {
			s.view.Apply(*f)
		}
	})
}

func (s *Fyne) saveDialog(ext string, save func(path string) error) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		path := w.URI().Path()
		_ = w.Close()
		if err := save(path); err != nil {
			s.log.Error("save failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, s.win)
			return
		}
		dialog.ShowInformation("Saved", fmt.Sprintf("Saved to %s", path), s.win)
	}, s.win)
	d.SetFileName("sutdvn-" + time.Now().Format("20060102-150405") + ext)
	d.Show()
}

// DesktopView draws frames and turns pointer input into desktop events.
type DesktopView struct {
	widget.BaseWidget

	host  app.Host
	frame vdesk.Frame
	entry *widget.Entry

	images map[imageKey]*canvas.Image
}

type imageKey struct {
	key  string
	w, h int
}

// NewDesktopView returns a view posting its events to h.
func NewDesktopView(h app.Host) *DesktopView {
	v := &DesktopView{host: h, images: map[imageKey]*canvas.Image{}}
	v.entry = widget.NewEntry()
	v.entry.Disable()
	v.entry.OnSubmitted = func(text string) {
		v.entry.SetText("")
		v.entry.Disable()
		v.post(func(d *vdesk.Desktop) { d.Submit(text) })
	}
	v.ExtendBaseWidget(v)
	return v
}

func (v *DesktopView) post(fn func(d *vdesk.Desktop)) {
	if err := v.host.Post(fn); err != nil {
		applog.WithComponent("ui").Debug("event dropped", slog.Any("err", err))
	}
}

// Apply shows a new frame. fyne goroutine only.
func (v *DesktopView) Apply(f vdesk.Frame) {
	v.frame = f
	if f.Chat.InputEnabled {
		v.entry.Enable()
		if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil && c.Focused() != v.entry {
			c.Focus(v.entry)
		}
	} else {
		v.entry.Disable()
	}
	v.Refresh()
}

// Resize also tells the desktop its new size.
func (v *DesktopView) Resize(s fyne.Size) {
	v.BaseWidget.Resize(s)
	v.post(func(d *vdesk.Desktop) { d.SetSize(s.Width, s.Height) })
}

func pt(p fyne.Position) wm.Pt { return wm.Pt{X: p.X, Y: p.Y} }

// MouseDown implements desktop.Mouseable.
func (v *DesktopView) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p, now := pt(e.Position), time.Now()
	v.post(func(d *vdesk.Desktop) { d.Press(p, now) })
}

// MouseUp implements desktop.Mouseable.
func (v *DesktopView) MouseUp(e *desktop.MouseEvent) {
	p := pt(e.Position)
	v.post(func(d *vdesk.Desktop) { d.Release(p) })
}

// Dragged implements fyne.Draggable.
func (v *DesktopView) Dragged(e *fyne.DragEvent) {
	p := pt(e.Position)
	v.post(func(d *vdesk.Desktop) { d.Move(p) })
}

// DragEnd implements fyne.Draggable.
func (v *DesktopView) DragEnd() {}

// Scrolled implements fyne.Scrollable; the wheel scrolls the chat log.
func (v *DesktopView) Scrolled(e *fyne.ScrollEvent) {
	dy := e.Scrolled.DY
	v.post(func(d *vdesk.Desktop) { d.ScrollChat(dy) })
}

func (v *DesktopView) image(key string, w, h int, fit asset.Fit) *canvas.Image {
	k := imageKey{key, w, h}
	if img, ok := v.images[k]; ok {
		return img
	}
	src, _ := v.host.Assets().ScaledOrPlaceholder(key, w, h, fit)
	img := canvas.NewImageFromImage(src)
	img.FillMode = canvas.ImageFillStretch
	v.images[k] = img
	return img
}

// CreateRenderer implements fyne.Widget.
func (v *DesktopView) CreateRenderer() fyne.WidgetRenderer {
	r := &desktopRenderer{v: v}
	r.objects = v.build()
	return r
}

var (
	windowFill   = color.NRGBA{R: 236, G: 236, B: 236, A: 255}
	windowStroke = color.NRGBA{R: 64, G: 64, B: 64, A: 255}
	textColor    = color.NRGBA{A: 255}
)

func place(o fyne.CanvasObject, r wm.Rect) fyne.CanvasObject {
	o.Move(fyne.NewPos(r.X, r.Y))
	o.Resize(fyne.NewSize(r.W, r.H))
	return o
}

func label(s string, x, y, size float32, bold bool) *canvas.Text {
	t := canvas.NewText(s, textColor)
	t.TextSize = size
	t.TextStyle = fyne.TextStyle{Monospace: true, Bold: bold}
	t.Move(fyne.NewPos(x, y))
	return t
}

// build turns the current frame into canvas objects, bottom to top.
func (v *DesktopView) build() []fyne.CanvasObject {
	f := v.frame
	size := v.Size()
	objs := []fyne.CanvasObject{place(canvas.NewRectangle(vdesk.DesktopColor), wm.R(0, 0, size.Width, size.Height))}
	if f.Background != "" && size.Width > 0 {
		objs = append(objs, place(v.image(f.Background, int(size.Width), int(size.Height), asset.Cover), wm.R(0, 0, size.Width, size.Height)))
	}
	em := max(f.EM, 1)
	for _, w := range f.Windows {
		body := canvas.NewRectangle(windowFill)
		body.StrokeColor, body.StrokeWidth = windowStroke, 1
		bar := canvas.NewRectangle(vdesk.BarColor)
		bar.StrokeColor, bar.StrokeWidth = windowStroke, 1
		objs = append(objs, place(body, w.Bounds), place(bar, w.Bar),
			label(w.Title, w.Bar.X+em/2, w.Bar.Y+(w.Bar.H-1.6*em)/2, 1.4*em, false))
		if w.Close.W > 0 {
			objs = append(objs, label("x", w.Close.X+w.Close.W/3, w.Close.Y+(w.Close.H-1.6*em)/2, 1.4*em, true))
		}
		if w.Content.H > 0 {
			switch w.Kind {
			case vdesk.KindImage:
				objs = append(objs, place(v.image(w.Image, int(w.Content.W), int(w.Content.H), asset.Contain), w.Content))
			case vdesk.KindChat:
				objs = append(objs, v.chatObjects(f.Chat)...)
			}
		}
		if w.Grip.W > 0 {
			g := canvas.NewRectangle(color.NRGBA{A: 0})
			g.StrokeColor, g.StrokeWidth = windowStroke, 1
			objs = append(objs, place(g, w.Grip))
		}
	}
	return objs
}

func (v *DesktopView) chatObjects(c vdesk.ChatFrame) []fyne.CanvasObject {
	if !c.Visible {
		v.entry.Hide()
		return nil
	}
	var objs []fyne.CanvasObject
	area := c.Layout.Log
	for _, b := range c.Bubbles {
		if b.Rect.Y < area.Y || b.Rect.Y+b.Rect.H > area.Y+area.H {
			continue
		}
		bg := canvas.NewRectangle(b.Color)
		bg.StrokeColor, bg.StrokeWidth = windowStroke, 1
		objs = append(objs, place(bg, b.Rect))
		for i, ln := range b.Lines {
			objs = append(objs, label(ln, b.Rect.X+4, b.Rect.Y+4+float32(i)*13, 11, i == 0 && len(b.Lines) > 1))
		}
	}
	skipText, skipColor := "Skip", vdesk.SkipOffColor
	if c.Skipping {
		skipText, skipColor = "Skipping", vdesk.SkipOnColor
	}
	btn := canvas.NewRectangle(color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	btn.StrokeColor, btn.StrokeWidth = skipColor, 2
	t := label(skipText, c.Layout.Skip.X+6, c.Layout.Skip.Y+c.Layout.Skip.H/2-8, 12, true)
	t.Color = skipColor
	v.entry.Show()
	objs = append(objs, place(btn, c.Layout.Skip), t, place(v.entry, c.Layout.Entry))
	return objs
}

type desktopRenderer struct {
	v       *DesktopView
	objects []fyne.CanvasObject
}

func (r *desktopRenderer) Destroy()                     {}
func (r *desktopRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *desktopRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }
func (r *desktopRenderer) Layout(fyne.Size)             { r.objects = r.v.build() }
func (r *desktopRenderer) Refresh()                     { r.objects = r.v.build(); canvas.Refresh(r.v) }
