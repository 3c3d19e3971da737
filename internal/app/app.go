/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package app wires the scheduler, the desktop, the story and a surface
// together and owns their lifecycle.
//
// Three goroutines run: the scheduler (the only one touching the desktop),
// the story, and the surface on the calling goroutine. When the surface
// returns, the scheduler stops and cancels everything outstanding, which
// releases the story.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"sutdvn/internal/asset"
	"sutdvn/internal/bridge"
	"sutdvn/internal/config"
	"sutdvn/internal/crash"
	"sutdvn/internal/desktop"
	"sutdvn/internal/engine"
	"sutdvn/internal/export"
	applog "sutdvn/internal/log"
	"sutdvn/internal/loop"
)

// Surface shows frames and turns user input into desktop events.
type Surface interface {
	// Run blocks until the user quits or ctx ends.
	Run(ctx context.Context, h Host) error
	// Present is called on the scheduler goroutine with each new frame. It
	// must not block.
	Present(f desktop.Frame)
}

// Host is what a surface may ask of the running app. Safe from any goroutine.
type Host interface {
	// Post runs fn on the scheduler goroutine with the desktop.
	Post(fn func(d *desktop.Desktop)) error
	// Quit stops the app.
	Quit()
	// SaveTranscript writes the chat log as PDF.
	SaveTranscript(path string) error
	// Screenshot writes the current desktop as PNG.
	Screenshot(ctx context.Context, path string) error
	Assets() *asset.Library
	Config() config.AppConfig
}

// Options configures an App.
type Options struct {
	Config config.AppConfig
	Story  engine.Story
	// ScreenHeight picks the display scale when the config leaves em at 0.
	ScreenHeight int
	// CrashDir receives crash reports for scheduler failures; empty means the temp dir.
	CrashDir string
}

// App is one run of the program.
type App struct {
	cfg    config.AppConfig
	story  engine.Story
	log    *slog.Logger
	sched  *loop.Scheduler
	desk   *desktop.Desktop
	ctrl   *engine.Controller
	assets *asset.Library
	record *export.Record

	crashDir string
	surface  Surface
	settled  int
	shown    uint64
}

// New builds the app. Nothing runs until Run.
func New(opts Options) *App {
	cfg := opts.Config
	scale := cfg.Display.Resolve(opts.ScreenHeight)
	assets := asset.NewLibrary(os.DirFS(cfg.General.AssetsDir))
	sched := loop.New(loop.Options{Interval: cfg.Timing.TickInterval()})
	desk := desktop.New(desktop.Options{
		Scale:     scale,
		Width:     float32(cfg.Display.Width),
		Height:    float32(cfg.Display.Height),
		CharDelay: cfg.Timing.CharDelay(),
		Assets:    assets,
	})
	if cfg.Timing.SkipAnimation {
		desk.Chat.SetSkip(true)
	}
	a := &App{
		cfg:      cfg,
		story:    opts.Story,
		log:      applog.WithComponent("app"),
		sched:    sched,
		desk:     desk,
		ctrl:     engine.New(sched, desk),
		assets:   assets,
		record:   export.NewRecord(),
		crashDir: opts.CrashDir,
		shown:    ^uint64(0),
	}
	sched.OnTick(a.present)
	sched.OnShutdown(func() {
		// animations snapped to full text by shutdown still belong in the log
		f, _ := a.desk.Snapshot(a.settled)
		a.record.Add(f.NewLines...)
	})
	return a
}

// Controller returns the story controller.
func (a *App) Controller() *engine.Controller { return a.ctrl }

// Record returns the settled transcript, safe to read at any time.
func (a *App) Record() *export.Record { return a.record }

// present runs after every tick and hands changed frames to the surface.
func (a *App) present(_ context.Context, _ time.Time) {
	v := a.desk.Version()
	if v == a.shown {
		return
	}
	a.shown = v
	f, next := a.desk.Snapshot(a.settled)
	a.settled = next
	a.record.Add(f.NewLines...)
	if a.surface != nil {
		a.surface.Present(f)
	}
}

// Run starts the scheduler and the story, then runs the surface on the
// calling goroutine until it returns. Story errors are logged, never
// returned; a scheduler failure is returned after a crash report is written.
func (a *App) Run(ctx context.Context, s Surface) error {
	a.surface = s
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := a.sched.Run(gctx)
		var tp *loop.TickPanic
		if errors.As(err, &tp) {
			path, werr := crash.WriteReport(a.crashDir, tp.Value, tp.Stack, a.record.Tail(crash.TailLines))
			if werr != nil {
				a.log.Error("crash report not written", slog.Any("err", werr))
			} else {
				a.log.Error("scheduler crashed", slog.String("report", path))
			}
		}
		return err
	})
	if a.story != nil {
		g.Go(func() error {
			_ = engine.RunStory(gctx, a.ctrl, a.story)
			return nil
		})
	}

	a.log.Info("app started", slog.String("title", a.cfg.General.Title), slog.Float64("em", float64(a.desk.Scale().EM)))
	serr := s.Run(gctx, a)
	a.log.Info("app quitting")
	a.sched.Quit()
	err := g.Wait()

	if out := a.cfg.General.ExportOnExit; out != "" {
		if xerr := a.SaveTranscript(out); xerr != nil && !errors.Is(xerr, export.ErrEmptyTranscript) {
			a.log.Error("export on exit failed", slog.Any("err", xerr))
		}
	}
	if err != nil {
		return err
	}
	if serr != nil && !errors.Is(serr, context.Canceled) {
		return fmt.Errorf("surface: %w", serr)
	}
	return nil
}

// Post implements Host.
func (a *App) Post(fn func(d *desktop.Desktop)) error {
	return a.sched.Post(func(context.Context) { fn(a.desk) })
}

// Quit implements Host.
func (a *App) Quit() { a.sched.Quit() }

// SaveTranscript implements Host.
func (a *App) SaveTranscript(path string) error {
	if err := export.TranscriptPDF(a.record.Entries(), path, export.PDFOptions{Title: a.cfg.General.Title + " chat log"}); err != nil {
		return err
	}
	a.log.Info("chat log saved", slog.String("path", path), slog.Int("messages", a.record.Len()))
	return nil
}

// Screenshot implements Host.
func (a *App) Screenshot(ctx context.Context, path string) error {
	f, err := bridge.Call(ctx, a.sched, func(_ context.Context, fut *bridge.Future[desktop.Frame]) {
		f, _ := a.desk.Snapshot(a.settled)
		f.NewLines = nil
		fut.Resolve(f)
	})
	if err != nil {
		return err
	}
	return export.FramePNG(f, a.assets, path)
}

// Assets implements Host.
func (a *App) Assets() *asset.Library { return a.assets }

// Config implements Host.
func (a *App) Config() config.AppConfig { return a.cfg }
