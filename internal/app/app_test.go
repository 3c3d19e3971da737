/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sutdvn/internal/config"
	"sutdvn/internal/desktop"
	"sutdvn/internal/engine"
	"sutdvn/internal/loop"
)

// fakeSurface keeps the latest frame and runs a script against the host.
type fakeSurface struct {
	mu     sync.Mutex
	frames int
	last   desktop.Frame
	lines  []string
	script func(ctx context.Context, h Host, s *fakeSurface) error
}

func (s *fakeSurface) Present(f desktop.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = f
	for _, m := range f.NewLines {
		s.lines = append(s.lines, m.Full)
	}
}

func (s *fakeSurface) Run(ctx context.Context, h Host) error { return s.script(ctx, h, s) }

func (s *fakeSurface) waitFor(ctx context.Context, cond func(f desktop.Frame) bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		s.mu.Lock()
		ok := s.frames > 0 && cond(s.last)
		s.mu.Unlock()
		if ok {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func testConfig(t *testing.T) config.AppConfig {
	cfg := config.Defaults()
	cfg.General.AssetsDir = t.TempDir()
	cfg.Timing.TickMs = 1
	cfg.Timing.CharDelayMs = 1
	cfg.Display.Width, cfg.Display.Height = 800, 600
	return cfg
}

func TestRunStoryInputAndExport(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "chat.pdf")
	cfg.General.ExportOnExit = out

	storyDone := make(chan struct{})
	story := func(ctx context.Context, c *engine.Controller) error {
		defer close(storyDone)
		if err := c.Print(ctx, "hello", "world"); err != nil {
			return err
		}
		_, err := c.AskFlag(ctx, "ACCEPT_JOB", "accept job? (y/n)")
		return err
	}
	surf := &fakeSurface{script: func(ctx context.Context, h Host, s *fakeSurface) error {
		if !s.waitFor(ctx, func(f desktop.Frame) bool { return f.Chat.InputEnabled }) {
			t.Errorf("input never enabled")
			return nil
		}
		if err := h.Post(func(d *desktop.Desktop) { d.Submit("y") }); err != nil {
			t.Errorf("post: %v", err)
		}
		<-storyDone
		shot := filepath.Join(t.TempDir(), "shot.png")
		if err := h.Screenshot(ctx, shot); err != nil {
			t.Errorf("screenshot: %v", err)
		}
		return nil
	}}

	a := New(Options{Config: cfg, Story: story})
	if err := a.Run(context.Background(), surf); err != nil {
		t.Fatalf("run: %v", err)
	}
	if v, ok := a.Controller().Flags.Bool("ACCEPT_JOB"); !ok || !v {
		t.Fatalf("flag = %v,%v", v, ok)
	}
	entries := a.Record().Entries()
	if len(entries) != 2 || entries[0].Text != "hello world" || entries[1].Text != "accept job? (y/n)" {
		t.Fatalf("record %+v", entries)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export on exit missing: %v", err)
	}
}

func TestStoryErrorDoesNotStopApp(t *testing.T) {
	cfg := testConfig(t)
	story := func(context.Context, *engine.Controller) error { return errors.New("bad script") }
	surf := &fakeSurface{script: func(ctx context.Context, h Host, s *fakeSurface) error {
		// the desktop keeps presenting after the story failed
		if !s.waitFor(ctx, func(f desktop.Frame) bool { return len(f.Windows) == 2 }) {
			t.Errorf("no frame presented")
		}
		return nil
	}}
	if err := New(Options{Config: cfg, Story: story}).Run(context.Background(), surf); err != nil {
		t.Fatalf("story error leaked: %v", err)
	}
}

func TestTickPanicWritesCrashReport(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	surf := &fakeSurface{script: func(ctx context.Context, h Host, s *fakeSurface) error {
		_ = h.Post(func(*desktop.Desktop) { panic("tick exploded") })
		<-ctx.Done()
		return ctx.Err()
	}}
	err := New(Options{Config: cfg, CrashDir: dir}).Run(context.Background(), surf)
	var tp *loop.TickPanic
	if !errors.As(err, &tp) {
		t.Fatalf("want TickPanic, got %v", err)
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 1 || !strings.HasPrefix(files[0].Name(), "crash-") {
		t.Fatalf("crash report missing: %v", files)
	}
}
