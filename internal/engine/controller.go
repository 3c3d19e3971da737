/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine is the surface story code talks to. Every Controller method
// blocks the calling story goroutine while the work runs on the scheduler,
// so a story reads like a plain sequence of print and input calls.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sutdvn/internal/bridge"
	"sutdvn/internal/desktop"
	applog "sutdvn/internal/log"
	"sutdvn/internal/loop"
	"sutdvn/internal/transcript"
)

// ErrInputBusy is returned by Input while another Input is waiting.
var ErrInputBusy = desktop.ErrInputBusy

// Scheduler is the part of the UI loop the controller needs.
type Scheduler interface {
	bridge.Scheduler
	Post(fn func(ctx context.Context)) error
	Start(p loop.Process)
}

// Controller drives a Desktop from the story goroutine. Flags is the story's
// own state; it is only touched by story code, so it needs no lock.
type Controller struct {
	sched Scheduler
	desk  *desktop.Desktop
	log   *slog.Logger

	Flags Flags
}

// New returns a controller for d, which must be owned by s.
func New(s Scheduler, d *desktop.Desktop) *Controller {
	return &Controller{
		sched: s,
		desk:  d,
		log:   applog.WithComponent("engine"),
		Flags: Flags{},
	}
}

// Sprint joins values with single spaces.
func Sprint(a ...any) string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

// Print shows the values as the current speaker and returns once the text is
// fully visible, either after the typewriter animation or when skipped.
func (c *Controller) Print(ctx context.Context, a ...any) error {
	text := Sprint(a...)
	c.log.Info("print", slog.String("text", text))
	_, err := bridge.Call(ctx, c.sched, func(_ context.Context, f *bridge.Future[struct{}]) {
		anim, err := c.desk.Print(text)
		if err != nil {
			f.Fail(err)
			return
		}
		anim.OnDone(func(cancelled bool) {
			if cancelled {
				f.Cancel()
				return
			}
			f.Resolve(struct{}{})
		})
		c.sched.Start(anim)
	})
	return err
}

// Input shows prompt, enables the entry and returns what the user submits.
func (c *Controller) Input(ctx context.Context, prompt string) (string, error) {
	reply, err := bridge.Call(ctx, c.sched, func(_ context.Context, f *bridge.Future[string]) {
		req, err := c.desk.BeginInput(prompt)
		if err != nil {
			f.Fail(err)
			return
		}
		req.OnDone(func(reply string, cancelled bool) {
			if cancelled {
				f.Cancel()
				return
			}
			f.Resolve(reply)
		})
		c.sched.Start(req)
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// SetSpeaker changes the speaker for following messages. Fields without an
// option keep their value.
func (c *Controller) SetSpeaker(ctx context.Context, opts ...transcript.Option) error {
	_, err := bridge.Call(ctx, c.sched, func(_ context.Context, f *bridge.Future[struct{}]) {
		if err := c.desk.Chat.SetSpeaker(opts...); err != nil {
			f.Fail(err)
			return
		}
		f.Resolve(struct{}{})
	})
	return err
}

// ShowFace swaps the Face Cam image without waiting for it. Missing images
// are logged by the desktop. The only error is a stopped scheduler.
func (c *Controller) ShowFace(key string) error {
	c.log.Info("show face", slog.String("key", key))
	return c.sched.Post(func(context.Context) { _ = c.desk.ShowFace(key) })
}

// ShowBackground swaps the desktop background without waiting for it.
func (c *Controller) ShowBackground(key string) error {
	c.log.Info("show background", slog.String("key", key))
	return c.sched.Post(func(context.Context) { _ = c.desk.ShowBackground(key) })
}

// ShowJumpscare floods the desktop with windows and returns when the burst
// is over. At most desktop.JumpscareCap windows are opened per call.
func (c *Controller) ShowJumpscare(ctx context.Context) error {
	_, err := bridge.Call(ctx, c.sched, func(_ context.Context, f *bridge.Future[int]) {
		j := c.desk.StartJumpscare()
		j.OnDone(func(cancelled bool) {
			if cancelled {
				f.Cancel()
				return
			}
			f.Resolve(j.Spawned())
		})
		c.sched.Start(j)
	})
	return err
}
