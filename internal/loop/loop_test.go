/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"sutdvn/internal/bridge"
)

type countdown struct {
	left      int
	cancelled bool
}

func (c *countdown) Advance(time.Time) bool {
	c.left--
	return c.left <= 0
}

func (c *countdown) Cancel() { c.cancelled = true }

func TestStep_RunsQueuedWorkInOrder(t *testing.T) {
	s := New(Options{})
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		if err := s.Post(func(ctx context.Context) {
			if !bridge.OnScheduler(ctx) {
				t.Errorf("task context not marked as scheduler context")
			}
			got = append(got, i)
		}); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	s.Step(time.Now())
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("tasks ran out of order: %v", got)
	}
	if s.Ticks() != 1 {
		t.Fatalf("ticks = %d", s.Ticks())
	}
}

func TestStep_WorkPostedDuringTickRunsNextTick(t *testing.T) {
	s := New(Options{})
	ran := false
	_ = s.Post(func(context.Context) {
		_ = s.Post(func(context.Context) { ran = true })
	})
	s.Step(time.Now())
	if ran {
		t.Fatalf("nested post ran in the same tick")
	}
	s.Step(time.Now())
	if !ran {
		t.Fatalf("nested post did not run on the following tick")
	}
}

func TestProcessesAdvanceUntilDone(t *testing.T) {
	s := New(Options{})
	p := &countdown{left: 3}
	_ = s.Post(func(context.Context) { s.Start(p) })
	now := time.Now()
	for i := 0; i < 2; i++ {
		s.Step(now)
		if s.Active() != 1 {
			t.Fatalf("tick %d: active = %d, want 1", i, s.Active())
		}
	}
	s.Step(now)
	if s.Active() != 0 {
		t.Fatalf("process not retired after finishing")
	}
}

func TestShutdown_CancelsEverything(t *testing.T) {
	s := New(Options{})
	p := &countdown{left: 100}
	s.Start(p)
	cancelled := 0
	_, _ = s.Schedule(func(context.Context) {}, func() { cancelled++ })
	release, _ := s.Schedule(func(context.Context) {}, func() { cancelled += 10 })
	release()
	hook := false
	s.OnShutdown(func() { hook = true })

	s.Shutdown()
	s.Shutdown()

	if !p.cancelled {
		t.Fatalf("process not cancelled")
	}
	if cancelled != 1 {
		t.Fatalf("cancel callbacks = %d, want 1 (released op must not be cancelled)", cancelled)
	}
	if !hook {
		t.Fatalf("shutdown hook did not run")
	}
	if err := s.Post(func(context.Context) {}); !errors.Is(err, ErrStopped) || !errors.Is(err, bridge.ErrCancelled) {
		t.Fatalf("Post after shutdown = %v", err)
	}
}

func TestRun_QuitStopsLoop(t *testing.T) {
	s := New(Options{Interval: time.Millisecond})
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()

	ran := make(chan struct{})
	_ = s.Post(func(context.Context) { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("posted work never ran")
	}
	s.Quit()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after Quit")
	}
	<-s.Done()
}

func TestRun_TickPanicTerminates(t *testing.T) {
	s := New(Options{Interval: time.Millisecond})
	cancelled := make(chan struct{})
	_, _ = s.Schedule(func(context.Context) { panic("boom") }, nil)
	_, _ = s.Schedule(func(context.Context) {}, func() { close(cancelled) })

	err := s.Run(context.Background())
	var tp *TickPanic
	if !errors.As(err, &tp) || tp.Value != "boom" || len(tp.Stack) == 0 {
		t.Fatalf("expected TickPanic(boom), got %v", err)
	}
	select {
	case <-cancelled:
	default:
		t.Fatalf("pending operation not cancelled after tick panic")
	}
}
