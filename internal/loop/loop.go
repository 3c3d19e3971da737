/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package loop implements the single cooperative UI scheduler. All desktop
// state is mutated on the goroutine running Scheduler.Run (or calling Step in
// tests) and nowhere else; other goroutines hand work over with Schedule/Post.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"sutdvn/internal/bridge"
	applog "sutdvn/internal/log"
)

// ErrStopped is returned by Schedule and Post after shutdown.
var ErrStopped = fmt.Errorf("scheduler stopped: %w", bridge.ErrCancelled)

// Process is multi-tick work owned by the scheduler, such as an animation or a
// pending text entry.
type Process interface {
	// Advance moves the process forward and reports whether it finished.
	Advance(now time.Time) bool
	// Cancel settles the process immediately. Called on shutdown.
	Cancel()
}

// TickPanic is returned by Run when a tick panicked. The scheduler is shut
// down by then.
type TickPanic struct {
	Value any
	Stack []byte
}

func (p *TickPanic) Error() string { return fmt.Sprintf("scheduler tick panicked: %v", p.Value) }

// Options configures a Scheduler.
type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Scheduler is the UI loop. Create with New.
type Scheduler struct {
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	queue   []func(ctx context.Context)
	pending map[uint64]func()
	nextID  uint64
	stopped bool

	// owned by the loop goroutine
	ctx        context.Context
	procs      []Process
	hooks      []func(ctx context.Context, now time.Time)
	onShutdown []func()
	ticks      uint64

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// New returns a stopped-until-Run scheduler.
func New(opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("loop")
	}
	return &Scheduler{
		interval: opts.Interval,
		log:      opts.Logger,
		pending:  make(map[uint64]func()),
		ctx:      bridge.MarkScheduler(context.Background()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Schedule implements bridge.Scheduler.
func (s *Scheduler) Schedule(fn func(ctx context.Context), onCancel func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}, ErrStopped
	}
	s.nextID++
	id := s.nextID
	if onCancel != nil {
		s.pending[id] = onCancel
	}
	s.queue = append(s.queue, fn)
	return func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}, nil
}

// Post queues fire-and-forget work, typically a toolkit event.
func (s *Scheduler) Post(fn func(ctx context.Context)) error {
	_, err := s.Schedule(fn, nil)
	return err
}

// Start adds a process. Loop goroutine only.
func (s *Scheduler) Start(p Process) { s.procs = append(s.procs, p) }

// Active returns the number of running processes. Loop goroutine only.
func (s *Scheduler) Active() int { return len(s.procs) }

// OnTick registers a hook run at the end of every tick, after queued work and
// processes. Register before Run or from the loop goroutine.
func (s *Scheduler) OnTick(fn func(ctx context.Context, now time.Time)) {
	s.hooks = append(s.hooks, fn)
}

// OnShutdown registers teardown run once after all outstanding work was cancelled.
func (s *Scheduler) OnShutdown(fn func()) { s.onShutdown = append(s.onShutdown, fn) }

// Ticks returns the number of completed ticks. Loop goroutine only.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

// Step runs one tick: queued work first, then processes, then hooks.
func (s *Scheduler) Step(now time.Time) {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn(s.ctx)
	}

	live := s.procs[:0]
	for _, p := range s.procs {
		if !p.Advance(now) {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(s.procs); i++ {
		s.procs[i] = nil
	}
	s.procs = live

	for _, h := range s.hooks {
		h(s.ctx, now)
	}
	s.ticks++
}

func (s *Scheduler) safeStep(now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TickPanic{Value: r, Stack: debug.Stack()}
		}
	}()
	s.Step(now)
	return nil
}

// Run ticks until ctx ends, Quit is called or a tick panics. On return every
// outstanding operation has been cancelled and shutdown hooks have run.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.Shutdown()
	s.ctx = bridge.MarkScheduler(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	s.log.Info("scheduler started", slog.Duration("interval", s.interval))
	for {
		if err := s.safeStep(time.Now()); err != nil {
			s.log.Error("tick failed", slog.Any("err", err))
			return err
		}
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", slog.String("reason", "context"))
			return nil
		case <-s.quit:
			s.log.Info("scheduler stopped", slog.String("reason", "quit"))
			return nil
		case <-t.C:
		}
	}
}

// Quit asks Run to stop after the current tick. Safe from any goroutine.
func (s *Scheduler) Quit() { s.quitOnce.Do(func() { close(s.quit) }) }

// Done is closed when Run has returned.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Shutdown stops accepting work, cancels processes and pending operations and
// runs the shutdown hooks. Run calls it on exit; tests driving Step call it
// directly. Loop goroutine only; idempotent.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	pending := s.pending
	s.pending = map[uint64]func(){}
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()

	procs := s.procs
	s.procs = nil
	for _, p := range procs {
		p.Cancel()
	}
	for _, cancel := range pending {
		cancel()
	}
	s.log.Debug("outstanding work cancelled",
		slog.Int("processes", len(procs)), slog.Int("operations", len(pending)), slog.Int("queued", dropped))
	for _, fn := range s.onShutdown {
		fn()
	}
}
