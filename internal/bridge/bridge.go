/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bridge lets a blocking caller run work on the UI scheduler goroutine
// and wait for its outcome.
//
// Work is handed over as an Operation that receives a Future. The operation
// may settle the future immediately or keep it open across several scheduler
// ticks (an animation, a pending text entry). When the scheduler shuts down,
// every future still open is cancelled, so callers never hang.
package bridge

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports that an operation was aborted, usually by shutdown.
	ErrCancelled = errors.New("operation cancelled")
	// ErrDeadlock reports a Call made from the scheduler goroutine itself. It is
	// detected only with a scheduler-supplied ctx (or one derived from it); a
	// Call from the scheduler with an unrelated context blocks the loop.
	ErrDeadlock = errors.New("bridge call from scheduler goroutine would deadlock")
)

// Scheduler is the part of the UI loop the bridge needs.
type Scheduler interface {
	// Schedule queues fn to run on the scheduler goroutine. onCancel runs on
	// shutdown if release has not been called by then. After shutdown Schedule
	// fails with an error wrapping ErrCancelled.
	Schedule(fn func(ctx context.Context), onCancel func()) (release func(), err error)
}

// Operation runs on the scheduler goroutine and must eventually settle f.
type Operation[T any] func(ctx context.Context, f *Future[T])

type schedulerKey struct{}

// MarkScheduler returns ctx tagged as belonging to the scheduler goroutine.
// The scheduler wraps every context it hands to tasks with it.
func MarkScheduler(ctx context.Context) context.Context {
	return context.WithValue(ctx, schedulerKey{}, true)
}

// OnScheduler reports whether ctx was handed out by the scheduler.
func OnScheduler(ctx context.Context) bool {
	v, _ := ctx.Value(schedulerKey{}).(bool)
	return v
}

// Call schedules op and blocks until it settles. The result is exactly the
// value op resolved with. Shutdown or the end of ctx yields ErrCancelled.
// Code running on the scheduler must pass the ctx it was handed, so a nested
// Call fails with ErrDeadlock instead of hanging.
func Call[T any](ctx context.Context, s Scheduler, op Operation[T]) (T, error) {
	var zero T
	if OnScheduler(ctx) {
		return zero, ErrDeadlock
	}
	f := NewFuture[T]()
	release, err := s.Schedule(func(uctx context.Context) {
		if f.Settled() {
			return // cancelled before it ran
		}
		op(uctx, f)
	}, func() { f.Cancel() })
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return zero, err
		}
		return zero, fmt.Errorf("schedule: %w", err)
	}
	defer release()
	v, err := f.Wait(ctx)
	if err != nil && !f.Settled() {
		// the caller gave up; make sure a late operation does not write a dead slot
		f.Cancel()
	}
	return v, err
}

// Do is Call for operations that complete within a single task and produce no value.
func Do(ctx context.Context, s Scheduler, fn func(ctx context.Context)) error {
	_, err := Call(ctx, s, func(uctx context.Context, f *Future[struct{}]) {
		fn(uctx)
		f.Resolve(struct{}{})
	})
	return err
}
