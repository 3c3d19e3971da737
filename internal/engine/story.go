/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"sutdvn/internal/bridge"
	applog "sutdvn/internal/log"
)

// Story is narrative code. It runs on its own goroutine and returns when the
// story ends or a Controller call fails.
type Story func(ctx context.Context, c *Controller) error

// StoryPanic is returned by RunStory when the story panicked.
type StoryPanic struct {
	Value any
	Stack []byte
}

func (p *StoryPanic) Error() string { return fmt.Sprintf("story panicked: %v", p.Value) }

// RunStory runs story and logs how it ended. Panics are recovered so a
// broken story never takes the desktop down; cancellation during shutdown
// is logged at debug only.
func RunStory(ctx context.Context, c *Controller, story Story) (err error) {
	l := applog.WithOperation(c.log, "story")
	defer func() {
		if r := recover(); r != nil {
			err = &StoryPanic{Value: r, Stack: debug.Stack()}
		}
		switch {
		case err == nil:
			l.Info("story finished")
		case errors.Is(err, bridge.ErrCancelled):
			l.Debug("story cancelled", slog.Any("err", err))
		default:
			var sp *StoryPanic
			if errors.As(err, &sp) {
				l.Error("story panicked", slog.Any("panic", sp.Value), slog.String("stack", string(sp.Stack)))
				return
			}
			l.Error("error while executing story", slog.Any("err", err))
		}
	}()
	l.Info("story started")
	return story(ctx, c)
}
