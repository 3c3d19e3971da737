/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transcript

import (
	"time"

	"github.com/tanema/gween"
)

// Animation reveals one message body character by character. It satisfies
// loop.Process so the scheduler can advance and cancel it.
type Animation struct {
	t      *Transcript
	msg    *Message
	header string
	body   []rune
	delay  time.Duration
	tween  *gween.Tween

	last    time.Time
	started bool
	shown   int
	onDone  []func(cancelled bool)
}

// Seq is the sequence number of the animated message.
func (a *Animation) Seq() int { return a.msg.Seq }

// Settled reports whether the full text is visible.
func (a *Animation) Settled() bool { return a.msg.State == Settled }

// OnDone registers fn to run once when the animation settles. cancelled is
// true when it was cut short by Cancel.
func (a *Animation) OnDone(fn func(cancelled bool)) {
	if a.Settled() {
		fn(false)
		return
	}
	a.onDone = append(a.onDone, fn)
}

// Advance reveals as many characters as the elapsed time allows and reports
// whether the message is settled. The first call anchors the clock.
func (a *Animation) Advance(now time.Time) bool {
	if a.Settled() {
		return true
	}
	if a.t.skip.Load() || a.tween == nil {
		a.settle(false)
		return true
	}
	if !a.started {
		a.started, a.last = true, now
		return false
	}
	dt := now.Sub(a.last)
	a.last = now
	if dt <= 0 {
		return false
	}
	v, done := a.tween.Update(float32(dt.Seconds()))
	if done {
		a.settle(false)
		return true
	}
	n := int(v + 1e-4)
	if n > len(a.body) {
		n = len(a.body)
	}
	if n != a.shown {
		a.shown = n
		a.msg.Visible = a.header + string(a.body[:n])
		a.t.version++
	}
	if n == len(a.body) {
		a.settle(false)
		return true
	}
	return false
}

// Cancel snaps the message to its full text.
func (a *Animation) Cancel() {
	if !a.Settled() {
		a.settle(true)
	}
}

func (a *Animation) settle(cancelled bool) {
	a.shown = len(a.body)
	a.msg.Visible = a.msg.Full
	a.msg.State = Settled
	a.t.version++
	fns := a.onDone
	a.onDone = nil
	for _, fn := range fns {
		fn(cancelled)
	}
}
