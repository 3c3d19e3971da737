/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package desktop

import (
	"log/slog"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"sutdvn/internal/wm"
)

// JumpscareCap is the number of windows one jumpscare spawns. It is a hard
// limit: the effect stops there no matter how long it runs.
const JumpscareCap = 69

// JumpscareDuration is how long the spawn burst lasts.
const JumpscareDuration = 3 * time.Second

// Jumpscare spawns image windows at random spots, slowly at first and then
// faster, until JumpscareCap windows are open. Spawned windows are left on
// the desktop; users close them one by one.
type Jumpscare struct {
	d       *Desktop
	curve   *gween.Tween
	last    time.Time
	started bool
	spawned int
	done    bool
	onDone  []func(cancelled bool)
}

// StartJumpscare returns the effect as a scheduler process.
func (d *Desktop) StartJumpscare() *Jumpscare {
	d.scares++
	d.log.Info("jumpscare", slog.Int("n", d.scares))
	return &Jumpscare{
		d:     d,
		curve: gween.New(0, JumpscareCap, float32(JumpscareDuration.Seconds()), ease.InQuad),
	}
}

// Spawned is the number of windows opened so far.
func (j *Jumpscare) Spawned() int { return j.spawned }

// OnDone registers fn to run when the effect ends.
func (j *Jumpscare) OnDone(fn func(cancelled bool)) {
	if j.done {
		fn(false)
		return
	}
	j.onDone = append(j.onDone, fn)
}

// Advance opens the windows due by now.
func (j *Jumpscare) Advance(now time.Time) bool {
	if j.done {
		return true
	}
	if !j.started {
		j.started, j.last = true, now
		j.spawn(1)
		return false
	}
	dt := now.Sub(j.last)
	j.last = now
	v, finished := j.curve.Update(float32(dt.Seconds()))
	due := int(v)
	if finished {
		due = JumpscareCap
	}
	j.spawn(due)
	if j.spawned >= JumpscareCap {
		j.finish(false)
		return true
	}
	return false
}

// Cancel stops spawning; windows already open stay.
func (j *Jumpscare) Cancel() {
	if !j.done {
		j.finish(true)
	}
}

func (j *Jumpscare) spawn(due int) {
	due = min(due, JumpscareCap)
	d := j.d
	s := d.scale
	for j.spawned < due {
		w := s.U(20 + float32(d.rng.IntN(21)))
		h := w + d.WM.Metrics().BarHeight
		x := d.rng.Float32() * max(1, d.w-w)
		y := d.rng.Float32() * max(1, d.h-h)
		d.OpenImageWindow("!!!", JumpscareImage, wm.R(x, y, w, h))
		j.spawned++
	}
}

func (j *Jumpscare) finish(cancelled bool) {
	j.done = true
	j.d.log.Debug("jumpscare finished", slog.Int("spawned", j.spawned), slog.Bool("cancelled", cancelled))
	fns := j.onDone
	j.onDone = nil
	for _, fn := range fns {
		fn(cancelled)
	}
}
