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

	"sutdvn/internal/transcript"
)

// InputRequest is a pending text entry. It is a scheduler process: it
// finishes once the user submits text, or is cancelled on shutdown.
type InputRequest struct {
	d       *Desktop
	prompt  string
	reply   string
	settled bool
	onDone  []func(reply string, cancelled bool)
}

// BeginInput shows prompt as a centred, unnamed message and enables the
// entry. Only one request may be active.
func (d *Desktop) BeginInput(prompt string) (*InputRequest, error) {
	if d.input != nil {
		return nil, ErrInputBusy
	}
	if err := d.Say(prompt, transcript.Name(""), transcript.OnSide(transcript.Center)); err != nil {
		return nil, err
	}
	r := &InputRequest{d: d, prompt: prompt}
	d.input = r
	d.touch()
	d.log.Info("wait prompt", slog.String("prompt", prompt))
	return r, nil
}

// InputActive reports whether the entry is enabled.
func (d *Desktop) InputActive() bool { return d.input != nil }

// Submit hands text to the active request. It reports false, and drops the
// text, when no request is waiting.
func (d *Desktop) Submit(text string) bool {
	r := d.input
	if r == nil {
		d.log.Debug("input ignored while entry disabled")
		return false
	}
	r.reply = text
	d.log.Info("prompt answered", slog.String("prompt", r.prompt), slog.String("reply", text))
	r.settle(false)
	return true
}

// OnDone registers fn to run once when the request settles.
func (r *InputRequest) OnDone(fn func(reply string, cancelled bool)) {
	if r.settled {
		fn(r.reply, false)
		return
	}
	r.onDone = append(r.onDone, fn)
}

// Advance reports whether the request has settled.
func (r *InputRequest) Advance(time.Time) bool { return r.settled }

// Cancel disables the entry and settles the request as cancelled.
func (r *InputRequest) Cancel() {
	if !r.settled {
		r.settle(true)
	}
}

func (r *InputRequest) settle(cancelled bool) {
	r.settled = true
	if r.d.input == r {
		r.d.input = nil
		r.d.touch()
	}
	fns := r.onDone
	r.onDone = nil
	for _, fn := range fns {
		fn(r.reply, cancelled)
	}
}
