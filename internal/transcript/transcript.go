/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transcript holds the chat log: an append-only list of
// speaker-attributed messages and the typewriter animation that reveals them.
//
// A Transcript belongs to the scheduler goroutine. Only the skip flag may be
// touched from elsewhere.
package transcript

import (
	"sync/atomic"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"sutdvn/internal/config"
	"sutdvn/internal/textlayout"
)

// State of a message. Settled is terminal.
type State uint8

const (
	Pending State = iota
	Animating
	Settled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Animating:
		return "animating"
	default:
		return "settled"
	}
}

// Message is one bubble. Visible equals Full once State is Settled.
type Message struct {
	Seq       int
	Speaker   string
	Side      Side
	Placement Placement
	Full      string
	Visible   string
	State     State

	// Bubble geometry in log coordinates, sized for Full so the layout does
	// not jump while the text is revealed.
	Y, Height float32
}

// Speaker is the current name and side applied to new messages.
type Speaker struct {
	Name string
	Side Side
}

type override struct {
	name    *string
	side    Side
	sideSet bool
}

// Option overrides the current speaker for one call.
type Option func(*override)

// Name sets the speaker name. An empty name hides the "name:" header.
func Name(n string) Option { return func(o *override) { o.name = &n } }

// OnSide sets the bubble side. SideUnset leaves the side unchanged.
func OnSide(s Side) Option {
	return func(o *override) {
		if s != SideUnset {
			o.side, o.sideSet = s, true
		}
	}
}

// Options configures a Transcript.
type Options struct {
	Scale    config.Scale
	Layouter *textlayout.WordWrapLayouter
}

// Transcript is the ordered chat log.
type Transcript struct {
	msgs    []*Message
	speaker Speaker
	skip    atomic.Bool

	layout   *textlayout.WordWrapLayouter
	colWidth float32
	padTop   float32
	padBot   float32
	contentH float32
	version  uint64
}

// New returns an empty log whose current speaker is unnamed and centred.
func New(opts Options) *Transcript {
	if opts.Scale.EM == 0 {
		opts.Scale = config.DefaultScale
	}
	if opts.Layouter == nil {
		opts.Layouter = textlayout.NewWordWrap(textlayout.BasicProvider{})
	}
	return &Transcript{
		speaker:  Speaker{Name: "", Side: Center},
		layout:   opts.Layouter,
		colWidth: opts.Scale.U(2),
		padTop:   opts.Scale.U(0.5),
		padBot:   opts.Scale.U(1.5),
	}
}

// Speaker returns the current speaker.
func (t *Transcript) Speaker() Speaker { return t.speaker }

// SetSpeaker applies a partial update: fields without an option keep their value.
func (t *Transcript) SetSpeaker(opts ...Option) error {
	sp, err := t.resolve(opts)
	if err != nil {
		return err
	}
	t.speaker = sp
	t.version++
	return nil
}

func (t *Transcript) resolve(opts []Option) (Speaker, error) {
	var o override
	for _, fn := range opts {
		fn(&o)
	}
	sp := t.speaker
	if o.name != nil {
		sp.Name = *o.name
	}
	if o.sideSet {
		sp.Side = o.side
	}
	if _, err := sp.Side.Placement(); err != nil {
		return t.speaker, err
	}
	return sp, nil
}

// ColumnWidth is the width of one grid column in pixels.
func (t *Transcript) ColumnWidth() float32 { return t.colWidth }

// WrapWidth is the text width of a bubble in pixels.
func (t *Transcript) WrapWidth() float32 { return BubbleColumns * t.colWidth }

func format(name, text string) string {
	if name == "" {
		return text
	}
	return name + ":\n" + text
}

func (t *Transcript) add(text string, opts []Option) (*Message, string, error) {
	sp, err := t.resolve(opts)
	if err != nil {
		return nil, "", err
	}
	pl, err := sp.Side.Placement()
	if err != nil {
		return nil, "", err
	}
	full := format(sp.Name, text)
	box := t.layout.Layout(full, t.WrapWidth())
	m := &Message{
		Seq:       len(t.msgs),
		Speaker:   sp.Name,
		Side:      sp.Side,
		Placement: pl,
		Full:      full,
		State:     Pending,
		Y:         t.contentH + t.padTop,
		Height:    box.Height,
	}
	t.contentH += t.padTop + box.Height + t.padBot
	t.msgs = append(t.msgs, m)
	t.version++
	return m, full[:len(full)-len(text)], nil
}

// Append adds a fully visible message and scrolls to it.
func (t *Transcript) Append(text string, opts ...Option) (Message, error) {
	m, _, err := t.add(text, opts)
	if err != nil {
		return Message{}, err
	}
	m.Visible = m.Full
	m.State = Settled
	return *m, nil
}

// AppendAnimated adds a message whose body is revealed one character per
// delay. The returned Animation must be driven by the scheduler.
func (t *Transcript) AppendAnimated(text string, delay time.Duration, opts ...Option) (*Animation, error) {
	m, header, err := t.add(text, opts)
	if err != nil {
		return nil, err
	}
	m.State = Animating
	m.Visible = header
	a := &Animation{t: t, msg: m, header: header, body: []rune(text), delay: delay}
	if delay > 0 && len(a.body) > 0 {
		dur := float32(delay.Seconds()) * float32(len(a.body))
		a.tween = gween.New(0, float32(len(a.body)), dur, ease.Linear)
	}
	return a, nil
}

// SetSkip turns animation skipping on or off. Safe from any goroutine.
func (t *Transcript) SetSkip(on bool) { t.skip.Store(on) }

// Skipping reports whether animations are being skipped.
func (t *Transcript) Skipping() bool { return t.skip.Load() }

// ToggleSkip flips the skip flag and returns the new value.
func (t *Transcript) ToggleSkip() bool {
	for {
		old := t.skip.Load()
		if t.skip.CompareAndSwap(old, !old) {
			t.version++
			return !old
		}
	}
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.msgs) }

// At returns a copy of message i.
func (t *Transcript) At(i int) (Message, bool) {
	if i < 0 || i >= len(t.msgs) {
		return Message{}, false
	}
	return *t.msgs[i], true
}

// Messages returns copies of all messages in display order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.msgs))
	for i, m := range t.msgs {
		out[i] = *m
	}
	return out
}

// ContentHeight is the total height of all bubbles including padding.
func (t *Transcript) ContentHeight() float32 { return t.contentH }

// ScrollTarget is the sequence number the view should keep in sight: always
// the newest message, or -1 when the log is empty.
func (t *Transcript) ScrollTarget() int { return len(t.msgs) - 1 }

// Version changes whenever anything visible changes.
func (t *Transcript) Version() uint64 { return t.version }
