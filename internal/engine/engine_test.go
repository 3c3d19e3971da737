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
	"math/rand/v2"
	"testing"
	"time"

	"sutdvn/internal/bridge"
	"sutdvn/internal/desktop"
	"sutdvn/internal/loop"
	"sutdvn/internal/transcript"
)

type harness struct {
	s    *loop.Scheduler
	d    *desktop.Desktop
	c    *Controller
	stop context.CancelFunc
	done chan error
}

func newHarness(t *testing.T, delay time.Duration) *harness {
	t.Helper()
	s := loop.New(loop.Options{Interval: time.Millisecond})
	d := desktop.New(desktop.Options{CharDelay: delay, Rand: rand.New(rand.NewPCG(3, 4))})
	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{s: s, d: d, c: New(s, d), stop: cancel, done: make(chan error, 1)}
	go func() { h.done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// onUI runs fn on the scheduler and waits for it.
func (h *harness) onUI(t *testing.T, fn func()) {
	t.Helper()
	if err := bridge.Do(context.Background(), h.s, func(context.Context) { fn() }); err != nil {
		t.Fatalf("bridge: %v", err)
	}
}

// answer waits for the entry to be enabled and submits reply.
func (h *harness) answer(t *testing.T, reply string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		submitted := false
		h.onUI(t, func() { submitted = h.d.Submit(reply) })
		if submitted {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("input never became active")
}

func TestFlagScenario(t *testing.T) {
	cases := []struct {
		reply   string
		wantSet bool
		want    bool
	}{
		{"y", true, true},
		{"Yes please", true, true},
		{"n", true, false},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.reply, func(t *testing.T) {
			h := newHarness(t, 0)
			res := make(chan error, 1)
			var ok bool
			go func() {
				var err error
				ok, err = h.c.AskFlag(context.Background(), "ACCEPT_JOB", "accept job? (y/n)")
				res <- err
			}()
			h.answer(t, tc.reply)
			if err := <-res; err != nil {
				t.Fatalf("ask: %v", err)
			}
			v, set := h.c.Flags.Bool("ACCEPT_JOB")
			if ok != tc.wantSet || set != tc.wantSet || v != tc.want {
				t.Fatalf("reply %q: ok=%v set=%v v=%v", tc.reply, ok, set, v)
			}
		})
	}
}

func TestPrintOrdering(t *testing.T) {
	h := newHarness(t, time.Millisecond)
	ctx := context.Background()
	for _, s := range []string{"A", "B", "C"} {
		if err := h.c.Print(ctx, s); err != nil {
			t.Fatalf("print %s: %v", s, err)
		}
	}
	var msgs []transcript.Message
	h.onUI(t, func() { msgs = h.d.Chat.Messages() })
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, want := range []string{"A", "B", "C"} {
		if msgs[i].Full != want || msgs[i].Visible != want || msgs[i].State != transcript.Settled {
			t.Fatalf("message %d = %+v", i, msgs[i])
		}
	}
}

func TestPrintJoinsValues(t *testing.T) {
	if got := Sprint("score", 3, true); got != "score 3 true" {
		t.Fatalf("Sprint = %q", got)
	}
}

func TestSetSpeakerInvalidSide(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	if err := h.c.SetSpeaker(ctx, transcript.Name("Bob"), transcript.OnSide(transcript.Side(42))); !errors.Is(err, transcript.ErrInvalidSide) {
		t.Fatalf("want ErrInvalidSide, got %v", err)
	}
	if err := h.c.SetSpeaker(ctx, transcript.OnSide(transcript.Left)); err != nil {
		t.Fatal(err)
	}
	if err := h.c.SetSpeaker(ctx, transcript.Name("Bob")); err != nil {
		t.Fatal(err)
	}
	if err := h.c.Print(ctx, "hi"); err != nil {
		t.Fatal(err)
	}
	var m transcript.Message
	h.onUI(t, func() { m, _ = h.d.Chat.At(0) })
	if m.Full != "Bob:\nhi" || m.Side != transcript.Left {
		t.Fatalf("message %+v", m)
	}
}

func TestShutdownCancelsBlockedInput(t *testing.T) {
	h := newHarness(t, 0)
	res := make(chan error, 1)
	go func() {
		_, err := h.c.Input(context.Background(), "waiting forever")
		res <- err
	}()
	deadline := time.Now().Add(5 * time.Second)
	for active := false; !active; {
		if time.Now().After(deadline) {
			t.Fatal("input never became active")
		}
		h.onUI(t, func() { active = h.d.InputActive() })
	}
	h.s.Quit()
	select {
	case err := <-res:
		if !errors.Is(err, bridge.ErrCancelled) {
			t.Fatalf("want ErrCancelled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("input not released by shutdown")
	}
	if err := h.c.ShowFace("sutd"); !errors.Is(err, bridge.ErrCancelled) {
		t.Fatalf("post after shutdown: %v", err)
	}
}

func TestShutdownCancelsAnimation(t *testing.T) {
	h := newHarness(t, time.Hour)
	res := make(chan error, 1)
	go func() { res <- h.c.Print(context.Background(), "never finishes") }()
	deadline := time.Now().Add(5 * time.Second)
	for n := 0; n == 0; {
		if time.Now().After(deadline) {
			t.Fatal("print never reached the transcript")
		}
		h.onUI(t, func() { n = h.d.Chat.Len() })
	}
	h.s.Quit()
	if err := <-res; !errors.Is(err, bridge.ErrCancelled) {
		t.Fatalf("want ErrCancelled, got %v", err)
	}
	<-h.s.Done()
	// the scheduler is gone; reading the desktop here is race free
	m, _ := h.d.Chat.At(0)
	if m.Visible != m.Full || m.State != transcript.Settled {
		t.Fatalf("cancelled animation left %+v", m)
	}
}

func TestRunStoryRecoversPanic(t *testing.T) {
	h := newHarness(t, 0)
	err := RunStory(context.Background(), h.c, func(context.Context, *Controller) error {
		panic("boom")
	})
	var sp *StoryPanic
	if !errors.As(err, &sp) || sp.Value != "boom" {
		t.Fatalf("want StoryPanic, got %v", err)
	}
	want := errors.New("plain")
	if err := RunStory(context.Background(), h.c, func(context.Context, *Controller) error { return want }); err != want {
		t.Fatalf("error not passed through: %v", err)
	}
}

func TestYesNo(t *testing.T) {
	for in, want := range map[string][2]bool{
		"y": {true, true}, " YES ": {true, true}, "No": {false, true}, "nah": {false, true}, "?": {false, false},
	} {
		yes, ok := YesNo(in)
		if yes != want[0] || ok != want[1] {
			t.Fatalf("YesNo(%q) = %v,%v", in, yes, ok)
		}
	}
}
