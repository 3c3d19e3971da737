/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scenarios

import (
	"context"
	"strings"
	"testing"
	"time"

	"sutdvn/internal/bridge"
	"sutdvn/internal/desktop"
	"sutdvn/internal/engine"
	"sutdvn/internal/loop"
)

type player struct {
	s *loop.Scheduler
	d *desktop.Desktop
	c *engine.Controller
}

func newPlayer(t *testing.T) *player {
	t.Helper()
	s := loop.New(loop.Options{Interval: time.Millisecond})
	d := desktop.New(desktop.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &player{s: s, d: d, c: engine.New(s, d)}
}

func (p *player) answer(t *testing.T, reply string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ok := false
		if err := bridge.Do(context.Background(), p.s, func(context.Context) { ok = p.d.Submit(reply) }); err != nil {
			t.Fatalf("bridge: %v", err)
		}
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no input pending for %q", reply)
}

func (p *player) transcript(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	err := bridge.Do(context.Background(), p.s, func(context.Context) {
		for _, m := range p.d.Chat.Messages() {
			b.WriteString(m.Full)
			b.WriteByte('\n')
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func TestStoryDeclineEndsEarly(t *testing.T) {
	p := newPlayer(t)
	res := make(chan error, 1)
	go func() { res <- Story(context.Background(), p.c) }()

	p.answer(t, "  ")
	p.answer(t, "maybe")
	p.answer(t, "")
	p.answer(t, "No thanks")

	select {
	case err := <-res:
		if err != nil {
			t.Fatalf("story: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("story did not finish")
	}
	if n, _ := p.c.Flags.Text(FlagUsername); n != DefaultUsername {
		t.Fatalf("username %q", n)
	}
	if v, ok := p.c.Flags.Bool(FlagAcceptJob); !ok || v {
		t.Fatalf("accept flag %v %v", v, ok)
	}
	log := p.transcript(t)
	if got := strings.Count(log, "do you accept the job"); got != 3 {
		t.Fatalf("expected 3 prompts, got %d in\n%s", got, log)
	}
	if !strings.Contains(log, "maybe next time") || strings.Contains(log, "The End") {
		t.Fatalf("wrong branch:\n%s", log)
	}
}

func TestIntroStoresName(t *testing.T) {
	p := newPlayer(t)
	res := make(chan error, 1)
	go func() { res <- Intro(context.Background(), p.c) }()
	p.answer(t, " Ada ")
	if err := <-res; err != nil {
		t.Fatal(err)
	}
	if n, _ := p.c.Flags.Text(FlagUsername); n != "Ada" {
		t.Fatalf("username %q", n)
	}
	if log := p.transcript(t); !strings.Contains(log, "Narrator:\nHi, Ada! Make the right choices...") {
		t.Fatalf("greeting missing:\n%s", log)
	}
}
