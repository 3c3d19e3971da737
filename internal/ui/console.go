/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"sutdvn/internal/app"
	"sutdvn/internal/desktop"
	applog "sutdvn/internal/log"
	"sutdvn/internal/textlayout"
	"sutdvn/internal/transcript"
)

// consoleCols is the width of a chat bubble in characters.
const consoleCols = 36

// Console is a terminal surface: settled messages are printed as they
// appear and every input line is either a command or the answer to the
// current prompt.
//
// Commands:
//
//	:skip          toggle animation skipping
//	:save <file>   write the chat log as PDF
//	:shot <file>   write a PNG screenshot of the desktop
//	:quit          leave
type Console struct {
	in  io.Reader
	out io.Writer
	log *slog.Logger

	mu       sync.Mutex
	layout   *textlayout.WordWrapLayouter
	prompted bool
}

// NewConsole returns a console surface reading in and writing out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:     in,
		out:    out,
		log:    applog.WithComponent("console"),
		layout: textlayout.NewWordWrap(textlayout.BasicProvider{}),
	}
}

var _ app.Surface = (*Console)(nil)

// Run reads lines until :quit, end of input or ctx ends.
func (c *Console) Run(ctx context.Context, h app.Host) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			c.log.Error("read input", slog.Any("err", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				c.log.Info("input closed")
				return nil
			}
			if quit := c.handle(ctx, h, line); quit {
				return nil
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, h app.Host, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit":
		h.Quit()
		return true
	case ":skip":
		c.post(h, func(d *desktop.Desktop) { d.ToggleSkip() })
	case ":save":
		if arg == "" {
			c.printf("usage: :save <file.pdf>\n")
			return false
		}
		if err := h.SaveTranscript(arg); err != nil {
			c.printf("save failed: %v\n", err)
			return false
		}
		c.printf("saved %s\n", arg)
	case ":shot":
		if arg == "" {
			c.printf("usage: :shot <file.png>\n")
			return false
		}
		if err := h.Screenshot(ctx, arg); err != nil {
			c.printf("screenshot failed: %v\n", err)
			return false
		}
		c.printf("saved %s\n", arg)
	default:
		c.post(h, func(d *desktop.Desktop) { d.Submit(line) })
	}
	return false
}

func (c *Console) post(h app.Host, fn func(d *desktop.Desktop)) {
	if err := h.Post(fn); err != nil {
		c.log.Debug("event dropped", slog.Any("err", err))
	}
}

func (c *Console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, a...)
}

// Present prints newly settled messages and a prompt marker when the entry
// becomes enabled.
func (c *Console) Present(f desktop.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range f.NewLines {
		c.writeBubble(m)
	}
	if f.Chat.InputEnabled && !c.prompted {
		_, _ = io.WriteString(c.out, "> ")
	}
	c.prompted = f.Chat.InputEnabled
}

func (c *Console) writeBubble(m transcript.Message) {
	charW, _ := textlayout.Measure(textlayout.BasicProvider{}, "m")
	box := c.layout.Layout(m.Full, consoleCols*charW)
	indent := ""
	switch m.Side {
	case transcript.Right:
		indent = strings.Repeat(" ", 2*(transcript.Columns-transcript.BubbleColumns))
	case transcript.Center:
		indent = strings.Repeat(" ", transcript.Columns-transcript.BubbleColumns)
	}
	for _, ln := range box.Lines {
		_, _ = fmt.Fprintf(c.out, "%s%s\n", indent, ln.Text)
	}
	_, _ = io.WriteString(c.out, "\n")
}
