/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scenarios holds the bundled demo storyline. Each event is a plain
// function over the controller; Story chains them.
package scenarios

import (
	"context"
	"strings"

	"sutdvn/internal/desktop"
	"sutdvn/internal/engine"
	"sutdvn/internal/transcript"
)

// Flag keys shared between events.
const (
	FlagUsername  = "USERNAME"
	FlagAcceptJob = "ACCEPT_JOB"
	FlagPetCat    = "ACCEPTED_PET_CAT"
	FlagGameOver  = "GAMEOVER"
)

// DefaultUsername is used when the player leaves the name blank.
const DefaultUsername = "Stranger"

// Event is one scene of the storyline.
type Event func(ctx context.Context, c *engine.Controller) error

// Events is the default running order.
var Events = []Event{Intro, Job, Ending}

// Story runs Events in order and stops early once FlagGameOver is set.
func Story(ctx context.Context, c *engine.Controller) error {
	if !c.Flags.Has(FlagUsername) {
		c.Flags[FlagUsername] = DefaultUsername
	}
	for _, ev := range Events {
		if over, _ := c.Flags.Bool(FlagGameOver); over {
			return nil
		}
		if err := ev(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func speaker(ctx context.Context, c *engine.Controller, name string, side transcript.Side) error {
	return c.SetSpeaker(ctx, transcript.Name(name), transcript.OnSide(side))
}

// say sets the speaker and prints each line.
func say(ctx context.Context, c *engine.Controller, name string, side transcript.Side, lines ...string) error {
	if err := speaker(ctx, c, name, side); err != nil {
		return err
	}
	for _, l := range lines {
		if err := c.Print(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func username(c *engine.Controller) string {
	if n, ok := c.Flags.Text(FlagUsername); ok && n != "" {
		return n
	}
	return DefaultUsername
}

// Intro greets the player and asks for a name. A blank reply keeps the
// current name.
func Intro(ctx context.Context, c *engine.Controller) error {
	if err := c.ShowBackground(desktop.DefaultBackground); err != nil {
		return err
	}
	if err := c.ShowFace(desktop.DefaultFace); err != nil {
		return err
	}
	if err := say(ctx, c, "Narrator", transcript.Left, "Welcome to your new desktop. Before we start, who are you?"); err != nil {
		return err
	}
	name, err := c.Input(ctx, "Input your name or leave blank.")
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name != "" {
		c.Flags[FlagUsername] = name
	}
	return say(ctx, c, "Narrator", transcript.Left, engine.Sprint("Hi,", username(c)+"!", "Make the right choices..."))
}

// Job asks until the player answers the offer with yes or no.
func Job(ctx context.Context, c *engine.Controller) error {
	if err := say(ctx, c, "Email Notification", transcript.Center, "Message from Temp Job Agency"); err != nil {
		return err
	}
	if err := say(ctx, c, "Agency", transcript.Left,
		"We would like to offer you a position as night receptionist. Reply Y to accept or N to decline."); err != nil {
		return err
	}
	if err := speaker(ctx, c, "Prompt", transcript.Center); err != nil {
		return err
	}
	for !c.Flags.Has(FlagAcceptJob) {
		if _, err := c.AskFlag(ctx, FlagAcceptJob, "So "+username(c)+", do you accept the job (y/n)?"); err != nil {
			return err
		}
	}
	if ok, _ := c.Flags.Bool(FlagAcceptJob); ok {
		return say(ctx, c, "You", transcript.Right, "Great! See you at the office tomorrow.")
	}
	c.Flags[FlagGameOver] = true
	return say(ctx, c, "You", transcript.Right, "Oh well, maybe next time.")
}

// Ending closes the story. Earlier events and flags set by the caller pick
// the branch.
func Ending(ctx context.Context, c *engine.Controller) error {
	if pet, _ := c.Flags.Bool(FlagPetCat); pet {
		if err := say(ctx, c, "You", transcript.Right, "You also got a cat!"); err != nil {
			return err
		}
	}
	if err := say(ctx, c, "Narrator", transcript.Left,
		"Your first night shift is quiet. Too quiet.",
		"The lobby lights flicker once, twice..."); err != nil {
		return err
	}
	if err := c.ShowJumpscare(ctx); err != nil {
		return err
	}
	return say(ctx, c, "Notification", transcript.Center, "-The End-")
}
