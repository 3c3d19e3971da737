/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sutdvn/internal/app"
	"sutdvn/internal/config"
	"sutdvn/internal/crash"
	applog "sutdvn/internal/log"
	"sutdvn/internal/scenarios"
	"sutdvn/internal/ui"
)

var (
	runHeadless bool
	runExport   string
	runSkip     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play the story",
	Long: `Play the bundled story.

The desktop window needs a binary built with -tags fyne. With --headless the
chat is played on the terminal instead:
  :skip        toggle skipping of text animation
  :save <pdf>  save the chat log
  :shot <png>  save a screenshot of the desktop
  :quit        quit`,
	RunE: runRun,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&runHeadless, "headless", false, "play on the terminal instead of the desktop window")
		c.Flags().StringVar(&runExport, "export", "", "write the chat log as PDF to this path on exit")
		c.Flags().BoolVar(&runSkip, "skip", false, "start with text animation skipped")
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if runExport != "" {
		cfg.General.ExportOnExit = runExport
	}
	if runSkip {
		cfg.Timing.SkipAnimation = true
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	var surface app.Surface
	if runHeadless {
		surface = ui.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
	} else if surface, err = ui.NewDesktop(cfg); err != nil {
		return err
	}

	a := app.New(app.Options{Config: cfg, Story: scenarios.Story, ScreenHeight: cfg.Display.Height})
	defer crash.Recover(func() []string { return a.Record().Tail(crash.TailLines) })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	l.Info("start", slog.Bool("headless", runHeadless), slog.String("assets", cfg.General.AssetsDir))
	if err := a.Run(ctx, surface); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	l.Info("bye", slog.Int("lines", a.Record().Len()))
	return nil
}
