/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Timing.TickInterval() != LoopWait {
		t.Fatalf("tick = %v, want %v", cfg.Timing.TickInterval(), LoopWait)
	}
	if cfg.General.Title != "SUTD VN" {
		t.Fatalf("title = %q", cfg.General.Title)
	}
}

func TestLoad_FileMerged(t *testing.T) {
	p := writeConfig(t, `
general:
  title: Windoes
  fullscreen: false
display:
  em: 12
timing:
  char_delay_ms: 5
  skip_animation: true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.Title != "Windoes" || cfg.General.Fullscreen {
		t.Fatalf("general not merged: %+v", cfg.General)
	}
	if cfg.Display.EM != 12 || cfg.Display.Width != 1600 {
		t.Fatalf("display not merged: %+v", cfg.Display)
	}
	if cfg.Timing.CharDelay() != 5*time.Millisecond || !cfg.Timing.SkipAnimation {
		t.Fatalf("timing not merged: %+v", cfg.Timing)
	}
	if cfg.Timing.TickMs != 15 {
		t.Fatalf("tick_ms should keep default, got %d", cfg.Timing.TickMs)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	p := writeConfig(t, `
display:
  em: -3
timing:
  tick: 10
`)
	_, err := Load(p)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnvOverridesTiming(t *testing.T) {
	t.Setenv(EnvTickMs, "20")
	t.Setenv(EnvSkipAnimation, "yes")
	t.Setenv(EnvEM, "9")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Timing.TickInterval() != 20*time.Millisecond || !cfg.Timing.SkipAnimation || cfg.Display.EM != 9 {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Timing, cfg.Display)
	}
	if env, ok := EnvOverrideFor("timing.tick_ms"); !ok || env != EnvTickMs {
		t.Fatalf("EnvOverrideFor tick_ms = %q %v", env, ok)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/svn.log")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/svn.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveRoundTripsThroughValidation(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Defaults()
	cfg.Display.EM = 10
	if err := Save(cfg, p); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load() after Save error: %v", err)
	}
	if got.Display.EM != 10 {
		t.Fatalf("em = %d, want 10", got.Display.EM)
	}
}

func TestScaleForScreen(t *testing.T) {
	cases := []struct {
		h    int
		want float32
	}{
		{2160, 20}, {1600, 10}, {1440, 10}, {1080, 8}, {720, 8},
	}
	for _, c := range cases {
		if got := ScaleForScreen(c.h).EM; got != c.want {
			t.Fatalf("ScaleForScreen(%d) = %v, want %v", c.h, got, c.want)
		}
	}
	if got := (DisplayConfig{EM: 11}).Resolve(2160); got.EM != 11 {
		t.Fatalf("explicit em ignored: %v", got)
	}
	if got := (Scale{EM: 8}).U(4); got != 32 {
		t.Fatalf("U(4) = %v", got)
	}
}
