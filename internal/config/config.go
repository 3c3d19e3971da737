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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Title        string `yaml:"title" json:"title"`
	Fullscreen   bool   `yaml:"fullscreen" json:"fullscreen"`
	AssetsDir    string `yaml:"assets_dir" json:"assets_dir"`
	ExportOnExit string `yaml:"export_on_exit" json:"export_on_exit"` // PDF path; empty disables
}

type DisplayConfig struct {
	EM     int `yaml:"em" json:"em"` // 0 derives the unit from the screen height
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

type TimingConfig struct {
	TickMs        int  `yaml:"tick_ms" json:"tick_ms"`
	CharDelayMs   int  `yaml:"char_delay_ms" json:"char_delay_ms"`
	SkipAnimation bool `yaml:"skip_animation" json:"skip_animation"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Source bool   `yaml:"source" json:"source"`
	File   string `yaml:"file" json:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version" json:"config_version"`
	General       GeneralConfig `yaml:"general" json:"general"`
	Display       DisplayConfig `yaml:"display" json:"display"`
	Timing        TimingConfig  `yaml:"timing" json:"timing"`
	Logging       LoggingConfig `yaml:"logging" json:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Title: "SUTD VN", Fullscreen: true, AssetsDir: "assets"},
		Display:       DisplayConfig{EM: 0, Width: 1600, Height: 900},
		Timing:        TimingConfig{TickMs: int(LoopWait / time.Millisecond), CharDelayMs: int(DefaultCharDelay / time.Millisecond)},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvAssetsDir     = "SVN_ASSETS_DIR"
	EnvFullscreen    = "SVN_FULLSCREEN"
	EnvEM            = "SVN_EM"
	EnvTickMs        = "SVN_TICK_MS"
	EnvCharDelayMs   = "SVN_CHAR_DELAY_MS"
	EnvSkipAnimation = "SVN_SKIP_ANIMATION"
	EnvExportOnExit  = "SVN_EXPORT_ON_EXIT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SVN_LOG_LEVEL"
	EnvLogFormat = "SVN_LOG_FORMAT"
	EnvLogSource = "SVN_LOG_SOURCE"
	EnvLogFile   = "SVN_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "SutdVN")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "SutdVN")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "sutdvn")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "sutdvn")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file at path (the per-user path when empty), applies
// defaults, validates the file against the embedded schema and merges
// environment overrides. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := Validate(data); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the config as YAML to path (the per-user path when empty).
func Save(cfg AppConfig, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.Title) != "" {
		dst.General.Title = strings.TrimSpace(src.General.Title)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.Fullscreen = src.General.Fullscreen
	if strings.TrimSpace(src.General.AssetsDir) != "" {
		dst.General.AssetsDir = strings.TrimSpace(src.General.AssetsDir)
	}
	if strings.TrimSpace(src.General.ExportOnExit) != "" {
		dst.General.ExportOnExit = strings.TrimSpace(src.General.ExportOnExit)
	}
	if src.Display.EM != 0 {
		dst.Display.EM = src.Display.EM
	}
	if src.Display.Width != 0 {
		dst.Display.Width = src.Display.Width
	}
	if src.Display.Height != 0 {
		dst.Display.Height = src.Display.Height
	}
	if src.Timing.TickMs != 0 {
		dst.Timing.TickMs = src.Timing.TickMs
	}
	if src.Timing.CharDelayMs != 0 {
		dst.Timing.CharDelayMs = src.Timing.CharDelayMs
	}
	dst.Timing.SkipAnimation = src.Timing.SkipAnimation
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAssetsDir)); v != "" {
		cfg.General.AssetsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFullscreen)); v != "" {
		cfg.General.Fullscreen = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportOnExit)); v != "" {
		cfg.General.ExportOnExit = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEM)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Display.EM = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTickMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timing.TickMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCharDelayMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Timing.CharDelayMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSkipAnimation)); v != "" {
		cfg.Timing.SkipAnimation = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.assets_dir":     EnvAssetsDir,
		"general.fullscreen":     EnvFullscreen,
		"general.export_on_exit": EnvExportOnExit,
		"display.em":             EnvEM,
		"timing.tick_ms":         EnvTickMs,
		"timing.char_delay_ms":   EnvCharDelayMs,
		"timing.skip_animation":  EnvSkipAnimation,
		"logging.level":          EnvLogLevel,
		"logging.format":         EnvLogFormat,
		"logging.source":         EnvLogSource,
		"logging.file":           EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// TickInterval returns the scheduler tick as a duration, falling back to LoopWait.
func (t TimingConfig) TickInterval() time.Duration {
	if t.TickMs <= 0 {
		return LoopWait
	}
	return time.Duration(t.TickMs) * time.Millisecond
}

// CharDelay returns the per-character typewriter delay.
func (t TimingConfig) CharDelay() time.Duration {
	if t.CharDelayMs < 0 {
		return DefaultCharDelay
	}
	return time.Duration(t.CharDelayMs) * time.Millisecond
}
