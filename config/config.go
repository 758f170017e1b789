// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: YAML configuration file for texeldesk and its resolution into texel.Options.
// Notes: Loading never fails on bad values; offending keys fall back to their
// defaults and are logged.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

// Config mirrors the configuration file.
type Config struct {
	Theme     Theme     `yaml:"theme"`
	Border    string    `yaml:"border"`
	Window    Window    `yaml:"window"`
	Input     Input     `yaml:"input"`
	Scheduler Scheduler `yaml:"scheduler"`
	Tasks     Tasks     `yaml:"tasks"`
	Flash     Flash     `yaml:"flash"`
}

// Theme holds colors as tcell color names or #rrggbb values.
type Theme struct {
	DesktopBg      string `yaml:"desktop_bg"`
	WindowBg       string `yaml:"window_bg"`
	WindowFg       string `yaml:"window_fg"`
	BorderActive   string `yaml:"border_active"`
	BorderInactive string `yaml:"border_inactive"`
	TitleFg        string `yaml:"title_fg"`
	FlashBg        string `yaml:"flash_bg"`
	Scrollbar      string `yaml:"scrollbar"`
}

type Window struct {
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
}

type Input struct {
	DragThreshold int `yaml:"drag_threshold"`
}

type Scheduler struct {
	MinIdle time.Duration `yaml:"min_idle"`
	MaxIdle time.Duration `yaml:"max_idle"`
	MaxFPS  float64       `yaml:"max_fps"`
}

type Tasks struct {
	CloseGrace time.Duration `yaml:"close_grace"`
}

type Flash struct {
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	def := texel.DefaultOptions()
	return Config{
		Theme: Theme{
			DesktopBg:      "#11111b",
			WindowBg:       "#1e1e2e",
			WindowFg:       "#cdd6f4",
			BorderActive:   "#89b4fa",
			BorderInactive: "#585b70",
			TitleFg:        "#f5e0dc",
			FlashBg:        "#f38ba8",
			Scrollbar:      "#a6adc8",
		},
		Border:    "single",
		Window:    Window{MinWidth: def.MinWidth, MinHeight: def.MinHeight},
		Input:     Input{DragThreshold: def.DragThreshold},
		Scheduler: Scheduler{MinIdle: def.MinIdle, MaxIdle: def.MaxIdle, MaxFPS: def.MaxFPS},
		Tasks:     Tasks{CloseGrace: def.CloseGrace},
		Flash:     Flash{Count: def.FlashCount, Interval: def.FlashInterval},
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
// The returned config is always usable, even alongside a non-nil error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.decode(data); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// decode overlays data on the receiver. Keys with the wrong type keep their
// current value.
func (c *Config) decode(data []byte) error {
	err := yaml.Unmarshal(data, c)
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		for _, msg := range typeErr.Errors {
			log.Printf("Config: Ignoring invalid value: %s", msg)
		}
		err = nil
	}
	if err != nil {
		return err
	}
	c.validate()
	return nil
}

func (c *Config) validate() {
	def := Default()
	colors := []struct {
		key       string
		val, dflt *string
	}{
		{"theme.desktop_bg", &c.Theme.DesktopBg, &def.Theme.DesktopBg},
		{"theme.window_bg", &c.Theme.WindowBg, &def.Theme.WindowBg},
		{"theme.window_fg", &c.Theme.WindowFg, &def.Theme.WindowFg},
		{"theme.border_active", &c.Theme.BorderActive, &def.Theme.BorderActive},
		{"theme.border_inactive", &c.Theme.BorderInactive, &def.Theme.BorderInactive},
		{"theme.title_fg", &c.Theme.TitleFg, &def.Theme.TitleFg},
		{"theme.flash_bg", &c.Theme.FlashBg, &def.Theme.FlashBg},
		{"theme.scrollbar", &c.Theme.Scrollbar, &def.Theme.Scrollbar},
	}
	for _, col := range colors {
		if _, ok := parseColor(*col.val); !ok {
			log.Printf("Config: Unknown color %q for %s, using %s", *col.val, col.key, *col.dflt)
			*col.val = *col.dflt
		}
	}

	if _, ok := texel.ParseBorderStyle(c.Border); !ok {
		log.Printf("Config: Unknown border style %q, using %s", c.Border, def.Border)
		c.Border = def.Border
	}

	ints := []struct {
		key      string
		val      *int
		min, def int
	}{
		{"window.min_width", &c.Window.MinWidth, 3, def.Window.MinWidth},
		{"window.min_height", &c.Window.MinHeight, 3, def.Window.MinHeight},
		{"input.drag_threshold", &c.Input.DragThreshold, 0, def.Input.DragThreshold},
		{"flash.count", &c.Flash.Count, 1, def.Flash.Count},
	}
	for _, v := range ints {
		if *v.val < v.min {
			log.Printf("Config: %s=%d below minimum %d, using %d", v.key, *v.val, v.min, v.def)
			*v.val = v.def
		}
	}

	durations := []struct {
		key string
		val *time.Duration
		def time.Duration
	}{
		{"scheduler.min_idle", &c.Scheduler.MinIdle, def.Scheduler.MinIdle},
		{"scheduler.max_idle", &c.Scheduler.MaxIdle, def.Scheduler.MaxIdle},
		{"tasks.close_grace", &c.Tasks.CloseGrace, def.Tasks.CloseGrace},
		{"flash.interval", &c.Flash.Interval, def.Flash.Interval},
	}
	for _, v := range durations {
		if *v.val <= 0 {
			log.Printf("Config: %s=%v must be positive, using %v", v.key, *v.val, v.def)
			*v.val = v.def
		}
	}
	if c.Scheduler.MaxIdle < c.Scheduler.MinIdle {
		log.Printf("Config: scheduler.max_idle=%v below min_idle=%v, using min_idle", c.Scheduler.MaxIdle, c.Scheduler.MinIdle)
		c.Scheduler.MaxIdle = c.Scheduler.MinIdle
	}
	if c.Scheduler.MaxFPS < 0 {
		log.Printf("Config: scheduler.max_fps=%v is negative, painting unthrottled", c.Scheduler.MaxFPS)
		c.Scheduler.MaxFPS = 0
	}
}

// parseColor accepts tcell color names and #rrggbb. Empty means terminal default.
func parseColor(name string) (tcell.Color, bool) {
	if name == "" || name == "default" {
		return tcell.ColorDefault, true
	}
	c := tcell.GetColor(name)
	return c, c != tcell.ColorDefault
}

func color(name string) tcell.Color {
	c, _ := parseColor(name)
	return c
}

// Options resolves the configuration into desktop options.
func (c Config) Options() texel.Options {
	opts := texel.DefaultOptions()
	t := c.Theme

	base := tcell.StyleDefault.Background(color(t.WindowBg)).Foreground(color(t.WindowFg))
	opts.DesktopStyle = opts.DesktopStyle.Background(color(t.DesktopBg))
	opts.WindowStyle = base
	opts.ActiveBorderStyle = base.Foreground(color(t.BorderActive))
	opts.InactiveBorderStyle = base.Foreground(color(t.BorderInactive))
	opts.TitleStyle = base.Foreground(color(t.TitleFg))
	opts.FlashStyle = base.Background(color(t.FlashBg))
	opts.ScrollbarStyle = base.Foreground(color(t.Scrollbar))
	opts.ErrorStyle = base.Foreground(color(t.FlashBg))
	opts.Border, _ = texel.ParseBorderStyle(c.Border)

	opts.MinWidth = c.Window.MinWidth
	opts.MinHeight = c.Window.MinHeight
	opts.DragThreshold = c.Input.DragThreshold
	opts.MinIdle = c.Scheduler.MinIdle
	opts.MaxIdle = c.Scheduler.MaxIdle
	opts.MaxFPS = c.Scheduler.MaxFPS
	opts.CloseGrace = c.Tasks.CloseGrace
	opts.FlashCount = c.Flash.Count
	opts.FlashInterval = c.Flash.Interval
	return opts
}

// Write stores the configuration at path, creating parent directories.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
