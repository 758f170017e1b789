package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
theme:
  window_bg: navy
border: rounded
window:
  min_width: 20
scheduler:
  max_idle: 50ms
  max_fps: 30
flash:
  interval: 120ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Theme.WindowBg != "navy" || cfg.Theme.WindowFg != def.Theme.WindowFg {
		t.Fatalf("unexpected theme %+v", cfg.Theme)
	}
	if cfg.Border != "rounded" || cfg.Window.MinWidth != 20 || cfg.Window.MinHeight != def.Window.MinHeight {
		t.Fatalf("unexpected window settings %+v / %q", cfg.Window, cfg.Border)
	}
	if cfg.Scheduler.MaxIdle != 50*time.Millisecond || cfg.Scheduler.MinIdle != def.Scheduler.MinIdle {
		t.Fatalf("unexpected scheduler %+v", cfg.Scheduler)
	}
	if cfg.Flash.Interval != 120*time.Millisecond || cfg.Flash.Count != def.Flash.Count {
		t.Fatalf("unexpected flash %+v", cfg.Flash)
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	path := writeFile(t, `
theme:
  title_fg: not-a-color
  flash_bg: "#ff0000"
border: zigzag
window:
  min_width: 1
  min_height: tall
input:
  drag_threshold: -4
scheduler:
  min_idle: soon
  max_fps: -1
tasks:
  close_grace: -2s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("bad values must not fail the load: %v", err)
	}
	def := Default()
	cases := []struct {
		name      string
		got, want any
	}{
		{"title_fg", cfg.Theme.TitleFg, def.Theme.TitleFg},
		{"flash_bg", cfg.Theme.FlashBg, "#ff0000"},
		{"border", cfg.Border, def.Border},
		{"min_width", cfg.Window.MinWidth, def.Window.MinWidth},
		{"min_height", cfg.Window.MinHeight, def.Window.MinHeight},
		{"drag_threshold", cfg.Input.DragThreshold, def.Input.DragThreshold},
		{"min_idle", cfg.Scheduler.MinIdle, def.Scheduler.MinIdle},
		{"max_fps", cfg.Scheduler.MaxFPS, 0.0},
		{"close_grace", cfg.Tasks.CloseGrace, def.Tasks.CloseGrace},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestLoadClampsMaxIdleToMinIdle(t *testing.T) {
	path := writeFile(t, "scheduler:\n  min_idle: 40ms\n  max_idle: 10ms\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.MaxIdle != 40*time.Millisecond {
		t.Fatalf("max_idle should be raised to min_idle, got %v", cfg.Scheduler.MaxIdle)
	}
}

func TestLoadSyntaxErrorReturnsDefaults(t *testing.T) {
	path := writeFile(t, "theme: [unterminated\n")
	cfg, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if cfg != Default() {
		t.Fatal("a broken file must still yield a usable default config")
	}
}

func TestOptionsResolution(t *testing.T) {
	cfg := Default()
	cfg.Theme.WindowBg = "#102030"
	cfg.Theme.BorderActive = "red"
	cfg.Border = "double"
	cfg.Input.DragThreshold = 3
	cfg.Scheduler.MaxFPS = 60

	opts := cfg.Options()
	_, bg, _ := opts.WindowStyle.Decompose()
	if bg != tcell.NewRGBColor(0x10, 0x20, 0x30) {
		t.Fatalf("unexpected window background %v", bg)
	}
	fg, abg, _ := opts.ActiveBorderStyle.Decompose()
	if fg != tcell.ColorRed || abg != bg {
		t.Fatalf("active border should be red on the window background, got %v/%v", fg, abg)
	}
	if opts.Border != texel.BorderDouble || opts.DragThreshold != 3 || opts.MaxFPS != 60 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.QuitKey != tcell.KeyCtrlQ || opts.Now == nil {
		t.Fatal("non-configurable options should keep their defaults")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Border = "ascii"
	cfg.Flash.Count = 5
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "close_grace: 2s") {
		t.Fatalf("durations should be written human readable:\n%s", data)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", loaded, cfg)
	}
}

func TestDefaultPathsFollowEnvironment(t *testing.T) {
	cfgHome := t.TempDir()
	stateHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("XDG_STATE_HOME", stateHome)

	path, err := DefaultPath()
	if err != nil || path != filepath.Join(cfgHome, "texeldesk", "config.yaml") {
		t.Fatalf("unexpected config path %q (%v)", path, err)
	}
	layout, err := DefaultLayoutPath()
	if err != nil || layout != filepath.Join(stateHome, "texeldesk", "layout.db") {
		t.Fatalf("unexpected layout path %q (%v)", layout, err)
	}
	logPath, err := DefaultLogPath()
	if err != nil || filepath.Dir(logPath) != filepath.Join(stateHome, "texeldesk") {
		t.Fatalf("unexpected log path %q (%v)", logPath, err)
	}
}
