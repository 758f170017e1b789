// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/demo.go
// Summary: Windows shown by the run command.
// Notes: Control callbacks run under their window's content lock, so anything
// touching the registry is deferred with Desktop.Post.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framegrace/texeldesk/controls"
	"github.com/framegrace/texeldesk/geom"
	"github.com/framegrace/texeldesk/texel"
)

type demoOptions struct {
	Sources     []string
	Exec        string
	SourceStyle string
}

const helpText = `Drag a title bar to move a window, the corner grip to resize it.
Tab moves focus inside a window, Ctrl+A cycles windows.
The title buttons minimize, maximize and close. Ctrl+Q quits.`

// place fits a w x h rectangle at (x, y) inside the desktop.
func place(desk geom.Rect, x, y, w, h int) geom.Rect {
	w = min(w, desk.W)
	h = min(h, desk.H)
	x = max(desk.X, min(x, desk.Right()-w))
	y = max(desk.Y, min(y, desk.Bottom()-h))
	return geom.NewRect(x, y, w, h)
}

func populate(desk *texel.Desktop, o demoOptions) error {
	b := desk.Bounds()

	notes := notesWindow(place(b, b.W/2, 2, 44, 12))
	desk.AddWindow(notes, false)

	clock, label := clockWindow(place(b, b.Right()-24, b.Bottom()-5, 22, 5))
	desk.AddWindow(clock, false)
	if err := desk.StartTask(clock, clockTask(label)); err != nil {
		return err
	}

	for i, path := range o.Sources {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		view := controls.NewSourceView(filepath.Base(path), content, o.SourceStyle)
		title := filepath.Base(path)
		if view.Language != "" {
			title = fmt.Sprintf("%s (%s)", title, view.Language)
		}
		w := texel.NewWindow(title, place(b, 4+2*i, 3+i, 72, b.H-6), texel.WithName("source:"+path))
		w.AddControl(view)
		desk.AddWindow(w, false)
	}

	if o.Exec != "" {
		w, task := commandWindow(o.Exec, place(b, 6, b.H/2, 70, b.H/2-1))
		desk.AddWindow(w, false)
		if err := desk.StartTask(w, task); err != nil {
			return err
		}
	}

	desk.AddWindow(welcomeWindow(desk, place(b, 2, 1, 62, 10)), true)
	return nil
}

func welcomeWindow(desk *texel.Desktop, bounds geom.Rect) *texel.Window {
	w := texel.NewWindow("Welcome", bounds, texel.WithName("welcome"))
	title := controls.NewLabel("texeldesk")
	title.Align = controls.AlignCenter
	w.AddControl(title)
	w.AddControl(controls.NewLabel(""))
	w.AddControl(controls.NewLabel(helpText))
	w.AddControl(controls.NewLabel(""))
	w.AddControl(controls.NewButton("About", func() {
		desk.Post(func() { openAbout(desk, w) })
	}))
	w.AddControl(controls.NewButton("Quit", func() {
		desk.Shutdown(0)
	}))
	return w
}

func openAbout(desk *texel.Desktop, parent *texel.Window) {
	b := desk.Bounds()
	bounds := place(b, b.X+(b.W-40)/2, b.Y+(b.H-8)/2, 40, 8)
	about := texel.NewWindow("About", bounds, texel.WithModal(parent))
	msg := controls.NewLabel("A terminal windowing compositor.\nEscape or the button closes this box.")
	msg.Align = controls.AlignCenter
	about.AddControl(msg)
	about.AddControl(controls.NewLabel(""))
	about.AddControl(controls.NewButton("Close", func() {
		desk.Post(func() { desk.CloseWindow(about) })
	}))
	desk.AddWindow(about, true)
}

func notesWindow(bounds geom.Rect) *texel.Window {
	w := texel.NewWindow("Notes", bounds, texel.WithName("notes"))
	entries := controls.NewLogView(500)
	entries.Wrap = true
	input := controls.NewTextInput("> ")
	input.Placeholder = "type a note, Enter to add"
	input.OnSubmit = func(text string) {
		if text == "" {
			return
		}
		entries.AppendLine(time.Now().Format("15:04 ") + text)
		input.SetText("")
	}
	w.AddControl(entries)
	w.AddControl(input)
	return w
}

func clockWindow(bounds geom.Rect) (*texel.Window, *controls.Label) {
	w := texel.NewWindow("Clock", bounds, texel.WithName("clock"))
	label := controls.NewLabel("--:--:--")
	label.Align = controls.AlignCenter
	w.AddControl(label)
	return w, label
}

func clockTask(label *controls.Label) texel.Task {
	return func(ctx context.Context, w *texel.Window) error {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			now := time.Now().Format("15:04:05")
			w.Mutate(func() { label.SetText(now) })
			select {
			case <-ctx.Done():
				return nil
			case <-tick.C:
			}
		}
	}
}

func commandWindow(script string, bounds geom.Rect) (*texel.Window, texel.Task) {
	w := texel.NewWindow(script, bounds, texel.WithName("exec"))
	out := controls.NewLogView(controls.DefaultLogLines)
	status := controls.NewStatusLine(script)
	status.Set(script, "running")
	w.AddControl(out)
	w.AddControl(status)

	cmd := controls.Command{
		Name: "sh",
		Args: []string{"-c", script},
		Cols: max(bounds.W-2, 1),
		Rows: max(bounds.H-3, 1),
	}
	run := cmd.Task(out)
	task := func(ctx context.Context, w *texel.Window) error {
		start := time.Now()
		err := run(ctx, w)
		result := fmt.Sprintf("done in %s", time.Since(start).Round(time.Millisecond))
		if err != nil {
			result = "failed"
		}
		w.Mutate(func() { status.Set(script, result) })
		return err
	}
	return w, task
}
