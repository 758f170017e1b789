// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/desktop.go
// Summary: Assembles driver, registry, compositor, input and scheduler into a desktop.
// Usage: NewDesktop for a real terminal, NewDesktopWithDriver for tests.

package texel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
)

// Desktop is a terminal full of overlapping windows.
type Desktop struct {
	driver  ScreenDriver
	surface *Surface
	reg     *Registry
	comp    *Compositor
	input   *InputDispatcher
	sched   *Scheduler
	tasks   *TaskLifecycle
	opts    Options

	pumpOnce  sync.Once
	closeOnce sync.Once
}

// NewDesktop initialises the controlling terminal.
func NewDesktop(opts Options) (*Desktop, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewDesktopWithDriver(NewTcellScreenDriver(screen), opts)
}

// NewDesktopWithDriver builds a desktop on an arbitrary driver.
func NewDesktopWithDriver(driver ScreenDriver, opts Options) (*Desktop, error) {
	if err := driver.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	opts = opts.withDefaults()
	driver.SetStyle(opts.DesktopStyle)
	driver.HideCursor()

	surface := NewSurface(driver)
	reg := NewRegistry(surface.Bounds(), opts)
	comp := NewCompositor(reg, surface)
	input := NewInputDispatcher(reg, comp)
	sched := NewScheduler(reg, comp, input, surface, opts)
	reg.SetNotifier(sched.Wake)

	d := &Desktop{
		driver:  driver,
		surface: surface,
		reg:     reg,
		comp:    comp,
		input:   input,
		sched:   sched,
		tasks:   NewTaskLifecycle(context.Background()),
		opts:    opts,
	}
	sched.SetFatalHandler(d.Close)
	return d, nil
}

func (d *Desktop) Registry() *Registry     { return d.reg }
func (d *Desktop) Compositor() *Compositor { return d.comp }
func (d *Desktop) Input() *InputDispatcher { return d.input }
func (d *Desktop) Scheduler() *Scheduler   { return d.sched }
func (d *Desktop) Surface() *Surface       { return d.surface }
func (d *Desktop) Options() Options        { return d.opts }
func (d *Desktop) Tasks() *TaskLifecycle   { return d.tasks }
func (d *Desktop) Bounds() geom.Rect       { return d.reg.Desktop() }
func (d *Desktop) Subscribe(l Listener)    { d.reg.Subscribe(l) }

// SetFrameObserver installs an observer called after every painted frame.
func (d *Desktop) SetFrameObserver(o FrameObserver) {
	d.sched.SetFrameObserver(o)
}

// Post runs fn on the loop goroutine. Anything that touches windows'
// geometry or the registry from another goroutine must go through Post.
func (d *Desktop) Post(fn func()) bool {
	return d.sched.Post(fn)
}

// PostEvent injects an input event as if the terminal produced it.
func (d *Desktop) PostEvent(ev tcell.Event) bool {
	return d.sched.Enqueue(ev)
}

// AddWindow registers w and activates it when activate is set.
func (d *Desktop) AddWindow(w *Window, activate bool) {
	d.reg.Add(w, activate)
}

// StartTask launches task as w's background worker.
func (d *Desktop) StartTask(w *Window, task Task) error {
	return d.tasks.Start(w, task)
}

// CloseWindow closes w and activates its parent.
func (d *Desktop) CloseWindow(w *Window) bool {
	return d.reg.Close(w, true)
}

// MoveWindow moves w so its top-left corner is at (x, y).
func (d *Desktop) MoveWindow(w *Window, x, y int) bool {
	b := w.Bounds()
	return applyBounds(d.reg, d.comp, w, geom.NewRect(x, y, b.W, b.H))
}

// ResizeWindow changes w's size, keeping its top-left corner.
func (d *Desktop) ResizeWindow(w *Window, width, height int) bool {
	b := w.Bounds()
	return applyBounds(d.reg, d.comp, w, geom.NewRect(b.X, b.Y, width, height))
}

// Run pumps terminal events into the scheduler and runs the loop until it
// exits. The terminal is restored before Run returns.
func (d *Desktop) Run(ctx context.Context) int {
	d.pumpOnce.Do(func() {
		go d.pump()
	})
	code := d.sched.Run(ctx)
	d.Close()
	return code
}

func (d *Desktop) pump() {
	for {
		ev := d.driver.PollEvent()
		if ev == nil {
			return
		}
		if !d.sched.Enqueue(ev) {
			return
		}
	}
}

// Err returns the fault that ended Run, or nil after a clean exit.
func (d *Desktop) Err() error {
	return d.sched.Err()
}

// Shutdown asks the loop to exit with code.
func (d *Desktop) Shutdown(code int) {
	d.sched.Shutdown(code)
}

// Close cancels every window task and restores the terminal. It is safe to
// call more than once.
func (d *Desktop) Close() {
	d.closeOnce.Do(func() {
		d.tasks.Shutdown()
		d.driver.Fini()
		log.Printf("Desktop: terminal restored")
	})
}
