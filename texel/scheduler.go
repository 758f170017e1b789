// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/scheduler.go
// Summary: The single cooperative loop tying input, reaping, painting and idling together.
// Usage: Desktop.Run drives a Scheduler; tests can call Step directly.
// Notes: Everything that touches the registry runs on the loop goroutine.
// Other goroutines only enqueue events, post closures or mark windows dirty.

package texel

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/time/rate"
)

const eventQueueSize = 256

// Scheduler runs the main loop.
type Scheduler struct {
	reg     *Registry
	comp    *Compositor
	input   *InputDispatcher
	surface *Surface
	opts    Options

	events   chan tcell.Event
	wake     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
	limiter  *rate.Limiter

	postMu sync.Mutex
	posted []func()

	stopped  atomic.Bool
	exitCode atomic.Int32
	fault    atomic.Pointer[error]

	idle        time.Duration
	fullRepaint bool
	observer    FrameObserver
	onFatal     func()
}

// NewScheduler wires a loop over the given components and subscribes to
// registry events that uncover screen area.
func NewScheduler(reg *Registry, comp *Compositor, input *InputDispatcher, surface *Surface, opts Options) *Scheduler {
	opts = opts.withDefaults()
	s := &Scheduler{
		reg:         reg,
		comp:        comp,
		input:       input,
		surface:     surface,
		opts:        opts,
		events:      make(chan tcell.Event, eventQueueSize),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		idle:        opts.MinIdle,
		fullRepaint: true,
	}
	if opts.MaxFPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.MaxFPS), 1)
	}
	reg.Subscribe(s)
	return s
}

// SetFrameObserver installs an observer called after every painted frame.
func (s *Scheduler) SetFrameObserver(o FrameObserver) {
	s.observer = o
}

// SetFatalHandler installs the hook that restores the terminal when the loop
// panics.
func (s *Scheduler) SetFatalHandler(fn func()) {
	s.onFatal = fn
}

// Wake interrupts the idle sleep. Safe to call from any goroutine.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Enqueue hands an input event to the loop. It blocks while the queue is
// full and returns false once the loop has exited.
func (s *Scheduler) Enqueue(ev tcell.Event) bool {
	select {
	case s.events <- ev:
		s.Wake()
		return true
	case <-s.done:
		return false
	}
}

// Post schedules fn to run on the loop goroutine. It never blocks, so loop
// code may post too. It returns false once the loop has exited.
func (s *Scheduler) Post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	s.postMu.Lock()
	s.posted = append(s.posted, fn)
	s.postMu.Unlock()
	s.Wake()
	return true
}

// runPosted runs the closures posted so far. Closures they post wait for the
// next iteration.
func (s *Scheduler) runPosted() bool {
	s.postMu.Lock()
	fns := s.posted
	s.posted = nil
	s.postMu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
	return len(fns) > 0
}

// Shutdown asks the loop to exit with code after the current iteration.
func (s *Scheduler) Shutdown(code int) {
	s.exitCode.Store(int32(code))
	s.stopped.Store(true)
	s.Wake()
}

// Err returns the fault that ended the loop, or nil after a clean exit.
func (s *Scheduler) Err() error {
	if err := s.fault.Load(); err != nil {
		return *err
	}
	return nil
}

// Running reports whether no shutdown was requested yet.
func (s *Scheduler) Running() bool {
	return !s.stopped.Load()
}

// Run loops until Shutdown or ctx cancellation and returns the exit code. A
// panic inside the loop restores the terminal through the fatal handler and
// yields exit code 1, with the panic kept for Err.
func (s *Scheduler) Run(ctx context.Context) (code int) {
	defer s.doneOnce.Do(func() { close(s.done) })
	defer func() {
		if r := recover(); r != nil {
			if s.onFatal != nil {
				s.onFatal()
			}
			log.Printf("Scheduler: fatal error: %v\n%s", r, debug.Stack())
			err := fmt.Errorf("desktop loop panicked: %v", r)
			s.fault.Store(&err)
			code = 1
		}
	}()
	for !s.stopped.Load() {
		worked := s.Step()
		if s.stopped.Load() {
			break
		}
		if !s.sleep(ctx, worked) {
			break
		}
	}
	return int(s.exitCode.Load())
}

// Step runs one loop iteration: drain input, reap closing windows, advance
// flashes, paint if needed, place the cursor and flush. It reports whether
// anything happened.
func (s *Scheduler) Step() bool {
	worked := false
	for drained := false; !drained; {
		select {
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				drained = true
				continue
			}
			s.handle(ev)
			worked = true
		default:
			drained = true
		}
	}
	if s.runPosted() {
		worked = true
	}

	now := s.opts.Now()
	if s.reg.Reap(now) > 0 {
		worked = true
	}
	for _, w := range s.reg.Windows() {
		if w.tickFlash(now) {
			worked = true
		}
	}

	painted := false
	var stats FrameStats
	switch {
	case s.fullRepaint:
		start := time.Now()
		s.comp.RepaintAll()
		s.fullRepaint = false
		stats = FrameStats{Dirty: s.reg.Len(), Windows: s.reg.Len(), Duration: time.Since(start)}
		painted = true
	case s.anyDirty() && (s.limiter == nil || s.limiter.Allow()):
		stats = s.comp.Compose()
		painted = true
	}

	if painted || worked {
		s.updateCursor()
		stats.Cells = s.surface.Flush()
	}
	if painted && s.observer != nil {
		s.observer.ObserveFrame(stats)
	}
	return worked || painted
}

func (s *Scheduler) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case s.opts.QuitKey:
			log.Printf("Scheduler: quit requested")
			s.Shutdown(0)
			return
		case s.opts.CycleKey:
			s.reg.CycleActive()
			return
		}
	case *tcell.EventResize:
		s.resize()
		return
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok && fn != nil {
			fn()
		}
		return
	}
	s.input.HandleEvent(ev)
}

func (s *Scheduler) resize() {
	d := s.surface.Resize()
	s.input.Reset()
	s.reg.FitToDesktop(d)
	s.surface.Clear()
	s.fullRepaint = true
	log.Printf("Scheduler: screen resized to %dx%d", d.W, d.H)
}

func (s *Scheduler) anyDirty() bool {
	for _, w := range s.reg.windows {
		if w.IsDirty() {
			return true
		}
	}
	return false
}

func (s *Scheduler) flashing() bool {
	for _, w := range s.reg.windows {
		if w.Flashing() {
			return true
		}
	}
	return false
}

// updateCursor shows the cursor where the focused control of the active
// window wants it, provided that cell is actually visible.
func (s *Scheduler) updateCursor() {
	w := s.reg.Active()
	if w == nil || w.state == StateMinimized {
		s.surface.HideCursor()
		return
	}
	x, y, ok := w.cursorCell()
	if !ok {
		s.surface.HideCursor()
		return
	}
	cr := w.contentRect()
	sx, sy := cr.X+x, cr.Y+y
	if !cr.Contains(sx, sy) || !geom.AnyContains(s.comp.VisibleRegions(w), sx, sy) {
		s.surface.HideCursor()
		return
	}
	s.surface.ShowCursor(sx, sy)
}

// sleep waits for the adaptive idle interval, a wake-up or cancellation. The
// interval halves while there is work and doubles while idle.
func (s *Scheduler) sleep(ctx context.Context, worked bool) bool {
	if worked || s.anyDirty() || s.flashing() || len(s.reg.pending) > 0 {
		s.idle = max(s.idle/2, s.opts.MinIdle)
	} else {
		s.idle = min(s.idle*2, s.opts.MaxIdle)
	}
	if s.limiter != nil && s.anyDirty() {
		if tokens := s.limiter.Tokens(); tokens < 1 {
			wait := time.Duration((1 - tokens) / float64(s.limiter.Limit()) * float64(time.Second))
			s.idle = min(max(wait, s.idle), s.opts.MaxIdle)
		}
	}
	timer := time.NewTimer(s.idle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.wake:
	case <-timer.C:
	}
	return true
}

// IdleInterval returns the current sleep interval.
func (s *Scheduler) IdleInterval() time.Duration {
	return s.idle
}

// OnEvent repaints screen area uncovered by closes and state changes.
func (s *Scheduler) OnEvent(ev Event) {
	switch ev.Type {
	case EventWindowClosed:
		if p, ok := ev.Payload.(GeometryPayload); ok {
			s.comp.RepaintArea(p.Old)
		}
	case EventWindowStateChanged:
		p, ok := ev.Payload.(StatePayload)
		if !ok {
			return
		}
		switch {
		case p.New == StateMinimized:
			s.comp.RepaintArea(p.Bounds)
		case p.Old == StateMaximized:
			s.comp.RepaintExposed(ev.Window, p.Bounds)
		}
	}
}
