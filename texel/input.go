// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/input.go
// Summary: Routes key and mouse events to windows; runs the move/resize state machine.
// Usage: The scheduler feeds every polled tcell event through HandleEvent.
// Notes: Button state is edge-detected against the previous mouse event, so
// press, drag and release are derived from a stream of plain mouse reports.

package texel

import (
	"log"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
)

// wheelStep is the number of lines one wheel notch scrolls.
const wheelStep = 3

// InputState is the state of the drag state machine.
type InputState int

const (
	InputIdle InputState = iota
	InputDragging
	InputResizing
)

func (s InputState) String() string {
	switch s {
	case InputDragging:
		return "dragging"
	case InputResizing:
		return "resizing"
	}
	return "idle"
}

// DragOperation records the window and start snapshot of a move or resize.
// Every motion is applied to the snapshot, never incrementally.
type DragOperation struct {
	Window      *Window
	Kind        InputState
	Direction   ResizeDirection
	StartMouse  geom.Point
	StartBounds geom.Rect
}

type pressState struct {
	window *Window
	hit    Hit
	at     geom.Point
	moved  bool
}

// InputDispatcher turns raw events into focus changes, activation, content
// clicks and window manipulation.
type InputDispatcher struct {
	reg         *Registry
	comp        *Compositor
	opts        Options
	drag        *DragOperation
	press       *pressState
	prevButtons tcell.ButtonMask
}

// NewInputDispatcher creates a dispatcher working on reg and repainting
// through comp.
func NewInputDispatcher(reg *Registry, comp *Compositor) *InputDispatcher {
	return &InputDispatcher{reg: reg, comp: comp, opts: reg.Options()}
}

// State returns the current drag state.
func (d *InputDispatcher) State() InputState {
	if d.drag == nil {
		return InputIdle
	}
	return d.drag.Kind
}

// Drag returns a copy of the active drag operation.
func (d *InputDispatcher) Drag() (DragOperation, bool) {
	if d.drag == nil {
		return DragOperation{}, false
	}
	return *d.drag, true
}

// HandleEvent dispatches a key or mouse event. It reports whether the event
// had any effect.
func (d *InputDispatcher) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return d.HandleKey(ev)
	case *tcell.EventMouse:
		x, y := ev.Position()
		return d.HandleMouse(x, y, ev.Buttons(), ev.Modifiers())
	}
	return false
}

// HandleKey gives the focused control of the active window the first chance
// at ev, then applies window-level keys.
func (d *InputDispatcher) HandleKey(ev *tcell.EventKey) bool {
	w := d.reg.Active()
	if w == nil {
		return false
	}
	if w.dispatchKey(ev) {
		return true
	}
	switch ev.Key() {
	case tcell.KeyTab:
		return w.CycleFocus(true)
	case tcell.KeyBacktab:
		return w.CycleFocus(false)
	case tcell.KeyUp:
		return w.ScrollBy(-1)
	case tcell.KeyDown:
		return w.ScrollBy(1)
	case tcell.KeyPgUp:
		return w.ScrollBy(-max(w.contentRect().H-1, 1))
	case tcell.KeyPgDn:
		return w.ScrollBy(max(w.contentRect().H-1, 1))
	case tcell.KeyHome:
		return w.ScrollBy(-w.ScrollOffset())
	case tcell.KeyEnd:
		return w.ScrollBy(w.ContentHeight())
	case tcell.KeyEscape:
		if w.IsModal() && w.flags.Has(FlagClosable) {
			return d.reg.Close(w, true)
		}
	}
	return false
}

func wheelDelta(mask tcell.ButtonMask) int {
	dy := 0
	if mask&tcell.WheelUp != 0 {
		dy--
	}
	if mask&tcell.WheelDown != 0 {
		dy++
	}
	return dy
}

// HandleMouse processes one mouse report at absolute (x, y).
func (d *InputDispatcher) HandleMouse(x, y int, buttons tcell.ButtonMask, mods tcell.ModMask) bool {
	if dy := wheelDelta(buttons); dy != 0 {
		// Wheel reports do not carry held buttons reliably; keep drag state.
		if d.drag != nil {
			return false
		}
		if w := d.reg.WindowAt(x, y); w != nil {
			return w.ScrollBy(dy * wheelStep)
		}
		return false
	}

	prev := d.prevButtons
	d.prevButtons = buttons
	down := buttons&tcell.Button1 != 0
	wasDown := prev&tcell.Button1 != 0
	pos := geom.Point{X: x, Y: y}

	switch {
	case down && !wasDown:
		return d.pressed(pos)
	case down && wasDown:
		return d.moved(pos)
	case !down && wasDown:
		return d.released(pos, mods)
	}
	return false
}

func (d *InputDispatcher) pressed(pos geom.Point) bool {
	if d.drag != nil {
		return false
	}
	d.press = nil
	w := d.reg.WindowAt(pos.X, pos.Y)
	if w == nil {
		return false
	}
	if !w.active {
		d.reg.Activate(w)
		return true
	}
	rel := pos.Sub(w.bounds.Origin())
	hit := w.HitTest(rel.X, rel.Y)
	d.press = &pressState{window: w, hit: hit, at: pos}

	adjustable := w.state == StateNormal
	switch {
	case hit.Zone == ZoneResize && adjustable && w.flags.Has(FlagResizable):
		d.drag = &DragOperation{Window: w, Kind: InputResizing, Direction: hit.Direction, StartMouse: pos, StartBounds: w.bounds}
	case hit.Zone == ZoneTitle && adjustable && w.flags.Has(FlagMovable):
		d.drag = &DragOperation{Window: w, Kind: InputDragging, StartMouse: pos, StartBounds: w.bounds}
	}
	if d.drag != nil {
		log.Printf("Input: %s %q from %v", d.drag.Kind, w.Title(), w.bounds)
	}
	return true
}

func (d *InputDispatcher) moved(pos geom.Point) bool {
	if p := d.press; p != nil && !p.moved {
		delta := pos.Sub(p.at)
		if max(abs(delta.X), abs(delta.Y)) > d.opts.DragThreshold {
			p.moved = true
		}
	}
	op := d.drag
	if op == nil {
		return false
	}
	if !op.Window.registered {
		d.drag = nil
		return false
	}
	delta := pos.Sub(op.StartMouse)
	var nb geom.Rect
	if op.Kind == InputDragging {
		nb = op.StartBounds.Translate(delta.X, delta.Y)
	} else {
		nb = resizeBounds(op.StartBounds, op.Direction, delta, d.reg.Desktop(), d.opts.MinWidth, d.opts.MinHeight)
	}
	return applyBounds(d.reg, d.comp, op.Window, nb)
}

func (d *InputDispatcher) released(pos geom.Point, mods tcell.ModMask) bool {
	p := d.press
	d.press = nil
	if op := d.drag; op != nil {
		d.drag = nil
		if op.Window.registered {
			d.comp.RenderWindow(op.Window)
			log.Printf("Input: %s %q ended at %v", op.Kind, op.Window.Title(), op.Window.bounds)
		}
		if op.Window.bounds != op.StartBounds {
			return true
		}
	}
	if p == nil || p.moved || !p.window.registered {
		return false
	}
	w := p.window
	rel := pos.Sub(w.bounds.Origin())
	hit := w.HitTest(rel.X, rel.Y)
	if hit.Zone != p.hit.Zone {
		return false
	}
	switch hit.Zone {
	case ZoneClose:
		return d.reg.Close(w, true)
	case ZoneMaximize:
		return d.reg.ToggleMaximize(w)
	case ZoneMinimize:
		return d.reg.Minimize(w)
	case ZoneContent:
		return w.clickContent(rel.X-BorderThickness, rel.Y-BorderThickness, tcell.Button1, mods)
	}
	return false
}

// Reset abandons any drag in progress, e.g. after the screen was resized.
func (d *InputDispatcher) Reset() {
	d.drag = nil
	d.press = nil
	d.prevButtons = 0
}

// resizeBounds recomputes the edges moved by dir from the start snapshot.
// When a moving edge hits the minimum size or the desktop, the opposite edge
// stays where it was.
func resizeBounds(start geom.Rect, dir ResizeDirection, delta geom.Point, desk geom.Rect, minW, minH int) geom.Rect {
	left, top, right, bottom := start.X, start.Y, start.Right(), start.Bottom()
	if dir.west() {
		left = min(max(left+delta.X, desk.X), right-minW)
	}
	if dir.east() {
		right = max(min(right+delta.X, desk.Right()), left+minW)
	}
	if dir.north() {
		top = min(max(top+delta.Y, desk.Y), bottom-minH)
	}
	if dir.south() {
		bottom = max(min(bottom+delta.Y, desk.Bottom()), top+minH)
	}
	return geom.FromEdges(left, top, right, bottom)
}

// applyBounds commits new geometry for w, repaints the uncovered part of the
// old footprint, then repaints w itself.
func applyBounds(reg *Registry, comp *Compositor, w *Window, nb geom.Rect) bool {
	old := w.bounds
	if !reg.SetBounds(w, nb) {
		return false
	}
	comp.RepaintExposed(w, old)
	comp.RenderWindow(w)
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
