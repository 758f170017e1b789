// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/registry.go
// Summary: Window collection, z-order, activation and modal bookkeeping.
// Usage: Owned by the Desktop; only called from the loop goroutine.
// Notes: Modal stacks are maintained incrementally on add and close. Parent
// links are ids resolved through the registry, never owning pointers.

package texel

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/framegrace/texeldesk/geom"
)

type pendingClose struct {
	w              *Window
	deadline       time.Time
	activateParent bool
}

// Registry owns every window of a desktop and decides which one is active.
type Registry struct {
	windows map[WindowID]*Window
	active  *Window
	order   uint64
	maxZ    int

	// modalChildren lists each window's modal children in the order they
	// were opened. appModals stacks modals without a parent.
	modalChildren map[WindowID][]WindowID
	appModals     []WindowID

	pending map[WindowID]*pendingClose
	desktop geom.Rect
	opts    Options
	notify  func()

	dispatcher EventRouter
}

// NewRegistry creates an empty registry for a desktop of the given size.
func NewRegistry(desktop geom.Rect, opts Options) *Registry {
	return &Registry{
		windows:       make(map[WindowID]*Window),
		modalChildren: make(map[WindowID][]WindowID),
		pending:       make(map[WindowID]*pendingClose),
		desktop:       desktop,
		opts:          opts.withDefaults(),
		dispatcher:    NewEventDispatcher(),
	}
}

// SetNotifier installs the callback windows use to wake the scheduler.
func (r *Registry) SetNotifier(fn func()) {
	r.notify = fn
	for _, w := range r.windows {
		w.setNotifier(fn)
	}
}

func (r *Registry) Subscribe(l Listener)   { r.dispatcher.Subscribe(l) }
func (r *Registry) Unsubscribe(l Listener) { r.dispatcher.Unsubscribe(l) }

func (r *Registry) broadcast(t EventType, w *Window, payload interface{}) {
	r.dispatcher.Broadcast(Event{Type: t, Window: w, Payload: payload})
}

// Desktop returns the area windows are confined to.
func (r *Registry) Desktop() geom.Rect { return r.desktop }

// Options returns the resolved options.
func (r *Registry) Options() Options { return r.opts }

// Len returns the number of registered windows.
func (r *Registry) Len() int { return len(r.windows) }

// Get looks a window up by id.
func (r *Registry) Get(id WindowID) *Window { return r.windows[id] }

// Active returns the active window, or nil.
func (r *Registry) Active() *Window { return r.active }

// Windows returns all windows in creation order.
func (r *Registry) Windows() []*Window {
	out := make([]*Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b *Window) int {
		return compareUint(a.order, b.order)
	})
	return out
}

// ZOrdered returns all windows bottom to top. Ties fall back to creation order.
func (r *Registry) ZOrdered() []*Window {
	out := make([]*Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, w)
	}
	sortByZ(out)
	return out
}

func sortByZ(ws []*Window) {
	slices.SortFunc(ws, func(a, b *Window) int {
		if a.z != b.z {
			return a.z - b.z
		}
		return compareUint(a.order, b.order)
	})
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Add registers w above every existing window. It is activated when
// activate is set or when nothing else is active.
func (r *Registry) Add(w *Window, activate bool) {
	if w == nil || w.registered {
		return
	}
	r.order++
	r.maxZ++
	w.order = r.order
	w.z = r.maxZ
	w.registered = true
	w.errStyle = r.opts.ErrorStyle
	w.bounds = r.clamp(w.bounds)
	w.setNotifier(r.notify)
	r.windows[w.id] = w

	if w.mode == ModeModal {
		if parent := r.windows[w.parent]; parent != nil && w.parent != w.id {
			r.modalChildren[w.parent] = append(r.modalChildren[w.parent], w.id)
		} else {
			var none WindowID
			w.parent = none
			r.appModals = append(r.appModals, w.id)
		}
	}
	log.Printf("Registry: added window %q (z=%d, modal=%v)", w.Title(), w.z, w.IsModal())
	r.broadcast(EventWindowAdded, w, nil)
	w.MarkDirty()

	if activate || r.active == nil {
		r.Activate(w)
	}
}

// isAncestor reports whether a is w's parent, grandparent, and so on.
func (r *Registry) isAncestor(a WindowID, w *Window) bool {
	for p := r.windows[w.parent]; p != nil; p = r.windows[p.parent] {
		if p.id == a {
			return true
		}
		if p.parent == p.id {
			break
		}
	}
	return false
}

// blockingModal returns the foreground application modal when it blocks w.
func (r *Registry) blockingModal(w *Window) *Window {
	for i := len(r.appModals) - 1; i >= 0; i-- {
		m := r.windows[r.appModals[i]]
		if m == nil {
			continue
		}
		if m == w || r.isAncestor(m.id, w) {
			return nil
		}
		return m
	}
	return nil
}

// deepestModal walks down w's modal chain. At each level a child that is or
// contains the active window wins, otherwise the highest child.
func (r *Registry) deepestModal(w *Window) *Window {
	cur := w
	for {
		var next *Window
		for _, id := range r.modalChildren[cur.id] {
			child := r.windows[id]
			if child == nil {
				continue
			}
			if r.active != nil && (r.active == child || r.isAncestor(child.id, r.active)) {
				next = child
				break
			}
			if next == nil || child.z > next.z {
				next = child
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// Activate makes w the active window, or the modal that must take its place.
// A redirected request flashes the window that actually receives focus. The
// window that ends up active is returned.
func (r *Registry) Activate(w *Window) *Window {
	if w == nil || !w.registered {
		return nil
	}
	if w.state == StateMinimized {
		r.Restore(w)
	}
	target := r.deepestModal(w)
	if blocker := r.blockingModal(w); blocker != nil {
		target = r.deepestModal(blocker)
	}
	if target != w {
		if target.state == StateMinimized {
			r.Restore(target)
		}
		r.Flash(target)
	}
	r.setActive(target, w)
	return target
}

func (r *Registry) setActive(target, requested *Window) {
	prev := r.active
	if prev == target {
		return
	}
	if prev != nil {
		prev.activate(false)
		r.broadcast(EventWindowDeactivated, prev, nil)
	}
	// The parent chain is raised together with the target, root first.
	chain := []*Window{target}
	for p := r.windows[target.parent]; p != nil && len(chain) <= len(r.windows); p = r.windows[p.parent] {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		r.maxZ++
		chain[i].z = r.maxZ
		chain[i].MarkDirty()
	}
	r.active = target
	for _, other := range r.windows {
		if other != target {
			other.blurControls()
		}
	}
	target.activate(true)
	r.broadcast(EventWindowActivated, target, ActivationPayload{Previous: prev, Requested: requested})
}

// topmost returns the highest visible window other than skip.
func (r *Registry) topmost(skip *Window) *Window {
	var best *Window
	for _, w := range r.windows {
		if w == skip || w.state == StateMinimized {
			continue
		}
		if best == nil || w.z > best.z || (w.z == best.z && w.order > best.order) {
			best = w
		}
	}
	return best
}

// activateFallback picks a new active window after the active one went away.
func (r *Registry) activateFallback(parent WindowID, useParent bool) {
	var next *Window
	if useParent {
		if p := r.windows[parent]; p != nil && p.state != StateMinimized {
			next = p
		}
	}
	if next == nil {
		next = r.topmost(nil)
	}
	if next != nil {
		r.Activate(next)
	}
}

// Close asks w to close. It returns false, changing nothing, when the
// closing hook of w or of any of its modal descendants refuses. Windows whose
// task is still running, and parents of such windows, stay on screen until
// the task returns or the close grace period expires. Closing again removes
// windows whose task was abandoned after the grace period.
func (r *Registry) Close(w *Window, activateParent bool) bool {
	if w == nil || !w.registered {
		return false
	}
	order := r.closeOrder(w, nil)
	for _, c := range order {
		if _, ok := r.pending[c.id]; ok || c.taskAbandoned() {
			continue
		}
		if c.closing != nil && !c.closing(c) {
			log.Printf("Registry: close of %q refused", c.Title())
			return false
		}
	}
	for _, c := range order {
		r.beginClose(c, c == w && activateParent)
	}
	return true
}

// closeOrder lists the modal descendants of w deepest first, then w.
func (r *Registry) closeOrder(w *Window, out []*Window) []*Window {
	kids := r.modalChildren[w.id]
	for i := len(kids) - 1; i >= 0; i-- {
		if child := r.windows[kids[i]]; child != nil {
			out = r.closeOrder(child, out)
		}
	}
	return append(out, w)
}

// beginClose cancels w's task and removes w, or parks it in the pending set
// while its task or one of its modal children is still alive.
func (r *Registry) beginClose(w *Window, activateParent bool) {
	if _, ok := r.pending[w.id]; ok || !w.registered {
		return
	}
	running := w.stopTask() && !w.taskAbandoned()
	if !running && len(r.modalChildren[w.id]) == 0 {
		r.finalize(w, activateParent)
		return
	}
	r.pending[w.id] = &pendingClose{
		w:              w,
		deadline:       r.opts.Now().Add(r.opts.CloseGrace),
		activateParent: activateParent,
	}
	if running {
		log.Printf("Registry: waiting for task of %q to stop", w.Title())
	} else {
		log.Printf("Registry: %q waits for its modal windows to close", w.Title())
	}
}

// finalize removes w and hands activation on.
func (r *Registry) finalize(w *Window, activateParent bool) {
	delete(r.windows, w.id)
	delete(r.pending, w.id)
	w.registered = false
	w.setNotifier(nil)

	if w.mode == ModeModal {
		if w.parent != (WindowID{}) {
			kids := slices.DeleteFunc(r.modalChildren[w.parent], func(id WindowID) bool { return id == w.id })
			if len(kids) == 0 {
				delete(r.modalChildren, w.parent)
			} else {
				r.modalChildren[w.parent] = kids
			}
		} else {
			r.appModals = slices.DeleteFunc(r.appModals, func(id WindowID) bool { return id == w.id })
		}
	}
	delete(r.modalChildren, w.id)

	wasActive := r.active == w
	if wasActive {
		r.active = nil
		w.activate(false)
	}
	log.Printf("Registry: closed window %q", w.Title())
	r.broadcast(EventWindowClosed, w, GeometryPayload{Old: w.bounds})
	if wasActive || r.active == nil {
		r.activateFallback(w.parent, activateParent)
	}
}

// Closing reports whether w is waiting for its task before closing.
func (r *Registry) Closing(w *Window) bool {
	_, ok := r.pending[w.id]
	return ok
}

// Reap finishes pending closes whose task has returned and whose modal
// children are gone. A task still running past its deadline leaves the
// window in an error state; closing it again removes it immediately.
func (r *Registry) Reap(now time.Time) int {
	reaped := 0
	for progress := true; progress; {
		progress = false
		for id, p := range r.pending {
			running := p.w.TaskRunning() && !p.w.taskAbandoned()
			if !running && len(r.modalChildren[id]) == 0 {
				r.finalize(p.w, p.activateParent)
				reaped++
				progress = true
				continue
			}
			if running && !now.Before(p.deadline) {
				delete(r.pending, id)
				p.w.markTaskAbandoned()
				p.w.SetFault(fmt.Errorf("task did not stop within %v", r.opts.CloseGrace))
			}
		}
	}
	return reaped
}

// Flash starts the attention flash on w.
func (r *Registry) Flash(w *Window) {
	if w == nil || !w.registered {
		return
	}
	w.startFlash(r.opts.Now(), r.opts.FlashCount, r.opts.FlashInterval)
	r.broadcast(EventWindowFlashed, w, nil)
}

func (r *Registry) setState(w *Window, state WindowState, old geom.Rect) {
	prev := w.state
	w.state = state
	w.MarkDirty()
	r.broadcast(EventWindowStateChanged, w, StatePayload{Old: prev, New: state, Bounds: old})
}

// Minimize hides w. Modal windows cannot be minimized.
func (r *Registry) Minimize(w *Window) bool {
	if w == nil || !w.registered || !w.flags.Has(FlagMinimizable) || w.IsModal() || w.state == StateMinimized {
		return false
	}
	if len(r.modalChildren[w.id]) > 0 {
		return false
	}
	w.unminimize = w.state
	r.setState(w, StateMinimized, w.bounds)
	if r.active == w {
		r.active = nil
		w.activate(false)
		r.broadcast(EventWindowDeactivated, w, nil)
		r.activateFallback(WindowID{}, false)
	}
	return true
}

// Maximize grows w to the whole desktop and activates it.
func (r *Registry) Maximize(w *Window) bool {
	if w == nil || !w.registered || !w.flags.Has(FlagMaximizable) || w.state == StateMaximized {
		return false
	}
	if w.state == StateMinimized {
		w.state = StateNormal
	}
	old := w.bounds
	w.restore = old
	w.bounds = r.desktop
	w.Invalidate()
	r.setState(w, StateMaximized, old)
	r.Activate(w)
	return true
}

// Restore returns a minimized window to its previous state, or a maximized
// window to its saved geometry.
func (r *Registry) Restore(w *Window) bool {
	if w == nil || !w.registered {
		return false
	}
	switch w.state {
	case StateMinimized:
		r.setState(w, w.unminimize, w.bounds)
		w.Invalidate()
		return true
	case StateMaximized:
		old := w.bounds
		w.bounds = r.clamp(w.restore)
		w.Invalidate()
		r.setState(w, StateNormal, old)
		return true
	}
	return false
}

// ToggleMaximize maximizes or restores w.
func (r *Registry) ToggleMaximize(w *Window) bool {
	if w != nil && w.state == StateMaximized {
		return r.Restore(w)
	}
	return r.Maximize(w)
}

// clamp enforces the minimum size and keeps b inside the desktop.
func (r *Registry) clamp(b geom.Rect) geom.Rect {
	b.W = max(b.W, r.opts.MinWidth)
	b.H = max(b.H, r.opts.MinHeight)
	d := r.desktop
	if d.Empty() {
		return b
	}
	b.W = min(b.W, d.W)
	b.H = min(b.H, d.H)
	b.X = min(max(b.X, d.X), d.Right()-b.W)
	b.Y = min(max(b.Y, d.Y), d.Bottom()-b.H)
	return b
}

// SetBounds moves and resizes w, clamped to the desktop and the minimum
// size. It reports whether the geometry changed.
func (r *Registry) SetBounds(w *Window, b geom.Rect) bool {
	if w == nil || !w.registered || w.state != StateNormal {
		return false
	}
	nb := r.clamp(b)
	old := w.bounds
	if nb == old {
		return false
	}
	w.bounds = nb
	payload := GeometryPayload{Old: old, New: nb}
	if nb.W != old.W || nb.H != old.H {
		w.Invalidate()
		r.broadcast(EventWindowResized, w, payload)
	} else {
		w.MarkDirty()
	}
	if nb.X != old.X || nb.Y != old.Y {
		r.broadcast(EventWindowMoved, w, payload)
	}
	return true
}

// WindowAt returns the topmost visible window containing the absolute point.
func (r *Registry) WindowAt(x, y int) *Window {
	var best *Window
	for _, w := range r.windows {
		if w.state == StateMinimized || !w.bounds.Contains(x, y) {
			continue
		}
		if best == nil || w.z > best.z || (w.z == best.z && w.order > best.order) {
			best = w
		}
	}
	return best
}

// Overlapping returns the visible windows above w that intersect it,
// bottom to top.
func (r *Registry) Overlapping(w *Window) []*Window {
	var out []*Window
	for _, o := range r.windows {
		if o == w || o.state == StateMinimized || !o.bounds.Intersects(w.bounds) {
			continue
		}
		if o.z > w.z || (o.z == w.z && o.order > w.order) {
			out = append(out, o)
		}
	}
	sortByZ(out)
	return out
}

// OverlapChain returns w together with every visible window reachable from
// it through geometric overlap, bottom to top.
func (r *Registry) OverlapChain(w *Window) []*Window {
	if w == nil || !w.registered {
		return nil
	}
	seen := map[WindowID]bool{w.id: true}
	queue := []*Window{w}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		for _, o := range r.windows {
			if seen[o.id] || o.state == StateMinimized || !o.bounds.Intersects(cur.bounds) {
				continue
			}
			seen[o.id] = true
			queue = append(queue, o)
		}
	}
	sortByZ(queue)
	return queue
}

// CycleActive activates the next window in creation order, skipping windows
// that are blocked by a modal.
func (r *Registry) CycleActive() *Window {
	ws := r.Windows()
	if len(ws) == 0 {
		return nil
	}
	start := 0
	if r.active != nil {
		if i := slices.Index(ws, r.active); i >= 0 {
			start = i + 1
		}
	}
	for n := 0; n < len(ws); n++ {
		c := ws[(start+n)%len(ws)]
		if c == r.active || r.blockingModal(c) != nil || r.deepestModal(c) != c {
			continue
		}
		return r.Activate(c)
	}
	return r.active
}

// FitToDesktop adopts a new desktop size, refitting every window.
func (r *Registry) FitToDesktop(d geom.Rect) {
	r.desktop = d
	for _, w := range r.Windows() {
		switch w.state {
		case StateMaximized:
			w.bounds = d
			w.restore = r.clamp(w.restore)
			w.Invalidate()
		default:
			nb := r.clamp(w.bounds)
			if nb != w.bounds {
				sizeChanged := nb.W != w.bounds.W || nb.H != w.bounds.H
				w.bounds = nb
				if sizeChanged {
					w.Invalidate()
				}
			}
			w.MarkDirty()
		}
	}
}
