// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/window.go
// Summary: Window entity: geometry, flags, state and the locked content cache.
// Usage: Created with NewWindow, registered through Registry.Add.
// Notes: Geometry, z-order and activation are only touched from the loop
// goroutine. Controls, the content cache, scroll and focus are guarded by mu
// because a window's background task may mutate them at any time.

package texel

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

// WindowID identifies a window for the lifetime of the process.
type WindowID = uuid.UUID

// WindowMode distinguishes ordinary windows from modal ones.
type WindowMode int

const (
	ModeNormal WindowMode = iota
	ModeModal
)

// WindowState is the minimize/maximize state of a window.
type WindowState int

const (
	StateNormal WindowState = iota
	StateMinimized
	StateMaximized
)

func (s WindowState) String() string {
	switch s {
	case StateMinimized:
		return "minimized"
	case StateMaximized:
		return "maximized"
	}
	return "normal"
}

// WindowFlags toggles the interactive capabilities of a window.
type WindowFlags uint

const (
	FlagMovable WindowFlags = 1 << iota
	FlagResizable
	FlagMinimizable
	FlagMaximizable
	FlagClosable
	FlagScrollable
)

// DefaultWindowFlags enables every capability.
const DefaultWindowFlags = FlagMovable | FlagResizable | FlagMinimizable | FlagMaximizable | FlagClosable | FlagScrollable

// Has reports whether all bits of f2 are set.
func (f WindowFlags) Has(f2 WindowFlags) bool {
	return f&f2 == f2
}

type controlSpan struct {
	top, height int
	sticky      StickyPosition
}

// rowRef maps a rendered row back to the control that produced it.
type rowRef struct {
	control int
	line    int
}

// Window is a rectangular, z-ordered, independently scrollable region owning
// a list of child controls.
type Window struct {
	id    WindowID
	order uint64
	name  string
	title atomic.Pointer[string]

	bounds     geom.Rect
	z          int
	mode       WindowMode
	parent     WindowID
	state      WindowState
	restore    geom.Rect
	unminimize WindowState
	flags      WindowFlags
	style      tcell.Style

	active     bool
	registered bool
	errStyle   tcell.Style
	closing    func(*Window) bool
	flash      flashState

	dirty  atomic.Bool
	notify atomic.Pointer[func()]

	mu       sync.Mutex
	controls []Control
	spans    []controlSpan
	focus    int
	invalid  bool
	layoutW  int
	layoutH  int
	top      []Line
	body     []Line
	bottom   []Line
	topRef   []rowRef
	bodyRef  []rowRef
	botRef   []rowRef
	viewRef  []rowRef
	viewBody int
	scroll   int
	fault    error
	task     *taskState
}

// WindowOption customises a window at construction.
type WindowOption func(*Window)

// WithFlags replaces the default capability flags.
func WithFlags(flags WindowFlags) WindowOption {
	return func(w *Window) { w.flags = flags }
}

// WithModal makes the window modal. A nil parent makes it application-modal:
// it blocks every other window while open.
func WithModal(parent *Window) WindowOption {
	return func(w *Window) {
		w.mode = ModeModal
		if parent != nil {
			w.parent = parent.id
		}
	}
}

// WithStyle overrides the theme's window background style.
func WithStyle(style tcell.Style) WindowOption {
	return func(w *Window) { w.style = style }
}

// WithName sets the stable name used to persist the window's layout. It
// defaults to the title.
func WithName(name string) WindowOption {
	return func(w *Window) { w.name = name }
}

// WithClosingHook installs a hook that may veto Close by returning false.
func WithClosingHook(fn func(*Window) bool) WindowOption {
	return func(w *Window) { w.closing = fn }
}

// NewWindow creates an unregistered window.
func NewWindow(title string, bounds geom.Rect, opts ...WindowOption) *Window {
	w := &Window{
		id:      uuid.New(),
		name:    title,
		bounds:  bounds,
		flags:   DefaultWindowFlags,
		focus:   -1,
		invalid: true,
	}
	w.title.Store(&title)
	for _, opt := range opts {
		opt(w)
	}
	w.dirty.Store(true)
	return w
}

func (w *Window) ID() WindowID          { return w.id }
func (w *Window) Name() string          { return w.name }
func (w *Window) Title() string         { return *w.title.Load() }
func (w *Window) Bounds() geom.Rect     { return w.bounds }
func (w *Window) Z() int                { return w.z }
func (w *Window) Mode() WindowMode      { return w.mode }
func (w *Window) Parent() WindowID      { return w.parent }
func (w *Window) State() WindowState    { return w.state }
func (w *Window) Flags() WindowFlags    { return w.flags }
func (w *Window) IsActive() bool        { return w.active }
func (w *Window) IsRegistered() bool    { return w.registered }
func (w *Window) CreationOrder() uint64 { return w.order }

// RestoreBounds returns the geometry a maximized window returns to, or the
// current bounds otherwise.
func (w *Window) RestoreBounds() geom.Rect {
	if w.state == StateMaximized {
		return w.restore
	}
	return w.bounds
}

// IsModal reports whether the window is modal.
func (w *Window) IsModal() bool { return w.mode == ModeModal }

// SetTitle changes the caption drawn in the title bar. Safe to call from any
// goroutine.
func (w *Window) SetTitle(title string) {
	w.title.Store(&title)
	w.MarkDirty()
}

// SetOnClosing replaces the closing hook.
func (w *Window) SetOnClosing(fn func(*Window) bool) {
	w.closing = fn
}

// IsDirty reports whether the window needs repainting.
func (w *Window) IsDirty() bool {
	return w.dirty.Load()
}

// MarkDirty flags the window for repaint and wakes the scheduler. Safe to
// call from any goroutine.
func (w *Window) MarkDirty() {
	w.dirty.Store(true)
	if fn := w.notify.Load(); fn != nil {
		(*fn)()
	}
}

func (w *Window) clearDirty() {
	w.dirty.Store(false)
}

func (w *Window) setNotifier(fn func()) {
	if fn == nil {
		w.notify.Store(nil)
		return
	}
	w.notify.Store(&fn)
}

// contentRect is the area inside the frame.
func (w *Window) contentRect() geom.Rect {
	return w.bounds.Inset(1)
}

// AddControl appends a control to the window.
func (w *Window) AddControl(c Control) {
	if c == nil {
		return
	}
	w.mu.Lock()
	w.controls = append(w.controls, c)
	w.invalid = true
	if _, ok := c.(Focusable); ok && w.active && w.focus < 0 {
		w.setFocusLocked(len(w.controls) - 1)
	}
	w.mu.Unlock()
	w.MarkDirty()
}

// RemoveControl detaches c; focus moves off it if needed.
func (w *Window) RemoveControl(c Control) {
	w.mu.Lock()
	for i, existing := range w.controls {
		if existing != c {
			continue
		}
		if f, ok := c.(Focusable); ok && f.HasFocus() {
			f.SetFocus(false)
		}
		w.controls = append(w.controls[:i], w.controls[i+1:]...)
		switch {
		case w.focus == i:
			w.focus = -1
		case w.focus > i:
			w.focus--
		}
		w.invalid = true
		break
	}
	w.mu.Unlock()
	w.MarkDirty()
}

// Controls returns a copy of the window's controls in order.
func (w *Window) Controls() []Control {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Control(nil), w.controls...)
}

// Mutate runs fn with the content lock held and invalidates the content
// cache afterwards. Background tasks use it to update their controls.
func (w *Window) Mutate(fn func()) {
	w.mu.Lock()
	fn()
	w.invalid = true
	w.mu.Unlock()
	w.MarkDirty()
}

// Invalidate drops the cached layout and asks every control to re-layout.
func (w *Window) Invalidate() {
	w.mu.Lock()
	w.invalid = true
	for _, c := range w.controls {
		c.Invalidate()
	}
	w.mu.Unlock()
	w.MarkDirty()
}

// Fault returns the background task failure shown by the window, if any.
func (w *Window) Fault() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fault
}

// SetFault turns the window into a visible error state.
func (w *Window) SetFault(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	w.fault = err
	w.invalid = true
	w.mu.Unlock()
	log.Printf("Window %q: %v", w.Title(), err)
	w.MarkDirty()
}

// FocusedControl returns the control owning keyboard input, or nil.
func (w *Window) FocusedControl() Focusable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focusedLocked()
}

func (w *Window) focusedLocked() Focusable {
	if w.focus < 0 || w.focus >= len(w.controls) {
		return nil
	}
	f, _ := w.controls[w.focus].(Focusable)
	return f
}

// setFocusLocked moves focus to control idx. Focus is only visible while the
// window is active.
func (w *Window) setFocusLocked(idx int) {
	if prev := w.focusedLocked(); prev != nil && w.focus != idx {
		prev.SetFocus(false)
	}
	w.focus = idx
	if next := w.focusedLocked(); next != nil {
		next.SetFocus(w.active)
	}
	w.invalid = true
}

// FocusControl gives focus to c if it is focusable and part of the window.
func (w *Window) FocusControl(c Control) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, existing := range w.controls {
		if existing != c {
			continue
		}
		if _, ok := c.(Focusable); !ok {
			return false
		}
		w.setFocusLocked(i)
		w.revealLocked(i)
		w.dirty.Store(true)
		return true
	}
	return false
}

// focusChainLocked lists the indexes of interactive controls in order.
func (w *Window) focusChainLocked() []int {
	chain := make([]int, 0, len(w.controls))
	for i, c := range w.controls {
		if _, ok := c.(Focusable); ok {
			chain = append(chain, i)
		}
	}
	return chain
}

// CycleFocus moves focus to the next (or previous) interactive control,
// wrapping around at either end, and scrolls it into view.
func (w *Window) CycleFocus(forward bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	chain := w.focusChainLocked()
	n := len(chain)
	if n == 0 {
		return false
	}
	cur := -1
	for pos, idx := range chain {
		if idx == w.focus {
			cur = pos
			break
		}
	}
	var next int
	switch {
	case cur < 0 && forward:
		next = 0
	case cur < 0:
		next = n - 1
	case forward:
		next = (cur + 1) % n
	default:
		next = (cur - 1 + n) % n
	}
	w.setFocusLocked(chain[next])
	w.revealLocked(chain[next])
	w.dirty.Store(true)
	return true
}

// activate toggles the focus-visible state of the window.
func (w *Window) activate(active bool) {
	w.active = active
	w.mu.Lock()
	if active && w.focus < 0 {
		if chain := w.focusChainLocked(); len(chain) > 0 {
			w.focus = chain[0]
		}
	}
	if f := w.focusedLocked(); f != nil {
		f.SetFocus(active)
	}
	w.invalid = true
	w.mu.Unlock()
	w.MarkDirty()
}

// blurControls removes focus from every control without forgetting which one
// owns the window's focus index.
func (w *Window) blurControls() {
	w.mu.Lock()
	changed := false
	for _, c := range w.controls {
		if f, ok := c.(Focusable); ok && f.HasFocus() {
			f.SetFocus(false)
			changed = true
		}
	}
	if changed {
		w.invalid = true
	}
	w.mu.Unlock()
	if changed {
		w.MarkDirty()
	}
}

// ScrollOffset returns the first body line shown in the viewport.
func (w *Window) ScrollOffset() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scroll
}

// ScrollTo sets the scroll offset, clamped to the content.
func (w *Window) ScrollTo(offset int) {
	w.mu.Lock()
	w.ensureLayoutLocked()
	w.scroll = offset
	w.clampScrollLocked()
	w.mu.Unlock()
	w.MarkDirty()
}

// ScrollBy moves the viewport by delta lines. It reports whether the offset
// changed.
func (w *Window) ScrollBy(delta int) bool {
	if !w.flags.Has(FlagScrollable) {
		return false
	}
	w.mu.Lock()
	w.ensureLayoutLocked()
	before := w.scroll
	w.scroll += delta
	w.clampScrollLocked()
	changed := w.scroll != before
	w.mu.Unlock()
	if changed {
		w.MarkDirty()
	}
	return changed
}

// ContentHeight returns the number of scrollable body lines.
func (w *Window) ContentHeight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLayoutLocked()
	return len(w.body)
}

// scrollMetrics returns the body height, viewport height and scroll offset
// from the last layout.
func (w *Window) scrollMetrics() (content, view, offset int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.body), w.viewBody, w.scroll
}

func (w *Window) ensureLayoutLocked() {
	cr := w.contentRect()
	if w.invalid || cr.W != w.layoutW || cr.H != w.layoutH {
		w.layoutLocked(cr.W, cr.H)
	}
}

// layoutLocked re-renders every control into the sticky and body buffers.
func (w *Window) layoutLocked(width, height int) {
	w.top, w.body, w.bottom = nil, nil, nil
	w.topRef, w.bodyRef, w.botRef = nil, nil, nil
	w.spans = make([]controlSpan, len(w.controls))
	if width > 0 && height > 0 && w.fault == nil {
		for i, c := range w.controls {
			lines := c.Render(width, height)
			refs := make([]rowRef, len(lines))
			for j := range refs {
				refs[j] = rowRef{control: i, line: j}
			}
			switch pos := stickyOf(c); pos {
			case StickyTop:
				w.spans[i] = controlSpan{top: len(w.top), height: len(lines), sticky: pos}
				w.top = append(w.top, lines...)
				w.topRef = append(w.topRef, refs...)
			case StickyBottom:
				w.spans[i] = controlSpan{top: len(w.bottom), height: len(lines), sticky: pos}
				w.bottom = append(w.bottom, lines...)
				w.botRef = append(w.botRef, refs...)
			default:
				w.spans[i] = controlSpan{top: len(w.body), height: len(lines)}
				w.body = append(w.body, lines...)
				w.bodyRef = append(w.bodyRef, refs...)
			}
		}
	}
	topN := min(len(w.top), max(height, 0))
	botN := min(len(w.bottom), max(height-topN, 0))
	w.viewBody = max(height-topN-botN, 0)
	w.layoutW, w.layoutH = width, height
	w.invalid = false
	w.clampScrollLocked()
}

func (w *Window) clampScrollLocked() {
	maxScroll := max(len(w.body)-w.viewBody, 0)
	if w.scroll > maxScroll {
		w.scroll = maxScroll
	}
	if w.scroll < 0 {
		w.scroll = 0
	}
}

// revealLocked scrolls so control idx is fully visible: top-aligned when it
// lies above the viewport, bottom-aligned when it lies below.
func (w *Window) revealLocked(idx int) {
	w.ensureLayoutLocked()
	if idx < 0 || idx >= len(w.spans) {
		return
	}
	span := w.spans[idx]
	if span.sticky != StickyNone || w.viewBody <= 0 {
		return
	}
	switch {
	case span.top < w.scroll:
		w.scroll = span.top
	case span.top+span.height > w.scroll+w.viewBody:
		w.scroll = span.top + span.height - w.viewBody
		if span.height > w.viewBody {
			w.scroll = span.top
		}
	}
	w.clampScrollLocked()
}

// viewLines returns the rows visible in a width x height viewport: sticky
// top lines, the scrolled body, then sticky bottom lines. Content is only
// re-laid out when it was invalidated or the size changed.
func (w *Window) viewLines(width, height int) []Line {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLinesLocked(width, height)
}

func (w *Window) viewLinesLocked(width, height int) []Line {
	if w.fault != nil {
		w.viewRef = nil
		return w.faultLinesLocked(width, height)
	}
	if w.invalid || width != w.layoutW || height != w.layoutH {
		w.layoutLocked(width, height)
	}
	rows := make([]Line, 0, height)
	refs := make([]rowRef, 0, height)
	topN := min(len(w.top), height)
	rows = append(rows, w.top[:topN]...)
	refs = append(refs, w.topRef[:topN]...)

	end := min(w.scroll+w.viewBody, len(w.body))
	if w.scroll < end {
		rows = append(rows, w.body[w.scroll:end]...)
		refs = append(refs, w.bodyRef[w.scroll:end]...)
	}
	for len(rows) < topN+w.viewBody {
		rows = append(rows, nil)
		refs = append(refs, rowRef{control: -1})
	}
	botN := min(len(w.bottom), height-len(rows))
	rows = append(rows, w.bottom[:botN]...)
	refs = append(refs, w.botRef[:botN]...)
	w.viewRef = refs
	return rows
}

func (w *Window) faultLinesLocked(width, height int) []Line {
	var lines []Line
	for _, row := range TextLines(fmt.Sprintf("%s failed:\n%v", w.Title(), w.fault), w.errStyle) {
		for width > 0 && len(row) > width {
			lines = append(lines, row.Slice(0, width))
			row = row[width:]
		}
		lines = append(lines, row)
	}
	if len(lines) > height {
		lines = lines[:max(height, 0)]
	}
	return lines
}

// controlAtLocked resolves a viewport row to a control index and the line
// within that control.
func (w *Window) controlAtLocked(row int) (int, int, bool) {
	w.viewLinesRefreshLocked()
	if row < 0 || row >= len(w.viewRef) {
		return -1, 0, false
	}
	ref := w.viewRef[row]
	if ref.control < 0 || ref.control >= len(w.controls) {
		return -1, 0, false
	}
	return ref.control, ref.line, true
}

// viewLinesRefreshLocked rebuilds viewRef when the layout is stale.
func (w *Window) viewLinesRefreshLocked() {
	cr := w.contentRect()
	if w.viewRef != nil && !w.invalid && cr.W == w.layoutW && cr.H == w.layoutH {
		return
	}
	w.viewLinesLocked(cr.W, cr.H)
}

// dispatchKey offers ev to the focused control.
func (w *Window) dispatchKey(ev *tcell.EventKey) bool {
	w.mu.Lock()
	f := w.focusedLocked()
	consumed := f != nil && f.ProcessKey(ev)
	if consumed {
		w.invalid = true
	}
	w.mu.Unlock()
	if consumed {
		w.MarkDirty()
	}
	return consumed
}

// clickContent routes a click at content-relative (cx, cy) to the control
// rendered there, translating to control-relative coordinates. A focusable
// control under the pointer also receives focus.
func (w *Window) clickContent(cx, cy int, buttons tcell.ButtonMask, mods tcell.ModMask) bool {
	w.mu.Lock()
	idx, line, ok := w.controlAtLocked(cy)
	if !ok {
		w.mu.Unlock()
		return false
	}
	handled := false
	c := w.controls[idx]
	if m, ok := c.(MouseAware); ok && m.WantsMouseEvents() {
		handled = m.ProcessMouseEvent(MouseEvent{X: cx, Y: line, Buttons: buttons, Modifiers: mods})
	}
	if _, ok := c.(Focusable); ok {
		if w.focus != idx {
			w.setFocusLocked(idx)
		}
		handled = true
	}
	if handled {
		w.invalid = true
	}
	w.mu.Unlock()
	if handled {
		w.MarkDirty()
	}
	return handled
}

// cursorCell returns the content-relative cell where the focused control
// wants the cursor.
func (w *Window) cursorCell() (int, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.focusedLocked()
	owner, ok := f.(CursorOwner)
	if f == nil || !ok || !f.HasFocus() {
		return 0, 0, false
	}
	x, y, visible := owner.CursorPosition()
	if !visible {
		return 0, 0, false
	}
	w.viewLinesRefreshLocked()
	for row, ref := range w.viewRef {
		if ref.control == w.focus && ref.line == y {
			return x, row, true
		}
	}
	return 0, 0, false
}
