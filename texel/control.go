// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/control.go
// Summary: Capability interfaces for the content controls hosted by a window.
// Usage: Windows query optional capabilities with type assertions.

package texel

import "github.com/gdamore/tcell/v2"

// Control is any child of a window that produces rendered lines. All methods
// are called with the owning window's content lock held, so implementations
// must not call back into the window or the registry; queue such work with
// Desktop.Post instead.
type Control interface {
	Render(width, height int) []Line
	Invalidate()
}

// Focusable controls take part in the window's Tab focus chain.
type Focusable interface {
	Control
	ProcessKey(ev *tcell.EventKey) bool
	HasFocus() bool
	SetFocus(focused bool)
}

// MouseEvent is a mouse event translated to control-relative coordinates.
type MouseEvent struct {
	X, Y      int
	Buttons   tcell.ButtonMask
	Modifiers tcell.ModMask
}

// MouseAware controls receive clicks that land on their rendered lines.
type MouseAware interface {
	WantsMouseEvents() bool
	ProcessMouseEvent(ev MouseEvent) bool
}

// CursorOwner controls place the terminal cursor while focused. Coordinates
// are relative to the control's first rendered line.
type CursorOwner interface {
	CursorPosition() (x, y int, visible bool)
}

// StickyPosition pins a control to an edge of the viewport.
type StickyPosition int

const (
	StickyNone StickyPosition = iota
	StickyTop
	StickyBottom
)

// Sticky controls are drawn at the top or bottom of the viewport and do not
// scroll with the rest of the content.
type Sticky interface {
	StickyPosition() StickyPosition
}

func stickyOf(c Control) StickyPosition {
	if s, ok := c.(Sticky); ok {
		return s.StickyPosition()
	}
	return StickyNone
}
