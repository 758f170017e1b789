// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/base.go
// Summary: Shared focus and placement state embedded by the stock controls.
// Notes: Controls are only touched under their window's content lock, either
// by the loop goroutine or through Window.Mutate, so they carry no locks of
// their own.

package controls

import (
	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
)

// Base provides focus bookkeeping and sticky placement.
type Base struct {
	focused bool
	sticky  texel.StickyPosition
}

func (b *Base) HasFocus() bool                             { return b.focused }
func (b *Base) SetFocus(f bool)                            { b.focused = f }
func (b *Base) Invalidate()                                {}
func (b *Base) StickyPosition() texel.StickyPosition       { return b.sticky }
func (b *Base) SetStickyPosition(pos texel.StickyPosition) { b.sticky = pos }

// focusStyle is the style interactive controls use while focused.
func focusStyle(style tcell.Style) tcell.Style {
	return style.Reverse(true)
}

// fit truncates or pads line to width.
func fit(line texel.Line, width int, style tcell.Style) texel.Line {
	if width <= 0 {
		return nil
	}
	return line.Pad(width, style)
}
