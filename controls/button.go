// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/button.go
// Summary: Focusable push button activated by Enter, Space or a click.

package controls

import (
	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Button runs OnPress when activated. OnPress is called with the window's
// content lock held; anything that touches the registry (closing the window,
// opening a dialog) has to be deferred with Desktop.Post.
type Button struct {
	Base
	Label   string
	Style   tcell.Style
	OnPress func()
}

// NewButton creates a button with the given caption.
func NewButton(label string, onPress func()) *Button {
	return &Button{Label: label, OnPress: onPress}
}

func (b *Button) Render(width, height int) []texel.Line {
	style := b.Style
	if b.focused {
		style = focusStyle(style)
	}
	line := texel.StyledLine("[ "+b.Label+" ]", style)
	if width > 0 && line.Width() > width {
		line = line.Slice(0, width)
	}
	return []texel.Line{line}
}

func (b *Button) ProcessKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEnter:
	case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
	default:
		return false
	}
	b.press()
	return true
}

func (b *Button) WantsMouseEvents() bool { return true }

func (b *Button) ProcessMouseEvent(ev texel.MouseEvent) bool {
	if ev.X >= runewidth.StringWidth(b.Label)+4 {
		return false
	}
	b.press()
	return true
}

func (b *Button) press() {
	if b.OnPress != nil {
		b.OnPress()
	}
}
