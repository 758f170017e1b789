// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/statusline.go
// Summary: One-row bar pinned to the bottom of a window's viewport.

package controls

import (
	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// StatusLine shows left- and right-aligned text on a single row. It is
// sticky at the bottom unless moved with SetStickyPosition.
type StatusLine struct {
	Base
	Left  string
	Right string
	Style tcell.Style
}

// NewStatusLine creates a bottom-pinned status line.
func NewStatusLine(left string) *StatusLine {
	s := &StatusLine{Left: left, Style: tcell.StyleDefault.Reverse(true)}
	s.sticky = texel.StickyBottom
	return s
}

// Set updates both halves of the status line.
func (s *StatusLine) Set(left, right string) {
	s.Left, s.Right = left, right
}

func (s *StatusLine) Render(width, height int) []texel.Line {
	if width <= 0 {
		return []texel.Line{nil}
	}
	right := runewidth.Truncate(s.Right, width, "")
	room := width - runewidth.StringWidth(right)
	left := runewidth.Truncate(s.Left, max(room-1, 0), "…")
	line := texel.StyledLine(left, s.Style).Pad(room, s.Style).Append(right, s.Style)
	return []texel.Line{fit(line, width, s.Style)}
}
