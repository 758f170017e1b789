// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/label.go
// Summary: Static, optionally aligned, text.

package controls

import (
	"strings"

	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Align positions label text within the available width.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Label displays one or more lines of text. It never takes focus.
type Label struct {
	Base
	Text  string
	Style tcell.Style
	Align Align
}

// NewLabel creates a left-aligned label.
func NewLabel(text string) *Label {
	return &Label{Text: text}
}

// SetText replaces the label's text. Call it through Window.Mutate when the
// label is already attached to a window.
func (l *Label) SetText(text string) {
	l.Text = text
}

func (l *Label) Render(width, height int) []texel.Line {
	rows := strings.Split(l.Text, "\n")
	out := make([]texel.Line, 0, len(rows))
	for _, row := range rows {
		out = append(out, alignLine(row, width, l.Align, l.Style))
	}
	return out
}

func alignLine(text string, width int, align Align, style tcell.Style) texel.Line {
	if width <= 0 {
		return nil
	}
	text = runewidth.Truncate(text, width, "…")
	pad := width - runewidth.StringWidth(text)
	var lead int
	switch align {
	case AlignCenter:
		lead = pad / 2
	case AlignRight:
		lead = pad
	}
	line := texel.StyledLine(strings.Repeat(" ", lead), style).Append(text, style)
	return fit(line, width, style)
}
