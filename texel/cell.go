// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/cell.go
// Summary: Styled cells and pre-formatted lines produced by window content.

package texel

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Cell is one terminal cell. A Cell with Ch == 0 is the trailing half of a
// double-width rune and is never written on its own.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Line is a pre-formatted row of cells; one entry per terminal column.
type Line []Cell

// StyledLine converts text into a Line using a single style. Zero-width runes
// are dropped and wide runes occupy two columns.
func StyledLine(text string, style tcell.Style) Line {
	line := make(Line, 0, len(text))
	for _, r := range text {
		switch runewidth.RuneWidth(r) {
		case 0:
			continue
		case 2:
			line = append(line, Cell{Ch: r, Style: style}, Cell{Ch: 0, Style: style})
		default:
			line = append(line, Cell{Ch: r, Style: style})
		}
	}
	return line
}

// Append adds text in the given style to the end of l.
func (l Line) Append(text string, style tcell.Style) Line {
	return append(l, StyledLine(text, style)...)
}

// Width returns the number of columns the line spans.
func (l Line) Width() int {
	return len(l)
}

// Slice returns columns [from, to) of the line. Wide runes split by either
// edge are replaced by blanks so the result never leaks half a glyph.
func (l Line) Slice(from, to int) Line {
	if from < 0 {
		from = 0
	}
	if to > len(l) {
		to = len(l)
	}
	if from >= to {
		return nil
	}
	out := make(Line, to-from)
	copy(out, l[from:to])
	if out[0].Ch == 0 {
		out[0].Ch = ' '
	}
	last := len(out) - 1
	if out[last].Ch != 0 && runewidth.RuneWidth(out[last].Ch) == 2 {
		out[last].Ch = ' '
	}
	return out
}

// Pad extends or truncates the line to exactly width columns.
func (l Line) Pad(width int, style tcell.Style) Line {
	if len(l) >= width {
		return l.Slice(0, width)
	}
	out := make(Line, width)
	copy(out, l)
	for i := len(l); i < width; i++ {
		out[i] = Cell{Ch: ' ', Style: style}
	}
	return out
}

// String returns the printable text of the line.
func (l Line) String() string {
	var sb strings.Builder
	for _, c := range l {
		if c.Ch != 0 {
			sb.WriteRune(c.Ch)
		}
	}
	return sb.String()
}

// TextLines splits text on newlines and styles every row the same way.
func TextLines(text string, style tcell.Style) []Line {
	parts := strings.Split(text, "\n")
	lines := make([]Line, len(parts))
	for i, p := range parts {
		lines[i] = StyledLine(p, style)
	}
	return lines
}
