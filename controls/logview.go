// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/logview.go
// Summary: Append-only text buffer, typically fed by a background task.
// Usage: Mutate the owning window around Write/AppendLine so the new lines
// are laid out on the next frame.

package controls

import (
	"strings"

	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// DefaultLogLines bounds a LogView created without an explicit limit.
const DefaultLogLines = 5000

// LogView shows the most recent lines written to it. Terminal escape
// sequences are stripped; carriage returns rewrite the current line.
type LogView struct {
	Base
	Style    tcell.Style
	MaxLines int
	Wrap     bool

	lines   []string
	partial []rune
	cr      bool
	esc     escState
}

// NewLogView creates a log view keeping at most maxLines lines.
func NewLogView(maxLines int) *LogView {
	if maxLines <= 0 {
		maxLines = DefaultLogLines
	}
	return &LogView{MaxLines: maxLines}
}

// Write appends raw output. Incomplete trailing lines are kept pending and
// shown as the last line.
func (l *LogView) Write(p []byte) (int, error) {
	for _, r := range string(p) {
		if !l.esc.feed(r) {
			continue
		}
		switch r {
		case '\n':
			l.push(string(l.partial))
			l.partial = l.partial[:0]
			l.cr = false
		case '\r':
			l.cr = true
		case '\t':
			l.rewind()
			l.partial = append(l.partial, []rune("    ")...)
		case '\b':
			if n := len(l.partial); n > 0 {
				l.partial = l.partial[:n-1]
			}
		default:
			if r >= ' ' {
				l.rewind()
				l.partial = append(l.partial, r)
			}
		}
	}
	return len(p), nil
}

// rewind starts the pending line over after a bare carriage return.
func (l *LogView) rewind() {
	if l.cr {
		l.partial = l.partial[:0]
		l.cr = false
	}
}

// AppendLine adds a complete line.
func (l *LogView) AppendLine(text string) {
	for _, row := range strings.Split(text, "\n") {
		l.push(row)
	}
}

func (l *LogView) push(line string) {
	l.lines = append(l.lines, line)
	if over := len(l.lines) - l.MaxLines; l.MaxLines > 0 && over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
}

// Lines returns the completed lines.
func (l *LogView) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Clear drops every line.
func (l *LogView) Clear() {
	l.lines = nil
	l.partial = l.partial[:0]
	l.cr = false
}

func (l *LogView) Render(width, height int) []texel.Line {
	rows := l.lines
	if len(l.partial) > 0 {
		rows = append(rows[:len(rows):len(rows)], string(l.partial))
	}
	out := make([]texel.Line, 0, len(rows))
	for _, row := range rows {
		if l.Wrap && width > 0 && runewidth.StringWidth(row) > width {
			for _, part := range strings.Split(runewidth.Wrap(row, width), "\n") {
				out = append(out, texel.StyledLine(part, l.Style))
			}
			continue
		}
		line := texel.StyledLine(row, l.Style)
		if width > 0 && line.Width() > width {
			line = line.Slice(0, width)
		}
		out = append(out, line)
	}
	return out
}

// escState drops ANSI CSI and OSC sequences from a rune stream.
type escState int

const (
	escNone escState = iota
	escStart
	escCSI
	escOSC
	escOSCEnd
)

// feed consumes r and reports whether it is printable text.
func (s *escState) feed(r rune) bool {
	switch *s {
	case escStart:
		switch r {
		case '[':
			*s = escCSI
		case ']':
			*s = escOSC
		default:
			*s = escNone
		}
		return false
	case escCSI:
		if r >= 0x40 && r <= 0x7e {
			*s = escNone
		}
		return false
	case escOSC:
		switch r {
		case 0x07:
			*s = escNone
		case 0x1b:
			*s = escOSCEnd
		}
		return false
	case escOSCEnd:
		*s = escNone
		return false
	}
	if r == 0x1b {
		*s = escStart
		return false
	}
	return true
}
