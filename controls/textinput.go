// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/textinput.go
// Summary: Single-line editable text field that owns the terminal cursor.

package controls

import (
	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// TextInput edits one line of text. The view scrolls horizontally to keep
// the caret visible.
type TextInput struct {
	Base
	Prompt      string
	Placeholder string
	Style       tcell.Style
	OnSubmit    func(text string)
	OnChange    func(text string)

	value  []rune
	caret  int
	offset int
	width  int
}

// NewTextInput creates an empty input with an optional prompt.
func NewTextInput(prompt string) *TextInput {
	return &TextInput{Prompt: prompt}
}

// Text returns the current value.
func (t *TextInput) Text() string {
	return string(t.value)
}

// SetText replaces the value and moves the caret to its end.
func (t *TextInput) SetText(text string) {
	t.value = []rune(text)
	t.caret = len(t.value)
}

// Caret returns the caret position in runes.
func (t *TextInput) Caret() int {
	return t.caret
}

func (t *TextInput) fieldWidth() int {
	return max(t.width-runewidth.StringWidth(t.Prompt), 1)
}

// caretColumn is the display column of the caret within the value.
func (t *TextInput) caretColumn() int {
	return runewidth.StringWidth(string(t.value[:t.caret]))
}

func (t *TextInput) ensureVisible() {
	col := t.caretColumn()
	fw := t.fieldWidth()
	if col < t.offset {
		t.offset = col
	}
	if col >= t.offset+fw {
		t.offset = col - fw + 1
	}
}

func (t *TextInput) Render(width, height int) []texel.Line {
	t.width = width
	t.ensureVisible()
	style := t.Style
	fieldStyle := style.Underline(true)
	if t.focused {
		fieldStyle = fieldStyle.Bold(true)
	}
	line := texel.StyledLine(t.Prompt, style)
	field := texel.StyledLine(string(t.value), fieldStyle)
	if len(t.value) == 0 && !t.focused && t.Placeholder != "" {
		field = texel.StyledLine(t.Placeholder, style.Dim(true))
	}
	fw := t.fieldWidth()
	line = append(line, field.Slice(t.offset, t.offset+fw).Pad(fw, fieldStyle)...)
	return []texel.Line{fit(line, width, style)}
}

func (t *TextInput) CursorPosition() (int, int, bool) {
	if !t.focused {
		return 0, 0, false
	}
	x := runewidth.StringWidth(t.Prompt) + t.caretColumn() - t.offset
	return x, 0, true
}

func (t *TextInput) ProcessKey(ev *tcell.EventKey) bool {
	changed := false
	switch ev.Key() {
	case tcell.KeyLeft:
		if t.caret == 0 {
			return false
		}
		t.caret--
	case tcell.KeyRight:
		if t.caret == len(t.value) {
			return false
		}
		t.caret++
	case tcell.KeyHome:
		t.caret = 0
	case tcell.KeyEnd:
		t.caret = len(t.value)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if t.caret == 0 {
			return true
		}
		t.value = append(t.value[:t.caret-1], t.value[t.caret:]...)
		t.caret--
		changed = true
	case tcell.KeyDelete:
		if t.caret >= len(t.value) {
			return true
		}
		t.value = append(t.value[:t.caret], t.value[t.caret+1:]...)
		changed = true
	case tcell.KeyCtrlU:
		t.value = t.value[t.caret:]
		t.caret = 0
		changed = true
	case tcell.KeyEnter:
		if t.OnSubmit != nil {
			t.OnSubmit(string(t.value))
		}
	case tcell.KeyRune:
		r := ev.Rune()
		t.value = append(t.value[:t.caret], append([]rune{r}, t.value[t.caret:]...)...)
		t.caret++
		changed = true
	default:
		return false
	}
	if changed && t.OnChange != nil {
		t.OnChange(string(t.value))
	}
	if t.width > 0 {
		t.ensureVisible()
	}
	return true
}

func (t *TextInput) WantsMouseEvents() bool { return true }

// ProcessMouseEvent moves the caret to the clicked column.
func (t *TextInput) ProcessMouseEvent(ev texel.MouseEvent) bool {
	col := ev.X - runewidth.StringWidth(t.Prompt) + t.offset
	if col < 0 {
		return false
	}
	t.caret = len(t.value)
	w := 0
	for i, r := range t.value {
		if w >= col {
			t.caret = i
			break
		}
		w += runewidth.RuneWidth(r)
	}
	return true
}
