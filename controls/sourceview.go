// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/sourceview.go
// Summary: Read-only, syntax highlighted source listing.
// Usage: NewSourceView(name, content) detects the language from the file name
// and content, then tokenizes once; Render only slices the cached lines.

package controls

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/framegrace/texeldesk/texel"
	"github.com/gdamore/tcell/v2"
	"github.com/go-enry/go-enry/v2"
)

const defaultSourceStyle = "catppuccin-mocha"

// SourceView renders highlighted source code with a line-number gutter.
type SourceView struct {
	Base
	Name     string
	Language string
	Gutter   bool

	base  tcell.Style
	lines []texel.Line
}

// NewSourceView highlights content using the chroma style styleName (the
// default style when empty).
func NewSourceView(name string, content []byte, styleName string) *SourceView {
	v := &SourceView{Name: name, Gutter: true}
	v.Language = DetectLanguage(name, content)
	v.highlight(string(content), styleName)
	return v
}

// DetectLanguage guesses the language of a file from its name, shebang and
// content. It returns "" when nothing matches.
func DetectLanguage(name string, content []byte) string {
	if lang := enry.GetLanguage(name, content); lang != "" {
		return lang
	}
	if lang, ok := enry.GetLanguageByExtension(name); ok {
		return lang
	}
	return ""
}

func lexerFor(lang, name, text string) chroma.Lexer {
	if lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := lexers.Match(name); l != nil {
		return l
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}

func (v *SourceView) highlight(text, styleName string) {
	if styleName == "" {
		styleName = defaultSourceStyle
	}
	style := styles.Get(styleName)
	v.base = tokenStyle(style.Get(chroma.Text), tcell.StyleDefault)

	lexer := chroma.Coalesce(lexerFor(v.Language, v.Name, text))
	tokens, err := chroma.Tokenise(lexer, nil, text)
	if err != nil {
		v.lines = texel.TextLines(strings.TrimSuffix(text, "\n"), v.base)
		return
	}
	cur := texel.Line{}
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		ts := tokenStyle(style.Get(tok.Type), v.base)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				v.lines = append(v.lines, cur)
				cur = texel.Line{}
			}
			cur = cur.Append(strings.ReplaceAll(part, "\t", "    "), ts)
		}
	}
	if len(cur) > 0 {
		v.lines = append(v.lines, cur)
	}
}

func tokenStyle(entry chroma.StyleEntry, base tcell.Style) tcell.Style {
	s := base
	if entry.Colour.IsSet() {
		c := entry.Colour
		s = s.Foreground(tcell.NewRGBColor(int32(c.Red()), int32(c.Green()), int32(c.Blue())))
	}
	if entry.Bold == chroma.Yes {
		s = s.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		s = s.Underline(true)
	}
	return s
}

// LineCount returns the number of source lines.
func (v *SourceView) LineCount() int {
	return len(v.lines)
}

func (v *SourceView) Render(width, height int) []texel.Line {
	gutter := 0
	if v.Gutter {
		gutter = len(fmt.Sprint(len(v.lines))) + 1
	}
	numStyle := v.base.Dim(true)
	out := make([]texel.Line, len(v.lines))
	for i, src := range v.lines {
		var line texel.Line
		if gutter > 0 {
			line = texel.StyledLine(fmt.Sprintf("%*d ", gutter-1, i+1), numStyle)
		}
		line = append(line, src...)
		if width > 0 && line.Width() > width {
			line = line.Slice(0, width)
		}
		out[i] = line
	}
	return out
}
