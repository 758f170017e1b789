// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/options.go
// Summary: Already-resolved appearance and timing options for the desktop.

package texel

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// BorderStyle selects the glyph set used for window frames.
type BorderStyle int

const (
	BorderSingle BorderStyle = iota
	BorderDouble
	BorderRounded
	BorderASCII
)

type borderGlyphs struct {
	h, v           rune
	tl, tr, bl, br rune
	grip           rune
	thumb          rune
}

var borderSets = map[BorderStyle]borderGlyphs{
	BorderSingle:  {h: '─', v: '│', tl: '┌', tr: '┐', bl: '└', br: '┘', grip: '◢', thumb: '█'},
	BorderDouble:  {h: '═', v: '║', tl: '╔', tr: '╗', bl: '╚', br: '╝', grip: '◢', thumb: '█'},
	BorderRounded: {h: '─', v: '│', tl: '╭', tr: '╮', bl: '╰', br: '╯', grip: '◢', thumb: '█'},
	BorderASCII:   {h: '-', v: '|', tl: '+', tr: '+', bl: '+', br: '+', grip: '#', thumb: '#'},
}

func (b BorderStyle) glyphs() borderGlyphs {
	if g, ok := borderSets[b]; ok {
		return g
	}
	return borderSets[BorderSingle]
}

// ParseBorderStyle maps a configuration name to a BorderStyle.
func ParseBorderStyle(name string) (BorderStyle, bool) {
	switch name {
	case "single", "":
		return BorderSingle, true
	case "double":
		return BorderDouble, true
	case "rounded":
		return BorderRounded, true
	case "ascii":
		return BorderASCII, true
	}
	return BorderSingle, false
}

// Options carries resolved theme values and tuning knobs. Zero fields are
// replaced by DefaultOptions values.
type Options struct {
	DesktopStyle        tcell.Style
	DesktopRune         rune
	WindowStyle         tcell.Style
	ActiveBorderStyle   tcell.Style
	InactiveBorderStyle tcell.Style
	TitleStyle          tcell.Style
	FlashStyle          tcell.Style
	ScrollbarStyle      tcell.Style
	ErrorStyle          tcell.Style
	Border              BorderStyle

	MinWidth      int
	MinHeight     int
	DragThreshold int

	MinIdle time.Duration
	MaxIdle time.Duration
	// MaxFPS limits compositor passes per second; 0 paints whenever dirty.
	MaxFPS float64

	CloseGrace    time.Duration
	FlashCount    int
	FlashInterval time.Duration

	QuitKey  tcell.Key
	CycleKey tcell.Key

	// Now is the clock used for flashes and close deadlines.
	Now func() time.Time
}

// DefaultOptions returns the built-in theme and timings.
func DefaultOptions() Options {
	base := tcell.StyleDefault.Background(tcell.NewRGBColor(30, 30, 46)).Foreground(tcell.NewRGBColor(205, 214, 244))
	return Options{
		DesktopStyle:        tcell.StyleDefault.Background(tcell.NewRGBColor(17, 17, 27)).Foreground(tcell.NewRGBColor(49, 50, 68)),
		DesktopRune:         '░',
		WindowStyle:         base,
		ActiveBorderStyle:   base.Foreground(tcell.NewRGBColor(137, 180, 250)),
		InactiveBorderStyle: base.Foreground(tcell.NewRGBColor(88, 91, 112)),
		TitleStyle:          base.Foreground(tcell.NewRGBColor(245, 224, 220)),
		FlashStyle:          base.Background(tcell.NewRGBColor(243, 139, 168)),
		ScrollbarStyle:      base.Foreground(tcell.NewRGBColor(166, 173, 200)),
		ErrorStyle:          base.Foreground(tcell.NewRGBColor(243, 139, 168)),
		Border:              BorderSingle,
		MinWidth:            12,
		MinHeight:           3,
		DragThreshold:       1,
		MinIdle:             2 * time.Millisecond,
		MaxIdle:             100 * time.Millisecond,
		CloseGrace:          2 * time.Second,
		FlashCount:          3,
		FlashInterval:       80 * time.Millisecond,
		QuitKey:             tcell.KeyCtrlQ,
		CycleKey:            tcell.KeyCtrlA,
		Now:                 time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DesktopStyle == tcell.StyleDefault {
		o.DesktopStyle = def.DesktopStyle
	}
	if o.DesktopRune == 0 {
		o.DesktopRune = def.DesktopRune
	}
	if o.WindowStyle == tcell.StyleDefault {
		o.WindowStyle = def.WindowStyle
	}
	if o.ActiveBorderStyle == tcell.StyleDefault {
		o.ActiveBorderStyle = def.ActiveBorderStyle
	}
	if o.InactiveBorderStyle == tcell.StyleDefault {
		o.InactiveBorderStyle = def.InactiveBorderStyle
	}
	if o.TitleStyle == tcell.StyleDefault {
		o.TitleStyle = def.TitleStyle
	}
	if o.FlashStyle == tcell.StyleDefault {
		o.FlashStyle = def.FlashStyle
	}
	if o.ScrollbarStyle == tcell.StyleDefault {
		o.ScrollbarStyle = def.ScrollbarStyle
	}
	if o.ErrorStyle == tcell.StyleDefault {
		o.ErrorStyle = def.ErrorStyle
	}
	if o.MinWidth < 3 {
		o.MinWidth = def.MinWidth
	}
	if o.MinHeight < 3 {
		o.MinHeight = def.MinHeight
	}
	if o.DragThreshold < 0 {
		o.DragThreshold = def.DragThreshold
	}
	if o.MinIdle <= 0 {
		o.MinIdle = def.MinIdle
	}
	if o.MaxIdle < o.MinIdle {
		o.MaxIdle = max(def.MaxIdle, o.MinIdle)
	}
	if o.CloseGrace <= 0 {
		o.CloseGrace = def.CloseGrace
	}
	if o.FlashCount <= 0 {
		o.FlashCount = def.FlashCount
	}
	if o.FlashInterval <= 0 {
		o.FlashInterval = def.FlashInterval
	}
	if o.QuitKey == 0 {
		o.QuitKey = def.QuitKey
	}
	if o.CycleKey == 0 {
		o.CycleKey = def.CycleKey
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	return o
}
