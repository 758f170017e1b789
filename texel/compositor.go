// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/compositor.go
// Summary: Paints windows into their visible regions only.
// Usage: The scheduler calls Compose once per frame; input handling calls
// RepaintExposed and RenderWindow directly while dragging.
// Notes: Every write is clipped to the visible regions of the window being
// painted, so a pass may paint windows in any subset as long as it goes
// bottom to top.

package texel

import (
	"time"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
)

// Compositor renders registry windows onto a Surface.
type Compositor struct {
	reg     *Registry
	surface *Surface
	opts    Options
}

// NewCompositor binds a compositor to a registry and surface.
func NewCompositor(reg *Registry, surface *Surface) *Compositor {
	return &Compositor{reg: reg, surface: surface, opts: reg.Options()}
}

// VisibleRegions returns the on-desktop parts of w not covered by any
// visible window above it.
func (c *Compositor) VisibleRegions(w *Window) []geom.Rect {
	bounds := w.bounds.Intersect(c.reg.Desktop())
	if bounds.Empty() {
		return nil
	}
	above := c.reg.Overlapping(w)
	cover := make([]geom.Rect, 0, len(above))
	for _, o := range above {
		cover = append(cover, o.bounds)
	}
	return geom.VisibleRegions(bounds, cover)
}

// RenderWindow repaints the whole visible part of w and clears its dirty
// flag. It reports whether anything was painted.
func (c *Compositor) RenderWindow(w *Window) bool {
	return c.render(w, nil)
}

// RenderRegion repaints the part of w inside rect. The dirty flag is left
// alone since the rest of the window may still be stale.
func (c *Compositor) RenderRegion(w *Window, rect geom.Rect) bool {
	return c.render(w, &rect)
}

func (c *Compositor) render(w *Window, clip *geom.Rect) bool {
	full := clip == nil
	if !w.registered {
		return false
	}
	if w.state == StateMinimized || !w.bounds.Intersects(c.reg.Desktop()) {
		if full {
			w.clearDirty()
		}
		return false
	}
	regions := c.VisibleRegions(w)
	if clip != nil {
		regions = geom.ClipAll(regions, *clip)
	}
	if len(regions) == 0 {
		if full {
			w.clearDirty()
		}
		return false
	}

	bg := c.background(w)
	for _, r := range regions {
		c.surface.Fill(r, ' ', bg)
	}

	// Cleared before reading content so a concurrent mutation re-dirties.
	if full {
		w.clearDirty()
	}
	cr := w.contentRect()
	lines := w.viewLines(max(cr.W, 0), max(cr.H, 0))

	c.drawFrame(w, regions, bg)
	for i, line := range lines {
		y := cr.Y + i
		for _, r := range regions {
			if y < r.Y || y >= r.Bottom() {
				continue
			}
			from := max(r.X, cr.X)
			to := min(r.Right(), cr.Right())
			if from >= to {
				continue
			}
			// A wide rune cut by a region edge is blanked on both sides,
			// since neither half can be drawn alone.
			c.surface.WriteLine(from, y, withBackground(line.Slice(from-cr.X, to-cr.X), bg))
		}
	}
	return true
}

func (c *Compositor) background(w *Window) tcell.Style {
	if w.flashLit() {
		return c.opts.FlashStyle
	}
	if w.style != tcell.StyleDefault {
		return w.style
	}
	return c.opts.WindowStyle
}

func (c *Compositor) frameStyle(w *Window) tcell.Style {
	switch {
	case w.flashLit():
		return c.opts.FlashStyle
	case w.Fault() != nil:
		return c.opts.ErrorStyle
	case w.active:
		return c.opts.ActiveBorderStyle
	}
	return c.opts.InactiveBorderStyle
}

// withBackground gives unstyled cells the window background.
func withBackground(line Line, bg tcell.Style) Line {
	for i := range line {
		if line[i].Style == tcell.StyleDefault {
			line[i].Style = bg
		}
	}
	return line
}

// drawFrame paints the title bar, side borders, scrollbar and bottom border,
// each clipped to regions.
func (c *Compositor) drawFrame(w *Window, regions []geom.Rect, bg tcell.Style) {
	b := w.bounds
	g := c.opts.Border.glyphs()
	style := c.frameStyle(w)

	c.writeRow(b, b.Y, c.titleRow(w, g, style), regions)
	if b.H > 1 {
		c.writeRow(b, b.Bottom()-1, c.bottomRow(w, g, style), regions)
	}

	thumbFrom, thumbTo := c.thumbSpan(w)
	for y := b.Y + 1; y < b.Bottom()-1; y++ {
		right := g.v
		rightStyle := style
		if row := y - b.Y - 1; row >= thumbFrom && row < thumbTo {
			right = g.thumb
			rightStyle = c.opts.ScrollbarStyle
			if w.flashLit() {
				rightStyle = style
			}
		}
		for _, r := range regions {
			if r.Contains(b.X, y) {
				c.surface.SetCell(b.X, y, g.v, style)
			}
			if b.W > 1 && r.Contains(b.Right()-1, y) {
				c.surface.SetCell(b.Right()-1, y, right, rightStyle)
			}
		}
	}
}

// writeRow writes the full-width frame row at screen row y, slicing it per
// region.
func (c *Compositor) writeRow(b geom.Rect, y int, line Line, regions []geom.Rect) {
	for _, r := range regions {
		if y < r.Y || y >= r.Bottom() {
			continue
		}
		from := max(r.X, b.X)
		to := min(r.Right(), b.Right())
		if from >= to {
			continue
		}
		c.surface.WriteLine(from, y, line.Slice(from-b.X, to-b.X))
	}
}

func (c *Compositor) titleRow(w *Window, g borderGlyphs, style tcell.Style) Line {
	width := w.bounds.W
	line := make(Line, width)
	for i := range line {
		line[i] = Cell{Ch: g.h, Style: style}
	}
	if width == 0 {
		return line
	}
	line[0].Ch = g.tl
	line[width-1].Ch = g.tr

	buttons := w.titleButtons()
	limit := width - CornerMargin
	if len(buttons) > 0 {
		limit = buttons[len(buttons)-1].start - 1
	}
	titleStyle := c.opts.TitleStyle
	if w.flashLit() {
		titleStyle = style
	}
	if w.active {
		titleStyle = titleStyle.Bold(true)
	}
	if avail, title := limit-CornerMargin, w.Title(); avail > 2 && title != "" {
		caption := StyledLine(" "+title+" ", titleStyle)
		if len(caption) > avail {
			caption = caption.Slice(0, avail)
		}
		copy(line[CornerMargin:], caption)
	}
	for _, btn := range buttons {
		copy(line[btn.start:], StyledLine(btn.glyph, style))
	}
	return line
}

func (c *Compositor) bottomRow(w *Window, g borderGlyphs, style tcell.Style) Line {
	width := w.bounds.W
	line := make(Line, width)
	for i := range line {
		line[i] = Cell{Ch: g.h, Style: style}
	}
	if width == 0 {
		return line
	}
	line[0].Ch = g.bl
	line[width-1].Ch = g.br
	if w.flags.Has(FlagResizable) && w.state != StateMaximized {
		line[width-1].Ch = g.grip
	}
	return line
}

// thumbSpan returns the rows of the right border, relative to the first
// content row, that show the scrollbar thumb. The span is empty when all
// content fits.
func (c *Compositor) thumbSpan(w *Window) (int, int) {
	content, view, offset := w.scrollMetrics()
	track := w.bounds.H - 2
	if content <= view || view <= 0 || track <= 0 {
		return 0, 0
	}
	size := max(track*view/content, 1)
	pos := 0
	if span := content - view; span > 0 {
		pos = (track - size) * offset / span
	}
	return pos, pos + size
}

// RepaintArea repaints rect from scratch: desktop background first, then
// every window intersecting it, bottom to top.
func (c *Compositor) RepaintArea(rect geom.Rect) {
	rect = rect.Intersect(c.reg.Desktop())
	if rect.Empty() {
		return
	}
	c.surface.Fill(rect, c.opts.DesktopRune, c.opts.DesktopStyle)
	for _, w := range c.reg.ZOrdered() {
		if w.state == StateMinimized || !w.bounds.Intersects(rect) {
			continue
		}
		c.RenderRegion(w, rect)
	}
}

// RepaintExposed repaints the part of old no longer covered by w.
func (c *Compositor) RepaintExposed(w *Window, old geom.Rect) {
	for _, r := range geom.ExposedRegions(old, w.bounds) {
		c.RepaintArea(r)
	}
}

// RepaintAll redraws the whole desktop and every window.
func (c *Compositor) RepaintAll() {
	c.surface.Fill(c.reg.Desktop(), c.opts.DesktopRune, c.opts.DesktopStyle)
	for _, w := range c.reg.ZOrdered() {
		c.RenderWindow(w)
	}
}

// Compose repaints every dirty window together with its overlap chain,
// bottom to top.
func (c *Compositor) Compose() FrameStats {
	start := time.Now()
	ordered := c.reg.ZOrdered()
	paint := make(map[WindowID]bool)
	stats := FrameStats{}
	for _, w := range ordered {
		if !w.IsDirty() {
			continue
		}
		stats.Dirty++
		if w.state == StateMinimized {
			w.clearDirty()
			continue
		}
		for _, o := range c.reg.OverlapChain(w) {
			paint[o.id] = true
		}
	}
	for _, w := range ordered {
		if paint[w.id] && c.RenderWindow(w) {
			stats.Windows++
		}
	}
	stats.Duration = time.Since(start)
	return stats
}
