// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/surface.go
// Summary: Serialized write path to the screen driver.
// Usage: Every cell written to the terminal goes through a Surface.

package texel

import (
	"sync"

	"github.com/framegrace/texeldesk/geom"
	"github.com/gdamore/tcell/v2"
)

// Surface serializes writes to a ScreenDriver and clips them to the screen.
// Interleaved writes from different goroutines would corrupt the terminal's
// escape sequences, so all writers share the one lock.
type Surface struct {
	mu      sync.Mutex
	driver  ScreenDriver
	bounds  geom.Rect
	written int
}

// NewSurface wraps driver and reads its current size.
func NewSurface(driver ScreenDriver) *Surface {
	s := &Surface{driver: driver}
	s.Resize()
	return s
}

// Resize re-reads the screen size from the driver.
func (s *Surface) Resize() geom.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.driver.Size()
	s.bounds = geom.NewRect(0, 0, w, h)
	return s.bounds
}

// Bounds returns the screen rectangle.
func (s *Surface) Bounds() geom.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *Surface) setLocked(x, y int, ch rune, style tcell.Style) {
	if !s.bounds.Contains(x, y) {
		return
	}
	s.driver.SetContent(x, y, ch, nil, style)
	s.written++
}

// SetCell writes a single cell.
func (s *Surface) SetCell(x, y int, ch rune, style tcell.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(x, y, ch, style)
}

// WriteLine writes line starting at (x, y). Continuation cells of wide runes
// are skipped; the driver renders the glyph across both columns.
func (s *Surface) WriteLine(x, y int, line Line) {
	if len(line) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range line {
		if c.Ch == 0 {
			continue
		}
		s.setLocked(x+i, y, c.Ch, c.Style)
	}
}

// Fill paints every cell of r with ch.
func (s *Surface) Fill(r geom.Rect, ch rune, style tcell.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = r.Intersect(s.bounds)
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			s.setLocked(x, y, ch, style)
		}
	}
}

// Clear wipes the whole screen.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.Clear()
}

// ShowCursor places the terminal cursor.
func (s *Surface) ShowCursor(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.ShowCursor(x, y)
}

// HideCursor hides the terminal cursor.
func (s *Surface) HideCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.HideCursor()
}

// Flush pushes pending cells to the terminal and returns how many cells were
// written since the previous flush.
func (s *Surface) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.Show()
	n := s.written
	s.written = 0
	return n
}

// Sync forces a full redraw of the physical terminal.
func (s *Surface) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.Sync()
}
