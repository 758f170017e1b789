// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/flash.go
// Summary: Clock-driven attention flash for windows.
// Usage: Registry.Flash starts it; the scheduler advances it every step.

package texel

import "time"

// flashState alternates a window between its flash style and its normal
// style. Phases are derived from the clock so a stalled loop never leaves a
// window stuck in the lit phase.
type flashState struct {
	start    time.Time
	until    time.Time
	interval time.Duration
	lit      bool
}

func (f *flashState) active() bool {
	return !f.until.IsZero()
}

func (f *flashState) phase(now time.Time) bool {
	if !f.active() || !now.Before(f.until) || f.interval <= 0 {
		return false
	}
	return (now.Sub(f.start)/f.interval)%2 == 0
}

// startFlash begins count on/off cycles.
func (w *Window) startFlash(now time.Time, count int, interval time.Duration) {
	w.flash = flashState{
		start:    now,
		until:    now.Add(time.Duration(2*count) * interval),
		interval: interval,
		lit:      true,
	}
	w.MarkDirty()
}

// Flashing reports whether a flash sequence is in progress.
func (w *Window) Flashing() bool {
	return w.flash.active()
}

// flashLit reports whether the window should currently use the flash style.
func (w *Window) flashLit() bool {
	return w.flash.lit
}

// tickFlash advances the flash and marks the window dirty on each phase change.
func (w *Window) tickFlash(now time.Time) bool {
	if !w.flash.active() {
		return false
	}
	was := w.flash.lit
	on := w.flash.phase(now)
	if !now.Before(w.flash.until) {
		w.flash = flashState{}
	}
	if on == was {
		return false
	}
	w.flash.lit = on
	w.MarkDirty()
	return true
}
