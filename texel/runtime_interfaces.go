// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/runtime_interfaces.go
// Summary: Collaborator contracts consumed by the desktop core.

package texel

import "github.com/gdamore/tcell/v2"

// ScreenDriver abstracts the terminal. It mirrors the subset of tcell.Screen
// the compositor needs so tests and remote front-ends can substitute their
// own implementation.
type ScreenDriver interface {
	Init() error
	Fini()
	Size() (int, int)
	SetStyle(style tcell.Style)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	ShowCursor(x, y int)
	HideCursor()
	Clear()
	Show()
	Sync()
	// PollEvent blocks for the next key, mouse or resize event. It returns
	// nil once the driver has been finalized.
	PollEvent() tcell.Event
}

// EventRouter exposes the subset of dispatcher behaviour the rest of the system
// relies on.
type EventRouter interface {
	Subscribe(listener Listener)
	Unsubscribe(listener Listener)
	Broadcast(event Event)
}

// FrameObserver receives statistics after every compositor pass.
type FrameObserver interface {
	ObserveFrame(stats FrameStats)
}
