// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/dispatcher.go
// Summary: Synchronous window event broadcasting.
// Usage: The registry publishes window lifecycle changes through an EventDispatcher.

package texel

import (
	"sync"

	"github.com/framegrace/texeldesk/geom"
)

// EventType defines the type of an event.
type EventType int

const (
	EventWindowAdded EventType = iota
	EventWindowActivated
	EventWindowDeactivated
	EventWindowClosed
	EventWindowMoved
	EventWindowResized
	EventWindowStateChanged
	EventWindowFlashed
)

func (t EventType) String() string {
	switch t {
	case EventWindowAdded:
		return "added"
	case EventWindowActivated:
		return "activated"
	case EventWindowDeactivated:
		return "deactivated"
	case EventWindowClosed:
		return "closed"
	case EventWindowMoved:
		return "moved"
	case EventWindowResized:
		return "resized"
	case EventWindowStateChanged:
		return "state-changed"
	case EventWindowFlashed:
		return "flashed"
	}
	return "unknown"
}

// Event represents a message passed through the system.
type Event struct {
	Type    EventType
	Window  *Window
	Payload interface{}
}

// GeometryPayload accompanies moved, resized and closed events with the
// footprint the window occupied before the change.
type GeometryPayload struct {
	Old geom.Rect
	New geom.Rect
}

// StatePayload accompanies EventWindowStateChanged.
type StatePayload struct {
	Old    WindowState
	New    WindowState
	Bounds geom.Rect
}

// ActivationPayload accompanies EventWindowActivated.
type ActivationPayload struct {
	Previous  *Window
	Requested *Window
}

// Listener is an interface that any component can implement to receive events.
type Listener interface {
	OnEvent(event Event)
}

// EventDispatcher manages a list of listeners and broadcasts events to them.
type EventDispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewEventDispatcher creates a new dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		listeners: make([]Listener, 0),
	}
}

// Subscribe adds a new listener to receive events.
func (d *EventDispatcher) Subscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Unsubscribe removes a listener.
func (d *EventDispatcher) Unsubscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, l := range d.listeners {
		if l == listener {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			break
		}
	}
}

// Broadcast sends an event to all subscribed listeners. Listeners run on the
// caller's goroutine and may themselves broadcast.
func (d *EventDispatcher) Broadcast(event Event) {
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}

var _ EventRouter = (*EventDispatcher)(nil)
