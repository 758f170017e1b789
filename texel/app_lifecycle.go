// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/app_lifecycle.go
// Summary: Runs window background tasks and tracks them for shutdown.
// Usage: Desktop.StartTask launches a Task bound to a window's lifetime.

package texel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// ErrTaskRunning is returned when a window already has a live task.
var ErrTaskRunning = errors.New("texel: window already runs a task")

// Task is background work owned by a window. It must return once ctx is
// cancelled; the window is closed only after it does, or after the close
// grace period expires. Content updates go through Window.Mutate.
type Task func(ctx context.Context, w *Window) error

type taskState struct {
	cancel    context.CancelFunc
	done      chan struct{}
	abandoned bool
}

func (t *taskState) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// TaskLifecycle runs tasks in goroutines. Each task gets a context derived
// from the lifecycle's, so Shutdown cancels all of them at once.
type TaskLifecycle struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTaskLifecycle creates a lifecycle whose tasks inherit parent.
func NewTaskLifecycle(parent context.Context) *TaskLifecycle {
	ctx, cancel := context.WithCancel(parent)
	return &TaskLifecycle{ctx: ctx, cancel: cancel}
}

// Start launches task for w. A panic or a non-cancellation error turns the
// window into its error state instead of crashing the desktop.
func (l *TaskLifecycle) Start(w *Window, task Task) error {
	w.mu.Lock()
	if w.task != nil && !w.task.finished() {
		w.mu.Unlock()
		return ErrTaskRunning
	}
	ctx, cancel := context.WithCancel(l.ctx)
	state := &taskState{cancel: cancel, done: make(chan struct{})}
	w.task = state
	w.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer close(state.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Task: window %q panicked: %v\n%s", w.Title(), r, debug.Stack())
				w.SetFault(fmt.Errorf("panic: %v", r))
			}
		}()
		if err := task(ctx, w); err != nil && ctx.Err() == nil {
			w.SetFault(err)
		}
		w.MarkDirty()
	}()
	return nil
}

// Shutdown cancels every task.
func (l *TaskLifecycle) Shutdown() {
	l.cancel()
}

// Wait blocks until all started tasks have returned. Primarily useful for tests.
func (l *TaskLifecycle) Wait() {
	l.wg.Wait()
}

// TaskRunning reports whether the window's task is still executing.
func (w *Window) TaskRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.task != nil && !w.task.finished()
}

// TaskDone returns a channel closed when the current task returns. It is nil
// when no task was ever started.
func (w *Window) TaskDone() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.task == nil {
		return nil
	}
	return w.task.done
}

// stopTask cancels the task and reports whether it is still running.
func (w *Window) stopTask() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.task == nil {
		return false
	}
	w.task.cancel()
	return !w.task.finished()
}

func (w *Window) markTaskAbandoned() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.task != nil {
		w.task.abandoned = true
	}
}

func (w *Window) taskAbandoned() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.task != nil && w.task.abandoned
}
