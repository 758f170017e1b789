// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: controls/command.go
// Summary: Window task streaming a command's pseudo-terminal output into a LogView.
// Usage: desktop.StartTask(win, controls.Command{Name: "top"}.Task(logView))

package controls

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"github.com/framegrace/texeldesk/texel"
)

// Command describes a process run under a pseudo-terminal.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
	Cols int
	Rows int
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Name, c.Args)
}

// Task returns a window task that runs the command and appends its output to
// out. Cancelling the task kills the process.
func (c Command) Task(out *LogView) texel.Task {
	return func(ctx context.Context, w *texel.Window) error {
		cmd := exec.Command(c.Name, c.Args...)
		cmd.Dir = c.Dir
		cmd.Env = append(os.Environ(), "TERM=dumb")
		cmd.Env = append(cmd.Env, c.Env...)

		cols, rows := c.Cols, c.Rows
		if cols <= 0 {
			cols = 80
		}
		if rows <= 0 {
			rows = 24
		}
		ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
		if err != nil {
			return fmt.Errorf("start %s: %w", c.Name, err)
		}
		log.Printf("Command: started %s (pid %d)", c, cmd.Process.Pid)

		copied := make(chan struct{})
		go func() {
			defer close(copied)
			buf := make([]byte, 4096)
			for {
				n, err := ptmx.Read(buf)
				if n > 0 {
					chunk := append([]byte(nil), buf[:n]...)
					w.Mutate(func() { out.Write(chunk) })
				}
				if err != nil {
					return
				}
			}
		}()

		// The child leads its own session; kill the whole group so
		// grandchildren release the terminal too.
		stop := context.AfterFunc(ctx, func() {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			ptmx.Close()
		})
		defer stop()

		<-copied
		waitErr := cmd.Wait()
		ptmx.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		switch {
		case waitErr == nil:
			w.Mutate(func() { out.AppendLine("[process exited]") })
			return nil
		case errors.As(waitErr, &exitErr):
			return fmt.Errorf("%s exited with status %d", c.Name, exitErr.ExitCode())
		}
		return fmt.Errorf("wait %s: %w", c.Name, waitErr)
	}
}
