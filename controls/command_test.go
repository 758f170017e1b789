package controls

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/geom"
	"github.com/framegrace/texeldesk/texel"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandTaskStreamsOutput(t *testing.T) {
	requireShell(t)
	out := NewLogView(100)
	w := texel.NewWindow("cmd", geom.NewRect(0, 0, 40, 10))
	w.AddControl(out)

	task := Command{Name: "sh", Args: []string{"-c", "echo hello; echo world"}}.Task(out)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := task(ctx, w); err != nil {
		t.Fatalf("task failed: %v", err)
	}

	var lines []string
	w.Mutate(func() { lines = out.Lines() })
	joined := strings.Join(lines, "|")
	if !strings.Contains(joined, "hello|world") || !strings.HasSuffix(joined, "[process exited]") {
		t.Fatalf("unexpected output %q", joined)
	}
	if !w.IsDirty() {
		t.Fatal("output should dirty the window")
	}
}

func TestCommandTaskReportsExitStatus(t *testing.T) {
	requireShell(t)
	out := NewLogView(100)
	w := texel.NewWindow("cmd", geom.NewRect(0, 0, 40, 10))
	task := Command{Name: "sh", Args: []string{"-c", "exit 3"}}.Task(out)
	err := task(context.Background(), w)
	if err == nil || !strings.Contains(err.Error(), "status 3") {
		t.Fatalf("expected exit status error, got %v", err)
	}
}

func TestCommandTaskStopsOnCancel(t *testing.T) {
	requireShell(t)
	out := NewLogView(100)
	w := texel.NewWindow("cmd", geom.NewRect(0, 0, 40, 10))
	task := Command{Name: "sh", Args: []string{"-c", "exec sleep 30"}}.Task(out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task(ctx, w) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("task ignored cancellation")
	}
}

func TestCommandTaskMissingBinary(t *testing.T) {
	out := NewLogView(10)
	w := texel.NewWindow("cmd", geom.NewRect(0, 0, 40, 10))
	err := Command{Name: "definitely-not-a-real-binary"}.Task(out)(context.Background(), w)
	if err == nil {
		t.Fatal("expected start error")
	}
}
