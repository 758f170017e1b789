package texel

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/geom"
)

func newTestRegistry(t *testing.T) (*Registry, *testClock) {
	t.Helper()
	clock := newTestClock()
	return NewRegistry(geom.NewRect(0, 0, 80, 24), testOptions(clock)), clock
}

func countActive(r *Registry) int {
	n := 0
	for _, w := range r.Windows() {
		if w.IsActive() {
			n++
		}
	}
	return n
}

func TestRegistryAddAssignsIncreasingZ(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(5, 2, 10, 5))
	r.Add(a, true)
	r.Add(b, true)

	if b.Z() <= a.Z() {
		t.Fatalf("later window must be above: a=%d b=%d", a.Z(), b.Z())
	}
	if r.Active() != b || !b.IsActive() || a.IsActive() {
		t.Fatalf("expected b active only, a=%v b=%v", a.IsActive(), b.IsActive())
	}
	if b.CreationOrder() <= a.CreationOrder() {
		t.Fatal("creation order must increase")
	}

	r.Activate(a)
	if a.Z() <= b.Z() {
		t.Fatalf("activation must raise the window: a=%d b=%d", a.Z(), b.Z())
	}
}

func TestRegistryAddWithoutActivate(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(5, 2, 10, 5))
	r.Add(a, false)
	if r.Active() != a {
		t.Fatal("first window must become active when nothing else is")
	}
	r.Add(b, false)
	if r.Active() != a {
		t.Fatal("adding without activate must keep the current active window")
	}
}

func TestRegistryActivateRedirectsToModalChild(t *testing.T) {
	r, _ := newTestRegistry(t)
	x := NewWindow("x", geom.NewRect(0, 0, 20, 10))
	y := NewWindow("y", geom.NewRect(30, 0, 20, 10))
	r.Add(x, true)
	m := NewWindow("m", geom.NewRect(5, 2, 10, 5), WithModal(x))
	r.Add(m, true)
	r.Add(y, true)

	if got := r.Activate(x); got != m {
		t.Fatalf("expected modal child to be activated, got %v", got.Title())
	}
	if !m.IsActive() || x.IsActive() {
		t.Fatal("parent must not become active while its modal is open")
	}
	if !m.Flashing() {
		t.Fatal("redirected activation should flash the modal")
	}
	z := m.Z()
	if got := r.Activate(x); got != m {
		t.Fatalf("repeat activation returned %v", got.Title())
	}
	if m.Z() != z || countActive(r) != 1 {
		t.Fatalf("repeat activation must be idempotent, z %d -> %d", z, m.Z())
	}
	if m.Z() <= x.Z() {
		t.Fatal("modal must stay above its parent")
	}
}

func TestRegistryActivatePrefersDeepestModal(t *testing.T) {
	r, _ := newTestRegistry(t)
	x := NewWindow("x", geom.NewRect(0, 0, 30, 12))
	r.Add(x, true)
	m1 := NewWindow("m1", geom.NewRect(2, 2, 20, 8), WithModal(x))
	r.Add(m1, true)
	m2 := NewWindow("m2", geom.NewRect(4, 3, 10, 5), WithModal(m1))
	r.Add(m2, true)

	if got := r.Activate(x); got != m2 {
		t.Fatalf("expected deepest modal, got %v", got.Title())
	}
	if got := r.Activate(m1); got != m2 {
		t.Fatalf("intermediate modal must redirect too, got %v", got.Title())
	}
}

func TestRegistryApplicationModalBlocksEverything(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 20, 10))
	b := NewWindow("b", geom.NewRect(30, 0, 20, 10))
	r.Add(a, true)
	r.Add(b, true)
	dlg := NewWindow("dialog", geom.NewRect(10, 5, 20, 6), WithModal(nil))
	r.Add(dlg, true)

	if got := r.Activate(a); got != dlg {
		t.Fatalf("application modal must block a, got %v", got.Title())
	}
	if a.IsActive() || !dlg.IsActive() {
		t.Fatal("blocked window became active")
	}
	if !r.Close(dlg, true) {
		t.Fatal("closing the dialog failed")
	}
	if got := r.Activate(a); got != a {
		t.Fatalf("after the dialog closed a must activate, got %v", got.Title())
	}
}

func TestRegistrySingleActiveWindowProperty(t *testing.T) {
	r, _ := newTestRegistry(t)
	rng := rand.New(rand.NewSource(7))
	controls := make(map[*Window]*focusControl)

	for step := 0; step < 400; step++ {
		ws := r.Windows()
		switch op := rng.Intn(6); {
		case op == 0 || len(ws) == 0:
			w := NewWindow("w", geom.NewRect(rng.Intn(60), rng.Intn(18), 10+rng.Intn(10), 4+rng.Intn(4)))
			fc := newFocusControl("field")
			w.AddControl(fc)
			controls[w] = fc
			r.Add(w, rng.Intn(2) == 0)
		case op == 1:
			parent := ws[rng.Intn(len(ws))]
			m := NewWindow("modal", geom.NewRect(rng.Intn(60), rng.Intn(18), 12, 5), WithModal(parent))
			r.Add(m, true)
		case op == 2:
			r.Activate(ws[rng.Intn(len(ws))])
		case op == 3:
			w := ws[rng.Intn(len(ws))]
			r.Close(w, rng.Intn(2) == 0)
			delete(controls, w)
		case op == 4:
			r.Minimize(ws[rng.Intn(len(ws))])
		case op == 5:
			r.CycleActive()
		}

		visible := 0
		for _, w := range r.Windows() {
			if w.State() != StateMinimized {
				visible++
			}
		}
		active := countActive(r)
		if visible > 0 && active != 1 {
			t.Fatalf("step %d: %d visible windows but %d active", step, visible, active)
		}
		if visible == 0 && active != 0 {
			t.Fatalf("step %d: no visible windows but %d active", step, active)
		}
		if a := r.Active(); a != nil && a.State() == StateMinimized {
			t.Fatalf("step %d: minimized window is active", step)
		}
		for w, fc := range controls {
			if fc.HasFocus() && !w.IsActive() {
				t.Fatalf("step %d: inactive window %v reports a focused control", step, w.Bounds())
			}
		}
	}
}

func TestRegistryCloseRefusedByHook(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(5, 2, 10, 5), WithClosingHook(func(*Window) bool { return false }))
	r.Add(a, true)
	r.Add(b, true)

	if r.Close(b, true) {
		t.Fatal("close should have been refused")
	}
	if !b.IsRegistered() || r.Active() != b || r.Len() != 2 {
		t.Fatal("refused close must not change any state")
	}
}

func TestRegistryCloseActivatesParentOrTopmost(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	x := NewWindow("x", geom.NewRect(20, 0, 20, 10))
	r.Add(x, true)
	r.Add(a, true)
	m := NewWindow("m", geom.NewRect(22, 2, 12, 5), WithModal(x))
	r.Add(m, true)

	if !r.Close(m, true) {
		t.Fatal("close failed")
	}
	if r.Active() != x {
		t.Fatalf("expected parent to be activated, got %v", r.Active().Title())
	}
	if !r.Close(x, true) {
		t.Fatal("close failed")
	}
	if r.Active() != a {
		t.Fatal("expected the remaining window to be activated")
	}
}

func TestRegistryCloseParentClosesModalChildren(t *testing.T) {
	r, _ := newTestRegistry(t)
	x := NewWindow("x", geom.NewRect(0, 0, 20, 10))
	r.Add(x, true)
	m := NewWindow("m", geom.NewRect(2, 2, 12, 5), WithModal(x))
	r.Add(m, true)

	var closed []string
	r.Subscribe(&recordingListener{fn: func(ev Event) {
		if ev.Type == EventWindowClosed {
			closed = append(closed, ev.Window.Title())
		}
	}})
	if !r.Close(x, true) {
		t.Fatal("close failed")
	}
	if r.Len() != 0 || len(closed) != 2 || closed[0] != "m" {
		t.Fatalf("expected modal then parent to close, got %v", closed)
	}
	if r.Active() != nil {
		t.Fatal("empty registry must have no active window")
	}
}

func TestRegistryCloseRefusedByModalChildChangesNothing(t *testing.T) {
	r, _ := newTestRegistry(t)
	p := NewWindow("p", geom.NewRect(0, 0, 30, 12))
	r.Add(p, true)
	a := NewWindow("a", geom.NewRect(2, 2, 12, 5), WithModal(p),
		WithClosingHook(func(*Window) bool { return false }))
	r.Add(a, true)
	asked := 0
	b := NewWindow("b", geom.NewRect(4, 4, 12, 5), WithModal(p),
		WithClosingHook(func(*Window) bool { asked++; return true }))
	r.Add(b, true)

	var closed int
	r.Subscribe(&recordingListener{fn: func(ev Event) {
		if ev.Type == EventWindowClosed {
			closed++
		}
	}})
	if r.Close(p, true) {
		t.Fatal("close should be refused by the modal child hook")
	}
	if r.Len() != 3 || closed != 0 {
		t.Fatalf("refused close removed windows: len=%d closed=%d", r.Len(), closed)
	}
	for _, w := range []*Window{p, a, b} {
		if !w.IsRegistered() || r.Closing(w) {
			t.Fatalf("%s must stay registered and not closing", w.Title())
		}
	}
	if asked > 1 {
		t.Fatalf("agreeing hook asked %d times", asked)
	}
}

func TestRegistryCloseParentWaitsForModalChildTask(t *testing.T) {
	r, _ := newTestRegistry(t)
	lc := NewTaskLifecycle(context.Background())
	p := NewWindow("p", geom.NewRect(0, 0, 30, 12))
	r.Add(p, true)
	m := NewWindow("m", geom.NewRect(2, 2, 12, 5), WithModal(p))
	r.Add(m, true)

	release := make(chan struct{})
	if err := lc.Start(m, func(ctx context.Context, w *Window) error {
		<-ctx.Done()
		<-release
		return ctx.Err()
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if !r.Close(p, true) {
		t.Fatal("close should be accepted")
	}
	if !p.IsRegistered() || !r.Closing(p) {
		t.Fatal("parent must stay registered while its modal child is closing")
	}
	if !m.IsRegistered() || !r.Closing(m) {
		t.Fatal("modal child must wait for its task")
	}
	if r.Reap(time.Now()) != 0 {
		t.Fatal("nothing should be reaped while the child task runs")
	}

	close(release)
	<-m.TaskDone()
	if n := r.Reap(time.Now()); n != 2 {
		t.Fatalf("expected child and parent to be reaped together, got %d", n)
	}
	if p.IsRegistered() || m.IsRegistered() || r.Len() != 0 {
		t.Fatal("both windows should be gone")
	}
}

type recordingListener struct {
	fn func(Event)
}

func (l *recordingListener) OnEvent(ev Event) { l.fn(ev) }

func TestRegistryCloseWaitsForTask(t *testing.T) {
	r, _ := newTestRegistry(t)
	lc := NewTaskLifecycle(context.Background())
	w := NewWindow("worker", geom.NewRect(0, 0, 20, 8))
	r.Add(w, true)

	release := make(chan struct{})
	if err := lc.Start(w, func(ctx context.Context, w *Window) error {
		<-ctx.Done()
		<-release
		return ctx.Err()
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if !r.Close(w, true) {
		t.Fatal("close should be accepted")
	}
	if !w.IsRegistered() || !r.Closing(w) {
		t.Fatal("window must stay registered while its task runs")
	}
	if r.Reap(time.Now()) != 0 {
		t.Fatal("nothing should be reaped while the task runs")
	}

	close(release)
	<-w.TaskDone()
	if r.Reap(time.Now()) != 1 || w.IsRegistered() {
		t.Fatal("window should be removed once its task returned")
	}
	if w.Fault() != nil {
		t.Fatalf("cancellation must not fault the window: %v", w.Fault())
	}
}

func TestRegistryCloseGraceExpiry(t *testing.T) {
	r, clock := newTestRegistry(t)
	lc := NewTaskLifecycle(context.Background())
	w := NewWindow("stuck", geom.NewRect(0, 0, 20, 8))
	r.Add(w, true)

	block := make(chan struct{})
	defer lc.Wait()
	defer close(block)
	if err := lc.Start(w, func(ctx context.Context, w *Window) error {
		<-block
		return nil
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.Close(w, true)
	clock.Advance(r.Options().CloseGrace + time.Millisecond)
	r.Reap(clock.Now())

	if !w.IsRegistered() {
		t.Fatal("window must remain on screen in its error state")
	}
	if w.Fault() == nil {
		t.Fatal("expected the window to show a fault after the grace period")
	}
	if !r.Close(w, true) || w.IsRegistered() {
		t.Fatal("closing an abandoned window should remove it immediately")
	}
}

func TestRegistryWindowAtAndOverlapChain(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(8, 3, 10, 5))
	c := NewWindow("c", geom.NewRect(16, 6, 10, 5))
	d := NewWindow("d", geom.NewRect(40, 15, 6, 5))
	for _, w := range []*Window{a, b, c, d} {
		r.Add(w, true)
	}

	if got := r.WindowAt(9, 4); got != b {
		t.Fatalf("expected b on top, got %v", got)
	}
	if got := r.WindowAt(79, 23); got != nil {
		t.Fatalf("expected no window, got %v", got.Title())
	}
	chain := r.OverlapChain(a)
	if len(chain) != 3 || chain[0] != a || chain[1] != b || chain[2] != c {
		t.Fatalf("unexpected overlap chain %v", titles(chain))
	}

	r.Minimize(b)
	if got := r.WindowAt(9, 4); got != a {
		t.Fatalf("minimized windows must be ignored, got %v", got)
	}
	if chain := r.OverlapChain(a); len(chain) != 1 {
		t.Fatalf("chain must skip minimized windows, got %v", titles(chain))
	}
}

func titles(ws []*Window) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Title()
	}
	return out
}

func TestRegistryMaximizeRestoreMinimize(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(5, 5, 20, 8))
	r.Add(a, true)
	r.Add(b, true)

	if !r.Maximize(b) || b.Bounds() != r.Desktop() || b.State() != StateMaximized {
		t.Fatalf("maximize failed: %v %v", b.Bounds(), b.State())
	}
	if r.SetBounds(b, geom.NewRect(1, 1, 10, 10)) {
		t.Fatal("maximized windows cannot be moved")
	}
	if !r.Restore(b) || b.Bounds() != geom.NewRect(5, 5, 20, 8) {
		t.Fatalf("restore returned to %v", b.Bounds())
	}
	if !r.Minimize(b) || r.Active() != a {
		t.Fatal("minimizing the active window should activate the next one")
	}
	if got := r.Activate(b); got != b || b.State() != StateNormal {
		t.Fatal("activating a minimized window restores it")
	}
}

func TestRegistryMinimizeRefusedForModals(t *testing.T) {
	r, _ := newTestRegistry(t)
	x := NewWindow("x", geom.NewRect(0, 0, 20, 10))
	r.Add(x, true)
	m := NewWindow("m", geom.NewRect(2, 2, 12, 5), WithModal(x))
	r.Add(m, true)
	if r.Minimize(m) || r.Minimize(x) {
		t.Fatal("modal windows and their parents cannot be minimized")
	}
}

func TestRegistrySetBoundsClamps(t *testing.T) {
	r, _ := newTestRegistry(t)
	w := NewWindow("w", geom.NewRect(0, 0, 10, 5))
	r.Add(w, true)

	r.SetBounds(w, geom.NewRect(75, 22, 10, 5))
	if got := w.Bounds(); got != geom.NewRect(70, 19, 10, 5) {
		t.Fatalf("expected clamp into desktop, got %v", got)
	}
	r.SetBounds(w, geom.NewRect(3, 3, 1, 1))
	if got := w.Bounds(); got.W != 5 || got.H != 3 {
		t.Fatalf("expected minimum size, got %v", got)
	}
	r.SetBounds(w, geom.NewRect(-5, -5, 200, 200))
	if got := w.Bounds(); got != r.Desktop() {
		t.Fatalf("expected desktop-sized window, got %v", got)
	}
}

func TestRegistrySetBoundsBroadcasts(t *testing.T) {
	r, _ := newTestRegistry(t)
	w := NewWindow("w", geom.NewRect(0, 0, 10, 5))
	r.Add(w, true)
	var got []EventType
	r.Subscribe(&recordingListener{fn: func(ev Event) { got = append(got, ev.Type) }})

	r.SetBounds(w, geom.NewRect(2, 2, 12, 5))
	if len(got) != 2 || got[0] != EventWindowResized || got[1] != EventWindowMoved {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestRegistryCycleActiveFollowsCreationOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := NewWindow("a", geom.NewRect(0, 0, 10, 5))
	b := NewWindow("b", geom.NewRect(20, 0, 10, 5))
	c := NewWindow("c", geom.NewRect(40, 0, 10, 5))
	for _, w := range []*Window{a, b, c} {
		r.Add(w, true)
	}
	if got := r.CycleActive(); got != a {
		t.Fatalf("expected a, got %v", got.Title())
	}
	if got := r.CycleActive(); got != b {
		t.Fatalf("expected b, got %v", got.Title())
	}
}

func TestTaskLifecycleRejectsSecondTask(t *testing.T) {
	lc := NewTaskLifecycle(context.Background())
	w := NewWindow("w", geom.NewRect(0, 0, 10, 5))
	stop := make(chan struct{})
	task := func(ctx context.Context, w *Window) error {
		<-stop
		return nil
	}
	if err := lc.Start(w, task); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := lc.Start(w, task); !errors.Is(err, ErrTaskRunning) {
		t.Fatalf("expected ErrTaskRunning, got %v", err)
	}
	close(stop)
	lc.Wait()
	if w.TaskRunning() {
		t.Fatal("task should have finished")
	}
}
