package texel

import (
	"strings"
	"testing"

	"github.com/framegrace/texeldesk/geom"
)

func TestCompositorVisibleRegionsExcludeWindowsAbove(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	a := NewWindow("a", geom.NewRect(0, 0, 20, 10))
	b := NewWindow("b", geom.NewRect(10, 5, 20, 10))
	a.AddControl(&textControl{text: strings.Repeat("x", 40) + "\n" + strings.Repeat("y", 40)})
	d.AddWindow(a, true)
	d.AddWindow(b, true)
	d.Scheduler().Step()

	regions := d.Compositor().VisibleRegions(a)
	if got := geom.TotalArea(regions); got != 150 {
		t.Fatalf("expected 150 visible cells, got %d (%v)", got, regions)
	}

	driver.resetTouched()
	if !d.Compositor().RenderWindow(a) {
		t.Fatal("expected a to paint")
	}
	touched := driver.touchedCells()
	if len(touched) != 150 {
		t.Fatalf("expected 150 touched cells, got %d", len(touched))
	}
	for p := range touched {
		if p.X >= 10 && p.Y >= 5 {
			t.Fatalf("painted %v which is covered by b", p)
		}
		if !a.Bounds().Contains(p.X, p.Y) {
			t.Fatalf("painted %v outside a", p)
		}
	}
	if got := driver.runeAt(10, 5); got != '┌' {
		t.Fatalf("b's corner was overwritten, got %q", got)
	}
}

func TestCompositorFullyCoveredWindowPaintsNothing(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	var ws []*Window
	for _, title := range []string{"bottom", "middle", "top"} {
		w := NewWindow(title, geom.NewRect(4, 4, 20, 8))
		d.AddWindow(w, true)
		ws = append(ws, w)
	}
	d.Scheduler().Step()

	if regions := d.Compositor().VisibleRegions(ws[0]); len(regions) != 0 {
		t.Fatalf("expected no visible regions, got %v", regions)
	}
	ws[0].MarkDirty()
	driver.resetTouched()
	if d.Compositor().RenderWindow(ws[0]) {
		t.Fatal("covered window reported painting")
	}
	if n := len(driver.touchedCells()); n != 0 {
		t.Fatalf("covered window touched %d cells", n)
	}
	if ws[0].IsDirty() {
		t.Fatal("covered window should no longer be dirty")
	}
}

func TestCompositorDrawsFrameTitleAndButtons(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("Hello", geom.NewRect(2, 1, 30, 6))
	w.AddControl(&textControl{text: "content"})
	d.AddWindow(w, true)
	d.Scheduler().Step()

	checks := []struct {
		x, y int
		want rune
	}{
		{2, 1, '┌'},
		{31, 1, '┐'},
		{2, 6, '└'},
		{31, 6, '◢'},
		{2, 3, '│'},
		{5, 1, 'H'},
		{21, 1, '['},
		{22, 1, '_'},
		{25, 1, '^'},
		{27, 1, '['},
		{28, 1, 'x'},
		{29, 1, ']'},
		{30, 1, '─'},
		{3, 2, 'c'},
	}
	for _, c := range checks {
		if got := driver.runeAt(c.x, c.y); got != c.want {
			t.Fatalf("cell (%d,%d) = %q, want %q\nrow: %q", c.x, c.y, got, c.want, driver.row(c.y))
		}
	}
	if driver.styleAt(2, 1) != d.Options().ActiveBorderStyle {
		t.Fatal("active window should use the active border style")
	}
}

func TestCompositorInactiveBorderStyle(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	a := NewWindow("a", geom.NewRect(0, 0, 20, 6))
	b := NewWindow("b", geom.NewRect(30, 0, 20, 6))
	d.AddWindow(a, true)
	d.AddWindow(b, true)
	d.Scheduler().Step()

	if driver.styleAt(0, 0) != d.Options().InactiveBorderStyle {
		t.Fatal("inactive window should use the inactive border style")
	}
	if driver.styleAt(30, 0) != d.Options().ActiveBorderStyle {
		t.Fatal("active window should use the active border style")
	}
}

func TestCompositorScrollbarThumbFollowsOffset(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("log", geom.NewRect(0, 0, 20, 6))
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = string(rune('a' + i))
	}
	w.AddControl(&textControl{text: strings.Join(lines, "\n")})
	d.AddWindow(w, true)
	d.Scheduler().Step()

	thumb := d.Options().Border.glyphs().thumb
	if got := driver.runeAt(19, 1); got != thumb {
		t.Fatalf("expected thumb at the top, got %q", got)
	}
	if got := driver.runeAt(1, 1); got != 'a' {
		t.Fatalf("expected first line, got %q", got)
	}

	w.ScrollTo(100)
	if w.ScrollOffset() != 16 {
		t.Fatalf("scroll should clamp to 16, got %d", w.ScrollOffset())
	}
	d.Scheduler().Step()
	if got := driver.runeAt(19, 4); got != thumb {
		t.Fatalf("expected thumb at the bottom, got %q", got)
	}
	if got := driver.runeAt(19, 1); got != '│' {
		t.Fatalf("expected plain border above the thumb, got %q", got)
	}
	if got := driver.runeAt(1, 1); got != 'q' {
		t.Fatalf("expected scrolled content, got %q", got)
	}
}

func TestCompositorNoThumbWhenContentFits(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("short", geom.NewRect(0, 0, 20, 6))
	w.AddControl(&textControl{text: "one\ntwo"})
	d.AddWindow(w, true)
	d.Scheduler().Step()
	for y := 1; y < 5; y++ {
		if got := driver.runeAt(19, y); got != '│' {
			t.Fatalf("row %d: expected border, got %q", y, got)
		}
	}
}

func TestCompositorRenderRegionClips(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("w", geom.NewRect(0, 0, 20, 10))
	d.AddWindow(w, true)
	d.Scheduler().Step()

	clip := geom.NewRect(5, 2, 4, 3)
	w.MarkDirty()
	driver.resetTouched()
	if !d.Compositor().RenderRegion(w, clip) {
		t.Fatal("expected region to paint")
	}
	touched := driver.touchedCells()
	if len(touched) != clip.Area() {
		t.Fatalf("expected %d cells, got %d", clip.Area(), len(touched))
	}
	for p := range touched {
		if !clip.Contains(p.X, p.Y) {
			t.Fatalf("painted %v outside the clip", p)
		}
	}
	if !w.IsDirty() {
		t.Fatal("partial render must not clear the dirty flag")
	}
}

func TestCompositorRegionEdgeBlanksSplitWideRune(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("w", geom.NewRect(0, 0, 20, 6))
	w.AddControl(&textControl{text: "漢字漢字"})
	d.AddWindow(w, true)
	d.Scheduler().Step()

	// Content starts at column 1: 漢 spans 1-2, 字 spans 3-4.
	d.Surface().Clear()
	d.Compositor().RenderRegion(w, geom.NewRect(0, 0, 4, 6))
	d.Compositor().RenderRegion(w, geom.NewRect(4, 0, 16, 6))

	cases := []struct {
		x    int
		want rune
	}{
		{1, '漢'},
		{3, ' '},
		{4, ' '},
		{5, '漢'},
		{7, '字'},
	}
	for _, tc := range cases {
		if got := driver.runeAt(tc.x, 1); got != tc.want {
			t.Errorf("column %d: got %q want %q", tc.x, got, tc.want)
		}
	}
}

func TestCompositorMoveRepaintsExposedDesktop(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("w", geom.NewRect(0, 0, 10, 5))
	d.AddWindow(w, true)
	d.Scheduler().Step()

	if !d.MoveWindow(w, 20, 10) {
		t.Fatal("move failed")
	}
	desk := d.Options().DesktopRune
	for _, p := range []geom.Point{{X: 0, Y: 0}, {X: 9, Y: 4}, {X: 5, Y: 2}} {
		if got := driver.runeAt(p.X, p.Y); got != desk {
			t.Fatalf("exposed cell %v = %q", p, got)
		}
	}
	if got := driver.runeAt(20, 10); got != '┌' {
		t.Fatalf("window not painted at its new position, got %q", got)
	}
}

func TestCompositorMoveRevealsWindowBelow(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	below := NewWindow("below", geom.NewRect(0, 0, 20, 10))
	below.AddControl(&textControl{text: strings.Repeat("z", 18)})
	top := NewWindow("top", geom.NewRect(0, 0, 10, 5))
	d.AddWindow(below, true)
	d.AddWindow(top, true)
	d.Scheduler().Step()

	d.MoveWindow(top, 40, 10)
	if got := driver.runeAt(0, 0); got != '┌' {
		t.Fatalf("expected the lower window's corner, got %q", got)
	}
	if got := driver.runeAt(1, 1); got != 'z' {
		t.Fatalf("expected the lower window's content, got %q", got)
	}
}

func TestCompositorComposePaintsOverlapChain(t *testing.T) {
	d, _, _ := newTestDesktop(t, 80, 24)
	a := NewWindow("a", geom.NewRect(0, 0, 20, 10))
	b := NewWindow("b", geom.NewRect(10, 5, 20, 10))
	c := NewWindow("c", geom.NewRect(50, 0, 20, 10))
	for _, w := range []*Window{a, b, c} {
		d.AddWindow(w, false)
	}
	d.Scheduler().Step()

	a.MarkDirty()
	stats := d.Compositor().Compose()
	if stats.Dirty != 1 || stats.Windows != 2 {
		t.Fatalf("expected 1 dirty window and 2 painted, got %+v", stats)
	}
	if a.IsDirty() || b.IsDirty() || c.IsDirty() {
		t.Fatal("compose should leave every window clean")
	}
}

func TestCompositorMinimizedWindowIsNotPainted(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	a := NewWindow("a", geom.NewRect(0, 0, 20, 10))
	c := NewWindow("c", geom.NewRect(50, 0, 20, 10))
	d.AddWindow(a, true)
	d.AddWindow(c, false)
	d.Scheduler().Step()

	d.Registry().Minimize(c)
	d.Scheduler().Step()
	if got := driver.runeAt(50, 0); got != d.Options().DesktopRune {
		t.Fatalf("minimized window still visible, got %q", got)
	}

	c.MarkDirty()
	driver.resetTouched()
	stats := d.Compositor().Compose()
	if stats.Windows != 0 || len(driver.touchedCells()) != 0 {
		t.Fatalf("minimized window painted: %+v", stats)
	}
}

func TestCompositorFaultedWindowShowsError(t *testing.T) {
	d, driver, _ := newTestDesktop(t, 80, 24)
	w := NewWindow("job", geom.NewRect(0, 0, 30, 6))
	w.AddControl(&textControl{text: "normal"})
	d.AddWindow(w, true)
	w.SetFault(errTest)
	d.Scheduler().Step()

	if row := driver.row(1); !strings.Contains(row, "job failed:") {
		t.Fatalf("expected error text, got %q", row)
	}
	if driver.styleAt(0, 0) != d.Options().ErrorStyle {
		t.Fatal("faulted window should use the error border style")
	}
}
