// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/hittest.go
// Summary: Classifies window-relative points into frame zones.

package texel

const (
	// BorderThickness is the width of the resize-sensitive frame.
	BorderThickness = 1
	// CornerMargin is the run of cells at each end of the title row and of
	// the side columns that resizes diagonally.
	CornerMargin = 2
	// ButtonWidth is the width of one title-bar control glyph.
	ButtonWidth = 3
)

// ResizeDirection is one of the 8 compass directions a window can be
// resized in.
type ResizeDirection int

const (
	ResizeNone ResizeDirection = iota
	ResizeN
	ResizeS
	ResizeE
	ResizeW
	ResizeNE
	ResizeNW
	ResizeSE
	ResizeSW
)

func (d ResizeDirection) String() string {
	switch d {
	case ResizeN:
		return "n"
	case ResizeS:
		return "s"
	case ResizeE:
		return "e"
	case ResizeW:
		return "w"
	case ResizeNE:
		return "ne"
	case ResizeNW:
		return "nw"
	case ResizeSE:
		return "se"
	case ResizeSW:
		return "sw"
	}
	return "none"
}

func (d ResizeDirection) west() bool  { return d == ResizeW || d == ResizeNW || d == ResizeSW }
func (d ResizeDirection) east() bool  { return d == ResizeE || d == ResizeNE || d == ResizeSE }
func (d ResizeDirection) north() bool { return d == ResizeN || d == ResizeNE || d == ResizeNW }
func (d ResizeDirection) south() bool { return d == ResizeS || d == ResizeSE || d == ResizeSW }

// HitZone names the part of a window under a point.
type HitZone int

const (
	ZoneNone HitZone = iota
	ZoneContent
	ZoneTitle
	ZoneBorder
	ZoneResize
	ZoneClose
	ZoneMaximize
	ZoneMinimize
)

func (z HitZone) String() string {
	switch z {
	case ZoneContent:
		return "content"
	case ZoneTitle:
		return "title"
	case ZoneBorder:
		return "border"
	case ZoneResize:
		return "resize"
	case ZoneClose:
		return "close"
	case ZoneMaximize:
		return "maximize"
	case ZoneMinimize:
		return "minimize"
	}
	return "none"
}

// Hit is the result of a hit test.
type Hit struct {
	Zone      HitZone
	Direction ResizeDirection
}

// titleButton is a control glyph drawn at the end of the title row.
type titleButton struct {
	zone  HitZone
	glyph string
	start int
}

// titleButtons lays out the visible control glyphs right to left, ending
// before the top-right corner margin. Buttons that do not fit are dropped.
func (w *Window) titleButtons() []titleButton {
	var zones []HitZone
	if w.flags.Has(FlagClosable) {
		zones = append(zones, ZoneClose)
	}
	if w.flags.Has(FlagMaximizable) {
		zones = append(zones, ZoneMaximize)
	}
	if w.flags.Has(FlagMinimizable) {
		zones = append(zones, ZoneMinimize)
	}
	var out []titleButton
	end := w.bounds.W - CornerMargin
	for _, z := range zones {
		start := end - ButtonWidth
		if start < CornerMargin {
			break
		}
		glyph := "[x]"
		switch z {
		case ZoneMaximize:
			glyph = "[^]"
			if w.state == StateMaximized {
				glyph = "[v]"
			}
		case ZoneMinimize:
			glyph = "[_]"
		}
		out = append(out, titleButton{zone: z, glyph: glyph, start: start})
		end = start
	}
	return out
}

// HitTest classifies the window-relative point (x, y).
func (w *Window) HitTest(x, y int) Hit {
	width, height := w.bounds.W, w.bounds.H
	if x < 0 || y < 0 || x >= width || y >= height {
		return Hit{}
	}
	resizable := w.flags.Has(FlagResizable) && w.state != StateMaximized

	if resizable && x == width-1 && y == height-1 {
		return Hit{Zone: ZoneResize, Direction: ResizeSE}
	}
	if y == 0 {
		for _, b := range w.titleButtons() {
			if x >= b.start && x < b.start+ButtonWidth {
				return Hit{Zone: b.zone}
			}
		}
	}
	if resizable {
		if dir := w.resizeDirection(x, y); dir != ResizeNone {
			return Hit{Zone: ZoneResize, Direction: dir}
		}
	}
	if y == 0 && x >= CornerMargin && x < width-CornerMargin {
		return Hit{Zone: ZoneTitle}
	}
	if x < BorderThickness || x >= width-BorderThickness || y < BorderThickness || y >= height-BorderThickness {
		return Hit{Zone: ZoneBorder}
	}
	return Hit{Zone: ZoneContent}
}

// resizeDirection checks corner zones before edges. Row 0 only resizes
// inside the corner margins so it never competes with the title bar.
func (w *Window) resizeDirection(x, y int) ResizeDirection {
	width, height := w.bounds.W, w.bounds.H
	top := y < BorderThickness
	bottom := y >= height-BorderThickness
	left := x < BorderThickness
	right := x >= width-BorderThickness
	nearLeft := x < CornerMargin
	nearRight := x >= width-CornerMargin
	nearTop := y < CornerMargin
	nearBottom := y >= height-CornerMargin

	switch {
	case (top && nearLeft) || (left && nearTop):
		return ResizeNW
	case (top && nearRight) || (right && nearTop):
		return ResizeNE
	case (bottom && nearLeft) || (left && nearBottom):
		return ResizeSW
	case (bottom && nearRight) || (right && nearBottom):
		return ResizeSE
	case bottom:
		return ResizeS
	case left:
		return ResizeW
	case right:
		return ResizeE
	}
	return ResizeNone
}
