// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: geom/regions.go
// Summary: Rectangle subtraction and visible/exposed region computation.
// Usage: The compositor clips every paint to VisibleRegions of the window.

package geom

import "sort"

// Subtract removes s from r and returns the remaining pieces. The result is
// at most four rectangles: the full-width bands above and below the
// intersection, then the strips left and right of it.
func Subtract(r, s Rect) []Rect {
	if r.Empty() {
		return nil
	}
	in := r.Intersect(s)
	if in.Empty() {
		return []Rect{r}
	}
	if in == r {
		return nil
	}

	out := make([]Rect, 0, 4)
	if in.Y > r.Y {
		out = append(out, FromEdges(r.X, r.Y, r.Right(), in.Y))
	}
	if in.Bottom() < r.Bottom() {
		out = append(out, FromEdges(r.X, in.Bottom(), r.Right(), r.Bottom()))
	}
	if in.X > r.X {
		out = append(out, FromEdges(r.X, in.Y, in.X, in.Bottom()))
	}
	if in.Right() < r.Right() {
		out = append(out, FromEdges(in.Right(), in.Y, r.Right(), in.Bottom()))
	}
	return out
}

// SubtractAll removes every rectangle in cover from each rectangle in rects.
func SubtractAll(rects []Rect, cover []Rect) []Rect {
	work := make([]Rect, 0, len(rects))
	for _, r := range rects {
		if !r.Empty() {
			work = append(work, r)
		}
	}
	for _, c := range cover {
		if c.Empty() || len(work) == 0 {
			continue
		}
		next := make([]Rect, 0, len(work)+3)
		for _, r := range work {
			next = append(next, Subtract(r, c)...)
		}
		work = next
	}
	return work
}

// VisibleRegions returns the parts of target not covered by any of the
// overlapping rectangles. The pieces never overlap each other and are all
// contained in target. Order of overlapping is irrelevant to the covered
// area, though the decomposition may differ.
func VisibleRegions(target Rect, overlapping []Rect) []Rect {
	if target.Empty() {
		return nil
	}
	return Coalesce(SubtractAll([]Rect{target}, overlapping))
}

// ExposedRegions returns the area of oldBounds that is no longer covered
// after a window moves or resizes to newBounds.
func ExposedRegions(oldBounds, newBounds Rect) []Rect {
	if oldBounds.Empty() {
		return nil
	}
	if !oldBounds.Intersects(newBounds) {
		return []Rect{oldBounds}
	}
	return Subtract(oldBounds, newBounds)
}

// ClipAll intersects every rectangle with clip and drops empty results.
func ClipAll(rects []Rect, clip Rect) []Rect {
	out := make([]Rect, 0, len(rects))
	for _, r := range rects {
		if in := r.Intersect(clip); !in.Empty() {
			out = append(out, in)
		}
	}
	return out
}

// Coalesce merges rectangles that share a complete edge into one. The input
// must be non-overlapping; the covered area is unchanged. The result is
// sorted top-to-bottom, left-to-right.
func Coalesce(rects []Rect) []Rect {
	out := append([]Rect(nil), rects...)
	for merged := true; merged && len(out) > 1; {
		merged = false
		for i := 0; i < len(out) && !merged; i++ {
			for j := i + 1; j < len(out); j++ {
				if m, ok := joinEdge(out[i], out[j]); ok {
					out[i] = m
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func joinEdge(a, b Rect) (Rect, bool) {
	if a.Y == b.Y && a.H == b.H {
		if a.Right() == b.X {
			return FromEdges(a.X, a.Y, b.Right(), a.Bottom()), true
		}
		if b.Right() == a.X {
			return FromEdges(b.X, a.Y, a.Right(), a.Bottom()), true
		}
	}
	if a.X == b.X && a.W == b.W {
		if a.Bottom() == b.Y {
			return FromEdges(a.X, a.Y, a.Right(), b.Bottom()), true
		}
		if b.Bottom() == a.Y {
			return FromEdges(a.X, b.Y, a.Right(), a.Bottom()), true
		}
	}
	return Rect{}, false
}
