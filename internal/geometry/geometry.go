// Package geometry provides screen region and cursor-relative capture math
package geometry

import (
	"image"
	"log/slog"
)

// Region is a fixed rectangular screen area in device pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds returns the region as an image.Rectangle (left, top, right, bottom).
func (r Region) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Valid reports whether the region has positive dimensions.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// CursorCapture describes a capture rectangle anchored to the live cursor
// position instead of fixed screen coordinates.
type CursorCapture struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
}

// ResolveAt computes the capture rectangle for the given cursor position,
// clamped to the primary display bounds. The offset is applied as configured
// regardless of which screen edge the cursor is near; clamping alone keeps
// the rectangle on screen.
func (c CursorCapture) ResolveAt(cursor, screen image.Point) image.Rectangle {
	left := cursor.X + c.OffsetX
	top := cursor.Y + c.OffsetY
	right := left + c.Width
	bottom := top + c.Height

	left = clamp(left, 0, screen.X-1)
	top = clamp(top, 0, screen.Y-1)
	right = clamp(right, left+1, screen.X)
	bottom = clamp(bottom, top+1, screen.Y)

	if right-left < c.Width/2 || bottom-top < c.Height/2 {
		slog.Debug("capture region clamped significantly",
			"cursor_x", cursor.X, "cursor_y", cursor.Y,
			"left", left, "top", top, "right", right, "bottom", bottom)
	}

	return image.Rect(left, top, right, bottom)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
