// Package canvas provides the immediate-mode 2D drawing surface the graph
// renders onto, with raster, character-matrix and recording backends.
package canvas

import "errors"

// Common errors
var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrInvalidSize = errors.New("invalid canvas size")
)

// Context is an immediate-mode 2D drawing surface. Calls mutate the target
// directly; nothing is retained between frames.
//
// Coordinate System:
//   - Origin (0,0) is top-left
//   - X increases rightward
//   - Y increases downward
//   - Translate and Scale compose onto the current transform, Save and
//     Restore push and pop it together with the styles
type Context interface {
	// Size returns the width and height of the surface in device units.
	Size() (width, height int)

	Save()
	Restore()
	Translate(x, y float64)
	Scale(x, y float64)

	// ClearRect erases the rectangle, which is subject to the current transform.
	ClearRect(x, y, w, h float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	// Arc adds a circular arc centred on (x, y) from angle start to end,
	// in radians, clockwise in screen space.
	Arc(x, y, r, start, end float64)
	Rect(x, y, w, h float64)
	Fill()
	Stroke()

	// FillText draws text centred horizontally and vertically on (x, y).
	FillText(text string, x, y float64)

	SetFillStyle(color string)
	SetStrokeStyle(color string)
	SetLineWidth(w float64)
	SetLineDash(segments []float64)
	SetFont(f Font)
}

// Surface is a Context that can change size. Resizing discards the
// contents and resets the drawing state.
type Surface interface {
	Context
	Resize(width, height int) error
}

// Font describes how FillText renders.
type Font struct {
	Size float64
	Face string
}

// DefaultFont is used until SetFont is called.
var DefaultFont = Font{Size: 12, Face: "sans-serif"}

// Clear erases the whole surface. The context must be at its base transform,
// which holds between render passes since every pass restores what it saves.
func Clear(ctx Context) {
	w, h := ctx.Size()
	ctx.ClearRect(0, 0, float64(w), float64(h))
}
