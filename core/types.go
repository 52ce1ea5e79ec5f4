// Package core contains the fundamental types shared by the graph engine,
// its views and its collaborators.
package core

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate. Whether it is in screen or world space
// depends on where it came from.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// IsNaN reports whether either coordinate is unset.
func (p Point) IsNaN() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// Status is the visual state of an entity.
type Status int

const (
	StatusDefault Status = iota
	StatusSelection
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusDefault:
		return "default"
	case StatusSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// ParseStatus converts a record value into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "default":
		return StatusDefault, nil
	case "selection":
		return StatusSelection, nil
	default:
		return StatusDefault, fmt.Errorf("unknown status %q", s)
	}
}

// BoundingBox is the axis-aligned extent of a node in world space.
type BoundingBox struct {
	Left, Right, Top, Bottom float64
}

// EmptyBoundingBox returns a box whose sides are all unset.
func EmptyBoundingBox() BoundingBox {
	nan := math.NaN()
	return BoundingBox{Left: nan, Right: nan, Top: nan, Bottom: nan}
}

// Valid reports whether every side has been computed.
func (b BoundingBox) Valid() bool {
	return !math.IsNaN(b.Left) && !math.IsNaN(b.Right) &&
		!math.IsNaN(b.Top) && !math.IsNaN(b.Bottom)
}

// Range is the aggregated extent of a set of bounding boxes.
// The zero value is the result of aggregating nothing.
type Range struct {
	MinX, MaxX, MinY, MaxY float64
}

// Width returns the horizontal extent.
func (r Range) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the vertical extent.
func (r Range) Height() float64 {
	return r.MaxY - r.MinY
}

// Center returns the midpoint of the range.
func (r Range) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	return Range{
		MinX: math.Min(r.MinX, o.MinX),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Rect is a screen-space rectangle given by two corners.
type Rect struct {
	X0, Y0, X1, Y1 float64
}
