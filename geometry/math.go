// Package geometry provides the stateless math used by hit-testing and layout seeding.
package geometry

import (
	"math"

	"graphview/core"
)

// GoldenAngle is the angular step of the sunflower spiral, π(3−√5).
var GoldenAngle = math.Pi * (3 - math.Sqrt(5))

// Abs returns the absolute value of x.
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Min returns the minimum of two values.
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DistanceSquared returns the squared euclidean distance between a and b.
func DistanceSquared(a, b core.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b core.Point) float64 {
	return math.Sqrt(DistanceSquared(a, b))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b core.Point) core.Point {
	return core.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// DistanceToSegment returns the distance from p to the segment a→b.
// The projection parameter is clamped to [0,1] so points beyond either end
// measure to that endpoint.
func DistanceToSegment(a, b, p core.Point) float64 {
	px := b.X - a.X
	py := b.Y - a.Y
	lenSq := px*px + py*py
	if lenSq == 0 {
		return Distance(a, p)
	}

	u := Clamp(((p.X-a.X)*px+(p.Y-a.Y)*py)/lenSq, 0, 1)
	return Distance(core.Point{X: a.X + u*px, Y: a.Y + u*py}, p)
}

// SpiralOffset returns the offset of the i-th point of a sunflower spiral
// whose radius grows as base·√i.
func SpiralOffset(i int, base float64) (dx, dy float64) {
	radius := base * math.Sqrt(float64(i))
	angle := float64(i) * GoldenAngle
	return radius * math.Cos(angle), radius * math.Sin(angle)
}
