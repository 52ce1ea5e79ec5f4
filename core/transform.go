package core

// Transform is the uniform scale and translation that maps world space to
// screen space: screen = world*K + (X, Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{K: 1}

// Apply maps a world point to screen space.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// ApplyX maps a world x coordinate to screen space.
func (t Transform) ApplyX(x float64) float64 {
	return x*t.K + t.X
}

// ApplyY maps a world y coordinate to screen space.
func (t Transform) ApplyY(y float64) float64 {
	return y*t.K + t.Y
}

// InvertX maps a screen x coordinate back to world space.
func (t Transform) InvertX(x float64) float64 {
	return (x - t.X) / t.K
}

// InvertY maps a screen y coordinate back to world space.
func (t Transform) InvertY(y float64) float64 {
	return (y - t.Y) / t.K
}

// Invert maps a screen point back to world space.
func (t Transform) Invert(p Point) Point {
	return Point{X: t.InvertX(p.X), Y: t.InvertY(p.Y)}
}

// Translate returns the transform shifted by (dx, dy) world units.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + t.K*dx, Y: t.Y + t.K*dy}
}

// ScaleBy returns the transform with its scale multiplied by k.
func (t Transform) ScaleBy(k float64) Transform {
	return Transform{K: t.K * k, X: t.X, Y: t.Y}
}
