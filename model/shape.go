package model

import (
	"fmt"
	"math"

	"graphview/canvas"
)

// DefaultRadius is the radius of the built-in circular node.
const DefaultRadius = 20.0

// ShapeKind tags a node shape variant.
type ShapeKind string

const (
	ShapeCircle ShapeKind = "circle"
	ShapeSquare ShapeKind = "square"
)

// Shape is the geometry variant of a node. The viewport engine only relies
// on Radius; drawing dispatches through Trace.
type Shape interface {
	Kind() ShapeKind
	// Radius is the half-extent used for bounding boxes.
	Radius() float64
	// Trace adds the outline centred on (x, y) to the current path.
	Trace(ctx canvas.Context, x, y float64)
}

// Circle is the default node shape.
type Circle struct {
	R float64
}

func (c Circle) Kind() ShapeKind { return ShapeCircle }

func (c Circle) Radius() float64 { return c.R }

func (c Circle) Trace(ctx canvas.Context, x, y float64) {
	ctx.MoveTo(x+c.R, y)
	ctx.Arc(x, y, c.R, 0, 2*math.Pi)
}

// Square is an axis-aligned square node.
type Square struct {
	Half float64
}

func (s Square) Kind() ShapeKind { return ShapeSquare }

func (s Square) Radius() float64 { return s.Half }

func (s Square) Trace(ctx canvas.Context, x, y float64) {
	ctx.Rect(x-s.Half, y-s.Half, 2*s.Half, 2*s.Half)
}

// ShapeRegistry manages node shapes by name.
type ShapeRegistry struct {
	shapes   map[string]Shape
	fallback Shape
}

// NewShapeRegistry creates a registry with the built-in shapes and the
// circle as fallback.
func NewShapeRegistry() *ShapeRegistry {
	r := &ShapeRegistry{shapes: make(map[string]Shape)}
	r.Register(string(ShapeCircle), Circle{R: DefaultRadius})
	r.Register(string(ShapeSquare), Square{Half: DefaultRadius})
	r.SetFallback(Circle{R: DefaultRadius})
	return r
}

// Register adds a shape under the given name.
func (r *ShapeRegistry) Register(name string, shape Shape) {
	r.shapes[name] = shape
}

// SetFallback sets the shape used when no name matches.
func (r *ShapeRegistry) SetFallback(shape Shape) {
	r.fallback = shape
}

// Shape returns the shape registered under name.
func (r *ShapeRegistry) Shape(name string) (Shape, error) {
	if s, ok := r.shapes[name]; ok {
		return s, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("no shape available for %q", name)
}
