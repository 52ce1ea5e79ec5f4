package operator

import (
	"math"

	"graphview/core"
	"graphview/geometry"
	"graphview/model"
)

// EdgeHitThreshold is how close, in world units, a point must come to an
// edge to hit it.
const EdgeHitThreshold = 10.0

// Target is what a pointer resolved to. At most one field is set.
type Target struct {
	Node *model.Node
	Edge *model.Edge
}

// IsZero reports whether the pointer hit nothing.
func (t Target) IsZero() bool {
	return t.Node == nil && t.Edge == nil
}

// InvertX maps a screen x coordinate to world space.
func (o *Operator) InvertX(x float64) float64 {
	return o.body.Scale.InvertX(x)
}

// InvertY maps a screen y coordinate to world space.
func (o *Operator) InvertY(y float64) float64 {
	return o.body.Scale.InvertY(y)
}

// Invert maps a screen point to world space.
func (o *Operator) Invert(p core.Point) core.Point {
	return o.body.Scale.Invert(p)
}

// FindNode returns the visible node nearest to (x, y) within radius, in
// world units. The search radius shrinks to each better candidate, so the
// first of two equally close nodes wins. A zero radius matches nothing;
// NaN or a negative radius is ErrMissingRadius.
func (o *Operator) FindNode(x, y, radius float64) (*model.Node, error) {
	if math.IsNaN(radius) || radius < 0 {
		return nil, core.ErrMissingRadius
	}
	best := radius * radius
	var closest *model.Node
	for _, n := range o.body.Transformed.ViewNodes {
		dx, dy := x-n.X, y-n.Y
		if d2 := dx*dx + dy*dy; d2 < best {
			closest = n
			best = d2
		}
	}
	return closest, nil
}

// FindEdge returns the edge nearest to (x, y) closer than
// EdgeHitThreshold. All edges are considered, visible or not.
func (o *Operator) FindEdge(x, y float64) *model.Edge {
	p := core.Point{X: x, Y: y}
	best := EdgeHitThreshold
	var closest *model.Edge
	for _, e := range o.body.Transformed.Edges {
		a, b, ok := e.Endpoints()
		if !ok || a.IsNaN() || b.IsNaN() {
			continue
		}
		if d := geometry.DistanceToSegment(a, b, p); d < best {
			closest = e
			best = d
		}
	}
	return closest
}

// NodeAt returns the node under a screen point.
func (o *Operator) NodeAt(screen core.Point) *model.Node {
	w := o.Invert(screen)
	n, _ := o.FindNode(w.X, w.Y, model.DefaultRadius)
	return n
}

// EdgeAt returns the edge under a screen point.
func (o *Operator) EdgeAt(screen core.Point) *model.Edge {
	w := o.Invert(screen)
	return o.FindEdge(w.X, w.Y)
}

// TargetAt resolves a screen point, preferring nodes over edges.
func (o *Operator) TargetAt(screen core.Point) Target {
	if n := o.NodeAt(screen); n != nil {
		return Target{Node: n}
	}
	if e := o.EdgeAt(screen); e != nil {
		return Target{Edge: e}
	}
	return Target{}
}

func (o *Operator) worldRect(r core.Rect) (x0, y0, x1, y1 float64) {
	return o.InvertX(r.X0), o.InvertY(r.Y0), o.InvertX(r.X1), o.InvertY(r.Y1)
}

// FindNodesByRect returns the nodes whose centre lies inside a screen
// rectangle, edges included.
func (o *Operator) FindNodesByRect(nodes []*model.Node, r core.Rect) []*model.Node {
	x0, y0, x1, y1 := o.worldRect(r)
	var out []*model.Node
	for _, n := range nodes {
		if n.X >= x0 && n.X <= x1 && n.Y >= y0 && n.Y <= y1 {
			out = append(out, n)
		}
	}
	return out
}

// NodeIsInRect reports whether the node centre lies strictly inside a
// screen rectangle.
func (o *Operator) NodeIsInRect(n *model.Node, r core.Rect) bool {
	x0, y0, x1, y1 := o.worldRect(r)
	return n.X > x0 && n.X < x1 && n.Y > y0 && n.Y < y1
}

// IsInViewport reports whether the node's bounding box lies inside the
// node surface once projected into world space. The bounding box must be
// current.
func (o *Operator) IsInViewport(n *model.Node) bool {
	if !n.BoundingBox.Valid() {
		return false
	}
	w, h := o.body.NodeContext.Size()
	x0, y0, x1, y1 := o.worldRect(core.Rect{X1: float64(w), Y1: float64(h)})
	bb := n.BoundingBox
	return bb.Left >= x0 && bb.Right <= x1 && bb.Top >= y0 && bb.Bottom <= y1
}

// ScreenRange is the node surface projected into world space.
func (o *Operator) ScreenRange() core.Range {
	w, h := o.body.NodeContext.Size()
	x0, y0, x1, y1 := o.worldRect(core.Rect{X1: float64(w), Y1: float64(h)})
	return core.Range{MinX: x0, MaxX: x1, MinY: y0, MaxY: y1}
}

// ViewCenter returns the world point under the centre of the node surface.
func (o *Operator) ViewCenter() core.Point {
	w, h := o.body.NodeContext.Size()
	return o.Invert(core.Point{X: float64(w) / 2, Y: float64(h) / 2})
}

// Range aggregates the bounding boxes of the given nodes, or of every node
// when no id is given. Unknown ids and nodes without a bounding box are
// skipped. The result is the zero Range when nothing qualifies.
func (o *Operator) Range(ids ...string) core.Range {
	r := core.Range{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	found := false
	add := func(n *model.Node) {
		bb := n.BoundingBox
		if !bb.Valid() {
			return
		}
		found = true
		r.MinX = math.Min(r.MinX, bb.Left)
		r.MaxX = math.Max(r.MaxX, bb.Right)
		r.MinY = math.Min(r.MinY, bb.Top)
		r.MaxY = math.Max(r.MaxY, bb.Bottom)
	}

	if len(ids) == 0 {
		for _, n := range o.body.Transformed.Nodes {
			add(n)
		}
	} else {
		for _, id := range ids {
			if n, ok := o.body.NodeMaps[id]; ok {
				add(n)
			}
		}
	}
	if !found {
		return core.Range{}
	}
	return r
}
