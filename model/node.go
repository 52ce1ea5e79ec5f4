// Package model holds the live graph entities: nodes, edges and the styles
// they draw with.
package model

import (
	"math"

	"graphview/canvas"
	"graphview/core"
)

// Record keys the node reads into typed fields. Everything else is kept
// in Attrs.
var nodeKeys = map[string]bool{
	"id": true, "label": true, "type": true, "shape": true, "status": true,
	"x": true, "y": true, "vx": true, "vy": true, "fx": true, "fy": true,
}

// Node is a live graph vertex. Position and velocity are written by the
// layout engine; pin fields are NaN when the node is free.
type Node struct {
	ID     string
	Label  string
	Type   string
	Status core.Status

	X, Y   float64
	VX, VY float64
	FX, FY float64

	BoundingBox core.BoundingBox

	// Dragged is set while a drag gesture holds the node.
	Dragged bool
	// DragOffsetX/Y are the pointer-to-centre offsets captured at drag
	// start. They are NaN outside a drag.
	DragOffsetX, DragOffsetY float64

	Attrs   map[string]any
	Options NodeOptions
	Shape   Shape
}

// NewNode builds a node from a raw record.
func NewNode(rec core.Record, shape Shape, opts NodeOptions) *Node {
	nan := math.NaN()
	n := &Node{
		ID:          rec.ID(),
		X:           nan,
		Y:           nan,
		VX:          nan,
		VY:          nan,
		FX:          nan,
		FY:          nan,
		DragOffsetX: nan,
		DragOffsetY: nan,
		BoundingBox: core.EmptyBoundingBox(),
		Attrs:       make(map[string]any),
		Options:     opts,
		Shape:       shape,
	}
	n.Merge(rec, false)
	return n
}

// Radius returns the shape's half-extent.
func (n *Node) Radius() float64 {
	if n.Shape == nil {
		return DefaultRadius
	}
	return n.Shape.Radius()
}

// Position returns the node centre.
func (n *Node) Position() core.Point {
	return core.Point{X: n.X, Y: n.Y}
}

// HasPosition reports whether the layout has placed the node.
func (n *Node) HasPosition() bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y)
}

// Pinned reports whether the layout engine must hold the node in place.
func (n *Node) Pinned() bool {
	return !math.IsNaN(n.FX) && !math.IsNaN(n.FY)
}

// InitialBBox recomputes the bounding box from the current position.
func (n *Node) InitialBBox() {
	r := n.Radius()
	n.BoundingBox = core.BoundingBox{
		Left:   n.X - r,
		Right:  n.X + r,
		Top:    n.Y - r,
		Bottom: n.Y + r,
	}
}

// Merge deep-merges a patch into the node. Known keys update the typed
// fields; the rest merge into Attrs.
func (n *Node) Merge(patch core.Record, allowDeletion bool) {
	extra := make(map[string]any)
	for key, value := range patch {
		if !nodeKeys[key] {
			extra[key] = value
			continue
		}
		switch key {
		case "id":
			if id := patch.ID(); id != "" {
				n.ID = id
			}
		case "label":
			n.Label = patch.String(key)
		case "type":
			n.Type = patch.String(key)
		case "shape":
			// Shapes are fixed at creation; keep the raw name visible.
			n.Attrs[key] = value
		case "status":
			if s, err := core.ParseStatus(patch.String(key)); err == nil {
				n.Status = s
			}
		case "x":
			n.X, _ = patch.Float(key)
		case "y":
			n.Y, _ = patch.Float(key)
		case "vx":
			n.VX, _ = patch.Float(key)
		case "vy":
			n.VY, _ = patch.Float(key)
		case "fx":
			n.FX, _ = patch.Float(key)
		case "fy":
			n.FY, _ = patch.Float(key)
		}
	}
	DeepExtend(n.Attrs, extra, allowDeletion)
}

// Draw renders the node and, when visible, its label.
func (n *Node) Draw(ctx canvas.Context, st DrawState) {
	x, y := math.Floor(n.X), math.Floor(n.Y)
	ctx.Save()
	n.drawIcon(ctx, x, y)
	if n.Label != "" && st.labelsVisible() {
		n.drawLabel(ctx, x, y)
	}
	ctx.Restore()
}

// DrawThumbnail renders the node shape only.
func (n *Node) DrawThumbnail(ctx canvas.Context) {
	ctx.Save()
	n.drawIcon(ctx, math.Floor(n.X), math.Floor(n.Y))
	ctx.Restore()
}

func (n *Node) colors() ColorPair {
	if n.Status == core.StatusSelection {
		return n.Options.Color.Selection
	}
	return n.Options.Color.Default
}

func (n *Node) drawIcon(ctx canvas.Context, x, y float64) {
	c := n.colors()
	ctx.Save()
	ctx.BeginPath()
	ctx.SetFillStyle(c.Background)
	ctx.SetStrokeStyle(c.Border)
	n.shape().Trace(ctx, x, y)
	ctx.Fill()
	ctx.Stroke()
	ctx.Restore()
}

func (n *Node) drawLabel(ctx canvas.Context, x, y float64) {
	ctx.Save()
	color := n.Options.Font.Color
	if n.Status == core.StatusSelection && n.Options.Font.SelectionColor != "" {
		color = n.Options.Font.SelectionColor
	}
	ctx.SetFillStyle(color)
	ctx.SetFont(canvas.Font{Size: n.Options.Font.Size, Face: n.Options.Font.Face})
	ctx.FillText(n.Label, x, y+n.Radius()+10)
	ctx.Restore()
}

func (n *Node) shape() Shape {
	if n.Shape == nil {
		return Circle{R: DefaultRadius}
	}
	return n.Shape
}
