package model

import (
	"fmt"

	"graphview/canvas"
	"graphview/core"
	"graphview/geometry"
)

// EdgeColor is the stroke colour of straight edges.
const EdgeColor = "#ddd"

// Edge is a straight link between two nodes. It never owns its endpoints:
// SourceID and TargetID are the foreign keys, and the cached references
// are refreshed by Resolve whenever the node arena changes.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Type     string
	Attrs    map[string]any

	source *Node
	target *Node
}

// NewEdge builds an edge from a raw record.
func NewEdge(rec core.Record) *Edge {
	e := &Edge{ID: rec.ID(), Attrs: make(map[string]any)}
	e.Merge(rec, false)
	return e
}

// Resolve refreshes the endpoint references through lookup.
func (e *Edge) Resolve(lookup func(id string) (*Node, bool)) error {
	src, ok := lookup(e.SourceID)
	if !ok {
		e.source, e.target = nil, nil
		return fmt.Errorf("edge %q source: %w", e.ID, &core.UnknownEntityError{Kind: core.KindNode, ID: e.SourceID})
	}
	dst, ok := lookup(e.TargetID)
	if !ok {
		e.source, e.target = nil, nil
		return fmt.Errorf("edge %q target: %w", e.ID, &core.UnknownEntityError{Kind: core.KindNode, ID: e.TargetID})
	}
	e.source, e.target = src, dst
	return nil
}

// Source returns the resolved source node, or nil before Resolve.
func (e *Edge) Source() *Node { return e.source }

// Target returns the resolved target node, or nil before Resolve.
func (e *Edge) Target() *Node { return e.target }

// Resolved reports whether both endpoints are attached.
func (e *Edge) Resolved() bool {
	return e.source != nil && e.target != nil
}

// Endpoints returns the current endpoint positions.
func (e *Edge) Endpoints() (a, b core.Point, ok bool) {
	if !e.Resolved() {
		return a, b, false
	}
	return e.source.Position(), e.target.Position(), true
}

// Midpoint returns the centre of the edge.
func (e *Edge) Midpoint() (core.Point, bool) {
	a, b, ok := e.Endpoints()
	if !ok {
		return core.Point{}, false
	}
	return geometry.Midpoint(a, b), true
}

// Merge applies a patch to the edge.
func (e *Edge) Merge(patch core.Record, allowDeletion bool) {
	extra := make(map[string]any)
	for key, value := range patch {
		switch key {
		case "id":
			if id := patch.ID(); id != "" {
				e.ID = id
			}
		case "source":
			e.SourceID = patch.String(key)
		case "target":
			e.TargetID = patch.String(key)
		case "type":
			e.Type = patch.String(key)
		default:
			extra[key] = value
		}
	}
	DeepExtend(e.Attrs, extra, allowDeletion)
}

// Draw strokes the edge. Unresolved edges and edges with an unplaced
// endpoint draw nothing.
func (e *Edge) Draw(ctx canvas.Context) {
	a, b, ok := e.Endpoints()
	if !ok || a.IsNaN() || b.IsNaN() {
		return
	}
	ctx.Save()
	ctx.BeginPath()
	ctx.MoveTo(a.X, a.Y)
	ctx.LineTo(b.X, b.Y)
	ctx.SetLineWidth(1)
	ctx.SetStrokeStyle(EdgeColor)
	ctx.Stroke()
	ctx.Restore()
}
