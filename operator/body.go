package operator

import (
	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/model"
)

// Data is the caller-supplied dataset, kept in the shape it arrived in.
type Data struct {
	Nodes []core.Record
	Edges []core.Record
}

// Transformed holds the live entities built from Data.
type Transformed struct {
	Nodes []*model.Node
	Edges []*model.Edge
	// ViewNodes is the subset of Nodes inside the viewport at the last
	// node pass.
	ViewNodes []*model.Node
}

// Body is the state shared by the graph views. The graph is its single
// writer for Scale; everything else reads it.
type Body struct {
	NodeContext canvas.Context
	EdgeContext canvas.Context

	Data        Data
	Transformed Transformed

	NodeMaps map[string]*model.Node
	EdgeMaps map[string]*model.Edge

	Scale     core.Transform
	HideLabel bool

	Bus *events.Bus

	// NodeOptions holds per-type overrides of the default node style.
	NodeOptions map[string]model.NodeOptions
	Shapes      *model.ShapeRegistry
}

// NewBody creates an empty body drawing onto the given surfaces.
func NewBody(nodes, edges canvas.Context, bus *events.Bus) *Body {
	return &Body{
		NodeContext: nodes,
		EdgeContext: edges,
		NodeMaps:    make(map[string]*model.Node),
		EdgeMaps:    make(map[string]*model.Edge),
		Scale:       core.Identity,
		Bus:         bus,
		NodeOptions: make(map[string]model.NodeOptions),
		Shapes:      model.NewShapeRegistry(),
	}
}

// Reset drops every entity and raw record.
func (b *Body) Reset() {
	clear(b.NodeMaps)
	clear(b.EdgeMaps)
	b.Data = Data{}
	b.Transformed = Transformed{}
}

// LookupNode resolves a node id against the identity index.
func (b *Body) LookupNode(id string) (*model.Node, bool) {
	n, ok := b.NodeMaps[id]
	return n, ok
}

// AllVisible reports whether every node was inside the viewport at the
// last node pass.
func (b *Body) AllVisible() bool {
	return len(b.Transformed.ViewNodes) == len(b.Transformed.Nodes)
}
