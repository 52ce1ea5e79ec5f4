// Package operator reconciles caller data into live graph entities and
// answers viewport questions about them: coordinate inversion, culling,
// range aggregation and hit testing.
package operator

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/geometry"
	"graphview/metrics"
	"graphview/model"
	"graphview/simulation"
)

// Operator works on a Body on behalf of the graph.
type Operator struct {
	body    *Body
	sim     simulation.Simulation
	options model.NodeOptions
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures an Operator.
type Option func(*Operator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Operator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Operator) {
		o.metrics = c
	}
}

// WithNodeOptions sets the base node style that per-type overrides extend.
func WithNodeOptions(opts model.NodeOptions) Option {
	return func(o *Operator) {
		o.options = opts
	}
}

// New creates an operator over body feeding sim.
func New(body *Body, sim simulation.Simulation, opts ...Option) *Operator {
	o := &Operator{
		body:    body,
		sim:     sim,
		options: model.DefaultNodeOptions(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Body returns the state the operator works on.
func (o *Operator) Body() *Body {
	return o.body
}

// ClearGraph erases a surface.
func (o *Operator) ClearGraph(ctx canvas.Context) {
	canvas.Clear(ctx)
}

// SetDataSet reconciles nodes and edges into the body and restarts the
// layout. The first node record is the parent new nodes are seeded around.
// An empty node list is a no-op. Records are checked before anything is
// reconciled, so a failed call leaves the body as it was.
func (o *Operator) SetDataSet(nodes, edges []core.Record, center bool) error {
	if len(nodes) == 0 {
		return nil
	}
	if err := o.checkNodes(nodes); err != nil {
		return err
	}
	if err := o.checkEdges(edges, nodes); err != nil {
		return err
	}
	if err := o.setNodeDataSet(nodes, false); err != nil {
		return err
	}
	if err := o.setEdgeDataSet(edges, false); err != nil {
		return err
	}

	if center {
		w, h := o.body.NodeContext.Size()
		o.sim.SetCenter(float64(w)/2, float64(h)/2)
	} else {
		o.sim.ClearCenter()
	}
	o.sim.Restart(1)

	o.logger.Debug("Dataset applied",
		zap.Int("nodes", len(o.body.Transformed.Nodes)),
		zap.Int("edges", len(o.body.Transformed.Edges)),
		zap.Bool("center", center))
	return nil
}

func (o *Operator) setNodeDataSet(nodes []core.Record, flush bool) error {
	added, updated := Reconcile(nodes, &o.body.Data.Nodes, func(id string) bool {
		_, ok := o.body.NodeMaps[id]
		return ok
	})
	if err := o.AddNodes(added, nodes[0].ID(), flush); err != nil {
		return err
	}
	return o.UpdateNodes(updated, patchMap(nodes, updated), flush)
}

func (o *Operator) setEdgeDataSet(edges []core.Record, flush bool) error {
	if len(edges) == 0 {
		return nil
	}
	added, updated := Reconcile(edges, &o.body.Data.Edges, func(id string) bool {
		_, ok := o.body.EdgeMaps[id]
		return ok
	})
	if err := o.AddEdges(added, flush); err != nil {
		return err
	}
	return o.UpdateEdges(updated, patchMap(edges, updated), flush)
}

// checkNodes reports the first node record whose shape is not registered.
func (o *Operator) checkNodes(nodes []core.Record) error {
	for _, rec := range nodes {
		name := rec.String("shape")
		if name == "" {
			name = rec.String("type")
		}
		if _, err := o.body.Shapes.Shape(name); err != nil {
			return fmt.Errorf("node %q: %w", rec.ID(), err)
		}
	}
	return nil
}

// checkEdges reports the first edge endpoint that names neither a live node
// nor one of incoming. A record without source or target keeps the
// endpoint of the live edge it patches.
func (o *Operator) checkEdges(edges, incoming []core.Record) error {
	known := func(id string) bool {
		if _, ok := o.body.NodeMaps[id]; ok {
			return true
		}
		for _, rec := range incoming {
			if id != "" && rec.ID() == id {
				return true
			}
		}
		return false
	}
	for _, rec := range edges {
		live := o.body.EdgeMaps[rec.ID()]
		for _, end := range [...]string{"source", "target"} {
			id := rec.String(end)
			if !rec.Has(end) && live != nil {
				id = live.SourceID
				if end == "target" {
					id = live.TargetID
				}
			}
			if !known(id) {
				return fmt.Errorf("edge %q %s: %w", rec.ID(), end,
					&core.UnknownEntityError{Kind: core.KindNode, ID: id})
			}
		}
	}
	return nil
}

// patchMap picks the last record for each id in ids.
func patchMap(records []core.Record, ids []string) map[string]core.Record {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	patches := make(map[string]core.Record, len(ids))
	for _, rec := range records {
		if id := rec.ID(); want[id] {
			patches[id] = rec
		}
	}
	return patches
}

// AddNodes instantiates live nodes for reconciled ids and hands the node
// set to the layout. Unplaced nodes are seeded on a sunflower spiral
// around parentID unless they make up the whole graph.
func (o *Operator) AddNodes(ids []string, parentID string, flush bool) error {
	if len(ids) == 0 {
		return nil
	}
	raw := recordIndex(o.body.Data.Nodes)
	fresh := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		rec, ok := raw[id]
		if !ok {
			return &core.UnknownEntityError{Kind: core.KindNode, ID: id}
		}
		n, err := o.newNode(rec)
		if err != nil {
			return err
		}
		fresh = append(fresh, n)
	}

	for _, n := range fresh {
		o.body.NodeMaps[n.ID] = n
	}
	o.body.Transformed.Nodes = append(o.body.Transformed.Nodes, fresh...)
	o.seed(fresh, parentID)

	o.sim.SetNodes(o.body.Transformed.Nodes)
	o.metrics.AddReconciled(string(core.KindNode), metrics.ResultAdded, len(fresh))
	if flush {
		o.sim.Restart(1)
	}
	return nil
}

func (o *Operator) newNode(rec core.Record) (*model.Node, error) {
	shapeName := rec.String("shape")
	if shapeName == "" {
		shapeName = rec.String("type")
	}
	shape, err := o.body.Shapes.Shape(shapeName)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", rec.ID(), err)
	}
	opts := o.options
	if override, ok := o.body.NodeOptions[rec.String("type")]; ok {
		opts = opts.Extend(override)
	}
	return model.NewNode(rec, shape, opts), nil
}

// seed places unplaced nodes around the parent. Nothing is seeded when the
// fresh nodes are the whole graph or the parent has no position yet.
func (o *Operator) seed(fresh []*model.Node, parentID string) {
	if len(fresh) == len(o.body.Transformed.Nodes) {
		return
	}
	parent, ok := o.body.NodeMaps[parentID]
	if !ok || !parent.HasPosition() {
		return
	}
	i := 0
	for _, n := range fresh {
		if n.HasPosition() || n.ID == parent.ID {
			continue
		}
		i++
		dx, dy := geometry.SpiralOffset(i, model.DefaultRadius)
		n.X = parent.X + dx
		n.Y = parent.Y + dy
	}
}

// UpdateNodes deep-merges patches into existing nodes. Every id is checked
// before anything is merged, so an unknown id leaves the dataset untouched.
func (o *Operator) UpdateNodes(ids []string, patches map[string]core.Record, flush bool) error {
	for _, id := range ids {
		if _, ok := o.body.NodeMaps[id]; !ok {
			return &core.UnknownEntityError{Kind: core.KindNode, ID: id}
		}
	}
	for _, id := range ids {
		if patch, ok := patches[id]; ok {
			o.body.NodeMaps[id].Merge(patch, true)
		}
	}
	o.metrics.AddReconciled(string(core.KindNode), metrics.ResultUpdated, len(ids))
	if flush {
		o.body.Bus.Emit(events.RedrawNodes, nil)
		o.body.Bus.Emit(events.RedrawThumb, nil)
	}
	return nil
}

// AddEdges instantiates live edges for reconciled ids and re-resolves the
// link set against the current nodes.
func (o *Operator) AddEdges(ids []string, flush bool) error {
	if len(ids) == 0 {
		return nil
	}
	raw := recordIndex(o.body.Data.Edges)
	fresh := make([]*model.Edge, 0, len(ids))
	for _, id := range ids {
		rec, ok := raw[id]
		if !ok {
			return &core.UnknownEntityError{Kind: core.KindEdge, ID: id}
		}
		fresh = append(fresh, model.NewEdge(rec))
	}
	for _, e := range fresh {
		o.body.EdgeMaps[e.ID] = e
	}
	o.body.Transformed.Edges = append(o.body.Transformed.Edges, fresh...)
	o.metrics.AddReconciled(string(core.KindEdge), metrics.ResultAdded, len(fresh))

	if err := o.sim.SetLinks(o.body.Transformed.Edges); err != nil {
		return fmt.Errorf("resolve links: %w", err)
	}
	if flush {
		o.body.Bus.Emit(events.RedrawEdges, nil)
	}
	return nil
}

// UpdateEdges deep-merges patches into existing edges in place and
// re-resolves their endpoints.
func (o *Operator) UpdateEdges(ids []string, patches map[string]core.Record, flush bool) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, ok := o.body.EdgeMaps[id]; !ok {
			return &core.UnknownEntityError{Kind: core.KindEdge, ID: id}
		}
	}
	for _, id := range ids {
		if patch, ok := patches[id]; ok {
			if err := o.checkEdges([]core.Record{patch}, nil); err != nil {
				return err
			}
		}
	}
	for _, id := range ids {
		if patch, ok := patches[id]; ok {
			o.body.EdgeMaps[id].Merge(patch, true)
		}
	}
	o.metrics.AddReconciled(string(core.KindEdge), metrics.ResultUpdated, len(ids))

	if err := o.sim.SetLinks(o.body.Transformed.Edges); err != nil {
		return fmt.Errorf("resolve links: %w", err)
	}
	if flush {
		o.body.Bus.Emit(events.RedrawEdges, nil)
	}
	return nil
}

// RemoveNodes deletes nodes and every edge touching them. Every id is
// checked first; an unknown id removes nothing.
func (o *Operator) RemoveNodes(ids []string) error {
	for _, id := range ids {
		if _, ok := o.body.NodeMaps[id]; !ok {
			return &core.UnknownEntityError{Kind: core.KindNode, ID: id}
		}
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(o.body.NodeMaps, id)
	}

	b := o.body
	b.Transformed.Nodes = slices.DeleteFunc(b.Transformed.Nodes, func(n *model.Node) bool { return drop[n.ID] })
	b.Transformed.ViewNodes = slices.DeleteFunc(b.Transformed.ViewNodes, func(n *model.Node) bool { return drop[n.ID] })
	b.Data.Nodes = slices.DeleteFunc(b.Data.Nodes, func(r core.Record) bool { return drop[r.ID()] })

	var incident []string
	for _, e := range b.Transformed.Edges {
		if drop[e.SourceID] || drop[e.TargetID] {
			incident = append(incident, e.ID)
		}
	}
	o.removeEdges(incident)
	o.metrics.AddReconciled(string(core.KindNode), metrics.ResultRemoved, len(ids))

	o.sim.SetNodes(b.Transformed.Nodes)
	if err := o.sim.SetLinks(b.Transformed.Edges); err != nil {
		return fmt.Errorf("resolve links: %w", err)
	}
	b.Bus.Emit(events.Redraw, nil)
	return nil
}

// RemoveEdges deletes edges by id. An unknown id removes nothing.
func (o *Operator) RemoveEdges(ids []string) error {
	for _, id := range ids {
		if _, ok := o.body.EdgeMaps[id]; !ok {
			return &core.UnknownEntityError{Kind: core.KindEdge, ID: id}
		}
	}
	o.removeEdges(ids)
	if err := o.sim.SetLinks(o.body.Transformed.Edges); err != nil {
		return fmt.Errorf("resolve links: %w", err)
	}
	o.body.Bus.Emit(events.RedrawEdges, nil)
	return nil
}

func (o *Operator) removeEdges(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(o.body.EdgeMaps, id)
	}
	b := o.body
	b.Transformed.Edges = slices.DeleteFunc(b.Transformed.Edges, func(e *model.Edge) bool { return drop[e.ID] })
	b.Data.Edges = slices.DeleteFunc(b.Data.Edges, func(r core.Record) bool { return drop[r.ID()] })
	o.metrics.AddReconciled(string(core.KindEdge), metrics.ResultRemoved, len(ids))
}
