package graph

import (
	"time"

	"graphview/metrics"
	"graphview/model"
)

// Redraw repaints edges, then nodes, then the minimap.
func (g *Graph) Redraw() {
	g.RedrawEdges()
	g.RedrawNodes()
	g.RedrawThumb()
}

// RedrawNodes clears the node surface and draws the visible nodes.
func (g *Graph) RedrawNodes() {
	g.op.ClearGraph(g.body.NodeContext)
	g.renderNodes()
}

// RedrawEdges clears the edge surface and draws every edge.
func (g *Graph) RedrawEdges() {
	g.op.ClearGraph(g.body.EdgeContext)
	g.renderEdges()
}

// RedrawThumb refits the minimap when it exists.
func (g *Graph) RedrawThumb() {
	if g.thumb == nil || !g.thumb.IsOpen() {
		return
	}
	start := time.Now()
	g.thumb.Redraw()
	g.metrics.ObserveRender(metrics.LayerThumb, start)
}

// renderNodes refreshes every bounding box, recomputes the visible set
// and draws it.
func (g *Graph) renderNodes() {
	nodes := g.body.Transformed.Nodes
	if len(nodes) == 0 {
		g.body.Transformed.ViewNodes = nil
		return
	}
	start := time.Now()

	view := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		n.InitialBBox()
		if g.op.IsInViewport(n) {
			view = append(view, n)
		}
	}
	g.body.Transformed.ViewNodes = view

	s := g.body.Scale
	ctx := g.body.NodeContext
	ctx.Save()
	ctx.Translate(s.X, s.Y)
	ctx.Scale(s.K, s.K)
	st := model.DrawState{
		ShowLabel: g.options.ShowLabel,
		HideLabel: g.body.HideLabel,
		Scale:     s.K,
	}
	for _, n := range view {
		n.Draw(ctx, st)
	}
	ctx.Restore()

	g.metrics.SetVisibleNodes(len(view))
	g.metrics.ObserveRender(metrics.LayerNodes, start)
}

// renderEdges draws every edge. Edges are never culled so a line to an
// off-screen node still shows.
func (g *Graph) renderEdges() {
	if !g.showEdge {
		return
	}
	edges := g.body.Transformed.Edges
	if len(g.body.Transformed.Nodes) == 0 || len(edges) == 0 {
		return
	}
	start := time.Now()

	s := g.body.Scale
	ctx := g.body.EdgeContext
	ctx.Save()
	ctx.Translate(s.X, s.Y)
	ctx.Scale(s.K, s.K)
	for _, e := range edges {
		e.Draw(ctx)
	}
	ctx.Restore()

	g.metrics.ObserveRender(metrics.LayerEdges, start)
}
