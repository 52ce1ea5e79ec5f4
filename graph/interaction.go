package graph

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"graphview/core"
	"graphview/events"
	"graphview/gesture"
	"graphview/model"
)

// SetSize resizes both surfaces and rescales the viewport so the world
// point under the centre of the view stays there. Zero sizes and
// unchanged sizes are ignored.
func (g *Graph) SetSize(width, height int) error {
	if g.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	oldW, oldH := g.container.Nodes.Size()
	if oldW == width && oldH == height {
		return nil
	}
	prev := g.op.ViewCenter()

	if err := g.container.Edges.Resize(width, height); err != nil {
		return fmt.Errorf("resize edge surface: %w", err)
	}
	if err := g.container.Nodes.Resize(width, height); err != nil {
		return fmt.Errorf("resize node surface: %w", err)
	}
	if oldW <= 0 || oldH <= 0 {
		g.body.Bus.Emit(events.Redraw, nil)
		return nil
	}

	wr := float64(width) / float64(oldW)
	hr := float64(height) / float64(oldH)
	k := g.body.Scale.K
	switch {
	case wr != 1 && hr != 1:
		k *= (wr + hr) / 2
	case wr != 1:
		k *= wr
	case hr != 1:
		k *= hr
	}
	g.body.Scale.K = k

	cur := g.op.ViewCenter()
	g.body.Scale.X += (cur.X - prev.X) * k
	g.body.Scale.Y += (cur.Y - prev.Y) * k

	g.logger.Debug("Graph resized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("scale", k))
	g.body.Bus.Emit(events.Redraw, nil)
	return nil
}

func (g *Graph) bindGestures() {
	g.drag = gesture.NewDrag(g.DragSubject, gesture.DragHandlers{
		Start: g.DragStart,
		Drag:  g.Drag,
		End:   g.DragEnd,
	})
	g.zoom = gesture.NewZoom(func() core.Transform { return g.body.Scale }, gesture.ZoomHandlers{
		Start: g.ZoomStart,
		Zoom:  g.Zoom,
		End:   g.ZoomEnd,
	})
	g.dispatcher = &gesture.Dispatcher{
		Drag:   g.drag,
		Zoom:   g.zoom,
		OnDown: g.pointerDown,
	}
}

// HandlePointer feeds raw pointer input on the node surface to the drag
// and zoom behaviours. It reports whether a gesture consumed the event.
func (g *Graph) HandlePointer(ev gesture.PointerEvent) bool {
	if g.destroyed {
		return false
	}
	return g.dispatcher.Dispatch(ev)
}

// DragEnabled reports whether the drag behaviour accepts new gestures.
func (g *Graph) DragEnabled() bool { return g.drag.Enabled() }

// ZoomPanEnabled reports whether the zoom behaviour accepts new gestures.
func (g *Graph) ZoomPanEnabled() bool { return g.zoom.Enabled() }

// Shift with the primary button is reserved for box selection.
func (g *Graph) pointerDown(ev gesture.PointerEvent) {
	if ev.Shift && ev.Button == gesture.ButtonPrimary {
		g.zoom.Disable()
		g.drag.Disable()
	}
}

// DragSubject returns the visible node under a screen point.
func (g *Graph) DragSubject(p core.Point) *model.Node {
	return g.op.NodeAt(p)
}

// DragStart raises the subject to the top of the draw order and captures
// the pointer offset. A pending settle is cancelled.
func (g *Graph) DragStart(ev gesture.DragEvent) {
	g.cancelSettle()
	if g.options.EnableDrag {
		n := ev.Subject
		nodes := g.body.Transformed.Nodes
		if i := slices.Index(nodes, n); i >= 0 {
			nodes = append(nodes[:i], nodes[i+1:]...)
			g.body.Transformed.Nodes = append(nodes, n)
		}
		n.Dragged = true
		w := g.op.Invert(ev.Point)
		n.DragOffsetX = w.X - n.X
		n.DragOffsetY = w.Y - n.Y
		g.logger.Debug("Drag started", zap.String("node", n.ID))
	}
	g.body.Bus.Emit(events.Redraw, nil)
}

// Drag moves the subject with the pointer. Edges and labels are hidden
// until the gesture settles.
func (g *Graph) Drag(ev gesture.DragEvent) {
	g.showEdge = false
	g.body.HideLabel = true
	if g.options.EnableDrag {
		n := ev.Subject
		w := g.op.Invert(ev.Point)
		n.X = w.X - n.DragOffsetX
		n.Y = w.Y - n.DragOffsetY
	}
	g.body.Bus.Emit(events.Redraw, nil)
}

// DragEnd releases the subject and schedules the settle.
func (g *Graph) DragEnd(ev gesture.DragEvent) {
	n := ev.Subject
	n.Dragged = false
	n.DragOffsetX = math.NaN()
	n.DragOffsetY = math.NaN()
	g.logger.Debug("Drag ended", zap.String("node", n.ID))
	g.scheduleSettle()
}

func (g *Graph) scheduleSettle() {
	g.cancelSettle()
	g.settle = g.scheduler.After(g.options.SettleDelay, func() {
		g.settle = nil
		if g.destroyed || !g.body.HideLabel {
			return
		}
		g.showEdge = g.options.ShowEdge
		g.body.HideLabel = false
		g.body.Bus.Emit(events.Redraw, nil)
	})
}

func (g *Graph) cancelSettle() {
	if g.settle != nil {
		g.settle.Cancel()
		g.settle = nil
	}
}

// SettlePending reports whether a settle is scheduled.
func (g *Graph) SettlePending() bool { return g.settle != nil }

// ZoomStart hides edges and labels for the gesture unless shift is held.
func (g *Graph) ZoomStart(ev gesture.ZoomEvent) {
	if g.options.EnableZoomPan && !ev.Shift {
		g.body.HideLabel = true
		g.showEdge = false
	}
}

// Zoom applies an in-progress transform. A transform equal to the
// current one is ignored.
func (g *Graph) Zoom(ev gesture.ZoomEvent) {
	if ev.Transform == g.body.Scale {
		return
	}
	g.applyZoom(ev)
}

// ZoomEnd restores edges and labels and applies the final transform. The
// shift modifier does not gate it.
func (g *Graph) ZoomEnd(ev gesture.ZoomEvent) {
	if !g.options.EnableZoomPan {
		return
	}
	g.body.HideLabel = false
	g.showEdge = g.options.ShowEdge
	g.applyZoom(ev)
}

// applyZoom replaces the viewport transform. While zoom and pan are
// enabled, end events always apply and other events apply unless shift
// is held.
func (g *Graph) applyZoom(ev gesture.ZoomEvent) {
	if !g.options.EnableZoomPan {
		return
	}
	if ev.Phase != gesture.ZoomEnd && ev.Shift {
		return
	}
	g.body.Scale = ev.Transform
	g.body.Bus.Emit(events.Redraw, nil)
}
