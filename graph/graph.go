// Package graph is the render orchestrator. It owns the shared body,
// reacts to bus signals with render passes and turns drag and zoom
// gestures into node moves and viewport changes.
//
// A Graph is not safe for concurrent use. Layout ticks, timers and input
// must all be delivered on one goroutine; see simulation.Force.Run and
// TimerScheduler for the hooks that make this possible.
package graph

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/gesture"
	"graphview/metrics"
	"graphview/model"
	"graphview/operator"
	"graphview/simulation"
	"graphview/thumbnail"
)

// ErrDestroyed is returned by operations on a destroyed graph.
var ErrDestroyed = errors.New("graph destroyed")

// DefaultSettleDelay is how long after a drag ends labels and edges stay
// hidden.
const DefaultSettleDelay = 200 * time.Millisecond

// Container holds the two stacked drawing surfaces. Edges are drawn
// underneath nodes.
type Container struct {
	Nodes canvas.Surface
	Edges canvas.Surface
}

// Options are the global rendering and interaction switches.
type Options struct {
	ShowLabel     bool
	ShowEdge      bool
	EnableDrag    bool
	EnableZoomPan bool
	SettleDelay   time.Duration

	// NodeOptions is the base node style.
	NodeOptions model.NodeOptions
	// TypeOptions override NodeOptions per node type.
	TypeOptions map[string]model.NodeOptions
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{
		ShowLabel:     true,
		ShowEdge:      true,
		EnableDrag:    true,
		EnableZoomPan: true,
		SettleDelay:   DefaultSettleDelay,
		NodeOptions:   model.DefaultNodeOptions(),
	}
}

// Option configures a Graph.
type Option func(*Graph)

// WithOptions replaces the default options.
func WithOptions(opts Options) Option {
	return func(g *Graph) {
		g.options = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Graph) {
		g.metrics = c
	}
}

// WithSimulation replaces the built-in force layout.
func WithSimulation(sim simulation.Simulation) Option {
	return func(g *Graph) {
		g.sim = sim
	}
}

// WithScheduler sets the scheduler for deferred work.
func WithScheduler(s Scheduler) Option {
	return func(g *Graph) {
		g.scheduler = s
	}
}

// Graph renders a node-link graph onto a Container.
type Graph struct {
	container Container
	body      *operator.Body
	op        *operator.Operator
	sim       simulation.Simulation
	thumb     *thumbnail.Thumbnail

	options   Options
	showEdge  bool
	scheduler Scheduler
	settle    Task

	drag       *gesture.Drag
	zoom       *gesture.Zoom
	dispatcher *gesture.Dispatcher

	logger    *zap.Logger
	metrics   *metrics.Collector
	destroyed bool
}

// New creates a graph drawing onto container. Both surfaces are required.
func New(container *Container, opts ...Option) (*Graph, error) {
	if container == nil || container.Nodes == nil || container.Edges == nil {
		return nil, core.ErrInvalidContainer
	}

	g := &Graph{
		container: *container,
		options:   DefaultOptions(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.options.SettleDelay <= 0 {
		g.options.SettleDelay = DefaultSettleDelay
	}
	if g.scheduler == nil {
		g.scheduler = NewTimerScheduler(nil)
	}
	if g.sim == nil {
		g.sim = simulation.NewForce(simulation.DefaultParams(), simulation.WithLogger(g.logger))
	}
	g.showEdge = g.options.ShowEdge

	g.body = operator.NewBody(container.Nodes, container.Edges, events.NewBus(g.logger))
	for typ, o := range g.options.TypeOptions {
		g.body.NodeOptions[typ] = o
	}
	g.op = operator.New(g.body, g.sim,
		operator.WithLogger(g.logger),
		operator.WithMetrics(g.metrics),
		operator.WithNodeOptions(g.options.NodeOptions),
	)

	g.sim.OnTick(g.onTick)
	g.bindGestures()
	g.bindEvents()

	w, h := container.Nodes.Size()
	g.logger.Info("Graph created", zap.Int("width", w), zap.Int("height", h))
	return g, nil
}

func (g *Graph) bindEvents() {
	bus := g.body.Bus
	bus.On(events.Redraw, func(any) { g.Redraw() })
	bus.On(events.RedrawNodes, func(any) { g.RedrawNodes() })
	bus.On(events.RedrawEdges, func(any) { g.RedrawEdges() })
	bus.On(events.RedrawThumb, func(any) { g.RedrawThumb() })
	bus.On(events.Resize, func(p any) {
		size, ok := p.(events.ResizePayload)
		if !ok {
			return
		}
		if err := g.SetSize(size.Width, size.Height); err != nil {
			g.logger.Error("Resize failed", zap.Error(err))
		}
	})
	bus.On(events.Tap, func(p any) {
		tap, ok := p.(events.TapPayload)
		if !ok {
			return
		}
		target := g.op.TargetAt(tap.Point)
		if tap.Callback != nil {
			tap.Callback(target)
		}
	})
	bus.On(events.Pan, func(p any) {
		pan, ok := p.(events.PanPayload)
		if !ok {
			return
		}
		g.body.Scale.X += pan.DX
		g.body.Scale.Y += pan.DY
		bus.Emit(events.Redraw, nil)
	})
	bus.On(events.ClickNode, func(any) {
		bus.Emit(events.RedrawNodes, nil)
		if g.thumb != nil {
			bus.Emit(events.RedrawThumb, nil)
		}
	})
	bus.On(events.EnableZoomPan, func(any) { g.zoom.Enable() })
	bus.On(events.DisableZoomPan, func(any) { g.zoom.Disable() })
	bus.On(events.EnableDrag, func(any) { g.drag.Enable() })
	bus.On(events.DisableDrag, func(any) { g.drag.Disable() })
}

func (g *Graph) onTick() {
	if g.destroyed {
		return
	}
	g.metrics.IncTicks()
	g.body.Bus.Emit(events.Redraw, nil)
	g.body.Bus.Emit(events.Tick, nil)
}

// Body returns the shared state. Callers must treat it as read-only.
func (g *Graph) Body() *operator.Body { return g.body }

// Operator returns the viewport engine.
func (g *Graph) Operator() *operator.Operator { return g.op }

// Bus returns the signal bus.
func (g *Graph) Bus() *events.Bus { return g.body.Bus }

// Simulation returns the layout engine.
func (g *Graph) Simulation() simulation.Simulation { return g.sim }

// Options returns the configured options.
func (g *Graph) Options() Options { return g.options }

// ShowEdge reports whether edges are currently drawn. It is false while a
// gesture is in progress.
func (g *Graph) ShowEdge() bool { return g.showEdge }

// Scale returns the viewport transform.
func (g *Graph) Scale() core.Transform { return g.body.Scale }

// SetScale replaces the viewport transform and redraws.
func (g *Graph) SetScale(t core.Transform) {
	g.body.Scale = t
	g.body.Bus.Emit(events.Redraw, nil)
}

// SetData reconciles a dataset into the graph and redraws. When center is
// set the layout pulls the graph towards the middle of the surface.
func (g *Graph) SetData(nodes, edges []core.Record, center bool) error {
	if g.destroyed {
		return ErrDestroyed
	}
	if len(nodes) == 0 {
		return nil
	}
	if err := g.op.SetDataSet(nodes, edges, center); err != nil {
		return fmt.Errorf("set data: %w", err)
	}
	g.body.Bus.Emit(events.Redraw, nil)
	return nil
}

// UpdateNodes deep-merges records into existing nodes by id.
func (g *Graph) UpdateNodes(records ...core.Record) error {
	if g.destroyed {
		return ErrDestroyed
	}
	ids, patches := index(records)
	return g.op.UpdateNodes(ids, patches, true)
}

// UpdateEdges deep-merges records into existing edges by id.
func (g *Graph) UpdateEdges(records ...core.Record) error {
	if g.destroyed {
		return ErrDestroyed
	}
	ids, patches := index(records)
	return g.op.UpdateEdges(ids, patches, true)
}

// RemoveNodes deletes nodes and their incident edges.
func (g *Graph) RemoveNodes(ids ...string) error {
	if g.destroyed {
		return ErrDestroyed
	}
	return g.op.RemoveNodes(ids)
}

// RemoveEdges deletes edges.
func (g *Graph) RemoveEdges(ids ...string) error {
	if g.destroyed {
		return ErrDestroyed
	}
	return g.op.RemoveEdges(ids)
}

func index(records []core.Record) ([]string, map[string]core.Record) {
	ids := make([]string, 0, len(records))
	patches := make(map[string]core.Record, len(records))
	for _, rec := range records {
		id := rec.ID()
		if _, seen := patches[id]; !seen {
			ids = append(ids, id)
		}
		patches[id] = rec
	}
	return ids, patches
}

// Tap resolves a screen point to the node or edge under it and hands the
// result to callback as an operator.Target.
func (g *Graph) Tap(p core.Point, event any, callback func(target any)) {
	g.body.Bus.Emit(events.Tap, events.TapPayload{Point: p, Event: event, Callback: callback})
}

// OpenThumbnail shows the minimap, creating it on first use.
func (g *Graph) OpenThumbnail(viewport, handle canvas.Context, size int, opts ...thumbnail.Option) *thumbnail.Thumbnail {
	if g.thumb == nil {
		g.thumb = thumbnail.New(g.op, viewport, handle, size, opts...)
	}
	g.thumb.Open()
	return g.thumb
}

// CloseThumbnail hides the minimap.
func (g *Graph) CloseThumbnail() {
	if g.thumb != nil {
		g.thumb.Close()
	}
}

// Thumbnail returns the minimap, or nil if it was never opened.
func (g *Graph) Thumbnail() *thumbnail.Thumbnail { return g.thumb }

// Destroy detaches every listener, stops the layout and drops all data.
// The graph is unusable afterwards.
func (g *Graph) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.cancelSettle()
	g.body.Bus.OffAll()
	g.sim.Stop()
	g.body.Reset()
	if g.thumb != nil {
		g.thumb.Close()
		g.thumb = nil
	}
	canvas.Clear(g.container.Nodes)
	canvas.Clear(g.container.Edges)
	g.logger.Info("Graph destroyed")
}

// Destroyed reports whether Destroy has run.
func (g *Graph) Destroyed() bool { return g.destroyed }
