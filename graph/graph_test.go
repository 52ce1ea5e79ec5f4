package graph

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/gesture"
	"graphview/metrics"
	"graphview/model"
	"graphview/operator"
	"graphview/simulation"
)

type fixture struct {
	g       *Graph
	nodes   *canvas.Recorder
	edges   *canvas.Recorder
	sched   *ManualScheduler
	force   *simulation.Force
	redraws int
}

func newFixture(t *testing.T, w, h int, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		nodes: canvas.NewRecorder(w, h),
		edges: canvas.NewRecorder(w, h),
		sched: NewManualScheduler(),
		force: simulation.NewForce(simulation.DefaultParams()),
	}
	all := append([]Option{WithScheduler(f.sched), WithSimulation(f.force)}, opts...)
	g, err := New(&Container{Nodes: f.nodes, Edges: f.edges}, all...)
	require.NoError(t, err)
	g.Bus().On(events.Redraw, func(any) { f.redraws++ })
	f.g = g
	return f
}

// load places a and b on screen and c far outside it, linked a-b and a-c.
func (f *fixture) load(t *testing.T) {
	t.Helper()
	nodes := []core.Record{
		{"id": "a", "label": "A", "x": 100.0, "y": 100.0},
		{"id": "b", "x": 300.0, "y": 100.0},
		{"id": "c", "x": 2000.0, "y": 2000.0},
	}
	edges := []core.Record{
		{"id": "e1", "source": "a", "target": "b"},
		{"id": "e2", "source": "a", "target": "c"},
	}
	require.NoError(t, f.g.SetData(nodes, edges, false))
	f.nodes.Reset()
	f.edges.Reset()
	f.redraws = 0
}

func (f *fixture) node(id string) *model.Node {
	n, _ := f.g.Body().LookupNode(id)
	return n
}

func pointer(kind gesture.PointerKind, x, y float64) gesture.PointerEvent {
	return gesture.PointerEvent{Kind: kind, Point: core.Point{X: x, Y: y}}
}

func TestNew_RequiresContainer(t *testing.T) {
	rec := canvas.NewRecorder(10, 10)
	tests := []struct {
		name      string
		container *Container
	}{
		{"nil", nil},
		{"no edges", &Container{Nodes: rec}},
		{"no nodes", &Container{Edges: rec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.container)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, core.ErrInvalidContainer)
			assert.ErrorIs(t, err, core.ErrContractViolation)
		})
	}
}

func TestRedraw_EdgesBeforeNodes(t *testing.T) {
	rec := canvas.NewRecorder(400, 400)
	g, err := New(&Container{Nodes: rec, Edges: rec}, WithSimulation(simulation.NewForce(simulation.DefaultParams())))
	require.NoError(t, err)
	require.NoError(t, g.SetData(
		[]core.Record{{"id": "a", "x": 10.0, "y": 10.0}, {"id": "b", "x": 50.0, "y": 50.0}},
		[]core.Record{{"source": "a", "target": "b"}},
		false,
	))
	rec.Reset()

	g.Redraw()

	names := make([]string, 0)
	for _, op := range rec.Ops() {
		names = append(names, op.Name)
	}
	lastLine := len(names) - 1 - slices.Index(reversed(names), "LineTo")
	firstArc := slices.Index(names, "Arc")
	require.GreaterOrEqual(t, firstArc, 0)
	assert.Less(t, lastLine, firstArc)
	assert.Equal(t, 0, rec.Depth(), "every pass restores what it saves")
}

func reversed(s []string) []string {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

func TestRenderNodes_CullsButEdgesAreNot(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)

	f.g.Redraw()

	view := f.g.Body().Transformed.ViewNodes
	ids := make([]string, 0, len(view))
	for _, n := range view {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 2, f.nodes.Count("Arc"))
	assert.Equal(t, 2, f.edges.Count("LineTo"), "edge to the off-screen node still draws")
	assert.Equal(t, 1, f.nodes.Count("FillText"))

	bb := f.node("c").BoundingBox
	assert.Equal(t, core.BoundingBox{Left: 1980, Right: 2020, Top: 1980, Bottom: 2020}, bb)
}

func TestRenderNodes_LabelsHiddenBelowScale(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)

	f.g.SetScale(core.Transform{K: 0.5})
	assert.Zero(t, f.nodes.Count("FillText"))

	f.nodes.Reset()
	f.g.SetScale(core.Transform{K: 0.7})
	assert.Equal(t, 1, f.nodes.Count("FillText"))
}

func TestRenderEdges_Skipped(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowEdge = false
	f := newFixture(t, 400, 400, WithOptions(opts))
	f.load(t)

	f.g.RedrawEdges()

	assert.Equal(t, 1, f.edges.Count("ClearRect"))
	assert.Zero(t, f.edges.Count("LineTo"))
}

func TestSetSize_WidthOnly(t *testing.T) {
	f := newFixture(t, 200, 200)
	before := f.g.Operator().ViewCenter()
	require.Equal(t, core.Point{X: 100, Y: 100}, before)

	require.NoError(t, f.g.SetSize(400, 200))

	assert.Equal(t, core.Transform{K: 2, X: 0, Y: -100}, f.g.Scale())
	assert.Equal(t, before, f.g.Operator().ViewCenter())
	assert.Equal(t, 1, f.redraws)
	assert.Equal(t, 1, f.nodes.Count("Resize"))
	assert.Equal(t, 1, f.edges.Count("Resize"))
}

func TestSetSize_BothAxesAverage(t *testing.T) {
	f := newFixture(t, 200, 200)
	before := f.g.Operator().ViewCenter()

	require.NoError(t, f.g.SetSize(300, 100))

	assert.Equal(t, core.Transform{K: 1, X: 50, Y: -50}, f.g.Scale())
	assert.Equal(t, before, f.g.Operator().ViewCenter())
}

func TestSetSize_DegenerateIsIgnored(t *testing.T) {
	f := newFixture(t, 200, 200)

	require.NoError(t, f.g.SetSize(0, 100))
	require.NoError(t, f.g.SetSize(200, 0))
	require.NoError(t, f.g.SetSize(200, 200))

	assert.Equal(t, core.Identity, f.g.Scale())
	assert.Zero(t, f.redraws)
	assert.Zero(t, f.nodes.Count("Resize"))
}

func TestResizeSignal(t *testing.T) {
	f := newFixture(t, 200, 200)

	f.g.Bus().Emit(events.Resize, events.ResizePayload{Width: 400, Height: 200})

	w, h := f.nodes.Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)
	assert.Equal(t, 2.0, f.g.Scale().K)
}

func TestDrag_Lifecycle(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.Redraw()
	f.redraws = 0

	require.True(t, f.g.HandlePointer(pointer(gesture.PointerDown, 105, 100)))
	a := f.node("a")
	nodes := f.g.Body().Transformed.Nodes
	assert.Same(t, a, nodes[len(nodes)-1], "dragged node draws last")
	assert.True(t, a.Dragged)
	assert.Equal(t, 5.0, a.DragOffsetX)
	assert.Equal(t, 0.0, a.DragOffsetY)
	assert.Equal(t, 1, f.redraws)

	require.True(t, f.g.HandlePointer(pointer(gesture.PointerMove, 155, 130)))
	assert.Equal(t, 150.0, a.X)
	assert.Equal(t, 130.0, a.Y)
	assert.False(t, f.g.ShowEdge())
	assert.True(t, f.g.Body().HideLabel)

	require.True(t, f.g.HandlePointer(pointer(gesture.PointerUp, 155, 130)))
	assert.False(t, a.Dragged)
	assert.True(t, math.IsNaN(a.DragOffsetX))
	assert.True(t, math.IsNaN(a.DragOffsetY))
	assert.True(t, f.g.SettlePending())

	f.redraws = 0
	f.sched.Advance(199 * time.Millisecond)
	assert.True(t, f.g.Body().HideLabel)
	assert.Zero(t, f.redraws)

	f.sched.Advance(time.Millisecond)
	assert.False(t, f.g.Body().HideLabel)
	assert.True(t, f.g.ShowEdge())
	assert.Equal(t, 1, f.redraws)
	assert.False(t, f.g.SettlePending())
}

func TestDrag_RestartCancelsPendingSettle(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.Redraw()

	f.g.HandlePointer(pointer(gesture.PointerDown, 100, 100))
	f.g.HandlePointer(pointer(gesture.PointerMove, 120, 100))
	f.g.HandlePointer(pointer(gesture.PointerUp, 120, 100))
	require.Equal(t, 1, f.sched.Pending())

	f.sched.Advance(100 * time.Millisecond)
	f.g.HandlePointer(pointer(gesture.PointerDown, 120, 100))
	assert.Zero(t, f.sched.Pending())
	assert.False(t, f.g.SettlePending())

	f.sched.Advance(time.Second)
	assert.True(t, f.g.Body().HideLabel, "cancelled settle must not restore mid-drag")

	f.g.HandlePointer(pointer(gesture.PointerUp, 120, 100))
	f.sched.Advance(200 * time.Millisecond)
	assert.False(t, f.g.Body().HideLabel)
}

func TestDrag_DisabledLeavesNodeInPlace(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableDrag = false
	f := newFixture(t, 400, 400, WithOptions(opts))
	f.load(t)
	f.g.Redraw()

	f.g.HandlePointer(pointer(gesture.PointerDown, 100, 100))
	f.g.HandlePointer(pointer(gesture.PointerMove, 150, 150))
	a := f.node("a")
	assert.Equal(t, 100.0, a.X)
	assert.False(t, a.Dragged)
	assert.Equal(t, "a", f.g.Body().Transformed.Nodes[0].ID)

	f.g.HandlePointer(pointer(gesture.PointerUp, 150, 150))
	f.sched.Advance(200 * time.Millisecond)
	assert.False(t, f.g.Body().HideLabel)
}

func TestZoom_PanOnEmptySpace(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.Redraw()
	f.redraws = 0

	require.True(t, f.g.HandlePointer(pointer(gesture.PointerDown, 10, 10)))
	assert.True(t, f.g.Body().HideLabel)
	assert.False(t, f.g.ShowEdge())

	f.g.HandlePointer(pointer(gesture.PointerMove, 30, 20))
	assert.Equal(t, core.Transform{K: 1, X: 20, Y: 10}, f.g.Scale())
	assert.Equal(t, 1, f.redraws)

	f.g.HandlePointer(pointer(gesture.PointerUp, 30, 20))
	assert.False(t, f.g.Body().HideLabel)
	assert.True(t, f.g.ShowEdge())
	assert.Equal(t, core.Transform{K: 1, X: 20, Y: 10}, f.g.Scale())
	assert.Equal(t, 2, f.redraws)
}

func TestZoom_WheelScalesAboutPointer(t *testing.T) {
	f := newFixture(t, 400, 400)

	f.g.HandlePointer(gesture.PointerEvent{Kind: gesture.PointerWheel, Point: core.Point{X: 200, Y: 200}, WheelDelta: 4})

	assert.Equal(t, core.Transform{K: 2, X: -200, Y: -200}, f.g.Scale())
}

func TestZoom_SameTransformIgnored(t *testing.T) {
	f := newFixture(t, 400, 400)

	f.g.Zoom(gesture.ZoomEvent{Phase: gesture.Zooming, Transform: core.Identity})

	assert.Zero(t, f.redraws)
}

func TestZoom_ShiftGating(t *testing.T) {
	tests := []struct {
		name      string
		moveShift bool
		upShift   bool
		afterMove core.Transform
	}{
		{"no shift", false, false, core.Transform{K: 1, X: 20, Y: 10}},
		{"shift on move", true, false, core.Identity},
		{"shift on release", false, true, core.Transform{K: 1, X: 20, Y: 10}},
		{"shift on move and release", true, true, core.Identity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 400, 400)
			move := pointer(gesture.PointerMove, 30, 20)
			move.Shift = tt.moveShift
			up := pointer(gesture.PointerUp, 50, 40)
			up.Shift = tt.upShift

			f.g.HandlePointer(pointer(gesture.PointerDown, 10, 10))
			f.g.HandlePointer(move)
			assert.Equal(t, tt.afterMove, f.g.Scale())
			f.g.HandlePointer(up)
			// The end event carries the accumulated pan and always applies.
			assert.Equal(t, core.Transform{K: 1, X: 20, Y: 10}, f.g.Scale())
			assert.False(t, f.g.Body().HideLabel)
			assert.True(t, f.g.ShowEdge())
		})
	}
}

func TestZoom_ShiftReleaseRestoresDrawState(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.g.Redraw()

	f.g.HandlePointer(pointer(gesture.PointerDown, 10, 10))
	f.g.HandlePointer(pointer(gesture.PointerMove, 30, 20))
	require.True(t, f.g.Body().HideLabel)

	up := pointer(gesture.PointerUp, 50, 40)
	up.Shift = true
	f.g.HandlePointer(up)

	assert.False(t, f.g.Body().HideLabel)
	assert.True(t, f.g.ShowEdge())
	assert.Equal(t, core.Transform{K: 1, X: 20, Y: 10}, f.g.Scale())
}

func TestZoom_ShiftHeldAppliesOnlyEnd(t *testing.T) {
	f := newFixture(t, 400, 400)
	next := core.Transform{K: 2}

	f.g.ZoomStart(gesture.ZoomEvent{Phase: gesture.ZoomStart, Shift: true})
	assert.False(t, f.g.Body().HideLabel)
	assert.True(t, f.g.ShowEdge())

	f.g.Zoom(gesture.ZoomEvent{Phase: gesture.Zooming, Transform: next, Shift: true})
	assert.Equal(t, core.Identity, f.g.Scale())

	f.g.ZoomEnd(gesture.ZoomEvent{Phase: gesture.ZoomEnd, Transform: next, Shift: true})
	assert.False(t, f.g.Body().HideLabel)
	assert.True(t, f.g.ShowEdge())
	assert.Equal(t, next, f.g.Scale())
}

func TestZoom_DisabledByOption(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableZoomPan = false
	f := newFixture(t, 400, 400, WithOptions(opts))

	f.g.HandlePointer(pointer(gesture.PointerDown, 10, 10))
	f.g.HandlePointer(pointer(gesture.PointerMove, 50, 50))
	f.g.HandlePointer(pointer(gesture.PointerUp, 50, 50))

	assert.Equal(t, core.Identity, f.g.Scale())
	assert.False(t, f.g.Body().HideLabel)
}

func TestShiftMouseDownDisablesGestures(t *testing.T) {
	f := newFixture(t, 400, 400)

	f.g.HandlePointer(gesture.PointerEvent{Kind: gesture.PointerDown, Shift: true, Button: gesture.ButtonPrimary})

	assert.False(t, f.g.DragEnabled())
	assert.False(t, f.g.ZoomPanEnabled())

	f.g.Bus().Emit(events.EnableDrag, nil)
	f.g.Bus().Emit(events.EnableZoomPan, nil)
	assert.True(t, f.g.DragEnabled())
	assert.True(t, f.g.ZoomPanEnabled())

	f.g.Bus().Emit(events.DisableDrag, nil)
	assert.False(t, f.g.DragEnabled())
}

func TestPanSignal(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.g.SetScale(core.Transform{K: 2, X: 1, Y: 1})
	f.redraws = 0

	f.g.Bus().Emit(events.Pan, events.PanPayload{DX: 10, DY: -5})

	assert.Equal(t, core.Transform{K: 2, X: 11, Y: -4}, f.g.Scale())
	assert.Equal(t, 1, f.redraws)
}

func TestTap(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.Redraw()

	tests := []struct {
		name string
		at   core.Point
		node string
		edge string
	}{
		{"node", core.Point{X: 102, Y: 98}, "a", ""},
		{"edge", core.Point{X: 200, Y: 105}, "", "e1"},
		{"nothing", core.Point{X: 10, Y: 390}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got operator.Target
			f.g.Tap(tt.at, "click", func(target any) { got = target.(operator.Target) })

			switch {
			case tt.node != "":
				require.NotNil(t, got.Node)
				assert.Equal(t, tt.node, got.Node.ID)
			case tt.edge != "":
				require.NotNil(t, got.Edge)
				assert.Equal(t, tt.edge, got.Edge.ID)
			default:
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestTick_Redraws(t *testing.T) {
	c := metrics.NewCollector("test")
	f := newFixture(t, 400, 400, WithMetrics(c))
	f.load(t)
	ticks := 0
	f.g.Bus().On(events.Tick, func(any) { ticks++ })

	f.force.Tick()

	assert.Equal(t, 1, f.redraws)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, float64(len(f.g.Body().Transformed.ViewNodes)), testutil.ToFloat64(c.VisibleNodes))
}

func TestUpdateAndRemove(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)

	require.NoError(t, f.g.UpdateNodes(core.Record{"id": "a", "label": "Z"}))
	assert.Equal(t, "Z", f.node("a").Label)

	err := f.g.UpdateNodes(core.Record{"id": "b", "label": "B"}, core.Record{"id": "zz"})
	var unknown *core.UnknownEntityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "zz", unknown.ID)
	assert.Empty(t, f.node("b").Label)

	require.NoError(t, f.g.RemoveNodes("c"))
	_, ok := f.g.Body().EdgeMaps["e2"]
	assert.False(t, ok)

	require.NoError(t, f.g.RemoveEdges("e1"))
	assert.Empty(t, f.g.Body().Transformed.Edges)
}

func TestSetData_EmptyIsNoop(t *testing.T) {
	f := newFixture(t, 400, 400)

	require.NoError(t, f.g.SetData(nil, []core.Record{{"source": "a", "target": "b"}}, true))

	assert.Empty(t, f.g.Body().Transformed.Edges)
	assert.Zero(t, f.redraws)
}

func TestThumbnail_FollowsSignals(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.Redraw()

	vp, handle := canvas.NewRecorder(160, 160), canvas.NewRecorder(160, 160)
	th := f.g.OpenThumbnail(vp, handle, 0)
	require.Same(t, th, f.g.Thumbnail())
	assert.Equal(t, 3, vp.Count("Arc"))

	vp.Reset()
	f.g.Bus().Emit(events.ClickNode, events.ClickNodePayload{NodeID: "a"})
	assert.Equal(t, 3, vp.Count("Arc"))

	before := f.g.Scale()
	th.Click(core.Point{X: 0, Y: 0})
	assert.NotEqual(t, before, f.g.Scale())

	f.g.CloseThumbnail()
	vp.Reset()
	f.g.Redraw()
	assert.Empty(t, vp.Ops())
}

func TestDestroy(t *testing.T) {
	f := newFixture(t, 400, 400)
	f.load(t)
	f.g.OpenThumbnail(canvas.NewRecorder(160, 160), canvas.NewRecorder(160, 160), 0)
	f.g.Redraw()
	f.g.HandlePointer(pointer(gesture.PointerDown, 100, 100))
	f.g.HandlePointer(pointer(gesture.PointerUp, 100, 100))
	require.True(t, f.g.SettlePending())

	f.g.Destroy()

	assert.True(t, f.g.Destroyed())
	assert.Zero(t, f.sched.Pending())
	assert.False(t, f.g.Bus().HasListeners(events.Redraw))
	assert.Empty(t, f.g.Body().NodeMaps)
	assert.Empty(t, f.g.Body().EdgeMaps)
	assert.Empty(t, f.g.Body().Transformed.Nodes)
	assert.Nil(t, f.g.Thumbnail())
	assert.False(t, f.force.Running())

	assert.ErrorIs(t, f.g.SetData([]core.Record{{"id": "x"}}, nil, false), ErrDestroyed)
	assert.ErrorIs(t, f.g.SetSize(10, 10), ErrDestroyed)
	assert.False(t, f.g.HandlePointer(pointer(gesture.PointerDown, 0, 0)))

	f.g.Destroy()
}
