package operator

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/geometry"
	"graphview/model"
)

// mockSimulation records what the operator hands the layout engine and
// resolves links the way a real engine would.
type mockSimulation struct {
	mock.Mock
	nodes []*model.Node
}

func (m *mockSimulation) SetNodes(nodes []*model.Node) {
	m.nodes = nodes
	m.Called(len(nodes))
}

func (m *mockSimulation) SetLinks(edges []*model.Edge) error {
	index := make(map[string]*model.Node, len(m.nodes))
	for _, n := range m.nodes {
		index[n.ID] = n
	}
	var errs []error
	for _, e := range edges {
		errs = append(errs, e.Resolve(func(id string) (*model.Node, bool) {
			n, ok := index[id]
			return n, ok
		}))
	}
	m.Called(len(edges))
	return errors.Join(errs...)
}

func (m *mockSimulation) SetCenter(x, y float64) { m.Called(x, y) }
func (m *mockSimulation) ClearCenter()           { m.Called() }
func (m *mockSimulation) Restart(alpha float64)  { m.Called(alpha) }
func (m *mockSimulation) Stop()                  { m.Called() }
func (m *mockSimulation) OnTick(fn func())       {}
func (m *mockSimulation) Alpha() float64         { return 1 }

func newMockSimulation() *mockSimulation {
	m := &mockSimulation{}
	m.On("SetNodes", mock.Anything).Return()
	m.On("SetLinks", mock.Anything).Return()
	m.On("SetCenter", mock.Anything, mock.Anything).Return()
	m.On("ClearCenter").Return()
	m.On("Restart", mock.Anything).Return()
	m.On("Stop").Return()
	return m
}

func newTestOperator(t *testing.T) (*Operator, *mockSimulation) {
	t.Helper()
	body := NewBody(canvas.NewRecorder(200, 200), canvas.NewRecorder(200, 200), events.NewBus(nil))
	sim := newMockSimulation()
	return New(body, sim), sim
}

// place positions a node and marks it visible, as a node pass would.
func place(o *Operator, id string, x, y float64) *model.Node {
	n := o.body.NodeMaps[id]
	n.X, n.Y = x, y
	n.InitialBBox()
	o.body.Transformed.ViewNodes = append(o.body.Transformed.ViewNodes, n)
	return n
}

func TestSetDataSet_EmptyIsNoop(t *testing.T) {
	o, sim := newTestOperator(t)
	require.NoError(t, o.SetDataSet(nil, []core.Record{{"source": "a", "target": "b"}}, true))
	assert.Empty(t, o.body.Transformed.Edges)
	sim.AssertNotCalled(t, "Restart", mock.Anything)
}

func TestSetDataSet_CentersAndRestarts(t *testing.T) {
	o, sim := newTestOperator(t)
	nodes := []core.Record{{"id": "a"}, {"id": "b"}}
	edges := []core.Record{{"id": "ab", "source": "a", "target": "b"}}

	require.NoError(t, o.SetDataSet(nodes, edges, true))

	sim.AssertCalled(t, "SetCenter", 100.0, 100.0)
	sim.AssertCalled(t, "Restart", 1.0)
	assert.Len(t, o.body.Transformed.Nodes, 2)
	assert.Same(t, o.body.NodeMaps["b"], o.body.EdgeMaps["ab"].Target())

	require.NoError(t, o.SetDataSet(nodes, nil, false))
	sim.AssertCalled(t, "ClearCenter")
}

func TestSetDataSet_AssignsMissingIDs(t *testing.T) {
	o, _ := newTestOperator(t)
	rec := core.Record{"label": "anon"}

	require.NoError(t, o.SetDataSet([]core.Record{rec}, nil, true))

	id := rec.ID()
	require.NotEmpty(t, id)
	assert.Equal(t, "anon", o.body.NodeMaps[id].Label)
}

func TestReconcile_IdempotentOnID(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a", "label": "one"}, {"id": "b"}}, nil, true))

	var raw []core.Record
	raw = append(raw, o.body.Data.Nodes...)
	added, updated := Reconcile([]core.Record{{"id": "a", "label": "two"}}, &raw, func(id string) bool {
		_, ok := o.body.NodeMaps[id]
		return ok
	})
	assert.Empty(t, added)
	assert.Equal(t, []string{"a"}, updated)

	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a", "label": "two"}}, nil, true))

	assert.Len(t, o.body.Transformed.Nodes, 2)
	assert.Len(t, o.body.NodeMaps, 2)
	assert.Equal(t, "two", o.body.NodeMaps["a"].Label)
	assert.Equal(t, "a", o.body.Data.Nodes[0].ID(), "raw position is preserved")
	assert.Equal(t, "two", o.body.Data.Nodes[0].String("label"))
}

func TestReconcile_DuplicateInBatch(t *testing.T) {
	var raw []core.Record
	added, updated := Reconcile(
		[]core.Record{{"id": "x", "label": "first"}, {"id": "x", "label": "second"}},
		&raw,
		func(string) bool { return false },
	)

	assert.Equal(t, []string{"x"}, added)
	assert.Equal(t, []string{"x"}, updated)
	require.Len(t, raw, 1)
	assert.Equal(t, "second", raw[0].String("label"))
}

func TestUpdateNodes_UnknownIDLeavesDataUntouched(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a", "label": "A"}}, nil, true))

	err := o.UpdateNodes([]string{"a", "ghost"}, map[string]core.Record{
		"a":     {"label": "changed"},
		"ghost": {"label": "boo"},
	}, true)

	var unknown *core.UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.ID)
	assert.ErrorIs(t, err, core.ErrUnknownEntity)
	assert.Equal(t, "A", o.body.NodeMaps["a"].Label)
	assert.Len(t, o.body.Transformed.Nodes, 1)
}

func TestUpdateNodes_FlushEmitsRedraws(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}}, nil, true))

	var got []events.Signal
	o.body.Bus.On(events.RedrawNodes, func(any) { got = append(got, events.RedrawNodes) })
	o.body.Bus.On(events.RedrawThumb, func(any) { got = append(got, events.RedrawThumb) })

	require.NoError(t, o.UpdateNodes([]string{"a"}, map[string]core.Record{"a": {"status": "selection"}}, true))

	assert.Equal(t, []events.Signal{events.RedrawNodes, events.RedrawThumb}, got)
	assert.Equal(t, core.StatusSelection, o.body.NodeMaps["a"].Status)
}

func TestUpdateEdges_InPlace(t *testing.T) {
	o, _ := newTestOperator(t)
	nodes := []core.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}}
	require.NoError(t, o.SetDataSet(nodes, []core.Record{{"id": "e", "source": "a", "target": "b"}}, true))
	before := o.body.EdgeMaps["e"]

	require.NoError(t, o.SetDataSet(nodes, []core.Record{{"id": "e", "source": "a", "target": "c"}}, true))

	assert.Same(t, before, o.body.EdgeMaps["e"])
	assert.Len(t, o.body.Transformed.Edges, 1)
	assert.Same(t, o.body.NodeMaps["c"], before.Target())
}

func TestSetDataSet_DanglingEdgeLeavesBodyUntouched(t *testing.T) {
	tests := []struct {
		name  string
		edges []core.Record
		end   string
	}{
		{"unknown target", []core.Record{{"id": "e1", "source": "a", "target": "ghost"}}, "ghost"},
		{"missing source", []core.Record{{"id": "e1", "target": "a"}}, ""},
		{"second edge dangles", []core.Record{
			{"id": "e1", "source": "a", "target": "b"},
			{"id": "e2", "source": "ghost", "target": "b"},
		}, "ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, sim := newTestOperator(t)

			err := o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b"}}, tt.edges, true)

			var unknown *core.UnknownEntityError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, core.KindNode, unknown.Kind)
			assert.Equal(t, tt.end, unknown.ID)
			assert.Empty(t, o.body.NodeMaps)
			assert.Empty(t, o.body.EdgeMaps)
			assert.Empty(t, o.body.Data.Nodes)
			assert.Empty(t, o.body.Data.Edges)
			assert.Empty(t, o.body.Transformed.Edges)
			sim.AssertNotCalled(t, "SetLinks", mock.Anything)
			sim.AssertNotCalled(t, "Restart", mock.Anything)
		})
	}
}

func TestSetDataSet_EdgeMayNameLiveNode(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}}, nil, true))

	require.NoError(t, o.SetDataSet([]core.Record{{"id": "b"}}, []core.Record{{"id": "ab", "source": "a", "target": "b"}}, true))

	assert.True(t, o.body.EdgeMaps["ab"].Resolved())
}

func TestUpdateEdges_DanglingPatchLeavesEdge(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet(
		[]core.Record{{"id": "a"}, {"id": "b"}},
		[]core.Record{{"id": "ab", "source": "a", "target": "b"}},
		true,
	))

	err := o.UpdateEdges([]string{"ab"}, map[string]core.Record{"ab": {"id": "ab", "target": "ghost"}}, true)

	require.ErrorIs(t, err, core.ErrUnknownEntity)
	e := o.body.EdgeMaps["ab"]
	assert.Equal(t, "b", e.TargetID)
	assert.Same(t, o.body.NodeMaps["b"], e.Target())
}

func TestSetDataSet_UnknownShapeLeavesBodyUntouched(t *testing.T) {
	o, _ := newTestOperator(t)
	o.body.Shapes.SetFallback(nil)

	err := o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b", "shape": "hexagon"}}, nil, true)

	require.Error(t, err)
	assert.Empty(t, o.body.NodeMaps)
	assert.Empty(t, o.body.Data.Nodes)
}

func TestSeeding_SunflowerAroundParent(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "p"}}, nil, true))
	parent := o.body.NodeMaps["p"]
	parent.X, parent.Y = 100, 50

	batch := []core.Record{{"id": "p"}}
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		batch = append(batch, core.Record{"id": id})
	}
	require.NoError(t, o.SetDataSet(batch, nil, true))

	seen := make(map[core.Point]bool)
	prev := -1.0
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		n := o.body.NodeMaps[id]
		require.True(t, n.HasPosition(), id)
		assert.False(t, seen[n.Position()], "positions are distinct")
		seen[n.Position()] = true

		d := geometry.Distance(n.Position(), parent.Position())
		assert.Greater(t, d, prev, "distance grows with index")
		prev = d
	}
}

func TestSeeding_SkippedForWholeGraph(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b"}}, nil, true))

	for _, n := range o.body.Transformed.Nodes {
		assert.False(t, n.HasPosition())
	}
}

func TestRange(t *testing.T) {
	o, _ := newTestOperator(t)
	assert.Equal(t, core.Range{}, o.Range())

	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b"}}, nil, true))
	assert.Equal(t, core.Range{}, o.Range(), "nodes without boxes do not count")

	place(o, "a", 10, 10)
	assert.Equal(t, core.Range{MinX: -10, MaxX: 30, MinY: -10, MaxY: 30}, o.Range())

	place(o, "b", 100, -50)
	want := core.Range{MinX: -10, MaxX: 120, MinY: -70, MaxY: 30}
	if diff := cmp.Diff(want, o.Range()); diff != "" {
		t.Errorf("Range() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, core.Range{MinX: 80, MaxX: 120, MinY: -70, MaxY: -30}, o.Range("b", "missing"))
}

func TestFindNode(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}}, nil, true))
	place(o, "a", 0, 0)
	place(o, "b", 5, 5)
	place(o, "c", 100, 100)

	n, err := o.FindNode(1, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, "a", n.ID)

	n, err = o.FindNode(300, 300, 50)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = o.FindNode(0, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, n)

	for _, r := range []float64{-1, math.NaN()} {
		_, err = o.FindNode(1, 1, r)
		assert.ErrorIs(t, err, core.ErrMissingRadius)
		assert.ErrorIs(t, err, core.ErrContractViolation)
	}
}

func TestFindNode_OnlyVisible(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}}, nil, true))
	n := o.body.NodeMaps["a"]
	n.X, n.Y = 0, 0

	got, err := o.FindNode(0, 0, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindEdge(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet(
		[]core.Record{{"id": "a"}, {"id": "b"}},
		[]core.Record{{"id": "ab", "source": "a", "target": "b"}},
		true,
	))
	place(o, "a", 0, 0)
	place(o, "b", 10, 0)

	assert.Nil(t, o.FindEdge(5, 20))
	assert.Equal(t, "ab", o.FindEdge(5, 9).ID)
	assert.Equal(t, "ab", o.FindEdge(-5, 0).ID)
	assert.Nil(t, o.FindEdge(-10, 0))
}

func TestTargetAt_PrefersNodes(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet(
		[]core.Record{{"id": "a"}, {"id": "b"}},
		[]core.Record{{"id": "ab", "source": "a", "target": "b"}},
		true,
	))
	place(o, "a", 50, 50)
	place(o, "b", 150, 50)
	o.body.Scale = core.Transform{K: 2, X: 10, Y: 0}

	hit := o.TargetAt(core.Point{X: 110, Y: 100})
	require.NotNil(t, hit.Node)
	assert.Equal(t, "a", hit.Node.ID)

	hit = o.TargetAt(core.Point{X: 210, Y: 100})
	assert.Nil(t, hit.Node)
	require.NotNil(t, hit.Edge)
	assert.Equal(t, "ab", hit.Edge.ID)

	assert.True(t, o.TargetAt(core.Point{X: 10, Y: 390}).IsZero())
}

func TestIsInViewport(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}}, nil, true))
	n := place(o, "a", 100, 100)

	assert.True(t, o.IsInViewport(n))

	o.body.Scale = core.Transform{K: 1, X: -90, Y: 0}
	assert.False(t, o.IsInViewport(n), "box crosses the left edge after panning")

	o.body.Scale = core.Transform{K: 0.5, X: 0, Y: 0}
	n.X, n.Y = 350, 350
	n.InitialBBox()
	assert.True(t, o.IsInViewport(n), "zooming out widens the world footprint")
}

func TestRectQueries(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a"}, {"id": "b"}}, nil, true))
	a := place(o, "a", 10, 10)
	b := place(o, "b", 50, 50)

	rect := core.Rect{X0: 10, Y0: 10, X1: 40, Y1: 40}
	got := o.FindNodesByRect(o.body.Transformed.Nodes, rect)
	assert.Equal(t, []*model.Node{a}, got, "boundary is inclusive")
	assert.False(t, o.NodeIsInRect(a, rect), "boundary is exclusive")
	assert.False(t, o.NodeIsInRect(b, rect))
	assert.True(t, o.NodeIsInRect(b, core.Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}))
}

func TestViewCenter(t *testing.T) {
	o, _ := newTestOperator(t)
	o.body.Scale = core.Transform{K: 2, X: 50, Y: -50}
	assert.Equal(t, core.Point{X: 25, Y: 75}, o.ViewCenter())
}

func TestRemoveNodes_DropsIncidentEdges(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet(
		[]core.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}},
		[]core.Record{
			{"id": "ab", "source": "a", "target": "b"},
			{"id": "bc", "source": "b", "target": "c"},
			{"id": "ca", "source": "c", "target": "a"},
		},
		true,
	))

	err := o.RemoveNodes([]string{"b", "nope"})
	require.ErrorIs(t, err, core.ErrUnknownEntity)
	assert.Len(t, o.body.NodeMaps, 3)

	require.NoError(t, o.RemoveNodes([]string{"b"}))
	assert.NotContains(t, o.body.NodeMaps, "b")
	assert.Len(t, o.body.Transformed.Nodes, 2)
	assert.Len(t, o.body.Data.Nodes, 2)
	assert.Equal(t, []string{"ca"}, edgeIDs(o.body.Transformed.Edges))
	assert.Len(t, o.body.Data.Edges, 1)
}

func TestRemoveEdges(t *testing.T) {
	o, _ := newTestOperator(t)
	require.NoError(t, o.SetDataSet(
		[]core.Record{{"id": "a"}, {"id": "b"}},
		[]core.Record{{"id": "ab", "source": "a", "target": "b"}},
		true,
	))

	var unknown *core.UnknownEntityError
	require.ErrorAs(t, o.RemoveEdges([]string{"zz"}), &unknown)
	assert.Equal(t, core.KindEdge, unknown.Kind)

	require.NoError(t, o.RemoveEdges([]string{"ab"}))
	assert.Empty(t, o.body.EdgeMaps)
	assert.Len(t, o.body.Transformed.Nodes, 2)
}

func TestNodeOptionsPerType(t *testing.T) {
	o, _ := newTestOperator(t)
	o.body.NodeOptions["server"] = model.NodeOptions{Color: model.NodeColors{Default: model.ColorPair{Background: "#111111"}}}

	require.NoError(t, o.SetDataSet([]core.Record{{"id": "a", "type": "server"}, {"id": "b", "shape": "square"}}, nil, true))

	assert.Equal(t, "#111111", o.body.NodeMaps["a"].Options.Color.Default.Background)
	assert.Equal(t, model.ShapeSquare, o.body.NodeMaps["b"].Shape.Kind())
	assert.Equal(t, model.ShapeCircle, o.body.NodeMaps["a"].Shape.Kind())
}

func edgeIDs(edges []*model.Edge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}
