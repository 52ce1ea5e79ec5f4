// Package terminal runs a graph inside a terminal. Nodes and edges are
// drawn onto character-matrix surfaces, mouse input drives the drag and
// zoom gestures and the keyboard toggles the view switches.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/gesture"
	"graphview/graph"
	"graphview/model"
	"graphview/operator"
	"graphview/simulation"
	"graphview/thumbnail"
)

// ErrScreenTooSmall is returned when the screen has no room for the graph
// below the status line.
var ErrScreenTooSmall = errors.New("screen too small")

const (
	// DefaultThumbnailSize is the minimap side in device units. A terminal
	// cell is one unit wide and two high.
	DefaultThumbnailSize = 32
	// panStep is how far the arrow keys move the view, in device units.
	panStep = 4
)

// Viewer owns a tcell screen and the graph drawn on it. Everything except
// post runs on the goroutine that called Run.
type Viewer struct {
	screen tcell.Screen
	graph  *graph.Graph

	nodes, edges  *canvas.MatrixCanvas
	thumbViewport *canvas.MatrixCanvas
	thumbHandle   *canvas.MatrixCanvas
	thumbSize     int
	thumbOpts     []thumbnail.Option

	logger *zap.Logger
	title  string
	status string
	help   bool
	quit   bool

	// Mouse state between tcell events, which only report held buttons.
	down      bool
	downAt    core.Point
	moved     bool
	inThumb   bool
	shiftDown bool

	mu     sync.Mutex
	queue  []func()
	waking bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the viewer's logger. The graph takes its own through
// graph.WithLogger. The screen owns the terminal, so log to a file.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// WithThumbnail sets the minimap size in device units and its options.
func WithThumbnail(size int, opts ...thumbnail.Option) Option {
	return func(v *Viewer) {
		v.thumbSize = size
		v.thumbOpts = opts
	}
}

// WithTitle sets the text shown at the start of the status line.
func WithTitle(title string) Option {
	return func(v *Viewer) {
		v.title = title
	}
}

// wakeEvent nudges PollEvent so queued work gets drained.
type wakeEvent struct {
	when time.Time
}

func (e *wakeEvent) When() time.Time { return e.when }

// New creates a viewer on an initialised screen and a graph sized to it.
// The viewer installs its own scheduler so settle callbacks run on the
// event loop; any scheduler in gopts is overridden.
func New(screen tcell.Screen, gopts []graph.Option, opts ...Option) (*Viewer, error) {
	v := &Viewer{
		screen:    screen,
		thumbSize: DefaultThumbnailSize,
		logger:    zap.NewNop(),
		title:     "graphview",
	}
	for _, opt := range opts {
		opt(v)
	}

	cols, rows := screen.Size()
	if cols <= 0 || rows < 2 {
		return nil, fmt.Errorf("%w: %dx%d", ErrScreenTooSmall, cols, rows)
	}
	v.nodes = canvas.NewMatrixCanvas(cols, rows-1)
	v.edges = canvas.NewMatrixCanvas(cols, rows-1)
	v.thumbViewport = canvas.NewMatrixCanvas(v.thumbSize, (v.thumbSize+1)/2)
	v.thumbHandle = canvas.NewMatrixCanvas(v.thumbSize, (v.thumbSize+1)/2)

	gopts = append(gopts[:len(gopts):len(gopts)], graph.WithScheduler(graph.NewTimerScheduler(v.post)))
	g, err := graph.New(&graph.Container{Nodes: v.nodes, Edges: v.edges}, gopts...)
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	v.graph = g
	return v, nil
}

// Graph returns the graph the viewer drives.
func (v *Viewer) Graph() *graph.Graph { return v.graph }

// Run processes screen events until the user quits or ctx is cancelled.
// When the graph uses the built-in force layout it is ticked on the event
// loop for the duration. The graph is destroyed on return.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer v.graph.Destroy()

	if force, ok := v.graph.Simulation().(*simulation.Force); ok {
		go func() {
			if err := force.Run(ctx, v.post); err != nil && !errors.Is(err, context.Canceled) {
				v.logger.Error("Layout stopped", zap.Error(err))
			}
		}()
	}
	go func() {
		<-ctx.Done()
		v.post(func() { v.quit = true })
	}()

	v.logger.Info("Viewer started")
	for !v.quit {
		v.drain()
		if v.quit {
			break
		}
		v.Draw()
		v.screen.Show()

		ev := v.screen.PollEvent()
		if ev == nil {
			break
		}
		v.HandleEvent(ev)
	}
	v.logger.Info("Viewer stopped")
	return nil
}

// post queues fn for the event loop. It is safe for concurrent use.
func (v *Viewer) post(fn func()) {
	v.mu.Lock()
	v.queue = append(v.queue, fn)
	wake := !v.waking
	v.waking = true
	v.mu.Unlock()

	if !wake {
		return
	}
	if err := v.screen.PostEvent(&wakeEvent{when: time.Now()}); err != nil {
		// Queue full: the next event drains the work anyway.
		v.mu.Lock()
		v.waking = false
		v.mu.Unlock()
	}
}

func (v *Viewer) drain() {
	v.mu.Lock()
	queue := v.queue
	v.queue = nil
	v.waking = false
	v.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// HandleEvent applies one screen event. It reports false once the viewer
// should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *wakeEvent:
		v.drain()
	case *tcell.EventResize:
		v.screen.Sync()
		cols, rows := ev.Size()
		v.resize(cols, rows)
	case *tcell.EventKey:
		v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	}
	return !v.quit
}

func (v *Viewer) resize(cols, rows int) {
	if cols <= 0 || rows < 2 {
		return
	}
	// SetSize takes device units; every row is two of them.
	v.graph.Bus().Emit(events.Resize, events.ResizePayload{Width: cols, Height: (rows - 1) * 2})
}

func (v *Viewer) handleKey(ev *tcell.EventKey) {
	if v.help {
		v.help = false
		return
	}

	bus := v.graph.Bus()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.quit = true
		return
	case tcell.KeyUp:
		bus.Emit(events.Pan, events.PanPayload{DY: panStep})
		return
	case tcell.KeyDown:
		bus.Emit(events.Pan, events.PanPayload{DY: -panStep})
		return
	case tcell.KeyLeft:
		bus.Emit(events.Pan, events.PanPayload{DX: panStep})
		return
	case tcell.KeyRight:
		bus.Emit(events.Pan, events.PanPayload{DX: -panStep})
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		v.quit = true
	case '?':
		v.help = true
	case 't':
		v.ToggleThumbnail()
	case 'r':
		v.graph.SetScale(core.Transform{K: 1})
		v.status = "view reset"
	case '+', '=':
		v.zoomCenter(1)
	case '-':
		v.zoomCenter(-1)
	case 'd':
		if v.graph.DragEnabled() {
			bus.Emit(events.DisableDrag, nil)
			v.status = "drag off"
		} else {
			bus.Emit(events.EnableDrag, nil)
			v.status = "drag on"
		}
	case 'z':
		if v.graph.ZoomPanEnabled() {
			bus.Emit(events.DisableZoomPan, nil)
			v.status = "zoom off"
		} else {
			bus.Emit(events.EnableZoomPan, nil)
			v.status = "zoom on"
		}
	case ' ':
		if sim := v.graph.Simulation(); sim != nil {
			sim.Restart(1)
			v.status = "layout restarted"
		}
	}
}

func (v *Viewer) zoomCenter(delta float64) {
	w, h := v.nodes.Size()
	v.graph.HandlePointer(gesture.PointerEvent{
		Kind:       gesture.PointerWheel,
		Point:      core.Point{X: float64(w) / 2, Y: float64(h) / 2},
		WheelDelta: delta,
	})
}

// ToggleThumbnail opens the minimap, or closes it when it is open.
func (v *Viewer) ToggleThumbnail() {
	if t := v.graph.Thumbnail(); t != nil && t.IsOpen() {
		v.graph.CloseThumbnail()
		return
	}
	v.graph.OpenThumbnail(v.thumbViewport, v.thumbHandle, v.thumbSize, v.thumbOpts...)
}

// point maps a cell to device units at the cell's upper pixel.
func point(col, row int) core.Point {
	return core.Point{X: float64(col), Y: float64(row * 2)}
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	buttons := ev.Buttons()
	shift := ev.Modifiers()&tcell.ModShift != 0
	p := point(col, row)

	if buttons&(tcell.WheelUp|tcell.WheelDown) != 0 {
		delta := 1.0
		if buttons&tcell.WheelDown != 0 {
			delta = -1
		}
		v.graph.HandlePointer(gesture.PointerEvent{
			Kind:       gesture.PointerWheel,
			Point:      p,
			Shift:      shift,
			WheelDelta: delta,
		})
		return
	}

	primary := buttons&tcell.Button1 != 0
	switch {
	case primary && !v.down:
		v.down, v.moved, v.downAt, v.shiftDown = true, false, p, shift
		if tp, ok := v.thumbPoint(col, row); ok {
			v.inThumb = true
			v.graph.Thumbnail().MouseDown(tp)
			return
		}
		v.graph.HandlePointer(gesture.PointerEvent{Kind: gesture.PointerDown, Point: p, Shift: shift})
	case primary:
		if p != v.downAt {
			v.moved = true
		}
		if v.inThumb {
			v.graph.Thumbnail().MouseMove(v.toThumb(col, row))
			return
		}
		v.graph.HandlePointer(gesture.PointerEvent{Kind: gesture.PointerMove, Point: p, Shift: shift})
	case v.down:
		v.down = false
		if v.inThumb {
			v.inThumb = false
			t := v.graph.Thumbnail()
			t.MouseUp()
			if !v.moved {
				t.Click(v.toThumb(col, row))
			}
			return
		}
		v.graph.HandlePointer(gesture.PointerEvent{Kind: gesture.PointerUp, Point: p, Shift: shift})
		if v.shiftDown {
			// Box selection is not offered here, so give the gestures back.
			v.graph.Bus().Emit(events.EnableZoomPan, nil)
			v.graph.Bus().Emit(events.EnableDrag, nil)
		}
		if !v.moved {
			v.tap(p)
		}
	}
}

func (v *Viewer) tap(p core.Point) {
	v.graph.Tap(p, nil, func(target any) {
		t, ok := target.(operator.Target)
		if !ok {
			return
		}
		switch {
		case t.Node != nil:
			v.status = describeNode(t.Node)
			v.graph.Bus().Emit(events.ClickNode, events.ClickNodePayload{NodeID: t.Node.ID})
		case t.Edge != nil:
			v.status = fmt.Sprintf("edge %s: %s → %s", t.Edge.ID, t.Edge.SourceID, t.Edge.TargetID)
		default:
			v.status = ""
		}
	})
}

func describeNode(n *model.Node) string {
	name := n.Label
	if name == "" {
		name = n.ID
	}
	s := fmt.Sprintf("node %s (%.0f, %.0f)", name, n.X, n.Y)
	if n.Type != "" {
		s += " type " + n.Type
	}
	return s
}

// thumbOrigin is the top-left cell of the minimap, anchored bottom-right
// above the status line.
func (v *Viewer) thumbOrigin() (col, row int) {
	cols, rows := v.nodes.Dimensions()
	tc, tr := v.thumbViewport.Dimensions()
	return cols - tc, rows - tr
}

func (v *Viewer) toThumb(col, row int) core.Point {
	oc, or := v.thumbOrigin()
	return point(col-oc, row-or)
}

func (v *Viewer) thumbPoint(col, row int) (core.Point, bool) {
	t := v.graph.Thumbnail()
	if t == nil || !t.IsOpen() {
		return core.Point{}, false
	}
	oc, or := v.thumbOrigin()
	tc, tr := v.thumbViewport.Dimensions()
	if col < oc || row < or || col >= oc+tc || row >= or+tr {
		return core.Point{}, false
	}
	return v.toThumb(col, row), true
}
