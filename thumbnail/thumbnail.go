// Package thumbnail draws a minimap of the whole graph and turns clicks
// and drags on it into pans of the main viewport.
package thumbnail

import (
	"math"

	"graphview/canvas"
	"graphview/core"
	"graphview/events"
	"graphview/operator"
)

const (
	// DefaultSize is the side of the square minimap in pixels.
	DefaultSize = 160
	// DefaultZoomRatio converts minimap pixels into main view pixels.
	DefaultZoomRatio = 5.0
	// ViewRectColor strokes the main viewport outline.
	ViewRectColor = "#409EFF"
)

// Source is what the minimap reads from the main view.
type Source interface {
	Body() *operator.Body
	// Range aggregates node bounding boxes in world space.
	Range(ids ...string) core.Range
	// ScreenRange is the main surface projected into world space.
	ScreenRange() core.Range
}

// Fit is the minimap transform of the last redraw: world points map to
// minimap pixels as (p + (X, Y)) * K.
type Fit struct {
	K, X, Y float64
}

// Apply maps a world point into minimap pixels.
func (f Fit) Apply(p core.Point) core.Point {
	return core.Point{X: (p.X + f.X) * f.K, Y: (p.Y + f.Y) * f.K}
}

// Thumbnail is a fit-to-content view of every node.
type Thumbnail struct {
	src      Source
	viewport canvas.Context
	handle   canvas.Context
	size     float64
	ratio    float64
	open     bool

	scale       Fit
	rng         core.Range
	nodeRange   core.Range
	screenRange core.Range
	viewCenter  core.Point

	dragging   bool
	isDragged  bool
	startPoint core.Point
}

// Option configures a Thumbnail.
type Option func(*Thumbnail)

// WithZoomRatio sets how far the main view moves per minimap pixel.
func WithZoomRatio(r float64) Option {
	return func(t *Thumbnail) {
		t.ratio = r
	}
}

// New creates an open minimap drawing nodes onto viewport and the view
// rectangle onto handle. A size of zero selects DefaultSize.
func New(src Source, viewport, handle canvas.Context, size int, opts ...Option) *Thumbnail {
	if size <= 0 {
		size = DefaultSize
	}
	t := &Thumbnail{
		src:      src,
		viewport: viewport,
		handle:   handle,
		size:     float64(size),
		ratio:    DefaultZoomRatio,
		open:     true,
		scale:    Fit{K: 1},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Size returns the side of the minimap in pixels.
func (t *Thumbnail) Size() int { return int(t.size) }

// Scale returns the fit transform of the last redraw.
func (t *Thumbnail) Scale() Fit { return t.scale }

// Range returns the world extent the last redraw fitted.
func (t *Thumbnail) Range() core.Range { return t.rng }

// NodeRange returns the node extent of the last redraw.
func (t *Thumbnail) NodeRange() core.Range { return t.nodeRange }

// ScreenRange returns the main view extent of the last redraw.
func (t *Thumbnail) ScreenRange() core.Range { return t.screenRange }

// ViewCenter returns the world centre of the main view at the last redraw.
func (t *Thumbnail) ViewCenter() core.Point { return t.viewCenter }

// Open shows the minimap and redraws it.
func (t *Thumbnail) Open() {
	t.open = true
	t.Redraw()
}

// Close hides the minimap and clears both surfaces.
func (t *Thumbnail) Close() {
	t.open = false
	canvas.Clear(t.viewport)
	canvas.Clear(t.handle)
}

// IsOpen reports whether the minimap is shown.
func (t *Thumbnail) IsOpen() bool { return t.open }

// Redraw refits the minimap to the current nodes and main view.
func (t *Thumbnail) Redraw() {
	if !t.open {
		return
	}
	canvas.Clear(t.viewport)
	canvas.Clear(t.handle)

	body := t.src.Body()
	nodes := body.Transformed.Nodes
	if len(nodes) == 0 {
		return
	}

	t.nodeRange = t.src.Range()
	t.screenRange = t.src.ScreenRange()
	allVisible := body.AllVisible()
	if allVisible {
		t.rng = t.nodeRange
	} else {
		t.rng = t.nodeRange.Union(t.screenRange)
	}

	w, h := t.rng.Width(), t.rng.Height()
	t.scale.K = t.size / math.Max(w, h)
	ix, iy := t.rng.MinX, t.rng.MinY
	switch {
	case w == h:
		t.scale.X, t.scale.Y = -ix, -iy
	case w > h:
		t.scale.X, t.scale.Y = -ix, -iy+(w-h)/2
	default:
		t.scale.X, t.scale.Y = -ix+(h-w)/2, -iy
	}

	ctx := t.viewport
	ctx.Save()
	ctx.Scale(t.scale.K, t.scale.K)
	ctx.Translate(t.scale.X, t.scale.Y)
	for _, n := range nodes {
		if n.HasPosition() {
			n.DrawThumbnail(ctx)
		}
	}
	ctx.Restore()

	if !allVisible {
		t.drawViewRect()
	}
	t.viewCenter = t.screenRange.Center()
}

func (t *Thumbnail) drawViewRect() {
	r := t.screenRange
	ctx := t.handle
	ctx.Save()
	ctx.BeginPath()
	ctx.Scale(t.scale.K, t.scale.K)
	ctx.Translate(t.scale.X, t.scale.Y)
	ctx.SetLineWidth(1 / t.scale.K)
	ctx.SetStrokeStyle(ViewRectColor)
	ctx.Rect(r.MinX, r.MinY, r.Width(), r.Height())
	ctx.Stroke()
	ctx.Restore()
}

// Click recentres the main view on a minimap point. A click that ends a
// drag is swallowed.
func (t *Thumbnail) Click(p core.Point) {
	if t.isDragged {
		t.isDragged = false
		return
	}
	body := t.src.Body()
	var target core.Point
	if len(body.Transformed.Nodes) > len(body.Transformed.ViewNodes) {
		c := t.rng.Center()
		target = core.Point{
			X: (t.viewCenter.X-c.X)*t.scale.K + t.size/2,
			Y: (t.viewCenter.Y-c.Y)*t.scale.K + t.size/2,
		}
	} else {
		target = core.Point{X: t.size / 2, Y: t.size / 2}
	}
	t.pan(p.Sub(target))
	t.startPoint = p
}

// MouseDown starts a drag at p.
func (t *Thumbnail) MouseDown(p core.Point) {
	t.dragging = true
	t.startPoint = p
}

// MouseMove pans the main view by the movement since the previous sample.
// p may lie outside the minimap.
func (t *Thumbnail) MouseMove(p core.Point) {
	if !t.dragging {
		return
	}
	t.pan(p.Sub(t.startPoint))
	t.startPoint = p
	t.isDragged = true
}

// MouseUp ends a drag.
func (t *Thumbnail) MouseUp() {
	t.dragging = false
	t.startPoint = core.Point{}
}

// Dragging reports whether a drag is in progress.
func (t *Thumbnail) Dragging() bool { return t.dragging }

func (t *Thumbnail) pan(v core.Point) {
	t.src.Body().Bus.Emit(events.Pan, events.PanPayload{
		DX: -t.ratio * v.X,
		DY: -t.ratio * v.Y,
	})
}
