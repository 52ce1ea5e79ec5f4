// Package gesture turns raw pointer input into drag and zoom gestures.
//
// A Dispatcher offers each pointer event to the drag behaviour first and
// to the zoom behaviour second, so pressing on a node drags it while
// pressing on empty space pans the view.
package gesture

import (
	"math"

	"graphview/core"
	"graphview/geometry"
	"graphview/model"
)

// PointerKind is the kind of a raw pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerWheel
)

// ButtonPrimary is the main mouse button.
const ButtonPrimary = 0

// PointerEvent is one raw pointer sample in screen space.
type PointerEvent struct {
	Kind   PointerKind
	Point  core.Point
	Button int
	Shift  bool
	// WheelDelta is positive when zooming in.
	WheelDelta float64
}

// DragEvent is passed to drag handlers.
type DragEvent struct {
	Subject *model.Node
	Point   core.Point
	Shift   bool
}

// DragHandlers receive the phases of a drag. Nil handlers are skipped.
type DragHandlers struct {
	Start func(DragEvent)
	Drag  func(DragEvent)
	End   func(DragEvent)
}

// Drag starts a gesture when the pointer goes down on a subject.
type Drag struct {
	subject  func(p core.Point) *model.Node
	handlers DragHandlers
	enabled  bool
	active   *model.Node
}

// NewDrag creates an enabled drag behaviour. subject picks the node under
// a screen point, or nil.
func NewDrag(subject func(p core.Point) *model.Node, h DragHandlers) *Drag {
	return &Drag{subject: subject, handlers: h, enabled: true}
}

func (d *Drag) Enable()       { d.enabled = true }
func (d *Drag) Disable()      { d.enabled = false }
func (d *Drag) Enabled() bool { return d.enabled }

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool { return d.active != nil }

// Handle consumes ev if it belongs to a drag and reports whether it did.
// A drag in progress always receives its end.
func (d *Drag) Handle(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		if !d.enabled || ev.Button != ButtonPrimary {
			return false
		}
		subj := d.subject(ev.Point)
		if subj == nil {
			return false
		}
		d.active = subj
		call(d.handlers.Start, DragEvent{Subject: subj, Point: ev.Point, Shift: ev.Shift})
		return true
	case PointerMove:
		if d.active == nil {
			return false
		}
		call(d.handlers.Drag, DragEvent{Subject: d.active, Point: ev.Point, Shift: ev.Shift})
		return true
	case PointerUp:
		if d.active == nil {
			return false
		}
		subj := d.active
		d.active = nil
		call(d.handlers.End, DragEvent{Subject: subj, Point: ev.Point, Shift: ev.Shift})
		return true
	}
	return false
}

func call[E any](fn func(E), ev E) {
	if fn != nil {
		fn(ev)
	}
}

// ZoomPhase is the phase of a zoom gesture.
type ZoomPhase int

const (
	ZoomStart ZoomPhase = iota
	Zooming
	ZoomEnd
)

// ZoomEvent carries the gesture's transform, which replaces the view
// transform wholesale.
type ZoomEvent struct {
	Phase     ZoomPhase
	Transform core.Transform
	Shift     bool
}

// ZoomHandlers receive the phases of a zoom. Nil handlers are skipped.
type ZoomHandlers struct {
	Start func(ZoomEvent)
	Zoom  func(ZoomEvent)
	End   func(ZoomEvent)
}

const (
	// MinScale and MaxScale bound the zoom level.
	MinScale = 0.1
	MaxScale = 3.0
	// WheelStep is the log2 scale change per unit of wheel delta.
	WheelStep = 0.25
)

// Zoom pans on pointer drags and scales on wheel input about the pointer.
type Zoom struct {
	current  func() core.Transform
	handlers ZoomHandlers
	enabled  bool

	transform core.Transform
	panning   bool
	last      core.Point
	shift     bool
}

// NewZoom creates an enabled zoom behaviour. current returns the view
// transform each gesture starts from.
func NewZoom(current func() core.Transform, h ZoomHandlers) *Zoom {
	return &Zoom{current: current, handlers: h, enabled: true, transform: core.Identity}
}

func (z *Zoom) Enable()       { z.enabled = true }
func (z *Zoom) Enabled() bool { return z.enabled }

// Disable stops new gestures. A pan in progress still ends normally.
func (z *Zoom) Disable() { z.enabled = false }

// Active reports whether a pan is in progress.
func (z *Zoom) Active() bool { return z.panning }

// Transform returns the gesture's current transform.
func (z *Zoom) Transform() core.Transform { return z.transform }

// Handle consumes ev if it belongs to a zoom gesture.
func (z *Zoom) Handle(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		if !z.enabled || ev.Button != ButtonPrimary {
			return false
		}
		z.transform = z.current()
		z.panning = true
		z.last = ev.Point
		z.shift = ev.Shift
		z.emit(z.handlers.Start, ZoomStart)
		return true
	case PointerMove:
		if !z.panning {
			return false
		}
		d := ev.Point.Sub(z.last)
		z.last = ev.Point
		z.shift = ev.Shift
		z.transform.X += d.X
		z.transform.Y += d.Y
		z.emit(z.handlers.Zoom, Zooming)
		return true
	case PointerUp:
		if !z.panning {
			return false
		}
		z.panning = false
		z.shift = ev.Shift
		z.emit(z.handlers.End, ZoomEnd)
		return true
	case PointerWheel:
		if !z.enabled || ev.WheelDelta == 0 {
			return false
		}
		z.transform = z.current()
		z.shift = ev.Shift
		z.emit(z.handlers.Start, ZoomStart)
		z.transform = ScaleAbout(z.transform, ev.Point, math.Pow(2, ev.WheelDelta*WheelStep))
		z.emit(z.handlers.Zoom, Zooming)
		z.emit(z.handlers.End, ZoomEnd)
		return true
	}
	return false
}

func (z *Zoom) emit(fn func(ZoomEvent), phase ZoomPhase) {
	call(fn, ZoomEvent{Phase: phase, Transform: z.transform, Shift: z.shift})
}

// ScaleAbout multiplies the scale of t by factor, clamped to the zoom
// extent, keeping the world point under screen point p fixed.
func ScaleAbout(t core.Transform, p core.Point, factor float64) core.Transform {
	k := geometry.Clamp(t.K*factor, MinScale, MaxScale)
	w := t.Invert(p)
	return core.Transform{K: k, X: p.X - w.X*k, Y: p.Y - w.Y*k}
}

// Dispatcher routes pointer events to the drag and zoom behaviours.
type Dispatcher struct {
	Drag *Drag
	Zoom *Zoom
	// OnDown sees every pointer-down before the behaviours do.
	OnDown func(PointerEvent)
}

// Dispatch delivers ev and reports whether a behaviour consumed it.
func (d *Dispatcher) Dispatch(ev PointerEvent) bool {
	if ev.Kind == PointerDown && d.OnDown != nil {
		d.OnDown(ev)
	}
	if d.Drag != nil && d.Drag.Handle(ev) {
		return true
	}
	if d.Zoom != nil && d.Zoom.Handle(ev) {
		return true
	}
	return false
}
