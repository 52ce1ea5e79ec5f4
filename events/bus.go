// Package events is the signal bus the graph views coordinate through.
// Delivery is synchronous and follows subscription order.
package events

import (
	"sync"

	"go.uber.org/zap"

	"graphview/core"
)

// Signal names a message on the bus.
type Signal int

const (
	// Redraw repaints edges, then nodes, then the thumbnail.
	Redraw Signal = iota
	RedrawNodes
	RedrawEdges
	RedrawThumb
	// Resize carries a ResizePayload.
	Resize
	// Tap carries a TapPayload.
	Tap
	// Pan carries a PanPayload.
	Pan
	EnableZoomPan
	DisableZoomPan
	EnableDrag
	DisableDrag
	// ClickNode carries a ClickNodePayload.
	ClickNode
	// Tick is emitted after every layout step.
	Tick
)

var signalNames = map[Signal]string{
	Redraw:         "redraw",
	RedrawNodes:    "redrawNodes",
	RedrawEdges:    "redrawEdges",
	RedrawThumb:    "redrawThumb",
	Resize:         "resize",
	Tap:            "tap",
	Pan:            "pan",
	EnableZoomPan:  "enableZoomPan",
	DisableZoomPan: "disableZoomPan",
	EnableDrag:     "enableDrag",
	DisableDrag:    "disableDrag",
	ClickNode:      "click.node",
	Tick:           "tick",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return "unknown"
}

// ResizePayload is the new container size.
type ResizePayload struct {
	Width, Height int
}

// TapPayload is a pointer tap in screen space. Callback, when set,
// receives whatever the tap resolved to.
type TapPayload struct {
	Point    core.Point
	Event    any
	Callback func(target any)
}

// PanPayload shifts the main viewport translation by screen pixels.
type PanPayload struct {
	DX, DY float64
}

// ClickNodePayload names the node that was clicked.
type ClickNodePayload struct {
	NodeID string
}

// Handler receives a payload. Its concrete type depends on the signal.
type Handler func(payload any)

// Subscription identifies a registered handler.
type Subscription struct {
	signal Signal
	id     uint64
}

type entry struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is an in-memory synchronous signal bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Signal][]entry
	next     uint64
	logger   *zap.Logger
}

// NewBus creates an empty bus. A nil logger disables logging.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Signal][]entry),
		logger:   logger,
	}
}

// On registers handler for sig.
func (b *Bus) On(sig Signal, handler Handler) Subscription {
	return b.add(sig, handler, false)
}

// Once registers handler for the next emission of sig only.
func (b *Bus) Once(sig Signal, handler Handler) Subscription {
	return b.add(sig, handler, true)
}

func (b *Bus) add(sig Signal, handler Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.handlers[sig] = append(b.handlers[sig], entry{id: b.next, handler: handler, once: once})
	b.logger.Debug("Signal handler subscribed",
		zap.Stringer("signal", sig),
		zap.Int("total_handlers", len(b.handlers[sig])))
	return Subscription{signal: sig, id: b.next}
}

// Off removes a single subscription. Removing twice is harmless.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

func (b *Bus) remove(sub Subscription) {
	list := b.handlers[sub.signal]
	for i, e := range list {
		if e.id == sub.id {
			b.handlers[sub.signal] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// OffAll removes every handler for the given signals, or for all signals
// when none are given.
func (b *Bus) OffAll(signals ...Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(signals) == 0 {
		b.handlers = make(map[Signal][]entry)
		return
	}
	for _, sig := range signals {
		delete(b.handlers, sig)
	}
}

// Emit delivers payload to every handler of sig in subscription order.
// Handlers added during delivery are not called for this emission.
func (b *Bus) Emit(sig Signal, payload any) {
	b.mu.Lock()
	list := append([]entry(nil), b.handlers[sig]...)
	for _, e := range list {
		if e.once {
			b.remove(Subscription{signal: sig, id: e.id})
		}
	}
	b.mu.Unlock()

	for _, e := range list {
		e.handler(payload)
	}
}

// Listeners returns the number of handlers registered for sig.
func (b *Bus) Listeners(sig Signal) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[sig])
}

// HasListeners reports whether sig has any handler.
func (b *Bus) HasListeners(sig Signal) bool {
	return b.Listeners(sig) > 0
}
