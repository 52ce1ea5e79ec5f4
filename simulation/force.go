package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"graphview/geometry"
	"graphview/model"
)

// Params tunes the force layout.
type Params struct {
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64

	// Charge is the many-body strength; negative values repel.
	Charge      float64
	DistanceMin float64
	DistanceMax float64

	CollideRadius   float64
	CollideStrength float64

	LinkDistance float64

	// InitialRadius spaces the default placement of unplaced nodes.
	InitialRadius float64

	TickInterval time.Duration
}

// DefaultParams returns the parameters the graph view was tuned with.
func DefaultParams() Params {
	return Params{
		AlphaMin:        0.001,
		AlphaDecay:      0.05,
		VelocityDecay:   0.4,
		Charge:          -400,
		DistanceMin:     300,
		DistanceMax:     400,
		CollideRadius:   60,
		CollideStrength: 0.1,
		LinkDistance:    30,
		InitialRadius:   10,
		TickInterval:    16 * time.Millisecond,
	}
}

// Force is a force-directed layout with link, many-body, collision and
// optional centring forces.
//
// Step mutates nodes and must run on the goroutine that owns them. Run
// drives Step from a ticker by posting each step through a caller
// supplied function so the owner can serialise it with its other work.
type Force struct {
	params Params
	logger *zap.Logger
	rnd    *rand.Rand

	nodes []*model.Node
	links []*model.Edge

	centered         bool
	centerX, centerY float64

	mu      sync.Mutex
	alpha   float64
	running bool
	pending atomic.Bool

	ticks []func()
}

var _ Simulation = (*Force)(nil)

// Option configures a Force.
type Option func(*Force)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Force) {
		f.logger = logger
	}
}

// WithSeed makes the tie-breaking jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(f *Force) {
		f.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// NewForce creates a stopped simulation.
func NewForce(params Params, opts ...Option) *Force {
	f := &Force{
		params: params,
		logger: zap.NewNop(),
		rnd:    rand.New(rand.NewPCG(1, 2)),
		alpha:  1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Force) SetNodes(nodes []*model.Node) {
	f.nodes = nodes
	for i, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			r := f.params.InitialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * geometry.GoldenAngle
			n.X = r * math.Cos(a)
			n.Y = r * math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

func (f *Force) SetLinks(edges []*model.Edge) error {
	f.links = edges
	index := make(map[string]*model.Node, len(f.nodes))
	for _, n := range f.nodes {
		index[n.ID] = n
	}
	lookup := func(id string) (*model.Node, bool) {
		n, ok := index[id]
		return n, ok
	}
	var errs []error
	for _, e := range edges {
		if err := e.Resolve(lookup); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Force) SetCenter(x, y float64) {
	f.centered = true
	f.centerX, f.centerY = x, y
}

func (f *Force) ClearCenter() {
	f.centered = false
}

func (f *Force) Restart(alpha float64) {
	f.mu.Lock()
	f.alpha = alpha
	f.running = true
	f.mu.Unlock()
}

func (f *Force) Stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *Force) OnTick(fn func()) {
	f.ticks = append(f.ticks, fn)
}

func (f *Force) Alpha() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alpha
}

// Running reports whether the simulation is still cooling.
func (f *Force) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Run ticks until ctx is cancelled. Each step is handed to post; a step
// is not posted again until the previous one has run.
func (f *Force) Run(ctx context.Context, post func(func())) error {
	ticker := time.NewTicker(f.params.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !f.Running() || !f.pending.CompareAndSwap(false, true) {
				continue
			}
			post(func() {
				defer f.pending.Store(false)
				f.Tick()
			})
		}
	}
}

// Tick advances one step and notifies tick handlers. Once alpha drops
// below AlphaMin the simulation stops itself.
func (f *Force) Tick() {
	if !f.Running() {
		return
	}
	f.Step()
	for _, fn := range f.ticks {
		fn()
	}
	if f.Alpha() < f.params.AlphaMin {
		f.Stop()
		f.logger.Debug("Layout settled", zap.Int("nodes", len(f.nodes)))
	}
}

// Step advances the layout by one iteration regardless of the running
// state.
func (f *Force) Step() {
	f.mu.Lock()
	f.alpha += (f.params.AlphaTarget - f.alpha) * f.params.AlphaDecay
	alpha := f.alpha
	f.mu.Unlock()

	f.applyLinks(alpha)
	f.applyCharge(alpha)
	f.applyCollide()

	decay := 1 - f.params.VelocityDecay
	for _, n := range f.nodes {
		switch {
		case n.Dragged:
			n.VX, n.VY = 0, 0
		case n.Pinned():
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
		default:
			n.VX *= decay
			n.VY *= decay
			n.X += n.VX
			n.Y += n.VY
		}
	}

	if f.centered {
		f.applyCenter()
	}
}

func (f *Force) jiggle() float64 {
	return (f.rnd.Float64() - 0.5) * 1e-6
}

func (f *Force) applyLinks(alpha float64) {
	if len(f.links) == 0 {
		return
	}
	count := make(map[*model.Node]int, len(f.nodes))
	for _, e := range f.links {
		if e.Resolved() {
			count[e.Source()]++
			count[e.Target()]++
		}
	}
	for _, e := range f.links {
		if !e.Resolved() {
			continue
		}
		src, dst := e.Source(), e.Target()
		cs, ct := float64(count[src]), float64(count[dst])
		strength := 1 / math.Min(cs, ct)
		bias := cs / (cs + ct)

		x := dst.X + dst.VX - src.X - src.VX
		y := dst.Y + dst.VY - src.Y - src.VY
		if x == 0 {
			x = f.jiggle()
		}
		if y == 0 {
			y = f.jiggle()
		}
		l := math.Hypot(x, y)
		l = (l - f.params.LinkDistance) / l * alpha * strength
		x *= l
		y *= l
		dst.VX -= x * bias
		dst.VY -= y * bias
		src.VX += x * (1 - bias)
		src.VY += y * (1 - bias)
	}
}

func (f *Force) applyCharge(alpha float64) {
	min2 := f.params.DistanceMin * f.params.DistanceMin
	max2 := f.params.DistanceMax * f.params.DistanceMax
	for i, n := range f.nodes {
		for j, o := range f.nodes {
			if i == j {
				continue
			}
			x := o.X - n.X
			y := o.Y - n.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}
			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			n.VX += x * f.params.Charge * alpha / l
			n.VY += y * f.params.Charge * alpha / l
		}
	}
}

func (f *Force) applyCollide() {
	r := f.params.CollideRadius
	for i, n := range f.nodes {
		xi, yi := n.X+n.VX, n.Y+n.VY
		for _, o := range f.nodes[i+1:] {
			x := xi - o.X - o.VX
			y := yi - o.Y - o.VY
			l := x*x + y*y
			reach := 2 * r
			if l >= reach*reach {
				continue
			}
			if x == 0 {
				x = f.jiggle()
				l += x * x
			}
			if y == 0 {
				y = f.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (reach - d) / d * f.params.CollideStrength
			x *= k
			y *= k
			// Equal radii split the correction evenly.
			n.VX += x * 0.5
			n.VY += y * 0.5
			o.VX -= x * 0.5
			o.VY -= y * 0.5
		}
	}
}

func (f *Force) applyCenter() {
	if len(f.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range f.nodes {
		sx += n.X
		sy += n.Y
	}
	sx = sx/float64(len(f.nodes)) - f.centerX
	sy = sy/float64(len(f.nodes)) - f.centerY
	for _, n := range f.nodes {
		n.X -= sx
		n.Y -= sy
	}
}
