package canvas

import (
	"math"
	"slices"
)

// affine is a scale+translate matrix: device = (a*x + e, d*y + f).
type affine struct {
	a, d, e, f float64
}

var identity = affine{a: 1, d: 1}

func (m affine) apply(x, y float64) (float64, float64) {
	return m.a*x + m.e, m.d*y + m.f
}

type style struct {
	m         affine
	fill      string
	stroke    string
	lineWidth float64
	dash      []float64
	font      Font
}

// subpath is a polyline in device coordinates.
type subpath struct {
	pts    [][2]float64
	closed bool
}

// state implements the transform stack and path building shared by every
// backend. Backends only rasterise device-space subpaths.
type state struct {
	cur   style
	stack []style
	path  []subpath
}

func newState() state {
	return state{cur: style{
		m:         identity,
		fill:      "#000000",
		stroke:    "#000000",
		lineWidth: 1,
		font:      DefaultFont,
	}}
}

func (s *state) Save() {
	saved := s.cur
	saved.dash = append([]float64(nil), s.cur.dash...)
	s.stack = append(s.stack, saved)
}

func (s *state) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.cur = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *state) Translate(x, y float64) {
	s.cur.m.e += s.cur.m.a * x
	s.cur.m.f += s.cur.m.d * y
}

func (s *state) Scale(x, y float64) {
	s.cur.m.a *= x
	s.cur.m.d *= y
}

func (s *state) BeginPath() {
	s.path = s.path[:0]
}

func (s *state) MoveTo(x, y float64) {
	dx, dy := s.cur.m.apply(x, y)
	s.path = append(s.path, subpath{pts: [][2]float64{{dx, dy}}})
}

func (s *state) LineTo(x, y float64) {
	if len(s.path) == 0 {
		s.MoveTo(x, y)
		return
	}
	dx, dy := s.cur.m.apply(x, y)
	last := &s.path[len(s.path)-1]
	last.pts = append(last.pts, [2]float64{dx, dy})
}

// Arc flattens the arc into line segments fine enough for its device radius.
func (s *state) Arc(x, y, r, start, end float64) {
	sweep := end - start
	rx := math.Abs(r * s.cur.m.a)
	ry := math.Abs(r * s.cur.m.d)
	steps := int(math.Ceil(math.Abs(sweep) * math.Max(rx, ry) / 2))
	if steps < 8 {
		steps = 8
	}
	for i := 0; i <= steps; i++ {
		t := start + sweep*float64(i)/float64(steps)
		s.LineTo(x+r*math.Cos(t), y+r*math.Sin(t))
	}
	if math.Abs(sweep) >= 2*math.Pi-1e-9 {
		s.path[len(s.path)-1].closed = true
	}
}

func (s *state) Rect(x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.path[len(s.path)-1].closed = true
}

func (s *state) SetFillStyle(c string) { s.cur.fill = c }

func (s *state) SetStrokeStyle(c string) { s.cur.stroke = c }

func (s *state) SetLineWidth(w float64) { s.cur.lineWidth = w }

func (s *state) SetLineDash(segs []float64) { s.cur.dash = append([]float64(nil), segs...) }

func (s *state) SetFont(f Font) { s.cur.font = f }

// deviceRect maps a user-space rectangle to sorted device bounds.
func (s *state) deviceRect(x, y, w, h float64) (x0, y0, x1, y1 float64) {
	x0, y0 = s.cur.m.apply(x, y)
	x1, y1 = s.cur.m.apply(x+w, y+h)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return x0, y0, x1, y1
}

// deviceLineWidth is the stroke width after the current scale.
func (s *state) deviceLineWidth() float64 {
	return s.cur.lineWidth * math.Sqrt(math.Abs(s.cur.m.a*s.cur.m.d))
}

// segments yields every straight piece of the current path, closing
// closed subpaths.
func (s *state) segments(fn func(x0, y0, x1, y1 float64)) {
	for _, sp := range s.path {
		for i := 1; i < len(sp.pts); i++ {
			fn(sp.pts[i-1][0], sp.pts[i-1][1], sp.pts[i][0], sp.pts[i][1])
		}
		if sp.closed && len(sp.pts) > 2 {
			first, last := sp.pts[0], sp.pts[len(sp.pts)-1]
			fn(last[0], last[1], first[0], first[1])
		}
	}
}

// scanFill calls span for every device row between the path's vertical
// extent with the even-odd interior intervals of that row.
func (s *state) scanFill(height int, span func(y int, x0, x1 float64)) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, sp := range s.path {
		for _, p := range sp.pts {
			minY = math.Min(minY, p[1])
			maxY = math.Max(maxY, p[1])
		}
	}
	if math.IsInf(minY, 0) {
		return
	}
	y0 := int(math.Max(0, math.Floor(minY)))
	y1 := int(math.Min(float64(height-1), math.Ceil(maxY)))

	var xs []float64
	for y := y0; y <= y1; y++ {
		cy := float64(y) + 0.5
		xs = xs[:0]
		for _, sp := range s.path {
			n := len(sp.pts)
			if n < 2 {
				continue
			}
			// Filling always closes the subpath.
			for i := 0; i < n; i++ {
				a, b := sp.pts[i], sp.pts[(i+1)%n]
				if (a[1] <= cy && b[1] > cy) || (b[1] <= cy && a[1] > cy) {
					xs = append(xs, a[0]+(cy-a[1])*(b[0]-a[0])/(b[1]-a[1]))
				}
			}
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			span(y, xs[i], xs[i+1])
		}
	}
}

// dashed splits a device segment by the dash pattern and calls fn for the
// visible pieces.
func dashed(pattern []float64, x0, y0, x1, y1 float64, fn func(x0, y0, x1, y1 float64)) {
	if len(pattern) == 0 {
		fn(x0, y0, x1, y1)
		return
	}
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 {
		return
	}
	ux, uy := (x1-x0)/length, (y1-y0)/length
	pos, i, on := 0.0, 0, true
	for pos < length {
		step := pattern[i%len(pattern)]
		if step <= 0 {
			step = 1
		}
		end := math.Min(length, pos+step)
		if on {
			fn(x0+ux*pos, y0+uy*pos, x0+ux*end, y0+uy*end)
		}
		pos = end
		on = !on
		i++
	}
}
