package canvas

// Op is one recorded drawing call.
type Op struct {
	Name string
	Args []any
}

var (
	_ Surface = (*Recorder)(nil)
	_ Surface = (*RasterCanvas)(nil)
	_ Surface = (*MatrixCanvas)(nil)
)

// Recorder is a Context that records calls instead of drawing. It keeps the
// same transform state as the real backends so Transform reports what a
// drawing call would have used.
type Recorder struct {
	state
	width, height int
	ops           []Op
}

// NewRecorder creates a recording surface of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{state: newState(), width: width, height: height}
}

// Resize changes the reported size and records the call.
func (r *Recorder) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	r.width, r.height = width, height
	r.state = newState()
	r.record("Resize", width, height)
	return nil
}

func (r *Recorder) record(name string, args ...any) {
	r.ops = append(r.ops, Op{Name: name, Args: args})
}

// Size returns the configured size.
func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Save() {
	r.state.Save()
	r.record("Save")
}

func (r *Recorder) Restore() {
	r.state.Restore()
	r.record("Restore")
}

func (r *Recorder) Translate(x, y float64) {
	r.state.Translate(x, y)
	r.record("Translate", x, y)
}

func (r *Recorder) Scale(x, y float64) {
	r.state.Scale(x, y)
	r.record("Scale", x, y)
}

func (r *Recorder) ClearRect(x, y, w, h float64) { r.record("ClearRect", x, y, w, h) }

func (r *Recorder) BeginPath() {
	r.state.BeginPath()
	r.record("BeginPath")
}

func (r *Recorder) MoveTo(x, y float64) {
	r.state.MoveTo(x, y)
	r.record("MoveTo", x, y)
}

func (r *Recorder) LineTo(x, y float64) {
	r.state.LineTo(x, y)
	r.record("LineTo", x, y)
}

func (r *Recorder) Arc(x, y, radius, start, end float64) {
	r.state.Arc(x, y, radius, start, end)
	r.record("Arc", x, y, radius, start, end)
}

func (r *Recorder) Rect(x, y, w, h float64) {
	r.state.Rect(x, y, w, h)
	r.record("Rect", x, y, w, h)
}

func (r *Recorder) Fill() { r.record("Fill", r.cur.fill) }

func (r *Recorder) Stroke() { r.record("Stroke", r.cur.stroke) }

func (r *Recorder) FillText(text string, x, y float64) { r.record("FillText", text, x, y) }

func (r *Recorder) SetFillStyle(c string) {
	r.state.SetFillStyle(c)
	r.record("SetFillStyle", c)
}

func (r *Recorder) SetStrokeStyle(c string) {
	r.state.SetStrokeStyle(c)
	r.record("SetStrokeStyle", c)
}

func (r *Recorder) SetLineWidth(w float64) {
	r.state.SetLineWidth(w)
	r.record("SetLineWidth", w)
}

func (r *Recorder) SetLineDash(segs []float64) {
	r.state.SetLineDash(segs)
	r.record("SetLineDash", segs)
}

func (r *Recorder) SetFont(f Font) {
	r.state.SetFont(f)
	r.record("SetFont", f)
}

// Ops returns every recorded call.
func (r *Recorder) Ops() []Op {
	return r.ops
}

// Calls returns the recorded calls with the given name.
func (r *Recorder) Calls(name string) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Count returns how many times name was called.
func (r *Recorder) Count(name string) int {
	return len(r.Calls(name))
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
}

// Depth returns the current save-stack depth.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

// Transform returns the current scale and translation as (k, x, y),
// assuming a uniform scale.
func (r *Recorder) Transform() (k, x, y float64) {
	return r.cur.m.a, r.cur.m.e, r.cur.m.f
}
