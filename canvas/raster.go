package canvas

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func parsedRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// RasterCanvas renders onto an RGBA image. It backs PNG export.
type RasterCanvas struct {
	state
	img   *image.RGBA
	faces map[float64]font.Face
}

// NewRasterCanvas creates a transparent raster surface.
func NewRasterCanvas(width, height int) (*RasterCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	return &RasterCanvas{
		state: newState(),
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		faces: make(map[float64]font.Face),
	}, nil
}

// Resize replaces the image with a transparent one of the new size.
func (c *RasterCanvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.state = newState()
	return nil
}

// Size returns the image dimensions in pixels.
func (c *RasterCanvas) Size() (width, height int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the backing image.
func (c *RasterCanvas) Image() *image.RGBA {
	return c.img
}

// ClearRect makes the covered pixels transparent.
func (c *RasterCanvas) ClearRect(x, y, w, h float64) {
	x0, y0, x1, y1 := c.deviceRect(x, y, w, h)
	r := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.Transparent, image.Point{}, draw.Src)
}

// Fill paints the interior of the current path.
func (c *RasterCanvas) Fill() {
	col, ok := RGBA(c.cur.fill)
	if !ok {
		return
	}
	_, h := c.Size()
	c.scanFill(h, func(y int, x0, x1 float64) {
		for x := int(math.Ceil(x0 - 0.5)); float64(x)+0.5 <= x1; x++ {
			c.plot(x, y, col)
		}
	})
}

// Stroke outlines the current path with the current line width and dash.
func (c *RasterCanvas) Stroke() {
	col, ok := RGBA(c.cur.stroke)
	if !ok {
		return
	}
	width := c.deviceLineWidth()
	c.segments(func(x0, y0, x1, y1 float64) {
		dashed(c.cur.dash, x0, y0, x1, y1, func(x0, y0, x1, y1 float64) {
			c.line(x0, y0, x1, y1, width, col)
		})
	})
}

// FillText draws text centred on (x, y) using the Go Regular face.
func (c *RasterCanvas) FillText(text string, x, y float64) {
	col, ok := RGBA(c.cur.fill)
	if !ok || text == "" {
		return
	}
	face := c.face(c.cur.font.Size * math.Abs(c.cur.m.a))
	if face == nil {
		return
	}
	dx, dy := c.cur.m.apply(x, y)
	width := font.MeasureString(face, text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(int(dx)-width/2, int(dy)+ascent*35/100),
	}
	d.DrawString(text)
}

// EncodePNG writes the image as PNG.
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// Composite draws layers over a background in order, bottom first.
func Composite(background color.Color, layers ...*RasterCanvas) *image.RGBA {
	if len(layers) == 0 {
		return nil
	}
	bounds := layers[0].img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(background), image.Point{}, draw.Src)
	for _, l := range layers {
		draw.Draw(out, bounds, l.img, bounds.Min, draw.Over)
	}
	return out
}

func (c *RasterCanvas) face(size float64) font.Face {
	size = math.Round(size*2) / 2
	if size < 4 {
		return nil
	}
	if f, ok := c.faces[size]; ok {
		return f
	}
	fnt, err := parsedRegular()
	if err != nil {
		return nil
	}
	f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	c.faces[size] = f
	return f
}

func (c *RasterCanvas) plot(x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	c.img.SetRGBA(x, y, col)
}

func (c *RasterCanvas) line(x1, y1, x2, y2, thickness float64, col color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}
	dist := math.Hypot(dx, dy)
	half := thickness / 2

	var perpX, perpY float64
	if dist > 0 {
		perpX, perpY = -dy/dist, dx/dist
	}

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		if half <= 0.75 {
			c.plot(int(cx), int(cy), col)
			continue
		}
		for offset := -half; offset <= half; offset += 0.5 {
			c.plot(int(cx+perpX*offset), int(cy+perpY*offset), col)
		}
	}
}
