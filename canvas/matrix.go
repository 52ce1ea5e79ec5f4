package canvas

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell is one character cell of a MatrixCanvas.
type Cell struct {
	Rune  rune
	Color string
	// fill records which of the cell's two vertical pixels are painted.
	fill uint8
}

var halfBlocks = [4]rune{' ', '▀', '▄', '█'}

// MatrixCanvas implements Context on a grid of terminal character cells.
//
// Each cell covers one device unit horizontally and two vertically, which
// compensates for the roughly 1:2 aspect of terminal glyphs. Size therefore
// reports (columns, rows*2) and fills are drawn with half-block characters.
//
// Thread Safety:
// MatrixCanvas is NOT thread-safe. All calls must come from the goroutine
// that owns the render loop.
//
// Performance Characteristics:
//   - Fill: O(covered pixels)
//   - Stroke: O(path length in pixels)
//   - String: O(columns × rows)
//
// Unicode Support:
//   - Label width is measured with go-runewidth
//   - A wide character's trailing cell holds '\x00' and renders as nothing
type MatrixCanvas struct {
	state
	cells [][]Cell
	cols  int
	rows  int
}

// NewMatrixCanvas creates a canvas with the specified dimensions in cells.
func NewMatrixCanvas(cols, rows int) *MatrixCanvas {
	if cols <= 0 || rows <= 0 {
		return nil
	}

	cells := make([][]Cell, rows)
	for y := 0; y < rows; y++ {
		cells[y] = make([]Cell, cols)
		for x := 0; x < cols; x++ {
			cells[y][x] = Cell{Rune: ' '}
		}
	}

	return &MatrixCanvas{
		state: newState(),
		cells: cells,
		cols:  cols,
		rows:  rows,
	}
}

// Resize reallocates the grid to cover width by height device units.
func (c *MatrixCanvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	*c = *NewMatrixCanvas(width, (height+1)/2)
	return nil
}

// Size returns the surface size in device units: columns by twice the rows.
func (c *MatrixCanvas) Size() (width, height int) {
	return c.cols, c.rows * 2
}

// Dimensions returns the grid size in cells.
func (c *MatrixCanvas) Dimensions() (cols, rows int) {
	return c.cols, c.rows
}

// Cells returns direct access to the underlying cell grid.
func (c *MatrixCanvas) Cells() [][]Cell {
	return c.cells
}

// Get returns the cell at the given grid position.
// Returns a blank cell if the position is out of bounds.
func (c *MatrixCanvas) Get(col, row int) Cell {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return Cell{Rune: ' '}
	}
	return c.cells[row][col]
}

// Set places a character at the given grid position.
// Returns error if position is out of bounds.
func (c *MatrixCanvas) Set(col, row int, r rune, color string) error {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return ErrOutOfBounds
	}
	c.cells[row][col] = Cell{Rune: r, Color: color}
	return nil
}

// ClearRect blanks every cell the device rectangle touches.
func (c *MatrixCanvas) ClearRect(x, y, w, h float64) {
	x0, y0, x1, y1 := c.deviceRect(x, y, w, h)
	c0 := int(math.Max(0, math.Floor(x0)))
	c1 := int(math.Min(float64(c.cols), math.Ceil(x1)))
	r0 := int(math.Max(0, math.Floor(y0/2)))
	r1 := int(math.Min(float64(c.rows), math.Ceil(y1/2)))
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			c.cells[row][col] = Cell{Rune: ' '}
		}
	}
}

// Fill paints the interior of the current path with half blocks.
func (c *MatrixCanvas) Fill() {
	if _, ok := ParseColor(c.cur.fill); !ok {
		return
	}
	color := c.cur.fill
	c.scanFill(c.rows*2, func(y int, x0, x1 float64) {
		for x := int(math.Ceil(x0 - 0.5)); float64(x)+0.5 <= x1; x++ {
			c.paintPixel(x, y, color)
		}
	})
}

// Stroke draws the current path with line characters chosen by slope.
func (c *MatrixCanvas) Stroke() {
	if _, ok := ParseColor(c.cur.stroke); !ok {
		return
	}
	color := c.cur.stroke
	c.segments(func(x0, y0, x1, y1 float64) {
		dashed(c.cur.dash, x0, y0, x1, y1, func(x0, y0, x1, y1 float64) {
			c.drawLine(x0, y0, x1, y1, color)
		})
	})
}

// FillText renders text centred on the device position of (x, y).
func (c *MatrixCanvas) FillText(text string, x, y float64) {
	if _, ok := ParseColor(c.cur.fill); !ok || text == "" {
		return
	}
	dx, dy := c.cur.m.apply(x, y)
	row := int(math.Floor(dy / 2))
	if row < 0 || row >= c.rows {
		return
	}

	currentX := int(math.Round(dx)) - MeasureText(text)/2
	for _, r := range text {
		width := runewidth.RuneWidth(r)
		if width == 0 {
			continue
		}
		if width == 2 && currentX >= 0 && currentX+1 >= c.cols {
			break
		}
		if currentX >= 0 && currentX < c.cols {
			c.cells[row][currentX] = Cell{Rune: r, Color: c.cur.fill}
			if width == 2 {
				c.cells[row][currentX+1] = Cell{Rune: '\x00', Color: c.cur.fill}
			}
		}
		currentX += width
		if currentX >= c.cols {
			break
		}
	}
}

// String returns the canvas as a string with newlines.
func (c *MatrixCanvas) String() string {
	var sb strings.Builder
	sb.Grow(c.rows * (c.cols + 1))

	for y := 0; y < c.rows; y++ {
		for x := 0; x < c.cols; x++ {
			r := c.cells[y][x].Rune
			if r == '\x00' {
				continue
			}
			sb.WriteRune(r)
		}
		if y < c.rows-1 {
			sb.WriteRune('\n')
		}
	}

	return sb.String()
}

// ANSIString returns the canvas with 24-bit colour escapes.
func (c *MatrixCanvas) ANSIString() string {
	var sb strings.Builder
	for y := 0; y < c.rows; y++ {
		current := ""
		for x := 0; x < c.cols; x++ {
			cell := c.cells[y][x]
			if cell.Rune == '\x00' {
				continue
			}
			if cell.Color != current {
				if esc := ANSI(cell.Color); esc != "" {
					sb.WriteString(esc)
				} else {
					sb.WriteString(ColorReset)
				}
				current = cell.Color
			}
			sb.WriteRune(cell.Rune)
		}
		sb.WriteString(ColorReset)
		if y < c.rows-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// Overlay copies every non-blank cell of src onto c, aligned at (col, row).
func (c *MatrixCanvas) Overlay(src *MatrixCanvas, col, row int) {
	for y := 0; y < src.rows; y++ {
		for x := 0; x < src.cols; x++ {
			cell := src.cells[y][x]
			if cell.Rune == ' ' {
				continue
			}
			tx, ty := col+x, row+y
			if tx >= 0 && tx < c.cols && ty >= 0 && ty < c.rows {
				c.cells[ty][tx] = cell
			}
		}
	}
}

func (c *MatrixCanvas) paintPixel(x, y int, color string) {
	if x < 0 || x >= c.cols || y < 0 || y >= c.rows*2 {
		return
	}
	cell := &c.cells[y/2][x]
	if cell.fill == 0 {
		cell.Rune = ' '
	}
	cell.fill |= 1 << uint(y%2)
	cell.Rune = halfBlocks[cell.fill]
	cell.Color = color
}

// drawLine steps along the segment one pixel at a time. Crossing lines
// merge into junctions; filled cells are left alone.
func (c *MatrixCanvas) drawLine(x0, y0, x1, y1 float64, color string) {
	char := lineRune(x1-x0, (y1-y0)/2)
	steps := math.Max(math.Abs(x1-x0), math.Abs(y1-y0))
	if steps < 1 {
		steps = 1
	}
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		col := int(math.Floor(x0 + (x1-x0)*t))
		row := int(math.Floor((y0 + (y1-y0)*t) / 2))
		if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
			continue
		}
		cell := &c.cells[row][col]
		if cell.fill != 0 {
			continue
		}
		cell.Rune = mergeLine(cell.Rune, char)
		cell.Color = color
	}
}

// lineRune picks a box-drawing character for a segment with the given
// extent in cells.
func lineRune(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ay <= ax*0.4:
		return '─'
	case ax <= ay*0.4:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}
