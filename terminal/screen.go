package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"graphview/canvas"
)

var (
	statusStyle = tcell.StyleDefault.Reverse(true)
	helpStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

var helpLines = []string{
	"graphview",
	"",
	"mouse drag   move a node, or pan on empty space",
	"wheel        zoom about the pointer",
	"click        describe a node or edge",
	"arrows       pan",
	"+ / -        zoom about the centre",
	"r            reset the view",
	"t            toggle the minimap",
	"d / z        toggle drag / zoom",
	"space        restart the layout",
	"q, Esc       quit",
	"",
	"press any key",
}

// Draw composes edges, nodes and the minimap into one frame and paints it
// onto the screen together with the status line. It does not call Show.
func (v *Viewer) Draw() {
	v.screen.Clear()

	cols, rows := v.nodes.Dimensions()
	frame := canvas.NewMatrixCanvas(cols, rows)
	frame.Overlay(v.edges, 0, 0)
	frame.Overlay(v.nodes, 0, 0)
	if t := v.graph.Thumbnail(); t != nil && t.IsOpen() {
		oc, or := v.thumbOrigin()
		frame.Overlay(v.thumbViewport, oc, or)
		frame.Overlay(v.thumbHandle, oc, or)
	}

	for y, line := range frame.Cells() {
		for x, cell := range line {
			if cell.Rune == '\x00' || cell.Rune == ' ' {
				continue
			}
			v.screen.SetContent(x, y, cell.Rune, nil, cellStyle(cell.Color))
		}
	}

	v.drawStatus(rows)
	if v.help {
		v.drawHelp()
	}
}

func cellStyle(color string) tcell.Style {
	c, ok := canvas.ParseColor(color)
	if !ok {
		return tcell.StyleDefault
	}
	r, g, b := c.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func (v *Viewer) drawStatus(row int) {
	cols, _ := v.screen.Size()
	for x := 0; x < cols; x++ {
		v.screen.SetContent(x, row, ' ', nil, statusStyle)
	}

	body := v.graph.Body()
	scale := v.graph.Scale()
	text := fmt.Sprintf(" %s | nodes %d/%d | edges %d | zoom %.2f",
		v.title,
		len(body.Transformed.ViewNodes),
		len(body.Transformed.Nodes),
		len(body.Transformed.Edges),
		scale.K)
	if v.status != "" {
		text += " | " + v.status
	}
	text += " | ? help"
	drawText(v.screen, 0, row, canvas.FitText(text, cols, "…"), statusStyle)
}

func (v *Viewer) drawHelp() {
	cols, rows := v.screen.Size()
	width := 0
	for _, line := range helpLines {
		width = max(width, canvas.MeasureText(line))
	}
	width += 4
	height := len(helpLines) + 2
	x0 := max((cols-width)/2, 0)
	y0 := max((rows-height)/2, 0)

	for y := y0; y < y0+height && y < rows; y++ {
		for x := x0; x < x0+width && x < cols; x++ {
			v.screen.SetContent(x, y, ' ', nil, helpStyle)
		}
	}
	for i, line := range helpLines {
		drawText(v.screen, x0+2, y0+1+i, line, helpStyle)
	}
}

// drawText writes s from (x, y), advancing by each rune's display width.
func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
