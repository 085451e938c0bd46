package tui

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Each terminal cell holds a 2x4 braille dot matrix
const (
	dotsX = 2
	dotsY = 4

	brailleBase = 0x2800
)

// brailleBits maps a dot's position inside its cell to its bit
var brailleBits = [dotsX][dotsY]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Canvas is a braille dot surface for the particle engine. One surface
// unit is one braille dot.
type Canvas struct {
	cols, rows int // layout size in cells
	w, h       int // buffer size in dots

	dots  []bool
	alpha []uint8 // strongest alpha drawn into each cell
}

// LayoutSize returns the size in dots of the cells the canvas covers
func (c *Canvas) LayoutSize() (int, int) {
	return c.cols * dotsX, c.rows * dotsY
}

// SetBufferSize reallocates the dot buffer, clearing it
func (c *Canvas) SetBufferSize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c.w, c.h = w, h
	c.dots = make([]bool, w*h)
	c.alpha = make([]uint8, c.cellCols()*c.cellRows())
}

// Clear erases every dot
func (c *Canvas) Clear() {
	clear(c.dots)
	clear(c.alpha)
}

// FillCircle sets every dot within r of (x, y)
func (c *Canvas) FillCircle(x, y, r float64, col color.Color) {
	a := alphaOf(col)
	minX, maxX := int(math.Floor(x-r)), int(math.Ceil(x+r))
	minY, maxY := int(math.Floor(y-r)), int(math.Ceil(y+r))
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			dx, dy := float64(px)-x, float64(py)-y
			if dx*dx+dy*dy <= r*r {
				c.set(px, py, a)
			}
		}
	}
}

// StrokeLine sets the dots on the segment between the two points
func (c *Canvas) StrokeLine(x1, y1, x2, y2 float64, col color.Color) {
	a := alphaOf(col)
	if a == 0 {
		return
	}

	// Bresenham
	x0, y0 := int(math.Round(x1)), int(math.Round(y1))
	xe, ye := int(math.Round(x2)), int(math.Round(y2))
	dx, dy := abs(xe-x0), -abs(ye-y0)
	sx, sy := 1, 1
	if x0 > xe {
		sx = -1
	}
	if y0 > ye {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, a)
		if x0 == xe && y0 == ye {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) set(x, y int, a uint8) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.dots[y*c.w+x] = true
	i := (y/dotsY)*c.cellCols() + x/dotsX
	if a > c.alpha[i] {
		c.alpha[i] = a
	}
}

func (c *Canvas) cellCols() int { return (c.w + dotsX - 1) / dotsX }
func (c *Canvas) cellRows() int { return (c.h + dotsY - 1) / dotsY }

// Cell returns the braille rune for a cell and the strongest alpha drawn
// into it. Empty cells return a blank braille pattern and zero alpha.
func (c *Canvas) Cell(col, row int) (rune, uint8) {
	r := rune(brailleBase)
	if col < 0 || row < 0 || col >= c.cellCols() || row >= c.cellRows() {
		return r, 0
	}
	for dx := 0; dx < dotsX; dx++ {
		for dy := 0; dy < dotsY; dy++ {
			x, y := col*dotsX+dx, row*dotsY+dy
			if x < c.w && y < c.h && c.dots[y*c.w+x] {
				r |= brailleBits[dx][dy]
			}
		}
	}
	return r, c.alpha[row*c.cellCols()+col]
}

// Backdrop is a box that shows a Canvas
type Backdrop struct {
	*tview.Box

	canvas   *Canvas
	onResize []func()
}

// NewBackdrop creates an empty backdrop
func NewBackdrop() *Backdrop {
	return &Backdrop{
		Box:    tview.NewBox(),
		canvas: &Canvas{},
	}
}

// Canvas returns the particle surface
func (b *Backdrop) Canvas() *Canvas {
	return b.canvas
}

// OnResize registers fn to run when the inner area changes size
func (b *Backdrop) OnResize(fn func()) {
	b.onResize = append(b.onResize, fn)
}

// Draw implements tview.Primitive
func (b *Backdrop) Draw(screen tcell.Screen) {
	b.Box.DrawForSubclass(screen, b)
	x, y, width, height := b.GetInnerRect()

	if width != b.canvas.cols || height != b.canvas.rows {
		b.canvas.cols, b.canvas.rows = width, height
		for _, fn := range b.onResize {
			fn()
		}
	}

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			r, a := b.canvas.Cell(col, row)
			if a == 0 {
				continue
			}
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(a), int32(a), int32(a)))
			screen.SetContent(x+col, y+row, r, nil, style)
		}
	}
}

func alphaOf(c color.Color) uint8 {
	_, _, _, a := c.RGBA()
	return uint8(a >> 8)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
