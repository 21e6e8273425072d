package termui

import (
	"github.com/park285/Cheese-scratch-card/internal/scratch"
)

// One terminal cell covers cellW×cellH logical pixels of the scratch surface.
const (
	cellW = 8
	cellH = 16

	cardLeft   = 1
	cardTop    = 2
	footerRows = 5
	maxGridCol = 8
)

// Layout places the card on the terminal and splits it into grid cells.
// Card coordinates are terminal cells; logical coordinates are surface pixels.
type Layout struct {
	CardX, CardY       int
	CardCols, CardRows int
	GridCols, GridRows int
	Size               int
}

func NewLayout(screenW, screenH, size, minW, minH int) Layout {
	l := Layout{CardX: cardLeft, CardY: cardTop, Size: size}
	l.CardCols = max(screenW-2*cardLeft, ceilDiv(minW, cellW))
	l.CardRows = max(screenH-cardTop-footerRows, ceilDiv(minH, cellH))
	if size > 0 {
		l.GridCols = min(size, maxGridCol)
		l.GridRows = ceilDiv(size, l.GridCols)
	}
	return l
}

// Measure implements scratch.Container for the card area.
func (l *Layout) Measure() (scratch.Rect, bool) {
	if l.CardCols <= 0 || l.CardRows <= 0 {
		return scratch.Rect{}, false
	}
	return scratch.Rect{
		Left:   float64(l.CardX * cellW),
		Top:    float64(l.CardY * cellH),
		Width:  float64(l.CardCols * cellW),
		Height: float64(l.CardRows * cellH),
	}, true
}

// Pointer maps a terminal cell to a client-space pointer event at the cell
// center.
func (l *Layout) Pointer(x, y int) scratch.PointerEvent {
	return scratch.PointerEvent{
		ClientX:   float64(x*cellW + cellW/2),
		ClientY:   float64(y*cellH + cellH/2),
		PointerID: 1,
	}
}

func (l *Layout) InCard(x, y int) bool {
	return x >= l.CardX && x < l.CardX+l.CardCols && y >= l.CardY && y < l.CardY+l.CardRows
}

// Local returns the card-relative logical center of a terminal cell.
func (l *Layout) Local(x, y int) (float64, float64) {
	return float64((x-l.CardX)*cellW + cellW/2), float64((y-l.CardY)*cellH + cellH/2)
}

// CellBounds returns the card-relative terminal rectangle [x0,x1)×[y0,y1)
// of grid cell i.
func (l *Layout) CellBounds(i int) (x0, y0, x1, y1 int) {
	col, row := i%l.GridCols, i/l.GridCols
	x0 = col * l.CardCols / l.GridCols
	x1 = (col + 1) * l.CardCols / l.GridCols
	y0 = row * l.CardRows / l.GridRows
	y1 = (row + 1) * l.CardRows / l.GridRows
	return
}

// CellAt returns the grid index under a card-relative terminal cell, or -1.
func (l *Layout) CellAt(cx, cy int) int {
	if l.Size <= 0 || cx < 0 || cy < 0 || cx >= l.CardCols || cy >= l.CardRows {
		return -1
	}
	col := band(cx, l.GridCols, l.CardCols)
	row := band(cy, l.GridRows, l.CardRows)
	i := row*l.GridCols + col
	if i >= l.Size {
		return -1
	}
	return i
}

// CellCenter returns the card-relative logical center of grid cell i.
func (l *Layout) CellCenter(i int) (float64, float64) {
	x0, y0, x1, y1 := l.CellBounds(i)
	return float64(x0+x1) * cellW / 2, float64(y0+y1) * cellH / 2
}

// band inverts the floor(k*span/n) split used by CellBounds.
func band(v, n, span int) int {
	return ((v+1)*n+span-1)/span - 1
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
