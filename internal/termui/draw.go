package termui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/park285/Cheese-scratch-card/internal/session"
)

var foilFallback = tcell.NewRGBColor(0x55, 0x55, 0x55)

func (a *App) draw() {
	a.screen.Clear()
	snap := a.cfg.Controller.Snapshot()
	view := a.game.View()

	drawText(a.screen, 0, 0, a.hud.Status(snap), styleStatus)
	if snap.ErrorMessage != "" {
		drawText(a.screen, 0, 1, snap.ErrorMessage, styleError)
	}

	a.drawCard(snap)

	y := a.layout.CardY + a.layout.CardRows
	drawText(a.screen, a.layout.CardX, y, a.hud.Help(), styleDim)
	for i, line := range a.hud.PlayLog(view.PlayLog, playLogLines) {
		drawText(a.screen, a.layout.CardX, y+1+i, line, styleBase)
	}
	a.screen.Show()
}

func (a *App) drawCard(snap session.Snapshot) {
	l := &a.layout
	labels := a.cellLabels(snap)
	prizeText := []rune(a.hud.Prize(a.prize))
	for cy := 0; cy < l.CardRows; cy++ {
		for cx := 0; cx < l.CardCols; cx++ {
			x, y := l.CardX+cx, l.CardY+cy
			lx, ly := l.Local(x, y)
			if !a.engine.Cleared(lx, ly) {
				a.screen.SetContent(x, y, ' ', nil, styleBase.Background(a.foilColor(lx, ly)))
				continue
			}
			r, style := ' ', styleBase
			if l.Size > 0 {
				r, style = a.cellRune(labels, cx, cy), styleCell
			} else if cy == l.CardRows/2 {
				start := (l.CardCols - len(prizeText)) / 2
				if i := cx - start; i >= 0 && i < len(prizeText) {
					r, style = prizeText[i], styleWin
				}
			}
			a.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func (a *App) cellLabels(snap session.Snapshot) [][]rune {
	out := make([][]rune, a.layout.Size)
	for i := range out {
		out[i] = []rune(a.hud.CellLabel(snap, i))
	}
	return out
}

// cellRune returns the rune of the label centered in the grid cell under a
// card-relative terminal cell.
func (a *App) cellRune(labels [][]rune, cx, cy int) rune {
	i := a.layout.CellAt(cx, cy)
	if i < 0 {
		return ' '
	}
	x0, y0, x1, y1 := a.layout.CellBounds(i)
	if cy != (y0+y1-1)/2 {
		return ' '
	}
	label := labels[i]
	start := x0 + (x1-x0-len(label))/2
	if k := cx - start; k >= 0 && k < len(label) {
		return label[k]
	}
	return ' '
}

func (a *App) foilColor(lx, ly float64) tcell.Color {
	s := a.engine.Surface()
	if !s.Ready() {
		return foilFallback
	}
	r := s.Ratio()
	c := s.Image().RGBAAt(int(lx*r), int(ly*r))
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
