package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// drawText writes s at (x, y) clipped to limit columns and returns the
// column after the last cell written.
func drawText(s tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		w := g.Width()
		if w == 0 {
			continue
		}
		if x+w > limit {
			break
		}
		runes := g.Runes()
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}

// fill paints the cells [x, limit) of line y with spaces.
func fill(s tcell.Screen, x, y, limit int, style tcell.Style) {
	for ; x < limit; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}
