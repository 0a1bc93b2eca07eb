package tui

import "slices"

// lineTracker records which screen lines need redrawing. When more than
// half the screen is dirty it falls back to a full redraw.
type lineTracker struct {
	height int
	full   bool
	lines  map[int]struct{}
}

func newLineTracker(height int) *lineTracker {
	return &lineTracker{height: max(height, 0), full: true, lines: make(map[int]struct{})}
}

func (t *lineTracker) resize(height int) {
	t.height = max(height, 0)
	t.markFull()
}

func (t *lineTracker) markFull() {
	t.full = true
	clear(t.lines)
}

func (t *lineTracker) markLine(y int) {
	if t.full || y < 0 || y >= t.height {
		return
	}
	t.lines[y] = struct{}{}
	if len(t.lines)*2 > t.height {
		t.markFull()
	}
}

// markFrom marks y and every line below it.
func (t *lineTracker) markFrom(y int) {
	for y = max(y, 0); y < t.height && !t.full; y++ {
		t.markLine(y)
	}
}

func (t *lineTracker) needsFull() bool {
	return t.full
}

func (t *lineTracker) dirty() bool {
	return t.full || len(t.lines) > 0
}

// dirtyLines returns the marked lines in ascending order.
func (t *lineTracker) dirtyLines() []int {
	if t.full {
		out := make([]int, t.height)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, len(t.lines))
	for y := range t.lines {
		out = append(out, y)
	}
	slices.Sort(out)
	return out
}

func (t *lineTracker) reset() {
	t.full = false
	clear(t.lines)
}
