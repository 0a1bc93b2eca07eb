package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
)

// TextOption configures text output.
type TextOption func(*textOptions)

type textOptions struct {
	header   func(string) string
	maxWidth int
	gap      int
}

// WithHeaderStyle renders the header line through fn, e.g. to colour it.
// fn must not change the display width of its input.
func WithHeaderStyle(fn func(string) string) TextOption {
	return func(o *textOptions) {
		o.header = fn
	}
}

// WithMaxCellWidth truncates cells wider than n cells, ending them with an
// ellipsis. Zero means no limit.
func WithMaxCellWidth(n int) TextOption {
	return func(o *textOptions) {
		o.maxWidth = n
	}
}

// Text writes t as left-aligned columns separated by two spaces. Widths
// are measured in terminal cells, so wide and combining characters line up.
func Text(w io.Writer, t Table, opts ...TextOption) error {
	o := textOptions{gap: 2}
	for _, opt := range opts {
		opt(&o)
	}

	cols := t.Columns()
	cells := make([][]string, 0, t.RowCount()+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header()
	}
	cells = append(cells, header)

	for p := 0; p < t.RowCount(); p++ {
		row := make([]string, len(cols))
		for c := range cols {
			text, _, err := t.Column(p, c)
			if err != nil {
				return fmt.Errorf("row %d: %w", p, err)
			}
			row[c] = Truncate(text, o.maxWidth)
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(cols))
	for _, row := range cells {
		for c, s := range row {
			widths[c] = max(widths[c], uniseg.StringWidth(s))
		}
	}

	var b strings.Builder
	for r, row := range cells {
		b.Reset()
		for c, s := range row {
			last := c == len(row)-1
			cell := s
			if !last {
				cell = Pad(s, widths[c]+o.gap)
			}
			b.WriteString(cell)
		}
		line := strings.TrimRight(b.String(), " ")
		if r == 0 && o.header != nil {
			line = o.header(line)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Pad appends spaces to s until it is width cells wide.
func Pad(s string, width int) string {
	if n := width - uniseg.StringWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// Truncate shortens s to at most width cells, replacing the tail with "…".
// A width of zero or less leaves s unchanged.
func Truncate(s string, width int) string {
	if width <= 0 || uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	b.WriteString("…")
	return b.String()
}
