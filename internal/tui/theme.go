package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme holds the styles used by the browser.
type Theme struct {
	Tab       tcell.Style
	ActiveTab tcell.Style
	Header    tcell.Style
	Text      tcell.Style
	Address   tcell.Style
	Muted     tcell.Style
	String    tcell.Style
	Selected  tcell.Style
	Status    tcell.Style
}

// Palette is the small set of colours a theme is derived from.
type Palette struct {
	Background string
	Foreground string
	Accent     string
	String     string
}

// DefaultPalette is a dark palette with a blue accent.
var DefaultPalette = Palette{
	Background: "#1c1c1c",
	Foreground: "#d0d0d0",
	Accent:     "#5fafd7",
	String:     "#d7af5f",
}

// DefaultTheme returns the theme for DefaultPalette.
func DefaultTheme() Theme {
	t, err := NewTheme(DefaultPalette)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTheme derives a theme from p. Intermediate shades are blended in
// CIE-L*a*b* so they stay perceptually even across palettes.
func NewTheme(p Palette) (Theme, error) {
	bg, err := parseHex("background", p.Background)
	if err != nil {
		return Theme{}, err
	}
	fg, err := parseHex("foreground", p.Foreground)
	if err != nil {
		return Theme{}, err
	}
	accent, err := parseHex("accent", p.Accent)
	if err != nil {
		return Theme{}, err
	}
	str, err := parseHex("string", p.String)
	if err != nil {
		return Theme{}, err
	}

	base := tcell.StyleDefault.Background(rgb(bg)).Foreground(rgb(fg))
	bar := bg.BlendLab(fg, 0.15).Clamped()
	return Theme{
		Tab:       base.Background(rgb(bar)).Foreground(rgb(fg.BlendLab(bg, 0.3))),
		ActiveTab: base.Background(rgb(accent)).Foreground(rgb(bg)).Bold(true),
		Header:    base.Foreground(rgb(accent)).Bold(true).Underline(true),
		Text:      base,
		Address:   base.Foreground(rgb(accent.BlendLab(fg, 0.5).Clamped())),
		Muted:     base.Foreground(rgb(fg.BlendLab(bg, 0.5).Clamped())),
		String:    base.Foreground(rgb(str)),
		Selected:  base.Background(rgb(bg.BlendLab(accent, 0.35).Clamped())),
		Status:    base.Background(rgb(bar)),
	}, nil
}

func parseHex(role, s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("theme %s colour %q: %w", role, s, err)
	}
	return c, nil
}

func rgb(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// selected overlays the selection background on s.
func (t Theme) selected(s tcell.Style) tcell.Style {
	_, bg, _ := t.Selected.Decompose()
	return s.Background(bg)
}
