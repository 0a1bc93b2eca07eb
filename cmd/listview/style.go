package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// headerStyle returns a renderer for table headers written to w. Plain
// writers such as files and pipes get unstyled text.
func headerStyle(w io.Writer) func(string) string {
	r := lipgloss.NewRenderer(w)
	style := r.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	return func(s string) string {
		return style.Render(s)
	}
}
