package main

import "github.com/charmbracelet/lipgloss"

type palette struct {
	Title   lipgloss.Style
	Panel   lipgloss.Style
	Accent  lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Pending lipgloss.Style
	Muted   lipgloss.Style
	Info    lipgloss.Style
	Toast   lipgloss.Style
}

var styles = nightPalette()

func nightPalette() palette {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return palette{
		Title: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Accent:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		Pass:    lipgloss.NewStyle().Foreground(mint).Bold(true),
		Fail:    lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending: lipgloss.NewStyle().Foreground(amber),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		Info:    lipgloss.NewStyle().Foreground(blue),
		Toast: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1),
	}
}
