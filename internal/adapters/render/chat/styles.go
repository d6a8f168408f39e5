package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	model   lipgloss.Style
	meta    lipgloss.Style
	errText lipgloss.Style
	divider lipgloss.Style
}

func newStyles() styles {
	return styles{
		model:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errText: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		divider: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
