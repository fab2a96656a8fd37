package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("205"))
	headerBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	currentRowStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Bold(true)
	rowNumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("11"))

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)
