package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#6C6C6C")
	colorSuccess = lipgloss.Color("#3FB950")
	colorError   = lipgloss.Color("#F85149")
	colorInfo    = lipgloss.Color("#58A6FF")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	helpStyle  = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Width(3).
			Align(lipgloss.Center)
	focusedCellStyle = cellStyle.BorderForeground(colorAccent)

	toastStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1)
)
