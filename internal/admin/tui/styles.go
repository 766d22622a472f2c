package tui

import "github.com/charmbracelet/lipgloss"

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Width(14)

	enabledStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	cssStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)
