package tui

import (
	"github.com/charmbracelet/lipgloss"

	"crowdmap/models/site"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Width(7)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

var crowdLevelColors = map[site.CrowdLevel]string{
	site.CrowdLevelLow:      "34",
	site.CrowdLevelModerate: "220",
	site.CrowdLevelHigh:     "208",
	site.CrowdLevelCritical: "196",
}

// CrowdLevelStyle colours a crowd level from green to red.
func CrowdLevelStyle(level site.CrowdLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(crowdLevelColors[level]))
}
