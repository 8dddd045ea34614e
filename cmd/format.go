package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crowdmap/models"
	"crowdmap/tui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	kindStyle = lipgloss.NewStyle().
			Bold(true).
			Width(10)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// renderResults formats merged results in display order.
func renderResults(query string, results models.SearchResults) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Results for %q", query)))
	b.WriteString("\n")

	if results.IsEmpty() {
		b.WriteString(noDataStyle.Render("No sites or places found."))
		b.WriteString("\n")
		return b.String()
	}

	for _, entry := range results.Combined {
		if s, ok := entry.AsSite(); ok {
			fmt.Fprintf(&b, "%s %s %s\n",
				kindStyle.Render("site"),
				s.Name,
				tui.CrowdLevelStyle(s.CrowdLevel).Render(string(s.CrowdLevel)))
			continue
		}
		if l, ok := entry.AsLocation(); ok {
			fmt.Fprintf(&b, "%s %s %s\n",
				kindStyle.Render("place"),
				l.Text,
				metaStyle.Render(fmt.Sprintf("%s (%.4f, %.4f)", l.PlaceName, l.Lat(), l.Lng())))
		}
	}
	fmt.Fprintf(&b, "\n%s\n", metaStyle.Render(fmt.Sprintf("%d sites, %d places", len(results.Sites), len(results.Locations))))
	return b.String()
}
