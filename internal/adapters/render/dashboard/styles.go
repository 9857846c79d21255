package dashboard

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	user       lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	degraded   lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	goalName   lipgloss.Style
	goalMeta   lipgloss.Style
	amount     lipgloss.Style
	amountNeg  lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		user:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		degraded:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		goalName:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		goalMeta:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		amount:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		amountNeg:  lipgloss.NewStyle().Foreground(lipgloss.Color("210")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
