package render

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7C3AED")
	goodColor    = lipgloss.Color("#10B981")
	warnColor    = lipgloss.Color("#F59E0B")
	badColor     = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	accentColor  = lipgloss.Color("#3B82F6")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	MutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	GoodStyle = lipgloss.NewStyle().Foreground(goodColor)
	WarnStyle = lipgloss.NewStyle().Foreground(warnColor)
	BadStyle  = lipgloss.NewStyle().Foreground(badColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 2).
			Width(18).
			Align(lipgloss.Center)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)

	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center)
)

// TierStyle colors a quality tier.
func TierStyle(t Tier) lipgloss.Style {
	switch t {
	case TierGood:
		return GoodStyle
	case TierModerate:
		return WarnStyle
	}
	return BadStyle
}

// SeverityStyle colors a missing-value severity.
func SeverityStyle(s Severity) lipgloss.Style {
	switch s {
	case SeverityHigh:
		return BadStyle
	case SeverityMedium:
		return WarnStyle
	}
	return GoodStyle
}
