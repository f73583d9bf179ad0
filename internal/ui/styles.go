package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the console.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorCyan    = lipgloss.Color("#8BE9FD")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#F8F8F2")
	ColorBlue    = lipgloss.Color("#0A66C2")
	ColorMagenta = lipgloss.Color("#FF79C6")
)

// Base styles reused by the views.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ConnectedDotStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	DisconnectedDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	CheckedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ProgressMessageStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	CacheBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)

// DomainColor builds a style from the color a domain carries in the API,
// falling back to a dim style when the backend supplies none.
func DomainColor(hex string) lipgloss.Style {
	if hex == "" {
		return DimStyle
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
