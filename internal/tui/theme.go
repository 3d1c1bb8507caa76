package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for terminal output.
// Inspired by btop and Tokyo Night color scheme.
type Theme struct {
	TextPrimary lipgloss.Color // Main text
	TextDim     lipgloss.Color // Secondary/dim text

	Border lipgloss.Color // Default border

	Accent  lipgloss.Color // Primary accent (blue)
	Success lipgloss.Color // Success/positive (green)
	Warning lipgloss.Color // Warning/caution (amber)
	Error   lipgloss.Color // Error/danger (red/pink)
}

// DefaultTheme returns the default dark theme.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),

	Border: lipgloss.Color("#414868"),

	Accent:  lipgloss.Color("#7aa2f7"), // Blue
	Success: lipgloss.Color("#9ece6a"), // Green
	Warning: lipgloss.Color("#e0af68"), // Amber
	Error:   lipgloss.Color("#f7768e"), // Red/Pink
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Dim    lipgloss.Style
	Value  lipgloss.Style
	Err    lipgloss.Style
	Box    lipgloss.Style
}

// DefaultStyles builds the style set from the default theme.
func DefaultStyles() Styles {
	t := DefaultTheme
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary),
		Dim:    lipgloss.NewStyle().Foreground(t.TextDim),
		Value:  lipgloss.NewStyle().Foreground(t.Success),
		Err:    lipgloss.NewStyle().Foreground(t.Error),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}
