// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#696969"} // hints, footers

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF8787"}

	// Accent for the active tab and metric values.
	AccentColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	// ChartPalette colors series in order; the second series of a
	// comparison panel uses the second entry.
	ChartPalette = []lipgloss.AdaptiveColor{
		{Light: "#1E66F5", Dark: "#89B4FA"},
		{Light: "#FE640B", Dark: "#FAB387"},
		{Light: "#40A02B", Dark: "#A6E3A1"},
		{Light: "#8839EF", Dark: "#CBA6F7"},
		{Light: "#179299", Dark: "#94E2D5"},
		{Light: "#D20F39", Dark: "#F38BA8"},
	}

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	SubtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(TextSecondaryColor)

	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	TabStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	MetricLabelStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	MetricValueStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)

	MetricDeltaStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)

	MetricCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDefaultColor).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
)

// SeriesColor returns the palette color for series i, cycling.
func SeriesColor(i int) lipgloss.AdaptiveColor {
	return ChartPalette[i%len(ChartPalette)]
}
