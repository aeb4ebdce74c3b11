package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/pixdl/pixdl/internal/config"
)

var (
	// Colors
	ColorNeonPink   = lipgloss.AdaptiveColor{Light: "#d6336c", Dark: "#ff79c6"} // Dracula Pink
	ColorNeonPurple = lipgloss.AdaptiveColor{Light: "#7048e8", Dark: "#bd93f9"} // Dracula Purple
	ColorNeonCyan   = lipgloss.AdaptiveColor{Light: "#1098ad", Dark: "#8be9fd"} // Dracula Cyan
	ColorGray       = lipgloss.AdaptiveColor{Light: "#868e96", Dark: "#6272a4"} // Dracula Comment
	ColorLightGray  = lipgloss.AdaptiveColor{Light: "#495057", Dark: "#bfbfbf"}
	ColorText       = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#f8f8f2"} // Dracula Foreground

	// Item states
	ColorStateDownloading = lipgloss.AdaptiveColor{Light: "#e67700", Dark: "#ffb86c"} // Dracula Orange
	ColorStateDone        = lipgloss.AdaptiveColor{Light: "#2b8a3e", Dark: "#50fa7b"} // Dracula Green
	ColorStateError       = lipgloss.AdaptiveColor{Light: "#c92a2a", Dark: "#ff5555"} // Dracula Red

	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPurple).
			Bold(true)

	// Tabs
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	// List rows
	ItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorNeonPink).
				Bold(true)

	RankStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(5).
			Align(lipgloss.Right).
			MarginRight(1)

	// Details / stats
	StatsLabelStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Width(10)

	StatsValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	NotificationStyle = lipgloss.NewStyle().
				Foreground(ColorNeonPink).
				Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(0, 1)
)

// ApplyTheme picks the colour profile from the environment (NO_COLOR,
// dumb terminals) and the light or dark palette from the theme setting.
func ApplyTheme(theme int) {
	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	switch theme {
	case config.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case config.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

// stateStyle colours a list row by its download state
func stateStyle(s itemState) lipgloss.Style {
	switch s {
	case stateDownloading:
		return lipgloss.NewStyle().Foreground(ColorStateDownloading)
	case stateDone:
		return lipgloss.NewStyle().Foreground(ColorStateDone)
	case stateFailed:
		return lipgloss.NewStyle().Foreground(ColorStateError)
	default:
		return ItemStyle
	}
}
