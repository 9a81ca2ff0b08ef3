package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the panel readable on light and dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      = ac("240", "243")
	colorAccent     = ac("27", "62")
	colorError      = ac("160", "203")
	colorSuccess    = ac("28", "42")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorBorder     = ac("250", "240")
)

var (
	styleTitle       = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted       = lipgloss.NewStyle().Foreground(colorMuted)
	styleSelected    = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
	stylePlaceholder = lipgloss.NewStyle().Foreground(colorAccent).Italic(true)
	styleInvalid     = lipgloss.NewStyle().Foreground(colorError).Italic(true)
	styleWarn        = lipgloss.NewStyle().Foreground(colorError)
	stylePreview     = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorBorder).
				PaddingLeft(1)
)

func toastStyle(kind string) lipgloss.Style {
	switch kind {
	case "error":
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	case "success":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	default:
		return styleMuted
	}
}
