package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color theme for the dashboard
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	Border   lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Selected lipgloss.AdaptiveColor
	Banner   lipgloss.AdaptiveColor // background of the error banner
}

// palette lists [light, dark] pairs in Theme field order
type palette [11][2]string

func buildTheme(name string, p palette) Theme {
	c := func(i int) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: p[i][0], Dark: p[i][1]}
	}
	return Theme{
		Name:      name,
		Primary:   c(0),
		Secondary: c(1),
		Accent:    c(2),
		Success:   c(3),
		Warning:   c(4),
		Error:     c(5),
		Info:      c(6),
		Border:    c(7),
		Muted:     c(8),
		Selected:  c(9),
		Banner:    c(10),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default", palette{
		{"#1E40AF", "#3B82F6"}, {"#6B7280", "#9CA3AF"}, {"#7C3AED", "#A855F7"},
		{"#059669", "#10B981"}, {"#D97706", "#F59E0B"}, {"#DC2626", "#EF4444"},
		{"#0891B2", "#06B6D4"}, {"#D1D5DB", "#374151"}, {"#6B7280", "#9CA3AF"},
		{"#DBEAFE", "#1E3A8A"}, {"#FEE2E2", "#450A0A"},
	})

	HighContrastTheme = buildTheme("high-contrast", palette{
		{"#000000", "#FFFFFF"}, {"#666666", "#BBBBBB"}, {"#000080", "#8080FF"},
		{"#006600", "#00FF00"}, {"#CC6600", "#FFAA00"}, {"#CC0000", "#FF4444"},
		{"#0066CC", "#4499FF"}, {"#000000", "#FFFFFF"}, {"#666666", "#BBBBBB"},
		{"#CCCCCC", "#333333"}, {"#FFCCCC", "#550000"},
	})

	MinimalTheme = buildTheme("minimal", palette{
		{"#2D3748", "#E2E8F0"}, {"#718096", "#A0AEC0"}, {"#4A5568", "#CBD5E0"},
		{"#2F855A", "#68D391"}, {"#C05621", "#F6AD55"}, {"#C53030", "#FC8181"},
		{"#2B6CB0", "#63B3ED"}, {"#E2E8F0", "#2D3748"}, {"#A0AEC0", "#718096"},
		{"#EDF2F7", "#2D3748"}, {"#FFF5F5", "#3B1D1D"},
	})
)

var (
	currentTheme  = DefaultTheme
	colorDisabled bool
)

// GetTheme returns the current active theme
func GetTheme() Theme {
	return currentTheme
}

// SetThemeByName sets the theme by name
func SetThemeByName(name string) bool {
	switch name {
	case "default", "":
		currentTheme = DefaultTheme
	case "high-contrast":
		currentTheme = HighContrastTheme
	case "minimal":
		currentTheme = MinimalTheme
	default:
		return false
	}
	return true
}

// GetAvailableThemes returns list of available theme names
func GetAvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// SetColorDisabled turns styling off for every style built afterwards
func SetColorDisabled(disabled bool) {
	colorDisabled = disabled
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return colorDisabled || os.Getenv("NO_COLOR") != ""
}

// Styles contains the styled components of the dashboard
type Styles struct {
	Theme Theme

	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Banner      lipgloss.Style
	Box         lipgloss.Style
	KeyEnabled  lipgloss.Style
	KeyDisabled lipgloss.Style
	Selected    lipgloss.Style
}

// GetStyles builds styles from the current theme
func GetStyles() *Styles {
	if IsColorDisabled() {
		plain := lipgloss.NewStyle()
		return &Styles{
			Theme:       currentTheme,
			Title:       plain.Bold(true),
			Header:      plain.Bold(true),
			Body:        plain,
			Muted:       plain,
			Success:     plain,
			Warning:     plain,
			Error:       plain,
			Info:        plain,
			Banner:      plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			Box:         plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			KeyEnabled:  plain,
			KeyDisabled: plain.Faint(true),
			Selected:    plain.Reverse(true),
		}
	}

	theme := currentTheme
	return &Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted),

		Success: lipgloss.NewStyle().Foreground(theme.Success).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(theme.Info),

		Banner: lipgloss.NewStyle().
			Foreground(theme.Error).
			Background(theme.Banner).
			Bold(true).
			Padding(0, 1),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		KeyEnabled: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		KeyDisabled: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Faint(true),

		Selected: lipgloss.NewStyle().
			Background(theme.Selected).
			Foreground(theme.Primary).
			Bold(true),
	}
}
