package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/formatter"
)

// StatsCard represents a statistics card component
type StatsCard struct {
	Title       string
	Value       string
	Description string
	Status      string // "success", "warning", "error", "info"
	Icon        string
	Width       int
	Height      int
}

// NewStatsCard creates a new stats card
func NewStatsCard(title, value, description string) *StatsCard {
	return &StatsCard{
		Title:       title,
		Value:       value,
		Description: description,
		Status:      "info",
		Width:       20,
		Height:      3,
	}
}

// SetStatus sets the status color of the card
func (s *StatsCard) SetStatus(status string) *StatsCard {
	s.Status = status
	return s
}

// SetIcon sets the icon for the card
func (s *StatsCard) SetIcon(icon string) *StatsCard {
	s.Icon = icon
	return s
}

// SetSize sets the size of the card
func (s *StatsCard) SetSize(width, height int) *StatsCard {
	s.Width = width
	s.Height = height
	return s
}

// Render renders the stats card
func (s *StatsCard) Render() string {
	infoColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	bodyColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	var valueColor lipgloss.TerminalColor = bodyColor
	switch s.Status {
	case "success":
		valueColor = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	case "warning":
		valueColor = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
	case "error":
		valueColor = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}
	case "info":
		valueColor = infoColor
	}

	title := lipgloss.NewStyle().Foreground(infoColor).Bold(true).Render(s.Title)
	if s.Icon != "" {
		title = s.Icon + " " + title
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		lipgloss.NewStyle().Foreground(valueColor).Bold(true).Render(s.Value),
		lipgloss.NewStyle().Foreground(bodyColor).Render(s.Description),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bodyColor).
		Padding(0, 1).
		Width(s.Width).
		Height(s.Height).
		Render(content)
}

// StatsDashboard represents a collection of stats cards
type StatsDashboard struct {
	cards      []*StatsCard
	columns    int
	cardWidth  int
	cardHeight int
}

// NewStatsDashboard creates a new stats dashboard
func NewStatsDashboard(columns int) *StatsDashboard {
	return &StatsDashboard{
		columns:    columns,
		cardWidth:  20,
		cardHeight: 3,
	}
}

// AddCard adds a stats card to the dashboard
func (d *StatsDashboard) AddCard(card *StatsCard) {
	card.SetSize(d.cardWidth, d.cardHeight)
	d.cards = append(d.cards, card)
}

// Cards returns the cards in insertion order
func (d *StatsDashboard) Cards() []*StatsCard {
	return d.cards
}

// Render renders the stats dashboard
func (d *StatsDashboard) Render() string {
	if len(d.cards) == 0 {
		return ""
	}

	var rows []string
	for i := 0; i < len(d.cards); i += d.columns {
		end := min(i+d.columns, len(d.cards))
		rowCards := make([]string, 0, end-i)
		for j := i; j < end; j++ {
			rowCards = append(rowCards, d.cards[j].Render())
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// CreateAnalysisStats creates the overview cards for an analysis
func CreateAnalysisStats(a *backend.Analysis) *StatsDashboard {
	dashboard := NewStatsDashboard(4)

	dashboard.AddCard(NewStatsCard(
		"Rows",
		formatter.FormatCount(a.FileInfo.Rows),
		"data rows",
	).SetIcon(emoji.GetEmoji("file")))

	numeric, categorical := 0, 0
	worstMissing := 0.0
	for _, col := range a.Columns {
		if col.Type == backend.ColumnNumeric {
			numeric++
		} else {
			categorical++
		}
		worstMissing = max(worstMissing, col.MissingPercent)
	}

	dashboard.AddCard(NewStatsCard(
		"Columns",
		formatter.FormatCount(a.FileInfo.Columns),
		fmt.Sprintf("%d numeric, %d categorical", numeric, categorical),
	).SetIcon(emoji.GetEmoji("statistics")))

	missingStatus := "success"
	switch {
	case worstMissing > 20:
		missingStatus = "error"
	case worstMissing > 0:
		missingStatus = "warning"
	}
	dashboard.AddCard(NewStatsCard(
		"Max Missing",
		formatter.FormatPercent(worstMissing),
		"worst column",
	).SetIcon(emoji.GetEmoji("warning")).SetStatus(missingStatus))

	entries := formatter.Charts(a)
	ok := 0
	for _, entry := range entries {
		if entry.Err == nil {
			ok++
		}
	}
	chartStatus := "success"
	if ok < len(entries) {
		chartStatus = "warning"
	}
	dashboard.AddCard(NewStatsCard(
		"Charts",
		fmt.Sprintf("%d/%d", ok, len(entries)),
		"images decoded",
	).SetIcon(emoji.GetEmoji("charts")).SetStatus(chartStatus))

	return dashboard
}

// SummaryBox creates a summary information box
type SummaryBox struct {
	Title   string
	Content []string
	Width   int
}

// NewSummaryBox creates a new summary box
func NewSummaryBox(title string, width int) *SummaryBox {
	return &SummaryBox{
		Title: title,
		Width: width,
	}
}

// AddLine adds a line to the summary
func (s *SummaryBox) AddLine(line string) {
	s.Content = append(s.Content, line)
}

// AddKeyValue adds a key-value pair to the summary
func (s *SummaryBox) AddKeyValue(key, value string) {
	s.Content = append(s.Content, fmt.Sprintf("%-12s %s", key+":", value))
}

// Render renders the summary box
func (s *SummaryBox) Render() string {
	headerColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	bodyColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	bodyStyle := lipgloss.NewStyle().Foreground(bodyColor)
	content := make([]string, 0, len(s.Content)+2)
	content = append(content, lipgloss.NewStyle().Foreground(headerColor).Bold(true).Render(s.Title), "")
	for _, line := range s.Content {
		content = append(content, bodyStyle.Render(line))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bodyColor).
		Padding(0, 1).
		Width(s.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}
