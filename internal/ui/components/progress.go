package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner represents a spinning progress indicator
type Spinner struct {
	Frame int
	Label string
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{}
}

// SetLabel sets the spinner label
func (s *Spinner) SetLabel(label string) {
	s.Label = label
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.Frame = (s.Frame + 1) % len(spinnerFrames)
}

// Render renders the spinner
func (s *Spinner) Render() string {
	progressStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	spinner := progressStyle.Render(spinnerFrames[s.Frame])
	if s.Label != "" {
		return fmt.Sprintf("%s %s", spinner, s.Label)
	}
	return spinner
}

// LoadingIndicator shows a spinner with the time spent waiting on a request.
// Requests report no progress, so there is no bar.
type LoadingIndicator struct {
	spinner   *Spinner
	startTime time.Time
	active    bool
	now       func() time.Time
}

// NewLoadingIndicator creates a new loading indicator
func NewLoadingIndicator() *LoadingIndicator {
	return &LoadingIndicator{
		spinner: NewSpinner(),
		now:     time.Now,
	}
}

// Start begins a new wait with the given message
func (l *LoadingIndicator) Start(message string) {
	l.spinner.SetLabel(message)
	l.startTime = l.now()
	l.active = true
}

// Stop ends the wait
func (l *LoadingIndicator) Stop() {
	l.active = false
}

// Active reports whether a wait is in progress
func (l *LoadingIndicator) Active() bool {
	return l.active
}

// Tick advances the animation
func (l *LoadingIndicator) Tick() {
	if l.active {
		l.spinner.Tick()
	}
}

// Elapsed returns the time since Start
func (l *LoadingIndicator) Elapsed() time.Duration {
	if !l.active {
		return 0
	}
	return l.now().Sub(l.startTime)
}

// Render renders the loading indicator
func (l *LoadingIndicator) Render() string {
	if !l.active {
		return ""
	}
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	return l.spinner.Render() + " " + mutedStyle.Render(formatDuration(l.Elapsed()))
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}
