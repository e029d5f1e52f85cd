package ui

// Mode is the part of the dashboard that has keyboard focus
type Mode int

const (
	ModeDashboard Mode = iota
	ModePicker
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeDashboard:
		return "dashboard"
	case ModePicker:
		return "picker"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}
