package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/TabSum/internal/backend"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/session"
	"github.com/yildizm/TabSum/internal/source"
	"github.com/yildizm/TabSum/internal/ui/components"
)

type tickMsg time.Time

type analyzeDoneMsg struct {
	op       *session.Op
	analysis *backend.Analysis
	err      error
}

type compareDoneMsg struct {
	op         *session.Op
	comparison *backend.Comparison
	err        error
}

type dirScannedMsg struct {
	dir     string
	entries []components.FileEntry
	err     error
}

type fileLoadedMsg struct {
	file *source.File
	err  error
}

type chartsExportedMsg struct {
	dir   string
	paths []string
	err   error
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// analyzeCmd runs the request of an analyze op off the update loop
func analyzeCmd(sess *session.Session, op *session.Op) tea.Cmd {
	return func() tea.Msg {
		analysis, err := sess.RunAnalyze(op)
		return analyzeDoneMsg{op: op, analysis: analysis, err: err}
	}
}

func compareCmd(sess *session.Session, op *session.Op) tea.Cmd {
	return func() tea.Msg {
		cmp, err := sess.RunCompare(op)
		return compareDoneMsg{op: op, comparison: cmp, err: err}
	}
}

func scanDirCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		entries, err := components.ScanDir(dir)
		return dirScannedMsg{dir: dir, entries: entries, err: err}
	}
}

func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := source.Open(path)
		return fileLoadedMsg{file: f, err: err}
	}
}

func exportChartsCmd(dir string, analysis *backend.Analysis, cmp *backend.Comparison) tea.Cmd {
	return func() tea.Msg {
		paths, err := formatter.ExportCharts(dir, analysis, cmp)
		return chartsExportedMsg{dir: dir, paths: paths, err: err}
	}
}
