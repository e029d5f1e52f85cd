package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/formatter"
	"github.com/yildizm/TabSum/internal/logger"
	"github.com/yildizm/TabSum/internal/session"
	"github.com/yildizm/TabSum/internal/ui/components"
)

// Hints shown in the status line when a key cannot act
const (
	hintBusy         = "A request is in progress. Press x to cancel it."
	hintFileDisabled = "File selection is disabled while a file is being analyzed."
	hintNoAnalysis   = "Upload a file first."
	hintNoColumns    = "The analysis has no columns."
	hintNothingToCut = "No request to cancel."
)

// Options configures a dashboard model
type Options struct {
	Context   context.Context
	StartDir  string
	ExportDir string
	Color     bool
	Logger    *logger.Logger
}

// Model is the interactive dashboard. All analysis state lives in the
// session; the model only holds presentation state.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	log     *logger.Logger
	styles  *Styles
	color   bool
	loading *components.LoadingIndicator

	mode      Mode
	prevMode  Mode
	dir       string
	picker    *components.List
	exportDir string
	hint      string
	scroll    int
	searching bool

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates a dashboard over sess. When sess already holds a file
// the dashboard opens on it, otherwise it opens the file picker.
func NewModel(sess *session.Session, opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	dir := opts.StartDir
	if dir == "" {
		dir = "."
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "charts"
	}
	log := opts.Logger
	if log == nil {
		log = logger.New("ui", nil)
	}

	m := &Model{
		ctx:       ctx,
		sess:      sess,
		log:       log,
		styles:    GetStyles(),
		color:     opts.Color,
		loading:   components.NewLoadingIndicator(),
		dir:       dir,
		picker:    components.NewList(dir, 60, 20),
		exportDir: exportDir,
		width:     80,
		height:    24,
	}
	if sess.File() == nil {
		m.mode = ModePicker
	}
	return m
}

// Init starts the directory scan and the animation clock
func (m *Model) Init() tea.Cmd {
	return tea.Batch(scanDirCmd(m.dir), tick())
}

// Update handles messages and keys
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.picker.Width = min(m.width-4, 80)
		m.picker.Height = max(5, m.height-8)
		m.clampScroll()
		return m, nil
	case tea.KeyMsg:
		model, cmd := m.handleKeyPress(msg)
		m.clampScroll()
		return model, cmd
	case tickMsg:
		m.loading.Tick()
		return m, tick()
	case analyzeDoneMsg:
		if m.sess.CompleteAnalyze(msg.op, msg.analysis, msg.err) {
			m.loading.Stop()
			m.scroll = 0
		}
		return m, nil
	case compareDoneMsg:
		if m.sess.CompleteCompare(msg.op, msg.comparison, msg.err) {
			m.loading.Stop()
			m.clampScroll()
		}
		return m, nil
	case dirScannedMsg:
		return m.handleDirScanned(msg)
	case fileLoadedMsg:
		return m.handleFileLoaded(msg)
	case chartsExportedMsg:
		return m.handleChartsExported(msg)
	}
	return m, nil
}

// Session returns the session driven by the model
func (m *Model) Session() *session.Session {
	return m.sess
}

// Mode returns the focused part of the dashboard
func (m *Model) Mode() Mode {
	return m.mode
}

// Hint returns the transient status line
func (m *Model) Hint() string {
	return m.hint
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.searching && m.mode == ModePicker && key != "ctrl+c" {
		return m.handleSearchKey(msg)
	}
	switch key {
	case "ctrl+c", "q":
		return m.handleQuit()
	case "?":
		return m.handleHelp()
	}

	m.hint = ""
	switch m.mode {
	case ModeHelp:
		if key == "esc" {
			m.mode = m.prevMode
		}
		return m, nil
	case ModePicker:
		return m.handlePickerKey(key)
	default:
		return m.handleDashboardKey(key)
	}
}

func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	if m.sess.Cancel() {
		m.log.Debug("cancelled in-flight request on quit")
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) handleHelp() (tea.Model, tea.Cmd) {
	if m.mode == ModeHelp {
		m.mode = m.prevMode
		return m, nil
	}
	m.prevMode = m.mode
	m.mode = ModeHelp
	return m, nil
}

func (m *Model) handlePickerKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.picker.MoveUp()
	case "down", "j":
		m.picker.MoveDown()
	case "/":
		m.searching = true
	case "esc", "f":
		if key == "esc" && m.picker.Search() != "" {
			m.picker.SetSearch("")
			return m, nil
		}
		if m.sess.File() != nil {
			m.mode = ModeDashboard
		}
	case "enter":
		item := m.picker.GetSelectedItem()
		if item == nil {
			return m, nil
		}
		entry, ok := item.Data.(components.FileEntry)
		if !ok {
			return m, nil
		}
		if entry.IsDir {
			return m, scanDirCmd(entry.Path)
		}
		return m, loadFileCmd(entry.Path)
	}
	return m, nil
}

// handleSearchKey edits the picker filter. Enter keeps the filter, Esc
// clears it.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	query := m.picker.Search()
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.picker.SetSearch("")
	case tea.KeyBackspace:
		if r := []rune(query); len(r) > 0 {
			m.picker.SetSearch(string(r[:len(r)-1]))
		}
	case tea.KeyUp:
		m.picker.MoveUp()
	case tea.KeyDown:
		m.picker.MoveDown()
	case tea.KeySpace:
		m.picker.SetSearch(query + " ")
	case tea.KeyRunes:
		m.picker.SetSearch(query + string(msg.Runes))
	}
	return m, nil
}

func (m *Model) handleDashboardKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "f":
		view := m.sess.Snapshot()
		if !view.FileInputEnabled() {
			m.hint = hintFileDisabled
			return m, nil
		}
		// a file chosen now would be rejected until the comparison settles
		if view.Busy() {
			m.hint = hintBusy
			return m, nil
		}
		m.mode = ModePicker
		return m, scanDirCmd(m.dir)
	case "u":
		return m.startAnalyze()
	case "c":
		return m.startCompare()
	case "g", "G":
		m.cycleColumn(true, key == "G")
	case "v", "V":
		m.cycleColumn(false, key == "V")
	case "x":
		if !m.sess.Cancel() {
			m.hint = hintNothingToCut
		}
	case "e":
		return m.exportCharts()
	case "up", "k":
		m.scroll = max(0, m.scroll-1)
	case "down", "j":
		m.scroll++
	case "pgup":
		m.scroll = max(0, m.scroll-m.bodyHeight())
	case "pgdown", " ":
		m.scroll += m.bodyHeight()
	case "home":
		m.scroll = 0
	}
	return m, nil
}

func (m *Model) startAnalyze() (tea.Model, tea.Cmd) {
	if m.sess.Snapshot().Loading {
		return m, nil
	}
	op, err := m.sess.BeginAnalyze(m.ctx)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			m.hint = hintBusy
		}
		return m, nil
	}
	m.loading.Start(fmt.Sprintf("Analyzing %s...", op.File().Name))
	m.scroll = 0
	return m, analyzeCmd(m.sess, op)
}

func (m *Model) startCompare() (tea.Model, tea.Cmd) {
	if m.sess.Snapshot().ComparisonLoading {
		return m, nil
	}
	op, err := m.sess.BeginCompare(m.ctx)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			m.hint = hintBusy
		case errors.Is(err, session.ErrNoAnalysis):
			m.hint = hintNoAnalysis
		}
		return m, nil
	}
	req := op.Request()
	m.loading.Start(fmt.Sprintf("Comparing %s by %s...", req.ValueCol, req.GroupCol))
	return m, compareCmd(m.sess, op)
}

// cycleColumn moves the group or value selection to the next column, or
// the previous one when back is set
func (m *Model) cycleColumn(group, back bool) {
	view := m.sess.Snapshot()
	if view.Analysis == nil {
		m.hint = hintNoAnalysis
		return
	}
	columns := view.Columns()
	if len(columns) == 0 {
		m.hint = hintNoColumns
		return
	}

	current := view.ValueColumn
	if group {
		current = view.GroupColumn
	}
	next := nextColumn(columns, current, back)

	var err error
	if group {
		err = m.sess.SelectGroupColumn(next)
	} else {
		err = m.sess.SelectValueColumn(next)
	}
	if err != nil {
		m.hint = err.Error()
	}
}

func nextColumn(columns []string, current string, back bool) string {
	idx := -1
	for i, c := range columns {
		if c == current {
			idx = i
			break
		}
	}
	n := len(columns)
	switch {
	case idx < 0 && back:
		return columns[n-1]
	case idx < 0:
		return columns[0]
	case back:
		return columns[(idx-1+n)%n]
	default:
		return columns[(idx+1)%n]
	}
}

func (m *Model) exportCharts() (tea.Model, tea.Cmd) {
	view := m.sess.Snapshot()
	if view.Analysis == nil {
		m.hint = hintNoAnalysis
		return m, nil
	}
	return m, exportChartsCmd(m.exportDir, view.Analysis, view.Comparison)
}

func (m *Model) handleDirScanned(msg dirScannedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.hint = fmt.Sprintf("Cannot list %s: %v", msg.dir, msg.err)
		return m, nil
	}
	m.dir = msg.dir
	if abs, err := filepath.Abs(msg.dir); err == nil {
		m.dir = abs
	}
	m.picker = components.NewFileList(m.dir, msg.entries, m.picker.Width, m.picker.Height)
	m.picker.SetFocused(true)
	m.searching = false
	return m, nil
}

func (m *Model) handleFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.hint = msg.err.Error()
		return m, nil
	}
	if err := m.sess.SelectFile(msg.file); err != nil {
		if errors.Is(err, session.ErrBusy) {
			m.hint = hintBusy
		} else {
			m.hint = err.Error()
		}
		return m, nil
	}
	if _, err := msg.file.Text(); err != nil {
		m.hint = fmt.Sprintf("Comparisons unavailable: %v", err)
	}
	m.mode = ModeDashboard
	m.scroll = 0
	return m, nil
}

func (m *Model) handleChartsExported(msg chartsExportedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.hint = fmt.Sprintf("Export failed: %v", msg.err)
		return m, nil
	}
	m.hint = fmt.Sprintf("%s Exported %d chart(s) to %s", emoji.GetEmoji("export"), len(msg.paths), msg.dir)
	return m, nil
}

// View renders the dashboard
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing TabSum..."
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelp()
	case ModePicker:
		return m.renderPicker()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) renderPicker() string {
	title := m.styles.Title.Render(emoji.GetEmoji("rocket") + " TabSum")
	instructions := m.styles.Muted.Render("↑↓ Navigate • Enter Open • / Filter • Esc Back • ? Help • q Quit")
	if m.searching {
		instructions = m.styles.Info.Render(fmt.Sprintf("Filter: %s▌", m.picker.Search())) +
			m.styles.Muted.Render("  Enter Keep • Esc Clear")
	}
	parts := []string{title, "", m.picker.Render(), "", instructions}
	if m.hint != "" {
		parts = append(parts, m.styles.Warning.Render(m.hint))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderDashboard() string {
	view := m.sess.Snapshot()

	parts := []string{m.renderHeader(view), ""}
	switch view.Screen() {
	case session.ScreenLoading:
		parts = append(parts, m.loading.Render())
	case session.ScreenError:
		parts = append(parts, m.styles.Box.Render(m.styles.Error.Render(emoji.GetEmoji("error")+" "+view.Error)))
	case session.ScreenAnalyzed:
		parts = append(parts, m.renderAnalyzed(view))
	default:
		parts = append(parts, m.renderEmpty(view))
	}

	parts = append(parts, "", m.renderControls(view))
	if m.hint != "" {
		parts = append(parts, m.styles.Warning.Render(m.hint))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderHeader(view session.View) string {
	title := m.styles.Title.Render(emoji.GetEmoji("rocket") + " TabSum")
	if view.FileName == "" {
		return title
	}
	file := m.styles.Muted.Render(fmt.Sprintf("%s %s (%s)", emoji.GetEmoji("file"), view.FileName, humanize.Bytes(uint64(view.FileSize))))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", file)
}

func (m *Model) renderEmpty(view session.View) string {
	if view.FileName == "" {
		return m.styles.Info.Render(emoji.GetEmoji("upload") + " Select a CSV or Excel file to begin analysis")
	}
	return m.styles.Info.Render(fmt.Sprintf("%s Ready to analyze %s. Press u to upload.", emoji.GetEmoji("upload"), view.FileName))
}

func (m *Model) renderAnalyzed(view session.View) string {
	var parts []string
	if view.Error != "" {
		parts = append(parts, m.styles.Banner.Render(emoji.GetEmoji("error")+" "+view.Error), "")
	}

	parts = append(parts, components.CreateAnalysisStats(view.Analysis).Render(), "")
	parts = append(parts, m.renderSelection(view))
	if view.ComparisonLoading {
		parts = append(parts, m.loading.Render())
	}
	parts = append(parts, "", m.renderReport(view))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderSelection shows the chosen columns and where the comparison stands
func (m *Model) renderSelection(view session.View) string {
	show := func(name string) string {
		if name == "" {
			return "(none)"
		}
		return name
	}

	box := components.NewSummaryBox(emoji.GetEmoji("target")+" Comparison", min(max(40, m.width-4), 80))
	box.AddKeyValue("Group by", show(view.GroupColumn))
	box.AddKeyValue("Value", show(view.ValueColumn))

	switch view.ComparisonPhase {
	case session.Comparing:
		box.AddKeyValue("Status", "running")
	case session.ComparisonShown:
		if view.Comparison != nil {
			box.AddKeyValue("Status", formatter.ComparisonTitle(view.Comparison))
		}
	case session.ComparisonFailed:
		box.AddKeyValue("Status", "failed")
	default:
		if view.CompareEnabled() {
			box.AddLine("Press c to compare.")
		} else {
			box.AddLine("Pick columns with g and v.")
		}
	}
	return box.Render()
}

// reportLines renders the terminal report of the current analysis
func (m *Model) reportLines(view session.View) ([]string, error) {
	report := &formatter.Report{
		File:       view.FileName,
		Analysis:   view.Analysis,
		Comparison: view.Comparison,
	}
	out, err := formatter.NewTerminal(m.color).Format(report)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(string(out), "\n"), "\n"), nil
}

// clampScroll keeps the report offset inside the rendered report
func (m *Model) clampScroll() {
	view := m.sess.Snapshot()
	if view.Analysis == nil {
		m.scroll = 0
		return
	}
	lines, err := m.reportLines(view)
	if err != nil {
		m.scroll = 0
		return
	}
	m.scroll = max(0, min(m.scroll, len(lines)-m.bodyHeight()))
}

// renderReport shows the scrolled window of the report
func (m *Model) renderReport(view session.View) string {
	lines, err := m.reportLines(view)
	if err != nil {
		return m.styles.Error.Render(err.Error())
	}

	height := m.bodyHeight()
	start := max(0, min(m.scroll, len(lines)-height))
	end := min(len(lines), start+height)
	window := strings.Join(lines[start:end], "\n")
	if len(lines) > height {
		window += "\n" + m.styles.Muted.Render(fmt.Sprintf("(lines %d-%d of %d, ↑↓ to scroll)", start+1, end, len(lines)))
	}
	return window
}

// bodyHeight is the number of report lines that fit under the cards
func (m *Model) bodyHeight() int {
	return max(5, m.height-16)
}

type control struct {
	key     string
	label   string
	enabled bool
}

func (m *Model) controls(view session.View) []control {
	analyzed := view.Analysis != nil
	return []control{
		{"f", "file", view.FileInputEnabled()},
		{"u", "upload", view.UploadEnabled()},
		{"g/v", "columns", analyzed},
		{"c", "compare", analyzed && view.CompareEnabled()},
		{"x", "cancel", view.Busy()},
		{"e", "export", analyzed},
		{"?", "help", true},
		{"q", "quit", true},
	}
}

func (m *Model) renderControls(view session.View) string {
	items := make([]string, 0, 8)
	for _, c := range m.controls(view) {
		style := m.styles.KeyDisabled
		if c.enabled {
			style = m.styles.KeyEnabled
		}
		items = append(items, style.Render(c.key)+" "+m.styles.Muted.Render(c.label))
	}
	return strings.Join(items, "  ")
}

func (m *Model) renderHelp() string {
	title := m.styles.Header.Render(emoji.GetEmoji("help") + " TabSum Help")

	sections := []struct {
		heading string
		lines   []string
	}{
		{emoji.GetEmoji("file") + " Files", []string{
			"f          Choose a CSV or Excel file",
			"/          Filter files in the picker",
			"u          Upload the file for analysis",
			"e          Export chart images to " + m.exportDir,
		}},
		{emoji.GetEmoji("compare") + " Comparison", []string{
			"g / G      Next / previous group column",
			"v / V      Next / previous value column",
			"c          Compare the selected columns",
			"x          Cancel the running request",
		}},
		{emoji.GetEmoji("target") + " Navigation", []string{
			"↑↓ or j/k  Scroll the report or move in the picker",
			"Enter      Open a directory or file in the picker",
			"Esc        Go back",
		}},
		{emoji.GetEmoji("door") + " Exit", []string{
			"q          Quit, cancelling any request",
		}},
	}

	lines := []string{title, ""}
	for _, section := range sections {
		lines = append(lines, m.styles.Header.Render(section.heading))
		for _, line := range section.lines {
			lines = append(lines, "  "+m.styles.Muted.Render(line))
		}
		lines = append(lines, "")
	}
	lines = append(lines, m.styles.Warning.Render("Press Esc or ? to go back"))

	return m.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Run starts the dashboard on the terminal and blocks until it exits
func Run(sess *session.Session, opts Options) error {
	p := tea.NewProgram(NewModel(sess, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
