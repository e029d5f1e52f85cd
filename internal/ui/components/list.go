package components

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/yildizm/TabSum/internal/emoji"
	"github.com/yildizm/TabSum/internal/source"
)

// ListItem represents an item in a list
type ListItem struct {
	ID          string
	Title       string
	Description string
	Status      string
	Icon        string
	Data        interface{}
}

// List represents a navigable list component
type List struct {
	Title         string
	Items         []ListItem
	Selected      int
	Focused       bool
	Width         int
	Height        int
	ShowNumbers   bool
	ShowIcons     bool
	searchQuery   string
	filteredItems []int // indices into Items
}

// NewList creates a new list component
func NewList(title string, width, height int) *List {
	return &List{
		Title:     title,
		Width:     width,
		Height:    height,
		ShowIcons: true,
	}
}

// SetItems sets all items in the list
func (l *List) SetItems(items []ListItem) {
	l.Items = items
	l.Selected = 0
	l.updateFilter()
}

// SetFocused sets the focus state of the list
func (l *List) SetFocused(focused bool) {
	l.Focused = focused
}

// Len returns the number of visible items
func (l *List) Len() int {
	return len(l.filteredItems)
}

// GetSelectedItem returns the currently selected item
func (l *List) GetSelectedItem() *ListItem {
	if len(l.filteredItems) == 0 || l.Selected >= len(l.filteredItems) {
		return nil
	}
	index := l.filteredItems[l.Selected]
	if index >= len(l.Items) {
		return nil
	}
	return &l.Items[index]
}

// MoveUp moves selection up
func (l *List) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves selection down
func (l *List) MoveDown() {
	if l.Selected < len(l.filteredItems)-1 {
		l.Selected++
	}
}

// SetSearch sets the search query and filters items
func (l *List) SetSearch(query string) {
	l.searchQuery = query
	l.Selected = 0
	l.updateFilter()
}

// Search returns the active search query
func (l *List) Search() string {
	return l.searchQuery
}

func (l *List) updateFilter() {
	l.filteredItems = l.filteredItems[:0]
	for i := range l.Items {
		if l.searchQuery == "" || l.matchesSearch(&l.Items[i], l.searchQuery) {
			l.filteredItems = append(l.filteredItems, i)
		}
	}
	if l.Selected >= len(l.filteredItems) {
		l.Selected = max(0, len(l.filteredItems)-1)
	}
}

// matchesSearch matches on the title only; IDs of file items are full
// paths, which every entry of a directory shares
func (l *List) matchesSearch(item *ListItem, query string) bool {
	return strings.Contains(strings.ToLower(item.Title), strings.ToLower(query))
}

// Render renders the list
func (l *List) Render() string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	headerStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	normalStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	content := []string{headerStyle.Render(l.Title)}
	if l.searchQuery != "" {
		content = append(content, normalStyle.Render(fmt.Sprintf("Search: %s (%d results)", l.searchQuery, len(l.filteredItems))))
	}
	content = append(content, "")

	if len(l.filteredItems) == 0 {
		content = append(content, normalStyle.Render("No CSV or Excel files here"))
	}

	maxVisible := max(1, l.Height-4)
	startIndex := 0
	if l.Selected >= maxVisible {
		startIndex = l.Selected - maxVisible + 1
	}
	endIndex := min(startIndex+maxVisible, len(l.filteredItems))

	for i := startIndex; i < endIndex; i++ {
		item := l.Items[l.filteredItems[i]]
		content = append(content, l.renderItem(&item, i+1, i == l.Selected))
	}

	if len(l.filteredItems) > maxVisible {
		scrollInfo := fmt.Sprintf("(%d-%d of %d)", startIndex+1, endIndex, len(l.filteredItems))
		content = append(content, "", normalStyle.Render(scrollInfo))
	}

	border := secondaryColor
	if l.Focused {
		border = primaryColor
	}
	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return panelStyle.Width(l.Width).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (l *List) renderItem(item *ListItem, number int, selected bool) string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	selectedColor := lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}
	successColor := lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}

	var parts []string
	if l.ShowNumbers {
		parts = append(parts, fmt.Sprintf("%2d.", number))
	}
	if l.ShowIcons && item.Icon != "" {
		parts = append(parts, item.Icon)
	}
	title := item.Title
	if item.Description != "" {
		title += "  " + item.Description
	}
	parts = append(parts, title)

	prefix := "  "
	style := lipgloss.NewStyle().Foreground(secondaryColor)
	switch {
	case selected:
		prefix = "▶ "
		style = lipgloss.NewStyle().Background(selectedColor).Foreground(primaryColor).Bold(true)
	case item.Status == "success":
		style = style.Foreground(successColor)
	case item.Status == "info":
		style = style.Foreground(primaryColor)
	}

	return style.Render(prefix + strings.Join(parts, " "))
}

// FileEntry is one entry of a directory listing
type FileEntry struct {
	Name  string
	Path  string
	Size  int64
	IsDir bool
}

// ScanDir lists the subdirectories and the CSV/XLSX files of dir.
// Directories come first; both groups are sorted by name. A parent entry
// is added unless dir is the filesystem root.
func ScanDir(dir string) ([]FileEntry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	var dirs, files []FileEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(abs, e.Name())
		if e.IsDir() {
			dirs = append(dirs, FileEntry{Name: e.Name(), Path: path, IsDir: true})
			continue
		}
		if !source.Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileEntry{Name: e.Name(), Path: path, Size: info.Size()})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	result := make([]FileEntry, 0, len(dirs)+len(files)+1)
	if parent := filepath.Dir(abs); parent != abs {
		result = append(result, FileEntry{Name: "..", Path: parent, IsDir: true})
	}
	result = append(result, dirs...)
	return append(result, files...), nil
}

// NewFileList creates a file picker list from a directory listing
func NewFileList(dir string, entries []FileEntry, width, height int) *List {
	list := NewList(emoji.GetEmoji("file")+" "+dir, width, height)

	items := make([]ListItem, 0, len(entries))
	for _, entry := range entries {
		item := ListItem{
			ID:    entry.Path,
			Title: entry.Name,
			Data:  entry,
		}
		if entry.IsDir {
			item.Title += "/"
			item.Icon = emoji.GetEmoji("folder")
			item.Status = "info"
		} else {
			item.Icon = emoji.GetEmoji("file")
			item.Description = humanize.Bytes(uint64(entry.Size))
			item.Status = "success"
		}
		items = append(items, item)
	}
	list.SetItems(items)
	return list
}
