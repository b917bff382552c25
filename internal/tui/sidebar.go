package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		if m.fileCursor > 0 {
			m.fileCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.fileCursor < len(m.files)-1 {
			m.fileCursor++
		}
	case key.Matches(msg, keys.Open):
		if m.fileCursor < len(m.files) {
			f := m.files[m.fileCursor]
			if f.Path == m.snap.File.Path {
				m.pane = paneDocument
				return nil
			}
			return m.openFile(f)
		}
	case key.Matches(msg, keys.Delete):
		if m.fileCursor < len(m.files) {
			m.deleteTarget = m.files[m.fileCursor]
			m.confirmFocus = confirmFocusCancel
			m.overlay = overlayDelete
		}
	case key.Matches(msg, keys.Refresh):
		return m.loadFiles()
	case key.Matches(msg, keys.SwitchPane):
		if m.fileOpen() {
			m.pane = paneDocument
		}
	}
	return nil
}

func (m *Model) sidebarView(width, height int) string {
	lines := []string{
		styleTitle().Render("Muse"),
		styleMuted().Render(truncate(shortDir(m.ws.CurrentDirectory()), width-2)),
		"",
	}

	switch {
	case m.filesErr != nil:
		lines = append(lines, styleError().Render("Could not list files"))
	case len(m.files) == 0:
		lines = append(lines, styleMuted().Render("No files yet."), styleMuted().Render("ctrl+n to create one"))
	}

	// Keep the cursor in view.
	room := max(height-len(lines), 1)
	start := 0
	if m.fileCursor >= room {
		start = m.fileCursor - room + 1
	}
	for i := start; i < len(m.files) && i < start+room; i++ {
		f := m.files[i]
		name := truncate(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)), width-4)
		marker := "  "
		if f.Path == m.snap.File.Path {
			marker = "• "
		}
		row := lipgloss.NewStyle().Width(width - 1).Render(marker + name)
		if i == m.fileCursor && m.pane == paneSidebar {
			row = styleSelected().Bold(true).Width(width - 1).Render(marker + name)
		} else if i == m.fileCursor {
			row = styleSelected().Width(width - 1).Render(marker + name)
		}
		lines = append(lines, row)
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(colorBorder).
		Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	return ansi.Truncate(s, n, "…")
}

func shortDir(dir string) string {
	if dir == "" {
		return ""
	}
	return fmt.Sprintf("%s/", filepath.Base(dir))
}
