package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/muse/internal/apperr"
	"github.com/starford/muse/internal/models"
	"github.com/starford/muse/internal/theme"
)

var settingsThemes = []struct {
	label  string
	intent theme.Intent
}{
	{"Light", theme.IntentLight},
	{"Dark", theme.IntentDark},
	{"System", theme.IntentSystem},
}

// settingsFolder is the settings row after the theme choices.
var settingsFolder = len(settingsThemes)

func (m *Model) openInput(o overlay, value string) tea.Cmd {
	m.overlay = o
	m.dialogErr = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	switch o {
	case overlayNewFile:
		m.input.Placeholder = "Note name"
	case overlayFolder:
		m.input.Placeholder = "Directory path"
	}
	return m.input.Focus()
}

func (m *Model) closeOverlay() {
	m.overlay = overlayNone
	m.dialogErr = ""
	m.input.Blur()
}

func (m *Model) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	switch m.overlay {
	case overlayNewFile:
		return m.handleInputKey(msg, m.createFile)
	case overlayFolder:
		return m.handleInputKey(msg, m.changeFolder)
	case overlayDelete:
		return m.handleDeleteKey(msg)
	case overlaySettings:
		return m.handleSettingsKey(msg)
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg, submit func(string) tea.Cmd) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeOverlay()
		return nil
	case tea.KeyEnter:
		return submit(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// createFile keeps the dialog open on failure so the user can retry.
func (m *Model) createFile(value string) tea.Cmd {
	name := strings.TrimSpace(value)
	if name == "" {
		m.dialogErr = "Please enter a name"
		return nil
	}
	path, err := m.ws.CreateFile(name, "")
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		m.dialogErr = "A file with that name already exists"
		return nil
	case errors.Is(err, apperr.ErrInvalidName):
		m.dialogErr = "That name cannot be used"
		return nil
	case err != nil:
		m.log.Warn("tui: create file", slog.String("name", name), slog.String("error", err.Error()))
		m.dialogErr = "Could not create the file"
		return nil
	}
	m.closeOverlay()
	f := models.FileEntry{Name: filepath.Base(path), Path: path}
	m.setNotice("Created "+f.Name, false)
	return tea.Batch(m.loadFiles(), m.openFile(f))
}

func (m *Model) changeFolder(value string) tea.Cmd {
	dir := strings.TrimSpace(value)
	if dir == "" {
		m.dialogErr = "Please enter a directory"
		return nil
	}
	if err := m.ws.SetCurrentDirectory(dir); err != nil {
		m.dialogErr = "Not a directory: " + dir
		return nil
	}
	m.closeOverlay()
	m.surface.Close()
	m.sync()
	m.pane = paneSidebar
	m.fileCursor = 0
	cur := m.ws.CurrentDirectory()
	if m.onRetarget != nil {
		m.onRetarget(cur)
	}
	m.setNotice("Opened "+cur, false)
	return m.loadFiles()
}

func (m *Model) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "n":
		m.closeOverlay()
		return nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return nil
	case "y":
		return m.deleteFile()
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			return m.deleteFile()
		}
		m.closeOverlay()
	}
	return nil
}

func (m *Model) deleteFile() tea.Cmd {
	target := m.deleteTarget
	m.closeOverlay()
	if target.Path == m.snap.File.Path {
		m.surface.Close()
		m.sync()
	}
	if err := m.ws.DeleteFile(target.Path); err != nil {
		m.log.Warn("tui: delete file", slog.String("path", target.Path), slog.String("error", err.Error()))
		m.setNotice("Could not delete "+target.Name, true)
		return m.loadFiles()
	}
	m.setNotice("Deleted "+target.Name, false)
	return m.loadFiles()
}

func (m *Model) intentIndex() int {
	if m.theme == nil {
		return 0
	}
	in := m.theme.Intent()
	for i, t := range settingsThemes {
		if t.intent == in {
			return i
		}
	}
	return 0
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+o", "q":
		m.closeOverlay()
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
	case "down", "j":
		if m.settingsCursor < settingsFolder {
			m.settingsCursor++
		}
	case "enter", " ", "space":
		if m.settingsCursor == settingsFolder {
			return m.openInput(overlayFolder, m.ws.CurrentDirectory())
		}
		if m.theme == nil {
			return nil
		}
		err := m.theme.Set(string(settingsThemes[m.settingsCursor].intent))
		m.setTheme(m.theme.Resolved())
		if err != nil {
			m.log.Warn("tui: save theme", slog.String("error", err.Error()))
			m.setNotice("Theme applied but not saved", true)
		}
	}
	return nil
}

func (m *Model) overlayView() string {
	switch m.overlay {
	case overlayNewFile:
		return m.inputView("New file", "Name of the new note. \".md\" is added for you.")
	case overlayFolder:
		return m.inputView("Open folder", "Markdown files in this directory are listed in the sidebar.")
	case overlayDelete:
		body := fmt.Sprintf("Delete %q? This cannot be undone.", m.deleteTarget.Name)
		return m.confirmView("Delete file", body, "Delete", "Cancel")
	case overlaySettings:
		return m.settingsView()
	}
	return ""
}

func (m *Model) modalWidth() int {
	return max(min(64, m.width-4), 20)
}

func (m *Model) modalBox(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Foreground(colorSurfaceFg).
		Padding(1, 2).
		Width(m.modalWidth()).
		Render(styleTitle().Render(title) + "\n\n" + content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) inputView(title, hint string) string {
	lines := []string{styleMuted().Render(hint), "", m.input.View()}
	if m.dialogErr != "" {
		lines = append(lines, "", styleError().Render(m.dialogErr))
	}
	lines = append(lines, "", styleMuted().Render("enter: confirm   esc: cancel"))
	return m.modalBox(title, strings.Join(lines, "\n"))
}

func (m *Model) confirmView(title, body, confirmLabel, cancelLabel string) string {
	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)
	active := btn.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	confirm, cancel := btn.Render(confirmLabel), btn.Render(cancelLabel)
	if m.confirmFocus == confirmFocusConfirm {
		confirm = active.Render(confirmLabel)
	} else {
		cancel = active.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)
	help := styleMuted().Render("tab: focus   enter: select   y/n   esc: cancel")
	return m.modalBox(title, strings.Join([]string{body, "", controls, "", help}, "\n"))
}

func (m *Model) settingsView() string {
	current := m.intentIndex()
	var lines []string
	lines = append(lines, styleMuted().Bold(true).Render("APPEARANCE"))
	for i, t := range settingsThemes {
		radio := "( )"
		if i == current {
			radio = "(•)"
		}
		lines = append(lines, m.settingsRow(i, radio+" "+t.label))
	}
	lines = append(lines, "", styleMuted().Bold(true).Render("WORKSPACE"))
	lines = append(lines, styleMuted().Render(truncate(m.ws.CurrentDirectory(), m.modalWidth()-6)))
	lines = append(lines, m.settingsRow(settingsFolder, "Change folder…"))
	lines = append(lines, "", styleMuted().Bold(true).Render("ABOUT"))
	lines = append(lines, "Muse v"+m.version)
	lines = append(lines, styleMuted().Render("A block-based markdown editor for the terminal."))
	lines = append(lines, "", styleMuted().Render("↑/↓: move   enter: select   esc: close"))
	return m.modalBox("Settings", strings.Join(lines, "\n"))
}

func (m *Model) settingsRow(i int, label string) string {
	if i == m.settingsCursor {
		return styleSelected().Render("› " + label)
	}
	return "  " + label
}
