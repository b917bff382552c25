package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/muse/internal/block"
)

// startEdit focuses id and loads it into the editing widgets. cursor is a
// rune offset; a negative cursor means the end of the content.
func (m *Model) startEdit(id block.ID, cursor int) tea.Cmd {
	b, ok := block.Find(m.blocks, id)
	if !ok {
		return nil
	}
	m.surface.Focus(id)
	m.editing = id
	m.editType = b.Type
	m.inChild = false
	m.palette.close()
	m.sync()
	m.selected = block.Index(m.blocks, id)

	if b.Type == block.TypeToggle {
		summary, child := block.SplitToggle(b.Content)
		delete(m.collapsed, id)
		m.ta.SetValue(child)
		m.ta.Blur()
		m.summary.SetValue(summary)
		if cursor < 0 || cursor > utf8.RuneCountInString(summary) {
			m.summary.CursorEnd()
		} else {
			m.summary.SetCursor(cursor)
		}
		m.resizeEditor()
		return m.summary.Focus()
	}

	m.summary.Blur()
	m.ta.SetValue(b.Content)
	m.resizeEditor()
	placeCursor(&m.ta, cursor)
	return m.ta.Focus()
}

// stopEdit commits the widgets, leaves edit mode and prunes empty blocks.
func (m *Model) stopEdit() {
	if m.editing == 0 {
		return
	}
	m.commitEdit()
	idx := block.Index(m.blocks, m.editing)
	m.editing = 0
	m.inChild = false
	m.ta.Blur()
	m.summary.Blur()
	m.palette.close()
	m.surface.Blur()
	m.sync()
	if idx >= 0 {
		m.selected = min(idx, len(m.blocks)-1)
	}
}

// moveEdit leaves the current block and edits target, if it survived the
// prune.
func (m *Model) moveEdit(target block.ID, cursor int) tea.Cmd {
	m.stopEdit()
	if block.Index(m.blocks, target) < 0 {
		return nil
	}
	return m.startEdit(target, cursor)
}

func (m *Model) editorContent() string {
	if m.editType == block.TypeToggle {
		return block.CombineToggle(m.summary.Value(), m.ta.Value())
	}
	return m.ta.Value()
}

func (m *Model) commitEdit() {
	if m.editing == 0 {
		return
	}
	m.surface.Edit(m.editing, m.editorContent())
	m.sync()
}

func (m *Model) neighbour(delta int) (block.ID, bool) {
	i := block.Index(m.blocks, m.editing) + delta
	if i < 0 || i >= len(m.blocks) {
		return 0, false
	}
	return m.blocks[i].ID, true
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	if m.palette.open {
		picked, cmd := m.palette.update(msg)
		if picked == nil {
			return cmd
		}
		id := m.editing
		m.commitEdit()
		m.surface.Convert(id, picked.Type)
		m.sync()
		return m.startEdit(id, -1)
	}

	if msg.String() == "/" && m.editorContent() == "" {
		return m.palette.show()
	}

	if m.editType == block.TypeToggle {
		if m.inChild {
			return m.handleChildKey(msg)
		}
		return m.handleSummaryKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Back):
		m.stopEdit()
		return nil

	case key.Matches(msg, keys.Newline):
		m.ta.InsertString("\n")
		return m.afterInput(nil)

	case msg.Type == tea.KeyEnter && m.editType.SplitsOnEnter():
		id := m.editing
		m.commitEdit()
		next, ok := m.surface.Enter(id, cursorOffset(m.ta))
		if !ok {
			return nil
		}
		m.sync()
		return m.startEdit(next, 0)

	case msg.Type == tea.KeyBackspace && cursorOffset(m.ta) == 0:
		m.commitEdit()
		focus, cursor, handled := m.surface.Backspace(m.editing, 0)
		if !handled {
			return nil
		}
		m.sync()
		return m.startEdit(focus, cursor)

	case msg.Type == tea.KeyUp && onFirstRow(m.ta):
		if prev, ok := m.neighbour(-1); ok {
			return m.moveEdit(prev, -1)
		}
		return nil

	case msg.Type == tea.KeyDown && onLastRow(m.ta):
		if next, ok := m.neighbour(1); ok {
			return m.moveEdit(next, 0)
		}
		return nil
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m.afterInput(cmd)
}

func (m *Model) handleSummaryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		m.stopEdit()
		return nil

	case msg.Type == tea.KeyTab, msg.Type == tea.KeyEnter, msg.Type == tea.KeyDown:
		m.inChild = true
		m.summary.Blur()
		m.ta.CursorEnd()
		return m.ta.Focus()

	case msg.Type == tea.KeyUp:
		if prev, ok := m.neighbour(-1); ok {
			return m.moveEdit(prev, -1)
		}
		return nil

	case msg.Type == tea.KeyBackspace && m.summary.Position() == 0:
		m.commitEdit()
		focus, cursor, handled := m.surface.Backspace(m.editing, 0)
		if !handled {
			return nil
		}
		m.sync()
		return m.startEdit(focus, cursor)
	}

	var cmd tea.Cmd
	m.summary, cmd = m.summary.Update(msg)
	return m.afterInput(cmd)
}

func (m *Model) handleChildKey(msg tea.KeyMsg) tea.Cmd {
	back := key.Matches(msg, keys.Back) || msg.Type == tea.KeyShiftTab ||
		(msg.Type == tea.KeyUp && onFirstRow(m.ta)) ||
		(msg.Type == tea.KeyBackspace && m.ta.Value() == "")
	if back {
		m.inChild = false
		m.ta.Blur()
		return m.summary.Focus()
	}
	if msg.Type == tea.KeyDown && onLastRow(m.ta) {
		if next, ok := m.neighbour(1); ok {
			return m.moveEdit(next, 0)
		}
		return nil
	}

	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m.afterInput(cmd)
}

func (m *Model) afterInput(cmd tea.Cmd) tea.Cmd {
	m.commitEdit()
	m.resizeEditor()
	return cmd
}

// updateEditor forwards non-key messages such as cursor blinks.
func (m *Model) updateEditor(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.editType == block.TypeToggle && !m.inChild {
		m.summary, cmd = m.summary.Update(msg)
	} else {
		m.ta, cmd = m.ta.Update(msg)
	}
	return cmd
}

func (m *Model) resizeEditor() {
	w := m.contentWidth()
	if m.editType == block.TypeToggle {
		w -= 2
	}
	m.ta.SetWidth(w)
	m.summary.Width = max(w-2, 1)
	rows := visualRows(m.ta.Value(), w)
	m.ta.SetHeight(min(rows, max(m.bodyHeight()-2, 1)))
}

// visualRows estimates how many rows s takes when soft-wrapped at width.
func visualRows(s string, width int) int {
	if width <= 0 {
		return 1
	}
	n := 0
	for _, line := range strings.Split(s, "\n") {
		n += lipgloss.Width(line)/width + 1
	}
	return max(n, 1)
}

// cursorOffset is the cursor position as a rune offset into Value.
func cursorOffset(ta textarea.Model) int {
	lines := strings.Split(ta.Value(), "\n")
	row := ta.Line()
	off := 0
	for i := 0; i < row && i < len(lines); i++ {
		off += utf8.RuneCountInString(lines[i]) + 1
	}
	li := ta.LineInfo()
	return off + li.StartColumn + li.ColumnOffset
}

// placeCursor moves the cursor to a rune offset; negative means the end.
func placeCursor(ta *textarea.Model, offset int) {
	value := ta.Value()
	if offset < 0 || offset >= utf8.RuneCountInString(value) {
		for i := 0; ta.Line() < ta.LineCount()-1 && i < 10000; i++ {
			ta.CursorDown()
		}
		ta.CursorEnd()
		return
	}
	line, col := 0, offset
	for _, l := range strings.Split(value, "\n") {
		n := utf8.RuneCountInString(l)
		if col <= n {
			break
		}
		col -= n + 1
		line++
	}
	for i := 0; ta.Line() > line && i < 10000; i++ {
		ta.CursorUp()
	}
	for i := 0; ta.Line() < line && i < 10000; i++ {
		ta.CursorDown()
	}
	ta.SetCursor(col)
}

func onFirstRow(ta textarea.Model) bool {
	return ta.Line() == 0 && ta.LineInfo().RowOffset == 0
}

func onLastRow(ta textarea.Model) bool {
	li := ta.LineInfo()
	return ta.Line() == ta.LineCount()-1 && li.RowOffset >= li.Height-1
}
