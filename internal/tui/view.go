package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/render"
)

const gutterWidth = 2

func (m *Model) sidebarWidth() int {
	return min(max(m.width/4, 18), 32)
}

// docWidth is the document column including the gutter.
func (m *Model) docWidth() int {
	w := m.width - m.sidebarWidth() - 3
	if m.wrapWidth > 0 && w > m.wrapWidth {
		w = m.wrapWidth
	}
	return max(w, 20)
}

func (m *Model) contentWidth() int { return m.docWidth() - gutterWidth }

// bodyHeight leaves room for the document title, the status line and help.
func (m *Model) bodyHeight() int {
	return max(m.height-4, 3)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.overlay != overlayNone {
		return m.overlayView()
	}
	height := max(m.height-2, 3)
	sidebar := m.sidebarView(m.sidebarWidth(), height)
	doc := lipgloss.NewStyle().PaddingLeft(1).Render(m.documentView(height))
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, doc)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView(), m.helpView())
}

func (m *Model) documentView(height int) string {
	if !m.fileOpen() {
		msg := []string{
			"",
			styleMuted().Render("Select a file from the sidebar,"),
			styleMuted().Render("or press ctrl+n to create one."),
		}
		return lipgloss.NewStyle().Height(height).Render(strings.Join(msg, "\n"))
	}

	title := styleTitle().Render(strings.TrimSuffix(m.snap.File.Name, ".md"))
	bodyH := max(height-2, 1)

	var lines []string
	var selStart, selEnd int
	for i, b := range m.blocks {
		view := m.blockView(b, i)
		if i == m.selected {
			selStart = len(lines)
		}
		lines = append(lines, strings.Split(view, "\n")...)
		if i == m.selected {
			selEnd = len(lines)
		}
	}

	offset := 0
	if selEnd > bodyH {
		offset = selEnd - bodyH
	}
	if selStart < offset {
		offset = selStart
	}
	end := min(offset+bodyH, len(lines))
	visible := lines[offset:end]

	out := title + "\n\n" + strings.Join(visible, "\n")
	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(out)
}

// blockView renders one block with its gutter.
func (m *Model) blockView(b block.Block, i int) string {
	active := m.pane == paneDocument && i == m.selected
	var body string
	switch {
	case b.ID == m.editing:
		body = m.editorView()
	default:
		body = m.renderBlock(b)
	}

	gutter := styleGutter(active).Render("▌")
	if !active {
		gutter = " "
	}
	lines := strings.Split(body, "\n")
	for j, l := range lines {
		lines[j] = gutter + " " + l
	}
	if b.ID == m.editing && m.palette.open {
		lines = append(lines, indent(m.palette.view(m.contentWidth()), gutterWidth))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) editorView() string {
	if m.editType != block.TypeToggle {
		return m.ta.View()
	}
	head := styleMuted().Render("▼ ") + m.summary.View()
	if !m.inChild && m.ta.Value() == "" {
		return head + "\n" + styleMuted().Render("  tab to add content")
	}
	return head + "\n" + indent(m.ta.View(), 2)
}

func (m *Model) renderBlock(b block.Block) string {
	width := m.contentWidth()
	if b.Type != block.TypeToggle {
		return m.markdown(block.Source(b), width)
	}

	summary, child := block.SplitToggle(b.Content)
	arrow := "▼"
	if m.collapsed[b.ID] {
		arrow = "▶"
	}
	if strings.TrimSpace(summary) == "" {
		summary = styleMuted().Render("Toggle")
	} else {
		summary = lipgloss.NewStyle().Bold(true).Render(summary)
	}
	head := styleMuted().Render(arrow+" ") + summary
	if m.collapsed[b.ID] {
		return head
	}
	if child == "" {
		return head + "\n" + styleMuted().Render("  Empty toggle")
	}
	return head + "\n" + indent(m.markdown(child, width-2), 2)
}

func (m *Model) markdown(src string, width int) string {
	k := renderKey{src: src, style: m.style, width: width}
	if out, ok := m.cache[k]; ok {
		return out
	}
	out, err := m.renderer.Render(src, m.style, width)
	if err != nil {
		m.log.Warn("tui: render block", slog.String("error", err.Error()))
		out = styleError().Render(render.ErrorPlaceholder)
	}
	if len(m.cache) > 512 {
		m.cache = map[renderKey]string{}
	}
	m.cache[k] = out
	return out
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusView() string {
	var left []string
	if m.fileOpen() {
		left = append(left, m.snap.File.Name)
		label := m.snap.Status.Label()
		switch m.snap.Status {
		case editor.StatusError:
			left = append(left, styleError().Render(label))
		case editor.StatusSaved:
			left = append(left, lipgloss.NewStyle().Foreground(colorSuccess).Render(label))
		default:
			if label != "" {
				left = append(left, styleMuted().Render(label))
			}
		}
	} else {
		left = append(left, styleMuted().Render("No file open"))
	}

	themeLabel := "☀ light"
	if m.style == render.StyleDark {
		themeLabel = "☾ dark"
	}
	if m.theme != nil && m.theme.FollowsOS() {
		themeLabel += " (system)"
	}

	right := styleMuted().Render(themeLabel)
	if m.notice != "" {
		n := styleMuted().Render(m.notice)
		if m.noticeErr {
			n = styleError().Render(m.notice)
		}
		right = n + "  " + right
	}

	l := strings.Join(left, styleMuted().Render(" · "))
	gap := max(m.width-lipgloss.Width(l)-lipgloss.Width(right), 1)
	return l + strings.Repeat(" ", gap) + right
}

func (m *Model) helpView() string {
	var bindings []key.Binding
	switch {
	case m.editing != 0:
		bindings = keys.editHelp()
	case m.pane == paneSidebar:
		bindings = keys.sidebarHelp()
	default:
		bindings = keys.documentHelp()
	}
	return m.help.ShortHelpView(bindings)
}
