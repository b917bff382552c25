// Package tui is the terminal front end: a file sidebar next to the block
// editor of the open document.
package tui

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/models"
	"github.com/starford/muse/internal/render"
	"github.com/starford/muse/internal/theme"
	"github.com/starford/muse/internal/watch"
)

// Workspace is the file surface the sidebar and dialogs use.
type Workspace interface {
	ListFiles() ([]models.FileEntry, error)
	ReadFile(path string) (string, error)
	CreateFile(name, content string) (string, error)
	DeleteFile(path string) error
	CurrentDirectory() string
	SetCurrentDirectory(dir string) error
}

// Options wires the model to the rest of the application.
type Options struct {
	Workspace Workspace
	Surface   *editor.Surface
	Theme     *theme.Store
	Renderer  *render.Terminal
	Logger    *slog.Logger
	Version   string
	// WrapWidth caps the document column. Zero fills the window.
	WrapWidth int
	// OnRetarget runs after the workspace moved to another directory.
	OnRetarget func(dir string)
}

type pane int

const (
	paneSidebar pane = iota
	paneDocument
)

type overlay int

const (
	overlayNone overlay = iota
	overlayNewFile
	overlayDelete
	overlaySettings
	overlayFolder
)

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

// Messages.
type (
	filesMsg struct {
		files []models.FileEntry
		err   error
	}
	openedMsg struct {
		file models.FileEntry
		err  error
	}
	diskMsg struct {
		path string
		text string
		err  error
	}
	surfaceMsg   struct{}
	themeMsg     struct{}
	fileEventMsg watch.Event
)

type renderKey struct {
	src   string
	style string
	width int
}

// Model is the root bubbletea model.
type Model struct {
	ws         Workspace
	surface    *editor.Surface
	theme      *theme.Store
	renderer   *render.Terminal
	log        *slog.Logger
	version    string
	wrapWidth  int
	onRetarget func(string)
	ctx        context.Context

	width  int
	height int

	pane    pane
	overlay overlay
	style   string

	files      []models.FileEntry
	fileCursor int
	filesErr   error

	snap      editor.Snapshot
	blocks    []block.Block
	selected  int
	collapsed map[block.ID]bool

	// Edit mode. editing is zero while navigating.
	editing  block.ID
	editType block.Type
	inChild  bool
	ta       textarea.Model
	summary  textinput.Model
	palette  palette

	input          textinput.Model
	dialogErr      string
	deleteTarget   models.FileEntry
	confirmFocus   confirmFocus
	settingsCursor int

	notice    string
	noticeErr bool
	help      help.Model
	cache     map[renderKey]string
}

// New builds the model. ctx bounds file loads started from the UI.
func New(ctx context.Context, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewTerminal()
	}
	m := &Model{
		ws:         opts.Workspace,
		surface:    opts.Surface,
		theme:      opts.Theme,
		renderer:   renderer,
		log:        log,
		version:    opts.Version,
		wrapWidth:  opts.WrapWidth,
		onRetarget: opts.OnRetarget,
		ctx:        ctx,
		width:      100,
		height:     30,
		collapsed:  map[block.ID]bool{},
		cache:      map[renderKey]string{},
		help:       help.New(),
	}
	if m.version == "" {
		m.version = "dev"
	}

	m.ta = textarea.New()
	m.ta.ShowLineNumbers = false
	m.ta.Prompt = ""
	m.ta.CharLimit = 0
	m.ta.MaxHeight = 0
	m.ta.Placeholder = "Type '/' for commands"
	m.ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	m.ta.FocusedStyle.Base = lipgloss.NewStyle()
	m.ta.BlurredStyle.Base = lipgloss.NewStyle()

	m.summary = textinput.New()
	m.summary.Prompt = ""
	m.summary.Placeholder = "Toggle"

	m.input = textinput.New()
	m.input.Prompt = "> "

	m.palette = newPalette()

	resolved := theme.Light
	if m.theme != nil {
		resolved = m.theme.Resolved()
	}
	m.style = applyTheme(resolved)
	m.sync()
	return m
}

// Init loads the sidebar.
func (m *Model) Init() tea.Cmd {
	return m.loadFiles()
}

func (m *Model) loadFiles() tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		files, err := ws.ListFiles()
		return filesMsg{files: files, err: err}
	}
}

func (m *Model) openFile(f models.FileEntry) tea.Cmd {
	s, ctx := m.surface, m.ctx
	return func() tea.Msg {
		return openedMsg{file: f, err: s.Open(ctx, f)}
	}
}

func (m *Model) readDisk(path string) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		text, err := ws.ReadFile(path)
		return diskMsg{path: path, text: text, err: err}
	}
}

// sync pulls the surface state into the model.
func (m *Model) sync() {
	m.snap = m.surface.Snapshot()
	m.blocks = m.snap.Blocks
	if m.selected >= len(m.blocks) {
		m.selected = len(m.blocks) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.editing != 0 && block.Index(m.blocks, m.editing) < 0 {
		m.editing = 0
		m.ta.Blur()
		m.summary.Blur()
		m.palette.close()
	}
}

func (m *Model) fileOpen() bool { return !m.snap.File.IsZero() }

func (m *Model) setNotice(s string, isErr bool) {
	m.notice, m.noticeErr = s, isErr
}

func (m *Model) setTheme(r theme.Resolved) {
	style := applyTheme(r)
	if style != m.style {
		m.style = style
		m.cache = map[renderKey]string{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resizeEditor()
		return m, nil

	case filesMsg:
		m.files, m.filesErr = msg.files, msg.err
		if msg.err != nil {
			m.log.Warn("tui: list files", slog.String("error", msg.err.Error()))
		}
		if m.fileCursor >= len(m.files) {
			m.fileCursor = max(len(m.files)-1, 0)
		}
		return m, nil

	case openedMsg:
		m.editing = 0
		m.selected = 0
		m.collapsed = map[block.ID]bool{}
		m.sync()
		m.pane = paneDocument
		if msg.err != nil {
			m.setNotice("Could not open "+msg.file.Name, true)
		}
		return m, nil

	case surfaceMsg:
		m.sync()
		return m, nil

	case themeMsg:
		if m.theme != nil {
			m.setTheme(m.theme.Resolved())
		}
		return m, nil

	case fileEventMsg:
		return m, m.handleFileEvent(watch.Event(msg))

	case diskMsg:
		if msg.err != nil || msg.path != m.snap.File.Path || !m.reloadable() {
			return m, nil
		}
		if msg.text == block.Serialize(m.blocks) {
			return m, nil
		}
		m.setNotice("Reloaded "+m.snap.File.Name, false)
		return m, m.openFile(m.snap.File)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	if m.editing != 0 {
		return m, m.updateEditor(msg)
	}
	return m, nil
}

// reloadable reports whether the open document has no local changes that a
// reload would throw away.
func (m *Model) reloadable() bool {
	snap := m.surface.Snapshot()
	switch snap.Status {
	case editor.StatusDirty, editor.StatusSaving:
		return false
	case editor.StatusError:
		// Unsaved edits after a failed write are kept over the disk copy.
		if snap.Editable {
			return false
		}
	}
	return m.editing == 0
}

func (m *Model) handleFileEvent(ev watch.Event) tea.Cmd {
	cmds := []tea.Cmd{m.loadFiles()}
	if ev.Path != m.snap.File.Path || !m.fileOpen() {
		return tea.Batch(cmds...)
	}
	switch ev.Kind {
	case watch.Deleted:
		m.stopEdit()
		m.surface.Close()
		m.sync()
		m.pane = paneSidebar
		m.setNotice(filepath.Base(ev.Path)+" was deleted", true)
	case watch.Updated:
		if m.reloadable() {
			cmds = append(cmds, m.readDisk(ev.Path))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.Quit) {
		m.stopEdit()
		m.surface.Flush()
		return tea.Quit
	}
	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, keys.NewFile):
		m.stopEdit()
		return m.openInput(overlayNewFile, "")
	case key.Matches(msg, keys.Settings):
		m.stopEdit()
		m.overlay = overlaySettings
		m.settingsCursor = m.intentIndex()
		return nil
	case key.Matches(msg, keys.ToggleTheme):
		m.toggleTheme()
		return nil
	case key.Matches(msg, keys.Copy):
		m.copyBlock()
		return nil
	}

	if m.editing != 0 {
		return m.handleEditKey(msg)
	}
	if m.pane == paneSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleDocumentKey(msg)
}

func (m *Model) toggleTheme() {
	if m.theme == nil {
		return
	}
	r, err := m.theme.Toggle()
	m.setTheme(r)
	if err != nil {
		m.log.Warn("tui: save theme", slog.String("error", err.Error()))
		m.setNotice("Theme applied but not saved", true)
	}
}

func (m *Model) copyBlock() {
	var content string
	if m.editing != 0 {
		content = m.editorContent()
	} else if m.pane == paneDocument && m.selected < len(m.blocks) {
		content = m.blocks[m.selected].Content
	} else {
		return
	}
	if err := clipboardWrite(content); err != nil {
		m.log.Warn("tui: copy", slog.String("error", err.Error()))
		m.setNotice("Copy failed", true)
		return
	}
	m.setNotice("Copied block", false)
}

func (m *Model) handleDocumentKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.Down):
		if m.selected < len(m.blocks)-1 {
			m.selected++
		}
	case key.Matches(msg, keys.Open):
		if !m.fileOpen() || !m.snap.Editable {
			return nil
		}
		if m.selected < len(m.blocks) {
			return m.startEdit(m.blocks[m.selected].ID, -1)
		}
	case key.Matches(msg, keys.Expand):
		if m.selected < len(m.blocks) && m.blocks[m.selected].Type == block.TypeToggle {
			id := m.blocks[m.selected].ID
			m.collapsed[id] = !m.collapsed[id]
		}
	case key.Matches(msg, keys.SwitchPane), key.Matches(msg, keys.Back):
		m.pane = paneSidebar
	}
	return nil
}
