package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	NewFile     key.Binding
	ToggleTheme key.Binding
	Settings    key.Binding
	Copy        key.Binding
	SwitchPane  key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	Delete      key.Binding
	Refresh     key.Binding
	Expand      key.Binding
	Back        key.Binding
	Newline     key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	NewFile:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new file")),
	ToggleTheme: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
	Settings:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "settings")),
	Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy block")),
	SwitchPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:        key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "open/edit")),
	Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Expand:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "expand/collapse")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Newline:     key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "newline")),
}

func (k keyMap) sidebarHelp() []key.Binding {
	return []key.Binding{k.Open, k.NewFile, k.Delete, k.SwitchPane, k.Settings, k.Quit}
}

func (k keyMap) documentHelp() []key.Binding {
	return []key.Binding{k.Open, k.Expand, k.Copy, k.SwitchPane, k.ToggleTheme, k.Quit}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Back, k.Newline, k.Copy, k.ToggleTheme, k.Quit}
}
