package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/muse/internal/block"
)

// palette is the slash command menu that converts the focused block.
type palette struct {
	open   bool
	query  textinput.Model
	cursor int
}

func newPalette() palette {
	q := textinput.New()
	q.Prompt = "/"
	q.Placeholder = "Filter blocks"
	return palette{query: q}
}

func (p *palette) show() tea.Cmd {
	p.open = true
	p.cursor = 0
	p.query.SetValue("")
	return p.query.Focus()
}

func (p *palette) close() {
	p.open = false
	p.query.Blur()
}

// items lists the filtered commands in display order.
func (p *palette) items() []block.Command {
	var out []block.Command
	for _, g := range block.GroupCommands(block.FilterCommands(p.query.Value())) {
		out = append(out, g.Commands...)
	}
	return out
}

// update returns the picked command once enter selects one.
func (p *palette) update(msg tea.KeyMsg) (*block.Command, tea.Cmd) {
	items := p.items()
	switch msg.String() {
	case "esc":
		p.close()
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "ctrl+j":
		if p.cursor < len(items)-1 {
			p.cursor++
		}
	case "enter", "tab":
		if len(items) == 0 {
			p.close()
			return nil, nil
		}
		c := items[min(p.cursor, len(items)-1)]
		p.close()
		return &c, nil
	default:
		if msg.Type == tea.KeyBackspace && p.query.Value() == "" {
			p.close()
			return nil, nil
		}
		before := p.query.Value()
		var cmd tea.Cmd
		p.query, cmd = p.query.Update(msg)
		if p.query.Value() != before {
			p.cursor = 0
		}
		return nil, cmd
	}
	return nil, nil
}

func (p *palette) view(width int) string {
	var b strings.Builder
	b.WriteString(p.query.View())

	groups := block.GroupCommands(block.FilterCommands(p.query.Value()))
	if len(groups) == 0 {
		b.WriteString("\n" + styleMuted().Render("No matching blocks"))
	}
	icon := lipgloss.NewStyle().Width(4)
	i := 0
	for _, g := range groups {
		b.WriteString("\n" + styleMuted().Bold(true).Render(strings.ToUpper(g.Title)))
		for _, c := range g.Commands {
			line := icon.Render(c.Icon) + c.Name
			if i == p.cursor {
				b.WriteString("\n" + styleSelected().Render(line+"  "+c.Description))
			} else {
				b.WriteString("\n" + line + "  " + styleMuted().Render(c.Description))
			}
			i++
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(min(width, 60)).
		Render(b.String())
}
