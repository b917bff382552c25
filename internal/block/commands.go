package block

import (
	"sort"
	"strings"
)

// Command categories.
const (
	CategoryBasic    = "basic"
	CategoryAdvanced = "advanced"
)

// Command is one entry of the slash palette; selecting it converts the
// focused block to Type.
type Command struct {
	Name        string
	Description string
	Icon        string
	Type        Type
	Category    string
}

// Commands is the full palette in display order.
var Commands = []Command{
	{"Text", "Just start writing with plain text", "T", TypeText, CategoryBasic},
	{"Heading 1", "Large section heading", "H1", TypeHeading1, CategoryBasic},
	{"Heading 2", "Medium section heading", "H2", TypeHeading2, CategoryBasic},
	{"Heading 3", "Small section heading", "H3", TypeHeading3, CategoryBasic},
	{"Bulleted List", "Create a simple bulleted list", "•", TypeBulletList, CategoryBasic},
	{"Numbered List", "Create a numbered list", "1.", TypeNumberedList, CategoryBasic},
	{"To-Do List", "Create a task list with checkboxes", "☐", TypeTodoList, CategoryBasic},
	{"Toggle", "Create collapsible content", "▼", TypeToggle, CategoryAdvanced},
	{"Code", "Capture a code snippet", "</>", TypeCode, CategoryAdvanced},
	{"Quote", "Capture a quote", `"`, TypeQuote, CategoryAdvanced},
}

// FilterCommands returns the commands whose name or description contains
// query, case-insensitively. An empty query returns every command.
func FilterCommands(query string) []Command {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Command, 0, len(Commands))
	for _, c := range Commands {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}

// CommandGroup is a palette section.
type CommandGroup struct {
	Category string
	Title    string
	Commands []Command
}

// GroupCommands buckets cmds by category, basic first and the rest
// alphabetically. Order within a group is preserved.
func GroupCommands(cmds []Command) []CommandGroup {
	byCat := map[string][]Command{}
	var cats []string
	for _, c := range cmds {
		if _, ok := byCat[c.Category]; !ok {
			cats = append(cats, c.Category)
		}
		byCat[c.Category] = append(byCat[c.Category], c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i] == CategoryBasic {
			return cats[j] != CategoryBasic
		}
		if cats[j] == CategoryBasic {
			return false
		}
		return cats[i] < cats[j]
	})
	out := make([]CommandGroup, 0, len(cats))
	for _, c := range cats {
		out = append(out, CommandGroup{Category: c, Title: categoryTitle(c), Commands: byCat[c]})
	}
	return out
}

func categoryTitle(c string) string {
	switch c {
	case CategoryBasic:
		return "Basic blocks"
	case CategoryAdvanced:
		return "Advanced blocks"
	case "":
		return "Other"
	default:
		return strings.ToUpper(c[:1]) + c[1:]
	}
}
