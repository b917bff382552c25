// Package samples seeds a new workspace with a few example documents.
package samples

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/muse/internal/apperr"
	"github.com/starford/muse/internal/models"
)

// File is one sample document.
type File struct {
	Name    string
	Content string
}

// Creator is the part of the file gateway seeding needs.
type Creator interface {
	ListFiles() ([]models.FileEntry, error)
	CreateFile(name, content string) (string, error)
}

// Seed creates the sample files when the workspace holds no markdown files
// yet, and reports how many were written. A workspace with files is left
// alone, so deleted samples do not come back.
func Seed(c Creator, logger *slog.Logger) (int, error) {
	files, err := c.ListFiles()
	if err != nil {
		return 0, fmt.Errorf("samples: list: %w", err)
	}
	if len(files) > 0 {
		return 0, nil
	}
	n := 0
	for _, f := range Files {
		path, err := c.CreateFile(f.Name, f.Content)
		if errors.Is(err, apperr.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("samples: create %s: %w", f.Name, err)
		}
		n++
		if logger != nil {
			logger.Info("samples: created", slog.String("path", path))
		}
	}
	return n, nil
}

// Files are the documents a fresh workspace starts with.
var Files = []File{
	{Name: "Welcome.md", Content: welcome},
	{Name: "Markdown Guide.md", Content: guide},
	{Name: "Todo List.md", Content: todo},
}

const welcome = `# Welcome to Muse

Muse is a block-based markdown editor for the terminal.

## Features

- Edit markdown files block by block
- See each block rendered as soon as you leave it
- Notes are plain files in one folder
- Changes are saved automatically

## Getting Started

Pick a file in the sidebar, or press ctrl+n to create one.
Type / in an empty block to change its type.
`

const guide = "# Markdown Guide\n\n" +
	"## Basic Syntax\n\n" +
	"### Headers\n\n" +
	"# H1\n## H2\n### H3\n#### H4\n##### H5\n###### H6\n\n" +
	"### Emphasis\n\n" +
	"*Italic* or _Italic_\n**Bold** or __Bold__\n**_Bold and Italic_**\n~~Strikethrough~~\n\n" +
	"### Lists\n\n" +
	"#### Unordered List\n- Item 1\n- Item 2\n  - Item 2a\n  - Item 2b\n\n" +
	"#### Ordered List\n1. Item 1\n2. Item 2\n3. Item 3\n\n" +
	"### Links\n\n" +
	"[Markdown Guide](https://www.markdownguide.org)\n\n" +
	"### Code\n\n" +
	"Inline code: `const greeting = \"Hello, world!\";`\n\n" +
	"Code block:\n```go\nfunc greet(name string) string {\n\treturn \"Hello, \" + name + \"!\"\n}\n```\n\n" +
	"### Blockquotes\n\n" +
	"> This is a blockquote.\n>\n> It can span multiple lines.\n\n" +
	"### Horizontal Rule\n\n" +
	"---\n\n" +
	"## Extended Syntax\n\n" +
	"### Tables\n\n" +
	"| Header 1 | Header 2 |\n|----------|----------|\n| Cell 1   | Cell 2   |\n| Cell 3   | Cell 4   |\n\n" +
	"### Task Lists\n\n" +
	"- [x] Task 1\n- [ ] Task 2\n- [ ] Task 3\n"

const todo = `# Todo List

## Project Tasks

- [x] Create the workspace
- [x] Open a file from the sidebar
- [ ] Split a paragraph with enter
- [ ] Turn a block into a heading with /
- [ ] Try the dark theme

## Notes

Remember to:
- Keep one idea per block
- Leave a blank line between blocks
`
