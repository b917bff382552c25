package mcpserver

// BlockFormat describes how the editor maps a markdown file onto blocks.
const BlockFormat = `# Muse Block Format

Muse shows every markdown file as a vertical list of blocks. A file is
plain markdown; the block structure comes only from blank lines.

## Splitting

1. A run of one or more blank lines separates two blocks. A blank line may
   contain spaces, tabs or carriage returns.
2. Single line breaks stay inside a block:
   ` + "`line 1\\nline 2`" + ` is one block with two lines.
3. Leading, trailing and repeated blank lines are dropped.
4. An empty file opens as a single empty block.

## Saving

Blocks are written back joined by exactly one blank line. Blocks that are
empty or only whitespace are left out, so a saved file never contains two
blank lines in a row.

## Block types

Block types (heading, bullet list, numbered list, todo list, toggle, code,
quote) are chosen in the editor with the slash menu and only change how a
block is displayed. They are not stored; every block of a freshly opened
file is plain text. Write the markdown marker yourself (` + "`# `" + `,
` + "`- `" + `, ` + "`1. `" + `, ` + "`> `" + `, fenced code) if it must survive a reopen.

A fenced code block that contains blank lines is split into several blocks
when the file is opened. Keep code inside a block free of blank lines.

## Naming

File names are plain names without directories, for example
` + "`Meeting notes.md`" + `. The ` + "`.md`" + ` extension is added when missing. Names
starting with a dot are rejected, and existing files are never overwritten.

## Example

` + "```" + `markdown
# Weekly plan

Monday: review the draft.
Tuesday: send it out.

- [ ] book the room
- [ ] order lunch
` + "```" + `

This file opens as three blocks: the heading, the two-line paragraph and
the todo list.
`
