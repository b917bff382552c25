package block

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Separator joins blocks when a document is written back to disk.
const Separator = "\n\n"

// blankRun matches a line break followed by one or more blank lines.
var blankRun = regexp.MustCompile(`\r?\n(?:[ \t\r]*\n)+`)

// IsBlank reports whether content counts as empty for pruning and saving.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}

// Load splits text on blank-line runs. Blank chunks are dropped and an
// empty document yields exactly one empty block.
func Load(text string, seq *Sequence) []Block {
	chunks := blankRun.Split(text, -1)
	out := make([]Block, 0, len(chunks))
	for _, c := range chunks {
		if IsBlank(c) {
			continue
		}
		out = append(out, New(seq, c))
	}
	if len(out) == 0 {
		out = append(out, New(seq, ""))
	}
	return out
}

// Serialize reassembles the document text, skipping blank blocks.
func Serialize(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if IsBlank(b.Content) {
			continue
		}
		parts = append(parts, b.Content)
	}
	return strings.Join(parts, Separator)
}

// Index returns the position of id, or -1.
func Index(blocks []Block, id ID) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the block with id.
func Find(blocks []Block, id ID) (Block, bool) {
	if i := Index(blocks, id); i >= 0 {
		return blocks[i], true
	}
	return Block{}, false
}

// Focused returns the focused block, if any.
func Focused(blocks []Block) (Block, bool) {
	for _, b := range blocks {
		if b.Focused {
			return b, true
		}
	}
	return Block{}, false
}

func clone(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// SetContent replaces one block's content. Unknown ids are a no-op.
func SetContent(blocks []Block, id ID, content string) []Block {
	out := clone(blocks)
	if i := Index(out, id); i >= 0 {
		out[i].Content = content
	}
	return out
}

// SetFocus focuses the block with id and unfocuses every other block.
// The zero ID clears focus entirely.
func SetFocus(blocks []Block, id ID) []Block {
	out := clone(blocks)
	for i := range out {
		out[i].Focused = id != 0 && out[i].ID == id
	}
	return out
}

// SplitAt cuts the block at a rune offset. The block keeps [0, offset) and a
// new focused block holding [offset, end) is inserted right after it.
func SplitAt(blocks []Block, id ID, offset int, seq *Sequence) []Block {
	i := Index(blocks, id)
	if i < 0 {
		return clone(blocks)
	}
	head, tail := splitRunes(blocks[i].Content, offset)

	out := make([]Block, 0, len(blocks)+1)
	for _, b := range blocks[:i] {
		b.Focused = false
		out = append(out, b)
	}
	cur := blocks[i]
	cur.Content = head
	cur.Focused = false
	next := New(seq, tail)
	next.Focused = true
	out = append(out, cur, next)
	for _, b := range blocks[i+1:] {
		b.Focused = false
		out = append(out, b)
	}
	return out
}

// MergeBackward deletes the block when its content is exactly empty and
// moves focus to the previous block, whose content is left as is. The first
// block and a lone block are never removed.
func MergeBackward(blocks []Block, id ID) []Block {
	i := Index(blocks, id)
	if i <= 0 || len(blocks) < 2 || blocks[i].Content != "" {
		return clone(blocks)
	}
	out := make([]Block, 0, len(blocks)-1)
	out = append(out, blocks[:i]...)
	out = append(out, blocks[i+1:]...)
	return SetFocus(out, blocks[i-1].ID)
}

// JoinBackward appends the block's content to the previous block, removes
// it and focuses the previous block. It returns the rune offset where the
// joined text starts, which is where the cursor belongs. It undoes SplitAt.
// Code and toggle blocks on either side are left alone.
func JoinBackward(blocks []Block, id ID) ([]Block, int) {
	i := Index(blocks, id)
	if i <= 0 {
		return clone(blocks), -1
	}
	prev, cur := blocks[i-1], blocks[i]
	if !prev.Type.SplitsOnEnter() || !cur.Type.SplitsOnEnter() {
		return clone(blocks), -1
	}
	offset := utf8.RuneCountInString(prev.Content)
	prev.Content += cur.Content

	out := make([]Block, 0, len(blocks)-1)
	out = append(out, blocks[:i-1]...)
	out = append(out, prev)
	out = append(out, blocks[i+1:]...)
	return SetFocus(out, prev.ID), offset
}

// PruneEmpty removes blank blocks and clears focus. The result always holds
// at least one block.
func PruneEmpty(blocks []Block, seq *Sequence) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if IsBlank(b.Content) {
			continue
		}
		b.Focused = false
		out = append(out, b)
	}
	if len(out) == 0 {
		out = append(out, New(seq, ""))
	}
	return out
}

// Convert changes a block's type. The content is kept byte for byte.
func Convert(blocks []Block, id ID, t Type) []Block {
	out := clone(blocks)
	if i := Index(out, id); i >= 0 {
		out[i].Type = t
	}
	return out
}

func splitRunes(s string, offset int) (string, string) {
	if offset <= 0 {
		return "", s
	}
	n := 0
	for i := range s {
		if n == offset {
			return s[:i], s[i:]
		}
		n++
	}
	return s, ""
}
