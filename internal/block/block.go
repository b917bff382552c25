// Package block implements the in-memory block document behind the editor:
// a markdown file split on blank lines into independently editable blocks.
//
// Every operation takes a block slice and returns a new one; the input is
// never modified, so callers can keep the previous state for comparison.
package block

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// Type tags how a block is edited and rendered.
type Type int

const (
	TypeText Type = iota
	TypeHeading1
	TypeHeading2
	TypeHeading3
	TypeBulletList
	TypeNumberedList
	TypeTodoList
	TypeToggle
	TypeCode
	TypeQuote
)

var typeNames = [...]string{
	TypeText:         "text",
	TypeHeading1:     "heading1",
	TypeHeading2:     "heading2",
	TypeHeading3:     "heading3",
	TypeBulletList:   "bulletList",
	TypeNumberedList: "numberedList",
	TypeTodoList:     "todoList",
	TypeToggle:       "toggle",
	TypeCode:         "code",
	TypeQuote:        "quote",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// ParseType maps a command action name back to its Type.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if n == s {
			return Type(i), nil
		}
	}
	return TypeText, fmt.Errorf("block: unknown type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ID identifies a block within a session. The zero ID names no block.
type ID uint64

func (id ID) String() string {
	return "block-" + strconv.FormatUint(uint64(id), 10)
}

// Sequence hands out block IDs. IDs are never reused, so a block created by
// a split cannot collide with any block that ever existed in the session.
type Sequence struct {
	last atomic.Uint64
}

// Next returns a fresh ID.
func (s *Sequence) Next() ID {
	return ID(s.last.Add(1))
}

// Block is one focusable unit of document content.
type Block struct {
	ID      ID     `json:"id"`
	Content string `json:"content"`
	Focused bool   `json:"focused"`
	Type    Type   `json:"type"`
}

// New returns an unfocused text block with a fresh ID.
func New(seq *Sequence, content string) Block {
	return Block{ID: seq.Next(), Content: content, Type: TypeText}
}

// SplitsOnEnter reports whether Enter starts a new block. Code and toggle
// blocks take Enter as a literal newline.
func (t Type) SplitsOnEnter() bool {
	return t != TypeCode && t != TypeToggle
}
