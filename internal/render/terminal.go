// Package render converts block markdown into display markup: ANSI text for
// the terminal editor and sanitized HTML for the preview server.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Standard glamour styles matching the two resolved themes.
const (
	StyleDark  = "dark"
	StyleLight = "light"
)

// EmptyPlaceholder is shown in view mode for a block with no content.
const EmptyPlaceholder = " "

// ErrorPlaceholder replaces output the renderer failed to produce.
const ErrorPlaceholder = "Error parsing markdown."

// Terminal renders markdown for view-mode blocks. Renderers are cached per
// style and wrap width; creating one is expensive.
type Terminal struct {
	mu        sync.Mutex
	renderers map[string]*glamour.TermRenderer
}

// NewTerminal returns an empty renderer cache.
func NewTerminal() *Terminal {
	return &Terminal{renderers: map[string]*glamour.TermRenderer{}}
}

// Render returns src styled for the terminal. Blank input yields the empty
// placeholder; a rendering failure yields ErrorPlaceholder and the error.
func (t *Terminal) Render(src, style string, width int) (string, error) {
	if strings.TrimSpace(src) == "" {
		return EmptyPlaceholder, nil
	}
	if width < 10 {
		width = 10
	}
	r, err := t.renderer(style, width)
	if err != nil {
		return ErrorPlaceholder, err
	}
	out, err := r.Render(src)
	if err != nil {
		return ErrorPlaceholder, fmt.Errorf("render: terminal: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (t *Terminal) renderer(style string, width int) (*glamour.TermRenderer, error) {
	if style != StyleLight {
		style = StyleDark
	}
	key := fmt.Sprintf("%s:%d", style, width)

	t.mu.Lock()
	defer t.mu.Unlock()
	if r := t.renderers[key]; r != nil {
		return r, nil
	}
	// WithAutoStyle would query the terminal; the theme store already decided.
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("render: new terminal renderer: %w", err)
	}
	t.renderers[key] = r
	return r, nil
}
