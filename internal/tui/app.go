package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/theme"
	"github.com/starford/muse/internal/watch"
)

// App runs the model and feeds it events raised on other goroutines.
type App struct {
	opts  Options
	inbox chan tea.Msg

	// Surface and theme changes are coalesced: the model re-reads both
	// stores, so one queued signal covers any number of changes.
	surfaceChanged chan struct{}
	themeChanged   chan struct{}
}

// NewApp subscribes to the surface and the theme store. Register it before
// any of them can fire.
func NewApp(opts Options) *App {
	a := &App{
		opts:           opts,
		inbox:          make(chan tea.Msg, 64),
		surfaceChanged: make(chan struct{}, 1),
		themeChanged:   make(chan struct{}, 1),
	}
	if opts.Surface != nil {
		opts.Surface.OnChange(func(editor.Snapshot) { signal(a.surfaceChanged) })
	}
	if opts.Theme != nil {
		opts.Theme.Subscribe(func(theme.Resolved) { signal(a.themeChanged) })
	}
	return a
}

// FileEvent forwards a watcher event to the UI.
func (a *App) FileEvent(ev watch.Event) {
	a.post(fileEventMsg(ev))
}

// post never blocks: callbacks may run inside Update itself. Every file
// event reloads the file list, so a dropped one is caught by the next.
func (a *App) post(msg tea.Msg) {
	select {
	case a.inbox <- msg:
	default:
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run blocks until the user quits or ctx is done. Pending edits are written
// before it returns.
func (a *App) Run(ctx context.Context) error {
	applyColorProfilePreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, a.opts)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-a.inbox:
				prog.Send(msg)
			case <-a.surfaceChanged:
				prog.Send(surfaceMsg{})
			case <-a.themeChanged:
				prog.Send(themeMsg{})
			}
		}
	}()

	_, err := prog.Run()
	if a.opts.Surface != nil {
		a.opts.Surface.Flush()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
