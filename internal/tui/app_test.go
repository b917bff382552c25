package tui

import (
	"context"
	"testing"
	"time"

	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/render"
	"github.com/starford/muse/internal/settings"
	"github.com/starford/muse/internal/theme"
	"github.com/starford/muse/internal/watch"
)

func TestAppPostNeverBlocks(t *testing.T) {
	a := NewApp(Options{})
	for range 200 {
		a.FileEvent(watch.Event{Kind: watch.Created, Path: "/x.md"})
	}
	if len(a.inbox) != cap(a.inbox) {
		t.Errorf("inbox = %d/%d", len(a.inbox), cap(a.inbox))
	}
}

func TestAppForwardsThemeChanges(t *testing.T) {
	th := theme.New(settings.NewMemory(), nil, nil)
	a := NewApp(Options{Theme: th})
	for range 200 {
		a.FileEvent(watch.Event{Kind: watch.Created, Path: "/x.md"})
	}
	if _, err := th.Toggle(); err != nil {
		t.Fatal(err)
	}
	if _, err := th.Toggle(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-a.themeChanged:
	default:
		t.Fatal("theme change lost behind a full inbox")
	}
	if len(a.themeChanged) != 0 {
		t.Error("theme changes not coalesced")
	}
}

func TestThemeMessageRereadsStore(t *testing.T) {
	th := theme.New(settings.NewMemory(), nil, nil)
	s := editor.New(nil, time.Hour, nil)
	t.Cleanup(s.Stop)
	m := New(context.Background(), Options{Theme: th, Surface: s})
	if err := th.Set("dark"); err != nil {
		t.Fatal(err)
	}
	m.Update(themeMsg{})
	if m.style != render.StyleDark {
		t.Errorf("style = %q, want dark", m.style)
	}
}
