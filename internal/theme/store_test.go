package theme

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/muse/internal/settings"
)

type fakeOS struct {
	mu          sync.Mutex
	dark, known bool
}

func (f *fakeOS) DarkMode() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dark, f.known
}

func (f *fakeOS) set(dark bool) {
	f.mu.Lock()
	f.dark, f.known = dark, true
	f.mu.Unlock()
}

type failingSettings struct{ *settings.Memory }

func (failingSettings) Set(string, string) error { return errors.New("disk full") }

func stored(t *testing.T, st settings.Store) (string, bool) {
	t.Helper()
	v, ok, err := st.Get(Key)
	if err != nil {
		t.Fatal(err)
	}
	return v, ok
}

func TestNewResolution(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		os     *fakeOS
		want   Resolved
		intent Intent
	}{
		{"nothing defaults light", "", &fakeOS{}, Light, IntentSystem},
		{"os dark", "", &fakeOS{dark: true, known: true}, Dark, IntentSystem},
		{"stored light beats os", "light", &fakeOS{dark: true, known: true}, Light, IntentLight},
		{"stored dark", "dark", &fakeOS{}, Dark, IntentDark},
		{"stored system follows os", "system", &fakeOS{dark: true, known: true}, Dark, IntentSystem},
		{"invalid stored ignored", "purple", &fakeOS{dark: true, known: true}, Dark, IntentSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := settings.NewMemory()
			if tt.stored != "" {
				st.Set(Key, tt.stored)
			}
			s := New(st, tt.os, nil)
			if s.Resolved() != tt.want || s.Intent() != tt.intent {
				t.Errorf("got %v/%v, want %v/%v", s.Resolved(), s.Intent(), tt.want, tt.intent)
			}
			v, _ := stored(t, st)
			if v != tt.stored {
				t.Errorf("init wrote %q", v)
			}
		})
	}
}

func TestNewNeverWrites(t *testing.T) {
	st := settings.NewMemory()
	New(st, &fakeOS{dark: true, known: true}, nil)
	if _, ok := stored(t, st); ok {
		t.Error("init persisted a value")
	}
}

func TestToggle(t *testing.T) {
	st := settings.NewMemory()
	s := New(st, &fakeOS{}, nil)

	got, err := s.Toggle()
	if err != nil || got != Dark {
		t.Fatalf("Toggle = %v, %v", got, err)
	}
	if v, _ := stored(t, st); v != "dark" {
		t.Errorf("stored = %q", v)
	}
	got, _ = s.Toggle()
	if got != Light || s.Intent() != IntentLight {
		t.Errorf("second toggle = %v/%v", got, s.Intent())
	}
	if v, _ := stored(t, st); v != "light" {
		t.Errorf("stored = %q", v)
	}
}

func TestSetSystemWithOSDark(t *testing.T) {
	st := settings.NewMemory()
	st.Set(Key, "light")
	os := &fakeOS{}
	s := New(st, os, nil)
	os.set(true)

	if err := s.Set("system"); err != nil {
		t.Fatal(err)
	}
	if s.Resolved() != Dark {
		t.Errorf("resolved = %v", s.Resolved())
	}
	if v, _ := stored(t, st); v != "system" {
		t.Errorf("stored = %q, want system", v)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	st := settings.NewMemory()
	s := New(st, &fakeOS{}, nil)
	if err := s.Set("sepia"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := stored(t, st); ok {
		t.Error("invalid value persisted")
	}
	if s.Resolved() != Light {
		t.Errorf("resolved = %v", s.Resolved())
	}
}

func TestSetPersistFailureStillApplies(t *testing.T) {
	s := New(&failingSettings{settings.NewMemory()}, &fakeOS{}, nil)
	if err := s.Set("dark"); err == nil {
		t.Fatal("expected persist error")
	}
	if s.Resolved() != Dark {
		t.Errorf("resolved = %v", s.Resolved())
	}
}

func TestOSChangedOnlyAffectsSystem(t *testing.T) {
	st := settings.NewMemory()
	st.Set(Key, "system")
	s := New(st, &fakeOS{}, nil)
	if !s.FollowsOS() {
		t.Fatal("stored system does not follow the OS")
	}
	s.OSChanged(true)
	if s.Resolved() != Dark {
		t.Errorf("system intent: %v", s.Resolved())
	}

	s.Set("light")
	s.OSChanged(true)
	if s.Resolved() != Light {
		t.Errorf("explicit intent moved: %v", s.Resolved())
	}
}

func TestOSChangedIgnoredWhenNothingStored(t *testing.T) {
	s := New(settings.NewMemory(), &fakeOS{known: true}, nil)
	if s.FollowsOS() {
		t.Error("follows the OS with nothing stored")
	}
	s.OSChanged(true)
	if s.Resolved() != Light {
		t.Errorf("resolved = %v, want light", s.Resolved())
	}

	if err := s.Set("system"); err != nil {
		t.Fatal(err)
	}
	s.OSChanged(true)
	if s.Resolved() != Dark {
		t.Errorf("after storing system: %v", s.Resolved())
	}
}

func TestSubscribe(t *testing.T) {
	s := New(settings.NewMemory(), &fakeOS{}, nil)
	var got []Resolved
	s.Subscribe(func(r Resolved) { got = append(got, r) })

	s.Set("dark")
	s.Set("dark")
	s.Toggle()
	if len(got) != 2 || got[0] != Dark || got[1] != Light {
		t.Errorf("notifications = %v", got)
	}
}

func TestWatchFollowsOS(t *testing.T) {
	os := &fakeOS{}
	st := settings.NewMemory()
	st.Set(Key, "system")
	s := New(st, os, nil)
	var changes atomic.Int32
	s.Subscribe(func(Resolved) { changes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Watch(ctx, 5*time.Millisecond)
		close(done)
	}()

	os.set(true)
	deadline := time.Now().Add(2 * time.Second)
	for s.Resolved() != Dark && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Resolved() != Dark {
		t.Fatal("watch did not pick up dark mode")
	}
	time.Sleep(30 * time.Millisecond)
	if n := changes.Load(); n != 1 {
		t.Errorf("changes = %d, want 1", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
