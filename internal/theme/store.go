// Package theme resolves the light/dark display theme from the stored user
// intent and the operating system preference.
package theme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/muse/internal/settings"
)

// Key is the settings key holding the user's intent.
const Key = "muse-theme"

// Resolved is the theme actually applied.
type Resolved string

const (
	Light Resolved = "light"
	Dark  Resolved = "dark"
)

// Intent is what the user asked for. System follows the OS.
type Intent string

const (
	IntentLight  Intent = "light"
	IntentDark   Intent = "dark"
	IntentSystem Intent = "system"
)

// ParseIntent validates a stored or user-supplied value.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentLight, IntentDark, IntentSystem:
		return Intent(s), nil
	}
	return "", fmt.Errorf("theme: invalid value %q", s)
}

// Store owns the current theme. It is safe for concurrent use.
type Store struct {
	settings settings.Store
	detector Detector
	log      *slog.Logger

	mu       sync.Mutex
	intent   Intent
	stored   bool // intent came from settings or Set
	osDark   bool
	osKnown  bool
	resolved Resolved
	subs     []func(Resolved)
}

// New reads the stored intent and resolves the initial theme. Nothing is
// written: a missing or unreadable value falls back to the OS preference,
// then to light.
func New(st settings.Store, d Detector, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if d == nil {
		d = DetectorFunc(func() (bool, bool) { return false, false })
	}
	s := &Store{settings: st, detector: d, log: log, intent: IntentSystem}

	if st != nil {
		v, ok, err := st.Get(Key)
		switch {
		case err != nil:
			log.Warn("theme: read stored value", "error", err)
		case ok:
			if in, err := ParseIntent(v); err == nil {
				s.intent, s.stored = in, true
			} else {
				log.Warn("theme: ignoring stored value", "value", v)
			}
		}
	}
	s.osDark, s.osKnown = d.DarkMode()
	s.resolved = s.resolve()
	return s
}

func (s *Store) resolve() Resolved {
	switch s.intent {
	case IntentDark:
		return Dark
	case IntentLight:
		return Light
	}
	if s.osKnown && s.osDark {
		return Dark
	}
	return Light
}

// Resolved returns the applied theme.
func (s *Store) Resolved() Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Intent returns the user's choice. It is IntentSystem when nothing was
// ever stored.
func (s *Store) Intent() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

// FollowsOS reports whether OS preference changes move the theme, which
// is only the case once "system" has been stored.
func (s *Store) FollowsOS() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followsOS()
}

func (s *Store) followsOS() bool {
	return s.stored && s.intent == IntentSystem
}

// Toggle flips the resolved theme and stores it as an explicit choice.
func (s *Store) Toggle() (Resolved, error) {
	s.mu.Lock()
	next := IntentDark
	if s.resolved == Dark {
		next = IntentLight
	}
	s.mu.Unlock()
	if err := s.Set(string(next)); err != nil {
		return s.Resolved(), err
	}
	return s.Resolved(), nil
}

// Set applies and persists light, dark or system. system resolves against
// the OS preference right away and the literal "system" is stored.
func (s *Store) Set(value string) error {
	in, err := ParseIntent(value)
	if err != nil {
		return err
	}
	if in == IntentSystem {
		dark, known := s.detector.DarkMode()
		s.mu.Lock()
		s.osDark, s.osKnown = dark, known
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.intent, s.stored = in, true
	changed := s.apply()
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.Set(Key, string(in)); err != nil {
			s.notify(changed)
			return fmt.Errorf("theme: persist: %w", err)
		}
	}
	s.notify(changed)
	return nil
}

// OSChanged records a new OS preference. The resolved theme only moves when
// the stored intent is system; with nothing stored the OS is read once at
// startup.
func (s *Store) OSChanged(dark bool) {
	s.mu.Lock()
	s.osDark, s.osKnown = dark, true
	var changed []func(Resolved)
	if s.followsOS() {
		changed = s.apply()
	}
	s.mu.Unlock()
	s.notify(changed)
}

// apply re-resolves and returns the subscribers to notify, or nil when the
// resolved theme did not move. Callers hold mu.
func (s *Store) apply() []func(Resolved) {
	next := s.resolve()
	if next == s.resolved {
		return nil
	}
	s.resolved = next
	return append([]func(Resolved){}, s.subs...)
}

func (s *Store) notify(subs []func(Resolved)) {
	if len(subs) == 0 {
		return
	}
	r := s.Resolved()
	for _, fn := range subs {
		fn(r)
	}
}

// Subscribe registers fn to receive the resolved theme after each change.
// fn runs on the goroutine that caused the change.
func (s *Store) Subscribe(fn func(Resolved)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Watch polls the detector until ctx is done and forwards changes to
// OSChanged.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.mu.Lock()
	last, lastKnown := s.osDark, s.osKnown
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dark, known := s.detector.DarkMode()
			if !known || (lastKnown && dark == last) {
				continue
			}
			last, lastKnown = dark, true
			s.log.Debug("theme: os preference changed", "dark", dark)
			s.OSChanged(dark)
		}
	}
}
