// Package watch reports markdown files appearing, changing and disappearing
// in the workspace directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/muse/internal/checksum"
	"github.com/starford/muse/internal/models"
	"github.com/starford/muse/internal/storage"
)

// Kind names a workspace change.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Event is one observed change. Path is absolute.
type Event struct {
	Kind Kind
	Path string
	Name string
}

// Source is the part of the workspace gateway the watcher reads.
type Source interface {
	ListFiles() ([]models.FileEntry, error)
	ReadFile(path string) (string, error)
	CurrentDirectory() string
}

const (
	settleDelay    = 50 * time.Millisecond
	reconcileDelay = 200 * time.Millisecond
)

// Watcher follows one directory at a time. Retarget moves it.
type Watcher struct {
	src      Source
	log      *slog.Logger
	cb       func(Event)
	retarget chan string

	// Owned by the Run goroutine.
	dir     string
	known   map[string]string // abs path -> content checksum
	pending map[string]struct{}
}

// New returns a watcher that calls cb for every change. cb runs on the
// watcher goroutine.
func New(src Source, logger *slog.Logger, cb func(Event)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{src: src, log: logger, cb: cb, retarget: make(chan string, 1)}
}

// Retarget makes a running watcher follow dir instead. Files already in dir
// are not reported.
func (w *Watcher) Retarget(dir string) {
	select {
	case w.retarget <- dir:
	default:
		// Replace a retarget that has not been picked up yet.
		select {
		case <-w.retarget:
		default:
		}
		w.retarget <- dir
	}
}

// Run watches the source's current directory until ctx is cancelled.
// Writes that leave a file's content unchanged are not reported.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer fw.Close()

	if err := w.follow(fw, w.src.CurrentDirectory()); err != nil {
		return err
	}
	w.log.Info("watcher: started", slog.String("root", w.dir))

	// A save truncates then writes, so reads wait for the file to settle.
	settle := newTimer(settleDelay)
	reconcile := newTimer(reconcileDelay)
	defer settle.stop()
	defer reconcile.stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher: stopped")
			return nil

		case dir := <-w.retarget:
			if err := w.follow(fw, dir); err != nil {
				w.log.Warn("watcher: retarget failed", slog.String("dir", dir), slog.String("error", err.Error()))
				continue
			}
			w.log.Info("watcher: retargeted", slog.String("root", w.dir))

		case <-settle.c:
			for p := range w.pending {
				w.refresh(p)
			}
			clear(w.pending)

		case <-reconcile.c:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.pending[ev.Name] = struct{}{}
				settle.reset()
			case ev.Op&fsnotify.Remove != 0:
				delete(w.pending, ev.Name)
				w.forget(ev.Name)
			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new name shows up
				// as a Create if it stays in the directory.
				delete(w.pending, ev.Name)
				w.forget(ev.Name)
				reconcile.reset()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) follow(fw *fsnotify.Watcher, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("watch: resolve dir: %w", err)
	}
	if abs == w.dir {
		return nil
	}
	if err := fw.Add(abs); err != nil {
		return fmt.Errorf("watch: add %s: %w", abs, err)
	}
	if w.dir != "" {
		_ = fw.Remove(w.dir)
	}
	w.dir = abs
	w.known = w.scan()
	w.pending = map[string]struct{}{}
	return nil
}

func (w *Watcher) relevant(path string) bool {
	if filepath.Dir(path) != w.dir {
		return false
	}
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && strings.HasSuffix(base, storage.Extension)
}

// scan checksums every file the source lists.
func (w *Watcher) scan() map[string]string {
	out := map[string]string{}
	files, err := w.src.ListFiles()
	if err != nil {
		w.log.Warn("watcher: list failed", slog.String("error", err.Error()))
		return out
	}
	for _, f := range files {
		text, err := w.src.ReadFile(f.Path)
		if err != nil {
			continue
		}
		out[f.Path] = checksum.Sum([]byte(text))
	}
	return out
}

func (w *Watcher) refresh(path string) {
	text, err := w.src.ReadFile(path)
	if err != nil {
		// Gone again before we could read it, or outside the workspace.
		w.log.Debug("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	sum := checksum.Sum([]byte(text))
	prev, seen := w.known[path]
	if seen && prev == sum {
		return
	}
	w.known[path] = sum
	kind := Updated
	if !seen {
		kind = Created
	}
	w.emit(kind, path)
}

func (w *Watcher) forget(path string) {
	if _, ok := w.known[path]; !ok {
		return
	}
	delete(w.known, path)
	w.emit(Deleted, path)
}

// reconcile compares a fresh scan with what has been reported so far.
func (w *Watcher) reconcile() {
	disk := w.scan()
	for p := range w.known {
		if _, ok := disk[p]; !ok {
			delete(w.known, p)
			w.emit(Deleted, p)
		}
	}
	for p, sum := range disk {
		prev, ok := w.known[p]
		if ok && prev == sum {
			continue
		}
		w.known[p] = sum
		if ok {
			w.emit(Updated, p)
		} else {
			w.emit(Created, p)
		}
	}
}

func (w *Watcher) emit(kind Kind, path string) {
	w.log.Debug("watcher: "+string(kind), slog.String("path", path))
	if w.cb != nil {
		w.cb(Event{Kind: kind, Path: path, Name: filepath.Base(path)})
	}
}

// lazyTimer is a stopped-until-reset timer usable in a select.
type lazyTimer struct {
	d time.Duration
	t *time.Timer
	c <-chan time.Time
}

func newTimer(d time.Duration) *lazyTimer { return &lazyTimer{d: d} }

func (l *lazyTimer) reset() {
	if l.t == nil {
		l.t = time.NewTimer(l.d)
		l.c = l.t.C
		return
	}
	l.t.Reset(l.d)
}

func (l *lazyTimer) stop() {
	if l.t != nil {
		l.t.Stop()
	}
}
