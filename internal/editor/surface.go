// Package editor holds the open document as a block sequence and saves it
// back through the workspace gateway after edits settle.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/debounce"
	"github.com/starford/muse/internal/models"
)

// DefaultDelay is the autosave quiet period.
const DefaultDelay = time.Second

// Gateway is the part of the workspace the editor needs.
type Gateway interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

// Snapshot is a consistent copy of the surface state.
type Snapshot struct {
	File   models.FileEntry
	Blocks []block.Block
	Status Status
	Err    error
	// Editable is false when no file is open or the file failed to load.
	// A failed save leaves it true.
	Editable bool
}

// Surface is safe for concurrent use. Mutations come from the UI goroutine;
// saves run on the debounce timer goroutine.
type Surface struct {
	gw  Gateway
	log *slog.Logger
	seq block.Sequence
	deb *debounce.Debouncer

	writeMu sync.Mutex

	mu       sync.Mutex
	file     models.FileEntry
	blocks   []block.Block
	status   Status
	err      error
	autosave bool
	rev      uint64 // bumped by every content mutation
	gen      uint64 // bumped by Open and Close
	subs     []func(Snapshot)
}

// New returns a surface with no open file. delay <= 0 uses DefaultDelay.
func New(gw Gateway, delay time.Duration, log *slog.Logger) *Surface {
	if log == nil {
		log = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Surface{gw: gw, log: log}
	s.blocks = []block.Block{block.New(&s.seq, "")}
	s.deb = debounce.New(delay, s.save)
	return s
}

// OnChange registers fn to run after every status change. fn may be called
// from the save goroutine and must not call back into a blocking UI loop.
func (s *Surface) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Open loads file and discards any save that has not started yet. A read
// failure leaves a single error block on screen and disables autosave so
// the message is never written over the file.
func (s *Surface) Open(ctx context.Context, file models.FileEntry) error {
	s.deb.Cancel()
	if err := ctx.Err(); err != nil {
		return err
	}
	text, readErr := s.gw.ReadFile(file.Path)

	s.mu.Lock()
	s.gen++
	s.rev = 0
	s.file = file
	if readErr != nil {
		s.blocks = []block.Block{block.New(&s.seq, "Error loading file: "+file.Name)}
		s.autosave = false
		s.err = readErr
		s.status = StatusError
	} else {
		s.blocks = block.Load(text, &s.seq)
		s.autosave = true
		s.err = nil
		s.status = StatusSaved
	}
	subs := s.snapshotSubs()
	snap := s.snapshot()
	s.mu.Unlock()

	s.notify(subs, snap)
	if readErr != nil {
		s.log.Warn("editor: load file", "path", file.Path, "error", readErr)
		return fmt.Errorf("editor: open %s: %w", file.Name, readErr)
	}
	s.log.Debug("editor: opened", "path", file.Path, "blocks", len(snap.Blocks))
	return nil
}

// Close drops the open file and any pending save.
func (s *Surface) Close() {
	s.deb.Cancel()
	s.mu.Lock()
	s.gen++
	s.rev = 0
	s.file = models.FileEntry{}
	s.blocks = []block.Block{block.New(&s.seq, "")}
	s.autosave = false
	s.err = nil
	s.status = StatusIdle
	subs, snap := s.snapshotSubs(), s.snapshot()
	s.mu.Unlock()
	s.notify(subs, snap)
}

// Flush writes a scheduled save now. Used on exit.
func (s *Surface) Flush() {
	if !s.deb.Pending() {
		return
	}
	s.deb.Cancel()
	s.save()
}

// Stop cancels pending saves for good.
func (s *Surface) Stop() {
	s.deb.Stop()
}

// Edit replaces the content of block id.
func (s *Surface) Edit(id block.ID, content string) {
	s.mutate(func(bs []block.Block) ([]block.Block, bool) {
		b, ok := block.Find(bs, id)
		if !ok || b.Content == content {
			return bs, false
		}
		return block.SetContent(bs, id, content), true
	})
}

// Enter splits block id at the rune offset and returns the new focused
// block. ok is false for block types where Enter inserts a newline.
func (s *Surface) Enter(id block.ID, offset int) (next block.ID, ok bool) {
	s.mutate(func(bs []block.Block) ([]block.Block, bool) {
		b, found := block.Find(bs, id)
		if !found || !b.Type.SplitsOnEnter() {
			return bs, false
		}
		out := block.SplitAt(bs, id, offset, &s.seq)
		next = out[block.Index(out, id)+1].ID
		ok = true
		return out, true
	})
	return next, ok
}

// Backspace handles Backspace at cursor offset in block id. At offset 0 an
// empty block is removed and a non-empty one is joined onto the previous
// block. It returns the block to focus and the cursor offset within it;
// handled is false when nothing changed and the key belongs to the textarea.
func (s *Surface) Backspace(id block.ID, offset int) (focus block.ID, cursor int, handled bool) {
	if offset != 0 {
		return 0, 0, false
	}
	s.mutate(func(bs []block.Block) ([]block.Block, bool) {
		i := block.Index(bs, id)
		if i <= 0 {
			return bs, false
		}
		prev := bs[i-1]
		if bs[i].Content == "" {
			out := block.MergeBackward(bs, id)
			if len(out) == len(bs) {
				return bs, false
			}
			focus, cursor, handled = prev.ID, utf8.RuneCountInString(prev.Content), true
			return out, true
		}
		out, at := block.JoinBackward(bs, id)
		if at < 0 {
			return bs, false
		}
		focus, cursor, handled = prev.ID, at, true
		return out, true
	})
	return focus, cursor, handled
}

// Convert changes the type of block id.
func (s *Surface) Convert(id block.ID, t block.Type) {
	s.mutate(func(bs []block.Block) ([]block.Block, bool) {
		b, ok := block.Find(bs, id)
		if !ok || b.Type == t {
			return bs, false
		}
		return block.Convert(bs, id, t), true
	})
}

// Focus focuses block id. It does not dirty the document.
func (s *Surface) Focus(id block.ID) {
	s.mu.Lock()
	s.blocks = block.SetFocus(s.blocks, id)
	s.mu.Unlock()
}

// Blur clears focus and prunes empty blocks. The serialized document is
// unchanged, so nothing is saved.
func (s *Surface) Blur() {
	s.mu.Lock()
	s.blocks = block.PruneEmpty(s.blocks, &s.seq)
	s.mu.Unlock()
}

// Blocks returns a copy of the current block sequence.
func (s *Surface) Blocks() []block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]block.Block(nil), s.blocks...)
}

// Status returns the autosave status.
func (s *Surface) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// File returns the open file, zero when none is open.
func (s *Surface) File() models.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Snapshot returns the whole state at once.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Surface) mutate(fn func([]block.Block) ([]block.Block, bool)) {
	s.mu.Lock()
	out, changed := fn(s.blocks)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.blocks = out
	s.rev++
	var subs []func(Snapshot)
	var snap Snapshot
	if s.autosave {
		if s.status != StatusDirty {
			s.status = StatusDirty
			subs, snap = s.snapshotSubs(), s.snapshot()
		}
		s.deb.Schedule()
	}
	s.mu.Unlock()
	s.notify(subs, snap)
}

func (s *Surface) save() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	// rev is zero right after Open: a timer armed for the previous file
	// must not rewrite the new one.
	if !s.autosave || s.file.IsZero() || s.rev == 0 {
		s.mu.Unlock()
		return
	}
	path, gen, rev := s.file.Path, s.gen, s.rev
	content := block.Serialize(s.blocks)
	s.status = StatusSaving
	subs, snap := s.snapshotSubs(), s.snapshot()
	s.mu.Unlock()
	s.notify(subs, snap)

	err := s.gw.WriteFile(path, content)

	s.mu.Lock()
	if gen != s.gen {
		// A different file was opened while writing.
		s.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		s.err = err
		s.status = StatusError
	case rev != s.rev:
		s.err = nil
		s.status = StatusDirty
	default:
		s.err = nil
		s.status = StatusSaved
	}
	subs, snap = s.snapshotSubs(), s.snapshot()
	s.mu.Unlock()

	if err != nil {
		s.log.Error("editor: save failed", "path", path, "error", err)
	} else {
		s.log.Debug("editor: saved", "path", path, "bytes", len(content))
	}
	s.notify(subs, snap)
}

// Callers hold mu.
func (s *Surface) snapshot() Snapshot {
	return Snapshot{
		File:     s.file,
		Blocks:   append([]block.Block(nil), s.blocks...),
		Status:   s.status,
		Err:      s.err,
		Editable: s.autosave,
	}
}

func (s *Surface) snapshotSubs() []func(Snapshot) {
	if len(s.subs) == 0 {
		return nil
	}
	return append([]func(Snapshot){}, s.subs...)
}

func (s *Surface) notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
