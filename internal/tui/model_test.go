package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/settings"
	"github.com/starford/muse/internal/testutil"
	"github.com/starford/muse/internal/theme"
	"github.com/starford/muse/internal/watch"
)

type harness struct {
	t        *testing.T
	m        *Model
	dir      string
	surface  *editor.Surface
	settings *settings.Memory
	themes   *theme.Store
	retarget []string
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	dir, fs := testutil.TestWorkspace(t, files)
	s := editor.New(fs, time.Hour, nil)
	t.Cleanup(s.Stop)
	mem := settings.NewMemory()
	th := theme.New(mem, theme.DetectorFunc(func() (bool, bool) { return false, true }), nil)

	h := &harness{t: t, dir: dir, surface: s, settings: mem, themes: th}
	h.m = New(context.Background(), Options{
		Workspace:  fs,
		Surface:    s,
		Theme:      th,
		Version:    "1.0.0",
		OnRetarget: func(d string) { h.retarget = append(h.retarget, d) },
	})
	for _, c := range []*cursor.Model{&h.m.ta.Cursor, &h.m.summary.Cursor, &h.m.input.Cursor, &h.m.palette.query.Cursor} {
		c.SetMode(cursor.CursorStatic)
	}
	h.m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.run(h.m.Init())
	return h
}

// run executes cmd the way the program loop would, feeding file and open
// results back into the model.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0 && i < 50; i++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case filesMsg, openedMsg, diskMsg:
			_, next := h.m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		_, cmd := h.m.Update(keyMsg(k))
		h.run(cmd)
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) view() string { return ansi.Strip(h.m.View()) }

func (h *harness) openFirst() {
	h.t.Helper()
	h.press("enter")
	if !h.m.fileOpen() {
		h.t.Fatal("no file opened")
	}
}

func (h *harness) contents() []string {
	var out []string
	for _, b := range h.surface.Blocks() {
		out = append(out, b.Content)
	}
	return out
}

func keyMsg(s string) tea.KeyMsg {
	types := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"backspace": tea.KeyBackspace,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"ctrl+n":    tea.KeyCtrlN,
		"ctrl+o":    tea.KeyCtrlO,
		"ctrl+t":    tea.KeyCtrlT,
		"ctrl+y":    tea.KeyCtrlY,
		"ctrl+q":    tea.KeyCtrlQ,
	}
	if s == "alt+enter" {
		return tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	}
	if s == "space" {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if t, ok := types[s]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSidebarOpensFile(t *testing.T) {
	h := newHarness(t, map[string]string{
		"Alpha.md": "# Alpha\n\nfirst body",
		"Beta.md":  "beta",
	})
	if len(h.m.files) != 2 {
		t.Fatalf("files = %d", len(h.m.files))
	}
	if v := h.view(); !strings.Contains(v, "Alpha") || !strings.Contains(v, "Beta") {
		t.Fatalf("sidebar missing files:\n%s", v)
	}

	h.openFirst()
	if h.m.pane != paneDocument {
		t.Error("document pane not focused after open")
	}
	if got := h.contents(); !equal(got, []string{"# Alpha", "first body"}) {
		t.Errorf("blocks = %q", got)
	}
	if v := h.view(); !strings.Contains(v, "first body") || !strings.Contains(v, "Saved") {
		t.Errorf("document view:\n%s", v)
	}
}

func TestEnterSplitsAndSaves(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "hello world"})
	h.openFirst()

	h.press("enter") // edit the block, cursor at the end
	for range 5 {
		h.press("left")
	}
	h.press("enter")
	if got := h.contents(); !equal(got, []string{"hello ", "world"}) {
		t.Fatalf("blocks after split = %q", got)
	}
	if b, _ := block.Focused(h.surface.Blocks()); b.Content != "world" || h.m.editing != b.ID {
		t.Fatalf("focus = %+v, editing %v", b, h.m.editing)
	}
	if h.surface.Status() != editor.StatusDirty {
		t.Errorf("status = %v", h.surface.Status())
	}

	h.press("ctrl+q")
	if got := testutil.ReadFile(t, h.dir, "Note.md"); got != "hello \n\nworld" {
		t.Errorf("file = %q", got)
	}
}

func TestBackspaceJoinsBlocks(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "one\n\ntwo"})
	h.openFirst()
	h.press("down", "enter")
	for range 3 {
		h.press("left")
	}
	h.press("backspace")
	if got := h.contents(); !equal(got, []string{"onetwo"}) {
		t.Fatalf("blocks = %q", got)
	}
	if off := cursorOffset(h.m.ta); off != 3 {
		t.Errorf("cursor offset = %d, want 3", off)
	}
}

func TestAltEnterInsertsNewline(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "line"})
	h.openFirst()
	h.press("enter", "alt+enter")
	h.typeText("next")
	if got := h.contents(); !equal(got, []string{"line\nnext"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestArrowKeysMoveBetweenBlocks(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "one\n\ntwo\n\nthree"})
	h.openFirst()
	h.press("enter")
	first := h.m.editing
	h.press("down")
	if h.m.editing == first {
		t.Fatal("down on the last row did not move")
	}
	if b, _ := block.Find(h.m.blocks, h.m.editing); b.Content != "two" {
		t.Errorf("editing %q", b.Content)
	}
	h.press("up")
	if h.m.editing != first {
		t.Error("up did not return to the first block")
	}
}

func TestEscPrunesEmptyBlocks(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "text"})
	h.openFirst()
	h.press("enter", "enter")
	if n := len(h.surface.Blocks()); n != 2 {
		t.Fatalf("blocks = %d", n)
	}
	h.press("esc")
	if h.m.editing != 0 {
		t.Error("still editing")
	}
	if got := h.contents(); !equal(got, []string{"text"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestNewFileDialog(t *testing.T) {
	h := newHarness(t, map[string]string{"Existing.md": "x"})

	h.press("ctrl+n", "enter")
	if h.m.overlay != overlayNewFile || h.m.dialogErr == "" {
		t.Fatalf("empty name accepted: overlay %v err %q", h.m.overlay, h.m.dialogErr)
	}

	h.typeText("Existing")
	h.press("enter")
	if !strings.Contains(h.m.dialogErr, "already exists") {
		t.Fatalf("dialogErr = %q", h.m.dialogErr)
	}

	h.m.input.SetValue("  Ideas  ")
	h.press("enter")
	if h.m.overlay != overlayNone {
		t.Fatalf("dialog still open: %q", h.m.dialogErr)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "Ideas.md")); err != nil {
		t.Fatal(err)
	}
	if h.m.snap.File.Name != "Ideas.md" || len(h.m.files) != 2 {
		t.Errorf("open = %q, files = %d", h.m.snap.File.Name, len(h.m.files))
	}
}

func TestSlashPaletteConverts(t *testing.T) {
	h := newHarness(t, nil)
	h.press("ctrl+n")
	h.typeText("Code")
	h.press("enter")

	h.press("enter", "/")
	if !h.m.palette.open {
		t.Fatal("palette not open")
	}
	if v := h.view(); !strings.Contains(v, "Heading 1") || !strings.Contains(v, "Quote") {
		t.Errorf("palette view:\n%s", v)
	}
	h.typeText("code")
	if items := h.m.palette.items(); len(items) != 1 || items[0].Type != block.TypeCode {
		t.Fatalf("filtered = %+v", items)
	}
	h.press("enter")
	if h.m.palette.open {
		t.Error("palette still open")
	}
	bs := h.surface.Blocks()
	if bs[0].Type != block.TypeCode {
		t.Fatalf("type = %v", bs[0].Type)
	}

	h.typeText("a")
	h.press("enter")
	h.typeText("b")
	if got := h.contents(); !equal(got, []string{"a\nb"}) {
		t.Errorf("code block = %q", got)
	}
}

func TestSlashNotInterceptedInText(t *testing.T) {
	h := newHarness(t, map[string]string{"Note.md": "a"})
	h.openFirst()
	h.press("enter", "/")
	if h.m.palette.open {
		t.Fatal("palette opened in a non-empty block")
	}
	if got := h.contents(); !equal(got, []string{"a/"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestPaletteEscKeepsType(t *testing.T) {
	h := newHarness(t, nil)
	h.press("ctrl+n")
	h.typeText("P")
	h.press("enter", "enter", "/", "esc")
	if h.m.palette.open || h.m.editing == 0 {
		t.Fatalf("palette %v editing %v", h.m.palette.open, h.m.editing)
	}
	if h.surface.Blocks()[0].Type != block.TypeText {
		t.Error("type changed")
	}
}

func TestToggleBlock(t *testing.T) {
	h := newHarness(t, nil)
	h.press("ctrl+n")
	h.typeText("T")
	h.press("enter", "enter", "/")
	h.typeText("toggle")
	h.press("enter")

	h.typeText("Sum")
	h.press("tab")
	if !h.m.inChild {
		t.Fatal("tab did not move into the toggle content")
	}
	h.typeText("kid")
	h.press("enter")
	h.typeText("more")
	if got := h.contents(); !equal(got, []string{"Sum\nkid\nmore"}) {
		t.Fatalf("toggle content = %q", got)
	}

	h.press("shift+tab")
	if h.m.inChild {
		t.Error("shift+tab did not return to the summary")
	}
	h.press("esc")
	if h.m.editing != 0 {
		t.Fatal("still editing")
	}
	if v := h.view(); !strings.Contains(v, "▼") || !strings.Contains(v, "kid") {
		t.Errorf("expanded view:\n%s", v)
	}

	h.press("space")
	if v := h.view(); !strings.Contains(v, "▶") || strings.Contains(v, "kid") {
		t.Errorf("collapsed view:\n%s", v)
	}
}

func TestDeleteFile(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a", "B.md": "b"})
	h.openFirst()
	h.press("tab") // back to the sidebar

	h.press("d")
	if h.m.overlay != overlayDelete {
		t.Fatal("no confirmation")
	}
	if v := h.view(); !strings.Contains(v, `"A.md"`) {
		t.Errorf("confirm view:\n%s", v)
	}
	h.press("enter") // cancel has focus
	if _, err := os.Stat(filepath.Join(h.dir, "A.md")); err != nil {
		t.Fatal("cancel deleted the file")
	}

	h.press("d", "y")
	if _, err := os.Stat(filepath.Join(h.dir, "A.md")); !os.IsNotExist(err) {
		t.Fatalf("file still there: %v", err)
	}
	if h.m.fileOpen() {
		t.Error("deleted file still open")
	}
	if len(h.m.files) != 1 {
		t.Errorf("files = %d", len(h.m.files))
	}
}

func TestThemeToggle(t *testing.T) {
	h := newHarness(t, nil)
	if h.m.style != "light" {
		t.Fatalf("style = %q", h.m.style)
	}
	h.press("ctrl+t")
	if h.m.style != "dark" || h.themes.Resolved() != theme.Dark {
		t.Fatalf("style = %q, resolved %v", h.m.style, h.themes.Resolved())
	}
	if v, _, _ := h.settings.Get(theme.Key); v != "dark" {
		t.Errorf("stored = %q", v)
	}
	if !strings.Contains(h.view(), "dark") {
		t.Error("status line does not show the theme")
	}
}

func TestSettingsChoosesTheme(t *testing.T) {
	h := newHarness(t, nil)
	h.press("ctrl+o")
	if h.m.overlay != overlaySettings {
		t.Fatal("settings not open")
	}
	v := h.view()
	for _, want := range []string{"Light", "Dark", "System", "Muse v1.0.0"} {
		if !strings.Contains(v, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
	if h.m.settingsCursor != 2 {
		t.Errorf("cursor = %d, want system", h.m.settingsCursor)
	}
	h.press("up", "enter")
	if h.themes.Intent() != theme.IntentDark || h.m.style != "dark" {
		t.Errorf("intent = %v style %q", h.themes.Intent(), h.m.style)
	}
	h.press("esc")
	if h.m.overlay != overlayNone {
		t.Error("settings still open")
	}
}

func TestChangeFolder(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a"})
	other, _ := testutil.TestWorkspace(t, map[string]string{"X.md": "x", "Y.md": "y"})

	h.press("ctrl+o", "down", "down", "down", "enter")
	if h.m.overlay != overlayFolder {
		t.Fatalf("overlay = %v", h.m.overlay)
	}
	h.m.input.SetValue(filepath.Join(h.dir, "missing"))
	h.press("enter")
	if h.m.dialogErr == "" {
		t.Fatal("missing directory accepted")
	}

	h.m.input.SetValue(other)
	h.press("enter")
	if h.m.overlay != overlayNone || len(h.m.files) != 2 {
		t.Fatalf("overlay %v files %d", h.m.overlay, len(h.m.files))
	}
	if len(h.retarget) != 1 {
		t.Errorf("retarget calls = %v", h.retarget)
	}
}

func TestCopyBlock(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { clipboardWrite = orig })

	h := newHarness(t, map[string]string{"Note.md": "first\n\nsecond"})
	h.openFirst()
	h.press("down", "ctrl+y")
	if copied != "second" {
		t.Errorf("copied %q", copied)
	}
	if h.m.notice != "Copied block" {
		t.Errorf("notice = %q", h.m.notice)
	}
}

func TestDeletedOnDiskClosesDocument(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a"})
	h.openFirst()
	path := h.m.snap.File.Path
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	_, cmd := h.m.Update(fileEventMsg(watch.Event{Kind: watch.Deleted, Path: path, Name: "A.md"}))
	h.run(cmd)
	if h.m.fileOpen() {
		t.Error("document still open")
	}
	if len(h.m.files) != 0 {
		t.Errorf("files = %d", len(h.m.files))
	}
}

func TestExternalChangeReloads(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "old"})
	h.openFirst()
	path := h.m.snap.File.Path
	if err := os.WriteFile(path, []byte("new\n\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, cmd := h.m.Update(fileEventMsg(watch.Event{Kind: watch.Updated, Path: path, Name: "A.md"}))
	h.run(cmd)
	if got := h.contents(); !equal(got, []string{"new", "content"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestExternalChangeIgnoredWhileEditing(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "old"})
	h.openFirst()
	h.press("enter")
	h.typeText("!")
	path := h.m.snap.File.Path
	if err := os.WriteFile(path, []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, cmd := h.m.Update(fileEventMsg(watch.Event{Kind: watch.Updated, Path: path}))
	h.run(cmd)
	if got := h.contents(); !equal(got, []string{"old!"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestLoadFailureShowsError(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a"})
	if err := os.Remove(filepath.Join(h.dir, "A.md")); err != nil {
		t.Fatal(err)
	}
	h.press("enter")
	if h.m.snap.Status != editor.StatusError {
		t.Fatalf("status = %v", h.m.snap.Status)
	}
	if v := h.view(); !strings.Contains(v, "Error loading file: A.md") {
		t.Errorf("view:\n%s", v)
	}
	h.press("enter")
	if h.m.editing != 0 {
		t.Error("error block is editable")
	}
}

func TestCursorHelpers(t *testing.T) {
	ta := textarea.New()
	ta.SetValue("ab\ncde\nf")
	tests := []struct {
		offset int
		want   int
	}{
		{0, 0},
		{2, 2},
		{3, 3},
		{5, 5},
		{7, 7},
		{-1, 8},
	}
	for _, tt := range tests {
		placeCursor(&ta, tt.offset)
		if got := cursorOffset(ta); got != tt.want {
			t.Errorf("placeCursor(%d): offset = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestVisualRows(t *testing.T) {
	if got := visualRows("", 10); got != 1 {
		t.Errorf("empty = %d", got)
	}
	if got := visualRows("a\nb", 10); got != 2 {
		t.Errorf("two lines = %d", got)
	}
	if got := visualRows(strings.Repeat("x", 25), 10); got != 3 {
		t.Errorf("wrapped = %d", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"notes", 10, "notes"},
		{"meeting-notes", 8, "meeting…"},
		{"abc", 1, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestEditingContinuesAfterSaveFailure(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a"})
	h.openFirst()
	h.press("enter")
	h.typeText("b")
	h.press("esc")

	path := h.m.snap.File.Path
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	h.surface.Flush()
	h.m.Update(surfaceMsg{})
	if h.m.snap.Status != editor.StatusError {
		t.Fatalf("status = %v, want error", h.m.snap.Status)
	}

	h.press("enter")
	if h.m.editing == 0 {
		t.Fatal("cannot edit after a failed save")
	}
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	h.typeText("c")
	h.press("esc")
	h.surface.Flush()
	h.m.Update(surfaceMsg{})
	if h.m.snap.Status != editor.StatusSaved {
		t.Errorf("status = %v, want saved", h.m.snap.Status)
	}
	if got := testutil.ReadFile(t, h.dir, "A.md"); got != "abc" {
		t.Errorf("file = %q", got)
	}
}

func TestExternalChangeKeepsUnsavedEdits(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a"})
	h.openFirst()
	h.press("enter")
	h.typeText("b")
	h.press("esc")
	path := h.m.snap.File.Path
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	h.surface.Flush()
	if err := os.WriteFile(path, []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, cmd := h.m.Update(fileEventMsg(watch.Event{Kind: watch.Updated, Path: path}))
	h.run(cmd)
	if got := h.contents(); !equal(got, []string{"ab"}) {
		t.Errorf("blocks = %q", got)
	}
}

func TestSwitchingFileDropsPendingSave(t *testing.T) {
	h := newHarness(t, map[string]string{"A.md": "a", "B.md": "b"})
	h.openFirst()
	h.press("enter")
	h.typeText("X")
	h.press("esc", "tab", "down", "enter")
	if h.m.snap.File.Name != "B.md" {
		t.Fatalf("open = %q", h.m.snap.File.Name)
	}
	if got := testutil.ReadFile(t, h.dir, "A.md"); got != "a" {
		t.Errorf("A.md = %q, pending save was written", got)
	}
	h.press("ctrl+q")
	if got := testutil.ReadFile(t, h.dir, "A.md"); got != "a" {
		t.Errorf("A.md = %q after quit", got)
	}
}
