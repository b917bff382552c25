package preview

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/muse/internal/apperr"
	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/checksum"
	"github.com/starford/muse/internal/outline"
	"github.com/starford/muse/internal/render"
	"github.com/starford/muse/internal/storage"
)

type handler struct {
	ws    Workspace
	theme func() string
	log   *slog.Logger
}

// FileItem is one entry of GET /api/files.
type FileItem struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// BlockItem is one block of GET /api/files/{name}.
type BlockItem struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// FileDetail is the response of GET /api/files/{name}.
type FileDetail struct {
	Name    string      `json:"name"`
	ETag    string      `json:"etag"`
	Content string      `json:"content"`
	Blocks  []BlockItem `json:"blocks"`
}

// ListFiles handles GET /api/files.
func (h *handler) ListFiles(w http.ResponseWriter, _ *http.Request) {
	files, err := h.ws.ListFiles()
	if err != nil {
		h.log.Error("preview: list files failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]FileItem, 0, len(files))
	for _, f := range files {
		items = append(items, FileItem{Name: f.Name, Size: f.Size, LastModified: f.LastModified})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": items})
}

// GetFile handles GET /api/files/{name}.
func (h *handler) GetFile(w http.ResponseWriter, r *http.Request) {
	name, text, ok := h.read(w, r, true)
	if !ok {
		return
	}
	var seq block.Sequence
	blocks := block.Load(text, &seq)
	items := make([]BlockItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, BlockItem{ID: b.ID.String(), Type: b.Type.String(), Content: b.Content})
	}
	etag := checksum.ETag(text)
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, FileDetail{Name: name, ETag: etag, Content: text, Blocks: items})
}

// Page handles GET /files/{name}: the document rendered block by block.
func (h *handler) Page(w http.ResponseWriter, r *http.Request) {
	name, text, ok := h.read(w, r, false)
	if !ok {
		return
	}
	etag := checksum.ETag(text)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var seq block.Sequence
	blocks := block.Load(text, &seq)
	rendered := make([]template.HTML, 0, len(blocks))
	for _, b := range blocks {
		rendered = append(rendered, render.HTML(block.Source(b)))
	}

	w.Header().Set("ETag", etag)
	title := outline.Parse(text).TitleOr(strings.TrimSuffix(name, storage.Extension))
	h.page(w, pageData{Title: title, Name: name, Theme: h.theme(), Blocks: rendered})
}

// Index handles GET /: the file list.
func (h *handler) Index(w http.ResponseWriter, _ *http.Request) {
	files, err := h.ws.ListFiles()
	if err != nil {
		h.log.Error("preview: list files failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	h.page(w, pageData{Title: "Muse", Theme: h.theme(), Files: names})
}

func (h *handler) page(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		h.log.Error("preview: render page failed", slog.String("error", err.Error()))
	}
}

// read resolves the {name} parameter and loads the file, writing the error
// response itself when it fails.
func (h *handler) read(w http.ResponseWriter, r *http.Request, asJSON bool) (string, string, bool) {
	fail := func(status int, msg string) {
		if asJSON {
			writeJSON(w, status, errorBody(msg))
			return
		}
		http.Error(w, msg, status)
	}

	// Clients may send escaped names (e.g. %2E%2E).
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || storage.ValidateName(name) != nil {
		fail(http.StatusBadRequest, "invalid file name")
		return "", "", false
	}
	text, err := h.ws.ReadFile(name)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			fail(http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrOutsideRoot):
			fail(http.StatusBadRequest, "invalid file name")
		default:
			h.log.Error("preview: read failed", slog.String("name", name), slog.String("error", err.Error()))
			fail(http.StatusInternalServerError, "internal error")
		}
		return "", "", false
	}
	return name, text, true
}
