// Package preview serves the workspace as rendered HTML pages that reload
// themselves when the underlying file changes.
package preview

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/muse/internal/models"
)

// Workspace is the read side of the file gateway.
type Workspace interface {
	ListFiles() ([]models.FileEntry, error)
	ReadFile(path string) (string, error)
}

// Options configure the router. Zero values are usable.
type Options struct {
	// Token, when set, is required as a Bearer token on the JSON routes.
	// Pages and the event stream stay open so a browser can use them.
	Token string
	// Theme returns "light" or "dark" for page styling.
	Theme func() string
	// Events, when set, is mounted at GET /api/events.
	Events http.Handler
	Logger *slog.Logger
}

// NewRouter returns the preview HTTP handler.
func NewRouter(ws Workspace, opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Theme == nil {
		opts.Theme = func() string { return "light" }
	}
	h := &handler{ws: ws, theme: opts.Theme, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", h.Index)
	r.Get("/files/{name}", h.Page)
	if opts.Events != nil {
		r.Get("/api/events", opts.Events.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.Token))
		r.Get("/api/files", h.ListFiles)
		r.Get("/api/files/{name}", h.GetFile)
	})
	return r
}
