package preview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/muse/internal/testutil"
)

func testRouter(t *testing.T, token string, files map[string]string) http.Handler {
	t.Helper()
	_, fs := testutil.TestWorkspace(t, files)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewRouter(fs, Options{
		Token:  token,
		Theme:  func() string { return "dark" },
		Logger: logger,
	})
}

func get(h http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(testRouter(t, "secret", nil), "/health/live", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestListFiles(t *testing.T) {
	h := testRouter(t, "", map[string]string{"b.md": "B", "a.md": "A", "skip.txt": "x"})
	w := get(h, "/api/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Files []FileItem `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Files) != 2 || body.Files[0].Name != "a.md" || body.Files[1].Name != "b.md" {
		t.Errorf("files = %+v", body.Files)
	}
	if strings.Contains(w.Body.String(), `"path"`) {
		t.Error("absolute paths exposed")
	}
}

func TestGetFileBlocks(t *testing.T) {
	h := testRouter(t, "", map[string]string{"n.md": "# Title\n\n\n\nbody"})
	w := get(h, "/api/files/n.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var d FileDetail
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if len(d.Blocks) != 2 || d.Blocks[0].Content != "# Title" || d.Blocks[1].Type != "text" {
		t.Errorf("blocks = %+v", d.Blocks)
	}
	if d.ETag == "" || w.Header().Get("ETag") != d.ETag {
		t.Errorf("etag = %q / %q", d.ETag, w.Header().Get("ETag"))
	}
}

func TestGetFileErrors(t *testing.T) {
	h := testRouter(t, "", map[string]string{"n.md": "x"})
	tests := []struct {
		path string
		want int
	}{
		{"/api/files/missing.md", http.StatusNotFound},
		{"/api/files/..", http.StatusBadRequest},
		{"/api/files/.hidden.md", http.StatusBadRequest},
		{"/files/missing.md", http.StatusNotFound},
		{"/files/%2E%2E", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := get(h, tt.path, nil); w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestAuth(t *testing.T) {
	h := testRouter(t, "secret", map[string]string{"n.md": "x"})
	if w := get(h, "/api/files", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d", w.Code)
	}
	if w := get(h, "/api/files", map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d", w.Code)
	}
	if w := get(h, "/api/files", map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Errorf("valid token = %d", w.Code)
	}
	if w := get(h, "/files/n.md", nil); w.Code != http.StatusOK {
		t.Errorf("page behind auth = %d", w.Code)
	}
}

func TestPageRendersBlocks(t *testing.T) {
	h := testRouter(t, "", map[string]string{"Guide.md": "# Title\n\nSome **bold**\n\n<script>alert(1)</script>"})
	w := get(h, "/files/Guide.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<html lang="en" class="dark">`) {
		t.Error("theme class missing")
	}
	if strings.Count(body, `<section class="block">`) != 3 {
		t.Errorf("expected three blocks in %s", body)
	}
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("markdown not rendered")
	}
	if !strings.Contains(body, "<title>Title</title>") {
		t.Error("page title not taken from the first heading")
	}
	if strings.Contains(body, "<script>alert") {
		t.Error("script from document not sanitized")
	}
}

func TestPageNameWithSpaces(t *testing.T) {
	h := testRouter(t, "", map[string]string{"Markdown Guide.md": "hi"})
	if w := get(h, "/files/Markdown%20Guide.md", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	w := get(h, "/", nil)
	if !strings.Contains(w.Body.String(), `href="/files/Markdown%20Guide.md"`) {
		t.Errorf("index link missing: %s", w.Body.String())
	}
}

func TestPageETag(t *testing.T) {
	h := testRouter(t, "", map[string]string{"n.md": "x"})
	first := get(h, "/files/n.md", nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no etag")
	}
	if w := get(h, "/files/n.md", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d", w.Code)
	}
}

func TestIndexEmpty(t *testing.T) {
	w := get(testRouter(t, "", nil), "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "No markdown files yet.") {
		t.Errorf("index = %d %s", w.Code, w.Body.String())
	}
}

func TestEventsMounted(t *testing.T) {
	_, fs := testutil.TestWorkspace(t, nil)
	called := false
	h := NewRouter(fs, Options{Token: "secret", Events: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})})
	if w := get(h, "/api/events", nil); w.Code != http.StatusOK || !called {
		t.Errorf("events = %d, called = %v", w.Code, called)
	}
}

func TestServerShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skip("cannot listen:", err)
	}
	hookRan := make(chan struct{})
	srv := NewServer(ln.Addr().String(), testRouter(t, "", nil), slog.New(slog.NewJSONHandler(io.Discard, nil)), func() { close(hookRan) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	testutil.Eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, "server never answered")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	select {
	case <-hookRan:
	default:
		t.Error("shutdown hook not run")
	}
}
