// Package testutil provides shared test helpers for setting up workspaces and settings databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/muse/internal/settings"
	"github.com/starford/muse/internal/storage"
)

// TestSettings creates a temporary settings database that is automatically cleaned up.
func TestSettings(t *testing.T) *settings.DB {
	t.Helper()
	db, err := settings.Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace holding files (name -> content)
// and returns its directory with a storage.FS rooted there.
func TestWorkspace(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// ReadFile returns the content of name inside dir, failing the test on error.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
