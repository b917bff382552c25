// Package storage implements the workspace file gateway the editor talks to.
package storage

import "github.com/starford/muse/internal/models"

// Gateway is the narrow file contract consumed by the editor surface,
// the sidebar and the auxiliary servers.
//
// Paths may be absolute or relative to the current directory; either way
// they must resolve inside it.
type Gateway interface {
	// ReadFile returns the text of the file at path.
	ReadFile(path string) (string, error)
	// WriteFile atomically replaces the content of an existing file.
	WriteFile(path, content string) error
	// ListFiles returns the markdown files of the current directory sorted by name.
	ListFiles() ([]models.FileEntry, error)
	// CreateFile creates name (".md" appended when missing) and returns its path.
	// It fails with apperr.ErrAlreadyExists rather than overwrite.
	CreateFile(name, content string) (string, error)
	// DeleteFile removes the file at path.
	DeleteFile(path string) error
	// CurrentDirectory returns the absolute workspace directory.
	CurrentDirectory() string
	// SetCurrentDirectory switches the workspace to an existing directory.
	SetCurrentDirectory(dir string) error
}
