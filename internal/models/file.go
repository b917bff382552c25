// Package models defines the domain types shared by the Muse packages.
package models

import "time"

// FileEntry is one markdown file in the workspace as shown in the sidebar.
type FileEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// IsZero reports whether no file is selected.
func (f FileEntry) IsZero() bool {
	return f.Path == ""
}
