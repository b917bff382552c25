// Package apperr holds the sentinel errors shared across Muse packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidName   = errors.New("invalid file name")
	ErrOutsideRoot   = errors.New("path escapes workspace")
)
