package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("repository: conflict")
	// ErrUnavailable indicates the storage backend could not be reached.
	ErrUnavailable = errors.New("repository: backend unavailable")
)
