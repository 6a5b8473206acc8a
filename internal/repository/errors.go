package repository

import "errors"

var (
	// ErrNotFound record not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate duplicate record
	ErrDuplicate = errors.New("duplicate record")

	// ErrVersionConflict the expected document version did not match
	ErrVersionConflict = errors.New("version conflict")
)
