package storage

import "errors"

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
