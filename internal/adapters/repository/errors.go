package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("event not found")
	ErrDuplicateSlug = errors.New("event slug already exists")
	ErrInvalidEvent  = errors.New("invalid event")
)
