package store

import "errors"

// Sentinel errors shared by every store implementation. Handlers map these
// onto HTTP statuses; the engine retries ErrConflict a bounded number of times.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("transient conflict, retry")
)
