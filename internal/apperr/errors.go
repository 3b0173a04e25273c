package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidDeletion   = errors.New("invalid deletion")
	ErrMalformedDocument = errors.New("malformed document")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSessionActive     = errors.New("another session is active")
	ErrNoSession         = errors.New("no active session")
)
