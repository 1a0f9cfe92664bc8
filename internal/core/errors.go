package core

import "errors"

// Classified failures. Callers match them with errors.Is; wrappers add context.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrConflict         = errors.New("conflict")
	ErrNotInRoom        = errors.New("participant not in room")
	ErrMalformedMessage = errors.New("malformed message")
	ErrStorage          = errors.New("storage error")
	ErrDeliveryFailure  = errors.New("delivery failure")
)
