package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCredentialMissing = errors.New("api key not configured")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPrecondition      = errors.New("precondition not met")
	ErrInvalidSelection  = errors.New("selected title is not in the generated set")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrTransport         = errors.New("provider transport failure")
	ErrJobFailed         = errors.New("video job failed")
	ErrPipelineBusy      = errors.New("pipeline stage call already in flight")
)
