package service

import "errors"

// Service errors. Callers map them to transport status codes.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrSuperseded   = errors.New("report build superseded by a newer request")
	ErrForbidden    = errors.New("session may not access this resource")
	ErrInvalidInput = errors.New("invalid input")
)
