package session

import "errors"

// Token errors.
var (
	ErrNoToken        = errors.New("no token")
	ErrMalformedToken = errors.New("malformed token")
	ErrExpired        = errors.New("session expired")
)
