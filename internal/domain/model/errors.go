package model

import "errors"

// ErrUnknownScope is returned by ParseScope for unrecognized scope names.
var ErrUnknownScope = errors.New("unknown scope")
