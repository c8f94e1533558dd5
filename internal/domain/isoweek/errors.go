package isoweek

import "errors"

// Sentinel kinds for week parsing errors.
var (
	ErrInvalidFormat = errors.New("invalid week format; want YYYY-Www")
	ErrOutOfRange    = errors.New("week out of range")
)
