package scorecard

import "errors"

// Validation errors.
var (
	ErrLeadingZero     = errors.New("invalid score format")
	ErrNotANumber      = errors.New("score is not a number")
	ErrNegative        = errors.New("score is negative")
	ErrTooHigh         = errors.New("score cannot exceed 100")
	ErrMissingScore    = errors.New("score is required")
	ErrMissingEmployee = errors.New("employee id is required")
	ErrInvalidWeek     = errors.New("invalid evaluation week")
	ErrIncomplete      = errors.New("scorecard incomplete")
)
